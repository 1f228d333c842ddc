package token

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestIssuerMintAndVerify(t *testing.T) {
	issuer := NewIssuer([]byte("test-secret"), 60*time.Second)

	tok, err := issuer.Mint("admin")
	require.NoError(t, err)
	assert.NotEmpty(t, tok.Token)
	assert.Equal(t, 60, tok.ExpiresInSeconds)

	claims, err := issuer.Verify(tok.Token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Subject)
	assert.Equal(t, ScopeConsole, claims.Scope)
	assert.NotEmpty(t, claims.ID)
}

func TestIssuerVerifyExpired(t *testing.T) {
	issuer := NewIssuer([]byte("test-secret"), 60*time.Second)

	tok, err := issuer.Mint("admin")
	require.NoError(t, err)

	// Move the verifier clock past expiry.
	issuer.now = func() time.Time { return time.Now().Add(2 * time.Minute) }

	_, err = issuer.Verify(tok.Token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestIssuerVerifyWrongSecret(t *testing.T) {
	issuer := NewIssuer([]byte("test-secret"), 60*time.Second)
	other := NewIssuer([]byte("other-secret"), 60*time.Second)

	tok, err := issuer.Mint("admin")
	require.NoError(t, err)

	_, err = other.Verify(tok.Token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestIssuerVerifyGarbage(t *testing.T) {
	issuer := NewIssuer([]byte("test-secret"), 60*time.Second)

	_, err := issuer.Verify("not-a-jwt")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestIssuerVerifyWrongScope(t *testing.T) {
	issuer := NewIssuer([]byte("test-secret"), 60*time.Second)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "admin",
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
		Scope: "metrics",
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = issuer.Verify(signed)
	assert.ErrorIs(t, err, ErrScope)
}

func TestClientFetchToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/console/token", r.URL.Path)
		assert.Equal(t, "secret-key", r.Header.Get("X-API-Key"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data": map[string]interface{}{
				"token":              "signed-jwt",
				"expires_at":         time.Now().Add(time.Minute).Format(time.RFC3339),
				"expires_in_seconds": 60,
			},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "secret-key", zap.NewNop())

	tok, err := client.FetchToken(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "signed-jwt", tok.Token)
	assert.Equal(t, 60, tok.ExpiresInSeconds)

	raw, err := client.Fetch(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "signed-jwt", raw)
}

func TestClientFetchTokenUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"error":   "invalid API key",
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "wrong-key", zap.NewNop())

	_, err := client.FetchToken(t.Context())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}
