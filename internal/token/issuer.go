package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims are the JWT claims carried by a console token.
type Claims struct {
	jwt.RegisteredClaims
	Scope string `json:"scope,omitempty"`
}

// Issuer mints and verifies console tokens with a shared HMAC secret.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer creates an issuer. ttl bounds how long minted tokens stay valid.
func NewIssuer(secret []byte, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	return &Issuer{
		secret: secret,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Mint creates a signed console token for the given subject.
func (i *Issuer) Mint(subject string) (*ConsoleToken, error) {
	now := i.now()
	expiry := now.Add(i.ttl)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiry),
			ID:        uuid.NewString(),
		},
		Scope: ScopeConsole,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign console token: %w", err)
	}

	return &ConsoleToken{
		Token:            signed,
		ExpiresAt:        expiry,
		ExpiresInSeconds: int(i.ttl.Seconds()),
	}, nil
}

// Verify parses and validates a console token string. It returns
// ErrTokenExpired for expired tokens, ErrScope for tokens minted for another
// scope, and ErrTokenInvalid for everything else that fails to parse.
func (i *Issuer) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !parsed.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.Scope != ScopeConsole {
		return nil, ErrScope
	}
	return claims, nil
}
