package secret

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestStoreRoundTrip(t *testing.T) {
	keyring.MockInit()
	s := NewStore()

	require.NoError(t, s.Save("http://localhost:8085/", "cpk_abc123"))

	key, err := s.APIKey()
	require.NoError(t, err)
	assert.Equal(t, "cpk_abc123", key)
	assert.Equal(t, "http://localhost:8085", s.ServerURL("http://fallback"),
		"trailing slash stripped")

	require.NoError(t, s.Clear())
	_, err = s.APIKey()
	assert.Error(t, err)
	assert.Equal(t, "http://fallback", s.ServerURL("http://fallback"))
}

func TestClearIsIdempotent(t *testing.T) {
	keyring.MockInit()
	s := NewStore()

	require.NoError(t, s.Clear())
	require.NoError(t, s.Clear())
}

func TestEnvOverrides(t *testing.T) {
	keyring.MockInit()
	s := NewStore()
	require.NoError(t, s.Save("http://stored", "stored-key"))

	t.Setenv(EnvAPIKey, "env-key")
	t.Setenv(EnvServerURL, "http://env/")

	key, err := s.APIKey()
	require.NoError(t, err)
	assert.Equal(t, "env-key", key)
	assert.Equal(t, "http://env", s.ServerURL("http://fallback"))
}
