// Package secret stores CLI credentials in the OS keyring (Keychain,
// Secret Service, WinCred) with an environment-variable override.
package secret

import (
	"fmt"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	// ServiceName for keyring entries.
	ServiceName = "craftpanel"

	// KeyAPIKey is the keyring entry holding the panel API key.
	KeyAPIKey = "api_key"

	// KeyServerURL is the keyring entry holding the panel base URL.
	KeyServerURL = "server_url"

	// EnvAPIKey overrides the stored API key when set.
	EnvAPIKey = "CRAFTPANEL_API_KEY"

	// EnvServerURL overrides the stored base URL when set.
	EnvServerURL = "CRAFTPANEL_SERVER_URL"
)

// Store wraps the OS keyring for the panel's credential pair.
type Store struct {
	serviceName string
}

// NewStore creates a keyring-backed credential store.
func NewStore() *Store {
	return &Store{serviceName: ServiceName}
}

// APIKey returns the panel API key. The environment variable takes
// precedence over the keyring so scripted use never touches the keyring.
func (s *Store) APIKey() (string, error) {
	if v := os.Getenv(EnvAPIKey); v != "" {
		return v, nil
	}
	value, err := keyring.Get(s.serviceName, KeyAPIKey)
	if err != nil {
		return "", fmt.Errorf("failed to get API key from keyring: %w", err)
	}
	return value, nil
}

// ServerURL returns the panel base URL, or the given fallback when no
// override or stored value exists.
func (s *Store) ServerURL(fallback string) string {
	if v := os.Getenv(EnvServerURL); v != "" {
		return strings.TrimRight(v, "/")
	}
	value, err := keyring.Get(s.serviceName, KeyServerURL)
	if err != nil || value == "" {
		return fallback
	}
	return strings.TrimRight(value, "/")
}

// Save stores the base URL and API key.
func (s *Store) Save(serverURL, apiKey string) error {
	if err := keyring.Set(s.serviceName, KeyServerURL, serverURL); err != nil {
		return fmt.Errorf("failed to store server URL in keyring: %w", err)
	}
	if err := keyring.Set(s.serviceName, KeyAPIKey, apiKey); err != nil {
		return fmt.Errorf("failed to store API key in keyring: %w", err)
	}
	return nil
}

// Clear removes the stored credentials. Missing entries are not an error.
func (s *Store) Clear() error {
	if err := keyring.Delete(s.serviceName, KeyAPIKey); err != nil && err != keyring.ErrNotFound {
		return fmt.Errorf("failed to delete API key from keyring: %w", err)
	}
	if err := keyring.Delete(s.serviceName, KeyServerURL); err != nil && err != keyring.ErrNotFound {
		return fmt.Errorf("failed to delete server URL from keyring: %w", err)
	}
	return nil
}

// IsAvailable checks if the keyring works on the current system.
func (s *Store) IsAvailable() bool {
	testKey := "_craftpanel_test_availability"

	if err := keyring.Set(s.serviceName, testKey, "test"); err != nil {
		return false
	}
	if _, err := keyring.Get(s.serviceName, testKey); err != nil {
		return false
	}
	_ = keyring.Delete(s.serviceName, testKey)
	return true
}
