package main

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/craftpanel/craftpanel-go/internal/cliclient"
	"github.com/craftpanel/craftpanel-go/internal/config"
	"github.com/craftpanel/craftpanel-go/internal/logs"
	"github.com/craftpanel/craftpanel-go/internal/secret"
)

const defaultServerURL = "http://localhost:8080"

// newTokenSecret generates the HMAC key for console tokens. Tokens are
// short-lived and only ever verified by the process that minted them, so a
// fresh key per daemon start is sufficient and leaves nothing to rotate.
func newTokenSecret() ([]byte, error) {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate token secret: %w", err)
	}
	return key, nil
}

func gameVersionFromConfig(cfg *config.Config) string {
	if cfg.Versions != nil {
		return cfg.Versions.Current
	}
	return ""
}

// resolveCredentials returns the panel address and API key for client
// commands: flags first, then environment / keyring, then defaults.
func resolveCredentials() (string, string, error) {
	store := secret.NewStore()

	url := serverURL
	if url == "" {
		url = store.ServerURL(defaultServerURL)
	}

	key := apiKey
	if key == "" {
		var err error
		key, err = store.APIKey()
		if err != nil {
			return "", "", fmt.Errorf("no API key configured: set --api-key, %s, or run 'craftpanel auth login'", secret.EnvAPIKey)
		}
	}
	return url, key, nil
}

// newPanelClient builds the REST client for client commands, with a quiet
// logger unless --log-level asks for more.
func newPanelClient() (*cliclient.Client, *zap.Logger, error) {
	logger, err := logs.SetupCommandLogger(false, logLevel, false, logDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to setup logger: %w", err)
	}

	url, key, err := resolveCredentials()
	if err != nil {
		return nil, nil, err
	}
	return cliclient.New(url, key, logger), logger, nil
}

// printJSON renders a value as indented JSON on stdout.
func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
