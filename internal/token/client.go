package token

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const tokenEndpoint = "/api/v1/console/token"

// apiResponse is the panel's standard response envelope.
type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Client fetches console tokens from the panel's REST API. It satisfies the
// console package's TokenProvider seam via the Fetch method.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a token client for the panel at baseURL.
func NewClient(baseURL, apiKey string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Fetch requests a fresh console token. The returned string is the signed
// JWT to present on the websocket upgrade.
func (c *Client) Fetch(ctx context.Context) (string, error) {
	tok, err := c.FetchToken(ctx)
	if err != nil {
		return "", err
	}
	return tok.Token, nil
}

// FetchToken requests a fresh console token with its expiry metadata.
func (c *Client) FetchToken(ctx context.Context) (*ConsoleToken, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+tokenEndpoint, bytes.NewReader(nil))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("Token endpoint returned error",
			zap.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("token endpoint returned %d: %s", resp.StatusCode, string(body))
	}

	var envelope apiResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse token response: %w", err)
	}
	if !envelope.Success {
		return nil, fmt.Errorf("token endpoint rejected request: %s", envelope.Error)
	}

	var tok ConsoleToken
	if err := json.Unmarshal(envelope.Data, &tok); err != nil {
		return nil, fmt.Errorf("failed to parse token payload: %w", err)
	}
	if tok.Token == "" {
		return nil, fmt.Errorf("token endpoint returned empty token")
	}

	c.logger.Debug("Fetched console token",
		zap.Time("expires_at", tok.ExpiresAt))
	return &tok, nil
}
