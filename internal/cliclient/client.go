// Package cliclient is the typed HTTP client the CLI commands use to talk
// to a running craftpanel daemon.
package cliclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/craftpanel/craftpanel-go/internal/index"
	"github.com/craftpanel/craftpanel-go/internal/storage"
	"github.com/craftpanel/craftpanel-go/internal/versions"
)

const defaultTimeout = 10 * time.Second

// APIError carries the HTTP status and server-side message of a failed call.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("API error: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("API error: %s (HTTP %d)", e.Message, e.StatusCode)
}

type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Client talks to the panel REST API.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  *zap.Logger
}

// New creates a client for the panel at baseURL.
func New(baseURL, apiKey string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: defaultTimeout},
		logger:  logger,
	}
}

// BaseURL returns the panel address this client targets.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-API-Key", c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("API request", zap.String("method", method), zap.String("path", path))

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	var envelope apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return &APIError{StatusCode: resp.StatusCode}
	}
	if resp.StatusCode != http.StatusOK || !envelope.Success {
		return &APIError{StatusCode: resp.StatusCode, Message: envelope.Error}
	}
	if out != nil && envelope.Data != nil {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// StatusInfo is the daemon's status report.
type StatusInfo struct {
	ListenAddr    string                 `json:"listen_addr"`
	UptimeSeconds float64                `json:"uptime_seconds"`
	Subscribers   int                    `json:"subscribers"`
	Game          map[string]interface{} `json:"game,omitempty"`
	Versions      *versions.VersionInfo  `json:"versions,omitempty"`
}

// Status fetches the daemon status.
func (c *Client) Status(ctx context.Context) (*StatusInfo, error) {
	var info StatusInfo
	if err := c.do(ctx, http.MethodGet, "/api/v1/status", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// GameAction starts, stops or restarts the game process. action must be one
// of "start", "stop", "restart".
func (c *Client) GameAction(ctx context.Context, action string) error {
	return c.do(ctx, http.MethodPost, "/api/v1/game/"+action, nil, nil)
}

// ListMods returns all known mods.
func (c *Client) ListMods(ctx context.Context) ([]*storage.ModRecord, error) {
	var out struct {
		Mods []*storage.ModRecord `json:"mods"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/mods", nil, &out); err != nil {
		return nil, err
	}
	return out.Mods, nil
}

// SearchMods runs a full-text search over the mod index.
func (c *Client) SearchMods(ctx context.Context, query string, limit int) ([]*index.SearchHit, error) {
	params := url.Values{"q": {query}}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	var out struct {
		Results []*index.SearchHit `json:"results"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/mods/search?"+params.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

// SetModEnabled enables or disables a mod by name.
func (c *Client) SetModEnabled(ctx context.Context, name string, enabled bool) error {
	action := "disable"
	if enabled {
		action = "enable"
	}
	return c.do(ctx, http.MethodPost, "/api/v1/mods/"+url.PathEscape(name)+"/"+action, nil, nil)
}

// Versions returns the cached release-check result.
func (c *Client) Versions(ctx context.Context) (*versions.VersionInfo, error) {
	var info versions.VersionInfo
	if err := c.do(ctx, http.MethodGet, "/api/v1/versions", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// RefreshVersions forces an immediate manifest check and returns the result.
func (c *Client) RefreshVersions(ctx context.Context) (*versions.VersionInfo, error) {
	var info versions.VersionInfo
	if err := c.do(ctx, http.MethodPost, "/api/v1/versions/refresh", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// RecentCommands returns the newest entries of the command audit log.
func (c *Client) RecentCommands(ctx context.Context, limit int) ([]*storage.CommandRecord, error) {
	path := "/api/v1/console/commands"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var out struct {
		Commands []*storage.CommandRecord `json:"commands"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Commands, nil
}
