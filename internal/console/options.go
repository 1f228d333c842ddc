package console

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// TokenProvider supplies the credential presented on the websocket upgrade.
// A fresh token is fetched before every dial attempt.
type TokenProvider interface {
	Fetch(ctx context.Context) (string, error)
}

// Default option values.
const (
	DefaultHistoryLines = 100
	DefaultMaxRetries   = 10
	DefaultBaseDelay    = 1 * time.Second
	DefaultMaxDelay     = 30 * time.Second
	DefaultDialTimeout  = 15 * time.Second
)

// Options configure a console connection. Zero values fall back to the
// documented defaults; TokenProvider and URL are required.
type Options struct {
	// URL is the websocket endpoint without credentials, e.g.
	// ws://127.0.0.1:8080/ws/console. Token and history_lines query
	// parameters are appended per dial.
	URL string

	TokenProvider TokenProvider

	// Dialer overrides the production websocket dialer. Tests use this.
	Dialer Dialer

	// HistoryLines is how many buffered lines the server replays on attach.
	HistoryLines int

	// MaxRetries caps automatic reconnect attempts after abnormal closes.
	MaxRetries int

	// BaseDelay and MaxDelay bound the exponential backoff between retries.
	BaseDelay time.Duration
	MaxDelay  time.Duration

	// DialTimeout bounds the credential fetch and the websocket handshake,
	// each separately.
	DialTimeout time.Duration

	Logger *zap.Logger

	// Callbacks. All are optional and are invoked without the connection
	// lock held; they must not block for long. OnOpen receives the live
	// transport; OnClose receives the close code and reason of the
	// transport that just died.
	OnOpen        func(Transport)
	OnStateChange func(State)
	OnMessage     func(data []byte)
	OnClose       func(CloseEvent)
}

func (o *Options) validate() error {
	if o.URL == "" {
		return fmt.Errorf("console: URL is required")
	}
	u, err := url.Parse(o.URL)
	if err != nil {
		return fmt.Errorf("console: invalid URL: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("console: URL scheme must be ws or wss, got %q", u.Scheme)
	}
	if o.TokenProvider == nil {
		return fmt.Errorf("console: TokenProvider is required")
	}
	if o.HistoryLines < 0 {
		return fmt.Errorf("console: HistoryLines must not be negative")
	}
	if o.MaxRetries < 0 {
		return fmt.Errorf("console: MaxRetries must not be negative")
	}
	if o.BaseDelay < 0 || o.MaxDelay < 0 || o.DialTimeout < 0 {
		return fmt.Errorf("console: delays must not be negative")
	}

	if o.HistoryLines == 0 {
		o.HistoryLines = DefaultHistoryLines
	}
	if o.MaxRetries == 0 {
		o.MaxRetries = DefaultMaxRetries
	}
	if o.BaseDelay == 0 {
		o.BaseDelay = DefaultBaseDelay
	}
	if o.MaxDelay == 0 {
		o.MaxDelay = DefaultMaxDelay
	}
	if o.DialTimeout == 0 {
		o.DialTimeout = DefaultDialTimeout
	}

	if o.MaxDelay < o.BaseDelay {
		return fmt.Errorf("console: MaxDelay %v is below BaseDelay %v", o.MaxDelay, o.BaseDelay)
	}
	if o.Dialer == nil {
		o.Dialer = NewDialer(o.DialTimeout)
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return nil
}
