// Package console implements the client side of the game-server console: a
// websocket connection with token-based auth, automatic reconnection with
// bounded exponential backoff, and a strict close-code contract.
package console

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Close codes the connection reacts to. 4001 and 4003 are the panel's
// application codes for rejected sessions.
const (
	CloseNormal       = websocket.CloseNormalClosure    // 1000
	CloseAbnormal     = websocket.CloseAbnormalClosure  // 1006
	CloseUnauthorized = 4001
	CloseForbidden    = 4003
)

// CloseEvent describes why a transport died. Reads that fail without a
// close frame report CloseAbnormal with an empty reason.
type CloseEvent struct {
	Code   int
	Reason string
}

// commandEnvelope is the only frame shape the client sends.
type commandEnvelope struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// Conn is a console connection. All state transitions are serialized by one
// mutex; at most one transport is live at a time, and reactions from a
// superseded transport are discarded by generation counting.
type Conn struct {
	opts   Options
	logger *zap.Logger

	mu         sync.Mutex
	state      State
	transport  Transport
	generation uint64
	retryCount int
	retryTimer *time.Timer
	suppress   bool // set by Disconnect; blocks all later retries

	jitterFn func() time.Duration
}

// New creates a console connection. It does not dial; call Connect. A fresh
// connection starts in the connecting state, matching the first thing
// Connect does with it.
func New(opts Options) (*Conn, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	return &Conn{
		opts:     opts,
		logger:   opts.Logger,
		state:    StateConnecting,
		jitterFn: defaultJitter,
	}, nil
}

// State returns the current connection state.
func (c *Conn) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// RetryCount returns how many automatic retries have been scheduled since
// the last successful open or Reconnect.
func (c *Conn) RetryCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.retryCount
}

// Connect establishes the console session. It is safe to call in any state:
// a pending retry is cancelled and an existing transport is closed with 1000
// before the new attempt. ctx bounds the credential fetch and handshake of
// this attempt and of every automatic retry descending from it.
func (c *Conn) Connect(ctx context.Context) error {
	c.mu.Lock()
	c.suppress = false
	c.cancelRetryLocked()
	c.generation++
	gen := c.generation
	if old := c.transport; old != nil {
		c.transport = nil
		go func() { _ = old.Close(CloseNormal, "reconnecting") }()
	}
	notify := c.setStateLocked(StateConnecting)
	c.mu.Unlock()
	notify()

	return c.dial(ctx, gen)
}

// Reconnect resets the retry budget and connects. It is the only way out of
// the forbidden and token_error states.
func (c *Conn) Reconnect(ctx context.Context) error {
	c.mu.Lock()
	c.retryCount = 0
	c.mu.Unlock()
	return c.Connect(ctx)
}

// Disconnect closes the session with code 1000 and suppresses every future
// automatic retry. The connection ends in the disconnected state.
func (c *Conn) Disconnect() {
	c.mu.Lock()
	c.suppress = true
	c.cancelRetryLocked()
	c.generation++
	t := c.transport
	c.transport = nil
	notify := c.setStateLocked(StateDisconnected)
	c.mu.Unlock()

	if t != nil {
		_ = t.Close(CloseNormal, "client disconnect")
	}
	notify()
}

// SendCommand writes the command envelope to the server. When the transport
// is not open this is a no-op returning nil; command text typed into a dead
// console is dropped, not queued.
func (c *Conn) SendCommand(text string) error {
	payload, err := json.Marshal(commandEnvelope{Type: "command", Content: text})
	if err != nil {
		return fmt.Errorf("failed to encode command: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateConnected || c.transport == nil {
		return nil
	}
	return c.transport.WriteMessage(websocket.TextMessage, payload)
}

// dial runs the credential fetch and handshake for generation gen. A
// generation bumped by a newer Connect/Disconnect makes every outcome here
// moot.
func (c *Conn) dial(ctx context.Context, gen uint64) error {
	fetchCtx, cancel := context.WithTimeout(ctx, c.opts.DialTimeout)
	tok, err := c.opts.TokenProvider.Fetch(fetchCtx)
	cancel()
	if err != nil {
		c.mu.Lock()
		if gen != c.generation {
			c.mu.Unlock()
			return nil
		}
		notify := c.setStateLocked(StateTokenError)
		c.mu.Unlock()
		notify()
		c.logger.Warn("Console token fetch failed", zap.Error(err))
		return fmt.Errorf("failed to fetch console token: %w", err)
	}

	dialCtx, cancel := context.WithTimeout(ctx, c.opts.DialTimeout)
	t, err := c.opts.Dialer.Dial(dialCtx, c.buildURL(tok))
	cancel()

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		if err == nil {
			_ = t.Close(CloseNormal, "superseded")
		}
		return nil
	}
	if err != nil {
		notify := c.setStateLocked(StateDisconnected)
		c.scheduleRetryLocked(ctx)
		c.mu.Unlock()
		notify()
		c.logger.Warn("Console dial failed", zap.Error(err))
		return fmt.Errorf("console dial failed: %w", err)
	}

	c.transport = t
	c.retryCount = 0
	notify := c.setStateLocked(StateConnected)
	onOpen := c.opts.OnOpen
	c.mu.Unlock()
	notify()
	if onOpen != nil {
		onOpen(t)
	}

	go c.readLoop(ctx, gen, t)
	return nil
}

// readLoop delivers inbound frames until the transport dies, then routes
// the close code through the close contract.
func (c *Conn) readLoop(ctx context.Context, gen uint64, t Transport) {
	for {
		_, data, err := t.ReadMessage()
		if err != nil {
			c.handleClose(ctx, gen, closeEvent(err))
			return
		}

		c.mu.Lock()
		stale := gen != c.generation
		onMessage := c.opts.OnMessage
		c.mu.Unlock()
		if stale {
			return
		}
		if onMessage != nil {
			onMessage(data)
		}
	}
}

// handleClose applies the close-code contract: 1000 ends the session
// quietly, 4001/4003 mark it forbidden, and anything else schedules a retry
// while the budget lasts.
func (c *Conn) handleClose(ctx context.Context, gen uint64, ev CloseEvent) {
	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return
	}
	c.transport = nil

	var notify func()
	switch ev.Code {
	case CloseNormal:
		notify = c.setStateLocked(StateDisconnected)
	case CloseUnauthorized, CloseForbidden:
		notify = c.setStateLocked(StateForbidden)
	default:
		notify = c.setStateLocked(StateDisconnected)
		c.scheduleRetryLocked(ctx)
	}
	onClose := c.opts.OnClose
	c.mu.Unlock()

	notify()
	if onClose != nil {
		onClose(ev)
	}
	c.logger.Debug("Console transport closed",
		zap.Int("code", ev.Code),
		zap.String("reason", ev.Reason))
}

// scheduleRetryLocked arms the retry timer unless Disconnect suppressed
// retries or the budget is spent. Caller holds c.mu.
func (c *Conn) scheduleRetryLocked(ctx context.Context) {
	if c.suppress {
		return
	}
	if c.retryCount >= c.opts.MaxRetries {
		c.logger.Warn("Console retry limit reached",
			zap.Int("max_retries", c.opts.MaxRetries))
		return
	}

	delay := backoffDelay(c.retryCount, c.opts.BaseDelay, c.opts.MaxDelay) + c.jitterFn()
	c.retryCount++
	attempt := c.retryCount
	c.logger.Info("Scheduling console reconnect",
		zap.Int("attempt", attempt),
		zap.Duration("delay", delay))

	c.retryTimer = time.AfterFunc(delay, func() {
		c.retry(ctx)
	})
}

// retry is the timer callback: start a fresh attempt unless Disconnect or
// context cancellation got there first.
func (c *Conn) retry(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	c.mu.Lock()
	if c.suppress {
		c.mu.Unlock()
		return
	}
	c.generation++
	gen := c.generation
	notify := c.setStateLocked(StateConnecting)
	c.mu.Unlock()
	notify()

	_ = c.dial(ctx, gen)
}

func (c *Conn) cancelRetryLocked() {
	if c.retryTimer != nil {
		c.retryTimer.Stop()
		c.retryTimer = nil
	}
}

// setStateLocked records the transition and returns the notification to run
// after the lock is released, so OnStateChange may call back into the Conn.
func (c *Conn) setStateLocked(s State) func() {
	prev := c.state
	c.state = s
	onChange := c.opts.OnStateChange
	return func() {
		if prev != s {
			c.logger.Debug("Console state changed",
				zap.String("from", string(prev)),
				zap.String("to", string(s)))
		}
		if onChange != nil {
			onChange(s)
		}
	}
}

func (c *Conn) buildURL(token string) string {
	u, err := url.Parse(c.opts.URL)
	if err != nil {
		// validate() already parsed this URL.
		return c.opts.URL
	}
	q := u.Query()
	q.Set("token", token)
	q.Set("history_lines", strconv.Itoa(c.opts.HistoryLines))
	u.RawQuery = q.Encode()
	return u.String()
}

const jitterWindow = time.Second

// defaultJitter spreads retries over a one-second window so a fleet of
// clients does not reconnect in lockstep.
func defaultJitter() time.Duration {
	return time.Duration(rand.Int63n(int64(jitterWindow)))
}

// backoffDelay returns min(base·2^retry, max).
func backoffDelay(retry int, base, max time.Duration) time.Duration {
	d := base
	for i := 0; i < retry; i++ {
		d *= 2
		if d >= max {
			return max
		}
	}
	if d > max {
		d = max
	}
	return d
}

// closeEvent extracts the close code and reason from a read error. Errors
// that carry no close frame count as abnormal closure.
func closeEvent(err error) CloseEvent {
	if ce, ok := err.(*websocket.CloseError); ok {
		return CloseEvent{Code: ce.Code, Reason: ce.Text}
	}
	return CloseEvent{Code: CloseAbnormal}
}
