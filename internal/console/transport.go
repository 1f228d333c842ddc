package console

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
)

// Transport is the minimal surface of a websocket connection the console
// core needs. gorilla/websocket's *Conn satisfies it via wsTransport; tests
// substitute fakes.
type Transport interface {
	// ReadMessage blocks for the next frame. A server-initiated close
	// surfaces as a *websocket.CloseError.
	ReadMessage() (messageType int, data []byte, err error)

	// WriteMessage writes one frame.
	WriteMessage(messageType int, data []byte) error

	// Close sends a close frame with the given code, then tears down the
	// underlying connection.
	Close(code int, reason string) error
}

// Dialer establishes console transports. The default dials with
// gorilla/websocket; tests inject fakes.
type Dialer interface {
	Dial(ctx context.Context, url string) (Transport, error)
}

const defaultHandshakeTimeout = 15 * time.Second

// wsDialer is the production Dialer backed by gorilla/websocket.
type wsDialer struct {
	handshakeTimeout time.Duration
}

// NewDialer returns the production websocket dialer. A non-positive
// handshakeTimeout falls back to 15s.
func NewDialer(handshakeTimeout time.Duration) Dialer {
	if handshakeTimeout <= 0 {
		handshakeTimeout = defaultHandshakeTimeout
	}
	return &wsDialer{handshakeTimeout: handshakeTimeout}
}

func (d *wsDialer) Dial(ctx context.Context, url string) (Transport, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: d.handshakeTimeout,
	}
	conn, resp, err := dialer.DialContext(ctx, url, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}
	return &wsTransport{conn: conn}, nil
}

const closeWriteTimeout = 5 * time.Second

// wsTransport adapts *websocket.Conn to the Transport interface.
type wsTransport struct {
	conn *websocket.Conn
}

func (t *wsTransport) ReadMessage() (int, []byte, error) {
	return t.conn.ReadMessage()
}

func (t *wsTransport) WriteMessage(messageType int, data []byte) error {
	return t.conn.WriteMessage(messageType, data)
}

func (t *wsTransport) Close(code int, reason string) error {
	msg := websocket.FormatCloseMessage(code, reason)
	_ = t.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeWriteTimeout))
	return t.conn.Close()
}
