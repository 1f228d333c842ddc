package gateway

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/craftpanel/craftpanel-go/internal/observability"
)

const (
	// writeWait bounds every websocket write.
	writeWait = 10 * time.Second

	// pongWait is how long a subscriber may stay silent before it is
	// considered dead; pings go out at pingPeriod.
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// sendQueueSize bounds the per-subscriber outbound queue. A subscriber
	// that falls this far behind is dropped rather than stalling the hub.
	sendQueueSize = 256

	maxInboundSize = 4096
)

// inboundFrame is the only message shape clients may send.
type inboundFrame struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// DispatchFunc forwards a console command from a subscriber to the game.
type DispatchFunc func(subject, content string) error

// subscriber is one attached console websocket.
type subscriber struct {
	conn    *websocket.Conn
	subject string
	send    chan []byte
	once    sync.Once
}

func (s *subscriber) close() {
	s.once.Do(func() {
		close(s.send)
	})
}

// writeMessage writes one frame guarded by the write deadline.
func (s *subscriber) writeMessage(messageType int, data []byte) error {
	if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return s.conn.WriteMessage(messageType, data)
}

// Hub fans console output out to the attached websocket subscribers and
// routes their commands to the dispatcher.
type Hub struct {
	logger   *zap.Logger
	metrics  *observability.MetricsManager
	dispatch DispatchFunc

	mu   sync.RWMutex
	subs map[*subscriber]struct{}
}

// NewHub creates a hub. metrics may be nil.
func NewHub(logger *zap.Logger, metrics *observability.MetricsManager, dispatch DispatchFunc) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		logger:   logger,
		metrics:  metrics,
		dispatch: dispatch,
		subs:     make(map[*subscriber]struct{}),
	}
}

// Count returns the number of live subscribers.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Broadcast queues one console line for every subscriber. Subscribers whose
// queue is full are dropped.
func (h *Hub) Broadcast(line string) {
	data := []byte(line)

	h.mu.RLock()
	var slow []*subscriber
	for s := range h.subs {
		select {
		case s.send <- data:
		default:
			slow = append(slow, s)
		}
	}
	h.mu.RUnlock()

	if h.metrics != nil {
		h.metrics.RecordBroadcast()
	}

	for _, s := range slow {
		h.logger.Warn("Dropping slow console subscriber",
			zap.String("subject", s.subject),
			zap.String("remote", s.conn.RemoteAddr().String()))
		if h.metrics != nil {
			h.metrics.RecordDroppedClient()
		}
		h.remove(s)
	}
}

// Attach registers conn as a subscriber: replays history, then streams live
// output until the connection dies. Attach does not block; pumps run in
// their own goroutines.
func (h *Hub) Attach(conn *websocket.Conn, subject string, history []string) {
	s := &subscriber{
		conn:    conn,
		subject: subject,
		send:    make(chan []byte, sendQueueSize),
	}

	// History replay happens before registration so live lines can never
	// arrive ahead of the replayed ones.
	for _, line := range history {
		if err := s.writeMessage(websocket.TextMessage, []byte(line)); err != nil {
			h.logger.Debug("History replay failed", zap.Error(err))
			_ = conn.Close()
			return
		}
	}

	h.mu.Lock()
	h.subs[s] = struct{}{}
	n := len(h.subs)
	h.mu.Unlock()
	if h.metrics != nil {
		h.metrics.SetConsoleSessions(n)
	}
	h.logger.Info("Console subscriber attached",
		zap.String("subject", subject),
		zap.Int("subscribers", n))

	go h.writePump(s)
	go h.readPump(s)
}

// remove unregisters and closes a subscriber.
func (h *Hub) remove(s *subscriber) {
	h.mu.Lock()
	_, ok := h.subs[s]
	if ok {
		delete(h.subs, s)
	}
	n := len(h.subs)
	h.mu.Unlock()
	if !ok {
		return
	}

	s.close()
	_ = s.conn.Close()
	if h.metrics != nil {
		h.metrics.SetConsoleSessions(n)
	}
	h.logger.Info("Console subscriber detached",
		zap.String("subject", s.subject),
		zap.Int("subscribers", n))
}

// Close drops every subscriber, sending a normal close frame first.
func (h *Hub) Close() {
	h.mu.Lock()
	subs := make([]*subscriber, 0, len(h.subs))
	for s := range h.subs {
		subs = append(subs, s)
	}
	h.mu.Unlock()

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "server shutting down")
	for _, s := range subs {
		_ = s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
		h.remove(s)
	}
}

// writePump drains the send queue and keeps the connection alive with pings.
func (h *Hub) writePump(s *subscriber) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		h.remove(s)
	}()

	for {
		select {
		case data, ok := <-s.send:
			if !ok {
				return
			}
			if err := s.writeMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			if err := s.writeMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump consumes inbound frames: command envelopes go to the dispatcher,
// anything else is ignored.
func (h *Hub) readPump(s *subscriber) {
	defer h.remove(s)

	s.conn.SetReadLimit(maxInboundSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			return
		}

		var frame inboundFrame
		if err := json.Unmarshal(data, &frame); err != nil || frame.Type != "command" {
			h.logger.Debug("Ignoring malformed console frame",
				zap.String("subject", s.subject))
			continue
		}
		if h.dispatch == nil {
			continue
		}
		if err := h.dispatch(s.subject, frame.Content); err != nil {
			h.logger.Warn("Command dispatch failed",
				zap.String("subject", s.subject),
				zap.Error(err))
		}
	}
}
