package gateway

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/craftpanel/craftpanel-go/internal/token"
)

// Application close codes for rejected console sessions. Browsers cannot
// read handshake failures, so the upgrade always succeeds and rejection is
// delivered as a close frame.
const (
	closeUnauthorized = 4001
	closeForbidden    = 4003
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Token auth protects the endpoint; the panel API is cross-origin by
	// design.
	CheckOrigin: func(*http.Request) bool { return true },
}

// handleConsoleWS upgrades GET /ws/console?token=&history_lines=.
func (s *Server) handleConsoleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("Console upgrade failed", zap.Error(err))
		return
	}

	claims, verr := s.issuer.Verify(r.URL.Query().Get("token"))
	if verr != nil {
		code := closeUnauthorized
		if errors.Is(verr, token.ErrScope) {
			code = closeForbidden
		}
		s.logger.Info("Console session rejected",
			zap.Int("close_code", code),
			zap.String("remote", conn.RemoteAddr().String()),
			zap.Error(verr))
		s.closeWith(conn, code, "console access denied")
		return
	}

	historyLines := s.cfg.Console.HistoryLines
	if v := r.URL.Query().Get("history_lines"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.closeWith(conn, websocket.CloseUnsupportedData, "invalid history_lines")
			return
		}
		historyLines = n
	}

	var history []string
	if s.buffer != nil {
		history = s.buffer.Tail(historyLines)
	}
	s.hub.Attach(conn, claims.Subject, history)
}

func (s *Server) closeWith(conn *websocket.Conn, code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
	_ = conn.Close()
}
