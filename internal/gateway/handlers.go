package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/craftpanel/craftpanel-go/internal/storage"
)

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("Failed to encode JSON response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, apiResponse{Success: false, Error: message})
}

func (s *Server) writeSuccess(w http.ResponseWriter, data interface{}) {
	s.writeJSON(w, http.StatusOK, apiResponse{Success: true, Data: data})
}

// handleIssueToken mints a short-lived console token for the caller. The
// API key already authenticated the request; the token's subject records
// who asked.
func (s *Server) handleIssueToken(w http.ResponseWriter, r *http.Request) {
	subject := r.URL.Query().Get("subject")
	if subject == "" {
		subject = "admin"
	}

	if s.tracing != nil {
		_, span := s.tracing.TraceTokenIssue(r.Context(), subject)
		defer span.End()
	}

	tok, err := s.issuer.Mint(subject)
	if err != nil {
		s.logger.Error("Failed to mint console token", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to mint console token")
		return
	}
	if s.metrics != nil {
		s.metrics.RecordTokenIssued()
	}
	s.writeSuccess(w, tok)
}

// handleRecentCommands returns the tail of the command audit log.
func (s *Server) handleRecentCommands(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	records, err := s.db.RecentCommands(limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeSuccess(w, map[string]interface{}{"commands": records, "count": len(records)})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	status := map[string]interface{}{
		"listen_addr":    s.cfg.Listen,
		"uptime_seconds": int(time.Since(s.startTime).Seconds()),
		"subscribers":    s.hub.Count(),
		"game":           s.game.Snapshot(),
	}
	if s.checker != nil {
		status["versions"] = s.checker.GetVersionInfo()
	}
	s.writeSuccess(w, status)
}

func (s *Server) handleGameStart(w http.ResponseWriter, _ *http.Request) {
	if err := s.game.Start(); err != nil {
		s.writeError(w, http.StatusConflict, err.Error())
		return
	}
	s.writeSuccess(w, s.game.Snapshot())
}

func (s *Server) handleGameStop(w http.ResponseWriter, _ *http.Request) {
	if err := s.game.Stop(); err != nil {
		s.writeError(w, http.StatusConflict, err.Error())
		return
	}
	s.writeSuccess(w, s.game.Snapshot())
}

func (s *Server) handleGameRestart(w http.ResponseWriter, _ *http.Request) {
	if err := s.game.Restart(); err != nil {
		s.writeError(w, http.StatusConflict, err.Error())
		return
	}
	s.writeSuccess(w, s.game.Snapshot())
}

func (s *Server) handleListMods(w http.ResponseWriter, _ *http.Request) {
	records, err := s.mods.List()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	enabled := 0
	for _, m := range records {
		if m.Enabled {
			enabled++
		}
	}
	if s.metrics != nil {
		s.metrics.SetModStats(enabled, len(records)-enabled)
	}
	s.writeSuccess(w, map[string]interface{}{"mods": records, "count": len(records)})
}

func (s *Server) handleSearchMods(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		s.writeError(w, http.StatusBadRequest, "missing query parameter: q")
		return
	}
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	hits, err := s.mods.Search(query, limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeSuccess(w, map[string]interface{}{"results": hits, "count": len(hits)})
}

func (s *Server) handleEnableMod(w http.ResponseWriter, r *http.Request) {
	s.toggleMod(w, chi.URLParam(r, "name"), true)
}

func (s *Server) handleDisableMod(w http.ResponseWriter, r *http.Request) {
	s.toggleMod(w, chi.URLParam(r, "name"), false)
}

func (s *Server) toggleMod(w http.ResponseWriter, name string, enable bool) {
	var err error
	if enable {
		err = s.mods.Enable(name)
	} else {
		err = s.mods.Disable(name)
	}
	if err != nil {
		s.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	s.writeSuccess(w, map[string]interface{}{"name": name, "enabled": enable})
}

func (s *Server) handleVersions(w http.ResponseWriter, _ *http.Request) {
	s.writeSuccess(w, s.checker.GetVersionInfo())
}

func (s *Server) handleVersionsRefresh(w http.ResponseWriter, r *http.Request) {
	s.checker.Check(r.Context())
	s.writeSuccess(w, s.checker.GetVersionInfo())
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReadyz reports ready once the game process reached a terminal or
// running state at least once; a crashed game still serves the panel.
func (s *Server) handleReadyz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ready",
		"game":   s.game.Snapshot().Status,
	})
}

// dispatchCommand is the hub's DispatchFunc: audit first, then forward to
// the game process stdin.
func (s *Server) dispatchCommand(subject, content string) error {
	if s.tracing != nil {
		_, span := s.tracing.TraceCommand(context.Background(), "websocket", subject)
		defer span.End()
	}

	record := &storage.CommandRecord{
		Subject: subject,
		Source:  "websocket",
		Content: content,
	}
	if err := s.db.SaveCommand(record); err != nil {
		s.logger.Warn("Failed to audit command", zap.Error(err))
	}

	err := s.game.SendCommand(content)
	if s.metrics != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		s.metrics.RecordCommand("websocket", status)
	}
	return err
}
