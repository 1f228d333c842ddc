// Package gateway is the panel's HTTP surface: the REST API, the console
// websocket endpoint, and the operational endpoints.
package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/craftpanel/craftpanel-go/internal/config"
	"github.com/craftpanel/craftpanel-go/internal/gameproc"
	"github.com/craftpanel/craftpanel-go/internal/mods"
	"github.com/craftpanel/craftpanel-go/internal/observability"
	"github.com/craftpanel/craftpanel-go/internal/storage"
	"github.com/craftpanel/craftpanel-go/internal/token"
	"github.com/craftpanel/craftpanel-go/internal/versions"
)

// apiResponse is the standard response envelope.
type apiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Server provides the HTTP API with a chi router.
type Server struct {
	cfg     *config.Config
	logger  *zap.Logger
	router  *chi.Mux
	issuer  *token.Issuer
	hub     *Hub
	game    *gameproc.Supervisor
	buffer  *gameproc.ConsoleBuffer
	mods    *mods.Manager
	checker *versions.Checker
	db      *storage.BoltDB
	metrics *observability.MetricsManager
	tracing *observability.TracingManager

	startTime time.Time
}

// Deps are the collaborators the server exposes over HTTP.
type Deps struct {
	Config  *config.Config
	Logger  *zap.Logger
	Issuer  *token.Issuer
	Game    *gameproc.Supervisor
	Buffer  *gameproc.ConsoleBuffer
	Mods    *mods.Manager
	Checker *versions.Checker
	DB      *storage.BoltDB
	Metrics *observability.MetricsManager
	Tracing *observability.TracingManager
}

// NewServer creates the gateway server and wires its routes.
func NewServer(deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		cfg:       deps.Config,
		logger:    logger,
		router:    chi.NewRouter(),
		issuer:    deps.Issuer,
		game:      deps.Game,
		buffer:    deps.Buffer,
		mods:      deps.Mods,
		checker:   deps.Checker,
		db:        deps.DB,
		metrics:   deps.Metrics,
		tracing:   deps.Tracing,
		startTime: time.Now(),
	}
	s.hub = NewHub(logger, deps.Metrics, s.dispatchCommand)
	s.setupRoutes()
	return s
}

// Hub returns the console hub so the supervisor's output can be wired in.
func (s *Server) Hub() *Hub {
	return s.hub
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Gateway listening", zap.String("addr", s.cfg.Listen))
		errCh <- srv.ListenAndServe()
	}()

	if s.metrics != nil {
		go s.updateGauges(ctx)
	}

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.hub.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// updateGauges refreshes the slow-moving gauges until ctx is cancelled.
func (s *Server) updateGauges(ctx context.Context) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	allStates := []string{
		string(gameproc.StatusStopped),
		string(gameproc.StatusRunning),
		string(gameproc.StatusStopping),
		string(gameproc.StatusCrashed),
	}
	for {
		s.metrics.SetUptime(s.startTime)
		s.metrics.SetGameState(string(s.game.Snapshot().Status), allStates)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Server) setupRoutes() {
	if s.tracing != nil {
		s.router.Use(s.tracing.HTTPMiddleware())
	}
	if s.metrics != nil {
		s.router.Use(s.metrics.HTTPMiddleware())
	}
	s.router.Use(s.httpLoggingMiddleware())
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)

	// CORS headers for browser access
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-API-Key")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	// Operational endpoints are unauthenticated.
	s.router.Get("/healthz", s.handleHealthz)
	s.router.Get("/readyz", s.handleReadyz)
	if s.metrics != nil {
		s.router.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	// The websocket endpoint authenticates with the console token, not the
	// API key; browsers cannot set headers on websocket upgrades.
	s.router.Get("/ws/console", s.handleConsoleWS)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(s.apiKeyAuthMiddleware())
		r.Use(middleware.Timeout(60 * time.Second))

		r.Post("/console/token", s.handleIssueToken)
		r.Get("/console/commands", s.handleRecentCommands)

		r.Get("/status", s.handleStatus)
		r.Post("/game/start", s.handleGameStart)
		r.Post("/game/stop", s.handleGameStop)
		r.Post("/game/restart", s.handleGameRestart)

		r.Get("/mods", s.handleListMods)
		r.Get("/mods/search", s.handleSearchMods)
		r.Post("/mods/{name}/enable", s.handleEnableMod)
		r.Post("/mods/{name}/disable", s.handleDisableMod)

		r.Get("/versions", s.handleVersions)
		r.Post("/versions/refresh", s.handleVersionsRefresh)
	})
}

// apiKeyAuthMiddleware requires the configured API key on every REST call.
// An unset key rejects everything rather than allowing everything.
func (s *Server) apiKeyAuthMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if s.cfg.APIKey == "" {
				s.logger.Warn("Request rejected - API key not configured",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr))
				s.writeError(w, http.StatusUnauthorized,
					"API key authentication required but not configured. Set CRAFTPANEL_API_KEY or api_key in the config file.")
				return
			}
			if !s.validateAPIKey(r) {
				s.logger.Warn("Request with invalid API key",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr))
				s.writeError(w, http.StatusUnauthorized, "Invalid or missing API key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// validateAPIKey checks the X-API-Key header, then the apikey query param.
func (s *Server) validateAPIKey(r *http.Request) bool {
	if key := r.Header.Get("X-API-Key"); key != "" {
		return key == s.cfg.APIKey
	}
	if key := r.URL.Query().Get("apikey"); key != "" {
		return key == s.cfg.APIKey
	}
	return false
}

func (s *Server) httpLoggingMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			s.logger.Debug("HTTP request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)))
		})
	}
}
