// Package observability holds the Prometheus metrics and OpenTelemetry
// tracing managers for the panel.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// MetricsManager manages Prometheus metrics
type MetricsManager struct {
	logger   *zap.SugaredLogger
	registry *prometheus.Registry

	uptime       prometheus.Gauge
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	consoleSessions prometheus.Gauge
	commands        *prometheus.CounterVec
	broadcasts      prometheus.Counter
	droppedClients  prometheus.Counter
	tokensIssued    prometheus.Counter
	modsTotal       *prometheus.GaugeVec
	gameState       *prometheus.GaugeVec
}

// NewMetricsManager creates a new metrics manager
func NewMetricsManager(logger *zap.SugaredLogger) *MetricsManager {
	registry := prometheus.NewRegistry()

	mm := &MetricsManager{
		logger:   logger,
		registry: registry,
	}

	mm.initMetrics()
	mm.registerMetrics()

	return mm
}

func (mm *MetricsManager) initMetrics() {
	mm.uptime = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "craftpanel_uptime_seconds",
		Help: "Time since the application started",
	})

	mm.httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "craftpanel_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	mm.httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "craftpanel_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	mm.consoleSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "craftpanel_console_sessions",
		Help: "Number of live console websocket sessions",
	})

	mm.commands = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "craftpanel_console_commands_total",
			Help: "Console commands dispatched to the game process",
		},
		[]string{"source", "status"},
	)

	mm.broadcasts = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "craftpanel_console_broadcast_lines_total",
		Help: "Console lines broadcast to subscribers",
	})

	mm.droppedClients = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "craftpanel_console_dropped_clients_total",
		Help: "Subscribers dropped for not keeping up",
	})

	mm.tokensIssued = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "craftpanel_console_tokens_issued_total",
		Help: "Console tokens minted",
	})

	mm.modsTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "craftpanel_mods_total",
			Help: "Installed mods by state",
		},
		[]string{"state"},
	)

	mm.gameState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "craftpanel_game_process_state",
			Help: "Game process state (1 for the active state, 0 otherwise)",
		},
		[]string{"state"},
	)
}

func (mm *MetricsManager) registerMetrics() {
	mm.registry.MustRegister(
		mm.uptime,
		mm.httpRequests,
		mm.httpDuration,
		mm.consoleSessions,
		mm.commands,
		mm.broadcasts,
		mm.droppedClients,
		mm.tokensIssued,
		mm.modsTotal,
		mm.gameState,
	)

	mm.registry.MustRegister(collectors.NewGoCollector())
	mm.registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
}

// Handler returns an HTTP handler for the /metrics endpoint
func (mm *MetricsManager) Handler() http.Handler {
	return promhttp.HandlerFor(mm.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// SetUptime sets the uptime metric
func (mm *MetricsManager) SetUptime(startTime time.Time) {
	mm.uptime.Set(time.Since(startTime).Seconds())
}

// RecordHTTPRequest records an HTTP request
func (mm *MetricsManager) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	mm.httpRequests.WithLabelValues(method, path, status).Inc()
	mm.httpDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// SetConsoleSessions sets the live websocket session gauge
func (mm *MetricsManager) SetConsoleSessions(n int) {
	mm.consoleSessions.Set(float64(n))
}

// RecordCommand records a console command dispatch
func (mm *MetricsManager) RecordCommand(source, status string) {
	mm.commands.WithLabelValues(source, status).Inc()
}

// RecordBroadcast records one line fanned out to subscribers
func (mm *MetricsManager) RecordBroadcast() {
	mm.broadcasts.Inc()
}

// RecordDroppedClient records a subscriber dropped for backpressure
func (mm *MetricsManager) RecordDroppedClient() {
	mm.droppedClients.Inc()
}

// RecordTokenIssued records one minted console token
func (mm *MetricsManager) RecordTokenIssued() {
	mm.tokensIssued.Inc()
}

// SetModStats updates the mod gauges
func (mm *MetricsManager) SetModStats(enabled, disabled int) {
	mm.modsTotal.WithLabelValues("enabled").Set(float64(enabled))
	mm.modsTotal.WithLabelValues("disabled").Set(float64(disabled))
}

// SetGameState marks the current game process state
func (mm *MetricsManager) SetGameState(current string, all []string) {
	for _, s := range all {
		v := 0.0
		if s == current {
			v = 1.0
		}
		mm.gameState.WithLabelValues(s).Set(v)
	}
}

// Registry returns the Prometheus registry for custom metrics
func (mm *MetricsManager) Registry() *prometheus.Registry {
	return mm.registry
}

// HTTPMiddleware returns middleware that records HTTP metrics
func (mm *MetricsManager) HTTPMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(ww, r)
			duration := time.Since(start)
			mm.RecordHTTPRequest(r.Method, r.URL.Path, http.StatusText(ww.statusCode), duration)
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
