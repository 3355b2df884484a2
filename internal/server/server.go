package server

import (
	"log/slog"
	"net/http"

	"github.com/claude/repcounter/internal/session"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	ctrl   *session.Controller
	log    *slog.Logger
	apiKey string
	router chi.Router
}

// New creates a new Server with all routes configured.
func New(ctrl *session.Controller, apiKey string, log *slog.Logger) *Server {
	s := &Server{
		ctrl:   ctrl,
		log:    log,
		apiKey: apiKey,
		router: chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	// Read-only endpoints (no auth, tsnet handles access)
	s.router.Get("/api/v1/exercises", s.handleExercises)
	s.router.Get("/api/v1/totals", s.handleTotals)
	s.router.Get("/api/v1/totals/{exercise}", s.handleExerciseTotal)
	s.router.Get("/api/v1/history/{exercise}", s.handleHistory)
	s.router.Get("/api/v1/sessions/current", s.handleCurrentSession)

	// Session commands (API key required)
	s.router.Group(func(r chi.Router) {
		r.Use(APIKeyAuth(s.apiKey))
		r.Post("/api/v1/sessions", s.handleStartSession)
		r.Post("/api/v1/sessions/current/frames", s.handleFrame)
		r.Post("/api/v1/sessions/current/close", s.handleCloseSession)
	})
}

// SetMetrics exposes the registry at /metrics.
func (s *Server) SetMetrics(reg *prometheus.Registry) {
	s.router.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
}

// SetMCP mounts a streamable HTTP MCP handler at /mcp.
func (s *Server) SetMCP(h http.Handler) {
	s.router.Handle("/mcp", h)
}
