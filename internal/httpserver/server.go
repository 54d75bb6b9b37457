package httpserver

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pinger is implemented by any infrastructure client the health check should
// probe (the KV client, the durable store pool).
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server wraps a chi router with the ambient middleware stack and health
// endpoints common to both the edge and the scoring service. Domain routes
// are mounted on Router by the caller after construction.
type Server struct {
	Router    *chi.Mux
	Logger    *slog.Logger
	startedAt time.Time
	pingers   map[string]Pinger
}

// Config controls CORS. The dependencies the health check probes are passed
// to NewServer separately as pingers.
type Config struct {
	CORSAllowedOrigins []string
}

// NewServer builds a router with request-id, logging, metrics, recovery and
// CORS middleware installed, plus unauthenticated health endpoints.
func NewServer(cfg Config, logger *slog.Logger, metricsReg *prometheus.Registry, pingers map[string]Pinger) *Server {
	s := &Server{
		Router:    chi.NewRouter(),
		Logger:    logger,
		startedAt: time.Now(),
		pingers:   pingers,
	}

	s.Router.Use(RequestID)
	s.Router.Use(Logger(logger))
	s.Router.Use(Metrics)
	s.Router.Use(middleware.Recoverer)
	s.Router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-API-Key", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	s.Router.Get("/actuator/health", s.handleHealth)
	s.Router.Handle("/metrics", promhttp.HandlerFor(metricsReg, promhttp.HandlerOpts{}))

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	status := "UP"
	components := make(map[string]string, len(s.pingers))

	for name, p := range s.pingers {
		if err := p.Ping(ctx); err != nil {
			s.Logger.Warn("health check: dependency unreachable", "component", name, "error", err)
			components[name] = "DOWN"
			status = "DOWN"
		} else {
			components[name] = "UP"
		}
	}

	code := http.StatusOK
	if status == "DOWN" {
		code = http.StatusServiceUnavailable
	}

	Respond(w, code, map[string]any{
		"status":     status,
		"components": components,
		"uptime_ms":  time.Since(s.startedAt).Milliseconds(),
	})
}
