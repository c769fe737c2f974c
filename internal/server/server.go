// Package server exposes the loaded dataset, map render state, and per-viewer
// selection sessions over HTTP.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sells-group/ecomap/internal/dataset"
	"github.com/sells-group/ecomap/internal/mapview"
	"github.com/sells-group/ecomap/internal/metrics"
	"github.com/sells-group/ecomap/internal/search"
	"github.com/sells-group/ecomap/internal/session"
)

// Options configures the HTTP server.
type Options struct {
	Port           int
	CORSOrigins    []string
	RateLimitRPS   float64 // 0 disables rate limiting
	RateLimitBurst int
	MaxSuggestions int
	View           mapview.ViewOptions
	Sessions       *session.Registry
	Metrics        *metrics.Metrics
	// Gatherer backs /metrics. Defaults to the default Prometheus registry.
	Gatherer prometheus.Gatherer
}

// Server serves the map API.
type Server struct {
	state      *dataset.State
	opts       Options
	sessions   *session.Registry
	metrics    *metrics.Metrics
	router     chi.Router
	httpServer *http.Server
}

// New builds the router. state is read on every request, so the server can
// start before the dataset has loaded.
func New(state *dataset.State, opts Options) *Server {
	if opts.Sessions == nil {
		opts.Sessions = session.NewRegistry(session.RegistryOptions{Metrics: opts.Metrics})
	}
	if opts.MaxSuggestions <= 0 {
		opts.MaxSuggestions = search.DefaultSuggestionLimit
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	if opts.View == (mapview.ViewOptions{}) {
		opts.View = mapview.DefaultViewOptions()
	}

	s := &Server{
		state:    state,
		opts:     opts,
		sessions: opts.Sessions,
		metrics:  opts.Metrics,
	}
	s.router = s.routes()
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", opts.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.instrument)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Handle("/metrics", promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Use(s.rateLimit())
		r.Get("/status", s.handleStatus)

		r.Group(func(r chi.Router) {
			r.Use(s.requireReady)
			r.Get("/view", s.handleView)
			r.Get("/locations", s.handleLocations)
			r.Get("/locations.geojson", s.handleGeoJSON)
			r.Get("/search", s.handleSearch)

			r.Post("/sessions", s.handleCreateSession)
			r.Route("/sessions/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetSession)
				r.Delete("/", s.handleDeleteSession)
				r.Put("/query", s.handleSetQuery)
				r.Delete("/query", s.handleClearQuery)
				r.Post("/selection", s.handleSelect)
				r.Delete("/selection", s.handleClearSelection)
			})
		})
	})
	return r
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	zap.L().Info("http server starting", zap.String("component", "server"), zap.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Sessions returns the session registry.
func (s *Server) Sessions() *session.Registry {
	return s.sessions
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	snap := s.state.Snapshot()
	if snap.Phase != dataset.PhaseReady {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": string(snap.Phase),
			"error":  snap.Message(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// errorResponse is the body of every non-2xx API response.
type errorResponse struct {
	Error string `json:"error"`
	State string `json:"state,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
