package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/ecomap/internal/dataset"
)

// instrument logs each request and records its count and latency by route.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		code := ww.Status()
		if code == 0 {
			code = http.StatusOK
		}
		elapsed := time.Since(start)

		if s.metrics != nil {
			s.metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
			s.metrics.HTTPDuration.WithLabelValues(route).Observe(elapsed.Seconds())
		}
		zap.L().Debug("http request",
			zap.String("component", "server"),
			zap.String("method", r.Method),
			zap.String("route", route),
			zap.Int("status", code),
			zap.Duration("elapsed", elapsed),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

// rateLimit caps API throughput with a shared token bucket.
func (s *Server) rateLimit() func(http.Handler) http.Handler {
	if s.opts.RateLimitRPS <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	burst := s.opts.RateLimitBurst
	if burst <= 0 {
		burst = int(s.opts.RateLimitRPS)
		if burst < 1 {
			burst = 1
		}
	}
	limiter := rate.NewLimiter(rate.Limit(s.opts.RateLimitRPS), burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				if s.metrics != nil {
					s.metrics.RateLimited.Inc()
				}
				w.Header().Set("Retry-After", "1")
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// loadingMessage is returned while the dataset is still loading.
const loadingMessage = "Loading dataset..."

// requireReady rejects requests until the dataset has loaded. A failed load
// returns its user-facing message.
func (s *Server) requireReady(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		snap := s.state.Snapshot()
		switch snap.Phase {
		case dataset.PhaseReady:
			next.ServeHTTP(w, r)
		case dataset.PhaseFailed:
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: snap.Message(), State: string(snap.Phase)})
		default:
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: loadingMessage, State: string(snap.Phase)})
		}
	})
}
