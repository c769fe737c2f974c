package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/sells-group/ecomap/internal/metrics"
	"github.com/sells-group/ecomap/internal/model"
)

// RegistryOptions configures new sessions.
type RegistryOptions struct {
	Zoom     float64
	Duration time.Duration
	Clock    clockwork.Clock
	Metrics  *metrics.Metrics
	// NewAnimator, when set, supplies a per-session map collaborator.
	NewAnimator func(id string) Animator
}

// Registry holds live sessions keyed by id.
type Registry struct {
	opts RegistryOptions

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry creates an empty Registry.
func NewRegistry(opts RegistryOptions) *Registry {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	return &Registry{opts: opts, sessions: make(map[string]*Session)}
}

// Create starts a session over records.
func (r *Registry) Create(records []model.Location) *Session {
	id := uuid.NewString()
	vo := ViewportOptions{Zoom: r.opts.Zoom, Duration: r.opts.Duration, Clock: r.opts.Clock}
	if r.opts.NewAnimator != nil {
		vo.Animator = r.opts.NewAnimator(id)
	}
	s := New(id, records, NewViewport(vo), r.opts.Metrics)

	r.mu.Lock()
	r.sessions[id] = s
	n := len(r.sessions)
	r.mu.Unlock()

	r.setGauge(n)
	zap.L().Debug("session created", zap.String("component", "session"), zap.String("session_id", id))
	return s
}

// Get returns the session with id.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Delete removes a session. It reports whether the session existed.
func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	_, ok := r.sessions[id]
	delete(r.sessions, id)
	n := len(r.sessions)
	r.mu.Unlock()
	r.setGauge(n)
	return ok
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Prune removes sessions idle for longer than maxIdle and returns how many
// were removed.
func (r *Registry) Prune(maxIdle time.Duration) int {
	cutoff := r.opts.Clock.Now().Add(-maxIdle)
	r.mu.Lock()
	removed := 0
	for id, s := range r.sessions {
		if s.LastTouched().Before(cutoff) {
			delete(r.sessions, id)
			removed++
		}
	}
	n := len(r.sessions)
	r.mu.Unlock()

	r.setGauge(n)
	if removed > 0 {
		zap.L().Info("pruned idle sessions", zap.String("component", "session"), zap.Int("removed", removed))
	}
	return removed
}

func (r *Registry) setGauge(n int) {
	if r.opts.Metrics != nil {
		r.opts.Metrics.SessionsActive.Set(float64(n))
	}
}
