package session

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/sells-group/ecomap/internal/aggregate"
)

// Default fly-to parameters.
const (
	DefaultSelectZoom  = 8.0
	DefaultFlyDuration = 1500 * time.Millisecond
)

// Animator is the map collaborator that moves the viewport.
type Animator interface {
	FlyTo(target aggregate.LatLon, zoom float64, duration time.Duration)
}

// Flight is one viewport transition. Seq increases by one per flight.
type Flight struct {
	Seq        uint64           `json:"seq"`
	Target     aggregate.LatLon `json:"target"`
	Zoom       float64          `json:"zoom"`
	DurationMS int64            `json:"duration_ms"`
	StartedAt  time.Time        `json:"started_at"`
	// Retarget is true when the flight replaced one still in progress.
	Retarget bool `json:"retarget"`
}

// ViewportOptions configures fly-to behavior.
type ViewportOptions struct {
	Zoom     float64
	Duration time.Duration
	Clock    clockwork.Clock
	Animator Animator
}

// Viewport issues fly-to transitions. A new flight during one in progress
// replaces it; there is no queue.
type Viewport struct {
	mu       sync.Mutex
	zoom     float64
	duration time.Duration
	clock    clockwork.Clock
	animator Animator
	last     *Flight
	until    time.Time
}

// NewViewport creates a Viewport, filling zero options with defaults.
func NewViewport(opts ViewportOptions) *Viewport {
	if opts.Zoom <= 0 {
		opts.Zoom = DefaultSelectZoom
	}
	if opts.Duration <= 0 {
		opts.Duration = DefaultFlyDuration
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	return &Viewport{
		zoom:     opts.Zoom,
		duration: opts.Duration,
		clock:    opts.Clock,
		animator: opts.Animator,
	}
}

// FlyTo starts a transition to target and returns it.
func (v *Viewport) FlyTo(target aggregate.LatLon) Flight {
	v.mu.Lock()
	now := v.clock.Now()
	f := Flight{
		Target:     target,
		Zoom:       v.zoom,
		DurationMS: v.duration.Milliseconds(),
		StartedAt:  now,
		Retarget:   now.Before(v.until),
	}
	if v.last != nil {
		f.Seq = v.last.Seq
	}
	f.Seq++
	v.last = &f
	v.until = now.Add(v.duration)
	animator := v.animator
	v.mu.Unlock()

	if animator != nil {
		animator.FlyTo(target, f.Zoom, v.duration)
	}
	return f
}

// Last returns the most recent flight, or nil if none was issued.
func (v *Viewport) Last() *Flight {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.last == nil {
		return nil
	}
	f := *v.last
	return &f
}

// InFlight reports whether the latest transition has not yet finished.
func (v *Viewport) InFlight() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.clock.Now().Before(v.until)
}

// Flights returns the number of transitions issued.
func (v *Viewport) Flights() uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.last == nil {
		return 0
	}
	return v.last.Seq
}
