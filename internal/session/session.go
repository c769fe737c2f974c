// Package session holds per-user selection and search state over an
// immutable record set and keeps the map viewport in step with selection.
package session

import (
	"sync"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/ecomap/internal/aggregate"
	"github.com/sells-group/ecomap/internal/metrics"
	"github.com/sells-group/ecomap/internal/model"
	"github.com/sells-group/ecomap/internal/search"
)

// Source is what triggered a selection.
type Source string

const (
	SourceMarker Source = "marker"
	SourceSearch Source = "search"
)

// Valid reports whether s is a known trigger.
func (s Source) Valid() bool {
	return s == SourceMarker || s == SourceSearch
}

// ErrUnknownLocation is returned when a selection key matches no record.
var ErrUnknownLocation = eris.New("session: unknown location")

// Session is the selection state of one viewer. Records are shared and never
// modified; everything else is guarded by mu.
type Session struct {
	ID        string
	CreatedAt time.Time

	records  []model.Location
	viewport *Viewport
	metrics  *metrics.Metrics

	mu       sync.Mutex
	query    string
	selected *model.Location
	touched  time.Time
}

// New creates a Session over records. m may be nil.
func New(id string, records []model.Location, vp *Viewport, m *metrics.Metrics) *Session {
	if vp == nil {
		vp = NewViewport(ViewportOptions{})
	}
	now := vp.clock.Now()
	return &Session{
		ID:        id,
		CreatedAt: now,
		records:   records,
		viewport:  vp,
		metrics:   m,
		touched:   now,
	}
}

// Select makes r the current selection and flies the viewport to it. Selecting
// the record that is already selected does nothing and returns false. The
// animator is called with the session locked and must not call back into it.
func (s *Session) Select(r model.Location, src Source) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectLocked(r, src)
}

func (s *Session) selectLocked(r model.Location, src Source) bool {
	s.touched = s.viewport.clock.Now()
	if s.selected != nil && s.selected.SameAs(r) {
		return false
	}
	sel := r
	s.selected = &sel
	s.viewport.FlyTo(aggregate.LatLon{Lat: r.Lat, Lon: r.Lon})

	if s.metrics != nil {
		s.metrics.Selections.WithLabelValues(string(src)).Inc()
		s.metrics.ViewportFlights.Inc()
	}
	return true
}

// SelectKey looks up the record with key and selects it. A search selection
// also clears the search text.
func (s *Session) SelectKey(key model.LocationKey, src Source) (bool, error) {
	r, ok := search.Find(s.records, key)
	if !ok {
		return false, eris.Wrapf(ErrUnknownLocation, "session: select %s", key)
	}
	if src == SourceSearch {
		return s.SelectFromSearch(r), nil
	}
	return s.Select(r, src), nil
}

// SelectFromSearch selects r and clears the search text in one step, as
// choosing a dropdown suggestion does.
func (s *Session) SelectFromSearch(r model.Location) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	flew := s.selectLocked(r, SourceSearch)
	s.query = ""
	return flew
}

// Clear removes the selection. The viewport stays where it is.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = nil
	s.touched = s.viewport.clock.Now()
}

// SetQuery replaces the search text.
func (s *Session) SetQuery(q string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.query = q
	s.touched = s.viewport.clock.Now()
	if s.metrics != nil && !search.Blank(q) {
		s.metrics.Searches.Inc()
	}
}

// ClearQuery empties the search text.
func (s *Session) ClearQuery() {
	s.SetQuery("")
}

// Query returns the current search text.
func (s *Session) Query() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

// Selected returns a copy of the selected record, or nil.
func (s *Session) Selected() *model.Location {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == nil {
		return nil
	}
	r := *s.selected
	return &r
}

// IsSelected reports whether r is the current selection.
func (s *Session) IsSelected(r model.Location) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected != nil && s.selected.SameAs(r)
}

// Records returns the full record set.
func (s *Session) Records() []model.Location {
	return s.records
}

// Filtered returns the records matching the current query.
func (s *Session) Filtered() []model.Location {
	return search.Filter(s.records, s.Query())
}

// Suggestions returns the dropdown entries for the current query.
func (s *Session) Suggestions(limit int) []model.Location {
	return search.Suggestions(s.records, s.Query(), limit)
}

// Viewport returns the session's viewport.
func (s *Session) Viewport() *Viewport {
	return s.viewport
}

// LastTouched returns when the session was last mutated.
func (s *Session) LastTouched() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.touched
}

// State is a point-in-time copy of a session.
type State struct {
	ID            string          `json:"id"`
	Query         string          `json:"query"`
	Selected      *model.Location `json:"selected"`
	FilteredCount int             `json:"filtered_count"`
	Viewport      *Flight         `json:"viewport"`
	InFlight      bool            `json:"in_flight"`
}

// State returns a snapshot of the session.
func (s *Session) State() State {
	s.mu.Lock()
	q := s.query
	var sel *model.Location
	if s.selected != nil {
		r := *s.selected
		sel = &r
	}
	s.mu.Unlock()

	return State{
		ID:            s.ID,
		Query:         q,
		Selected:      sel,
		FilteredCount: len(search.Filter(s.records, q)),
		Viewport:      s.viewport.Last(),
		InFlight:      s.viewport.InFlight(),
	}
}
