package server

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/ecomap/internal/dataset"
	"github.com/sells-group/ecomap/internal/mapview"
	"github.com/sells-group/ecomap/internal/model"
	"github.com/sells-group/ecomap/internal/search"
)

type statusResponse struct {
	State    dataset.Phase `json:"state"`
	Error    string        `json:"error,omitempty"`
	Count    int           `json:"count"`
	Source   string        `json:"source,omitempty"`
	LoadedAt *time.Time    `json:"loaded_at,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	snap := s.state.Snapshot()
	resp := statusResponse{State: snap.Phase, Error: snap.Message()}
	if ds := snap.Dataset; ds != nil {
		resp.Count = len(ds.Records)
		resp.Source = ds.Source
		at := ds.LoadedAt
		resp.LoadedAt = &at
	}
	writeJSON(w, http.StatusOK, resp)
}

// records returns the loaded record set. Only valid behind requireReady.
func (s *Server) records() []model.Location {
	return s.state.Snapshot().Dataset.Records
}

func (s *Server) handleView(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, mapview.InitialView(s.records(), s.opts.View))
}

type locationsResponse struct {
	Query   string           `json:"query"`
	Count   int              `json:"count"`
	Total   int              `json:"total"`
	Markers []mapview.Marker `json:"markers"`
	Message string           `json:"message,omitempty"`
}

// handleLocations returns the filtered markers. With ?session=<id> the
// session's query and selection are applied; an explicit ?q= wins over the
// session query.
func (s *Server) handleLocations(w http.ResponseWriter, r *http.Request) {
	records := s.records()
	q := r.URL.Query()
	query := q.Get("q")

	var selected *model.Location
	if id := q.Get("session"); id != "" {
		sess, ok := s.sessions.Get(id)
		if !ok {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		selected = sess.Selected()
		if !q.Has("q") {
			query = sess.Query()
		}
	}

	filtered := search.Filter(records, query)
	resp := locationsResponse{
		Query:   query,
		Count:   len(filtered),
		Total:   len(records),
		Markers: mapview.Markers(filtered, selected),
	}
	if len(filtered) == 0 && !search.Blank(query) {
		resp.Message = mapview.NoResults
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGeoJSON(w http.ResponseWriter, r *http.Request) {
	filtered := search.Filter(s.records(), r.URL.Query().Get("q"))
	data, err := mapview.MarshalGeoJSON(filtered)
	if err != nil {
		zap.L().Error("geojson encode failed", zap.String("component", "server"), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to encode geojson")
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	w.Write(data) //nolint:errcheck
}

type searchResponse struct {
	Query       string               `json:"query"`
	Suggestions []mapview.Suggestion `json:"suggestions"`
	Message     string               `json:"message,omitempty"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	matches := search.Suggestions(s.records(), query, s.opts.MaxSuggestions)
	resp := searchResponse{Query: query, Suggestions: mapview.Suggestions(matches)}
	if len(matches) == 0 && !search.Blank(query) {
		resp.Message = mapview.NoResults
	}
	writeJSON(w, http.StatusOK, resp)
}
