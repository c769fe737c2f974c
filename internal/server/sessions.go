package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sells-group/ecomap/internal/mapview"
	"github.com/sells-group/ecomap/internal/model"
	"github.com/sells-group/ecomap/internal/session"
)

// sessionResponse is returned by every session endpoint.
type sessionResponse struct {
	session.State
	Detail *mapview.Detail `json:"detail"`
	// Flew is set on selection requests: true when the viewport moved.
	Flew *bool `json:"flew,omitempty"`
}

func newSessionResponse(sess *session.Session) sessionResponse {
	st := sess.State()
	resp := sessionResponse{State: st}
	if st.Selected != nil {
		d := mapview.DetailFor(*st.Selected)
		resp.Detail = &d
	}
	return resp
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, ok := s.sessions.Get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
	}
	return sess, ok
}

func (s *Server) handleCreateSession(w http.ResponseWriter, _ *http.Request) {
	sess := s.sessions.Create(s.records())
	writeJSON(w, http.StatusCreated, newSessionResponse(sess))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse(sess))
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if !s.sessions.Delete(chi.URLParam(r, "id")) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type queryRequest struct {
	Query string `json:"query"`
}

func (s *Server) handleSetQuery(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	sess.SetQuery(req.Query)
	writeJSON(w, http.StatusOK, newSessionResponse(sess))
}

func (s *Server) handleClearQuery(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	sess.ClearQuery()
	writeJSON(w, http.StatusOK, newSessionResponse(sess))
}

type selectRequest struct {
	Name   string         `json:"name"`
	Lat    float64        `json:"lat"`
	Lon    float64        `json:"lon"`
	Source session.Source `json:"source"`
}

// handleSelect selects a record by key. Marker and search selections share
// one code path; a search selection also clears the query.
func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req selectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Source == "" {
		req.Source = session.SourceMarker
	}
	if !req.Source.Valid() {
		writeError(w, http.StatusBadRequest, "source must be marker or search")
		return
	}

	key := model.LocationKey{Name: req.Name, Lat: req.Lat, Lon: req.Lon}
	flew, err := sess.SelectKey(key, req.Source)
	if errors.Is(err, session.ErrUnknownLocation) {
		writeError(w, http.StatusNotFound, "location not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "selection failed")
		return
	}
	resp := newSessionResponse(sess)
	resp.Flew = &flew
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleClearSelection(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	sess.Clear()
	writeJSON(w, http.StatusOK, newSessionResponse(sess))
}
