package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/ecomap/internal/dataset"
	"github.com/sells-group/ecomap/internal/metrics"
	"github.com/sells-group/ecomap/internal/model"
	"github.com/sells-group/ecomap/internal/session"
)

func ptr(v float64) *float64 { return &v }

var testRecords = []model.Location{
	{Name: "Delhi", Lat: 28.6, Lon: 77.2, Score: 35, PM25: ptr(120.5)},
	{Name: "New Delhi", Lat: 28.61, Lon: 77.21, Score: 45},
	{Name: "Shillong", Lat: 25.57, Lon: 91.88, Score: 82},
}

type testEnv struct {
	srv     *Server
	state   *dataset.State
	metrics *metrics.Metrics
	reg     *prometheus.Registry
	clock   *clockwork.FakeClock
}

func newTestEnv(t *testing.T, opts Options) *testEnv {
	t.Helper()
	reg := prometheus.NewRegistry()
	m := metrics.NewMetricsWithRegistry(reg)
	clock := clockwork.NewFakeClockAt(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	opts.Metrics = m
	opts.Gatherer = reg
	opts.Sessions = session.NewRegistry(session.RegistryOptions{Clock: clock, Metrics: m})
	if opts.CORSOrigins == nil {
		opts.CORSOrigins = []string{"*"}
	}
	state := dataset.NewState()
	return &testEnv{srv: New(state, opts), state: state, metrics: m, reg: reg, clock: clock}
}

func readyEnv(t *testing.T) *testEnv {
	t.Helper()
	env := newTestEnv(t, Options{})
	require.NoError(t, env.state.Resolve(&dataset.Dataset{
		Source:   "Dataset/aqi.xlsx",
		Records:  testRecords,
		Read:     3,
		LoadedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}, nil))
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	rec := httptest.NewRecorder()
	e.srv.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, Options{})
	rec := env.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestReadyz(t *testing.T) {
	env := newTestEnv(t, Options{})
	rec := env.do(t, http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	require.NoError(t, env.state.Resolve(&dataset.Dataset{Records: testRecords}, nil))
	rec = env.do(t, http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAPI_LoadingReturns503(t *testing.T) {
	env := newTestEnv(t, Options{})
	rec := env.do(t, http.MethodGet, "/api/locations", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decode[errorResponse](t, rec)
	assert.Equal(t, "loading", body.State)
	assert.Equal(t, loadingMessage, body.Error)
}

func TestAPI_FailedReturnsUserMessage(t *testing.T) {
	env := newTestEnv(t, Options{})
	require.NoError(t, env.state.Resolve(nil, &dataset.FetchError{Source: "x.xlsx", Err: errors.New("404")}))

	rec := env.do(t, http.MethodGet, "/api/view", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decode[errorResponse](t, rec)
	assert.Equal(t, "failed", body.State)
	assert.Equal(t, "Dataset not found. "+dataset.UserSuffix, body.Error)

	rec = env.do(t, http.MethodGet, "/api/status", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	st := decode[statusResponse](t, rec)
	assert.Equal(t, dataset.PhaseFailed, st.State)
	assert.Equal(t, body.Error, st.Error)
	assert.Zero(t, st.Count)
}

func TestStatus_Ready(t *testing.T) {
	env := readyEnv(t)
	st := decode[statusResponse](t, env.do(t, http.MethodGet, "/api/status", nil))
	assert.Equal(t, dataset.PhaseReady, st.State)
	assert.Equal(t, 3, st.Count)
	assert.Equal(t, "Dataset/aqi.xlsx", st.Source)
	assert.Empty(t, st.Error)
}

func TestView(t *testing.T) {
	env := readyEnv(t)
	rec := env.do(t, http.MethodGet, "/api/view", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var v struct {
		Center struct{ Lat, Lon float64 } `json:"center"`
		Zoom   float64                    `json:"zoom"`
		Legend []struct {
			Label string `json:"label"`
			Count int    `json:"count"`
		} `json:"legend"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	assert.InDelta(t, (28.6+28.61+25.57)/3, v.Center.Lat, 1e-9)
	assert.Equal(t, 5.0, v.Zoom)
	require.Len(t, v.Legend, 3)
	assert.Equal(t, "Good", v.Legend[0].Label)
	assert.Equal(t, 1, v.Legend[0].Count)
}

func TestLocations_Filter(t *testing.T) {
	env := readyEnv(t)

	all := decode[locationsResponse](t, env.do(t, http.MethodGet, "/api/locations", nil))
	assert.Equal(t, 3, all.Count)
	assert.Equal(t, "Delhi", all.Markers[0].Location.Name)

	del := decode[locationsResponse](t, env.do(t, http.MethodGet, "/api/locations?q=DEL", nil))
	assert.Equal(t, 2, del.Count)
	assert.Equal(t, 3, del.Total)
	assert.Equal(t, "Delhi", del.Markers[0].Location.Name)
	assert.Equal(t, "New Delhi", del.Markers[1].Location.Name)

	none := decode[locationsResponse](t, env.do(t, http.MethodGet, "/api/locations?q=zzz", nil))
	assert.Zero(t, none.Count)
	assert.Equal(t, "No locations found", none.Message)
	assert.NotNil(t, none.Markers)
}

func TestLocations_WithSession(t *testing.T) {
	env := readyEnv(t)
	created := decode[sessionResponse](t, env.do(t, http.MethodPost, "/api/sessions", nil))

	env.do(t, http.MethodPut, "/api/sessions/"+created.ID+"/query", queryRequest{Query: "shill"})
	env.do(t, http.MethodPost, "/api/sessions/"+created.ID+"/selection",
		selectRequest{Name: "Shillong", Lat: 25.57, Lon: 91.88})

	resp := decode[locationsResponse](t, env.do(t, http.MethodGet, "/api/locations?session="+created.ID, nil))
	require.Equal(t, 1, resp.Count)
	assert.True(t, resp.Markers[0].Selected)
	assert.Equal(t, 12, resp.Markers[0].Style.Radius)

	rec := env.do(t, http.MethodGet, "/api/locations?session=nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGeoJSON(t *testing.T) {
	env := readyEnv(t)
	rec := env.do(t, http.MethodGet, "/api/locations.geojson?q=shill", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/geo+json", rec.Header().Get("Content-Type"))

	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			ID string `json:"id"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fc))
	assert.Equal(t, "FeatureCollection", fc.Type)
	require.Len(t, fc.Features, 1)
	assert.Equal(t, "Shillong-25.57-91.88", fc.Features[0].ID)
}

func TestSearch(t *testing.T) {
	env := readyEnv(t)

	resp := decode[searchResponse](t, env.do(t, http.MethodGet, "/api/search?q=delhi", nil))
	require.Len(t, resp.Suggestions, 2)
	assert.Equal(t, "Score: 35.0", resp.Suggestions[0].Score)

	blank := decode[searchResponse](t, env.do(t, http.MethodGet, "/api/search?q=", nil))
	assert.Empty(t, blank.Suggestions)
	assert.Empty(t, blank.Message)

	none := decode[searchResponse](t, env.do(t, http.MethodGet, "/api/search?q=zzz", nil))
	assert.Equal(t, "No locations found", none.Message)
}

func TestSearch_MaxSuggestions(t *testing.T) {
	env := newTestEnv(t, Options{MaxSuggestions: 1})
	require.NoError(t, env.state.Resolve(&dataset.Dataset{Records: testRecords}, nil))
	resp := decode[searchResponse](t, env.do(t, http.MethodGet, "/api/search?q=delhi", nil))
	assert.Len(t, resp.Suggestions, 1)
}

func TestSession_Lifecycle(t *testing.T) {
	env := readyEnv(t)

	rec := env.do(t, http.MethodPost, "/api/sessions", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[sessionResponse](t, rec)
	require.NotEmpty(t, created.ID)
	assert.Nil(t, created.Selected)
	assert.Nil(t, created.Detail)
	assert.Equal(t, 3, created.FilteredCount)

	base := "/api/sessions/" + created.ID
	q := decode[sessionResponse](t, env.do(t, http.MethodPut, base+"/query", queryRequest{Query: "del"}))
	assert.Equal(t, "del", q.Query)
	assert.Equal(t, 2, q.FilteredCount)

	sel := decode[sessionResponse](t, env.do(t, http.MethodPost, base+"/selection",
		selectRequest{Name: "Delhi", Lat: 28.6, Lon: 77.2, Source: session.SourceMarker}))
	require.NotNil(t, sel.Flew)
	assert.True(t, *sel.Flew)
	require.NotNil(t, sel.Selected)
	assert.Equal(t, "Delhi", sel.Selected.Name)
	require.NotNil(t, sel.Detail)
	assert.Equal(t, "35.0", sel.Detail.Score)
	assert.Equal(t, "28.60°, 77.20°", sel.Detail.Coordinates)
	require.NotNil(t, sel.Viewport)
	assert.Equal(t, uint64(1), sel.Viewport.Seq)
	assert.Equal(t, 8.0, sel.Viewport.Zoom)
	assert.True(t, sel.InFlight)
	assert.Equal(t, "del", sel.Query)

	again := decode[sessionResponse](t, env.do(t, http.MethodPost, base+"/selection",
		selectRequest{Name: "Delhi", Lat: 28.6, Lon: 77.2, Source: session.SourceSearch}))
	assert.False(t, *again.Flew)
	assert.Equal(t, uint64(1), again.Viewport.Seq)
	assert.Empty(t, again.Query, "search selection clears the query")

	cleared := decode[sessionResponse](t, env.do(t, http.MethodDelete, base+"/selection", nil))
	assert.Nil(t, cleared.Selected)
	assert.Nil(t, cleared.Detail)

	env.do(t, http.MethodPut, base+"/query", queryRequest{Query: "x"})
	cq := decode[sessionResponse](t, env.do(t, http.MethodDelete, base+"/query", nil))
	assert.Empty(t, cq.Query)

	got := decode[sessionResponse](t, env.do(t, http.MethodGet, base, nil))
	assert.Equal(t, created.ID, got.ID)

	rec = env.do(t, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = env.do(t, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = env.do(t, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.Selections.WithLabelValues("marker")))
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.ViewportFlights))
}

func TestSession_SelectErrors(t *testing.T) {
	env := readyEnv(t)
	created := decode[sessionResponse](t, env.do(t, http.MethodPost, "/api/sessions", nil))
	base := "/api/sessions/" + created.ID

	rec := env.do(t, http.MethodPost, base+"/selection", selectRequest{Name: "Atlantis", Lat: 1, Lon: 2})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPost, base+"/selection",
		selectRequest{Name: "Delhi", Lat: 28.6, Lon: 77.2, Source: "keyboard"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, base+"/selection", strings.NewReader("{"))
	rec = httptest.NewRecorder()
	env.srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPut, "/api/sessions/missing/query", queryRequest{Query: "a"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSession_RetargetWhileInFlight(t *testing.T) {
	env := readyEnv(t)
	created := decode[sessionResponse](t, env.do(t, http.MethodPost, "/api/sessions", nil))
	base := "/api/sessions/" + created.ID

	env.do(t, http.MethodPost, base+"/selection", selectRequest{Name: "Delhi", Lat: 28.6, Lon: 77.2})
	env.clock.Advance(500 * time.Millisecond)
	second := decode[sessionResponse](t, env.do(t, http.MethodPost, base+"/selection",
		selectRequest{Name: "Shillong", Lat: 25.57, Lon: 91.88}))
	assert.Equal(t, uint64(2), second.Viewport.Seq)
	assert.True(t, second.Viewport.Retarget)
	assert.InDelta(t, 25.57, second.Viewport.Target.Lat, 1e-9)

	env.clock.Advance(2 * time.Second)
	got := decode[sessionResponse](t, env.do(t, http.MethodGet, base, nil))
	assert.False(t, got.InFlight)
}

func TestRateLimit(t *testing.T) {
	env := newTestEnv(t, Options{RateLimitRPS: 0.001, RateLimitBurst: 2})
	for i := 0; i < 2; i++ {
		rec := env.do(t, http.MethodGet, "/api/status", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	}
	rec := env.do(t, http.MethodGet, "/api/status", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.RateLimited))

	// Health checks are not limited.
	rec = env.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCORS(t *testing.T) {
	env := readyEnv(t)
	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.Header.Set("Origin", "http://example.com")
	rec := httptest.NewRecorder()
	env.srv.ServeHTTP(rec, req)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsEndpoint(t *testing.T) {
	env := readyEnv(t)
	env.do(t, http.MethodGet, "/api/status", nil)

	rec := env.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ecomap_http_requests_total")
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.HTTPRequests.WithLabelValues("/api/status", "200")))
}
