package mapview

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/ecomap/internal/aggregate"
	"github.com/sells-group/ecomap/internal/model"
)

func ptr(v float64) *float64 { return &v }

var (
	delhi = model.Location{Name: "Delhi", Lat: 28.6, Lon: 77.2, Score: 35, PM25: ptr(101.3), NO2: ptr(40)}
	agra  = model.Location{Name: "Agra", Lat: 27.18, Lon: 78.01, Score: 72.44}
)

func TestStyle(t *testing.T) {
	assert.Equal(t, MarkerStyle{Radius: 8, Color: "#991b1b", FillColor: "#991b1b", FillOpacity: 0.6, Weight: 2}, Style(35, false))
	assert.Equal(t, MarkerStyle{Radius: 12, Color: "#10b981", FillColor: "#10b981", FillOpacity: 0.9, Weight: 3}, Style(72.44, true))
}

func TestTooltipLines(t *testing.T) {
	assert.Equal(t, []string{"Agra", "Score: 72.4 / 100", "Status: Good", "Click for details"}, TooltipLines(agra))
}

func TestMarkers(t *testing.T) {
	sel := delhi
	sel.Score = 0
	markers := Markers([]model.Location{delhi, agra}, &sel)
	require.Len(t, markers, 2)

	assert.Equal(t, "Delhi-28.6-77.2", markers[0].ID)
	assert.True(t, markers[0].Selected, "selection matches on name and coordinates")
	assert.Equal(t, 12, markers[0].Style.Radius)
	assert.Equal(t, "Critical", markers[0].Status.Label)

	assert.False(t, markers[1].Selected)
	assert.Equal(t, 8, markers[1].Style.Radius)

	assert.Empty(t, Markers(nil, nil))
}

func TestSuggestions(t *testing.T) {
	got := Suggestions([]model.Location{delhi})
	require.Len(t, got, 1)
	assert.Equal(t, Suggestion{Key: delhi.Key(), Name: "Delhi", Score: "Score: 35.0"}, got[0])
}

func TestDetailFor(t *testing.T) {
	d := DetailFor(delhi)
	assert.Equal(t, "Delhi", d.Name)
	assert.Equal(t, "35.0", d.Score)
	assert.Equal(t, "Critical", d.Status.Label)
	assert.Equal(t, "28.60°, 77.20°", d.Coordinates)
	assert.Equal(t, Breakdown{Text: aggregate.BreakdownCritical, ClassName: "critical"}, d.Breakdown)

	require.Len(t, d.Metrics, 2)
	assert.Equal(t, MetricLine{Key: model.PollutantPM25, Label: "PM2.5", Value: 101.3, Unit: "µg/m³", Text: "101.3 µg/m³"}, d.Metrics[0])
	assert.Equal(t, "NO₂", d.Metrics[1].Label)
	assert.Equal(t, "40.0 ppb", d.Metrics[1].Text)
}

func TestDetailFor_AQIUnitless(t *testing.T) {
	r := agra
	r.AQI = ptr(118)
	d := DetailFor(r)
	require.Len(t, d.Metrics, 1)
	assert.Equal(t, "118.0", d.Metrics[0].Text)
	assert.Empty(t, d.Metrics[0].Unit)
	assert.Equal(t, aggregate.BreakdownGood, d.Breakdown.Text)
}

func TestInitialView(t *testing.T) {
	v := InitialView([]model.Location{delhi, agra}, DefaultViewOptions())
	assert.InDelta(t, (28.6+27.18)/2, v.Center.Lat, 1e-9)
	assert.Equal(t, 5.0, v.Zoom)
	assert.Equal(t, 4.0, v.MinZoom)
	assert.Equal(t, 9.0, v.MaxZoom)
	assert.Equal(t, aggregate.IndiaBounds, v.MaxBounds)
	require.Len(t, v.Legend, 3)
	assert.Equal(t, 1, v.Legend[0].Count)
	assert.Equal(t, 1, v.Legend[2].Count)
	assert.Equal(t, 2, v.Summary.Total)
}

func TestInitialView_Empty(t *testing.T) {
	v := InitialView(nil, DefaultViewOptions())
	assert.Equal(t, aggregate.DefaultCenter, v.Center)
	assert.Zero(t, v.Summary.Total)
}

func TestMarshalGeoJSON(t *testing.T) {
	data, err := MarshalGeoJSON([]model.Location{delhi, agra})
	require.NoError(t, err)

	var doc struct {
		Type     string `json:"type"`
		Features []struct {
			ID       string `json:"id"`
			Geometry struct {
				Type        string    `json:"type"`
				Coordinates []float64 `json:"coordinates"`
			} `json:"geometry"`
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))

	assert.Equal(t, "FeatureCollection", doc.Type)
	require.Len(t, doc.Features, 2)
	f := doc.Features[0]
	assert.Equal(t, "Delhi-28.6-77.2", f.ID)
	assert.Equal(t, "Point", f.Geometry.Type)
	assert.Equal(t, []float64{77.2, 28.6}, f.Geometry.Coordinates)
	assert.Equal(t, "Critical", f.Properties["status"])
	assert.Equal(t, "#991b1b", f.Properties["marker_color"])
	assert.InDelta(t, 101.3, f.Properties["pm25"], 1e-9)
	assert.NotContains(t, f.Properties, "pm10")
	assert.NotContains(t, doc.Features[1].Properties, "pm25")
}

func TestMarshalGeoJSON_Empty(t *testing.T) {
	data, err := MarshalGeoJSON(nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"FeatureCollection","features":[]}`, string(data))
}
