package search

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/ecomap/internal/model"
)

var records = []model.Location{
	{Name: "Delhi", Lat: 28.6, Lon: 77.2, Score: 35},
	{Name: "Mumbai", Lat: 19.07, Lon: 72.87, Score: 48},
	{Name: "New Delhi", Lat: 28.61, Lon: 77.21, Score: 33},
	{Name: "Shillong", Lat: 25.57, Lon: 91.88, Score: 82},
	{Name: "İzmir Station", Lat: 38.4, Lon: 27.1, Score: 60},
}

func TestFilter_BlankQuery(t *testing.T) {
	for _, q := range []string{"", "   ", "\t\n"} {
		assert.Equal(t, records, Filter(records, q))
	}
}

func TestFilter_CaseInsensitive(t *testing.T) {
	got := Filter(records, "DEL")
	require.Len(t, got, 2)
	assert.Equal(t, "Delhi", got[0].Name)
	assert.Equal(t, "New Delhi", got[1].Name)
}

func TestFilter_PreservesOrder(t *testing.T) {
	got := Filter(records, "l")
	names := make([]string, len(got))
	for i, r := range got {
		names[i] = r.Name
	}
	assert.Equal(t, []string{"Delhi", "New Delhi", "Shillong"}, names)
}

func TestFilter_NoMatch(t *testing.T) {
	got := Filter(records, "zzz")
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestFilter_QueryNotTrimmed(t *testing.T) {
	assert.Len(t, Filter(records, "new "), 1)
	assert.Empty(t, Filter(records, " delhi "))
}

func TestFilter_Unicode(t *testing.T) {
	got := Filter(records, "STATION")
	require.Len(t, got, 1)
	assert.Equal(t, "İzmir Station", got[0].Name)
}

func TestSuggestions(t *testing.T) {
	many := make([]model.Location, 20)
	for i := range many {
		many[i] = model.Location{Name: fmt.Sprintf("Station %d", i), Lat: float64(i)}
	}

	assert.Len(t, Suggestions(many, "station", 0), DefaultSuggestionLimit)
	assert.Len(t, Suggestions(many, "station", 3), 3)
	assert.Equal(t, "Station 0", Suggestions(many, "station", 3)[0].Name)
	assert.Len(t, Suggestions(many, "station 1", 0), 8)
	assert.Nil(t, Suggestions(many, " ", 0))
	assert.Empty(t, Suggestions(many, "nope", 0))
}

func TestFind(t *testing.T) {
	got, ok := Find(records, model.LocationKey{Name: "Mumbai", Lat: 19.07, Lon: 72.87})
	require.True(t, ok)
	assert.InDelta(t, 48, got.Score, 1e-9)

	_, ok = Find(records, model.LocationKey{Name: "Mumbai", Lat: 19.07, Lon: 0})
	assert.False(t, ok)
}
