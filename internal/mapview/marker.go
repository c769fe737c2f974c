// Package mapview builds the render state consumed by map clients: markers,
// tooltips, the detail panel, the legend, and GeoJSON.
package mapview

import (
	"fmt"

	"github.com/sells-group/ecomap/internal/model"
	"github.com/sells-group/ecomap/internal/status"
)

// MarkerStyle is the circle-marker path style.
type MarkerStyle struct {
	Radius      int     `json:"radius"`
	Color       string  `json:"color"`
	FillColor   string  `json:"fill_color"`
	FillOpacity float64 `json:"fill_opacity"`
	Weight      int     `json:"weight"`
}

// Marker is one location on the map.
type Marker struct {
	ID       string                `json:"id"`
	Location model.Location        `json:"location"`
	Status   status.Classification `json:"status"`
	Style    MarkerStyle           `json:"style"`
	Tooltip  []string              `json:"tooltip"`
	Selected bool                  `json:"selected"`
}

// Style returns the marker style for a score.
func Style(score float64, selected bool) MarkerStyle {
	c := status.MarkerColor(score)
	s := MarkerStyle{Radius: 8, Color: c, FillColor: c, FillOpacity: 0.6, Weight: 2}
	if selected {
		s.Radius, s.FillOpacity, s.Weight = 12, 0.9, 3
	}
	return s
}

// TooltipLines returns the hover text for a record.
func TooltipLines(r model.Location) []string {
	return []string{
		r.Name,
		fmt.Sprintf("Score: %.1f / 100", r.Score),
		"Status: " + status.Classify(r.Score).Label,
		"Click for details",
	}
}

// Markers builds markers for records, flagging the one matching selected.
func Markers(records []model.Location, selected *model.Location) []Marker {
	out := make([]Marker, len(records))
	for i, r := range records {
		isSel := selected != nil && selected.SameAs(r)
		out[i] = Marker{
			ID:       r.Key().String(),
			Location: r,
			Status:   status.Classify(r.Score),
			Style:    Style(r.Score, isSel),
			Tooltip:  TooltipLines(r),
			Selected: isSel,
		}
	}
	return out
}

// NoResults is shown when a non-blank query matches nothing.
const NoResults = "No locations found"

// Suggestion is one search dropdown entry.
type Suggestion struct {
	Key   model.LocationKey `json:"key"`
	Name  string            `json:"name"`
	Score string            `json:"score"`
}

// Suggestions formats dropdown entries.
func Suggestions(records []model.Location) []Suggestion {
	out := make([]Suggestion, len(records))
	for i, r := range records {
		out[i] = Suggestion{Key: r.Key(), Name: r.Name, Score: fmt.Sprintf("Score: %.1f", r.Score)}
	}
	return out
}
