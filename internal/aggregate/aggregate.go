// Package aggregate computes dataset-wide derived views: the viewport centroid,
// geographic bounds, per-tier counts, and the per-location status breakdown.
package aggregate

import (
	"github.com/twpayne/go-geom"

	"github.com/sells-group/ecomap/internal/model"
	"github.com/sells-group/ecomap/internal/status"
)

// DefaultCenter is used when there are no records to average.
var DefaultCenter = LatLon{Lat: 20.5937, Lon: 78.9629}

// LatLon is a WGS84 coordinate.
type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Box is a south-west / north-east coordinate pair.
type Box struct {
	SouthWest LatLon `json:"south_west"`
	NorthEast LatLon `json:"north_east"`
}

// IndiaBounds is the default maximum map extent.
var IndiaBounds = Box{
	SouthWest: LatLon{Lat: 6.5, Lon: 68.0},
	NorthEast: LatLon{Lat: 37.5, Lon: 97.5},
}

// Centroid returns the arithmetic mean of all coordinates, or DefaultCenter
// for an empty set.
func Centroid(records []model.Location) LatLon {
	return CentroidOr(records, DefaultCenter)
}

// CentroidOr is Centroid with a caller-supplied fallback.
func CentroidOr(records []model.Location, fallback LatLon) LatLon {
	if len(records) == 0 {
		return fallback
	}
	var lat, lon float64
	for _, r := range records {
		lat += r.Lat
		lon += r.Lon
	}
	n := float64(len(records))
	return LatLon{Lat: lat / n, Lon: lon / n}
}

// Bounds returns the bounding box of the records. ok is false for an empty set.
func Bounds(records []model.Location) (box Box, ok bool) {
	if len(records) == 0 {
		return Box{}, false
	}
	coords := make([]geom.Coord, len(records))
	for i, r := range records {
		coords[i] = geom.Coord{r.Lon, r.Lat}
	}
	mp := geom.NewMultiPoint(geom.XY).MustSetCoords(coords)
	b := mp.Bounds()
	return Box{
		SouthWest: LatLon{Lat: b.Min(1), Lon: b.Min(0)},
		NorthEast: LatLon{Lat: b.Max(1), Lon: b.Max(0)},
	}, true
}

// Contains reports whether the record lies within box, edges included.
func (b Box) Contains(r model.Location) bool {
	gb := geom.NewBounds(geom.XY).Set(b.SouthWest.Lon, b.SouthWest.Lat, b.NorthEast.Lon, b.NorthEast.Lat)
	return gb.OverlapsPoint(geom.XY, geom.Coord{r.Lon, r.Lat})
}

// Breakdown texts keyed by tier.
const (
	BreakdownGood     = "✓ This location has excellent ecological health"
	BreakdownModerate = "⚠ This location needs environmental monitoring"
	BreakdownCritical = "✕ This location requires immediate attention"
)

// BreakdownText returns the advisory message for a record's status tier.
func BreakdownText(r model.Location) string {
	switch status.TierOf(r.Score) {
	case status.TierGood:
		return BreakdownGood
	case status.TierModerate:
		return BreakdownModerate
	default:
		return BreakdownCritical
	}
}

// Summary describes a record set as a whole.
type Summary struct {
	Total         int                 `json:"total"`
	Counts        map[status.Tier]int `json:"counts"`
	MeanScore     float64             `json:"mean_score"`
	MinScore      float64             `json:"min_score"`
	MaxScore      float64             `json:"max_score"`
	Centroid      LatLon              `json:"centroid"`
	Bounds        *Box                `json:"bounds,omitempty"`
	OutsideExtent int                 `json:"outside_extent"`
}

// Summarize computes the dataset summary. Records outside extent are counted
// in OutsideExtent.
func Summarize(records []model.Location, extent Box) Summary {
	s := Summary{
		Total:    len(records),
		Counts:   TierCounts(records),
		Centroid: Centroid(records),
	}
	if len(records) == 0 {
		return s
	}
	if box, ok := Bounds(records); ok {
		s.Bounds = &box
	}
	s.MinScore, s.MaxScore = records[0].Score, records[0].Score
	var sum float64
	for _, r := range records {
		sum += r.Score
		if r.Score < s.MinScore {
			s.MinScore = r.Score
		}
		if r.Score > s.MaxScore {
			s.MaxScore = r.Score
		}
		if !extent.Contains(r) {
			s.OutsideExtent++
		}
	}
	s.MeanScore = sum / float64(len(records))
	return s
}

// TierCounts counts records per status tier. Every tier is present.
func TierCounts(records []model.Location) map[status.Tier]int {
	counts := make(map[status.Tier]int, len(status.Tiers))
	for _, t := range status.Tiers {
		counts[t] = 0
	}
	for _, r := range records {
		counts[status.TierOf(r.Score)]++
	}
	return counts
}
