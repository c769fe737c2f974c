package mapview

import (
	"github.com/sells-group/ecomap/internal/aggregate"
	"github.com/sells-group/ecomap/internal/model"
	"github.com/sells-group/ecomap/internal/status"
)

// ViewOptions are the fixed map parameters.
type ViewOptions struct {
	Fallback    aggregate.LatLon
	MaxBounds   aggregate.Box
	InitialZoom float64
	MinZoom     float64
	MaxZoom     float64
}

// DefaultViewOptions returns the India-centred defaults.
func DefaultViewOptions() ViewOptions {
	return ViewOptions{
		Fallback:    aggregate.DefaultCenter,
		MaxBounds:   aggregate.IndiaBounds,
		InitialZoom: 5,
		MinZoom:     4,
		MaxZoom:     9,
	}
}

// View is the initial map render state.
type View struct {
	Center    aggregate.LatLon     `json:"center"`
	Zoom      float64              `json:"zoom"`
	MinZoom   float64              `json:"min_zoom"`
	MaxZoom   float64              `json:"max_zoom"`
	MaxBounds aggregate.Box        `json:"max_bounds"`
	Legend    []status.LegendEntry `json:"legend"`
	Summary   aggregate.Summary    `json:"summary"`
}

// InitialView centres the map on the record centroid.
func InitialView(records []model.Location, opts ViewOptions) View {
	summary := aggregate.Summarize(records, opts.MaxBounds)
	return View{
		Center:    aggregate.CentroidOr(records, opts.Fallback),
		Zoom:      opts.InitialZoom,
		MinZoom:   opts.MinZoom,
		MaxZoom:   opts.MaxZoom,
		MaxBounds: opts.MaxBounds,
		Legend:    status.Legend(summary.Counts),
		Summary:   summary,
	}
}
