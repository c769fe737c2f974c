package main

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/sells-group/ecomap/internal/aggregate"
	"github.com/sells-group/ecomap/internal/config"
	"github.com/sells-group/ecomap/internal/dataset"
	"github.com/sells-group/ecomap/internal/fetcher"
	"github.com/sells-group/ecomap/internal/mapview"
	"github.com/sells-group/ecomap/internal/metrics"
)

// newLoader builds a loader that can read local, HTTP and FTP sources.
func newLoader(c *config.Config, m *metrics.Metrics) *dataset.Loader {
	router := fetcher.NewRouter(
		fetcher.HTTPOptions{UserAgent: c.Dataset.UserAgent, Timeout: c.Dataset.Timeout()},
		fetcher.FTPOptions{Timeout: c.Dataset.Timeout(), User: c.Dataset.FTPUser, Password: c.Dataset.FTPPassword},
	)
	return dataset.NewLoader(router, m)
}

// datasetOptions maps the dataset config section onto loader options.
func datasetOptions(c *config.Config) dataset.Options {
	d := c.Dataset
	return dataset.Options{
		Source: d.Source,
		Format: fetcher.Format(strings.ToLower(d.Format)),
		XLSX:   fetcher.XLSXOptions{SheetIndex: d.SheetIndex, SheetName: d.SheetName},
		CSV:    fetcher.CSVOptions{Delimiter: delimiter(d.Delimiter), TrimSpace: true},
	}
}

// delimiter accepts a single character, or "tab" / `\t`.
func delimiter(s string) rune {
	switch strings.ToLower(s) {
	case "":
		return ','
	case "tab", `\t`:
		return '\t'
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r
}

// viewOptions maps the map config section onto render options.
func viewOptions(c *config.Config) mapview.ViewOptions {
	m := c.Map
	opts := mapview.DefaultViewOptions()
	opts.Fallback = aggregate.LatLon{Lat: m.DefaultCenterLat, Lon: m.DefaultCenterLon}
	if len(m.BoundsSouthWest) == 2 && len(m.BoundsNorthEast) == 2 {
		opts.MaxBounds = aggregate.Box{
			SouthWest: aggregate.LatLon{Lat: m.BoundsSouthWest[0], Lon: m.BoundsSouthWest[1]},
			NorthEast: aggregate.LatLon{Lat: m.BoundsNorthEast[0], Lon: m.BoundsNorthEast[1]},
		}
	}
	opts.InitialZoom = m.InitialZoom
	opts.MinZoom = m.MinZoom
	opts.MaxZoom = m.MaxZoom
	return opts
}

// loadDataset runs one ingestion with the configured source.
func loadDataset(ctx context.Context, c *config.Config, m *metrics.Metrics) (*dataset.Dataset, error) {
	return newLoader(c, m).Load(ctx, datasetOptions(c))
}
