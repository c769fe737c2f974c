// Package export writes a loaded dataset to GeoJSON, SQLite or ESRI shapefile.
package export

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/ecomap/internal/dataset"
	"github.com/sells-group/ecomap/internal/mapview"
	"github.com/sells-group/ecomap/internal/model"
	"github.com/sells-group/ecomap/internal/status"
	"github.com/sells-group/ecomap/internal/store"
)

// Format names an export target.
type Format string

const (
	FormatGeoJSON   Format = "geojson"
	FormatSQLite    Format = "sqlite"
	FormatShapefile Format = "shapefile"
)

// Formats lists every supported export format.
var Formats = []Format{FormatGeoJSON, FormatSQLite, FormatShapefile}

// ParseFormat validates a format name. Matching is case-insensitive.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", eris.Errorf("export: unknown format %q", s)
}

// Extension returns the conventional file extension for the format.
func (f Format) Extension() string {
	switch f {
	case FormatSQLite:
		return ".db"
	case FormatShapefile:
		return ".shp"
	default:
		return ".geojson"
	}
}

// Write exports ds to path in the given format.
func Write(ctx context.Context, f Format, path string, ds *dataset.Dataset) error {
	if ds == nil {
		return eris.New("export: nil dataset")
	}
	log := zap.L().With(zap.String("component", "export"), zap.String("format", string(f)), zap.String("path", path))

	var err error
	switch f {
	case FormatGeoJSON:
		err = WriteGeoJSON(path, ds.Records)
	case FormatSQLite:
		err = WriteSQLite(ctx, path, ds)
	case FormatShapefile:
		err = WriteShapefile(path, ds.Records)
	default:
		return eris.Errorf("export: unknown format %q", f)
	}
	if err != nil {
		return err
	}
	log.Info("export complete", zap.Int("records", len(ds.Records)))
	return nil
}

// WriteGeoJSON writes records as a GeoJSON FeatureCollection.
func WriteGeoJSON(path string, records []model.Location) error {
	data, err := mapview.MarshalGeoJSON(records)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrap(err, "export: write geojson")
	}
	return nil
}

// WriteSQLite stores the dataset in a SQLite database at path, creating the
// schema when needed. Repeated exports to one file append new loads.
func WriteSQLite(ctx context.Context, path string, ds *dataset.Dataset) error {
	st, err := store.NewSQLite(path)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	if err := st.Migrate(ctx); err != nil {
		return err
	}
	if _, err := st.SaveDataset(ctx, ds); err != nil {
		return err
	}
	return nil
}

// DBF column layout. Names are limited to 10 characters.
const (
	nameSize   = 64
	statusSize = 10
	colorSize  = 7
)

var shapeFields = []shp.Field{
	shp.StringField("NAME", nameSize),
	shp.FloatField("LAT", 18, 6),
	shp.FloatField("LON", 18, 6),
	shp.FloatField("SCORE", 14, 2),
	shp.StringField("STATUS", statusSize),
	shp.StringField("COLOR", colorSize),
	shp.FloatField("PM25", 14, 2),
	shp.FloatField("PM10", 14, 2),
	shp.FloatField("AQI", 14, 2),
	shp.FloatField("NO2", 14, 2),
	shp.FloatField("O3", 14, 2),
	shp.FloatField("SO2", 14, 2),
}

// WriteShapefile writes records as a point shapefile (.shp, .shx, .dbf).
// Absent pollutant readings are left blank.
func WriteShapefile(path string, records []model.Location) error {
	base := strings.TrimSuffix(path, filepath.Ext(path))
	w, err := shp.Create(base+".shp", shp.POINT)
	if err != nil {
		return eris.Wrap(err, "export: create shapefile")
	}
	if err := w.SetFields(shapeFields); err != nil {
		w.Close()
		return eris.Wrap(err, "export: set shapefile fields")
	}

	for _, r := range records {
		row := int(w.Write(&shp.Point{X: r.Lon, Y: r.Lat}))
		values := []any{
			r.Name,
			r.Lat,
			r.Lon,
			r.Score,
			status.Classify(r.Score).Label,
			status.MarkerColor(r.Score),
		}
		for _, p := range model.Pollutants {
			if v := r.Metric(p); v != nil {
				values = append(values, *v)
			} else {
				values = append(values, nil)
			}
		}
		for i, v := range values {
			if err := w.WriteAttribute(row, i, cell(shapeFields[i], v)); err != nil {
				w.Close()
				return eris.Wrapf(err, "export: write %s of %q", shapeFields[i], r.Name)
			}
		}
	}
	w.Close()

	// The writer names its attribute table "<base>dbf"; readers expect "<base>.dbf".
	if err := os.Rename(base+"dbf", base+".dbf"); err != nil {
		return eris.Wrap(err, "export: rename dbf")
	}
	return nil
}

// cell renders v as a fixed-width DBF value. Text is left aligned, numbers are
// right aligned and nil is blank. The writer leaves unwritten bytes as NUL, so
// every cell is padded to the full field width.
func cell(f shp.Field, v any) string {
	size := int(f.Size)
	switch x := v.(type) {
	case string:
		x = truncate(x, size)
		return x + strings.Repeat(" ", size-len(x))
	case float64:
		s := strconv.FormatFloat(x, 'f', int(f.Precision), 64)
		if len(s) >= size {
			return s
		}
		return strings.Repeat(" ", size-len(s)) + s
	default:
		return strings.Repeat(" ", size)
	}
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	s = s[:n]
	for len(s) > 0 && !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s
}
