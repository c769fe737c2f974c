package mapview

import (
	"encoding/json"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/ecomap/internal/model"
	"github.com/sells-group/ecomap/internal/status"
)

// Feature converts a record into a GeoJSON point feature carrying its score,
// status, marker color, and present pollutant readings.
func Feature(r model.Location) *geojson.Feature {
	cls := status.Classify(r.Score)
	props := map[string]interface{}{
		"name":         r.Name,
		"score":        r.Score,
		"status":       cls.Label,
		"class_name":   cls.ClassName,
		"status_color": cls.Color,
		"marker_color": status.MarkerColor(r.Score),
	}
	for _, p := range model.Pollutants {
		if v := r.Metric(p); v != nil {
			props[string(p)] = *v
		}
	}
	return &geojson.Feature{
		ID:         r.Key().String(),
		Geometry:   geom.NewPointFlat(geom.XY, []float64{r.Lon, r.Lat}),
		Properties: props,
	}
}

// FeatureCollection converts records into a GeoJSON feature collection.
func FeatureCollection(records []model.Location) *geojson.FeatureCollection {
	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(records))}
	for _, r := range records {
		fc.Features = append(fc.Features, Feature(r))
	}
	return fc
}

// MarshalGeoJSON encodes records as a GeoJSON FeatureCollection document.
func MarshalGeoJSON(records []model.Location) ([]byte, error) {
	data, err := json.Marshal(FeatureCollection(records))
	if err != nil {
		return nil, eris.Wrap(err, "mapview: marshal geojson")
	}
	return data, nil
}
