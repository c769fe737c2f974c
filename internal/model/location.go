package model

import (
	"fmt"
	"strconv"
)

// Pollutant identifies one of the optional air-quality metrics carried by a location.
type Pollutant string

const (
	PollutantPM25 Pollutant = "pm25"
	PollutantPM10 Pollutant = "pm10"
	PollutantAQI  Pollutant = "aqi"
	PollutantNO2  Pollutant = "no2"
	PollutantO3   Pollutant = "o3"
	PollutantSO2  Pollutant = "so2"
)

// Pollutants lists the optional metrics in display order.
var Pollutants = []Pollutant{
	PollutantPM25,
	PollutantPM10,
	PollutantAQI,
	PollutantNO2,
	PollutantO3,
	PollutantSO2,
}

// Location is one normalized row of the dataset. Lat, Lon and Score are always finite.
// Pollutant fields are nil when the column was not resolved or the value was not a
// finite positive number.
type Location struct {
	Name  string   `json:"name"`
	Lat   float64  `json:"lat"`
	Lon   float64  `json:"lon"`
	Score float64  `json:"score"`
	PM25  *float64 `json:"pm25,omitempty"`
	PM10  *float64 `json:"pm10,omitempty"`
	AQI   *float64 `json:"aqi,omitempty"`
	NO2   *float64 `json:"no2,omitempty"`
	O3    *float64 `json:"o3,omitempty"`
	SO2   *float64 `json:"so2,omitempty"`
}

// LocationKey identifies a location within a session. The source format carries no
// stable id, so identity is structural on name and coordinates.
type LocationKey struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// Key returns the identity key of the location.
func (l Location) Key() LocationKey {
	return LocationKey{Name: l.Name, Lat: l.Lat, Lon: l.Lon}
}

// String renders the key the same way marker ids are built: name-lat-lon.
func (k LocationKey) String() string {
	return fmt.Sprintf("%s-%s-%s", k.Name,
		strconv.FormatFloat(k.Lat, 'f', -1, 64),
		strconv.FormatFloat(k.Lon, 'f', -1, 64))
}

// SameAs reports whether two locations share the same identity key.
func (l Location) SameAs(other Location) bool {
	return l.Key() == other.Key()
}

// Metric returns the value of the given pollutant, or nil when absent.
func (l Location) Metric(p Pollutant) *float64 {
	switch p {
	case PollutantPM25:
		return l.PM25
	case PollutantPM10:
		return l.PM10
	case PollutantAQI:
		return l.AQI
	case PollutantNO2:
		return l.NO2
	case PollutantO3:
		return l.O3
	case PollutantSO2:
		return l.SO2
	default:
		return nil
	}
}

// SetMetric stores v for the given pollutant. A nil v clears the field.
func (l *Location) SetMetric(p Pollutant, v *float64) {
	switch p {
	case PollutantPM25:
		l.PM25 = v
	case PollutantPM10:
		l.PM10 = v
	case PollutantAQI:
		l.AQI = v
	case PollutantNO2:
		l.NO2 = v
	case PollutantO3:
		l.O3 = v
	case PollutantSO2:
		l.SO2 = v
	}
}
