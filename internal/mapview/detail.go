package mapview

import (
	"fmt"

	"github.com/sells-group/ecomap/internal/aggregate"
	"github.com/sells-group/ecomap/internal/model"
	"github.com/sells-group/ecomap/internal/status"
)

// MetricLine is one air-quality reading in the detail panel.
type MetricLine struct {
	Key   model.Pollutant `json:"key"`
	Label string          `json:"label"`
	Value float64         `json:"value"`
	Unit  string          `json:"unit,omitempty"`
	Text  string          `json:"text"`
}

type metricInfo struct {
	label string
	unit  string
}

var metricInfos = map[model.Pollutant]metricInfo{
	model.PollutantPM25: {"PM2.5", "µg/m³"},
	model.PollutantPM10: {"PM10", "µg/m³"},
	model.PollutantAQI:  {"AQI", ""},
	model.PollutantNO2:  {"NO₂", "ppb"},
	model.PollutantO3:   {"O₃", "ppb"},
	model.PollutantSO2:  {"SO₂", "ppb"},
}

// MetricLabel returns the display label and unit for a pollutant.
func MetricLabel(p model.Pollutant) (label, unit string) {
	info := metricInfos[p]
	return info.label, info.unit
}

// Breakdown is the status advisory shown under the metrics.
type Breakdown struct {
	Text      string `json:"text"`
	ClassName string `json:"class_name"`
}

// Detail is the side panel for a selected location.
type Detail struct {
	Name        string                `json:"name"`
	Score       string                `json:"score"`
	Status      status.Classification `json:"status"`
	Coordinates string                `json:"coordinates"`
	Metrics     []MetricLine          `json:"metrics"`
	Breakdown   Breakdown             `json:"breakdown"`
}

// DetailFor builds the detail panel. Absent pollutants are omitted.
func DetailFor(r model.Location) Detail {
	cls := status.Classify(r.Score)
	d := Detail{
		Name:        r.Name,
		Score:       fmt.Sprintf("%.1f", r.Score),
		Status:      cls,
		Coordinates: fmt.Sprintf("%.2f°, %.2f°", r.Lat, r.Lon),
		Metrics:     []MetricLine{},
		Breakdown:   Breakdown{Text: aggregate.BreakdownText(r), ClassName: cls.ClassName},
	}
	for _, p := range model.Pollutants {
		v := r.Metric(p)
		if v == nil {
			continue
		}
		label, unit := MetricLabel(p)
		text := fmt.Sprintf("%.1f", *v)
		if unit != "" {
			text += " " + unit
		}
		d.Metrics = append(d.Metrics, MetricLine{Key: p, Label: label, Value: *v, Unit: unit, Text: text})
	}
	return d
}
