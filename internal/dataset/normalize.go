package dataset

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/sells-group/ecomap/internal/model"
)

// pollutantRoles pairs optional metric roles with record fields.
var pollutantRoles = []struct {
	role Role
	p    model.Pollutant
}{
	{RolePM25, model.PollutantPM25},
	{RolePM10, model.PollutantPM10},
	{RoleAQI, model.PollutantAQI},
	{RoleNO2, model.PollutantNO2},
	{RoleO3, model.PollutantO3},
	{RoleSO2, model.PollutantSO2},
}

// NormalizeResult holds the surviving records and the row accounting.
type NormalizeResult struct {
	Records []model.Location
	Read    int
	Dropped int
}

// Normalize converts raw rows into location records. Rows whose latitude,
// longitude, or score is not a finite number are dropped without error. It
// returns *EmptyDatasetError when no record survives.
func Normalize(rows []model.RawRow, cols Columns) (*NormalizeResult, error) {
	res := &NormalizeResult{Read: len(rows)}
	latCol, _ := cols.Get(RoleLat)
	lonCol, _ := cols.Get(RoleLon)
	scoreCol, _ := cols.Get(RoleScore)
	nameCol, hasName := cols.Get(RoleName)

	for i, row := range rows {
		lat := ToFloat(row[latCol])
		lon := ToFloat(row[lonCol])
		score := ToFloat(row[scoreCol])
		if !isFinite(lat) || !isFinite(lon) || !isFinite(score) {
			res.Dropped++
			continue
		}

		loc := model.Location{Lat: lat, Lon: lon, Score: score}
		if hasName {
			loc.Name = ToString(row[nameCol])
		}
		if loc.Name == "" {
			loc.Name = fmt.Sprintf("Location %d", i+1)
		}

		for _, pr := range pollutantRoles {
			col, ok := cols.Get(pr.role)
			if !ok {
				continue
			}
			if v := ToFloat(row[col]); isFinite(v) && v > 0 {
				loc.SetMetric(pr.p, &v)
			}
		}
		res.Records = append(res.Records, loc)
	}

	if len(res.Records) == 0 {
		return res, &EmptyDatasetError{Rows: len(rows)}
	}
	return res, nil
}

// ToFloat coerces an untyped cell to float64. Absent or unparseable values
// yield NaN.
func ToFloat(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case float32:
		return float64(x)
	case int:
		return float64(x)
	case int64:
		return float64(x)
	case bool:
		if x {
			return 1
		}
		return 0
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return math.NaN()
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

// ToString renders an untyped cell as display text.
func ToString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
