package dataset

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveColumns(t *testing.T) {
	tests := []struct {
		name    string
		columns []string
		want    Columns
	}{
		{
			name:    "station dataset",
			columns: []string{"Station", "Latitude", "Longitude", "AQI_Score"},
			want: Columns{
				RoleLat:   "Latitude",
				RoleLon:   "Longitude",
				RoleScore: "AQI_Score",
				RoleName:  "Station",
			},
		},
		{
			name:    "city fallback and short names",
			columns: []string{"City", "lat", "lng", "Sustainability"},
			want: Columns{
				RoleLat:   "lat",
				RoleLon:   "lng",
				RoleScore: "Sustainability",
				RoleName:  "City",
			},
		},
		{
			name:    "station preferred over earlier location column",
			columns: []string{"Location", "Station Name", "lat", "lon", "score"},
			want: Columns{
				RoleLat:   "lat",
				RoleLon:   "lon",
				RoleScore: "score",
				RoleName:  "Station Name",
			},
		},
		{
			name:    "score and aqi share one column",
			columns: []string{"lat", "long", "AQI"},
			want: Columns{
				RoleLat:   "lat",
				RoleLon:   "long",
				RoleScore: "AQI",
				RoleAQI:   "AQI",
			},
		},
		{
			name:    "first column in order wins",
			columns: []string{"lat", "lon", "pollution_index", "score"},
			want: Columns{
				RoleLat:   "lat",
				RoleLon:   "lon",
				RoleScore: "pollution_index",
			},
		},
		{
			name:    "pollutants",
			columns: []string{"District", "LAT", "LON", "Score", "PM2.5", "PM10", "Air Quality Index", "NO2", "Ozone", "SO2 (ppb)"},
			want: Columns{
				RoleLat:   "LAT",
				RoleLon:   "LON",
				RoleScore: "Score",
				RoleName:  "District",
				RolePM25:  "PM2.5",
				RolePM10:  "PM10",
				RoleAQI:   "Air Quality Index",
				RoleNO2:   "NO2",
				RoleO3:    "Ozone",
				RoleSO2:   "SO2 (ppb)",
			},
		},
		{
			name:    "underscored pollutant spellings",
			columns: []string{"lat", "lon", "score", "pm2_5", "pm_10", "nitrogen dioxide", "sulfur"},
			want: Columns{
				RoleLat:   "lat",
				RoleLon:   "lon",
				RoleScore: "score",
				RolePM25:  "pm2_5",
				RolePM10:  "pm_10",
				RoleNO2:   "nitrogen dioxide",
				RoleSO2:   "sulfur",
			},
		},
		{
			name:    "nothing resolves",
			columns: []string{"a", "b"},
			want:    Columns{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveColumns(tt.columns))
		})
	}
}

func TestResolve_AQIStrictMatch(t *testing.T) {
	cols := ResolveColumns([]string{"lat", "lon", "score", "aqi_bucket"})
	_, ok := cols.Get(RoleAQI)
	assert.False(t, ok)
}

func TestResolve_MissingRequired(t *testing.T) {
	cols, err := Resolve([]string{"Station", "Latitude", "PM10"})
	require.Error(t, err)

	var schemaErr *SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, []Role{RoleLon, RoleScore}, schemaErr.Missing)
	assert.Equal(t, []string{"Station", "Latitude", "PM10"}, schemaErr.Columns)
	assert.Equal(t, "Latitude", cols[RoleLat])
	assert.Contains(t, err.Error(), "lon, score")
}

func TestResolve_OK(t *testing.T) {
	cols, err := Resolve([]string{"lat", "lon", "score"})
	require.NoError(t, err)
	assert.Empty(t, cols.Missing())
}

func TestColumns_GetEmpty(t *testing.T) {
	c := Columns{RoleName: ""}
	_, ok := c.Get(RoleName)
	assert.False(t, ok)
}

func TestRoles_Order(t *testing.T) {
	assert.Equal(t, []Role{
		RoleLat, RoleLon, RoleScore, RoleName,
		RolePM25, RolePM10, RoleAQI, RoleNO2, RoleO3, RoleSO2,
	}, Roles())
}

func TestRole_Required(t *testing.T) {
	assert.True(t, RoleLat.Required())
	assert.True(t, RoleLon.Required())
	assert.True(t, RoleScore.Required())
	assert.False(t, RoleName.Required())
	assert.False(t, RoleAQI.Required())
}
