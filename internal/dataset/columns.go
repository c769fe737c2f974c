package dataset

import (
	"regexp"
)

// Role is the semantic meaning a dataset column can play.
type Role string

const (
	RoleLat   Role = "lat"
	RoleLon   Role = "lon"
	RoleScore Role = "score"
	RoleName  Role = "name"
	RolePM25  Role = "pm25"
	RolePM10  Role = "pm10"
	RoleAQI   Role = "aqi"
	RoleNO2   Role = "no2"
	RoleO3    Role = "o3"
	RoleSO2   Role = "so2"
)

// requiredRoles must all resolve or ingestion fails.
var requiredRoles = []Role{RoleLat, RoleLon, RoleScore}

// Required reports whether ingestion fails when r does not resolve.
func (r Role) Required() bool {
	for _, req := range requiredRoles {
		if r == req {
			return true
		}
	}
	return false
}

// rule is one pass of column matching for a role. A role may have several
// passes; the first pass that matches any column wins.
type rule struct {
	role   Role
	passes [][]*regexp.Regexp
}

func ci(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile("(?i)" + p)
	}
	return out
}

// rules is evaluated in order. Roles resolve independently, so score and aqi may
// land on the same physical column when nothing more specific exists.
var rules = []rule{
	{role: RoleLat, passes: [][]*regexp.Regexp{ci(`lat`, `latitude`)}},
	{role: RoleLon, passes: [][]*regexp.Regexp{ci(`lon`, `lng`, `long`, `longitude`)}},
	{role: RoleScore, passes: [][]*regexp.Regexp{ci(`score`, `sustain`, `index`, `aqi`)}},
	{role: RoleName, passes: [][]*regexp.Regexp{
		ci(`station`),
		ci(`city`, `location`, `region`, `district`),
	}},
	{role: RolePM25, passes: [][]*regexp.Regexp{ci(`pm2\.5|pm25|pm2_5`)}},
	{role: RolePM10, passes: [][]*regexp.Regexp{ci(`pm10|pm_10`)}},
	{role: RoleAQI, passes: [][]*regexp.Regexp{ci(`^aqi$|air.*quality.*index`)}},
	{role: RoleNO2, passes: [][]*regexp.Regexp{ci(`no2|nitrogen`)}},
	{role: RoleO3, passes: [][]*regexp.Regexp{ci(`o3|ozone`)}},
	{role: RoleSO2, passes: [][]*regexp.Regexp{ci(`so2|sulfur`)}},
}

// Columns is the result of schema inference: the physical column chosen for
// each role. A role with no match is absent from the map.
type Columns map[Role]string

// Get returns the column for role and whether it resolved.
func (c Columns) Get(role Role) (string, bool) {
	col, ok := c[role]
	return col, ok && col != ""
}

// Missing returns the required roles that did not resolve, in rule order.
func (c Columns) Missing() []Role {
	var missing []Role
	for _, r := range requiredRoles {
		if _, ok := c.Get(r); !ok {
			missing = append(missing, r)
		}
	}
	return missing
}

// Roles returns every role in rule order.
func Roles() []Role {
	out := make([]Role, len(rules))
	for i, r := range rules {
		out[i] = r.role
	}
	return out
}

// ResolveColumns maps column names to roles. For each role the column list is
// scanned in order and the first column matching any pattern of the current pass
// wins; later passes are only tried when an earlier pass matched nothing.
func ResolveColumns(columns []string) Columns {
	resolved := make(Columns, len(rules))
	for _, r := range rules {
		if col, ok := firstMatch(columns, r.passes); ok {
			resolved[r.role] = col
		}
	}
	return resolved
}

// Resolve is ResolveColumns plus the required-role check. It returns a
// *SchemaError when latitude, longitude, or score is missing.
func Resolve(columns []string) (Columns, error) {
	resolved := ResolveColumns(columns)
	if missing := resolved.Missing(); len(missing) > 0 {
		return resolved, &SchemaError{Missing: missing, Columns: columns}
	}
	return resolved, nil
}

func firstMatch(columns []string, passes [][]*regexp.Regexp) (string, bool) {
	for _, patterns := range passes {
		for _, col := range columns {
			for _, p := range patterns {
				if p.MatchString(col) {
					return col, true
				}
			}
		}
	}
	return "", false
}
