package model

// RawRow maps a column name to an untyped cell value. Values are float64, string,
// bool, or absent (missing key or nil). Rows are treated as immutable once parsed.
type RawRow map[string]any

// Table is a parsed sheet: ordered header names plus data rows.
type Table struct {
	Columns []string
	Rows    []RawRow
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}
