package fetcher

import (
	"strconv"

	"github.com/sells-group/ecomap/internal/model"
)

// headerNames turns a raw header row into unique column names. Blank headers
// become __EMPTY, __EMPTY_1, ...; repeated names get _1, _2 suffixes, skipping
// any suffixed name already taken.
func headerNames(raw []string) []string {
	seen := make(map[string]int, len(raw))
	names := make([]string, len(raw))
	for i, h := range raw {
		base := h
		if base == "" {
			base = "__EMPTY"
		}
		name := base
		if n := seen[base]; n > 0 {
			for {
				name = base + "_" + strconv.Itoa(n)
				n++
				if seen[name] == 0 {
					break
				}
			}
			seen[base] = n
			seen[name] = 1
		} else {
			seen[base] = 1
		}
		names[i] = name
	}
	return names
}

// buildRow keys cell values by column. Missing and nil cells are left out.
// Returns nil when every cell is absent so blank rows can be skipped.
func buildRow(columns []string, cells []any) model.RawRow {
	row := make(model.RawRow, len(columns))
	for i, col := range columns {
		if i >= len(cells) || cells[i] == nil {
			continue
		}
		row[col] = cells[i]
	}
	if len(row) == 0 {
		return nil
	}
	return row
}
