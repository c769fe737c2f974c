// Package search filters location records by display name.
package search

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sells-group/ecomap/internal/model"
)

// DefaultSuggestionLimit caps the search dropdown.
const DefaultSuggestionLimit = 8

// Blank reports whether query selects the full record set.
func Blank(query string) bool {
	return strings.TrimSpace(query) == ""
}

// Filter returns the records whose lower-cased name contains the lower-cased
// query, preserving order. A blank query returns records unchanged.
func Filter(records []model.Location, query string) []model.Location {
	if Blank(query) {
		return records
	}
	lower := cases.Lower(language.Und)
	needle := lower.String(query)

	out := make([]model.Location, 0)
	for _, r := range records {
		if strings.Contains(lower.String(r.Name), needle) {
			out = append(out, r)
		}
	}
	return out
}

// Suggestions returns at most limit matches for the dropdown. A blank query
// yields no suggestions. limit <= 0 uses DefaultSuggestionLimit.
func Suggestions(records []model.Location, query string, limit int) []model.Location {
	if Blank(query) {
		return nil
	}
	if limit <= 0 {
		limit = DefaultSuggestionLimit
	}
	matches := Filter(records, query)
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

// Find returns the record with the given identity key.
func Find(records []model.Location, key model.LocationKey) (model.Location, bool) {
	for _, r := range records {
		if r.Key() == key {
			return r, true
		}
	}
	return model.Location{}, false
}
