package fetch

import (
	"strings"

	"github.com/spyglass-dev/spyglass/extract"
)

// Filter is a case-insensitive substring predicate over a row's formatted
// columns and raw value, optionally scoped to named fields. A zero Filter
// matches everything.
type Filter struct {
	Query  string
	Fields []string
}

// Match reports whether the row passes the filter.
func (f Filter) Match(row Row) bool {
	if f.Query == "" {
		return true
	}
	query := strings.ToLower(f.Query)

	if len(f.Fields) > 0 {
		for _, field := range f.Fields {
			// a named field is a column label first, a raw path second
			if v, ok := row.Cell(field); ok {
				if strings.Contains(strings.ToLower(v), query) {
					return true
				}
				continue
			}
			if v, ok := extract.GetString(row.Raw, field); ok {
				if strings.Contains(strings.ToLower(v), query) {
					return true
				}
			}
		}
		return false
	}

	for _, cell := range row.Cells {
		if strings.Contains(strings.ToLower(cell.Value), query) {
			return true
		}
	}
	return strings.Contains(strings.ToLower(extract.Display(row.Raw)), query)
}
