package persistence

import "strings"

// SortColumns is a whitelist of columns a listing may be ordered by.
// Anything else falls back to a fixed column, so user input never reaches
// the ORDER BY clause unchecked.
type SortColumns struct {
	allowed  map[string]struct{}
	fallback string
}

// NewSortColumns allows fallback plus columns
func NewSortColumns(fallback string, columns ...string) SortColumns {
	allowed := make(map[string]struct{}, len(columns)+1)
	allowed[fallback] = struct{}{}
	for _, c := range columns {
		allowed[c] = struct{}{}
	}
	return SortColumns{allowed: allowed, fallback: fallback}
}

// Column returns field when it is whitelisted, otherwise the fallback
func (s SortColumns) Column(field string) string {
	if _, ok := s.allowed[strings.TrimSpace(field)]; ok {
		return strings.TrimSpace(field)
	}
	return s.fallback
}

// OrderClause builds "column DIR". Newest-first listings are the norm, so
// only an explicit asc sorts ascending.
func (s SortColumns) OrderClause(field, dir string) string {
	return s.Column(field) + " " + sortDirection(dir)
}

func sortDirection(dir string) string {
	if strings.EqualFold(strings.TrimSpace(dir), "asc") {
		return "ASC"
	}
	return "DESC"
}

var (
	addressBookSort = NewSortColumns("last_used_at",
		"id", "created_at", "updated_at", "name", "registration_number", "use_count")
	exportSort = NewSortColumns("created_at",
		"id", "updated_at", "act_number", "act_date", "format", "size", "grand_total")
)
