package act

import (
	"strings"
	"time"
)

// dateInputLayouts are tried in order when reading a date typed into a form
var dateInputLayouts = []string{
	"2006-01-02",
	"02.01.2006",
	"2.1.2006",
	"2006/01/02",
	"02/01/2006",
	"2006.01.02",
	time.RFC3339,
}

var datePatternReplacer = strings.NewReplacer(
	"YYYY", "2006",
	"YY", "06",
	"MM", "01",
	"DD", "02",
)

// ParseDate reads a date in any of the accepted input layouts
func ParseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range dateInputLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatDate renders value with a pattern such as "DD.MM.YYYY".
// Unparseable dates are returned as typed.
func FormatDate(value, pattern string) string {
	t, ok := ParseDate(value)
	if !ok {
		return strings.TrimSpace(value)
	}
	if strings.TrimSpace(pattern) == "" {
		pattern = DefaultDateFormat
	}
	return t.Format(datePatternReplacer.Replace(pattern))
}
