// pkg/converter/mapping.go
package converter

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Canonical layouts written by the dataset preparer
const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04:05"
)

// dateLayouts are tried in order when parsing a release date
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05-07:00",
	"2006-01-02T15:04:05.999999Z",
	"2006-01-02T15:04:05.999999-07:00",
	"2006-01-02T15:04:05",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"02-01-2006",
	"20060102",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"2006-01",
	"2006",
}

// DetectTimeFormat analyzes a value to determine its date or timestamp layout
func DetectTimeFormat(value string) string {
	for _, format := range dateLayouts {
		_, err := time.Parse(format, value)
		if err == nil {
			return format
		}
	}

	return ""
}

// ParseDate parses a release date with the first matching layout.
// hasClock reports whether the value carries a time of day.
func ParseDate(value string) (t time.Time, hasClock bool, err error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false, errors.New("empty date")
	}

	format := DetectTimeFormat(value)
	if format == "" {
		return time.Time{}, false, fmt.Errorf("cannot parse '%s' as date", value)
	}

	t, _ = time.Parse(format, value)
	hasClock = t.Hour() != 0 || t.Minute() != 0 || t.Second() != 0 || t.Nanosecond() != 0
	return t, hasClock, nil
}

// FormatDate writes a parsed date in canonical form
func FormatDate(t time.Time, withClock bool) string {
	if withClock {
		return t.Format(DateTimeLayout)
	}
	return t.Format(DateLayout)
}
