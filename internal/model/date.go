package model

import (
	"strings"
	"time"
)

// DateLayout is the canonical calendar-date rendering.
const DateLayout = "2006-01-02"

// dateLayouts are tried in order. Month-first forms precede day-first forms so
// that ambiguous dates read the US way.
var dateLayouts = []string{
	"1/2/2006",
	"2006-01-02",
	"1-2-2006",
	"02/01/2006",
	"2006/01/02",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"Jan 2, 2006",
	"2 Jan 2006",
	"1/2/06",
}

// ParseDate parses s using the known bank export layouts.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// DateOf returns the calendar day of t as a UTC midnight.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// AsDate returns the calendar day of a date-like value: a time.Time or a
// parseable string.
func AsDate(v any) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		if x.IsZero() {
			return time.Time{}, false
		}
		return DateOf(x), true
	case string:
		t, ok := ParseDate(x)
		if !ok {
			return time.Time{}, false
		}
		return DateOf(t), true
	}
	return time.Time{}, false
}
