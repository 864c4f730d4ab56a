package table

import (
	"strconv"
	"strings"
	"time"
)

// Loose parsers shared by the cleaner and by type inference. They accept the
// formats actually seen in spreadsheet exports and reject everything else;
// a false second return is the only failure mode.

// ParseNumber parses a numeric cell string. Whitespace-tolerant; empty is not
// a number.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// ParseBoolLoose parses permissive boolean encodings, case-insensitive and
// whitespace-tolerant.
func ParseBoolLoose(s string) (bool, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "1", "t", "true", "yes", "y":
		return true, true
	case "0", "f", "false", "no", "n":
		return false, true
	default:
		return false, false
	}
}

var dateLayouts = []string{
	"2006-01-02",
	"02.01.2006",
	"02/01/2006",
	"01/02/2006",
}

var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05.000Z07:00",
	"02.01.2006 15:04:05",
}

// ParseTimeLoose parses date and timestamp cells against the known layout
// set, dates first. The matched layout is returned for callers that track
// per-column layouts.
func ParseTimeLoose(s string) (time.Time, string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, "", false
	}
	for _, lay := range dateLayouts {
		if t, err := time.Parse(lay, s); err == nil {
			return t, lay, true
		}
	}
	for _, lay := range timestampLayouts {
		if t, err := time.Parse(lay, s); err == nil {
			return t, lay, true
		}
	}
	return time.Time{}, "", false
}
