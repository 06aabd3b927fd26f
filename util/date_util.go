package util

import (
	"fmt"
	"strings"
	"time"
)

const (
	ISOLayout = "2006-01-02"
	// Spreadsheet serial dates count days from 1899-12-30.
	serialEpoch = "1899-12-30"
)

var serialEpochTime = func() time.Time {
	t, _ := time.Parse(ISOLayout, serialEpoch)
	return t
}()

// FromSerial converts a spreadsheet day-count serial to a calendar date.
func FromSerial(days float64) time.Time {
	return serialEpochTime.AddDate(0, 0, int(days))
}

// dateLayouts accepted for historic lookups, year-first then common
// day-not-first forms, matching the host's date handling.
var dateLayouts = []string{
	ISOLayout,
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"January 2, 2006",
	"Jan 2, 2006",
	"Jan 2 2006",
}

// ParseDate parses a date string year-first, day-not-first.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date '%s'", s)
}

// ParseDateTimeWithZone parses strings like
// "Wednesday, June 15, 2022 21:00 BST" as produced by FT's disclaimer. The
// trailing token is a timezone abbreviation; it is returned separately since
// abbreviations do not map cleanly onto locations.
func ParseDateTimeWithZone(s string) (time.Time, string, error) {
	s = strings.TrimSpace(s)

	tz := ""
	bits := strings.Split(s, " ")
	if len(bits) >= 4 {
		last := bits[len(bits)-1]
		if len(last) >= 2 && last == strings.ToUpper(last) && !strings.ContainsAny(last, "0123456789") {
			tz = last
			s = strings.TrimSpace(strings.TrimSuffix(s, last))
		}
	}

	layouts := []string{
		"Monday, January 2, 2006 15:04",
		"January 2, 2006 15:04",
		"Monday, January 2, 2006",
		"January 2, 2006",
		"Jan 2 2006 15:04",
		"Jan 2 2006",
		ISOLayout,
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, tz, nil
		}
	}

	return time.Time{}, tz, fmt.Errorf("unparseable date/time '%s'", s)
}
