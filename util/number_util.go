package util

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseFloat parses a scraped numeric fragment: thousands separators are
// stripped and the Unicode minus sign is normalized to ASCII.
func ParseFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, "−", "-")
	if s == "" {
		return 0, fmt.Errorf("empty number")
	}
	return strconv.ParseFloat(s, 64)
}

// magnitude suffixes as the scraped sites print them. FT uses lower case
// k/m/bn/tn, others upper case K/M/B/T.
var magnitudes = []struct {
	suffix string
	factor float64
}{
	{"tn", 1e12},
	{"bn", 1e9},
	{"T", 1e12},
	{"B", 1e9},
	{"M", 1e6},
	{"K", 1e3},
	{"m", 1e6},
	{"k", 1e3},
}

// ParseAbbreviated expands abbreviated magnitudes ("1.2bn", "54.55m",
// "3.4T") to absolute numbers; plain numbers pass through.
func ParseAbbreviated(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	for _, m := range magnitudes {
		if strings.HasSuffix(s, m.suffix) {
			f, err := strconv.ParseFloat(strings.TrimSuffix(s, m.suffix), 64)
			if err != nil {
				return 0, err
			}
			return f * m.factor, nil
		}
	}
	return ParseFloat(s)
}
