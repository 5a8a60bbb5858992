package common

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// ParseDecimal parses a monetary or percentage string tolerating Brazilian
// formatting: currency prefixes, thousand separators and a comma decimal
// ("1.234,56" and "26,76" both parse).
func ParseDecimal(value string) (float64, bool) {
	raw := strings.TrimSpace(value)
	for _, junk := range []string{"R$", "r$", "US$", "us$", "$", "%", " "} {
		raw = strings.ReplaceAll(raw, junk, "")
	}

	if strings.Contains(raw, ",") && strings.Contains(raw, ".") {
		raw = strings.ReplaceAll(raw, ".", "")
		raw = strings.ReplaceAll(raw, ",", ".")
	} else if strings.Contains(raw, ",") {
		raw = strings.ReplaceAll(raw, ",", ".")
	}

	if raw == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Round2 rounds a monetary value to 2 decimal places. Internal arithmetic
// stays full precision; rounding happens only at result boundaries.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// DaysBetween returns the whole number of days from a to b, both taken as
// civil dates (time-of-day and zone are ignored).
func DaysBetween(a, b time.Time) int {
	ad := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bd := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(bd.Sub(ad).Hours() / 24)
}
