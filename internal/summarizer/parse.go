package summarizer

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	nonNumeric     = regexp.MustCompile(`[^0-9.\-]`)
	leadingDecimal = regexp.MustCompile(`^-?(\d+\.?\d*|\.\d+)`)
)

// dateLayouts are tried in order. Timezone-less layouts parse as UTC, so the
// bucket month is the month written in the cell.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02",
	"2006-01",
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
	"01/02/2006",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006",
	"02-Jan-2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"Jan 2006",
	"January 2006",
	time.RFC1123,
	time.RFC1123Z,
}

// ParseAmount strips every character that is not a digit, '.' or '-' and
// reads the longest leading decimal number from what remains. "$1,250.50"
// gives 1250.5, "1.2.3" gives 1.2, and "abc" or "" are not numbers.
func ParseAmount(raw string) (float64, bool) {
	cleaned := nonNumeric.ReplaceAllString(raw, "")
	match := leadingDecimal.FindString(cleaned)
	if match == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(match, "."), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// ParseDate reads a calendar date in any of the supported layouts.
func ParseDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
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

// roundHalfUp rounds to the nearest integer with .5 going towards +Inf.
func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}

func longMonthLabel(t time.Time) string {
	return t.Format("January 2006")
}

func shortMonthLabel(t time.Time) string {
	return t.Format("Jan 2006")
}
