package util

import (
	"time"
)

// DateLayout is the wire format for calendar dates across the API and the
// upstream dataset headers.
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD calendar date. Returns (t, true) if it worked.
func ParseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// FormatDate renders a time as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// AddMonths advances a date by n calendar months, clamping day-of-month
// overflow to the last day of the target month (Jan 31 + 1 month = Feb 28/29).
// The upstream dataset carries month-end dates, so plain AddDate would skip
// short months and drift into the next one.
func AddMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
	first = first.AddDate(0, n, 0)
	if last := daysInMonth(first.Year(), first.Month()); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, t.Location())
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
