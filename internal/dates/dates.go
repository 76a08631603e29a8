// Package dates provides day-granularity calendar helpers.
//
// All values returned by this package are midnight UTC so that comparisons
// never depend on time-of-day, time zone or DST.
package dates

import (
	"fmt"
	"time"
)

// Layout is the ISO date format used on the wire.
const Layout = "2006-01-02"

// Day strips the time-of-day from t, keeping its calendar date.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Today returns the current calendar date in loc.
func Today(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return Day(time.Now().In(loc))
}

// Parse parses an ISO date (YYYY-MM-DD). Anything after the date part is ignored.
func Parse(s string) (time.Time, error) {
	if len(s) < len(Layout) {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	t, err := time.Parse(Layout, s[:len(Layout)])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// ParseCompact parses the leading 8 digits of an iCal date value (YYYYMMDD).
// Time and zone suffixes such as "T140000Z" are ignored.
func ParseCompact(s string) (time.Time, bool) {
	if len(s) < 8 {
		return time.Time{}, false
	}
	for i := 0; i < 8; i++ {
		if s[i] < '0' || s[i] > '9' {
			return time.Time{}, false
		}
	}
	t, err := time.Parse("20060102", s[:8])
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Format renders t as YYYY-MM-DD.
func Format(t time.Time) string {
	return t.Format(Layout)
}

// AddDays moves t by n calendar days.
func AddDays(t time.Time, n int) time.Time {
	return Day(t).AddDate(0, 0, n)
}

// DaysBetween returns the number of calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	// Unix seconds rather than Sub, which saturates after about 292 years.
	return int((Day(b).Unix() - Day(a).Unix()) / 86400)
}

// WeekStart returns the Monday on or before t. Sunday is treated as day 7.
func WeekStart(t time.Time) time.Time {
	wd := int(t.Weekday())
	if wd == 0 {
		wd = 7
	}
	return AddDays(t, -(wd - 1))
}

// Span returns every day from a to b inclusive, in ascending order regardless
// of argument order.
func Span(a, b time.Time) []time.Time {
	a, b = Day(a), Day(b)
	if b.Before(a) {
		a, b = b, a
	}
	out := make([]time.Time, 0, DaysBetween(a, b)+1)
	for d := a; !d.After(b); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}
