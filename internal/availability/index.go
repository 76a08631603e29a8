// Package availability answers whether a property is free on a given day and
// models the date-selection state of the booking calendar.
package availability

import (
	"time"

	"github.com/xaulosky/travel-suites-app/internal/dates"
	"github.com/xaulosky/travel-suites-app/internal/storage/models"
)

// IsOccupied reports whether some event covers day d, using the half-open
// interval start <= d < end. Only calendar dates are compared.
func IsOccupied(d time.Time, events []models.CalendarEvent) bool {
	d = dates.Day(d)
	for _, e := range events {
		if !d.Before(dates.Day(e.Start)) && d.Before(dates.Day(e.End)) {
			return true
		}
	}
	return false
}

// Index is a precomputed set of occupied days for one property.
type Index struct {
	occupied map[time.Time]struct{}
}

// NewIndex builds an index over events.
func NewIndex(events []models.CalendarEvent) *Index {
	ix := &Index{occupied: make(map[time.Time]struct{})}
	for _, e := range events {
		start, end := dates.Day(e.Start), dates.Day(e.End)
		for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
			ix.occupied[d] = struct{}{}
		}
	}
	return ix
}

// Occupied reports whether d is taken.
func (ix *Index) Occupied(d time.Time) bool {
	_, ok := ix.occupied[dates.Day(d)]
	return ok
}

// Past reports whether d is before today.
func (ix *Index) Past(d, today time.Time) bool {
	return dates.Day(d).Before(dates.Day(today))
}

// Selectable reports whether d may enter a selection.
func (ix *Index) Selectable(d, today time.Time) bool {
	return !ix.Past(d, today) && !ix.Occupied(d)
}

// Day is one cell of a month view.
type Day struct {
	Date       string       `json:"date"`
	Weekday    time.Weekday `json:"weekday"`
	Occupied   bool         `json:"occupied"`
	Past       bool         `json:"past"`
	Today      bool         `json:"today"`
	Selectable bool         `json:"selectable"`
}

// Month is the availability of every day of a calendar month.
type Month struct {
	Year          int     `json:"year"`
	Month         int     `json:"month"`
	Days          []Day   `json:"days"`
	OccupiedDays  int     `json:"occupied_days"`
	FreeDays      int     `json:"free_days"`
	OccupancyRate float64 `json:"occupancy_rate"`
}

// MonthView returns the availability of every day in the given month.
func (ix *Index) MonthView(year int, month time.Month, today time.Time) Month {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	next := first.AddDate(0, 1, 0)
	today = dates.Day(today)

	m := Month{Year: year, Month: int(month)}
	for d := first; d.Before(next); d = d.AddDate(0, 0, 1) {
		day := Day{
			Date:     dates.Format(d),
			Weekday:  d.Weekday(),
			Occupied: ix.Occupied(d),
			Past:     ix.Past(d, today),
			Today:    d.Equal(today),
		}
		day.Selectable = !day.Occupied && !day.Past
		if day.Occupied {
			m.OccupiedDays++
		} else {
			m.FreeDays++
		}
		m.Days = append(m.Days, day)
	}
	if n := len(m.Days); n > 0 {
		m.OccupancyRate = float64(m.OccupiedDays) / float64(n) * 100
	}
	return m
}
