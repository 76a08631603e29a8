// Package report builds daily and weekly check-out reports from merged
// occupancy.
package report

import (
	"slices"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/xaulosky/travel-suites-app/internal/dates"
	"github.com/xaulosky/travel-suites-app/internal/storage/models"
)

// CheckoutRecord is one departure on the report date.
type CheckoutRecord struct {
	Property     models.Property       `json:"property"`
	Event        models.CalendarEvent  `json:"event"`
	Nights       int                   `json:"nights"`
	NextBooking  *models.CalendarEvent `json:"next_booking,omitempty"`
	IsBackToBack bool                  `json:"is_back_to_back"`
}

type options struct {
	lang language.Tag
}

// Option configures report building.
type Option func(*options)

// WithLanguage sorts property names with the collation rules of tag.
func WithLanguage(tag language.Tag) Option {
	return func(o *options) { o.lang = tag }
}

func buildOptions(opts []Option) options {
	o := options{lang: language.Spanish}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// CheckoutsForDate returns every event of the given properties that ends on
// date, with its length and the property's next arrival. Records are sorted
// by property name.
func CheckoutsForDate(date time.Time, events []models.CalendarEvent, properties []models.Property, opts ...Option) []CheckoutRecord {
	return checkoutsForDate(dates.Day(date), byProperty(events), properties, buildOptions(opts))
}

func checkoutsForDate(date time.Time, events map[string][]models.CalendarEvent, properties []models.Property, o options) []CheckoutRecord {
	records := []CheckoutRecord{}

	for _, p := range properties {
		propertyEvents := events[p.ID]
		for _, e := range propertyEvents {
			if !dates.Day(e.End).Equal(date) {
				continue
			}

			rec := CheckoutRecord{
				Property: p,
				Event:    e,
				Nights:   max(1, dates.DaysBetween(e.Start, e.End)),
			}
			if next := nextBooking(date, propertyEvents); next != nil {
				rec.NextBooking = next
				rec.IsBackToBack = dates.Day(next.Start).Equal(date)
			}
			records = append(records, rec)
		}
	}

	c := collate.New(o.lang, collate.Loose)
	slices.SortStableFunc(records, func(a, b CheckoutRecord) int {
		return c.CompareString(a.Property.Name, b.Property.Name)
	})

	return records
}

// nextBooking returns the earliest event starting on or after date.
func nextBooking(date time.Time, events []models.CalendarEvent) *models.CalendarEvent {
	var next *models.CalendarEvent
	for i := range events {
		start := dates.Day(events[i].Start)
		if start.Before(date) {
			continue
		}
		if next == nil || start.Before(dates.Day(next.Start)) {
			e := events[i]
			next = &e
		}
	}
	return next
}

func byProperty(events []models.CalendarEvent) map[string][]models.CalendarEvent {
	out := make(map[string][]models.CalendarEvent)
	for _, e := range events {
		out[e.PropertyID] = append(out[e.PropertyID], e)
	}
	return out
}

// Summary condenses a daily report.
type Summary struct {
	Date       string   `json:"date"`
	Checkouts  int      `json:"checkouts"`
	BackToBack int      `json:"back_to_back"`
	Properties []string `json:"properties"`
}

// Summarize counts the check-outs and back-to-back turnovers of a report.
func Summarize(date time.Time, records []CheckoutRecord) Summary {
	s := Summary{Date: dates.Format(date), Checkouts: len(records), Properties: []string{}}
	for _, r := range records {
		if r.IsBackToBack {
			s.BackToBack++
		}
		s.Properties = append(s.Properties, r.Property.Name)
	}
	return s
}
