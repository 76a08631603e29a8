package calendar

import (
	"github.com/xaulosky/travel-suites-app/internal/storage/models"
)

// Merge concatenates the given event lists and drops later events whose UID
// was already seen. Events without a UID are always kept. Relative order is
// preserved.
func Merge(lists ...[]models.CalendarEvent) []models.CalendarEvent {
	n := 0
	for _, l := range lists {
		n += len(l)
	}

	merged := make([]models.CalendarEvent, 0, n)
	seen := make(map[string]struct{}, n)
	for _, l := range lists {
		for _, e := range l {
			if e.UID != "" {
				if _, dup := seen[e.UID]; dup {
					continue
				}
				seen[e.UID] = struct{}{}
			}
			merged = append(merged, e)
		}
	}
	return merged
}

// TagEvents returns a copy of events attributed to property p.
func TagEvents(events []models.CalendarEvent, p models.Property) []models.CalendarEvent {
	tagged := make([]models.CalendarEvent, len(events))
	for i, e := range events {
		e.PropertyID = p.ID
		e.PropertyName = p.Name
		tagged[i] = e
	}
	return tagged
}

// withSource stamps a feed's source on events that do not carry one.
func withSource(events []models.CalendarEvent, src models.Source) []models.CalendarEvent {
	for i := range events {
		if events[i].Source == "" {
			events[i].Source = src
		}
	}
	return events
}

// ForProperty filters events belonging to propertyID.
func ForProperty(events []models.CalendarEvent, propertyID string) []models.CalendarEvent {
	var out []models.CalendarEvent
	for _, e := range events {
		if e.PropertyID == propertyID {
			out = append(out, e)
		}
	}
	return out
}
