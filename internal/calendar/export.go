package calendar

import (
	"fmt"
	"io"
	"time"

	ics "github.com/emersion/go-ical"

	"github.com/xaulosky/travel-suites-app/internal/dates"
	"github.com/xaulosky/travel-suites-app/internal/storage/models"
)

const productID = "-//TravelSuites//Occupancy//ES"

// ExportICS writes events as an all-day VCALENDAR. Events without a UID get a
// synthetic one derived from property and dates.
func ExportICS(w io.Writer, name string, events []models.CalendarEvent) error {
	cal := ics.NewCalendar()
	cal.Props.SetText(ics.PropVersion, "2.0")
	cal.Props.SetText(ics.PropProductID, productID)
	if name != "" {
		cal.Props.SetText("X-WR-CALNAME", name)
	}

	stamp := time.Now().UTC()
	for i, e := range events {
		comp := ics.NewComponent(ics.CompEvent)

		uid := e.UID
		if uid == "" {
			uid = fmt.Sprintf("%s-%s-%s-%d@travelsuites", e.PropertyID,
				dates.Format(e.Start), dates.Format(e.End), i)
		}
		comp.Props.SetText(ics.PropUID, uid)
		comp.Props.SetDateTime(ics.PropDateTimeStamp, stamp)
		comp.Props.SetDate(ics.PropDateTimeStart, e.Start)
		comp.Props.SetDate(ics.PropDateTimeEnd, e.End)
		if e.Summary != "" {
			comp.Props.SetText(ics.PropSummary, e.Summary)
		}
		if e.Source != "" {
			comp.Props.SetText("X-TRAVELSUITES-SOURCE", string(e.Source))
		}

		cal.Children = append(cal.Children, comp)
	}

	if err := ics.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("encode ICS: %w", err)
	}
	return nil
}
