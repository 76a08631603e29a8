package report

import (
	"time"

	"github.com/xaulosky/travel-suites-app/internal/dates"
	"github.com/xaulosky/travel-suites-app/internal/storage/models"
)

var dayNames = [...]string{"Domingo", "Lunes", "Martes", "Miércoles", "Jueves", "Viernes", "Sábado"}

// DayName returns the Spanish weekday name of t.
func DayName(t time.Time) string {
	return dayNames[t.Weekday()]
}

// WeekStart returns the Monday on or before t.
func WeekStart(t time.Time) time.Time {
	return dates.WeekStart(t)
}

// Day is one day of a weekly report.
type Day struct {
	Date      string           `json:"date"`
	DayName   string           `json:"day_name"`
	Count     int              `json:"count"`
	Checkouts []CheckoutRecord `json:"checkouts"`
}

// Stats aggregates a weekly report. MaxDay is the first day with the highest
// count, empty when the week has no check-outs.
type Stats struct {
	Total    int     `json:"total"`
	Average  float64 `json:"average"`
	MaxDay   string  `json:"max_day,omitempty"`
	MaxDate  string  `json:"max_date,omitempty"`
	MaxCount int     `json:"max_count"`
	ZeroDays int     `json:"zero_days"`
}

// Week is the check-out report of seven consecutive days from a Monday.
type Week struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Days  []Day  `json:"days"`
	Stats Stats  `json:"stats"`
}

// WeeklyCheckouts runs the daily report for the week containing start.
func WeeklyCheckouts(start time.Time, events []models.CalendarEvent, properties []models.Property, opts ...Option) Week {
	monday := WeekStart(start)
	o := buildOptions(opts)
	indexed := byProperty(events)

	w := Week{
		Start: dates.Format(monday),
		End:   dates.Format(dates.AddDays(monday, 6)),
	}
	for i := 0; i < 7; i++ {
		d := dates.AddDays(monday, i)
		records := checkoutsForDate(d, indexed, properties, o)
		w.Days = append(w.Days, Day{
			Date:      dates.Format(d),
			DayName:   DayName(d),
			Count:     len(records),
			Checkouts: records,
		})
	}
	w.Stats = weekStats(w.Days)
	return w
}

func weekStats(days []Day) Stats {
	var s Stats
	for _, d := range days {
		s.Total += d.Count
		if d.Count == 0 {
			s.ZeroDays++
		}
		if d.Count > s.MaxCount {
			s.MaxCount = d.Count
			s.MaxDay = d.DayName
			s.MaxDate = d.Date
		}
	}
	if len(days) > 0 {
		s.Average = float64(s.Total) / float64(len(days))
	}
	return s
}
