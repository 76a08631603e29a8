package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"

	"github.com/xaulosky/travel-suites-app/internal/api/middleware"
	"github.com/xaulosky/travel-suites-app/internal/dates"
	"github.com/xaulosky/travel-suites-app/internal/report"
	"github.com/xaulosky/travel-suites-app/internal/storage/models"
	"github.com/xaulosky/travel-suites-app/internal/upstream"
)

// Report sources.
const (
	SourceCalendar = "calendar"
	SourceAPI      = "api"
)

// Reports serves the check-out reports.
type Reports struct {
	Catalog   Catalog
	Occupancy OccupancySource
	Bookings  BookingsAPI
	Now       Clock
	Language  language.Tag
}

// DailyReportResponse is the JSON form of a daily report.
type DailyReportResponse struct {
	Source    string                  `json:"source"`
	Degraded  bool                    `json:"degraded"`
	Summary   report.Summary          `json:"summary"`
	Checkouts []report.CheckoutRecord `json:"checkouts"`
}

// WeeklyReportResponse is the JSON form of a weekly report.
type WeeklyReportResponse struct {
	Source   string      `json:"source"`
	Degraded bool        `json:"degraded"`
	Week     report.Week `json:"week"`
}

// events gathers occupancy and properties from source. degraded is set when
// the catalog came from the fallback or some feeds failed.
func (h *Reports) events(ctx context.Context, source string) ([]models.CalendarEvent, []models.Property, bool, error) {
	listing, err := h.Catalog.List(ctx)
	if err != nil {
		return nil, nil, false, err
	}
	degraded := listing.Degraded

	switch source {
	case SourceAPI:
		if h.Bookings == nil || !h.Bookings.Configured() {
			return nil, nil, false, upstream.ErrNotConfigured
		}
		events, err := h.Bookings.Events(ctx, listing.Properties)
		if err != nil {
			return nil, nil, false, err
		}
		return events, listing.Properties, degraded, nil
	default:
		loaded, err := h.Occupancy.Events(ctx)
		if err != nil {
			return nil, nil, false, err
		}
		return loaded.Events, listing.Properties, degraded || loaded.Failed > 0, nil
	}
}

// parseReportQuery reads date, source and format. date defaults to today.
func (h *Reports) parseReportQuery(r *http.Request) (time.Time, string, string, error) {
	q := r.URL.Query()

	day := dates.Day(h.Now())
	if s := q.Get("date"); s != "" {
		d, err := dates.Parse(s)
		if err != nil {
			return time.Time{}, "", "", fmt.Errorf("date must be YYYY-MM-DD")
		}
		day = d
	}

	source := q.Get("source")
	switch source {
	case "":
		source = SourceCalendar
	case SourceCalendar, SourceAPI:
	default:
		return time.Time{}, "", "", fmt.Errorf("source must be calendar or api")
	}

	format := q.Get("format")
	switch format {
	case "":
		format = "json"
	case "json", "csv":
	default:
		return time.Time{}, "", "", fmt.Errorf("format must be json or csv")
	}
	return day, source, format, nil
}

// Daily returns the check-outs of ?date= (default today).
func (h *Reports) Daily(w http.ResponseWriter, r *http.Request) {
	day, source, format, err := h.parseReportQuery(r)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, err.Error())
		return
	}

	events, props, degraded, err := h.events(r.Context(), source)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	records := report.CheckoutsForDate(day, events, props, report.WithLanguage(h.Language))

	if format == "csv" {
		writeCSVHeaders(w, report.DailyFilename(dates.Format(day)))
		if err := report.WriteDailyCSV(w, records); err != nil {
			log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write daily report")
		}
		return
	}

	middleware.WriteJSON(w, http.StatusOK, DailyReportResponse{
		Source:    source,
		Degraded:  degraded,
		Summary:   report.Summarize(day, records),
		Checkouts: records,
	})
}

// Weekly returns the check-outs of the Monday-based week containing ?date=.
func (h *Reports) Weekly(w http.ResponseWriter, r *http.Request) {
	day, source, format, err := h.parseReportQuery(r)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, err.Error())
		return
	}

	events, props, degraded, err := h.events(r.Context(), source)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	week := report.WeeklyCheckouts(day, events, props, report.WithLanguage(h.Language))

	if format == "csv" {
		writeCSVHeaders(w, report.WeeklyFilename(week.Start))
		if err := report.WriteWeeklyCSV(w, week); err != nil {
			log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write weekly report")
		}
		return
	}

	middleware.WriteJSON(w, http.StatusOK, WeeklyReportResponse{Source: source, Degraded: degraded, Week: week})
}

func writeCSVHeaders(w http.ResponseWriter, filename string) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
}
