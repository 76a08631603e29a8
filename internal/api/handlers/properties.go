package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/xaulosky/travel-suites-app/internal/api/middleware"
	"github.com/xaulosky/travel-suites-app/internal/availability"
	"github.com/xaulosky/travel-suites-app/internal/calendar"
	"github.com/xaulosky/travel-suites-app/internal/dates"
	"github.com/xaulosky/travel-suites-app/internal/quote"
)

// ListProperties returns the catalog, flagged degraded when served from the
// fallback dataset.
func ListProperties(cat Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listing, err := cat.List(r.Context())
		if err != nil {
			writeErr(w, r, err)
			return
		}
		middleware.WriteJSON(w, http.StatusOK, listing)
	}
}

// GetProperty returns a single property by ID.
func GetProperty(cat Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := cat.Property(r.Context(), mux.Vars(r)["id"])
		if err != nil {
			writeErr(w, r, err)
			return
		}
		middleware.WriteJSON(w, http.StatusOK, p)
	}
}

// PropertyEvents returns the merged occupancy of a property and how many of
// its sources failed.
func PropertyEvents(cat Catalog, loader PropertyLoader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := cat.Property(r.Context(), mux.Vars(r)["id"])
		if err != nil {
			writeErr(w, r, err)
			return
		}
		pl, err := loader.LoadProperty(r.Context(), *p)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		middleware.WriteJSON(w, http.StatusOK, pl)
	}
}

// AvailabilityResponse is a month of a property's calendar.
type AvailabilityResponse struct {
	PropertyID string             `json:"property_id"`
	Month      availability.Month `json:"month"`
	Failed     int                `json:"failed_sources"`
}

// PropertyAvailability renders one month (?month=YYYY-MM, default the
// current month) of a property's calendar.
func PropertyAvailability(cat Catalog, loader PropertyLoader, now Clock) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		today := dates.Day(now())
		year, month := today.Year(), today.Month()
		if m := r.URL.Query().Get("month"); m != "" {
			t, err := time.Parse("2006-01", m)
			if err != nil {
				middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "month must be YYYY-MM")
				return
			}
			year, month = t.Year(), t.Month()
		}

		p, err := cat.Property(r.Context(), mux.Vars(r)["id"])
		if err != nil {
			writeErr(w, r, err)
			return
		}
		pl, err := loader.LoadProperty(r.Context(), *p)
		if err != nil {
			writeErr(w, r, err)
			return
		}

		ix := availability.NewIndex(pl.Events)
		middleware.WriteJSON(w, http.StatusOK, AvailabilityResponse{
			PropertyID: p.ID,
			Month:      ix.MonthView(year, month, today),
			Failed:     pl.Failed,
		})
	}
}

// PropertyCalendar exports the merged occupancy of a property as iCal.
func PropertyCalendar(cat Catalog, loader PropertyLoader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := cat.Property(r.Context(), mux.Vars(r)["id"])
		if err != nil {
			writeErr(w, r, err)
			return
		}
		pl, err := loader.LoadProperty(r.Context(), *p)
		if err != nil {
			writeErr(w, r, err)
			return
		}

		w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", p.ID+".ics"))
		if err := calendar.ExportICS(w, p.Name, pl.Events); err != nil {
			log.Ctx(r.Context()).Error().Err(err).Str("property_id", p.ID).Msg("Failed to export calendar")
		}
	}
}

// QuoteRequest asks for the price of a stay.
type QuoteRequest struct {
	Dates  []string `json:"dates"`
	Guests int      `json:"guests"`
}

// QuoteProperty prices a set of nights without touching any session.
func QuoteProperty(cat Catalog, formatter *quote.Formatter) http.HandlerFunc {
	if formatter == nil {
		formatter = quote.DefaultFormatter()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req QuoteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}
		if len(req.Dates) == 0 {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "At least one date is required")
			return
		}
		if req.Guests < 1 {
			req.Guests = 1
		}

		p, err := cat.Property(r.Context(), mux.Vars(r)["id"])
		if err != nil {
			writeErr(w, r, err)
			return
		}

		q, err := quote.Calculate(*p, req.Dates, req.Guests, quote.WithFormatter(formatter))
		if err != nil {
			writeErr(w, r, err)
			return
		}
		middleware.WriteJSON(w, http.StatusOK, q)
	}
}
