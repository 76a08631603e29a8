package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/xaulosky/travel-suites-app/internal/api/middleware"
	"github.com/xaulosky/travel-suites-app/internal/availability"
	"github.com/xaulosky/travel-suites-app/internal/dashboard"
	"github.com/xaulosky/travel-suites-app/internal/dates"
)

// SessionResponse is a session and its current state.
type SessionResponse struct {
	ID    string          `json:"id"`
	State dashboard.State `json:"state"`
}

// CreateSession starts an empty dashboard session.
func CreateSession(store *dashboard.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := store.Create()
		middleware.WriteJSON(w, http.StatusCreated, SessionResponse{ID: s.ID, State: s.State()})
	}
}

// GetSession returns a session's current state.
func GetSession(store *dashboard.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := store.Get(mux.Vars(r)["id"])
		if err != nil {
			writeErr(w, r, err)
			return
		}
		middleware.WriteJSON(w, http.StatusOK, SessionResponse{ID: s.ID, State: s.State()})
	}
}

// DeleteSession ends a session.
func DeleteSession(store *dashboard.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store.Delete(mux.Vars(r)["id"])
		w.WriteHeader(http.StatusNoContent)
	}
}

// SelectPropertyRequest switches a session to another property.
type SelectPropertyRequest struct {
	PropertyID string `json:"property_id"`
	// Async returns immediately with loading=true instead of waiting for
	// the occupancy.
	Async bool `json:"async"`
}

// SelectSessionProperty switches the session's property and loads its
// occupancy. A load still running for the previous property is cancelled.
func SelectSessionProperty(store *dashboard.Store, cat Catalog, loader PropertyLoader) http.HandlerFunc {
	load := loadFunc(loader)

	return func(w http.ResponseWriter, r *http.Request) {
		s, err := store.Get(mux.Vars(r)["id"])
		if err != nil {
			writeErr(w, r, err)
			return
		}

		var req SelectPropertyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PropertyID == "" {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "property_id is required")
			return
		}

		p, err := cat.Property(r.Context(), req.PropertyID)
		if err != nil {
			writeErr(w, r, err)
			return
		}

		state, done := s.SelectProperty(r.Context(), *p, load)
		if !req.Async {
			select {
			case <-done:
				state = s.State()
			case <-r.Context().Done():
				return
			}
		}
		middleware.WriteJSON(w, http.StatusOK, SessionResponse{ID: s.ID, State: state})
	}
}

// ClickRequest is one click on the calendar.
type ClickRequest struct {
	Date string `json:"date"`
	Mode string `json:"mode"`
}

// SessionClick applies a date click. A click that would select a past or
// occupied day is rejected with 422 and leaves the selection unchanged.
func SessionClick(store *dashboard.Store, now Clock) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := store.Get(mux.Vars(r)["id"])
		if err != nil {
			writeErr(w, r, err)
			return
		}

		var req ClickRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}
		day, err := dates.Parse(req.Date)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "date must be YYYY-MM-DD")
			return
		}
		mode, err := availability.ParseMode(req.Mode)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, err.Error())
			return
		}

		state, err := s.Click(day, mode, dates.Day(now()))
		if err != nil {
			writeErr(w, r, err)
			return
		}
		middleware.WriteJSON(w, http.StatusOK, SessionResponse{ID: s.ID, State: state})
	}
}

// ClearSessionSelection drops the session's selected days.
func ClearSessionSelection(store *dashboard.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := store.Get(mux.Vars(r)["id"])
		if err != nil {
			writeErr(w, r, err)
			return
		}
		middleware.WriteJSON(w, http.StatusOK, SessionResponse{ID: s.ID, State: s.ClearSelection()})
	}
}

// GuestsRequest sets the guest count.
type GuestsRequest struct {
	Guests int `json:"guests"`
}

// SetSessionGuests changes the guest count and reprices the selection.
func SetSessionGuests(store *dashboard.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := store.Get(mux.Vars(r)["id"])
		if err != nil {
			writeErr(w, r, err)
			return
		}

		var req GuestsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}

		state, err := s.SetGuests(req.Guests)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		middleware.WriteJSON(w, http.StatusOK, SessionResponse{ID: s.ID, State: state})
	}
}
