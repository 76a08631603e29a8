package handlers

import (
	"net/http"
	"time"

	"github.com/xaulosky/travel-suites-app/internal/api/middleware"
	"github.com/xaulosky/travel-suites-app/internal/calendar"
	"github.com/xaulosky/travel-suites-app/internal/storage/models"
)

// ListCalendars returns the last sync outcome of every external feed.
func ListCalendars(feeds FeedLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := feeds.List(r.Context())
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query calendars")
			return
		}
		if list == nil {
			list = []models.FeedStatus{}
		}
		middleware.WriteJSON(w, http.StatusOK, list)
	}
}

// SyncResponse acknowledges a sync request.
type SyncResponse struct {
	Status     string     `json:"status"`
	NextSyncAt *time.Time `json:"next_sync_at,omitempty"`
}

// SyncCalendars triggers an immediate refresh of every calendar. Progress is
// reported over the WebSocket.
func SyncCalendars(scheduler SyncTrigger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scheduler.TriggerSync()
		middleware.WriteJSON(w, http.StatusAccepted, SyncResponse{
			Status:     "started",
			NextSyncAt: scheduler.GetNextRun(calendar.JobCalendarRefresh),
		})
	}
}
