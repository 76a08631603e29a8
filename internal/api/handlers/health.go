// Package handlers provides HTTP request handlers for the API endpoints.
package handlers

import (
	"net/http"
	"time"

	"github.com/xaulosky/travel-suites-app/internal/api/middleware"
	"github.com/xaulosky/travel-suites-app/internal/calendar"
	"github.com/xaulosky/travel-suites-app/internal/dashboard"
	"github.com/xaulosky/travel-suites-app/internal/storage"
	"github.com/xaulosky/travel-suites-app/internal/storage/models"
	"github.com/xaulosky/travel-suites-app/internal/websocket"
)

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status      string `json:"status"`
	DBConnected bool   `json:"db_connected"`
	Version     string `json:"version,omitempty"`
}

// HealthCheck returns a handler that performs a health check.
func HealthCheck(db *storage.DB, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dbConnected := db.PingContext(r.Context()) == nil

		status := "healthy"
		code := http.StatusOK
		if !dbConnected {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}

		middleware.WriteJSON(w, code, HealthResponse{
			Status:      status,
			DBConnected: dbConnected,
			Version:     version,
		})
	}
}

// StatusResponse represents the system status response.
type StatusResponse struct {
	CacheEntries     int                        `json:"cache_entries"`
	Feeds            map[string]int             `json:"feeds"`
	ClientsConnected int                        `json:"clients_connected"`
	ActiveSessions   int                        `json:"active_sessions"`
	LastSync         *models.CalendarSyncResult `json:"last_sync,omitempty"`
	NextSyncAt       *time.Time                 `json:"next_sync_at,omitempty"`
	BookingsAPI      bool                       `json:"bookings_api_configured"`
}

// StatusDeps are the components reported by Status. Nil fields are skipped.
type StatusDeps struct {
	DB        *storage.DB
	Hub       *websocket.Hub
	Sync      *calendar.SyncService
	Scheduler SyncTrigger
	Sessions  *dashboard.Store
	Bookings  BookingsAPI
}

// Status returns a handler that provides system status information.
func Status(deps StatusDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		resp := StatusResponse{Feeds: map[string]int{}}

		if deps.DB != nil {
			if n, err := storage.NewCacheRepository(deps.DB).Count(ctx); err == nil {
				resp.CacheEntries = n
			}
			if counts, err := storage.NewFeedRepository(deps.DB).CountByStatus(ctx); err == nil {
				resp.Feeds = counts
			}
		}
		if deps.Hub != nil {
			resp.ClientsConnected = deps.Hub.ClientCount()
		}
		if deps.Sessions != nil {
			resp.ActiveSessions = deps.Sessions.Len()
		}
		if deps.Sync != nil {
			resp.LastSync = deps.Sync.LastResult()
		}
		if deps.Scheduler != nil {
			resp.NextSyncAt = deps.Scheduler.GetNextRun(calendar.JobCalendarRefresh)
		}
		if deps.Bookings != nil {
			resp.BookingsAPI = deps.Bookings.Configured()
		}

		middleware.WriteJSON(w, http.StatusOK, resp)
	}
}
