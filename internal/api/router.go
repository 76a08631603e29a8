// Package api provides HTTP routing and handlers for the REST API.
package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/text/language"

	"github.com/xaulosky/travel-suites-app/internal/api/handlers"
	"github.com/xaulosky/travel-suites-app/internal/api/middleware"
	"github.com/xaulosky/travel-suites-app/internal/calendar"
	"github.com/xaulosky/travel-suites-app/internal/dashboard"
	"github.com/xaulosky/travel-suites-app/internal/quote"
	"github.com/xaulosky/travel-suites-app/internal/storage"
	"github.com/xaulosky/travel-suites-app/internal/websocket"
)

// Services are the components the routes are wired to.
type Services struct {
	DB        *storage.DB
	Hub       *websocket.Hub
	Catalog   handlers.Catalog
	Loader    handlers.PropertyLoader
	Sync      *calendar.SyncService
	Scheduler handlers.SyncTrigger
	Feeds     handlers.FeedLister
	Fetcher   calendar.Fetcher
	Bookings  handlers.BookingsAPI
	Orders    handlers.OrderCreator
	Sessions  *dashboard.Store

	Formatter   *quote.Formatter
	Language    language.Tag
	PhoneRegion string
	Now         handlers.Clock
	StaticDir   string
	Version     string
}

// NewRouter creates and configures the HTTP router with all API routes.
func NewRouter(s Services) *mux.Router {
	if s.Now == nil {
		s.Now = time.Now
	}
	events := websocket.NewEventBroadcaster(s.Hub)

	r := mux.NewRouter()

	// Apply global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(middleware.ErrorRecovery)

	// Routes live on the root router: subrouters inherit the /api prefix
	// matcher, which hides method mismatches and turns 405s into 404s.
	r.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)
	r.NotFoundHandler = http.HandlerFunc(notFound)

	// Health and status endpoints
	r.HandleFunc("/api/health", handlers.HealthCheck(s.DB, s.Version)).Methods("GET")
	r.HandleFunc("/api/status", handlers.Status(handlers.StatusDeps{
		DB:        s.DB,
		Hub:       s.Hub,
		Sync:      s.Sync,
		Scheduler: s.Scheduler,
		Sessions:  s.Sessions,
		Bookings:  s.Bookings,
	})).Methods("GET")

	// WebSocket endpoint
	r.HandleFunc("/api/ws", handlers.WebSocketUpgrade(s.Hub)).Methods("GET")

	// Property endpoints
	r.HandleFunc("/api/properties", handlers.ListProperties(s.Catalog)).Methods("GET")
	r.HandleFunc("/api/properties/{id}", handlers.GetProperty(s.Catalog)).Methods("GET")
	r.HandleFunc("/api/properties/{id}/events", handlers.PropertyEvents(s.Catalog, s.Loader)).Methods("GET")
	r.HandleFunc("/api/properties/{id}/availability", handlers.PropertyAvailability(s.Catalog, s.Loader, s.Now)).Methods("GET")
	r.HandleFunc("/api/properties/{id}/calendar.ics", handlers.PropertyCalendar(s.Catalog, s.Loader)).Methods("GET")
	r.HandleFunc("/api/properties/{id}/quote", handlers.QuoteProperty(s.Catalog, s.Formatter)).Methods("POST")

	// Calendar endpoints
	r.HandleFunc("/api/calendars", handlers.ListCalendars(s.Feeds)).Methods("GET")
	r.HandleFunc("/api/calendars/sync", handlers.SyncCalendars(s.Scheduler)).Methods("POST")
	r.HandleFunc("/api/ical-proxy", handlers.ICalProxy(s.Fetcher)).Methods("GET")

	// Session endpoints
	r.HandleFunc("/api/sessions", handlers.CreateSession(s.Sessions)).Methods("POST")
	r.HandleFunc("/api/sessions/{id}", handlers.GetSession(s.Sessions)).Methods("GET")
	r.HandleFunc("/api/sessions/{id}", handlers.DeleteSession(s.Sessions)).Methods("DELETE")
	r.HandleFunc("/api/sessions/{id}/property", handlers.SelectSessionProperty(s.Sessions, s.Catalog, s.Loader)).Methods("PUT")
	r.HandleFunc("/api/sessions/{id}/clicks", handlers.SessionClick(s.Sessions, s.Now)).Methods("POST")
	r.HandleFunc("/api/sessions/{id}/selection", handlers.ClearSessionSelection(s.Sessions)).Methods("DELETE")
	r.HandleFunc("/api/sessions/{id}/guests", handlers.SetSessionGuests(s.Sessions)).Methods("PUT")

	// Orders
	r.HandleFunc("/api/orders", handlers.CreateOrder(s.Sessions, s.Orders, events, s.PhoneRegion)).Methods("POST")

	// Reports
	reports := &handlers.Reports{
		Catalog:   s.Catalog,
		Occupancy: s.Sync,
		Bookings:  s.Bookings,
		Now:       s.Now,
		Language:  s.Language,
	}
	r.HandleFunc("/api/reports/checkouts", reports.Daily).Methods("GET")
	r.HandleFunc("/api/reports/checkouts/weekly", reports.Weekly).Methods("GET")

	// Bookings API pass-through
	r.HandleFunc("/api/bookings", handlers.Bookings(s.Bookings)).Methods("GET")

	// Serve static frontend files
	if s.StaticDir != "" {
		r.PathPrefix("/").Methods("GET", "HEAD").Handler(http.FileServer(http.Dir(s.StaticDir)))
	}

	return r
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	middleware.WriteError(w, http.StatusMethodNotAllowed, middleware.ErrMethodNotAllowed,
		r.Method+" is not supported on "+r.URL.Path)
}

func notFound(w http.ResponseWriter, r *http.Request) {
	middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "No route for "+r.URL.Path)
}
