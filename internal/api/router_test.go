package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xaulosky/travel-suites-app/internal/api/middleware"
	"github.com/xaulosky/travel-suites-app/internal/cache"
	"github.com/xaulosky/travel-suites-app/internal/calendar"
	"github.com/xaulosky/travel-suites-app/internal/catalog"
	"github.com/xaulosky/travel-suites-app/internal/dashboard"
	"github.com/xaulosky/travel-suites-app/internal/storage"
	"github.com/xaulosky/travel-suites-app/internal/websocket"
)

type offlineFetcher struct{}

func (offlineFetcher) Get(ctx context.Context, url string) ([]byte, error) {
	return nil, errors.New("offline")
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	db, err := storage.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := cache.New(storage.NewCacheRepository(db))
	cat := catalog.NewService(catalog.NewClient(catalog.Credentials{}, time.Second), store, time.Minute)
	loader := calendar.NewLoader(offlineFetcher{}, calendar.WithStatusRecorder(storage.NewFeedRepository(db)))

	return NewRouter(Services{
		DB:       db,
		Hub:      websocket.NewHub(),
		Catalog:  cat,
		Loader:   loader,
		Sync:     calendar.NewSyncService(loader, cat),
		Feeds:    storage.NewFeedRepository(db),
		Fetcher:  offlineFetcher{},
		Sessions: dashboard.NewStore(),
		Now:      func() time.Time { return time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC) },
		Version:  "test",
	})
}

func serve(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestRouterHealth(t *testing.T) {
	r := newTestRouter(t)

	rec := serve(t, r, http.MethodGet, "/api/health")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(middleware.HeaderRequestID))
	assert.JSONEq(t, `{"status":"healthy","db_connected":true,"version":"test"}`, rec.Body.String())
}

func TestRouterPropertiesFallBackWithoutCredentials(t *testing.T) {
	r := newTestRouter(t)

	rec := serve(t, r, http.MethodGet, "/api/properties")
	require.Equal(t, http.StatusOK, rec.Code)

	var listing catalog.Listing
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listing))
	assert.True(t, listing.Degraded)
	assert.Equal(t, catalog.SourceFallback, listing.Source)
	assert.NotEmpty(t, listing.Properties)

	rec = serve(t, r, http.MethodGet, "/api/properties/does-not-exist")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouterMethodsAndSessions(t *testing.T) {
	r := newTestRouter(t)

	rec := serve(t, r, http.MethodDelete, "/api/properties")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error":"method_not_allowed"`)

	// A mismatch on an earlier route must survive the routes registered after it.
	rec = serve(t, r, http.MethodPatch, "/api/sessions/abc")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = serve(t, r, http.MethodGet, "/api/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error":"not_found"`)

	rec = serve(t, r, http.MethodPost, "/api/sessions")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = serve(t, r, http.MethodGet, "/api/status")
	require.Equal(t, http.StatusOK, rec.Code)
	var status struct {
		ActiveSessions int  `json:"active_sessions"`
		BookingsAPI    bool `json:"bookings_api_configured"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, 1, status.ActiveSessions)
	assert.False(t, status.BookingsAPI)
}
