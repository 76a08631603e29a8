package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	"github.com/xaulosky/travel-suites-app/internal/api/middleware"
	"github.com/xaulosky/travel-suites-app/internal/calendar"
	"github.com/xaulosky/travel-suites-app/internal/catalog"
	"github.com/xaulosky/travel-suites-app/internal/dates"
	"github.com/xaulosky/travel-suites-app/internal/storage/models"
)

func day(s string) time.Time {
	t, err := dates.Parse(s)
	if err != nil {
		panic(err)
	}
	return t
}

// fixedNow is 2025-06-02 (a Monday) at noon.
func fixedNow() time.Time {
	return time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
}

func olivo() models.Property {
	return models.Property{
		ID:        "sao-205",
		ProductID: 101,
		Name:      "Depto 205 Olivo",
		Address:   "Av. Olivo 205",
		Price:     50000,
		Capacity:  models.Capacity{Min: 1, Max: 2},
		Duration:  models.Duration{Min: 1},
	}
}

func nube() models.Property {
	return models.Property{ID: "nube-3", ProductID: 102, Name: "Nube 3", Price: 40000}
}

func bookedEvents() []models.CalendarEvent {
	return []models.CalendarEvent{
		{UID: "a", Summary: "Reserved", Start: day("2025-05-30"), End: day("2025-06-02"), PropertyID: "sao-205", PropertyName: "Depto 205 Olivo", Source: models.SourceAirbnb},
		{UID: "b", Summary: "Reserved", Start: day("2025-06-02"), End: day("2025-06-05"), PropertyID: "sao-205", PropertyName: "Depto 205 Olivo", Source: models.SourceBooking},
		{UID: "c", Summary: "Reserved", Start: day("2025-05-31"), End: day("2025-06-02"), PropertyID: "nube-3", PropertyName: "Nube 3", Source: models.SourceAirbnb},
	}
}

type fakeCatalog struct {
	props    []models.Property
	degraded bool
}

func (c *fakeCatalog) List(ctx context.Context) (*catalog.Listing, error) {
	return &catalog.Listing{Properties: c.props, Degraded: c.degraded, Source: catalog.SourceFallback}, nil
}

func (c *fakeCatalog) Property(ctx context.Context, id string) (*models.Property, error) {
	for _, p := range c.props {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, catalog.ErrNotFound
}

type fakeLoader struct {
	events []models.CalendarEvent
	failed int
}

func (l *fakeLoader) LoadProperty(ctx context.Context, p models.Property) (*calendar.PropertyLoad, error) {
	return &calendar.PropertyLoad{
		PropertyID: p.ID,
		Events:     calendar.ForProperty(l.events, p.ID),
		Sources:    2,
		Failed:     l.failed,
	}, nil
}

type fakeOccupancy struct {
	events []models.CalendarEvent
	failed int
}

func (o *fakeOccupancy) Events(ctx context.Context) (*calendar.LoadResult, error) {
	return &calendar.LoadResult{Events: o.events, Failed: o.failed}, nil
}

type fakeBookings struct {
	configured bool
	raw        json.RawMessage
	err        error
	events     []models.CalendarEvent
	endpoint   string
	params     url.Values
}

func (b *fakeBookings) Configured() bool { return b.configured }

func (b *fakeBookings) Raw(ctx context.Context, endpoint string, params url.Values) (json.RawMessage, error) {
	b.endpoint, b.params = endpoint, params
	return b.raw, b.err
}

func (b *fakeBookings) Events(ctx context.Context, properties []models.Property) ([]models.CalendarEvent, error) {
	return b.events, b.err
}

type fakeFetcher struct {
	body []byte
	err  error
	url  string
}

func (f *fakeFetcher) Get(ctx context.Context, u string) ([]byte, error) {
	f.url = u
	return f.body, f.err
}

type fakeTrigger struct {
	triggered int
	next      time.Time
}

func (t *fakeTrigger) TriggerSync() { t.triggered++ }

func (t *fakeTrigger) GetNextRun(name string) *time.Time {
	if t.next.IsZero() {
		return nil
	}
	return &t.next
}

// do runs h against a request with the given mux vars and JSON body.
func do(t *testing.T, h http.HandlerFunc, method, target string, vars map[string]string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	if vars != nil {
		req = mux.SetURLVars(req, vars)
	}
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[middleware.ErrorResponse](t, rec).Error
}
