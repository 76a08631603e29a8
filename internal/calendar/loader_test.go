package calendar

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xaulosky/travel-suites-app/internal/cache"
	"github.com/xaulosky/travel-suites-app/internal/storage"
	"github.com/xaulosky/travel-suites-app/internal/storage/models"
	"github.com/xaulosky/travel-suites-app/internal/upstream"
)

type fakeFetcher struct {
	mu       sync.Mutex
	bodies   map[string]string
	errs     map[string]error
	delays   map[string]time.Duration
	calls    int
	inFlight int
	maxSeen  int
}

func (f *fakeFetcher) Get(ctx context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	f.calls++
	f.inFlight++
	if f.inFlight > f.maxSeen {
		f.maxSeen = f.inFlight
	}
	delay := f.delays[url]
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := f.errs[url]; err != nil {
		return nil, err
	}
	return []byte(f.bodies[url]), nil
}

func feed(uid, start, end string) string {
	return fmt.Sprintf("BEGIN:VCALENDAR\nBEGIN:VEVENT\nUID:%s\nDTSTART;VALUE=DATE:%s\nDTEND;VALUE=DATE:%s\nSUMMARY:Reserved\nEND:VEVENT\nEND:VCALENDAR\n",
		uid, start, end)
}

func property(id string, feeds map[models.Source]string) models.Property {
	return models.Property{ID: id, Name: "Depto " + id, ExternalCalendars: feeds}
}

type recorder struct {
	mu       sync.Mutex
	statuses []models.FeedStatus
}

func (r *recorder) RecordFeedStatus(_ context.Context, fs models.FeedStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, fs)
	return nil
}

func TestLoadPropertyMergesFeedsAndTags(t *testing.T) {
	f := &fakeFetcher{bodies: map[string]string{
		"https://airbnb/1.ics":  feed("a", "20250110", "20250113"),
		"https://booking/1.ics": feed("b", "20250115", "20250118"),
	}}
	rec := &recorder{}
	l := NewLoader(f, WithStatusRecorder(rec))

	pl, err := l.LoadProperty(context.Background(), property("sao-205", map[models.Source]string{
		models.SourceAirbnb:  "https://airbnb/1.ics",
		models.SourceBooking: "https://booking/1.ics",
	}))
	require.NoError(t, err)

	assert.Equal(t, 2, pl.Sources)
	assert.Zero(t, pl.Failed)
	require.Len(t, pl.Events, 2)
	assert.Equal(t, models.SourceAirbnb, pl.Events[0].Source)
	assert.Equal(t, models.SourceBooking, pl.Events[1].Source)
	for _, e := range pl.Events {
		assert.Equal(t, "sao-205", e.PropertyID)
		assert.Equal(t, "Depto sao-205", e.PropertyName)
	}
	assert.Len(t, rec.statuses, 2)
}

func TestLoadPropertyToleratesPartialFailure(t *testing.T) {
	f := &fakeFetcher{
		bodies: map[string]string{"https://airbnb/1.ics": feed("a", "20250110", "20250113")},
		errs: map[string]error{
			"https://booking/1.ics?token=secret": &upstream.Error{Kind: upstream.KindTimeout, Source: "ical"},
		},
	}
	l := NewLoader(f)

	pl, err := l.LoadProperty(context.Background(), property("sao-205", map[models.Source]string{
		models.SourceAirbnb:  "https://airbnb/1.ics",
		models.SourceBooking: "https://booking/1.ics?token=secret",
	}))
	require.NoError(t, err)

	assert.Len(t, pl.Events, 1)
	assert.Equal(t, 1, pl.Failed)
	require.Len(t, pl.Errors, 1)
	assert.Equal(t, upstream.KindTimeout, pl.Errors[0].Kind)
	assert.Equal(t, models.SourceBooking, pl.Errors[0].Source)
	assert.NotContains(t, pl.Errors[0].URL, "secret")
}

type fakeBookings struct {
	events []models.CalendarEvent
	err    error
}

func (b fakeBookings) PropertyEvents(context.Context, models.Property) ([]models.CalendarEvent, error) {
	return b.events, b.err
}

func TestLoadPropertyIncludesBookingsAPI(t *testing.T) {
	f := &fakeFetcher{bodies: map[string]string{"https://airbnb/1.ics": feed("a", "20250110", "20250113")}}
	l := NewLoader(f, WithBookings(fakeBookings{events: []models.CalendarEvent{
		{Start: day("2025-02-01"), End: day("2025-02-04"), Summary: "Juan"},
	}}))

	pl, err := l.LoadProperty(context.Background(), property("sao-205", map[models.Source]string{
		models.SourceAirbnb: "https://airbnb/1.ics",
	}))
	require.NoError(t, err)
	require.Len(t, pl.Events, 2)
	assert.Equal(t, models.SourceTravelSuites, pl.Events[1].Source)
	assert.Equal(t, 2, pl.Sources)

	l = NewLoader(f, WithBookings(fakeBookings{err: errors.New("unauthorized")}))
	pl, err = l.LoadProperty(context.Background(), property("sao-205", map[models.Source]string{
		models.SourceAirbnb: "https://airbnb/1.ics",
	}))
	require.NoError(t, err)
	assert.Len(t, pl.Events, 1)
	assert.Equal(t, 1, pl.Failed)
}

func TestLoadAllBoundsConcurrencyAndKeepsOrder(t *testing.T) {
	f := &fakeFetcher{bodies: map[string]string{}, delays: map[string]time.Duration{}}
	var props []models.Property
	for i := 0; i < 12; i++ {
		url := fmt.Sprintf("https://airbnb/%d.ics", i)
		f.bodies[url] = feed(fmt.Sprintf("uid-%d", i), "20250110", "20250113")
		// Later properties finish first.
		f.delays[url] = time.Duration(12-i) * 3 * time.Millisecond
		props = append(props, property(fmt.Sprintf("p%02d", i), map[models.Source]string{models.SourceAirbnb: url}))
	}

	res, err := NewLoader(f).LoadAll(context.Background(), props)
	require.NoError(t, err)

	assert.LessOrEqual(t, f.maxSeen, DefaultBatchSize)
	assert.Equal(t, 12, res.Loaded)
	assert.Zero(t, res.Failed)
	require.Len(t, res.Properties, 12)
	for i, pl := range res.Properties {
		assert.Equal(t, props[i].ID, pl.PropertyID)
	}
	require.Len(t, res.Events, 12)
	assert.Equal(t, "p00", res.Events[0].PropertyID)
}

func TestLoadAllCountsFailures(t *testing.T) {
	f := &fakeFetcher{
		bodies: map[string]string{"https://ok.ics": feed("a", "20250110", "20250113")},
		errs:   map[string]error{"https://down.ics": &upstream.Error{Kind: upstream.KindStatus, Status: 503, Source: "ical"}},
	}
	props := []models.Property{
		property("ok", map[models.Source]string{models.SourceAirbnb: "https://ok.ics"}),
		property("down", map[models.Source]string{models.SourceAirbnb: "https://down.ics"}),
		property("none", nil),
	}

	res, err := NewLoader(f).LoadAll(context.Background(), props)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Loaded, "a property without sources is not loaded")
	assert.Equal(t, 1, res.Failed)
	assert.Len(t, res.Events, 1)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "down", res.Errors[0].PropertyID)
}

func TestLoadAllKeepsSharedUIDPerProperty(t *testing.T) {
	f := &fakeFetcher{bodies: map[string]string{"https://airbnb/shared.ics": feed("shared-1", "20250110", "20250113")}}
	props := []models.Property{
		property("a", map[models.Source]string{models.SourceAirbnb: "https://airbnb/shared.ics"}),
		property("b", map[models.Source]string{models.SourceAirbnb: "https://airbnb/shared.ics"}),
	}

	res, err := NewLoader(f).LoadAll(context.Background(), props)
	require.NoError(t, err)
	require.Len(t, res.Events, 2)
	assert.Equal(t, "a", res.Events[0].PropertyID)
	assert.Equal(t, "b", res.Events[1].PropertyID)
	assert.Equal(t, 2, res.Loaded)
}

func TestLoadAllStopsWhenCancelled(t *testing.T) {
	f := &fakeFetcher{bodies: map[string]string{}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewLoader(f).LoadAll(ctx, []models.Property{property("a", nil)})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, f.calls)
}

func TestLoadPropertyUsesCache(t *testing.T) {
	db, err := storage.Open(t.TempDir())
	require.NoError(t, err)
	defer db.Close()
	store := cache.New(storage.NewCacheRepository(db))

	f := &fakeFetcher{bodies: map[string]string{"https://airbnb/1.ics": feed("a", "20250110", "20250113")}}
	l := NewLoader(f, WithCache(store, 30*time.Minute))
	p := property("sao-205", map[models.Source]string{models.SourceAirbnb: "https://airbnb/1.ics"})

	first, err := l.LoadProperty(context.Background(), p)
	require.NoError(t, err)
	second, err := l.LoadProperty(context.Background(), p)
	require.NoError(t, err)

	assert.Equal(t, 1, f.calls)
	require.Len(t, second.Events, 1)
	assert.True(t, first.Events[0].Start.Equal(second.Events[0].Start))

	require.NoError(t, l.Invalidate(context.Background()))
	_, err = l.LoadProperty(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, 2, f.calls)
}
