package dashboard

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xaulosky/travel-suites-app/internal/availability"
	"github.com/xaulosky/travel-suites-app/internal/storage/models"
)

func wait(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("load did not finish")
	}
}

func TestSessionLoadsInBackground(t *testing.T) {
	s := NewStore().Create()

	st, done := s.SelectProperty(context.Background(), testProperty("a"), func(ctx context.Context, p models.Property) ([]models.CalendarEvent, int, error) {
		return booked(), 0, nil
	})
	assert.True(t, st.Loading)

	wait(t, done)
	st = s.State()
	assert.False(t, st.Loading)
	assert.Len(t, st.Events, 1)

	st, err := s.Click(day("2025-06-03"), availability.ModeSingle, today)
	require.NoError(t, err)
	assert.NotNil(t, st.Quote)
}

func TestSessionCancelsPreviousLoad(t *testing.T) {
	s := NewStore().Create()

	started := make(chan struct{})
	var cancelled bool
	_, firstDone := s.SelectProperty(context.Background(), testProperty("a"), func(ctx context.Context, p models.Property) ([]models.CalendarEvent, int, error) {
		close(started)
		<-ctx.Done()
		cancelled = true
		return nil, 0, ctx.Err()
	})
	<-started

	_, secondDone := s.SelectProperty(context.Background(), testProperty("b"), func(ctx context.Context, p models.Property) ([]models.CalendarEvent, int, error) {
		return []models.CalendarEvent{{UID: "b", Start: day("2025-07-01"), End: day("2025-07-02")}}, 0, nil
	})

	wait(t, firstDone)
	wait(t, secondDone)

	assert.True(t, cancelled)
	st := s.State()
	assert.Equal(t, "b", st.PropertyID)
	require.Len(t, st.Events, 1)
	assert.Equal(t, "b", st.Events[0].UID)
	assert.Empty(t, st.LoadError)
}

func TestSessionDiscardsLateResult(t *testing.T) {
	s := NewStore().Create()

	release := make(chan struct{})
	_, firstDone := s.SelectProperty(context.Background(), testProperty("a"), func(ctx context.Context, p models.Property) ([]models.CalendarEvent, int, error) {
		// Ignores cancellation and answers late.
		<-release
		return booked(), 0, nil
	})

	_, secondDone := s.SelectProperty(context.Background(), testProperty("b"), func(ctx context.Context, p models.Property) ([]models.CalendarEvent, int, error) {
		return nil, 0, nil
	})
	wait(t, secondDone)

	close(release)
	wait(t, firstDone)

	st := s.State()
	assert.Equal(t, "b", st.PropertyID)
	assert.Empty(t, st.Events)
	assert.False(t, st.Loading)
}

func TestSessionRequestContextDoesNotCancelLoad(t *testing.T) {
	s := NewStore().Create()

	ctx, cancel := context.WithCancel(context.Background())
	release := make(chan struct{})
	_, done := s.SelectProperty(ctx, testProperty("a"), func(lctx context.Context, p models.Property) ([]models.CalendarEvent, int, error) {
		<-release
		return booked(), 0, lctx.Err()
	})
	cancel()
	close(release)
	wait(t, done)

	assert.Len(t, s.State().Events, 1)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestStoreLifecycle(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)}
	st := NewStore(WithIdleTimeout(time.Hour), WithClock(clock.Now))

	a := st.Create()
	b := st.Create()
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, 2, st.Len())

	got, err := st.Get(a.ID)
	require.NoError(t, err)
	assert.Same(t, a, got)

	_, err = st.Get("missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	clock.Advance(45 * time.Minute)
	_, err = st.Get(a.ID)
	require.NoError(t, err)

	clock.Advance(30 * time.Minute)
	assert.Equal(t, 1, st.Expire())
	_, err = st.Get(b.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	st.Delete(a.ID)
	assert.Zero(t, st.Len())
}

func TestStoreCloseCancelsLoads(t *testing.T) {
	st := NewStore()
	s := st.Create()

	started := make(chan struct{})
	_, done := s.SelectProperty(context.Background(), testProperty("a"), func(ctx context.Context, p models.Property) ([]models.CalendarEvent, int, error) {
		close(started)
		<-ctx.Done()
		return nil, 0, ctx.Err()
	})
	<-started

	st.Close()
	wait(t, done)
	assert.Zero(t, st.Len())
	assert.True(t, s.State().Loading, "a cancelled load leaves no result behind")
}
