package calendar

import (
	"bytes"
	"context"
	"errors"
	"slices"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/xaulosky/travel-suites-app/internal/cache"
	"github.com/xaulosky/travel-suites-app/internal/storage/models"
	"github.com/xaulosky/travel-suites-app/internal/upstream"
)

// DefaultBatchSize bounds how many properties are loaded concurrently.
const DefaultBatchSize = 5

// Fetcher downloads raw iCal text. *upstream.Client satisfies it.
type Fetcher interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// BookingSource supplies occupancy from the bookings API for one property.
type BookingSource interface {
	PropertyEvents(ctx context.Context, p models.Property) ([]models.CalendarEvent, error)
}

// StatusRecorder persists the outcome of each feed fetch.
type StatusRecorder interface {
	RecordFeedStatus(ctx context.Context, fs models.FeedStatus) error
}

// FeedError describes one failed source of a property load.
type FeedError struct {
	PropertyID string        `json:"property_id"`
	Source     models.Source `json:"source"`
	URL        string        `json:"url,omitempty"`
	Kind       upstream.Kind `json:"kind,omitempty"`
	Message    string        `json:"message"`
}

// PropertyLoad is the merged occupancy of one property.
type PropertyLoad struct {
	PropertyID string                 `json:"property_id"`
	Events     []models.CalendarEvent `json:"events"`
	Sources    int                    `json:"sources"`
	Failed     int                    `json:"failed"`
	Errors     []FeedError            `json:"errors,omitempty"`
}

// LoadResult aggregates a multi-property load.
type LoadResult struct {
	Events     []models.CalendarEvent `json:"events"`
	Properties []PropertyLoad         `json:"properties"`
	Loaded     int                    `json:"loaded"`
	Failed     int                    `json:"failed"`
	Errors     []FeedError            `json:"errors,omitempty"`
}

// Loader fetches and merges the calendars of properties.
type Loader struct {
	fetcher   Fetcher
	bookings  BookingSource
	store     *cache.Store
	ttl       time.Duration
	recorder  StatusRecorder
	batchSize int
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithBookings adds the bookings API as an extra source per property.
func WithBookings(b BookingSource) LoaderOption {
	return func(l *Loader) { l.bookings = b }
}

// WithCache caches fully successful property loads for ttl.
func WithCache(store *cache.Store, ttl time.Duration) LoaderOption {
	return func(l *Loader) {
		l.store = store
		l.ttl = ttl
	}
}

// WithStatusRecorder records each feed outcome.
func WithStatusRecorder(r StatusRecorder) LoaderOption {
	return func(l *Loader) { l.recorder = r }
}

// WithBatchSize overrides the wave size.
func WithBatchSize(n int) LoaderOption {
	return func(l *Loader) {
		if n > 0 {
			l.batchSize = n
		}
	}
}

// NewLoader creates a loader that downloads feeds through fetcher.
func NewLoader(fetcher Fetcher, opts ...LoaderOption) *Loader {
	l := &Loader{fetcher: fetcher, batchSize: DefaultBatchSize}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoadAll loads every property in sequential waves of at most batchSize
// concurrent property loads. Each property's result lands in its own slot, so
// the output order follows the input regardless of completion order. Source
// failures are counted, not returned; only cancellation aborts the load.
func (l *Loader) LoadAll(ctx context.Context, properties []models.Property) (*LoadResult, error) {
	loads := make([]*PropertyLoad, len(properties))

	for start := 0; start < len(properties); start += l.batchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := min(start+l.batchSize, len(properties))

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(l.batchSize)
		for i := start; i < end; i++ {
			g.Go(func() error {
				pl, err := l.LoadProperty(gctx, properties[i])
				if err != nil {
					return err
				}
				loads[i] = pl
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		log.Debug().Int("from", start).Int("to", end).Msg("Calendar wave completed")
	}

	result := &LoadResult{}
	lists := make([][]models.CalendarEvent, 0, len(loads))
	for _, pl := range loads {
		result.Properties = append(result.Properties, *pl)
		lists = append(lists, pl.Events)
		result.Failed += pl.Failed
		result.Errors = append(result.Errors, pl.Errors...)
		if pl.Sources > 0 && pl.Failed < pl.Sources {
			result.Loaded++
		}
	}
	// Each list is already de-duplicated; a UID shared by two properties
	// must stay in both.
	result.Events = slices.Concat(lists...)

	return result, nil
}

// LoadProperty fetches all sources of p concurrently and returns their
// merged, tagged events. A failed source contributes nothing and is counted.
// The returned error is non-nil only when ctx is done.
func (l *Loader) LoadProperty(ctx context.Context, p models.Property) (*PropertyLoad, error) {
	if l.store != nil {
		var cached PropertyLoad
		if ok, err := l.store.Get(ctx, cache.CalendarKey(p.ID), l.ttl, &cached); err == nil && ok {
			return &cached, nil
		}
	}

	feeds := p.Feeds()
	sources := len(feeds)
	if l.bookings != nil {
		sources++
	}

	lists := make([][]models.CalendarEvent, sources)
	errs := make([]*FeedError, sources)

	var g errgroup.Group
	for i, feed := range feeds {
		g.Go(func() error {
			lists[i], errs[i] = l.fetchFeed(ctx, p, feed)
			return nil
		})
	}
	if l.bookings != nil {
		g.Go(func() error {
			events, err := l.bookings.PropertyEvents(ctx, p)
			if err != nil {
				errs[sources-1] = newFeedError(p.ID, models.SourceTravelSuites, "", err)
				return nil
			}
			lists[sources-1] = withSource(events, models.SourceTravelSuites)
			return nil
		})
	}
	g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pl := &PropertyLoad{
		PropertyID: p.ID,
		Events:     TagEvents(Merge(lists...), p),
		Sources:    sources,
	}
	for _, fe := range errs {
		if fe != nil {
			pl.Failed++
			pl.Errors = append(pl.Errors, *fe)
		}
	}

	if l.store != nil && pl.Failed == 0 {
		if err := l.store.Set(ctx, cache.CalendarKey(p.ID), pl); err != nil {
			log.Warn().Err(err).Str("property_id", p.ID).Msg("Failed to cache calendar")
		}
	}

	return pl, nil
}

// Invalidate forgets cached calendars so the next load refetches them.
func (l *Loader) Invalidate(ctx context.Context) error {
	if l.store == nil {
		return nil
	}
	return l.store.Invalidate(ctx, cache.PrefixCalendar)
}

func (l *Loader) fetchFeed(ctx context.Context, p models.Property, feed models.Feed) ([]models.CalendarEvent, *FeedError) {
	status := models.FeedStatus{
		PropertyID: p.ID,
		Source:     feed.Source,
		URL:        upstream.RedactURL(feed.URL),
	}

	body, err := l.fetcher.Get(ctx, feed.URL)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, nil
		}
		fe := newFeedError(p.ID, feed.Source, feed.URL, err)
		log.Warn().
			Err(err).
			Str("property_id", p.ID).
			Str("source", string(feed.Source)).
			Str("url", fe.URL).
			Str("kind", string(fe.Kind)).
			Msg("Calendar feed failed")

		status.SyncStatus = models.SyncStatusError
		status.SyncError = &fe.Message
		l.record(ctx, status)
		return nil, fe
	}

	events, err := Parse(bytes.NewReader(body))
	if err != nil {
		fe := newFeedError(p.ID, feed.Source, feed.URL, err)
		status.SyncStatus = models.SyncStatusError
		status.SyncError = &fe.Message
		l.record(ctx, status)
		return nil, fe
	}

	status.SyncStatus = models.SyncStatusSuccess
	status.EventsFound = len(events)
	l.record(ctx, status)

	return withSource(events, feed.Source), nil
}

func (l *Loader) record(ctx context.Context, fs models.FeedStatus) {
	if l.recorder == nil || ctx.Err() != nil {
		return
	}
	if err := l.recorder.RecordFeedStatus(ctx, fs); err != nil {
		log.Warn().Err(err).Str("property_id", fs.PropertyID).Msg("Failed to record feed status")
	}
}

func newFeedError(propertyID string, src models.Source, url string, err error) *FeedError {
	fe := &FeedError{
		PropertyID: propertyID,
		Source:     src,
		Kind:       upstream.KindOf(err),
		Message:    err.Error(),
	}
	if url != "" {
		fe.URL = upstream.RedactURL(url)
	}
	return fe
}
