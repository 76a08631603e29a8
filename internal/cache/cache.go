// Package cache is a TTL cache for upstream payloads persisted in SQLite.
// Entries are stored as {timestamp, payload} and expire by wall-clock
// comparison at read time.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/xaulosky/travel-suites-app/internal/storage"
)

// Well known keys and prefixes.
const (
	KeyCatalog     = "catalog"
	PrefixCalendar = "calendar:"
	PrefixAPI      = "api:"
)

// CalendarKey returns the cache key for a property's merged events.
func CalendarKey(propertyID string) string {
	return PrefixCalendar + propertyID
}

// Clock abstracts time for tests.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

// DefaultFetchTimeout bounds a shared Remember fetch.
const DefaultFetchTimeout = 30 * time.Second

// Store reads and writes JSON payloads with a per-read TTL.
type Store struct {
	repo         *storage.CacheRepository
	clock        Clock
	fetchTimeout time.Duration
	group        singleflight.Group
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the clock used for expiry.
func WithClock(c Clock) Option {
	return func(s *Store) { s.clock = c }
}

// WithFetchTimeout overrides DefaultFetchTimeout.
func WithFetchTimeout(d time.Duration) Option {
	return func(s *Store) { s.fetchTimeout = d }
}

// New creates a Store on top of repo.
func New(repo *storage.CacheRepository, opts ...Option) *Store {
	s := &Store{repo: repo, clock: realClock{}, fetchTimeout: DefaultFetchTimeout}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get decodes the entry under key into dst if it is younger than ttl.
func (s *Store) Get(ctx context.Context, key string, ttl time.Duration, dst any) (bool, error) {
	entry, err := s.repo.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if entry == nil {
		return false, nil
	}
	if s.clock.Now().Sub(entry.StoredAt) >= ttl {
		return false, nil
	}
	if err := json.Unmarshal(entry.Payload, dst); err != nil {
		// A payload from an older schema is a miss, not a failure.
		log.Warn().Err(err).Str("key", key).Msg("Discarding undecodable cache entry")
		return false, nil
	}
	return true, nil
}

// Set stores v under key, replacing any previous entry.
func (s *Store) Set(ctx context.Context, key string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding cache entry %s: %w", key, err)
	}
	return s.repo.Put(ctx, key, payload, s.clock.Now())
}

// Invalidate drops every entry whose key starts with prefix.
func (s *Store) Invalidate(ctx context.Context, prefix string) error {
	n, err := s.repo.DeleteByPrefix(ctx, prefix)
	if err != nil {
		return err
	}
	log.Debug().Str("prefix", prefix).Int64("removed", n).Msg("Cache invalidated")
	return nil
}

// Purge removes entries older than maxAge.
func (s *Store) Purge(ctx context.Context, maxAge time.Duration) (int64, error) {
	return s.repo.DeleteOlderThan(ctx, s.clock.Now().Add(-maxAge))
}

// Remember returns the fresh cached value under key or calls fetch and caches
// its result. Concurrent misses for the same key share a single fetch. Fetch
// errors are never cached.
//
// The shared fetch runs detached from every caller's cancellation and is
// bounded by the store's fetch timeout; a cancelled caller stops waiting
// without failing the others.
func Remember[T any](ctx context.Context, s *Store, key string, ttl time.Duration, fetch func(context.Context) (T, error)) (T, error) {
	var cached T
	if ok, err := s.Get(ctx, key, ttl, &cached); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Cache read failed")
	} else if ok {
		return cached, nil
	}

	ch := s.group.DoChan(key, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.fetchTimeout)
		defer cancel()

		fresh, err := fetch(fctx)
		if err != nil {
			return fresh, err
		}
		if err := s.Set(fctx, key, fresh); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("Cache write failed")
		}
		return fresh, nil
	})

	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}
