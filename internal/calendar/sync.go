package calendar

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/xaulosky/travel-suites-app/internal/storage/models"
)

// PropertySource supplies the current property catalog.
type PropertySource interface {
	Properties(ctx context.Context) ([]models.Property, error)
}

// SyncService refreshes the occupancy of every catalog property and keeps the
// most recent merged result in memory.
type SyncService struct {
	loader *Loader
	props  PropertySource

	mu     sync.RWMutex
	last   *LoadResult
	result *models.CalendarSyncResult
}

// NewSyncService creates a new calendar sync service.
func NewSyncService(loader *Loader, props PropertySource) *SyncService {
	return &SyncService{loader: loader, props: props}
}

// SyncAll drops cached calendars and reloads every property. Feed failures
// are reported in the result; only a catalog failure or cancellation is an
// error.
func (s *SyncService) SyncAll(ctx context.Context) (*models.CalendarSyncResult, error) {
	started := time.Now()

	props, err := s.props.Properties(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing properties: %w", err)
	}

	if err := s.loader.Invalidate(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to invalidate calendar cache")
	}

	loaded, err := s.loader.LoadAll(ctx, props)
	if err != nil {
		return nil, err
	}

	result := &models.CalendarSyncResult{
		Properties:  len(props),
		Loaded:      loaded.Loaded,
		Failed:      loaded.Failed,
		EventsFound: len(loaded.Events),
		SyncedAt:    time.Now().UTC(),
		Duration:    time.Since(started).Round(time.Millisecond).String(),
	}

	s.mu.Lock()
	s.last = loaded
	s.result = result
	s.mu.Unlock()

	log.Info().
		Int("properties", result.Properties).
		Int("loaded", result.Loaded).
		Int("failed", result.Failed).
		Int("events", result.EventsFound).
		Str("duration", result.Duration).
		Msg("Calendar sync completed")

	return result, nil
}

// Events returns the merged occupancy of all properties, reusing the last
// sync when there is one.
func (s *SyncService) Events(ctx context.Context) (*LoadResult, error) {
	s.mu.RLock()
	last := s.last
	s.mu.RUnlock()
	if last != nil {
		return last, nil
	}

	props, err := s.props.Properties(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing properties: %w", err)
	}
	loaded, err := s.loader.LoadAll(ctx, props)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.last = loaded
	s.mu.Unlock()
	return loaded, nil
}

// LastResult returns the summary of the most recent SyncAll, or nil.
func (s *SyncService) LastResult() *models.CalendarSyncResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.result
}

// Loader exposes the underlying per-property loader.
func (s *SyncService) Loader() *Loader {
	return s.loader
}
