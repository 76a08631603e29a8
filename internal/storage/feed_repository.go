package storage

import (
	"context"
	"fmt"

	"github.com/xaulosky/travel-suites-app/internal/storage/models"
)

// FeedRepository records the sync outcome of external calendar feeds.
type FeedRepository struct {
	BaseRepository
}

// NewFeedRepository creates a new feed repository.
func NewFeedRepository(db *DB) *FeedRepository {
	return &FeedRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// RecordFeedStatus upserts the status of one feed.
func (r *FeedRepository) RecordFeedStatus(ctx context.Context, fs models.FeedStatus) error {
	now := r.Now()
	if fs.LastSyncAt == nil {
		fs.LastSyncAt = &now
	}

	_, err := r.DB().ExecContext(ctx, `
		INSERT INTO feed_status (
			property_id, source, url, last_sync_at, sync_status, sync_error, events_found, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(property_id, source) DO UPDATE SET
			url = excluded.url,
			last_sync_at = excluded.last_sync_at,
			sync_status = excluded.sync_status,
			sync_error = excluded.sync_error,
			events_found = excluded.events_found,
			updated_at = excluded.updated_at
	`,
		fs.PropertyID, fs.Source, fs.URL, fs.LastSyncAt, fs.SyncStatus,
		fs.SyncError, fs.EventsFound, now,
	)

	if err != nil {
		return fmt.Errorf("recording feed status: %w", err)
	}
	return nil
}

// List returns the status of every known feed.
func (r *FeedRepository) List(ctx context.Context) ([]models.FeedStatus, error) {
	rows, err := r.DB().QueryContext(ctx, `
		SELECT property_id, source, url, last_sync_at, sync_status, sync_error, events_found, updated_at
		FROM feed_status
		ORDER BY property_id, source
	`)
	if err != nil {
		return nil, fmt.Errorf("querying feeds: %w", err)
	}
	defer rows.Close()

	var feeds []models.FeedStatus
	for rows.Next() {
		var fs models.FeedStatus
		if err := rows.Scan(
			&fs.PropertyID, &fs.Source, &fs.URL, &fs.LastSyncAt,
			&fs.SyncStatus, &fs.SyncError, &fs.EventsFound, &fs.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning feed: %w", err)
		}
		feeds = append(feeds, fs)
	}

	return feeds, rows.Err()
}

// CountByStatus returns how many feeds are in each sync status.
func (r *FeedRepository) CountByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := r.DB().QueryContext(ctx, `
		SELECT sync_status, COUNT(*) FROM feed_status GROUP BY sync_status
	`)
	if err != nil {
		return nil, fmt.Errorf("counting feeds: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scanning feed count: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}
