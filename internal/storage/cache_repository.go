package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/xaulosky/travel-suites-app/internal/storage/models"
)

// CacheRepository provides data access for cached upstream payloads.
type CacheRepository struct {
	BaseRepository
}

// NewCacheRepository creates a new cache repository.
func NewCacheRepository(db *DB) *CacheRepository {
	return &CacheRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// Get returns the entry stored under key, or nil if there is none.
func (r *CacheRepository) Get(ctx context.Context, key string) (*models.CacheEntry, error) {
	entry := &models.CacheEntry{Key: key}

	err := r.DB().QueryRowContext(ctx, `
		SELECT payload, stored_at FROM cache_entries WHERE key = ?
	`, key).Scan(&entry.Payload, &entry.StoredAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying cache entry: %w", err)
	}

	return entry, nil
}

// Put replaces the entry under key in a single statement, so readers see
// either the old or the new payload.
func (r *CacheRepository) Put(ctx context.Context, key string, payload []byte, storedAt time.Time) error {
	_, err := r.DB().ExecContext(ctx, `
		INSERT INTO cache_entries (key, payload, stored_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, stored_at = excluded.stored_at
	`, key, payload, storedAt.UTC())

	if err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}
	return nil
}

// DeleteByPrefix removes every entry whose key starts with prefix.
func (r *CacheRepository) DeleteByPrefix(ctx context.Context, prefix string) (int64, error) {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(prefix)
	res, err := r.DB().ExecContext(ctx, `
		DELETE FROM cache_entries WHERE key LIKE ? ESCAPE '\'
	`, escaped+"%")
	if err != nil {
		return 0, fmt.Errorf("deleting cache entries: %w", err)
	}
	return res.RowsAffected()
}

// DeleteOlderThan removes entries written before cutoff.
func (r *CacheRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.DB().ExecContext(ctx, `
		DELETE FROM cache_entries WHERE stored_at < ?
	`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("purging cache entries: %w", err)
	}
	return res.RowsAffected()
}

// Count returns the number of cached entries.
func (r *CacheRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.DB().QueryRowContext(ctx, "SELECT COUNT(*) FROM cache_entries").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting cache entries: %w", err)
	}
	return n, nil
}
