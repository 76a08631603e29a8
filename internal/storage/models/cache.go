package models

import "time"

// CacheEntry is a stored payload with the time it was written.
type CacheEntry struct {
	Key      string    `json:"key"`
	Payload  []byte    `json:"-"`
	StoredAt time.Time `json:"stored_at"`
}
