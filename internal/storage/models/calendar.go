// Package models contains the domain models for the application.
package models

import (
	"time"
)

// Source identifies where an occupancy event came from.
type Source string

// Known event sources.
const (
	SourceAirbnb       Source = "airbnb"
	SourceBooking      Source = "booking"
	SourceTravelSuites Source = "travelsuites"
	SourceWooCommerce  Source = "woocommerce"
)

// CalendarEvent is one occupancy interval. Start and End are calendar dates
// (midnight UTC); End is exclusive, so the checkout day itself is free.
type CalendarEvent struct {
	UID          string    `json:"uid,omitempty"`
	Summary      string    `json:"summary"`
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
	PropertyID   string    `json:"property_id,omitempty"`
	PropertyName string    `json:"property_name,omitempty"`
	Source       Source    `json:"source,omitempty"`
}

// Nights returns the length of the event in days, never less than one.
func (e CalendarEvent) Nights() int {
	n := int(e.End.Sub(e.Start).Hours() / 24)
	if n < 1 {
		return 1
	}
	return n
}

// FeedStatus tracks the last sync of one external calendar feed.
type FeedStatus struct {
	PropertyID  string     `json:"property_id"`
	Source      Source     `json:"source"`
	URL         string     `json:"url"`
	LastSyncAt  *time.Time `json:"last_sync_at,omitempty"`
	SyncStatus  string     `json:"sync_status"`
	SyncError   *string    `json:"sync_error,omitempty"`
	EventsFound int        `json:"events_found"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// SyncStatus constants
const (
	SyncStatusPending = "pending"
	SyncStatusSuccess = "success"
	SyncStatusError   = "error"
)

// CalendarSyncResult summarizes a multi-property calendar refresh.
type CalendarSyncResult struct {
	Properties  int       `json:"properties"`
	Loaded      int       `json:"loaded"`
	Failed      int       `json:"failed"`
	EventsFound int       `json:"events_found"`
	SyncedAt    time.Time `json:"synced_at"`
	Duration    string    `json:"duration"`
}
