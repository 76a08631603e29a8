package handlers

import (
	"context"
	"encoding/json"
	"net/url"
	"time"

	"github.com/xaulosky/travel-suites-app/internal/calendar"
	"github.com/xaulosky/travel-suites-app/internal/catalog"
	"github.com/xaulosky/travel-suites-app/internal/dashboard"
	"github.com/xaulosky/travel-suites-app/internal/storage/models"
)

// Catalog lists the rentable properties.
type Catalog interface {
	List(ctx context.Context) (*catalog.Listing, error)
	Property(ctx context.Context, id string) (*models.Property, error)
}

// PropertyLoader loads the merged occupancy of one property.
type PropertyLoader interface {
	LoadProperty(ctx context.Context, p models.Property) (*calendar.PropertyLoad, error)
}

// OccupancySource returns the merged occupancy of every property.
type OccupancySource interface {
	Events(ctx context.Context) (*calendar.LoadResult, error)
}

// SyncTrigger starts a full calendar refresh.
type SyncTrigger interface {
	TriggerSync()
	GetNextRun(name string) *time.Time
}

// BookingsAPI is the bookings service as used by the handlers.
type BookingsAPI interface {
	Configured() bool
	Raw(ctx context.Context, endpoint string, params url.Values) (json.RawMessage, error)
	Events(ctx context.Context, properties []models.Property) ([]models.CalendarEvent, error)
}

// OrderCreator submits orders to the shop.
type OrderCreator interface {
	CreateOrder(ctx context.Context, order *catalog.Order) (*catalog.OrderResult, error)
}

// FeedLister lists the last sync outcome of every feed.
type FeedLister interface {
	List(ctx context.Context) ([]models.FeedStatus, error)
}

// Clock returns the current time.
type Clock func() time.Time

// loadFunc adapts a PropertyLoader to the session's load callback.
func loadFunc(loader PropertyLoader) dashboard.LoadFunc {
	return func(ctx context.Context, p models.Property) ([]models.CalendarEvent, int, error) {
		pl, err := loader.LoadProperty(ctx, p)
		if err != nil {
			return nil, 0, err
		}
		return pl.Events, pl.Failed, nil
	}
}
