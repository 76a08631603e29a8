package catalog

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/xaulosky/travel-suites-app/internal/cache"
	"github.com/xaulosky/travel-suites-app/internal/storage/models"
	"github.com/xaulosky/travel-suites-app/internal/upstream"
)

// Listing sources.
const (
	SourceWooCommerce = "woocommerce"
	SourceFallback    = "fallback"
)

// DefaultTTL is how long a fetched catalog is reused.
const DefaultTTL = 5 * time.Minute

// ErrNotFound is returned for an unknown property id.
var ErrNotFound = errors.New("property not found")

// Listing is the property catalog together with where it came from.
type Listing struct {
	Properties []models.Property `json:"properties"`
	Degraded   bool              `json:"degraded"`
	Source     string            `json:"source"`
	Error      string            `json:"error,omitempty"`
}

// Service serves the catalog, caching WooCommerce responses and falling back
// to static data when the store cannot be used.
type Service struct {
	client *Client
	store  *cache.Store
	ttl    time.Duration

	notConfigured sync.Once
}

// NewService creates a catalog service. store may be nil to disable caching.
func NewService(client *Client, store *cache.Store, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{client: client, store: store, ttl: ttl}
}

// List returns the catalog. Upstream failures are not errors: they yield the
// fallback dataset with Degraded set. Only cancellation is returned.
func (s *Service) List(ctx context.Context) (*Listing, error) {
	props, err := s.fetch(ctx)
	if err == nil && len(props) == 0 {
		err = errors.New("catalog is empty")
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if errors.Is(err, upstream.ErrNotConfigured) {
			s.notConfigured.Do(func() {
				log.Warn().Msg("WooCommerce credentials not configured, serving fallback catalog")
			})
		} else {
			log.Warn().Err(err).Msg("Catalog unavailable, serving fallback")
		}
		return &Listing{
			Properties: Fallback(),
			Degraded:   true,
			Source:     SourceFallback,
			Error:      err.Error(),
		}, nil
	}

	return &Listing{Properties: props, Source: SourceWooCommerce}, nil
}

// Properties implements calendar.PropertySource.
func (s *Service) Properties(ctx context.Context) ([]models.Property, error) {
	l, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return l.Properties, nil
}

// Property looks up one property by id.
func (s *Service) Property(ctx context.Context, id string) (*models.Property, error) {
	props, err := s.Properties(ctx)
	if err != nil {
		return nil, err
	}
	for i := range props {
		if props[i].ID == id {
			return &props[i], nil
		}
	}
	return nil, ErrNotFound
}

// Refresh drops the cached catalog and fetches it again.
func (s *Service) Refresh(ctx context.Context) (*Listing, error) {
	if s.store != nil {
		if err := s.store.Invalidate(ctx, cache.KeyCatalog); err != nil {
			log.Warn().Err(err).Msg("Failed to invalidate catalog cache")
		}
	}
	return s.List(ctx)
}

func (s *Service) fetch(ctx context.Context) ([]models.Property, error) {
	if !s.client.Configured() {
		return nil, upstream.ErrNotConfigured
	}
	if s.store == nil {
		return s.load(ctx)
	}
	return cache.Remember(ctx, s.store, cache.KeyCatalog, s.ttl, s.load)
}

func (s *Service) load(ctx context.Context) ([]models.Property, error) {
	products, err := s.client.Products(ctx)
	if err != nil {
		return nil, err
	}

	props := make([]models.Property, 0, len(products))
	for _, p := range products {
		props = append(props, MapProduct(p))
	}
	log.Info().Int("properties", len(props)).Msg("Catalog loaded from WooCommerce")
	return props, nil
}
