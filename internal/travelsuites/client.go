// Package travelsuites is a client for the TravelSuites bookings API.
package travelsuites

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/xaulosky/travel-suites-app/internal/cache"
	"github.com/xaulosky/travel-suites-app/internal/report"
	"github.com/xaulosky/travel-suites-app/internal/storage/models"
	"github.com/xaulosky/travel-suites-app/internal/upstream"
)

// Defaults for the bookings API.
const (
	DefaultBaseURL = "https://travelsuites.cl/wp-json/travelsuites/v1"
	DefaultTimeout = 15 * time.Second
	DefaultTTL     = 2 * time.Minute

	// HeaderAPIKey carries the API key.
	HeaderAPIKey = "X-TravelSuites-API-Key"
)

// ErrUnknownEndpoint is returned for endpoints outside the published API.
var ErrUnknownEndpoint = errors.New("unknown bookings API endpoint")

var endpointPattern = regexp.MustCompile(`^(bookings(/upcoming|/\d+)?|check-ins|check-outs|external-bookings(/\d+)?|all-bookings|products|stats)$`)

// ValidEndpoint reports whether endpoint is part of the bookings API.
func ValidEndpoint(endpoint string) bool {
	return endpointPattern.MatchString(endpoint)
}

// Config configures a Client.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	TTL     time.Duration
}

// Client calls the bookings API, caching GET responses for a short TTL.
type Client struct {
	base   string
	apiKey string
	http   *upstream.Client
	store  *cache.Store
	ttl    time.Duration
}

// NewClient creates a client. store may be nil to disable caching.
func NewClient(cfg Config, store *cache.Store, opts ...upstream.Option) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}

	opts = append([]upstream.Option{
		upstream.WithHeader(HeaderAPIKey, cfg.APIKey),
		upstream.WithUserAgent("TravelSuites-App/1.0"),
	}, opts...)

	return &Client{
		base:   strings.TrimRight(cfg.BaseURL, "/"),
		apiKey: cfg.APIKey,
		http:   upstream.NewClient("travelsuites", cfg.Timeout, opts...),
		store:  store,
		ttl:    cfg.TTL,
	}
}

// Configured reports whether an API key is set.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// Raw returns the JSON body of endpoint. Empty parameter values are dropped.
func (c *Client) Raw(ctx context.Context, endpoint string, params url.Values) (json.RawMessage, error) {
	if !c.Configured() {
		return nil, upstream.ErrNotConfigured
	}
	endpoint = strings.Trim(endpoint, "/")
	if !ValidEndpoint(endpoint) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEndpoint, endpoint)
	}

	query := url.Values{}
	for k, vs := range params {
		for _, v := range vs {
			if v != "" {
				query.Add(k, v)
			}
		}
	}
	u := c.base + "/" + endpoint
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	fetch := func(ctx context.Context) (json.RawMessage, error) {
		var body json.RawMessage
		if err := c.http.GetJSON(ctx, u, &body); err != nil {
			return nil, err
		}
		return body, nil
	}
	if c.store == nil {
		return fetch(ctx)
	}
	return cache.Remember(ctx, c.store, cacheKey(endpoint, query), c.ttl, fetch)
}

func cacheKey(endpoint string, query url.Values) string {
	key := cache.PrefixAPI + endpoint
	if len(query) > 0 {
		key += "?" + query.Encode()
	}
	return key
}

// BookingFilter narrows the bookings endpoint.
type BookingFilter struct {
	ProductID int64
	From      string
	To        string
	Status    string
	PerPage   int
	Page      int
}

func (f BookingFilter) values() url.Values {
	v := url.Values{}
	if f.ProductID != 0 {
		v.Set("product_id", strconv.FormatInt(f.ProductID, 10))
	}
	v.Set("from_date", f.From)
	v.Set("to_date", f.To)
	v.Set("status", f.Status)
	if f.PerPage > 0 {
		v.Set("per_page", strconv.Itoa(f.PerPage))
	}
	if f.Page > 0 {
		v.Set("page", strconv.Itoa(f.Page))
	}
	return v
}

// list fetches endpoint and normalizes whatever list shape it returns. An
// unrecognized shape is logged and yields no bookings.
func (c *Client) list(ctx context.Context, endpoint string, params url.Values) ([]models.Booking, error) {
	raw, err := c.Raw(ctx, endpoint, params)
	if err != nil {
		return nil, err
	}
	bookings, err := report.NormalizeBookings(raw)
	if err != nil {
		log.Warn().Err(err).Str("endpoint", endpoint).Msg("Unexpected bookings response")
	}
	return bookings, nil
}

// Bookings lists bookings matching f.
func (c *Client) Bookings(ctx context.Context, f BookingFilter) ([]models.Booking, error) {
	return c.list(ctx, "bookings", f.values())
}

// UpcomingBookings lists bookings from today on.
func (c *Client) UpcomingBookings(ctx context.Context) ([]models.Booking, error) {
	return c.list(ctx, "bookings/upcoming", nil)
}

// CheckIns lists arrivals on date (YYYY-MM-DD).
func (c *Client) CheckIns(ctx context.Context, date string) ([]models.Booking, error) {
	return c.list(ctx, "check-ins", url.Values{"date": {date}})
}

// CheckOuts lists departures on date (YYYY-MM-DD).
func (c *Client) CheckOuts(ctx context.Context, date string) ([]models.Booking, error) {
	return c.list(ctx, "check-outs", url.Values{"date": {date}})
}

// ExternalBookings lists bookings imported from Airbnb and Booking.com.
func (c *Client) ExternalBookings(ctx context.Context) ([]models.Booking, error) {
	return c.list(ctx, "external-bookings", nil)
}

// AllBookings lists direct and external bookings together.
func (c *Client) AllBookings(ctx context.Context) ([]models.Booking, error) {
	return c.list(ctx, "all-bookings", nil)
}

// Booking returns one booking.
func (c *Client) Booking(ctx context.Context, id int64) (*models.Booking, error) {
	raw, err := c.Raw(ctx, "bookings/"+strconv.FormatInt(id, 10), nil)
	if err != nil {
		return nil, err
	}

	var wrapped struct {
		Data *models.Booking `json:"data"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.Data != nil {
		return wrapped.Data, nil
	}
	var b models.Booking
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil, &upstream.Error{Kind: upstream.KindDecode, Source: "travelsuites", Err: err}
	}
	return &b, nil
}

// Stats returns the booking statistics object as sent by the API.
func (c *Client) Stats(ctx context.Context) (map[string]any, error) {
	raw, err := c.Raw(ctx, "stats", nil)
	if err != nil {
		return nil, err
	}
	var stats map[string]any
	if err := json.Unmarshal(raw, &stats); err != nil {
		return nil, &upstream.Error{Kind: upstream.KindDecode, Source: "travelsuites", Err: err}
	}
	return stats, nil
}

// Events converts every known booking into occupancy events for properties.
func (c *Client) Events(ctx context.Context, properties []models.Property) ([]models.CalendarEvent, error) {
	bookings, err := c.AllBookings(ctx)
	if err != nil {
		return nil, err
	}
	return report.BookingsToEvents(bookings, properties), nil
}

// PropertyEvents returns the occupancy the API holds for p. Properties
// without a catalog product have none.
func (c *Client) PropertyEvents(ctx context.Context, p models.Property) ([]models.CalendarEvent, error) {
	if p.ProductID == 0 {
		return nil, nil
	}
	bookings, err := c.Bookings(ctx, BookingFilter{ProductID: p.ProductID, PerPage: 100})
	if err != nil {
		return nil, err
	}

	events := report.BookingsToEvents(bookings, []models.Property{p})
	// Filtering by product id is the API's job; keep only what matched.
	out := events[:0]
	for _, e := range events {
		if e.PropertyID == p.ID {
			out = append(out, e)
		}
	}
	return out, nil
}
