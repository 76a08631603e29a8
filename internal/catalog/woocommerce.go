// Package catalog lists rentable properties from WooCommerce, falls back to a
// static dataset when the store is unreachable, and submits booking orders.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xaulosky/travel-suites-app/internal/storage/models"
	"github.com/xaulosky/travel-suites-app/internal/upstream"
)

// DefaultTimeout bounds every WooCommerce request.
const DefaultTimeout = 8 * time.Second

// Credentials locate and authenticate the WooCommerce REST API.
type Credentials struct {
	URL            string
	ConsumerKey    string
	ConsumerSecret string
}

// Configured reports whether every credential is present.
func (c Credentials) Configured() bool {
	return c.URL != "" && c.ConsumerKey != "" && c.ConsumerSecret != ""
}

// Client talks to the WooCommerce REST API (wc/v3).
type Client struct {
	creds Credentials
	http  *upstream.Client
}

// NewClient creates a WooCommerce client.
func NewClient(creds Credentials, timeout time.Duration, opts ...upstream.Option) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	creds.URL = strings.TrimRight(creds.URL, "/")
	return &Client{
		creds: creds,
		http:  upstream.NewClient("woocommerce", timeout, opts...),
	}
}

// Configured reports whether the client has credentials.
func (c *Client) Configured() bool {
	return c.creds.Configured()
}

func (c *Client) endpoint(path string, params url.Values) (string, error) {
	if !c.creds.Configured() {
		return "", upstream.ErrNotConfigured
	}
	if params == nil {
		params = url.Values{}
	}
	params.Set("consumer_key", c.creds.ConsumerKey)
	params.Set("consumer_secret", c.creds.ConsumerSecret)
	return c.creds.URL + "/wp-json/wc/v3/" + path + "?" + params.Encode(), nil
}

// Product is the subset of a WooCommerce product the dashboard maps.
type Product struct {
	ID               int64      `json:"id"`
	Name             string     `json:"name"`
	SKU              string     `json:"sku"`
	Price            string     `json:"price"`
	StockStatus      string     `json:"stock_status"`
	Permalink        string     `json:"permalink"`
	ShortDescription string     `json:"short_description"`
	Categories       []Category `json:"categories"`
	Images           []Image    `json:"images"`
	MetaData         []Meta     `json:"meta_data"`
}

// Category is a product category.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Image is a product picture.
type Image struct {
	ID  int64  `json:"id"`
	Src string `json:"src"`
	Alt string `json:"alt"`
}

// Meta is a product meta entry. Values may be strings, numbers or objects.
type Meta struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

// Products returns the published products.
func (c *Client) Products(ctx context.Context) ([]Product, error) {
	u, err := c.endpoint("products", url.Values{
		"per_page": {"100"},
		"status":   {"publish"},
	})
	if err != nil {
		return nil, err
	}

	var products []Product
	if err := c.http.GetJSON(ctx, u, &products); err != nil {
		return nil, fmt.Errorf("fetching products: %w", err)
	}
	return products, nil
}

type metaIndex map[string]json.RawMessage

func indexMeta(meta []Meta) metaIndex {
	idx := make(metaIndex, len(meta))
	for _, m := range meta {
		if _, seen := idx[m.Key]; !seen {
			idx[m.Key] = m.Value
		}
	}
	return idx
}

// str returns a scalar meta value as text.
func (m metaIndex) str(key string) string {
	raw, ok := m[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

func (m metaIndex) number(key string, def float64) float64 {
	f, err := strconv.ParseFloat(m.str(key), 64)
	if err != nil {
		return def
	}
	return f
}

func (m metaIndex) integer(key string, def int) int {
	return int(m.number(key, float64(def)))
}

// flags decodes an object of "true"/"false" strings.
func (m metaIndex) flags(key string) map[string]bool {
	out := map[string]bool{}
	var raw map[string]any
	if err := json.Unmarshal(m[key], &raw); err != nil {
		return out
	}
	for k, v := range raw {
		switch v := v.(type) {
		case string:
			out[k] = v == "true" || v == "1"
		case bool:
			out[k] = v
		}
	}
	return out
}

// calendars decodes _yith_booking_external_calendars. Slot "1" is Airbnb and
// slot "2" is Booking.com, as an object or as an array.
func (m metaIndex) calendars(key string) map[models.Source]string {
	type entry struct {
		URL string `json:"url"`
	}
	slots := map[string]entry{}

	raw := m[key]
	if err := json.Unmarshal(raw, &slots); err != nil {
		var list []entry
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil
		}
		for i, e := range list {
			slots[strconv.Itoa(i)] = e
		}
	}

	out := map[models.Source]string{}
	if u := strings.TrimSpace(slots["1"].URL); u != "" {
		out[models.SourceAirbnb] = u
	}
	if u := strings.TrimSpace(slots["2"].URL); u != "" {
		out[models.SourceBooking] = u
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

var amenityLabels = []struct{ key, label string }{
	{"wifi", "WiFi"},
	{"tv", "TV"},
	{"calefaccion", "Calefacción"},
	{"aire_acondicionado", "Aire Acondicionado"},
	{"piscina", "Piscina"},
	{"parking", "Estacionamiento"},
	{"lavadora", "Lavadora"},
	{"cocina", "Cocina"},
	{"mascotas", "Mascotas Permitidas"},
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)

func stripTags(s string) string {
	return strings.TrimSpace(tagPattern.ReplaceAllString(s, ""))
}

// MapProduct converts a WooCommerce product into a Property.
func MapProduct(p Product) models.Property {
	meta := indexMeta(p.MetaData)

	totalGuests := meta.integer("capacidad_huespedes", 0)
	minNights := meta.integer("_yith_booking_minimum_duration", 1)
	if minNights < 1 {
		minNights = 1
	}

	prop := models.Property{
		ID:        p.SKU,
		ProductID: p.ID,
		SKU:       p.SKU,
		Name:      p.Name,
		Building:  building(p, meta.str("ubicacion")),
		Type:      "departamento",
		Address:   meta.str("ubicacion"),
		Rooms:     meta.integer("habitaciones", 0),
		Bathrooms: meta.integer("banos", 0),
		Beds:      beds(meta),
		Status:    status(p.StockStatus),
		Price:     parsePrice(p.Price),
		Capacity: models.Capacity{
			Min:   meta.integer("_yith_booking_min_persons", 1),
			Max:   meta.integer("_yith_booking_max_persons", totalGuests),
			Total: totalGuests,
		},
		Duration: models.Duration{
			Min: minNights,
			Max: meta.integer("_yith_booking_maximum_duration", 0),
		},
		Discounts: models.Discounts{
			Weekly:     meta.number("_yith_booking_weekly_discount", 0),
			Monthly:    meta.number("_yith_booking_monthly_discount", 0),
			LastMinute: meta.number("_yith_booking_last_minute_discount", 0),
		},
		ExtraGuest: models.ExtraGuest{
			PricePerPerson: int64(math.Round(meta.number("_yith_booking_extra_price_per_person", 0))),
			Threshold:      meta.integer("_yith_booking_extra_price_per_person_greater_than", 0),
		},
		ExternalCalendars: meta.calendars("_yith_booking_external_calendars"),
		Checkin:           meta.str("_yith_booking_checkin"),
		Checkout:          meta.str("_yith_booking_checkout"),
		Permalink:         p.Permalink,
		Protocol:          stripTags(p.ShortDescription),
	}
	if prop.ID == "" {
		prop.ID = fmt.Sprintf("wc-%d", p.ID)
	}
	if prop.Checkin == "" {
		prop.Checkin = "15:00"
	}
	if prop.Checkout == "" {
		prop.Checkout = "12:00"
	}

	comodidades := meta.flags("comodidades")
	for _, a := range amenityLabels {
		if comodidades[a.key] {
			prop.Amenities = append(prop.Amenities, a.label)
		}
	}

	for _, img := range p.Images {
		alt := img.Alt
		if alt == "" {
			alt = p.Name
		}
		prop.Images = append(prop.Images, models.Image{ID: img.ID, Src: img.Src, Alt: alt})
	}

	return prop
}

// building derives the building name: the first category, or for the generic
// "Departamento" category the last comma-separated part of the address.
func building(p Product, address string) string {
	if len(p.Categories) == 0 {
		return "Sin categoría"
	}
	first := p.Categories[0].Name
	if first == "Departamento" && address != "" {
		if parts := strings.Split(address, ","); len(parts) > 1 {
			return strings.TrimSpace(parts[len(parts)-1])
		}
	}
	return first
}

func beds(meta metaIndex) string {
	n := meta.integer("camas", 0)
	s := fmt.Sprintf("%d cama", n)
	if n != 1 {
		s += "s"
	}
	if meta.flags("sofa_cama")["Sofá Cama"] {
		s += ", 1 Sofá Cama"
	}
	return s
}

func status(stock string) string {
	switch stock {
	case "outofstock":
		return models.StatusOccupied
	case "onbackorder":
		return models.StatusMaintenance
	default:
		return models.StatusAvailable
	}
}

func parsePrice(s string) int64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return int64(math.Round(f))
}
