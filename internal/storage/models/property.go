package models

// Property status values as reported by the catalog.
const (
	StatusAvailable   = "disponible"
	StatusOccupied    = "ocupado"
	StatusMaintenance = "mantenimiento"
)

// Property is a rentable unit. It is built once per catalog sync and treated
// as immutable afterwards.
type Property struct {
	ID                string            `json:"id"`
	ProductID         int64             `json:"product_id,omitempty"`
	SKU               string            `json:"sku,omitempty"`
	Name              string            `json:"name"`
	Building          string            `json:"building,omitempty"`
	Type              string            `json:"type,omitempty"`
	Address           string            `json:"address,omitempty"`
	Rooms             int               `json:"rooms,omitempty"`
	Bathrooms         int               `json:"bathrooms,omitempty"`
	Beds              string            `json:"beds,omitempty"`
	Amenities         []string          `json:"amenities,omitempty"`
	Protocol          string            `json:"protocol,omitempty"`
	Status            string            `json:"status"`
	Price             int64             `json:"price"`
	Capacity          Capacity          `json:"capacity"`
	Duration          Duration          `json:"duration"`
	Discounts         Discounts         `json:"discounts"`
	ExtraGuest        ExtraGuest        `json:"extra_guest"`
	ExternalCalendars map[Source]string `json:"external_calendars,omitempty"`
	Images            []Image           `json:"images,omitempty"`
	Checkin           string            `json:"checkin,omitempty"`
	Checkout          string            `json:"checkout,omitempty"`
	Permalink         string            `json:"permalink,omitempty"`
}

// Capacity is the allowed guest count.
type Capacity struct {
	Min   int `json:"min"`
	Max   int `json:"max"`
	Total int `json:"total,omitempty"`
}

// Duration is the allowed stay length in nights. Max 0 means unlimited.
type Duration struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Discounts are percentages; 0 means not offered.
type Discounts struct {
	Weekly     float64 `json:"weekly"`
	Monthly    float64 `json:"monthly"`
	LastMinute float64 `json:"last_minute"`
}

// ExtraGuest is the per-person surcharge applied above Threshold guests.
type ExtraGuest struct {
	PricePerPerson int64 `json:"price_per_person"`
	Threshold      int   `json:"threshold"`
}

// Image is a catalog picture.
type Image struct {
	ID  int64  `json:"id,omitempty"`
	Src string `json:"src"`
	Alt string `json:"alt,omitempty"`
}

// Feeds returns the property's external calendars in a stable order.
func (p Property) Feeds() []Feed {
	var feeds []Feed
	for _, src := range []Source{SourceAirbnb, SourceBooking, SourceTravelSuites, SourceWooCommerce} {
		if url := p.ExternalCalendars[src]; url != "" {
			feeds = append(feeds, Feed{Source: src, URL: url})
		}
	}
	return feeds
}

// Feed is one external calendar subscription of a property.
type Feed struct {
	Source Source `json:"source"`
	URL    string `json:"url"`
}
