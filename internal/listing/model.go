package listing

import "time"

// Kind distinguishes the two catalogues that share the Listing shape.
type Kind string

const (
	KindProperty Kind = "property"
	KindHotel    Kind = "hotel"
)

// PriceKind only affects how a price is labelled, never how it is filtered.
type PriceKind string

const (
	PriceSale     PriceKind = "sale"
	PriceRent     PriceKind = "rent"
	PricePerNight PriceKind = "per-night"
)

// Listing is a property or hotel record as fetched from the catalogue.
// Optional numeric attributes are nil when unknown.
type Listing struct {
	ID          int64     `json:"id"`
	Kind        Kind      `json:"kind"`
	Title       string    `json:"title"`
	Price       float64   `json:"price"`
	PriceKind   PriceKind `json:"priceKind"`
	Category    string    `json:"category"`
	Location    string    `json:"location"`
	Bedrooms    *int      `json:"bedrooms,omitempty"`
	Bathrooms   *int      `json:"bathrooms,omitempty"`
	Area        *float64  `json:"area,omitempty"`
	Featured    bool      `json:"featured"`
	DateAdded   time.Time `json:"dateAdded"`
	Rating      *float64  `json:"rating,omitempty"`
	ReviewCount *int      `json:"reviewCount,omitempty"`
	Amenities   []string  `json:"amenities,omitempty"`
	Description string    `json:"description,omitempty"`
	ImageURL    string    `json:"imageUrl,omitempty"`
}

// HasAmenity reports whether tag is one of the listing's amenities (case-insensitive).
func (l Listing) HasAmenity(tag string) bool {
	tag = normalizeTag(tag)
	for _, a := range l.Amenities {
		if normalizeTag(a) == tag {
			return true
		}
	}
	return false
}

// PageResult is one visible page of a filtered, sorted collection.
type PageResult struct {
	Items         []Listing `json:"items"`
	TotalMatching int       `json:"totalMatching"`
	TotalPages    int       `json:"totalPages"`
	CurrentPage   int       `json:"currentPage"`
	PageSize      int       `json:"pageSize"`
}
