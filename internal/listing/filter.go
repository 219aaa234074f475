package listing

import (
	"math"
	"net/url"
	"strconv"
	"strings"
)

// Query-string keys understood by ParseFilterState.
const (
	KeyType      = "type"
	KeyCategory  = "category"
	KeyMinPrice  = "minPrice"
	KeyMaxPrice  = "maxPrice"
	KeyBedrooms  = "bedrooms"
	KeyBathrooms = "bathrooms"
	KeyAmenities = "amenities"
	KeyRating    = "rating"
	KeySearch    = "search"
	KeySort      = "sort"
	KeyPage      = "page"
)

// AllCategories is the selector value meaning "no category filter".
const AllCategories = "all"

// Sort keys.
const (
	SortFeatured   = "featured"
	SortPriceAsc   = "price-asc"
	SortPriceDesc  = "price-desc"
	SortRatingDesc = "rating-desc"
	SortNewest     = "newest"
	SortOldest     = "oldest"
)

// FilterState holds the user-chosen search, sort and paging criteria.
// A nil pointer or empty string means "no constraint" for that dimension.
type FilterState struct {
	Search    string   `json:"search,omitempty"`
	Type      string   `json:"type,omitempty"`
	Category  string   `json:"category,omitempty"`
	MinPrice  *float64 `json:"minPrice,omitempty"`
	MaxPrice  *float64 `json:"maxPrice,omitempty"`
	Bedrooms  *int     `json:"bedrooms,omitempty"`
	Bathrooms *int     `json:"bathrooms,omitempty"`
	Amenities []string `json:"amenities,omitempty"`
	Rating    *float64 `json:"rating,omitempty"`
	Sort      string   `json:"sort,omitempty"`
	Page      int      `json:"page,omitempty"`
}

// ParseFilterState reads a FilterState from URL query values.
// Values that do not parse, or that are negative, are dropped rather than rejected.
func ParseFilterState(q url.Values) FilterState {
	f := FilterState{
		Search:    strings.TrimSpace(q.Get(KeySearch)),
		Type:      strings.TrimSpace(q.Get(KeyType)),
		Category:  strings.TrimSpace(q.Get(KeyCategory)),
		MinPrice:  parseBound(q.Get(KeyMinPrice)),
		MaxPrice:  parseBound(q.Get(KeyMaxPrice)),
		Bedrooms:  parseCount(q.Get(KeyBedrooms)),
		Bathrooms: parseCount(q.Get(KeyBathrooms)),
		Amenities: SplitTags(q.Get(KeyAmenities)),
		Rating:    parseBound(q.Get(KeyRating)),
		Sort:      strings.TrimSpace(q.Get(KeySort)),
	}
	if p := parseCount(q.Get(KeyPage)); p != nil && *p >= 1 {
		f.Page = *p
	}
	return f
}

// Values encodes the state back into query values. Unset fields are omitted,
// so ParseFilterState(f.Values()) reproduces f for any parsed state.
func (f FilterState) Values() url.Values {
	q := url.Values{}
	setString := func(key, v string) {
		if v != "" {
			q.Set(key, v)
		}
	}
	setFloat := func(key string, v *float64) {
		if v != nil {
			q.Set(key, strconv.FormatFloat(*v, 'f', -1, 64))
		}
	}
	setInt := func(key string, v *int) {
		if v != nil {
			q.Set(key, strconv.Itoa(*v))
		}
	}

	setString(KeySearch, f.Search)
	setString(KeyType, f.Type)
	setString(KeyCategory, f.Category)
	setFloat(KeyMinPrice, f.MinPrice)
	setFloat(KeyMaxPrice, f.MaxPrice)
	setInt(KeyBedrooms, f.Bedrooms)
	setInt(KeyBathrooms, f.Bathrooms)
	if len(f.Amenities) > 0 {
		q.Set(KeyAmenities, strings.Join(f.Amenities, ","))
	}
	setFloat(KeyRating, f.Rating)
	setString(KeySort, f.Sort)
	if f.Page > 0 {
		q.Set(KeyPage, strconv.Itoa(f.Page))
	}
	return q
}

// Encode is Values().Encode(), handy for building links.
func (f FilterState) Encode() string {
	return f.Values().Encode()
}

// SplitTags splits a comma separated tag list, dropping blanks.
func SplitTags(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

func parseBound(raw string) *float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return nil
	}
	return &v
}

func parseCount(raw string) *int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return nil
	}
	return &v
}

func normalizeTag(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
