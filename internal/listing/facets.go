package listing

import (
	"sort"
	"strings"
)

// Facets describes the filter sidebar for a collection: the price span,
// how many listings fall in each category and which amenities exist.
type Facets struct {
	MinPrice   float64        `json:"minPrice"`
	MaxPrice   float64        `json:"maxPrice"`
	Categories map[string]int `json:"categories"`
	Amenities  []string       `json:"amenities"`
	Featured   int            `json:"featured"`
}

// BuildFacets summarises listings. Categories and amenities are matched
// case-insensitively and reported under the first spelling seen; amenities
// are returned sorted.
func BuildFacets(listings []Listing) Facets {
	f := Facets{Categories: map[string]int{}, Amenities: []string{}}
	seen := map[string]bool{}
	categorySpelling := map[string]string{}
	for i, l := range listings {
		if i == 0 || l.Price < f.MinPrice {
			f.MinPrice = l.Price
		}
		if i == 0 || l.Price > f.MaxPrice {
			f.MaxPrice = l.Price
		}
		if key := normalizeTag(l.Category); key != "" {
			name, ok := categorySpelling[key]
			if !ok {
				name = strings.TrimSpace(l.Category)
				categorySpelling[key] = name
			}
			f.Categories[name]++
		}
		if l.Featured {
			f.Featured++
		}
		for _, a := range l.Amenities {
			key := normalizeTag(a)
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			f.Amenities = append(f.Amenities, a)
		}
	}
	sort.Strings(f.Amenities)
	return f
}
