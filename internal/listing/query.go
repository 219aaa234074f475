package listing

import (
	"math"
	"sort"
	"strings"
)

// DefaultPageSize matches the 3x3 grid used by the list pages.
const DefaultPageSize = 9

// Pipeline filters, sorts and paginates a listing collection.
// The zero value uses DefaultPageSize.
type Pipeline struct {
	PageSize int
}

// Query runs the default pipeline.
func Query(listings []Listing, f FilterState) PageResult {
	return Pipeline{}.Query(listings, f)
}

// Query returns the requested page of listings matching f. It never fails and
// never modifies listings; identical inputs always give identical output.
func (p Pipeline) Query(listings []Listing, f FilterState) PageResult {
	size := p.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}

	matched := Filter(listings, f)
	Sort(matched, f.Sort)

	total := len(matched)
	pages := (total + size - 1) / size
	page := f.Page
	if page < 1 {
		page = 1
	}
	if page > pages {
		page = max(1, pages)
	}

	start := min((page-1)*size, total)
	end := min(start+size, total)
	items := make([]Listing, end-start)
	copy(items, matched[start:end])

	return PageResult{
		Items:         items,
		TotalMatching: total,
		TotalPages:    pages,
		CurrentPage:   page,
		PageSize:      size,
	}
}

// Filter returns a new slice holding the listings that satisfy every active
// dimension of f, in input order.
func Filter(listings []Listing, f FilterState) []Listing {
	out := make([]Listing, 0, len(listings))
	for _, l := range listings {
		if matches(l, f) {
			out = append(out, l)
		}
	}
	return out
}

func matches(l Listing, f FilterState) bool {
	if !categoryMatches(f.Type, l.Category) || !categoryMatches(f.Category, l.Category) {
		return false
	}

	if v, ok := bound(f.MinPrice); ok && l.Price < v {
		return false
	}
	if v, ok := bound(f.MaxPrice); ok && l.Price > v {
		return false
	}

	if !atLeast(l.Bedrooms, f.Bedrooms) || !atLeast(l.Bathrooms, f.Bathrooms) {
		return false
	}

	for _, a := range f.Amenities {
		if normalizeTag(a) == "" {
			continue
		}
		if !l.HasAmenity(a) {
			return false
		}
	}

	if v, ok := bound(f.Rating); ok {
		if l.Rating == nil || math.Floor(*l.Rating) < v {
			return false
		}
	}

	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		if !strings.Contains(strings.ToLower(l.Title), q) &&
			!strings.Contains(strings.ToLower(l.Location), q) &&
			!strings.Contains(strings.ToLower(l.Category), q) {
			return false
		}
	}
	return true
}

func categoryMatches(want, got string) bool {
	want = strings.TrimSpace(want)
	if want == "" || strings.EqualFold(want, AllCategories) {
		return true
	}
	return strings.EqualFold(want, strings.TrimSpace(got))
}

func bound(v *float64) (float64, bool) {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) || *v < 0 {
		return 0, false
	}
	return *v, true
}

// A listing without the attribute never satisfies a minimum.
func atLeast(have, want *int) bool {
	if want == nil || *want < 0 {
		return true
	}
	return have != nil && *have >= *want
}

// Sort orders listings in place by key. Unknown keys sort as SortFeatured.
// Equal keys keep their relative order.
func Sort(listings []Listing, key string) {
	var less func(a, b Listing) bool
	switch key {
	case SortPriceAsc:
		less = func(a, b Listing) bool { return a.Price < b.Price }
	case SortPriceDesc:
		less = func(a, b Listing) bool { return a.Price > b.Price }
	case SortRatingDesc:
		less = func(a, b Listing) bool { return ratingOf(a) > ratingOf(b) }
	case SortNewest:
		less = func(a, b Listing) bool { return a.DateAdded.After(b.DateAdded) }
	case SortOldest:
		less = func(a, b Listing) bool { return a.DateAdded.Before(b.DateAdded) }
	default:
		less = func(a, b Listing) bool {
			if a.Featured != b.Featured {
				return a.Featured
			}
			return a.DateAdded.After(b.DateAdded)
		}
	}
	sort.SliceStable(listings, func(i, j int) bool { return less(listings[i], listings[j]) })
}

// Unrated listings sort after every rated one.
func ratingOf(l Listing) float64 {
	if l.Rating == nil {
		return -1
	}
	return *l.Rating
}
