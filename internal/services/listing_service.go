package services

import (
	"context"
	"fmt"

	"estatehub/internal/listing"
	"estatehub/internal/repositories"
	"estatehub/internal/utils"
)

// ListingStore is the read side of ListingRepository.
type ListingStore interface {
	List(ctx context.Context, kind listing.Kind) ([]listing.Listing, error)
	Get(ctx context.Context, kind listing.Kind, id int64) (listing.Listing, error)
}

type ListingService struct {
	Repo      ListingStore
	PageSize  int
	RequestID string
}

// ListingPage is the response body of the catalogue endpoints.
type ListingPage struct {
	listing.PageResult
	Filters listing.FilterState `json:"filters"`
	Meta    listing.Facets      `json:"meta"`
}

func (s ListingService) repo() ListingStore {
	if s.Repo != nil {
		return s.Repo
	}
	return repositories.ListingRepository{}
}

// Search loads the whole catalogue of kind and runs it through the query pipeline.
// Facets describe the unfiltered catalogue so the sidebar does not collapse as
// filters are applied.
func (s ListingService) Search(ctx context.Context, kind listing.Kind, f listing.FilterState) (ListingPage, error) {
	all, err := s.repo().List(ctx, kind)
	if err != nil {
		return ListingPage{}, err
	}
	res := listing.Pipeline{PageSize: s.PageSize}.Query(all, f)
	f.Page = res.CurrentPage
	utils.LogEvent(s.RequestID, "listing", "search",
		fmt.Sprintf("kind=%s total=%d matching=%d page=%d/%d", kind, len(all), res.TotalMatching, res.CurrentPage, res.TotalPages))
	return ListingPage{
		PageResult: res,
		Filters:    f,
		Meta:       listing.BuildFacets(all),
	}, nil
}

func (s ListingService) Get(ctx context.Context, kind listing.Kind, id int64) (listing.Listing, error) {
	return s.repo().Get(ctx, kind, id)
}
