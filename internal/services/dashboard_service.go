package services

import (
	"context"
	"fmt"

	"estatehub/internal/domain"
	"estatehub/internal/listing"
	"estatehub/internal/utils"
)

const recentLimit = 3

// CatalogueSummary aggregates one catalogue for the dashboard cards.
type CatalogueSummary struct {
	Kind         listing.Kind      `json:"kind"`
	Total        int               `json:"total"`
	Featured     int               `json:"featured"`
	AveragePrice float64           `json:"averagePrice"`
	Facets       listing.Facets    `json:"facets"`
	Recent       []listing.Listing `json:"recent"`
}

type DashboardSummary struct {
	Role       string             `json:"role"`
	Catalogues []CatalogueSummary `json:"catalogues"`
}

type DashboardService struct {
	Repo      ListingStore
	RequestID string
}

// KindsForRole lists the catalogues a staff role may see, or nil.
func KindsForRole(role string) []listing.Kind {
	switch role {
	case domain.RoleAdmin:
		return []listing.Kind{listing.KindProperty, listing.KindHotel}
	case domain.RoleAgent:
		return []listing.Kind{listing.KindProperty}
	case domain.RoleHotelManager:
		return []listing.Kind{listing.KindHotel}
	default:
		return nil
	}
}

func (s DashboardService) Summary(ctx context.Context, role string) (DashboardSummary, error) {
	kinds := KindsForRole(role)
	if len(kinds) == 0 {
		return DashboardSummary{}, domain.ForbiddenError{Msg: "role has no dashboard"}
	}
	repo := ListingService{Repo: s.Repo}.repo()

	out := DashboardSummary{Role: role, Catalogues: make([]CatalogueSummary, 0, len(kinds))}
	for _, kind := range kinds {
		all, err := repo.List(ctx, kind)
		if err != nil {
			return DashboardSummary{}, err
		}
		out.Catalogues = append(out.Catalogues, summarize(kind, all))
	}
	utils.LogEvent(s.RequestID, "dashboard", "summary", fmt.Sprintf("role=%s catalogues=%d", role, len(kinds)))
	return out, nil
}

func summarize(kind listing.Kind, all []listing.Listing) CatalogueSummary {
	facets := listing.BuildFacets(all)
	sum := CatalogueSummary{
		Kind:     kind,
		Total:    len(all),
		Featured: facets.Featured,
		Facets:   facets,
	}
	if len(all) > 0 {
		var total float64
		for _, l := range all {
			total += l.Price
		}
		sum.AveragePrice = total / float64(len(all))
	}
	recent := listing.Pipeline{PageSize: recentLimit}.Query(all, listing.FilterState{Sort: listing.SortNewest})
	sum.Recent = recent.Items
	return sum
}
