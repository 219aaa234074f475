package handlers

import (
	"net/http"

	"estatehub/internal/http/middleware"
	"estatehub/internal/listing"
	"estatehub/internal/services"

	"github.com/gin-gonic/gin"
)

func listingService(c *gin.Context) services.ListingService {
	return services.ListingService{
		PageSize:  currentSettings().PageSize,
		RequestID: middleware.GetRequestID(c),
	}
}

// ListListings serves GET /api/properties and GET /api/hotels.
func ListListings(kind listing.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		f := listing.ParseFilterState(c.Request.URL.Query())
		page, err := listingService(c).Search(c.Request.Context(), kind, f)
		if err != nil {
			RespondDomainError(c, err)
			return
		}
		c.JSON(http.StatusOK, page)
	}
}

// GetListing serves GET /api/properties/:id and GET /api/hotels/:id.
func GetListing(kind listing.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIDParam(c)
		if !ok {
			return
		}
		l, err := listingService(c).Get(c.Request.Context(), kind, id)
		if err != nil {
			RespondDomainError(c, err)
			return
		}
		c.JSON(http.StatusOK, l)
	}
}

// GetBrochure streams a listing brochure PDF inline.
func GetBrochure(kind listing.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIDParam(c)
		if !ok {
			return
		}
		svc := services.BrochureService{RequestID: middleware.GetRequestID(c)}
		pdfBytes, filename, err := svc.Generate(c.Request.Context(), kind, id)
		if err != nil {
			RespondDomainError(c, err)
			return
		}
		c.Header("Content-Disposition", `inline; filename="`+filename+`"`)
		c.Data(http.StatusOK, "application/pdf", pdfBytes)
	}
}
