package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"estatehub/internal/listing"
	"estatehub/internal/utils"

	"github.com/phpdave11/gofpdf"
)

// BrochureService renders a one-page PDF for a listing.
type BrochureService struct {
	Repo      ListingStore
	RequestID string
	Now       func() time.Time
}

func (s BrochureService) Generate(ctx context.Context, kind listing.Kind, id int64) ([]byte, string, error) {
	l, err := ListingService{Repo: s.Repo}.repo().Get(ctx, kind, id)
	if err != nil {
		return nil, "", err
	}
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	utils.LogEvent(s.RequestID, "brochure", "generate", fmt.Sprintf("kind=%s id=%d", kind, id))
	return buildBrochurePDF(l, now)
}

func buildBrochurePDF(l listing.Listing, generated time.Time) ([]byte, string, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(l.Title, false)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 18)
	pdf.MultiCell(0, 9, tr(safe(l.Title, "Untitled listing")), "", "", false)
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "", 13)
	pdf.Cell(0, 8, tr(PriceLabel(l)))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	for _, line := range brochureLines(l) {
		pdf.Cell(0, 7, tr(line))
		pdf.Ln(7)
	}

	if d := strings.TrimSpace(l.Description); d != "" {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "B", 12)
		pdf.Cell(0, 7, "About")
		pdf.Ln(8)
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 6, tr(utils.NormalizeSpace(d)), "", "", false)
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.Cell(0, 6, "Generated "+generated.Format("2006-01-02 15:04"))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}
	filename := fmt.Sprintf("%s_%d_%s.pdf", strings.ToUpper(string(l.Kind)), l.ID, safeFilenamePart(l.Title))
	return buf.Bytes(), filename, nil
}

// PriceLabel formats a listing price with its rent or nightly suffix.
func PriceLabel(l listing.Listing) string {
	switch l.PriceKind {
	case listing.PriceRent:
		return utils.FormatPrice(l.Price, "/mo")
	case listing.PricePerNight:
		return utils.FormatPrice(l.Price, "/night")
	default:
		return utils.FormatPrice(l.Price, "")
	}
}

func brochureLines(l listing.Listing) []string {
	lines := []string{
		fmt.Sprintf("Category   : %s", safe(l.Category, "-")),
		fmt.Sprintf("Location   : %s", safe(l.Location, "-")),
	}
	if l.Bedrooms != nil {
		lines = append(lines, fmt.Sprintf("Bedrooms   : %d", *l.Bedrooms))
	}
	if l.Bathrooms != nil {
		lines = append(lines, fmt.Sprintf("Bathrooms  : %d", *l.Bathrooms))
	}
	if l.Area != nil {
		lines = append(lines, fmt.Sprintf("Area       : %.0f sq ft", *l.Area))
	}
	if l.Rating != nil {
		reviews := 0
		if l.ReviewCount != nil {
			reviews = *l.ReviewCount
		}
		lines = append(lines, fmt.Sprintf("Rating     : %.1f (%d reviews)", *l.Rating, reviews))
	}
	if len(l.Amenities) > 0 {
		lines = append(lines, "Amenities  : "+strings.Join(l.Amenities, ", "))
	}
	if d := utils.FormatDate(l.DateAdded); d != "" {
		lines = append(lines, "Listed     : "+d)
	}
	return lines
}

func safe(v, fallback string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return fallback
	}
	return v
}

func safeFilenamePart(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "NA"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "_", "\\", "_", ":", "_", "*", "_", "?", "_", "\"", "_", "<", "_", ">", "_", "|", "_", ",", "")
	s = replacer.Replace(s)
	if len(s) > 40 {
		s = s[:40]
	}
	return s
}
