package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	intconfig "estatehub/internal/config"
	"estatehub/internal/domain"
	"estatehub/internal/listing"
)

// ListingRepository reads the property and hotel catalogues.
type ListingRepository struct {
	DB *sql.DB
}

func (r ListingRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

const propertyColumns = `
	id, title, price, COALESCE(price_kind, 'sale'), COALESCE(category, ''), COALESCE(location, ''),
	bedrooms, bathrooms, area, featured, created_at,
	COALESCE(description, ''), COALESCE(image_url, '')`

const hotelColumns = `
	id, name, price_per_night, COALESCE(category, 'hotel'), COALESCE(location, ''),
	rating, review_count, COALESCE(amenities, ''), featured, created_at,
	COALESCE(description, ''), COALESCE(image_url, '')`

type scanner interface {
	Scan(dest ...any) error
}

func scanProperty(s scanner) (listing.Listing, error) {
	var (
		l         listing.Listing
		priceKind string
		beds      sql.NullInt64
		baths     sql.NullInt64
		area      sql.NullFloat64
	)
	if err := s.Scan(
		&l.ID, &l.Title, &l.Price, &priceKind, &l.Category, &l.Location,
		&beds, &baths, &area, &l.Featured, &l.DateAdded,
		&l.Description, &l.ImageURL,
	); err != nil {
		return listing.Listing{}, err
	}
	l.Kind = listing.KindProperty
	l.PriceKind = listing.PriceKind(priceKind)
	l.Bedrooms = nullInt(beds)
	l.Bathrooms = nullInt(baths)
	l.Area = nullFloat(area)
	return l, nil
}

func scanHotel(s scanner) (listing.Listing, error) {
	var (
		l         listing.Listing
		rating    sql.NullFloat64
		reviews   sql.NullInt64
		amenities string
	)
	if err := s.Scan(
		&l.ID, &l.Title, &l.Price, &l.Category, &l.Location,
		&rating, &reviews, &amenities, &l.Featured, &l.DateAdded,
		&l.Description, &l.ImageURL,
	); err != nil {
		return listing.Listing{}, err
	}
	l.Kind = listing.KindHotel
	l.PriceKind = listing.PricePerNight
	l.Rating = nullFloat(rating)
	l.ReviewCount = nullInt(reviews)
	l.Amenities = listing.SplitTags(amenities)
	return l, nil
}

// ListProperties returns every published property in id order.
func (r ListingRepository) ListProperties(ctx context.Context) ([]listing.Listing, error) {
	return r.list(ctx, `SELECT `+propertyColumns+` FROM properties WHERE published = 1 ORDER BY id`, scanProperty)
}

// ListHotels returns every published hotel in id order.
func (r ListingRepository) ListHotels(ctx context.Context) ([]listing.Listing, error) {
	return r.list(ctx, `SELECT `+hotelColumns+` FROM hotels WHERE published = 1 ORDER BY id`, scanHotel)
}

// List dispatches on kind.
func (r ListingRepository) List(ctx context.Context, kind listing.Kind) ([]listing.Listing, error) {
	switch kind {
	case listing.KindProperty:
		return r.ListProperties(ctx)
	case listing.KindHotel:
		return r.ListHotels(ctx)
	default:
		return nil, domain.ValidationError{Field: "kind", Msg: fmt.Sprintf("unknown listing kind %q", kind)}
	}
}

// Get fetches one published listing.
func (r ListingRepository) Get(ctx context.Context, kind listing.Kind, id int64) (listing.Listing, error) {
	if id <= 0 {
		return listing.Listing{}, domain.ValidationError{Field: "id", Msg: "invalid id"}
	}
	db := r.db()
	if db == nil {
		return listing.Listing{}, domain.InternalError{Msg: "database not connected"}
	}

	var (
		l   listing.Listing
		err error
	)
	switch kind {
	case listing.KindProperty:
		l, err = scanProperty(db.QueryRowContext(ctx, `SELECT `+propertyColumns+` FROM properties WHERE id = ? AND published = 1 LIMIT 1`, id))
	case listing.KindHotel:
		l, err = scanHotel(db.QueryRowContext(ctx, `SELECT `+hotelColumns+` FROM hotels WHERE id = ? AND published = 1 LIMIT 1`, id))
	default:
		return listing.Listing{}, domain.ValidationError{Field: "kind", Msg: fmt.Sprintf("unknown listing kind %q", kind)}
	}
	if errors.Is(err, sql.ErrNoRows) {
		return listing.Listing{}, domain.NotFoundError{Resource: string(kind), Err: err}
	}
	if err != nil {
		return listing.Listing{}, fmt.Errorf("get %s %d: %w", kind, id, err)
	}
	return l, nil
}

func (r ListingRepository) list(ctx context.Context, query string, scan func(scanner) (listing.Listing, error)) ([]listing.Listing, error) {
	db := r.db()
	if db == nil {
		return nil, domain.InternalError{Msg: "database not connected"}
	}
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []listing.Listing{}
	for rows.Next() {
		l, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func nullInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	x := int(v.Int64)
	return &x
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	x := v.Float64
	return &x
}
