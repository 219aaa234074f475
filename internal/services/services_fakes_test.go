package services

import (
	"context"
	"sync"
	"time"

	"estatehub/internal/domain"
	"estatehub/internal/listing"
)

type fakeUsers struct {
	mu     sync.Mutex
	byID   map[int64]domain.User
	nextID int64
}

func newFakeUsers(users ...domain.User) *fakeUsers {
	f := &fakeUsers{byID: map[int64]domain.User{}, nextID: 100}
	for _, u := range users {
		f.byID[u.ID] = u
	}
	return f
}

func (f *fakeUsers) FindByEmail(_ context.Context, email string) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return domain.User{}, domain.NotFoundError{Resource: "user"}
}

func (f *fakeUsers) FindByID(_ context.Context, id int64) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return domain.User{}, domain.NotFoundError{Resource: "user"}
	}
	return u, nil
}

func (f *fakeUsers) Create(_ context.Context, u domain.User) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.byID {
		if existing.Email == u.Email {
			return domain.User{}, domain.ConflictError{Resource: "user", Msg: "email already registered"}
		}
	}
	f.nextID++
	u.ID = f.nextID
	f.byID[u.ID] = u
	return u, nil
}

type storedToken struct {
	userID    int64
	expiresAt time.Time
	revoked   bool
}

type fakeTokens struct {
	mu     sync.Mutex
	tokens map[string]*storedToken
	now    func() time.Time
}

func newFakeTokens(now func() time.Time) *fakeTokens {
	return &fakeTokens{tokens: map[string]*storedToken{}, now: now}
}

func (f *fakeTokens) Create(_ context.Context, token string, userID int64, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens[token] = &storedToken{userID: userID, expiresAt: expiresAt}
	return nil
}

func (f *fakeTokens) Consume(_ context.Context, token string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tokens[token]
	if !ok || t.revoked || !f.now().Before(t.expiresAt) {
		return 0, domain.UnauthorizedError{Msg: "invalid refresh token"}
	}
	t.revoked = true
	return t.userID, nil
}

func (f *fakeTokens) Revoke(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.tokens[token]; ok {
		t.revoked = true
	}
	return nil
}

func (f *fakeTokens) revoked(token string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tokens[token]
	return ok && t.revoked
}

type fakeListings struct {
	byKind map[listing.Kind][]listing.Listing
	err    error
}

func (f fakeListings) List(_ context.Context, kind listing.Kind) ([]listing.Listing, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byKind[kind], nil
}

func (f fakeListings) Get(_ context.Context, kind listing.Kind, id int64) (listing.Listing, error) {
	for _, l := range f.byKind[kind] {
		if l.ID == id {
			return l, nil
		}
	}
	return listing.Listing{}, domain.NotFoundError{Resource: string(kind)}
}

func intp(v int) *int           { return &v }
func floatp(v float64) *float64 { return &v }

func sampleCatalogue() fakeListings {
	day := func(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }
	return fakeListings{byKind: map[listing.Kind][]listing.Listing{
		listing.KindProperty: {
			{ID: 1, Kind: listing.KindProperty, Title: "Sunny Loft", Price: 300000, PriceKind: listing.PriceSale, Category: "apartment", Location: "Austin, TX", Bedrooms: intp(2), Bathrooms: intp(1), Area: floatp(900), DateAdded: day(1), Featured: true},
			{ID: 2, Kind: listing.KindProperty, Title: "Family House", Price: 550000, PriceKind: listing.PriceSale, Category: "house", Location: "Denver, CO", Bedrooms: intp(4), Bathrooms: intp(3), DateAdded: day(5)},
			{ID: 3, Kind: listing.KindProperty, Title: "City Studio", Price: 1800, PriceKind: listing.PriceRent, Category: "apartment", Location: "Chicago, IL", Bedrooms: intp(1), DateAdded: day(9)},
			{ID: 4, Kind: listing.KindProperty, Title: "Lake Cabin", Price: 210000, PriceKind: listing.PriceSale, Category: "house", Location: "Duluth, MN", DateAdded: day(3)},
		},
		listing.KindHotel: {
			{ID: 10, Kind: listing.KindHotel, Title: "Harbor Inn", Price: 189, PriceKind: listing.PricePerNight, Category: "boutique", Location: "Miami, FL", Rating: floatp(4.6), ReviewCount: intp(120), Amenities: []string{"wifi", "pool"}, DateAdded: day(2), Featured: true},
			{ID: 11, Kind: listing.KindHotel, Title: "Budget Stay", Price: 79, PriceKind: listing.PricePerNight, Category: "budget", Location: "Reno, NV", Rating: floatp(3.4), Amenities: []string{"wifi"}, DateAdded: day(7)},
		},
	}}
}
