package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	intconfig "estatehub/internal/config"
	"estatehub/internal/domain"
	"estatehub/internal/services"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "router-test-secret"

var propertyCols = []string{
	"id", "title", "price", "price_kind", "category", "location",
	"bedrooms", "bathrooms", "area", "featured", "created_at", "description", "image_url",
}

func setupRouter(t *testing.T) (*gin.Engine, sqlmock.Sqlmock) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	prev := intconfig.DB
	intconfig.DB = db
	t.Cleanup(func() {
		intconfig.DB = prev
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("expectations: %v", err)
		}
		db.Close()
	})

	r := NewRouter(intconfig.Env{
		JWTSecret:       testSecret,
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: time.Hour,
		ListingPageSize: 2,
		CORSOrigins:     []string{"http://localhost:5173"},
	})
	return r, mock
}

func doRequest(r http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func mintToken(t *testing.T, userID int64, role string) string {
	t.Helper()
	now := time.Now()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, services.AccessClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "estatehub",
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
		},
	}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return tok
}

func expectProperties(mock sqlmock.Sqlmock) {
	day := func(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }
	mock.ExpectQuery(regexp.QuoteMeta("FROM properties WHERE published = 1 ORDER BY id")).
		WillReturnRows(sqlmock.NewRows(propertyCols).
			AddRow(1, "Sunny Loft", 300000.0, "sale", "apartment", "Austin, TX", 2, 1, 900.0, true, day(1), "", "").
			AddRow(2, "Family House", 550000.0, "sale", "house", "Denver, CO", 4, 3, nil, false, day(5), "", "").
			AddRow(3, "Lake Cabin", 210000.0, "sale", "house", "Duluth, MN", nil, nil, nil, false, day(3), "", "").
			AddRow(4, "Garden House", 410000.0, "sale", "house", "Boise, ID", 3, 2, nil, false, day(7), "", ""))
}

func TestHealthSetsRequestID(t *testing.T) {
	r, _ := setupRouter(t)
	w := doRequest(r, http.MethodGet, "/api/health", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatalf("missing X-Request-ID header")
	}
}

func TestUnknownRoute(t *testing.T) {
	r, _ := setupRouter(t)
	if w := doRequest(r, http.MethodGet, "/api/nope", "", nil); w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestListPropertiesFiltersSortsAndPaginates(t *testing.T) {
	r, mock := setupRouter(t)
	expectProperties(mock)

	w := doRequest(r, http.MethodGet, "/api/properties?type=house&sort=price-asc&page=2", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body)
	}
	var body struct {
		Items []struct {
			ID int64 `json:"id"`
		} `json:"items"`
		TotalMatching int `json:"totalMatching"`
		TotalPages    int `json:"totalPages"`
		CurrentPage   int `json:"currentPage"`
		Filters       struct {
			Type string `json:"type"`
			Page int    `json:"page"`
		} `json:"filters"`
		Meta struct {
			Categories map[string]int `json:"categories"`
		} `json:"meta"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.TotalMatching != 3 || body.TotalPages != 2 || body.CurrentPage != 2 {
		t.Fatalf("unexpected paging %+v", body)
	}
	if len(body.Items) != 1 || body.Items[0].ID != 2 {
		t.Fatalf("page 2 items = %+v, want [2]", body.Items)
	}
	if body.Filters.Type != "house" || body.Filters.Page != 2 {
		t.Fatalf("filters echo = %+v", body.Filters)
	}
	if body.Meta.Categories["house"] != 3 || body.Meta.Categories["apartment"] != 1 {
		t.Fatalf("meta categories = %v", body.Meta.Categories)
	}
}

func TestGetPropertyNotFound(t *testing.T) {
	r, mock := setupRouter(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM properties WHERE id = ?")).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows(propertyCols))

	if w := doRequest(r, http.MethodGet, "/api/properties/42", "", nil); w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
	if w := doRequest(r, http.MethodGet, "/api/properties/abc", "", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("bad id status = %d", w.Code)
	}
}

func TestBrochureIsPDF(t *testing.T) {
	r, mock := setupRouter(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM properties WHERE id = ?")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(propertyCols).
			AddRow(1, "Sunny Loft", 300000.0, "sale", "apartment", "Austin, TX", 2, 1, 900.0, true, time.Now(), "Bright corner unit.", ""))

	w := doRequest(r, http.MethodGet, "/api/properties/1/brochure", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("content type = %q", ct)
	}
	if !strings.Contains(w.Header().Get("Content-Disposition"), "PROPERTY_1_Sunny_Loft.pdf") {
		t.Fatalf("content disposition = %q", w.Header().Get("Content-Disposition"))
	}
}

func TestLoginThenMe(t *testing.T) {
	r, mock := setupRouter(t)
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	userCols := []string{"id", "name", "email", "password_hash", "role", "status", "created_at"}
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = ?")).
		WithArgs("ana@example.com").
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow(7, "Ana", "ana@example.com", string(hash), domain.RoleAgent, domain.StatusActive, time.Now()))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO refresh_tokens")).
		WithArgs(sqlmock.AnyArg(), int64(7), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	w := doRequest(r, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ana@example.com", "password": "correct-horse"})
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d body=%s", w.Code, w.Body)
	}
	var toks domain.Tokens
	if err := json.Unmarshal(w.Body.Bytes(), &toks); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if toks.AccessToken == "" || toks.RefreshToken == "" {
		t.Fatalf("tokens missing: %s", w.Body)
	}

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = ?")).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow(7, "Ana", "ana@example.com", string(hash), domain.RoleAgent, domain.StatusActive, time.Now()))

	w = doRequest(r, http.MethodGet, "/api/auth/me", toks.AccessToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("me status = %d body=%s", w.Code, w.Body)
	}
	var me struct {
		User domain.PublicUser `json:"user"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &me); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if me.User.ID != 7 || me.User.Role != domain.RoleAgent {
		t.Fatalf("me = %+v", me.User)
	}
	if strings.Contains(w.Body.String(), "password") {
		t.Fatalf("profile leaks password hash")
	}
}

func TestLoginRejectsEmptyBody(t *testing.T) {
	r, _ := setupRouter(t)
	if w := doRequest(r, http.MethodPost, "/api/auth/login", "", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestMeRequiresBearer(t *testing.T) {
	r, _ := setupRouter(t)
	if w := doRequest(r, http.MethodGet, "/api/auth/me", "", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("no token status = %d", w.Code)
	}
	if w := doRequest(r, http.MethodGet, "/api/auth/me", "garbage", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("bad token status = %d", w.Code)
	}
}

func TestLogoutAlwaysNoContent(t *testing.T) {
	r, mock := setupRouter(t)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE refresh_tokens SET revoked_at = ?")).
		WithArgs(sqlmock.AnyArg(), "tok").
		WillReturnError(errors.New("db down"))

	if w := doRequest(r, http.MethodPost, "/api/auth/logout", "", map[string]string{"refreshToken": "tok"}); w.Code != http.StatusNoContent {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestDashboardRoles(t *testing.T) {
	r, mock := setupRouter(t)

	if w := doRequest(r, http.MethodGet, "/api/dashboard/summary", "", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous status = %d", w.Code)
	}
	if w := doRequest(r, http.MethodGet, "/api/dashboard/summary", mintToken(t, 9, domain.RoleCustomer), nil); w.Code != http.StatusForbidden {
		t.Fatalf("customer status = %d", w.Code)
	}

	expectProperties(mock)
	w := doRequest(r, http.MethodGet, "/api/dashboard/summary", mintToken(t, 7, domain.RoleAgent), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("agent status = %d body=%s", w.Code, w.Body)
	}
	var sum services.DashboardSummary
	if err := json.Unmarshal(w.Body.Bytes(), &sum); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sum.Role != domain.RoleAgent || len(sum.Catalogues) != 1 || sum.Catalogues[0].Total != 4 {
		t.Fatalf("summary = %+v", sum)
	}
}

func TestDBCheckReportsMissingTables(t *testing.T) {
	r, mock := setupRouter(t)
	q := regexp.QuoteMeta("FROM information_schema.tables")
	for _, table := range []string{"users", "refresh_tokens", "properties"} {
		mock.ExpectQuery(q).WithArgs(table).
			WillReturnRows(sqlmock.NewRows([]string{"table_name"}).AddRow(table))
	}
	mock.ExpectQuery(q).WithArgs("hotels").WillReturnRows(sqlmock.NewRows([]string{"table_name"}))

	w := doRequest(r, http.MethodGet, "/api/db-check", "", nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "hotels") {
		t.Fatalf("body should name the missing table: %s", w.Body)
	}
}

func TestCORSPreflight(t *testing.T) {
	r, _ := setupRouter(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/properties", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Fatalf("allow origin = %q", got)
	}
}
