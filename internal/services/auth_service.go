package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"estatehub/internal/domain"
	"estatehub/internal/repositories"
	"estatehub/internal/utils"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const tokenIssuer = "estatehub"

// AccessClaims are carried by every access token.
type AccessClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// UserStore is the subset of UserRepository the auth flow needs.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (domain.User, error)
	FindByID(ctx context.Context, id int64) (domain.User, error)
	Create(ctx context.Context, u domain.User) (domain.User, error)
}

// RefreshTokenStore is the subset of RefreshTokenRepository the auth flow needs.
type RefreshTokenStore interface {
	Create(ctx context.Context, token string, userID int64, expiresAt time.Time) error
	Consume(ctx context.Context, token string) (int64, error)
	Revoke(ctx context.Context, token string) error
}

type AuthService struct {
	Users      UserStore
	Tokens     RefreshTokenStore
	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	RequestID  string
	Now        func() time.Time
}

func (s AuthService) users() UserStore {
	if s.Users != nil {
		return s.Users
	}
	return repositories.UserRepository{}
}

func (s AuthService) tokens() RefreshTokenStore {
	if s.Tokens != nil {
		return s.Tokens
	}
	return repositories.RefreshTokenRepository{}
}

func (s AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s AuthService) accessTTL() time.Duration {
	if s.AccessTTL > 0 {
		return s.AccessTTL
	}
	return 15 * time.Minute
}

func (s AuthService) refreshTTL() time.Duration {
	if s.RefreshTTL > 0 {
		return s.RefreshTTL
	}
	return 7 * 24 * time.Hour
}

var errBadCredentials = domain.UnauthorizedError{Msg: "invalid email or password"}

// Login checks credentials and issues a fresh token pair.
func (s AuthService) Login(ctx context.Context, email, password string) (domain.Tokens, error) {
	email = utils.NormalizeEmail(email)
	if email == "" || password == "" {
		return domain.Tokens{}, domain.ValidationError{Msg: "email and password are required"}
	}
	u, err := s.users().FindByEmail(ctx, email)
	if domain.IsNotFound(err) {
		return domain.Tokens{}, errBadCredentials
	}
	if err != nil {
		return domain.Tokens{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		utils.LogEvent(s.RequestID, "auth", "login", fmt.Sprintf("rejected user_id=%d", u.ID))
		return domain.Tokens{}, errBadCredentials
	}
	if u.Status != domain.StatusActive {
		return domain.Tokens{}, domain.ForbiddenError{Msg: "account is not active"}
	}
	utils.LogEvent(s.RequestID, "auth", "login", fmt.Sprintf("user_id=%d role=%s", u.ID, u.Role))
	return s.issue(ctx, u)
}

// Refresh consumes a refresh token and returns a rotated pair.
func (s AuthService) Refresh(ctx context.Context, refreshToken string) (domain.Tokens, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return domain.Tokens{}, domain.ValidationError{Field: "refreshToken", Msg: "required"}
	}
	userID, err := s.tokens().Consume(ctx, refreshToken)
	if err != nil {
		return domain.Tokens{}, err
	}
	u, err := s.users().FindByID(ctx, userID)
	if domain.IsNotFound(err) {
		return domain.Tokens{}, domain.UnauthorizedError{Msg: "account no longer exists", Err: err}
	}
	if err != nil {
		return domain.Tokens{}, err
	}
	if u.Status != domain.StatusActive {
		return domain.Tokens{}, domain.ForbiddenError{Msg: "account is not active"}
	}
	utils.LogEvent(s.RequestID, "auth", "refresh", fmt.Sprintf("user_id=%d", u.ID))
	return s.issue(ctx, u)
}

// Logout revokes the refresh token. Unknown tokens are ignored.
func (s AuthService) Logout(ctx context.Context, refreshToken string) error {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return nil
	}
	return s.tokens().Revoke(ctx, refreshToken)
}

// Me returns the profile for an authenticated user id.
func (s AuthService) Me(ctx context.Context, userID int64) (domain.PublicUser, error) {
	u, err := s.users().FindByID(ctx, userID)
	if err != nil {
		return domain.PublicUser{}, err
	}
	return u.ToPublic(), nil
}

type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates a customer account. Staff roles are assigned out of band.
func (s AuthService) Register(ctx context.Context, in RegisterInput) (domain.PublicUser, error) {
	name := utils.NormalizeSpace(in.Name)
	email := utils.NormalizeEmail(in.Email)
	switch {
	case name == "":
		return domain.PublicUser{}, domain.ValidationError{Field: "name", Msg: "required"}
	case email == "" || !strings.Contains(email, "@"):
		return domain.PublicUser{}, domain.ValidationError{Field: "email", Msg: "must be a valid address"}
	case len(in.Password) < 8:
		return domain.PublicUser{}, domain.ValidationError{Field: "password", Msg: "must be at least 8 characters"}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.PublicUser{}, domain.InternalError{Msg: "could not hash password", Err: err}
	}
	u, err := s.users().Create(ctx, domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         domain.RoleCustomer,
		Status:       domain.StatusActive,
		CreatedAt:    s.now(),
	})
	if err != nil {
		return domain.PublicUser{}, err
	}
	utils.LogEvent(s.RequestID, "auth", "register", fmt.Sprintf("user_id=%d", u.ID))
	return u.ToPublic(), nil
}

// ParseAccessToken verifies signature, issuer and expiry.
func (s AuthService) ParseAccessToken(raw string) (domain.RequestContext, error) {
	var claims AccessClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return s.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		msg := "invalid token"
		if errors.Is(err, jwt.ErrTokenExpired) {
			msg = "token expired"
		}
		return domain.RequestContext{}, domain.UnauthorizedError{Msg: msg, Err: err}
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return domain.RequestContext{}, domain.UnauthorizedError{Msg: "invalid token subject", Err: err}
	}
	return domain.RequestContext{UserID: id, Role: claims.Role}, nil
}

func (s AuthService) issue(ctx context.Context, u domain.User) (domain.Tokens, error) {
	if len(s.Secret) == 0 {
		return domain.Tokens{}, domain.InternalError{Msg: "token secret not configured"}
	}
	now := s.now()
	expiresAt := now.Add(s.accessTTL())
	claims := AccessClaims{
		Role: u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   strconv.FormatInt(u.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	}
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.Secret)
	if err != nil {
		return domain.Tokens{}, domain.InternalError{Msg: "could not sign token", Err: err}
	}

	refresh := uuid.NewString()
	if err := s.tokens().Create(ctx, refresh, u.ID, now.Add(s.refreshTTL())); err != nil {
		return domain.Tokens{}, err
	}
	return domain.Tokens{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresAt:    expiresAt,
	}, nil
}
