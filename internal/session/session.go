package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Profile is the user payload returned by GET /auth/me.
type Profile struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Session is the token pair for the logged-in user.
type Session struct {
	AccessToken  string
	RefreshToken string
	// Expiry comes from the access token's exp claim; zero for opaque tokens.
	Expiry time.Time
	User   *Profile
}

// TokenPair is what the login and refresh endpoints hand out.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

func newSession(pair TokenPair, user *Profile) Session {
	return Session{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		Expiry:       tokenExpiry(pair.AccessToken),
		User:         user,
	}
}

// Expired reports whether the access token is known to be past its expiry.
func (s Session) Expired(now time.Time) bool {
	return !s.Expiry.IsZero() && !now.Before(s.Expiry)
}

func (s Session) sameTokens(o Session) bool {
	return s.AccessToken == o.AccessToken && s.RefreshToken == o.RefreshToken
}

// tokenExpiry reads exp without verifying the signature.
func tokenExpiry(token string) time.Time {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}
