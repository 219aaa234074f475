package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Credentials are posted to /auth/login.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Authenticator talks to the backend auth endpoints.
type Authenticator interface {
	Login(ctx context.Context, creds Credentials) (TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (TokenPair, error)
	Me(ctx context.Context, accessToken string) (Profile, error)
	Logout(ctx context.Context, accessToken, refreshToken string) error
}

// AuthClient is the HTTP Authenticator. BaseURL points at the API root,
// e.g. http://localhost:8080/api.
type AuthClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewAuthClient(baseURL string) *AuthClient {
	return &AuthClient{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type meResponse struct {
	User Profile `json:"user"`
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Login exchanges credentials for a token pair.
func (c *AuthClient) Login(ctx context.Context, creds Credentials) (TokenPair, error) {
	var pair TokenPair
	err := c.call(ctx, "login", http.MethodPost, "/auth/login", "", creds, &pair)
	var se *StatusError
	if errors.As(err, &se) && se.IsClientError() {
		return TokenPair{}, fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
	}
	return pair, err
}

// Refresh exchanges a refresh token for a new pair.
func (c *AuthClient) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	var pair TokenPair
	err := c.call(ctx, "refresh", http.MethodPost, "/auth/refresh", "", refreshRequest{RefreshToken: refreshToken}, &pair)
	return pair, err
}

// Me fetches the profile behind an access token.
func (c *AuthClient) Me(ctx context.Context, accessToken string) (Profile, error) {
	var out meResponse
	err := c.call(ctx, "me", http.MethodGet, "/auth/me", accessToken, nil, &out)
	return out.User, err
}

// Logout asks the backend to revoke the refresh token.
func (c *AuthClient) Logout(ctx context.Context, accessToken, refreshToken string) error {
	return c.call(ctx, "logout", http.MethodPost, "/auth/logout", accessToken, refreshRequest{RefreshToken: refreshToken}, nil)
}

func (c *AuthClient) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c *AuthClient) call(ctx context.Context, op, method, path, bearer string, body, out any) error {
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		rd = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, rd)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return networkError(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var eb errorBody
		_ = json.Unmarshal(raw, &eb)
		msg := eb.Error
		if msg == "" {
			msg = eb.Message
		}
		return &StatusError{Op: op, StatusCode: resp.StatusCode, Message: msg}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}
