package session

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrInvalidCredentials means the backend rejected a login (4xx).
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrSessionExpired means the refresh token was rejected or could not be
	// exchanged; the caller has to log in again.
	ErrSessionExpired = errors.New("session expired")
	// ErrNotAuthenticated means an authenticated call was attempted with no session.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrNetwork means no response was received.
	ErrNetwork = errors.New("network error")
)

// StatusError is a non-2xx answer from an auth endpoint.
type StatusError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, msg)
}

// IsClientError reports a 4xx answer.
func (e *StatusError) IsClientError() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}

func networkError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrNetwork, op, err)
}

// IsRetryable reports whether err is a transport failure the user may retry,
// as opposed to a rejection that needs a new login.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrNetwork) && !errors.Is(err, ErrSessionExpired)
}
