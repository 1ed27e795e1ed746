package client

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotLoggedIn means a protected call was made without a stored session.
	ErrNotLoggedIn = errors.New("not logged in")
	// ErrSessionExpired means the server rejected the stored token; the session has been cleared.
	ErrSessionExpired = errors.New("session expired, please log in again")
)

// APIError is a non-2xx response decoded from the server's error body.
type APIError struct {
	StatusCode int               `json:"-"`
	Code       string            `json:"code"`
	Message    string            `json:"error"`
	Details    map[string]string `json:"details,omitempty"`
	// RetryAfter is set from the Retry-After header on 429 responses.
	RetryAfter string `json:"-"`
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if len(e.Details) == 0 {
		return fmt.Sprintf("%s (HTTP %d)", msg, e.StatusCode)
	}
	return fmt.Sprintf("%s (HTTP %d): %v", msg, e.StatusCode, e.Details)
}

// StatusCode returns the HTTP status carried by err, or 0 if err is not an APIError.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

func IsNotFound(err error) bool { return StatusCode(err) == http.StatusNotFound }

func IsConflict(err error) bool { return StatusCode(err) == http.StatusConflict }
