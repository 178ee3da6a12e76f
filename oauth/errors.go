// Package oauth implements the Forge authentication API: a cached 2-legged
// (client credentials) token flow and stateless 3-legged pass-throughs.
package oauth

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for HTTP status classification on the auth endpoints.
// Use errors.Is(err, oauth.ErrUnauthorized) to check.
var (
	ErrBadRequest   = errors.New("oauth: bad request")
	ErrUnauthorized = errors.New("oauth: unauthorized")
	ErrForbidden    = errors.New("oauth: forbidden")
	ErrServerError  = errors.New("oauth: server error")
)

// APIError wraps a non-2xx response from the authentication service with
// the HTTP status and response body for debugging.
type APIError struct {
	StatusCode int
	Body       string
	Err        error // sentinel, for errors.Is()
}

func (e *APIError) Error() string {
	return fmt.Sprintf("oauth: HTTP %d: %s", e.StatusCode, e.Body)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// classifyStatus maps an HTTP status code to a sentinel error.
func classifyStatus(code int) error {
	switch code {
	case http.StatusBadRequest:
		return ErrBadRequest
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	default:
		if code >= http.StatusInternalServerError {
			return ErrServerError
		}

		return nil
	}
}
