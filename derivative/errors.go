// Package derivative is a client for the Model Derivative API: translation
// jobs, manifests, metadata, thumbnails, and derivative downloads.
package derivative

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for HTTP status code classification.
// Use errors.Is(err, derivative.ErrNotFound) to check.
var (
	ErrBadRequest      = errors.New("derivative: bad request")
	ErrUnauthorized    = errors.New("derivative: unauthorized")
	ErrForbidden       = errors.New("derivative: forbidden")
	ErrNotFound        = errors.New("derivative: not found")
	ErrConflict        = errors.New("derivative: conflict")
	ErrTooManyRequests = errors.New("derivative: rate limited")
	ErrServerError     = errors.New("derivative: server error")
)

// APIError wraps a sentinel error with HTTP status code, request ID, and
// the API error message body for debugging.
type APIError struct {
	StatusCode int
	RequestID  string
	Message    string
	Err        error // sentinel, for errors.Is()
}

func (e *APIError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("derivative: HTTP %d (request-id: %s): %s", e.StatusCode, e.RequestID, e.Message)
	}

	return fmt.Sprintf("derivative: HTTP %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// classifyStatus maps an HTTP status code to a sentinel error.
// Returns nil for 2xx success codes.
func classifyStatus(code int) error {
	switch code {
	case http.StatusBadRequest:
		return ErrBadRequest
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrConflict
	case http.StatusTooManyRequests:
		return ErrTooManyRequests
	default:
		if code >= http.StatusInternalServerError {
			return ErrServerError
		}

		return nil
	}
}
