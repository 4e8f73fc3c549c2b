package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel error kinds. Every error leaving the service layer wraps exactly
// one of these so handlers can map it to a status code.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrBadRequest   = errors.New("bad request")
	ErrInternal     = errors.New("internal error")
	ErrDatabase     = errors.New("database error")
)

// Unauthorized wraps a token or credential failure.
func Unauthorized(err error) error {
	if err == nil {
		return ErrUnauthorized
	}
	return fmt.Errorf("%w: %w", ErrUnauthorized, err)
}

// BadRequest builds a client-input error with a reason.
func BadRequest(msg string) error {
	return fmt.Errorf("%w: %s", ErrBadRequest, msg)
}

// NotFound builds a missing key/id error.
func NotFound(what string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, what)
}

// Internal wraps an I/O or post-write failure.
func Internal(err error) error {
	if err == nil {
		return ErrInternal
	}
	return fmt.Errorf("%w: %w", ErrInternal, err)
}

// Database wraps a persistence error. Surfaced to clients as a 500 while
// keeping the cause for diagnostics.
func Database(err error) error {
	if err == nil {
		return ErrDatabase
	}
	return fmt.Errorf("%w: %w", ErrDatabase, err)
}

// Status returns the HTTP status for an error kind.
func Status(err error) int {
	switch {
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
