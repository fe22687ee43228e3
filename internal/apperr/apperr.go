// Package apperr defines the error taxonomy shared by all services and the
// mapping to HTTP status codes.
package apperr

import (
	"errors"
	"net/http"
)

var (
	// ErrUnauthenticated means the caller's token is missing, malformed,
	// or no longer valid.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrForbidden means the caller's role or ownership does not permit
	// the operation.
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound means the entity does not exist or belongs to another
	// house group.
	ErrNotFound = errors.New("not found")

	// ErrValidation means a required field is missing or malformed.
	ErrValidation = errors.New("validation failed")

	// ErrConflict means an invariant would be violated, such as demoting
	// the last admin.
	ErrConflict = errors.New("conflict")

	// ErrUpstream means the store or storage backend failed. Its detail
	// is never sent to clients.
	ErrUpstream = errors.New("upstream failure")
)

// Status maps an error to its HTTP status code. Unrecognized errors are
// treated as upstream failures.
func Status(err error) int {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrValidation), errors.Is(err, ErrConflict):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
