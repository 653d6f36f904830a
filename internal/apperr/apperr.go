package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrRiderUnavailable = errors.New("rider not available")
	ErrNoCandidate      = errors.New("no riders available")
	ErrPersistence      = errors.New("persistence failure")

	// ErrInvalidTransition is also an ErrInvalidArgument.
	ErrInvalidTransition = fmt.Errorf("invalid status transition: %w", ErrInvalidArgument)
)

// HTTPStatus maps an error to the status code the API responds with.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrRiderUnavailable):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, ErrNoCandidate):
		return http.StatusOK
	default:
		return http.StatusInternalServerError
	}
}
