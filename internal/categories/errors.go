package categories

import (
	"errors"
	"net/http"
)

// Domain errors for category operations.
var (
	ErrNotFound    = errors.New("category not found")
	ErrDuplicate   = errors.New("category already exists")
	ErrInUse       = errors.New("category is referenced by labels")
	ErrInvalidSeed = errors.New("invalid category seed")
	ErrInvalidID   = errors.New("invalid category id")
)

// MapHTTPStatus maps category domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate), errors.Is(err, ErrInUse):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidSeed), errors.Is(err, ErrInvalidID):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
