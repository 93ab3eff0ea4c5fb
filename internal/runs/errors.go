package runs

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound          = errors.New("run not found")
	ErrDuplicate         = errors.New("run already exists")
	ErrRunInProgress     = errors.New("a run is already in progress for this collection")
	ErrUnknownCollection = errors.New("unknown collection")
	ErrInvalidID         = errors.New("invalid run id")
)

// MapHTTPStatus maps run domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrRunInProgress):
		return http.StatusConflict
	case errors.Is(err, ErrUnknownCollection), errors.Is(err, ErrInvalidID):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
