package assignments

import (
	"errors"
	"net/http"
)

// Domain errors for assignment operations.
var (
	ErrNotFound  = errors.New("assignment not found")
	ErrDuplicate = errors.New("assignment already exists")
	ErrInvalidID = errors.New("invalid document id")
)

// MapHTTPStatus maps assignment domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidID):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
