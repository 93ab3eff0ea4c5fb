package corpus

import (
	"errors"
	"net/http"
)

// Domain errors for corpus operations.
var (
	ErrNotFound        = errors.New("document not found")
	ErrDuplicate       = errors.New("document already exists")
	ErrInvalidID       = errors.New("invalid document id")
	ErrUnknownCategory = errors.New("unknown category")
	ErrInvalidLabel    = errors.New("invalid label")
	ErrInvalidCSV      = errors.New("invalid csv")
	ErrConflictingScan = errors.New("require_embedding and missing_embedding are mutually exclusive")
	ErrFileTooLarge    = errors.New("file exceeds maximum upload size")
	ErrNoCollection    = errors.New("collection required")
)

// MapHTTPStatus maps corpus domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrInvalidID),
		errors.Is(err, ErrUnknownCategory),
		errors.Is(err, ErrInvalidLabel),
		errors.Is(err, ErrInvalidCSV),
		errors.Is(err, ErrNoCollection):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
