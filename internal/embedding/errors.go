package embedding

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownProvider = errors.New("unknown embedding provider")
	ErrUnknownMode     = errors.New("unknown backfill mode")
	ErrEmptyEmbedding  = errors.New("provider returned an empty embedding")
)

// APIError is a non-2xx response from an embedding server.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("embedding server HTTP %d: %s", e.StatusCode, e.Body)
}
