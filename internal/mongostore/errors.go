package mongostore

import "errors"

var (
	ErrUnknownCollection = errors.New("unknown collection")
	ErrInvalidID         = errors.New("invalid document id")
	ErrNotReady          = errors.New("mongo not ready")
)
