package database

import "errors"

// ErrNotReady wraps ping failures from Connect.
var ErrNotReady = errors.New("database unreachable")
