package pipeline

import "errors"

// Recoverable per-document and per-batch conditions. Neither aborts a run.
var (
	ErrDataGap      = errors.New("document has no usable embedding")
	ErrWriteFailure = errors.New("batch upsert failed")
)

var (
	ErrUnknownMethod = errors.New("unknown assignment method")
	ErrNoModel       = errors.New("no archived model")
	ErrModelMismatch = errors.New("archived model does not match the category catalog")
)
