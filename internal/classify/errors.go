package classify

import "errors"

// Configuration errors abort a run. They are always wrapped with ErrConfiguration.
var (
	ErrConfiguration       = errors.New("configuration error")
	ErrNoReferences        = errors.New("no category has reference vectors")
	ErrDuplicateCategory   = errors.New("duplicate category id")
	ErrDimensionMismatch   = errors.New("embedding dimension mismatch")
	ErrInsufficientClasses = errors.New("supervised training requires at least 2 distinct categories")
	ErrInvalidTrainingSet  = errors.New("invalid training set")
	ErrUnknownReducer      = errors.New("unknown similarity reducer")
)

// Recoverable conditions.
var (
	ErrStageSkipped = errors.New("stage skipped")
	ErrNotFitted    = errors.New("refiner has not been fitted")
)
