// Package pipeline runs the emotion assignment: it builds the category
// model, optionally trains and evaluates the supervised refiner on labeled
// examples, and streams every embedded document through the final stage
// into the assignment store.
package pipeline

import (
	"context"
	"log/slog"

	"github.com/JaimeStill/moodmap/internal/assignments"
	"github.com/JaimeStill/moodmap/internal/classify"
	"github.com/JaimeStill/moodmap/internal/corpus"
)

// CategorySource provides the validated category catalog for a run.
type CategorySource interface {
	Catalog(ctx context.Context) (*classify.Catalog, error)
}

// DocumentSource streams documents with a keyset cursor.
type DocumentSource interface {
	Stream(ctx context.Context, opts corpus.StreamOptions, fn func(corpus.Document) error) error
}

// LabelSource provides manually labeled examples.
type LabelSource interface {
	Labeled(ctx context.Context, collection string) ([]classify.Example, error)
}

// Sink receives assignment records in batches, upserting by document id.
type Sink interface {
	UpsertBatch(ctx context.Context, records []assignments.Record) error
}

// Runtime bundles the collaborators a run requires. Archive is optional;
// without it trained models are neither saved nor reused.
type Runtime struct {
	Categories CategorySource
	Documents  DocumentSource
	Labels     LabelSource
	Sink       Sink
	Archive    *Archive
	Logger     *slog.Logger
}
