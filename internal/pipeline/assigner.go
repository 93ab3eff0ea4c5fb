package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/JaimeStill/moodmap/internal/assignments"
	"github.com/JaimeStill/moodmap/internal/corpus"
	"github.com/JaimeStill/moodmap/pkg/vector"
)

const scorePlaces = 4

// Assigner turns one document into its assignment record. It holds no
// mutable state and is safe for concurrent use.
type Assigner struct {
	model     *Model
	method    Method
	normalize bool
}

// NewAssigner creates an Assigner over model.
func NewAssigner(model *Model, method Method, normalize bool) *Assigner {
	return &Assigner{
		model:     model,
		method:    method,
		normalize: normalize,
	}
}

// Assign scores doc against every scorable category and selects its final
// category: the refiner's prediction when one is attached, otherwise the top
// similarity score or the nearest prototype. Documents without an embedding
// or with the wrong dimensionality fail with ErrDataGap.
func (a *Assigner) Assign(doc corpus.Document) (assignments.Record, error) {
	if !doc.HasEmbedding() {
		return assignments.Record{}, fmt.Errorf("%w: %s", ErrDataGap, doc.ID)
	}

	v := doc.Embedding
	if a.normalize {
		v = vector.Normalize(v)
	}

	scores, err := a.model.Scorer.Score(v, a.model.Catalog)
	if err != nil {
		return assignments.Record{}, fmt.Errorf("%w: %s: %w", ErrDataGap, doc.ID, err)
	}

	protoID, protoSim := a.model.Prototypes.Classify(v)

	diags := &assignments.Diagnostics{
		Reducer:             string(a.model.Scorer.Reducer()),
		Scores:              make(map[string]float64, len(scores)),
		TopSimilarities:     make(map[string][]float64, len(scores)),
		PrototypeCategory:   protoID,
		PrototypeSimilarity: vector.Round(protoSim, scorePlaces),
	}
	for _, s := range scores {
		diags.Scores[s.Label] = vector.Round(s.Score, scorePlaces)
		diags.TopSimilarities[s.Label] = s.Top
	}

	var (
		final int
		score float64
	)

	switch {
	case a.model.Supervised():
		final, score, err = a.supervised(v)
		if err != nil {
			return assignments.Record{}, fmt.Errorf("%w: %s: %w", ErrDataGap, doc.ID, err)
		}
		agree := final == protoID
		diags.Method = assignments.MethodSupervised
		diags.SupervisedCategory = &final
		diags.Agreement = &agree
	case a.method == MethodPrototype:
		final, score = protoID, protoSim
		diags.Method = assignments.MethodPrototype
	default:
		final, score = scores[0].CategoryID, scores[0].Score
		diags.Method = assignments.MethodSimilarity
	}

	cat, _ := a.model.Catalog.Lookup(final)

	return assignments.Record{
		DocumentID:  doc.ID,
		Collection:  doc.Collection,
		Title:       assignments.Title(doc.Author, doc.Timestamp),
		Text:        doc.Text,
		Author:      doc.Author,
		Timestamp:   doc.Timestamp,
		CategoryID:  cat.ID,
		Label:       cat.Label,
		Color:       cat.Color,
		Score:       vector.Round(score, scorePlaces),
		Vector:      v,
		Diagnostics: diags,
	}, nil
}

func (a *Assigner) supervised(v []float32) (int, float64, error) {
	probs, err := a.model.Refiner.Probabilities(v)
	if err != nil {
		return 0, 0, err
	}
	classes := a.model.Refiner.Classes()
	best := 0
	for c := 1; c < len(probs); c++ {
		if probs[c] > probs[best] {
			best = c
		}
	}
	return classes[best], probs[best], nil
}

// Summary counts the outcome of one streaming pass. Failed counts documents
// in batches that could not be written after a retry; their ids are listed
// in FailedDocuments for manual reprocessing.
type Summary struct {
	Processed       int      `json:"processed"`
	Skipped         int      `json:"skipped"`
	Retried         int      `json:"retried"`
	Failed          int      `json:"failed"`
	Batches         int      `json:"batches"`
	FailedDocuments []string `json:"failed_documents,omitempty"`
}

// BatchOptions controls a streaming pass.
type BatchOptions struct {
	Collection  string
	BatchSize   int
	PageSize    int
	LogInterval int
	Limit       int
}

// BatchAssigner streams documents through an Assigner and writes the
// records to a Sink in fixed-size batches.
type BatchAssigner struct {
	assigner *Assigner
	sink     Sink
	opts     BatchOptions
	logger   *slog.Logger
}

// NewBatchAssigner creates a BatchAssigner.
func NewBatchAssigner(assigner *Assigner, sink Sink, opts BatchOptions, logger *slog.Logger) *BatchAssigner {
	if opts.BatchSize < 1 {
		opts.BatchSize = 100
	}
	if opts.LogInterval < 1 {
		opts.LogInterval = 100
	}
	return &BatchAssigner{
		assigner: assigner,
		sink:     sink,
		opts:     opts,
		logger:   logger,
	}
}

// Run makes one pass over every embedded document in the collection. Data
// gaps are skipped and write failures are retried once, then counted; only
// stream errors and cancellation end the pass early. Records written before
// an early return are left in place.
func (b *BatchAssigner) Run(ctx context.Context, docs DocumentSource) (Summary, error) {
	var (
		summary Summary
		seen    int
		batch   = make([]assignments.Record, 0, b.opts.BatchSize)
	)

	streamOpts := corpus.StreamOptions{
		Collection:       b.opts.Collection,
		RequireEmbedding: true,
		Limit:            b.opts.Limit,
		PageSize:         b.opts.PageSize,
	}

	err := docs.Stream(ctx, streamOpts, func(doc corpus.Document) error {
		seen++

		rec, err := b.assigner.Assign(doc)
		if err != nil {
			summary.Skipped++
			b.logger.Debug("document skipped", "document_id", doc.ID, "error", err)
		} else {
			batch = append(batch, rec)
		}

		if len(batch) >= b.opts.BatchSize {
			if err := b.flush(ctx, batch, &summary); err != nil {
				return err
			}
			batch = make([]assignments.Record, 0, b.opts.BatchSize)
		}

		if seen%b.opts.LogInterval == 0 {
			b.logger.Info("assignment progress", "seen", seen, "processed", summary.Processed, "skipped", summary.Skipped)
		}
		return nil
	})
	if err != nil {
		return summary, fmt.Errorf("stream documents: %w", err)
	}

	if len(batch) > 0 {
		if err := b.flush(ctx, batch, &summary); err != nil {
			return summary, err
		}
	}

	return summary, nil
}

// flush writes batch, retrying once. It returns an error only when ctx is
// done; a persistent write failure is logged and counted.
func (b *BatchAssigner) flush(ctx context.Context, batch []assignments.Record, summary *Summary) error {
	summary.Batches++

	err := b.sink.UpsertBatch(ctx, batch)
	if err == nil {
		summary.Processed += len(batch)
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	b.logger.Error("batch upsert failed, retrying", "batch", summary.Batches, "size", len(batch), "error", err)
	summary.Retried++

	err = b.sink.UpsertBatch(ctx, batch)
	if err == nil {
		summary.Processed += len(batch)
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	ids := make([]string, len(batch))
	for i, rec := range batch {
		ids[i] = rec.DocumentID
	}

	b.logger.Warn("batch dropped after retry",
		"batch", summary.Batches,
		"error", fmt.Errorf("%w: %w", ErrWriteFailure, err),
		"document_ids", ids,
	)
	summary.Failed += len(batch)
	summary.FailedDocuments = append(summary.FailedDocuments, ids...)
	return nil
}
