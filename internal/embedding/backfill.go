package embedding

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/moodmap/internal/corpus"
)

// Mode selects which documents a backfill embeds.
type Mode string

const (
	// ModeContinue embeds only documents without a vector.
	ModeContinue Mode = "continue"
	// ModeRebuild clears every vector in the collection first.
	ModeRebuild Mode = "rebuild"
)

// ParseMode validates a backfill mode name.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeContinue, ModeRebuild:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

const progressInterval = 100

// Store is the document store a backfill reads from and writes to.
type Store interface {
	Stream(ctx context.Context, opts corpus.StreamOptions, fn func(corpus.Document) error) error
	Count(ctx context.Context, opts corpus.StreamOptions) (int, error)
	SetEmbedding(ctx context.Context, collection, id string, embedding []float32) error
	ClearEmbeddings(ctx context.Context, collection string) (int64, error)
}

// BackfillResult summarizes one backfill.
type BackfillResult struct {
	Cleared  int64 `json:"cleared"`
	Embedded int64 `json:"embedded"`
	Skipped  int64 `json:"skipped"`
	Failed   int64 `json:"failed"`
}

// Backfill embeds stored documents on a bounded worker pool.
type Backfill struct {
	store    Store
	provider Provider
	prefix   string
	workers  int
	logger   *slog.Logger
}

// NewBackfill creates a backfill using the provider, prefix, and worker
// count from cfg.
func NewBackfill(store Store, provider Provider, cfg *Config, logger *slog.Logger) *Backfill {
	return &Backfill{
		store:    store,
		provider: provider,
		prefix:   cfg.Prefix,
		workers:  max(cfg.Workers, 1),
		logger:   logger.With("system", "backfill"),
	}
}

// Run embeds the collection's documents. Documents with blank text are
// skipped; a document that fails to embed or store is logged and counted
// and the backfill continues. Limit caps the documents visited; zero
// means no limit.
func (b *Backfill) Run(ctx context.Context, collection string, mode Mode, limit int) (BackfillResult, error) {
	var result BackfillResult

	if mode == ModeRebuild {
		n, err := b.store.ClearEmbeddings(ctx, collection)
		if err != nil {
			return result, err
		}
		result.Cleared = n
	}

	opts := corpus.StreamOptions{Collection: collection, MissingEmbedding: true, Limit: limit}

	total, err := b.store.Count(ctx, corpus.StreamOptions{Collection: collection})
	if err != nil {
		return result, err
	}
	missing, err := b.store.Count(ctx, opts)
	if err != nil {
		return result, err
	}
	b.logger.Info("backfill started",
		"collection", collection,
		"mode", mode,
		"total", total,
		"missing", missing,
		"workers", b.workers,
	)

	var embedded, skipped, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)

	streamErr := b.store.Stream(gctx, opts, func(doc corpus.Document) error {
		text := strings.TrimSpace(doc.Text)
		if text == "" {
			skipped.Add(1)
			return nil
		}

		g.Go(func() error {
			v, err := b.provider.Embed(gctx, b.prefix+text)
			if err == nil {
				err = b.store.SetEmbedding(gctx, collection, doc.ID, v)
			}
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				failed.Add(1)
				b.logger.Warn("document embedding failed", "id", doc.ID, "error", err)
				return nil
			}

			if n := embedded.Add(1); n%progressInterval == 0 {
				b.logger.Info("backfill progress", "embedded", n, "missing", missing)
			}
			return nil
		})
		return nil
	})

	waitErr := g.Wait()

	result.Embedded = embedded.Load()
	result.Skipped = skipped.Load()
	result.Failed = failed.Load()

	if streamErr != nil {
		return result, fmt.Errorf("stream documents: %w", streamErr)
	}
	if waitErr != nil {
		return result, waitErr
	}

	b.logger.Info("backfill complete",
		"collection", collection,
		"cleared", result.Cleared,
		"embedded", result.Embedded,
		"skipped", result.Skipped,
		"failed", result.Failed,
	)
	return result, nil
}
