// Package backend binds the configured store backend to the contracts the
// command-line tools share. The Postgres backend is the domain systems the
// API serves; the mongo backend is a single mongostore.Store.
package backend

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/JaimeStill/moodmap/internal/assignments"
	"github.com/JaimeStill/moodmap/internal/categories"
	"github.com/JaimeStill/moodmap/internal/classify"
	"github.com/JaimeStill/moodmap/internal/config"
	"github.com/JaimeStill/moodmap/internal/corpus"
	"github.com/JaimeStill/moodmap/internal/embedding"
	"github.com/JaimeStill/moodmap/internal/infrastructure"
	"github.com/JaimeStill/moodmap/internal/mongostore"
	"github.com/JaimeStill/moodmap/internal/pipeline"
	"github.com/JaimeStill/moodmap/internal/runs"
)

// Categories reads the catalog and replaces the category table.
type Categories interface {
	Catalog(ctx context.Context) (*classify.Catalog, error)
	Replace(ctx context.Context, cats []categories.Category) error
}

// Documents is everything the tools do with stored documents.
type Documents interface {
	embedding.Store
	pipeline.LabelSource
	Insert(ctx context.Context, docs []corpus.NewDocument) (corpus.InsertResult, error)
}

// Backend is the set of stores for one configured backend.
type Backend struct {
	Kind       config.Backend
	Categories Categories
	Documents  Documents
	Sink       pipeline.Sink
	Runtime    *pipeline.Runtime

	// Runs records assignment runs. It is nil for the mongo backend, which
	// has no run ledger.
	Runs runs.System

	connect func(ctx context.Context) error
	close   func(ctx context.Context) error
}

// New wires the backend selected by cfg.Store from infra.
func New(cfg *config.Config, infra *infrastructure.Infrastructure) (*Backend, error) {
	logger := infra.Logger.With("backend", cfg.Store)
	archive := pipeline.NewArchive(infra.Storage, logger)

	switch cfg.Store {
	case config.BackendMongo:
		if infra.Mongo == nil {
			return nil, fmt.Errorf("%w: mongo store not initialized", config.ErrUnknownBackend)
		}
		return newMongo(infra.Mongo, archive, logger), nil
	case config.BackendPostgres:
		return newPostgres(cfg, infra, archive, logger), nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownBackend, cfg.Store)
	}
}

// Connect verifies the backing store is reachable.
func (b *Backend) Connect(ctx context.Context) error {
	return b.connect(ctx)
}

// Close releases the backing store's connections.
func (b *Backend) Close(ctx context.Context) error {
	return b.close(ctx)
}

func newPostgres(cfg *config.Config, infra *infrastructure.Infrastructure, archive *pipeline.Archive, logger *slog.Logger) *Backend {
	db := infra.Database.Connection()
	page := cfg.API.Pagination

	cats := categories.New(db, logger)
	docs := corpus.New(db, logger, page)
	sink := assignments.New(db, logger, page)

	rt := &pipeline.Runtime{
		Categories: cats,
		Documents:  docs,
		Labels:     docs,
		Sink:       sink,
		Archive:    archive,
		Logger:     logger,
	}

	return &Backend{
		Kind:       config.BackendPostgres,
		Categories: cats,
		Documents:  docs,
		Sink:       sink,
		Runtime:    rt,
		Runs: runs.New(
			db, rt, cfg.Pipeline, infra.Lifecycle,
			config.Collections(), logger, page,
		),
		connect: infra.Database.Connect,
		close:   func(context.Context) error { return infra.Database.Close() },
	}
}

func newMongo(store *mongostore.Store, archive *pipeline.Archive, logger *slog.Logger) *Backend {
	return &Backend{
		Kind:       config.BackendMongo,
		Categories: mongoCategories{store},
		Documents:  store,
		Sink:       store,
		Runtime: &pipeline.Runtime{
			Categories: store,
			Documents:  store,
			Labels:     store,
			Sink:       store,
			Archive:    archive,
			Logger:     logger,
		},
		connect: store.Connect,
		close:   store.Close,
	}
}

type mongoCategories struct {
	*mongostore.Store
}

func (m mongoCategories) Replace(ctx context.Context, cats []categories.Category) error {
	return m.ReplaceCategories(ctx, cats)
}
