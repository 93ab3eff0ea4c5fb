package api

import (
	"github.com/JaimeStill/moodmap/internal/assignments"
	"github.com/JaimeStill/moodmap/internal/categories"
	"github.com/JaimeStill/moodmap/internal/config"
	"github.com/JaimeStill/moodmap/internal/corpus"
	"github.com/JaimeStill/moodmap/internal/pipeline"
	"github.com/JaimeStill/moodmap/internal/runs"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Categories  categories.System
	Corpus      corpus.System
	Assignments assignments.System
	Runs        runs.System
	Archive     *pipeline.Archive
}

// NewDomain creates all domain systems from the API runtime. Runs read and
// write through the configured store backend; the run ledger itself always
// lives in Postgres.
func NewDomain(cfg *config.Config, runtime *Runtime) *Domain {
	db := runtime.Database.Connection()

	catsSystem := categories.New(db, runtime.Logger)
	corpusSystem := corpus.New(db, runtime.Logger, runtime.Pagination)
	assignmentsSystem := assignments.New(db, runtime.Logger, runtime.Pagination)

	archive := pipeline.NewArchive(runtime.Storage, runtime.Logger)

	rt := &pipeline.Runtime{
		Categories: catsSystem,
		Documents:  corpusSystem,
		Labels:     corpusSystem,
		Sink:       assignmentsSystem,
		Archive:    archive,
		Logger:     runtime.Logger,
	}
	if runtime.Mongo != nil {
		rt.Categories = runtime.Mongo
		rt.Documents = runtime.Mongo
		rt.Labels = runtime.Mongo
		rt.Sink = runtime.Mongo
	}

	runsSystem := runs.New(
		db,
		rt,
		cfg.Pipeline,
		runtime.Lifecycle,
		config.Collections(),
		runtime.Logger,
		runtime.Pagination,
	)

	return &Domain{
		Categories:  catsSystem,
		Corpus:      corpusSystem,
		Assignments: assignmentsSystem,
		Runs:        runsSystem,
		Archive:     archive,
	}
}
