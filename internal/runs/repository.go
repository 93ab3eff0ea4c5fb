package runs

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/moodmap/internal/pipeline"
	"github.com/JaimeStill/moodmap/pkg/pagination"
	"github.com/JaimeStill/moodmap/pkg/query"
	"github.com/JaimeStill/moodmap/pkg/repository"
)

const completeTimeout = 10 * time.Second

type repo struct {
	db          *sql.DB
	rt          *pipeline.Runtime
	cfg         pipeline.Config
	launcher    Launcher
	collections []string
	logger      *slog.Logger
	pagination  pagination.Config
}

// New creates a run repository implementing the System interface.
// collections lists the accepted collection names; the first is the default.
func New(
	db *sql.DB,
	rt *pipeline.Runtime,
	cfg pipeline.Config,
	launcher Launcher,
	collections []string,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:          db,
		rt:          rt,
		cfg:         cfg,
		launcher:    launcher,
		collections: collections,
		logger:      logger.With("system", "runs"),
		pagination:  pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Run], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Collection", "Error")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count runs: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanRun)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Run, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	run, err := repository.QueryOne(ctx, r.db, q, args, scanRun)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &run, nil
}

func (r *repo) Start(ctx context.Context, collection string, trigger Trigger) (*Run, error) {
	run, err := r.create(ctx, collection, trigger)
	if err != nil {
		return nil, err
	}

	r.launcher.Go(func(ctx context.Context) {
		r.execute(ctx, run)
	})

	return run, nil
}

func (r *repo) Execute(ctx context.Context, collection string, trigger Trigger) (*Run, error) {
	run, err := r.create(ctx, collection, trigger)
	if err != nil {
		return nil, err
	}

	r.execute(ctx, run)
	return r.Find(context.WithoutCancel(ctx), run.ID)
}

func (r *repo) Recover(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE runs
		SET status = $1, error = 'interrupted', completed_at = NOW()
		WHERE status = $2`,
		string(StatusFailed), string(StatusRunning),
	)
	if err != nil {
		return 0, fmt.Errorf("recover runs: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n > 0 {
		r.logger.Warn("interrupted runs marked failed", "count", n)
	}
	return n, nil
}

func (r *repo) create(ctx context.Context, collection string, trigger Trigger) (*Run, error) {
	if collection == "" && len(r.collections) > 0 {
		collection = r.collections[0]
	}
	if !slices.Contains(r.collections, collection) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCollection, collection)
	}

	q := `
		INSERT INTO runs (id, status, trigger, collection)
		VALUES ($1, $2, $3, $4)
		RETURNING id, status, trigger, collection, summary, report, error, started_at, completed_at`

	run, err := repository.QueryOne(ctx, r.db, q,
		[]any{uuid.New(), string(StatusRunning), string(trigger), collection}, scanRun)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrRunInProgress)
	}

	r.logger.Info("run started", "id", run.ID, "collection", collection, "trigger", trigger)
	return &run, nil
}

func (r *repo) execute(ctx context.Context, run *Run) {
	result, err := pipeline.Run(ctx, r.rt, r.cfg, run.Collection, run.ID.String())

	status := StatusCompleted
	var (
		summary *pipeline.Summary
		report  *pipeline.Report
		errText *string
	)
	if result != nil {
		summary = &result.Summary
		report = result.Report
	}
	if err != nil {
		status = StatusFailed
		msg := err.Error()
		errText = &msg
		r.logger.Error("run failed", "id", run.ID, "error", err)
	}

	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), completeTimeout)
	defer cancel()

	if err := r.complete(cctx, run.ID, status, summary, report, errText); err != nil {
		r.logger.Error("record run completion failed", "id", run.ID, "error", err)
		return
	}

	r.logger.Info("run finished", "id", run.ID, "status", status)
}

func (r *repo) complete(
	ctx context.Context,
	id uuid.UUID,
	status Status,
	summary *pipeline.Summary,
	report *pipeline.Report,
	errText *string,
) error {
	summaryJSON, err := jsonParam(summary)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	reportJSON, err := jsonParam(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	return repository.ExecExpectOne(ctx, r.db, `
		UPDATE runs
		SET status = $2, summary = $3, report = $4, error = $5, completed_at = NOW()
		WHERE id = $1`,
		id, string(status), summaryJSON, reportJSON, errText,
	)
}
