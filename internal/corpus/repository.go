package corpus

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/JaimeStill/moodmap/internal/classify"
	"github.com/JaimeStill/moodmap/pkg/pagination"
	"github.com/JaimeStill/moodmap/pkg/query"
	"github.com/JaimeStill/moodmap/pkg/repository"
	"github.com/JaimeStill/moodmap/pkg/vector"
)

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a Postgres-backed document store implementing System.
func New(db *sql.DB, logger *slog.Logger, pagination pagination.Config) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "corpus"),
		pagination: pagination,
	}
}

func (r *repo) Handler(maxUploadSize int64) *Handler {
	return NewHandler(r, r.logger, r.pagination, maxUploadSize)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Document], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Text", "Author")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	docs, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanDocument)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}

	result := pagination.NewPageResult(docs, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id string) (*Document, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrInvalidID
	}

	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	d, err := repository.QueryOne(ctx, r.db, q, args, scanDocument)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &d, nil
}

func streamBuilder(opts StreamOptions) (*query.Builder, error) {
	if opts.RequireEmbedding && opts.MissingEmbedding {
		return nil, ErrConflictingScan
	}

	qb := query.NewBuilder(projection, query.SortField{Field: "ID"})
	if opts.Collection != "" {
		qb.WhereEquals("Collection", opts.Collection)
	}
	switch {
	case opts.RequireEmbedding:
		qb.WhereNotNull("Embedding")
	case opts.MissingEmbedding:
		qb.WhereNull("Embedding")
	}
	return qb, nil
}

func (r *repo) Stream(ctx context.Context, opts StreamOptions, fn func(Document) error) error {
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	var (
		cursor  *string
		visited int
	)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		limit := pageSize
		if opts.Limit > 0 {
			limit = min(limit, opts.Limit-visited)
			if limit <= 0 {
				return nil
			}
		}

		qb, err := streamBuilder(opts)
		if err != nil {
			return err
		}
		q, args := qb.WhereAfter("ID", cursor).BuildLimit(limit)

		page, err := repository.QueryMany(ctx, r.db, q, args, scanDocument)
		if err != nil {
			return fmt.Errorf("stream documents: %w", err)
		}

		for _, d := range page {
			if err := fn(d); err != nil {
				return err
			}
		}
		visited += len(page)

		if len(page) < limit {
			return nil
		}
		last := page[len(page)-1].ID
		cursor = &last
	}
}

func (r *repo) Count(ctx context.Context, opts StreamOptions) (int, error) {
	qb, err := streamBuilder(opts)
	if err != nil {
		return 0, err
	}

	q, args := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, q, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return total, nil
}

func (r *repo) Labeled(ctx context.Context, collection string) ([]classify.Example, error) {
	const q = `
		SELECT d.id, d.embedding, l.category_id
		FROM documents d
		JOIN labels l ON l.document_id = d.id
		WHERE d.collection = $1
		ORDER BY d.id`

	var (
		examples []classify.Example
		missing  int
	)

	err := repository.QueryEach(ctx, r.db, q, []any{collection},
		func(s repository.Scanner) (classify.Example, error) {
			var (
				ex  classify.Example
				raw []byte
			)
			if err := s.Scan(&ex.DocumentID, &raw, &ex.CategoryID); err != nil {
				return ex, err
			}
			ex.Vector = DecodeEmbedding(raw)
			return ex, nil
		},
		func(ex classify.Example) error {
			if len(ex.Vector) == 0 {
				missing++
				return nil
			}
			examples = append(examples, ex)
			return nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("query labeled documents: %w", err)
	}

	if missing > 0 {
		r.logger.Warn("labeled documents without embeddings skipped", "collection", collection, "count", missing)
	}
	return examples, nil
}

func (r *repo) SetEmbedding(ctx context.Context, collection, id string, embedding []float32) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrInvalidID
	}

	err := repository.ExecExpectOne(ctx, r.db,
		"UPDATE documents SET embedding = $3, embedded_at = NOW() WHERE id = $1 AND collection = $2",
		id, collection, vector.Encode(embedding),
	)
	return repository.MapError(err, ErrNotFound, ErrDuplicate)
}

func (r *repo) ClearEmbeddings(ctx context.Context, collection string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE documents SET embedding = NULL, embedded_at = NULL WHERE collection = $1 AND embedding IS NOT NULL",
		collection,
	)
	if err != nil {
		return 0, fmt.Errorf("clear embeddings: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	r.logger.Info("embeddings cleared", "collection", collection, "count", n)
	return n, nil
}

func (r *repo) Insert(ctx context.Context, docs []NewDocument) (InsertResult, error) {
	const q = `
		INSERT INTO documents (collection, author, posted_at, text)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (collection, text) DO NOTHING`

	result, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (InsertResult, error) {
		var res InsertResult
		for _, d := range docs {
			out, err := tx.ExecContext(ctx, q, d.Collection, d.Author, d.Timestamp, d.Text)
			if err != nil {
				return res, err
			}
			n, err := out.RowsAffected()
			if err != nil {
				return res, err
			}
			if n == 0 {
				res.Skipped++
			} else {
				res.Inserted++
			}
		}
		return res, nil
	})
	if err != nil {
		return InsertResult{}, fmt.Errorf("insert documents: %w", err)
	}

	r.logger.Info("documents ingested", "inserted", result.Inserted, "skipped", result.Skipped)
	return result, nil
}

func (r *repo) SetLabel(ctx context.Context, id string, cmd LabelCommand) error {
	if _, err := r.Find(ctx, id); err != nil {
		return err
	}
	if cmd.CategoryID < 0 {
		return ErrInvalidLabel
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO labels (document_id, category_id, labeled_by)
		VALUES ($1, $2, $3)
		ON CONFLICT (document_id) DO UPDATE
		SET category_id = EXCLUDED.category_id,
		    labeled_by = EXCLUDED.labeled_by,
		    labeled_at = NOW()`,
		id, cmd.CategoryID, cmd.LabeledBy,
	)
	if err != nil {
		if repository.IsForeignKeyViolation(err) {
			return fmt.Errorf("%w: %d", ErrUnknownCategory, cmd.CategoryID)
		}
		return fmt.Errorf("set label: %w", err)
	}

	r.logger.Info("document labeled", "id", id, "category", cmd.CategoryID)
	return nil
}

func (r *repo) DeleteLabel(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrInvalidID
	}

	err := repository.ExecExpectOne(ctx, r.db, "DELETE FROM labels WHERE document_id = $1", id)
	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("document label removed", "id", id)
	return nil
}
