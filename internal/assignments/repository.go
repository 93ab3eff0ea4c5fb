package assignments

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/JaimeStill/moodmap/pkg/pagination"
	"github.com/JaimeStill/moodmap/pkg/query"
	"github.com/JaimeStill/moodmap/pkg/repository"
	"github.com/JaimeStill/moodmap/pkg/vector"
)

const upsertRecord = `
	INSERT INTO assignments (
		document_id, collection, title, text, author, posted_at,
		category_id, label, color, score, embedding, diagnostics
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	ON CONFLICT (document_id) DO UPDATE
	SET collection = EXCLUDED.collection,
	    title = EXCLUDED.title,
	    text = EXCLUDED.text,
	    author = EXCLUDED.author,
	    posted_at = EXCLUDED.posted_at,
	    category_id = EXCLUDED.category_id,
	    label = EXCLUDED.label,
	    color = EXCLUDED.color,
	    score = EXCLUDED.score,
	    embedding = EXCLUDED.embedding,
	    diagnostics = EXCLUDED.diagnostics`

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a Postgres-backed assignment store implementing System.
func New(db *sql.DB, logger *slog.Logger, pagination pagination.Config) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "assignments"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) UpsertBatch(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	return repository.InTx(ctx, r.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, upsertRecord)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, rec := range records {
			diags, err := diagnosticsParam(rec.Diagnostics)
			if err != nil {
				return fmt.Errorf("encode diagnostics for %s: %w", rec.DocumentID, err)
			}

			if _, err := stmt.ExecContext(ctx,
				rec.DocumentID,
				rec.Collection,
				rec.Title,
				rec.Text,
				rec.Author,
				rec.Timestamp,
				rec.CategoryID,
				rec.Label,
				rec.Color,
				rec.Score,
				vector.Encode(rec.Vector),
				diags,
			); err != nil {
				return fmt.Errorf("upsert assignment %s: %w", rec.DocumentID, err)
			}
		}
		return nil
	})
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Record], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Text", "Author", "Label")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count assignments: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	records, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanRecord)
	if err != nil {
		return nil, fmt.Errorf("query assignments: %w", err)
	}

	result := pagination.NewPageResult(records, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, documentID string) (*Record, error) {
	if _, err := uuid.Parse(documentID); err != nil {
		return nil, ErrInvalidID
	}

	q, args := query.NewBuilder(projection).BuildSingle("DocumentID", documentID)

	rec, err := repository.QueryOne(ctx, r.db, q, args, scanRecord)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &rec, nil
}

func (r *repo) Distribution(ctx context.Context, collection string) ([]CategoryCount, error) {
	const q = `
		SELECT category_id, label, color, COUNT(*)
		FROM assignments
		WHERE collection = $1
		GROUP BY category_id, label, color
		ORDER BY category_id`

	counts, err := repository.QueryMany(ctx, r.db, q, []any{collection},
		func(s repository.Scanner) (CategoryCount, error) {
			var c CategoryCount
			err := s.Scan(&c.CategoryID, &c.Label, &c.Color, &c.Count)
			return c, err
		},
	)
	if err != nil {
		return nil, fmt.Errorf("query distribution: %w", err)
	}
	return counts, nil
}
