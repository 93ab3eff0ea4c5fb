package categories

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/JaimeStill/moodmap/internal/classify"
	"github.com/JaimeStill/moodmap/pkg/repository"
	"github.com/JaimeStill/moodmap/pkg/vector"
)

const defaultColor = "#000000"

const selectCategories = `
	SELECT id, label, color, embedding, created_at, updated_at
	FROM categories
	ORDER BY id`

const selectReferences = `
	SELECT category_id, term, embedding
	FROM category_references
	ORDER BY category_id, term`

type repo struct {
	db     *sql.DB
	logger *slog.Logger
}

// New creates a Postgres-backed category store implementing System.
func New(db *sql.DB, logger *slog.Logger) System {
	return &repo{
		db:     db,
		logger: logger.With("system", "categories"),
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger)
}

func (r *repo) List(ctx context.Context) ([]Category, error) {
	cats, err := repository.QueryMany(ctx, r.db, selectCategories, nil, scanCategory)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}

	type ref struct {
		categoryID int
		Reference
	}
	refs, err := repository.QueryMany(ctx, r.db, selectReferences, nil, func(s repository.Scanner) (ref, error) {
		var (
			rf  ref
			raw []byte
		)
		if err := s.Scan(&rf.categoryID, &rf.Term, &raw); err != nil {
			return rf, err
		}
		v, err := vector.Decode(raw)
		if err != nil {
			return rf, err
		}
		rf.Embedding = v
		return rf, nil
	})
	if err != nil {
		return nil, fmt.Errorf("query category references: %w", err)
	}

	index := make(map[int]int, len(cats))
	for i, c := range cats {
		index[c.ID] = i
		cats[i].References = []Reference{}
	}
	for _, rf := range refs {
		if i, ok := index[rf.categoryID]; ok {
			cats[i].References = append(cats[i].References, rf.Reference)
		}
	}
	for i := range cats {
		cats[i].Dimensions = dimensions(cats[i])
	}

	return cats, nil
}

func (r *repo) Find(ctx context.Context, id int) (*Category, error) {
	cats, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range cats {
		if c.ID == id {
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

func (r *repo) Catalog(ctx context.Context) (*classify.Catalog, error) {
	cats, err := r.List(ctx)
	if err != nil {
		return nil, err
	}

	catalog, err := BuildCatalog(cats)
	if err != nil {
		return nil, err
	}

	r.logger.Info(
		"catalog loaded",
		"categories", catalog.Len(),
		"scorable", len(catalog.Scorable()),
		"dimensions", catalog.Dim(),
	)
	return catalog, nil
}

func (r *repo) Replace(ctx context.Context, cats []Category) error {
	ids := make([]int32, len(cats))
	for i, c := range cats {
		ids[i] = int32(c.ID)
	}

	err := repository.InTx(ctx, r.db, func(tx *sql.Tx) error {
		for _, c := range cats {
			color := c.Color
			if color == "" {
				color = defaultColor
			}

			if _, err := tx.ExecContext(ctx, `
				INSERT INTO categories (id, label, color, embedding)
				VALUES ($1, $2, $3, $4)
				ON CONFLICT (id) DO UPDATE
				SET label = EXCLUDED.label,
				    color = EXCLUDED.color,
				    embedding = EXCLUDED.embedding,
				    updated_at = NOW()`,
				c.ID, c.Label, color, encode(c.Embedding),
			); err != nil {
				return fmt.Errorf("upsert category %d: %w", c.ID, err)
			}

			if _, err := tx.ExecContext(ctx,
				"DELETE FROM category_references WHERE category_id = $1", c.ID,
			); err != nil {
				return fmt.Errorf("clear references for %d: %w", c.ID, err)
			}

			for _, ref := range c.References {
				if _, err := tx.ExecContext(ctx, `
					INSERT INTO category_references (category_id, term, embedding)
					VALUES ($1, $2, $3)`,
					c.ID, ref.Term, vector.Encode(ref.Embedding),
				); err != nil {
					return fmt.Errorf("insert reference %q for %d: %w", ref.Term, c.ID, err)
				}
			}
		}

		if _, err := tx.ExecContext(ctx,
			"DELETE FROM categories WHERE NOT (id = ANY($1))", ids,
		); err != nil {
			return err
		}

		return nil
	})

	if err != nil {
		if repository.IsForeignKeyViolation(err) {
			return fmt.Errorf("%w: %w", ErrInUse, err)
		}
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("categories replaced", "count", len(cats))
	return nil
}

func scanCategory(s repository.Scanner) (Category, error) {
	var (
		c   Category
		raw []byte
	)
	if err := s.Scan(&c.ID, &c.Label, &c.Color, &raw, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return c, err
	}
	v, err := vector.Decode(raw)
	if err != nil {
		return c, err
	}
	c.Embedding = v
	return c, nil
}

func encode(v []float32) []byte {
	if len(v) == 0 {
		return nil
	}
	return vector.Encode(v)
}
