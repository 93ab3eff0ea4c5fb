package categories

import (
	"context"

	"github.com/JaimeStill/moodmap/internal/classify"
)

// System defines the public contract for category reference data.
type System interface {
	Handler() *Handler

	List(ctx context.Context) ([]Category, error)
	Find(ctx context.Context, id int) (*Category, error)

	// Catalog loads every category with its references and builds the
	// normalized classifier catalog.
	Catalog(ctx context.Context) (*classify.Catalog, error)

	// Replace upserts the given categories, replaces their references, and
	// removes categories absent from cats.
	Replace(ctx context.Context, cats []Category) error
}
