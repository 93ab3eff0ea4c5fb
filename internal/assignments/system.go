package assignments

import (
	"context"

	"github.com/JaimeStill/moodmap/pkg/pagination"
)

// System defines the public contract for the assignment store.
type System interface {
	Handler() *Handler

	// UpsertBatch writes records keyed by document id in one transaction,
	// replacing any existing record for the same document.
	UpsertBatch(ctx context.Context, records []Record) error

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Record], error)

	Find(ctx context.Context, documentID string) (*Record, error)

	// Distribution counts assigned documents per category, ordered by id.
	Distribution(ctx context.Context, collection string) ([]CategoryCount, error)
}
