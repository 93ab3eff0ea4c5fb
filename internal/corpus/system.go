package corpus

import (
	"context"

	"github.com/JaimeStill/moodmap/internal/classify"
	"github.com/JaimeStill/moodmap/pkg/pagination"
)

// System defines the public contract for the document store.
type System interface {
	Handler(maxUploadSize int64) *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Document], error)

	Find(ctx context.Context, id string) (*Document, error)

	// Stream visits documents in ascending id order, reading one keyset page
	// at a time. fn is called after each page's rows are released, so it
	// may write back to the store. An error from fn stops the stream.
	Stream(ctx context.Context, opts StreamOptions, fn func(Document) error) error

	// Count returns the number of documents Stream would visit, ignoring Limit.
	Count(ctx context.Context, opts StreamOptions) (int, error)

	// Labeled returns every manually labeled document in the collection that
	// has an embedding, in ascending id order.
	Labeled(ctx context.Context, collection string) ([]classify.Example, error)

	// SetEmbedding stores the vector for one document of collection.
	SetEmbedding(ctx context.Context, collection, id string, embedding []float32) error
	ClearEmbeddings(ctx context.Context, collection string) (int64, error)

	Insert(ctx context.Context, docs []NewDocument) (InsertResult, error)

	SetLabel(ctx context.Context, id string, cmd LabelCommand) error
	DeleteLabel(ctx context.Context, id string) error
}
