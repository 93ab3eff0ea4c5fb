package runs

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/moodmap/pkg/pagination"
)

// System defines the public contract for run operations.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Run], error)

	Find(ctx context.Context, id uuid.UUID) (*Run, error)

	// Start records a new run and executes it in the background. It fails
	// with ErrRunInProgress when the collection already has a running run.
	Start(ctx context.Context, collection string, trigger Trigger) (*Run, error)

	// Execute records a new run and executes it before returning.
	Execute(ctx context.Context, collection string, trigger Trigger) (*Run, error)

	// Recover marks runs left running by a previous process as failed.
	Recover(ctx context.Context) (int64, error)
}

// Launcher runs background work bound to the process lifetime.
type Launcher interface {
	Go(fn func(ctx context.Context))
}
