package link

import "context"

// Repository defines the persistence operations for Link entities.
// Every method touches at most one row. Implementations translate store
// failures into errx kinds: NotFound for a missing row, Conflict for a
// duplicate name, Constraint for other integrity violations and Internal
// for everything else.
type Repository interface {
	Insert(ctx context.Context, link NewLink) (Link, error)
	List(ctx context.Context) ([]Link, error)
	FindByName(ctx context.Context, name string) (Link, error)
	Update(ctx context.Context, id int64, changes UpdatableLink) error
	Delete(ctx context.Context, id int64) error
	// IncrementUsage adds one to times_used in a single store-side update.
	IncrementUsage(ctx context.Context, id int64) error
}
