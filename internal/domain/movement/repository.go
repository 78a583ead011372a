package movement

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ListFilter narrows movement listings. AreaIDs is ignored when AllAreas is set.
type ListFilter struct {
	AllAreas bool
	AreaIDs  []uuid.UUID
	AreaID   *uuid.UUID
	Status   *Status
	Limit    int
	Offset   int
}

// Repository defines movement persistence operations. Soft-deleted rows are
// invisible to every read.
type Repository interface {
	Create(ctx context.Context, m *Movement) error

	// CreateIfAbsent inserts unless the idempotency key already exists; created is false for duplicates
	CreateIfAbsent(ctx context.Context, m *Movement) (created bool, err error)
	GetByID(ctx context.Context, id uuid.UUID) (*Movement, error)

	// LockForUpdate acquires a row lock for state transitions
	LockForUpdate(ctx context.Context, id uuid.UUID) (*Movement, error)
	GetChildren(ctx context.Context, parentID uuid.UUID) ([]*Movement, error)
	LockChildren(ctx context.Context, parentID uuid.UUID) ([]*Movement, error)
	List(ctx context.Context, filter ListFilter) ([]*Movement, int, error)
	Update(ctx context.Context, m *Movement) error
	SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error
	SoftDeleteChildren(ctx context.Context, parentID uuid.UUID, at time.Time) (int64, error)
	WithTx(tx pgx.Tx) Repository
}
