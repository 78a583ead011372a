package approval

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository is the append-only store of approval history
type Repository interface {
	// Append inserts the entry and fills in its ID and CreatedAt
	Append(ctx context.Context, entry *Entry) error

	// ListByMovement returns entries oldest first
	ListByMovement(ctx context.Context, movementID uuid.UUID) ([]*Entry, error)
	WithTx(tx pgx.Tx) Repository
}
