package outbox

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/sanord8/YL-portal-sub002/internal/domain/shared"
)

// Repository stores movement events staged in the same transaction as the state change
// that produced them. The relay drains PENDING rows and marks them PROCESSED or
// FAILED_TO_PUBLISH.
type Repository interface {
	Create(ctx context.Context, message *Message) error
	GetPending(ctx context.Context, limit int) ([]*Message, error)
	UpdateStatus(ctx context.Context, id int64, status shared.OutboxStatus) error
	IncrementAttempts(ctx context.Context, id int64) error

	// PurgeProcessed deletes PROCESSED rows last touched before cutoff and returns the count
	PurgeProcessed(ctx context.Context, cutoff time.Time) (int64, error)

	WithTx(tx pgx.Tx) Repository
}

// ErrMessageNotFound is returned when an update targets an unknown outbox row
type ErrMessageNotFound struct {
	ID int64
}

func (e ErrMessageNotFound) Error() string {
	return fmt.Sprintf("outbox row %d does not exist", e.ID)
}

// ErrDuplicateMessage is returned when an event id is staged twice
type ErrDuplicateMessage struct {
	EventID uuid.UUID
}

func (e ErrDuplicateMessage) Error() string {
	return fmt.Sprintf("event %s is already staged in the outbox", e.EventID)
}
