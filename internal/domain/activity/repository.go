package activity

import (
	"context"

	"github.com/google/uuid"
)

// Repository manages the movement activity read model
type Repository interface {
	// Upsert stores the entry keyed by event id; inserted is false on redelivery
	Upsert(ctx context.Context, entry *Entry) (inserted bool, err error)
	GetByEventID(ctx context.Context, eventID uuid.UUID) (*Entry, error)

	// ListByMovement returns entries newest first
	ListByMovement(ctx context.Context, movementID uuid.UUID, limit, offset int) ([]*Entry, error)
	CountByMovement(ctx context.Context, movementID uuid.UUID) (int64, error)
}

// ErrEntryNotFound indicates missing activity entry
type ErrEntryNotFound struct {
	EventID uuid.UUID
}

func (e ErrEntryNotFound) Error() string {
	return "activity entry not found: " + e.EventID.String()
}

// Is matches any ErrEntryNotFound when the target carries no event id
func (e ErrEntryNotFound) Is(target error) bool {
	t, ok := target.(ErrEntryNotFound)
	if !ok {
		return false
	}
	if t.EventID == uuid.Nil {
		return true
	}
	return e.EventID == t.EventID
}
