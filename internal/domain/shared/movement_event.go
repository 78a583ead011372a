package shared

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidEventType  = errors.New("invalid event type")
	ErrMissingMovementID = errors.New("movement id is required")
)

// MovementEvent is the Kafka message emitted for every movement state change
type MovementEvent struct {
	EventID       uuid.UUID `json:"event_id"`
	Type          EventType `json:"type"`
	MovementID    uuid.UUID `json:"movement_id"`
	AreaID        uuid.UUID `json:"area_id"`
	ActorID       uuid.UUID `json:"actor_id"`
	Status        string    `json:"status"`
	Amount        int64     `json:"amount"` // Stored in minor units
	Currency      string    `json:"currency"`
	Comment       string    `json:"comment,omitempty"`
	BatchID       string    `json:"batch_id,omitempty"`
	CorrelationID string    `json:"correlation_id,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Validate checks the fields a consumer relies on
func (e *MovementEvent) Validate() error {
	if !e.Type.IsKnown() {
		return ErrInvalidEventType
	}
	if e.MovementID == uuid.Nil {
		return ErrMissingMovementID
	}
	return nil
}
