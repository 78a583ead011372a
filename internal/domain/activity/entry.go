package activity

import (
	"time"

	"github.com/sanord8/YL-portal-sub002/internal/domain/shared"
)

// Entry is one projected movement event in the activity read model
type Entry struct {
	EventID       string           `json:"event_id" bson:"_id"`
	Type          shared.EventType `json:"type" bson:"type"`
	MovementID    string           `json:"movement_id" bson:"movement_id"`
	AreaID        string           `json:"area_id" bson:"area_id"`
	ActorID       string           `json:"actor_id" bson:"actor_id"`
	Status        string           `json:"status" bson:"status"`
	Amount        int64            `json:"amount" bson:"amount"` // Stored in minor units
	Currency      string           `json:"currency" bson:"currency"`
	Comment       string           `json:"comment,omitempty" bson:"comment,omitempty"`
	BatchID       string           `json:"batch_id,omitempty" bson:"batch_id,omitempty"`
	CorrelationID string           `json:"correlation_id,omitempty" bson:"correlation_id,omitempty"`
	OccurredAt    time.Time        `json:"occurred_at" bson:"occurred_at"`
	ProjectedAt   time.Time        `json:"projected_at" bson:"projected_at"`
}

// FromEvent projects a movement event into an activity entry
func FromEvent(e *shared.MovementEvent, projectedAt time.Time) *Entry {
	return &Entry{
		EventID:       e.EventID.String(),
		Type:          e.Type,
		MovementID:    e.MovementID.String(),
		AreaID:        e.AreaID.String(),
		ActorID:       e.ActorID.String(),
		Status:        e.Status,
		Amount:        e.Amount,
		Currency:      e.Currency,
		Comment:       e.Comment,
		BatchID:       e.BatchID,
		CorrelationID: e.CorrelationID,
		OccurredAt:    e.OccurredAt,
		ProjectedAt:   projectedAt,
	}
}
