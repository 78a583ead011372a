package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/sanord8/YL-portal-sub002/internal/domain/shared"
)

// Message stores a movement event until the relay has published it
type Message struct {
	ID            int64               `json:"id"`
	EventID       uuid.UUID           `json:"event_id"`
	MovementID    uuid.UUID           `json:"movement_id"`
	EventType     shared.EventType    `json:"event_type"`
	Payload       json.RawMessage     `json:"payload"`
	Status        shared.OutboxStatus `json:"status"`
	Attempts      int                 `json:"attempts"`
	CreatedAt     time.Time           `json:"created_at"`
	LastAttemptAt *time.Time          `json:"last_attempt_at,omitempty"`
}

// NewMessage stages event as a PENDING row
func NewMessage(event *shared.MovementEvent) (*Message, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}

	return &Message{
		EventID:    event.EventID,
		MovementID: event.MovementID,
		EventType:  event.Type,
		Payload:    payload,
		Status:     shared.OutboxStatusPending,
		Attempts:   0,
		CreatedAt:  time.Now(),
	}, nil
}

// PartitionKey keeps every event of one movement on the same Kafka partition
func (m *Message) PartitionKey() string {
	return m.MovementID.String()
}

// Exhausted reports whether one more failed attempt uses up the retry budget
func (m *Message) Exhausted(maxAttempts int) bool {
	return m.Attempts+1 >= maxAttempts
}

// Event decodes the movement event carried in the payload
func (m *Message) Event() (*shared.MovementEvent, error) {
	var event shared.MovementEvent
	if err := json.Unmarshal(m.Payload, &event); err != nil {
		return nil, err
	}
	return &event, nil
}
