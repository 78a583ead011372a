package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sanord8/YL-portal-sub002/internal/domain/movement"
	"github.com/sanord8/YL-portal-sub002/internal/domain/outbox"
	"github.com/sanord8/YL-portal-sub002/internal/domain/shared"
	"github.com/sanord8/YL-portal-sub002/internal/logger"
)

// newEvent snapshots m after a state change
func newEvent(ctx context.Context, eventType shared.EventType, m *movement.Movement, actorID uuid.UUID, now time.Time) *shared.MovementEvent {
	return &shared.MovementEvent{
		EventID:       uuid.New(),
		Type:          eventType,
		MovementID:    m.ID,
		AreaID:        m.AreaID,
		ActorID:       actorID,
		Status:        string(m.Status),
		Amount:        m.Amount,
		Currency:      m.Currency,
		CorrelationID: logger.CorrelationID(ctx),
		OccurredAt:    now,
	}
}

// stageEvent writes the event to the outbox through repo, which must be bound
// to the transaction that made the change
func stageEvent(ctx context.Context, repo outbox.Repository, event *shared.MovementEvent) error {
	msg, err := outbox.NewMessage(event)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", event.Type, err)
	}
	if err := repo.Create(ctx, msg); err != nil {
		return fmt.Errorf("failed to stage %s event: %w", event.Type, err)
	}
	return nil
}
