package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sanord8/YL-portal-sub002/internal/domain/activity"
	"github.com/sanord8/YL-portal-sub002/internal/domain/shared"
)

// ActivityProjector writes one activity entry per event id
type ActivityProjector struct {
	activityRepo activity.Repository
	logger       *slog.Logger
	now          func() time.Time
}

func NewActivityProjector(activityRepo activity.Repository, logger *slog.Logger) *ActivityProjector {
	return &ActivityProjector{
		activityRepo: activityRepo,
		logger:       logger,
		now:          time.Now,
	}
}

// Project upserts the entry. Redelivered events are acknowledged without a second write.
func (p *ActivityProjector) Project(ctx context.Context, event *shared.MovementEvent) error {
	logger := p.logger
	if event.CorrelationID != "" {
		logger = p.logger.With("correlation_id", event.CorrelationID)
	}

	entry := activity.FromEvent(event, p.now().UTC())
	inserted, err := p.activityRepo.Upsert(ctx, entry)
	if err != nil {
		return fmt.Errorf("project event %s: %w", event.EventID, err)
	}

	if !inserted {
		logger.Info("Event already projected, skipping", "event_id", event.EventID.String(), "movement_id", event.MovementID.String())
		return nil
	}

	logger.Debug("Projected movement event",
		"event_id", event.EventID.String(),
		"movement_id", event.MovementID.String(),
		"type", event.Type,
	)
	return nil
}
