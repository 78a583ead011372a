package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/sanord8/YL-portal-sub002/internal/domain/access"
	"github.com/sanord8/YL-portal-sub002/internal/domain/activity"
	"github.com/sanord8/YL-portal-sub002/internal/domain/movement"
	"github.com/sanord8/YL-portal-sub002/internal/logger"
)

// ActivityServiceImpl implements the ActivityService interface
type ActivityServiceImpl struct {
	movements movement.Repository
	feed      activity.Repository
	policy    *access.Evaluator
	logger    *slog.Logger
}

// NewActivityService creates a new activity feed service
func NewActivityService(logger *slog.Logger, movements movement.Repository, feed activity.Repository, policy *access.Evaluator) ActivityService {
	return &ActivityServiceImpl{
		movements: movements,
		feed:      feed,
		policy:    policy,
		logger:    logger,
	}
}

func (s *ActivityServiceImpl) ListByMovement(ctx context.Context, p *access.Principal, movementID uuid.UUID, page, perPage int) ([]*activity.Entry, int64, error) {
	m, err := s.movements.GetByID(ctx, movementID)
	if err != nil {
		return nil, 0, err
	}
	if err := s.policy.Authorize(p, access.ActionView, access.Resource{AreaID: m.AreaID, OwnerID: m.UserID}); err != nil {
		return nil, 0, err
	}

	limit, offset := pageBounds(page, perPage)
	entries, err := s.feed.ListByMovement(ctx, movementID, limit, offset)
	if err != nil {
		logger.FromContext(ctx, s.logger).Error("Failed to read activity feed", "movement_id", movementID.String(), "error", err)
		return nil, 0, fmt.Errorf("failed to read activity feed: %w", err)
	}
	total, err := s.feed.CountByMovement(ctx, movementID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count activity feed: %w", err)
	}
	return entries, total, nil
}
