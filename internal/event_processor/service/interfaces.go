package service

import (
	"context"

	"github.com/sanord8/YL-portal-sub002/internal/domain/shared"
)

// ProjectionService applies a movement event to the activity read model
type ProjectionService interface {
	Project(ctx context.Context, event *shared.MovementEvent) error
}
