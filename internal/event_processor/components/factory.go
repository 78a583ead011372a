package components

import (
	"log/slog"

	"github.com/sanord8/YL-portal-sub002/internal/config"
	"github.com/sanord8/YL-portal-sub002/internal/domain/activity"
	"github.com/sanord8/YL-portal-sub002/internal/event_processor/service"
)

// CreateProjectionService builds the activity projector behind a worker pool.
// The returned shutdown func releases the pool and is safe to call when no pool was created.
func CreateProjectionService(
	activityRepo activity.Repository,
	logger *slog.Logger,
	cfg *config.Config,
) (service.ProjectionService, func()) {
	baseService := service.NewActivityProjector(activityRepo, logger.With("component", "activity_projector"))

	workerPoolService, err := service.NewWorkerPoolProjectionService(
		baseService,
		service.WorkerPoolConfig{
			Size: cfg.WorkerPool.Size,
		},
		logger.With("component", "worker_pool"),
	)
	if err != nil {
		logger.Error("Failed to create worker pool service, falling back to base service", "error", err)
		return baseService, func() {}
	}

	logger.Info("Created worker pool projection service", "pool_size", cfg.WorkerPool.Size)
	return workerPoolService, workerPoolService.Shutdown
}
