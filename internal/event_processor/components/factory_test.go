package components

import (
	"context"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanord8/YL-portal-sub002/internal/config"
	"github.com/sanord8/YL-portal-sub002/internal/domain/activity"
	"github.com/sanord8/YL-portal-sub002/internal/domain/shared"
	"github.com/sanord8/YL-portal-sub002/internal/event_processor/service"
)

type memoryActivityRepo struct {
	entries map[string]*activity.Entry
}

func (r *memoryActivityRepo) Upsert(ctx context.Context, entry *activity.Entry) (bool, error) {
	if _, ok := r.entries[entry.EventID]; ok {
		return false, nil
	}
	r.entries[entry.EventID] = entry
	return true, nil
}

func (r *memoryActivityRepo) GetByEventID(ctx context.Context, eventID uuid.UUID) (*activity.Entry, error) {
	if e, ok := r.entries[eventID.String()]; ok {
		return e, nil
	}
	return nil, activity.ErrEntryNotFound{EventID: eventID}
}

func (r *memoryActivityRepo) ListByMovement(ctx context.Context, movementID uuid.UUID, limit, offset int) ([]*activity.Entry, error) {
	return nil, nil
}

func (r *memoryActivityRepo) CountByMovement(ctx context.Context, movementID uuid.UUID) (int64, error) {
	return int64(len(r.entries)), nil
}

func TestCreateProjectionService(t *testing.T) {
	repo := &memoryActivityRepo{entries: map[string]*activity.Entry{}}
	cfg := &config.Config{
		WorkerPool: config.WorkerPoolConfig{
			Size: 5,
		},
	}

	projection, shutdown := CreateProjectionService(repo, slog.Default(), cfg)
	defer shutdown()

	pooled, ok := projection.(*service.WorkerPoolProjectionService)
	require.True(t, ok)
	assert.Equal(t, 5, pooled.Capacity())

	event := &shared.MovementEvent{
		EventID:    uuid.New(),
		Type:       shared.EventMovementCreated,
		MovementID: uuid.New(),
		Status:     "DRAFT",
	}
	require.NoError(t, projection.Project(context.Background(), event))
	require.NoError(t, projection.Project(context.Background(), event))

	stored, err := repo.GetByEventID(context.Background(), event.EventID)
	require.NoError(t, err)
	assert.Equal(t, "DRAFT", stored.Status)
	assert.Len(t, repo.entries, 1)
}
