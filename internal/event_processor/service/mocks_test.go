package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/sanord8/YL-portal-sub002/internal/domain/activity"
	"github.com/sanord8/YL-portal-sub002/internal/domain/shared"
)

type MockActivityRepo struct {
	mock.Mock
}

func (m *MockActivityRepo) Upsert(ctx context.Context, entry *activity.Entry) (bool, error) {
	args := m.Called(ctx, entry)
	return args.Bool(0), args.Error(1)
}

func (m *MockActivityRepo) GetByEventID(ctx context.Context, eventID uuid.UUID) (*activity.Entry, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*activity.Entry), args.Error(1)
}

func (m *MockActivityRepo) ListByMovement(ctx context.Context, movementID uuid.UUID, limit, offset int) ([]*activity.Entry, error) {
	args := m.Called(ctx, movementID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*activity.Entry), args.Error(1)
}

func (m *MockActivityRepo) CountByMovement(ctx context.Context, movementID uuid.UUID) (int64, error) {
	args := m.Called(ctx, movementID)
	return args.Get(0).(int64), args.Error(1)
}

type MockProjectionService struct {
	mock.Mock
}

func (m *MockProjectionService) Project(ctx context.Context, event *shared.MovementEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
