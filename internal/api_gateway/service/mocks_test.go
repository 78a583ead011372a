package service

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"

	"github.com/sanord8/YL-portal-sub002/internal/domain/access"
	"github.com/sanord8/YL-portal-sub002/internal/domain/activity"
	"github.com/sanord8/YL-portal-sub002/internal/domain/approval"
	"github.com/sanord8/YL-portal-sub002/internal/domain/dashboard"
	"github.com/sanord8/YL-portal-sub002/internal/domain/movement"
	"github.com/sanord8/YL-portal-sub002/internal/domain/org"
	"github.com/sanord8/YL-portal-sub002/internal/domain/outbox"
	"github.com/sanord8/YL-portal-sub002/internal/domain/shared"
)

var fixedNow = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// fakeTxRunner runs fn without a real transaction; repositories ignore the nil tx
type fakeTxRunner struct {
	calls int
}

func (f *fakeTxRunner) ExecuteTx(_ context.Context, fn func(tx pgx.Tx) error) error {
	f.calls++
	return fn(nil)
}

func manager(areaID uuid.UUID) *access.Principal {
	return access.NewPrincipal(uuid.New(), "manager@example.org", false, []access.UserArea{{AreaID: areaID, Role: access.RoleManager}})
}

func viewer(areaID uuid.UUID) *access.Principal {
	return access.NewPrincipal(uuid.New(), "viewer@example.org", false, []access.UserArea{{AreaID: areaID, Role: access.RoleViewer}})
}

func admin() *access.Principal {
	return access.NewPrincipal(uuid.New(), "admin@example.org", true, nil)
}

func newPolicy() *access.Evaluator {
	return access.NewEvaluator(access.DefaultPolicy())
}

func pendingMovement(areaID uuid.UUID) *movement.Movement {
	dept := uuid.New()
	return &movement.Movement{
		ID:              uuid.New(),
		Type:            movement.TypeExpense,
		Status:          movement.StatusPending,
		Amount:          10000,
		Currency:        "EUR",
		Description:     "Office Supplies",
		TransactionDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		AreaID:          areaID,
		DepartmentID:    &dept,
		UserID:          uuid.New(),
		CreatedAt:       fixedNow.Add(-time.Hour),
		UpdatedAt:       fixedNow.Add(-time.Hour),
	}
}

type MockMovementRepository struct {
	mock.Mock
}

func (m *MockMovementRepository) Create(ctx context.Context, mv *movement.Movement) error {
	args := m.Called(ctx, mv)
	return args.Error(0)
}

func (m *MockMovementRepository) CreateIfAbsent(ctx context.Context, mv *movement.Movement) (bool, error) {
	args := m.Called(ctx, mv)
	return args.Bool(0), args.Error(1)
}

func (m *MockMovementRepository) GetByID(ctx context.Context, id uuid.UUID) (*movement.Movement, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*movement.Movement), args.Error(1)
}

func (m *MockMovementRepository) LockForUpdate(ctx context.Context, id uuid.UUID) (*movement.Movement, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*movement.Movement), args.Error(1)
}

func (m *MockMovementRepository) GetChildren(ctx context.Context, parentID uuid.UUID) ([]*movement.Movement, error) {
	args := m.Called(ctx, parentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*movement.Movement), args.Error(1)
}

func (m *MockMovementRepository) LockChildren(ctx context.Context, parentID uuid.UUID) ([]*movement.Movement, error) {
	args := m.Called(ctx, parentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*movement.Movement), args.Error(1)
}

func (m *MockMovementRepository) List(ctx context.Context, filter movement.ListFilter) ([]*movement.Movement, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*movement.Movement), args.Int(1), args.Error(2)
}

func (m *MockMovementRepository) Update(ctx context.Context, mv *movement.Movement) error {
	args := m.Called(ctx, mv)
	return args.Error(0)
}

func (m *MockMovementRepository) SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *MockMovementRepository) SoftDeleteChildren(ctx context.Context, parentID uuid.UUID, at time.Time) (int64, error) {
	args := m.Called(ctx, parentID, at)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockMovementRepository) WithTx(pgx.Tx) movement.Repository {
	return m
}

type MockApprovalRepository struct {
	mock.Mock
}

func (m *MockApprovalRepository) Append(ctx context.Context, entry *approval.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockApprovalRepository) ListByMovement(ctx context.Context, movementID uuid.UUID) ([]*approval.Entry, error) {
	args := m.Called(ctx, movementID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*approval.Entry), args.Error(1)
}

func (m *MockApprovalRepository) WithTx(pgx.Tx) approval.Repository {
	return m
}

type MockOutboxRepository struct {
	mock.Mock
}

func (m *MockOutboxRepository) Create(ctx context.Context, message *outbox.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *MockOutboxRepository) GetPending(ctx context.Context, limit int) ([]*outbox.Message, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*outbox.Message), args.Error(1)
}

func (m *MockOutboxRepository) UpdateStatus(ctx context.Context, id int64, status shared.OutboxStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockOutboxRepository) IncrementAttempts(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOutboxRepository) PurgeProcessed(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOutboxRepository) WithTx(pgx.Tx) outbox.Repository {
	return m
}

// eventOfType matches an outbox message carrying the given event type
func eventOfType(t shared.EventType) interface{} {
	return mock.MatchedBy(func(msg *outbox.Message) bool {
		return msg.EventType == t
	})
}

type MockAreaRepository struct {
	mock.Mock
}

func (m *MockAreaRepository) Create(ctx context.Context, area *org.Area) error {
	args := m.Called(ctx, area)
	return args.Error(0)
}

func (m *MockAreaRepository) GetByID(ctx context.Context, id uuid.UUID) (*org.Area, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*org.Area), args.Error(1)
}

func (m *MockAreaRepository) List(ctx context.Context, ids []uuid.UUID) ([]*org.Area, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*org.Area), args.Error(1)
}

func (m *MockAreaRepository) ListByBankAccount(ctx context.Context, bankAccountID uuid.UUID) ([]*org.Area, error) {
	args := m.Called(ctx, bankAccountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*org.Area), args.Error(1)
}

func (m *MockAreaRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockDepartmentRepository struct {
	mock.Mock
}

func (m *MockDepartmentRepository) Create(ctx context.Context, dept *org.Department) error {
	args := m.Called(ctx, dept)
	return args.Error(0)
}

func (m *MockDepartmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*org.Department, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*org.Department), args.Error(1)
}

func (m *MockDepartmentRepository) ListByAreas(ctx context.Context, areaIDs []uuid.UUID) ([]*org.Department, error) {
	args := m.Called(ctx, areaIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*org.Department), args.Error(1)
}

func (m *MockDepartmentRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*org.Department, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*org.Department), args.Error(1)
}

func (m *MockDepartmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockBankAccountRepository struct {
	mock.Mock
}

func (m *MockBankAccountRepository) Create(ctx context.Context, account *org.BankAccount) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockBankAccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*org.BankAccount, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*org.BankAccount), args.Error(1)
}

func (m *MockBankAccountRepository) List(ctx context.Context) ([]*org.BankAccount, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*org.BankAccount), args.Error(1)
}

func (m *MockBankAccountRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockDashboardRepository struct {
	mock.Mock
}

func (m *MockDashboardRepository) Totals(ctx context.Context, scope dashboard.Scope) (dashboard.Totals, error) {
	args := m.Called(ctx, scope)
	return args.Get(0).(dashboard.Totals), args.Error(1)
}

func (m *MockDashboardRepository) CountPending(ctx context.Context, scope dashboard.Scope) (int, error) {
	args := m.Called(ctx, scope)
	return args.Int(0), args.Error(1)
}

func (m *MockDashboardRepository) CountAreas(ctx context.Context, scope dashboard.Scope) (int, error) {
	args := m.Called(ctx, scope)
	return args.Int(0), args.Error(1)
}

func (m *MockDashboardRepository) BalancesByArea(ctx context.Context, scope dashboard.Scope) ([]dashboard.AreaBalance, error) {
	args := m.Called(ctx, scope)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]dashboard.AreaBalance), args.Error(1)
}

func (m *MockDashboardRepository) ExpensesByCategory(ctx context.Context, scope dashboard.Scope, from, to time.Time) ([]dashboard.CategoryTotal, error) {
	args := m.Called(ctx, scope, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]dashboard.CategoryTotal), args.Error(1)
}

func (m *MockDashboardRepository) MonthlyTotals(ctx context.Context, scope dashboard.Scope, from, to time.Time) ([]dashboard.MonthlyTotal, error) {
	args := m.Called(ctx, scope, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]dashboard.MonthlyTotal), args.Error(1)
}

func (m *MockDashboardRepository) ExpensesByArea(ctx context.Context, scope dashboard.Scope, from, to time.Time) ([]dashboard.AreaExpense, error) {
	args := m.Called(ctx, scope, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]dashboard.AreaExpense), args.Error(1)
}

func (m *MockDashboardRepository) PersonalFunds(ctx context.Context, scope dashboard.Scope, userID uuid.UUID) ([]dashboard.FundBalance, error) {
	args := m.Called(ctx, scope, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]dashboard.FundBalance), args.Error(1)
}

type MockActivityRepository struct {
	mock.Mock
}

func (m *MockActivityRepository) Upsert(ctx context.Context, entry *activity.Entry) (bool, error) {
	args := m.Called(ctx, entry)
	return args.Bool(0), args.Error(1)
}

func (m *MockActivityRepository) GetByEventID(ctx context.Context, eventID uuid.UUID) (*activity.Entry, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*activity.Entry), args.Error(1)
}

func (m *MockActivityRepository) ListByMovement(ctx context.Context, movementID uuid.UUID, limit, offset int) ([]*activity.Entry, error) {
	args := m.Called(ctx, movementID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*activity.Entry), args.Error(1)
}

func (m *MockActivityRepository) CountByMovement(ctx context.Context, movementID uuid.UUID) (int64, error) {
	args := m.Called(ctx, movementID)
	return args.Get(0).(int64), args.Error(1)
}
