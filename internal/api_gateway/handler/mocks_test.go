package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sanord8/YL-portal-sub002/internal/api_gateway/middleware"
	"github.com/sanord8/YL-portal-sub002/internal/api_gateway/service"
	"github.com/sanord8/YL-portal-sub002/internal/domain/access"
	"github.com/sanord8/YL-portal-sub002/internal/domain/activity"
	"github.com/sanord8/YL-portal-sub002/internal/domain/approval"
	"github.com/sanord8/YL-portal-sub002/internal/domain/dashboard"
	"github.com/sanord8/YL-portal-sub002/internal/domain/movement"
	"github.com/sanord8/YL-portal-sub002/internal/domain/org"
	"github.com/sanord8/YL-portal-sub002/internal/importer"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// setupTestRouter mounts the correlation middleware and, when p is set, an
// authenticated principal
func setupTestRouter(p *access.Principal) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.CorrelationID())
	if p != nil {
		r.Use(func(c *gin.Context) {
			c.Set(middleware.PrincipalKey, p)
			c.Next()
		})
	}
	return r
}

func testPrincipal() *access.Principal {
	return access.NewPrincipal(uuid.New(), "manager@example.org", false, []access.UserArea{
		{AreaID: uuid.New(), Role: access.RoleManager},
	})
}

func decodeResponse(t *testing.T, rr *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp), "body: %s", rr.Body.String())
	return resp
}

// decodeData re-decodes the envelope's data field into out
func decodeData(t *testing.T, rr *httptest.ResponseRecorder, out interface{}) Response {
	t.Helper()
	resp := decodeResponse(t, rr)
	require.NotNil(t, resp.Data, "'data' field should not be nil")
	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, out))
	return resp
}

type MockMovementService struct {
	mock.Mock
}

func (m *MockMovementService) Create(ctx context.Context, p *access.Principal, in service.CreateMovementInput) (*movement.Movement, error) {
	args := m.Called(ctx, p, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*movement.Movement), args.Error(1)
}

func (m *MockMovementService) Get(ctx context.Context, p *access.Principal, id uuid.UUID) (*service.MovementDetail, error) {
	args := m.Called(ctx, p, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.MovementDetail), args.Error(1)
}

func (m *MockMovementService) List(ctx context.Context, p *access.Principal, in service.ListMovementsInput) ([]*movement.Movement, int, error) {
	args := m.Called(ctx, p, in)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*movement.Movement), args.Int(1), args.Error(2)
}

func (m *MockMovementService) Update(ctx context.Context, p *access.Principal, id uuid.UUID, patch movement.Patch) (*movement.Movement, error) {
	args := m.Called(ctx, p, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*movement.Movement), args.Error(1)
}

func (m *MockMovementService) Delete(ctx context.Context, p *access.Principal, id uuid.UUID) error {
	args := m.Called(ctx, p, id)
	return args.Error(0)
}

type MockSplitService struct {
	mock.Mock
}

func (m *MockSplitService) Split(ctx context.Context, p *access.Principal, id uuid.UUID, allocations []movement.Allocation) (*movement.Split, error) {
	args := m.Called(ctx, p, id, allocations)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*movement.Split), args.Error(1)
}

func (m *MockSplitService) UpdateSplit(ctx context.Context, p *access.Principal, id uuid.UUID, allocations []movement.Allocation) (*movement.Split, error) {
	args := m.Called(ctx, p, id, allocations)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*movement.Split), args.Error(1)
}

func (m *MockSplitService) Unsplit(ctx context.Context, p *access.Principal, id uuid.UUID) (*movement.Movement, error) {
	args := m.Called(ctx, p, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*movement.Movement), args.Error(1)
}

type MockApprovalService struct {
	mock.Mock
}

func (m *MockApprovalService) Finalize(ctx context.Context, p *access.Principal, id uuid.UUID, override bool) (*movement.Movement, error) {
	args := m.Called(ctx, p, id, override)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*movement.Movement), args.Error(1)
}

func (m *MockApprovalService) Approve(ctx context.Context, p *access.Principal, id uuid.UUID, comment *string) (*movement.Movement, error) {
	args := m.Called(ctx, p, id, comment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*movement.Movement), args.Error(1)
}

func (m *MockApprovalService) Reject(ctx context.Context, p *access.Principal, id uuid.UUID, reason, comment *string) (*movement.Movement, error) {
	args := m.Called(ctx, p, id, reason, comment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*movement.Movement), args.Error(1)
}

func (m *MockApprovalService) Cancel(ctx context.Context, p *access.Principal, id uuid.UUID, reason *string) (*movement.Movement, error) {
	args := m.Called(ctx, p, id, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*movement.Movement), args.Error(1)
}

func (m *MockApprovalService) AddComment(ctx context.Context, p *access.Principal, id uuid.UUID, comment string) (*approval.Entry, error) {
	args := m.Called(ctx, p, id, comment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*approval.Entry), args.Error(1)
}

func (m *MockApprovalService) History(ctx context.Context, p *access.Principal, id uuid.UUID) ([]*approval.Entry, error) {
	args := m.Called(ctx, p, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*approval.Entry), args.Error(1)
}

type MockImportService struct {
	mock.Mock
}

func (m *MockImportService) ValidateImport(ctx context.Context, p *access.Principal, in service.ValidateImportInput) (*importer.ValidationResult, error) {
	args := m.Called(ctx, p, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*importer.ValidationResult), args.Error(1)
}

func (m *MockImportService) ExecuteImport(ctx context.Context, p *access.Principal, rows []importer.Row, skipInvalid bool) (*service.ImportSummary, error) {
	args := m.Called(ctx, p, rows, skipInvalid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ImportSummary), args.Error(1)
}

type MockDashboardService struct {
	mock.Mock
}

func (m *MockDashboardService) Overview(ctx context.Context, p *access.Principal) (*dashboard.Overview, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dashboard.Overview), args.Error(1)
}

func (m *MockDashboardService) Balances(ctx context.Context, p *access.Principal) ([]dashboard.AreaBalance, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]dashboard.AreaBalance), args.Error(1)
}

func (m *MockDashboardService) ExpenseBreakdown(ctx context.Context, p *access.Principal, window service.DateRange) ([]dashboard.CategoryTotal, error) {
	args := m.Called(ctx, p, window)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]dashboard.CategoryTotal), args.Error(1)
}

func (m *MockDashboardService) IncomeVsExpense(ctx context.Context, p *access.Principal, months int) ([]dashboard.MonthlyTotal, error) {
	args := m.Called(ctx, p, months)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]dashboard.MonthlyTotal), args.Error(1)
}

func (m *MockDashboardService) ExpensesByArea(ctx context.Context, p *access.Principal, window service.DateRange) ([]dashboard.AreaExpense, error) {
	args := m.Called(ctx, p, window)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]dashboard.AreaExpense), args.Error(1)
}

func (m *MockDashboardService) PersonalFunds(ctx context.Context, p *access.Principal) ([]dashboard.FundBalance, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]dashboard.FundBalance), args.Error(1)
}

type MockOrgService struct {
	mock.Mock
}

func (m *MockOrgService) CreateArea(ctx context.Context, p *access.Principal, in service.CreateAreaInput) (*org.Area, error) {
	args := m.Called(ctx, p, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*org.Area), args.Error(1)
}

func (m *MockOrgService) ListAreas(ctx context.Context, p *access.Principal) ([]*org.Area, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*org.Area), args.Error(1)
}

func (m *MockOrgService) DeleteArea(ctx context.Context, p *access.Principal, id uuid.UUID) error {
	return m.Called(ctx, p, id).Error(0)
}

func (m *MockOrgService) CreateDepartment(ctx context.Context, p *access.Principal, in service.CreateDepartmentInput) (*org.Department, error) {
	args := m.Called(ctx, p, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*org.Department), args.Error(1)
}

func (m *MockOrgService) ListDepartments(ctx context.Context, p *access.Principal, areaID *uuid.UUID) ([]*org.Department, error) {
	args := m.Called(ctx, p, areaID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*org.Department), args.Error(1)
}

func (m *MockOrgService) DeleteDepartment(ctx context.Context, p *access.Principal, id uuid.UUID) error {
	return m.Called(ctx, p, id).Error(0)
}

func (m *MockOrgService) CreateBankAccount(ctx context.Context, p *access.Principal, in service.CreateBankAccountInput) (*org.BankAccount, error) {
	args := m.Called(ctx, p, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*org.BankAccount), args.Error(1)
}

func (m *MockOrgService) ListBankAccounts(ctx context.Context, p *access.Principal) ([]*org.BankAccount, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*org.BankAccount), args.Error(1)
}

func (m *MockOrgService) DeleteBankAccount(ctx context.Context, p *access.Principal, id uuid.UUID) error {
	return m.Called(ctx, p, id).Error(0)
}

type MockActivityService struct {
	mock.Mock
}

func (m *MockActivityService) ListByMovement(ctx context.Context, p *access.Principal, movementID uuid.UUID, page, perPage int) ([]*activity.Entry, int64, error) {
	args := m.Called(ctx, p, movementID, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*activity.Entry), args.Get(1).(int64), args.Error(2)
}
