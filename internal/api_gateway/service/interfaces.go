package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/sanord8/YL-portal-sub002/internal/domain/access"
	"github.com/sanord8/YL-portal-sub002/internal/domain/activity"
	"github.com/sanord8/YL-portal-sub002/internal/domain/approval"
	"github.com/sanord8/YL-portal-sub002/internal/domain/dashboard"
	"github.com/sanord8/YL-portal-sub002/internal/domain/movement"
	"github.com/sanord8/YL-portal-sub002/internal/domain/org"
	"github.com/sanord8/YL-portal-sub002/internal/importer"
)

// ImportService turns uploaded bank statements into DRAFT movements
type ImportService interface {
	// ValidateImport parses and checks a statement without persisting anything
	ValidateImport(ctx context.Context, p *access.Principal, in ValidateImportInput) (*importer.ValidationResult, error)

	// ExecuteImport re-validates rows and persists the valid ones as drafts.
	// Rows whose idempotency key already exists count as already imported.
	ExecuteImport(ctx context.Context, p *access.Principal, rows []importer.Row, skipInvalid bool) (*ImportSummary, error)
}

// MovementService defines the interface for direct movement operations
type MovementService interface {
	Create(ctx context.Context, p *access.Principal, in CreateMovementInput) (*movement.Movement, error)

	// Get returns the movement with its split children
	Get(ctx context.Context, p *access.Principal, id uuid.UUID) (*MovementDetail, error)
	List(ctx context.Context, p *access.Principal, in ListMovementsInput) ([]*movement.Movement, int, error)

	// Update edits content; APPROVED and REJECTED movements return to PENDING
	Update(ctx context.Context, p *access.Principal, id uuid.UUID, patch movement.Patch) (*movement.Movement, error)
	Delete(ctx context.Context, p *access.Principal, id uuid.UUID) error
}

// SplitService decomposes movements into allocations and reverses them
type SplitService interface {
	Split(ctx context.Context, p *access.Principal, id uuid.UUID, allocations []movement.Allocation) (*movement.Split, error)
	UpdateSplit(ctx context.Context, p *access.Principal, id uuid.UUID, allocations []movement.Allocation) (*movement.Split, error)
	Unsplit(ctx context.Context, p *access.Principal, id uuid.UUID) (*movement.Movement, error)
}

// ApprovalService drives the movement approval state machine
type ApprovalService interface {
	Finalize(ctx context.Context, p *access.Principal, id uuid.UUID, override bool) (*movement.Movement, error)
	Approve(ctx context.Context, p *access.Principal, id uuid.UUID, comment *string) (*movement.Movement, error)
	Reject(ctx context.Context, p *access.Principal, id uuid.UUID, reason, comment *string) (*movement.Movement, error)
	Cancel(ctx context.Context, p *access.Principal, id uuid.UUID, reason *string) (*movement.Movement, error)
	AddComment(ctx context.Context, p *access.Principal, id uuid.UUID, comment string) (*approval.Entry, error)

	// History returns the approval trail oldest first
	History(ctx context.Context, p *access.Principal, id uuid.UUID) ([]*approval.Entry, error)
}

// DashboardService computes the approved-ledger aggregates a caller may see
type DashboardService interface {
	Overview(ctx context.Context, p *access.Principal) (*dashboard.Overview, error)
	Balances(ctx context.Context, p *access.Principal) ([]dashboard.AreaBalance, error)
	ExpenseBreakdown(ctx context.Context, p *access.Principal, window DateRange) ([]dashboard.CategoryTotal, error)
	IncomeVsExpense(ctx context.Context, p *access.Principal, months int) ([]dashboard.MonthlyTotal, error)
	ExpensesByArea(ctx context.Context, p *access.Principal, window DateRange) ([]dashboard.AreaExpense, error)
	PersonalFunds(ctx context.Context, p *access.Principal) ([]dashboard.FundBalance, error)
}

// OrgService manages areas, departments and bank accounts
type OrgService interface {
	CreateArea(ctx context.Context, p *access.Principal, in CreateAreaInput) (*org.Area, error)
	ListAreas(ctx context.Context, p *access.Principal) ([]*org.Area, error)
	DeleteArea(ctx context.Context, p *access.Principal, id uuid.UUID) error

	CreateDepartment(ctx context.Context, p *access.Principal, in CreateDepartmentInput) (*org.Department, error)
	ListDepartments(ctx context.Context, p *access.Principal, areaID *uuid.UUID) ([]*org.Department, error)
	DeleteDepartment(ctx context.Context, p *access.Principal, id uuid.UUID) error

	CreateBankAccount(ctx context.Context, p *access.Principal, in CreateBankAccountInput) (*org.BankAccount, error)
	ListBankAccounts(ctx context.Context, p *access.Principal) ([]*org.BankAccount, error)
	DeleteBankAccount(ctx context.Context, p *access.Principal, id uuid.UUID) error
}

// ActivityService reads the projected activity feed
type ActivityService interface {
	// ListByMovement returns a page of the feed newest first and the total count
	ListByMovement(ctx context.Context, p *access.Principal, movementID uuid.UUID, page, perPage int) ([]*activity.Entry, int64, error)
}
