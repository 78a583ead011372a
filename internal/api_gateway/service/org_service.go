package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/sanord8/YL-portal-sub002/internal/domain/access"
	"github.com/sanord8/YL-portal-sub002/internal/domain/org"
	"github.com/sanord8/YL-portal-sub002/internal/logger"
)

type CreateAreaInput struct {
	Name          string
	Currency      string
	Budget        *int64
	BankAccountID *uuid.UUID
}

type CreateDepartmentInput struct {
	AreaID uuid.UUID
	Name   string
	UserID *uuid.UUID // set for a private special fund
}

type CreateBankAccountInput struct {
	Name     string
	IBAN     *string
	Currency string
}

// OrgServiceImpl implements the OrgService interface. Writes need a global
// admin; reads are limited to the caller's areas.
type OrgServiceImpl struct {
	refs   references
	policy *access.Evaluator
	logger *slog.Logger
}

// NewOrgService creates a new ledger entity service
func NewOrgService(
	logger *slog.Logger,
	areas org.AreaRepository,
	departments org.DepartmentRepository,
	bankAccounts org.BankAccountRepository,
	policy *access.Evaluator,
) OrgService {
	return &OrgServiceImpl{
		refs:   references{areas: areas, departments: departments, bankAccounts: bankAccounts},
		policy: policy,
		logger: logger,
	}
}

func (s *OrgServiceImpl) manage(p *access.Principal) error {
	return s.policy.Authorize(p, access.ActionManage, access.Resource{})
}

func (s *OrgServiceImpl) CreateArea(ctx context.Context, p *access.Principal, in CreateAreaInput) (*org.Area, error) {
	if err := s.manage(p); err != nil {
		return nil, err
	}
	if in.BankAccountID != nil {
		if _, err := s.refs.bankAccount(ctx, "bank_account_id", *in.BankAccountID); err != nil {
			return nil, err
		}
	}

	area, err := org.NewArea(in.Name, in.Currency, in.Budget, in.BankAccountID)
	if err != nil {
		return nil, asValidation(err)
	}
	if err := s.refs.areas.Create(ctx, area); err != nil {
		return nil, err
	}

	logger.FromContext(ctx, s.logger).Info("Area created", "area_id", area.ID.String(), "name", area.Name)
	return area, nil
}

func (s *OrgServiceImpl) ListAreas(ctx context.Context, p *access.Principal) ([]*org.Area, error) {
	if p == nil {
		return nil, access.ErrUnauthenticated
	}
	if p.IsAdmin {
		return s.refs.areas.List(ctx, nil)
	}
	return s.refs.areas.List(ctx, p.AccessibleAreas())
}

func (s *OrgServiceImpl) DeleteArea(ctx context.Context, p *access.Principal, id uuid.UUID) error {
	if err := s.manage(p); err != nil {
		return err
	}
	if err := s.refs.areas.Delete(ctx, id); err != nil {
		return err
	}
	logger.FromContext(ctx, s.logger).Info("Area deleted", "area_id", id.String())
	return nil
}

func (s *OrgServiceImpl) CreateDepartment(ctx context.Context, p *access.Principal, in CreateDepartmentInput) (*org.Department, error) {
	if err := s.manage(p); err != nil {
		return nil, err
	}
	if _, err := s.refs.area(ctx, "area_id", in.AreaID); err != nil {
		return nil, err
	}

	dept, err := org.NewDepartment(in.AreaID, in.Name, in.UserID)
	if err != nil {
		return nil, asValidation(err)
	}
	if err := s.refs.departments.Create(ctx, dept); err != nil {
		return nil, err
	}

	logger.FromContext(ctx, s.logger).Info("Department created",
		"department_id", dept.ID.String(),
		"area_id", dept.AreaID.String(),
		"special_fund", dept.IsSpecialFund(),
	)
	return dept, nil
}

// ListDepartments lists one area's departments, or every visible one when areaID is nil
func (s *OrgServiceImpl) ListDepartments(ctx context.Context, p *access.Principal, areaID *uuid.UUID) ([]*org.Department, error) {
	if p == nil {
		return nil, access.ErrUnauthenticated
	}
	if areaID != nil {
		if err := s.policy.Authorize(p, access.ActionView, access.Resource{AreaID: *areaID}); err != nil {
			return nil, err
		}
		return s.refs.departments.ListByAreas(ctx, []uuid.UUID{*areaID})
	}
	if p.IsAdmin {
		return s.refs.departments.ListByAreas(ctx, nil)
	}
	return s.refs.departments.ListByAreas(ctx, p.AccessibleAreas())
}

func (s *OrgServiceImpl) DeleteDepartment(ctx context.Context, p *access.Principal, id uuid.UUID) error {
	if err := s.manage(p); err != nil {
		return err
	}
	if err := s.refs.departments.Delete(ctx, id); err != nil {
		return err
	}
	logger.FromContext(ctx, s.logger).Info("Department deleted", "department_id", id.String())
	return nil
}

func (s *OrgServiceImpl) CreateBankAccount(ctx context.Context, p *access.Principal, in CreateBankAccountInput) (*org.BankAccount, error) {
	if err := s.manage(p); err != nil {
		return nil, err
	}

	account, err := org.NewBankAccount(in.Name, trimmed(in.IBAN), in.Currency)
	if err != nil {
		return nil, asValidation(err)
	}
	if err := s.refs.bankAccounts.Create(ctx, account); err != nil {
		return nil, err
	}

	logger.FromContext(ctx, s.logger).Info("Bank account created", "bank_account_id", account.ID.String())
	return account, nil
}

// ListBankAccounts returns every live account to admins and otherwise only the
// accounts assigned to the caller's areas
func (s *OrgServiceImpl) ListBankAccounts(ctx context.Context, p *access.Principal) ([]*org.BankAccount, error) {
	if p == nil {
		return nil, access.ErrUnauthenticated
	}
	accounts, err := s.refs.bankAccounts.List(ctx)
	if err != nil {
		return nil, err
	}
	if p.IsAdmin {
		return accounts, nil
	}

	areas, err := s.refs.areas.List(ctx, p.AccessibleAreas())
	if err != nil {
		return nil, err
	}
	assigned := make(map[uuid.UUID]bool, len(areas))
	for _, a := range areas {
		if a.BankAccountID != nil {
			assigned[*a.BankAccountID] = true
		}
	}

	visible := make([]*org.BankAccount, 0, len(assigned))
	for _, acct := range accounts {
		if assigned[acct.ID] {
			visible = append(visible, acct)
		}
	}
	return visible, nil
}

func (s *OrgServiceImpl) DeleteBankAccount(ctx context.Context, p *access.Principal, id uuid.UUID) error {
	if err := s.manage(p); err != nil {
		return err
	}
	if err := s.refs.bankAccounts.SoftDelete(ctx, id); err != nil {
		return err
	}
	logger.FromContext(ctx, s.logger).Info("Bank account deleted", "bank_account_id", id.String())
	return nil
}
