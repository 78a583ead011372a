package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/sanord8/YL-portal-sub002/internal/domain/org"
	"github.com/sanord8/YL-portal-sub002/internal/domain/shared"
)

// references checks that ids a caller supplies point at live ledger entities
type references struct {
	areas        org.AreaRepository
	departments  org.DepartmentRepository
	bankAccounts org.BankAccountRepository
}

// department returns the department after checking it belongs to areaID
func (r references) department(ctx context.Context, field string, id, areaID uuid.UUID) (*org.Department, error) {
	dept, err := r.departments.GetByID(ctx, id)
	if err != nil {
		var notFound org.ErrDepartmentNotFound
		if errors.As(err, &notFound) {
			return nil, shared.NewValidationError(field, err.Error())
		}
		return nil, err
	}
	if dept.AreaID != areaID {
		return nil, shared.NewValidationError(field, org.ErrDepartmentAreaMismatch{DepartmentID: id, AreaID: areaID}.Error())
	}
	return dept, nil
}

func (r references) area(ctx context.Context, field string, id uuid.UUID) (*org.Area, error) {
	area, err := r.areas.GetByID(ctx, id)
	if err != nil {
		var notFound org.ErrAreaNotFound
		if errors.As(err, &notFound) {
			return nil, shared.NewValidationError(field, err.Error())
		}
		return nil, err
	}
	return area, nil
}

func (r references) bankAccount(ctx context.Context, field string, id uuid.UUID) (*org.BankAccount, error) {
	account, err := r.bankAccounts.GetByID(ctx, id)
	if err != nil {
		var notFound org.ErrBankAccountNotFound
		if errors.As(err, &notFound) {
			return nil, shared.NewValidationError(field, err.Error())
		}
		return nil, fmt.Errorf("failed to load bank account: %w", err)
	}
	return account, nil
}
