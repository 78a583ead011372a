package org

import (
	"context"

	"github.com/google/uuid"
)

// AreaRepository defines area persistence operations
type AreaRepository interface {
	Create(ctx context.Context, area *Area) error
	GetByID(ctx context.Context, id uuid.UUID) (*Area, error)

	// List returns every area when ids is nil
	List(ctx context.Context, ids []uuid.UUID) ([]*Area, error)
	ListByBankAccount(ctx context.Context, bankAccountID uuid.UUID) ([]*Area, error)

	// Delete returns ErrEntityInUse while any movement references the area
	Delete(ctx context.Context, id uuid.UUID) error
}

// DepartmentRepository defines department persistence operations
type DepartmentRepository interface {
	Create(ctx context.Context, dept *Department) error
	GetByID(ctx context.Context, id uuid.UUID) (*Department, error)
	ListByAreas(ctx context.Context, areaIDs []uuid.UUID) ([]*Department, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Department, error)

	// Delete returns ErrEntityInUse while any movement references the department
	Delete(ctx context.Context, id uuid.UUID) error
}

// BankAccountRepository defines bank account persistence operations
type BankAccountRepository interface {
	Create(ctx context.Context, account *BankAccount) error
	GetByID(ctx context.Context, id uuid.UUID) (*BankAccount, error)
	List(ctx context.Context) ([]*BankAccount, error)

	// SoftDelete returns ErrEntityInUse while an area or live movement references the account
	SoftDelete(ctx context.Context, id uuid.UUID) error
}
