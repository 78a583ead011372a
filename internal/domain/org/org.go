package org

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrEmptyName             = errors.New("name cannot be empty")
	ErrInvalidCurrencyFormat = errors.New("currency must be a 3-letter code")
	ErrNegativeBudget        = errors.New("budget cannot be negative")
)

// Area is an organizational ledger scope with its own currency
type Area struct {
	ID            uuid.UUID  `json:"id"`
	Name          string     `json:"name"`
	Currency      string     `json:"currency"`
	Budget        *int64     `json:"budget,omitempty"` // Stored in minor units
	BankAccountID *uuid.UUID `json:"bank_account_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// NewArea validates and builds an area
func NewArea(name, currency string, budget *int64, bankAccountID *uuid.UUID) (*Area, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	if len(currency) != 3 {
		return nil, ErrInvalidCurrencyFormat
	}
	if budget != nil && *budget < 0 {
		return nil, ErrNegativeBudget
	}
	now := time.Now().UTC()
	return &Area{
		ID:            uuid.New(),
		Name:          name,
		Currency:      strings.ToUpper(currency),
		Budget:        budget,
		BankAccountID: bankAccountID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// Department is a subdivision of an area. A department with a UserID is a
// private special fund for that user.
type Department struct {
	ID        uuid.UUID  `json:"id"`
	AreaID    uuid.UUID  `json:"area_id"`
	Name      string     `json:"name"`
	UserID    *uuid.UUID `json:"user_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func NewDepartment(areaID uuid.UUID, name string, userID *uuid.UUID) (*Department, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	return &Department{
		ID:        uuid.New(),
		AreaID:    areaID,
		Name:      name,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// IsSpecialFund reports whether the department is private to one user
func (d *Department) IsSpecialFund() bool {
	return d.UserID != nil
}

// BankAccount is a real external account. It is only ever soft deleted.
type BankAccount struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	IBAN      *string    `json:"iban,omitempty"`
	Currency  string     `json:"currency"`
	CreatedAt time.Time  `json:"created_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

func NewBankAccount(name string, iban *string, currency string) (*BankAccount, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	if len(currency) != 3 {
		return nil, ErrInvalidCurrencyFormat
	}
	if iban != nil {
		normalized := strings.ToUpper(strings.ReplaceAll(*iban, " ", ""))
		iban = &normalized
	}
	return &BankAccount{
		ID:        uuid.New(),
		Name:      name,
		IBAN:      iban,
		Currency:  strings.ToUpper(currency),
		CreatedAt: time.Now().UTC(),
	}, nil
}
