package movement

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Common errors
var (
	ErrInvalidAmount         = errors.New("amount must be positive")
	ErrInvalidCurrencyFormat = errors.New("currency must be a 3-letter code")
	ErrInvalidType           = errors.New("invalid movement type")
	ErrEmptyDescription      = errors.New("description cannot be empty")
	ErrMissingArea           = errors.New("area is required")
	ErrMissingOwner          = errors.New("owner is required")
)

// Type classifies the direction of a movement
type Type string

const (
	TypeIncome       Type = "INCOME"
	TypeExpense      Type = "EXPENSE"
	TypeTransfer     Type = "TRANSFER"
	TypeDistribution Type = "DISTRIBUTION"
)

// ParseType accepts any casing of a movement type name
func ParseType(s string) (Type, error) {
	t := Type(strings.ToUpper(strings.TrimSpace(s)))
	switch t {
	case TypeIncome, TypeExpense, TypeTransfer, TypeDistribution:
		return t, nil
	}
	return "", ErrInvalidType
}

// Status is the approval state of a movement
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusPending   Status = "PENDING"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
	StatusCancelled Status = "CANCELLED"
)

// ParseStatus validates a status name
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	switch st {
	case StatusDraft, StatusPending, StatusApproved, StatusRejected, StatusCancelled:
		return st, nil
	}
	return "", errors.New("invalid movement status")
}

// Movement is a single financial transaction
type Movement struct {
	ID                       uuid.UUID  `json:"id"`
	Type                     Type       `json:"type"`
	Status                   Status     `json:"status"`
	Amount                   int64      `json:"amount"` // Stored in minor units
	Currency                 string     `json:"currency"`
	Description              string     `json:"description"`
	Category                 *string    `json:"category,omitempty"`
	TransactionDate          time.Time  `json:"transaction_date"`
	AreaID                   uuid.UUID  `json:"area_id"`
	DepartmentID             *uuid.UUID `json:"department_id,omitempty"`
	UserID                   uuid.UUID  `json:"user_id"`
	SourceBankAccountID      *uuid.UUID `json:"source_bank_account_id,omitempty"`
	DestinationBankAccountID *uuid.UUID `json:"destination_bank_account_id,omitempty"`
	IsInternalTransfer       bool       `json:"is_internal_transfer"`
	ParentID                 *uuid.UUID `json:"parent_id,omitempty"`
	IsSplitParent            bool       `json:"is_split_parent"`
	ApprovedBy               *uuid.UUID `json:"approved_by,omitempty"`
	ApprovedAt               *time.Time `json:"approved_at,omitempty"`
	RejectedBy               *uuid.UUID `json:"rejected_by,omitempty"`
	RejectedAt               *time.Time `json:"rejected_at,omitempty"`
	RejectionReason          *string    `json:"rejection_reason,omitempty"`
	IdempotencyKey           *string    `json:"idempotency_key,omitempty"`
	CreatedAt                time.Time  `json:"created_at"`
	UpdatedAt                time.Time  `json:"updated_at"`
	DeletedAt                *time.Time `json:"deleted_at,omitempty"`
}

// Params carries the caller supplied fields of a new movement
type Params struct {
	Type                     Type
	Amount                   int64
	Currency                 string
	Description              string
	Category                 *string
	TransactionDate          time.Time
	AreaID                   uuid.UUID
	DepartmentID             *uuid.UUID
	UserID                   uuid.UUID
	SourceBankAccountID      *uuid.UUID
	DestinationBankAccountID *uuid.UUID
	IdempotencyKey           *string
}

// New builds a movement in the given initial status. Drafts come from imports,
// PENDING from direct entry.
func New(p Params, status Status) (*Movement, error) {
	if p.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if !ValidCurrency(p.Currency) {
		return nil, ErrInvalidCurrencyFormat
	}
	if _, err := ParseType(string(p.Type)); err != nil {
		return nil, err
	}
	if strings.TrimSpace(p.Description) == "" {
		return nil, ErrEmptyDescription
	}
	if p.AreaID == uuid.Nil {
		return nil, ErrMissingArea
	}
	if p.UserID == uuid.Nil {
		return nil, ErrMissingOwner
	}

	now := time.Now().UTC()
	return &Movement{
		ID:                       uuid.New(),
		Type:                     p.Type,
		Status:                   status,
		Amount:                   p.Amount,
		Currency:                 strings.ToUpper(p.Currency),
		Description:              strings.TrimSpace(p.Description),
		Category:                 p.Category,
		TransactionDate:          p.TransactionDate,
		AreaID:                   p.AreaID,
		DepartmentID:             p.DepartmentID,
		UserID:                   p.UserID,
		SourceBankAccountID:      p.SourceBankAccountID,
		DestinationBankAccountID: p.DestinationBankAccountID,
		IsInternalTransfer:       IsInternalTransfer(p.SourceBankAccountID, p.DestinationBankAccountID),
		IdempotencyKey:           p.IdempotencyKey,
		CreatedAt:                now,
		UpdatedAt:                now,
	}, nil
}

// ValidCurrency checks for a 3-letter alphabetic code
func ValidCurrency(c string) bool {
	if len(c) != 3 {
		return false
	}
	for _, r := range c {
		if (r < 'A' || r > 'Z') && (r < 'a' || r > 'z') {
			return false
		}
	}
	return true
}

// IsInternalTransfer is true iff a destination is set and equals the source
func IsInternalTransfer(source, destination *uuid.UUID) bool {
	return source != nil && destination != nil && *source == *destination
}

// NeedsCategorization reports whether the movement still lacks a department
func (m *Movement) NeedsCategorization() bool {
	return m.DepartmentID == nil
}

// IsSplitChild reports whether the movement is an allocation of a split parent
func (m *Movement) IsSplitChild() bool {
	return m.ParentID != nil
}

// IsDeleted reports whether the movement has been tombstoned
func (m *Movement) IsDeleted() bool {
	return m.DeletedAt != nil
}

// CountsTowardBalances reports whether aggregates include this movement
func (m *Movement) CountsTowardBalances() bool {
	return m.Status == StatusApproved && !m.IsDeleted() && !m.IsInternalTransfer && !m.IsSplitParent
}

func (m *Movement) touch(now time.Time) {
	m.UpdatedAt = now
}

// Finalize moves a DRAFT to PENDING. Without override the movement must be categorized.
func (m *Movement) Finalize(override bool, now time.Time) error {
	if m.IsSplitParent {
		return ErrSplitParent{MovementID: m.ID, Current: m.Status, Operation: "finalize"}
	}
	if m.Status != StatusDraft {
		return ErrInvalidTransition{MovementID: m.ID, Current: m.Status, Action: "finalize"}
	}
	if m.NeedsCategorization() && !override {
		return ErrNeedsCategorization{MovementID: m.ID, Current: m.Status}
	}
	m.Status = StatusPending
	m.touch(now)
	return nil
}

// Approve moves a PENDING movement to APPROVED
func (m *Movement) Approve(by uuid.UUID, now time.Time) error {
	if m.IsSplitParent {
		return ErrSplitParent{MovementID: m.ID, Current: m.Status, Operation: "approve"}
	}
	if m.Status != StatusPending {
		return ErrInvalidTransition{MovementID: m.ID, Current: m.Status, Action: "approve"}
	}
	m.Status = StatusApproved
	m.ApprovedBy = &by
	m.ApprovedAt = &now
	m.RejectedBy = nil
	m.RejectedAt = nil
	m.RejectionReason = nil
	m.touch(now)
	return nil
}

// Reject moves a PENDING movement to REJECTED
func (m *Movement) Reject(by uuid.UUID, reason *string, now time.Time) error {
	if m.IsSplitParent {
		return ErrSplitParent{MovementID: m.ID, Current: m.Status, Operation: "reject"}
	}
	if m.Status != StatusPending {
		return ErrInvalidTransition{MovementID: m.ID, Current: m.Status, Action: "reject"}
	}
	m.Status = StatusRejected
	m.RejectedBy = &by
	m.RejectedAt = &now
	m.RejectionReason = reason
	m.ApprovedBy = nil
	m.ApprovedAt = nil
	m.touch(now)
	return nil
}

// Cancel withdraws a PENDING, APPROVED or REJECTED movement
func (m *Movement) Cancel(now time.Time) error {
	if m.IsSplitParent {
		return ErrSplitParent{MovementID: m.ID, Current: m.Status, Operation: "cancel"}
	}
	switch m.Status {
	case StatusPending, StatusApproved, StatusRejected:
	default:
		return ErrInvalidTransition{MovementID: m.ID, Current: m.Status, Action: "cancel"}
	}
	m.Status = StatusCancelled
	m.touch(now)
	return nil
}

// CanSplit reports whether the movement may be decomposed into allocations
func (m *Movement) CanSplit() error {
	if m.IsSplitChild() {
		return ErrSplitChild{MovementID: m.ID, Current: m.Status, Operation: "split"}
	}
	if m.IsSplitParent {
		return ErrAlreadySplit{MovementID: m.ID, Current: m.Status}
	}
	if m.Status != StatusDraft && m.Status != StatusPending {
		return ErrInvalidTransition{MovementID: m.ID, Current: m.Status, Action: "split"}
	}
	return nil
}

// CanResplit reports whether an existing split may be replaced or reversed
func (m *Movement) CanResplit(action string) error {
	if !m.IsSplitParent {
		return ErrNotSplit{MovementID: m.ID, Current: m.Status}
	}
	if m.Status != StatusDraft && m.Status != StatusPending {
		return ErrInvalidTransition{MovementID: m.ID, Current: m.Status, Action: action}
	}
	return nil
}

// CanDelete reports whether the movement may be soft deleted
func (m *Movement) CanDelete() error {
	if m.IsSplitParent {
		return ErrSplitParent{MovementID: m.ID, Current: m.Status, Operation: "delete"}
	}
	if m.IsSplitChild() {
		return ErrSplitChild{MovementID: m.ID, Current: m.Status, Operation: "delete"}
	}
	if m.Status != StatusDraft && m.Status != StatusPending {
		return ErrInvalidTransition{MovementID: m.ID, Current: m.Status, Action: "delete"}
	}
	return nil
}
