package movement

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sanord8/YL-portal-sub002/internal/domain/shared"
)

// Patch is a partial content edit. Nil fields are left untouched; an empty
// Category or a uuid.Nil DepartmentID/DestinationBankAccountID clears the field.
type Patch struct {
	Type                     *Type
	Amount                   *int64
	Currency                 *string
	Description              *string
	Category                 *string
	TransactionDate          *time.Time
	DepartmentID             *uuid.UUID
	SourceBankAccountID      *uuid.UUID
	DestinationBankAccountID *uuid.UUID
}

// TouchesBankAccounts reports whether the patch edits either bank account field
func (p Patch) TouchesBankAccounts() bool {
	return p.SourceBankAccountID != nil || p.DestinationBankAccountID != nil
}

// EditResult summarises what ApplyEdit changed
type EditResult struct {
	Changed     []string
	Resubmitted bool
	PrevStatus  Status
}

// ApplyEdit applies a patch. Editing an APPROVED or REJECTED movement sends it
// back to PENDING. Internal transfer detection only re-runs when a bank account
// field is part of the patch.
func (m *Movement) ApplyEdit(p Patch, now time.Time) (EditResult, error) {
	res := EditResult{PrevStatus: m.Status}

	if m.IsDeleted() || m.Status == StatusCancelled {
		return res, ErrInvalidTransition{MovementID: m.ID, Current: m.Status, Action: "edit"}
	}

	var verr shared.ValidationError
	if p.Amount != nil {
		if m.IsSplitParent {
			return res, ErrSplitParent{MovementID: m.ID, Current: m.Status, Operation: "change the amount of"}
		}
		if m.IsSplitChild() {
			return res, ErrSplitChild{MovementID: m.ID, Current: m.Status, Operation: "change the amount of"}
		}
		if *p.Amount <= 0 {
			verr.Add("amount", ErrInvalidAmount.Error())
		}
	}
	if p.Currency != nil && !ValidCurrency(*p.Currency) {
		verr.Add("currency", ErrInvalidCurrencyFormat.Error())
	}
	if p.Description != nil && strings.TrimSpace(*p.Description) == "" {
		verr.Add("description", ErrEmptyDescription.Error())
	}
	if p.Type != nil {
		if _, err := ParseType(string(*p.Type)); err != nil {
			verr.Add("type", err.Error())
		}
	}
	if verr.HasErrors() {
		return res, verr
	}

	if p.Type != nil && *p.Type != m.Type {
		m.Type = *p.Type
		res.Changed = append(res.Changed, "type")
	}
	if p.Amount != nil && *p.Amount != m.Amount {
		m.Amount = *p.Amount
		res.Changed = append(res.Changed, "amount")
	}
	if p.Currency != nil && !strings.EqualFold(*p.Currency, m.Currency) {
		m.Currency = strings.ToUpper(*p.Currency)
		res.Changed = append(res.Changed, "currency")
	}
	if p.Description != nil && strings.TrimSpace(*p.Description) != m.Description {
		m.Description = strings.TrimSpace(*p.Description)
		res.Changed = append(res.Changed, "description")
	}
	if p.Category != nil {
		next := optionalString(*p.Category)
		if !equalStringPtr(next, m.Category) {
			m.Category = next
			res.Changed = append(res.Changed, "category")
		}
	}
	if p.TransactionDate != nil && !p.TransactionDate.Equal(m.TransactionDate) {
		m.TransactionDate = *p.TransactionDate
		res.Changed = append(res.Changed, "transaction_date")
	}
	if p.DepartmentID != nil {
		next := optionalUUID(*p.DepartmentID)
		if !equalUUIDPtr(next, m.DepartmentID) {
			m.DepartmentID = next
			res.Changed = append(res.Changed, "department_id")
		}
	}
	if p.SourceBankAccountID != nil {
		next := optionalUUID(*p.SourceBankAccountID)
		if !equalUUIDPtr(next, m.SourceBankAccountID) {
			m.SourceBankAccountID = next
			res.Changed = append(res.Changed, "source_bank_account_id")
		}
	}
	if p.DestinationBankAccountID != nil {
		next := optionalUUID(*p.DestinationBankAccountID)
		if !equalUUIDPtr(next, m.DestinationBankAccountID) {
			m.DestinationBankAccountID = next
			res.Changed = append(res.Changed, "destination_bank_account_id")
		}
	}
	if p.TouchesBankAccounts() {
		m.IsInternalTransfer = IsInternalTransfer(m.SourceBankAccountID, m.DestinationBankAccountID)
	}

	if len(res.Changed) == 0 {
		return res, nil
	}

	if m.Status == StatusApproved || m.Status == StatusRejected {
		m.Status = StatusPending
		m.ApprovedBy, m.ApprovedAt = nil, nil
		m.RejectedBy, m.RejectedAt, m.RejectionReason = nil, nil, nil
		res.Resubmitted = true
	}
	m.touch(now)
	return res, nil
}

func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func optionalUUID(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}

func equalStringPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalUUIDPtr(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
