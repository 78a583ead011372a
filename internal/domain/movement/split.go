package movement

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sanord8/YL-portal-sub002/internal/domain/shared"
)

const (
	MinAllocations = 2
	MaxAllocations = 20
)

// Allocation is one requested share of a split parent
type Allocation struct {
	AreaID          uuid.UUID
	DepartmentID    *uuid.UUID
	Amount          int64
	Description     *string
	TransactionDate *time.Time
}

// ValidateAllocations checks count, per-allocation fields and exact conservation of the parent amount
func ValidateAllocations(parentAmount int64, allocations []Allocation) error {
	var verr shared.ValidationError

	if len(allocations) < MinAllocations || len(allocations) > MaxAllocations {
		verr.Add("allocations", fmt.Sprintf("must contain between %d and %d allocations, got %d", MinAllocations, MaxAllocations, len(allocations)))
		return verr
	}

	var sum int64
	for i, a := range allocations {
		if a.AreaID == uuid.Nil {
			verr.Add(fmt.Sprintf("allocations[%d].area_id", i), "is required")
		}
		if a.Amount <= 0 {
			verr.Add(fmt.Sprintf("allocations[%d].amount", i), "must be a positive integer amount")
			continue
		}
		if a.Description != nil && strings.TrimSpace(*a.Description) == "" {
			verr.Add(fmt.Sprintf("allocations[%d].description", i), "cannot be blank when provided")
		}
		sum += a.Amount
	}
	if verr.HasErrors() {
		return verr
	}

	if sum != parentAmount {
		verr.Add("allocations", fmt.Sprintf("allocation amounts sum to %d but the movement amount is %d", sum, parentAmount))
		return verr
	}
	return nil
}

// Split is the fixed two-level view of a decomposed movement
type Split struct {
	Parent   *Movement
	Children []*Movement
}

// Total sums the live children
func (s Split) Total() int64 {
	var total int64
	for _, c := range s.Children {
		if !c.IsDeleted() {
			total += c.Amount
		}
	}
	return total
}

// Reconciles reports whether the children account for the parent amount exactly
func (s Split) Reconciles() bool {
	return s.Parent != nil && s.Total() == s.Parent.Amount
}

// NewSplit builds the children for a parent. The parent is flagged as split;
// children inherit type, currency, bank linkage, owner and date unless overridden.
func NewSplit(parent *Movement, allocations []Allocation, now time.Time) Split {
	children := make([]*Movement, 0, len(allocations))
	for i, a := range allocations {
		description := parent.Description
		if a.Description != nil {
			description = strings.TrimSpace(*a.Description)
		}
		txDate := parent.TransactionDate
		if a.TransactionDate != nil {
			txDate = *a.TransactionDate
		}

		child := &Movement{
			ID:                       uuid.New(),
			Type:                     parent.Type,
			Status:                   childStatus(a),
			Amount:                   a.Amount,
			Currency:                 parent.Currency,
			Description:              description,
			Category:                 parent.Category,
			TransactionDate:          txDate,
			AreaID:                   a.AreaID,
			DepartmentID:             a.DepartmentID,
			UserID:                   parent.UserID,
			SourceBankAccountID:      parent.SourceBankAccountID,
			DestinationBankAccountID: parent.DestinationBankAccountID,
			IsInternalTransfer:       parent.IsInternalTransfer,
			ParentID:                 &parent.ID,
			// Offset keeps creation order stable for display
			CreatedAt: now.Add(time.Duration(i) * time.Microsecond),
			UpdatedAt: now,
		}
		children = append(children, child)
	}

	parent.IsSplitParent = true
	parent.touch(now)

	return Split{Parent: parent, Children: children}
}

// Categorized allocations are ready for approval; the rest wait as drafts
func childStatus(a Allocation) Status {
	if a.DepartmentID == nil {
		return StatusDraft
	}
	return StatusPending
}

// Unsplit clears the split flag on the parent
func (m *Movement) Unsplit(now time.Time) {
	m.IsSplitParent = false
	m.touch(now)
}
