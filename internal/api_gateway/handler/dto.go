package handler

import (
	"errors"
	"io"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sanord8/YL-portal-sub002/internal/domain/movement"
	"github.com/sanord8/YL-portal-sub002/internal/domain/shared"
	"github.com/sanord8/YL-portal-sub002/internal/importer"
)

// ValidateImportRequest uploads a bank statement for a dry run. FileData is base64;
// an empty statement validates to zero rows.
type ValidateImportRequest struct {
	SourceBankAccountID string `json:"source_bank_account_id"`
	FileName            string `json:"file_name" binding:"required"`
	FileData            string `json:"file_data"`
}

// ExecuteImportRequest persists the rows returned by a validation run
type ExecuteImportRequest struct {
	Rows        []importer.Row `json:"rows"`
	SkipInvalid bool           `json:"skip_invalid"`
}

// CreateMovementRequest represents a request to record a movement directly
type CreateMovementRequest struct {
	Type                     string  `json:"type" binding:"required"`
	Amount                   int64   `json:"amount" binding:"required,gt=0"`
	Currency                 *string `json:"currency,omitempty"`
	Description              string  `json:"description" binding:"required"`
	Category                 *string `json:"category,omitempty"`
	TransactionDate          string  `json:"transaction_date" binding:"required"`
	AreaID                   string  `json:"area_id" binding:"required"`
	DepartmentID             *string `json:"department_id,omitempty"`
	SourceBankAccountID      *string `json:"source_bank_account_id,omitempty"`
	DestinationBankAccountID *string `json:"destination_bank_account_id,omitempty"`
	Approve                  bool    `json:"approve"`
}

// UpdateMovementRequest carries only the fields being changed
type UpdateMovementRequest struct {
	Type                     *string `json:"type,omitempty"`
	Amount                   *int64  `json:"amount,omitempty"`
	Currency                 *string `json:"currency,omitempty"`
	Description              *string `json:"description,omitempty"`
	Category                 *string `json:"category,omitempty"`
	TransactionDate          *string `json:"transaction_date,omitempty"`
	DepartmentID             *string `json:"department_id,omitempty"`
	SourceBankAccountID      *string `json:"source_bank_account_id,omitempty"`
	DestinationBankAccountID *string `json:"destination_bank_account_id,omitempty"`
}

// ListMovementsQuery filters GET /movements
type ListMovementsQuery struct {
	AreaID  string `form:"area_id"`
	Status  string `form:"status"`
	Page    int    `form:"page,default=1" binding:"min=1"`
	PerPage int    `form:"per_page,default=20" binding:"min=1,max=100"`
}

// AllocationRequest is one slice of a split
type AllocationRequest struct {
	AreaID          string  `json:"area_id"`
	DepartmentID    *string `json:"department_id,omitempty"`
	Amount          int64   `json:"amount"`
	Description     *string `json:"description,omitempty"`
	TransactionDate *string `json:"transaction_date,omitempty"`
}

// SplitRequest creates or replaces the allocations of a movement
type SplitRequest struct {
	Allocations []AllocationRequest `json:"allocations"`
}

// SplitResponse is a split parent with its allocations
type SplitResponse struct {
	Parent      *movement.Movement   `json:"parent"`
	Allocations []*movement.Movement `json:"allocations"`
}

type FinalizeRequest struct {
	Override bool `json:"override"`
}

type ApproveRequest struct {
	Comment *string `json:"comment,omitempty"`
}

type RejectRequest struct {
	Reason  *string `json:"reason,omitempty"`
	Comment *string `json:"comment,omitempty"`
}

type CancelRequest struct {
	Reason *string `json:"reason,omitempty"`
}

type CommentRequest struct {
	Comment string `json:"comment" binding:"required"`
}

// DateRangeQuery bounds the dashboard windows; both ends are YYYY-MM-DD and inclusive
type DateRangeQuery struct {
	From string `form:"from"`
	To   string `form:"to"`
}

type MonthsQuery struct {
	Months int `form:"months,default=6"`
}

type CreateAreaRequest struct {
	Name          string  `json:"name" binding:"required"`
	Currency      string  `json:"currency" binding:"required"`
	Budget        *int64  `json:"budget,omitempty"`
	BankAccountID *string `json:"bank_account_id,omitempty"`
}

type CreateDepartmentRequest struct {
	AreaID string  `json:"area_id" binding:"required"`
	Name   string  `json:"name" binding:"required"`
	UserID *string `json:"user_id,omitempty"`
}

type CreateBankAccountRequest struct {
	Name     string  `json:"name" binding:"required"`
	IBAN     *string `json:"iban,omitempty"`
	Currency string  `json:"currency" binding:"required"`
}

// PaginationParams represents pagination parameters for list endpoints
type PaginationParams struct {
	Page    int `form:"page,default=1" binding:"min=1"`
	PerPage int `form:"per_page,default=20" binding:"min=1,max=100"`
}

// bindOptionalJSON binds a body that may be omitted entirely
func bindOptionalJSON(c *gin.Context, obj interface{}) error {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return nil
	}
	if err := c.ShouldBindJSON(obj); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// fieldParser collects conversion errors for request fields so they can be
// reported together
type fieldParser struct {
	verr shared.ValidationError
}

func (f *fieldParser) id(field, raw string) uuid.UUID {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		f.verr.Add(field, "must be a valid UUID")
		return uuid.Nil
	}
	return id
}

func (f *fieldParser) optionalID(field string, raw *string) *uuid.UUID {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil
	}
	id := f.id(field, *raw)
	return &id
}

func (f *fieldParser) date(field, raw string) time.Time {
	d, err := time.Parse(importer.DateLayout, strings.TrimSpace(raw))
	if err != nil {
		f.verr.Add(field, "must be a date in YYYY-MM-DD format")
		return time.Time{}
	}
	return d
}

func (f *fieldParser) optionalDate(field string, raw *string) *time.Time {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil
	}
	d := f.date(field, *raw)
	return &d
}

func (f *fieldParser) movementType(field, raw string) movement.Type {
	t, err := movement.ParseType(raw)
	if err != nil {
		f.verr.Add(field, "must be one of INCOME, EXPENSE, TRANSFER, DISTRIBUTION")
	}
	return t
}

func (f *fieldParser) err() error {
	if f.verr.HasErrors() {
		return f.verr
	}
	return nil
}
