package importer

import (
	"github.com/google/uuid"
	"github.com/sanord8/YL-portal-sub002/internal/domain/movement"
	"github.com/sanord8/YL-portal-sub002/internal/domain/shared"
)

// RowData is a candidate movement parsed from one statement row. It round-trips
// through the client between validation and execution.
type RowData struct {
	RowNumber                int           `json:"row_number"`
	Date                     string        `json:"date"` // YYYY-MM-DD
	Description              string        `json:"description"`
	Amount                   int64         `json:"amount"` // Stored in minor units
	Type                     movement.Type `json:"type"`
	Currency                 string        `json:"currency,omitempty"`
	Category                 *string       `json:"category,omitempty"`
	AreaID                   *uuid.UUID    `json:"area_id,omitempty"`
	DepartmentID             *uuid.UUID    `json:"department_id,omitempty"`
	SourceBankAccountID      uuid.UUID     `json:"source_bank_account_id"`
	DestinationBankAccountID *uuid.UUID    `json:"destination_bank_account_id,omitempty"`
	IdempotencyKey           string        `json:"idempotency_key,omitempty"`
}

// Row is a parsed row with its validation findings
type Row struct {
	Data     RowData             `json:"data"`
	Raw      map[string]string   `json:"raw,omitempty"`
	Errors   []shared.FieldError `json:"errors"`
	Warnings []shared.FieldError `json:"warnings"`
}

// Valid reports whether the row can be persisted
func (r *Row) Valid() bool {
	return len(r.Errors) == 0
}

func (r *Row) addError(field, message string) {
	r.Errors = append(r.Errors, shared.FieldError{Field: field, Message: message})
}

func (r *Row) addWarning(field, message string) {
	r.Warnings = append(r.Warnings, shared.FieldError{Field: field, Message: message})
}

// AddError records a row error found outside this package, e.g. during reference resolution
func (r *Row) AddError(field, message string) {
	r.addError(field, message)
}

// ValidationResult is the outcome of a dry-run validation pass
type ValidationResult struct {
	Rows         []Row `json:"rows"`
	TotalRows    int   `json:"total_rows"`
	ValidRows    int   `json:"valid_rows"`
	ErrorCount   int   `json:"error_count"`
	WarningCount int   `json:"warning_count"`
}

// Summarize builds a ValidationResult with counts taken from rows
func Summarize(rows []Row) ValidationResult {
	res := ValidationResult{Rows: rows, TotalRows: len(rows)}
	if res.Rows == nil {
		res.Rows = []Row{}
	}
	for i := range rows {
		if rows[i].Valid() {
			res.ValidRows++
		}
		res.ErrorCount += len(rows[i].Errors)
		res.WarningCount += len(rows[i].Warnings)
	}
	return res
}
