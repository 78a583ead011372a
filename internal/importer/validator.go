package importer

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sanord8/YL-portal-sub002/internal/domain/movement"
	"github.com/sanord8/YL-portal-sub002/internal/domain/shared"
)

// MaxDescriptionLength bounds imported descriptions
const MaxDescriptionLength = 500

// FileHash fingerprints uploaded statement contents
func FileHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// IdempotencyKey derives a stable key for a row of a given file, so that
// re-importing the same statement into the same account is a no-op
func IdempotencyKey(sourceBankAccountID uuid.UUID, fileHash string, line int) string {
	sum := sha256.Sum256([]byte(sourceBankAccountID.String() + "|" + fileHash + "|" + strconv.Itoa(line)))
	return hex.EncodeToString(sum[:])
}

// ContentKey derives a key from the row contents when the client did not send one
func ContentKey(d RowData) string {
	sum := sha256.Sum256([]byte(strings.Join([]string{
		d.SourceBankAccountID.String(),
		d.Date,
		strconv.FormatInt(d.Amount, 10),
		string(d.Type),
		d.Description,
		strconv.Itoa(d.RowNumber),
	}, "|")))
	return hex.EncodeToString(sum[:])
}

// ValidateRows parses raw statement rows into candidate movements and records
// per-field errors and warnings. Nothing here touches storage. defaultCurrency
// sets the minor-unit scale for rows without a currency column.
func ValidateRows(raw []RawRow, sourceBankAccountID uuid.UUID, fileHash, defaultCurrency string, now time.Time) []Row {
	rows := make([]Row, 0, len(raw))
	seen := make(map[string]int, len(raw))

	for _, rr := range raw {
		row := Row{
			Raw:      rr.Fields,
			Errors:   []shared.FieldError{},
			Warnings: []shared.FieldError{},
			Data: RowData{
				RowNumber:           rr.Line,
				SourceBankAccountID: sourceBankAccountID,
				IdempotencyKey:      IdempotencyKey(sourceBankAccountID, fileHash, rr.Line),
			},
		}
		parseRow(&row, rr.Fields, defaultCurrency, now)

		if row.Valid() {
			dupKey := row.Data.Date + "|" + strconv.FormatInt(row.Data.Amount, 10) + "|" + strings.ToLower(row.Data.Description)
			if first, ok := seen[dupKey]; ok {
				row.addWarning("row", fmt.Sprintf("possible duplicate of row %d", first))
			} else {
				seen[dupKey] = rr.Line
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func parseRow(row *Row, f map[string]string, defaultCurrency string, now time.Time) {
	d := &row.Data

	if date, err := ParseDate(f[ColDate]); err != nil {
		row.addError(ColDate, err.Error())
	} else {
		d.Date = date.Format(DateLayout)
		if date.After(now) {
			row.addWarning(ColDate, "date is in the future")
		}
	}

	d.Description = strings.TrimSpace(f[ColDescription])
	switch {
	case d.Description == "":
		row.addError(ColDescription, "description is required")
	case len(d.Description) > MaxDescriptionLength:
		row.addError(ColDescription, fmt.Sprintf("description must be at most %d characters", MaxDescriptionLength))
	}

	if c := strings.ToUpper(strings.TrimSpace(f[ColCurrency])); c != "" {
		if movement.ValidCurrency(c) {
			d.Currency = c
		} else {
			row.addError(ColCurrency, movement.ErrInvalidCurrencyFormat.Error())
		}
	}

	scale := d.Currency
	if scale == "" {
		scale = defaultCurrency
	}
	amount, negative, err := ParseAmount(f[ColAmount], scale)
	if err != nil {
		row.addError(ColAmount, err.Error())
	} else {
		d.Amount = amount
		if negative {
			row.addWarning(ColAmount, "negative amount imported as its absolute value")
		}
	}

	if strings.TrimSpace(f[ColType]) == "" {
		row.addError(ColType, "type is required")
	} else if typ, err := movement.ParseType(f[ColType]); err != nil {
		row.addError(ColType, "type must be one of INCOME, EXPENSE, TRANSFER, DISTRIBUTION")
	} else {
		d.Type = typ
	}

	if c := strings.TrimSpace(f[ColCategory]); c != "" {
		d.Category = &c
	}

	d.AreaID = parseOptionalUUID(row, ColAreaID, f[ColAreaID])
	d.DepartmentID = parseOptionalUUID(row, ColDepartmentID, f[ColDepartmentID])
	d.DestinationBankAccountID = parseOptionalUUID(row, ColDestinationID, f[ColDestinationID])
}

func parseOptionalUUID(row *Row, field, raw string) *uuid.UUID {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		row.addError(field, "must be a valid id")
		return nil
	}
	return &id
}

// ValidateData re-checks a row that came back from the client before it is persisted
func ValidateData(d RowData) []shared.FieldError {
	var errs []shared.FieldError
	add := func(field, msg string) {
		errs = append(errs, shared.FieldError{Field: field, Message: msg})
	}

	if _, err := time.Parse(DateLayout, d.Date); err != nil {
		add(ColDate, ErrDateFormat.Error())
	}
	if strings.TrimSpace(d.Description) == "" {
		add(ColDescription, "description is required")
	} else if len(d.Description) > MaxDescriptionLength {
		add(ColDescription, fmt.Sprintf("description must be at most %d characters", MaxDescriptionLength))
	}
	if d.Amount <= 0 {
		add(ColAmount, "amount must be a positive number of minor units")
	}
	if _, err := movement.ParseType(string(d.Type)); err != nil {
		add(ColType, "type must be one of INCOME, EXPENSE, TRANSFER, DISTRIBUTION")
	}
	if d.Currency != "" && !movement.ValidCurrency(d.Currency) {
		add(ColCurrency, movement.ErrInvalidCurrencyFormat.Error())
	}
	if d.SourceBankAccountID == uuid.Nil {
		add("source_bank_account_id", "is required")
	}
	return errs
}
