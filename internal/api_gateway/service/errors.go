package service

import (
	"errors"

	"github.com/sanord8/YL-portal-sub002/internal/domain/approval"
	"github.com/sanord8/YL-portal-sub002/internal/domain/movement"
	"github.com/sanord8/YL-portal-sub002/internal/domain/org"
	"github.com/sanord8/YL-portal-sub002/internal/domain/shared"
)

// ErrInvalidDateRange rejects dashboard windows that end before they start
var ErrInvalidDateRange = errors.New("from must not be after to")

// fieldFor names the input field a domain constructor error refers to
func fieldFor(err error) string {
	switch {
	case errors.Is(err, movement.ErrInvalidAmount):
		return "amount"
	case errors.Is(err, movement.ErrInvalidCurrencyFormat), errors.Is(err, org.ErrInvalidCurrencyFormat):
		return "currency"
	case errors.Is(err, movement.ErrInvalidType):
		return "type"
	case errors.Is(err, movement.ErrEmptyDescription):
		return "description"
	case errors.Is(err, movement.ErrMissingArea):
		return "area_id"
	case errors.Is(err, org.ErrEmptyName):
		return "name"
	case errors.Is(err, org.ErrNegativeBudget):
		return "budget"
	case errors.Is(err, approval.ErrEmptyComment), errors.Is(err, approval.ErrCommentTooLong):
		return "comment"
	}
	return ""
}

// asValidation turns a known domain input error into a ValidationError and
// passes anything else through
func asValidation(err error) error {
	if err == nil {
		return nil
	}
	var verr shared.ValidationError
	if errors.As(err, &verr) {
		return err
	}
	if field := fieldFor(err); field != "" {
		return shared.NewValidationError(field, err.Error())
	}
	return err
}
