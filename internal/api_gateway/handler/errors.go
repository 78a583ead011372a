package handler

import (
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/sanord8/YL-portal-sub002/internal/api_gateway/middleware"
	"github.com/sanord8/YL-portal-sub002/internal/api_gateway/service"
	"github.com/sanord8/YL-portal-sub002/internal/domain/access"
	"github.com/sanord8/YL-portal-sub002/internal/domain/movement"
	"github.com/sanord8/YL-portal-sub002/internal/domain/org"
	"github.com/sanord8/YL-portal-sub002/internal/domain/shared"
	"github.com/sanord8/YL-portal-sub002/internal/logger"
)

// statusConflict is implemented by state errors that report where the movement is now
type statusConflict interface {
	CurrentStatus() movement.Status
}

// respondError maps a service error onto the response envelope. Anything it
// does not recognise is logged and reported as INTERNAL_ERROR.
func respondError(c *gin.Context, log *slog.Logger, err error, operation string) {
	var (
		verr        shared.ValidationError
		forbidden   access.ErrForbidden
		userMissing access.ErrUserNotFound
		conflict    statusConflict

		movementNotFound   movement.ErrMovementNotFound
		areaNotFound       org.ErrAreaNotFound
		departmentNotFound org.ErrDepartmentNotFound
		bankNotFound       org.ErrBankAccountNotFound
		deptMismatch       org.ErrDepartmentAreaMismatch

		duplicateKey movement.ErrDuplicateIdempotencyKey
		entityInUse  org.ErrEntityInUse
	)

	switch {
	case errors.As(err, &verr):
		RespondBadRequest(c, "Validation failed", verr.Fields)
	case errors.As(err, &deptMismatch):
		RespondBadRequest(c, "Validation failed", []shared.FieldError{{Field: "department_id", Message: deptMismatch.Error()}})
	case errors.Is(err, service.ErrInvalidDateRange):
		RespondBadRequest(c, err.Error(), nil)
	case errors.Is(err, access.ErrUnauthenticated), errors.Is(err, access.ErrInvalidSession), errors.As(err, &userMissing):
		RespondUnauthorized(c, "")
	case errors.As(err, &forbidden):
		RespondForbidden(c, "You do not have permission to "+string(forbidden.Action)+" here")
	case errors.As(err, &movementNotFound):
		RespondNotFound(c, "Movement not found")
	case errors.As(err, &areaNotFound):
		RespondNotFound(c, "Area not found")
	case errors.As(err, &departmentNotFound):
		RespondNotFound(c, "Department not found")
	case errors.As(err, &bankNotFound):
		RespondNotFound(c, "Bank account not found")
	case errors.As(err, &conflict):
		RespondConflict(c, err.Error(), gin.H{"currentStatus": conflict.CurrentStatus()})
	case errors.As(err, &duplicateKey), errors.As(err, &entityInUse):
		RespondConflict(c, err.Error(), nil)
	default:
		logger.FromContext(c.Request.Context(), log).Error("Failed to "+operation, "error", err)
		RespondInternalError(c)
	}
}

// principal returns the caller authenticated by middleware.Auth, responding
// 401 when the route was mounted without it
func principal(c *gin.Context) (*access.Principal, bool) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		RespondUnauthorized(c, "")
	}
	return p, ok
}
