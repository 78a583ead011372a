package access

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrInvalidSession  = errors.New("invalid or expired session")
)

// Repository loads principals and their area grants
type Repository interface {
	// LoadPrincipal returns ErrUserNotFound for unknown or inactive users
	LoadPrincipal(ctx context.Context, userID uuid.UUID) (*Principal, error)
}

// ErrUserNotFound indicates an unknown or deactivated user
type ErrUserNotFound struct {
	UserID uuid.UUID
}

func (e ErrUserNotFound) Error() string {
	return "user not found: " + e.UserID.String()
}
