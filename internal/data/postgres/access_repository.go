package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sanord8/YL-portal-sub002/internal/domain/access"
	"github.com/sanord8/YL-portal-sub002/internal/platform/persistence"
)

// AccessRepository loads users and their area grants
type AccessRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

func NewAccessRepository(logger *slog.Logger, db *persistence.PostgresDB) access.Repository {
	return &AccessRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// LoadPrincipal returns the active user with every area role it holds
func (r *AccessRepository) LoadPrincipal(ctx context.Context, userID uuid.UUID) (*access.Principal, error) {
	var (
		email   string
		isAdmin bool
	)
	err := r.querier.QueryRow(ctx, `
		SELECT email, is_admin
		FROM users
		WHERE id = $1 AND active`, userID).Scan(&email, &isAdmin)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, access.ErrUserNotFound{UserID: userID}
		}
		r.logger.Error("Failed to load user", "user_id", userID.String(), "error", err)
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	rows, err := r.querier.Query(ctx, `
		SELECT area_id, role
		FROM user_areas
		WHERE user_id = $1`, userID)
	if err != nil {
		r.logger.Error("Failed to load area roles", "user_id", userID.String(), "error", err)
		return nil, fmt.Errorf("failed to load area roles: %w", err)
	}
	defer rows.Close()

	var grants []access.UserArea
	for rows.Next() {
		var (
			areaID uuid.UUID
			raw    string
		)
		if err := rows.Scan(&areaID, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan area role: %w", err)
		}
		role, err := access.ParseRole(raw)
		if err != nil {
			r.logger.Warn("Ignoring unknown area role", "user_id", userID.String(), "area_id", areaID.String(), "role", raw)
			continue
		}
		grants = append(grants, access.UserArea{UserID: userID, AreaID: areaID, Role: role})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over area roles: %w", err)
	}

	return access.NewPrincipal(userID, email, isAdmin, grants), nil
}
