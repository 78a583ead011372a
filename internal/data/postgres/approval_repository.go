package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sanord8/YL-portal-sub002/internal/domain/approval"
	"github.com/sanord8/YL-portal-sub002/internal/platform/persistence"
)

// ApprovalRepository implements approval.Repository. Rows are never updated or deleted.
type ApprovalRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

func NewApprovalRepository(logger *slog.Logger, db *persistence.PostgresDB) approval.Repository {
	return &ApprovalRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

func (r *ApprovalRepository) WithTx(tx pgx.Tx) approval.Repository {
	return &ApprovalRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Append inserts a history entry and fills in its generated ID
func (r *ApprovalRepository) Append(ctx context.Context, entry *approval.Entry) error {
	query := `
		INSERT INTO movement_approvals (movement_id, user_id, action, comment, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	err := r.querier.QueryRow(ctx, query,
		entry.MovementID,
		entry.UserID,
		entry.Action,
		entry.Comment,
		entry.CreatedAt,
	).Scan(&entry.ID)
	if err != nil {
		r.logger.Error("Failed to append approval entry",
			"movement_id", entry.MovementID.String(),
			"action", string(entry.Action),
			"error", err,
		)
		return fmt.Errorf("failed to append approval entry: %w", err)
	}
	return nil
}

// ListByMovement returns the movement's history oldest first
func (r *ApprovalRepository) ListByMovement(ctx context.Context, movementID uuid.UUID) ([]*approval.Entry, error) {
	query := `
		SELECT id, movement_id, user_id, action, comment, created_at
		FROM movement_approvals
		WHERE movement_id = $1
		ORDER BY created_at ASC, id ASC`

	rows, err := r.querier.Query(ctx, query, movementID)
	if err != nil {
		r.logger.Error("Failed to list approval history", "movement_id", movementID.String(), "error", err)
		return nil, fmt.Errorf("failed to list approval history: %w", err)
	}
	defer rows.Close()

	entries := []*approval.Entry{}
	for rows.Next() {
		var e approval.Entry
		if err := rows.Scan(&e.ID, &e.MovementID, &e.UserID, &e.Action, &e.Comment, &e.CreatedAt); err != nil {
			r.logger.Error("Failed to scan approval entry", "error", err)
			return nil, fmt.Errorf("failed to scan approval entry: %w", err)
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over approval entries: %w", err)
	}
	return entries, nil
}
