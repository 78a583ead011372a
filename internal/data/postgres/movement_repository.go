// Package postgres provides PostgreSQL implementations of the domain repositories.
// Every read filters soft-deleted rows, and state transitions lock rows with
// SELECT ... FOR UPDATE inside the caller's transaction.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sanord8/YL-portal-sub002/internal/domain/movement"
	"github.com/sanord8/YL-portal-sub002/internal/platform/persistence"
)

const movementColumns = `id, type, status, amount, currency, description, category, transaction_date,
		area_id, department_id, user_id, source_bank_account_id, destination_bank_account_id,
		is_internal_transfer, parent_id, is_split_parent, approved_by, approved_at, rejected_by,
		rejected_at, rejection_reason, idempotency_key, created_at, updated_at, deleted_at`

// rowScanner is satisfied by both pgx.Row and pgx.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

// MovementRepository implements the movement.Repository interface for PostgreSQL
type MovementRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewMovementRepository creates a new PostgreSQL movement repository
func NewMovementRepository(logger *slog.Logger, db *persistence.PostgresDB) movement.Repository {
	return &MovementRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx returns a repository bound to tx, so several calls share one transaction
func (r *MovementRepository) WithTx(tx pgx.Tx) movement.Repository {
	return &MovementRepository{
		querier: tx,
		logger:  r.logger,
	}
}

func scanMovement(row rowScanner, extra ...any) (*movement.Movement, error) {
	var m movement.Movement
	dest := []any{
		&m.ID,
		&m.Type,
		&m.Status,
		&m.Amount,
		&m.Currency,
		&m.Description,
		&m.Category,
		&m.TransactionDate,
		&m.AreaID,
		&m.DepartmentID,
		&m.UserID,
		&m.SourceBankAccountID,
		&m.DestinationBankAccountID,
		&m.IsInternalTransfer,
		&m.ParentID,
		&m.IsSplitParent,
		&m.ApprovedBy,
		&m.ApprovedAt,
		&m.RejectedBy,
		&m.RejectedAt,
		&m.RejectionReason,
		&m.IdempotencyKey,
		&m.CreatedAt,
		&m.UpdatedAt,
		&m.DeletedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &m, nil
}

func movementArgs(m *movement.Movement) []any {
	return []any{
		m.ID,
		m.Type,
		m.Status,
		m.Amount,
		m.Currency,
		m.Description,
		m.Category,
		m.TransactionDate,
		m.AreaID,
		m.DepartmentID,
		m.UserID,
		m.SourceBankAccountID,
		m.DestinationBankAccountID,
		m.IsInternalTransfer,
		m.ParentID,
		m.IsSplitParent,
		m.ApprovedBy,
		m.ApprovedAt,
		m.RejectedBy,
		m.RejectedAt,
		m.RejectionReason,
		m.IdempotencyKey,
		m.CreatedAt,
		m.UpdatedAt,
	}
}

const insertMovement = `
		INSERT INTO movements (id, type, status, amount, currency, description, category, transaction_date,
			area_id, department_id, user_id, source_bank_account_id, destination_bank_account_id,
			is_internal_transfer, parent_id, is_split_parent, approved_by, approved_at, rejected_by,
			rejected_at, rejection_reason, idempotency_key, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)`

// Create stores a new movement. A reused idempotency key yields ErrDuplicateIdempotencyKey.
func (r *MovementRepository) Create(ctx context.Context, m *movement.Movement) error {
	_, err := r.querier.Exec(ctx, insertMovement, movementArgs(m)...)
	if err != nil {
		if isUniqueViolation(err) && m.IdempotencyKey != nil {
			return movement.ErrDuplicateIdempotencyKey{Key: *m.IdempotencyKey}
		}
		r.logger.Error("Failed to create movement", "id", m.ID.String(), "error", err)
		return fmt.Errorf("failed to create movement: %w", err)
	}
	return nil
}

// CreateIfAbsent inserts the movement unless its idempotency key is already taken
func (r *MovementRepository) CreateIfAbsent(ctx context.Context, m *movement.Movement) (bool, error) {
	query := insertMovement + `
		ON CONFLICT (idempotency_key) DO NOTHING`

	result, err := r.querier.Exec(ctx, query, movementArgs(m)...)
	if err != nil {
		r.logger.Error("Failed to insert movement", "id", m.ID.String(), "error", err)
		return false, fmt.Errorf("failed to insert movement: %w", err)
	}
	return result.RowsAffected() == 1, nil
}

// GetByID retrieves a live movement by its ID
func (r *MovementRepository) GetByID(ctx context.Context, id uuid.UUID) (*movement.Movement, error) {
	query := `SELECT ` + movementColumns + `
		FROM movements
		WHERE id = $1 AND deleted_at IS NULL`

	m, err := scanMovement(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, movement.ErrMovementNotFound{MovementID: id}
		}
		r.logger.Error("Failed to get movement", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get movement: %w", err)
	}
	return m, nil
}

// LockForUpdate reads a live movement and holds its row lock until the transaction ends
func (r *MovementRepository) LockForUpdate(ctx context.Context, id uuid.UUID) (*movement.Movement, error) {
	query := `SELECT ` + movementColumns + `
		FROM movements
		WHERE id = $1 AND deleted_at IS NULL
		FOR UPDATE`

	m, err := scanMovement(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, movement.ErrMovementNotFound{MovementID: id}
		}
		r.logger.Error("Failed to lock movement for update", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to lock movement for update: %w", err)
	}
	return m, nil
}

// GetChildren returns the live split allocations of a parent in creation order
func (r *MovementRepository) GetChildren(ctx context.Context, parentID uuid.UUID) ([]*movement.Movement, error) {
	query := `SELECT ` + movementColumns + `
		FROM movements
		WHERE parent_id = $1 AND deleted_at IS NULL
		ORDER BY created_at ASC`

	return r.queryMovements(ctx, "get split children", query, parentID)
}

// LockChildren is GetChildren with row locks
func (r *MovementRepository) LockChildren(ctx context.Context, parentID uuid.UUID) ([]*movement.Movement, error) {
	query := `SELECT ` + movementColumns + `
		FROM movements
		WHERE parent_id = $1 AND deleted_at IS NULL
		ORDER BY created_at ASC
		FOR UPDATE`

	return r.queryMovements(ctx, "lock split children", query, parentID)
}

func (r *MovementRepository) queryMovements(ctx context.Context, op, query string, args ...any) ([]*movement.Movement, error) {
	rows, err := r.querier.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to "+op, "error", err)
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
	defer rows.Close()

	movements := []*movement.Movement{}
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			r.logger.Error("Failed to scan movement", "error", err)
			return nil, fmt.Errorf("failed to scan movement: %w", err)
		}
		movements = append(movements, m)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over movements", "error", err)
		return nil, fmt.Errorf("error iterating over movements: %w", err)
	}
	return movements, nil
}

// List returns one page of live movements matching filter and the total match count
func (r *MovementRepository) List(ctx context.Context, filter movement.ListFilter) ([]*movement.Movement, int, error) {
	conditions := []string{"deleted_at IS NULL"}
	var args []any

	if !filter.AllAreas {
		if len(filter.AreaIDs) == 0 {
			return []*movement.Movement{}, 0, nil
		}
		args = append(args, filter.AreaIDs)
		conditions = append(conditions, fmt.Sprintf("area_id = ANY($%d)", len(args)))
	}
	if filter.AreaID != nil {
		args = append(args, *filter.AreaID)
		conditions = append(conditions, fmt.Sprintf("area_id = $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit, filter.Offset)

	query := fmt.Sprintf(`SELECT %s, COUNT(*) OVER() AS total
		FROM movements
		WHERE %s
		ORDER BY transaction_date DESC, created_at DESC
		LIMIT $%d OFFSET $%d`, movementColumns, strings.Join(conditions, " AND "), len(args)-1, len(args))

	rows, err := r.querier.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list movements", "error", err)
		return nil, 0, fmt.Errorf("failed to list movements: %w", err)
	}
	defer rows.Close()

	movements := []*movement.Movement{}
	total := 0
	for rows.Next() {
		m, err := scanMovement(rows, &total)
		if err != nil {
			r.logger.Error("Failed to scan movement", "error", err)
			return nil, 0, fmt.Errorf("failed to scan movement: %w", err)
		}
		movements = append(movements, m)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over movements", "error", err)
		return nil, 0, fmt.Errorf("error iterating over movements: %w", err)
	}
	return movements, total, nil
}

// Update writes every mutable column of a live movement
func (r *MovementRepository) Update(ctx context.Context, m *movement.Movement) error {
	query := `
		UPDATE movements
		SET type = $2, status = $3, amount = $4, currency = $5, description = $6, category = $7,
			transaction_date = $8, area_id = $9, department_id = $10, source_bank_account_id = $11,
			destination_bank_account_id = $12, is_internal_transfer = $13, is_split_parent = $14,
			approved_by = $15, approved_at = $16, rejected_by = $17, rejected_at = $18,
			rejection_reason = $19, updated_at = $20
		WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.querier.Exec(ctx, query,
		m.ID,
		m.Type,
		m.Status,
		m.Amount,
		m.Currency,
		m.Description,
		m.Category,
		m.TransactionDate,
		m.AreaID,
		m.DepartmentID,
		m.SourceBankAccountID,
		m.DestinationBankAccountID,
		m.IsInternalTransfer,
		m.IsSplitParent,
		m.ApprovedBy,
		m.ApprovedAt,
		m.RejectedBy,
		m.RejectedAt,
		m.RejectionReason,
		m.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to update movement", "id", m.ID.String(), "error", err)
		return fmt.Errorf("failed to update movement: %w", err)
	}
	if result.RowsAffected() == 0 {
		return movement.ErrMovementNotFound{MovementID: m.ID}
	}
	return nil
}

// SoftDelete tombstones a live movement
func (r *MovementRepository) SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `
		UPDATE movements
		SET deleted_at = $2, updated_at = $2
		WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.querier.Exec(ctx, query, id, at)
	if err != nil {
		r.logger.Error("Failed to delete movement", "id", id.String(), "error", err)
		return fmt.Errorf("failed to delete movement: %w", err)
	}
	if result.RowsAffected() == 0 {
		return movement.ErrMovementNotFound{MovementID: id}
	}
	return nil
}

// SoftDeleteChildren tombstones every live allocation of a split parent
func (r *MovementRepository) SoftDeleteChildren(ctx context.Context, parentID uuid.UUID, at time.Time) (int64, error) {
	query := `
		UPDATE movements
		SET deleted_at = $2, updated_at = $2
		WHERE parent_id = $1 AND deleted_at IS NULL`

	result, err := r.querier.Exec(ctx, query, parentID, at)
	if err != nil {
		r.logger.Error("Failed to delete split children", "parent_id", parentID.String(), "error", err)
		return 0, fmt.Errorf("failed to delete split children: %w", err)
	}
	return result.RowsAffected(), nil
}
