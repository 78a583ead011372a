package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sanord8/YL-portal-sub002/internal/domain/org"
	"github.com/sanord8/YL-portal-sub002/internal/platform/persistence"
)

const areaColumns = `id, name, currency, budget, bank_account_id, created_at, updated_at`

// AreaRepository implements org.AreaRepository for PostgreSQL
type AreaRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

func NewAreaRepository(logger *slog.Logger, db *persistence.PostgresDB) org.AreaRepository {
	return &AreaRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

func scanArea(row rowScanner) (*org.Area, error) {
	var a org.Area
	err := row.Scan(&a.ID, &a.Name, &a.Currency, &a.Budget, &a.BankAccountID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AreaRepository) Create(ctx context.Context, area *org.Area) error {
	query := `
		INSERT INTO areas (` + areaColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.querier.Exec(ctx, query,
		area.ID,
		area.Name,
		area.Currency,
		area.Budget,
		area.BankAccountID,
		area.CreatedAt,
		area.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) && area.BankAccountID != nil {
			return org.ErrBankAccountNotFound{BankAccountID: *area.BankAccountID}
		}
		r.logger.Error("Failed to create area", "name", area.Name, "error", err)
		return fmt.Errorf("failed to create area: %w", err)
	}
	return nil
}

func (r *AreaRepository) GetByID(ctx context.Context, id uuid.UUID) (*org.Area, error) {
	query := `SELECT ` + areaColumns + ` FROM areas WHERE id = $1`

	area, err := scanArea(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, org.ErrAreaNotFound{AreaID: id}
		}
		r.logger.Error("Failed to get area", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get area: %w", err)
	}
	return area, nil
}

// List returns areas ordered by name. A nil ids lists every area; an empty one lists none.
func (r *AreaRepository) List(ctx context.Context, ids []uuid.UUID) ([]*org.Area, error) {
	if ids == nil {
		return r.queryAreas(ctx, `SELECT `+areaColumns+` FROM areas ORDER BY name`)
	}
	if len(ids) == 0 {
		return []*org.Area{}, nil
	}
	return r.queryAreas(ctx, `SELECT `+areaColumns+` FROM areas WHERE id = ANY($1) ORDER BY name`, ids)
}

// ListByBankAccount returns the areas reconciled against a bank account
func (r *AreaRepository) ListByBankAccount(ctx context.Context, bankAccountID uuid.UUID) ([]*org.Area, error) {
	return r.queryAreas(ctx, `SELECT `+areaColumns+` FROM areas WHERE bank_account_id = $1 ORDER BY name`, bankAccountID)
}

func (r *AreaRepository) queryAreas(ctx context.Context, query string, args ...any) ([]*org.Area, error) {
	rows, err := r.querier.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list areas", "error", err)
		return nil, fmt.Errorf("failed to list areas: %w", err)
	}
	defer rows.Close()

	areas := []*org.Area{}
	for rows.Next() {
		a, err := scanArea(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan area: %w", err)
		}
		areas = append(areas, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over areas: %w", err)
	}
	return areas, nil
}

// Delete removes an area. Foreign keys from movements and departments block it.
func (r *AreaRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.querier.Exec(ctx, `DELETE FROM areas WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return org.ErrEntityInUse{Entity: "area", ID: id, Reason: "it is referenced by departments or movements"}
		}
		r.logger.Error("Failed to delete area", "id", id.String(), "error", err)
		return fmt.Errorf("failed to delete area: %w", err)
	}
	if result.RowsAffected() == 0 {
		return org.ErrAreaNotFound{AreaID: id}
	}
	return nil
}
