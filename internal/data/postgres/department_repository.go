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

const departmentColumns = `id, area_id, name, user_id, created_at`

// DepartmentRepository implements org.DepartmentRepository for PostgreSQL
type DepartmentRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

func NewDepartmentRepository(logger *slog.Logger, db *persistence.PostgresDB) org.DepartmentRepository {
	return &DepartmentRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

func scanDepartment(row rowScanner) (*org.Department, error) {
	var d org.Department
	if err := row.Scan(&d.ID, &d.AreaID, &d.Name, &d.UserID, &d.CreatedAt); err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *DepartmentRepository) Create(ctx context.Context, dept *org.Department) error {
	query := `
		INSERT INTO departments (` + departmentColumns + `)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.querier.Exec(ctx, query, dept.ID, dept.AreaID, dept.Name, dept.UserID, dept.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return org.ErrAreaNotFound{AreaID: dept.AreaID}
		}
		r.logger.Error("Failed to create department", "area_id", dept.AreaID.String(), "error", err)
		return fmt.Errorf("failed to create department: %w", err)
	}
	return nil
}

func (r *DepartmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*org.Department, error) {
	query := `SELECT ` + departmentColumns + ` FROM departments WHERE id = $1`

	dept, err := scanDepartment(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, org.ErrDepartmentNotFound{DepartmentID: id}
		}
		r.logger.Error("Failed to get department", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get department: %w", err)
	}
	return dept, nil
}

// ListByAreas returns departments of the given areas; nil means every area
func (r *DepartmentRepository) ListByAreas(ctx context.Context, areaIDs []uuid.UUID) ([]*org.Department, error) {
	if areaIDs == nil {
		return r.queryDepartments(ctx, `SELECT `+departmentColumns+` FROM departments ORDER BY name`)
	}
	if len(areaIDs) == 0 {
		return []*org.Department{}, nil
	}
	return r.queryDepartments(ctx, `SELECT `+departmentColumns+` FROM departments WHERE area_id = ANY($1) ORDER BY name`, areaIDs)
}

// ListByUser returns the special funds owned by a user
func (r *DepartmentRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*org.Department, error) {
	return r.queryDepartments(ctx, `SELECT `+departmentColumns+` FROM departments WHERE user_id = $1 ORDER BY name`, userID)
}

func (r *DepartmentRepository) queryDepartments(ctx context.Context, query string, args ...any) ([]*org.Department, error) {
	rows, err := r.querier.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list departments", "error", err)
		return nil, fmt.Errorf("failed to list departments: %w", err)
	}
	defer rows.Close()

	depts := []*org.Department{}
	for rows.Next() {
		d, err := scanDepartment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan department: %w", err)
		}
		depts = append(depts, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over departments: %w", err)
	}
	return depts, nil
}

func (r *DepartmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.querier.Exec(ctx, `DELETE FROM departments WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return org.ErrEntityInUse{Entity: "department", ID: id, Reason: "it is referenced by movements"}
		}
		r.logger.Error("Failed to delete department", "id", id.String(), "error", err)
		return fmt.Errorf("failed to delete department: %w", err)
	}
	if result.RowsAffected() == 0 {
		return org.ErrDepartmentNotFound{DepartmentID: id}
	}
	return nil
}
