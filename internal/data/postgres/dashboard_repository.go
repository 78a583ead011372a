package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sanord8/YL-portal-sub002/internal/domain/dashboard"
	"github.com/sanord8/YL-portal-sub002/internal/platform/persistence"
)

// countedMovement selects movements that contribute to balances
const countedMovement = `m.status = 'APPROVED'
		AND m.deleted_at IS NULL
		AND NOT m.is_internal_transfer
		AND NOT m.is_split_parent`

const incomeExpenseSums = `COALESCE(SUM(m.amount) FILTER (WHERE m.type = 'INCOME'), 0),
		COALESCE(SUM(m.amount) FILTER (WHERE m.type = 'EXPENSE'), 0)`

// DashboardRepository runs the balance aggregates in SQL
type DashboardRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

func NewDashboardRepository(logger *slog.Logger, db *persistence.PostgresDB) dashboard.Repository {
	return &DashboardRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// scopeFilter restricts column to the scope's areas. It appends its argument to args.
func scopeFilter(scope dashboard.Scope, column string, args []any) (string, []any) {
	if scope.AllAreas {
		return "TRUE", args
	}
	args = append(args, scope.AreaIDs)
	return fmt.Sprintf("%s = ANY($%d)", column, len(args)), args
}

func (r *DashboardRepository) Totals(ctx context.Context, scope dashboard.Scope) (dashboard.Totals, error) {
	var t dashboard.Totals
	if scope.Empty() {
		return t, nil
	}
	where, args := scopeFilter(scope, "m.area_id", nil)
	query := `SELECT ` + incomeExpenseSums + `
		FROM movements m
		WHERE ` + countedMovement + ` AND ` + where

	if err := r.querier.QueryRow(ctx, query, args...).Scan(&t.Income, &t.Expenses); err != nil {
		r.logger.Error("Failed to compute totals", "error", err)
		return t, fmt.Errorf("failed to compute totals: %w", err)
	}
	return t, nil
}

// CountPending counts live movements awaiting a decision
func (r *DashboardRepository) CountPending(ctx context.Context, scope dashboard.Scope) (int, error) {
	if scope.Empty() {
		return 0, nil
	}
	where, args := scopeFilter(scope, "m.area_id", nil)
	query := `SELECT COUNT(*)
		FROM movements m
		WHERE m.status = 'PENDING' AND m.deleted_at IS NULL AND NOT m.is_split_parent AND ` + where

	var n int
	if err := r.querier.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		r.logger.Error("Failed to count pending movements", "error", err)
		return 0, fmt.Errorf("failed to count pending movements: %w", err)
	}
	return n, nil
}

func (r *DashboardRepository) CountAreas(ctx context.Context, scope dashboard.Scope) (int, error) {
	if scope.Empty() {
		return 0, nil
	}
	where, args := scopeFilter(scope, "a.id", nil)

	var n int
	if err := r.querier.QueryRow(ctx, `SELECT COUNT(*) FROM areas a WHERE `+where, args...).Scan(&n); err != nil {
		r.logger.Error("Failed to count areas", "error", err)
		return 0, fmt.Errorf("failed to count areas: %w", err)
	}
	return n, nil
}

// BalancesByArea reports every scoped area, including those with no activity
func (r *DashboardRepository) BalancesByArea(ctx context.Context, scope dashboard.Scope) ([]dashboard.AreaBalance, error) {
	if scope.Empty() {
		return []dashboard.AreaBalance{}, nil
	}
	where, args := scopeFilter(scope, "a.id", nil)
	query := `SELECT a.id, a.name, a.currency, ` + incomeExpenseSums + `
		FROM areas a
		LEFT JOIN movements m ON m.area_id = a.id AND ` + countedMovement + `
		WHERE ` + where + `
		GROUP BY a.id, a.name, a.currency
		ORDER BY a.name`

	rows, err := r.querier.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to compute area balances", "error", err)
		return nil, fmt.Errorf("failed to compute area balances: %w", err)
	}
	defer rows.Close()

	out := []dashboard.AreaBalance{}
	for rows.Next() {
		var b dashboard.AreaBalance
		if err := rows.Scan(&b.AreaID, &b.AreaName, &b.Currency, &b.Income, &b.Expenses); err != nil {
			return nil, fmt.Errorf("failed to scan area balance: %w", err)
		}
		b.Balance = b.Income - b.Expenses
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over area balances: %w", err)
	}
	return out, nil
}

// ExpensesByCategory sums expenses in [from, to) per category. Uncategorized rows come back with an empty name.
func (r *DashboardRepository) ExpensesByCategory(ctx context.Context, scope dashboard.Scope, from, to time.Time) ([]dashboard.CategoryTotal, error) {
	if scope.Empty() {
		return []dashboard.CategoryTotal{}, nil
	}
	where, args := scopeFilter(scope, "m.area_id", []any{from, to})
	query := `SELECT COALESCE(m.category, ''), SUM(m.amount)
		FROM movements m
		WHERE ` + countedMovement + `
			AND m.type = 'EXPENSE'
			AND m.transaction_date >= $1 AND m.transaction_date < $2
			AND ` + where + `
		GROUP BY 1`

	rows, err := r.querier.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to compute expense breakdown", "error", err)
		return nil, fmt.Errorf("failed to compute expense breakdown: %w", err)
	}
	defer rows.Close()

	out := []dashboard.CategoryTotal{}
	for rows.Next() {
		var c dashboard.CategoryTotal
		if err := rows.Scan(&c.Category, &c.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan category total: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over category totals: %w", err)
	}
	return out, nil
}

func (r *DashboardRepository) MonthlyTotals(ctx context.Context, scope dashboard.Scope, from, to time.Time) ([]dashboard.MonthlyTotal, error) {
	if scope.Empty() {
		return []dashboard.MonthlyTotal{}, nil
	}
	where, args := scopeFilter(scope, "m.area_id", []any{from, to})
	query := `SELECT to_char(date_trunc('month', m.transaction_date), 'YYYY-MM'), ` + incomeExpenseSums + `
		FROM movements m
		WHERE ` + countedMovement + `
			AND m.transaction_date >= $1 AND m.transaction_date < $2
			AND ` + where + `
		GROUP BY 1
		ORDER BY 1`

	rows, err := r.querier.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to compute monthly totals", "error", err)
		return nil, fmt.Errorf("failed to compute monthly totals: %w", err)
	}
	defer rows.Close()

	out := []dashboard.MonthlyTotal{}
	for rows.Next() {
		var mt dashboard.MonthlyTotal
		if err := rows.Scan(&mt.Month, &mt.Income, &mt.Expenses); err != nil {
			return nil, fmt.Errorf("failed to scan monthly total: %w", err)
		}
		mt.Net = mt.Income - mt.Expenses
		out = append(out, mt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over monthly totals: %w", err)
	}
	return out, nil
}

// ExpensesByArea returns the scoped areas that spent anything in [from, to), largest first
func (r *DashboardRepository) ExpensesByArea(ctx context.Context, scope dashboard.Scope, from, to time.Time) ([]dashboard.AreaExpense, error) {
	if scope.Empty() {
		return []dashboard.AreaExpense{}, nil
	}
	where, args := scopeFilter(scope, "a.id", []any{from, to})
	query := `SELECT a.id, a.name, a.currency, SUM(m.amount)
		FROM areas a
		JOIN movements m ON m.area_id = a.id
		WHERE ` + countedMovement + `
			AND m.type = 'EXPENSE'
			AND m.transaction_date >= $1 AND m.transaction_date < $2
			AND ` + where + `
		GROUP BY a.id, a.name, a.currency
		ORDER BY 4 DESC, a.name`

	rows, err := r.querier.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to compute expenses by area", "error", err)
		return nil, fmt.Errorf("failed to compute expenses by area: %w", err)
	}
	defer rows.Close()

	out := []dashboard.AreaExpense{}
	for rows.Next() {
		var e dashboard.AreaExpense
		if err := rows.Scan(&e.AreaID, &e.AreaName, &e.Currency, &e.Expenses); err != nil {
			return nil, fmt.Errorf("failed to scan area expense: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over area expenses: %w", err)
	}
	return out, nil
}

// PersonalFunds returns the balance of every special fund owned by userID
func (r *DashboardRepository) PersonalFunds(ctx context.Context, scope dashboard.Scope, userID uuid.UUID) ([]dashboard.FundBalance, error) {
	if scope.Empty() {
		return []dashboard.FundBalance{}, nil
	}
	where, args := scopeFilter(scope, "a.id", []any{userID})
	query := `SELECT d.id, d.name, a.id, a.name, a.currency, ` + incomeExpenseSums + `
		FROM departments d
		JOIN areas a ON a.id = d.area_id
		LEFT JOIN movements m ON m.department_id = d.id AND ` + countedMovement + `
		WHERE d.user_id = $1 AND ` + where + `
		GROUP BY d.id, d.name, a.id, a.name, a.currency
		ORDER BY a.name, d.name`

	rows, err := r.querier.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to compute personal funds", "user_id", userID.String(), "error", err)
		return nil, fmt.Errorf("failed to compute personal funds: %w", err)
	}
	defer rows.Close()

	out := []dashboard.FundBalance{}
	for rows.Next() {
		var f dashboard.FundBalance
		if err := rows.Scan(&f.DepartmentID, &f.DepartmentName, &f.AreaID, &f.AreaName, &f.Currency, &f.Income, &f.Expenses); err != nil {
			return nil, fmt.Errorf("failed to scan fund balance: %w", err)
		}
		f.Balance = f.Income - f.Expenses
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over fund balances: %w", err)
	}
	return out, nil
}
