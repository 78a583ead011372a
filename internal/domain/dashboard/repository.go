package dashboard

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository runs the ledger aggregates. Every query counts only APPROVED,
// live, non-internal-transfer movements that are not split parents.
type Repository interface {
	Totals(ctx context.Context, scope Scope) (Totals, error)
	CountPending(ctx context.Context, scope Scope) (int, error)
	CountAreas(ctx context.Context, scope Scope) (int, error)
	BalancesByArea(ctx context.Context, scope Scope) ([]AreaBalance, error)
	ExpensesByCategory(ctx context.Context, scope Scope, from, to time.Time) ([]CategoryTotal, error)

	// MonthlyTotals returns only months that have data
	MonthlyTotals(ctx context.Context, scope Scope, from, to time.Time) ([]MonthlyTotal, error)
	ExpensesByArea(ctx context.Context, scope Scope, from, to time.Time) ([]AreaExpense, error)
	PersonalFunds(ctx context.Context, scope Scope, userID uuid.UUID) ([]FundBalance, error)
}
