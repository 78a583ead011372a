package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sanord8/YL-portal-sub002/internal/domain/access"
	"github.com/sanord8/YL-portal-sub002/internal/domain/dashboard"
	"github.com/sanord8/YL-portal-sub002/internal/logger"
)

// DateRange is an inclusive calendar-day window. Nil bounds fall back to the
// current month.
type DateRange struct {
	From *time.Time
	To   *time.Time
}

// bounds returns the half-open window [from, to) in UTC
func (r DateRange) bounds(now time.Time) (time.Time, time.Time, error) {
	from, to := dashboard.MonthWindow(now, 1)
	if r.From != nil {
		from = day(*r.From)
	}
	if r.To != nil {
		to = day(*r.To).AddDate(0, 0, 1)
	}
	if !from.Before(to) {
		return time.Time{}, time.Time{}, ErrInvalidDateRange
	}
	return from, to, nil
}

func day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DashboardServiceImpl implements the DashboardService interface
type DashboardServiceImpl struct {
	repo   dashboard.Repository
	logger *slog.Logger
	now    func() time.Time
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(logger *slog.Logger, repo dashboard.Repository) DashboardService {
	return &DashboardServiceImpl{
		repo:   repo,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func scopeOf(p *access.Principal) (dashboard.Scope, error) {
	if p == nil {
		return dashboard.Scope{}, access.ErrUnauthenticated
	}
	if p.IsAdmin {
		return dashboard.Scope{AllAreas: true}, nil
	}
	return dashboard.Scope{AreaIDs: p.AccessibleAreas()}, nil
}

// Overview sums raw minor units across the caller's areas
func (s *DashboardServiceImpl) Overview(ctx context.Context, p *access.Principal) (*dashboard.Overview, error) {
	scope, err := scopeOf(p)
	if err != nil {
		return nil, err
	}

	totals, err := s.repo.Totals(ctx, scope)
	if err != nil {
		return nil, s.failed(ctx, "overview", err)
	}
	pending, err := s.repo.CountPending(ctx, scope)
	if err != nil {
		return nil, s.failed(ctx, "overview", err)
	}
	areas, err := s.repo.CountAreas(ctx, scope)
	if err != nil {
		return nil, s.failed(ctx, "overview", err)
	}

	return &dashboard.Overview{
		TotalIncome:   totals.Income,
		TotalExpenses: totals.Expenses,
		Balance:       totals.Income - totals.Expenses,
		PendingCount:  pending,
		AreasCount:    areas,
	}, nil
}

func (s *DashboardServiceImpl) Balances(ctx context.Context, p *access.Principal) ([]dashboard.AreaBalance, error) {
	scope, err := scopeOf(p)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.BalancesByArea(ctx, scope)
	if err != nil {
		return nil, s.failed(ctx, "balances", err)
	}
	return rows, nil
}

func (s *DashboardServiceImpl) ExpenseBreakdown(ctx context.Context, p *access.Principal, window DateRange) ([]dashboard.CategoryTotal, error) {
	scope, err := scopeOf(p)
	if err != nil {
		return nil, err
	}
	from, to, err := window.bounds(s.now())
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.ExpensesByCategory(ctx, scope, from, to)
	if err != nil {
		return nil, s.failed(ctx, "expense breakdown", err)
	}
	return dashboard.WithShares(rows), nil
}

// IncomeVsExpense returns one bucket per calendar month, oldest first
func (s *DashboardServiceImpl) IncomeVsExpense(ctx context.Context, p *access.Principal, months int) ([]dashboard.MonthlyTotal, error) {
	scope, err := scopeOf(p)
	if err != nil {
		return nil, err
	}
	months = dashboard.ClampMonths(months)
	from, to := dashboard.MonthWindow(s.now(), months)

	rows, err := s.repo.MonthlyTotals(ctx, scope, from, to)
	if err != nil {
		return nil, s.failed(ctx, "income vs expense", err)
	}
	return dashboard.FillMonths(from, months, rows), nil
}

func (s *DashboardServiceImpl) ExpensesByArea(ctx context.Context, p *access.Principal, window DateRange) ([]dashboard.AreaExpense, error) {
	scope, err := scopeOf(p)
	if err != nil {
		return nil, err
	}
	from, to, err := window.bounds(s.now())
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.ExpensesByArea(ctx, scope, from, to)
	if err != nil {
		return nil, s.failed(ctx, "expenses by area", err)
	}
	return rows, nil
}

func (s *DashboardServiceImpl) PersonalFunds(ctx context.Context, p *access.Principal) ([]dashboard.FundBalance, error) {
	scope, err := scopeOf(p)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.PersonalFunds(ctx, scope, p.UserID)
	if err != nil {
		return nil, s.failed(ctx, "personal funds", err)
	}
	return rows, nil
}

func (s *DashboardServiceImpl) failed(ctx context.Context, what string, err error) error {
	logger.FromContext(ctx, s.logger).Error("Failed to compute dashboard "+what, "error", err)
	return fmt.Errorf("failed to compute %s: %w", what, err)
}
