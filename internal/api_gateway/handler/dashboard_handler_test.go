package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sanord8/YL-portal-sub002/internal/api_gateway/service"
	"github.com/sanord8/YL-portal-sub002/internal/domain/dashboard"
)

func TestDashboardHandler_Overview(t *testing.T) {
	p := testPrincipal()
	dashboards := new(MockDashboardService)
	handler := NewDashboardHandler(newTestLogger(), dashboards)
	dashboards.On("Overview", mock.Anything, p).Return(&dashboard.Overview{
		TotalIncome:   50000,
		TotalExpenses: 20000,
		Balance:       30000,
		PendingCount:  4,
		AreasCount:    2,
	}, nil)

	router := setupTestRouter(p)
	router.GET("/dashboard/overview", handler.Overview)

	req, _ := http.NewRequest(http.MethodGet, "/dashboard/overview", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	var got dashboard.Overview
	decodeData(t, rr, &got)
	assert.Equal(t, int64(30000), got.Balance)
	assert.Equal(t, 4, got.PendingCount)
}

func TestDashboardHandler_ExpenseBreakdown(t *testing.T) {
	p := testPrincipal()

	t.Run("ParsesWindow", func(t *testing.T) {
		dashboards := new(MockDashboardService)
		handler := NewDashboardHandler(newTestLogger(), dashboards)
		dashboards.On("ExpenseBreakdown", mock.Anything, p, mock.MatchedBy(func(w service.DateRange) bool {
			return w.From != nil && w.From.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) &&
				w.To != nil && w.To.Equal(time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC))
		})).Return([]dashboard.CategoryTotal{{Category: "Supplies", Amount: 1200, Percentage: 100}}, nil)

		router := setupTestRouter(p)
		router.GET("/dashboard/expense-breakdown", handler.ExpenseBreakdown)

		req, _ := http.NewRequest(http.MethodGet, "/dashboard/expense-breakdown?from=2024-01-01&to=2024-01-31", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		var got []dashboard.CategoryTotal
		decodeData(t, rr, &got)
		require.Len(t, got, 1)
		assert.Equal(t, "Supplies", got[0].Category)
		dashboards.AssertExpectations(t)
	})

	t.Run("NoWindowLeavesDefaultsToService", func(t *testing.T) {
		dashboards := new(MockDashboardService)
		handler := NewDashboardHandler(newTestLogger(), dashboards)
		dashboards.On("ExpenseBreakdown", mock.Anything, p, service.DateRange{}).Return([]dashboard.CategoryTotal{}, nil)

		router := setupTestRouter(p)
		router.GET("/dashboard/expense-breakdown", handler.ExpenseBreakdown)

		req, _ := http.NewRequest(http.MethodGet, "/dashboard/expense-breakdown", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		dashboards.AssertExpectations(t)
	})

	t.Run("MalformedDate", func(t *testing.T) {
		dashboards := new(MockDashboardService)
		handler := NewDashboardHandler(newTestLogger(), dashboards)

		router := setupTestRouter(p)
		router.GET("/dashboard/expense-breakdown", handler.ExpenseBreakdown)

		req, _ := http.NewRequest(http.MethodGet, "/dashboard/expense-breakdown?from=January", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), `"field":"from"`)
	})

	t.Run("InvertedRange", func(t *testing.T) {
		dashboards := new(MockDashboardService)
		handler := NewDashboardHandler(newTestLogger(), dashboards)
		dashboards.On("ExpensesByArea", mock.Anything, p, mock.Anything).Return(nil, service.ErrInvalidDateRange)

		router := setupTestRouter(p)
		router.GET("/dashboard/expenses-by-area", handler.ExpensesByArea)

		req, _ := http.NewRequest(http.MethodGet, "/dashboard/expenses-by-area?from=2024-02-01&to=2024-01-01", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, CodeBadRequest, decodeResponse(t, rr).Error.Code)
	})
}

func TestDashboardHandler_IncomeVsExpense(t *testing.T) {
	p := testPrincipal()

	for _, tc := range []struct {
		name   string
		query  string
		months int
	}{
		{name: "DefaultSixMonths", query: "", months: 6},
		{name: "Explicit", query: "?months=12", months: 12},
		{name: "ClampingIsLeftToService", query: "?months=40", months: 40},
	} {
		t.Run(tc.name, func(t *testing.T) {
			dashboards := new(MockDashboardService)
			handler := NewDashboardHandler(newTestLogger(), dashboards)
			dashboards.On("IncomeVsExpense", mock.Anything, p, tc.months).
				Return([]dashboard.MonthlyTotal{{Month: "2024-03", Income: 10, Expenses: 4, Net: 6}}, nil)

			router := setupTestRouter(p)
			router.GET("/dashboard/income-vs-expense", handler.IncomeVsExpense)

			req, _ := http.NewRequest(http.MethodGet, "/dashboard/income-vs-expense"+tc.query, nil)
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			assert.Equal(t, http.StatusOK, rr.Code)
			dashboards.AssertExpectations(t)
		})
	}

	t.Run("NonNumeric", func(t *testing.T) {
		handler := NewDashboardHandler(newTestLogger(), new(MockDashboardService))
		router := setupTestRouter(p)
		router.GET("/dashboard/income-vs-expense", handler.IncomeVsExpense)

		req, _ := http.NewRequest(http.MethodGet, "/dashboard/income-vs-expense?months=six", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestDashboardHandler_BalancesAndFunds(t *testing.T) {
	p := testPrincipal()
	dashboards := new(MockDashboardService)
	handler := NewDashboardHandler(newTestLogger(), dashboards)

	areaID := uuid.New()
	dashboards.On("Balances", mock.Anything, p).Return([]dashboard.AreaBalance{
		{AreaID: areaID, AreaName: "Youth", Currency: "EUR", Income: 100, Expenses: 40, Balance: 60},
	}, nil)
	dashboards.On("PersonalFunds", mock.Anything, p).Return([]dashboard.FundBalance{}, nil)

	router := setupTestRouter(p)
	router.GET("/dashboard/balances", handler.Balances)
	router.GET("/dashboard/personal-funds", handler.PersonalFunds)

	req, _ := http.NewRequest(http.MethodGet, "/dashboard/balances", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	var balances []dashboard.AreaBalance
	decodeData(t, rr, &balances)
	require.Len(t, balances, 1)
	assert.Equal(t, areaID, balances[0].AreaID)

	req, _ = http.NewRequest(http.MethodGet, "/dashboard/personal-funds", nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	dashboards.AssertExpectations(t)
}
