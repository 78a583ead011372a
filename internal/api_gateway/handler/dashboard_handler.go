package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/sanord8/YL-portal-sub002/internal/api_gateway/service"
)

// DashboardHandler serves the approved-ledger aggregates
type DashboardHandler struct {
	dashboards service.DashboardService
	logger     *slog.Logger
}

func NewDashboardHandler(logger *slog.Logger, dashboards service.DashboardService) *DashboardHandler {
	return &DashboardHandler{
		dashboards: dashboards,
		logger:     logger,
	}
}

func (h *DashboardHandler) Overview(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	overview, err := h.dashboards.Overview(c.Request.Context(), p)
	if err != nil {
		respondError(c, h.logger, err, "load dashboard overview")
		return
	}
	RespondOK(c, overview)
}

func (h *DashboardHandler) Balances(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	balances, err := h.dashboards.Balances(c.Request.Context(), p)
	if err != nil {
		respondError(c, h.logger, err, "load area balances")
		return
	}
	RespondOK(c, balances)
}

// ExpenseBreakdown groups approved expenses by category within ?from&to
func (h *DashboardHandler) ExpenseBreakdown(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	window, ok := h.dateRange(c)
	if !ok {
		return
	}

	breakdown, err := h.dashboards.ExpenseBreakdown(c.Request.Context(), p, window)
	if err != nil {
		respondError(c, h.logger, err, "load expense breakdown")
		return
	}
	RespondOK(c, breakdown)
}

// IncomeVsExpense returns one entry per month for the last ?months months
func (h *DashboardHandler) IncomeVsExpense(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var query MonthsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		RespondBadRequest(c, "Invalid query parameters: "+err.Error(), nil)
		return
	}

	months, err := h.dashboards.IncomeVsExpense(c.Request.Context(), p, query.Months)
	if err != nil {
		respondError(c, h.logger, err, "load income vs expense")
		return
	}
	RespondOK(c, months)
}

func (h *DashboardHandler) ExpensesByArea(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	window, ok := h.dateRange(c)
	if !ok {
		return
	}

	expenses, err := h.dashboards.ExpensesByArea(c.Request.Context(), p, window)
	if err != nil {
		respondError(c, h.logger, err, "load expenses by area")
		return
	}
	RespondOK(c, expenses)
}

// PersonalFunds returns the balances of the caller's special fund departments
func (h *DashboardHandler) PersonalFunds(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	funds, err := h.dashboards.PersonalFunds(c.Request.Context(), p)
	if err != nil {
		respondError(c, h.logger, err, "load personal funds")
		return
	}
	RespondOK(c, funds)
}

func (h *DashboardHandler) dateRange(c *gin.Context) (service.DateRange, bool) {
	var query DateRangeQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		RespondBadRequest(c, "Invalid query parameters: "+err.Error(), nil)
		return service.DateRange{}, false
	}

	var fp fieldParser
	window := service.DateRange{
		From: fp.optionalDate("from", &query.From),
		To:   fp.optionalDate("to", &query.To),
	}
	if err := fp.err(); err != nil {
		respondError(c, h.logger, err, "parse date range")
		return service.DateRange{}, false
	}
	return window, true
}
