package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/sanord8/YL-portal-sub002/internal/api_gateway/service"
)

// OrgHandler manages areas, departments and bank accounts
type OrgHandler struct {
	org    service.OrgService
	logger *slog.Logger
}

// NewOrgHandler creates a new handler for the ledger entities
func NewOrgHandler(logger *slog.Logger, org service.OrgService) *OrgHandler {
	return &OrgHandler{
		org:    org,
		logger: logger,
	}
}

func (h *OrgHandler) CreateArea(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var req CreateAreaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error(), nil)
		return
	}

	var fp fieldParser
	in := service.CreateAreaInput{
		Name:          req.Name,
		Currency:      req.Currency,
		Budget:        req.Budget,
		BankAccountID: fp.optionalID("bank_account_id", req.BankAccountID),
	}
	if err := fp.err(); err != nil {
		respondError(c, h.logger, err, "create area")
		return
	}

	area, err := h.org.CreateArea(c.Request.Context(), p, in)
	if err != nil {
		respondError(c, h.logger, err, "create area")
		return
	}
	RespondCreated(c, area)
}

func (h *OrgHandler) ListAreas(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	areas, err := h.org.ListAreas(c.Request.Context(), p)
	if err != nil {
		respondError(c, h.logger, err, "list areas")
		return
	}
	RespondOK(c, areas)
}

// DeleteArea answers CONFLICT while movements still reference the area
func (h *OrgHandler) DeleteArea(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.org.DeleteArea(c.Request.Context(), p, id); err != nil {
		respondError(c, h.logger, err, "delete area")
		return
	}
	RespondNoContent(c)
}

func (h *OrgHandler) CreateDepartment(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var req CreateDepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error(), nil)
		return
	}

	var fp fieldParser
	in := service.CreateDepartmentInput{
		AreaID: fp.id("area_id", req.AreaID),
		Name:   req.Name,
		UserID: fp.optionalID("user_id", req.UserID),
	}
	if err := fp.err(); err != nil {
		respondError(c, h.logger, err, "create department")
		return
	}

	dept, err := h.org.CreateDepartment(c.Request.Context(), p, in)
	if err != nil {
		respondError(c, h.logger, err, "create department")
		return
	}
	RespondCreated(c, dept)
}

// ListDepartments lists departments, optionally limited to ?area_id
func (h *OrgHandler) ListDepartments(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var fp fieldParser
	areaParam := c.Query("area_id")
	areaID := fp.optionalID("area_id", &areaParam)
	if err := fp.err(); err != nil {
		respondError(c, h.logger, err, "list departments")
		return
	}

	depts, err := h.org.ListDepartments(c.Request.Context(), p, areaID)
	if err != nil {
		respondError(c, h.logger, err, "list departments")
		return
	}
	RespondOK(c, depts)
}

func (h *OrgHandler) DeleteDepartment(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.org.DeleteDepartment(c.Request.Context(), p, id); err != nil {
		respondError(c, h.logger, err, "delete department")
		return
	}
	RespondNoContent(c)
}

func (h *OrgHandler) CreateBankAccount(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var req CreateBankAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error(), nil)
		return
	}

	account, err := h.org.CreateBankAccount(c.Request.Context(), p, service.CreateBankAccountInput{
		Name:     req.Name,
		IBAN:     req.IBAN,
		Currency: req.Currency,
	})
	if err != nil {
		respondError(c, h.logger, err, "create bank account")
		return
	}
	RespondCreated(c, account)
}

func (h *OrgHandler) ListBankAccounts(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	accounts, err := h.org.ListBankAccounts(c.Request.Context(), p)
	if err != nil {
		respondError(c, h.logger, err, "list bank accounts")
		return
	}
	RespondOK(c, accounts)
}

// DeleteBankAccount soft deletes an account no area or live movement uses
func (h *OrgHandler) DeleteBankAccount(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.org.DeleteBankAccount(c.Request.Context(), p, id); err != nil {
		respondError(c, h.logger, err, "delete bank account")
		return
	}
	RespondNoContent(c)
}
