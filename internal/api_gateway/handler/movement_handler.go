package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sanord8/YL-portal-sub002/internal/api_gateway/service"
	"github.com/sanord8/YL-portal-sub002/internal/domain/access"
	"github.com/sanord8/YL-portal-sub002/internal/domain/movement"
	"github.com/sanord8/YL-portal-sub002/internal/domain/shared"
)

// MovementHandler serves direct movement CRUD and the split endpoints
type MovementHandler struct {
	movements service.MovementService
	splits    service.SplitService
	logger    *slog.Logger
}

// NewMovementHandler creates a new movement handler
func NewMovementHandler(logger *slog.Logger, movements service.MovementService, splits service.SplitService) *MovementHandler {
	return &MovementHandler{
		movements: movements,
		splits:    splits,
		logger:    logger,
	}
}

// Create records a movement as PENDING, or APPROVED when requested by an approver
func (h *MovementHandler) Create(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var req CreateMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error(), nil)
		return
	}

	var fp fieldParser
	in := service.CreateMovementInput{
		Type:                     fp.movementType("type", req.Type),
		Amount:                   req.Amount,
		Currency:                 req.Currency,
		Description:              req.Description,
		Category:                 req.Category,
		TransactionDate:          fp.date("transaction_date", req.TransactionDate),
		AreaID:                   fp.id("area_id", req.AreaID),
		DepartmentID:             fp.optionalID("department_id", req.DepartmentID),
		SourceBankAccountID:      fp.optionalID("source_bank_account_id", req.SourceBankAccountID),
		DestinationBankAccountID: fp.optionalID("destination_bank_account_id", req.DestinationBankAccountID),
		Approve:                  req.Approve,
	}
	if err := fp.err(); err != nil {
		respondError(c, h.logger, err, "create movement")
		return
	}

	m, err := h.movements.Create(c.Request.Context(), p, in)
	if err != nil {
		respondError(c, h.logger, err, "create movement")
		return
	}
	RespondCreated(c, m)
}

// List returns a page of the movements visible to the caller
func (h *MovementHandler) List(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var query ListMovementsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		RespondBadRequest(c, "Invalid query parameters: "+err.Error(), nil)
		return
	}

	var fp fieldParser
	in := service.ListMovementsInput{Page: query.Page, PerPage: query.PerPage}
	if query.AreaID != "" {
		in.AreaID = fp.optionalID("area_id", &query.AreaID)
	}
	if query.Status != "" {
		status, err := movement.ParseStatus(query.Status)
		if err != nil {
			fp.verr.Add("status", err.Error())
		} else {
			in.Status = &status
		}
	}
	if err := fp.err(); err != nil {
		respondError(c, h.logger, err, "list movements")
		return
	}

	items, total, err := h.movements.List(c.Request.Context(), p, in)
	if err != nil {
		respondError(c, h.logger, err, "list movements")
		return
	}
	RespondWithPaginatedData(c, http.StatusOK, items, query.Page, query.PerPage, total)
}

// Get returns one movement together with its split allocations
func (h *MovementHandler) Get(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	detail, err := h.movements.Get(c.Request.Context(), p, id)
	if err != nil {
		respondError(c, h.logger, err, "get movement")
		return
	}
	RespondOK(c, detail)
}

// Update applies a partial edit
func (h *MovementHandler) Update(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req UpdateMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error(), nil)
		return
	}

	patch, err := req.patch()
	if err != nil {
		respondError(c, h.logger, err, "update movement")
		return
	}

	m, err := h.movements.Update(c.Request.Context(), p, id, patch)
	if err != nil {
		respondError(c, h.logger, err, "update movement")
		return
	}
	RespondOK(c, m)
}

// Delete soft deletes a DRAFT or PENDING movement
func (h *MovementHandler) Delete(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.movements.Delete(c.Request.Context(), p, id); err != nil {
		respondError(c, h.logger, err, "delete movement")
		return
	}
	RespondNoContent(c)
}

// Split divides a movement into allocations
func (h *MovementHandler) Split(c *gin.Context) {
	h.writeSplit(c, h.splits.Split, "split movement", true)
}

// UpdateSplit replaces every allocation of a split movement
func (h *MovementHandler) UpdateSplit(c *gin.Context) {
	h.writeSplit(c, h.splits.UpdateSplit, "update split", false)
}

// Unsplit removes the allocations and restores the original movement
func (h *MovementHandler) Unsplit(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	m, err := h.splits.Unsplit(c.Request.Context(), p, id)
	if err != nil {
		respondError(c, h.logger, err, "unsplit movement")
		return
	}
	RespondOK(c, m)
}

type splitFunc func(ctx context.Context, p *access.Principal, id uuid.UUID, allocations []movement.Allocation) (*movement.Split, error)

func (h *MovementHandler) writeSplit(c *gin.Context, fn splitFunc, operation string, created bool) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req SplitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error(), nil)
		return
	}

	allocations, err := req.allocations()
	if err != nil {
		respondError(c, h.logger, err, operation)
		return
	}

	split, err := fn(c.Request.Context(), p, id, allocations)
	if err != nil {
		respondError(c, h.logger, err, operation)
		return
	}

	resp := SplitResponse{Parent: split.Parent, Allocations: split.Children}
	if created {
		RespondCreated(c, resp)
		return
	}
	RespondOK(c, resp)
}

func (r UpdateMovementRequest) patch() (movement.Patch, error) {
	var fp fieldParser
	patch := movement.Patch{
		Amount:                   r.Amount,
		Currency:                 r.Currency,
		Description:              r.Description,
		Category:                 r.Category,
		TransactionDate:          fp.optionalDate("transaction_date", r.TransactionDate),
		DepartmentID:             fp.optionalID("department_id", r.DepartmentID),
		SourceBankAccountID:      fp.optionalID("source_bank_account_id", r.SourceBankAccountID),
		DestinationBankAccountID: fp.optionalID("destination_bank_account_id", r.DestinationBankAccountID),
	}
	if r.Type != nil && strings.TrimSpace(*r.Type) != "" {
		t := fp.movementType("type", *r.Type)
		patch.Type = &t
	}
	return patch, fp.err()
}

func (r SplitRequest) allocations() ([]movement.Allocation, error) {
	var fp fieldParser
	out := make([]movement.Allocation, len(r.Allocations))
	for i, a := range r.Allocations {
		prefix := "allocations[" + strconv.Itoa(i) + "]."
		out[i] = movement.Allocation{
			AreaID:          fp.id(prefix+"area_id", a.AreaID),
			DepartmentID:    fp.optionalID(prefix+"department_id", a.DepartmentID),
			Amount:          a.Amount,
			Description:     a.Description,
			TransactionDate: fp.optionalDate(prefix+"transaction_date", a.TransactionDate),
		}
	}
	return out, fp.err()
}

// pathID parses the :id route parameter, responding 400 when it is malformed
func pathID(c *gin.Context) (uuid.UUID, bool) {
	raw := c.Param("id")
	id, err := uuid.Parse(raw)
	if err != nil {
		RespondBadRequest(c, "Invalid ID", []shared.FieldError{{Field: "id", Message: "must be a valid UUID"}})
		return uuid.Nil, false
	}
	return id, true
}
