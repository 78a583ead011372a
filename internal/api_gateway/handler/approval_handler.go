package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/sanord8/YL-portal-sub002/internal/api_gateway/service"
)

// ApprovalHandler serves the approval workflow endpoints of a movement
type ApprovalHandler struct {
	approvals service.ApprovalService
	logger    *slog.Logger
}

// NewApprovalHandler creates a new approval handler
func NewApprovalHandler(logger *slog.Logger, approvals service.ApprovalService) *ApprovalHandler {
	return &ApprovalHandler{
		approvals: approvals,
		logger:    logger,
	}
}

// Finalize submits a DRAFT for approval
func (h *ApprovalHandler) Finalize(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req FinalizeRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error(), nil)
		return
	}

	m, err := h.approvals.Finalize(c.Request.Context(), p, id, req.Override)
	if err != nil {
		respondError(c, h.logger, err, "finalize movement")
		return
	}
	RespondOK(c, m)
}

func (h *ApprovalHandler) Approve(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req ApproveRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error(), nil)
		return
	}

	m, err := h.approvals.Approve(c.Request.Context(), p, id, req.Comment)
	if err != nil {
		respondError(c, h.logger, err, "approve movement")
		return
	}
	RespondOK(c, m)
}

func (h *ApprovalHandler) Reject(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req RejectRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error(), nil)
		return
	}

	m, err := h.approvals.Reject(c.Request.Context(), p, id, req.Reason, req.Comment)
	if err != nil {
		respondError(c, h.logger, err, "reject movement")
		return
	}
	RespondOK(c, m)
}

// Cancel withdraws a movement from the ledger for good
func (h *ApprovalHandler) Cancel(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req CancelRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error(), nil)
		return
	}

	m, err := h.approvals.Cancel(c.Request.Context(), p, id, req.Reason)
	if err != nil {
		respondError(c, h.logger, err, "cancel movement")
		return
	}
	RespondOK(c, m)
}

func (h *ApprovalHandler) AddComment(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error(), nil)
		return
	}

	entry, err := h.approvals.AddComment(c.Request.Context(), p, id, req.Comment)
	if err != nil {
		respondError(c, h.logger, err, "comment on movement")
		return
	}
	RespondCreated(c, entry)
}

// History returns the approval trail oldest first
func (h *ApprovalHandler) History(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	entries, err := h.approvals.History(c.Request.Context(), p, id)
	if err != nil {
		respondError(c, h.logger, err, "load movement history")
		return
	}
	RespondOK(c, entries)
}
