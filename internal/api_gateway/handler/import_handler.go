package handler

import (
	"encoding/base64"
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sanord8/YL-portal-sub002/internal/api_gateway/service"
)

// ImportHandler handles bank statement uploads
type ImportHandler struct {
	imports service.ImportService
	logger  *slog.Logger
}

// NewImportHandler creates a new import handler
func NewImportHandler(logger *slog.Logger, imports service.ImportService) *ImportHandler {
	return &ImportHandler{
		imports: imports,
		logger:  logger,
	}
}

// Validate parses a statement and reports per-row findings without saving anything
func (h *ImportHandler) Validate(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var req ValidateImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error(), nil)
		return
	}

	var fp fieldParser
	in := service.ValidateImportInput{FileName: req.FileName}
	if strings.TrimSpace(req.SourceBankAccountID) != "" {
		in.SourceBankAccountID = fp.id("source_bank_account_id", req.SourceBankAccountID)
	}
	data, err := decodeFileData(req.FileData)
	if err != nil {
		fp.verr.Add("file_data", "must be base64 encoded")
	}
	in.Data = data
	if err := fp.err(); err != nil {
		respondError(c, h.logger, err, "validate import")
		return
	}

	result, err := h.imports.ValidateImport(c.Request.Context(), p, in)
	if err != nil {
		respondError(c, h.logger, err, "validate import")
		return
	}
	RespondOK(c, result)
}

// Execute saves the valid rows of a previous validation run as DRAFT movements
func (h *ImportHandler) Execute(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var req ExecuteImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error(), nil)
		return
	}

	summary, err := h.imports.ExecuteImport(c.Request.Context(), p, req.Rows, req.SkipInvalid)
	if err != nil {
		respondError(c, h.logger, err, "execute import")
		return
	}
	RespondOK(c, summary)
}

// decodeFileData accepts plain base64 or a data URL as produced by browsers
func decodeFileData(raw string) ([]byte, error) {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "data:") {
		if _, payload, found := strings.Cut(raw, ","); found {
			raw = payload
		}
	}
	return base64.StdEncoding.DecodeString(raw)
}
