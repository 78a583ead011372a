package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sanord8/YL-portal-sub002/internal/api_gateway/service"
)

// ActivityHandler serves the projected activity feed
type ActivityHandler struct {
	activity service.ActivityService
	logger   *slog.Logger
}

func NewActivityHandler(logger *slog.Logger, activity service.ActivityService) *ActivityHandler {
	return &ActivityHandler{
		activity: activity,
		logger:   logger,
	}
}

// ListByMovement returns a page of a movement's activity, newest first
func (h *ActivityHandler) ListByMovement(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		RespondBadRequest(c, "Invalid pagination parameters: "+err.Error(), nil)
		return
	}

	entries, total, err := h.activity.ListByMovement(c.Request.Context(), p, id, pagination.Page, pagination.PerPage)
	if err != nil {
		respondError(c, h.logger, err, "load movement activity")
		return
	}
	RespondWithPaginatedData(c, http.StatusOK, entries, pagination.Page, pagination.PerPage, int(total))
}
