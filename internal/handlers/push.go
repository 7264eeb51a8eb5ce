package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storybook-backend/internal/models"
	"storybook-backend/internal/services"
)

type PushHandler struct {
	pushService *services.PushService
}

func NewPushHandler(pushService *services.PushService) *PushHandler {
	return &PushHandler{pushService: pushService}
}

// PushPages silently syncs updated page images to the customer view. No
// status change, no counter movement, no notification.
func (h *PushHandler) PushPages(c *gin.Context) {
	if h.pushService == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database not available"})
		return
	}

	projectID, ok := parseUUIDParam(c, "project_id")
	if !ok {
		return
	}

	var req models.PushRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Message: err.Error()})
		return
	}

	result, err := h.pushService.PushPages(projectID, req.PageIDs)
	if err != nil {
		respondError(c, "failed to push page images", err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// PushCharacters silently syncs updated character images to the customer
// view.
func (h *PushHandler) PushCharacters(c *gin.Context) {
	if h.pushService == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database not available"})
		return
	}

	projectID, ok := parseUUIDParam(c, "project_id")
	if !ok {
		return
	}

	var req models.PushRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Message: err.Error()})
		return
	}

	result, err := h.pushService.PushCharacters(projectID, req.CharacterIDs)
	if err != nil {
		respondError(c, "failed to push character images", err)
		return
	}

	c.JSON(http.StatusOK, result)
}
