package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"storybook-backend/internal/models"
	"storybook-backend/internal/services"
)

type DownloadHandler struct {
	bundleService *services.BundleService
}

func NewDownloadHandler(bundleService *services.BundleService) *DownloadHandler {
	return &DownloadHandler{bundleService: bundleService}
}

// DownloadBundle streams the project's artifacts as a ZIP archive.
func (h *DownloadHandler) DownloadBundle(c *gin.Context) {
	if h.bundleService == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database not available"})
		return
	}

	projectID, ok := parseUUIDParam(c, "project_id")
	if !ok {
		return
	}

	c.Header("Content-Type", "application/zip")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", projectID.String()+".zip"))

	if err := h.bundleService.WriteBundle(projectID, c.Writer); err != nil {
		// Headers may already be out; reset only works when nothing was
		// written yet.
		if !c.Writer.Written() {
			c.Header("Content-Type", "application/json")
			c.Header("Content-Disposition", "")
			respondError(c, "failed to build bundle", err)
			return
		}
		c.Status(http.StatusInternalServerError)
	}
}
