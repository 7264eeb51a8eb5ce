package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"storybook-backend/internal/models"
	"storybook-backend/internal/services"
	"storybook-backend/internal/status"
)

type GenerateHandler struct {
	generationService *services.GenerationService
}

func NewGenerateHandler(generationService *services.GenerationService) *GenerateHandler {
	return &GenerateHandler{generationService: generationService}
}

// StartBatch launches illustration generation for a page selection. The batch
// outlives the request; progress is polled via BatchStatus.
func (h *GenerateHandler) StartBatch(c *gin.Context) {
	if h.generationService == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database not available"})
		return
	}

	projectID, ok := parseUUIDParam(c, "project_id")
	if !ok {
		return
	}

	var req models.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Message: err.Error()})
		return
	}

	// Detached context: the batch must not die with the HTTP request.
	resp, err := h.generationService.StartBatch(context.Background(), projectID, req.PageIDs)
	if err != nil {
		respondError(c, "failed to start batch", err)
		return
	}

	c.JSON(http.StatusAccepted, resp)
}

func (h *GenerateHandler) BatchStatus(c *gin.Context) {
	if h.generationService == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database not available"})
		return
	}

	batchID, ok := parseUUIDParam(c, "batch_id")
	if !ok {
		return
	}

	resp, err := h.generationService.BatchStatus(batchID)
	if err != nil {
		respondError(c, "failed to get batch status", err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// CancelBatch stops a running batch. Pages already in flight finish; queued
// pages never start.
func (h *GenerateHandler) CancelBatch(c *gin.Context) {
	if h.generationService == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database not available"})
		return
	}

	batchID, ok := parseUUIDParam(c, "batch_id")
	if !ok {
		return
	}

	if err := h.generationService.CancelBatch(batchID); err != nil {
		respondError(c, "failed to cancel batch", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "batch cancellation requested"})
}

// RetryBatch starts a fresh batch over the failed pages of a finished one.
func (h *GenerateHandler) RetryBatch(c *gin.Context) {
	if h.generationService == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database not available"})
		return
	}

	batchID, ok := parseUUIDParam(c, "batch_id")
	if !ok {
		return
	}

	resp, err := h.generationService.RetryBatchFailures(context.Background(), batchID)
	if err != nil {
		respondError(c, "failed to retry batch", err)
		return
	}

	c.JSON(http.StatusAccepted, resp)
}

// GeneratePage runs one page synchronously. Pages that already have an
// illustration come back as a candidate pair awaiting a decision.
func (h *GenerateHandler) GeneratePage(c *gin.Context) {
	if h.generationService == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database not available"})
		return
	}

	pageID, ok := parseUUIDParam(c, "page_id")
	if !ok {
		return
	}

	result, err := h.generationService.GeneratePage(c.Request.Context(), pageID)
	if err != nil {
		respondError(c, "failed to generate page", err)
		return
	}
	if !result.Succeeded() {
		c.JSON(http.StatusBadGateway, models.GenerationFailure{
			PageID: result.PageID.String(),
			Error:  *result.Failure,
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// GenerateSketch regenerates only the sketch for a page from its persisted
// illustration.
func (h *GenerateHandler) GenerateSketch(c *gin.Context) {
	if h.generationService == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database not available"})
		return
	}

	pageID, ok := parseUUIDParam(c, "page_id")
	if !ok {
		return
	}

	result, err := h.generationService.GenerateSketch(c.Request.Context(), pageID)
	if err != nil {
		respondError(c, "failed to generate sketch", err)
		return
	}
	if !result.Succeeded() {
		c.JSON(http.StatusBadGateway, models.GenerationFailure{
			PageID: result.PageID.String(),
			Error:  *result.Failure,
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// DecideRegeneration resolves a pending candidate pair with keep_new or
// revert_old.
func (h *GenerateHandler) DecideRegeneration(c *gin.Context) {
	if h.generationService == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database not available"})
		return
	}

	pageID, ok := parseUUIDParam(c, "page_id")
	if !ok {
		return
	}

	var req models.RegenerationDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Message: err.Error()})
		return
	}

	result, err := h.generationService.DecideRegeneration(c.Request.Context(), pageID, req.Decision)
	if err != nil {
		respondError(c, "failed to apply decision", err)
		return
	}
	if !result.Succeeded() {
		c.JSON(http.StatusBadGateway, models.GenerationFailure{
			PageID: result.PageID.String(),
			Error:  *result.Failure,
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// GenerateCharacter produces a character portrait and sketch from its
// attribute sheet.
func (h *GenerateHandler) GenerateCharacter(c *gin.Context) {
	if h.generationService == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database not available"})
		return
	}

	characterID, ok := parseUUIDParam(c, "character_id")
	if !ok {
		return
	}

	character, err := h.generationService.GenerateCharacterImage(c.Request.Context(), characterID)
	if err != nil {
		respondError(c, "failed to generate character", err)
		return
	}

	resp, err := toCharacterResponse(character, status.RoleAdmin)
	if err != nil {
		respondError(c, "failed to render character", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
