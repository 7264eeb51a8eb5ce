package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storybook-backend/internal/models"
	"storybook-backend/internal/services"
	"storybook-backend/internal/status"
)

type SendHandler struct {
	sendService *services.SendService
}

func NewSendHandler(sendService *services.SendService) *SendHandler {
	return &SendHandler{sendService: sendService}
}

// Send runs the phase-advancing send for characters or sketches. The send
// counter only moves when new images actually went out.
func (h *SendHandler) Send(c *gin.Context) {
	if h.sendService == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database not available"})
		return
	}

	projectID, ok := parseUUIDParam(c, "project_id")
	if !ok {
		return
	}

	var req models.SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Message: err.Error()})
		return
	}

	var (
		project   *models.Project
		sendCount int
		err       error
	)
	switch req.Phase {
	case "characters":
		project, err = h.sendService.SendCharacters(projectID)
		if project != nil {
			sendCount = project.CharacterSendCount
		}
	case "sketches":
		project, err = h.sendService.SendSketches(projectID)
		if project != nil {
			sendCount = project.IllustrationSendCount
		}
	default:
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "unknown phase, expected characters or sketches"})
		return
	}
	if err != nil {
		respondError(c, "failed to send", err)
		return
	}

	c.JSON(http.StatusOK, models.SendResponse{
		ProjectID:   project.ID.String(),
		Status:      status.Normalize(project.Status).String(),
		SendCount:   sendCount,
		ResendRound: status.ResendRound(sendCount),
	})
}

func (h *SendHandler) BeginCharacterGeneration(c *gin.Context) {
	h.transition(c, status.BeginCharacterGeneration, "failed to begin character generation")
}

func (h *SendHandler) CompleteCharacterGeneration(c *gin.Context) {
	h.transition(c, status.CompleteCharacterGeneration, "failed to complete character generation")
}

func (h *SendHandler) RegenerateCharacters(c *gin.Context) {
	h.transition(c, status.RegenerateCharacters, "failed to regenerate characters")
}

func (h *SendHandler) ApproveCharacters(c *gin.Context) {
	h.transition(c, status.ApproveCharacters, "failed to approve characters")
}

func (h *SendHandler) ApproveIllustrations(c *gin.Context) {
	h.transition(c, status.ApproveIllustrations, "failed to approve illustrations")
}

func (h *SendHandler) transition(c *gin.Context, action func(status.Snapshot) (status.Outcome, error), errLabel string) {
	if h.sendService == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database not available"})
		return
	}

	projectID, ok := parseUUIDParam(c, "project_id")
	if !ok {
		return
	}

	project, err := h.sendService.Transition(projectID, action)
	if err != nil {
		respondError(c, errLabel, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"project_id": project.ID.String(),
		"status":     status.Normalize(project.Status).String(),
	})
}
