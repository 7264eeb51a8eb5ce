package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storybook-backend/internal/models"
	"storybook-backend/internal/status"
	"storybook-backend/internal/supabase"
)

type CharactersHandler struct {
	dbClient *supabase.DatabaseClient
}

func NewCharactersHandler(dbClient *supabase.DatabaseClient) *CharactersHandler {
	return &CharactersHandler{dbClient: dbClient}
}

// CreateCharacter adds a character to a project. The first character created
// becomes the main character; the database enforces at most one main per
// project.
func (h *CharactersHandler) CreateCharacter(c *gin.Context) {
	if h.dbClient == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database not available"})
		return
	}

	projectID, ok := parseUUIDParam(c, "project_id")
	if !ok {
		return
	}

	var req models.CreateCharacterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Message: err.Error()})
		return
	}

	hasMain, err := h.dbClient.HasMainCharacter(projectID)
	if err != nil {
		respondError(c, "failed to check main character", err)
		return
	}

	character, err := h.dbClient.CreateCharacter(projectID, req.Name, req.Role, !hasMain, req.Attributes)
	if err != nil {
		respondError(c, "failed to create character", err)
		return
	}

	resp, err := toCharacterResponse(character, status.RoleAdmin)
	if err != nil {
		respondError(c, "failed to render character", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CharactersHandler) ListCharacters(c *gin.Context) {
	if h.dbClient == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database not available"})
		return
	}

	projectID, ok := parseUUIDParam(c, "project_id")
	if !ok {
		return
	}

	characters, err := h.dbClient.ListCharacters(projectID)
	if err != nil {
		respondError(c, "failed to list characters", err)
		return
	}

	resp, err := toCharacterListResponse(characters, status.RoleAdmin)
	if err != nil {
		respondError(c, "failed to render characters", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CharactersHandler) UpdateCharacter(c *gin.Context) {
	if h.dbClient == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database not available"})
		return
	}

	characterID, ok := parseUUIDParam(c, "character_id")
	if !ok {
		return
	}

	var req models.UpdateCharacterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Message: err.Error()})
		return
	}

	if err := h.dbClient.UpdateCharacter(characterID, req.Name, req.Role, req.Attributes); err != nil {
		respondError(c, "failed to update character", err)
		return
	}

	character, err := h.dbClient.GetCharacter(characterID)
	if err != nil {
		respondError(c, "failed to get character", err)
		return
	}
	resp, err := toCharacterResponse(character, status.RoleAdmin)
	if err != nil {
		respondError(c, "failed to render character", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// DeleteCharacter removes a secondary character. The main character carries
// the customer's reference image and cannot be deleted.
func (h *CharactersHandler) DeleteCharacter(c *gin.Context) {
	if h.dbClient == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database not available"})
		return
	}

	characterID, ok := parseUUIDParam(c, "character_id")
	if !ok {
		return
	}

	character, err := h.dbClient.GetCharacter(characterID)
	if err != nil {
		respondError(c, "failed to get character", err)
		return
	}
	if character.IsMain {
		c.JSON(http.StatusConflict, models.ErrorResponse{Error: "the main character cannot be deleted"})
		return
	}

	if err := h.dbClient.DeleteCharacter(characterID); err != nil {
		respondError(c, "failed to delete character", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "character deleted successfully"})
}
