package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"storybook-backend/internal/manuscript"
	"storybook-backend/internal/models"
	"storybook-backend/internal/status"
	"storybook-backend/internal/supabase"
)

type PagesHandler struct {
	dbClient *supabase.DatabaseClient
}

func NewPagesHandler(dbClient *supabase.DatabaseClient) *PagesHandler {
	return &PagesHandler{dbClient: dbClient}
}

// ParseManuscript splits the manuscript text into pages and replaces the
// project's page set. Only allowed before the first send; once a review
// baseline exists the page set is fixed.
func (h *PagesHandler) ParseManuscript(c *gin.Context) {
	if h.dbClient == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database not available"})
		return
	}

	projectID, ok := parseUUIDParam(c, "project_id")
	if !ok {
		return
	}

	project, err := h.dbClient.GetProject(projectID)
	if err != nil {
		respondError(c, "failed to get project", err)
		return
	}
	if project.CharacterSendCount > 0 || project.IllustrationSendCount > 0 {
		c.JSON(http.StatusConflict, models.ErrorResponse{
			Error: "manuscript is locked once the project has been sent to review",
		})
		return
	}

	var req models.ParseManuscriptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Message: err.Error()})
		return
	}

	parsed, err := manuscript.Parse(req.Text)
	if err != nil {
		respondError(c, "failed to parse manuscript", err)
		return
	}

	pages := make([]models.Page, len(parsed))
	for i, p := range parsed {
		pages[i] = models.Page{
			ID:               uuid.New(),
			ProjectID:        projectID,
			PageNumber:       p.PageNumber,
			StoryText:        p.StoryText,
			SceneDescription: p.SceneDescription,
			TextIntegration:  project.IllustrationTextIntegration,
		}
	}

	stored, err := h.dbClient.ReplacePages(projectID, pages)
	if err != nil {
		respondError(c, "failed to store pages", err)
		return
	}

	resp, err := toPageListResponse(stored, status.RoleAdmin)
	if err != nil {
		respondError(c, "failed to render pages", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PagesHandler) ListPages(c *gin.Context) {
	if h.dbClient == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database not available"})
		return
	}

	projectID, ok := parseUUIDParam(c, "project_id")
	if !ok {
		return
	}

	pages, err := h.dbClient.ListPages(projectID)
	if err != nil {
		respondError(c, "failed to list pages", err)
		return
	}

	resp, err := toPageListResponse(pages, status.RoleAdmin)
	if err != nil {
		respondError(c, "failed to render pages", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PagesHandler) UpdatePage(c *gin.Context) {
	if h.dbClient == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database not available"})
		return
	}

	pageID, ok := parseUUIDParam(c, "page_id")
	if !ok {
		return
	}

	var req models.UpdatePageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Message: err.Error()})
		return
	}
	if req.StoryText == nil && req.SceneDescription == nil && req.CharacterActions == nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "nothing to update"})
		return
	}

	if req.StoryText != nil {
		clean := manuscript.Sanitize(*req.StoryText)
		req.StoryText = &clean
	}
	if req.SceneDescription != nil {
		clean := manuscript.Sanitize(*req.SceneDescription)
		req.SceneDescription = &clean
	}
	if req.CharacterActions != nil {
		for name, action := range req.CharacterActions {
			action.Action = manuscript.Sanitize(action.Action)
			action.Pose = manuscript.Sanitize(action.Pose)
			action.Emotion = manuscript.Sanitize(action.Emotion)
			req.CharacterActions[name] = action
		}
	}

	if req.StoryText != nil || req.SceneDescription != nil {
		if err := h.dbClient.UpdatePageText(pageID, req.StoryText, req.SceneDescription); err != nil {
			respondError(c, "failed to update page", err)
			return
		}
	}
	if req.CharacterActions != nil {
		if err := h.dbClient.SetPageCharacterActions(pageID, req.CharacterActions); err != nil {
			respondError(c, "failed to update page", err)
			return
		}
	}

	page, err := h.dbClient.GetPage(pageID)
	if err != nil {
		respondError(c, "failed to get page", err)
		return
	}
	resp, err := toPageResponse(page, status.RoleAdmin)
	if err != nil {
		respondError(c, "failed to render page", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SetIllustrationType switches a page between spread and spot rendering.
// Spread always forces integrated text; the two writes happen as one command.
func (h *PagesHandler) SetIllustrationType(c *gin.Context) {
	if h.dbClient == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database not available"})
		return
	}

	pageID, ok := parseUUIDParam(c, "page_id")
	if !ok {
		return
	}

	var req models.SetIllustrationTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Message: err.Error()})
		return
	}

	page, err := h.dbClient.GetPage(pageID)
	if err != nil {
		respondError(c, "failed to get page", err)
		return
	}

	if err := page.SetIllustrationType(req.IllustrationType, req.TextIntegration); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid illustration type", Message: err.Error()})
		return
	}

	if err := h.dbClient.SetPageIllustrationType(page.ID, page.IllustrationType, page.TextIntegration); err != nil {
		respondError(c, "failed to update illustration type", err)
		return
	}

	resp, err := toPageResponse(page, status.RoleAdmin)
	if err != nil {
		respondError(c, "failed to render page", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
