package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"storybook-backend/internal/manuscript"
	"storybook-backend/internal/middleware"
	"storybook-backend/internal/models"
	"storybook-backend/internal/services"
	"storybook-backend/internal/status"
	"storybook-backend/internal/supabase"
)

// ReviewHandler serves the customer review portal. Every route is scoped by
// the review token middleware; the handler never sees a project it was not
// resolved for.
type ReviewHandler struct {
	dbClient      *supabase.DatabaseClient
	reviewService *services.ReviewService
}

func NewReviewHandler(dbClient *supabase.DatabaseClient, reviewService *services.ReviewService) *ReviewHandler {
	return &ReviewHandler{
		dbClient:      dbClient,
		reviewService: reviewService,
	}
}

// GetProject returns the customer view: customer URLs only, visible pages
// gated by phase plus early pushes.
func (h *ReviewHandler) GetProject(c *gin.Context) {
	if h.dbClient == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database not available"})
		return
	}

	project, ok := middleware.ReviewProject(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "review project not resolved"})
		return
	}

	pages, err := h.dbClient.ListPages(project.ID)
	if err != nil {
		respondError(c, "failed to list pages", err)
		return
	}
	characters, err := h.dbClient.ListCharacters(project.ID)
	if err != nil {
		respondError(c, "failed to list characters", err)
		return
	}

	projectResp := toProjectResponse(project, pages, characters, status.RoleCustomer)

	visible := make(map[int]bool, len(projectResp.VisiblePages))
	for _, n := range projectResp.VisiblePages {
		visible[n] = true
	}
	var visiblePages []models.Page
	for _, p := range pages {
		if visible[p.PageNumber] {
			visiblePages = append(visiblePages, p)
		}
	}

	pageList, err := toPageListResponse(visiblePages, status.RoleCustomer)
	if err != nil {
		respondError(c, "failed to render pages", err)
		return
	}
	characterList, err := toCharacterListResponse(characters, status.RoleCustomer)
	if err != nil {
		respondError(c, "failed to render characters", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"project":    projectResp,
		"pages":      pageList.Pages,
		"characters": characterList.Characters,
	})
}

// SubmitReview applies the customer's edits and feedback atomically and moves
// the project into the matching revision status when feedback was given.
func (h *ReviewHandler) SubmitReview(c *gin.Context) {
	project, ok := middleware.ReviewProject(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "review project not resolved"})
		return
	}

	var req models.ReviewSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Message: err.Error()})
		return
	}

	if err := h.reviewService.Submit(project, req); err != nil {
		respondError(c, "failed to submit review", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "review submitted"})
}

// PageFollowUp appends a customer message to a page's feedback conversation.
func (h *ReviewHandler) PageFollowUp(c *gin.Context) {
	if h.dbClient == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database not available"})
		return
	}

	project, ok := middleware.ReviewProject(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "review project not resolved"})
		return
	}

	pageID, ok := parseUUIDParam(c, "page_id")
	if !ok {
		return
	}

	var req models.FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Message: err.Error()})
		return
	}

	page, err := h.dbClient.GetPage(pageID)
	if err != nil {
		respondError(c, "failed to get page", err)
		return
	}
	if page.ProjectID != project.ID {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "page not found"})
		return
	}

	state, err := page.FeedbackState()
	if err != nil {
		respondError(c, "failed to decode feedback", err)
		return
	}
	if err := state.CustomerFollowUp(manuscript.Sanitize(req.Note), time.Now()); err != nil {
		respondError(c, "failed to record follow-up", err)
		return
	}
	if err := page.ApplyFeedback(state); err != nil {
		respondError(c, "failed to encode feedback", err)
		return
	}
	if err := h.dbClient.UpdatePageFeedback(page); err != nil {
		respondError(c, "failed to store feedback", err)
		return
	}

	c.JSON(http.StatusOK, models.NewFeedbackView(state))
}

// CharacterFollowUp appends a customer message to a character's feedback
// conversation.
func (h *ReviewHandler) CharacterFollowUp(c *gin.Context) {
	if h.dbClient == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database not available"})
		return
	}

	project, ok := middleware.ReviewProject(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "review project not resolved"})
		return
	}

	characterID, ok := parseUUIDParam(c, "character_id")
	if !ok {
		return
	}

	var req models.FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Message: err.Error()})
		return
	}

	character, err := h.dbClient.GetCharacter(characterID)
	if err != nil {
		respondError(c, "failed to get character", err)
		return
	}
	if character.ProjectID != project.ID {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "character not found"})
		return
	}

	state, err := character.FeedbackState()
	if err != nil {
		respondError(c, "failed to decode feedback", err)
		return
	}
	if err := state.CustomerFollowUp(manuscript.Sanitize(req.Note), time.Now()); err != nil {
		respondError(c, "failed to record follow-up", err)
		return
	}
	if err := character.ApplyFeedback(state); err != nil {
		respondError(c, "failed to encode feedback", err)
		return
	}
	if err := h.dbClient.UpdateCharacterFeedback(character); err != nil {
		respondError(c, "failed to store feedback", err)
		return
	}

	c.JSON(http.StatusOK, models.NewFeedbackView(state))
}
