package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"storybook-backend/internal/feedback"
	"storybook-backend/internal/manuscript"
	"storybook-backend/internal/models"
	"storybook-backend/internal/supabase"
)

type FeedbackHandler struct {
	dbClient *supabase.DatabaseClient
}

func NewFeedbackHandler(dbClient *supabase.DatabaseClient) *FeedbackHandler {
	return &FeedbackHandler{dbClient: dbClient}
}

// ReplyToPageFeedback attaches the admin's reply or comment to a page's
// feedback. Replies need unresolved feedback; comments need resolved
// feedback.
func (h *FeedbackHandler) ReplyToPageFeedback(c *gin.Context) {
	h.mutatePageFeedback(c, func(state *feedback.State, req models.ReplyRequest) error {
		if req.Type == feedback.ReplyTypeComment {
			return state.Comment(manuscript.Sanitize(req.Text), time.Now())
		}
		return state.Reply(manuscript.Sanitize(req.Text), time.Now())
	})
}

func (h *FeedbackHandler) EditPageReply(c *gin.Context) {
	h.mutatePageFeedback(c, func(state *feedback.State, req models.ReplyRequest) error {
		return state.EditReply(manuscript.Sanitize(req.Text), time.Now())
	})
}

func (h *FeedbackHandler) DeletePageReply(c *gin.Context) {
	if h.dbClient == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database not available"})
		return
	}

	pageID, ok := parseUUIDParam(c, "page_id")
	if !ok {
		return
	}

	page, err := h.dbClient.GetPage(pageID)
	if err != nil {
		respondError(c, "failed to get page", err)
		return
	}

	state, err := page.FeedbackState()
	if err != nil {
		respondError(c, "failed to decode feedback", err)
		return
	}
	if err := state.DeleteReply(); err != nil {
		respondError(c, "failed to delete reply", err)
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

func (h *FeedbackHandler) ReplyToCharacterFeedback(c *gin.Context) {
	h.mutateCharacterFeedback(c, func(state *feedback.State, req models.ReplyRequest) error {
		if req.Type == feedback.ReplyTypeComment {
			return state.Comment(manuscript.Sanitize(req.Text), time.Now())
		}
		return state.Reply(manuscript.Sanitize(req.Text), time.Now())
	})
}

func (h *FeedbackHandler) EditCharacterReply(c *gin.Context) {
	h.mutateCharacterFeedback(c, func(state *feedback.State, req models.ReplyRequest) error {
		return state.EditReply(manuscript.Sanitize(req.Text), time.Now())
	})
}

func (h *FeedbackHandler) DeleteCharacterReply(c *gin.Context) {
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

	state, err := character.FeedbackState()
	if err != nil {
		respondError(c, "failed to decode feedback", err)
		return
	}
	if err := state.DeleteReply(); err != nil {
		respondError(c, "failed to delete reply", err)
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

func (h *FeedbackHandler) mutatePageFeedback(c *gin.Context, apply func(*feedback.State, models.ReplyRequest) error) {
	if h.dbClient == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database not available"})
		return
	}

	pageID, ok := parseUUIDParam(c, "page_id")
	if !ok {
		return
	}

	var req models.ReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Message: err.Error()})
		return
	}

	page, err := h.dbClient.GetPage(pageID)
	if err != nil {
		respondError(c, "failed to get page", err)
		return
	}

	state, err := page.FeedbackState()
	if err != nil {
		respondError(c, "failed to decode feedback", err)
		return
	}
	if err := apply(&state, req); err != nil {
		respondError(c, "failed to update feedback", err)
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

func (h *FeedbackHandler) mutateCharacterFeedback(c *gin.Context, apply func(*feedback.State, models.ReplyRequest) error) {
	if h.dbClient == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database not available"})
		return
	}

	characterID, ok := parseUUIDParam(c, "character_id")
	if !ok {
		return
	}

	var req models.ReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Message: err.Error()})
		return
	}

	character, err := h.dbClient.GetCharacter(characterID)
	if err != nil {
		respondError(c, "failed to get character", err)
		return
	}

	state, err := character.FeedbackState()
	if err != nil {
		respondError(c, "failed to decode feedback", err)
		return
	}
	if err := apply(&state, req); err != nil {
		respondError(c, "failed to update feedback", err)
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
