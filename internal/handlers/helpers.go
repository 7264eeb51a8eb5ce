package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"storybook-backend/internal/apperrors"
	"storybook-backend/internal/models"
	"storybook-backend/internal/services"
	"storybook-backend/internal/status"
)

// respondError maps domain errors onto HTTP status codes.
func respondError(c *gin.Context, action string, err error) {
	switch {
	case apperrors.IsNotFound(err):
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: action, Message: err.Error()})
	case apperrors.IsValidation(err):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: action, Message: err.Error()})
	case apperrors.IsInvalidState(err):
		c.JSON(http.StatusConflict, models.ErrorResponse{Error: action, Message: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: action, Message: err.Error()})
	}
}

func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}

// toProjectResponse assembles the project view with its derived gating
// fields. Gating is recomputed on every read, never stored.
func toProjectResponse(project *models.Project, pages []models.Page, characters []models.Character, role status.Role) models.ProjectResponse {
	snap := services.BuildSnapshot(project, pages, characters)
	views := services.BuildPageViews(pages)

	resp := models.ProjectResponse{
		ID:                    project.ID.String(),
		BookTitle:             project.BookTitle,
		AuthorName:            project.AuthorName,
		AuthorEmail:           project.AuthorEmail,
		Status:                snap.Status.String(),
		CharacterSendCount:    project.CharacterSendCount,
		IllustrationSendCount: project.IllustrationSendCount,

		IllustrationAspectRatio:     project.IllustrationAspectRatio,
		IllustrationTextIntegration: project.IllustrationTextIntegration,

		SendButtonDisabled:    status.SendButtonDisabled(snap),
		IsInIllustrationPhase: status.IsInIllustrationPhase(snap.Status),
		VisiblePages:          status.VisiblePages(role, snap, views),

		CreatedAt: project.CreatedAt,
		UpdatedAt: project.UpdatedAt,
	}

	if status.IsInIllustrationPhase(snap.Status) {
		resp.ResendRound = status.ResendRound(project.IllustrationSendCount)
	} else {
		resp.ResendRound = status.ResendRound(project.CharacterSendCount)
	}

	if role == status.RoleAdmin {
		resp.ReviewToken = project.ReviewToken
		if project.GeneralFeedback.Valid {
			resp.GeneralFeedback = project.GeneralFeedback.String
		}
	}

	return resp
}

// toPageResponse renders a page for one of the two surfaces. Customers only
// ever see the customer URLs; internal URLs and candidates stay admin-side.
func toPageResponse(p *models.Page, role status.Role) (models.PageResponse, error) {
	state, err := p.FeedbackState()
	if err != nil {
		return models.PageResponse{}, err
	}

	resp := models.PageResponse{
		ID:               p.ID.String(),
		ProjectID:        p.ProjectID.String(),
		PageNumber:       p.PageNumber,
		StoryText:        p.StoryText,
		SceneDescription: p.SceneDescription,
		TextIntegration:  p.TextIntegration,
		Feedback:         models.NewFeedbackView(state),
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}

	if p.OriginalStoryText.Valid {
		resp.OriginalStoryText = p.OriginalStoryText.String
	}
	if p.OriginalSceneDescription.Valid {
		resp.OriginalSceneDescription = p.OriginalSceneDescription.String
	}
	if p.IllustrationType.Valid {
		resp.IllustrationType = p.IllustrationType.String
	}
	if p.CustomerIllustrationURL.Valid {
		resp.CustomerIllustrationURL = p.CustomerIllustrationURL.String
	}
	if p.CustomerSketchURL.Valid {
		resp.CustomerSketchURL = p.CustomerSketchURL.String
	}

	if role == status.RoleAdmin {
		if p.IllustrationURL.Valid {
			resp.IllustrationURL = p.IllustrationURL.String
		}
		if p.SketchURL.Valid {
			resp.SketchURL = p.SketchURL.String
		}
		if p.CandidateOldURL.Valid {
			resp.CandidateOldURL = p.CandidateOldURL.String
		}
		if p.CandidateNewURL.Valid {
			resp.CandidateNewURL = p.CandidateNewURL.String
		}
	}

	return resp, nil
}

func toCharacterResponse(ch *models.Character, role status.Role) (models.CharacterResponse, error) {
	state, err := ch.FeedbackState()
	if err != nil {
		return models.CharacterResponse{}, err
	}

	resp := models.CharacterResponse{
		ID:         ch.ID.String(),
		Name:       ch.Name,
		Role:       ch.Role,
		IsMain:     ch.IsMain,
		Attributes: ch.Attributes,
		Feedback:   models.NewFeedbackView(state),
		CreatedAt:  ch.CreatedAt,
		UpdatedAt:  ch.UpdatedAt,
	}

	if ch.CustomerImageURL.Valid {
		resp.CustomerImageURL = ch.CustomerImageURL.String
	}
	if ch.CustomerSketchURL.Valid {
		resp.CustomerSketchURL = ch.CustomerSketchURL.String
	}

	if role == status.RoleAdmin {
		if ch.ImageURL.Valid {
			resp.ImageURL = ch.ImageURL.String
		}
		if ch.SketchURL.Valid {
			resp.SketchURL = ch.SketchURL.String
		}
	}

	return resp, nil
}

func toPageListResponse(pages []models.Page, role status.Role) (models.PageListResponse, error) {
	out := make([]models.PageResponse, 0, len(pages))
	for i := range pages {
		resp, err := toPageResponse(&pages[i], role)
		if err != nil {
			return models.PageListResponse{}, err
		}
		out = append(out, resp)
	}
	return models.PageListResponse{Pages: out}, nil
}

func toCharacterListResponse(characters []models.Character, role status.Role) (models.CharacterListResponse, error) {
	out := make([]models.CharacterResponse, 0, len(characters))
	for i := range characters {
		resp, err := toCharacterResponse(&characters[i], role)
		if err != nil {
			return models.CharacterListResponse{}, err
		}
		out = append(out, resp)
	}
	return models.CharacterListResponse{Characters: out}, nil
}
