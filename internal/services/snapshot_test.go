package services_test

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"

	"storybook-backend/internal/models"
	"storybook-backend/internal/services"
	"storybook-backend/internal/status"
)

func ns(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func TestBuildSnapshot_Counts(t *testing.T) {
	project := &models.Project{
		Status:                "characters_approved",
		CharacterSendCount:    2,
		IllustrationSendCount: 1,
	}
	pages := []models.Page{
		{PageNumber: 1, IllustrationURL: ns("a"), CustomerIllustrationURL: ns("a")},
		{PageNumber: 2, IllustrationURL: ns("b"), CustomerIllustrationURL: ns("old-b")},
		{PageNumber: 3},
	}
	characters := []models.Character{
		{IsMain: true, ImageURL: ns("main")},
		{ImageURL: ns("c1"), CustomerImageURL: ns("c1")},
		{ImageURL: ns("c2")},
	}

	snap := services.BuildSnapshot(project, pages, characters)

	assert.Equal(t, status.CharactersApproved, snap.Status)
	assert.Equal(t, 3, snap.PageCount)
	assert.Equal(t, 2, snap.GeneratedIllustrations)
	assert.Equal(t, 1, snap.UnpushedPageImages, "only the page whose internal url differs counts")
	assert.Equal(t, 2, snap.SecondaryCharacterCount, "main character excluded")
	assert.Equal(t, 1, snap.UnpushedCharacterImages)
	assert.Equal(t, 2, snap.CharacterSendCount)
}

func TestBuildSnapshot_FeedbackFollowsPhase(t *testing.T) {
	pages := []models.Page{{PageNumber: 1, FeedbackNotes: ns("page feedback")}}
	characters := []models.Character{{FeedbackNotes: ns("character feedback"), IsResolved: false}}

	// Character phase: only character feedback is visible to gating.
	snap := services.BuildSnapshot(&models.Project{Status: "character_review"}, nil, characters)
	assert.True(t, snap.HasUnresolvedFeedback)

	snap = services.BuildSnapshot(&models.Project{Status: "character_review"}, pages, nil)
	assert.False(t, snap.HasUnresolvedFeedback, "page feedback does not gate character phases")

	// Illustration phase: the page feedback takes over.
	snap = services.BuildSnapshot(&models.Project{Status: "sketches_review"}, pages, characters)
	assert.True(t, snap.HasUnresolvedFeedback)

	snap = services.BuildSnapshot(&models.Project{Status: "sketches_review"}, nil, characters)
	assert.False(t, snap.HasUnresolvedFeedback, "character feedback does not gate sketch phases")
}

func TestBuildSnapshot_ResolvedFlag(t *testing.T) {
	pages := []models.Page{{PageNumber: 1, IsResolved: true}}
	snap := services.BuildSnapshot(&models.Project{Status: "sketches_revision"}, pages, nil)
	assert.True(t, snap.HasResolvedFeedback)
	assert.False(t, snap.HasUnresolvedFeedback)
}

func TestBuildPageViews(t *testing.T) {
	pages := []models.Page{
		{PageNumber: 1, IllustrationURL: ns("x")},
		{PageNumber: 2, CustomerSketchURL: ns("pushed")},
		{PageNumber: 3},
	}

	views := services.BuildPageViews(pages)

	assert.True(t, views[0].HasIllustration)
	assert.False(t, views[0].PushedToCustomer)
	assert.True(t, views[1].PushedToCustomer)
	assert.False(t, views[2].HasIllustration)
}
