package models_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storybook-backend/internal/feedback"
	"storybook-backend/internal/models"
)

func TestSetIllustrationType_SpreadForcesIntegratedText(t *testing.T) {
	var page models.Page
	page.TextIntegration = "separate"

	require.NoError(t, page.SetIllustrationType(models.IllustrationTypeSpread, "separate"))

	// Spread and integrated text move as one command; the caller's text
	// integration choice is overridden.
	assert.Equal(t, models.IllustrationTypeSpread, page.IllustrationType.String)
	assert.Equal(t, models.TextIntegrationIntegrated, page.TextIntegration)
}

func TestSetIllustrationType_SpotKeepsChoice(t *testing.T) {
	var page models.Page
	require.NoError(t, page.SetIllustrationType(models.IllustrationTypeSpot, "separate"))
	assert.Equal(t, models.IllustrationTypeSpot, page.IllustrationType.String)
	assert.Equal(t, "separate", page.TextIntegration)
}

func TestSetIllustrationType_Unknown(t *testing.T) {
	var page models.Page
	assert.Error(t, page.SetIllustrationType("panorama", ""))
}

func TestHasCandidate(t *testing.T) {
	var page models.Page
	assert.False(t, page.HasCandidate())

	page.CandidateNewURL.String = "https://cdn.test/new.png"
	page.CandidateNewURL.Valid = true
	assert.True(t, page.HasCandidate())
}

func TestFeedbackStateRoundTrip(t *testing.T) {
	now := time.Now().Truncate(time.Second)

	var state feedback.State
	require.NoError(t, state.Record("round one"))
	state.ResolveAndArchive(now)
	require.NoError(t, state.Record("round two"))
	require.NoError(t, state.Reply("we hear you", now))

	var page models.Page
	require.NoError(t, page.ApplyFeedback(state))

	decoded, err := page.FeedbackState()
	require.NoError(t, err)

	assert.Equal(t, "round two", decoded.Notes)
	assert.False(t, decoded.Resolved)
	require.Len(t, decoded.History, 1)
	assert.Equal(t, "round one", decoded.History[0].Note)
	assert.Equal(t, "we hear you", decoded.AdminReply)
	assert.Equal(t, feedback.ReplyTypeReply, decoded.ReplyType)
	require.Len(t, decoded.Thread, 1)
}

func TestFeedbackState_CorruptHistory(t *testing.T) {
	var page models.Page
	page.FeedbackHistory = []byte("{not json")

	_, err := page.FeedbackState()
	assert.Error(t, err)
}
