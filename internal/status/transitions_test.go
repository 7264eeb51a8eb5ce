package status_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storybook-backend/internal/apperrors"
	"storybook-backend/internal/status"
)

func TestBeginCharacterGeneration(t *testing.T) {
	out, err := status.BeginCharacterGeneration(status.Snapshot{Status: status.Draft})
	require.NoError(t, err)
	assert.Equal(t, status.CharacterGeneration, out.Next)

	_, err = status.BeginCharacterGeneration(status.Snapshot{Status: status.CharacterReview})
	assert.True(t, apperrors.IsInvalidState(err))
}

func TestCompleteCharacterGeneration(t *testing.T) {
	out, err := status.CompleteCharacterGeneration(status.Snapshot{Status: status.CharacterGeneration})
	require.NoError(t, err)
	assert.Equal(t, status.CharacterGenerationComplete, out.Next)

	_, err = status.CompleteCharacterGeneration(status.Snapshot{Status: status.Draft})
	assert.True(t, apperrors.IsInvalidState(err))
}

func TestSendCharacters_FirstSendIncrementsCounter(t *testing.T) {
	out, err := status.SendCharacters(status.Snapshot{
		Status:                  status.CharacterGenerationComplete,
		UnpushedCharacterImages: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, status.CharacterReview, out.Next)
	assert.True(t, out.IncrementCharacterSend)
	assert.True(t, out.ArchiveCharacterFeedback)
	assert.False(t, out.IncrementIllustrationSend)
}

func TestSendCharacters_NoNewImagesLeavesCounterAlone(t *testing.T) {
	// A resend with nothing new still transitions and archives, but the
	// counter must not move.
	out, err := status.SendCharacters(status.Snapshot{
		Status:                  status.CharacterRevisionNeeded,
		UnpushedCharacterImages: 0,
	})
	require.NoError(t, err)
	assert.Equal(t, status.CharacterReview, out.Next)
	assert.False(t, out.IncrementCharacterSend)
	assert.True(t, out.ArchiveCharacterFeedback)
}

func TestSendCharacters_RejectedInIllustrationPhase(t *testing.T) {
	for _, s := range []status.Status{
		status.CharactersApproved, status.SketchesReview,
		status.SketchesRevision, status.IllustrationApproved,
	} {
		_, err := status.SendCharacters(status.Snapshot{Status: s})
		assert.True(t, apperrors.IsInvalidState(err), "status %s", s)
	}
}

func TestRecordCharacterRevision(t *testing.T) {
	out, err := status.RecordCharacterRevision(status.Snapshot{Status: status.CharacterReview})
	require.NoError(t, err)
	assert.Equal(t, status.CharacterRevisionNeeded, out.Next)

	_, err = status.RecordCharacterRevision(status.Snapshot{Status: status.Draft})
	assert.True(t, apperrors.IsInvalidState(err))
}

func TestRegenerateCharacters(t *testing.T) {
	for _, s := range []status.Status{status.CharacterRevisionNeeded, status.CharacterGenerationComplete} {
		out, err := status.RegenerateCharacters(status.Snapshot{Status: s})
		require.NoError(t, err)
		assert.Equal(t, status.CharactersRegenerated, out.Next)
	}

	_, err := status.RegenerateCharacters(status.Snapshot{Status: status.SketchesReview})
	assert.True(t, apperrors.IsInvalidState(err))
}

func TestApproveCharacters(t *testing.T) {
	for _, s := range []status.Status{status.CharactersRegenerated, status.CharacterReview} {
		out, err := status.ApproveCharacters(status.Snapshot{Status: s, SecondaryCharacterCount: 3})
		require.NoError(t, err)
		assert.Equal(t, status.CharactersApproved, out.Next)
	}
}

func TestApproveCharacters_NoSecondariesSkipsReview(t *testing.T) {
	// A book with only the main character has nothing to review.
	out, err := status.ApproveCharacters(status.Snapshot{
		Status:                  status.Draft,
		SecondaryCharacterCount: 0,
	})
	require.NoError(t, err)
	assert.Equal(t, status.CharactersApproved, out.Next)

	_, err = status.ApproveCharacters(status.Snapshot{
		Status:                  status.Draft,
		SecondaryCharacterCount: 1,
	})
	assert.True(t, apperrors.IsInvalidState(err))
}

func TestSendSketches_FirstSendRequiresAllIllustrations(t *testing.T) {
	_, err := status.SendSketches(status.Snapshot{
		Status:                 status.CharactersApproved,
		PageCount:              10,
		GeneratedIllustrations: 9,
	})
	assert.True(t, apperrors.IsInvalidState(err))

	out, err := status.SendSketches(status.Snapshot{
		Status:                 status.CharactersApproved,
		PageCount:              10,
		GeneratedIllustrations: 10,
		UnpushedPageImages:     10,
	})
	require.NoError(t, err)
	assert.Equal(t, status.SketchesReview, out.Next)
	assert.True(t, out.IncrementIllustrationSend)
	assert.True(t, out.ArchivePageFeedback)
}

func TestSendSketches_ResendWithoutNewImages(t *testing.T) {
	out, err := status.SendSketches(status.Snapshot{
		Status:             status.SketchesRevision,
		PageCount:          10,
		UnpushedPageImages: 0,
	})
	require.NoError(t, err)
	assert.Equal(t, status.SketchesReview, out.Next)
	assert.False(t, out.IncrementIllustrationSend)
}

func TestSendSketches_RejectedBeforeCharacterApproval(t *testing.T) {
	_, err := status.SendSketches(status.Snapshot{Status: status.CharacterReview})
	assert.True(t, apperrors.IsInvalidState(err))
}

func TestRecordSketchRevision(t *testing.T) {
	out, err := status.RecordSketchRevision(status.Snapshot{Status: status.SketchesReview})
	require.NoError(t, err)
	assert.Equal(t, status.SketchesRevision, out.Next)

	_, err = status.RecordSketchRevision(status.Snapshot{Status: status.SketchesRevision})
	assert.True(t, apperrors.IsInvalidState(err))
}

func TestApproveIllustrations(t *testing.T) {
	out, err := status.ApproveIllustrations(status.Snapshot{Status: status.SketchesReview})
	require.NoError(t, err)
	assert.Equal(t, status.IllustrationApproved, out.Next)

	_, err = status.ApproveIllustrations(status.Snapshot{
		Status:                status.SketchesRevision,
		HasUnresolvedFeedback: true,
	})
	assert.True(t, apperrors.IsInvalidState(err))

	_, err = status.ApproveIllustrations(status.Snapshot{Status: status.Draft})
	assert.True(t, apperrors.IsInvalidState(err))
}
