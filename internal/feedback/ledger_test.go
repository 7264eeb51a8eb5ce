package feedback_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storybook-backend/internal/apperrors"
	"storybook-backend/internal/feedback"
)

func TestRecord(t *testing.T) {
	var state feedback.State
	require.NoError(t, state.Record("the dog looks too small"))
	assert.Equal(t, "the dog looks too small", state.Notes)
	assert.False(t, state.Resolved)

	err := state.Record("   ")
	assert.True(t, apperrors.IsValidation(err))
}

func TestResolveAndArchive(t *testing.T) {
	now := time.Now()
	var state feedback.State
	require.NoError(t, state.Record("first round"))

	archived := state.ResolveAndArchive(now)
	assert.True(t, archived)
	assert.Empty(t, state.Notes)
	assert.True(t, state.Resolved)
	require.Len(t, state.History, 1)
	assert.Equal(t, "first round", state.History[0].Note)

	// Archiving with no pending note is a legal no-op.
	assert.False(t, state.ResolveAndArchive(now))
	assert.Len(t, state.History, 1)
}

func TestResolveAndArchive_AccumulatesHistory(t *testing.T) {
	now := time.Now()
	var state feedback.State
	require.NoError(t, state.Record("round one"))
	state.ResolveAndArchive(now)
	require.NoError(t, state.Record("round two"))
	state.ResolveAndArchive(now.Add(time.Hour))

	require.Len(t, state.History, 2)
	assert.Equal(t, "round one", state.History[0].Note)
	assert.Equal(t, "round two", state.History[1].Note)
}

func TestResolveAndArchive_ClearsReply(t *testing.T) {
	now := time.Now()
	var state feedback.State
	require.NoError(t, state.Record("feedback"))
	require.NoError(t, state.Reply("on it", now))

	state.ResolveAndArchive(now)
	assert.Empty(t, state.AdminReply)
	assert.Empty(t, state.ReplyType)
	assert.True(t, state.RepliedAt.IsZero())
}

func TestReply_RequiresUnresolvedFeedback(t *testing.T) {
	now := time.Now()
	var state feedback.State

	err := state.Reply("hello", now)
	assert.True(t, apperrors.IsInvalidState(err))

	require.NoError(t, state.Record("feedback"))
	require.NoError(t, state.Reply("we will fix it", now))
	assert.Equal(t, feedback.ReplyTypeReply, state.ReplyType)
	require.Len(t, state.Thread, 1)
	assert.Equal(t, feedback.AuthorAdmin, state.Thread[0].Author)

	// Only one reply per cycle.
	err = state.Reply("again", now)
	assert.True(t, apperrors.IsInvalidState(err))
}

func TestComment_RequiresResolvedFeedback(t *testing.T) {
	now := time.Now()
	var state feedback.State
	require.NoError(t, state.Record("feedback"))

	err := state.Comment("noted", now)
	assert.True(t, apperrors.IsInvalidState(err))

	state.ResolveAndArchive(now)
	require.NoError(t, state.Comment("we adjusted the colors", now))
	assert.Equal(t, feedback.ReplyTypeComment, state.ReplyType)

	err = state.Comment("another", now)
	assert.True(t, apperrors.IsInvalidState(err))
}

func TestCustomerFollowUp(t *testing.T) {
	now := time.Now()
	var state feedback.State
	require.NoError(t, state.Record("feedback"))
	require.NoError(t, state.Reply("reply", now))
	require.NoError(t, state.CustomerFollowUp("thanks, also the cat", now))

	require.Len(t, state.Thread, 2)
	assert.Equal(t, feedback.AuthorCustomer, state.Thread[1].Author)

	// No thread on resolved feedback.
	state.ResolveAndArchive(now)
	err := state.CustomerFollowUp("more", now)
	assert.True(t, apperrors.IsInvalidState(err))
}

func TestEditReply_LockedAfterCustomerResponse(t *testing.T) {
	now := time.Now()
	var state feedback.State
	require.NoError(t, state.Record("feedback"))
	require.NoError(t, state.Reply("original", now))

	require.NoError(t, state.EditReply("edited", now))
	assert.Equal(t, "edited", state.AdminReply)
	assert.Equal(t, "edited", state.Thread[len(state.Thread)-1].Text)

	require.NoError(t, state.CustomerFollowUp("customer message", now))
	err := state.EditReply("too late", now)
	assert.True(t, apperrors.IsInvalidState(err))
}

func TestDeleteReply(t *testing.T) {
	now := time.Now()
	var state feedback.State

	err := state.DeleteReply()
	assert.True(t, apperrors.IsInvalidState(err))

	require.NoError(t, state.Record("feedback"))
	require.NoError(t, state.Reply("reply", now))
	require.NoError(t, state.DeleteReply())
	assert.Empty(t, state.AdminReply)
	assert.Empty(t, state.Thread)

	// Locked once the customer has responded.
	require.NoError(t, state.Reply("second reply", now))
	require.NoError(t, state.CustomerFollowUp("response", now))
	err = state.DeleteReply()
	assert.True(t, apperrors.IsInvalidState(err))
}
