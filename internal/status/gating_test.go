package status_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"storybook-backend/internal/status"
)

func TestSendButtonDisabled(t *testing.T) {
	// First sketch send waits for the full illustration set.
	assert.True(t, status.SendButtonDisabled(status.Snapshot{
		Status:                 status.CharactersApproved,
		PageCount:              5,
		GeneratedIllustrations: 4,
	}))
	assert.False(t, status.SendButtonDisabled(status.Snapshot{
		Status:                 status.CharactersApproved,
		PageCount:              5,
		GeneratedIllustrations: 5,
	}))

	// A resend needs resolved feedback behind it.
	assert.True(t, status.SendButtonDisabled(status.Snapshot{Status: status.SketchesReview}))
	assert.False(t, status.SendButtonDisabled(status.Snapshot{
		Status:              status.SketchesRevision,
		HasResolvedFeedback: true,
	}))

	// Character phases never gate on illustrations.
	assert.False(t, status.SendButtonDisabled(status.Snapshot{Status: status.CharacterReview}))
}

func TestVisiblePages_Admin(t *testing.T) {
	pages := []status.PageView{
		{PageNumber: 1},
		{PageNumber: 2},
		{PageNumber: 3},
	}

	// Before page 1 has an illustration the admin sees only page 1.
	visible := status.VisiblePages(status.RoleAdmin, status.Snapshot{Status: status.CharactersApproved}, pages)
	assert.Equal(t, []int{1}, visible)

	// Page 1 illustrated unlocks the rest.
	pages[0].HasIllustration = true
	visible = status.VisiblePages(status.RoleAdmin, status.Snapshot{Status: status.CharactersApproved}, pages)
	assert.Equal(t, []int{1, 2, 3}, visible)

	// Committed phases unlock everything regardless.
	pages[0].HasIllustration = false
	visible = status.VisiblePages(status.RoleAdmin, status.Snapshot{Status: status.SketchesReview}, pages)
	assert.Equal(t, []int{1, 2, 3}, visible)
}

func TestVisiblePages_Customer(t *testing.T) {
	pages := []status.PageView{
		{PageNumber: 1},
		{PageNumber: 2},
		{PageNumber: 3, PushedToCustomer: true},
	}

	// Before the sketch send the customer sees page 1 plus anything pushed
	// early.
	visible := status.VisiblePages(status.RoleCustomer, status.Snapshot{Status: status.CharacterReview}, pages)
	assert.Equal(t, []int{1, 3}, visible)

	visible = status.VisiblePages(status.RoleCustomer, status.Snapshot{Status: status.SketchesReview}, pages)
	assert.Equal(t, []int{1, 2, 3}, visible)
}
