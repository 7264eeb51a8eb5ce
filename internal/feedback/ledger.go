// Package feedback implements the versioned feedback ledger shared by pages
// and characters: one current unresolved note, an append-only history of
// archived notes, and a single admin reply or comment per cycle.
package feedback

import (
	"strings"
	"time"

	"storybook-backend/internal/apperrors"
)

const (
	ReplyTypeReply   = "reply"
	ReplyTypeComment = "comment"
)

const (
	AuthorAdmin    = "admin"
	AuthorCustomer = "customer"
)

// HistoryEntry is an archived feedback note.
type HistoryEntry struct {
	Note      string    `json:"note"`
	CreatedAt time.Time `json:"created_at"`
}

// ThreadMessage is one message of the follow-up conversation attached to the
// current feedback cycle.
type ThreadMessage struct {
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// State carries the feedback fields of a page or character. The zero value
// is a fresh entity with no feedback.
type State struct {
	Notes      string
	Resolved   bool
	History    []HistoryEntry
	Thread     []ThreadMessage
	AdminReply string
	ReplyType  string
	RepliedAt  time.Time
}

// Record sets the current unresolved note. Empty notes are rejected rather
// than silently clearing state.
func (s *State) Record(note string) error {
	if strings.TrimSpace(note) == "" {
		return apperrors.NewValidationError("feedback_notes", "feedback note must not be empty")
	}
	s.Notes = note
	s.Resolved = false
	return nil
}

// ResolveAndArchive moves the current note into history and marks the cycle
// resolved. Resending without pending feedback is legal, so a nil note is a
// no-op rather than an error. Returns whether anything was archived.
func (s *State) ResolveAndArchive(now time.Time) bool {
	if s.Notes == "" {
		return false
	}
	s.History = append(s.History, HistoryEntry{Note: s.Notes, CreatedAt: now})
	s.Notes = ""
	s.Resolved = true
	s.AdminReply = ""
	s.ReplyType = ""
	s.RepliedAt = time.Time{}
	return true
}

// Reply attaches an admin reply to the current unresolved feedback.
func (s *State) Reply(text string, now time.Time) error {
	if strings.TrimSpace(text) == "" {
		return apperrors.NewValidationError("admin_reply", "reply text must not be empty")
	}
	if s.Notes == "" || s.Resolved {
		return apperrors.NewInvalidStateError("reply", s.describe(), "unresolved customer feedback")
	}
	if s.AdminReply != "" {
		return apperrors.NewInvalidStateError("reply", "reply already recorded", "no existing reply")
	}
	s.AdminReply = text
	s.ReplyType = ReplyTypeReply
	s.RepliedAt = now
	s.Thread = append(s.Thread, ThreadMessage{Author: AuthorAdmin, Text: text, CreatedAt: now})
	return nil
}

// Comment attaches an admin comment to resolved feedback. At most one per
// cycle.
func (s *State) Comment(text string, now time.Time) error {
	if strings.TrimSpace(text) == "" {
		return apperrors.NewValidationError("admin_reply", "comment text must not be empty")
	}
	if !s.Resolved {
		return apperrors.NewInvalidStateError("comment", s.describe(), "resolved feedback")
	}
	if s.AdminReply != "" {
		return apperrors.NewInvalidStateError("comment", "comment already recorded", "no existing comment")
	}
	s.AdminReply = text
	s.ReplyType = ReplyTypeComment
	s.RepliedAt = now
	return nil
}

// CustomerFollowUp appends a customer message to the conversation thread.
func (s *State) CustomerFollowUp(text string, now time.Time) error {
	if strings.TrimSpace(text) == "" {
		return apperrors.NewValidationError("text", "message must not be empty")
	}
	if s.Notes == "" || s.Resolved {
		return apperrors.NewInvalidStateError("follow up", s.describe(), "unresolved customer feedback")
	}
	s.Thread = append(s.Thread, ThreadMessage{Author: AuthorCustomer, Text: text, CreatedAt: now})
	return nil
}

// EditReply rewrites the existing reply or comment. A reply is locked once
// the customer has responded in the thread.
func (s *State) EditReply(newText string, now time.Time) error {
	if strings.TrimSpace(newText) == "" {
		return apperrors.NewValidationError("admin_reply", "reply text must not be empty")
	}
	if s.AdminReply == "" {
		return apperrors.NewInvalidStateError("edit reply", "no reply recorded", "an existing reply or comment")
	}
	if s.ReplyType == ReplyTypeReply && s.lastThreadFromCustomer() {
		return apperrors.NewInvalidStateError("edit reply", "customer has already responded", "no customer response after the reply")
	}
	s.AdminReply = newText
	s.RepliedAt = now
	if s.ReplyType == ReplyTypeReply && len(s.Thread) > 0 {
		s.Thread[len(s.Thread)-1].Text = newText
		s.Thread[len(s.Thread)-1].CreatedAt = now
	}
	return nil
}

// DeleteReply removes the current reply or comment under the same lock rule
// as EditReply.
func (s *State) DeleteReply() error {
	if s.AdminReply == "" {
		return apperrors.NewInvalidStateError("delete reply", "no reply recorded", "an existing reply or comment")
	}
	if s.ReplyType == ReplyTypeReply && s.lastThreadFromCustomer() {
		return apperrors.NewInvalidStateError("delete reply", "customer has already responded", "no customer response after the reply")
	}
	if s.ReplyType == ReplyTypeReply && len(s.Thread) > 0 {
		s.Thread = s.Thread[:len(s.Thread)-1]
	}
	s.AdminReply = ""
	s.ReplyType = ""
	s.RepliedAt = time.Time{}
	return nil
}

func (s *State) lastThreadFromCustomer() bool {
	if len(s.Thread) == 0 {
		return false
	}
	return s.Thread[len(s.Thread)-1].Author == AuthorCustomer
}

func (s *State) describe() string {
	switch {
	case s.Notes == "":
		return "no feedback recorded"
	case s.Resolved:
		return "feedback already resolved"
	default:
		return "feedback unresolved"
	}
}
