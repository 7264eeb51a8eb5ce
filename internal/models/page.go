package models

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"storybook-backend/internal/feedback"
)

const (
	IllustrationTypeSpread = "spread"
	IllustrationTypeSpot   = "spot"

	TextIntegrationIntegrated = "integrated"
)

type Page struct {
	ID         uuid.UUID
	ProjectID  uuid.UUID
	PageNumber int

	StoryText        string
	SceneDescription string

	// Originals are frozen the first time the project is sent to review
	// and never overwritten on resends; they back the "what changed"
	// diff.
	OriginalStoryText        sql.NullString
	OriginalSceneDescription sql.NullString

	IllustrationURL sql.NullString
	SketchURL       sql.NullString

	// Customer URLs are the published copies; admin iterates on the
	// internal URLs privately and promotes via send or push.
	CustomerIllustrationURL sql.NullString
	CustomerSketchURL       sql.NullString

	// Candidate pair held during a comparison regeneration; the canonical
	// illustration is untouched until an explicit decision.
	CandidateOldURL sql.NullString
	CandidateNewURL sql.NullString

	FeedbackNotes   sql.NullString
	FeedbackHistory json.RawMessage
	IsResolved      bool
	AdminReply      sql.NullString
	AdminReplyAt    sql.NullTime
	AdminReplyType  sql.NullString
	Thread          json.RawMessage

	IllustrationType sql.NullString
	TextIntegration  string
	CharacterActions json.RawMessage

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasCandidate reports whether a comparison decision is pending for this
// page. Push is blocked while one is outstanding.
func (p *Page) HasCandidate() bool {
	return p.CandidateNewURL.Valid && p.CandidateNewURL.String != ""
}

// CharacterAction describes what a character is doing on a page; auxiliary
// context fed into the generation prompt.
type CharacterAction struct {
	Action  string `json:"action,omitempty"`
	Pose    string `json:"pose,omitempty"`
	Emotion string `json:"emotion,omitempty"`
}

// CharacterActionMap decodes the character_actions column, keyed by
// character name.
func (p *Page) CharacterActionMap() (map[string]CharacterAction, error) {
	if len(p.CharacterActions) == 0 {
		return map[string]CharacterAction{}, nil
	}
	var actions map[string]CharacterAction
	if err := json.Unmarshal(p.CharacterActions, &actions); err != nil {
		return nil, fmt.Errorf("failed to decode character actions: %w", err)
	}
	if actions == nil {
		actions = map[string]CharacterAction{}
	}
	return actions, nil
}

// SetCharacterActionMap encodes the action map back onto the row.
func (p *Page) SetCharacterActionMap(actions map[string]CharacterAction) error {
	data, err := json.Marshal(actions)
	if err != nil {
		return fmt.Errorf("failed to encode character actions: %w", err)
	}
	p.CharacterActions = data
	return nil
}

// SetIllustrationType updates the rendering mode. Selecting a spread forces
// integrated text as a single atomic command, never as two setters called by
// convention.
func (p *Page) SetIllustrationType(illustrationType, textIntegration string) error {
	switch illustrationType {
	case IllustrationTypeSpread:
		p.IllustrationType = sql.NullString{String: IllustrationTypeSpread, Valid: true}
		p.TextIntegration = TextIntegrationIntegrated
	case IllustrationTypeSpot:
		p.IllustrationType = sql.NullString{String: IllustrationTypeSpot, Valid: true}
		p.TextIntegration = textIntegration
	case "":
		p.IllustrationType = sql.NullString{}
		p.TextIntegration = textIntegration
	default:
		return fmt.Errorf("unknown illustration type %q", illustrationType)
	}
	return nil
}

// FeedbackState decodes the row's feedback columns into the ledger form.
func (p *Page) FeedbackState() (feedback.State, error) {
	return decodeFeedbackState(p.FeedbackNotes, p.IsResolved, p.FeedbackHistory,
		p.Thread, p.AdminReply, p.AdminReplyType, p.AdminReplyAt)
}

// ApplyFeedback writes a ledger state back onto the row fields.
func (p *Page) ApplyFeedback(state feedback.State) error {
	notes, resolved, history, thread, reply, replyType, repliedAt, err := encodeFeedbackState(state)
	if err != nil {
		return err
	}
	p.FeedbackNotes = notes
	p.IsResolved = resolved
	p.FeedbackHistory = history
	p.Thread = thread
	p.AdminReply = reply
	p.AdminReplyType = replyType
	p.AdminReplyAt = repliedAt
	return nil
}

func decodeFeedbackState(notes sql.NullString, resolved bool, history, thread json.RawMessage,
	reply, replyType sql.NullString, repliedAt sql.NullTime) (feedback.State, error) {

	state := feedback.State{Resolved: resolved}
	if notes.Valid {
		state.Notes = notes.String
	}
	if len(history) > 0 {
		if err := json.Unmarshal(history, &state.History); err != nil {
			return feedback.State{}, fmt.Errorf("failed to decode feedback history: %w", err)
		}
	}
	if len(thread) > 0 {
		if err := json.Unmarshal(thread, &state.Thread); err != nil {
			return feedback.State{}, fmt.Errorf("failed to decode conversation thread: %w", err)
		}
	}
	if reply.Valid {
		state.AdminReply = reply.String
	}
	if replyType.Valid {
		state.ReplyType = replyType.String
	}
	if repliedAt.Valid {
		state.RepliedAt = repliedAt.Time
	}
	return state, nil
}

func encodeFeedbackState(state feedback.State) (notes sql.NullString, resolved bool,
	history, thread json.RawMessage, reply, replyType sql.NullString, repliedAt sql.NullTime, err error) {

	if state.Notes != "" {
		notes = sql.NullString{String: state.Notes, Valid: true}
	}
	resolved = state.Resolved
	if state.History == nil {
		state.History = []feedback.HistoryEntry{}
	}
	history, err = json.Marshal(state.History)
	if err != nil {
		return
	}
	if state.Thread == nil {
		state.Thread = []feedback.ThreadMessage{}
	}
	thread, err = json.Marshal(state.Thread)
	if err != nil {
		return
	}
	if state.AdminReply != "" {
		reply = sql.NullString{String: state.AdminReply, Valid: true}
	}
	if state.ReplyType != "" {
		replyType = sql.NullString{String: state.ReplyType, Valid: true}
	}
	if !state.RepliedAt.IsZero() {
		repliedAt = sql.NullTime{Time: state.RepliedAt, Valid: true}
	}
	return
}
