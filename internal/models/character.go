package models

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"storybook-backend/internal/feedback"
)

type Character struct {
	ID        uuid.UUID
	ProjectID uuid.UUID
	Name      string
	Role      string

	// Exactly one main character per project, created from the uploaded
	// reference image; immutable thereafter.
	IsMain bool

	ImageURL          sql.NullString
	SketchURL         sql.NullString
	CustomerImageURL  sql.NullString
	CustomerSketchURL sql.NullString

	FeedbackNotes   sql.NullString
	FeedbackHistory json.RawMessage
	IsResolved      bool
	AdminReply      sql.NullString
	AdminReplyAt    sql.NullTime
	AdminReplyType  sql.NullString
	Thread          json.RawMessage

	Attributes CharacterAttributes

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CharacterAttributes is the required-complete set gating the customer
// submit form.
type CharacterAttributes struct {
	Age             string `json:"age"`
	Gender          string `json:"gender"`
	SkinColor       string `json:"skin_color"`
	HairColor       string `json:"hair_color"`
	HairStyle       string `json:"hair_style"`
	EyeColor        string `json:"eye_color"`
	Clothing        string `json:"clothing"`
	Accessories     string `json:"accessories"`
	SpecialFeatures string `json:"special_features"`
}

// MissingFields lists any empty attributes; all must be non-empty for a
// valid customer submission.
func (a CharacterAttributes) MissingFields() []string {
	fields := []struct {
		name  string
		value string
	}{
		{"age", a.Age},
		{"gender", a.Gender},
		{"skin_color", a.SkinColor},
		{"hair_color", a.HairColor},
		{"hair_style", a.HairStyle},
		{"eye_color", a.EyeColor},
		{"clothing", a.Clothing},
		{"accessories", a.Accessories},
		{"special_features", a.SpecialFeatures},
	}
	var missing []string
	for _, f := range fields {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

func (a CharacterAttributes) Complete() bool {
	return len(a.MissingFields()) == 0
}

func (c *Character) FeedbackState() (feedback.State, error) {
	return decodeFeedbackState(c.FeedbackNotes, c.IsResolved, c.FeedbackHistory,
		c.Thread, c.AdminReply, c.AdminReplyType, c.AdminReplyAt)
}

func (c *Character) ApplyFeedback(state feedback.State) error {
	notes, resolved, history, thread, reply, replyType, repliedAt, err := encodeFeedbackState(state)
	if err != nil {
		return err
	}
	c.FeedbackNotes = notes
	c.IsResolved = resolved
	c.FeedbackHistory = history
	c.Thread = thread
	c.AdminReply = reply
	c.AdminReplyType = replyType
	c.AdminReplyAt = repliedAt
	return nil
}
