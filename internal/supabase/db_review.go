package supabase

import (
	"fmt"

	"storybook-backend/internal/models"
)

// ApplyReviewSubmission persists a customer review submission atomically:
// page text edits, character attribute edits and recorded feedback all land
// in one transaction, or none of them do.
func (d *DatabaseClient) ApplyReviewSubmission(pages []models.Page, characters []models.Character) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for i := range pages {
		page := &pages[i]
		_, err := tx.Exec(`
			UPDATE pages
			SET story_text = $1, scene_description = $2,
				feedback_notes = $3, feedback_history = $4, is_resolved = $5,
				admin_reply = $6, admin_reply_at = $7, admin_reply_type = $8,
				conversation_thread = $9, updated_at = NOW()
			WHERE id = $10
		`, page.StoryText, page.SceneDescription,
			page.FeedbackNotes, page.FeedbackHistory, page.IsResolved,
			page.AdminReply, page.AdminReplyAt, page.AdminReplyType,
			page.Thread, page.ID)
		if err != nil {
			return fmt.Errorf("failed to update page %d: %w", page.PageNumber, err)
		}
	}

	for i := range characters {
		character := &characters[i]
		_, err := tx.Exec(`
			UPDATE characters
			SET age = $1, gender = $2, skin_color = $3, hair_color = $4,
				hair_style = $5, eye_color = $6, clothing = $7,
				accessories = $8, special_features = $9,
				feedback_notes = $10, feedback_history = $11, is_resolved = $12,
				admin_reply = $13, admin_reply_at = $14, admin_reply_type = $15,
				conversation_thread = $16, updated_at = NOW()
			WHERE id = $17
		`, character.Attributes.Age, character.Attributes.Gender, character.Attributes.SkinColor,
			character.Attributes.HairColor, character.Attributes.HairStyle, character.Attributes.EyeColor,
			character.Attributes.Clothing, character.Attributes.Accessories, character.Attributes.SpecialFeatures,
			character.FeedbackNotes, character.FeedbackHistory, character.IsResolved,
			character.AdminReply, character.AdminReplyAt, character.AdminReplyType,
			character.Thread, character.ID)
		if err != nil {
			return fmt.Errorf("failed to update character %q: %w", character.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit review submission: %w", err)
	}

	return nil
}
