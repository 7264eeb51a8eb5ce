package supabase

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"storybook-backend/internal/apperrors"
	"storybook-backend/internal/models"
)

const pageColumns = `id, project_id, page_number, story_text, scene_description,
	original_story_text, original_scene_description,
	illustration_url, sketch_url, customer_illustration_url, customer_sketch_url,
	candidate_old_url, candidate_new_url,
	feedback_notes, feedback_history, is_resolved,
	admin_reply, admin_reply_at, admin_reply_type, conversation_thread,
	illustration_type, text_integration, character_actions,
	created_at, updated_at`

func scanPage(row interface{ Scan(...interface{}) error }) (*models.Page, error) {
	var p models.Page
	err := row.Scan(
		&p.ID, &p.ProjectID, &p.PageNumber, &p.StoryText, &p.SceneDescription,
		&p.OriginalStoryText, &p.OriginalSceneDescription,
		&p.IllustrationURL, &p.SketchURL, &p.CustomerIllustrationURL, &p.CustomerSketchURL,
		&p.CandidateOldURL, &p.CandidateNewURL,
		&p.FeedbackNotes, &p.FeedbackHistory, &p.IsResolved,
		&p.AdminReply, &p.AdminReplyAt, &p.AdminReplyType, &p.Thread,
		&p.IllustrationType, &p.TextIntegration, &p.CharacterActions,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ReplacePages deletes any prior pages of the project and inserts the parsed
// set in one transaction. Manuscript parsing always replaces wholesale.
func (d *DatabaseClient) ReplacePages(projectID uuid.UUID, pages []models.Page) ([]models.Page, error) {
	tx, err := d.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM pages WHERE project_id = $1`, projectID); err != nil {
		return nil, fmt.Errorf("failed to delete existing pages: %w", err)
	}

	created := make([]models.Page, 0, len(pages))
	for _, page := range pages {
		row := tx.QueryRow(`
			INSERT INTO pages (id, project_id, page_number, story_text, scene_description, text_integration)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING `+pageColumns+`
		`, uuid.New(), projectID, page.PageNumber, page.StoryText, page.SceneDescription, page.TextIntegration)
		inserted, err := scanPage(row)
		if err != nil {
			return nil, fmt.Errorf("failed to insert page %d: %w", page.PageNumber, err)
		}
		created = append(created, *inserted)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit pages: %w", err)
	}

	return created, nil
}

func (d *DatabaseClient) GetPage(pageID uuid.UUID) (*models.Page, error) {
	page, err := scanPage(d.db.QueryRow(`
		SELECT `+pageColumns+`
		FROM pages
		WHERE id = $1
	`, pageID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError("page", pageID.String())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get page: %w", err)
	}

	return page, nil
}

func (d *DatabaseClient) ListPages(projectID uuid.UUID) ([]models.Page, error) {
	rows, err := d.db.Query(`
		SELECT `+pageColumns+`
		FROM pages
		WHERE project_id = $1
		ORDER BY page_number ASC
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}
	defer rows.Close()

	var pages []models.Page
	for rows.Next() {
		page, err := scanPage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan page: %w", err)
		}
		pages = append(pages, *page)
	}

	return pages, rows.Err()
}

func (d *DatabaseClient) UpdatePageText(pageID uuid.UUID, storyText, sceneDescription *string) error {
	_, err := d.db.Exec(`
		UPDATE pages
		SET story_text = COALESCE($1, story_text),
			scene_description = COALESCE($2, scene_description),
			updated_at = NOW()
		WHERE id = $3
	`, storyText, sceneDescription, pageID)
	return err
}

// SetPageCharacterActions replaces the page's character action map.
func (d *DatabaseClient) SetPageCharacterActions(pageID uuid.UUID, actions map[string]models.CharacterAction) error {
	encoded, err := json.Marshal(actions)
	if err != nil {
		return fmt.Errorf("failed to encode character actions: %w", err)
	}
	_, err = d.db.Exec(`
		UPDATE pages
		SET character_actions = $1,
			updated_at = NOW()
		WHERE id = $2
	`, encoded, pageID)
	return err
}

// SnapshotPageOriginals freezes the review-diff baseline for every page of
// the project that has not been snapshotted yet. Later resends leave the
// originals untouched.
func (d *DatabaseClient) SnapshotPageOriginals(projectID uuid.UUID) error {
	_, err := d.db.Exec(`
		UPDATE pages
		SET original_story_text = story_text,
			original_scene_description = scene_description
		WHERE project_id = $1 AND original_story_text IS NULL
	`, projectID)
	return err
}

func (d *DatabaseClient) SetPageIllustrationType(pageID uuid.UUID, illustrationType sql.NullString, textIntegration string) error {
	_, err := d.db.Exec(`
		UPDATE pages
		SET illustration_type = $1, text_integration = $2, updated_at = NOW()
		WHERE id = $3
	`, illustrationType, textIntegration, pageID)
	return err
}

func (d *DatabaseClient) SetPageIllustrationURL(pageID uuid.UUID, url string) error {
	_, err := d.db.Exec(`
		UPDATE pages
		SET illustration_url = $1, updated_at = NOW()
		WHERE id = $2
	`, url, pageID)
	return err
}

func (d *DatabaseClient) SetPageSketchURL(pageID uuid.UUID, url string) error {
	_, err := d.db.Exec(`
		UPDATE pages
		SET sketch_url = $1, updated_at = NOW()
		WHERE id = $2
	`, url, pageID)
	return err
}

func (d *DatabaseClient) SetPageCandidate(pageID uuid.UUID, oldURL, newURL string) error {
	_, err := d.db.Exec(`
		UPDATE pages
		SET candidate_old_url = $1, candidate_new_url = $2, updated_at = NOW()
		WHERE id = $3
	`, oldURL, newURL, pageID)
	return err
}

func (d *DatabaseClient) ClearPageCandidate(pageID uuid.UUID) error {
	_, err := d.db.Exec(`
		UPDATE pages
		SET candidate_old_url = NULL, candidate_new_url = NULL, updated_at = NOW()
		WHERE id = $1
	`, pageID)
	return err
}

// PublishPageImages copies the internal URLs to the customer-visible
// columns for one page.
func (d *DatabaseClient) PublishPageImages(pageID uuid.UUID) error {
	_, err := d.db.Exec(`
		UPDATE pages
		SET customer_illustration_url = illustration_url,
			customer_sketch_url = sketch_url,
			updated_at = NOW()
		WHERE id = $1
	`, pageID)
	return err
}

func (d *DatabaseClient) UpdatePageFeedback(page *models.Page) error {
	_, err := d.db.Exec(`
		UPDATE pages
		SET feedback_notes = $1, feedback_history = $2, is_resolved = $3,
			admin_reply = $4, admin_reply_at = $5, admin_reply_type = $6,
			conversation_thread = $7, updated_at = NOW()
		WHERE id = $8
	`, page.FeedbackNotes, page.FeedbackHistory, page.IsResolved,
		page.AdminReply, page.AdminReplyAt, page.AdminReplyType,
		page.Thread, page.ID)
	return err
}
