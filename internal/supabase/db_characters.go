package supabase

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"storybook-backend/internal/apperrors"
	"storybook-backend/internal/models"
)

const characterColumns = `id, project_id, name, role, is_main,
	image_url, sketch_url, customer_image_url, customer_sketch_url,
	feedback_notes, feedback_history, is_resolved,
	admin_reply, admin_reply_at, admin_reply_type, conversation_thread,
	age, gender, skin_color, hair_color, hair_style, eye_color,
	clothing, accessories, special_features,
	created_at, updated_at`

func scanCharacter(row interface{ Scan(...interface{}) error }) (*models.Character, error) {
	var c models.Character
	err := row.Scan(
		&c.ID, &c.ProjectID, &c.Name, &c.Role, &c.IsMain,
		&c.ImageURL, &c.SketchURL, &c.CustomerImageURL, &c.CustomerSketchURL,
		&c.FeedbackNotes, &c.FeedbackHistory, &c.IsResolved,
		&c.AdminReply, &c.AdminReplyAt, &c.AdminReplyType, &c.Thread,
		&c.Attributes.Age, &c.Attributes.Gender, &c.Attributes.SkinColor,
		&c.Attributes.HairColor, &c.Attributes.HairStyle, &c.Attributes.EyeColor,
		&c.Attributes.Clothing, &c.Attributes.Accessories, &c.Attributes.SpecialFeatures,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (d *DatabaseClient) CreateCharacter(projectID uuid.UUID, name, role string, isMain bool, attrs models.CharacterAttributes) (*models.Character, error) {
	character, err := scanCharacter(d.db.QueryRow(`
		INSERT INTO characters (id, project_id, name, role, is_main,
			age, gender, skin_color, hair_color, hair_style, eye_color,
			clothing, accessories, special_features)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING `+characterColumns+`
	`, uuid.New(), projectID, name, role, isMain,
		attrs.Age, attrs.Gender, attrs.SkinColor, attrs.HairColor, attrs.HairStyle,
		attrs.EyeColor, attrs.Clothing, attrs.Accessories, attrs.SpecialFeatures))
	if err != nil {
		return nil, fmt.Errorf("failed to create character: %w", err)
	}

	return character, nil
}

func (d *DatabaseClient) GetCharacter(characterID uuid.UUID) (*models.Character, error) {
	character, err := scanCharacter(d.db.QueryRow(`
		SELECT `+characterColumns+`
		FROM characters
		WHERE id = $1
	`, characterID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError("character", characterID.String())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get character: %w", err)
	}

	return character, nil
}

func (d *DatabaseClient) ListCharacters(projectID uuid.UUID) ([]models.Character, error) {
	rows, err := d.db.Query(`
		SELECT `+characterColumns+`
		FROM characters
		WHERE project_id = $1
		ORDER BY is_main DESC, created_at ASC
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list characters: %w", err)
	}
	defer rows.Close()

	var characters []models.Character
	for rows.Next() {
		character, err := scanCharacter(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan character: %w", err)
		}
		characters = append(characters, *character)
	}

	return characters, rows.Err()
}

func (d *DatabaseClient) UpdateCharacter(characterID uuid.UUID, name, role *string, attrs *models.CharacterAttributes) error {
	if attrs != nil {
		_, err := d.db.Exec(`
			UPDATE characters
			SET name = COALESCE($1, name), role = COALESCE($2, role),
				age = $3, gender = $4, skin_color = $5, hair_color = $6,
				hair_style = $7, eye_color = $8, clothing = $9,
				accessories = $10, special_features = $11,
				updated_at = NOW()
			WHERE id = $12
		`, name, role,
			attrs.Age, attrs.Gender, attrs.SkinColor, attrs.HairColor, attrs.HairStyle,
			attrs.EyeColor, attrs.Clothing, attrs.Accessories, attrs.SpecialFeatures,
			characterID)
		return err
	}

	_, err := d.db.Exec(`
		UPDATE characters
		SET name = COALESCE($1, name), role = COALESCE($2, role), updated_at = NOW()
		WHERE id = $3
	`, name, role, characterID)
	return err
}

func (d *DatabaseClient) DeleteCharacter(characterID uuid.UUID) error {
	_, err := d.db.Exec(`
		DELETE FROM characters
		WHERE id = $1
	`, characterID)
	return err
}

func (d *DatabaseClient) SetCharacterImageURL(characterID uuid.UUID, url string) error {
	_, err := d.db.Exec(`
		UPDATE characters
		SET image_url = $1, updated_at = NOW()
		WHERE id = $2
	`, url, characterID)
	return err
}

func (d *DatabaseClient) SetCharacterSketchURL(characterID uuid.UUID, url string) error {
	_, err := d.db.Exec(`
		UPDATE characters
		SET sketch_url = $1, updated_at = NOW()
		WHERE id = $2
	`, url, characterID)
	return err
}

// PublishCharacterImages copies the internal URLs to the customer-visible
// columns for one character.
func (d *DatabaseClient) PublishCharacterImages(characterID uuid.UUID) error {
	_, err := d.db.Exec(`
		UPDATE characters
		SET customer_image_url = image_url,
			customer_sketch_url = sketch_url,
			updated_at = NOW()
		WHERE id = $1
	`, characterID)
	return err
}

func (d *DatabaseClient) UpdateCharacterFeedback(character *models.Character) error {
	_, err := d.db.Exec(`
		UPDATE characters
		SET feedback_notes = $1, feedback_history = $2, is_resolved = $3,
			admin_reply = $4, admin_reply_at = $5, admin_reply_type = $6,
			conversation_thread = $7, updated_at = NOW()
		WHERE id = $8
	`, character.FeedbackNotes, character.FeedbackHistory, character.IsResolved,
		character.AdminReply, character.AdminReplyAt, character.AdminReplyType,
		character.Thread, character.ID)
	return err
}

// HasMainCharacter reports whether the project already has its main
// character; exactly one is allowed.
func (d *DatabaseClient) HasMainCharacter(projectID uuid.UUID) (bool, error) {
	var count int
	err := d.db.QueryRow(`
		SELECT COUNT(*) FROM characters
		WHERE project_id = $1 AND is_main = TRUE
	`, projectID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to count main characters: %w", err)
	}
	return count > 0, nil
}
