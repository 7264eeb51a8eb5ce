package supabase

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"storybook-backend/internal/apperrors"
	"storybook-backend/internal/models"
)

const projectColumns = `id, book_title, author_name, author_email, status, review_token,
	character_send_count, illustration_send_count, general_feedback,
	illustration_aspect_ratio, illustration_text_integration,
	created_at, updated_at`

func scanProject(row interface{ Scan(...interface{}) error }) (*models.Project, error) {
	var p models.Project
	err := row.Scan(
		&p.ID, &p.BookTitle, &p.AuthorName, &p.AuthorEmail, &p.Status, &p.ReviewToken,
		&p.CharacterSendCount, &p.IllustrationSendCount, &p.GeneralFeedback,
		&p.IllustrationAspectRatio, &p.IllustrationTextIntegration,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (d *DatabaseClient) CreateProject(bookTitle, authorName, authorEmail, aspectRatio, textIntegration string) (*models.Project, error) {
	// The review token is generated exactly once here and reused across
	// every resend.
	reviewToken := uuid.New().String()

	project, err := scanProject(d.db.QueryRow(`
		INSERT INTO projects (id, book_title, author_name, author_email, status, review_token,
			illustration_aspect_ratio, illustration_text_integration)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+projectColumns+`
	`, uuid.New(), bookTitle, authorName, authorEmail, "draft", reviewToken, aspectRatio, textIntegration))
	if err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	return project, nil
}

func (d *DatabaseClient) GetProject(projectID uuid.UUID) (*models.Project, error) {
	project, err := scanProject(d.db.QueryRow(`
		SELECT `+projectColumns+`
		FROM projects
		WHERE id = $1
	`, projectID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError("project", projectID.String())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	return project, nil
}

func (d *DatabaseClient) GetProjectByReviewToken(token string) (*models.Project, error) {
	project, err := scanProject(d.db.QueryRow(`
		SELECT `+projectColumns+`
		FROM projects
		WHERE review_token = $1
	`, token))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError("project", "for review token")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project by review token: %w", err)
	}

	return project, nil
}

func (d *DatabaseClient) ListProjects() ([]models.Project, error) {
	rows, err := d.db.Query(`
		SELECT ` + projectColumns + `
		FROM projects
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []models.Project
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, *project)
	}

	return projects, rows.Err()
}

func (d *DatabaseClient) UpdateProjectStatus(projectID uuid.UUID, status string) error {
	_, err := d.db.Exec(`
		UPDATE projects
		SET status = $1, updated_at = NOW()
		WHERE id = $2
	`, status, projectID)
	return err
}

// AdvanceProjectPhase applies a transition outcome: new status plus optional
// counter increments in a single statement so the counters cannot drift from
// the status.
func (d *DatabaseClient) AdvanceProjectPhase(projectID uuid.UUID, status string, incrementCharacterSend, incrementIllustrationSend bool) (*models.Project, error) {
	characterDelta := 0
	if incrementCharacterSend {
		characterDelta = 1
	}
	illustrationDelta := 0
	if incrementIllustrationSend {
		illustrationDelta = 1
	}

	project, err := scanProject(d.db.QueryRow(`
		UPDATE projects
		SET status = $1,
			character_send_count = character_send_count + $2,
			illustration_send_count = illustration_send_count + $3,
			updated_at = NOW()
		WHERE id = $4
		RETURNING `+projectColumns+`
	`, status, characterDelta, illustrationDelta, projectID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError("project", projectID.String())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to advance project phase: %w", err)
	}

	return project, nil
}

func (d *DatabaseClient) SetProjectGeneralFeedback(projectID uuid.UUID, note string) error {
	_, err := d.db.Exec(`
		UPDATE projects
		SET general_feedback = $1, updated_at = NOW()
		WHERE id = $2
	`, note, projectID)
	return err
}

func (d *DatabaseClient) DeleteProject(projectID uuid.UUID) error {
	_, err := d.db.Exec(`
		DELETE FROM projects
		WHERE id = $1
	`, projectID)
	return err
}
