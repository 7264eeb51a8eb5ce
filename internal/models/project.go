package models

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

type Project struct {
	ID          uuid.UUID
	BookTitle   string
	AuthorName  string
	AuthorEmail string

	// Status is mutated only by explicit transition actions.
	Status string

	// ReviewToken grants the customer access to the review portal. It is
	// generated once and reused across resends.
	ReviewToken string

	CharacterSendCount    int
	IllustrationSendCount int

	// GeneralFeedback is the project-wide note from the last customer
	// submission, separate from per-page and per-character ledgers.
	GeneralFeedback sql.NullString

	IllustrationAspectRatio     string
	IllustrationTextIntegration string

	CreatedAt time.Time
	UpdatedAt time.Time
}
