package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"storybook-backend/internal/apperrors"
	"storybook-backend/internal/manuscript"
	"storybook-backend/internal/models"
	"storybook-backend/internal/notify"
	"storybook-backend/internal/status"
	"storybook-backend/internal/supabase"
)

// ReviewStore is the slice of the database client the customer review
// service needs.
type ReviewStore interface {
	GetProject(projectID uuid.UUID) (*models.Project, error)
	ListPages(projectID uuid.UUID) ([]models.Page, error)
	ListCharacters(projectID uuid.UUID) ([]models.Character, error)
	ApplyReviewSubmission(pages []models.Page, characters []models.Character) error
	UpdateProjectStatus(projectID uuid.UUID, status string) error
	SetProjectGeneralFeedback(projectID uuid.UUID, note string) error
}

// ReviewService handles the customer portal: read-only project views scoped
// by the review token and the atomic submission of edits plus feedback.
type ReviewService struct {
	store    ReviewStore
	realtime *supabase.RealtimeClient
	notifier notify.Service
}

func NewReviewService(store ReviewStore, realtime *supabase.RealtimeClient, notifier notify.Service) *ReviewService {
	return &ReviewService{store: store, realtime: realtime, notifier: notifier}
}

// Submit applies a customer review submission in one transaction: page text
// edits, character attribute updates and feedback notes. Character attributes
// must be complete before anything is persisted, and the project moves to the
// matching revision status when any feedback was recorded.
func (s *ReviewService) Submit(project *models.Project, req models.ReviewSubmissionRequest) error {
	pages, err := s.store.ListPages(project.ID)
	if err != nil {
		return err
	}
	characters, err := s.store.ListCharacters(project.ID)
	if err != nil {
		return err
	}

	pagesByID := make(map[uuid.UUID]*models.Page, len(pages))
	for i := range pages {
		pagesByID[pages[i].ID] = &pages[i]
	}
	charactersByID := make(map[uuid.UUID]*models.Character, len(characters))
	for i := range characters {
		charactersByID[characters[i].ID] = &characters[i]
	}

	// Validate everything before mutating anything.
	for _, sub := range req.Characters {
		if missing := sub.Attributes.MissingFields(); len(missing) > 0 {
			return apperrors.NewValidationError("attributes",
				fmt.Sprintf("character attributes incomplete: %s", strings.Join(missing, ", ")))
		}
	}

	generalNote := strings.TrimSpace(req.Feedback)
	willRecordFeedback := generalNote != ""
	for _, edit := range req.PageEdits {
		if strings.TrimSpace(edit.Feedback) != "" {
			willRecordFeedback = true
		}
	}
	for _, sub := range req.Characters {
		if strings.TrimSpace(sub.Feedback) != "" {
			willRecordFeedback = true
		}
	}

	// The status check belongs to the validation phase: a submission that
	// would be rejected by the transition must not leave partial edits
	// behind.
	var nextStatus string
	if willRecordFeedback {
		next, err := revisionTarget(project)
		if err != nil {
			return err
		}
		nextStatus = next
	}

	var changedPages []models.Page
	var changedCharacters []models.Character

	for _, edit := range req.PageEdits {
		pageID, err := uuid.Parse(edit.PageID)
		if err != nil {
			return apperrors.NewValidationError("page_id", "invalid page id")
		}
		page, ok := pagesByID[pageID]
		if !ok {
			return apperrors.NewNotFoundError("page", edit.PageID)
		}
		if edit.StoryText != nil {
			page.StoryText = manuscript.Sanitize(*edit.StoryText)
		}
		if edit.SceneDescription != nil {
			page.SceneDescription = manuscript.Sanitize(*edit.SceneDescription)
		}
		if note := strings.TrimSpace(edit.Feedback); note != "" {
			state, err := page.FeedbackState()
			if err != nil {
				return err
			}
			if err := state.Record(manuscript.Sanitize(note)); err != nil {
				return err
			}
			if err := page.ApplyFeedback(state); err != nil {
				return err
			}
		}
		changedPages = append(changedPages, *page)
	}

	for _, sub := range req.Characters {
		characterID, err := uuid.Parse(sub.CharacterID)
		if err != nil {
			return apperrors.NewValidationError("character_id", "invalid character id")
		}
		character, ok := charactersByID[characterID]
		if !ok {
			return apperrors.NewNotFoundError("character", sub.CharacterID)
		}
		character.Attributes = sanitizeAttributes(sub.Attributes)
		if note := strings.TrimSpace(sub.Feedback); note != "" {
			state, err := character.FeedbackState()
			if err != nil {
				return err
			}
			if err := state.Record(manuscript.Sanitize(note)); err != nil {
				return err
			}
			if err := character.ApplyFeedback(state); err != nil {
				return err
			}
		}
		changedCharacters = append(changedCharacters, *character)
	}

	if len(changedPages) == 0 && len(changedCharacters) == 0 && generalNote == "" {
		return apperrors.NewValidationError("submission", "submission contains no edits or feedback")
	}

	if err := s.store.ApplyReviewSubmission(changedPages, changedCharacters); err != nil {
		return err
	}

	if generalNote != "" {
		if err := s.store.SetProjectGeneralFeedback(project.ID, manuscript.Sanitize(generalNote)); err != nil {
			return err
		}
	}

	if nextStatus != "" {
		if err := s.store.UpdateProjectStatus(project.ID, nextStatus); err != nil {
			return err
		}
	}

	if s.realtime != nil {
		if err := s.realtime.PublishProjectEvent(project.ID, "feedback_received",
			supabase.FeedbackReceivedPayload(project.ID, "review", project.ID)); err != nil {
			log.Printf("realtime publish failed: %v", err)
		}
	}
	notify.Fire(func(ctx context.Context) error {
		return s.notifier.NotifyReviewSubmitted(ctx, project.BookTitle)
	})
	return nil
}

// revisionTarget resolves the revision status feedback moves the project to.
// A submission from an already-revision status is legal and leaves the status
// alone (empty return).
func revisionTarget(project *models.Project) (string, error) {
	current := status.Normalize(project.Status)
	snap := status.Snapshot{Status: current}

	var outcome status.Outcome
	var err error
	switch {
	case current == status.CharacterReview:
		outcome, err = status.RecordCharacterRevision(snap)
	case current == status.SketchesReview:
		outcome, err = status.RecordSketchRevision(snap)
	case current == status.CharacterRevisionNeeded || current == status.SketchesRevision:
		return "", nil
	default:
		return "", apperrors.NewInvalidStateError("submit review", current.String(),
			"a review status")
	}
	if err != nil {
		return "", err
	}
	return outcome.Next.String(), nil
}

func sanitizeAttributes(a models.CharacterAttributes) models.CharacterAttributes {
	return models.CharacterAttributes{
		Age:             manuscript.Sanitize(a.Age),
		Gender:          manuscript.Sanitize(a.Gender),
		SkinColor:       manuscript.Sanitize(a.SkinColor),
		HairColor:       manuscript.Sanitize(a.HairColor),
		HairStyle:       manuscript.Sanitize(a.HairStyle),
		EyeColor:        manuscript.Sanitize(a.EyeColor),
		Clothing:        manuscript.Sanitize(a.Clothing),
		Accessories:     manuscript.Sanitize(a.Accessories),
		SpecialFeatures: manuscript.Sanitize(a.SpecialFeatures),
	}
}
