package services

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"storybook-backend/internal/models"
	"storybook-backend/internal/notify"
	"storybook-backend/internal/status"
	"storybook-backend/internal/supabase"
)

// SendStore is the slice of the database client the send service needs.
type SendStore interface {
	GetProject(projectID uuid.UUID) (*models.Project, error)
	AdvanceProjectPhase(projectID uuid.UUID, status string, incrementCharacterSend, incrementIllustrationSend bool) (*models.Project, error)
	ListPages(projectID uuid.UUID) ([]models.Page, error)
	ListCharacters(projectID uuid.UUID) ([]models.Character, error)
	UpdatePageFeedback(page *models.Page) error
	UpdateCharacterFeedback(character *models.Character) error
	PublishPageImages(pageID uuid.UUID) error
	PublishCharacterImages(characterID uuid.UUID) error
	SnapshotPageOriginals(projectID uuid.UUID) error
}

// SendService executes the explicit status transitions. Every method loads a
// fresh snapshot, asks the state machine, and only then mutates.
type SendService struct {
	store    SendStore
	realtime *supabase.RealtimeClient
	notifier notify.Service
}

func NewSendService(store SendStore, realtime *supabase.RealtimeClient, notifier notify.Service) *SendService {
	return &SendService{store: store, realtime: realtime, notifier: notifier}
}

func (s *SendService) load(projectID uuid.UUID) (*models.Project, []models.Page, []models.Character, status.Snapshot, error) {
	project, err := s.store.GetProject(projectID)
	if err != nil {
		return nil, nil, nil, status.Snapshot{}, err
	}
	pages, err := s.store.ListPages(projectID)
	if err != nil {
		return nil, nil, nil, status.Snapshot{}, err
	}
	characters, err := s.store.ListCharacters(projectID)
	if err != nil {
		return nil, nil, nil, status.Snapshot{}, err
	}
	return project, pages, characters, BuildSnapshot(project, pages, characters), nil
}

// SendCharacters runs the character send/resend transition: archive pending
// feedback, publish character images, freeze the review baseline, advance
// status and bump the counter when new images went out.
func (s *SendService) SendCharacters(projectID uuid.UUID) (*models.Project, error) {
	project, _, characters, snap, err := s.load(projectID)
	if err != nil {
		return nil, err
	}

	outcome, err := status.SendCharacters(snap)
	if err != nil {
		return nil, err
	}

	if outcome.ArchiveCharacterFeedback {
		if err := s.archiveCharacterFeedback(characters); err != nil {
			return nil, err
		}
	}

	for _, c := range characters {
		if c.ImageURL.Valid && c.ImageURL.String != "" {
			if err := s.store.PublishCharacterImages(c.ID); err != nil {
				return nil, err
			}
		}
	}

	if err := s.store.SnapshotPageOriginals(projectID); err != nil {
		return nil, err
	}

	updated, err := s.store.AdvanceProjectPhase(projectID, outcome.Next.String(),
		outcome.IncrementCharacterSend, outcome.IncrementIllustrationSend)
	if err != nil {
		return nil, err
	}

	s.publish(updated.ID, "characters_sent", supabase.CharactersSentPayload(updated.ID, updated.CharacterSendCount))
	notify.Fire(func(ctx context.Context) error {
		return s.notifier.NotifyCharactersSent(ctx, project.BookTitle, updated.CharacterSendCount)
	})
	return updated, nil
}

// SendSketches runs the sketch send/resend transition, gated hard on every
// page having a generated illustration for the first send.
func (s *SendService) SendSketches(projectID uuid.UUID) (*models.Project, error) {
	project, pages, _, snap, err := s.load(projectID)
	if err != nil {
		return nil, err
	}

	outcome, err := status.SendSketches(snap)
	if err != nil {
		return nil, err
	}

	if outcome.ArchivePageFeedback {
		if err := s.archivePageFeedback(pages); err != nil {
			return nil, err
		}
	}

	for _, p := range pages {
		if p.IllustrationURL.Valid && p.IllustrationURL.String != "" {
			if err := s.store.PublishPageImages(p.ID); err != nil {
				return nil, err
			}
		}
	}

	if err := s.store.SnapshotPageOriginals(projectID); err != nil {
		return nil, err
	}

	updated, err := s.store.AdvanceProjectPhase(projectID, outcome.Next.String(),
		outcome.IncrementCharacterSend, outcome.IncrementIllustrationSend)
	if err != nil {
		return nil, err
	}

	s.publish(updated.ID, "sketches_sent", supabase.SketchesSentPayload(updated.ID, updated.IllustrationSendCount))
	notify.Fire(func(ctx context.Context) error {
		return s.notifier.NotifySketchesSent(ctx, project.BookTitle, updated.IllustrationSendCount)
	})
	return updated, nil
}

// Transition applies one of the simple (no side effect beyond status)
// transitions by name.
func (s *SendService) Transition(projectID uuid.UUID, action func(status.Snapshot) (status.Outcome, error)) (*models.Project, error) {
	_, _, _, snap, err := s.load(projectID)
	if err != nil {
		return nil, err
	}

	outcome, err := action(snap)
	if err != nil {
		return nil, err
	}

	return s.store.AdvanceProjectPhase(projectID, outcome.Next.String(),
		outcome.IncrementCharacterSend, outcome.IncrementIllustrationSend)
}

func (s *SendService) archiveCharacterFeedback(characters []models.Character) error {
	now := time.Now()
	for i := range characters {
		c := &characters[i]
		state, err := c.FeedbackState()
		if err != nil {
			return err
		}
		if !state.ResolveAndArchive(now) {
			continue
		}
		if err := c.ApplyFeedback(state); err != nil {
			return err
		}
		if err := s.store.UpdateCharacterFeedback(c); err != nil {
			return err
		}
	}
	return nil
}

func (s *SendService) archivePageFeedback(pages []models.Page) error {
	now := time.Now()
	for i := range pages {
		p := &pages[i]
		state, err := p.FeedbackState()
		if err != nil {
			return err
		}
		if !state.ResolveAndArchive(now) {
			continue
		}
		if err := p.ApplyFeedback(state); err != nil {
			return err
		}
		if err := s.store.UpdatePageFeedback(p); err != nil {
			return err
		}
	}
	return nil
}

func (s *SendService) publish(projectID uuid.UUID, event string, payload map[string]interface{}) {
	if s.realtime == nil {
		return
	}
	if err := s.realtime.PublishProjectEvent(projectID, event, payload); err != nil {
		log.Printf("realtime publish failed: %v", err)
	}
}
