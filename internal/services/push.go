package services

import (
	"fmt"
	"log"

	"github.com/google/uuid"

	"storybook-backend/internal/apperrors"
	"storybook-backend/internal/models"
	"storybook-backend/internal/supabase"
)

// PushStore is the slice of the database client the push service needs.
type PushStore interface {
	GetProject(projectID uuid.UUID) (*models.Project, error)
	ListPages(projectID uuid.UUID) ([]models.Page, error)
	ListCharacters(projectID uuid.UUID) ([]models.Character, error)
	PublishPageImages(pageID uuid.UUID) error
	PublishCharacterImages(characterID uuid.UUID) error
}

// PushService copies internal image URLs to the customer-visible columns
// without touching project status or send counters (silent sync).
type PushService struct {
	store    PushStore
	realtime *supabase.RealtimeClient
}

func NewPushService(store PushStore, realtime *supabase.RealtimeClient) *PushService {
	return &PushService{store: store, realtime: realtime}
}

// PushPages syncs page images that differ from what the customer sees. A
// non-empty pageIDs limits the push to those pages; empty pushes everything
// eligible. Requires at least one prior sketch send so the customer view
// exists, and refuses pages with an undecided regeneration candidate.
// Per-page results are reported individually; one failure does not abort the
// rest.
func (s *PushService) PushPages(projectID uuid.UUID, pageIDs []string) (*models.PushResultResponse, error) {
	project, err := s.store.GetProject(projectID)
	if err != nil {
		return nil, err
	}
	if project.IllustrationSendCount < 1 {
		return nil, apperrors.NewValidationError("project", "sketches have not been sent to the customer yet")
	}

	pages, err := s.store.ListPages(projectID)
	if err != nil {
		return nil, err
	}

	selection, err := buildSelection("page_ids", pageIDs)
	if err != nil {
		return nil, err
	}
	if selection != nil {
		known := make(map[uuid.UUID]struct{}, len(pages))
		for _, p := range pages {
			known[p.ID] = struct{}{}
		}
		if err := verifySelection("page", selection, known); err != nil {
			return nil, err
		}
	}

	result := &models.PushResultResponse{ProjectID: projectID.String()}
	explicit := selection != nil
	for _, p := range pages {
		if explicit {
			if _, ok := selection[p.ID]; !ok {
				continue
			}
		}
		entry := models.PushEntityResult{EntityID: p.ID.String(), PageNumber: p.PageNumber}
		if !pageHasUnpushedImage(&p) {
			// only worth reporting when the caller asked for this page
			if explicit {
				entry.Error = "no unpushed image"
				result.Skipped++
				result.Entities = append(result.Entities, entry)
			}
			continue
		}
		if p.HasCandidate() {
			entry.Error = "regeneration decision pending"
			result.Skipped++
		} else if err := s.store.PublishPageImages(p.ID); err != nil {
			entry.Error = err.Error()
			result.Failed++
		} else {
			entry.Pushed = true
			result.Pushed++
		}
		result.Entities = append(result.Entities, entry)
	}

	s.publish(projectID, result.Pushed)
	return result, nil
}

// PushCharacters syncs character images that differ from the customer view.
// A non-empty characterIDs limits the push. Requires at least one prior
// character send.
func (s *PushService) PushCharacters(projectID uuid.UUID, characterIDs []string) (*models.PushResultResponse, error) {
	project, err := s.store.GetProject(projectID)
	if err != nil {
		return nil, err
	}
	if project.CharacterSendCount < 1 {
		return nil, apperrors.NewValidationError("project", "characters have not been sent to the customer yet")
	}

	characters, err := s.store.ListCharacters(projectID)
	if err != nil {
		return nil, err
	}

	selection, err := buildSelection("character_ids", characterIDs)
	if err != nil {
		return nil, err
	}
	if selection != nil {
		known := make(map[uuid.UUID]struct{}, len(characters))
		for _, c := range characters {
			known[c.ID] = struct{}{}
		}
		if err := verifySelection("character", selection, known); err != nil {
			return nil, err
		}
	}

	result := &models.PushResultResponse{ProjectID: projectID.String()}
	explicit := selection != nil
	for _, c := range characters {
		if explicit {
			if _, ok := selection[c.ID]; !ok {
				continue
			}
		}
		entry := models.PushEntityResult{EntityID: c.ID.String(), Name: c.Name}
		if !characterHasUnpushedImage(&c) {
			if explicit {
				entry.Error = "no unpushed image"
				result.Skipped++
				result.Entities = append(result.Entities, entry)
			}
			continue
		}
		if err := s.store.PublishCharacterImages(c.ID); err != nil {
			entry.Error = err.Error()
			result.Failed++
		} else {
			entry.Pushed = true
			result.Pushed++
		}
		result.Entities = append(result.Entities, entry)
	}

	s.publish(projectID, result.Pushed)
	return result, nil
}

// buildSelection parses an optional id filter. nil means "no filter".
func buildSelection(field string, ids []string) (map[uuid.UUID]struct{}, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	selection := make(map[uuid.UUID]struct{}, len(ids))
	for _, raw := range ids {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, apperrors.NewValidationError(field, fmt.Sprintf("invalid id %q", raw))
		}
		selection[id] = struct{}{}
	}
	return selection, nil
}

// verifySelection rejects the whole push when any requested id does not
// belong to the project, before anything is published.
func verifySelection(entity string, selection, known map[uuid.UUID]struct{}) error {
	for id := range selection {
		if _, ok := known[id]; !ok {
			return apperrors.NewNotFoundError(entity, id.String())
		}
	}
	return nil
}

func pageHasUnpushedImage(p *models.Page) bool {
	internal := p.IllustrationURL.String
	if !p.IllustrationURL.Valid || internal == "" {
		return false
	}
	return internal != p.CustomerIllustrationURL.String
}

func characterHasUnpushedImage(c *models.Character) bool {
	internal := c.ImageURL.String
	if !c.ImageURL.Valid || internal == "" {
		return false
	}
	return internal != c.CustomerImageURL.String
}

func (s *PushService) publish(projectID uuid.UUID, pushed int) {
	if s.realtime == nil || pushed == 0 {
		return
	}
	if err := s.realtime.PublishProjectEvent(projectID, "images_pushed", supabase.ImagesPushedPayload(projectID, pushed)); err != nil {
		log.Printf("realtime publish failed: %v", err)
	}
}
