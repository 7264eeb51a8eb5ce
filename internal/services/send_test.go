package services_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storybook-backend/internal/apperrors"
	"storybook-backend/internal/models"
	"storybook-backend/internal/notify"
	"storybook-backend/internal/services"
	"storybook-backend/internal/status"
)

type advanceCall struct {
	status  string
	incChar bool
	incIll  bool
}

type fakeSendStore struct {
	project    *models.Project
	pages      []models.Page
	characters []models.Character

	advanced            []advanceCall
	publishedPages      []uuid.UUID
	publishedCharacters []uuid.UUID
	snapshotted         int
	updatedCharacters   []models.Character
	updatedPages        []models.Page
}

func (f *fakeSendStore) GetProject(projectID uuid.UUID) (*models.Project, error) {
	return f.project, nil
}

func (f *fakeSendStore) AdvanceProjectPhase(projectID uuid.UUID, phase string, incChar, incIll bool) (*models.Project, error) {
	f.advanced = append(f.advanced, advanceCall{status: phase, incChar: incChar, incIll: incIll})
	updated := *f.project
	updated.Status = phase
	if incChar {
		updated.CharacterSendCount++
	}
	if incIll {
		updated.IllustrationSendCount++
	}
	return &updated, nil
}

func (f *fakeSendStore) ListPages(projectID uuid.UUID) ([]models.Page, error) {
	return f.pages, nil
}

func (f *fakeSendStore) ListCharacters(projectID uuid.UUID) ([]models.Character, error) {
	return f.characters, nil
}

func (f *fakeSendStore) UpdatePageFeedback(page *models.Page) error {
	f.updatedPages = append(f.updatedPages, *page)
	return nil
}

func (f *fakeSendStore) UpdateCharacterFeedback(character *models.Character) error {
	f.updatedCharacters = append(f.updatedCharacters, *character)
	return nil
}

func (f *fakeSendStore) PublishPageImages(pageID uuid.UUID) error {
	f.publishedPages = append(f.publishedPages, pageID)
	return nil
}

func (f *fakeSendStore) PublishCharacterImages(characterID uuid.UUID) error {
	f.publishedCharacters = append(f.publishedCharacters, characterID)
	return nil
}

func (f *fakeSendStore) SnapshotPageOriginals(projectID uuid.UUID) error {
	f.snapshotted++
	return nil
}

func newSendService(store *fakeSendStore) *services.SendService {
	return services.NewSendService(store, nil, notify.NewService(""))
}

func TestSendCharacters_FirstSendIncrementsCounter(t *testing.T) {
	secondary := models.Character{ID: uuid.New(), Name: "Fox", ImageURL: ns("img-1")}
	main := models.Character{ID: uuid.New(), Name: "Hero", IsMain: true, ImageURL: ns("hero")}

	store := &fakeSendStore{
		project:    &models.Project{ID: uuid.New(), Status: status.CharacterGenerationComplete.String()},
		characters: []models.Character{main, secondary},
	}
	svc := newSendService(store)

	updated, err := svc.SendCharacters(store.project.ID)
	require.NoError(t, err)

	assert.Equal(t, status.CharacterReview.String(), updated.Status)
	assert.Equal(t, 1, updated.CharacterSendCount)
	require.Len(t, store.advanced, 1)
	assert.True(t, store.advanced[0].incChar)
	assert.False(t, store.advanced[0].incIll)
	// every character carrying an image is published, main included
	assert.ElementsMatch(t, []uuid.UUID{main.ID, secondary.ID}, store.publishedCharacters)
	assert.Equal(t, 1, store.snapshotted)
}

func TestSendCharacters_NothingNewKeepsCounter(t *testing.T) {
	seen := models.Character{ID: uuid.New(), Name: "Fox",
		ImageURL: ns("img-1"), CustomerImageURL: ns("img-1")}

	store := &fakeSendStore{
		project:    &models.Project{ID: uuid.New(), Status: status.CharacterReview.String(), CharacterSendCount: 1},
		characters: []models.Character{seen},
	}
	svc := newSendService(store)

	updated, err := svc.SendCharacters(store.project.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, updated.CharacterSendCount)
	require.Len(t, store.advanced, 1)
	assert.False(t, store.advanced[0].incChar)
}

func TestSendCharacters_ArchivesPendingFeedback(t *testing.T) {
	withFeedback := models.Character{ID: uuid.New(), Name: "Fox",
		ImageURL: ns("img-2"), FeedbackNotes: ns("make the tail bushier")}

	store := &fakeSendStore{
		project:    &models.Project{ID: uuid.New(), Status: status.CharacterRevisionNeeded.String(), CharacterSendCount: 1},
		characters: []models.Character{withFeedback},
	}
	svc := newSendService(store)

	_, err := svc.SendCharacters(store.project.ID)
	require.NoError(t, err)

	require.Len(t, store.updatedCharacters, 1)
	archived := store.updatedCharacters[0]
	assert.False(t, archived.FeedbackNotes.Valid && archived.FeedbackNotes.String != "")
	assert.True(t, archived.IsResolved)
	assert.NotEmpty(t, archived.FeedbackHistory)
}

func TestSendCharacters_RejectedInIllustrationPhase(t *testing.T) {
	store := &fakeSendStore{
		project: &models.Project{ID: uuid.New(), Status: status.SketchesReview.String()},
	}
	svc := newSendService(store)

	_, err := svc.SendCharacters(store.project.ID)
	assert.True(t, apperrors.IsInvalidState(err))
	assert.Empty(t, store.advanced)
	assert.Zero(t, store.snapshotted)
}

func TestSendSketches_FirstSendGatedOnIllustrations(t *testing.T) {
	ready := models.Page{ID: uuid.New(), PageNumber: 1, IllustrationURL: ns("p1")}
	missing := models.Page{ID: uuid.New(), PageNumber: 2}

	store := &fakeSendStore{
		project: &models.Project{ID: uuid.New(), Status: status.CharactersApproved.String()},
		pages:   []models.Page{ready, missing},
	}
	svc := newSendService(store)

	_, err := svc.SendSketches(store.project.ID)
	assert.True(t, apperrors.IsInvalidState(err))
	assert.Empty(t, store.publishedPages)
	assert.Empty(t, store.advanced)
}

func TestSendSketches_FirstSend(t *testing.T) {
	p1 := models.Page{ID: uuid.New(), PageNumber: 1, IllustrationURL: ns("p1")}
	p2 := models.Page{ID: uuid.New(), PageNumber: 2, IllustrationURL: ns("p2")}

	store := &fakeSendStore{
		project: &models.Project{ID: uuid.New(), Status: status.CharactersApproved.String()},
		pages:   []models.Page{p1, p2},
	}
	svc := newSendService(store)

	updated, err := svc.SendSketches(store.project.ID)
	require.NoError(t, err)

	assert.Equal(t, status.SketchesReview.String(), updated.Status)
	assert.Equal(t, 1, updated.IllustrationSendCount)
	assert.ElementsMatch(t, []uuid.UUID{p1.ID, p2.ID}, store.publishedPages)
	assert.Equal(t, 1, store.snapshotted)
}

func TestSendSketches_ResendArchivesPageFeedback(t *testing.T) {
	page := models.Page{ID: uuid.New(), PageNumber: 1,
		IllustrationURL: ns("p1-v2"), CustomerIllustrationURL: ns("p1-v1"),
		FeedbackNotes: ns("the moon is missing")}

	store := &fakeSendStore{
		project: &models.Project{ID: uuid.New(), Status: status.SketchesRevision.String(), IllustrationSendCount: 1},
		pages:   []models.Page{page},
	}
	svc := newSendService(store)

	updated, err := svc.SendSketches(store.project.ID)
	require.NoError(t, err)

	assert.Equal(t, 2, updated.IllustrationSendCount)
	require.Len(t, store.updatedPages, 1)
	archived := store.updatedPages[0]
	assert.False(t, archived.FeedbackNotes.Valid && archived.FeedbackNotes.String != "")
	assert.True(t, archived.IsResolved)
}

func TestTransition_AppliesOutcome(t *testing.T) {
	store := &fakeSendStore{
		project: &models.Project{ID: uuid.New(), Status: status.Draft.String()},
	}
	svc := newSendService(store)

	updated, err := svc.Transition(store.project.ID, status.BeginCharacterGeneration)
	require.NoError(t, err)
	assert.Equal(t, status.CharacterGeneration.String(), updated.Status)

	_, err = svc.Transition(store.project.ID, status.ApproveIllustrations)
	assert.True(t, apperrors.IsInvalidState(err))
}
