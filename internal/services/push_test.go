package services_test

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storybook-backend/internal/apperrors"
	"storybook-backend/internal/models"
	"storybook-backend/internal/services"
)

type fakePushStore struct {
	project    *models.Project
	pages      []models.Page
	characters []models.Character

	publishedPages      []uuid.UUID
	publishedCharacters []uuid.UUID
	publishErr          map[uuid.UUID]error
}

func (f *fakePushStore) GetProject(projectID uuid.UUID) (*models.Project, error) {
	return f.project, nil
}

func (f *fakePushStore) ListPages(projectID uuid.UUID) ([]models.Page, error) {
	return f.pages, nil
}

func (f *fakePushStore) ListCharacters(projectID uuid.UUID) ([]models.Character, error) {
	return f.characters, nil
}

func (f *fakePushStore) PublishPageImages(pageID uuid.UUID) error {
	if err := f.publishErr[pageID]; err != nil {
		return err
	}
	f.publishedPages = append(f.publishedPages, pageID)
	return nil
}

func (f *fakePushStore) PublishCharacterImages(characterID uuid.UUID) error {
	if err := f.publishErr[characterID]; err != nil {
		return err
	}
	f.publishedCharacters = append(f.publishedCharacters, characterID)
	return nil
}

func TestPushPages_RequiresPriorSend(t *testing.T) {
	store := &fakePushStore{project: &models.Project{IllustrationSendCount: 0}}
	svc := services.NewPushService(store, nil)

	_, err := svc.PushPages(uuid.New(), nil)
	assert.True(t, apperrors.IsValidation(err))
}

func TestPushPages_OnlyChangedImages(t *testing.T) {
	changed := models.Page{ID: uuid.New(), PageNumber: 2,
		IllustrationURL: ns("new"), CustomerIllustrationURL: ns("old")}
	unchanged := models.Page{ID: uuid.New(), PageNumber: 1,
		IllustrationURL: ns("same"), CustomerIllustrationURL: ns("same")}
	empty := models.Page{ID: uuid.New(), PageNumber: 3}

	store := &fakePushStore{
		project: &models.Project{IllustrationSendCount: 1},
		pages:   []models.Page{unchanged, changed, empty},
	}
	svc := services.NewPushService(store, nil)

	result, err := svc.PushPages(uuid.New(), nil)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Pushed)
	assert.Equal(t, 0, result.Failed)
	require.Len(t, result.Entities, 1)
	assert.Equal(t, changed.ID.String(), result.Entities[0].EntityID)
	assert.Equal(t, []uuid.UUID{changed.ID}, store.publishedPages)
}

func TestPushPages_SkipsPendingCandidate(t *testing.T) {
	pending := models.Page{ID: uuid.New(), PageNumber: 1,
		IllustrationURL: ns("new"), CustomerIllustrationURL: ns("old"),
		CandidateNewURL: ns("candidate")}

	store := &fakePushStore{
		project: &models.Project{IllustrationSendCount: 1},
		pages:   []models.Page{pending},
	}
	svc := services.NewPushService(store, nil)

	result, err := svc.PushPages(uuid.New(), nil)
	require.NoError(t, err)

	assert.Equal(t, 0, result.Pushed)
	assert.Equal(t, 1, result.Skipped)
	require.Len(t, result.Entities, 1)
	assert.Contains(t, result.Entities[0].Error, "regeneration decision pending")
	assert.Empty(t, store.publishedPages)
}

func TestPushPages_OneFailureDoesNotAbort(t *testing.T) {
	bad := models.Page{ID: uuid.New(), PageNumber: 1,
		IllustrationURL: ns("a"), CustomerIllustrationURL: ns("stale-a")}
	good := models.Page{ID: uuid.New(), PageNumber: 2,
		IllustrationURL: ns("b"), CustomerIllustrationURL: ns("stale-b")}

	store := &fakePushStore{
		project:    &models.Project{IllustrationSendCount: 2},
		pages:      []models.Page{bad, good},
		publishErr: map[uuid.UUID]error{bad.ID: errors.New("db write failed")},
	}
	svc := services.NewPushService(store, nil)

	result, err := svc.PushPages(uuid.New(), nil)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Pushed)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, []uuid.UUID{good.ID}, store.publishedPages)
}

func TestPushCharacters_RequiresPriorSend(t *testing.T) {
	store := &fakePushStore{project: &models.Project{CharacterSendCount: 0}}
	svc := services.NewPushService(store, nil)

	_, err := svc.PushCharacters(uuid.New(), nil)
	assert.True(t, apperrors.IsValidation(err))
}

func TestPushCharacters_OnlyChangedImages(t *testing.T) {
	changed := models.Character{ID: uuid.New(), Name: "Fox",
		ImageURL: ns("v2"), CustomerImageURL: ns("v1")}
	unchanged := models.Character{ID: uuid.New(), Name: "Bear",
		ImageURL: ns("v1"), CustomerImageURL: ns("v1")}

	store := &fakePushStore{
		project:    &models.Project{CharacterSendCount: 1},
		characters: []models.Character{changed, unchanged},
	}
	svc := services.NewPushService(store, nil)

	result, err := svc.PushCharacters(uuid.New(), nil)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Pushed)
	assert.Equal(t, []uuid.UUID{changed.ID}, store.publishedCharacters)
}

func TestPushPages_SelectiveSubset(t *testing.T) {
	first := models.Page{ID: uuid.New(), PageNumber: 1,
		IllustrationURL: ns("a-v2"), CustomerIllustrationURL: ns("a-v1")}
	second := models.Page{ID: uuid.New(), PageNumber: 2,
		IllustrationURL: ns("b-v2"), CustomerIllustrationURL: ns("b-v1")}

	store := &fakePushStore{
		project: &models.Project{IllustrationSendCount: 1},
		pages:   []models.Page{first, second},
	}
	svc := services.NewPushService(store, nil)

	result, err := svc.PushPages(uuid.New(), []string{second.ID.String()})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Pushed)
	assert.Equal(t, []uuid.UUID{second.ID}, store.publishedPages)
}

func TestPushPages_SelectionReportsAlreadyPublished(t *testing.T) {
	clean := models.Page{ID: uuid.New(), PageNumber: 1,
		IllustrationURL: ns("same"), CustomerIllustrationURL: ns("same")}

	store := &fakePushStore{
		project: &models.Project{IllustrationSendCount: 1},
		pages:   []models.Page{clean},
	}
	svc := services.NewPushService(store, nil)

	result, err := svc.PushPages(uuid.New(), []string{clean.ID.String()})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Skipped)
	require.Len(t, result.Entities, 1)
	assert.Contains(t, result.Entities[0].Error, "no unpushed image")
	assert.Empty(t, store.publishedPages)
}

func TestPushPages_SelectionUnknownPageRejectedBeforePublishing(t *testing.T) {
	page := models.Page{ID: uuid.New(), PageNumber: 1,
		IllustrationURL: ns("v2"), CustomerIllustrationURL: ns("v1")}

	store := &fakePushStore{
		project: &models.Project{IllustrationSendCount: 1},
		pages:   []models.Page{page},
	}
	svc := services.NewPushService(store, nil)

	_, err := svc.PushPages(uuid.New(), []string{page.ID.String(), uuid.New().String()})
	assert.True(t, apperrors.IsNotFound(err))
	assert.Empty(t, store.publishedPages)
}

func TestPushPages_SelectionInvalidIDRejected(t *testing.T) {
	store := &fakePushStore{project: &models.Project{IllustrationSendCount: 1}}
	svc := services.NewPushService(store, nil)

	_, err := svc.PushPages(uuid.New(), []string{"not-a-uuid"})
	assert.True(t, apperrors.IsValidation(err))
}

func TestPushCharacters_SelectiveSubset(t *testing.T) {
	fox := models.Character{ID: uuid.New(), Name: "Fox",
		ImageURL: ns("fox-v2"), CustomerImageURL: ns("fox-v1")}
	bear := models.Character{ID: uuid.New(), Name: "Bear",
		ImageURL: ns("bear-v2"), CustomerImageURL: ns("bear-v1")}

	store := &fakePushStore{
		project:    &models.Project{CharacterSendCount: 1},
		characters: []models.Character{fox, bear},
	}
	svc := services.NewPushService(store, nil)

	result, err := svc.PushCharacters(uuid.New(), []string{fox.ID.String()})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Pushed)
	assert.Equal(t, []uuid.UUID{fox.ID}, store.publishedCharacters)
}
