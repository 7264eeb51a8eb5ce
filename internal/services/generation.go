package services

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"storybook-backend/internal/apperrors"
	"storybook-backend/internal/generation"
	"storybook-backend/internal/models"
	"storybook-backend/internal/notify"
	"storybook-backend/internal/orchestrator"
	"storybook-backend/internal/supabase"
)

const (
	DecisionKeepNew   = "keep_new"
	DecisionRevertOld = "revert_old"
)

// GenerationStore is the slice of the database client the generation service
// needs.
type GenerationStore interface {
	GetProject(projectID uuid.UUID) (*models.Project, error)
	GetPage(pageID uuid.UUID) (*models.Page, error)
	ListPages(projectID uuid.UUID) ([]models.Page, error)
	GetCharacter(characterID uuid.UUID) (*models.Character, error)
	ListCharacters(projectID uuid.UUID) ([]models.Character, error)
	SetCharacterImageURL(characterID uuid.UUID, url string) error
	SetCharacterSketchURL(characterID uuid.UUID, url string) error
}

// CharacterArtifactStore uploads generated character images.
type CharacterArtifactStore interface {
	UploadCharacterArtifact(projectID, characterID uuid.UUID, kind string, data []byte) (string, error)
}

// maxRetainedFinished bounds how many finished batches stay pollable. The
// oldest finished entries are dropped once newer ones push them out; running
// batches are never evicted.
const maxRetainedFinished = 16

type batchEntry struct {
	projectID uuid.UUID
	seq       uint64
	batch     *orchestrator.Batch
}

// GenerationService drives single-page jobs, character image generation and
// batch runs over the orchestrator. Batches are tracked in memory; the
// durable outcome of each job is the page row itself.
type GenerationService struct {
	store     GenerationStore
	runner    *generation.Runner
	generator generation.ImageGenerator
	artifacts CharacterArtifactStore
	realtime  *supabase.RealtimeClient
	notifier  notify.Service

	mu      sync.Mutex
	seq     uint64
	batches map[uuid.UUID]*batchEntry
}

func NewGenerationService(store GenerationStore, runner *generation.Runner,
	generator generation.ImageGenerator, artifacts CharacterArtifactStore,
	realtime *supabase.RealtimeClient, notifier notify.Service) *GenerationService {

	return &GenerationService{
		store:     store,
		runner:    runner,
		generator: generator,
		artifacts: artifacts,
		realtime:  realtime,
		notifier:  notifier,
		batches:   make(map[uuid.UUID]*batchEntry),
	}
}

// StartBatch launches illustration generation for the selected pages, or for
// every page still lacking an illustration when no selection is given. One
// batch per project at a time.
func (s *GenerationService) StartBatch(ctx context.Context, projectID uuid.UUID, pageIDs []string) (*models.BatchStartResponse, error) {
	project, err := s.store.GetProject(projectID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureNoActiveBatch(projectID); err != nil {
		return nil, err
	}

	pages, err := s.store.ListPages(projectID)
	if err != nil {
		return nil, err
	}
	characters, err := s.store.ListCharacters(projectID)
	if err != nil {
		return nil, err
	}

	inputs, err := s.selectBatchInputs(project, pages, characters, pageIDs)
	if err != nil {
		return nil, err
	}
	if len(inputs) == 0 {
		return nil, apperrors.NewValidationError("pages", "no pages eligible for generation")
	}

	batchID := uuid.New()
	onProgress := func(p orchestrator.Progress) {
		s.publish(projectID, "batch_progress",
			supabase.BatchProgressPayload(projectID, p.Completed, p.Failed, p.Total))
	}

	// Pages with an existing illustration run in comparison mode so a batch
	// re-run never silently overwrites an approved image.
	job := func(ctx context.Context, page generation.PageInput) generation.Result {
		if page.ExistingIllustrationURL != "" {
			return s.runner.RunComparison(ctx, page)
		}
		return s.runner.Run(ctx, page)
	}

	batch := orchestrator.Start(ctx, inputs, orchestrator.DefaultConcurrency, job, onProgress)

	s.mu.Lock()
	s.seq++
	s.batches[batchID] = &batchEntry{projectID: projectID, seq: s.seq, batch: batch}
	s.mu.Unlock()

	s.publish(projectID, "batch_started", supabase.BatchStartedPayload(projectID, len(inputs)))

	go func() {
		<-batch.Done()
		report := batch.Report()
		s.publish(projectID, "batch_finished",
			supabase.BatchFinishedPayload(projectID, report.Completed, report.Failed, report.Cancelled))
		notify.Fire(func(ctx context.Context) error {
			return s.notifier.NotifyBatchFinished(ctx, project.BookTitle,
				report.Completed, report.Failed, report.Cancelled)
		})
		s.pruneFinished()
	}()

	return &models.BatchStartResponse{
		ProjectID: projectID.String(),
		BatchID:   batchID.String(),
		Progress:  batch.Snapshot(),
	}, nil
}

// BatchStatus reports live progress, and the terminal report plus per-page
// failures once the batch has drained.
func (s *GenerationService) BatchStatus(batchID uuid.UUID) (*models.BatchStatusResponse, error) {
	entry, err := s.lookupBatch(batchID)
	if err != nil {
		return nil, err
	}

	resp := &models.BatchStatusResponse{
		BatchID:  batchID.String(),
		Progress: entry.batch.Snapshot(),
	}

	select {
	case <-entry.batch.Done():
		report := entry.batch.Report()
		resp.Report = &report
		for _, result := range entry.batch.Results() {
			if result.Succeeded() {
				continue
			}
			resp.Failures = append(resp.Failures, models.GenerationFailure{
				PageID: result.PageID.String(),
				Error:  *result.Failure,
			})
		}
	default:
	}

	return resp, nil
}

// CancelBatch stops a running batch. Jobs already in flight finish and are
// counted; queued pages never start.
func (s *GenerationService) CancelBatch(batchID uuid.UUID) error {
	entry, err := s.lookupBatch(batchID)
	if err != nil {
		return err
	}
	entry.batch.Cancel()
	return nil
}

// RetryBatchFailures starts a new batch covering the failed pages of a
// finished one.
func (s *GenerationService) RetryBatchFailures(ctx context.Context, batchID uuid.UUID) (*models.BatchStartResponse, error) {
	entry, err := s.lookupBatch(batchID)
	if err != nil {
		return nil, err
	}

	select {
	case <-entry.batch.Done():
	default:
		return nil, apperrors.NewInvalidStateError("retry batch", "batch still running", "a finished batch")
	}

	var pageIDs []string
	for _, result := range entry.batch.Results() {
		if !result.Succeeded() {
			pageIDs = append(pageIDs, result.PageID.String())
		}
	}
	if len(pageIDs) == 0 {
		return nil, apperrors.NewValidationError("batch", "batch has no failed pages to retry")
	}

	return s.StartBatch(ctx, entry.projectID, pageIDs)
}

// GeneratePage runs one page synchronously. A page that already has an
// illustration is regenerated in comparison mode: the fresh result becomes a
// pending candidate and the canonical image stays untouched.
func (s *GenerationService) GeneratePage(ctx context.Context, pageID uuid.UUID) (generation.Result, error) {
	page, err := s.store.GetPage(pageID)
	if err != nil {
		return generation.Result{}, err
	}
	project, err := s.store.GetProject(page.ProjectID)
	if err != nil {
		return generation.Result{}, err
	}
	characters, err := s.store.ListCharacters(page.ProjectID)
	if err != nil {
		return generation.Result{}, err
	}

	input := buildPageInput(project, page, characters)
	if input.ExistingIllustrationURL != "" {
		if page.HasCandidate() {
			return generation.Result{}, apperrors.NewInvalidStateError("regenerate page",
				"regeneration decision pending", "no pending candidate")
		}
		return s.runner.RunComparison(ctx, input), nil
	}
	return s.runner.Run(ctx, input), nil
}

// GenerateSketch regenerates only the sketch for a page from its persisted
// illustration, leaving the illustration untouched.
func (s *GenerationService) GenerateSketch(ctx context.Context, pageID uuid.UUID) (generation.Result, error) {
	page, err := s.store.GetPage(pageID)
	if err != nil {
		return generation.Result{}, err
	}
	if !page.IllustrationURL.Valid || page.IllustrationURL.String == "" {
		return generation.Result{}, apperrors.NewInvalidStateError("generate sketch",
			"no illustration generated", "a persisted illustration")
	}
	project, err := s.store.GetProject(page.ProjectID)
	if err != nil {
		return generation.Result{}, err
	}
	characters, err := s.store.ListCharacters(page.ProjectID)
	if err != nil {
		return generation.Result{}, err
	}

	input := buildPageInput(project, page, characters)
	return s.runner.RunSketch(ctx, input, page.IllustrationURL.String), nil
}

// DecideRegeneration resolves a pending candidate pair. keep_new promotes the
// candidate and regenerates the dependent sketch; revert_old discards it.
func (s *GenerationService) DecideRegeneration(ctx context.Context, pageID uuid.UUID, decision string) (generation.Result, error) {
	page, err := s.store.GetPage(pageID)
	if err != nil {
		return generation.Result{}, err
	}
	if !page.HasCandidate() {
		return generation.Result{}, apperrors.NewInvalidStateError("decide regeneration",
			"no pending candidate", "a pending candidate pair")
	}

	switch decision {
	case DecisionKeepNew:
		project, err := s.store.GetProject(page.ProjectID)
		if err != nil {
			return generation.Result{}, err
		}
		characters, err := s.store.ListCharacters(page.ProjectID)
		if err != nil {
			return generation.Result{}, err
		}
		input := buildPageInput(project, page, characters)
		return s.runner.FinalizeKeepNew(ctx, input, page.CandidateNewURL.String), nil

	case DecisionRevertOld:
		if err := s.runner.RevertCandidate(page.ID); err != nil {
			return generation.Result{}, err
		}
		return generation.Result{
			PageID:          page.ID,
			IllustrationURL: page.CandidateOldURL.String,
		}, nil

	default:
		return generation.Result{}, apperrors.NewValidationError("decision",
			fmt.Sprintf("unknown decision %q, expected %s or %s", decision, DecisionKeepNew, DecisionRevertOld))
	}
}

// GenerateCharacterImage produces a character portrait and its sketch from
// the attribute sheet, using the main character image as style reference.
func (s *GenerationService) GenerateCharacterImage(ctx context.Context, characterID uuid.UUID) (*models.Character, error) {
	character, err := s.store.GetCharacter(characterID)
	if err != nil {
		return nil, err
	}
	project, err := s.store.GetProject(character.ProjectID)
	if err != nil {
		return nil, err
	}
	characters, err := s.store.ListCharacters(character.ProjectID)
	if err != nil {
		return nil, err
	}

	var references []string
	for _, c := range characters {
		if c.IsMain && c.ImageURL.Valid && c.ImageURL.String != "" {
			references = append(references, c.ImageURL.String)
		}
	}

	prompt := buildCharacterPrompt(character)
	data, err := s.generator.GenerateIllustration(ctx, prompt, references, project.IllustrationAspectRatio)
	if err != nil {
		return nil, fmt.Errorf("character generation failed: %w", err)
	}

	imageURL, err := s.artifacts.UploadCharacterArtifact(character.ProjectID, character.ID, "image", data)
	if err != nil {
		return nil, err
	}
	if err := s.store.SetCharacterImageURL(character.ID, imageURL); err != nil {
		return nil, err
	}

	// Sketch failure leaves the image in place, same contract as pages.
	sketchData, err := s.generator.GenerateSketch(ctx, imageURL, prompt)
	if err != nil {
		log.Printf("character sketch generation failed for %s: %v", character.ID, err)
		return s.store.GetCharacter(character.ID)
	}
	sketchURL, err := s.artifacts.UploadCharacterArtifact(character.ProjectID, character.ID, "sketch", sketchData)
	if err != nil {
		return nil, err
	}
	if err := s.store.SetCharacterSketchURL(character.ID, sketchURL); err != nil {
		return nil, err
	}

	return s.store.GetCharacter(character.ID)
}

func (s *GenerationService) ensureNoActiveBatch(projectID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, entry := range s.batches {
		if entry.projectID != projectID {
			continue
		}
		select {
		case <-entry.batch.Done():
		default:
			return apperrors.NewInvalidStateError("start batch", "a batch is already running",
				"no active batch for this project")
		}
	}
	return nil
}

// pruneFinished drops the oldest finished batches beyond the retention cap
// so the registry cannot grow without bound.
func (s *GenerationService) pruneFinished() {
	s.mu.Lock()
	defer s.mu.Unlock()

	type finishedBatch struct {
		id  uuid.UUID
		seq uint64
	}
	var finished []finishedBatch
	for id, entry := range s.batches {
		select {
		case <-entry.batch.Done():
			finished = append(finished, finishedBatch{id: id, seq: entry.seq})
		default:
		}
	}
	if len(finished) <= maxRetainedFinished {
		return
	}
	sort.Slice(finished, func(i, j int) bool { return finished[i].seq < finished[j].seq })
	for _, f := range finished[:len(finished)-maxRetainedFinished] {
		delete(s.batches, f.id)
	}
}

func (s *GenerationService) lookupBatch(batchID uuid.UUID) (*batchEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.batches[batchID]
	if !ok {
		return nil, apperrors.NewNotFoundError("batch", batchID.String())
	}
	return entry, nil
}

// selectBatchInputs resolves the requested page set. An explicit selection
// may include pages with existing illustrations (they run in comparison
// mode); the implicit "everything" selection only picks pages without one.
func (s *GenerationService) selectBatchInputs(project *models.Project, pages []models.Page,
	characters []models.Character, pageIDs []string) ([]generation.PageInput, error) {

	pagesByID := make(map[uuid.UUID]*models.Page, len(pages))
	for i := range pages {
		pagesByID[pages[i].ID] = &pages[i]
	}

	var selected []*models.Page
	if len(pageIDs) == 0 {
		for i := range pages {
			p := &pages[i]
			if !p.IllustrationURL.Valid || p.IllustrationURL.String == "" {
				selected = append(selected, p)
			}
		}
	} else {
		for _, raw := range pageIDs {
			id, err := uuid.Parse(raw)
			if err != nil {
				return nil, apperrors.NewValidationError("page_ids", fmt.Sprintf("invalid page id %q", raw))
			}
			p, ok := pagesByID[id]
			if !ok {
				return nil, apperrors.NewNotFoundError("page", raw)
			}
			if p.HasCandidate() {
				return nil, apperrors.NewInvalidStateError("start batch",
					fmt.Sprintf("page %d has a pending regeneration decision", p.PageNumber),
					"no pending candidates in the selection")
			}
			selected = append(selected, p)
		}
	}

	inputs := make([]generation.PageInput, 0, len(selected))
	for _, p := range selected {
		inputs = append(inputs, buildPageInput(project, p, characters))
	}
	return inputs, nil
}

func buildPageInput(project *models.Project, page *models.Page, characters []models.Character) generation.PageInput {
	input := generation.PageInput{
		PageID:       page.ID,
		ProjectID:    page.ProjectID,
		PageNumber:   page.PageNumber,
		Prompt:       buildPagePrompt(page, characters),
		SketchPrompt: fmt.Sprintf("Black and white pencil sketch of the illustration for page %d.", page.PageNumber),
		AspectRatio:  pageAspectRatio(project, page),
	}
	for _, c := range characters {
		if c.ImageURL.Valid && c.ImageURL.String != "" {
			input.ReferenceImages = append(input.ReferenceImages, c.ImageURL.String)
		}
	}
	if page.IllustrationURL.Valid && page.IllustrationURL.String != "" {
		input.ExistingIllustrationURL = page.IllustrationURL.String
	}
	return input
}

func buildPagePrompt(page *models.Page, characters []models.Character) string {
	// A corrupt actions column should not block generation.
	actions, err := page.CharacterActionMap()
	if err != nil {
		log.Printf("ignoring unreadable character actions for page %s: %v", page.ID, err)
		actions = map[string]models.CharacterAction{}
	}

	var b strings.Builder
	b.WriteString("Children's book illustration.")
	if page.SceneDescription != "" {
		b.WriteString(" Scene: ")
		b.WriteString(page.SceneDescription)
	}
	if page.StoryText != "" {
		b.WriteString(" Story text: ")
		b.WriteString(page.StoryText)
	}
	var names []string
	for _, c := range characters {
		names = append(names, c.Name)
	}
	if len(names) > 0 {
		b.WriteString(" Characters: ")
		b.WriteString(strings.Join(names, ", "))
		b.WriteString(".")
	}
	for _, c := range characters {
		a, ok := actions[c.Name]
		if !ok {
			continue
		}
		if a.Action != "" {
			fmt.Fprintf(&b, " %s is %s.", c.Name, a.Action)
		}
		if a.Pose != "" {
			fmt.Fprintf(&b, " %s pose: %s.", c.Name, a.Pose)
		}
		if a.Emotion != "" {
			fmt.Fprintf(&b, " %s looks %s.", c.Name, a.Emotion)
		}
	}
	return b.String()
}

func buildCharacterPrompt(c *models.Character) string {
	a := c.Attributes
	parts := []struct {
		label string
		value string
	}{
		{"age", a.Age},
		{"gender", a.Gender},
		{"skin color", a.SkinColor},
		{"hair color", a.HairColor},
		{"hair style", a.HairStyle},
		{"eye color", a.EyeColor},
		{"clothing", a.Clothing},
		{"accessories", a.Accessories},
		{"special features", a.SpecialFeatures},
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Children's book character portrait of %s.", c.Name)
	for _, p := range parts {
		if p.value != "" {
			fmt.Fprintf(&b, " %s: %s.", p.label, p.value)
		}
	}
	return b.String()
}

// pageAspectRatio doubles the width for spread pages.
func pageAspectRatio(project *models.Project, page *models.Page) string {
	if page.IllustrationType.Valid && page.IllustrationType.String == models.IllustrationTypeSpread {
		return "2:1"
	}
	if project.IllustrationAspectRatio != "" {
		return project.IllustrationAspectRatio
	}
	return "1:1"
}

func (s *GenerationService) publish(projectID uuid.UUID, event string, payload map[string]interface{}) {
	if s.realtime == nil {
		return
	}
	if err := s.realtime.PublishProjectEvent(projectID, event, payload); err != nil {
		log.Printf("realtime publish failed: %v", err)
	}
}
