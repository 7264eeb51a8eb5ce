package generation_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storybook-backend/internal/generation"
)

type fakeGenerator struct {
	mu            sync.Mutex
	illustrateErr error
	sketchErr     error
	calls         []string
}

func (f *fakeGenerator) GenerateIllustration(ctx context.Context, prompt string, refs []string, aspect string) ([]byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, "illustrate")
	f.mu.Unlock()
	if f.illustrateErr != nil {
		return nil, f.illustrateErr
	}
	return []byte("illustration-bytes"), nil
}

func (f *fakeGenerator) GenerateSketch(ctx context.Context, sourceURL, prompt string) ([]byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, "sketch:"+sourceURL)
	f.mu.Unlock()
	if f.sketchErr != nil {
		return nil, f.sketchErr
	}
	return []byte("sketch-bytes"), nil
}

type fakeArtifacts struct {
	uploadErr error
	uploads   []string
}

func (f *fakeArtifacts) UploadPageArtifact(projectID, pageID uuid.UUID, kind string, data []byte) (string, error) {
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	url := fmt.Sprintf("https://cdn.test/%s/%s", pageID, kind)
	f.uploads = append(f.uploads, url)
	return url, nil
}

type fakeWriter struct {
	mu              sync.Mutex
	illustrationURL map[uuid.UUID]string
	sketchURL       map[uuid.UUID]string
	candidates      map[uuid.UUID][2]string
	writes          []string
	writeErr        error
}

func newFakeWriter() *fakeWriter {
	return &fakeWriter{
		illustrationURL: make(map[uuid.UUID]string),
		sketchURL:       make(map[uuid.UUID]string),
		candidates:      make(map[uuid.UUID][2]string),
	}
}

func (f *fakeWriter) SetPageIllustrationURL(pageID uuid.UUID, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.illustrationURL[pageID] = url
	f.writes = append(f.writes, "illustration")
	return nil
}

func (f *fakeWriter) SetPageSketchURL(pageID uuid.UUID, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sketchURL[pageID] = url
	f.writes = append(f.writes, "sketch")
	return nil
}

func (f *fakeWriter) SetPageCandidate(pageID uuid.UUID, oldURL, newURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.candidates[pageID] = [2]string{oldURL, newURL}
	return nil
}

func (f *fakeWriter) ClearPageCandidate(pageID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.candidates, pageID)
	return nil
}

func pageInput() generation.PageInput {
	return generation.PageInput{
		PageID:       uuid.New(),
		ProjectID:    uuid.New(),
		PageNumber:   1,
		Prompt:       "a fox in the woods",
		SketchPrompt: "sketch of the fox",
	}
}

func TestRun_Success(t *testing.T) {
	gen := &fakeGenerator{}
	writer := newFakeWriter()
	runner := generation.NewRunner(gen, &fakeArtifacts{}, writer)

	page := pageInput()
	result := runner.Run(context.Background(), page)

	require.True(t, result.Succeeded())
	assert.NotEmpty(t, result.IllustrationURL)
	assert.NotEmpty(t, result.SketchURL)
	assert.Equal(t, result.IllustrationURL, writer.illustrationURL[page.PageID])
	assert.Equal(t, result.SketchURL, writer.sketchURL[page.PageID])

	// The illustration URL must be persisted before the sketch call, which
	// consumes it.
	assert.Equal(t, []string{"illustration", "sketch"}, writer.writes)
	require.Len(t, gen.calls, 2)
	assert.Equal(t, "sketch:"+result.IllustrationURL, gen.calls[1])
}

func TestRun_IllustrationFailureStopsPipeline(t *testing.T) {
	gen := &fakeGenerator{illustrateErr: errors.New("status 429: rate limit")}
	writer := newFakeWriter()
	runner := generation.NewRunner(gen, &fakeArtifacts{}, writer)

	result := runner.Run(context.Background(), pageInput())

	require.False(t, result.Succeeded())
	assert.Equal(t, generation.KindRateLimited, result.Failure.Kind)
	assert.Empty(t, result.IllustrationURL)
	assert.Empty(t, writer.writes)
	// The sketch step never ran.
	assert.Equal(t, []string{"illustrate"}, gen.calls)
}

func TestRun_SketchFailureKeepsIllustration(t *testing.T) {
	gen := &fakeGenerator{sketchErr: errors.New("request timed out")}
	writer := newFakeWriter()
	runner := generation.NewRunner(gen, &fakeArtifacts{}, writer)

	page := pageInput()
	result := runner.Run(context.Background(), page)

	// Failed for batch accounting, but the illustration survived.
	require.False(t, result.Succeeded())
	assert.Equal(t, generation.KindTimeout, result.Failure.Kind)
	assert.NotEmpty(t, result.IllustrationURL)
	assert.Equal(t, result.IllustrationURL, writer.illustrationURL[page.PageID])
	assert.Empty(t, writer.sketchURL[page.PageID])
}

func TestRun_UploadFailureClassified(t *testing.T) {
	runner := generation.NewRunner(&fakeGenerator{},
		&fakeArtifacts{uploadErr: errors.New("connection refused")}, newFakeWriter())

	result := runner.Run(context.Background(), pageInput())
	require.False(t, result.Succeeded())
	assert.Equal(t, generation.KindNetworkError, result.Failure.Kind)
}

func TestRunComparison_HoldsCandidate(t *testing.T) {
	gen := &fakeGenerator{}
	writer := newFakeWriter()
	runner := generation.NewRunner(gen, &fakeArtifacts{}, writer)

	page := pageInput()
	page.ExistingIllustrationURL = "https://cdn.test/old.png"
	result := runner.RunComparison(context.Background(), page)

	require.True(t, result.Succeeded())
	assert.Equal(t, "https://cdn.test/old.png", result.IllustrationURL)
	assert.NotEmpty(t, result.CandidateURL)

	// The canonical illustration was never touched.
	assert.Empty(t, writer.illustrationURL[page.PageID])
	pair := writer.candidates[page.PageID]
	assert.Equal(t, "https://cdn.test/old.png", pair[0])
	assert.Equal(t, result.CandidateURL, pair[1])

	// No sketch in comparison mode; that waits for the decision.
	assert.Equal(t, []string{"illustrate"}, gen.calls)
}

func TestFinalizeKeepNew(t *testing.T) {
	gen := &fakeGenerator{}
	writer := newFakeWriter()
	runner := generation.NewRunner(gen, &fakeArtifacts{}, writer)

	page := pageInput()
	writer.candidates[page.PageID] = [2]string{"old-url", "new-url"}

	result := runner.FinalizeKeepNew(context.Background(), page, "new-url")

	require.True(t, result.Succeeded())
	assert.Equal(t, "new-url", result.IllustrationURL)
	assert.Equal(t, "new-url", writer.illustrationURL[page.PageID])
	assert.NotEmpty(t, result.SketchURL)
	_, pending := writer.candidates[page.PageID]
	assert.False(t, pending)

	// Sketch regenerated from the promoted candidate.
	assert.Equal(t, "sketch:new-url", gen.calls[0])
}

func TestRevertCandidate(t *testing.T) {
	writer := newFakeWriter()
	runner := generation.NewRunner(&fakeGenerator{}, &fakeArtifacts{}, writer)

	page := pageInput()
	writer.candidates[page.PageID] = [2]string{"old-url", "new-url"}

	require.NoError(t, runner.RevertCandidate(page.PageID))
	_, pending := writer.candidates[page.PageID]
	assert.False(t, pending)
}

func TestRunSketch_LeavesIllustrationUntouched(t *testing.T) {
	gen := &fakeGenerator{}
	artifacts := &fakeArtifacts{}
	writer := newFakeWriter()
	runner := generation.NewRunner(gen, artifacts, writer)

	pageID := uuid.New()
	result := runner.RunSketch(context.Background(), generation.PageInput{
		PageID:       pageID,
		ProjectID:    uuid.New(),
		SketchPrompt: "line art",
	}, "https://cdn.test/existing-illustration")

	require.True(t, result.Succeeded())
	assert.Equal(t, "https://cdn.test/existing-illustration", result.IllustrationURL)
	assert.NotEmpty(t, result.SketchURL)
	assert.Equal(t, []string{"sketch:https://cdn.test/existing-illustration"}, gen.calls)
	// only the sketch column is written
	assert.Equal(t, []string{"sketch"}, writer.writes)
	assert.Empty(t, writer.illustrationURL)
}

func TestRunSketch_FailureClassified(t *testing.T) {
	gen := &fakeGenerator{sketchErr: errors.New("rate limit exceeded (429)")}
	runner := generation.NewRunner(gen, &fakeArtifacts{}, newFakeWriter())

	result := runner.RunSketch(context.Background(), generation.PageInput{PageID: uuid.New()}, "https://cdn.test/x")
	require.False(t, result.Succeeded())
	assert.Equal(t, generation.KindRateLimited, result.Failure.Kind)
}
