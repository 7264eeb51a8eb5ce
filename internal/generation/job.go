// Package generation runs the two-step illustration+sketch job for a single
// page and classifies failures from the external image service.
package generation

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// ImageGenerator is the external generation capability. Implemented by the
// imagegen HTTP client; faked in tests.
type ImageGenerator interface {
	GenerateIllustration(ctx context.Context, prompt string, referenceImages []string, aspectRatio string) ([]byte, error)
	GenerateSketch(ctx context.Context, sourceIllustrationURL, prompt string) ([]byte, error)
}

// ArtifactStore uploads generated bytes and returns a public URL.
type ArtifactStore interface {
	UploadPageArtifact(projectID, pageID uuid.UUID, kind string, data []byte) (string, error)
}

// PageWriter persists generation results. The illustration write must be
// durable before the sketch call is issued; the sketch call takes the
// illustration URL as input.
type PageWriter interface {
	SetPageIllustrationURL(pageID uuid.UUID, url string) error
	SetPageSketchURL(pageID uuid.UUID, url string) error
	SetPageCandidate(pageID uuid.UUID, oldURL, newURL string) error
	ClearPageCandidate(pageID uuid.UUID) error
}

// PageInput is the slice of page state a job needs.
type PageInput struct {
	PageID          uuid.UUID
	ProjectID       uuid.UUID
	PageNumber      int
	Prompt          string
	SketchPrompt    string
	ReferenceImages []string
	AspectRatio     string

	// ExistingIllustrationURL switches the job into comparison mode: the
	// new result is held as a candidate instead of overwriting it.
	ExistingIllustrationURL string
}

// Result is the tagged outcome of one job. Exactly one of Failure or the URL
// fields is meaningful; a sketch-step failure still reports the persisted
// illustration URL.
type Result struct {
	PageID          uuid.UUID
	IllustrationURL string
	SketchURL       string
	CandidateURL    string
	Failure         *Classified
}

func (r Result) Succeeded() bool { return r.Failure == nil }

// Runner executes generation jobs against the injected collaborators.
type Runner struct {
	generator ImageGenerator
	store     ArtifactStore
	pages     PageWriter
}

func NewRunner(generator ImageGenerator, store ArtifactStore, pages PageWriter) *Runner {
	return &Runner{generator: generator, store: store, pages: pages}
}

// Run executes the full pipeline for one page: generate the illustration,
// persist it, then generate the dependent sketch. An illustration success is
// never rolled back by a later sketch failure.
func (r *Runner) Run(ctx context.Context, page PageInput) Result {
	result := Result{PageID: page.PageID}

	illustrationURL, failure := r.generateIllustration(ctx, page)
	if failure != nil {
		result.Failure = failure
		return result
	}
	result.IllustrationURL = illustrationURL

	sketchURL, failure := r.generateSketch(ctx, page, illustrationURL)
	if failure != nil {
		// The page did not reach "both artifacts present": failed for
		// batch accounting, but the illustration stays.
		result.Failure = failure
		return result
	}
	result.SketchURL = sketchURL
	return result
}

// RunComparison generates a fresh illustration for a page that already has
// one and records it as a candidate pair instead of persisting it. The
// canonical URLs are untouched until an explicit decision.
func (r *Runner) RunComparison(ctx context.Context, page PageInput) Result {
	result := Result{PageID: page.PageID}

	data, err := r.generator.GenerateIllustration(ctx, page.Prompt, page.ReferenceImages, page.AspectRatio)
	if err != nil {
		failure := Classify(err.Error())
		result.Failure = &failure
		return result
	}

	url, err := r.store.UploadPageArtifact(page.ProjectID, page.PageID, "candidate", data)
	if err != nil {
		failure := Classify(err.Error())
		result.Failure = &failure
		return result
	}

	if err := r.pages.SetPageCandidate(page.PageID, page.ExistingIllustrationURL, url); err != nil {
		failure := Classify(fmt.Sprintf("failed to record candidate: %v", err))
		result.Failure = &failure
		return result
	}

	result.IllustrationURL = page.ExistingIllustrationURL
	result.CandidateURL = url
	return result
}

// RunSketch regenerates only the sketch for a page whose illustration is
// already persisted.
func (r *Runner) RunSketch(ctx context.Context, page PageInput, illustrationURL string) Result {
	result := Result{PageID: page.PageID, IllustrationURL: illustrationURL}

	sketchURL, failure := r.generateSketch(ctx, page, illustrationURL)
	if failure != nil {
		result.Failure = failure
		return result
	}
	result.SketchURL = sketchURL
	return result
}

// RevertCandidate discards a pending candidate, keeping the canonical
// illustration.
func (r *Runner) RevertCandidate(pageID uuid.UUID) error {
	return r.pages.ClearPageCandidate(pageID)
}

// FinalizeKeepNew promotes a pending candidate to the canonical illustration
// and regenerates the dependent sketch from it.
func (r *Runner) FinalizeKeepNew(ctx context.Context, page PageInput, candidateURL string) Result {
	result := Result{PageID: page.PageID}

	if err := r.pages.SetPageIllustrationURL(page.PageID, candidateURL); err != nil {
		failure := Classify(fmt.Sprintf("failed to persist illustration url: %v", err))
		result.Failure = &failure
		return result
	}
	if err := r.pages.ClearPageCandidate(page.PageID); err != nil {
		failure := Classify(fmt.Sprintf("failed to clear candidate: %v", err))
		result.Failure = &failure
		return result
	}
	result.IllustrationURL = candidateURL

	sketchURL, failure := r.generateSketch(ctx, page, candidateURL)
	if failure != nil {
		result.Failure = failure
		return result
	}
	result.SketchURL = sketchURL
	return result
}

func (r *Runner) generateIllustration(ctx context.Context, page PageInput) (string, *Classified) {
	data, err := r.generator.GenerateIllustration(ctx, page.Prompt, page.ReferenceImages, page.AspectRatio)
	if err != nil {
		failure := Classify(err.Error())
		return "", &failure
	}

	url, err := r.store.UploadPageArtifact(page.ProjectID, page.PageID, "illustration", data)
	if err != nil {
		failure := Classify(err.Error())
		return "", &failure
	}

	// Durable write before the sketch step: the sketch call consumes this
	// URL as its input.
	if err := r.pages.SetPageIllustrationURL(page.PageID, url); err != nil {
		failure := Classify(fmt.Sprintf("failed to persist illustration url: %v", err))
		return "", &failure
	}
	return url, nil
}

func (r *Runner) generateSketch(ctx context.Context, page PageInput, illustrationURL string) (string, *Classified) {
	data, err := r.generator.GenerateSketch(ctx, illustrationURL, page.SketchPrompt)
	if err != nil {
		failure := Classify(err.Error())
		return "", &failure
	}

	url, err := r.store.UploadPageArtifact(page.ProjectID, page.PageID, "sketch", data)
	if err != nil {
		failure := Classify(err.Error())
		return "", &failure
	}

	if err := r.pages.SetPageSketchURL(page.PageID, url); err != nil {
		failure := Classify(fmt.Sprintf("failed to persist sketch url: %v", err))
		return "", &failure
	}
	return url, nil
}
