package services

import (
	"storybook-backend/internal/models"
	"storybook-backend/internal/status"
)

// BuildSnapshot derives the state-machine snapshot for a project from its
// entities. Pure: no queries, no mutation.
func BuildSnapshot(project *models.Project, pages []models.Page, characters []models.Character) status.Snapshot {
	snap := status.Snapshot{
		Status:                status.Normalize(project.Status),
		CharacterSendCount:    project.CharacterSendCount,
		IllustrationSendCount: project.IllustrationSendCount,
		PageCount:             len(pages),
	}

	for _, p := range pages {
		if p.IllustrationURL.Valid && p.IllustrationURL.String != "" {
			snap.GeneratedIllustrations++
			if !p.CustomerIllustrationURL.Valid || p.CustomerIllustrationURL.String != p.IllustrationURL.String {
				snap.UnpushedPageImages++
			}
		}
	}

	for _, c := range characters {
		if c.IsMain {
			continue
		}
		snap.SecondaryCharacterCount++
		if c.ImageURL.Valid && c.ImageURL.String != "" {
			if !c.CustomerImageURL.Valid || c.CustomerImageURL.String != c.ImageURL.String {
				snap.UnpushedCharacterImages++
			}
		}
	}

	// Feedback flags follow the phase: character feedback gates the
	// character phases, page feedback gates the sketch phases.
	if status.IsInIllustrationPhase(snap.Status) {
		for _, p := range pages {
			if p.FeedbackNotes.Valid && p.FeedbackNotes.String != "" {
				snap.HasUnresolvedFeedback = true
			}
			if p.IsResolved {
				snap.HasResolvedFeedback = true
			}
		}
	} else {
		for _, c := range characters {
			if c.FeedbackNotes.Valid && c.FeedbackNotes.String != "" {
				snap.HasUnresolvedFeedback = true
			}
			if c.IsResolved {
				snap.HasResolvedFeedback = true
			}
		}
	}

	return snap
}

// BuildPageViews converts pages to the visibility slice gating consumes.
func BuildPageViews(pages []models.Page) []status.PageView {
	views := make([]status.PageView, 0, len(pages))
	for _, p := range pages {
		views = append(views, status.PageView{
			PageNumber:      p.PageNumber,
			HasIllustration: p.IllustrationURL.Valid && p.IllustrationURL.String != "",
			PushedToCustomer: (p.CustomerIllustrationURL.Valid && p.CustomerIllustrationURL.String != "") ||
				(p.CustomerSketchURL.Valid && p.CustomerSketchURL.String != ""),
		})
	}
	return views
}
