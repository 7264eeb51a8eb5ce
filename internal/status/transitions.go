package status

import (
	"storybook-backend/internal/apperrors"
)

// Outcome describes what a successful transition action wants persisted.
// Archival of unresolved feedback is part of the send actions and is carried
// here as a flag so the caller can run it in the same update.
type Outcome struct {
	Next Status

	IncrementCharacterSend    bool
	IncrementIllustrationSend bool
	ArchiveCharacterFeedback  bool
	ArchivePageFeedback       bool
}

// BeginCharacterGeneration handles the "request input" action:
// draft -> character_generation. Legal only before any character image
// exists.
func BeginCharacterGeneration(snap Snapshot) (Outcome, error) {
	if snap.Status != Draft {
		return Outcome{}, apperrors.NewInvalidStateError("begin character generation", snap.Status.String(), Draft.String())
	}
	if snap.UnpushedCharacterImages > 0 {
		return Outcome{}, apperrors.NewInvalidStateError("begin character generation", snap.Status.String(), "no character images generated yet")
	}
	return Outcome{Next: CharacterGeneration}, nil
}

// CompleteCharacterGeneration is driven by the batch completion signal, not
// by a user action: character_generation -> character_generation_complete.
func CompleteCharacterGeneration(snap Snapshot) (Outcome, error) {
	if snap.Status != CharacterGeneration {
		return Outcome{}, apperrors.NewInvalidStateError("complete character generation", snap.Status.String(), CharacterGeneration.String())
	}
	return Outcome{Next: CharacterGenerationComplete}, nil
}

// SendCharacters handles both the first send and every resend of character
// designs to the customer. The send counter only moves when at least one
// non-main character is carrying image content the customer has not seen.
func SendCharacters(snap Snapshot) (Outcome, error) {
	switch snap.Status {
	case CharactersApproved, SketchesReview, SketchesRevision, IllustrationApproved:
		return Outcome{}, apperrors.NewInvalidStateError("send characters", snap.Status.String(), "a character phase")
	}
	return Outcome{
		Next:                     CharacterReview,
		IncrementCharacterSend:   snap.UnpushedCharacterImages > 0,
		ArchiveCharacterFeedback: true,
	}, nil
}

// RecordCharacterRevision is triggered by the customer submitting
// secondary-character edits with feedback text.
func RecordCharacterRevision(snap Snapshot) (Outcome, error) {
	if snap.Status != CharacterReview {
		return Outcome{}, apperrors.NewInvalidStateError("record character revision", snap.Status.String(), CharacterReview.String())
	}
	return Outcome{Next: CharacterRevisionNeeded}, nil
}

// RegenerateCharacters marks that the admin regenerated character images
// after feedback.
func RegenerateCharacters(snap Snapshot) (Outcome, error) {
	switch snap.Status {
	case CharacterRevisionNeeded, CharacterGenerationComplete:
		return Outcome{Next: CharactersRegenerated}, nil
	}
	return Outcome{}, apperrors.NewInvalidStateError("regenerate characters", snap.Status.String(),
		CharacterRevisionNeeded.String()+" or "+CharacterGenerationComplete.String())
}

// ApproveCharacters moves the project into the illustration phase. Projects
// with zero secondary characters may skip straight to illustrations from any
// character phase.
func ApproveCharacters(snap Snapshot) (Outcome, error) {
	switch snap.Status {
	case CharactersRegenerated, CharacterReview:
		return Outcome{Next: CharactersApproved}, nil
	}
	if snap.SecondaryCharacterCount == 0 && !IsInIllustrationPhase(snap.Status) {
		return Outcome{Next: CharactersApproved}, nil
	}
	return Outcome{}, apperrors.NewInvalidStateError("approve characters", snap.Status.String(),
		CharactersRegenerated.String()+" or "+CharacterReview.String())
}

// SendSketches handles the first sketch send and every resend. The first
// send is gated hard on every page having a generated illustration; resends
// additionally require resolved feedback to justify them, and they archive
// whatever page feedback is still pending.
func SendSketches(snap Snapshot) (Outcome, error) {
	switch snap.Status {
	case CharactersApproved:
		if snap.GeneratedIllustrations < snap.PageCount {
			return Outcome{}, apperrors.NewInvalidStateError("send sketches", snap.Status.String(),
				"all page illustrations generated")
		}
	case SketchesReview, SketchesRevision:
		// resend path
	default:
		return Outcome{}, apperrors.NewInvalidStateError("send sketches", snap.Status.String(),
			CharactersApproved.String()+", "+SketchesReview.String()+" or "+SketchesRevision.String())
	}
	return Outcome{
		Next:                      SketchesReview,
		IncrementIllustrationSend: snap.UnpushedPageImages > 0,
		ArchivePageFeedback:       true,
	}, nil
}

// RecordSketchRevision is triggered by customer feedback on any page.
func RecordSketchRevision(snap Snapshot) (Outcome, error) {
	if snap.Status != SketchesReview {
		return Outcome{}, apperrors.NewInvalidStateError("record sketch revision", snap.Status.String(), SketchesReview.String())
	}
	return Outcome{Next: SketchesRevision}, nil
}

// ApproveIllustrations is the terminal transition for this workflow. It is
// reached by an admin resend once every page's feedback is resolved, or by
// explicit final approval.
func ApproveIllustrations(snap Snapshot) (Outcome, error) {
	switch snap.Status {
	case SketchesReview, SketchesRevision:
	default:
		return Outcome{}, apperrors.NewInvalidStateError("approve illustrations", snap.Status.String(),
			SketchesReview.String()+" or "+SketchesRevision.String())
	}
	if snap.HasUnresolvedFeedback {
		return Outcome{}, apperrors.NewInvalidStateError("approve illustrations", snap.Status.String(),
			"all page feedback resolved")
	}
	return Outcome{Next: IllustrationApproved}, nil
}
