// Package status holds the project workflow state machine: the canonical
// status enum, legacy-name normalization, the explicit transition actions and
// the pure gating functions derived from a project snapshot.
package status

// Status is the single source of truth for a project's workflow phase.
type Status string

const (
	Draft                       Status = "draft"
	CharacterGeneration         Status = "character_generation"
	CharacterGenerationComplete Status = "character_generation_complete"
	CharacterReview             Status = "character_review"
	CharacterRevisionNeeded     Status = "character_revision_needed"
	CharactersRegenerated       Status = "characters_regenerated"
	CharactersApproved          Status = "characters_approved"
	SketchesReview              Status = "sketches_review"
	SketchesRevision            Status = "sketches_revision"
	IllustrationApproved        Status = "illustration_approved"
)

// legacyAliases maps status names written by earlier versions of the admin
// app to their canonical equivalents. Business logic never branches on a raw
// legacy string; Normalize is applied at every boundary.
var legacyAliases = map[string]Status{
	"characters_pending":        CharacterGeneration,
	"generating_characters":     CharacterGeneration,
	"characters_generated":      CharacterGenerationComplete,
	"awaiting_characters":       CharacterReview,
	"character_revision":        CharacterRevisionNeeded,
	"character_regenerated":     CharactersRegenerated,
	"illustrations_in_progress": CharactersApproved,
	"illustration_generation":   CharactersApproved,
	"sketch_review":             SketchesReview,
	"sketch_revision":           SketchesRevision,
	"illustrations_approved":    IllustrationApproved,
	"final_approved":            IllustrationApproved,
}

var canonical = map[Status]struct{}{
	Draft:                       {},
	CharacterGeneration:         {},
	CharacterGenerationComplete: {},
	CharacterReview:             {},
	CharacterRevisionNeeded:     {},
	CharactersRegenerated:       {},
	CharactersApproved:          {},
	SketchesReview:              {},
	SketchesRevision:            {},
	IllustrationApproved:        {},
}

// Normalize maps a raw status string (canonical or legacy) to its canonical
// form. Unknown values fall back to Draft so a corrupted row degrades to the
// most restrictive gating rather than panicking mid-request.
func Normalize(raw string) Status {
	if _, ok := canonical[Status(raw)]; ok {
		return Status(raw)
	}
	if s, ok := legacyAliases[raw]; ok {
		return s
	}
	return Draft
}

// IsKnown reports whether raw is a recognized canonical or legacy status.
func IsKnown(raw string) bool {
	if _, ok := canonical[Status(raw)]; ok {
		return true
	}
	_, ok := legacyAliases[raw]
	return ok
}

func (s Status) String() string { return string(s) }

// Snapshot carries everything gating and transitions need about a project.
// It is assembled from the entity store by the caller; computing gating from
// it never mutates anything.
type Snapshot struct {
	Status                Status
	CharacterSendCount    int
	IllustrationSendCount int

	// Feedback flags aggregated across the relevant entities for the
	// current phase (characters before approval, pages after).
	HasUnresolvedFeedback bool
	HasResolvedFeedback   bool

	PageCount              int
	GeneratedIllustrations int

	SecondaryCharacterCount int

	// Entities whose internal image differs from (or has never reached)
	// their customer-visible copy. A send that pushes zero of these must
	// not inflate the send counter.
	UnpushedCharacterImages int
	UnpushedPageImages      int
}

// ResendRound converts a send count into the "round" shown in the UI: the
// first formal send is round zero.
func ResendRound(sendCount int) int {
	if sendCount <= 1 {
		return 0
	}
	return sendCount - 1
}
