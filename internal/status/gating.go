package status

// Role distinguishes the two surfaces that read gating.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleCustomer Role = "customer"
)

// IsInIllustrationPhase reports whether the project has moved past character
// approval into page work.
func IsInIllustrationPhase(s Status) bool {
	switch s {
	case CharactersApproved, SketchesReview, SketchesRevision, IllustrationApproved:
		return true
	}
	return false
}

// committedPhase covers statuses where the full page set is already part of
// the formal review cycle.
func committedPhase(s Status) bool {
	switch s {
	case SketchesReview, SketchesRevision, IllustrationApproved:
		return true
	}
	return false
}

// SendButtonDisabled derives the state of the phase-advancing send button.
// Pure: identical snapshots always produce identical answers.
func SendButtonDisabled(snap Snapshot) bool {
	switch snap.Status {
	case CharactersApproved:
		return snap.GeneratedIllustrations < snap.PageCount
	case SketchesReview, SketchesRevision:
		// A resend needs resolved feedback to justify it.
		return !snap.HasResolvedFeedback
	}
	return false
}

// PageView is the per-page slice of state visibility depends on.
type PageView struct {
	PageNumber      int
	HasIllustration bool

	// PushedToCustomer is true once the page's customer-visible URLs have
	// been populated, whether by a formal send or a silent push.
	PushedToCustomer bool
}

// VisiblePages returns the page numbers the given role may see. Admins see
// page 1 only until it has an illustration or the project reaches a
// committed phase; customers see page 1 only until sketches have been sent,
// except pages promoted early via the push mechanism.
func VisiblePages(role Role, snap Snapshot, pages []PageView) []int {
	visible := make([]int, 0, len(pages))

	allForAdmin := false
	if committedPhase(snap.Status) {
		allForAdmin = true
	} else {
		for _, p := range pages {
			if p.PageNumber == 1 && p.HasIllustration {
				allForAdmin = true
				break
			}
		}
	}

	allForCustomer := snap.Status == SketchesReview || snap.Status == SketchesRevision || snap.Status == IllustrationApproved

	for _, p := range pages {
		switch role {
		case RoleAdmin:
			if allForAdmin || p.PageNumber == 1 {
				visible = append(visible, p.PageNumber)
			}
		case RoleCustomer:
			if allForCustomer || p.PageNumber == 1 || p.PushedToCustomer {
				visible = append(visible, p.PageNumber)
			}
		}
	}
	return visible
}
