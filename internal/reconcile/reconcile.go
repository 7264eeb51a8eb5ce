// Package reconcile implements the merge rule between a locally cached
// entity and its remote (realtime) counterpart: last writer wins by
// timestamp, except feedback fields stick to a newer local copy.
package reconcile

import "time"

// EntitySnapshot is the slice of entity state the reconciliation rule
// operates on.
type EntitySnapshot struct {
	ID            string
	UpdatedAt     time.Time
	FeedbackNotes string
	IsResolved    bool
	Fields        map[string]string
}

// Merge returns the snapshot a view should keep after receiving a remote
// update. Remote wins unless local is strictly newer, in which case the
// sticky fields (feedback_notes, is_resolved) are preserved from local while
// everything else still follows remote.
func Merge(local, remote EntitySnapshot) EntitySnapshot {
	if !local.UpdatedAt.After(remote.UpdatedAt) {
		return remote
	}

	merged := remote
	merged.FeedbackNotes = local.FeedbackNotes
	merged.IsResolved = local.IsResolved
	merged.UpdatedAt = local.UpdatedAt
	return merged
}
