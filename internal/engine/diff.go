package engine

import (
	"github.com/tazhate/icsync/internal/domain"
)

// ComputeDiff compares the source event set against the target event set and
// decides which events to upload and which stored events to delete.
//
// Only target events carrying the managed marker are deletion candidates:
// events created directly on the target are never touched, even when they do
// not appear in the source. A UID present in the source is never retired,
// regardless of content changes, so Apply and Retire are disjoint by
// construction.
func ComputeDiff(source, target domain.EventSet) domain.Diff {
	diff := domain.Diff{Retire: make(map[string]bool)}

	for uid, event := range target {
		if event.Managed() {
			diff.Retire[uid] = true
		}
	}

	for uid, event := range source {
		delete(diff.Retire, uid)

		if existing, ok := target[uid]; ok && shouldSkip(event, existing) {
			diff.Skipped++
			continue
		}
		// New and modified events are handled identically: PUT is an upsert.
		diff.Apply = append(diff.Apply, event)
	}

	return diff
}

// shouldSkip reports whether the stored copy is known to be up to date.
// That requires a LAST-MODIFIED timestamp on both sides with exact equality;
// a missing timestamp on either side forces a re-upload rather than risking
// a stale skip.
func shouldSkip(source, existing *domain.Event) bool {
	sourceTS, ok := source.LastModified()
	if !ok {
		return false
	}
	existingTS, ok := existing.LastModified()
	if !ok {
		return false
	}
	return sourceTS.Equal(existingTS)
}
