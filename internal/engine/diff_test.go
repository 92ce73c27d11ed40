package engine

import (
	"testing"
	"time"

	"github.com/emersion/go-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tazhate/icsync/internal/domain"
)

var (
	ts1 = time.Date(2026, 1, 10, 10, 0, 0, 0, time.UTC)
	ts2 = time.Date(2026, 1, 11, 10, 0, 0, 0, time.UTC)
	ts3 = time.Date(2026, 1, 12, 10, 0, 0, 0, time.UTC)
)

func makeEvent(uid string, lastModified *time.Time, managed bool) *domain.Event {
	comp := ical.NewComponent(ical.CompEvent)
	comp.Props.SetText(ical.PropUID, uid)
	comp.Props.SetText(ical.PropSummary, "Event "+uid)
	comp.Props.SetDateTime(ical.PropDateTimeStamp, time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC))
	if lastModified != nil {
		comp.Props.SetDateTime(ical.PropLastModified, *lastModified)
	}
	event := &domain.Event{UID: uid, Component: comp}
	if managed {
		event.MarkManaged()
	}
	return event
}

func makeSet(events ...*domain.Event) domain.EventSet {
	set := make(domain.EventSet)
	for _, event := range events {
		set[event.UID] = event
	}
	return set
}

func applyUIDs(diff domain.Diff) []string {
	uids := make([]string, 0, len(diff.Apply))
	for _, event := range diff.Apply {
		uids = append(uids, event.UID)
	}
	return uids
}

func TestComputeDiffNewAndStale(t *testing.T) {
	// Source {A: ts1, B: ts2}; target {A: ts1 managed, C: ts3 managed}.
	source := makeSet(
		makeEvent("A", &ts1, false),
		makeEvent("B", &ts2, false),
	)
	target := makeSet(
		makeEvent("A", &ts1, true),
		makeEvent("C", &ts3, true),
	)

	diff := ComputeDiff(source, target)

	assert.ElementsMatch(t, []string{"B"}, applyUIDs(diff))
	assert.Equal(t, map[string]bool{"C": true}, diff.Retire)
	assert.Equal(t, 1, diff.Skipped)
}

func TestComputeDiffModifiedTimestamp(t *testing.T) {
	source := makeSet(makeEvent("A", &ts2, false))
	target := makeSet(makeEvent("A", &ts1, true))

	diff := ComputeDiff(source, target)

	assert.ElementsMatch(t, []string{"A"}, applyUIDs(diff))
	assert.Empty(t, diff.Retire)
}

func TestComputeDiffEmptySourceRetiresManagedOnly(t *testing.T) {
	target := makeSet(
		makeEvent("X", &ts1, true),
		makeEvent("Y", &ts1, false), // hand-authored, must survive
	)

	diff := ComputeDiff(makeSet(), target)

	assert.Empty(t, diff.Apply)
	assert.Equal(t, map[string]bool{"X": true}, diff.Retire)
}

func TestComputeDiffEmptyTarget(t *testing.T) {
	source := makeSet(
		makeEvent("A", &ts1, false),
		makeEvent("B", nil, false),
	)

	diff := ComputeDiff(source, makeSet())

	assert.ElementsMatch(t, []string{"A", "B"}, applyUIDs(diff))
	assert.Empty(t, diff.Retire)
}

func TestComputeDiffMissingTimestampNeverSkips(t *testing.T) {
	source := makeSet(makeEvent("Z", nil, false))
	target := makeSet(makeEvent("Z", nil, true))

	diff := ComputeDiff(source, target)

	assert.ElementsMatch(t, []string{"Z"}, applyUIDs(diff))
	assert.Zero(t, diff.Skipped)
}

func TestComputeDiffRetentionOnPresence(t *testing.T) {
	// A UID present in both sets is never retired, changed or not.
	source := makeSet(
		makeEvent("same", &ts1, false),
		makeEvent("changed", &ts2, false),
	)
	target := makeSet(
		makeEvent("same", &ts1, true),
		makeEvent("changed", &ts1, true),
	)

	diff := ComputeDiff(source, target)

	assert.NotContains(t, diff.Retire, "same")
	assert.NotContains(t, diff.Retire, "changed")
}

func TestComputeDiffOwnershipSafety(t *testing.T) {
	// Unmanaged target events never enter the retire set, whatever the source.
	target := makeSet(
		makeEvent("foreign-1", &ts1, false),
		makeEvent("foreign-2", nil, false),
	)

	for _, source := range []domain.EventSet{
		makeSet(),
		makeSet(makeEvent("unrelated", &ts2, false)),
	} {
		diff := ComputeDiff(source, target)
		assert.NotContains(t, diff.Retire, "foreign-1")
		assert.NotContains(t, diff.Retire, "foreign-2")
	}
}

func TestShouldSkip(t *testing.T) {
	tests := []struct {
		name     string
		source   *time.Time
		existing *time.Time
		want     bool
	}{
		{"both present and equal", &ts1, &ts1, true},
		{"both present but different", &ts1, &ts2, false},
		{"source missing", nil, &ts1, false},
		{"existing missing", &ts1, nil, false},
		{"both missing", nil, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := makeEvent("a", tt.source, false)
			existing := makeEvent("a", tt.existing, true)
			assert.Equal(t, tt.want, shouldSkip(source, existing))
		})
	}
}

func TestComputeDiffApplyComesFromSource(t *testing.T) {
	source := makeSet(makeEvent("A", &ts2, false))
	target := makeSet(makeEvent("A", &ts1, true))

	diff := ComputeDiff(source, target)

	require.Len(t, diff.Apply, 1)
	assert.Same(t, source["A"], diff.Apply[0])
}
