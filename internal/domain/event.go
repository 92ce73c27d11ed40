package domain

import (
	"time"

	"github.com/emersion/go-ical"
)

// PropManaged marks events that icsync uploaded to the target calendar.
// Only events carrying this property are ever deleted during reconciliation;
// anything else on the target is treated as hand-authored and left alone.
const PropManaged = "X-ICSYNC-MANAGED"

// Event is a single VEVENT tracked by its normalized UID. The component is
// carried through untouched apart from the UID and the managed marker.
type Event struct {
	UID       string // normalized UID, safe as a single URL path segment
	Component *ical.Component
}

// LastModified returns the LAST-MODIFIED timestamp, if the event has one.
func (e *Event) LastModified() (time.Time, bool) {
	prop := e.Component.Props.Get(ical.PropLastModified)
	if prop == nil {
		return time.Time{}, false
	}
	t, err := prop.DateTime(time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Managed reports whether the event carries the icsync managed marker.
func (e *Event) Managed() bool {
	return e.Component.Props.Get(PropManaged) != nil
}

// MarkManaged tags the event as created by icsync, so the stored copy can be
// recognized as eligible for deletion on a later run.
func (e *Event) MarkManaged() {
	e.Component.Props.SetText(PropManaged, "TRUE")
}

// SetUID rewrites the event's UID, both on the component and on the tracking key.
func (e *Event) SetUID(uid string) {
	e.UID = uid
	e.Component.Props.SetText(ical.PropUID, uid)
}

// EventSet maps normalized UID to event for one calendar at a point in time.
// Duplicate UIDs in the underlying document resolve last-write-wins.
type EventSet map[string]*Event

// Diff is the computed partition of a sync pass: events to upload (new or
// modified) and UIDs to delete (managed target events absent from the source).
type Diff struct {
	Apply   []*Event
	Retire  map[string]bool
	Skipped int
}

// Empty reports whether the diff requires no remote operations.
func (d Diff) Empty() bool {
	return len(d.Apply) == 0 && len(d.Retire) == 0
}

// SyncRun is one journal entry describing a completed sync attempt. The journal
// is observational only: reconciliation state is always re-derived from the
// remote calendar, never from these records.
type SyncRun struct {
	ID         int64
	StartedAt  time.Time
	FinishedAt time.Time
	Uploaded   int
	Retired    int
	Skipped    int
	Status     string // "ok" or "failed"
	Error      string
}
