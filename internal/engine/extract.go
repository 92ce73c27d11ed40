package engine

import (
	"bytes"
	"fmt"

	"github.com/emersion/go-ical"

	"github.com/tazhate/icsync/internal/domain"
)

// ParseCalendar decodes a raw ICS document.
func ParseCalendar(data []byte) (*ical.Calendar, error) {
	cal, err := ical.NewDecoder(bytes.NewReader(data)).Decode()
	if err != nil {
		return nil, fmt.Errorf("parse calendar: %w", err)
	}
	return cal, nil
}

// ExtractEvents collects the VEVENT components of a calendar into an EventSet.
//
// With process set, each event's UID is normalized and the event is tagged
// with the managed marker; this is done for the source feed only. Target
// events are already stored under their normalized names and are read back
// as-is. Events without a UID (or whose UID normalizes to nothing) cannot be
// addressed on the server and are excluded from the set.
func ExtractEvents(cal *ical.Calendar, process bool) domain.EventSet {
	set := make(domain.EventSet)
	for _, child := range cal.Children {
		if child.Name != ical.CompEvent {
			continue
		}
		prop := child.Props.Get(ical.PropUID)
		if prop == nil || prop.Value == "" {
			continue
		}

		event := &domain.Event{UID: prop.Value, Component: child}
		if process {
			uid := NormalizeUID(prop.Value)
			if uid == "" {
				continue
			}
			event.SetUID(uid)
			event.MarkManaged()
		}
		set[event.UID] = event
	}
	return set
}
