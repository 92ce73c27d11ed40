package engine

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"

	"github.com/emersion/go-ical"

	"github.com/tazhate/icsync/internal/domain"
)

const (
	opUpload = "upload"
	opDelete = "delete"
)

// RemoteStore is the capability surface the engine needs from the CalDAV
// server. It must be safe for concurrent use; the apply pipeline issues one
// request per event from its own goroutine.
type RemoteStore interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
	Put(ctx context.Context, url string, body []byte) (status int, respBody []byte, err error)
	Delete(ctx context.Context, url string) (status int, respBody []byte, err error)
}

// Applier executes a computed diff against the remote calendar collection:
// all uploads first, then all deletions. Within a phase every item runs
// concurrently and failures are isolated per item.
type Applier struct {
	store       RemoteStore
	calendarURL string
}

// NewApplier creates an applier for the given calendar collection URL.
func NewApplier(store RemoteStore, calendarURL string) *Applier {
	if !strings.HasSuffix(calendarURL, "/") {
		calendarURL += "/"
	}
	return &Applier{store: store, calendarURL: calendarURL}
}

// ObjectURL derives the resource address for a normalized UID. Uploads and
// deletions of the same UID always resolve to the same URL.
func (a *Applier) ObjectURL(uid string) string {
	return a.calendarURL + uid + ".ics"
}

// Apply runs the upload phase and then the delete phase. A failing upload
// phase aborts the run before any deletion is issued, so partial upload
// failures are known before committing to deletions.
func (a *Applier) Apply(ctx context.Context, diff domain.Diff) error {
	if err := a.uploadAll(ctx, diff.Apply); err != nil {
		return err
	}
	return a.deleteAll(ctx, diff.Retire)
}

func (a *Applier) uploadAll(ctx context.Context, events []*domain.Event) error {
	if len(events) == 0 {
		log.Println("No new or modified events to upload")
		return nil
	}

	log.Printf("Uploading %d new/modified events...", len(events))

	results := make([]*ItemError, len(events))
	var wg sync.WaitGroup
	for i, event := range events {
		i, event := i, event
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = a.upload(ctx, event)
		}()
	}
	wg.Wait()

	return collectItemErrors(opUpload, results)
}

func (a *Applier) upload(ctx context.Context, event *domain.Event) *ItemError {
	body, err := SerializeEvent(event)
	if err != nil {
		return &ItemError{UID: event.UID, Op: opUpload, Err: err}
	}

	status, respBody, err := a.store.Put(ctx, a.ObjectURL(event.UID), body)
	if err != nil {
		return &ItemError{UID: event.UID, Op: opUpload, Err: err}
	}

	switch status {
	case http.StatusOK, http.StatusCreated, http.StatusNoContent:
		log.Printf("Uploaded event %s", event.UID)
		return nil
	default:
		return &ItemError{UID: event.UID, Op: opUpload, Status: status, Body: string(respBody)}
	}
}

func (a *Applier) deleteAll(ctx context.Context, uids map[string]bool) error {
	if len(uids) == 0 {
		log.Println("No events to delete")
		return nil
	}

	log.Printf("Deleting %d events...", len(uids))

	uidList := make([]string, 0, len(uids))
	for uid := range uids {
		uidList = append(uidList, uid)
	}

	results := make([]*ItemError, len(uidList))
	var wg sync.WaitGroup
	for i, uid := range uidList {
		i, uid := i, uid
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = a.delete(ctx, uid)
		}()
	}
	wg.Wait()

	return collectItemErrors(opDelete, results)
}

func (a *Applier) delete(ctx context.Context, uid string) *ItemError {
	status, respBody, err := a.store.Delete(ctx, a.ObjectURL(uid))
	if err != nil {
		return &ItemError{UID: uid, Op: opDelete, Err: err}
	}

	switch status {
	case http.StatusOK, http.StatusNoContent:
		log.Printf("Deleted event %s", uid)
		return nil
	case http.StatusNotFound:
		// Already gone, e.g. removed by a previous interrupted run.
		log.Printf("Event %s already absent, nothing to delete", uid)
		return nil
	default:
		return &ItemError{UID: uid, Op: opDelete, Status: status, Body: string(respBody)}
	}
}

// SerializeEvent wraps a single event in its own minimal VCALENDAR document.
func SerializeEvent(event *domain.Event) ([]byte, error) {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, "-//icsync//Calendar Sync//EN")
	cal.Children = append(cal.Children, event.Component)

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, fmt.Errorf("encode event %s: %w", event.UID, err)
	}
	return buf.Bytes(), nil
}
