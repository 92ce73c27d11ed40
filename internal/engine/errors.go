package engine

import (
	"fmt"
	"strings"
)

// FetchError reports a non-success status while downloading a calendar
// document. Fetch failures abort the run before any diff is attempted.
type FetchError struct {
	URL    string
	Status int
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.Status)
}

// ItemError is the failure of a single upload or delete. It does not affect
// sibling operations in the same phase.
type ItemError struct {
	UID    string
	Op     string // "upload" or "delete"
	Status int    // HTTP status, 0 if the request never completed
	Body   string // response body, for diagnosis
	Err    error  // transport error, if any
}

func (e *ItemError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %v", e.Op, e.UID, e.Err)
	}
	if e.Body != "" {
		return fmt.Sprintf("%s %s: status %d: %s", e.Op, e.UID, e.Status, e.Body)
	}
	return fmt.Sprintf("%s %s: status %d", e.Op, e.UID, e.Status)
}

func (e *ItemError) Unwrap() error {
	return e.Err
}

// AggregateError collects every item failure from one phase, so the run can
// report all failing UIDs instead of just the first.
type AggregateError struct {
	Op    string
	Items []*ItemError
}

func (e *AggregateError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s phase failed for %d event(s):", e.Op, len(e.Items))
	for _, item := range e.Items {
		sb.WriteString("\n  ")
		sb.WriteString(item.Error())
	}
	return sb.String()
}

// UIDs returns the UID of every failed item.
func (e *AggregateError) UIDs() []string {
	uids := make([]string, 0, len(e.Items))
	for _, item := range e.Items {
		uids = append(uids, item.UID)
	}
	return uids
}

// collectItemErrors folds per-item outcomes into a single phase result.
func collectItemErrors(op string, results []*ItemError) error {
	var failed []*ItemError
	for _, res := range results {
		if res != nil {
			failed = append(failed, res)
		}
	}
	if len(failed) == 0 {
		return nil
	}
	return &AggregateError{Op: op, Items: failed}
}
