package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/tazhate/icsync/internal/domain"
	"github.com/tazhate/icsync/internal/engine"
	"github.com/tazhate/icsync/internal/storage"
)

// FeedFetcher downloads the source ICS document.
type FeedFetcher interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// SyncService runs one-directional reconciliation: source feed in, managed
// events on the target calendar out.
type SyncService struct {
	feed        FeedFetcher
	store       engine.RemoteStore
	storage     *storage.Storage
	applier     *engine.Applier
	calendarURL string
}

// NewSyncService creates a sync service for one feed/calendar pair.
// storage may be nil to disable the run journal.
func NewSyncService(feed FeedFetcher, store engine.RemoteStore, s *storage.Storage, calendarURL string) *SyncService {
	return &SyncService{
		feed:        feed,
		store:       store,
		storage:     s,
		applier:     engine.NewApplier(store, calendarURL),
		calendarURL: calendarURL,
	}
}

// SyncResult contains sync operation results
type SyncResult struct {
	Uploaded int
	Retired  int
	Skipped  int
	Duration time.Duration
}

func (r *SyncResult) String() string {
	return fmt.Sprintf("%d uploaded, %d retired, %d skipped in %s",
		r.Uploaded, r.Retired, r.Skipped, r.Duration.Round(time.Millisecond))
}

// Sync performs one full pass and records it in the journal. The returned
// result carries the counts the diff committed to; on error the run is
// journaled as failed with the full error text.
func (s *SyncService) Sync(ctx context.Context) (*SyncResult, error) {
	start := time.Now()

	result, err := s.run(ctx)
	if result == nil {
		result = &SyncResult{}
	}
	result.Duration = time.Since(start)

	if s.storage != nil {
		run := &domain.SyncRun{
			StartedAt:  start,
			FinishedAt: time.Now(),
			Uploaded:   result.Uploaded,
			Retired:    result.Retired,
			Skipped:    result.Skipped,
			Status:     "ok",
		}
		if err != nil {
			run.Status = "failed"
			run.Error = err.Error()
		}
		if jerr := s.storage.RecordSyncRun(run); jerr != nil {
			log.Printf("Failed to record sync run: %v", jerr)
		}
	}

	return result, err
}

func (s *SyncService) run(ctx context.Context) (*SyncResult, error) {
	log.Println("Downloading source feed...")
	feedData, err := s.feed.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch source feed: %w", err)
	}

	sourceCal, err := engine.ParseCalendar(feedData)
	if err != nil {
		return nil, fmt.Errorf("parse source feed: %w", err)
	}

	exportURL := s.calendarURL + "?export"
	log.Println("Downloading target calendar export...")
	targetData, err := s.store.Fetch(ctx, exportURL)
	if err != nil {
		return nil, fmt.Errorf("fetch target calendar: %w", err)
	}

	targetCal, err := engine.ParseCalendar(targetData)
	if err != nil {
		return nil, fmt.Errorf("parse target calendar: %w", err)
	}

	source := engine.ExtractEvents(sourceCal, true)
	target := engine.ExtractEvents(targetCal, false)

	diff := engine.ComputeDiff(source, target)
	log.Printf("Diff: %d to upload, %d to retire, %d unchanged (source %d, target %d)",
		len(diff.Apply), len(diff.Retire), diff.Skipped, len(source), len(target))

	result := &SyncResult{
		Uploaded: len(diff.Apply),
		Retired:  len(diff.Retire),
		Skipped:  diff.Skipped,
	}

	if err := s.applier.Apply(ctx, diff); err != nil {
		return result, fmt.Errorf("apply diff: %w", err)
	}

	return result, nil
}
