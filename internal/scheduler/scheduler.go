package scheduler

import (
	"context"
	"fmt"
	"log"

	"github.com/robfig/cron/v3"

	"github.com/tazhate/icsync/config"
	"github.com/tazhate/icsync/internal/service"
)

// Notifier delivers run outcomes to an external channel.
type Notifier interface {
	SendMessage(text string) error
}

// Scheduler runs the sync on a cron schedule.
type Scheduler struct {
	cron        *cron.Cron
	cfg         *config.Config
	syncService *service.SyncService
	notifier    Notifier
}

func New(cfg *config.Config, syncSvc *service.SyncService) *Scheduler {
	c := cron.New(cron.WithLocation(cfg.Timezone))

	return &Scheduler{
		cron:        c,
		cfg:         cfg,
		syncService: syncSvc,
	}
}

func (s *Scheduler) SetNotifier(n Notifier) {
	s.notifier = n
}

func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.cfg.SyncCron, s.runSync); err != nil {
		return fmt.Errorf("add sync job: %w", err)
	}

	s.cron.Start()
	log.Printf("Scheduler started (cron: %s, TZ: %s)", s.cfg.SyncCron, s.cfg.Timezone)

	<-ctx.Done()
	return nil
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("Scheduler stopped")
}

// RunNow performs one sync pass outside the cron schedule.
func (s *Scheduler) RunNow() {
	s.runSync()
}

func (s *Scheduler) runSync() {
	result, err := s.syncService.Sync(context.Background())
	if err != nil {
		log.Printf("Sync failed: %v", err)
		s.notify(fmt.Sprintf("⚠️ Calendar sync failed:\n%v", err))
		return
	}

	log.Printf("Sync complete: %s", result)

	// Only ping the chat when something actually changed.
	if result.Uploaded > 0 || result.Retired > 0 {
		s.notify(fmt.Sprintf("📅 Calendar synced: %s", result))
	}
}

func (s *Scheduler) notify(text string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.SendMessage(text); err != nil {
		log.Printf("Failed to send notification: %v", err)
	}
}
