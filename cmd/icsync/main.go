package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/tazhate/icsync/config"
	"github.com/tazhate/icsync/internal/clients/caldav"
	"github.com/tazhate/icsync/internal/clients/feed"
	"github.com/tazhate/icsync/internal/notify"
	"github.com/tazhate/icsync/internal/scheduler"
	"github.com/tazhate/icsync/internal/service"
	"github.com/tazhate/icsync/internal/storage"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	store, err := storage.New(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to init storage: %v", err)
	}
	defer store.Close()

	feedClient := feed.NewClient(cfg.ICSURL, cfg.ICSUsername, cfg.ICSPassword)
	caldavClient := caldav.NewClient(cfg.NextcloudURL, cfg.NextcloudUsername, cfg.NextcloudPassword)

	if cfg.FetchCalendars {
		cals, err := caldavClient.DiscoverCalendars(context.Background())
		if err != nil {
			log.Fatalf("Failed to discover calendars: %v", err)
		}
		ids := make([]string, 0, len(cals))
		for _, cal := range cals {
			ids = append(ids, cal.ID)
		}
		log.Printf("Available calendars: [%s]", strings.Join(ids, ","))
	}

	syncSvc := service.NewSyncService(feedClient, caldavClient, store, cfg.CalendarURL)

	var notifier *notify.Telegram
	if cfg.TelegramToken != "" {
		notifier, err = notify.NewTelegram(cfg.TelegramToken, cfg.TelegramChatID)
		if err != nil {
			log.Fatalf("Failed to init Telegram notifier: %v", err)
		}
	}

	// Run-once mode when no schedule is configured.
	if cfg.SyncCron == "" {
		result, err := syncSvc.Sync(context.Background())
		if err != nil {
			if notifier != nil {
				if nerr := notifier.SendMessage("⚠️ Calendar sync failed:\n" + err.Error()); nerr != nil {
					log.Printf("Failed to send notification: %v", nerr)
				}
			}
			log.Fatalf("Sync failed: %v", err)
		}
		log.Printf("Sync complete: %s", result)
		return
	}

	sched := scheduler.New(cfg, syncSvc)
	if notifier != nil {
		sched.SetNotifier(notifier)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := sched.Start(ctx); err != nil {
			log.Printf("Scheduler error: %v", err)
		}
	}()

	// First pass immediately; cron only covers subsequent runs.
	go sched.RunNow()

	log.Println("icsync started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutting down...")

	cancel()
	sched.Stop()

	log.Println("icsync stopped")
}
