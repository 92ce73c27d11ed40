package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ICSURL      string
	ICSUsername string
	ICSPassword string

	NextcloudURL      string
	NextcloudUsername string
	NextcloudPassword string
	CalendarID        string
	CalendarURL       string // derived: <url>/remote.php/dav/calendars/<user>/<id>/

	FetchCalendars bool   // list available calendar IDs before syncing
	SyncCron       string // cron spec for periodic sync; empty means run once
	DatabasePath   string
	Timezone       *time.Location

	TelegramToken  string
	TelegramChatID int64
}

func Load() (*Config, error) {
	icsURL := os.Getenv("ICS_URL")
	if icsURL == "" {
		return nil, fmt.Errorf("ICS_URL is required")
	}

	nextcloudURL := strings.TrimSuffix(os.Getenv("NEXTCLOUD_URL"), "/")
	if nextcloudURL == "" {
		return nil, fmt.Errorf("NEXTCLOUD_URL is required")
	}

	username := os.Getenv("NEXTCLOUD_USERNAME")
	if username == "" {
		return nil, fmt.Errorf("NEXTCLOUD_USERNAME is required")
	}

	password := os.Getenv("NEXTCLOUD_PASSWORD")
	if password == "" {
		return nil, fmt.Errorf("NEXTCLOUD_PASSWORD is required")
	}

	calendarID := os.Getenv("CALENDAR_ID")
	if calendarID == "" {
		return nil, fmt.Errorf("CALENDAR_ID is required")
	}

	var fetchCalendars bool
	if v := os.Getenv("FETCH_CALENDARS"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("FETCH_CALENDARS must be a boolean, got %q", v)
		}
		fetchCalendars = parsed
	}

	dbPath := os.Getenv("DATABASE_PATH")
	if dbPath == "" {
		dbPath = "./data/icsync.db"
	}

	tzName := os.Getenv("TIMEZONE")
	if tzName == "" {
		tzName = "UTC"
	}
	tz, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}

	var chatID int64
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token != "" {
		chatID, err = strconv.ParseInt(os.Getenv("TELEGRAM_CHAT_ID"), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("TELEGRAM_CHAT_ID is required with TELEGRAM_BOT_TOKEN and must be a number")
		}
	}

	return &Config{
		ICSURL:            icsURL,
		ICSUsername:       os.Getenv("ICS_USERNAME"),
		ICSPassword:       os.Getenv("ICS_PASSWORD"),
		NextcloudURL:      nextcloudURL,
		NextcloudUsername: username,
		NextcloudPassword: password,
		CalendarID:        calendarID,
		CalendarURL: fmt.Sprintf("%s/remote.php/dav/calendars/%s/%s/",
			nextcloudURL, username, calendarID),
		FetchCalendars: fetchCalendars,
		SyncCron:       os.Getenv("SYNC_CRON"),
		DatabasePath:   dbPath,
		Timezone:       tz,
		TelegramToken:  token,
		TelegramChatID: chatID,
	}, nil
}
