// Package config handles application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Config holds the application configuration.
type Config struct {
	TelegramBotToken string
	ChatID           int64
	DatabasePath     string
	LogLevel         string
	AllowedUsers     []int64
	SelfSourceID     string
	EventsPath       string
	DismissPath      string
	FeedURLs         []string
	FeedInterval     time.Duration
	ShoutrrrURLs     []string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}

	rawChat := os.Getenv("TELEGRAM_CHAT_ID")
	if rawChat == "" {
		return nil, fmt.Errorf("TELEGRAM_CHAT_ID is required")
	}
	chatID, err := strconv.ParseInt(strings.TrimSpace(rawChat), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid TELEGRAM_CHAT_ID %q: %w", rawChat, err)
	}

	var allowedUsers []int64
	for _, s := range splitList(os.Getenv("ALLOWED_USERS"), ",") {
		uid, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid user ID %q in ALLOWED_USERS: %w", s, err)
		}
		allowedUsers = append(allowedUsers, uid)
	}

	interval := 15 * time.Minute
	if raw := os.Getenv("FEED_INTERVAL"); raw != "" {
		interval, err = time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid FEED_INTERVAL %q: %w", raw, err)
		}
		if interval < time.Minute {
			return nil, fmt.Errorf("FEED_INTERVAL must be at least 1m, got %s", interval)
		}
	}

	return &Config{
		TelegramBotToken: token,
		ChatID:           chatID,
		DatabasePath:     envOrDefault("DATABASE_PATH", "./data/organizer.db"),
		LogLevel:         envOrDefault("LOG_LEVEL", "info"),
		AllowedUsers:     allowedUsers,
		SelfSourceID:     envOrDefault("SELF_SOURCE_ID", "notif_organizer"),
		EventsPath:       envOrDefault("EVENTS_PATH", "-"),
		DismissPath:      envOrDefault("DISMISS_PATH", "-"),
		FeedURLs:         splitList(os.Getenv("FEED_URLS"), ","),
		FeedInterval:     interval,
		ShoutrrrURLs:     splitList(os.Getenv("SHOUTRRR_URLS"), " "),
	}, nil
}

// IsUserAllowed checks whether a user ID is in the allow list.
// Returns true if the allow list is empty (all users permitted).
func (c *Config) IsUserAllowed(userID int64) bool {
	if len(c.AllowedUsers) == 0 {
		return true
	}
	return slices.Contains(c.AllowedUsers, userID)
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func splitList(raw, sep string) []string {
	var out []string
	for _, s := range strings.Split(raw, sep) {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}
