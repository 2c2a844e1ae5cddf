package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Port  string
	Debug bool

	// Day boundaries for mention buckets are computed in this zone
	TimeZone string

	// Upstream sources
	HackerNewsSearchURL string
	WebSearchURL        string
	UserAgent           string
	HTTPTimeout         time.Duration
	WebResultLimit      int
	ScrapeRateLimit     float64 // requests per second against the web search source

	// Coalesce concurrent identical searches into one upstream round trip
	CoalesceQueries bool

	// Watchlist digest
	WatchQueries   []string
	DigestSchedule string

	// Notification configuration
	TeamsWebhookURL   string
	NotificationEmail string
	SMTPHost          string
	SMTPPort          int
	SMTPUsername      string
	SMTPPassword      string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:     getEnv("PORT", "3001"),
		Debug:    getBoolEnv("DEBUG", false),
		TimeZone: getEnv("TIMEZONE", "UTC"),

		HackerNewsSearchURL: getEnv("HN_SEARCH_URL", "https://hn.algolia.com/api/v1/search"),
		WebSearchURL:        getEnv("WEB_SEARCH_URL", "https://www.google.com/search"),
		UserAgent: getEnv("USER_AGENT",
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"),
		HTTPTimeout:     getDurationEnv("HTTP_TIMEOUT", 30*time.Second),
		WebResultLimit:  getIntEnv("WEB_RESULT_LIMIT", 10),
		ScrapeRateLimit: getFloatEnv("SCRAPE_RATE_LIMIT", 1),

		CoalesceQueries: getBoolEnv("COALESCE_QUERIES", false),

		WatchQueries:   getSliceEnv("WATCH_QUERIES", nil),
		DigestSchedule: getEnv("DIGEST_SCHEDULE", "0 0 9 * * MON"),

		TeamsWebhookURL:   getEnv("TEAMS_WEBHOOK_URL", ""),
		NotificationEmail: getEnv("NOTIFICATION_EMAIL", ""),
		SMTPHost:          getEnv("SMTP_HOST", ""),
		SMTPPort:          getIntEnv("SMTP_PORT", 587),
		SMTPUsername:      getEnv("SMTP_USERNAME", ""),
		SMTPPassword:      getEnv("SMTP_PASSWORD", ""),
	}

	// Validate required configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Location returns the configured time zone, falling back to UTC
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) validate() error {
	if _, err := time.LoadLocation(c.TimeZone); err != nil {
		return fmt.Errorf("TIMEZONE %q is not a valid location: %w", c.TimeZone, err)
	}

	if c.HackerNewsSearchURL == "" || c.WebSearchURL == "" {
		return fmt.Errorf("HN_SEARCH_URL and WEB_SEARCH_URL must not be empty")
	}

	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}

	if c.WebResultLimit <= 0 {
		return fmt.Errorf("WEB_RESULT_LIMIT must be positive")
	}

	if c.ScrapeRateLimit <= 0 {
		return fmt.Errorf("SCRAPE_RATE_LIMIT must be positive")
	}

	if len(c.WatchQueries) == 0 {
		return nil
	}

	if _, err := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow).Parse(c.DigestSchedule); err != nil {
		return fmt.Errorf("DIGEST_SCHEDULE is not a valid cron expression: %w", err)
	}

	if c.TeamsWebhookURL == "" && c.NotificationEmail == "" {
		return fmt.Errorf("WATCH_QUERIES requires a notification method (TEAMS_WEBHOOK_URL or NOTIFICATION_EMAIL)")
	}

	if c.NotificationEmail != "" {
		if c.SMTPHost == "" || c.SMTPUsername == "" || c.SMTPPassword == "" {
			return fmt.Errorf("SMTP configuration is required when NOTIFICATION_EMAIL is set")
		}
	}

	return nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		var out []string
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	}
	return defaultValue
}
