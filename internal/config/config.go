package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the configuration for the application.
type Config struct {
	DatabasePath string
	StateDir     string
	Port         string
	LogLevel     string

	// UserID identifies the household account on the remote store.
	// Empty means no session: the shopping list is only kept locally.
	UserID string

	SyncDebounce time.Duration
	PendingTTL   time.Duration

	GeminiAPIKey string
	GroqAPIKey   string

	// Telegram Config
	TelegramBotToken       string
	TelegramWebhookURL     string
	TelegramAllowedUserIDs []int64
	AdminTelegramID        int64

	// Defaults from the optional CONFIG_FILE.
	Stores           []string
	CustomCategories []string
}

// fileConfig is the shape of the optional YAML file pointed to by CONFIG_FILE.
type fileConfig struct {
	Stores           []string `yaml:"stores"`
	CustomCategories []string `yaml:"custom_categories"`
	SyncDebounce     string   `yaml:"sync_debounce"`
}

// NewFromEnv creates a new Config object from environment variables.
func NewFromEnv() (*Config, error) {
	cfg := &Config{
		DatabasePath: envOrDefault("DATABASE_PATH", "data/meal-planner.db"),
		StateDir:     envOrDefault("STATE_DIR", "data/state"),
		Port:         envOrDefault("PORT", "8080"),
		LogLevel:     envOrDefault("LOG_LEVEL", "info"),
		UserID:       os.Getenv("USER_ID"),
		SyncDebounce: time.Second,
		PendingTTL:   10 * time.Second,
		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		GroqAPIKey:   os.Getenv("GROQ_API_KEY"),
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if v := os.Getenv("SYNC_DEBOUNCE"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("SYNC_DEBOUNCE is not a valid duration: %w", err)
		}
		cfg.SyncDebounce = d
	}

	if v := os.Getenv("PENDING_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("PENDING_TTL is not a valid duration: %w", err)
		}
		cfg.PendingTTL = d
	}

	// Telegram Config (optional; the bot is only started when a token is present)
	cfg.TelegramBotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	cfg.TelegramWebhookURL = os.Getenv("TELEGRAM_WEBHOOK_URL")
	if cfg.TelegramBotToken != "" && cfg.TelegramWebhookURL == "" {
		return nil, fmt.Errorf("TELEGRAM_WEBHOOK_URL environment variable not set")
	}

	ids, err := parseIDList(os.Getenv("TELEGRAM_ALLOWED_USER_IDS"))
	if err != nil {
		return nil, fmt.Errorf("TELEGRAM_ALLOWED_USER_IDS is invalid: %w", err)
	}
	cfg.TelegramAllowedUserIDs = ids

	if v := os.Getenv("ADMIN_TELEGRAM_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("ADMIN_TELEGRAM_ID is invalid: %w", err)
		}
		cfg.AdminTelegramID = id
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	c.Stores = fc.Stores
	c.CustomCategories = fc.CustomCategories
	if fc.SyncDebounce != "" {
		d, err := time.ParseDuration(fc.SyncDebounce)
		if err != nil {
			return fmt.Errorf("sync_debounce in %s is not a valid duration: %w", path, err)
		}
		c.SyncDebounce = d
	}
	return nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseIDList(s string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
