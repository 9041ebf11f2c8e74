package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/glebk/moodbot/internal/domain"
)

// Environments accepted in APP_ENV
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config holds application configuration
type Config struct {
	TelegramToken string
	DatabasePath  string
	Location      *time.Location
	Env           string

	// OwnerChatID restricts the bot to one chat; 0 accepts any chat
	OwnerChatID int64

	LogLevel string
	LogFile  string

	QuestionBankPath string
	SessionTTL       time.Duration

	StorageKeys domain.StorageKeys
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if not exists)
	_ = godotenv.Load()

	ownerID, err := getInt64Env("OWNER_CHAT_ID", 0)
	if err != nil {
		return nil, err
	}

	loc, err := time.LoadLocation(getEnv("TIMEZONE", "Local"))
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}

	ttl, err := time.ParseDuration(getEnv("SESSION_TTL", "30m"))
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_TTL: %w", err)
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("invalid SESSION_TTL: must be positive")
	}

	env := getEnv("APP_ENV", EnvProduction)
	if env != EnvDevelopment && env != EnvProduction {
		return nil, fmt.Errorf("invalid APP_ENV %q: want %s or %s", env, EnvDevelopment, EnvProduction)
	}

	defaults := domain.DefaultStorageKeys()

	return &Config{
		TelegramToken:    os.Getenv("TELEGRAM_BOT_TOKEN"),
		OwnerChatID:      ownerID,
		DatabasePath:     getEnv("DATABASE_PATH", "./moodbot.db"),
		Location:         loc,
		Env:              env,
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFile:          os.Getenv("LOG_FILE"),
		QuestionBankPath: os.Getenv("QUESTION_BANK_PATH"),
		SessionTTL:       ttl,
		StorageKeys: domain.StorageKeys{
			MoodEntries:  getEnv("MOOD_ENTRIES_KEY", defaults.MoodEntries),
			DiaryEntries: getEnv("DIARY_ENTRIES_KEY", defaults.DiaryEntries),
		},
	}, nil
}

// IsDevelopment reports whether the app runs in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == EnvDevelopment
}

// IsOwner checks whether chatID may use the bot
func (c *Config) IsOwner(chatID int64) bool {
	return c.OwnerChatID == 0 || c.OwnerChatID == chatID
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt64Env(key string, def int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
