package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds all application configuration
type Config struct {
	BotToken      string `env:"TELEGRAM_BOT_TOKEN"`
	ChannelID     int64  `env:"CHANNEL_ID" envDefault:"-1002510265632"`
	ChannelIDAlt  int64  `env:"CHANNEL_ID_ALT" envDefault:"1002510265632"`
	ChannelHandle string `env:"CHANNEL_HANDLE" envDefault:"@bacboprediction1"`
	ChannelTitle  string `env:"CHANNEL_TITLE" envDefault:"KJ_BACBOT"`

	FeedBaseURL string        `env:"FEED_BASE_URL" envDefault:"https://elephant.bet"`
	FeedTimeout time.Duration `env:"FEED_TIMEOUT" envDefault:"5s"`
	FeedTTL     time.Duration `env:"FEED_TTL" envDefault:"10s"`

	PostInterval    time.Duration `env:"POST_INTERVAL" envDefault:"25s"`
	ScoreboardEvery time.Duration `env:"SCOREBOARD_EVERY" envDefault:"10m"`
	MaxGales        int           `env:"MAX_GALES" envDefault:"1"`

	MaxSilence   time.Duration `env:"MAX_SILENCE" envDefault:"60s"`
	RestartLimit int           `env:"RESTART_LIMIT" envDefault:"5"`

	ScheduleEnabled bool   `env:"SCHEDULE_ENABLED" envDefault:"true"`
	SentryDSN       string `env:"SENTRY_DSN"`
	LogLevel        string `env:"LOG_LEVEL" envDefault:"info"`
	LogDir          string `env:"LOG_DIR" envDefault:"logs"`
}

// Load initializes configuration from environment variables
func Load() (*Config, error) {
	// Load environment variables from .env file if present
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}

	var cfg Config

	cfg.BotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	cfg.ChannelID = getEnvInt64WithDefault("CHANNEL_ID", -1002510265632)
	cfg.ChannelIDAlt = getEnvInt64WithDefault("CHANNEL_ID_ALT", 1002510265632)
	cfg.ChannelHandle = getEnvWithDefault("CHANNEL_HANDLE", "@bacboprediction1")
	cfg.ChannelTitle = getEnvWithDefault("CHANNEL_TITLE", "KJ_BACBOT")

	cfg.FeedBaseURL = getEnvWithDefault("FEED_BASE_URL", "https://elephant.bet")
	cfg.FeedTimeout = getEnvDurationWithDefault("FEED_TIMEOUT", 5*time.Second)
	cfg.FeedTTL = getEnvDurationWithDefault("FEED_TTL", 10*time.Second)

	cfg.PostInterval = getEnvDurationWithDefault("POST_INTERVAL", 25*time.Second)
	cfg.ScoreboardEvery = getEnvDurationWithDefault("SCOREBOARD_EVERY", 10*time.Minute)
	cfg.MaxGales = getEnvIntWithDefault("MAX_GALES", 1)

	cfg.MaxSilence = getEnvDurationWithDefault("MAX_SILENCE", 60*time.Second)
	cfg.RestartLimit = getEnvIntWithDefault("RESTART_LIMIT", 5)

	cfg.ScheduleEnabled = getEnvBoolWithDefault("SCHEDULE_ENABLED", true)
	cfg.SentryDSN = os.Getenv("SENTRY_DSN")
	cfg.LogLevel = getEnvWithDefault("LOG_LEVEL", "info")
	cfg.LogDir = getEnvWithDefault("LOG_DIR", "logs")

	return &cfg, nil
}

// Helper functions for environment variable handling
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64WithDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDurationWithDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvBoolWithDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}
