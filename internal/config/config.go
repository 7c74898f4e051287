package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	apperrors "github.com/jimlind/announcecast/internal/core/errors"
	"github.com/jimlind/announcecast/internal/logutils"
	"github.com/joho/godotenv"
)

const (
	DefaultLogLevel        = "info"
	DefaultPollInterval    = 60 * time.Second
	DefaultFetchTimeout    = 15 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
	DefaultPostedHistory   = 5
)

// Version is set at build time with
// -ldflags "-X github.com/jimlind/announcecast/internal/config.Version=v1.2.3".
var Version = "dev"

// DefaultUserAgent identifies this build to feed hosts.
func DefaultUserAgent() string {
	return "announcecast/" + Version
}

// Config is read once at startup by Load and passed down explicitly.
type Config struct {
	// DiscordBotToken is handed to the gateway client as read. It is never
	// defaulted or logged.
	DiscordBotToken string
	LogLevel        string

	AnnouncerSettings AnnouncerConfig
	ShutdownTimeout   time.Duration
}

type AnnouncerConfig struct {
	PollInterval  time.Duration
	FetchTimeout  time.Duration
	PostedHistory int
	UserAgent     string
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, apperrors.Wrap(apperrors.ErrInvalidConfig, err).
			WithDetails(map[string]any{"file": ".env"})
	}
	return NewConfig()
}

// NewConfig builds a Config from the current environment only.
func NewConfig() (*Config, error) {
	config := &Config{
		DiscordBotToken: os.Getenv("DISCORD_BOT_TOKEN"),
		LogLevel:        getEnv("LOG_LEVEL", DefaultLogLevel),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", DefaultShutdownTimeout),

		AnnouncerSettings: AnnouncerConfig{
			PollInterval:  getEnvDuration("POLL_INTERVAL", DefaultPollInterval),
			FetchTimeout:  getEnvDuration("FEED_FETCH_TIMEOUT", DefaultFetchTimeout),
			PostedHistory: getEnvInt("POSTED_HISTORY", DefaultPostedHistory),
			UserAgent:     getEnv("FEED_USER_AGENT", DefaultUserAgent()),
		},
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	if config.DiscordBotToken == "" {
		logutils.Log.Warn("DISCORD_BOT_TOKEN is empty, the gateway will reject the login")
	}

	logutils.Log.Debug("Configuration loaded successfully")
	return config, nil
}

func (c *Config) GetAnnouncerSettings() AnnouncerConfig {
	return c.AnnouncerSettings
}
