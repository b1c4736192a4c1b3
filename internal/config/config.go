// Package config provides application configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	DBPath          string
	GeminiAPIKey    string // environment fallback; the profile row takes precedence
	DefaultModel    string
	RequestTimeout  time.Duration
	Username        string
	HistoryFile     string
	LogPath         string
	LogLevel        string
	ConversationLog ConversationLogConfig
}

// ConversationLogConfig controls NDJSON transcript logging.
type ConversationLogConfig struct {
	Enabled   bool
	Dir       string
	QueueSize int
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	dataDir := defaultDataDir()

	queueSize := getEnvInt("CODEPAL_CONVLOG_QUEUE_SIZE", 1000)
	if queueSize <= 0 {
		queueSize = 1000
	}

	cfg := &Config{
		DBPath:         getEnv("CODEPAL_DB_PATH", filepath.Join(dataDir, "codepal.db")),
		GeminiAPIKey:   getEnv("GEMINI_API_KEY", ""),
		DefaultModel:   getEnv("CODEPAL_MODEL", "gemini-2.0-flash-exp"),
		RequestTimeout: getEnvDuration("CODEPAL_REQUEST_TIMEOUT", 90*time.Second),
		Username:       getEnv("CODEPAL_USER", "local"),
		HistoryFile:    getEnv("CODEPAL_HISTORY_FILE", filepath.Join(dataDir, "history")),
		LogPath:        getEnv("CODEPAL_LOG_PATH", filepath.Join(dataDir, "codepal.log")),
		LogLevel:       strings.ToLower(getEnv("CODEPAL_LOG_LEVEL", "info")),
		ConversationLog: ConversationLogConfig{
			Enabled:   getEnvBool("CODEPAL_CONVLOG_ENABLED", true),
			Dir:       getEnv("CODEPAL_CONVLOG_DIR", filepath.Join(dataDir, "conversations")),
			QueueSize: queueSize,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("CODEPAL_DB_PATH cannot be empty")
	}
	if c.Username == "" {
		return fmt.Errorf("CODEPAL_USER cannot be empty")
	}
	if c.HistoryFile == "" {
		return fmt.Errorf("CODEPAL_HISTORY_FILE cannot be empty")
	}
	if c.LogPath == "" {
		return fmt.Errorf("CODEPAL_LOG_PATH cannot be empty")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("CODEPAL_REQUEST_TIMEOUT must be > 0")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("CODEPAL_LOG_LEVEL must be one of debug, info, warn, error")
	}
	if c.ConversationLog.Dir == "" {
		return fmt.Errorf("CODEPAL_CONVLOG_DIR cannot be empty")
	}
	if c.ConversationLog.QueueSize <= 0 {
		return fmt.Errorf("CODEPAL_CONVLOG_QUEUE_SIZE must be > 0")
	}
	return nil
}

// SlogLevel maps the configured level name onto a slog level.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// defaultDataDir is ~/.codepal, or ./.codepal when the home directory is
// unknown.
func defaultDataDir() string {
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		return filepath.Join(home, ".codepal")
	}
	return ".codepal"
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}
