package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Config holds the application configuration
type Config struct {
	// GitHub
	GitHubToken             string
	GitHubAppID             int64
	GitHubAppPrivateKey     string
	GitHubAppInstallationID int64
	GitHubAPIURL            string // empty means api.github.com

	// Crawl
	DataDir           string
	CheckpointBackend string // "file" or "sqlite"
	QuotaThreshold    int
	PageSize          int
	MaxPages          int
	RequestInterval   time.Duration

	// API Server
	APIPort string
	APIHost string

	// CLI
	APIEndpoint string

	// Logging
	LogLevel  string
	LogFormat string
}

// Load loads the configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		GitHubToken:         getEnv("GITHUB_TOKEN", ""),
		GitHubAppPrivateKey: getEnv("GITHUB_APP_PRIVATE_KEY", ""),
		GitHubAPIURL:        getEnv("GITHUB_API_URL", ""),
		DataDir:             getEnv("DATA_DIR", "data"),
		CheckpointBackend:   getEnv("CHECKPOINT_BACKEND", BackendFile),
		APIPort:             getEnv("API_PORT", "8080"),
		APIHost:             getEnv("API_HOST", "localhost"),
		APIEndpoint:         getEnv("API_ENDPOINT", "http://localhost:8080"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		LogFormat:           getEnv("LOG_FORMAT", "text"),
	}

	var err error
	if cfg.GitHubAppID, err = getEnvInt64("GITHUB_APP_ID", 0); err != nil {
		return nil, err
	}
	if cfg.GitHubAppInstallationID, err = getEnvInt64("GITHUB_APP_INSTALLATION_ID", 0); err != nil {
		return nil, err
	}
	if cfg.QuotaThreshold, err = getEnvInt("QUOTA_THRESHOLD", 20); err != nil {
		return nil, err
	}
	if cfg.PageSize, err = getEnvInt("PAGE_SIZE", 100); err != nil {
		return nil, err
	}
	if cfg.MaxPages, err = getEnvInt("MAX_PAGES", 100); err != nil {
		return nil, err
	}
	if cfg.RequestInterval, err = getEnvDuration("REQUEST_INTERVAL", 100*time.Millisecond); err != nil {
		return nil, err
	}

	return cfg, nil
}

// getEnv returns the value of an environment variable or a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, &ConfigError{Field: key, Message: "must be an integer"}
	}
	return n, nil
}

func getEnvInt64(key string, defaultValue int64) (int64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, &ConfigError{Field: key, Message: "must be an integer"}
	}
	return n, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, &ConfigError{Field: key, Message: "must be a duration such as 100ms"}
	}
	return d, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.CheckpointBackend != BackendFile && c.CheckpointBackend != BackendSQLite {
		return &ConfigError{Field: "CHECKPOINT_BACKEND", Message: "must be 'file' or 'sqlite'"}
	}
	if c.DataDir == "" {
		return &ConfigError{Field: "DATA_DIR", Message: "must not be empty"}
	}
	if c.QuotaThreshold < 0 {
		return &ConfigError{Field: "QUOTA_THRESHOLD", Message: "must not be negative"}
	}
	if c.PageSize < 1 || c.PageSize > 100 {
		return &ConfigError{Field: "PAGE_SIZE", Message: "must be between 1 and 100"}
	}
	if c.MaxPages < 1 {
		return &ConfigError{Field: "MAX_PAGES", Message: "must be at least 1"}
	}
	if c.RequestInterval < 0 {
		return &ConfigError{Field: "REQUEST_INTERVAL", Message: "must not be negative"}
	}
	if c.HasAppCredentials() && c.GitHubAppInstallationID == 0 {
		return &ConfigError{Field: "GITHUB_APP_INSTALLATION_ID", Message: "is required with GITHUB_APP_ID"}
	}
	return nil
}

// CheckpointPath is the flat checkpoint file used by the file backend
func (c *Config) CheckpointPath() string {
	return filepath.Join(c.DataDir, ".pending_state.json")
}

// SQLitePath is the checkpoint database used by the sqlite backend
func (c *Config) SQLitePath() string {
	return filepath.Join(c.DataDir, "checkpoint.db")
}

// ReportPath is the final crawl report
func (c *Config) ReportPath() string {
	return filepath.Join(c.DataDir, "data.json")
}

// StatsPath is the aggregated statistics consumed by the dashboard
func (c *Config) StatsPath() string {
	return filepath.Join(c.DataDir, "ui-stats.json")
}

// DetailsPath is the per pull request detail list consumed by the dashboard
func (c *Config) DetailsPath() string {
	return filepath.Join(c.DataDir, "ui-details.json")
}

// LockPath guards against two crawls sharing a data directory
func (c *Config) LockPath() string {
	return filepath.Join(c.DataDir, ".crawl.lock")
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
