package conf

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config represents application configuration
type Config struct {
	// Webhook configuration
	Webhook WebhookConfig

	// Platform API configuration
	Platform PlatformConfig

	// Ledger configuration
	Ledger LedgerConfig

	// Dispatch configuration
	Dispatch DispatchConfig

	// Rules file path
	RulesPath string

	// Debug mode
	Debug bool
}

// WebhookConfig contains inbound webhook configuration
type WebhookConfig struct {
	Secret string
	Port   int
}

// PlatformConfig contains platform API configuration
type PlatformConfig struct {
	BaseURL     string
	Token       string
	PostTimeout time.Duration
}

// LedgerConfig contains dedupe ledger configuration
type LedgerConfig struct {
	DBPath string
}

// DispatchConfig contains dispatcher configuration
type DispatchConfig struct {
	QueueCapacity  int
	MaxAttempts    int
	Interval       time.Duration
	PostsPerMinute int
	BackoffInitial time.Duration
	BackoffMax     time.Duration
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() *Config {
	// Ledger DB path
	ledgerDBPath := os.Getenv("LEDGER_DB_PATH")
	if ledgerDBPath == "" {
		homeDir, _ := os.UserHomeDir()
		ledgerDBPath = filepath.Join(homeDir, ".replypilot", "ledger.db")
	}

	rulesPath := os.Getenv("RULES_PATH")
	if rulesPath == "" {
		rulesPath = "rules.yaml"
	}

	baseURL := os.Getenv("PLATFORM_BASE_URL")
	if baseURL == "" {
		baseURL = "https://api.platform.example"
	}

	return &Config{
		Webhook: WebhookConfig{
			Secret: os.Getenv("WEBHOOK_SECRET"),
			Port:   envInt("HTTP_PORT", 8090),
		},
		Platform: PlatformConfig{
			BaseURL:     baseURL,
			Token:       os.Getenv("PLATFORM_TOKEN"),
			PostTimeout: time.Duration(envInt("POST_TIMEOUT_SECONDS", 10)) * time.Second,
		},
		Ledger: LedgerConfig{
			DBPath: ledgerDBPath,
		},
		Dispatch: DispatchConfig{
			QueueCapacity:  envInt("QUEUE_CAPACITY", 256),
			MaxAttempts:    envInt("MAX_ATTEMPTS", 5),
			Interval:       time.Duration(envInt("DISPATCH_INTERVAL_SECONDS", 5)) * time.Second,
			PostsPerMinute: envInt("RATE_LIMIT_PER_MINUTE", 30),
			BackoffInitial: time.Duration(envInt("BACKOFF_INITIAL_SECONDS", 2)) * time.Second,
			BackoffMax:     time.Duration(envInt("BACKOFF_MAX_SECONDS", 300)) * time.Second,
		},
		RulesPath: rulesPath,
		Debug:     os.Getenv("DEBUG") == "true",
	}
}

// envInt reads an integer environment variable with a default
func envInt(name string, def int) int {
	if val := os.Getenv(name); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return def
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Webhook.Secret == "" {
		return &ConfigError{Field: "WEBHOOK_SECRET", Message: "required"}
	}
	if c.Platform.Token == "" {
		return &ConfigError{Field: "PLATFORM_TOKEN", Message: "required"}
	}
	if c.Dispatch.QueueCapacity < 1 {
		return &ConfigError{Field: "QUEUE_CAPACITY", Message: "must be positive"}
	}
	if c.Dispatch.MaxAttempts < 1 {
		return &ConfigError{Field: "MAX_ATTEMPTS", Message: "must be positive"}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
