package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"paycheck/internal/core"
	"paycheck/internal/pipeline"
)

type Config struct {
	// HTTP Server
	Port string
	// mutating requests allowed per client per minute
	RateLimit int

	// Persistence
	DataBackend  string
	DataDir      string
	SQLiteDBPath string

	// AMQP, disabled when AMQPURL is empty
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets export
	GoogleSpreadsheetID      string
	GoogleServiceAccountFile string
	GoogleServiceAccountJSON string
	ExportInterval           time.Duration

	// Pipeline
	StartingBalance decimal.Decimal
	DepositMarker   string
	IncomeSubstring string
	IncomePolicy    string

	DashboardCacheTTL time.Duration

	// Logging
	LogLevel  string
	LogFormat string

	// values present in the environment that did not parse
	invalid []envError
}

type envError struct {
	key string
	msg string
}

func Load() *Config {
	cfg := &Config{
		Port: getEnv("PORT", "8081"),

		DataBackend:  getEnv("DATA_BACKEND", "files"),
		DataDir:      getEnv("DATA_DIR", "./data"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/paycheck.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "paycheck"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "dashboard_refresh"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),

		DepositMarker:   getEnv("DEPOSIT_MARKER", pipeline.DefaultDepositMarker),
		IncomeSubstring: getEnv("INCOME_SUBSTRING", pipeline.DefaultIncomeSubstring),
		IncomePolicy:    getEnv("INCOME_POLICY", string(pipeline.FirstInPeriod)),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}
	cfg.RateLimit = cfg.getEnvInt("RATE_LIMIT", 60)
	cfg.ExportInterval = cfg.getEnvDuration("EXPORT_INTERVAL", 5*time.Minute)
	cfg.DashboardCacheTTL = cfg.getEnvDuration("DASHBOARD_CACHE_TTL", 5*time.Minute)
	cfg.StartingBalance = cfg.getEnvDecimal("STARTING_BALANCE", decimal.Zero)

	return cfg
}

// PipelineOptions returns the pipeline settings. Call after Validate.
func (c *Config) PipelineOptions() pipeline.Options {
	policy, _ := pipeline.ParseIncomePolicy(c.IncomePolicy)
	return pipeline.Options{
		DepositMarker:   c.DepositMarker,
		IncomeSubstring: c.IncomeSubstring,
		StartingBalance: c.StartingBalance,
		IncomePolicy:    policy,
	}
}

// AMQPEnabled reports whether refresh messages should be published.
func (c *Config) AMQPEnabled() bool {
	return c.AMQPURL != ""
}

// ExportEnabled reports whether the Google Sheets export is configured.
func (c *Config) ExportEnabled() bool {
	return c.GoogleSpreadsheetID != ""
}

// EnvError reports the environment values among keys that did not parse, or
// every such value when keys is empty. Load falls back to the default for
// these, so callers that skip Validate must check them.
func (c *Config) EnvError(keys ...string) error {
	var errors []string
	for _, e := range c.invalid {
		if len(keys) == 0 || slices.Contains(keys, e.key) {
			errors = append(errors, e.msg)
		}
	}
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string
	for _, e := range c.invalid {
		errors = append(errors, e.msg)
	}

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.RateLimit < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1", c.RateLimit))
	}

	validBackends := []string{"files", "sqlite", "memory"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	switch c.DataBackend {
	case "files":
		if c.DataDir == "" {
			errors = append(errors, "data directory cannot be empty when using files backend")
		} else if err := ensureDir(c.DataDir); err != nil {
			errors = append(errors, fmt.Sprintf("cannot create data directory '%s': %v", c.DataDir, err))
		}
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if err := ensureDir(dir); err != nil {
				errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
			}
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.GoogleSpreadsheetID != "" {
		hasFile := c.GoogleServiceAccountFile != ""
		if !hasFile && c.GoogleServiceAccountJSON == "" && os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") == "" {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_SERVICE_ACCOUNT_JSON must be provided for sheets export")
		}
		if hasFile {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	if c.ExportInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid export interval %v: must be at least 1 second", c.ExportInterval))
	} else if c.ExportInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid export interval %v: must be at most 24 hours", c.ExportInterval))
	}
	if c.DashboardCacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid dashboard cache TTL %v: must not be negative", c.DashboardCacheTTL))
	}

	if strings.TrimSpace(c.DepositMarker) == "" {
		errors = append(errors, "deposit marker cannot be empty")
	}
	if strings.TrimSpace(c.IncomeSubstring) == "" {
		errors = append(errors, "income substring cannot be empty")
	}
	if _, err := pipeline.ParseIncomePolicy(c.IncomePolicy); err != nil {
		errors = append(errors, fmt.Sprintf("invalid income policy '%s': must be one of [%s %s %s]",
			c.IncomePolicy, pipeline.FirstInPeriod, pipeline.LatestInPeriod, pipeline.LegacySlice))
	}

	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

func ensureDir(dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return os.MkdirAll(dir, 0o755)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func (c *Config) getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err == nil {
			return n
		}
		c.reject(key, fmt.Sprintf("invalid %s '%s': must be an integer", key, value))
	}
	return defaultValue
}

func (c *Config) getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		d, err := time.ParseDuration(value)
		if err == nil {
			return d
		}
		c.reject(key, fmt.Sprintf("invalid %s '%s': must be a duration", key, value))
	}
	return defaultValue
}

func (c *Config) getEnvDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	if value := os.Getenv(key); value != "" {
		d, err := core.ParseAmount(value)
		if err == nil {
			return d
		}
		c.reject(key, fmt.Sprintf("invalid %s '%s': must be a decimal number", key, value))
	}
	return defaultValue
}

func (c *Config) reject(key, msg string) {
	c.invalid = append(c.invalid, envError{key: key, msg: msg})
}
