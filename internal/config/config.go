// Package config reads service settings from the environment.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port               string
	RateLimitPerMinute int
	// TrustProxyHeaders takes the client IP from X-Forwarded-For / X-Real-IP.
	// Enable only behind a proxy that sets them.
	TrustProxyHeaders bool

	// Storage
	DataBackend  string
	SQLiteDBPath string
	DataDir      string
	SeedDemoData bool

	// Analytics memo cache
	AnalyticsCacheSize int
	AnalyticsCacheTTL  time.Duration

	// AMQP, optional for the server
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets mirror (worker)
	GoogleSpreadsheetID  string
	GoogleSheetName      string
	MirrorReconcileEvery time.Duration

	LogLevel string
}

var validBackends = []string{"memory", "sqlite"}

func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "8081"),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 120),
		TrustProxyHeaders:  getEnvBool("TRUST_PROXY_HEADERS", false),

		DataBackend:  getEnv("DATA_BACKEND", "memory"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/finvue.db"),
		DataDir:      getEnv("DATA_DIR", "data"),
		SeedDemoData: getEnvBool("SEED_DEMO_DATA", true),

		AnalyticsCacheSize: getEnvInt("ANALYTICS_CACHE_SIZE", 128),
		AnalyticsCacheTTL:  getEnvDuration("ANALYTICS_CACHE_TTL", 10*time.Minute),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "finvue"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "ledger_events"),

		GoogleSpreadsheetID:  getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:      getEnv("GOOGLE_SHEET_NAME", "Transactions"),
		MirrorReconcileEvery: getEnvDuration("MIRROR_RECONCILE_INTERVAL", 10*time.Minute),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// Validate checks the settings the server needs and returns all problems
// in one error.
func (c *Config) Validate() error {
	return joinProblems(c.serverProblems())
}

// ValidateWorker also requires the AMQP queue and the mirror spreadsheet.
func (c *Config) ValidateWorker() error {
	problems := c.serverProblems()
	if c.AMQPURL == "" {
		problems = append(problems, "AMQP URL is required for the worker")
	}
	if c.GoogleSpreadsheetID == "" {
		problems = append(problems, "Google Spreadsheet ID is required for the worker")
	}
	if c.GoogleSheetName == "" {
		problems = append(problems, "Google Sheet name cannot be empty")
	}
	if c.MirrorReconcileEvery < time.Minute {
		problems = append(problems, fmt.Sprintf("invalid reconcile interval %v: must be at least 1 minute", c.MirrorReconcileEvery))
	}
	return joinProblems(problems)
}

func (c *Config) serverProblems() []string {
	var problems []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		problems = append(problems, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		problems = append(problems, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}
	if c.DataBackend == "sqlite" && c.SQLiteDBPath == "" {
		problems = append(problems, "SQLite database path cannot be empty when using sqlite backend")
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			problems = append(problems, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			problems = append(problems, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.AnalyticsCacheSize < 1 {
		problems = append(problems, fmt.Sprintf("invalid analytics cache size %d: must be at least 1", c.AnalyticsCacheSize))
	}
	if c.AnalyticsCacheTTL < time.Second {
		problems = append(problems, fmt.Sprintf("invalid analytics cache TTL %v: must be at least 1 second", c.AnalyticsCacheTTL))
	}
	if c.RateLimitPerMinute < 1 {
		problems = append(problems, fmt.Sprintf("invalid rate limit %d: must be at least 1 per minute", c.RateLimitPerMinute))
	}

	return problems
}

func joinProblems(problems []string) error {
	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
