package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration loaded from environment and file.
// Priority: env vars → config.toml → defaults
type Config struct {
	// ServerPort is the address to bind the server to (e.g., ":8080")
	ServerPort string

	// DatabaseURL is a postgres:// URL or a SQLite file path.
	// Empty means the SQLite file in DataDir.
	DatabaseURL string

	// LogLevel is one of debug, info, warn, error.
	LogLevel string

	LLM       LLMConfig
	Usage     UsageConfig
	History   HistoryConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
}

// LLMConfig configures the chat completion API.
type LLMConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// UsageConfig configures the daily token ledger.
type UsageConfig struct {
	DailyTokenBudget int64
	// Increment is "atomic" or "read_modify_write".
	Increment string
}

// HistoryConfig configures run retention.
type HistoryConfig struct {
	// RetentionDays of 0 keeps runs forever.
	RetentionDays int
	SweepInterval time.Duration
}

// AuthConfig configures sessions.
type AuthConfig struct {
	SessionTTL    time.Duration
	SecureCookies bool
}

// RateLimitConfig bounds generation requests per account.
// RequestsPerMinute of 0 disables the limiter.
type RateLimitConfig struct {
	RequestsPerMinute int
	Burst             int
}

// Defaults
const (
	DefaultServerPort       = ":8080"
	DefaultModel            = "gpt-4o-mini"
	DefaultLLMTimeout       = 60 * time.Second
	DefaultDailyTokenBudget = 2000
	DefaultRetentionDays    = 30
	DefaultSweepInterval    = time.Hour
	DefaultSessionTTL       = 7 * 24 * time.Hour
	DefaultRequestsPerMin   = 30
	DefaultBurst            = 5
)

// Load reads configuration from the TOML file at path (ConfigPath() when
// empty) and environment variables. Environment variables override file
// config values.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}
	fc, err := LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	cfg := &Config{
		ServerPort:  getEnvOrFile("SERVER_PORT", fc.ServerPort, DefaultServerPort),
		DatabaseURL: getEnvOrFile("DATABASE_URL", fc.DatabaseURL, ""),
		LogLevel:    strings.ToLower(getEnvOrFile("LOG_LEVEL", fc.LogLevel, "info")),
		LLM: LLMConfig{
			APIKey:  getEnvOrFile("OPENAI_API_KEY", fc.LLM.APIKey, ""),
			BaseURL: getEnvOrFile("OPENAI_BASE_URL", fc.LLM.BaseURL, ""),
			Model:   getEnvOrFile("OPENAI_MODEL", fc.LLM.Model, DefaultModel),
		},
		Usage: UsageConfig{
			Increment: getEnvOrFile("USAGE_INCREMENT", fc.Usage.Increment, "atomic"),
		},
		Auth: AuthConfig{
			SecureCookies: getEnvBoolOrFile("SECURE_COOKIES", fc.Auth.SecureCookies, false),
		},
	}

	if cfg.LLM.Timeout, err = getEnvDurationOrFile("OPENAI_TIMEOUT", fc.LLM.Timeout, DefaultLLMTimeout); err != nil {
		return nil, err
	}
	if cfg.Usage.DailyTokenBudget, err = getEnvIntOrFile("DAILY_TOKEN_BUDGET", fc.Usage.DailyTokenBudget, DefaultDailyTokenBudget); err != nil {
		return nil, err
	}
	retention, err := getEnvIntOrFile("HISTORY_RETENTION_DAYS", fc.History.RetentionDays, DefaultRetentionDays)
	if err != nil {
		return nil, err
	}
	cfg.History.RetentionDays = int(retention)
	if cfg.History.SweepInterval, err = getEnvDurationOrFile("HISTORY_SWEEP_INTERVAL", fc.History.SweepInterval, DefaultSweepInterval); err != nil {
		return nil, err
	}
	if cfg.Auth.SessionTTL, err = getEnvDurationOrFile("SESSION_TTL", fc.Auth.SessionTTL, DefaultSessionTTL); err != nil {
		return nil, err
	}
	rpm, err := getEnvIntOrFile("RATE_LIMIT_RPM", fc.RateLimit.RequestsPerMinute, DefaultRequestsPerMin)
	if err != nil {
		return nil, err
	}
	burst, err := getEnvIntOrFile("RATE_LIMIT_BURST", fc.RateLimit.Burst, DefaultBurst)
	if err != nil {
		return nil, err
	}
	cfg.RateLimit = RateLimitConfig{RequestsPerMinute: int(rpm), Burst: int(burst)}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the server cannot run with.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be one of debug, info, warn, error; got %q", c.LogLevel)
	}
	switch c.Usage.Increment {
	case "atomic", "read_modify_write":
	default:
		return fmt.Errorf("usage.increment must be atomic or read_modify_write; got %q", c.Usage.Increment)
	}
	if c.Usage.DailyTokenBudget <= 0 {
		return fmt.Errorf("usage.daily_token_budget must be positive; got %d", c.Usage.DailyTokenBudget)
	}
	if c.LLM.Timeout <= 0 {
		return fmt.Errorf("llm.timeout must be positive; got %s", c.LLM.Timeout)
	}
	if c.History.RetentionDays < 0 {
		return fmt.Errorf("history.retention_days must not be negative; got %d", c.History.RetentionDays)
	}
	if c.History.SweepInterval <= 0 {
		return fmt.Errorf("history.sweep_interval must be positive; got %s", c.History.SweepInterval)
	}
	if c.Auth.SessionTTL <= 0 {
		return fmt.Errorf("auth.session_ttl must be positive; got %s", c.Auth.SessionTTL)
	}
	if c.RateLimit.RequestsPerMinute < 0 || c.RateLimit.Burst < 0 {
		return fmt.Errorf("rate_limit values must not be negative")
	}
	return nil
}

// DSN returns the database URL, falling back to the SQLite file in DataDir.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return DBPath()
}

// getEnvOrFile returns env value, file value, or default (in priority order)
func getEnvOrFile(key, fileValue, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	if fileValue != "" {
		return fileValue
	}
	return defaultValue
}

// getEnvBoolOrFile returns env bool, file bool, or default (in priority order)
func getEnvBoolOrFile(key string, fileValue *bool, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	if fileValue != nil {
		return *fileValue
	}
	return defaultValue
}

// getEnvIntOrFile returns env int, file int, or default (in priority order)
func getEnvIntOrFile(key string, fileValue *int64, defaultValue int64) (int64, error) {
	if value := os.Getenv(key); value != "" {
		n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", key, err)
		}
		return n, nil
	}
	if fileValue != nil {
		return *fileValue, nil
	}
	return defaultValue, nil
}

// getEnvDurationOrFile returns env duration, file duration, or default (in
// priority order). Bare integers are read as seconds.
func getEnvDurationOrFile(key, fileValue string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		raw = fileValue
	}
	if raw == "" {
		return defaultValue, nil
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
