package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

// isolate points the data dir at a temp dir and clears every variable Load reads.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("OCTAGRAM_HOME", dir)
	for _, key := range []string{
		"SERVER_PORT", "DATABASE_URL", "LOG_LEVEL",
		"OPENAI_API_KEY", "OPENAI_BASE_URL", "OPENAI_MODEL", "OPENAI_TIMEOUT",
		"DAILY_TOKEN_BUDGET", "USAGE_INCREMENT",
		"HISTORY_RETENTION_DAYS", "HISTORY_SWEEP_INTERVAL",
		"SESSION_TTL", "SECURE_COOKIES", "RATE_LIMIT_RPM", "RATE_LIMIT_BURST",
	} {
		t.Setenv(key, "")
	}
	return dir
}

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	dir := isolate(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	want := &Config{
		ServerPort: ":8080",
		LogLevel:   "info",
		LLM:        LLMConfig{Model: "gpt-4o-mini", Timeout: 60 * time.Second},
		Usage:      UsageConfig{DailyTokenBudget: 2000, Increment: "atomic"},
		History:    HistoryConfig{RetentionDays: 30, SweepInterval: time.Hour},
		Auth:       AuthConfig{SessionTTL: 168 * time.Hour},
		RateLimit:  RateLimitConfig{RequestsPerMinute: 30, Burst: 5},
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
	if got := cfg.DSN(); got != filepath.Join(dir, "octagram.db") {
		t.Errorf("DSN() = %q", got)
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := isolate(t)
	path := writeConfig(t, dir, `
server_port = ":9090"
database_url = "postgres://octagram@localhost/octagram"
log_level = "debug"

[llm]
api_key = "sk-file"
model = "gpt-4.1-mini"
timeout = "30s"

[usage]
daily_token_budget = 5000
increment = "read_modify_write"

[history]
retention_days = 0
sweep_interval = "15m"

[auth]
session_ttl = "24h"
secure_cookies = true

[rate_limit]
requests_per_minute = 0
`)

	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("DAILY_TOKEN_BUDGET", "100")
	t.Setenv("OPENAI_TIMEOUT", "45")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	want := &Config{
		ServerPort:  ":9090",
		DatabaseURL: "postgres://octagram@localhost/octagram",
		LogLevel:    "debug",
		LLM:         LLMConfig{APIKey: "sk-env", Model: "gpt-4.1-mini", Timeout: 45 * time.Second},
		Usage:       UsageConfig{DailyTokenBudget: 100, Increment: "read_modify_write"},
		History:     HistoryConfig{RetentionDays: 0, SweepInterval: 15 * time.Minute},
		Auth:        AuthConfig{SessionTTL: 24 * time.Hour, SecureCookies: true},
		RateLimit:   RateLimitConfig{RequestsPerMinute: 0, Burst: 5},
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
	if cfg.DSN() != cfg.DatabaseURL {
		t.Errorf("DSN() = %q, want database_url", cfg.DSN())
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		env     map[string]string
		wantErr string
	}{
		{name: "bad toml", file: "server_port = ", wantErr: "load"},
		{name: "bad budget env", env: map[string]string{"DAILY_TOKEN_BUDGET": "lots"}, wantErr: "DAILY_TOKEN_BUDGET"},
		{name: "zero budget", file: "[usage]\ndaily_token_budget = 0", wantErr: "daily_token_budget"},
		{name: "bad increment", env: map[string]string{"USAGE_INCREMENT": "eventual"}, wantErr: "usage.increment"},
		{name: "bad log level", env: map[string]string{"LOG_LEVEL": "loud"}, wantErr: "log_level"},
		{name: "bad duration", file: "[auth]\nsession_ttl = \"a week\"", wantErr: "SESSION_TTL"},
		{name: "negative retention", file: "[history]\nretention_days = -1", wantErr: "retention_days"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dir := isolate(t)
			path := ""
			if tc.file != "" {
				path = writeConfig(t, dir, tc.file)
			}
			for k, v := range tc.env {
				t.Setenv(k, v)
			}

			_, err := Load(path)
			if err == nil {
				t.Fatal("Load() error = nil")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("Load() error = %q, want it to mention %q", err, tc.wantErr)
			}
		})
	}
}

func TestEnsureConfigFile(t *testing.T) {
	dir := isolate(t)

	if err := EnsureConfigFile(); err != nil {
		t.Fatalf("EnsureConfigFile() error: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "config.toml"))
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if !strings.HasPrefix(string(data), "# Octagram Configuration") {
		t.Errorf("unexpected config header: %q", strings.SplitN(string(data), "\n", 2)[0])
	}

	// The commented template must load as an empty config.
	if _, err := Load(""); err != nil {
		t.Errorf("Load() on the template error: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte("server_port = \":1\"\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := EnsureConfigFile(); err != nil {
		t.Fatalf("EnsureConfigFile() error: %v", err)
	}
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.ServerPort != ":1" {
		t.Errorf("EnsureConfigFile overwrote an existing file")
	}
}
