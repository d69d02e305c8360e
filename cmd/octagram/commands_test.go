package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mandalnilabja/octagram/internal/storage"
	"github.com/mandalnilabja/octagram/internal/usage"
)

// seedStore creates a database with one account and returns the env the
// commands need to find it.
func seedStore(t *testing.T, seed func(ctx context.Context, store storage.Storage, acct *storage.Account)) (configPath string) {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "octagram.db")
	t.Setenv("DATABASE_URL", dbPath)
	t.Setenv("DAILY_TOKEN_BUDGET", "2000")
	t.Setenv("LOG_LEVEL", "error")

	ctx := context.Background()
	store, err := storage.Open(ctx, dbPath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	acct := &storage.Account{Email: "ada@example.com", PasswordHash: "x"}
	if err := store.CreateAccount(ctx, acct); err != nil {
		t.Fatalf("create account: %v", err)
	}
	if seed != nil {
		seed(ctx, store, acct)
	}
	return filepath.Join(dir, "config.toml")
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestMigrateCmd(t *testing.T) {
	cfgPath := seedStore(t, nil)

	out, err := execute(t, "migrate", "--config", cfgPath)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if !strings.Contains(out, "schema is up to date") {
		t.Errorf("output = %q", out)
	}
}

func TestUsageTodayCmd(t *testing.T) {
	cfgPath := seedStore(t, func(ctx context.Context, store storage.Storage, acct *storage.Account) {
		now := time.Now()
		if _, err := store.IncrementDailyUsage(ctx, acct.ID, usage.Day(now), 1250, now); err != nil {
			t.Fatalf("seed usage: %v", err)
		}
	})

	out, err := execute(t, "usage", "today", "--config", cfgPath, "--account", "ADA@example.com", "--no-color")
	if err != nil {
		t.Fatalf("usage today: %v", err)
	}
	for _, want := range []string{"ada@example.com", "1,250", "2,000", "750"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestUsageTodayCmd_UnknownAccount(t *testing.T) {
	cfgPath := seedStore(t, nil)

	_, err := execute(t, "usage", "today", "--config", cfgPath, "--account", "nobody@example.com")
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestPurgeCmd(t *testing.T) {
	cfgPath := seedStore(t, func(ctx context.Context, store storage.Storage, acct *storage.Account) {
		for _, age := range []time.Duration{90 * 24 * time.Hour, time.Hour} {
			run := &storage.Run{
				AccountID: acct.ID,
				Type:      storage.RunTranslate,
				InputText: "hola",
				CreatedAt: time.Now().Add(-age).UTC(),
			}
			if err := store.CreateRun(ctx, run); err != nil {
				t.Fatalf("seed run: %v", err)
			}
		}
	})

	out, err := execute(t, "purge", "--config", cfgPath, "--older-than", "30")
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if !strings.Contains(out, "deleted 1 runs") {
		t.Errorf("output = %q", out)
	}

	if _, err := execute(t, "purge", "--config", cfgPath, "--older-than", "0"); err == nil {
		t.Error("purge --older-than 0 succeeded, want error")
	}
}

func TestRedactDSN(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"/var/lib/octagram/octagram.db", "/var/lib/octagram/octagram.db"},
		{"postgres://octagram:secret@db:5432/octagram", "postgres://octagram:xxxxx@db:5432/octagram"},
		{"postgres://db:5432/octagram", "postgres://db:5432/octagram"},
	}
	for _, tt := range tests {
		if got := redactDSN(tt.in); got != tt.want {
			t.Errorf("redactDSN(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
