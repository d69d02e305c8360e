package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/mandalnilabja/octagram/internal/account"
	"github.com/mandalnilabja/octagram/internal/app"
	"github.com/mandalnilabja/octagram/internal/config"
	"github.com/mandalnilabja/octagram/internal/generate"
	"github.com/mandalnilabja/octagram/internal/llm"
	"github.com/mandalnilabja/octagram/internal/storage"
	"github.com/mandalnilabja/octagram/internal/tokenizer"
	"github.com/mandalnilabja/octagram/internal/transport/http/handler"
	"github.com/mandalnilabja/octagram/internal/transport/http/middleware/ratelimit"
	"github.com/mandalnilabja/octagram/internal/usage"
)

// loadConfig reads the config file and environment. The default config file
// is created on first use; an explicit path is never written.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		if err := config.EnsureConfigFile(); err != nil {
			return nil, fmt.Errorf("create config file: %w", err)
		}
	}
	return config.Load(path)
}

// openStore connects to the configured database and applies the schema.
func openStore(ctx context.Context, cfg *config.Config) (storage.Storage, error) {
	if cfg.DatabaseURL == "" {
		if err := config.EnsureDataDir(); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}
	store, err := storage.Open(ctx, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	return store, nil
}

func newLedger(cfg *config.Config, store storage.Storage) (*usage.Ledger, error) {
	mode, err := usage.ParseMode(cfg.Usage.Increment)
	if err != nil {
		return nil, err
	}
	return usage.NewLedger(store, usage.WithMode(mode)), nil
}

// newCompleter returns nil without an API key; the service then answers
// generation requests with a configuration error.
func newCompleter(cfg *config.Config, logger *slog.Logger) (generate.Completer, error) {
	client, err := llm.New(llm.Options{
		APIKey:    cfg.LLM.APIKey,
		BaseURL:   cfg.LLM.BaseURL,
		Model:     cfg.LLM.Model,
		Tokenizer: tokenizer.New(),
	})
	if errors.Is(err, llm.ErrNoAPIKey) {
		logger.Warn("OPENAI_API_KEY not set, generation is disabled")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return client, nil
}

// server is everything serve builds, in the order it must be torn down.
type server struct {
	store    storage.Storage
	accounts *account.Service
	limiter  *ratelimit.Limiter
	sweeper  *app.Sweeper
	http     *app.Server
	llmReady bool
}

func buildServer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*server, error) {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	ledger, err := newLedger(cfg, store)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	model, err := newCompleter(cfg, logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	accounts, err := account.NewService(store, account.WithSessionTTL(cfg.Auth.SessionTTL))
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("account service: %w", err)
	}

	budget := usage.Budget(cfg.Usage.DailyTokenBudget)
	gen := generate.NewService(model, ledger, store, generate.Config{
		Model:   cfg.LLM.Model,
		Timeout: cfg.LLM.Timeout,
		Budget:  budget,
	}, logger)

	repo := handler.NewRepo(handler.Deps{
		Store:         store,
		Accounts:      accounts,
		Generate:      gen,
		Ledger:        ledger,
		Budget:        budget,
		SecureCookies: cfg.Auth.SecureCookies,
		Logger:        logger,
	})

	var limiter *ratelimit.Limiter
	if cfg.RateLimit.RequestsPerMinute > 0 {
		limiter = ratelimit.New(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst)
	}

	router := app.NewRouter(repo, &app.RouterOptions{
		Logger:   logger,
		Accounts: accounts,
		Limiter:  limiter,
	})

	return &server{
		store:    store,
		accounts: accounts,
		limiter:  limiter,
		sweeper:  app.NewSweeper(store, cfg.History.RetentionDays, cfg.History.SweepInterval, logger),
		http:     app.NewServer(cfg, router, logger),
		llmReady: model != nil,
	}, nil
}

func (s *server) Close() error {
	if s.limiter != nil {
		s.limiter.Stop()
	}
	s.accounts.Close()
	return s.store.Close()
}

// redactDSN hides the password of a database URL for display.
func redactDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.User == nil {
		return dsn
	}
	return u.Redacted()
}
