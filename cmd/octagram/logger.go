package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"

	"github.com/mandalnilabja/octagram/internal/config"
	"github.com/mandalnilabja/octagram/internal/version"
)

func setupLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: lvl,
	})
	return slog.New(handler)
}

var (
	bannerTitle = color.New(color.FgCyan, color.Bold)
	bannerRule  = color.New(color.FgHiBlack)
	bannerWarn  = color.New(color.FgYellow)
)

func printStartupBanner(cfg *config.Config, llmReady bool) {
	fmt.Fprintf(os.Stderr, "\n")
	bannerTitle.Fprintf(os.Stderr, "Octagram %s - translate, rewrite, reply\n", version.Version)
	bannerRule.Fprintln(os.Stderr, "════════════════════════════════════════════════")
	fmt.Fprintf(os.Stderr, "API:        http://localhost%s/api\n", cfg.ServerPort)
	fmt.Fprintf(os.Stderr, "Model:      %s\n", cfg.LLM.Model)
	fmt.Fprintf(os.Stderr, "Budget:     %d tokens/day per account\n", cfg.Usage.DailyTokenBudget)
	if cfg.DatabaseURL == "" {
		fmt.Fprintf(os.Stderr, "Data:       %s\n", config.DataDir())
	} else {
		fmt.Fprintf(os.Stderr, "Database:   %s\n", redactDSN(cfg.DatabaseURL))
	}
	if !llmReady {
		bannerWarn.Fprintln(os.Stderr, "Warning:    OPENAI_API_KEY not set, generation requests will fail")
	}
	bannerRule.Fprintln(os.Stderr, "════════════════════════════════════════════════")
	fmt.Fprintf(os.Stderr, "\n")
}
