package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mandalnilabja/octagram/internal/account"
	"github.com/mandalnilabja/octagram/internal/app"
	"github.com/mandalnilabja/octagram/internal/storage"
	"github.com/mandalnilabja/octagram/internal/usage"
)

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), *configPath)
		},
	}
}

func runServe(ctx context.Context, configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	logger := setupLogger(cfg.LogLevel)

	srv, err := buildServer(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := srv.Close(); err != nil {
			logger.Error("failed to close storage", "error", err)
		}
	}()

	printStartupBanner(cfg, srv.llmReady)

	go srv.sweeper.Run(ctx)

	return srv.http.Start(ctx)
}

func newMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			store, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			fmt.Fprintf(cmd.OutOrStdout(), "schema is up to date (%s)\n", redactDSN(cfg.DSN()))
			return nil
		},
	}
}

var (
	usageOK  = color.New(color.FgGreen)
	usageLow = color.New(color.FgYellow)
	usageOut = color.New(color.FgRed, color.Bold)
)

func newUsageCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Inspect the daily token ledger",
	}

	var accountRef string
	var noColor bool
	todayCmd := &cobra.Command{
		Use:   "today",
		Short: "Show an account's token total for the current UTC day",
		Example: `  octagram usage today --account ada@example.com
  octagram usage today --account 9f1c0e7e-... --no-color`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if noColor {
				color.NoColor = true
			}
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			store, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			acct, err := resolveAccount(cmd.Context(), store, accountRef)
			if err != nil {
				return err
			}
			ledger, err := newLedger(cfg, store)
			if err != nil {
				return err
			}
			rec, err := ledger.Today(cmd.Context(), acct.ID)
			if err != nil {
				return fmt.Errorf("read usage: %w", err)
			}

			budget := usage.Budget(cfg.Usage.DailyTokenBudget)
			remaining := budget.Remaining(rec)

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ACCOUNT\tDAY\tUSED\tBUDGET\tREMAINING")
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				acct.Email, rec.Day,
				humanize.Comma(rec.TokenTotal),
				humanize.Comma(int64(budget)),
				remainingColor(budget, remaining).Sprint(humanize.Comma(remaining)))
			return w.Flush()
		},
	}
	todayCmd.Flags().StringVarP(&accountRef, "account", "a", "", "account email or ID")
	todayCmd.Flags().BoolVar(&noColor, "no-color", false, "disable colored output")
	_ = todayCmd.MarkFlagRequired("account")

	cmd.AddCommand(todayCmd)
	return cmd
}

// remainingColor is red when the budget is spent and yellow below a quarter.
func remainingColor(budget usage.Budget, remaining int64) *color.Color {
	switch {
	case remaining <= 0:
		return usageOut
	case remaining*4 < int64(budget):
		return usageLow
	default:
		return usageOK
	}
}

// resolveAccount looks ref up as an email when it contains "@", otherwise
// as an account ID.
func resolveAccount(ctx context.Context, store storage.Storage, ref string) (*storage.Account, error) {
	ref = strings.TrimSpace(ref)
	var (
		acct *storage.Account
		err  error
	)
	if strings.Contains(ref, "@") {
		acct, err = store.GetAccountByEmail(ctx, account.NormalizeEmail(ref))
	} else {
		acct, err = store.GetAccount(ctx, ref)
	}
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("account %q not found", ref)
	}
	if err != nil {
		return nil, fmt.Errorf("look up account: %w", err)
	}
	return acct, nil
}

func newPurgeCmd(configPath *string) *cobra.Command {
	var olderThan int
	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete old runs and expired sessions once and exit",
		Long: `Deletes runs created more than --older-than days ago and every expired
session. Items saved to collections keep their own copies and are not affected.
Without --older-than the configured history retention is used.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			days := cfg.History.RetentionDays
			if cmd.Flags().Changed("older-than") {
				if olderThan <= 0 {
					return fmt.Errorf("--older-than must be a positive number of days")
				}
				days = olderThan
			}

			store, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			logger := setupLogger(cfg.LogLevel)
			res, err := app.NewSweeper(store, days, cfg.History.SweepInterval, logger).Sweep(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s runs and %s expired sessions\n",
				humanize.Comma(res.Runs), humanize.Comma(res.Sessions))
			return nil
		},
	}
	cmd.Flags().IntVar(&olderThan, "older-than", 0, "delete runs older than this many days")
	return cmd
}
