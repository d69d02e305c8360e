package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// SweepStore deletes aged rows.
type SweepStore interface {
	DeleteRunsBefore(ctx context.Context, cutoff time.Time) (int64, error)
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

// Sweeper periodically removes runs older than the retention window and
// expired sessions. Collection items keep their copies of swept runs.
type Sweeper struct {
	store     SweepStore
	retention time.Duration
	interval  time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

// NewSweeper creates a Sweeper. retentionDays of 0 keeps runs forever and
// only sessions are swept.
func NewSweeper(store SweepStore, retentionDays int, interval time.Duration, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = time.Hour
	}
	return &Sweeper{
		store:     store,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		interval:  interval,
		logger:    logger,
		now:       time.Now,
	}
}

// SweepResult counts the rows removed by one sweep.
type SweepResult struct {
	Runs     int64
	Sessions int64
}

// Sweep runs one pass.
func (s *Sweeper) Sweep(ctx context.Context) (SweepResult, error) {
	var res SweepResult
	now := s.now().UTC()

	if s.retention > 0 {
		n, err := s.store.DeleteRunsBefore(ctx, now.Add(-s.retention))
		if err != nil {
			return res, fmt.Errorf("purge runs: %w", err)
		}
		res.Runs = n
	}

	n, err := s.store.DeleteExpiredSessions(ctx, now)
	if err != nil {
		return res, fmt.Errorf("purge sessions: %w", err)
	}
	res.Sessions = n
	return res, nil
}

// Run sweeps once immediately and then every interval until ctx is done.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		res, err := s.Sweep(ctx)
		switch {
		case err != nil && ctx.Err() == nil:
			s.logger.Warn("retention sweep failed", "error", err)
		case res.Runs > 0 || res.Sessions > 0:
			s.logger.Info("retention sweep", "runs_deleted", res.Runs, "sessions_deleted", res.Sessions)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
