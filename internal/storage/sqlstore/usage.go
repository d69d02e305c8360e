package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/mandalnilabja/octagram/internal/storage/models"
)

// GetDailyUsage returns the usage row for (accountID, day) or ErrNotFound.
func (s *Store) GetDailyUsage(ctx context.Context, accountID, day string) (*models.DailyUsage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStorageClosed
	}

	u := &models.DailyUsage{AccountID: accountID, Day: day}
	var updatedAt string
	err := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT token_total, updated_at FROM daily_usage
		WHERE account_id = ? AND day = ?
	`), accountID, day).Scan(&u.TokenTotal, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if u.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return u, nil
}

// UpsertDailyUsage writes usage.TokenTotal as the new total for the day,
// replacing whatever was stored.
func (s *Store) UpsertDailyUsage(ctx context.Context, usage *models.DailyUsage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStorageClosed
	}
	if usage == nil || usage.AccountID == "" || usage.Day == "" || usage.TokenTotal < 0 {
		return ErrInvalidInput
	}

	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO daily_usage (account_id, day, token_total, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(account_id, day) DO UPDATE SET
			token_total = excluded.token_total,
			updated_at = excluded.updated_at
	`), usage.AccountID, usage.Day, usage.TokenTotal, formatTime(usage.UpdatedAt))
	return err
}

// IncrementDailyUsage adds delta to the day's total in a single statement and
// returns the new total. Concurrent increments are never lost. The total
// saturates at math.MaxInt64.
func (s *Store) IncrementDailyUsage(ctx context.Context, accountID, day string, delta int64, at time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrStorageClosed
	}
	if accountID == "" || day == "" || delta < 0 {
		return 0, ErrInvalidInput
	}

	var total int64
	err := s.db.QueryRowContext(ctx, s.rebind(`
		INSERT INTO daily_usage (account_id, day, token_total, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(account_id, day) DO UPDATE SET
			token_total = CASE
				WHEN daily_usage.token_total > 9223372036854775807 - excluded.token_total
				THEN 9223372036854775807
				ELSE daily_usage.token_total + excluded.token_total
			END,
			updated_at = excluded.updated_at
		RETURNING token_total
	`), accountID, day, delta, formatTime(at)).Scan(&total)
	return total, err
}
