// Package usage keeps the per-account, per-UTC-day token ledger and the
// daily budget it is checked against.
//
// The ledger only records. Callers check the budget before doing budgeted
// work and add the actual cost afterwards.
package usage

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/mandalnilabja/octagram/internal/storage"
	"github.com/mandalnilabja/octagram/internal/storage/models"
)

// DefaultDailyBudget is the daily token ceiling when none is configured.
const DefaultDailyBudget Budget = 2000

// dayLayout formats the UTC day key.
const dayLayout = "2006-01-02"

// ErrBudgetExceeded is returned when today's total has reached the budget.
var ErrBudgetExceeded = errors.New("daily token budget exceeded")

// Store is the persistence the ledger needs.
type Store interface {
	GetDailyUsage(ctx context.Context, accountID, day string) (*models.DailyUsage, error)
	UpsertDailyUsage(ctx context.Context, usage *models.DailyUsage) error
	IncrementDailyUsage(ctx context.Context, accountID, day string, delta int64, at time.Time) (int64, error)
}

// Mode selects how Add persists a delta.
type Mode string

// Increment modes
const (
	// ModeAtomic adds the delta in one upsert statement. Concurrent adds for
	// the same account and day are never lost.
	ModeAtomic Mode = "atomic"

	// ModeReadModifyWrite reads the total, adds the delta in process and
	// upserts the sum. Two concurrent adds can read the same total, in which
	// case one of them is lost. Kept for parity with the hosted deployment.
	ModeReadModifyWrite Mode = "read_modify_write"
)

// ParseMode validates a configured mode. Empty means ModeAtomic.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeAtomic:
		return ModeAtomic, nil
	case ModeReadModifyWrite:
		return ModeReadModifyWrite, nil
	}
	return "", fmt.Errorf("unknown usage increment mode %q", s)
}

// Record is one account's token total for one UTC day.
type Record struct {
	Day        string `json:"day"`
	TokenTotal int64  `json:"tokenTotal"`
}

// Ledger reads and accumulates daily token totals.
type Ledger struct {
	store Store
	mode  Mode
	now   func() time.Time
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithMode sets the increment mode.
func WithMode(m Mode) Option {
	return func(l *Ledger) { l.mode = m }
}

// WithClock replaces time.Now, for tests and tools.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// NewLedger creates a ledger over store. The default mode is ModeAtomic.
func NewLedger(store Store, opts ...Option) *Ledger {
	l := &Ledger{store: store, mode: ModeAtomic, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Day returns the UTC day key for t.
func Day(t time.Time) string {
	return t.UTC().Format(dayLayout)
}

// Today returns the current UTC day and the account's total for it. A day
// without a row has a total of zero. Storage errors are returned unchanged.
func (l *Ledger) Today(ctx context.Context, accountID string) (Record, error) {
	day := Day(l.now())
	total, err := l.total(ctx, accountID, day)
	if err != nil {
		return Record{}, err
	}
	return Record{Day: day, TokenTotal: total}, nil
}

// Add charges delta tokens to the account's current day and returns the new
// total. Fractions are truncated and negative or non-finite deltas count as
// zero, so a total never decreases.
func (l *Ledger) Add(ctx context.Context, accountID string, delta float64) (Record, error) {
	d := ClampDelta(delta)
	now := l.now()
	day := Day(now)

	if l.mode == ModeAtomic {
		total, err := l.store.IncrementDailyUsage(ctx, accountID, day, d, now)
		if err != nil {
			return Record{}, err
		}
		return Record{Day: day, TokenTotal: total}, nil
	}

	current, err := l.total(ctx, accountID, day)
	if err != nil {
		return Record{}, err
	}
	next := saturatingAdd(current, d)
	err = l.store.UpsertDailyUsage(ctx, &models.DailyUsage{
		AccountID:  accountID,
		Day:        day,
		TokenTotal: next,
		UpdatedAt:  now.UTC(),
	})
	if err != nil {
		return Record{}, err
	}
	return Record{Day: day, TokenTotal: next}, nil
}

func (l *Ledger) total(ctx context.Context, accountID, day string) (int64, error) {
	u, err := l.store.GetDailyUsage(ctx, accountID, day)
	if errors.Is(err, storage.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return u.TokenTotal, nil
}

// saturatingAdd adds two non-negative totals, capping at math.MaxInt64.
func saturatingAdd(a, b int64) int64 {
	if b > math.MaxInt64-a {
		return math.MaxInt64
	}
	return a + b
}

// ClampDelta converts a token delta to max(0, trunc(delta)).
func ClampDelta(delta float64) int64 {
	if math.IsNaN(delta) || math.IsInf(delta, 0) || delta <= 0 {
		return 0
	}
	if delta >= math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(delta) // truncates toward zero
}

// Budget is the daily token ceiling per account.
type Budget int64

// Exceeded reports whether no further budgeted work is allowed today.
func (b Budget) Exceeded(r Record) bool {
	return r.TokenTotal >= int64(b)
}

// Remaining returns the tokens left today, never negative.
func (b Budget) Remaining(r Record) int64 {
	return max(0, int64(b)-r.TokenTotal)
}
