// Package ratelimit limits request rates per signed-in account with a
// token bucket each.
package ratelimit

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/mandalnilabja/octagram/internal/transport/http/middleware/auth"
)

const (
	cleanupInterval = 5 * time.Minute
	entryTTL        = 10 * time.Minute
)

type entry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// Limiter tracks a token bucket per account.
type Limiter struct {
	mu      sync.Mutex
	entries map[string]*entry
	limit   rate.Limit
	burst   int
	stop    chan struct{}
	once    sync.Once
}

// New creates a limiter allowing perMinute requests per account with the
// given burst. perMinute <= 0 disables limiting.
func New(perMinute, burst int) *Limiter {
	if burst < 1 {
		burst = 1
	}
	l := &Limiter{
		entries: make(map[string]*entry),
		limit:   rate.Limit(float64(perMinute) / 60),
		burst:   burst,
		stop:    make(chan struct{}),
	}
	if perMinute <= 0 {
		l.limit = rate.Inf
	}
	go l.cleanupLoop()
	return l
}

// Reserve takes a token for key. It returns 0 when the request may proceed,
// otherwise how long the caller should wait before retrying.
func (l *Limiter) Reserve(key string) time.Duration {
	if l.limit == rate.Inf {
		return 0
	}
	now := time.Now()

	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.entries[key] = e
	}
	e.lastAccess = now
	lim := e.limiter
	l.mu.Unlock()

	r := lim.ReserveN(now, 1)
	if !r.OK() {
		return time.Minute
	}
	if d := r.DelayFrom(now); d > 0 {
		r.CancelAt(now)
		return d
	}
	return 0
}

// Len returns the number of tracked accounts.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Stop ends the cleanup goroutine.
func (l *Limiter) Stop() {
	l.once.Do(func() { close(l.stop) })
}

func (l *Limiter) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.cleanup(time.Now())
		case <-l.stop:
			return
		}
	}
}

// cleanup drops accounts idle for longer than entryTTL.
func (l *Limiter) cleanup(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := now.Add(-entryTTL)
	for key, e := range l.entries {
		if e.lastAccess.Before(cutoff) {
			delete(l.entries, key)
		}
	}
}

// Middleware enforces the limit for the account set by auth.RequireAccount.
// Requests without an account pass through.
func Middleware(l *Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			accountID := auth.AccountID(r.Context())
			if accountID == "" {
				next.ServeHTTP(w, r)
				return
			}

			if wait := l.Reserve(accountID); wait > 0 {
				writeTooManyRequests(w, wait)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// writeTooManyRequests writes a JSON 429 response.
func writeTooManyRequests(w http.ResponseWriter, wait time.Duration) {
	secs := int(math.Ceil(wait.Seconds()))
	if secs < 1 {
		secs = 1
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Retry-After", strconv.Itoa(secs))
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": "Too many requests"})
}
