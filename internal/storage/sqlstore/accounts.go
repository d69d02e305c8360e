package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/mandalnilabja/octagram/internal/storage/models"
)

// CreateAccount inserts an account. A taken email yields ErrDuplicateKey.
func (s *Store) CreateAccount(ctx context.Context, a *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStorageClosed
	}
	if a == nil || a.Email == "" || a.PasswordHash == "" {
		return ErrInvalidInput
	}

	if a.ID == "" {
		a.ID = generateID("acct")
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO accounts (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)
	`), a.ID, a.Email, a.PasswordHash, formatTime(a.CreatedAt))
	return translateError(err)
}

// GetAccount returns an account by ID or ErrNotFound.
func (s *Store) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	return s.getAccount(ctx, "id", id)
}

// GetAccountByEmail returns an account by its normalized email or ErrNotFound.
func (s *Store) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	return s.getAccount(ctx, "email", email)
}

func (s *Store) getAccount(ctx context.Context, column, value string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStorageClosed
	}

	a := &models.Account{}
	var createdAt string
	err := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT id, email, password_hash, created_at FROM accounts WHERE `+column+` = ?
	`), value).Scan(&a.ID, &a.Email, &a.PasswordHash, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if a.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return a, nil
}

// DeleteAccount removes the account and every row it owns in one transaction.
func (s *Store) DeleteAccount(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStorageClosed
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmts := []string{
		`DELETE FROM collection_items WHERE collection_id IN (SELECT id FROM collections WHERE account_id = ?)`,
		`DELETE FROM collections WHERE account_id = ?`,
		`DELETE FROM runs WHERE account_id = ?`,
		`DELETE FROM daily_usage WHERE account_id = ?`,
		`DELETE FROM profiles WHERE id = ?`,
		`DELETE FROM sessions WHERE account_id = ?`,
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, s.rebind(stmt), id); err != nil {
			return err
		}
	}

	result, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM accounts WHERE id = ?`), id)
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}

// CreateSession stores a new session.
func (s *Store) CreateSession(ctx context.Context, sess *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStorageClosed
	}
	if sess == nil || sess.TokenHash == "" || sess.AccountID == "" {
		return ErrInvalidInput
	}

	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO sessions (token_hash, account_id, created_at, expires_at) VALUES (?, ?, ?, ?)
	`), sess.TokenHash, sess.AccountID, formatTime(sess.CreatedAt), formatTime(sess.ExpiresAt))
	return translateError(err)
}

// GetSession returns a session by token digest or ErrNotFound. Expiry is
// left to the caller.
func (s *Store) GetSession(ctx context.Context, tokenHash string) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStorageClosed
	}

	sess := &models.Session{TokenHash: tokenHash}
	var createdAt, expiresAt string
	err := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT account_id, created_at, expires_at FROM sessions WHERE token_hash = ?
	`), tokenHash).Scan(&sess.AccountID, &createdAt, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if sess.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if sess.ExpiresAt, err = parseTime(expiresAt); err != nil {
		return nil, err
	}
	return sess, nil
}

// DeleteSession revokes a session. Unknown digests are ignored.
func (s *Store) DeleteSession(ctx context.Context, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStorageClosed
	}

	_, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM sessions WHERE token_hash = ?`), tokenHash)
	return err
}

// DeleteExpiredSessions removes sessions that expired at or before now.
func (s *Store) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrStorageClosed
	}

	result, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM sessions WHERE expires_at <= ?`), formatTime(now))
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
