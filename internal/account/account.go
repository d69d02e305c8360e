// Package account manages local sign-up, password sign-in and server-side
// sessions.
package account

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/mandalnilabja/octagram/internal/storage"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

// DefaultSessionTTL is how long a session stays valid.
const DefaultSessionTTL = 7 * 24 * time.Hour

// cacheValidity bounds how long a cached session is trusted without a
// database read.
const cacheValidity = 5 * time.Minute

const tokenBytes = 32

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnauthenticated    = errors.New("no valid session")
	ErrEmailTaken         = errors.New("email is already registered")
	ErrInvalidEmail       = errors.New("a valid email is required")
	ErrWeakPassword       = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
)

// Store is the persistence the service needs.
type Store interface {
	CreateAccount(ctx context.Context, a *storage.Account) error
	GetAccount(ctx context.Context, id string) (*storage.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*storage.Account, error)
	DeleteAccount(ctx context.Context, id string) error
	CreateProfile(ctx context.Context, p *storage.Profile) error
	CreateSession(ctx context.Context, s *storage.Session) error
	GetSession(ctx context.Context, tokenHash string) (*storage.Session, error)
	DeleteSession(ctx context.Context, tokenHash string) error
}

// Session is an issued login. Token is only ever returned here; storage
// keeps its digest.
type Session struct {
	Token     string
	AccountID string
	ExpiresAt time.Time
}

type cachedSession struct {
	AccountID string
	ExpiresAt time.Time
}

// Service authenticates accounts and manages their sessions.
type Service struct {
	store  Store
	cache  *ristretto.Cache[string, *cachedSession]
	ttl    time.Duration
	params *Argon2Params
	now    func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithSessionTTL sets the session lifetime.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithArgon2Params overrides the password hashing cost.
func WithArgon2Params(p *Argon2Params) Option {
	return func(s *Service) { s.params = p }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a Service with its session cache.
func NewService(store Store, opts ...Option) (*Service, error) {
	cache, err := ristretto.NewCache(&ristretto.Config[string, *cachedSession]{
		NumCounters: 1e5,
		MaxCost:     1e4,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create session cache: %w", err)
	}

	s := &Service{
		store:  store,
		cache:  cache,
		ttl:    DefaultSessionTTL,
		params: DefaultArgon2Params(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close releases the session cache.
func (s *Service) Close() {
	s.cache.Close()
}

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SignUp creates an account with an empty profile and starts a session.
func (s *Service) SignUp(ctx context.Context, email, password string) (*Session, error) {
	email = NormalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil || !strings.Contains(email, "@") {
		return nil, ErrInvalidEmail
	}
	if len([]rune(password)) < MinPasswordLength {
		return nil, ErrWeakPassword
	}

	hash, err := HashPassword(password, s.params)
	if err != nil {
		return nil, err
	}

	acct := &storage.Account{Email: email, PasswordHash: hash, CreatedAt: s.now().UTC()}
	if err := s.store.CreateAccount(ctx, acct); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create account: %w", err)
	}
	if err := s.store.CreateProfile(ctx, &storage.Profile{ID: acct.ID, Theme: storage.ThemeLight}); err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}
	return s.startSession(ctx, acct.ID)
}

// SignIn verifies a password and starts a session.
func (s *Service) SignIn(ctx context.Context, email, password string) (*Session, error) {
	acct, err := s.store.GetAccountByEmail(ctx, NormalizeEmail(email))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("lookup account: %w", err)
	}

	ok, err := CheckPassword(password, acct.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("check password: %w", err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}
	return s.startSession(ctx, acct.ID)
}

// VerifyPassword re-checks the password of a signed-in account.
func (s *Service) VerifyPassword(ctx context.Context, accountID, password string) error {
	acct, err := s.store.GetAccount(ctx, accountID)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrInvalidCredentials
	}
	if err != nil {
		return fmt.Errorf("lookup account: %w", err)
	}
	ok, err := CheckPassword(password, acct.PasswordHash)
	if err != nil {
		return fmt.Errorf("check password: %w", err)
	}
	if !ok {
		return ErrInvalidCredentials
	}
	return nil
}

// Authenticate resolves a session token to its account ID.
func (s *Service) Authenticate(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrUnauthenticated
	}
	key := digest(token)
	now := s.now()

	if cached, found := s.cache.Get(key); found {
		if now.Before(cached.ExpiresAt) {
			return cached.AccountID, nil
		}
		s.cache.Del(key)
		return "", ErrUnauthenticated
	}

	sess, err := s.store.GetSession(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return "", ErrUnauthenticated
	}
	if err != nil {
		return "", fmt.Errorf("lookup session: %w", err)
	}
	if sess.IsExpired(now) {
		return "", ErrUnauthenticated
	}

	s.cache.SetWithTTL(key, &cachedSession{AccountID: sess.AccountID, ExpiresAt: sess.ExpiresAt}, 1, cacheValidity)
	return sess.AccountID, nil
}

// SignOut revokes a session. Unknown tokens are ignored.
func (s *Service) SignOut(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	key := digest(token)
	s.cache.Del(key)
	if err := s.store.DeleteSession(ctx, key); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteAccount removes an account with all its data and sessions.
func (s *Service) DeleteAccount(ctx context.Context, accountID string) error {
	if err := s.store.DeleteAccount(ctx, accountID); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	// Cached entries are keyed by token digest, so the account's other
	// sessions cannot be picked out individually.
	s.cache.Clear()
	return nil
}

func (s *Service) startSession(ctx context.Context, accountID string) (*Session, error) {
	raw, err := randomBytes(tokenBytes)
	if err != nil {
		return nil, fmt.Errorf("generate session token: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(raw)
	now := s.now().UTC()

	sess := &storage.Session{
		TokenHash: digest(token),
		AccountID: accountID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.store.CreateSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return &Session{Token: token, AccountID: accountID, ExpiresAt: sess.ExpiresAt}, nil
}

func digest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
