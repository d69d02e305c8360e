// Package storage provides the storage interface and implementations.
package storage

import (
	"context"
	"time"

	"github.com/mandalnilabja/octagram/internal/storage/models"
	"github.com/mandalnilabja/octagram/internal/storage/sqlstore"
)

// Re-export types from models package for convenience
type (
	Run            = models.Run
	RunType        = models.RunType
	RunFilter      = models.RunFilter
	Collection     = models.Collection
	CollectionItem = models.CollectionItem
	Profile        = models.Profile
	ProfileUpdate  = models.ProfileUpdate
	DailyUsage     = models.DailyUsage
	Account        = models.Account
	Session        = models.Session
)

// Re-export constants from models package
const (
	RunTranslate = models.RunTranslate
	RunRewrite   = models.RunRewrite
	RunReply     = models.RunReply

	ThemeLight = models.ThemeLight
	ThemeDark  = models.ThemeDark
)

// Re-export errors from sqlstore package
var (
	ErrNotFound      = sqlstore.ErrNotFound
	ErrDuplicateKey  = sqlstore.ErrDuplicateKey
	ErrInvalidInput  = sqlstore.ErrInvalidInput
	ErrStorageClosed = sqlstore.ErrStorageClosed
)

// Storage defines the interface for persistent data storage
type Storage interface {
	// Daily usage operations
	GetDailyUsage(ctx context.Context, accountID, day string) (*models.DailyUsage, error)
	UpsertDailyUsage(ctx context.Context, usage *models.DailyUsage) error
	IncrementDailyUsage(ctx context.Context, accountID, day string, delta int64, at time.Time) (int64, error)

	// Run history operations
	CreateRun(ctx context.Context, run *models.Run) error
	GetRun(ctx context.Context, accountID, id string) (*models.Run, error)
	ListRuns(ctx context.Context, filter models.RunFilter) ([]*models.Run, error)
	DeleteRunsBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// Collection operations
	ListCollections(ctx context.Context, accountID string) ([]*models.Collection, error)
	CreateCollection(ctx context.Context, c *models.Collection) error
	GetCollection(ctx context.Context, accountID, id string) (*models.Collection, error)
	ListCollectionItems(ctx context.Context, accountID, collectionID string) ([]*models.CollectionItem, error)
	AddCollectionItem(ctx context.Context, accountID string, item *models.CollectionItem) error
	DeleteCollectionItem(ctx context.Context, accountID, collectionID, itemID string) error

	// Profile operations
	CreateProfile(ctx context.Context, p *models.Profile) error
	GetProfile(ctx context.Context, accountID string) (*models.Profile, error)
	UpdateProfile(ctx context.Context, accountID string, upd *models.ProfileUpdate) (*models.Profile, error)

	// Account and session operations
	CreateAccount(ctx context.Context, a *models.Account) error
	GetAccount(ctx context.Context, id string) (*models.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*models.Account, error)
	DeleteAccount(ctx context.Context, id string) error
	CreateSession(ctx context.Context, s *models.Session) error
	GetSession(ctx context.Context, tokenHash string) (*models.Session, error)
	DeleteSession(ctx context.Context, tokenHash string) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)

	// Maintenance operations
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// Open connects to dsn and creates the schema. postgres:// URLs use Postgres,
// anything else is a SQLite file path.
func Open(ctx context.Context, dsn string) (Storage, error) {
	store, err := sqlstore.Open(dsn)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}
