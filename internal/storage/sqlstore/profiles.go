package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/mandalnilabja/octagram/internal/storage/models"
)

const profileColumns = `id, display_name, avatar_url, timezone, locale, bio, website,
	username, public_profile, theme, created_at, updated_at`

// CreateProfile inserts a profile row for a new account.
func (s *Store) CreateProfile(ctx context.Context, p *models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStorageClosed
	}
	if p == nil || p.ID == "" {
		return ErrInvalidInput
	}

	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = p.CreatedAt
	}
	if p.Theme != models.ThemeDark {
		p.Theme = models.ThemeLight
	}

	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO profiles (`+profileColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`), p.ID, ptrValue(p.DisplayName), ptrValue(p.AvatarURL), ptrValue(p.Timezone),
		ptrValue(p.Locale), ptrValue(p.Bio), ptrValue(p.Website), ptrValue(p.Username),
		boolToInt(p.PublicProfile), p.Theme, formatTime(p.CreatedAt), formatTime(p.UpdatedAt))
	return translateError(err)
}

// GetProfile returns the account's profile or ErrNotFound.
func (s *Store) GetProfile(ctx context.Context, accountID string) (*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStorageClosed
	}
	return s.getProfile(ctx, accountID)
}

func (s *Store) getProfile(ctx context.Context, accountID string) (*models.Profile, error) {
	var (
		p                      models.Profile
		displayName, avatarURL sql.NullString
		timezone, locale, bio  sql.NullString
		website, username      sql.NullString
		theme                  sql.NullString
		createdAt, updatedAt   string
	)
	err := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT `+profileColumns+` FROM profiles WHERE id = ?
	`), accountID).Scan(&p.ID, &displayName, &avatarURL, &timezone, &locale, &bio,
		&website, &username, &p.PublicProfile, &theme, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	p.DisplayName = stringPtr(displayName)
	p.AvatarURL = stringPtr(avatarURL)
	p.Timezone = stringPtr(timezone)
	p.Locale = stringPtr(locale)
	p.Bio = stringPtr(bio)
	p.Website = stringPtr(website)
	p.Username = stringPtr(username)
	p.Theme = models.ThemeLight
	if theme.String == models.ThemeDark {
		p.Theme = models.ThemeDark
	}

	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateProfile applies the non-nil fields of upd and returns the stored
// profile. A username already used by another profile yields ErrDuplicateKey.
func (s *Store) UpdateProfile(ctx context.Context, accountID string, upd *models.ProfileUpdate) (*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStorageClosed
	}
	if upd == nil {
		return nil, ErrInvalidInput
	}

	updatedAt := upd.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	sets := []string{"updated_at = ?"}
	args := []any{formatTime(updatedAt)}
	set := func(column string, value any) {
		sets = append(sets, column+" = ?")
		args = append(args, value)
	}

	if upd.DisplayName != nil {
		set("display_name", nullString(*upd.DisplayName))
	}
	if upd.AvatarURL != nil {
		set("avatar_url", nullString(*upd.AvatarURL))
	}
	if upd.Timezone != nil {
		set("timezone", nullString(*upd.Timezone))
	}
	if upd.Locale != nil {
		set("locale", nullString(*upd.Locale))
	}
	if upd.Bio != nil {
		set("bio", nullString(*upd.Bio))
	}
	if upd.Website != nil {
		set("website", nullString(*upd.Website))
	}
	if upd.Username != nil {
		set("username", nullString(*upd.Username))
	}
	if upd.PublicProfile != nil {
		set("public_profile", boolToInt(*upd.PublicProfile))
	}
	if upd.Theme != nil {
		set("theme", *upd.Theme)
	}

	args = append(args, accountID)
	result, err := s.db.ExecContext(ctx, s.rebind(
		"UPDATE profiles SET "+strings.Join(sets, ", ")+" WHERE id = ?"), args...)
	if err != nil {
		return nil, translateError(err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return nil, ErrNotFound
	}

	return s.getProfile(ctx, accountID)
}
