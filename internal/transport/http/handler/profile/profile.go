// Package profile serves the signed-in account's profile and account deletion.
package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mandalnilabja/octagram/internal/storage"
	"github.com/mandalnilabja/octagram/internal/transport/http/handler/shared"
	"github.com/mandalnilabja/octagram/internal/transport/http/middleware"
	"github.com/mandalnilabja/octagram/internal/transport/http/middleware/auth"
)

// Field limits, in characters.
const (
	MaxDisplayName = 100
	MaxAvatarURL   = 2048
	MaxBio         = 500
	MaxWebsite     = 500
	MaxUsername    = 50
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Accounts re-verifies passwords and removes accounts.
type Accounts interface {
	VerifyPassword(ctx context.Context, accountID, password string) error
	DeleteAccount(ctx context.Context, accountID string) error
}

// Handlers holds the dependencies for profile handlers.
type Handlers struct {
	Storage       storage.Storage
	Accounts      Accounts
	SecureCookies bool
	Logger        *slog.Logger
}

// New creates a new instance of profile handlers.
func New(store storage.Storage, accounts Accounts, secureCookies bool, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		Storage:       store,
		Accounts:      accounts,
		SecureCookies: secureCookies,
		Logger:        logger,
	}
}

// GetProfile handles GET /api/profile.
func (h *Handlers) GetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.Storage.GetProfile(r.Context(), auth.AccountID(r.Context()))
	if errors.Is(err, storage.ErrNotFound) {
		shared.WriteJSONError(w, "Profile not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.serverError(w, r, err, "Failed to load profile")
		return
	}
	shared.WriteJSON(w, map[string]any{"profile": p}, http.StatusOK)
}

// UpdateProfile handles PATCH /api/profile. Only fields present in the body
// change; strings are trimmed and an empty value clears a nullable field.
func (h *Handlers) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var body map[string]json.RawMessage
	if err := shared.DecodeJSON(w, r, &body); err != nil {
		shared.WriteJSONError(w, shared.InvalidJSONMessage, http.StatusBadRequest)
		return
	}

	upd, msg := buildUpdate(body)
	if msg != "" {
		shared.WriteJSONError(w, msg, http.StatusBadRequest)
		return
	}
	upd.UpdatedAt = time.Now().UTC()

	p, err := h.Storage.UpdateProfile(r.Context(), auth.AccountID(r.Context()), upd)
	switch {
	case errors.Is(err, storage.ErrDuplicateKey):
		shared.WriteJSONError(w, "Username is already taken", http.StatusConflict)
	case errors.Is(err, storage.ErrNotFound):
		shared.WriteJSONError(w, "Profile not found", http.StatusNotFound)
	case err != nil:
		h.serverError(w, r, err, "Failed to update profile")
	default:
		shared.WriteJSON(w, map[string]any{"profile": p}, http.StatusOK)
	}
}

// buildUpdate validates a PATCH body. It returns a user-facing message when
// a field is rejected.
func buildUpdate(body map[string]json.RawMessage) (*storage.ProfileUpdate, string) {
	upd := &storage.ProfileUpdate{}

	if raw, ok := body["displayName"]; ok {
		v := strings.TrimSpace(looseString(raw))
		if utf8.RuneCountInString(v) > MaxDisplayName {
			return nil, fmt.Sprintf("displayName must be %d characters or less", MaxDisplayName)
		}
		upd.DisplayName = &v
	}
	if raw, ok := body["avatarUrl"]; ok {
		v := strings.TrimSpace(strictString(raw))
		if utf8.RuneCountInString(v) > MaxAvatarURL {
			return nil, "avatarUrl too long"
		}
		upd.AvatarURL = &v
	}
	if raw, ok := body["timezone"]; ok {
		v := orDefault(strings.TrimSpace(strictString(raw)), "UTC")
		upd.Timezone = &v
	}
	if raw, ok := body["locale"]; ok {
		v := orDefault(strings.TrimSpace(strictString(raw)), "en")
		upd.Locale = &v
	}
	if raw, ok := body["bio"]; ok {
		v := strings.TrimSpace(looseString(raw))
		if utf8.RuneCountInString(v) > MaxBio {
			return nil, fmt.Sprintf("bio must be %d characters or less", MaxBio)
		}
		upd.Bio = &v
	}
	if raw, ok := body["website"]; ok {
		v := strings.TrimSpace(looseString(raw))
		if utf8.RuneCountInString(v) > MaxWebsite {
			return nil, fmt.Sprintf("website must be %d characters or less", MaxWebsite)
		}
		upd.Website = &v
	}
	if raw, ok := body["username"]; ok {
		v := strings.ToLower(strings.TrimSpace(looseString(raw)))
		if utf8.RuneCountInString(v) > MaxUsername {
			return nil, fmt.Sprintf("username must be %d characters or less", MaxUsername)
		}
		if v != "" && !usernamePattern.MatchString(v) {
			return nil, "username can only contain letters, numbers, underscores, and hyphens"
		}
		upd.Username = &v
	}
	if raw, ok := body["publicProfile"]; ok {
		v := truthy(raw)
		upd.PublicProfile = &v
	}
	if raw, ok := body["theme"]; ok {
		v := storage.ThemeLight
		if strictString(raw) == storage.ThemeDark {
			v = storage.ThemeDark
		}
		upd.Theme = &v
	}

	return upd, ""
}

// strictString returns raw when it is a JSON string and "" otherwise.
func strictString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// looseString also accepts numbers and booleans by their literal text.
// null and composite values read as "".
func looseString(raw json.RawMessage) string {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return ""
	}
	switch v := v.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	}
	return ""
}

// truthy reports whether raw is anything other than false, 0, "" or null.
func truthy(raw json.RawMessage) bool {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	switch v := v.(type) {
	case nil:
		return false
	case bool:
		return v
	case float64:
		return v != 0
	case string:
		return v != ""
	}
	return true
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func (h *Handlers) serverError(w http.ResponseWriter, r *http.Request, err error, message string) {
	h.Logger.Error(message,
		"path", r.URL.Path,
		"request_id", middleware.GetRequestID(r.Context()),
		"error", err,
	)
	shared.WriteJSONError(w, message, http.StatusInternalServerError)
}
