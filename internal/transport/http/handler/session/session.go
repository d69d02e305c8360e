// Package session handles sign-up, login and logout for local accounts.
package session

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/mandalnilabja/octagram/internal/account"
	"github.com/mandalnilabja/octagram/internal/transport/http/handler/shared"
	"github.com/mandalnilabja/octagram/internal/transport/http/middleware"
	"github.com/mandalnilabja/octagram/internal/transport/http/middleware/auth"
)

// DefaultRedirect is where a fresh session lands when no next path is given.
const DefaultRedirect = "/app"

// Accounts issues and revokes sessions.
type Accounts interface {
	SignUp(ctx context.Context, email, password string) (*account.Session, error)
	SignIn(ctx context.Context, email, password string) (*account.Session, error)
	SignOut(ctx context.Context, token string) error
}

// Handlers holds the dependencies for session handlers.
type Handlers struct {
	Accounts      Accounts
	SecureCookies bool
	Logger        *slog.Logger
}

// New creates a new instance of session handlers.
func New(accounts Accounts, secureCookies bool, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		Accounts:      accounts,
		SecureCookies: secureCookies,
		Logger:        logger,
	}
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Next     string `json:"next"`
}

// SignUp handles POST /auth/signup.
func (h *Handlers) SignUp(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		shared.WriteJSONError(w, shared.InvalidJSONMessage, http.StatusBadRequest)
		return
	}

	sess, err := h.Accounts.SignUp(r.Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, account.ErrInvalidEmail):
		shared.WriteJSONError(w, "A valid email is required", http.StatusBadRequest)
		return
	case errors.Is(err, account.ErrWeakPassword):
		shared.WriteJSONError(w, "Password must be at least 8 characters", http.StatusBadRequest)
		return
	case errors.Is(err, account.ErrEmailTaken):
		shared.WriteJSONError(w, "Email is already registered", http.StatusConflict)
		return
	case err != nil:
		h.serverError(w, r, err, "Sign up failed")
		return
	}

	h.Logger.Info("account created", "account_id", sess.AccountID)
	h.startSession(w, sess, req.Next, http.StatusCreated)
}

// Login handles POST /auth/login.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		shared.WriteJSONError(w, shared.InvalidJSONMessage, http.StatusBadRequest)
		return
	}

	sess, err := h.Accounts.SignIn(r.Context(), req.Email, req.Password)
	if errors.Is(err, account.ErrInvalidCredentials) {
		shared.WriteJSONError(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}
	if err != nil {
		h.serverError(w, r, err, "Login failed")
		return
	}

	h.startSession(w, sess, req.Next, http.StatusOK)
}

// Logout handles GET and POST /auth/logout. It always ends on the login
// page, even when the session was already gone.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if token := auth.SessionToken(r); token != "" {
		if err := h.Accounts.SignOut(r.Context(), token); err != nil {
			h.Logger.Warn("failed to revoke session",
				"request_id", middleware.GetRequestID(r.Context()), "error", err)
		}
	}
	auth.ClearSessionCookie(w, h.SecureCookies)

	reason := r.URL.Query().Get("reason")
	if reason == "" {
		reason = "logged_out"
	}
	http.Redirect(w, r, "/login?reason="+url.QueryEscape(reason), http.StatusSeeOther)
}

func (h *Handlers) startSession(w http.ResponseWriter, sess *account.Session, next string, status int) {
	auth.SetSessionCookie(w, sess.Token, sess.ExpiresAt, h.SecureCookies)
	shared.WriteJSON(w, map[string]any{
		"ok":       true,
		"redirect": safeNext(next),
	}, status)
}

// safeNext keeps redirects on this site: only absolute paths are honored.
func safeNext(next string) string {
	next = strings.TrimSpace(next)
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return DefaultRedirect
	}
	return next
}

func (h *Handlers) serverError(w http.ResponseWriter, r *http.Request, err error, message string) {
	h.Logger.Error(message,
		"path", r.URL.Path,
		"request_id", middleware.GetRequestID(r.Context()),
		"error", err,
	)
	shared.WriteJSONError(w, message, http.StatusInternalServerError)
}
