package app

import (
	"log/slog"
	"net/http"

	"github.com/mandalnilabja/octagram/internal/transport/http/handler"
	"github.com/mandalnilabja/octagram/internal/transport/http/middleware"
	"github.com/mandalnilabja/octagram/internal/transport/http/middleware/auth"
	"github.com/mandalnilabja/octagram/internal/transport/http/middleware/ratelimit"
)

// RouterOptions configures the HTTP router behavior.
type RouterOptions struct {
	Logger *slog.Logger
	// Accounts resolves session tokens for every /api route except health.
	Accounts auth.Authenticator
	// Limiter throttles the generation routes. Nil disables throttling.
	Limiter *ratelimit.Limiter
	// AllowOrigin is the CORS origin; empty answers with "*".
	AllowOrigin string
}

// NewRouter creates and configures the HTTP router with all application routes.
// Returns an http.Handler with middleware applied.
// opts must not be nil and must carry an Authenticator.
func NewRouter(repo *handler.Repo, opts *RouterOptions) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()

	// Public routes (no auth)
	mux.HandleFunc("GET /{$}", repo.Infra.RootStatus)
	mux.HandleFunc("GET /api/health", repo.Infra.HealthCheck)
	mux.HandleFunc("POST /auth/signup", repo.Session.SignUp)
	mux.HandleFunc("POST /auth/login", repo.Session.Login)
	mux.HandleFunc("GET /auth/logout", repo.Session.Logout)
	mux.HandleFunc("POST /auth/logout", repo.Session.Logout)

	registerAPIRoutes(mux, repo, opts.Accounts, opts.Limiter, logger)

	return middleware.Chain(mux,
		middleware.CORS(opts.AllowOrigin),
		middleware.RequestID,
		middleware.RequestLogger(logger),
	)
}

// registerAPIRoutes adds the session-protected /api routes.
func registerAPIRoutes(mux *http.ServeMux, repo *handler.Repo, accounts auth.Authenticator, limiter *ratelimit.Limiter, logger *slog.Logger) {
	requireAccount := auth.RequireAccount(accounts, logger)

	withAuth := func(h http.HandlerFunc) http.Handler {
		return requireAccount(h)
	}
	// Generation routes are throttled per account after authentication.
	withQuota := func(h http.HandlerFunc) http.Handler {
		if limiter == nil {
			return requireAccount(h)
		}
		return requireAccount(ratelimit.Middleware(limiter)(h))
	}

	// Generation
	mux.Handle("POST /api/translate", withQuota(repo.Tools.Translate))
	mux.Handle("POST /api/rewrite", withQuota(repo.Tools.Rewrite))
	mux.Handle("POST /api/reply", withQuota(repo.Tools.Reply))
	mux.Handle("GET /api/usage/today", withAuth(repo.Tools.UsageToday))

	// History and collections
	mux.Handle("GET /api/history", withAuth(repo.Library.History))
	mux.Handle("GET /api/collections", withAuth(repo.Library.ListCollections))
	mux.Handle("POST /api/collections", withAuth(repo.Library.CreateCollection))
	mux.Handle("GET /api/collections/{id}", withAuth(repo.Library.GetCollection))
	mux.Handle("POST /api/collections/{id}/items", withAuth(repo.Library.AddItem))
	mux.Handle("DELETE /api/collections/{id}/items", withAuth(repo.Library.RemoveItem))

	// Profile
	mux.Handle("GET /api/profile", withAuth(repo.Profile.GetProfile))
	mux.Handle("PATCH /api/profile", withAuth(repo.Profile.UpdateProfile))
	mux.Handle("POST /api/profile/delete-account", withAuth(repo.Profile.DeleteAccount))
}
