package handler

import (
	"log/slog"
	"time"

	"github.com/mandalnilabja/octagram/internal/account"
	"github.com/mandalnilabja/octagram/internal/generate"
	"github.com/mandalnilabja/octagram/internal/storage"
	"github.com/mandalnilabja/octagram/internal/transport/http/handler/infra"
	"github.com/mandalnilabja/octagram/internal/transport/http/handler/library"
	"github.com/mandalnilabja/octagram/internal/transport/http/handler/profile"
	"github.com/mandalnilabja/octagram/internal/transport/http/handler/session"
	"github.com/mandalnilabja/octagram/internal/transport/http/handler/tools"
	"github.com/mandalnilabja/octagram/internal/usage"
)

// Deps are the services the handlers are built from.
type Deps struct {
	Store         storage.Storage
	Accounts      *account.Service
	Generate      *generate.Service
	Ledger        *usage.Ledger
	Budget        usage.Budget
	SecureCookies bool
	Logger        *slog.Logger
}

// Repo composes all domain-specific handlers.
type Repo struct {
	Tools   *tools.Handlers
	Library *library.Handlers
	Profile *profile.Handlers
	Session *session.Handlers
	Infra   *infra.Handlers
}

// NewRepo creates a new instance of the composed handler repository.
func NewRepo(d Deps) *Repo {
	startTime := time.Now()
	return &Repo{
		Tools:   tools.New(d.Generate, d.Ledger, d.Budget, d.Logger),
		Library: library.New(d.Store, d.Logger),
		Profile: profile.New(d.Store, d.Accounts, d.SecureCookies, d.Logger),
		Session: session.New(d.Accounts, d.SecureCookies, d.Logger),
		Infra:   infra.New(d.Store, startTime),
	}
}
