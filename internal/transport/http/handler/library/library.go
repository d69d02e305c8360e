// Package library serves the saved side of the app: run history and
// user-curated collections.
package library

import (
	"log/slog"
	"net/http"

	"github.com/mandalnilabja/octagram/internal/storage"
	"github.com/mandalnilabja/octagram/internal/transport/http/handler/shared"
	"github.com/mandalnilabja/octagram/internal/transport/http/middleware"
)

// Handlers holds the dependencies for history and collection handlers.
type Handlers struct {
	Storage storage.Storage
	Logger  *slog.Logger
}

// New creates a new instance of library handlers.
func New(store storage.Storage, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		Storage: store,
		Logger:  logger,
	}
}

// serverError logs err and writes a 500 with the route's generic message.
func (h *Handlers) serverError(w http.ResponseWriter, r *http.Request, err error, message string) {
	h.Logger.Error(message,
		"path", r.URL.Path,
		"request_id", middleware.GetRequestID(r.Context()),
		"error", err,
	)
	shared.WriteJSONError(w, message, http.StatusInternalServerError)
}
