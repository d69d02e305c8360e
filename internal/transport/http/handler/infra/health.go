package infra

import (
	"context"
	"net/http"
	"time"

	"github.com/mandalnilabja/octagram/internal/transport/http/handler/shared"
	"github.com/mandalnilabja/octagram/internal/version"
)

const pingTimeout = 2 * time.Second

// RootStatus returns JSON status and version information at /.
func (h *Handlers) RootStatus(w http.ResponseWriter, r *http.Request) {
	shared.WriteJSON(w, map[string]any{
		"name":           "octagram",
		"version":        version.Version,
		"status":         "running",
		"uptime_seconds": int64(time.Since(h.StartTime).Seconds()),
		"api":            "/api",
	}, http.StatusOK)
}

// HealthCheck reports whether the store answers a ping (GET /api/health).
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
	defer cancel()

	if err := h.Store.Ping(ctx); err != nil {
		shared.WriteJSON(w, map[string]string{
			"status": "unavailable",
			"app":    "octagram",
			"error":  "Storage unavailable",
		}, http.StatusServiceUnavailable)
		return
	}

	shared.WriteJSON(w, map[string]string{
		"status": "active",
		"app":    "octagram",
	}, http.StatusOK)
}
