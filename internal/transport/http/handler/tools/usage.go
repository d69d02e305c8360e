package tools

import (
	"net/http"

	"github.com/mandalnilabja/octagram/internal/transport/http/handler/shared"
	"github.com/mandalnilabja/octagram/internal/transport/http/middleware"
	"github.com/mandalnilabja/octagram/internal/transport/http/middleware/auth"
)

// UsageTodayResponse is the body of GET /api/usage/today.
type UsageTodayResponse struct {
	Day        string `json:"day"`
	TokenTotal int64  `json:"tokenTotal"`
	Budget     int64  `json:"budget"`
	Remaining  int64  `json:"remaining"`
}

// UsageToday handles GET /api/usage/today.
func (h *Handlers) UsageToday(w http.ResponseWriter, r *http.Request) {
	rec, err := h.Ledger.Today(r.Context(), auth.AccountID(r.Context()))
	if err != nil {
		h.Logger.Error("usage lookup failed",
			"request_id", middleware.GetRequestID(r.Context()), "error", err)
		shared.WriteJSONError(w, "Usage request failed", http.StatusInternalServerError)
		return
	}

	shared.WriteJSON(w, UsageTodayResponse{
		Day:        rec.Day,
		TokenTotal: rec.TokenTotal,
		Budget:     int64(h.Budget),
		Remaining:  h.Budget.Remaining(rec),
	}, http.StatusOK)
}
