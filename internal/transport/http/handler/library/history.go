package library

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/mandalnilabja/octagram/internal/storage"
	"github.com/mandalnilabja/octagram/internal/transport/http/handler/shared"
	"github.com/mandalnilabja/octagram/internal/transport/http/middleware/auth"
)

// History paging bounds.
const (
	DefaultHistoryLimit = 30
	MaxHistoryLimit     = 50
)

// History lists the caller's runs of one type, newest first (GET /api/history).
//
// Query parameters: type (required), q, collectionId, notInCollection=1,
// limit (1..50, default 30) and offset.
func (h *Handlers) History(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	kind := storage.RunType(q.Get("type"))
	if !kind.Valid() {
		shared.WriteJSONError(w, "type must be one of: translate, rewrite, reply", http.StatusBadRequest)
		return
	}

	filter := storage.RunFilter{
		AccountID:       auth.AccountID(r.Context()),
		Type:            kind,
		Query:           strings.TrimSpace(q.Get("q")),
		CollectionID:    strings.TrimSpace(q.Get("collectionId")),
		NotInCollection: q.Get("notInCollection") == "1",
		Limit:           parseLimit(q.Get("limit")),
		Offset:          parseOffset(q.Get("offset")),
	}

	runs, err := h.Storage.ListRuns(r.Context(), filter)
	if err != nil {
		h.serverError(w, r, err, "History request failed")
		return
	}

	shared.WriteJSON(w, map[string]any{"items": runs}, http.StatusOK)
}

// parseLimit clamps limit to 1..MaxHistoryLimit. Missing or non-numeric
// values give DefaultHistoryLimit.
func parseLimit(raw string) int {
	n, ok := parseNumber(raw)
	if !ok {
		return DefaultHistoryLimit
	}
	return int(min(max(n, 1), MaxHistoryLimit))
}

// parseOffset returns a non-negative offset, 0 when missing or non-numeric.
func parseOffset(raw string) int {
	n, ok := parseNumber(raw)
	if !ok {
		return 0
	}
	return int(min(max(n, 0), math.MaxInt32))
}

func parseNumber(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return math.Trunc(n), true
}
