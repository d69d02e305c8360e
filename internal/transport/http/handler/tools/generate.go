package tools

import (
	"net/http"

	"github.com/mandalnilabja/octagram/internal/generate"
	"github.com/mandalnilabja/octagram/internal/transport/http/handler/shared"
	"github.com/mandalnilabja/octagram/internal/transport/http/middleware/auth"
)

// Translate handles POST /api/translate.
func (h *Handlers) Translate(w http.ResponseWriter, r *http.Request) {
	var req generate.TranslateRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		shared.WriteJSONError(w, shared.InvalidJSONMessage, http.StatusBadRequest)
		return
	}

	res, err := h.Generate.Translate(r.Context(), auth.AccountID(r.Context()), req)
	if err != nil {
		h.writeGenerateError(w, r, err, "Translation failed")
		return
	}

	shared.WriteJSON(w, map[string]any{
		"translation": res.Output,
		"runId":       res.RunID,
	}, http.StatusOK)
}

// Rewrite handles POST /api/rewrite.
func (h *Handlers) Rewrite(w http.ResponseWriter, r *http.Request) {
	var req generate.RewriteRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		shared.WriteJSONError(w, shared.InvalidJSONMessage, http.StatusBadRequest)
		return
	}

	res, err := h.Generate.Rewrite(r.Context(), auth.AccountID(r.Context()), req)
	if err != nil {
		h.writeGenerateError(w, r, err, "Rewrite failed")
		return
	}

	shared.WriteJSON(w, map[string]any{
		"output": res.Output,
		"runId":  res.RunID,
	}, http.StatusOK)
}

// Reply handles POST /api/reply.
func (h *Handlers) Reply(w http.ResponseWriter, r *http.Request) {
	var req generate.ReplyRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		shared.WriteJSONError(w, shared.InvalidJSONMessage, http.StatusBadRequest)
		return
	}

	res, err := h.Generate.Reply(r.Context(), auth.AccountID(r.Context()), req)
	if err != nil {
		h.writeGenerateError(w, r, err, "Reply generation failed")
		return
	}

	shared.WriteJSON(w, map[string]any{
		"replies": res.Replies,
		"runId":   res.RunID,
	}, http.StatusOK)
}
