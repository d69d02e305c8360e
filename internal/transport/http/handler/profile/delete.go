package profile

import (
	"errors"
	"net/http"
	"strings"

	"github.com/mandalnilabja/octagram/internal/account"
	"github.com/mandalnilabja/octagram/internal/transport/http/handler/shared"
	"github.com/mandalnilabja/octagram/internal/transport/http/middleware/auth"
)

// DeleteConfirmation must be typed by the user to delete their account.
const DeleteConfirmation = "DELETE"

// DeleteAccount handles POST /api/profile/delete-account.
func (h *Handlers) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Confirm  string `json:"confirm"`
		Password string `json:"password"`
	}
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		shared.WriteJSONError(w, shared.InvalidJSONMessage, http.StatusBadRequest)
		return
	}

	if req.Confirm != DeleteConfirmation {
		shared.WriteJSONError(w, `Type "DELETE" in the confirmation field to proceed`, http.StatusBadRequest)
		return
	}
	password := strings.TrimSpace(req.Password)
	if password == "" {
		shared.WriteJSONError(w, "Password is required to delete your account", http.StatusBadRequest)
		return
	}

	accountID := auth.AccountID(r.Context())
	if err := h.Accounts.VerifyPassword(r.Context(), accountID, password); err != nil {
		if errors.Is(err, account.ErrInvalidCredentials) {
			shared.WriteJSONError(w, "Invalid password", http.StatusUnauthorized)
			return
		}
		h.serverError(w, r, err, "Failed to delete account")
		return
	}

	if err := h.Accounts.DeleteAccount(r.Context(), accountID); err != nil {
		h.serverError(w, r, err, "Failed to delete account")
		return
	}

	h.Logger.Info("account deleted", "account_id", accountID)
	auth.ClearSessionCookie(w, h.SecureCookies)
	shared.WriteJSON(w, map[string]any{"ok": true, "redirect": "/login"}, http.StatusOK)
}
