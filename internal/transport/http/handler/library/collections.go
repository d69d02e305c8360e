package library

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mandalnilabja/octagram/internal/storage"
	"github.com/mandalnilabja/octagram/internal/transport/http/handler/shared"
	"github.com/mandalnilabja/octagram/internal/transport/http/middleware/auth"
)

// MaxCollectionName is the longest collection name accepted, in characters.
const MaxCollectionName = 60

// CollectionView is a collection without its item count.
type CollectionView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// AddItemRequest saves a result into a collection. When RunID is set the
// run is copied and the remaining fields are ignored.
type AddItemRequest struct {
	RunID      string          `json:"runId"`
	Type       string          `json:"type"`
	Source     string          `json:"source"`
	InputText  string          `json:"inputText"`
	OutputText json.RawMessage `json:"outputText"`
	Params     json.RawMessage `json:"params"`
	OutputJSON json.RawMessage `json:"outputJson"`
}

// ListCollections handles GET /api/collections.
func (h *Handlers) ListCollections(w http.ResponseWriter, r *http.Request) {
	collections, err := h.Storage.ListCollections(r.Context(), auth.AccountID(r.Context()))
	if err != nil {
		h.serverError(w, r, err, "Collections request failed")
		return
	}
	shared.WriteJSON(w, map[string]any{"items": collections}, http.StatusOK)
}

// CreateCollection handles POST /api/collections.
func (h *Handlers) CreateCollection(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		shared.WriteJSONError(w, shared.InvalidJSONMessage, http.StatusBadRequest)
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		shared.WriteJSONError(w, "name is required", http.StatusBadRequest)
		return
	}
	if utf8.RuneCountInString(name) > MaxCollectionName {
		shared.WriteJSONError(w, "name must be 60 characters or less", http.StatusBadRequest)
		return
	}

	c := &storage.Collection{
		AccountID: auth.AccountID(r.Context()),
		Name:      name,
	}
	if err := h.Storage.CreateCollection(r.Context(), c); err != nil {
		h.serverError(w, r, err, "Create collection failed")
		return
	}

	shared.WriteJSON(w, map[string]any{"item": viewOf(c)}, http.StatusOK)
}

// GetCollection handles GET /api/collections/{id}.
func (h *Handlers) GetCollection(w http.ResponseWriter, r *http.Request) {
	accountID := auth.AccountID(r.Context())
	id := r.PathValue("id")

	c, err := h.Storage.GetCollection(r.Context(), accountID, id)
	if errors.Is(err, storage.ErrNotFound) {
		shared.WriteJSONError(w, "Collection not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.serverError(w, r, err, "Collection request failed")
		return
	}

	items, err := h.Storage.ListCollectionItems(r.Context(), accountID, id)
	if err != nil {
		h.serverError(w, r, err, "Collection request failed")
		return
	}

	shared.WriteJSON(w, map[string]any{
		"collection": viewOf(c),
		"items":      items,
	}, http.StatusOK)
}

// AddItem handles POST /api/collections/{id}/items.
func (h *Handlers) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		shared.WriteJSONError(w, shared.InvalidJSONMessage, http.StatusBadRequest)
		return
	}

	accountID := auth.AccountID(r.Context())
	item := &storage.CollectionItem{CollectionID: r.PathValue("id")}

	if runID := strings.TrimSpace(req.RunID); runID != "" {
		run, err := h.Storage.GetRun(r.Context(), accountID, runID)
		if errors.Is(err, storage.ErrNotFound) {
			shared.WriteJSONError(w, "Run not found", http.StatusNotFound)
			return
		}
		if err != nil {
			h.serverError(w, r, err, "Add to collection failed")
			return
		}
		item.RunID = &run.ID
		item.Type = run.Type
		item.Source = run.Source
		item.InputText = run.InputText
		item.OutputText = run.OutputText
		item.OutputJSON = run.OutputJSON
		item.Params = run.Params
		item.CreatedAt = run.CreatedAt
	} else {
		kind := storage.RunType(req.Type)
		if !kind.Valid() {
			shared.WriteJSONError(w, "type is required (translate|rewrite|reply)", http.StatusBadRequest)
			return
		}
		input := strings.TrimSpace(req.InputText)
		if input == "" {
			shared.WriteJSONError(w, "inputText is required", http.StatusBadRequest)
			return
		}

		item.Type = kind
		item.Source = strings.TrimSpace(req.Source)
		if item.Source == "" {
			item.Source = "web"
		}
		item.InputText = input
		item.OutputText = trimmedStringOrNil(req.OutputText)
		item.Params = shared.ObjectOrNil(req.Params)
		item.OutputJSON = shared.ObjectOrNil(req.OutputJSON)
	}

	err := h.Storage.AddCollectionItem(r.Context(), accountID, item)
	if errors.Is(err, storage.ErrNotFound) {
		shared.WriteJSONError(w, "Collection not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.serverError(w, r, err, "Add to collection failed")
		return
	}

	shared.WriteJSON(w, map[string]string{"id": item.ID}, http.StatusOK)
}

// RemoveItem handles DELETE /api/collections/{id}/items.
func (h *Handlers) RemoveItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ItemID string `json:"itemId"`
	}
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		shared.WriteJSONError(w, shared.InvalidJSONMessage, http.StatusBadRequest)
		return
	}

	itemID := strings.TrimSpace(req.ItemID)
	if itemID == "" {
		shared.WriteJSONError(w, "itemId is required", http.StatusBadRequest)
		return
	}

	err := h.Storage.DeleteCollectionItem(r.Context(), auth.AccountID(r.Context()), r.PathValue("id"), itemID)
	if err != nil {
		h.serverError(w, r, err, "Remove from collection failed")
		return
	}

	shared.WriteJSON(w, map[string]bool{"ok": true}, http.StatusOK)
}

// trimmedStringOrNil returns the trimmed value of a JSON string and nil for
// anything else, including a missing field.
func trimmedStringOrNil(raw json.RawMessage) *string {
	var s string
	if len(raw) == 0 || raw[0] != '"' || json.Unmarshal(raw, &s) != nil {
		return nil
	}
	s = strings.TrimSpace(s)
	return &s
}

func viewOf(c *storage.Collection) CollectionView {
	return CollectionView{ID: c.ID, Name: c.Name, CreatedAt: c.CreatedAt}
}
