package models

import (
	"encoding/json"
	"time"
)

// Collection is a named, user-curated set of saved results.
type Collection struct {
	ID        string    `json:"id"`
	AccountID string    `json:"-"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	ItemCount int       `json:"itemCount"`
}

// CollectionItem is a snapshot of a run (or a client-supplied result) saved
// into a collection. It survives deletion of the run it was copied from.
type CollectionItem struct {
	ID           string          `json:"id"`
	CollectionID string          `json:"-"`
	RunID        *string         `json:"run_id"`
	Type         RunType         `json:"type"`
	Source       string          `json:"source"`
	InputText    string          `json:"input_text"`
	OutputText   *string         `json:"output_text"`
	OutputJSON   json.RawMessage `json:"output_json"`
	Params       json.RawMessage `json:"params"`
	CreatedAt    time.Time       `json:"created_at"`
}
