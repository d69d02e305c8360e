package models

import (
	"encoding/json"
	"time"
)

// RunType identifies which generation tool produced a run.
type RunType string

// Run types
const (
	RunTranslate RunType = "translate"
	RunRewrite   RunType = "rewrite"
	RunReply     RunType = "reply"
)

// Valid reports whether t is a known run type.
func (t RunType) Valid() bool {
	switch t {
	case RunTranslate, RunRewrite, RunReply:
		return true
	}
	return false
}

// Run is one generation request and its result.
// Reply runs carry OutputJSON ({"replies":[...]}) and no OutputText.
type Run struct {
	ID         string          `json:"id"`
	AccountID  string          `json:"-"`
	Type       RunType         `json:"type"`
	Source     string          `json:"source"`
	InputText  string          `json:"input_text"`
	OutputText *string         `json:"output_text"`
	OutputJSON json.RawMessage `json:"output_json"`
	Params     json.RawMessage `json:"params"`
	Model      string          `json:"model"`
	TokenIn    int64           `json:"-"`
	TokenOut   int64           `json:"-"`
	TokenTotal int64           `json:"token_total"`
	LatencyMS  int64           `json:"latency_ms"`
	CreatedAt  time.Time       `json:"created_at"`
}

// RunFilter selects runs for the history view.
type RunFilter struct {
	AccountID string
	Type      RunType
	Query     string // case-insensitive substring of input or output text

	// CollectionID keeps only runs saved into that collection.
	CollectionID string
	// NotInCollection drops runs saved into any collection. Ignored when CollectionID is set.
	NotInCollection bool

	Limit  int
	Offset int
}
