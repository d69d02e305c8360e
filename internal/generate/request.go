package generate

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/mandalnilabja/octagram/internal/tone"
)

// Input limits, in Unicode code points.
const (
	MaxTextChars    = 5000
	MaxContextChars = 8000
)

// Rewrite goals.
var Goals = []string{
	"Clearer",
	"Shorter",
	"More Formal",
	"More Friendly",
	"Street",
	"More Persuasive",
}

var goalPrompts = map[string]string{
	"Clearer":         "Rewrite for clarity: simplify wording, reduce ambiguity, improve readability.",
	"Shorter":         "Rewrite to be shorter: remove fluff, keep meaning, keep formatting where relevant.",
	"More Formal":     "Rewrite to be more formal and professional while preserving meaning.",
	"More Friendly":   "Rewrite to be more friendly and approachable while preserving meaning.",
	"Street":          "Rewrite in a street/casual slang tone while preserving the core meaning.",
	"More Persuasive": "Rewrite to be more persuasive and compelling while preserving meaning.",
}

// Reply intents and lengths.
var (
	Intents = []string{"Confirm", "Decline", "Apologize", "Follow up", "Ask clarification", "Thank you"}
	Lengths = []string{"Short", "Medium", "Long"}
)

// TranslateRequest asks for an English translation of Text.
// Numeric sliders are pointers so a missing value can be told apart from 0.
type TranslateRequest struct {
	Text       string   `json:"text"`
	Formality  *float64 `json:"formality"`
	Creativity *float64 `json:"creativity"`
}

// RewriteRequest asks for Text to be rewritten toward GoalPreset.
type RewriteRequest struct {
	Text       string   `json:"text"`
	GoalPreset string   `json:"goalPreset"`
	Formality  *float64 `json:"formality"`
	Creativity *float64 `json:"creativity"`
}

// ReplyRequest asks for three reply drafts to a conversation.
type ReplyRequest struct {
	ConversationContext string   `json:"conversationContext"`
	WhatIWantToSay      string   `json:"whatIWantToSay"`
	Intent              string   `json:"intent"`
	Length              string   `json:"length"`
	Formality           *float64 `json:"formality"`
}

type sliders struct {
	formality  tone.Formality
	creativity tone.Creativity
}

func validateText(text string) error {
	if strings.TrimSpace(text) == "" {
		return invalid("Text is required")
	}
	if utf8.RuneCountInString(text) > MaxTextChars {
		return invalid(fmt.Sprintf("Text must be %d characters or less", MaxTextChars))
	}
	return nil
}

func parseFormality(v *float64) (tone.Formality, error) {
	if v != nil {
		if f, ok := tone.ParseFormality(*v); ok {
			return f, nil
		}
	}
	return 0, invalid(fmt.Sprintf("Formality must be an integer from %d to %d", tone.MinFormality, tone.MaxFormality))
}

func parseSliders(formality, creativity *float64) (sliders, error) {
	f, err := parseFormality(formality)
	if err != nil {
		return sliders{}, err
	}
	if creativity != nil {
		if c, ok := tone.ParseCreativity(*creativity); ok {
			return sliders{formality: f, creativity: c}, nil
		}
	}
	return sliders{}, invalid(fmt.Sprintf("Creativity must be an integer from %d to %d", tone.MinCreativity, tone.MaxCreativity))
}

func (r *TranslateRequest) validate() (sliders, error) {
	if err := validateText(r.Text); err != nil {
		return sliders{}, err
	}
	return parseSliders(r.Formality, r.Creativity)
}

func (r *RewriteRequest) validate() (sliders, error) {
	if err := validateText(r.Text); err != nil {
		return sliders{}, err
	}
	if r.GoalPreset == "" {
		return sliders{}, invalid("goalPreset is required")
	}
	if !slices.Contains(Goals, r.GoalPreset) {
		return sliders{}, invalid("goalPreset must be one of: " + strings.Join(Goals, ", "))
	}
	return parseSliders(r.Formality, r.Creativity)
}

func (r *ReplyRequest) validate() (tone.Formality, error) {
	if strings.TrimSpace(r.ConversationContext) == "" {
		return 0, invalid("conversationContext is required")
	}
	if utf8.RuneCountInString(r.ConversationContext) > MaxContextChars {
		return 0, invalid(fmt.Sprintf("conversationContext must be %d characters or less", MaxContextChars))
	}
	if !slices.Contains(Intents, r.Intent) {
		return 0, invalid("intent must be one of: " + strings.Join(Intents, ", "))
	}
	if !slices.Contains(Lengths, r.Length) {
		return 0, invalid("length must be one of: " + strings.Join(Lengths, ", "))
	}
	return parseFormality(r.Formality)
}
