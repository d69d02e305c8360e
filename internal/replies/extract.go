// Package replies recovers reply suggestions from loosely structured model output.
//
// The model is asked for {"replies":["...","...","..."]} but is not trusted to
// comply. Extract tries progressively looser interpretations and stops at the
// first one that yields exactly Count replies.
package replies

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"unicode"
)

// Count is the number of replies a successful extraction yields.
const Count = 3

// ErrMalformedOutput is returned when no interpretation produced Count replies.
var ErrMalformedOutput = errors.New("model returned an invalid reply format")

// tier is one interpretation of the trimmed model output. It reports false
// when the text does not fit the interpretation.
type tier func(text string) ([]string, bool)

// tiers are attempted in order, strictest first.
var tiers = []tier{parseDirect, parseEmbedded, splitLines}

// listPrefix matches bullets and numbering such as "- ", "* ", "1. ", "2) " or "3: ".
// Whitespace includes Unicode spaces and the byte order mark.
var listPrefix = regexp.MustCompile(`^[\s\p{Zs}\x{FEFF}]*[-*\d.):]+[\s\p{Zs}\x{FEFF}]*`)

func isSpace(r rune) bool {
	return unicode.IsSpace(r) || r == '\uFEFF'
}

// trimSpace trims Unicode whitespace and byte order marks.
func trimSpace(s string) string {
	return strings.TrimFunc(s, isSpace)
}

// Extract returns exactly Count non-empty, trimmed replies or ErrMalformedOutput.
func Extract(raw string) ([]string, error) {
	if out, ok := tryEach(trimSpace(raw), tiers...); ok {
		return out, nil
	}
	return nil, ErrMalformedOutput
}

// tryEach returns the result of the first tier that accepts text.
func tryEach(text string, tiers ...tier) ([]string, bool) {
	for _, t := range tiers {
		if out, ok := t(text); ok {
			return out, true
		}
	}
	return nil, false
}

// parseDirect parses the whole text as a JSON object with a "replies" array.
// Non-string elements count as empty; empty elements are dropped before the
// length check, and the array is never padded or truncated.
func parseDirect(text string) ([]string, bool) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(text), &obj); err != nil {
		return nil, false
	}

	items, ok := obj["replies"].([]any)
	if !ok {
		return nil, false
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		s, _ := item.(string)
		if s = trimSpace(s); s != "" {
			out = append(out, s)
		}
	}

	if len(out) != Count {
		return nil, false
	}
	return out, true
}

// parseEmbedded parses the span from the first '{' to the last '}'.
// Handles prose or markdown fences around an otherwise valid object.
func parseEmbedded(text string) ([]string, bool) {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end <= start {
		return nil, false
	}
	return parseDirect(text[start : end+1])
}

// splitLines treats each non-empty line as a reply after stripping list
// markers. Lines beyond the first Count are discarded.
func splitLines(text string) ([]string, bool) {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = trimSpace(listPrefix.ReplaceAllString(line, ""))
		if line != "" {
			out = append(out, line)
		}
	}

	if len(out) < Count {
		return nil, false
	}
	return out[:Count], true
}
