// Package tokenizer estimates token usage for chat prompts and completions
// when the model API does not report it.
package tokenizer

import (
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// Tokenizer counts tokens for chat messages.
type Tokenizer interface {
	// CountTokens counts tokens in a text string for a given model.
	CountTokens(text string, model string) (int, error)

	// CountMessages counts prompt tokens for a chat, including per-message
	// framing and reply priming.
	CountMessages(messages []Message, model string) (int, error)
}

// Encoding names used by tiktoken.
const (
	EncodingCL100kBase = "cl100k_base" // GPT-4, GPT-3.5-turbo
	EncodingO200kBase  = "o200k_base"  // GPT-4o, o1 models
)

// encodingPrefixes maps model name prefixes to encodings. Longer prefixes
// come first so "gpt-4o" is not caught by "gpt-4".
var encodingPrefixes = []struct {
	prefix   string
	encoding string
}{
	{"text-embedding", EncodingCL100kBase},
	{"gpt-4o", EncodingO200kBase},
	{"gpt-4.1", EncodingO200kBase},
	{"gpt-3.5", EncodingCL100kBase},
	{"gpt-4", EncodingCL100kBase},
	{"chatgpt", EncodingO200kBase},
	{"o1", EncodingO200kBase},
	{"o3", EncodingO200kBase},
	{"o4", EncodingO200kBase},
}

// TiktokenTokenizer implements Tokenizer using tiktoken-go.
type TiktokenTokenizer struct {
	mu        sync.RWMutex
	encodings map[string]*tiktoken.Tiktoken
}

// New creates a new TiktokenTokenizer.
func New() *TiktokenTokenizer {
	return &TiktokenTokenizer{
		encodings: make(map[string]*tiktoken.Tiktoken),
	}
}

// encoding returns the cached tiktoken encoding for a model.
func (t *TiktokenTokenizer) encoding(model string) (*tiktoken.Tiktoken, error) {
	name := t.resolveEncoding(model)

	t.mu.RLock()
	enc, ok := t.encodings[name]
	t.mu.RUnlock()
	if ok {
		return enc, nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if enc, ok = t.encodings[name]; ok {
		return enc, nil
	}

	enc, err := tiktoken.GetEncoding(name)
	if err != nil {
		return nil, err
	}
	t.encodings[name] = enc
	return enc, nil
}

// resolveEncoding picks the encoding name for a model. Unknown models use
// cl100k_base.
func (t *TiktokenTokenizer) resolveEncoding(model string) string {
	lower := strings.ToLower(model)
	for _, p := range encodingPrefixes {
		if strings.HasPrefix(lower, p.prefix) {
			return p.encoding
		}
	}
	return EncodingCL100kBase
}

// CountTokens counts tokens in a text string for a given model.
func (t *TiktokenTokenizer) CountTokens(text string, model string) (int, error) {
	if text == "" {
		return 0, nil
	}
	enc, err := t.encoding(model)
	if err != nil {
		return 0, err
	}
	return len(enc.Encode(text, nil, nil)), nil
}
