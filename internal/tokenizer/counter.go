package tokenizer

import "strings"

// Per-message framing, per OpenAI's cookbook numbers.
const (
	messageOverheadGPT4  = 3 // <|start|>role<|end|>
	messageOverheadGPT35 = 4
	replyPrimingTokens   = 3
)

// Message is the part of a chat message that costs tokens.
type Message struct {
	Role    string
	Content string
}

// CountMessages counts prompt tokens for a slice of messages.
func (t *TiktokenTokenizer) CountMessages(messages []Message, model string) (int, error) {
	total := 0
	overhead := t.getMessageOverhead(model)

	for _, msg := range messages {
		roleTokens, err := t.CountTokens(msg.Role, model)
		if err != nil {
			return 0, err
		}
		contentTokens, err := t.CountTokens(msg.Content, model)
		if err != nil {
			return 0, err
		}
		total += roleTokens + contentTokens + overhead
	}

	return total + replyPrimingTokens, nil
}

// getMessageOverhead returns the per-message framing cost for a model family.
func (t *TiktokenTokenizer) getMessageOverhead(model string) int {
	if strings.HasPrefix(strings.ToLower(model), "gpt-3.5") {
		return messageOverheadGPT35
	}
	return messageOverheadGPT4
}
