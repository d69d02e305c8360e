package llm

import "time"

// Role constants for chat messages.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single text chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is a non-streaming chat completion request.
type Request struct {
	Messages    []Message
	Temperature *float64
}

// Usage reports token counts for a completion.
type Usage struct {
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
	TotalTokens      int64 `json:"total_tokens"`
}

// Completion is the first choice of a chat completion.
type Completion struct {
	Text  string
	Model string

	// Usage is nil when the upstream omitted it and no estimate could be made.
	Usage *Usage
	// Estimated is set when Usage was computed locally instead of reported.
	Estimated bool

	Latency time.Duration
}

// chatRequest is the wire form of a chat completion request.
type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Stream      bool      `json:"stream"`
	Temperature *float64  `json:"temperature,omitempty"`
}

// chatResponse is the subset of a chat completion response that is read.
type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content *string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason,omitempty"`
	} `json:"choices"`
	Usage *Usage `json:"usage,omitempty"`
}

// errorEnvelope is the OpenAI-compatible error body.
type errorEnvelope struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    any    `json:"code"`
	} `json:"error"`
}
