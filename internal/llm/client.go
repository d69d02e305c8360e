// Package llm is a small client for OpenAI-compatible chat completion APIs.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mandalnilabja/octagram/internal/tokenizer"
)

// DefaultBaseURL is the OpenAI API root.
const DefaultBaseURL = "https://api.openai.com/v1"

// DefaultModel is used when no model is configured.
const DefaultModel = "gpt-4o-mini"

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 64 << 10

// Options configures a Client.
type Options struct {
	APIKey  string
	BaseURL string
	Model   string

	// HTTPClient defaults to a client without a timeout; callers bound
	// requests with their context.
	HTTPClient *http.Client

	// Tokenizer estimates usage when the response omits it. Optional.
	Tokenizer tokenizer.Tokenizer
}

// Client sends chat completion requests.
type Client struct {
	apiKey     string
	endpoint   string
	model      string
	httpClient *http.Client
	tokenizer  tokenizer.Tokenizer
}

// New creates a Client. It fails with ErrNoAPIKey when opts.APIKey is empty.
func New(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, ErrNoAPIKey
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	model := opts.Model
	if model == "" {
		model = DefaultModel
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		apiKey:     opts.APIKey,
		endpoint:   baseURL + "/chat/completions",
		model:      model,
		httpClient: httpClient,
		tokenizer:  opts.Tokenizer,
	}, nil
}

// Model returns the model name requests are sent with.
func (c *Client) Model() string {
	return c.model
}

// Complete sends a non-streaming chat completion request and returns the
// first choice.
func (c *Client) Complete(ctx context.Context, req Request) (*Completion, error) {
	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    req.Messages,
		Stream:      false,
		Temperature: req.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("model request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, decodeError(resp)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	comp := &Completion{
		Model:   parsed.Model,
		Usage:   parsed.Usage,
		Latency: time.Since(start),
	}
	if comp.Model == "" {
		comp.Model = c.model
	}
	if len(parsed.Choices) > 0 && parsed.Choices[0].Message.Content != nil {
		comp.Text = *parsed.Choices[0].Message.Content
	}
	if comp.Usage == nil {
		comp.Usage = c.estimate(req.Messages, comp.Text)
		comp.Estimated = comp.Usage != nil
	}
	return comp, nil
}

// estimate counts prompt and completion tokens locally. It returns nil
// when no tokenizer is set or counting fails.
func (c *Client) estimate(messages []Message, completion string) *Usage {
	if c.tokenizer == nil {
		return nil
	}
	prompt := make([]tokenizer.Message, len(messages))
	for i, m := range messages {
		prompt[i] = tokenizer.Message{Role: m.Role, Content: m.Content}
	}
	in, err := c.tokenizer.CountMessages(prompt, c.model)
	if err != nil {
		return nil
	}
	out, err := c.tokenizer.CountTokens(completion, c.model)
	if err != nil {
		return nil
	}
	return &Usage{
		PromptTokens:     int64(in),
		CompletionTokens: int64(out),
		TotalTokens:      int64(in + out),
	}
}

// decodeError turns an error response into an *APIError, keeping the
// upstream message and code when the body has the usual envelope.
func decodeError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return apiErr
	}

	var env errorEnvelope
	if json.Unmarshal(raw, &env) == nil && env.Error.Message != "" {
		apiErr.Message = env.Error.Message
		apiErr.Type = env.Error.Type
		switch code := env.Error.Code.(type) {
		case string:
			apiErr.Code = code
		case float64:
			apiErr.Code = fmt.Sprintf("%d", int64(code))
		}
		return apiErr
	}

	apiErr.Message = strings.TrimSpace(string(raw))
	return apiErr
}
