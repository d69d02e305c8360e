// Package generate runs the translate, rewrite and reply tools: validate the
// request, enforce the daily token budget, call the model, charge the
// ledger and record the run.
package generate

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mandalnilabja/octagram/internal/llm"
	"github.com/mandalnilabja/octagram/internal/replies"
	"github.com/mandalnilabja/octagram/internal/storage"
	"github.com/mandalnilabja/octagram/internal/usage"
)

// DefaultTimeout bounds a single model call.
const DefaultTimeout = 60 * time.Second

// SourceWeb marks runs created through the web API.
const SourceWeb = "web"

const replyTemperature = 0.7

// Completer sends a chat completion request.
type Completer interface {
	Complete(ctx context.Context, req llm.Request) (*llm.Completion, error)
}

// RunStore persists run records.
type RunStore interface {
	CreateRun(ctx context.Context, run *storage.Run) error
}

// Config holds Service settings.
type Config struct {
	Model   string
	Timeout time.Duration
	Budget  usage.Budget
}

// Service executes generation requests.
type Service struct {
	model  Completer
	ledger *usage.Ledger
	runs   RunStore
	cfg    Config
	logger *slog.Logger
}

// NewService creates a Service. A nil model means no API key is configured
// and every request fails with ErrNotConfigured after validation.
func NewService(model Completer, ledger *usage.Ledger, runs RunStore, cfg Config, logger *slog.Logger) *Service {
	if cfg.Model == "" {
		cfg.Model = llm.DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Budget <= 0 {
		cfg.Budget = usage.DefaultDailyBudget
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{model: model, ledger: ledger, runs: runs, cfg: cfg, logger: logger}
}

// Result is the outcome of a generation request. RunID is nil when the run
// could not be recorded.
type Result struct {
	Output  string
	Replies []string
	RunID   *string
}

// job is one model round trip and the run it produces.
type job struct {
	kind        storage.RunType
	system      string
	input       string
	params      any
	temperature *float64
}

// Translate translates req.Text into English.
func (s *Service) Translate(ctx context.Context, accountID string, req TranslateRequest) (*Result, error) {
	sl, err := req.validate()
	if err != nil {
		return nil, err
	}
	return s.execute(ctx, accountID, job{
		kind:   storage.RunTranslate,
		system: translatePrompt(sl),
		input:  req.Text,
		params: map[string]int{"formality": int(sl.formality), "creativity": int(sl.creativity)},
	})
}

// Rewrite rewrites req.Text toward the requested goal.
func (s *Service) Rewrite(ctx context.Context, accountID string, req RewriteRequest) (*Result, error) {
	sl, err := req.validate()
	if err != nil {
		return nil, err
	}
	return s.execute(ctx, accountID, job{
		kind:   storage.RunRewrite,
		system: rewritePrompt(sl, req.GoalPreset),
		input:  req.Text,
		params: map[string]any{
			"goalPreset": req.GoalPreset,
			"formality":  int(sl.formality),
			"creativity": int(sl.creativity),
		},
	})
}

// Reply drafts exactly three replies to a conversation.
func (s *Service) Reply(ctx context.Context, accountID string, req ReplyRequest) (*Result, error) {
	f, err := req.validate()
	if err != nil {
		return nil, err
	}
	temp := replyTemperature
	return s.execute(ctx, accountID, job{
		kind:   storage.RunReply,
		system: replyPrompt(req.Intent, req.Length, f),
		input:  replyUserContent(req.ConversationContext, req.WhatIWantToSay),
		params: map[string]any{
			"intent":    req.Intent,
			"length":    req.Length,
			"formality": int(f),
		},
		temperature: &temp,
	})
}

func (s *Service) execute(ctx context.Context, accountID string, j job) (*Result, error) {
	if s.model == nil {
		return nil, ErrNotConfigured
	}

	today, err := s.ledger.Today(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("read usage: %w", err)
	}
	if s.cfg.Budget.Exceeded(today) {
		return nil, ErrBudgetExceeded
	}

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()
	comp, err := s.model.Complete(callCtx, llm.Request{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: j.system},
			{Role: llm.RoleUser, Content: j.input},
		},
		Temperature: j.temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("%s completion: %w", j.kind, err)
	}

	res := &Result{}
	run := &storage.Run{
		AccountID: accountID,
		Type:      j.kind,
		Source:    SourceWeb,
		InputText: j.input,
		Model:     s.cfg.Model,
		LatencyMS: comp.Latency.Milliseconds(),
	}

	if j.kind == storage.RunReply {
		drafts, err := replies.Extract(comp.Text)
		if err != nil {
			return nil, err
		}
		res.Replies = drafts
		run.OutputJSON, _ = json.Marshal(map[string][]string{"replies": drafts})
	} else {
		res.Output = strings.TrimSpace(comp.Text)
		run.OutputText = &res.Output
	}
	run.Params, _ = json.Marshal(j.params)

	// Bookkeeping outlives a client that hangs up after the model answered.
	bookCtx := context.WithoutCancel(ctx)
	log := s.logger.With("account_id", accountID, "run_type", string(j.kind))

	if comp.Usage != nil {
		run.TokenIn = comp.Usage.PromptTokens
		run.TokenOut = comp.Usage.CompletionTokens
		run.TokenTotal = comp.Usage.TotalTokens
		if _, err := s.ledger.Add(bookCtx, accountID, float64(comp.Usage.TotalTokens)); err != nil {
			log.Warn("failed to charge usage", "tokens", comp.Usage.TotalTokens, "error", err)
		}
	} else {
		log.Warn("completion carried no usage, budget not charged")
	}

	if err := s.runs.CreateRun(bookCtx, run); err != nil {
		log.Warn("failed to record run", "error", err)
	} else {
		res.RunID = &run.ID
	}
	return res, nil
}
