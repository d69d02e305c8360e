package tools

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/mandalnilabja/octagram/internal/generate"
	"github.com/mandalnilabja/octagram/internal/llm"
	"github.com/mandalnilabja/octagram/internal/transport/http/handler/shared"
	"github.com/mandalnilabja/octagram/internal/transport/http/middleware"
	"github.com/mandalnilabja/octagram/internal/usage"
)

// Handlers holds the dependencies for the generation tools and the usage meter.
type Handlers struct {
	Generate *generate.Service
	Ledger   *usage.Ledger
	Budget   usage.Budget
	Logger   *slog.Logger
}

// New creates a new instance of tool handlers.
func New(gen *generate.Service, ledger *usage.Ledger, budget usage.Budget, logger *slog.Logger) *Handlers {
	if budget <= 0 {
		budget = usage.DefaultDailyBudget
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		Generate: gen,
		Ledger:   ledger,
		Budget:   budget,
		Logger:   logger,
	}
}

// writeGenerateError maps a generate.Service error to its HTTP response.
// fallback is used when the failure carries no user-facing message.
func (h *Handlers) writeGenerateError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var invalid *generate.ValidationError
	var apiErr *llm.APIError

	switch {
	case errors.As(err, &invalid):
		shared.WriteJSONError(w, invalid.Message, http.StatusBadRequest)
	case errors.Is(err, generate.ErrNotConfigured):
		shared.WriteJSONError(w, "OpenAI API key not configured", http.StatusInternalServerError)
	case errors.Is(err, generate.ErrBudgetExceeded):
		shared.WriteJSONError(w, "Daily limit reached. Please come back tomorrow.", http.StatusTooManyRequests)
	case errors.Is(err, generate.ErrMalformedOutput):
		h.Logger.Warn("model returned unparseable replies",
			"request_id", middleware.GetRequestID(r.Context()), "error", err)
		shared.WriteJSONError(w, "Model returned an invalid reply format. Please try again.", http.StatusBadGateway)
	case llm.IsQuotaExceeded(err):
		shared.WriteJSONError(w, "OpenAI quota exceeded. Check your plan and billing.", http.StatusInternalServerError)
	case errors.As(err, &apiErr):
		h.Logger.Error("model request failed",
			"request_id", middleware.GetRequestID(r.Context()), "status", apiErr.StatusCode, "error", err)
		shared.WriteJSONError(w, apiErr.Error(), http.StatusInternalServerError)
	default:
		h.Logger.Error("generation failed",
			"request_id", middleware.GetRequestID(r.Context()), "error", err)
		shared.WriteJSONError(w, fallback, http.StatusInternalServerError)
	}
}
