package generate

import (
	"errors"

	"github.com/mandalnilabja/octagram/internal/replies"
	"github.com/mandalnilabja/octagram/internal/usage"
)

// Errors returned by Service. Upstream model failures are returned as-is
// (usually *llm.APIError) wrapped with context.
var (
	ErrNotConfigured   = errors.New("model API key not configured")
	ErrBudgetExceeded  = usage.ErrBudgetExceeded
	ErrMalformedOutput = replies.ErrMalformedOutput
)

// ValidationError carries a user-facing message for a rejected request.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(msg string) error {
	return &ValidationError{Message: msg}
}
