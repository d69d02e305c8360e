package llm

import (
	"errors"
	"fmt"
)

// ErrNoAPIKey is returned when no API key is configured.
var ErrNoAPIKey = errors.New("no API key configured")

// CodeInsufficientQuota is the upstream error code for an exhausted plan.
const CodeInsufficientQuota = "insufficient_quota"

// APIError is a non-2xx response from the model API.
type APIError struct {
	StatusCode int
	Message    string
	Type       string
	Code       string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("model API returned status %d", e.StatusCode)
	}
	return e.Message
}

// IsQuotaExceeded reports whether err is an upstream insufficient_quota error.
func IsQuotaExceeded(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == CodeInsufficientQuota
}
