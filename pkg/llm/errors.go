package llm

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrorType indicates which part of the provider configuration or call failed.
type ErrorType string

const (
	ErrorTypeNone     ErrorType = ""
	ErrorTypeEndpoint ErrorType = "endpoint"
	ErrorTypeAuth     ErrorType = "auth"
	ErrorTypeModel    ErrorType = "model"
	ErrorTypeUnknown  ErrorType = "unknown"
)

// Error is a classified provider failure. Retryable means a second attempt
// at the same call could succeed; it never triggers a retry by itself, the
// gateway's fallback switch is the only recovery.
type Error struct {
	Type       ErrorType
	Message    string
	Retryable  bool
	Cause      error
	StatusCode int
	Model      string
	Endpoint   string
}

func (e *Error) Error() string {
	var parts []string
	parts = append(parts, string(e.Type))

	if e.StatusCode > 0 {
		parts = append(parts, fmt.Sprintf("HTTP %d", e.StatusCode))
	}
	if e.Model != "" {
		parts = append(parts, fmt.Sprintf("model=%s", e.Model))
	}

	parts = append(parts, e.Message)

	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", strings.Join(parts, " "), e.Cause)
	}
	return strings.Join(parts, " ")
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsRetryable reports whether a second attempt at the same call could succeed.
func (e *Error) IsRetryable() bool {
	return e.Retryable
}

// NewError creates a classified LLM error.
func NewError(errType ErrorType, message string, retryable bool, cause error) *Error {
	return &Error{
		Type:      errType,
		Message:   message,
		Retryable: retryable,
		Cause:     cause,
	}
}

// ClassifyError turns a raw transport error into a classified *Error.
// An error that already is one passes through unchanged. Rules are checked
// in order; the first match wins.
func ClassifyError(err error) *Error {
	if err == nil {
		return nil
	}

	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr
	}

	lower := strings.ToLower(err.Error())
	status := extractStatusCode(lower)

	classified := func(t ErrorType, msg string, retryable bool) *Error {
		e := NewError(t, msg, retryable, err)
		e.StatusCode = status
		return e
	}

	switch {
	case containsAny(lower, "401", "unauthorized", "invalid api key"):
		return classified(ErrorTypeAuth, "authentication failed", false)
	case strings.Contains(lower, "model") && containsAny(lower, "not found", "does not exist"):
		return classified(ErrorTypeModel, "model not found", false)
	case strings.Contains(lower, "404"):
		return classified(ErrorTypeEndpoint, "endpoint not found", false)
	case containsAny(lower, "connection refused", "no such host"):
		return classified(ErrorTypeEndpoint, "connection failed", true)
	case containsAny(lower, "timeout", "deadline exceeded", "context canceled"):
		return classified(ErrorTypeEndpoint, "request timeout", true)
	case containsAny(lower, "429", "rate limit"):
		return classified(ErrorTypeUnknown, "rate limited", true)
	case containsAny(lower, "cuda error", "gpu error", "out of memory"):
		// Local models behind the LiteLLM proxy surface GPU faults with
		// the driver text intact.
		return classified(ErrorTypeEndpoint, "GPU error", true)
	case containsAny(lower, "500", "502", "503", "504"):
		return classified(ErrorTypeEndpoint, "server error", true)
	default:
		return classified(ErrorTypeUnknown, "llm error", false)
	}
}

// GetErrorType extracts the ErrorType from an error.
func GetErrorType(err error) ErrorType {
	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr.Type
	}
	return ErrorTypeUnknown
}

func extractStatusCode(s string) int {
	for _, code := range []int{400, 401, 403, 404, 429, 500, 502, 503, 504} {
		if strings.Contains(s, strconv.Itoa(code)) {
			return code
		}
	}
	return 0
}

func containsAny(s string, patterns ...string) bool {
	for _, p := range patterns {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
