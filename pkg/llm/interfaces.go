// Package llm provides clients for the model providers behind the analyst.
package llm

import (
	"context"
)

// LLMClient defines the interface for single-turn text generation.
// Use this interface for dependency injection to enable mocking in tests.
type LLMClient interface {
	// GenerateResponse sends a user prompt and returns the text reply.
	GenerateResponse(ctx context.Context, prompt string) (string, error)

	// GetModel returns the configured model name.
	GetModel() string

	// GetEndpoint returns the configured endpoint.
	GetEndpoint() string
}

// Ensure both client implementations satisfy LLMClient at compile time.
var (
	_ LLMClient = (*Client)(nil)
	_ LLMClient = (*AnthropicClient)(nil)
)
