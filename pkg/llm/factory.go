package llm

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// OpenRouterBaseURL is the OpenAI-compatible endpoint OpenRouter exposes.
const OpenRouterBaseURL = "https://openrouter.ai/api/v1"

// Provider identifies which API endpoint serves a model.
type Provider string

const (
	ProviderOpenRouter Provider = "openrouter"
	ProviderLiteLLM    Provider = "litellm"
	ProviderAnthropic  Provider = "anthropic"
	ProviderOpenAI     Provider = "openai"
)

// ResolveProvider maps a prefixed model identifier to its provider and the
// model name sent on the wire. "openrouter/" and "anthropic/" prefixes are
// stripped; "ollama/" models keep the full identifier because the LiteLLM
// proxy routes on it. Anything without a known prefix goes to OpenAI as-is.
func ResolveProvider(model string) (Provider, string) {
	switch {
	case strings.HasPrefix(model, "openrouter/"):
		return ProviderOpenRouter, strings.TrimPrefix(model, "openrouter/")
	case strings.HasPrefix(model, "ollama/"):
		return ProviderLiteLLM, model
	case strings.HasPrefix(model, "anthropic/"):
		return ProviderAnthropic, strings.TrimPrefix(model, "anthropic/")
	default:
		return ProviderOpenAI, model
	}
}

// ProviderCredentials holds the endpoints and API keys for every provider
// the factory can route to. Unused providers may be left empty.
type ProviderCredentials struct {
	OpenRouterAPIKey    string
	LiteLLMProxyBaseURL string
	LiteLLMProxyAPIKey  string
	AnthropicAPIKey     string
	OpenAIAPIKey        string
}

// LLMClientFactory is the interface for creating LLM clients.
// Use this interface for dependency injection and testing.
type LLMClientFactory interface {
	CreateForModel(model string) (LLMClient, error)
}

// ClientFactory creates LLM clients routed by model identifier prefix.
type ClientFactory struct {
	creds       ProviderCredentials
	temperature float32
	maxTokens   int
	logger      *zap.Logger
}

// NewClientFactory creates a new factory. Temperature and maxTokens apply
// to every client the factory produces.
func NewClientFactory(creds ProviderCredentials, temperature float32, maxTokens int, logger *zap.Logger) *ClientFactory {
	return &ClientFactory{
		creds:       creds,
		temperature: temperature,
		maxTokens:   maxTokens,
		logger:      logger,
	}
}

// CreateForModel creates a client for the given model identifier.
// A missing credential for the resolved provider is reported by the
// environment variable name the operator needs to set.
func (f *ClientFactory) CreateForModel(model string) (LLMClient, error) {
	if model == "" {
		return nil, fmt.Errorf("model is required")
	}

	provider, wireModel := ResolveProvider(model)

	switch provider {
	case ProviderOpenRouter:
		if f.creds.OpenRouterAPIKey == "" {
			return nil, fmt.Errorf("OPENROUTER_API_KEY is required for model %q", model)
		}
		return NewClient(&Config{
			Endpoint:    OpenRouterBaseURL,
			Model:       wireModel,
			APIKey:      f.creds.OpenRouterAPIKey,
			Temperature: f.temperature,
			MaxTokens:   f.maxTokens,
		}, f.logger)

	case ProviderLiteLLM:
		if f.creds.LiteLLMProxyBaseURL == "" {
			return nil, fmt.Errorf("LITELLM_PROXY_BASE_URL is required for model %q", model)
		}
		return NewClient(&Config{
			Endpoint:    f.creds.LiteLLMProxyBaseURL,
			Model:       wireModel,
			APIKey:      f.creds.LiteLLMProxyAPIKey,
			Temperature: f.temperature,
			MaxTokens:   f.maxTokens,
		}, f.logger)

	case ProviderAnthropic:
		if f.creds.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY is required for model %q", model)
		}
		return NewAnthropicClient(&Config{
			Model:       wireModel,
			APIKey:      f.creds.AnthropicAPIKey,
			Temperature: f.temperature,
			MaxTokens:   f.maxTokens,
		}, f.logger)

	default:
		if f.creds.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for model %q", model)
		}
		return NewClient(&Config{
			Model:       wireModel,
			APIKey:      f.creds.OpenAIAPIKey,
			Temperature: f.temperature,
			MaxTokens:   f.maxTokens,
		}, f.logger)
	}
}

// Ensure ClientFactory implements LLMClientFactory at compile time.
var _ LLMClientFactory = (*ClientFactory)(nil)
