package llm

import (
	"context"
)

// MockLLMClient is a scriptable LLMClient for tests. Set
// GenerateResponseFunc to control completions; calls and prompts are
// recorded for assertions.
type MockLLMClient struct {
	// GenerateResponseFunc supplies the completion. Nil means empty
	// string and no error.
	GenerateResponseFunc func(ctx context.Context, prompt string) (string, error)

	Model    string
	Endpoint string

	GenerateResponseCalls int
	Prompts               []string
}

// NewMockLLMClient returns a mock with placeholder model and endpoint.
func NewMockLLMClient() *MockLLMClient {
	return &MockLLMClient{
		Model:    "mock-model",
		Endpoint: "http://mock-endpoint",
	}
}

var _ LLMClient = (*MockLLMClient)(nil)

func (m *MockLLMClient) GenerateResponse(ctx context.Context, prompt string) (string, error) {
	m.GenerateResponseCalls++
	m.Prompts = append(m.Prompts, prompt)
	if m.GenerateResponseFunc != nil {
		return m.GenerateResponseFunc(ctx, prompt)
	}
	return "", nil
}

func (m *MockLLMClient) GetModel() string {
	if m.Model == "" {
		return "mock-model"
	}
	return m.Model
}

func (m *MockLLMClient) GetEndpoint() string {
	if m.Endpoint == "" {
		return "http://mock-endpoint"
	}
	return m.Endpoint
}

// MockClientFactory hands out MockLLMClients and records which models
// were requested.
type MockClientFactory struct {
	// CreateForModelFunc overrides client creation. Nil means every
	// model gets MockClient.
	CreateForModelFunc func(model string) (LLMClient, error)

	MockClient      *MockLLMClient
	RequestedModels []string
}

// NewMockClientFactory returns a factory whose MockClient serves every
// model.
func NewMockClientFactory() *MockClientFactory {
	return &MockClientFactory{MockClient: NewMockLLMClient()}
}

var _ LLMClientFactory = (*MockClientFactory)(nil)

func (f *MockClientFactory) CreateForModel(model string) (LLMClient, error) {
	f.RequestedModels = append(f.RequestedModels, model)
	if f.CreateForModelFunc != nil {
		return f.CreateForModelFunc(model)
	}
	return f.MockClient, nil
}
