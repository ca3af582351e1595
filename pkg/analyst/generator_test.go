package analyst

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/themis-intel/themis-engine/pkg/llm"
)

func TestGenerate_PromptContents(t *testing.T) {
	gen := NewSQLGenerator(zap.NewNop())

	client := llm.NewMockLLMClient()
	client.GenerateResponseFunc = func(context.Context, string) (string, error) {
		return "SELECT name FROM channels", nil
	}

	sqlQuery, err := gen.Generate(context.Background(), client, "Which channels exist?")
	require.NoError(t, err)
	assert.Equal(t, "SELECT name FROM channels", sqlQuery)

	require.Len(t, client.Prompts, 1)
	prompt := client.Prompts[0]

	assert.True(t, strings.HasPrefix(prompt, "You are a PostgreSQL expert"))
	assert.Contains(t, prompt, "DATABASE SCHEMA:")
	assert.Contains(t, prompt, "CREATE TABLE channels")
	assert.Contains(t, prompt, "CREATE TABLE securities")
	assert.Contains(t, prompt, "USER QUESTION:\nWhich channels exist?")
	assert.Contains(t, prompt, "Return ONLY the SQL query")
	assert.Contains(t, prompt, "Return pure SQL only:")
}

func TestGenerate_StripsFencesAndReasoning(t *testing.T) {
	gen := NewSQLGenerator(zap.NewNop())

	client := llm.NewMockLLMClient()
	client.GenerateResponseFunc = func(context.Context, string) (string, error) {
		return "<think>joins first</think>\n```sql\nSELECT ticker FROM securities\n```", nil
	}

	sqlQuery, err := gen.Generate(context.Background(), client, "tickers?")
	require.NoError(t, err)
	assert.Equal(t, "SELECT ticker FROM securities", sqlQuery)
}

func TestGenerate_ClientError(t *testing.T) {
	gen := NewSQLGenerator(zap.NewNop())

	client := llm.NewMockLLMClient()
	client.GenerateResponseFunc = func(context.Context, string) (string, error) {
		return "", errors.New("connection refused")
	}

	_, err := gen.Generate(context.Background(), client, "tickers?")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LLM generation failed")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestGenerate_EmptyResponse(t *testing.T) {
	gen := NewSQLGenerator(zap.NewNop())

	client := llm.NewMockLLMClient()
	client.Model = "test-model"
	client.GenerateResponseFunc = func(context.Context, string) (string, error) {
		return "```\n```", nil
	}

	_, err := gen.Generate(context.Background(), client, "tickers?")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty query")
	assert.Contains(t, err.Error(), "test-model")
}
