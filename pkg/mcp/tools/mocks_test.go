package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/themis-intel/themis-engine/pkg/analyst"
	"github.com/themis-intel/themis-engine/pkg/market"
)

// mockGateway implements analyst.Gateway for testing.
type mockGateway struct {
	askResult *analyst.AskResult
	askErr    error
	runResult *analyst.AskResult
	runErr    error

	lastQuestion string
	lastAskOpts  *analyst.AskOptions
	lastSQL      string
	lastRunOpts  *analyst.RunSQLOptions
}

var _ analyst.Gateway = (*mockGateway)(nil)

func (m *mockGateway) Ask(ctx context.Context, question string, opts *analyst.AskOptions) (*analyst.AskResult, error) {
	m.lastQuestion = question
	m.lastAskOpts = opts
	if m.askErr != nil {
		return nil, m.askErr
	}
	return m.askResult, nil
}

func (m *mockGateway) RunSQL(ctx context.Context, sqlQuery string, opts *analyst.RunSQLOptions) (*analyst.AskResult, error) {
	m.lastSQL = sqlQuery
	m.lastRunOpts = opts
	if m.runErr != nil {
		return nil, m.runErr
	}
	return m.runResult, nil
}

// mockMarketService implements market.Service for testing.
type mockMarketService struct {
	trending    []market.TrendingSecurity
	trendingErr error
	timeline    []market.MentionPoint
	timelineErr error

	lastDays  int
	lastLimit int
}

var _ market.Service = (*mockMarketService)(nil)

func (m *mockMarketService) MentionsTimeline(ctx context.Context, ticker string, windowDays int, includeInferred bool) ([]market.MentionPoint, error) {
	if m.timelineErr != nil {
		return nil, m.timelineErr
	}
	return m.timeline, nil
}

func (m *mockMarketService) Trending(ctx context.Context, windowDays, limit int) ([]market.TrendingSecurity, error) {
	m.lastDays = windowDays
	m.lastLimit = limit
	if m.trendingErr != nil {
		return nil, m.trendingErr
	}
	return m.trending, nil
}

// mcpError represents an MCP JSON-RPC error.
type mcpError struct {
	Code    int
	Message string
}

func (e *mcpError) Error() string {
	return e.Message
}

// callTool executes an MCP tool via the server's HandleMessage method.
// Tool-level errors come back in the result with IsError set; protocol
// errors (including handler Go errors) come back as *mcpError.
func callTool(t *testing.T, mcpServer *server.MCPServer, toolName string, arguments map[string]any) (*mcp.CallToolResult, *mcpError) {
	t.Helper()

	callReq := map[string]any{
		"jsonrpc": "2.0",
		"method":  "tools/call",
		"id":      1,
		"params": map[string]any{
			"name":      toolName,
			"arguments": arguments,
		},
	}

	reqBytes, err := json.Marshal(callReq)
	if err != nil {
		t.Fatalf("failed to marshal request: %v", err)
	}

	result := mcpServer.HandleMessage(context.Background(), reqBytes)

	resultBytes, err := json.Marshal(result)
	if err != nil {
		t.Fatalf("failed to marshal result: %v", err)
	}

	var response struct {
		Result *mcp.CallToolResult `json:"result,omitempty"`
		Error  *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error,omitempty"`
	}
	if err := json.Unmarshal(resultBytes, &response); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}

	if response.Error != nil {
		return nil, &mcpError{Code: response.Error.Code, Message: response.Error.Message}
	}

	return response.Result, nil
}

// textContent extracts the text of the first content item of a tool result.
func textContent(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()

	if result == nil || len(result.Content) == 0 {
		t.Fatal("expected content in tool result")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", result.Content[0])
	}
	return text.Text
}

// listToolNames returns the registered tool names via tools/list.
func listToolNames(t *testing.T, mcpServer *server.MCPServer) []string {
	t.Helper()

	result := mcpServer.HandleMessage(context.Background(), []byte(`{"jsonrpc":"2.0","method":"tools/list","id":1}`))

	resultBytes, err := json.Marshal(result)
	if err != nil {
		t.Fatalf("failed to marshal result: %v", err)
	}

	var response struct {
		Result struct {
			Tools []struct {
				Name string `json:"name"`
			} `json:"tools"`
		} `json:"result"`
	}
	if err := json.Unmarshal(resultBytes, &response); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}

	names := make([]string, len(response.Result.Tools))
	for i, tool := range response.Result.Tools {
		names[i] = tool.Name
	}
	return names
}
