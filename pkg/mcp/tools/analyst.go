package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/themis-intel/themis-engine/pkg/analyst"
)

// AnalystToolDeps contains the dependencies for the analyst tools.
type AnalystToolDeps struct {
	Gateway analyst.Gateway
	Logger  *zap.Logger
}

// mcpRowLimit caps how many rows run_sql embeds in the tool result.
// The gateway's row ceiling still applies to the query itself; this only
// keeps the text content a model-readable size.
const mcpRowLimit = 1000

// RegisterAnalystTools registers the question-answering and direct SQL
// tools on the MCP server.
func RegisterAnalystTools(s *server.MCPServer, deps *AnalystToolDeps) {
	registerAskAnalystTool(s, deps)
	registerRunSQLTool(s, deps)
}

// registerAskAnalystTool adds the ask_analyst tool: the full
// question-to-answer pipeline over the analyst schema.
func registerAskAnalystTool(s *server.MCPServer, deps *AnalystToolDeps) {
	tool := mcp.NewTool(
		"ask_analyst",
		mcp.WithDescription(
			"Answer a natural-language question about the THEMIS video intelligence data. "+
				"Generates SQL against the analyst schema (channels, videos, chunk analyses, "+
				"investment themes, securities), executes it read-only, and returns a synthesized "+
				"answer together with the generated SQL, row count and timing. "+
				"Use run_sql to inspect the underlying rows.",
		),
		mcp.WithString(
			"question",
			mcp.Required(),
			mcp.Description("The question to answer (e.g., \"Which securities were mentioned most in the last month?\")"),
		),
		mcp.WithNumber(
			"max_rows",
			mcp.Description("Row cap for the underlying query (default: 10000, max: 100000)"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(false), // generation may produce different SQL per call
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		question, err := req.RequireString("question")
		if err != nil {
			return nil, err
		}

		opts := &analyst.AskOptions{IncludeSQL: true}
		if maxRows, ok := getOptionalFloat(req, "max_rows"); ok {
			opts.MaxRows = int(maxRows)
		}

		res, err := deps.Gateway.Ask(ctx, question, opts)
		if err != nil {
			if errResult := TypedErrorResult(err); errResult != nil {
				return errResult, nil
			}
			deps.Logger.Error("ask_analyst tool failed", zap.Error(err))
			return nil, fmt.Errorf("ask_analyst failed: %w", err)
		}

		response := struct {
			Question        string `json:"question"`
			Answer          string `json:"answer"`
			SQL             string `json:"sql"`
			Model           string `json:"model"`
			UsedFallback    bool   `json:"used_fallback,omitempty"`
			RowCount        int    `json:"row_count"`
			ExecutionTimeMs int64  `json:"execution_time_ms"`
		}{
			Question:        res.Question,
			Answer:          res.Answer,
			SQL:             res.SQL,
			Model:           res.Model,
			UsedFallback:    res.UsedFallback,
			RowCount:        res.Result.RowCount,
			ExecutionTimeMs: res.Result.ExecutionTimeMs,
		}

		jsonResult, _ := json.Marshal(response)
		return mcp.NewToolResultText(string(jsonResult)), nil
	})
}

// registerRunSQLTool adds the run_sql tool: caller-written SQL through
// the same safety gate and row ceiling as generated SQL.
func registerRunSQLTool(s *server.MCPServer, deps *AnalystToolDeps) {
	tool := mcp.NewTool(
		"run_sql",
		mcp.WithDescription(
			"Execute a read-only SQL query against the THEMIS analyst schema. "+
				"The statement passes the same safety gate as generated SQL: a single SELECT "+
				"over whitelisted tables (channels, videos, chunk_analyses, investment_themes, "+
				"securities) with a row limit enforced. Returns columns and rows as JSON.",
		),
		mcp.WithString(
			"sql",
			mcp.Required(),
			mcp.Description("A single SELECT statement over the analyst schema"),
		),
		mcp.WithNumber(
			"max_rows",
			mcp.Description("Row cap for the query (default: 10000, max: 100000)"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sqlQuery, err := req.RequireString("sql")
		if err != nil {
			return nil, err
		}

		opts := &analyst.RunSQLOptions{}
		if maxRows, ok := getOptionalFloat(req, "max_rows"); ok {
			opts.MaxRows = int(maxRows)
		}

		res, err := deps.Gateway.RunSQL(ctx, sqlQuery, opts)
		if err != nil {
			if errResult := TypedErrorResult(err); errResult != nil {
				return errResult, nil
			}
			deps.Logger.Error("run_sql tool failed", zap.Error(err))
			return nil, fmt.Errorf("run_sql failed: %w", err)
		}

		truncated := len(res.Result.Rows) > mcpRowLimit
		rows := res.Result.Rows
		if truncated {
			rows = rows[:mcpRowLimit]
		}

		response := struct {
			SQL             string               `json:"sql"`
			Columns         []analyst.ColumnInfo `json:"columns"`
			Rows            []map[string]any     `json:"rows"`
			RowCount        int                  `json:"row_count"`
			Truncated       bool                 `json:"truncated"`
			ExecutionTimeMs int64                `json:"execution_time_ms"`
		}{
			SQL:             res.SQL,
			Columns:         res.Result.Columns,
			Rows:            rows,
			RowCount:        len(rows),
			Truncated:       truncated,
			ExecutionTimeMs: res.Result.ExecutionTimeMs,
		}

		jsonResult, _ := json.Marshal(response)
		return mcp.NewToolResultText(string(jsonResult)), nil
	})
}
