package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/themis-intel/themis-engine/pkg/market"
)

// MarketToolDeps contains the dependencies for the market analytics tools.
type MarketToolDeps struct {
	Service market.Service
	Logger  *zap.Logger
}

// RegisterMarketTools registers the market analytics tools on the MCP server.
func RegisterMarketTools(s *server.MCPServer, deps *MarketToolDeps) {
	registerTrendingSecuritiesTool(s, deps)
}

// registerTrendingSecuritiesTool adds the trending_securities tool:
// the cached most-mentioned list the dashboard sidebar shows.
func registerTrendingSecuritiesTool(s *server.MCPServer, deps *MarketToolDeps) {
	tool := mcp.NewTool(
		"trending_securities",
		mcp.WithDescription(
			"List the securities mentioned most across recently ingested videos, "+
				"with mention, theme and channel counts per ticker. "+
				"Results are cached briefly, so repeated calls are cheap.",
		),
		mcp.WithNumber(
			"days",
			mcp.Description("Trailing window in days (default: 7)"),
		),
		mcp.WithNumber(
			"limit",
			mcp.Description("Maximum number of securities to return (default: 10)"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var days, limit int
		if val, ok := getOptionalFloat(req, "days"); ok {
			days = int(val)
		}
		if val, ok := getOptionalFloat(req, "limit"); ok {
			limit = int(val)
		}

		trending, err := deps.Service.Trending(ctx, days, limit)
		if err != nil {
			if errResult := TypedErrorResult(err); errResult != nil {
				return errResult, nil
			}
			deps.Logger.Error("trending_securities tool failed", zap.Error(err))
			return nil, fmt.Errorf("trending_securities failed: %w", err)
		}

		response := struct {
			Trending []market.TrendingSecurity `json:"trending"`
			Count    int                       `json:"count"`
		}{
			Trending: trending,
			Count:    len(trending),
		}

		jsonResult, _ := json.Marshal(response)
		return mcp.NewToolResultText(string(jsonResult)), nil
	})
}
