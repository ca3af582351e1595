package handlers

import (
	"context"

	"github.com/themis-intel/themis-engine/pkg/analyst"
	"github.com/themis-intel/themis-engine/pkg/market"
)

func sampleQueryResult() *analyst.QueryResult {
	return &analyst.QueryResult{
		Columns: []analyst.ColumnInfo{
			{Name: "ticker", Type: "VARCHAR"},
			{Name: "mention_count", Type: "INT8"},
		},
		Rows: []map[string]any{
			{"ticker": "AAPL", "mention_count": int64(42)},
			{"ticker": "NVDA", "mention_count": int64(17)},
		},
		RowCount:        2,
		ExecutionTimeMs: 12,
	}
}

// mockGateway is a configurable mock for analyst handler tests.
type mockGateway struct {
	askResult    *analyst.AskResult
	runSQLResult *analyst.AskResult
	err          error

	askCalls     int
	runSQLCalls  int
	lastQuestion string
	lastSQL      string
	lastAskOpts  *analyst.AskOptions
	lastRunOpts  *analyst.RunSQLOptions
}

func (m *mockGateway) Ask(ctx context.Context, question string, opts *analyst.AskOptions) (*analyst.AskResult, error) {
	m.askCalls++
	m.lastQuestion = question
	m.lastAskOpts = opts
	if m.err != nil {
		return nil, m.err
	}
	if m.askResult != nil {
		return m.askResult, nil
	}
	return &analyst.AskResult{
		RequestID: "11111111-1111-1111-1111-111111111111",
		Question:  question,
		Answer:    "AAPL leads recent mentions.",
		SQL:       "SELECT ticker FROM securities LIMIT 10000",
		Model:     "openrouter/test/primary",
		Result:    sampleQueryResult(),
	}, nil
}

func (m *mockGateway) RunSQL(ctx context.Context, sqlQuery string, opts *analyst.RunSQLOptions) (*analyst.AskResult, error) {
	m.runSQLCalls++
	m.lastSQL = sqlQuery
	m.lastRunOpts = opts
	if m.err != nil {
		return nil, m.err
	}
	if m.runSQLResult != nil {
		return m.runSQLResult, nil
	}
	return &analyst.AskResult{
		RequestID: "22222222-2222-2222-2222-222222222222",
		SQL:       sqlQuery,
		Result:    sampleQueryResult(),
	}, nil
}

// mockMarketService is a configurable mock for market handler tests.
type mockMarketService struct {
	timeline []market.MentionPoint
	trending []market.TrendingSecurity
	err      error

	timelineCalls   int
	trendingCalls   int
	lastTicker      string
	lastDays        int
	lastLimit       int
	lastIncludeInfd bool
}

func (m *mockMarketService) MentionsTimeline(ctx context.Context, ticker string, windowDays int, includeInferred bool) ([]market.MentionPoint, error) {
	m.timelineCalls++
	m.lastTicker = ticker
	m.lastDays = windowDays
	m.lastIncludeInfd = includeInferred
	if m.err != nil {
		return nil, m.err
	}
	if m.timeline != nil {
		return m.timeline, nil
	}
	return []market.MentionPoint{
		{Day: "2026-08-20", Ticker: "AAPL", MentionCount: 3, MentionedCount: 2, InferredCount: 1},
	}, nil
}

func (m *mockMarketService) Trending(ctx context.Context, windowDays, limit int) ([]market.TrendingSecurity, error) {
	m.trendingCalls++
	m.lastDays = windowDays
	m.lastLimit = limit
	if m.err != nil {
		return nil, m.err
	}
	if m.trending != nil {
		return m.trending, nil
	}
	return []market.TrendingSecurity{
		{Ticker: "NVDA", AssetType: "stock", MentionCount: 12, ThemeCount: 4, ChannelCount: 3},
	}, nil
}
