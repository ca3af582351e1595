package analyst

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderTable(t *testing.T) {
	result := &QueryResult{
		Columns: []ColumnInfo{
			{Name: "ticker", Type: "VARCHAR"},
			{Name: "first_seen", Type: "TIMESTAMPTZ"},
			{Name: "note", Type: "TEXT"},
		},
		Rows: []map[string]any{
			{
				"ticker":     "AAPL",
				"first_seen": time.Date(2025, 11, 3, 9, 30, 0, 0, time.UTC),
				"note":       nil,
			},
		},
		RowCount: 1,
	}

	rendered := result.RenderTable(50)

	assert.Contains(t, rendered, "ticker")
	assert.Contains(t, rendered, "first_seen")
	assert.Contains(t, rendered, "AAPL")
	assert.Contains(t, rendered, "2025-11-03 09:30:00")
	assert.Contains(t, rendered, "NULL")

	// Header row comes before data rows.
	assert.Less(t, strings.Index(rendered, "ticker"), strings.Index(rendered, "AAPL"))
}

func TestRenderTable_MaxRows(t *testing.T) {
	result := sampleResult(10)

	rendered := result.RenderTable(3)
	assert.Contains(t, rendered, "T02")
	assert.NotContains(t, rendered, "T03")

	// maxRows <= 0 renders everything.
	full := result.RenderTable(0)
	assert.Contains(t, full, "T09")
}

func TestCSVRecords(t *testing.T) {
	result := &QueryResult{
		Columns: []ColumnInfo{
			{Name: "ticker", Type: "VARCHAR"},
			{Name: "mention_count", Type: "INT8"},
			{Name: "theme", Type: "TEXT"},
		},
		Rows: []map[string]any{
			{"ticker": "NVDA", "mention_count": int64(42), "theme": "ai infrastructure"},
			{"ticker": "TSLA", "mention_count": int64(7), "theme": nil},
		},
		RowCount: 2,
	}

	records := result.CSVRecords()
	require.Len(t, records, 3)

	assert.Equal(t, []string{"ticker", "mention_count", "theme"}, records[0])
	assert.Equal(t, []string{"NVDA", "42", "ai infrastructure"}, records[1])
	assert.Equal(t, []string{"TSLA", "7", ""}, records[2], "NULL becomes an empty CSV field")
}

func TestFormatCell(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, "NULL"},
		{"string", "hello", "hello"},
		{"bytes", []byte("raw"), "raw"},
		{"int64", int64(99), "99"},
		{"float", 3.14, "3.14"},
		{"bool", true, "true"},
		{"time", time.Date(2026, 1, 15, 18, 0, 5, 0, time.UTC), "2026-01-15 18:00:05"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatCell(tt.in))
		})
	}
}
