package analyst

import (
	"fmt"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
)

// ColumnInfo describes one column of a result set.
type ColumnInfo struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// QueryResult holds the rows returned by one executed query. Rows are
// keyed by column name; Columns preserves result-set order.
type QueryResult struct {
	Columns         []ColumnInfo     `json:"columns"`
	Rows            []map[string]any `json:"rows"`
	RowCount        int              `json:"row_count"`
	ExecutionTimeMs int64            `json:"execution_time_ms"`
}

// AskResult is the outcome of one analyst request, whether it started from
// a natural-language question or raw SQL.
type AskResult struct {
	RequestID    string       `json:"request_id"`
	Question     string       `json:"question,omitempty"`
	Answer       string       `json:"answer,omitempty"`
	SQL          string       `json:"sql,omitempty"`
	Model        string       `json:"model,omitempty"`
	UsedFallback bool         `json:"used_fallback,omitempty"`
	Result       *QueryResult `json:"result"`
}

// RenderTable renders up to maxRows rows as a plain-text table with
// columns in result-set order. maxRows <= 0 renders every row. Used for
// synthesis prompts.
func (r *QueryResult) RenderTable(maxRows int) string {
	var buf strings.Builder
	table := tablewriter.NewWriter(&buf)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(true)

	headers := make([]string, len(r.Columns))
	for i, col := range r.Columns {
		headers[i] = col.Name
	}
	table.SetHeader(headers)

	rows := r.Rows
	if maxRows > 0 && len(rows) > maxRows {
		rows = rows[:maxRows]
	}
	for _, row := range rows {
		cells := make([]string, len(r.Columns))
		for i, col := range r.Columns {
			cells[i] = formatCell(row[col.Name])
		}
		table.Append(cells)
	}

	table.Render()
	return buf.String()
}

// CSVRecords renders the result as CSV records: a header of column names
// followed by one record per row. NULLs become empty fields.
func (r *QueryResult) CSVRecords() [][]string {
	records := make([][]string, 0, len(r.Rows)+1)

	header := make([]string, len(r.Columns))
	for i, col := range r.Columns {
		header[i] = col.Name
	}
	records = append(records, header)

	for _, row := range r.Rows {
		record := make([]string, len(r.Columns))
		for i, col := range r.Columns {
			if v := row[col.Name]; v != nil {
				record[i] = formatCell(v)
			}
		}
		records = append(records, record)
	}

	return records
}

func formatCell(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case string:
		return val
	case []byte:
		return string(val)
	case time.Time:
		return val.Format("2006-01-02 15:04:05")
	default:
		return fmt.Sprint(val)
	}
}
