// Package schema describes the fixed THEMIS analyst schema: the five
// whitelisted tables, their columns, and the join-path notes embedded in SQL
// generation prompts. Everything here is build-time constant data with no
// mutation and no failure modes.
package schema

import (
	"fmt"
	"strings"
)

// Values of securities.source. The column is a closed two-value enum:
// a security was either explicitly named by the creator or identified by
// an LLM from surrounding context.
const (
	SourceMentioned = "mentioned"
	SourceInferred  = "inferred"
)

// Values of securities.asset_type.
const (
	AssetTypeStock  = "stock"
	AssetTypeCrypto = "crypto"
	AssetTypeETF    = "etf"
)

// Column is one column of a whitelisted table. Constraint carries the
// DDL suffix (PRIMARY KEY, NOT NULL, CHECK ...) and Comment the inline
// annotation shown to the model.
type Column struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	Constraint string `json:"constraint,omitempty"`
	Comment    string `json:"comment,omitempty"`
}

// Table is one whitelisted table.
type Table struct {
	Name    string   `json:"name"`
	Columns []Column `json:"columns"`
}

// tables lists the five allowed tables in join-path order. The analyst
// pipeline must never reference anything outside this set.
var tables = []Table{
	{
		Name: "channels",
		Columns: []Column{
			{Name: "id", Type: "UUID", Constraint: "PRIMARY KEY"},
			{Name: "channel_id", Type: "TEXT", Constraint: "UNIQUE NOT NULL"},
			{Name: "channel_name", Type: "TEXT", Constraint: "NOT NULL"},
			{Name: "created_at", Type: "TIMESTAMP", Constraint: "DEFAULT NOW()"},
		},
	},
	{
		Name: "videos",
		Columns: []Column{
			{Name: "id", Type: "UUID", Constraint: "PRIMARY KEY"},
			{Name: "video_id", Type: "TEXT", Constraint: "UNIQUE NOT NULL"},
			{Name: "channel_id", Type: "UUID", Constraint: "REFERENCES channels(id)"},
			{Name: "title", Type: "TEXT", Constraint: "NOT NULL"},
			{Name: "published_at", Type: "TIMESTAMP", Constraint: "NOT NULL", Comment: "When creator uploaded video"},
			{Name: "created_at", Type: "TIMESTAMP", Constraint: "DEFAULT NOW()"},
		},
	},
	{
		Name: "chunk_analyses",
		Columns: []Column{
			{Name: "id", Type: "UUID", Constraint: "PRIMARY KEY"},
			{Name: "video_id", Type: "TEXT", Constraint: "REFERENCES videos(video_id)"},
			{Name: "chunk_index", Type: "INTEGER", Constraint: "NOT NULL"},
			{Name: "start_time_ms", Type: "INTEGER", Constraint: "NOT NULL"},
			{Name: "end_time_ms", Type: "INTEGER", Constraint: "NOT NULL"},
			{Name: "duration_seconds", Type: "NUMERIC"},
			{Name: "word_count", Type: "INTEGER"},
			{Name: "core_concepts", Type: "JSONB"},
			{Name: "analyzed_at", Type: "TIMESTAMP"},
			{Name: "created_at", Type: "TIMESTAMP", Constraint: "DEFAULT NOW()"},
		},
	},
	{
		Name: "investment_themes",
		Columns: []Column{
			{Name: "id", Type: "UUID", Constraint: "PRIMARY KEY"},
			{Name: "chunk_id", Type: "UUID", Constraint: "REFERENCES chunk_analyses(id)"},
			{Name: "theme_name", Type: "TEXT", Constraint: "NOT NULL"},
			{Name: "rationale", Type: "TEXT", Constraint: "NOT NULL"},
			{Name: "created_at", Type: "TIMESTAMP", Constraint: "DEFAULT NOW()"},
		},
	},
	{
		Name: "securities",
		Columns: []Column{
			{Name: "id", Type: "UUID", Constraint: "PRIMARY KEY"},
			{Name: "theme_id", Type: "UUID", Constraint: "REFERENCES investment_themes(id)"},
			{Name: "ticker", Type: "TEXT", Constraint: "NOT NULL"},
			{Name: "asset_type", Type: "TEXT", Constraint: "CHECK (asset_type IN ('stock', 'crypto', 'etf'))"},
			{Name: "source", Type: "TEXT", Constraint: "CHECK (source IN ('mentioned', 'inferred'))", Comment: "mentioned = explicit, inferred = LLM extracted"},
			{Name: "reasoning", Type: "TEXT", Constraint: "NOT NULL"},
			{Name: "quote", Type: "TEXT", Comment: "Only populated for 'mentioned' source"},
			{Name: "created_at", Type: "TIMESTAMP", Constraint: "DEFAULT NOW()"},
		},
	},
}

// relationshipNotes document the join path and the two semantic rules every
// generation prompt must carry: time filters use videos.published_at, and
// securities.source distinguishes explicit from inferred mentions.
const relationshipNotes = `-- Key Relationships:
-- channels → videos → chunk_analyses → investment_themes → securities
-- Use videos.published_at for timing (not created_at)
-- source='mentioned' = explicitly named, source='inferred' = LLM identified`

// Tables returns the whitelisted tables in join-path order.
func Tables() []Table {
	out := make([]Table, len(tables))
	copy(out, tables)
	return out
}

// AllowedTables returns the table-name whitelist in join-path order.
func AllowedTables() []string {
	names := make([]string, len(tables))
	for i, t := range tables {
		names[i] = t.Name
	}
	return names
}

// IsAllowed reports whether name is a whitelisted table. Matching is
// case-insensitive; qualified or quoted identifiers are not whitelisted.
func IsAllowed(name string) bool {
	for _, t := range tables {
		if strings.EqualFold(t.Name, name) {
			return true
		}
	}
	return false
}

// PromptContext renders the schema as DDL-style text for generation prompts.
func PromptContext() string {
	var b strings.Builder

	b.WriteString("-- THEMIS Database Schema (5 Core Tables)\n")
	for _, t := range tables {
		b.WriteString(fmt.Sprintf("\nCREATE TABLE %s (\n", t.Name))
		for i, col := range t.Columns {
			b.WriteString("    " + col.Name + " " + col.Type)
			if col.Constraint != "" {
				b.WriteString(" " + col.Constraint)
			}
			if i < len(t.Columns)-1 {
				b.WriteString(",")
			}
			if col.Comment != "" {
				b.WriteString("  -- " + col.Comment)
			}
			b.WriteString("\n")
		}
		b.WriteString(");\n")
	}
	b.WriteString("\n" + relationshipNotes + "\n")

	return b.String()
}
