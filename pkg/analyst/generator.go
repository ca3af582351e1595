package analyst

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/themis-intel/themis-engine/pkg/llm"
	"github.com/themis-intel/themis-engine/pkg/schema"
)

// generationPrompt is the instruction template for SQL generation. The two
// %s slots take the schema context and the user question.
const generationPrompt = `You are a PostgreSQL expert. Generate a SQL query to answer this question.

DATABASE SCHEMA:
%s

USER QUESTION:
%s

IMPORTANT INSTRUCTIONS:
1. Return ONLY the SQL query, no explanations or markdown
2. Use video.published_at for date filtering (NOT created_at)
3. For "mentioned" vs "inferred": use securities.source column
4. Join tables properly using the relationships shown above
5. Use standard PostgreSQL syntax
6. Be precise and efficient

Return pure SQL only:
`

// SQLGenerator turns an analyst question into a candidate SQL query.
// The output has had fences and reasoning blocks stripped but has NOT
// passed the safety gate.
type SQLGenerator interface {
	Generate(ctx context.Context, client llm.LLMClient, question string) (string, error)
}

type sqlGenerator struct {
	schemaContext string
	logger        *zap.Logger
}

// NewSQLGenerator creates a SQLGenerator over the built-in schema context.
func NewSQLGenerator(logger *zap.Logger) SQLGenerator {
	return &sqlGenerator{
		schemaContext: schema.PromptContext(),
		logger:        logger.Named("sql_generator"),
	}
}

var _ SQLGenerator = (*sqlGenerator)(nil)

func (g *sqlGenerator) Generate(ctx context.Context, client llm.LLMClient, question string) (string, error) {
	prompt := fmt.Sprintf(generationPrompt, g.schemaContext, question)

	raw, err := client.GenerateResponse(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("LLM generation failed: %w", err)
	}

	sqlQuery := llm.CleanResponse(raw)
	if sqlQuery == "" {
		return "", fmt.Errorf("model %s returned an empty query", client.GetModel())
	}

	g.logger.Debug("generated sql",
		zap.String("model", client.GetModel()),
		zap.Int("sql_len", len(sqlQuery)),
	)

	return sqlQuery, nil
}
