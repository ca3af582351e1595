package analyst

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/themis-intel/themis-engine/pkg/llm"
)

// noResultsAnswer is returned for empty result sets without calling a model.
const noResultsAnswer = "No results found for your question."

// AnswerSynthesizer produces a natural-language answer from query results.
type AnswerSynthesizer interface {
	// Synthesize never fails: when the model call errors or returns
	// nothing usable, the caller gets a row-count summary instead. The
	// sample sent to the model is capped; the full result set stays with
	// the caller.
	Synthesize(ctx context.Context, client llm.LLMClient, question, sqlQuery string, result *QueryResult) string
}

type answerSynthesizer struct {
	sampleRows int
	logger     *zap.Logger
}

// NewAnswerSynthesizer creates an AnswerSynthesizer that sends at most
// sampleRows rows to the model.
func NewAnswerSynthesizer(sampleRows int, logger *zap.Logger) AnswerSynthesizer {
	if sampleRows <= 0 {
		sampleRows = 50
	}
	return &answerSynthesizer{
		sampleRows: sampleRows,
		logger:     logger.Named("synthesizer"),
	}
}

var _ AnswerSynthesizer = (*answerSynthesizer)(nil)

func (s *answerSynthesizer) Synthesize(ctx context.Context, client llm.LLMClient, question, sqlQuery string, result *QueryResult) string {
	if result == nil || result.RowCount == 0 {
		return noResultsAnswer
	}

	var prompt strings.Builder
	prompt.WriteString("You are a financial analyst explaining query results.\n\n")
	prompt.WriteString("USER QUESTION:\n")
	prompt.WriteString(question)
	prompt.WriteString("\n\nSQL QUERY EXECUTED:\n")
	prompt.WriteString(sqlQuery)
	prompt.WriteString("\n\nQUERY RESULTS:\n")
	prompt.WriteString(result.RenderTable(s.sampleRows))
	if result.RowCount > s.sampleRows {
		fmt.Fprintf(&prompt, "\n...(showing first %d rows)\n", s.sampleRows)
	}
	prompt.WriteString("\nProvide a clear, concise answer to the user's question based on these results.\n")
	prompt.WriteString("Focus on the key insights and numbers. Be specific and professional.")

	raw, err := client.GenerateResponse(ctx, prompt.String())
	if err != nil {
		s.logger.Warn("answer synthesis failed, using fallback summary",
			zap.String("model", client.GetModel()),
			zap.String("error_type", string(llm.GetErrorType(err))),
			zap.Error(err),
		)
		return fallbackAnswer(result.RowCount)
	}

	answer := llm.CleanResponse(raw)
	if answer == "" {
		return fallbackAnswer(result.RowCount)
	}
	return answer
}

func fallbackAnswer(rowCount int) string {
	return fmt.Sprintf("Query returned %d rows. See the table below for details.", rowCount)
}
