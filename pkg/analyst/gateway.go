// Package analyst implements the natural-language query gateway for the
// THEMIS analyst database: SQL generation over the built-in schema
// context, the lexical safety gate, read-only execution, and answer
// synthesis.
package analyst

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/themis-intel/themis-engine/pkg/apperrors"
	"github.com/themis-intel/themis-engine/pkg/audit"
	"github.com/themis-intel/themis-engine/pkg/config"
	"github.com/themis-intel/themis-engine/pkg/llm"
	"github.com/themis-intel/themis-engine/pkg/logging"
	"github.com/themis-intel/themis-engine/pkg/schema"
	"github.com/themis-intel/themis-engine/pkg/sql"
)

// Gateway is the entry point for analyst queries. Both operations are
// stateless; every call gets a fresh request id and its own audit trail.
//
// Errors wrap one of the apperrors sentinels so transports can map them:
// ErrConfiguration (missing credentials), ErrGeneration (the model chain
// produced no SQL), ErrSecurityRejected (the safety gate blocked the
// statement), ErrExecution (the database refused the query).
type Gateway interface {
	// Ask answers a natural-language question: generate SQL, validate,
	// execute, synthesize. Generation retries once on the fallback model;
	// nothing after generation is ever retried.
	Ask(ctx context.Context, question string, opts *AskOptions) (*AskResult, error)

	// RunSQL executes caller-provided SQL through the same safety gate
	// and row ceiling as generated SQL. Synthesis is opt-in.
	RunSQL(ctx context.Context, sqlQuery string, opts *RunSQLOptions) (*AskResult, error)
}

// AskOptions carries per-request overrides for Ask. Zero values defer to
// the configured defaults.
type AskOptions struct {
	PrimaryModel  string `json:"primary_model,omitempty"`
	FallbackModel string `json:"fallback_model,omitempty"`
	AutoFallback  *bool  `json:"auto_fallback,omitempty"`
	MaxRows       int    `json:"max_rows,omitempty"`
	IncludeSQL    bool   `json:"include_sql,omitempty"`
}

// RunSQLOptions carries per-request overrides for RunSQL. Question gives
// the synthesizer context and is otherwise unused.
type RunSQLOptions struct {
	MaxRows    int    `json:"max_rows,omitempty"`
	Synthesize bool   `json:"synthesize,omitempty"`
	Question   string `json:"question,omitempty"`
}

type gateway struct {
	factory     llm.LLMClientFactory
	generator   SQLGenerator
	executor    QueryExecutor
	synthesizer AnswerSynthesizer
	auditor     *audit.SecurityAuditor
	aiCfg       config.AIConfig
	queryCfg    config.QueryConfig
	logger      *zap.Logger
}

// NewGateway creates the analyst gateway. The generator and synthesizer
// are built internally; the executor is injected so transports and tests
// can share one pool.
func NewGateway(
	factory llm.LLMClientFactory,
	executor QueryExecutor,
	auditor *audit.SecurityAuditor,
	aiCfg config.AIConfig,
	queryCfg config.QueryConfig,
	logger *zap.Logger,
) Gateway {
	return &gateway{
		factory:     factory,
		generator:   NewSQLGenerator(logger),
		executor:    executor,
		synthesizer: NewAnswerSynthesizer(queryCfg.SynthesisSampleRows, logger),
		auditor:     auditor,
		aiCfg:       aiCfg,
		queryCfg:    queryCfg,
		logger:      logger.Named("analyst"),
	}
}

var _ Gateway = (*gateway)(nil)

func (g *gateway) Ask(ctx context.Context, question string, opts *AskOptions) (*AskResult, error) {
	if opts == nil {
		opts = &AskOptions{}
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is required", apperrors.ErrInvalidInput)
	}

	requestID := uuid.New().String()
	log := g.logger.With(zap.String("request_id", requestID))

	primary := opts.PrimaryModel
	if primary == "" {
		primary = g.aiCfg.PrimaryModel
	}
	fallback := opts.FallbackModel
	if fallback == "" {
		fallback = g.aiCfg.FallbackModel
	}
	autoFallback := g.aiCfg.AutoFallback
	if opts.AutoFallback != nil {
		autoFallback = *opts.AutoFallback
	}

	log.Info("processing question",
		zap.String("question", question),
		zap.String("primary_model", primary),
	)

	gen, err := g.generateSQL(ctx, log, question, primary, fallback, autoFallback)
	if err != nil {
		log.Error("sql generation failed",
			zap.String("error_type", string(llm.GetErrorType(err))),
			zap.Error(err),
		)
		return nil, err
	}

	finalSQL, result, err := g.runValidated(ctx, log, requestID, gen.sql, opts.MaxRows, gen.model)
	if err != nil {
		return nil, err
	}

	synthCtx, cancel := context.WithTimeout(ctx, g.aiCfg.GenerationTimeout())
	defer cancel()
	answer := g.synthesizer.Synthesize(synthCtx, gen.client, question, finalSQL, result)

	res := &AskResult{
		RequestID:    requestID,
		Question:     question,
		Answer:       answer,
		Model:        gen.model,
		UsedFallback: gen.usedFallback,
		Result:       result,
	}
	if opts.IncludeSQL {
		res.SQL = finalSQL
	}

	log.Info("question answered",
		zap.String("model", gen.model),
		zap.Bool("used_fallback", gen.usedFallback),
		zap.Int("row_count", result.RowCount),
		zap.Int64("execution_time_ms", result.ExecutionTimeMs),
	)

	return res, nil
}

func (g *gateway) RunSQL(ctx context.Context, sqlQuery string, opts *RunSQLOptions) (*AskResult, error) {
	if opts == nil {
		opts = &RunSQLOptions{}
	}
	sqlQuery = strings.TrimSpace(sqlQuery)
	if sqlQuery == "" {
		return nil, fmt.Errorf("%w: sql is required", apperrors.ErrInvalidInput)
	}

	requestID := uuid.New().String()
	log := g.logger.With(zap.String("request_id", requestID))

	log.Info("executing direct sql", zap.Int("sql_len", len(sqlQuery)))

	finalSQL, result, err := g.runValidated(ctx, log, requestID, sqlQuery, opts.MaxRows, "")
	if err != nil {
		return nil, err
	}

	res := &AskResult{
		RequestID: requestID,
		Question:  opts.Question,
		SQL:       finalSQL,
		Result:    result,
	}

	if opts.Synthesize {
		if client, err := g.factory.CreateForModel(g.aiCfg.PrimaryModel); err != nil {
			// Direct SQL works without model credentials; fall back to
			// the row-count summary.
			log.Warn("synthesis unavailable", zap.Error(err))
			res.Answer = fallbackAnswer(result.RowCount)
		} else {
			synthCtx, cancel := context.WithTimeout(ctx, g.aiCfg.GenerationTimeout())
			defer cancel()
			res.Answer = g.synthesizer.Synthesize(synthCtx, client, opts.Question, finalSQL, result)
			res.Model = g.aiCfg.PrimaryModel
		}
	}

	log.Info("direct sql executed",
		zap.Int("row_count", result.RowCount),
		zap.Int64("execution_time_ms", result.ExecutionTimeMs),
	)

	return res, nil
}

// generation is the outcome of the model chain: the candidate SQL, the
// client that produced it (reused for synthesis), and which configured
// model id won.
type generation struct {
	sql          string
	client       llm.LLMClient
	model        string
	usedFallback bool
}

// generateSQL runs the model chain. The fallback model fires at most once
// and only for generation failures; once SQL exists, no model is called
// again for this request except synthesis.
func (g *gateway) generateSQL(ctx context.Context, log *zap.Logger, question, primary, fallback string, autoFallback bool) (*generation, error) {
	sqlQuery, client, err := g.generateOnce(ctx, question, primary)
	if err == nil {
		return &generation{sql: sqlQuery, client: client, model: primary}, nil
	}

	if !autoFallback || fallback == "" || fallback == primary {
		return nil, err
	}

	log.Warn("primary model failed, trying fallback",
		zap.String("primary_model", primary),
		zap.String("fallback_model", fallback),
		zap.String("error_type", string(llm.GetErrorType(err))),
		zap.Error(err),
	)

	sqlQuery, client, err = g.generateOnce(ctx, question, fallback)
	if err != nil {
		return nil, err
	}

	return &generation{sql: sqlQuery, client: client, model: fallback, usedFallback: true}, nil
}

func (g *gateway) generateOnce(ctx context.Context, question, model string) (string, llm.LLMClient, error) {
	client, err := g.factory.CreateForModel(model)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", apperrors.ErrConfiguration, err)
	}

	genCtx, cancel := context.WithTimeout(ctx, g.aiCfg.GenerationTimeout())
	defer cancel()

	sqlQuery, err := g.generator.Generate(genCtx, client, question)
	if err != nil {
		return "", nil, fmt.Errorf("%w: model %s: %w", apperrors.ErrGeneration, model, err)
	}

	return sqlQuery, client, nil
}

// runValidated applies the safety gate and row ceiling, then executes.
// The rejected path never touches the database; the executed path always
// leaves an audit event. model is recorded in the execution event and is
// empty for direct SQL.
func (g *gateway) runValidated(ctx context.Context, log *zap.Logger, requestID, sqlQuery string, maxRows int, model string) (string, *QueryResult, error) {
	verdict := sql.Validate(sqlQuery, schema.AllowedTables())
	if !verdict.Allowed {
		g.auditor.LogSQLRejected(requestID, audit.RejectionDetails{
			SQL:    logging.SanitizeQuery(sqlQuery),
			Rule:   string(verdict.Rule),
			Reason: verdict.Reason,
		})
		log.Warn("sql rejected",
			zap.String("rule", string(verdict.Rule)),
			zap.String("reason", verdict.Reason),
		)
		return "", nil, fmt.Errorf("%w: %s", apperrors.ErrSecurityRejected, verdict.Reason)
	}

	finalSQL := sql.ApplyRowLimit(sqlQuery, g.queryCfg.EffectiveRowLimit(maxRows))

	result, err := g.executor.Execute(ctx, finalSQL)
	if err != nil {
		log.Error("query execution failed", zap.Error(err))
		return "", nil, fmt.Errorf("%w: %w", apperrors.ErrExecution, err)
	}

	g.auditor.LogQueryExecution(requestID, audit.ExecutionDetails{
		SQL:             logging.SanitizeQuery(finalSQL),
		Model:           model,
		RowCount:        result.RowCount,
		ExecutionTimeMs: result.ExecutionTimeMs,
	})

	return finalSQL, result, nil
}
