package analyst

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/themis-intel/themis-engine/pkg/database"
)

// QueryExecutor runs already-validated SELECT statements against the
// analyst database.
type QueryExecutor interface {
	// Execute runs sqlQuery and collects the full result set. The query
	// runs inside a READ ONLY transaction with statement_timeout applied,
	// so writes and runaway statements fail server-side regardless of
	// what the safety gate saw. ExecutionTimeMs covers the query itself,
	// not connection acquisition.
	Execute(ctx context.Context, sqlQuery string) (*QueryResult, error)
}

type queryExecutor struct {
	db               *database.DB
	statementTimeout time.Duration
	logger           *zap.Logger
}

// NewQueryExecutor creates a QueryExecutor on the shared connection pool.
func NewQueryExecutor(db *database.DB, statementTimeout time.Duration, logger *zap.Logger) QueryExecutor {
	return &queryExecutor{
		db:               db,
		statementTimeout: statementTimeout,
		logger:           logger.Named("executor"),
	}
}

var _ QueryExecutor = (*queryExecutor)(nil)

func (e *queryExecutor) Execute(ctx context.Context, sqlQuery string) (*QueryResult, error) {
	conn, err := e.db.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Release()

	// READ ONLY and SET LOCAL are transaction-scoped, so the pooled
	// connection is handed back unchanged on every path.
	tx, err := conn.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("failed to begin read-only transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	timeoutSQL := fmt.Sprintf("SET LOCAL statement_timeout = %d", e.statementTimeout.Milliseconds())
	if _, err := tx.Exec(ctx, timeoutSQL); err != nil {
		return nil, fmt.Errorf("failed to set statement timeout: %w", err)
	}

	start := time.Now()

	rows, err := tx.Query(ctx, sqlQuery)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	fieldDescs := rows.FieldDescriptions()
	columns := make([]ColumnInfo, len(fieldDescs))
	for i, fd := range fieldDescs {
		columns[i] = ColumnInfo{
			Name: string(fd.Name),
			Type: pgTypeNameFromOID(fd.DataTypeOID),
		}
	}

	resultRows := make([]map[string]any, 0)
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}

		rowMap := make(map[string]any, len(columns))
		for i, col := range columns {
			rowMap[col.Name] = values[i]
		}
		resultRows = append(resultRows, rowMap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	rows.Close()

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit read-only transaction: %w", err)
	}

	elapsed := time.Since(start)

	e.logger.Debug("query executed",
		zap.Int("row_count", len(resultRows)),
		zap.Duration("elapsed", elapsed),
	)

	return &QueryResult{
		Columns:         columns,
		Rows:            resultRows,
		RowCount:        len(resultRows),
		ExecutionTimeMs: elapsed.Milliseconds(),
	}, nil
}

// pgTypeNameFromOID maps PostgreSQL type OIDs to readable type names for
// the column metadata returned to clients.
func pgTypeNameFromOID(oid uint32) string {
	switch oid {
	case 16:
		return "BOOL"
	case 17:
		return "BYTEA"
	case 20:
		return "INT8"
	case 21:
		return "INT2"
	case 23:
		return "INT4"
	case 25:
		return "TEXT"
	case 114:
		return "JSON"
	case 700:
		return "FLOAT4"
	case 701:
		return "FLOAT8"
	case 1042:
		return "BPCHAR"
	case 1043:
		return "VARCHAR"
	case 1082:
		return "DATE"
	case 1083:
		return "TIME"
	case 1114:
		return "TIMESTAMP"
	case 1184:
		return "TIMESTAMPTZ"
	case 1186:
		return "INTERVAL"
	case 1700:
		return "NUMERIC"
	case 2950:
		return "UUID"
	case 3802:
		return "JSONB"
	case 1000:
		return "BOOL[]"
	case 1007:
		return "INT4[]"
	case 1016:
		return "INT8[]"
	case 1009:
		return "TEXT[]"
	case 1015:
		return "VARCHAR[]"
	case 1021:
		return "FLOAT4[]"
	case 1022:
		return "FLOAT8[]"
	case 2951:
		return "UUID[]"
	case 3807:
		return "JSONB[]"
	default:
		return "UNKNOWN"
	}
}
