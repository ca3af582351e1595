package tools

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/themis-intel/themis-engine/pkg/apperrors"
	"github.com/themis-intel/themis-engine/pkg/logging"
)

// ErrorResponse is the structured error payload carried inside tool results.
// Actionable failures are returned this way, as an error-flagged text result,
// so the calling model sees the code and message instead of an opaque MCP
// protocol error it cannot react to.
type ErrorResponse struct {
	Error   bool   `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewErrorResult creates a tool result containing a structured error.
// Use this for errors the caller can fix and retry (rejected SQL, invalid
// parameters, generation failures).
//
// Do NOT use this for system failures (database connection errors,
// misconfiguration) - those should still return Go errors.
func NewErrorResult(code, message string) *mcp.CallToolResult {
	payload, _ := json.Marshal(ErrorResponse{
		Error:   true,
		Code:    code,
		Message: message,
	})
	result := mcp.NewToolResultText(string(payload))
	result.IsError = true
	return result
}

// TypedErrorResult converts a gateway or market error into an actionable
// tool error result, using the same codes the HTTP surface returns.
// Execution failures caused by the statement itself (bad syntax, unknown
// column) get a SQLSTATE-derived code so the caller knows what to fix.
//
// Returns nil for system failures; callers should surface those as Go
// errors instead.
func TypedErrorResult(err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, apperrors.ErrInvalidInput):
		return NewErrorResult("invalid_input", logging.SanitizeError(err))
	case errors.Is(err, apperrors.ErrSecurityRejected):
		return NewErrorResult("sql_rejected", logging.SanitizeError(err))
	case errors.Is(err, apperrors.ErrExecution):
		if code := SQLUserErrorCode(err); code != "" {
			return NewErrorResult(code, ExtractSQLErrorMessage(err))
		}
		return NewErrorResult("execution_failed", logging.SanitizeError(err))
	case errors.Is(err, apperrors.ErrGeneration):
		return NewErrorResult("generation_failed", logging.SanitizeError(err))
	}
	return nil
}

// sqlStateCodes maps SQLSTATE values the caller is likely to hit while
// iterating on a statement to specific codes.
var sqlStateCodes = map[string]string{
	"42601": "syntax_error",
	"42703": "undefined_column",
	"42P01": "undefined_table",
	"42883": "undefined_function",
	"22003": "numeric_out_of_range",
	"22007": "invalid_datetime",
	"22012": "division_by_zero",
	"22P02": "invalid_input",
}

// sqlStateClassCodes covers the remaining user-error classes: 22 data
// exception, 23 integrity constraint violation, 42 syntax or access rule
// violation, 44 WITH CHECK OPTION violation. Classes not listed here
// (connection loss, statement timeout) are server-side failures and
// produce no code.
var sqlStateClassCodes = map[string]string{
	"22": "data_exception",
	"23": "constraint_violation",
	"42": "sql_error",
	"44": "check_option_violation",
}

// sqlStatePattern matches the "(SQLSTATE 42601)" suffix Postgres drivers
// append to stringified errors.
var sqlStatePattern = regexp.MustCompile(`\(SQLSTATE ([0-9A-Z]{5})\)`)

// SQLUserErrorCode returns an error code for SQL errors the caller can fix
// by changing the statement. Returns empty string for anything else,
// including server-side failures like connection loss or a statement
// timeout.
func SQLUserErrorCode(err error) string {
	if err == nil {
		return ""
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return codeForSQLState(pgErr.Code)
	}

	// Wrapped errors lose the pgconn type but keep the SQLSTATE text.
	if m := sqlStatePattern.FindStringSubmatch(err.Error()); len(m) == 2 {
		return codeForSQLState(m[1])
	}
	return ""
}

func codeForSQLState(state string) string {
	if code, ok := sqlStateCodes[state]; ok {
		return code
	}
	if len(state) >= 2 {
		return sqlStateClassCodes[state[:2]]
	}
	return ""
}

// wrapPrefixes are the layers the executor and Postgres put in front of
// the useful part of an error message.
var wrapPrefixes = []string{
	"query execution failed: ",
	"query failed: ",
	"ERROR: ",
}

// ExtractSQLErrorMessage strips the SQLSTATE suffix and wrapping prefixes
// from a SQL error so the caller sees only the database's own message.
func ExtractSQLErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Message
	}

	msg := err.Error()
	if idx := strings.Index(msg, " (SQLSTATE"); idx != -1 {
		msg = msg[:idx]
	}
	for _, prefix := range wrapPrefixes {
		msg = strings.TrimPrefix(msg, prefix)
	}
	return msg
}
