package sql

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// limitPattern matches a LIMIT clause and captures its value.
var limitPattern = regexp.MustCompile(`(?i)\bLIMIT\s+(\d+)`)

// ApplyRowLimit guarantees sqlQuery returns at most maxRows rows. An
// existing LIMIT above the ceiling is rewritten in place; a missing LIMIT
// is appended after stripping any trailing statement terminator. The
// function is total over well-formed SELECT statements and idempotent for
// a fixed ceiling.
func ApplyRowLimit(sqlQuery string, maxRows int) string {
	if match := limitPattern.FindStringSubmatch(sqlQuery); match != nil {
		existing, err := strconv.Atoi(match[1])
		if err != nil || existing > maxRows {
			// Atoi only fails on values too large for int.
			return limitPattern.ReplaceAllString(sqlQuery, fmt.Sprintf("LIMIT %d", maxRows))
		}
		return sqlQuery
	}

	return stripTrailingSemicolon(strings.TrimSpace(sqlQuery)) + fmt.Sprintf(" LIMIT %d", maxRows)
}

// stripTrailingSemicolon removes trailing statement terminators and the
// whitespace around them.
func stripTrailingSemicolon(sqlQuery string) string {
	sqlQuery = strings.TrimRight(sqlQuery, " \t\n\r")
	for strings.HasSuffix(sqlQuery, ";") {
		sqlQuery = strings.TrimSuffix(sqlQuery, ";")
		sqlQuery = strings.TrimRight(sqlQuery, " \t\n\r")
	}
	return sqlQuery
}
