// Package sql provides the lexical safety gate applied to candidate SQL
// before execution: statement-kind and keyword checks, the FROM/JOIN table
// whitelist, and row-limit enforcement.
package sql

import (
	"fmt"
	"regexp"
	"strings"
)

// RejectionRule identifies which safety check rejected a query.
type RejectionRule string

const (
	RuleNotReadOnly      RejectionRule = "not_read_only"
	RuleForbiddenKeyword RejectionRule = "forbidden_keyword"
	RuleTableNotAllowed  RejectionRule = "table_not_allowed"
)

// forbiddenKeywords are rejected as whole words anywhere in a statement,
// case-insensitively, including inside string literals and comments.
var forbiddenKeywords = []string{
	"DROP", "DELETE", "UPDATE", "INSERT",
	"ALTER", "CREATE", "TRUNCATE", "GRANT",
	"REVOKE", "SET", "EXECUTE", "CALL",
}

var forbiddenKeywordPatterns = compileKeywordPatterns(forbiddenKeywords)

func compileKeywordPatterns(keywords []string) []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, len(keywords))
	for i, kw := range keywords {
		patterns[i] = regexp.MustCompile(`(?i)\b` + kw + `\b`)
	}
	return patterns
}

// fromJoinPattern captures the identifier immediately following a FROM or
// JOIN token. Lexical only: aliases, CTE names, and qualified identifiers
// are not resolved.
var fromJoinPattern = regexp.MustCompile(`(?i)\b(?:FROM|JOIN)\s+([A-Za-z_][A-Za-z0-9_]*)`)

// SafetyResult is the verdict of the safety gate on one candidate query.
// When Allowed is false, Rule names the check that failed, Token the
// offending keyword or table, and Reason carries a display-ready message.
type SafetyResult struct {
	Allowed bool
	Rule    RejectionRule
	Token   string
	Reason  string
}

func rejected(rule RejectionRule, token, reason string) SafetyResult {
	return SafetyResult{Rule: rule, Token: token, Reason: reason}
}

// CheckSafety verifies the statement is a SELECT and contains none of the
// forbidden keywords.
func CheckSafety(sqlQuery string) SafetyResult {
	trimmed := strings.TrimSpace(sqlQuery)

	if !strings.HasPrefix(strings.ToUpper(trimmed), "SELECT") {
		return rejected(RuleNotReadOnly, "", "Only SELECT queries allowed")
	}

	for i, pattern := range forbiddenKeywordPatterns {
		if pattern.MatchString(trimmed) {
			kw := forbiddenKeywords[i]
			return rejected(RuleForbiddenKeyword, kw, fmt.Sprintf("Keyword '%s' not allowed", kw))
		}
	}

	return SafetyResult{Allowed: true}
}

// CheckTableAccess verifies every identifier following a FROM or JOIN token
// is in allowedTables. LATERAL is skipped: JOIN LATERAL is legal read-only
// syntax, not a table reference. The first disallowed identifier found is
// named in the verdict.
func CheckTableAccess(sqlQuery string, allowedTables []string) SafetyResult {
	for _, match := range fromJoinPattern.FindAllStringSubmatch(sqlQuery, -1) {
		ident := match[1]
		if strings.EqualFold(ident, "LATERAL") {
			continue
		}
		if !tableAllowed(ident, allowedTables) {
			upper := strings.ToUpper(ident)
			return rejected(RuleTableNotAllowed, upper,
				fmt.Sprintf("Access to table '%s' not allowed. Allowed tables: %s",
					upper, strings.Join(allowedTables, ", ")))
		}
	}

	return SafetyResult{Allowed: true}
}

func tableAllowed(ident string, allowedTables []string) bool {
	for _, t := range allowedTables {
		if strings.EqualFold(ident, t) {
			return true
		}
	}
	return false
}

// Validate runs both safety checks in order and returns the first
// rejection. Every candidate query must pass it before any connection is
// acquired.
func Validate(sqlQuery string, allowedTables []string) SafetyResult {
	if res := CheckSafety(sqlQuery); !res.Allowed {
		return res
	}
	return CheckTableAccess(sqlQuery, allowedTables)
}
