// Package audit provides security audit logging for SIEM consumption.
// Every event that matters to a security review of the analyst gateway
// (rejected SQL, injection attempts, query executions) is logged here in
// structured JSON so downstream systems can parse events without scraping
// formatted messages.
package audit

import (
	"encoding/json"
	"time"

	"go.uber.org/zap"
)

// SecurityEventType categorizes security-relevant events for filtering and alerting.
type SecurityEventType string

const (
	// EventSQLRejected is logged when a candidate query fails the safety gate.
	EventSQLRejected SecurityEventType = "sql_rejected"
	// EventSQLInjectionAttempt is logged when libinjection flags a request parameter.
	EventSQLInjectionAttempt SecurityEventType = "sql_injection_attempt"
	// EventQueryExecution is logged after a query runs against the analyst database.
	// Can be high volume; filter on event_type downstream if needed.
	EventQueryExecution SecurityEventType = "query_execution"
)

// SecurityEvent represents an auditable security event with the context a
// SIEM needs to correlate it back to a request.
type SecurityEvent struct {
	Timestamp time.Time         `json:"timestamp"`
	EventType SecurityEventType `json:"event_type"`
	RequestID string            `json:"request_id,omitempty"`
	Details   any               `json:"details"`
	Severity  string            `json:"severity"` // info, warning, critical
}

// RejectionDetails contains specifics of a query blocked by the safety gate.
type RejectionDetails struct {
	SQL    string `json:"sql"`
	Rule   string `json:"rule"`
	Reason string `json:"reason"`
}

// InjectionDetails contains specifics of a detected SQL injection attempt.
type InjectionDetails struct {
	ParamName   string `json:"param_name"`
	ParamValue  string `json:"param_value"`
	Fingerprint string `json:"fingerprint"` // libinjection fingerprint for pattern analysis
}

// ExecutionDetails describes one query executed against the analyst database.
type ExecutionDetails struct {
	SQL             string `json:"sql"`
	Model           string `json:"model,omitempty"`
	RowCount        int    `json:"row_count"`
	ExecutionTimeMs int64  `json:"execution_time_ms"`
}

// SecurityAuditor logs security events for SIEM consumption.
// Events are logged in structured JSON format with appropriate severity levels.
type SecurityAuditor struct {
	logger *zap.Logger
}

// NewSecurityAuditor creates a new security auditor with a dedicated
// "security_audit" logger namespace for easy filtering in SIEM systems.
func NewSecurityAuditor(logger *zap.Logger) *SecurityAuditor {
	return &SecurityAuditor{logger: logger.Named("security_audit")}
}

// LogSQLRejected records a query blocked by the safety gate. Logged at WARN
// with "warning" severity: most rejections are malformed model output rather
// than attacks, but the full statement is preserved for review.
func (a *SecurityAuditor) LogSQLRejected(requestID string, details RejectionDetails) {
	event := SecurityEvent{
		Timestamp: time.Now().UTC(),
		EventType: EventSQLRejected,
		RequestID: requestID,
		Details:   details,
		Severity:  "warning",
	}

	// Marshaling known types cannot fail.
	eventJSON, _ := json.Marshal(event)

	a.logger.Warn("SQL rejected by safety gate",
		zap.String("event_json", string(eventJSON)),
		zap.String("request_id", requestID),
		zap.String("rule", details.Rule),
		zap.String("reason", details.Reason),
		zap.String("severity", "warning"),
	)
}

// LogInjectionAttempt records a detected SQL injection attempt with full
// context. Logged at ERROR level with "critical" severity for immediate
// alerting.
//
// Example usage:
//
//	auditor.LogInjectionAttempt(requestID, audit.InjectionDetails{
//	    ParamName:   "ticker",
//	    ParamValue:  "'; DROP TABLE securities--",
//	    Fingerprint: "s&1c",
//	})
func (a *SecurityAuditor) LogInjectionAttempt(requestID string, details InjectionDetails) {
	event := SecurityEvent{
		Timestamp: time.Now().UTC(),
		EventType: EventSQLInjectionAttempt,
		RequestID: requestID,
		Details:   details,
		Severity:  "critical",
	}

	eventJSON, _ := json.Marshal(event)

	a.logger.Error("SQL injection attempt detected",
		zap.String("event_json", string(eventJSON)),
		zap.String("request_id", requestID),
		zap.String("param_name", details.ParamName),
		zap.String("fingerprint", details.Fingerprint),
		zap.String("severity", "critical"),
	)
}

// LogQueryExecution records a query executed against the analyst database
// for the audit trail. Logged at INFO level.
func (a *SecurityAuditor) LogQueryExecution(requestID string, details ExecutionDetails) {
	event := SecurityEvent{
		Timestamp: time.Now().UTC(),
		EventType: EventQueryExecution,
		RequestID: requestID,
		Details:   details,
		Severity:  "info",
	}

	eventJSON, _ := json.Marshal(event)

	a.logger.Info("Query executed",
		zap.String("event_json", string(eventJSON)),
		zap.String("request_id", requestID),
		zap.String("model", details.Model),
		zap.Int("row_count", details.RowCount),
		zap.Int64("execution_time_ms", details.ExecutionTimeMs),
		zap.String("severity", "info"),
	)
}
