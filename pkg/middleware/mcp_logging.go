package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/themis-intel/themis-engine/pkg/logging"
)

// maxLoggedArgLength bounds tool argument values in log lines. SQL
// statements and questions can run long; the gateway's audit trail keeps
// the full record.
const maxLoggedArgLength = 200

// rpcCall is the subset of a JSON-RPC tools/call request the logger
// cares about.
type rpcCall struct {
	Method string `json:"method"`
	Params struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	} `json:"params"`
}

// rpcResult is the subset of a JSON-RPC response the logger cares about.
type rpcResult struct {
	Result any       `json:"result"`
	Error  *rpcError `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// MCPRequestLogger returns middleware that logs MCP JSON-RPC traffic at
// debug level: the tool name, sanitized arguments, and the outcome with
// duration. A nil logger disables it entirely.
func MCPRequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if logger == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, err := io.ReadAll(r.Body)
			if err != nil {
				logger.Error("Failed to read MCP request body", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			// The MCP server still needs the body.
			r.Body = io.NopCloser(bytes.NewBuffer(body))

			var call rpcCall
			if err := json.Unmarshal(body, &call); err != nil {
				// Non-JSON bodies still get forwarded; the server
				// produces the protocol error.
				logger.Debug("Failed to parse MCP request JSON", zap.Error(err))
			}

			logger.Debug("MCP request",
				zap.String("method", call.Method),
				zap.String("tool", call.Params.Name),
				zap.Any("arguments", sanitizeArguments(call.Params.Arguments)),
			)

			capture := &responseCapture{ResponseWriter: w, body: &bytes.Buffer{}}
			start := time.Now()
			next.ServeHTTP(capture, r)
			duration := time.Since(start)

			var result rpcResult
			if err := json.Unmarshal(capture.body.Bytes(), &result); err != nil {
				logger.Debug("Failed to parse MCP response JSON", zap.Error(err))
				return
			}

			if result.Error != nil {
				logger.Debug("MCP response error",
					zap.String("tool", call.Params.Name),
					zap.Int("error_code", result.Error.Code),
					zap.String("error_message", result.Error.Message),
					zap.Duration("duration", duration),
				)
				return
			}
			logger.Debug("MCP response success",
				zap.String("tool", call.Params.Name),
				zap.Duration("duration", duration),
			)
		})
	}
}

// responseCapture tees the response body so the outcome can be logged
// after the handler runs.
type responseCapture struct {
	http.ResponseWriter
	body *bytes.Buffer
}

func (c *responseCapture) Write(b []byte) (int, error) {
	c.body.Write(b)
	return c.ResponseWriter.Write(b)
}

// sensitiveArgKeywords marks argument names whose values never reach a
// log line.
var sensitiveArgKeywords = []string{"password", "secret", "token", "key", "credential"}

// sanitizeArguments redacts sensitive fields and truncates long string
// values. Non-string values pass through untouched.
func sanitizeArguments(args map[string]any) map[string]any {
	if args == nil {
		return nil
	}

	out := make(map[string]any, len(args))
	for name, value := range args {
		if isSensitiveArgName(name) {
			out[name] = logging.RedactedText
			continue
		}
		if s, ok := value.(string); ok {
			out[name] = logging.TruncateString(s, maxLoggedArgLength)
			continue
		}
		out[name] = value
	}
	return out
}

func isSensitiveArgName(name string) bool {
	lower := strings.ToLower(name)
	for _, keyword := range sensitiveArgKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}
