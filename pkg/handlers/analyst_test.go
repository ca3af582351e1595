package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/themis-intel/themis-engine/pkg/analyst"
	"github.com/themis-intel/themis-engine/pkg/apperrors"
)

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) ApiResponse {
	t.Helper()
	var envelope ApiResponse
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return envelope
}

func TestAnalystHandler_Ask(t *testing.T) {
	gw := &mockGateway{}
	handler := NewAnalystHandler(gw, zap.NewNop())

	body := `{"question":"What are the top tickers?","max_rows":500}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyst/ask", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Ask(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	envelope := decodeEnvelope(t, rec)
	if !envelope.Success {
		t.Error("expected success=true")
	}

	if gw.askCalls != 1 {
		t.Errorf("expected 1 gateway call, got %d", gw.askCalls)
	}
	if gw.lastQuestion != "What are the top tickers?" {
		t.Errorf("unexpected question: %q", gw.lastQuestion)
	}
	if gw.lastAskOpts.MaxRows != 500 {
		t.Errorf("expected max_rows 500, got %d", gw.lastAskOpts.MaxRows)
	}
	if !gw.lastAskOpts.IncludeSQL {
		t.Error("include_sql must default to true")
	}

	data, err := json.Marshal(envelope.Data)
	if err != nil {
		t.Fatalf("failed to re-marshal data: %v", err)
	}
	var result analyst.AskResult
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("failed to decode ask result: %v", err)
	}
	if result.Answer != "AAPL leads recent mentions." {
		t.Errorf("unexpected answer: %q", result.Answer)
	}
	if result.Result == nil || result.Result.RowCount != 2 {
		t.Error("expected query result with 2 rows")
	}
}

func TestAnalystHandler_Ask_IncludeSQLFalse(t *testing.T) {
	gw := &mockGateway{}
	handler := NewAnalystHandler(gw, zap.NewNop())

	body := `{"question":"top tickers","include_sql":false}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyst/ask", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Ask(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if gw.lastAskOpts.IncludeSQL {
		t.Error("include_sql=false must be passed through")
	}
}

func TestAnalystHandler_Ask_InvalidBody(t *testing.T) {
	gw := &mockGateway{}
	handler := NewAnalystHandler(gw, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyst/ask", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()

	handler.Ask(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}
	envelope := decodeEnvelope(t, rec)
	if envelope.Error != "invalid_request" {
		t.Errorf("expected error 'invalid_request', got %q", envelope.Error)
	}
	if gw.askCalls != 0 {
		t.Error("gateway must not be called for a malformed body")
	}
}

func TestAnalystHandler_Ask_MissingQuestion(t *testing.T) {
	gw := &mockGateway{}
	handler := NewAnalystHandler(gw, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyst/ask", strings.NewReader(`{"question":"   "}`))
	rec := httptest.NewRecorder()

	handler.Ask(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}
	envelope := decodeEnvelope(t, rec)
	if envelope.Error != "missing_question" {
		t.Errorf("expected error 'missing_question', got %q", envelope.Error)
	}
	if gw.askCalls != 0 {
		t.Error("gateway must not be called without a question")
	}
}

func TestAnalystHandler_Ask_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"security rejected", fmt.Errorf("%w: Keyword 'DROP' not allowed", apperrors.ErrSecurityRejected), http.StatusBadRequest, "sql_rejected"},
		{"generation failed", fmt.Errorf("%w: model x: boom", apperrors.ErrGeneration), http.StatusBadGateway, "generation_failed"},
		{"execution failed", fmt.Errorf("%w: syntax error", apperrors.ErrExecution), http.StatusBadRequest, "execution_failed"},
		{"configuration", fmt.Errorf("%w: OPENROUTER_API_KEY not set", apperrors.ErrConfiguration), http.StatusInternalServerError, "configuration_error"},
		{"invalid input", fmt.Errorf("%w: question is required", apperrors.ErrInvalidInput), http.StatusBadRequest, "invalid_input"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &mockGateway{err: tt.err}
			handler := NewAnalystHandler(gw, zap.NewNop())

			req := httptest.NewRequest(http.MethodPost, "/api/v1/analyst/ask", strings.NewReader(`{"question":"q"}`))
			rec := httptest.NewRecorder()

			handler.Ask(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			envelope := decodeEnvelope(t, rec)
			if envelope.Error != tt.wantCode {
				t.Errorf("error = %q, want %q", envelope.Error, tt.wantCode)
			}
			if envelope.Success {
				t.Error("expected success=false")
			}
		})
	}
}

func TestAnalystHandler_Ask_SanitizesErrorMessage(t *testing.T) {
	gw := &mockGateway{
		err: fmt.Errorf("%w: connect failed: password=hunter2", apperrors.ErrExecution),
	}
	handler := NewAnalystHandler(gw, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyst/ask", strings.NewReader(`{"question":"q"}`))
	rec := httptest.NewRecorder()

	handler.Ask(rec, req)

	envelope := decodeEnvelope(t, rec)
	if strings.Contains(envelope.Message, "hunter2") {
		t.Errorf("credential leaked into response: %q", envelope.Message)
	}
	if !strings.Contains(envelope.Message, "[REDACTED]") {
		t.Errorf("expected redaction marker in message: %q", envelope.Message)
	}
}

func TestAnalystHandler_RunSQL(t *testing.T) {
	gw := &mockGateway{}
	handler := NewAnalystHandler(gw, zap.NewNop())

	body := `{"sql":"SELECT ticker FROM securities","max_rows":100}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyst/sql", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler.RunSQL(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if gw.runSQLCalls != 1 {
		t.Errorf("expected 1 gateway call, got %d", gw.runSQLCalls)
	}
	if gw.lastSQL != "SELECT ticker FROM securities" {
		t.Errorf("unexpected sql: %q", gw.lastSQL)
	}
	if gw.lastRunOpts.MaxRows != 100 {
		t.Errorf("expected max_rows 100, got %d", gw.lastRunOpts.MaxRows)
	}
	if gw.lastRunOpts.Synthesize {
		t.Error("synthesize must default to false")
	}
}

func TestAnalystHandler_RunSQL_MissingSQL(t *testing.T) {
	gw := &mockGateway{}
	handler := NewAnalystHandler(gw, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyst/sql", strings.NewReader(`{"sql":""}`))
	rec := httptest.NewRecorder()

	handler.RunSQL(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}
	envelope := decodeEnvelope(t, rec)
	if envelope.Error != "missing_sql" {
		t.Errorf("expected error 'missing_sql', got %q", envelope.Error)
	}
	if gw.runSQLCalls != 0 {
		t.Error("gateway must not be called without sql")
	}
}

func TestAnalystHandler_RunSQL_SynthesizeRequiresQuestion(t *testing.T) {
	gw := &mockGateway{}
	handler := NewAnalystHandler(gw, zap.NewNop())

	body := `{"sql":"SELECT 1 FROM securities","synthesize":true}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyst/sql", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler.RunSQL(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}
	envelope := decodeEnvelope(t, rec)
	if envelope.Error != "missing_question" {
		t.Errorf("expected error 'missing_question', got %q", envelope.Error)
	}
	if gw.runSQLCalls != 0 {
		t.Error("gateway must not be called")
	}
}

func TestAnalystHandler_Export(t *testing.T) {
	gw := &mockGateway{}
	handler := NewAnalystHandler(gw, zap.NewNop())

	body := `{"sql":"SELECT ticker, mention_count FROM securities","max_rows":250}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyst/export", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Export(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("Content-Type = %q, want text/csv", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "query_results.csv") {
		t.Errorf("unexpected Content-Disposition: %q", cd)
	}
	if gw.lastRunOpts.MaxRows != 250 {
		t.Errorf("expected max_rows 250, got %d", gw.lastRunOpts.MaxRows)
	}
	if gw.lastRunOpts.Synthesize {
		t.Error("export must not synthesize")
	}

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 data lines, got %d: %q", len(lines), rec.Body.String())
	}
	if lines[0] != "ticker,mention_count" {
		t.Errorf("unexpected header line: %q", lines[0])
	}
	if lines[1] != "AAPL,42" {
		t.Errorf("unexpected first data line: %q", lines[1])
	}
}

func TestAnalystHandler_Export_RejectedSQL(t *testing.T) {
	gw := &mockGateway{
		err: fmt.Errorf("%w: Only SELECT queries allowed", apperrors.ErrSecurityRejected),
	}
	handler := NewAnalystHandler(gw, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyst/export", strings.NewReader(`{"sql":"DROP TABLE securities"}`))
	rec := httptest.NewRecorder()

	handler.Export(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("rejections must come back as JSON, got Content-Type %q", ct)
	}
}

func TestAnalystHandler_Questions(t *testing.T) {
	handler := NewAnalystHandler(&mockGateway{}, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analyst/questions", nil)
	rec := httptest.NewRecorder()

	handler.Questions(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var envelope struct {
		Success bool                   `json:"success"`
		Data    QuickQuestionsResponse `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(envelope.Data.Questions) != 5 {
		t.Fatalf("expected 5 quick questions, got %d", len(envelope.Data.Questions))
	}
	if envelope.Data.Questions[0] != "What are the top 10 most mentioned tickers in the last 30 days?" {
		t.Errorf("unexpected first question: %q", envelope.Data.Questions[0])
	}
}

func TestAnalystHandler_RegisterRoutes(t *testing.T) {
	handler := NewAnalystHandler(&mockGateway{}, zap.NewNop())

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyst/ask", strings.NewReader(`{"question":"q"}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("POST /api/v1/analyst/ask: expected status %d, got %d", http.StatusOK, rec.Code)
	}

	// Method mismatch is rejected by the mux pattern.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/analyst/ask", nil)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /api/v1/analyst/ask: expected status %d, got %d", http.StatusMethodNotAllowed, rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/analyst/questions", nil)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("GET /api/v1/analyst/questions: expected status %d, got %d", http.StatusOK, rec.Code)
	}
}
