package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/themis-intel/themis-engine/pkg/analyst"
)

// AskRequest is the body for POST /api/v1/analyst/ask.
type AskRequest struct {
	Question      string `json:"question"`
	PrimaryModel  string `json:"primary_model,omitempty"`
	FallbackModel string `json:"fallback_model,omitempty"`
	AutoFallback  *bool  `json:"auto_fallback,omitempty"`
	MaxRows       int    `json:"max_rows,omitempty"`
	IncludeSQL    *bool  `json:"include_sql,omitempty"`
}

// RunSQLRequest is the body for POST /api/v1/analyst/sql.
type RunSQLRequest struct {
	SQL        string `json:"sql"`
	MaxRows    int    `json:"max_rows,omitempty"`
	Synthesize bool   `json:"synthesize,omitempty"`
	Question   string `json:"question,omitempty"`
}

// ExportRequest is the body for POST /api/v1/analyst/export.
type ExportRequest struct {
	SQL     string `json:"sql"`
	MaxRows int    `json:"max_rows,omitempty"`
}

// QuickQuestionsResponse wraps the starter questions shown by the dashboard.
type QuickQuestionsResponse struct {
	Questions []string `json:"questions"`
}

// AnalystHandler handles natural-language questions and direct SQL
// against the analyst database. Every request goes through the gateway's
// safety gate; this layer only shapes HTTP.
type AnalystHandler struct {
	gateway analyst.Gateway
	logger  *zap.Logger
}

// NewAnalystHandler creates a new analyst handler.
func NewAnalystHandler(gateway analyst.Gateway, logger *zap.Logger) *AnalystHandler {
	return &AnalystHandler{gateway: gateway, logger: logger}
}

// RegisterRoutes registers the analyst handler's routes on the given mux.
func (h *AnalystHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/analyst/ask", h.Ask)
	mux.HandleFunc("POST /api/v1/analyst/sql", h.RunSQL)
	mux.HandleFunc("POST /api/v1/analyst/export", h.Export)
	mux.HandleFunc("GET /api/v1/analyst/questions", h.Questions)
}

// Ask handles POST /api/v1/analyst/ask
func (h *AnalystHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if strings.TrimSpace(req.Question) == "" {
		if err := ErrorResponse(w, http.StatusBadRequest, "missing_question", "Question is required"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	opts := &analyst.AskOptions{
		PrimaryModel:  req.PrimaryModel,
		FallbackModel: req.FallbackModel,
		AutoFallback:  req.AutoFallback,
		MaxRows:       req.MaxRows,
		// The dashboard shows generated SQL unless the caller hides it.
		IncludeSQL: req.IncludeSQL == nil || *req.IncludeSQL,
	}

	result, err := h.gateway.Ask(r.Context(), req.Question, opts)
	if err != nil {
		writeTypedError(w, h.logger, err)
		return
	}

	response := ApiResponse{Success: true, Data: result}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// RunSQL handles POST /api/v1/analyst/sql
func (h *AnalystHandler) RunSQL(w http.ResponseWriter, r *http.Request) {
	var req RunSQLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if strings.TrimSpace(req.SQL) == "" {
		if err := ErrorResponse(w, http.StatusBadRequest, "missing_sql", "SQL query is required"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if req.Synthesize && strings.TrimSpace(req.Question) == "" {
		if err := ErrorResponse(w, http.StatusBadRequest, "missing_question", "Question is required when synthesize is set"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	opts := &analyst.RunSQLOptions{
		MaxRows:    req.MaxRows,
		Synthesize: req.Synthesize,
		Question:   req.Question,
	}

	result, err := h.gateway.RunSQL(r.Context(), req.SQL, opts)
	if err != nil {
		writeTypedError(w, h.logger, err)
		return
	}

	response := ApiResponse{Success: true, Data: result}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Export handles POST /api/v1/analyst/export
// The SQL passes the same gate as every other path; the result streams
// back as a CSV attachment instead of the JSON envelope.
func (h *AnalystHandler) Export(w http.ResponseWriter, r *http.Request) {
	var req ExportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if strings.TrimSpace(req.SQL) == "" {
		if err := ErrorResponse(w, http.StatusBadRequest, "missing_sql", "SQL query is required"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	result, err := h.gateway.RunSQL(r.Context(), req.SQL, &analyst.RunSQLOptions{MaxRows: req.MaxRows})
	if err != nil {
		writeTypedError(w, h.logger, err)
		return
	}

	if err := WriteCSV(w, "query_results.csv", result.Result.CSVRecords()); err != nil {
		h.logger.Error("Failed to write CSV response", zap.Error(err))
	}
}

// Questions handles GET /api/v1/analyst/questions
func (h *AnalystHandler) Questions(w http.ResponseWriter, r *http.Request) {
	data := QuickQuestionsResponse{Questions: analyst.QuickQuestions()}

	response := ApiResponse{Success: true, Data: data}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
