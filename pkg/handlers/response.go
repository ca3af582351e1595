package handlers

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/themis-intel/themis-engine/pkg/apperrors"
	"github.com/themis-intel/themis-engine/pkg/logging"
)

// ApiResponse is the JSON envelope shared by every API endpoint.
type ApiResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse writes a JSON error response and returns any encoding error.
func ErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) error {
	return WriteJSON(w, statusCode, ApiResponse{
		Error:   errorCode,
		Message: message,
	})
}

// WriteJSON writes a JSON response and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	return json.NewEncoder(w).Encode(data)
}

// WriteCSV streams records as a CSV download with RFC 4180 quoting.
func WriteCSV(w http.ResponseWriter, filename string, records [][]string) error {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	return csv.NewWriter(w).WriteAll(records)
}

// writeTypedError maps an analyst or market error onto the HTTP surface.
// Messages pass through the sanitizer so driver and transport errors
// cannot leak credentials.
func writeTypedError(w http.ResponseWriter, logger *zap.Logger, err error) {
	status := http.StatusInternalServerError
	code := "internal_error"

	switch {
	case errors.Is(err, apperrors.ErrInvalidInput):
		status, code = http.StatusBadRequest, "invalid_input"
	case errors.Is(err, apperrors.ErrSecurityRejected):
		status, code = http.StatusBadRequest, "sql_rejected"
	case errors.Is(err, apperrors.ErrExecution):
		status, code = http.StatusBadRequest, "execution_failed"
	case errors.Is(err, apperrors.ErrGeneration):
		status, code = http.StatusBadGateway, "generation_failed"
	case errors.Is(err, apperrors.ErrConfiguration):
		status, code = http.StatusInternalServerError, "configuration_error"
	case errors.Is(err, apperrors.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	}

	if writeErr := ErrorResponse(w, status, code, logging.SanitizeError(err)); writeErr != nil {
		logger.Error("Failed to write error response", zap.Error(writeErr))
	}
}
