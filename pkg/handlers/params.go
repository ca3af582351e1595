package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"
)

// QueryIntParam reads an optional integer query parameter. An absent or
// empty parameter yields def. A malformed value writes a 400 response and
// returns ok=false.
func QueryIntParam(w http.ResponseWriter, r *http.Request, name string, def int, logger *zap.Logger) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		writeParamError(w, logger, name, "an integer")
		return 0, false
	}
	return value, true
}

// QueryBoolParam reads an optional boolean query parameter. An absent or
// empty parameter yields def. A malformed value writes a 400 response and
// returns ok=false.
func QueryBoolParam(w http.ResponseWriter, r *http.Request, name string, def bool, logger *zap.Logger) (bool, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}

	value, err := strconv.ParseBool(raw)
	if err != nil {
		writeParamError(w, logger, name, "a boolean")
		return false, false
	}
	return value, true
}

func writeParamError(w http.ResponseWriter, logger *zap.Logger, name, want string) {
	message := fmt.Sprintf("Query parameter %q must be %s", name, want)
	if err := ErrorResponse(w, http.StatusBadRequest, "invalid_query_param", message); err != nil {
		logger.Error("Failed to write error response", zap.Error(err))
	}
}
