package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/themis-intel/themis-engine/pkg/apperrors"
	"github.com/themis-intel/themis-engine/pkg/market"
)

// TrendingResponse wraps the trending securities list.
type TrendingResponse struct {
	Trending []market.TrendingSecurity `json:"trending"`
}

// MentionsResponse wraps the per-day mention series for one ticker.
type MentionsResponse struct {
	Timeline []market.MentionPoint `json:"timeline"`
}

// MarketHandler serves the dashboard's market analytics views.
type MarketHandler struct {
	service market.Service
	logger  *zap.Logger
}

// NewMarketHandler creates a new market handler.
func NewMarketHandler(service market.Service, logger *zap.Logger) *MarketHandler {
	return &MarketHandler{service: service, logger: logger}
}

// RegisterRoutes registers the market handler's routes on the given mux.
func (h *MarketHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/market/trending", h.Trending)
	mux.HandleFunc("GET /api/v1/market/mentions/{ticker}", h.Mentions)
}

// Trending handles GET /api/v1/market/trending?days=7&limit=10
// Zero or absent parameters take the configured defaults.
func (h *MarketHandler) Trending(w http.ResponseWriter, r *http.Request) {
	days, ok := QueryIntParam(w, r, "days", 0, h.logger)
	if !ok {
		return
	}
	limit, ok := QueryIntParam(w, r, "limit", 0, h.logger)
	if !ok {
		return
	}

	trending, err := h.service.Trending(r.Context(), days, limit)
	if err != nil {
		h.logger.Error("Failed to load trending securities", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to load trending securities"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	response := ApiResponse{Success: true, Data: TrendingResponse{Trending: trending}}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Mentions handles GET /api/v1/market/mentions/{ticker}?days=30&include_inferred=true
func (h *MarketHandler) Mentions(w http.ResponseWriter, r *http.Request) {
	ticker := r.PathValue("ticker")

	days, ok := QueryIntParam(w, r, "days", 0, h.logger)
	if !ok {
		return
	}
	includeInferred, ok := QueryBoolParam(w, r, "include_inferred", true, h.logger)
	if !ok {
		return
	}

	timeline, err := h.service.MentionsTimeline(r.Context(), ticker, days, includeInferred)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidInput) {
			writeTypedError(w, h.logger, err)
			return
		}
		h.logger.Error("Failed to load mentions timeline",
			zap.String("ticker", ticker),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to load mentions timeline"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	response := ApiResponse{Success: true, Data: MentionsResponse{Timeline: timeline}}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
