package handlers

import (
	"net/http"
	"os"
	"runtime"

	"go.uber.org/zap"

	"github.com/themis-intel/themis-engine/pkg/config"
)

// PingResponse describes the running service instance.
type PingResponse struct {
	Status      string `json:"status"`
	Version     string `json:"version"`
	Service     string `json:"service"`
	GoVersion   string `json:"go_version"`
	Hostname    string `json:"hostname"`
	Environment string `json:"environment"`
}

// HealthHandler serves the liveness and identity endpoints.
type HealthHandler struct {
	cfg      *config.Config
	logger   *zap.Logger
	hostname string
}

// NewHealthHandler creates the handler. The hostname is resolved once at
// startup.
func NewHealthHandler(cfg *config.Config, logger *zap.Logger) *HealthHandler {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	return &HealthHandler{cfg: cfg, logger: logger, hostname: hostname}
}

// RegisterRoutes registers /health and /ping on the mux.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", h.Health)
	mux.HandleFunc("/ping", h.Ping)
}

// Health returns a bare "ok" so load balancer probes stay cheap.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ping reports version, environment and runtime details of this instance.
func (h *HealthHandler) Ping(w http.ResponseWriter, r *http.Request) {
	response := PingResponse{
		Status:      "ok",
		Version:     h.cfg.Version,
		Service:     "themis-engine",
		GoVersion:   runtime.Version(),
		Hostname:    h.hostname,
		Environment: h.cfg.Env,
	}

	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to encode ping response", zap.Error(err))
	}
}
