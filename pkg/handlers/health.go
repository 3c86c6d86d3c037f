package handlers

import (
	"context"
	"net/http"
	"os"
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/acme/taskmanager/pkg/config"
)

// PingResponse contains service status and version information.
type PingResponse struct {
	Status      string `json:"status"`
	Version     string `json:"version"`
	Service     string `json:"service"`
	GoVersion   string `json:"go_version"`
	Hostname    string `json:"hostname"`
	Environment string `json:"environment"`
	Database    string `json:"database"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// DBPinger reports whether the store is reachable.
type DBPinger func(ctx context.Context) error

// HealthHandler handles health check and ping endpoints.
type HealthHandler struct {
	cfg    *config.Config
	ping   DBPinger
	logger *zap.Logger
}

// NewHealthHandler creates a new HealthHandler. ping may be nil.
func NewHealthHandler(cfg *config.Config, ping DBPinger, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{cfg: cfg, ping: ping, logger: logger}
}

// RegisterRoutes registers the health handler's routes on the given mux.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /ping", h.Ping)
}

// checkDatabase returns "ok", "unavailable", or "unknown" when no pinger is set.
func (h *HealthHandler) checkDatabase(ctx context.Context) string {
	if h.ping == nil {
		return "unknown"
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := h.ping(ctx); err != nil {
		h.logger.Warn("Database health check failed", zap.Error(err))
		return "unavailable"
	}
	return "ok"
}

// Health handles GET /health requests.
// Responds 503 when the database cannot be reached.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	db := h.checkDatabase(r.Context())

	status := http.StatusOK
	resp := HealthResponse{Status: "ok", Database: db}
	if db == "unavailable" {
		status = http.StatusServiceUnavailable
		resp.Status = "degraded"
	}

	writeJSON(w, h.logger, status, resp)
}

// Ping handles GET /ping requests.
// Returns detailed service information including version and environment.
func (h *HealthHandler) Ping(w http.ResponseWriter, r *http.Request) {
	hostname, err := os.Hostname()
	if err != nil {
		http.Error(w, "failed to get hostname", http.StatusInternalServerError)
		return
	}

	response := PingResponse{
		Status:      "ok",
		Version:     h.cfg.Version,
		Service:     "taskmanager",
		GoVersion:   runtime.Version(),
		Hostname:    hostname,
		Environment: h.cfg.Env,
		Database:    h.cfg.Database.Driver,
	}

	writeJSON(w, h.logger, http.StatusOK, response)
}
