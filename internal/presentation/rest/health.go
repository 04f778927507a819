package rest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/cropyield/yield-service/internal/domain/port"
)

const serviceName = "yield-service"

// ReadinessCheck reports whether a dependency can serve traffic.
type ReadinessCheck func(ctx context.Context) error

type namedCheck struct {
	name  string
	check ReadinessCheck
}

// HealthHandler provides HTTP health check endpoints for the yield service.
type HealthHandler struct {
	bundles   port.BundleProvider
	checks    []namedCheck
	logger    *slog.Logger
	startTime time.Time
}

// NewHealthHandler creates a new health check handler.
func NewHealthHandler(bundles port.BundleProvider, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		bundles:   bundles,
		logger:    logger,
		startTime: time.Now(),
	}
}

// WithCheck adds a dependency that /readyz must see healthy.
func (h *HealthHandler) WithCheck(name string, check ReadinessCheck) *HealthHandler {
	h.checks = append(h.checks, namedCheck{name: name, check: check})
	return h
}

// HealthResponse is the JSON response for liveness checks.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Uptime  string `json:"uptime"`
}

// ModelHealthResponse is the JSON response of /health.
type ModelHealthResponse struct {
	Status       string `json:"status"`
	ModelLoaded  bool   `json:"model_loaded"`
	ScalerLoaded bool   `json:"scaler_loaded"`
	Fingerprint  string `json:"schema_fingerprint,omitempty"`
	ModelKind    string `json:"model_kind,omitempty"`
}

// ReadinessResponse is the JSON response for readiness checks.
type ReadinessResponse struct {
	Status  string            `json:"status"`
	Service string            `json:"service"`
	Checks  map[string]string `json:"checks"`
}

// RegisterRoutes registers health endpoints on the provided ServeMux.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.HandleFunc("GET /readyz", h.Readyz)
}

// Health reports whether the artifact bundle is loaded.
func (h *HealthHandler) Health(w http.ResponseWriter, _ *http.Request) {
	resp := ModelHealthResponse{Status: "healthy"}
	if b := h.bundles.Current(); b != nil {
		resp.ModelLoaded = b.Predictor() != nil
		resp.ScalerLoaded = b.Scaler() != nil
		resp.Fingerprint = b.Fingerprint()
		resp.ModelKind = b.Predictor().Kind()
	} else {
		resp.Status = "degraded"
	}
	writeJSON(w, http.StatusOK, resp)
}

// Healthz handles liveness probe requests.
func (h *HealthHandler) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Service: serviceName,
		Uptime:  time.Since(h.startTime).String(),
	})
}

// Readyz handles readiness probe requests. The service is ready once a
// bundle is loaded and every registered check passes.
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	resp := ReadinessResponse{
		Status:  "ready",
		Service: serviceName,
		Checks:  map[string]string{"artifact_bundle": "ok"},
	}
	code := http.StatusOK
	if h.bundles.Current() == nil {
		resp.Status = "not_ready"
		resp.Checks["artifact_bundle"] = "not loaded"
		code = http.StatusServiceUnavailable
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	for _, c := range h.checks {
		if err := c.check(ctx); err != nil {
			h.logger.Warn("readiness check failed", slog.String("check", c.name), slog.String("error", err.Error()))
			resp.Status = "not_ready"
			resp.Checks[c.name] = "unavailable"
			code = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[c.name] = "ok"
	}
	writeJSON(w, code, resp)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
