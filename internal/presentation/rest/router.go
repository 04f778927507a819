package rest

import (
	"log/slog"
	"net/http"
)

// NewRouter wires every HTTP endpoint behind the logging middleware.
// metrics may be nil to leave /metrics unregistered.
func NewRouter(yield *YieldHandler, health *HealthHandler, metrics http.Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	yield.RegisterRoutes(mux)
	health.RegisterRoutes(mux)
	if metrics != nil {
		mux.Handle("GET /metrics", metrics)
	}
	return LoggingMiddleware(logger)(mux)
}
