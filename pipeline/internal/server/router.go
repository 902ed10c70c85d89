package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urbanwatch-systems/urbanwatch/common/middleware"
	"github.com/urbanwatch-systems/urbanwatch/pipeline/internal/handlers"
)

// NewRouter constructs a ServeMux with the query-surface routes registered.
func NewRouter(query *handlers.QueryHandler, health *handlers.HealthHandler) http.Handler {
	mux := http.NewServeMux()

	// Read-only query surface
	mux.HandleFunc("/alerts", query.ListAlerts)
	mux.HandleFunc("/alerts/stats", query.Stats)
	mux.HandleFunc("/events/recent", query.ListEvents)

	// Health endpoints
	mux.HandleFunc("/healthz", health.Health)
	mux.HandleFunc("/readyz", health.Ready)

	// Prometheus metrics
	mux.Handle("/metrics", promhttp.Handler())

	return middleware.RequestID(mux)
}
