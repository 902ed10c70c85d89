package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urbanwatch-systems/urbanwatch/common/middleware"
	"github.com/urbanwatch-systems/urbanwatch/ingress/internal/handlers"
)

// NewRouter constructs a ServeMux with intake API routes registered.
func NewRouter(events *handlers.EventsHandler, health *handlers.HealthHandler) http.Handler {
	mux := http.NewServeMux()

	// Producer intake
	mux.HandleFunc("/events", events.HandleIngest)

	// Health endpoints
	mux.HandleFunc("/healthz", health.Health)
	mux.HandleFunc("/readyz", health.Ready)

	// Prometheus metrics
	mux.Handle("/metrics", promhttp.Handler())

	return middleware.RequestID(mux)
}
