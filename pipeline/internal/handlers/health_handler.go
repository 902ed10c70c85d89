package handlers

import (
	"net/http"

	"github.com/urbanwatch-systems/urbanwatch/common/httputil"
	"github.com/urbanwatch-systems/urbanwatch/common/messaging"
)

// HealthHandler reports liveness and bus readiness.
type HealthHandler struct {
	bus messaging.Client
}

func NewHealthHandler(bus messaging.Client) *HealthHandler {
	return &HealthHandler{bus: bus}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.bus == nil || !h.bus.IsConnected() {
		httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
