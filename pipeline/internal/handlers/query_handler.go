// Package handlers exposes the read-only query surface of the pipeline.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/urbanwatch-systems/urbanwatch/common/httputil"
	"github.com/urbanwatch-systems/urbanwatch/common/logging"
	"github.com/urbanwatch-systems/urbanwatch/pipeline/internal/repository"
)

// QueryHandler serves recent alerts, recent events, and aggregate stats.
type QueryHandler struct {
	repo   repository.Repository
	logger *logging.Logger
}

func NewQueryHandler(repo repository.Repository, logger *logging.Logger) *QueryHandler {
	return &QueryHandler{repo: repo, logger: logger}
}

// ListAlerts is GET /alerts?zone=...&take=....
func (h *QueryHandler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	req := repository.ListAlertsRequest{
		Zone:  r.URL.Query().Get("zone"),
		Limit: queryTake(r, 20),
	}

	alerts, err := h.repo.ListAlerts(r.Context(), req)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "alert listing failed", logging.Error(err))
		httputil.WriteError(w, http.StatusInternalServerError, "failed to list alerts")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"alerts": alerts,
		"count":  len(alerts),
	})
}

// Stats is GET /alerts/stats.
func (h *QueryHandler) Stats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	stats, err := h.repo.Stats(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "stats aggregation failed", logging.Error(err))
		httputil.WriteError(w, http.StatusInternalServerError, "failed to aggregate stats")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, stats)
}

// ListEvents is GET /events/recent?zone=...&take=....
func (h *QueryHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	events, err := h.repo.ListRecentEvents(r.Context(), queryTake(r, 50), r.URL.Query().Get("zone"))
	if err != nil {
		h.logger.ErrorContext(r.Context(), "event listing failed", logging.Error(err))
		httputil.WriteError(w, http.StatusInternalServerError, "failed to list events")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"events": events,
		"count":  len(events),
	})
}

// queryTake reads the take parameter, accepting limit as an alias.
func queryTake(r *http.Request, fallback int) int {
	raw := r.URL.Query().Get("take")
	if raw == "" {
		raw = r.URL.Query().Get("limit")
	}
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
