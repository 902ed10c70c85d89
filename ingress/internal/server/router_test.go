package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/urbanwatch-systems/urbanwatch/common/logging"
	"github.com/urbanwatch-systems/urbanwatch/common/messaging"
	"github.com/urbanwatch-systems/urbanwatch/ingress/internal/deadletter"
	"github.com/urbanwatch-systems/urbanwatch/ingress/internal/enrich"
	"github.com/urbanwatch-systems/urbanwatch/ingress/internal/handlers"
	"github.com/urbanwatch-systems/urbanwatch/ingress/internal/schema"
	"github.com/urbanwatch-systems/urbanwatch/ingress/internal/service"
)

func newTestRouter(bus *messaging.MemoryBus) http.Handler {
	logger := logging.Default()
	dlq := deadletter.NewWriter(bus, logger)
	svc := service.NewIngestService(schema.NewValidator(), enrich.New("Zona 10", nil), bus, dlq, logger)
	return NewRouter(
		handlers.NewEventsHandler(svc, logger, 1048576, 500),
		handlers.NewHealthHandler(bus),
	)
}

func TestRouterRoutes(t *testing.T) {
	router := newTestRouter(messaging.NewMemoryBus())

	tests := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodGet, "/healthz", http.StatusOK},
		{http.MethodGet, "/readyz", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodGet, "/events", http.StatusMethodNotAllowed},
		{http.MethodGet, "/no/such/route", http.StatusNotFound},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, tt.path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, tt.status, rec.Code, "%s %s", tt.method, tt.path)
	}
}

func TestRouterAssignsRequestID(t *testing.T) {
	router := newTestRouter(messaging.NewMemoryBus())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestReadyReportsBusDown(t *testing.T) {
	bus := messaging.NewMemoryBus()
	router := newTestRouter(bus)
	bus.Close()

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
