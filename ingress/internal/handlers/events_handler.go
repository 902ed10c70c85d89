// Package handlers exposes the HTTP intake surface.
package handlers

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	json "github.com/goccy/go-json"
	"github.com/urbanwatch-systems/urbanwatch/common/httputil"
	"github.com/urbanwatch-systems/urbanwatch/common/logging"
	"github.com/urbanwatch-systems/urbanwatch/ingress/internal/service"
)

// EventsHandler accepts producer envelopes, one per request or batched
// as a JSON array.
type EventsHandler struct {
	svc          *service.IngestService
	logger       *logging.Logger
	maxEventSize int64
	maxBatchSize int
}

func NewEventsHandler(svc *service.IngestService, logger *logging.Logger, maxEventSize, maxBatchSize int) *EventsHandler {
	return &EventsHandler{
		svc:          svc,
		logger:       logger,
		maxEventSize: int64(maxEventSize),
		maxBatchSize: maxBatchSize,
	}
}

type acceptedResponse struct {
	Accepted int `json:"accepted"`
}

// HandleIngest is POST /events. The body is a single envelope object or
// an array of them. Validation failures come back verbatim with a 422;
// bus outages come back as a generic 503 without internal detail.
func (h *EventsHandler) HandleIngest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, h.maxEventSize+1))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	if int64(len(body)) > h.maxEventSize {
		httputil.WriteError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}

	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		httputil.WriteError(w, http.StatusBadRequest, "empty request body")
		return
	}

	ctx := r.Context()

	if body[0] == '[' {
		var raws []json.RawMessage
		if err := json.Unmarshal(body, &raws); err != nil {
			httputil.WriteError(w, http.StatusBadRequest, "malformed JSON array")
			return
		}
		if len(raws) > h.maxBatchSize {
			httputil.WriteError(w, http.StatusRequestEntityTooLarge, "batch exceeds maximum size")
			return
		}

		res := h.svc.IngestBatch(ctx, raws)
		switch {
		case res.BusError != nil:
			h.logger.ErrorContext(ctx, "batch intake hit bus failure", logging.Error(res.BusError))
			httputil.WriteError(w, http.StatusServiceUnavailable, "event bus unavailable")
		case len(res.ValidationErrors) > 0:
			httputil.WriteValidationErrors(w, res.ValidationErrors)
		default:
			httputil.WriteJSON(w, http.StatusAccepted, acceptedResponse{Accepted: res.Accepted})
		}
		return
	}

	err = h.svc.IngestRaw(ctx, body)
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		httputil.WriteValidationErrors(w, verr.Errors)
	case err != nil:
		h.logger.ErrorContext(ctx, "intake hit bus failure", logging.Error(err))
		httputil.WriteError(w, http.StatusServiceUnavailable, "event bus unavailable")
	default:
		httputil.WriteJSON(w, http.StatusAccepted, acceptedResponse{Accepted: 1})
	}
}
