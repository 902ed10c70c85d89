// Package service orchestrates the intake path: validate, enrich,
// publish, dead-letter on failure.
package service

import (
	"context"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/urbanwatch-systems/urbanwatch/common/logging"
	"github.com/urbanwatch-systems/urbanwatch/common/messaging"
	"github.com/urbanwatch-systems/urbanwatch/common/models"
	"github.com/urbanwatch-systems/urbanwatch/ingress/internal/deadletter"
	"github.com/urbanwatch-systems/urbanwatch/ingress/internal/enrich"
	"github.com/urbanwatch-systems/urbanwatch/ingress/internal/metrics"
	"github.com/urbanwatch-systems/urbanwatch/ingress/internal/schema"
)

// ValidationError carries the verbatim validation error list for a
// rejected envelope. It is data for the producer, not a transport fault.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return "schema validation failed: " + strings.Join(e.Errors, "; ")
}

// IngestService runs one envelope through validate, enrich, publish.
type IngestService struct {
	validator *schema.Validator
	enricher  *enrich.Enricher
	bus       messaging.Publisher
	dlq       *deadletter.Writer
	logger    *logging.Logger
}

// NewIngestService wires the intake stages together.
func NewIngestService(v *schema.Validator, e *enrich.Enricher, bus messaging.Publisher, dlq *deadletter.Writer, logger *logging.Logger) *IngestService {
	return &IngestService{
		validator: v,
		enricher:  e,
		bus:       bus,
		dlq:       dlq,
		logger:    logger,
	}
}

// IngestRaw processes a single raw envelope. A validation failure is
// dead-lettered with reason SCHEMA_VALIDATION_FAILED and returned as a
// *ValidationError; a publish failure is dead-lettered with reason
// BUS_PUBLISH_ERROR and the original publish error is returned. An
// envelope failing validation is never published to the standardized
// channel.
func (s *IngestService) IngestRaw(ctx context.Context, raw json.RawMessage) error {
	var env models.EventEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		verrs := []string{"envelope: " + err.Error()}
		s.dlq.ValidationFailure(ctx, raw, verrs)
		metrics.EventsTotal.WithLabelValues("unknown", "rejected").Inc()
		return &ValidationError{Errors: verrs}
	}

	start := time.Now()
	ok, verrs := s.validator.Validate(&env)
	metrics.ValidationDuration.Observe(time.Since(start).Seconds())

	if !ok {
		s.dlq.ValidationFailure(ctx, raw, verrs)
		metrics.EventsTotal.WithLabelValues(labelType(env.EventType), "rejected").Inc()
		s.logger.WarnContext(ctx, "envelope rejected",
			logging.EventID(env.EventID), logging.EventType(env.EventType))
		return &ValidationError{Errors: verrs}
	}

	s.enricher.Enrich(&env)

	data, err := json.Marshal(&env)
	if err != nil {
		// Round-tripping a decoded envelope cannot normally fail.
		s.dlq.PublishFailure(ctx, raw, err)
		return err
	}

	pubStart := time.Now()
	err = s.bus.Publish(ctx, messaging.SubjectEventsStandardized, data)
	metrics.PublishDuration.Observe(time.Since(pubStart).Seconds())

	if err != nil {
		s.dlq.PublishFailure(ctx, raw, err)
		metrics.EventsTotal.WithLabelValues(env.EventType, "publish_error").Inc()
		s.logger.ErrorContext(ctx, "standardized publish failed",
			logging.EventID(env.EventID), logging.Error(err))
		return err
	}

	metrics.EventsTotal.WithLabelValues(env.EventType, "accepted").Inc()
	s.logger.InfoContext(ctx, "event standardized",
		logging.EventID(env.EventID),
		logging.EventType(env.EventType),
		logging.Zone(env.Zone()))
	return nil
}

// BatchResult summarizes a batch intake.
type BatchResult struct {
	Accepted         int
	ValidationErrors []string
	BusError         error
}

// IngestBatch processes each envelope of a batch independently: one bad
// event does not stop the rest.
func (s *IngestService) IngestBatch(ctx context.Context, raws []json.RawMessage) BatchResult {
	var res BatchResult
	for _, raw := range raws {
		err := s.IngestRaw(ctx, raw)
		switch e := err.(type) {
		case nil:
			res.Accepted++
		case *ValidationError:
			res.ValidationErrors = append(res.ValidationErrors, e.Errors...)
		default:
			res.BusError = err
		}
	}
	return res
}

func labelType(t string) string {
	if t == "" {
		return "unknown"
	}
	return t
}
