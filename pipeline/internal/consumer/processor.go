// Package consumer processes standardized events end to end: record,
// detect, correlate, aggregate, dispatch.
package consumer

import (
	"context"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/urbanwatch-systems/urbanwatch/common/logging"
	"github.com/urbanwatch-systems/urbanwatch/common/messaging"
	"github.com/urbanwatch-systems/urbanwatch/common/models"
	"github.com/urbanwatch-systems/urbanwatch/pipeline/internal/aggregate"
	"github.com/urbanwatch-systems/urbanwatch/pipeline/internal/correlation"
	"github.com/urbanwatch-systems/urbanwatch/pipeline/internal/detect"
	"github.com/urbanwatch-systems/urbanwatch/pipeline/internal/dispatch"
	"github.com/urbanwatch-systems/urbanwatch/pipeline/internal/metrics"
	"github.com/urbanwatch-systems/urbanwatch/pipeline/internal/repository"
)

// Processor runs one standardized event through the full pipeline. A
// single event is processed sequentially; concurrency comes from the
// broker delivering to multiple processor instances.
type Processor struct {
	repo       repository.Repository
	engine     *detect.Engine
	store      correlation.Store
	aggregator *aggregate.Aggregator
	dispatcher *dispatch.Dispatcher
	logger     *logging.Logger
}

func NewProcessor(
	repo repository.Repository,
	engine *detect.Engine,
	store correlation.Store,
	aggregator *aggregate.Aggregator,
	dispatcher *dispatch.Dispatcher,
	logger *logging.Logger,
) *Processor {
	return &Processor{
		repo:       repo,
		engine:     engine,
		store:      store,
		aggregator: aggregator,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// HandleMessage is the standardized-channel subscription handler. The
// event log insert is the idempotence gate: a duplicate event id is
// acknowledged without re-processing. Errors before the gate are
// returned for redelivery; failures past the gate are logged and
// acknowledged, because redelivery would skip at the gate and a repeat
// run could double-dispatch alerts that are already committed.
func (p *Processor) HandleMessage(ctx context.Context, msg *messaging.Message) error {
	start := time.Now()
	defer func() {
		metrics.ProcessingDuration.Observe(time.Since(start).Seconds())
	}()

	var env models.EventEnvelope
	if err := json.Unmarshal(msg.Data, &env); err != nil {
		// Malformed standardized messages cannot improve on redelivery.
		p.logger.ErrorContext(ctx, "undecodable standardized event", logging.Error(err))
		metrics.EventsProcessedTotal.WithLabelValues("unknown", "undecodable").Inc()
		return nil
	}

	inserted, err := p.repo.SaveEvent(ctx, &env)
	if err != nil {
		metrics.EventsProcessedTotal.WithLabelValues(env.EventType, "store_error").Inc()
		return fmt.Errorf("record event %s: %w", env.EventID, err)
	}
	if !inserted {
		p.logger.DebugContext(ctx, "duplicate event delivery ignored",
			logging.EventID(env.EventID))
		metrics.EventsProcessedTotal.WithLabelValues(env.EventType, "duplicate").Inc()
		return nil
	}

	p.process(ctx, &env)
	metrics.EventsProcessedTotal.WithLabelValues(env.EventType, "processed").Inc()
	return nil
}

// process runs detection through dispatch for a freshly recorded event.
func (p *Processor) process(ctx context.Context, env *models.EventEnvelope) {
	zone := env.Zone()

	candidates := p.engine.Detect(env)
	for _, c := range candidates {
		metrics.AnomaliesTotal.WithLabelValues(c.Level).Inc()
	}

	// The signature tracks presence of the signal, not severity: it is
	// written even when no candidate was produced.
	if err := p.store.Mark(ctx, zone, env.EventType); err != nil {
		p.logger.WarnContext(ctx, "correlation mark failed",
			logging.Zone(zone), logging.EventType(env.EventType), logging.Error(err))
	} else if composite, err := correlation.CompositePresent(ctx, p.store, zone); err != nil {
		p.logger.WarnContext(ctx, "composite check failed",
			logging.Zone(zone), logging.Error(err))
	} else if composite {
		p.logger.InfoContext(ctx, "composite incident pattern in zone",
			logging.Zone(zone), logging.EventID(env.EventID))
		metrics.CompositeSignalsTotal.WithLabelValues(zone).Inc()
		candidates = append(candidates, detect.CompositeCandidate(zone))
	}

	res, err := p.aggregator.Aggregate(ctx, env, candidates)
	if err != nil {
		p.logger.ErrorContext(ctx, "alert aggregation failed",
			logging.EventID(env.EventID), logging.Error(err))
		return
	}
	if res == nil {
		return
	}
	if res.PublishErr != nil {
		p.logger.WarnContext(ctx, "alert batch notification failed, records persisted",
			logging.AlertID(res.Batch.AlertID), logging.Error(res.PublishErr))
	}

	summary := p.dispatcher.Dispatch(ctx, res.Batch)
	if summary.Failed > 0 {
		p.logger.WarnContext(ctx, "partial dispatch",
			logging.AlertID(res.Batch.AlertID),
			"succeeded", summary.Succeeded,
			"failed", summary.Failed,
		)
	}
}
