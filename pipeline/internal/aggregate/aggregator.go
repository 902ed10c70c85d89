// Package aggregate turns a source event's candidate anomalies into
// persisted alert records and one published alert batch.
package aggregate

import (
	"context"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/urbanwatch-systems/urbanwatch/common/logging"
	"github.com/urbanwatch-systems/urbanwatch/common/messaging"
	"github.com/urbanwatch-systems/urbanwatch/common/models"
	"github.com/urbanwatch-systems/urbanwatch/pipeline/internal/metrics"
	"github.com/urbanwatch-systems/urbanwatch/pipeline/internal/repository"
)

// DefaultWindow is the alert correlation window.
const DefaultWindow = 5 * time.Minute

// Result reports what one aggregation produced. Records listed here are
// already persisted; a non-nil PublishErr means the downstream batch
// notification failed but the records stand.
type Result struct {
	Batch      *models.AlertBatch
	Records    []*models.AlertRecord
	PublishErr error
}

// Aggregator persists one alert record per candidate and publishes one
// batch per source event.
type Aggregator struct {
	repo   repository.Repository
	pub    messaging.Publisher
	logger *logging.Logger
	window time.Duration
	now    func() time.Time
	newID  func() string
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithWindow overrides the correlation window.
func WithWindow(window time.Duration) Option {
	return func(a *Aggregator) { a.window = window }
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

// WithIDGenerator overrides alert id generation, for tests.
func WithIDGenerator(newID func() string) Option {
	return func(a *Aggregator) { a.newID = newID }
}

func New(repo repository.Repository, pub messaging.Publisher, logger *logging.Logger, opts ...Option) *Aggregator {
	a := &Aggregator{
		repo:   repo,
		pub:    pub,
		logger: logger,
		window: DefaultWindow,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Aggregate produces nothing when candidates is empty. Otherwise it
// persists one alert record per candidate, each with a fresh alert id but
// a shared correlation id, zone, and window, then publishes one batch to
// the alerts channel. A persistence failure aborts and is returned; a
// publish failure is reported in the result because the committed
// records remain valid without the notification.
func (a *Aggregator) Aggregate(ctx context.Context, env *models.EventEnvelope, candidates []models.CandidateAnomaly) (*Result, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	ts := a.eventTime(env)
	windowStart := ts.Add(-a.window)

	res := &Result{}
	for _, c := range candidates {
		rec := &models.AlertRecord{
			AlertID:       a.newID(),
			CorrelationID: env.CorrelationID,
			Type:          c.Type,
			Score:         models.ScoreForLevel(c.Level),
			Zone:          env.Zone(),
			WindowStart:   windowStart,
			WindowEnd:     ts,
			Evidence: models.Evidence{
				SourceEventID: env.EventID,
				EventType:     env.EventType,
				Level:         c.Level,
				Message:       c.Message,
				Details:       c.Details,
				Timestamp:     ts,
			},
			CreatedAt: a.now(),
		}

		if err := a.repo.SaveAlert(ctx, rec); err != nil {
			return res, fmt.Errorf("persist alert %s: %w", rec.AlertID, err)
		}
		metrics.AlertsPersistedTotal.Inc()
		res.Records = append(res.Records, rec)
	}

	batch := &models.AlertBatch{
		AlertID:       a.newID(),
		CorrelationID: env.CorrelationID,
		SourceEventID: env.EventID,
		EventType:     env.EventType,
		Zone:          env.Zone(),
		Coordinates:   coordinates(env),
		Timestamp:     ts,
		Alerts:        candidates,
	}
	res.Batch = batch

	data, err := json.Marshal(batch)
	if err != nil {
		res.PublishErr = fmt.Errorf("marshal alert batch: %w", err)
		return res, nil
	}
	if err := a.pub.Publish(ctx, messaging.SubjectAlertsCorrelated, data); err != nil {
		res.PublishErr = fmt.Errorf("publish alert batch: %w", err)
		a.logger.ErrorContext(ctx, "alert batch publish failed",
			logging.AlertID(batch.AlertID), logging.Error(err))
	}

	return res, nil
}

func (a *Aggregator) eventTime(env *models.EventEnvelope) time.Time {
	if env.Timestamp != nil {
		return env.Timestamp.UTC()
	}
	return a.now()
}

func coordinates(env *models.EventEnvelope) models.Coordinates {
	var c models.Coordinates
	if env.Geo != nil {
		if env.Geo.Lat != nil {
			c.Lat = *env.Geo.Lat
		}
		if env.Geo.Lon != nil {
			c.Lon = *env.Geo.Lon
		}
	}
	return c
}
