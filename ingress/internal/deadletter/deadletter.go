// Package deadletter writes failed events to the dead-letter channel for
// inspection rather than silent loss.
package deadletter

import (
	"context"
	"time"

	json "github.com/goccy/go-json"
	"github.com/urbanwatch-systems/urbanwatch/common/logging"
	"github.com/urbanwatch-systems/urbanwatch/common/messaging"
	"github.com/urbanwatch-systems/urbanwatch/common/models"
	"github.com/urbanwatch-systems/urbanwatch/ingress/internal/metrics"
)

// Writer publishes dead-letter records. A failure of the dead-letter
// publish itself is logged and swallowed: it must never mask the error
// that brought the event here.
type Writer struct {
	pub    messaging.Publisher
	logger *logging.Logger
	now    func() time.Time
}

// NewWriter creates a dead-letter writer over the given publisher.
func NewWriter(pub messaging.Publisher, logger *logging.Logger) *Writer {
	return &Writer{
		pub:    pub,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// ValidationFailure records an event rejected by schema validation.
func (w *Writer) ValidationFailure(ctx context.Context, original json.RawMessage, validationErrs []string) {
	w.write(ctx, models.DeadLetterRecord{
		OriginalEvent:    original,
		ValidationErrors: validationErrs,
		Timestamp:        w.now(),
		Reason:           models.ReasonSchemaValidationFailed,
	})
}

// PublishFailure records an event that validated but could not be
// published to the standardized channel.
func (w *Writer) PublishFailure(ctx context.Context, original json.RawMessage, cause error) {
	w.write(ctx, models.DeadLetterRecord{
		OriginalEvent: original,
		Error:         cause.Error(),
		Timestamp:     w.now(),
		Reason:        models.ReasonBusPublishError,
	})
}

func (w *Writer) write(ctx context.Context, rec models.DeadLetterRecord) {
	data, err := json.Marshal(rec)
	if err != nil {
		metrics.DeadLetterDropsTotal.Inc()
		w.logger.ErrorContext(ctx, "marshal dead-letter record", logging.Error(err))
		return
	}

	if err := w.pub.Publish(ctx, messaging.SubjectEventsDeadLetter, data); err != nil {
		metrics.DeadLetterDropsTotal.Inc()
		w.logger.ErrorContext(ctx, "publish dead-letter record",
			logging.Reason(rec.Reason), logging.Error(err))
		return
	}

	metrics.DeadLettersTotal.WithLabelValues(rec.Reason).Inc()
	w.logger.WarnContext(ctx, "event dead-lettered", logging.Reason(rec.Reason))
}
