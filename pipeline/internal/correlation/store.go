// Package correlation tracks short-lived per-zone event signatures and
// surfaces the composite coordinated-incident pattern.
package correlation

import (
	"context"
	"fmt"
	"time"

	"github.com/urbanwatch-systems/urbanwatch/common/models"
)

// DefaultSignatureTTL is how long a zone/event-type signature stays
// visible. Expiry is handled by the store; the pipeline never deletes
// signatures explicitly.
const DefaultSignatureTTL = 5 * time.Minute

// Store records the presence of an event type in a zone. The signature
// carries no payload beyond existence, so last-write-wins between
// concurrent markers of the same (zone, type) is acceptable.
type Store interface {
	// Mark writes the signature for (zone, eventType) with the store's TTL.
	Mark(ctx context.Context, zone, eventType string) error

	// Exists reports whether an unexpired signature is present.
	Exists(ctx context.Context, zone, eventType string) (bool, error)

	Close() error
}

// compositeTypes are the signatures that together form the
// coordinated-incident pattern within one zone.
var compositeTypes = []string{
	models.EventPanicButton,
	models.EventSpeedSensor,
	models.EventPlateRead,
}

// signatureKey builds the store key for a zone/event-type pair.
func signatureKey(zone, eventType string) string {
	return fmt.Sprintf("event:%s:%s", zone, eventType)
}

// CompositePresent reports whether the panic-button, speed-sensor, and
// plate-read signatures all coexist for the zone. Callers run this right
// after marking their own signature; the check reads whatever the store
// holds at that moment, so two concurrent events in one zone may both
// observe the completed pattern (see the consumer for deduplication).
func CompositePresent(ctx context.Context, store Store, zone string) (bool, error) {
	for _, et := range compositeTypes {
		ok, err := store.Exists(ctx, zone, et)
		if err != nil {
			return false, fmt.Errorf("check signature %s/%s: %w", zone, et, err)
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}
