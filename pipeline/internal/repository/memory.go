package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/urbanwatch-systems/urbanwatch/common/models"
)

// MemoryRepository is an in-process Repository for tests and
// single-binary development setups.
type MemoryRepository struct {
	mu     sync.Mutex
	alerts []*models.AlertRecord
	events []*StoredEvent
	seen   map[string]bool
	now    func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		seen: make(map[string]bool),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (r *MemoryRepository) SaveAlert(ctx context.Context, rec *models.AlertRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *rec
	r.alerts = append(r.alerts, &cp)
	return nil
}

func (r *MemoryRepository) SaveEvent(ctx context.Context, env *models.EventEnvelope) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.seen[env.EventID] {
		return false, nil
	}
	r.seen[env.EventID] = true

	ts := r.now()
	if env.Timestamp != nil {
		ts = *env.Timestamp
	}
	r.events = append(r.events, &StoredEvent{
		EventID:       env.EventID,
		EventType:     env.EventType,
		Zone:          env.Zone(),
		Severity:      env.Severity,
		CorrelationID: env.CorrelationID,
		Timestamp:     ts,
		CreatedAt:     r.now(),
	})
	return true, nil
}

func (r *MemoryRepository) ListAlerts(ctx context.Context, req ListAlertsRequest) ([]*models.AlertRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	limit := req.Limit
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	out := []*models.AlertRecord{}
	for i := len(r.alerts) - 1; i >= 0 && len(out) < limit; i-- {
		if req.Zone != "" && r.alerts[i].Zone != req.Zone {
			continue
		}
		cp := *r.alerts[i]
		out = append(out, &cp)
	}
	return out, nil
}

func (r *MemoryRepository) Stats(ctx context.Context) (*AlertStats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	stats := &AlertStats{Total: int64(len(r.alerts))}
	cutoff := r.now().Add(-24 * time.Hour)

	byType := make(map[string]int64)
	byZone := make(map[string]int64)
	var scoreSum float64
	for _, a := range r.alerts {
		if a.CreatedAt.After(cutoff) {
			stats.Last24h++
		}
		byType[a.Type]++
		byZone[a.Zone]++
		scoreSum += a.Score
	}
	if stats.Total > 0 {
		stats.AverageScore = scoreSum / float64(stats.Total)
	}

	for typ, n := range byType {
		stats.ByType = append(stats.ByType, TypeCount{Type: typ, Count: n})
	}
	sort.Slice(stats.ByType, func(i, j int) bool {
		if stats.ByType[i].Count != stats.ByType[j].Count {
			return stats.ByType[i].Count > stats.ByType[j].Count
		}
		return stats.ByType[i].Type < stats.ByType[j].Type
	})
	if len(stats.ByType) > 10 {
		stats.ByType = stats.ByType[:10]
	}

	for zone, n := range byZone {
		stats.ByZone = append(stats.ByZone, ZoneCount{Zone: zone, Count: n})
	}
	sort.Slice(stats.ByZone, func(i, j int) bool {
		if stats.ByZone[i].Count != stats.ByZone[j].Count {
			return stats.ByZone[i].Count > stats.ByZone[j].Count
		}
		return stats.ByZone[i].Zone < stats.ByZone[j].Zone
	})

	return stats, nil
}

func (r *MemoryRepository) ListRecentEvents(ctx context.Context, limit int, zone string) ([]*StoredEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if limit <= 0 || limit > 500 {
		limit = 50
	}

	out := []*StoredEvent{}
	for i := len(r.events) - 1; i >= 0 && len(out) < limit; i-- {
		if zone != "" && r.events[i].Zone != zone {
			continue
		}
		cp := *r.events[i]
		out = append(out, &cp)
	}
	return out, nil
}

func (r *MemoryRepository) Close() {}
