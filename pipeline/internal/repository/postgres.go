package repository

import (
	"context"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/urbanwatch-systems/urbanwatch/common/models"
)

// PostgresRepository implements Repository on a pgx connection pool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a pooled PostgreSQL repository.
func NewPostgresRepository(ctx context.Context, connString string, maxConns int32) (*PostgresRepository, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	if maxConns > 0 {
		config.MaxConns = maxConns
	}
	config.MaxConnLifetime = 5 * time.Minute
	config.MaxConnIdleTime = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{pool: pool}, nil
}

// SaveAlert persists one alert record with its evidence snapshot.
func (r *PostgresRepository) SaveAlert(ctx context.Context, rec *models.AlertRecord) error {
	evidence, err := json.Marshal(rec.Evidence)
	if err != nil {
		return fmt.Errorf("failed to marshal evidence: %w", err)
	}

	query := `
		INSERT INTO alerts (alert_id, correlation_id, type, score, zone, window_start, window_end, evidence, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err = r.pool.Exec(ctx, query,
		rec.AlertID, rec.CorrelationID, rec.Type, rec.Score, rec.Zone,
		rec.WindowStart, rec.WindowEnd, evidence, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save alert: %w", err)
	}

	return nil
}

// SaveEvent records a consumed envelope. A conflicting event id is a
// duplicate delivery and reports false without error.
func (r *PostgresRepository) SaveEvent(ctx context.Context, env *models.EventEnvelope) (bool, error) {
	envelope, err := json.Marshal(env)
	if err != nil {
		return false, fmt.Errorf("failed to marshal envelope: %w", err)
	}

	var ts time.Time
	if env.Timestamp != nil {
		ts = *env.Timestamp
	} else {
		ts = time.Now().UTC()
	}

	query := `
		INSERT INTO events (event_id, event_type, zone, severity, correlation_id, event_timestamp, envelope, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		ON CONFLICT (event_id) DO NOTHING
	`

	tag, err := r.pool.Exec(ctx, query,
		env.EventID, env.EventType, env.Zone(), env.Severity,
		env.CorrelationID, ts, envelope,
	)
	if err != nil {
		return false, fmt.Errorf("failed to save event: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// ListAlerts returns recent alerts, newest first.
func (r *PostgresRepository) ListAlerts(ctx context.Context, req ListAlertsRequest) ([]*models.AlertRecord, error) {
	limit := req.Limit
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	whereClause := ""
	args := []interface{}{}
	argPos := 1

	if req.Zone != "" {
		whereClause = fmt.Sprintf("WHERE zone = $%d", argPos)
		args = append(args, req.Zone)
		argPos++
	}
	args = append(args, limit)

	query := fmt.Sprintf(`
		SELECT alert_id, correlation_id, type, score, zone, window_start, window_end, evidence, created_at
		FROM alerts
		%s
		ORDER BY created_at DESC
		LIMIT $%d
	`, whereClause, argPos)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	defer rows.Close()

	alerts := []*models.AlertRecord{}
	for rows.Next() {
		rec := &models.AlertRecord{}
		var evidence []byte
		if err := rows.Scan(
			&rec.AlertID, &rec.CorrelationID, &rec.Type, &rec.Score, &rec.Zone,
			&rec.WindowStart, &rec.WindowEnd, &evidence, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		if err := json.Unmarshal(evidence, &rec.Evidence); err != nil {
			return nil, fmt.Errorf("failed to unmarshal evidence: %w", err)
		}
		alerts = append(alerts, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate alerts: %w", err)
	}

	return alerts, nil
}

// Stats aggregates the query-surface statistics in one round trip per
// grouping.
func (r *PostgresRepository) Stats(ctx context.Context) (*AlertStats, error) {
	stats := &AlertStats{}

	summary := `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE created_at > now() - interval '24 hours'),
		       COALESCE(AVG(score), 0)
		FROM alerts
	`
	if err := r.pool.QueryRow(ctx, summary).Scan(&stats.Total, &stats.Last24h, &stats.AverageScore); err != nil {
		return nil, fmt.Errorf("failed to aggregate alerts: %w", err)
	}

	byType := `
		SELECT type, COUNT(*)
		FROM alerts
		GROUP BY type
		ORDER BY COUNT(*) DESC, type
		LIMIT 10
	`
	rows, err := r.pool.Query(ctx, byType)
	if err != nil {
		return nil, fmt.Errorf("failed to count alerts by type: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var tc TypeCount
		if err := rows.Scan(&tc.Type, &tc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan type count: %w", err)
		}
		stats.ByType = append(stats.ByType, tc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate type counts: %w", err)
	}

	byZone := `
		SELECT zone, COUNT(*)
		FROM alerts
		GROUP BY zone
		ORDER BY COUNT(*) DESC, zone
	`
	zoneRows, err := r.pool.Query(ctx, byZone)
	if err != nil {
		return nil, fmt.Errorf("failed to count alerts by zone: %w", err)
	}
	defer zoneRows.Close()
	for zoneRows.Next() {
		var zc ZoneCount
		if err := zoneRows.Scan(&zc.Zone, &zc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan zone count: %w", err)
		}
		stats.ByZone = append(stats.ByZone, zc)
	}
	if err := zoneRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate zone counts: %w", err)
	}

	return stats, nil
}

// ListRecentEvents returns recently consumed events, newest first.
func (r *PostgresRepository) ListRecentEvents(ctx context.Context, limit int, zone string) ([]*StoredEvent, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	whereClause := ""
	args := []interface{}{}
	argPos := 1

	if zone != "" {
		whereClause = fmt.Sprintf("WHERE zone = $%d", argPos)
		args = append(args, zone)
		argPos++
	}
	args = append(args, limit)

	query := fmt.Sprintf(`
		SELECT event_id, event_type, zone, severity, correlation_id, event_timestamp, created_at
		FROM events
		%s
		ORDER BY created_at DESC
		LIMIT $%d
	`, whereClause, argPos)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	events := []*StoredEvent{}
	for rows.Next() {
		e := &StoredEvent{}
		if err := rows.Scan(
			&e.EventID, &e.EventType, &e.Zone, &e.Severity,
			&e.CorrelationID, &e.Timestamp, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate events: %w", err)
	}

	return events, nil
}

// Close releases the connection pool.
func (r *PostgresRepository) Close() {
	r.pool.Close()
}
