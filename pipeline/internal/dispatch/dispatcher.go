package dispatch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/urbanwatch-systems/urbanwatch/common/logging"
	"github.com/urbanwatch-systems/urbanwatch/common/models"
	"github.com/urbanwatch-systems/urbanwatch/pipeline/internal/metrics"
)

// DefaultEntityTimeout bounds each per-entity notification call.
const DefaultEntityTimeout = 5 * time.Second

// Dispatcher routes alert batches and notifies each target entity over
// HTTP, one independent call per entity.
type Dispatcher struct {
	table    *RoutingTable
	client   *http.Client
	logger   *logging.Logger
	baseURL  string
	override map[string]string
	timeout  time.Duration
}

// Config assembles a Dispatcher.
type Config struct {
	// Table is the category-to-entity routing table.
	Table *RoutingTable

	// BaseURL is the endpoint prefix; an entity's URL is BaseURL/<entity>
	// unless overridden.
	BaseURL string

	// Override maps entity ids to full endpoint URLs.
	Override map[string]string

	// Timeout bounds each entity call (DefaultEntityTimeout when zero).
	Timeout time.Duration

	// HTTPClient is optional; a default client is used when nil.
	HTTPClient *http.Client
}

func New(cfg Config, logger *logging.Logger) *Dispatcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultEntityTimeout
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	table := cfg.Table
	if table == nil {
		table = DefaultTable()
	}
	return &Dispatcher{
		table:    table,
		client:   client,
		logger:   logger,
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		override: cfg.Override,
		timeout:  timeout,
	}
}

// Route exposes the routing decision without dispatching.
func (d *Dispatcher) Route(batch *models.AlertBatch) []string {
	return d.table.Route(batch)
}

// Dispatch routes the batch and notifies every target concurrently. Each
// call carries its own timeout; one entity's failure never cancels the
// others. Failures are logged and counted in the summary, not retried.
func (d *Dispatcher) Dispatch(ctx context.Context, batch *models.AlertBatch) *models.DispatchSummary {
	targets := d.table.Route(batch)

	summary := &models.DispatchSummary{
		AlertID:  batch.AlertID,
		Targets:  targets,
		Outcomes: make([]models.DispatchOutcome, len(targets)),
	}

	body, err := json.Marshal(batch)
	if err != nil {
		for i, entity := range targets {
			summary.Outcomes[i] = models.DispatchOutcome{
				Entity: entity,
				Error:  fmt.Sprintf("marshal alert batch: %v", err),
			}
			summary.Failed++
		}
		return summary
	}

	var wg sync.WaitGroup
	for i, entity := range targets {
		wg.Add(1)
		go func(i int, entity string) {
			defer wg.Done()
			summary.Outcomes[i] = d.dispatchOne(ctx, entity, body)
		}(i, entity)
	}
	wg.Wait()

	for _, o := range summary.Outcomes {
		if o.Success {
			summary.Succeeded++
		} else {
			summary.Failed++
		}
	}

	d.logger.InfoContext(ctx, "alert batch dispatched",
		logging.AlertID(batch.AlertID),
		logging.Zone(batch.Zone),
		"targets", len(targets),
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
	)
	return summary
}

// dispatchOne performs a single entity notification with its own timeout
// carved from ctx.
func (d *Dispatcher) dispatchOne(ctx context.Context, entity string, body []byte) models.DispatchOutcome {
	callCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	start := time.Now()
	outcome := models.DispatchOutcome{Entity: entity}

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, d.entityURL(entity), bytes.NewReader(body))
	if err != nil {
		outcome.Error = err.Error()
		metrics.DispatchesTotal.WithLabelValues(entity, "error").Inc()
		return outcome
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	metrics.DispatchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		outcome.Error = err.Error()
		metrics.DispatchesTotal.WithLabelValues(entity, "error").Inc()
		d.logger.WarnContext(ctx, "entity dispatch failed",
			logging.Entity(entity), logging.Error(err))
		return outcome
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		outcome.Error = fmt.Sprintf("entity returned status %d", resp.StatusCode)
		metrics.DispatchesTotal.WithLabelValues(entity, "error").Inc()
		d.logger.WarnContext(ctx, "entity dispatch rejected",
			logging.Entity(entity), "status", resp.StatusCode)
		return outcome
	}

	var dr models.DispatchResponse
	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err == nil && len(respBody) > 0 {
		if jsonErr := json.Unmarshal(respBody, &dr); jsonErr == nil {
			outcome.Response = &dr
		}
	}

	outcome.Success = true
	metrics.DispatchesTotal.WithLabelValues(entity, "success").Inc()
	return outcome
}

func (d *Dispatcher) entityURL(entity string) string {
	if url, ok := d.override[entity]; ok {
		return url
	}
	return d.baseURL + "/" + entity
}
