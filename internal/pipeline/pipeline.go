// Package pipeline exports the loaded archive to a downstream sink in batches.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/couchcryptid/storm-data-shared/retry"

	"github.com/couchcryptid/ufo-sightings-dashboard/internal/domain"
	"github.com/couchcryptid/ufo-sightings-dashboard/internal/observability"
)

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
	maxAttempts    = 5
)

// BatchExtractor returns up to batchSize sightings. An empty batch means the
// source is exhausted.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.Sighting, error)
}

// BatchLoader writes multiple sightings to the destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, sightings []domain.Sighting) error
}

// TableExtractor walks a loaded archive in row order.
type TableExtractor struct {
	mu      sync.Mutex
	records []domain.Sighting
	next    int
}

// NewTableExtractor creates an extractor over table's records.
func NewTableExtractor(table *domain.Table) *TableExtractor {
	e := &TableExtractor{}
	if table != nil {
		e.records = table.Records
	}
	return e
}

// ExtractBatch returns the next batchSize records.
func (e *TableExtractor) ExtractBatch(ctx context.Context, batchSize int) ([]domain.Sighting, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	end := min(e.next+batchSize, len(e.records))
	batch := e.records[e.next:end]
	e.next = end
	return batch, nil
}

// Result summarizes a completed export.
type Result struct {
	Exported int
	Batches  int
}

// Pipeline drives the extract-load loop of an export.
type Pipeline struct {
	extractor BatchExtractor
	loader    BatchLoader
	logger    *slog.Logger
	metrics   *observability.Metrics
	batchSize int
	sleep     func(ctx context.Context, d time.Duration) bool
}

// New creates a Pipeline with the given stages and observability.
func New(e BatchExtractor, l BatchLoader, logger *slog.Logger, metrics *observability.Metrics, batchSize int) *Pipeline {
	return &Pipeline{
		extractor: e,
		loader:    l,
		logger:    logger,
		metrics:   metrics,
		batchSize: batchSize,
		sleep:     retry.SleepWithContext,
	}
}

// Run exports until the extractor is exhausted. A batch that still fails after
// retrying with exponential backoff aborts the export.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	p.logger.Info("export started", "batch_size", p.batchSize)
	p.metrics.ExportRunning.Set(1)
	defer p.metrics.ExportRunning.Set(0)

	var res Result
	for {
		batch, err := p.extractor.ExtractBatch(ctx, p.batchSize)
		if err != nil {
			return res, fmt.Errorf("extract batch: %w", err)
		}
		if len(batch) == 0 {
			p.logger.Info("export finished", "exported", res.Exported, "batches", res.Batches)
			return res, nil
		}

		if err := p.loadWithRetry(ctx, batch); err != nil {
			return res, err
		}
		res.Exported += len(batch)
		res.Batches++
	}
}

func (p *Pipeline) loadWithRetry(ctx context.Context, batch []domain.Sighting) error {
	backoff := initialBackoff
	for attempt := 1; ; attempt++ {
		start := time.Now()
		err := p.loader.LoadBatch(ctx, batch)
		if err == nil {
			p.metrics.ExportBatchDuration.Observe(time.Since(start).Seconds())
			p.metrics.MessagesProduced.Add(float64(len(batch)))
			return nil
		}

		p.metrics.ExportBatchErrors.Inc()
		p.logger.Error("load batch failed",
			"error", err,
			"attempt", attempt,
			"batch_size", len(batch),
			"first_row", batch[0].Row,
		)
		if attempt >= maxAttempts {
			return fmt.Errorf("load batch at row %d after %d attempts: %w", batch[0].Row, attempt, err)
		}
		if !p.sleep(ctx, backoff) {
			return fmt.Errorf("load batch at row %d: %w", batch[0].Row, ctx.Err())
		}
		backoff = retry.NextBackoff(backoff, maxBackoff)
	}
}
