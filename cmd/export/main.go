// Command export publishes every sighting in the archive to a Kafka topic,
// one JSON message per row keyed by row number.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	kafkaadapter "github.com/couchcryptid/ufo-sightings-dashboard/internal/adapter/kafka"
	"github.com/couchcryptid/ufo-sightings-dashboard/internal/archive"
	"github.com/couchcryptid/ufo-sightings-dashboard/internal/config"
	"github.com/couchcryptid/ufo-sightings-dashboard/internal/observability"
	"github.com/couchcryptid/ufo-sightings-dashboard/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.ValidateExport(); err != nil {
		slog.Error("invalid export config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, metrics); err != nil {
		logger.Error("export failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) error {
	table, err := archive.NewLoader(logger, metrics).Load(ctx, cfg.ArchivePath)
	if err != nil {
		return err
	}

	writer := kafkaadapter.NewWriter(cfg, logger)
	defer func() {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}()

	p := pipeline.New(pipeline.NewTableExtractor(table), writer, logger, metrics, cfg.BatchSize)
	res, err := p.Run(ctx)
	if err != nil {
		return err
	}

	logger.Info("archive exported",
		"path", cfg.ArchivePath,
		"topic", cfg.KafkaExportTopic,
		"rows", res.Exported,
		"batches", res.Batches,
		"skipped_lines", table.Skipped,
	)
	return nil
}
