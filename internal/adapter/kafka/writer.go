package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/ufo-sightings-dashboard/internal/config"
	"github.com/couchcryptid/ufo-sightings-dashboard/internal/domain"
)

// Writer publishes sightings to the export topic.
// It implements pipeline.BatchLoader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured export topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaExportTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchSize:    cfg.BatchSize,
	}
	return &Writer{writer: w, logger: logger}
}

// LoadBatch serializes and publishes sightings in a single WriteMessages call.
func (w *Writer) LoadBatch(ctx context.Context, sightings []domain.Sighting) error {
	if len(sightings) == 0 {
		return nil
	}
	exportedAt := domain.Now()
	msgs := make([]kafkago.Message, len(sightings))
	for i := range sightings {
		msg, err := serializeToMessage(sightings[i], exportedAt)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write %d messages: %w", len(msgs), err)
	}
	w.logger.Debug("batch published", "count", len(msgs), "first_row", sightings[0].Row)
	return nil
}

// Close flushes pending messages and closes the producer.
func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a sighting into a Kafka message keyed by archive row.
func serializeToMessage(s domain.Sighting, exportedAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize sighting %d: %w", s.Row, err)
	}
	shape := ""
	if s.Shape != nil {
		shape = *s.Shape
	}
	return kafkago.Message{
		Key:   []byte(strconv.Itoa(s.Row)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "shape", Value: []byte(shape)},
			{Key: "exported_at", Value: []byte(exportedAt.Format(time.RFC3339))},
		},
	}, nil
}
