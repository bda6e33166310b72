//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/ufo-sightings-dashboard/internal/adapter/kafka"
	"github.com/couchcryptid/ufo-sightings-dashboard/internal/archive"
	"github.com/couchcryptid/ufo-sightings-dashboard/internal/config"
	"github.com/couchcryptid/ufo-sightings-dashboard/internal/domain"
	"github.com/couchcryptid/ufo-sightings-dashboard/internal/observability"
	"github.com/couchcryptid/ufo-sightings-dashboard/internal/pipeline"
)

const (
	testExportTopic = "test-ufo-sightings"
	samplePath      = "../archive/testdata/sample.csv"
)

type exportedMessage struct {
	Sighting domain.Sighting
	Key      string
	Headers  map[string]string
}

func readExported(ctx context.Context, t *testing.T, consumer *kafkago.Reader) exportedMessage {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from export topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var s domain.Sighting
	require.NoError(t, json.Unmarshal(msg.Value, &s), "unmarshal exported message")

	return exportedMessage{Sighting: s, Key: string(msg.Key), Headers: headers}
}

// TestArchiveExportEndToEnd loads the sample archive and exports it through
// the Kafka writer, then verifies every row arrives keyed by row number.
func TestArchiveExportEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testExportTopic)

	cfg := &config.Config{
		KafkaBrokers:     []string{broker},
		KafkaExportTopic: testExportTopic,
		BatchSize:        4,
	}
	metrics := observability.NewMetricsForTesting()

	table, err := archive.NewLoader(discardLogger(), metrics).Load(ctx, samplePath)
	require.NoError(t, err)
	require.NotZero(t, table.Len())

	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	p := pipeline.New(pipeline.NewTableExtractor(table), writer, discardLogger(), metrics, cfg.BatchSize)
	res, err := p.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, table.Len(), res.Exported)

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testExportTopic,
		GroupID:     fmt.Sprintf("test-export-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	received := make(map[int]exportedMessage, table.Len())
	for len(received) < table.Len() {
		m := readExported(ctx, t, consumer)
		row, err := strconv.Atoi(m.Key)
		require.NoError(t, err, "key is the row number")
		received[row] = m
	}

	for _, want := range table.Records {
		got, ok := received[want.Row]
		require.True(t, ok, "row %d missing", want.Row)

		assert.Equal(t, want.City, got.Sighting.City)
		assert.Equal(t, want.HasCoordinates(), got.Sighting.HasCoordinates())
		assert.Contains(t, got.Headers, "shape")
		_, err := time.Parse(time.RFC3339, got.Headers["exported_at"])
		assert.NoError(t, err, "exported_at should be valid RFC3339")
	}

	first := received[table.Records[0].Row]
	assert.Equal(t, "cylinder", first.Headers["shape"])
}
