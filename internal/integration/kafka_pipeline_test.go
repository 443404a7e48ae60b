//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/couchcryptid/quake-feed-service/internal/adapter/kafka"
	"github.com/couchcryptid/quake-feed-service/internal/adapter/usgs"
	"github.com/couchcryptid/quake-feed-service/internal/config"
	"github.com/couchcryptid/quake-feed-service/internal/domain"
	"github.com/couchcryptid/quake-feed-service/internal/observability"
	"github.com/couchcryptid/quake-feed-service/internal/pipeline"
	"github.com/prometheus/client_golang/prometheus/testutil"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSinkTopic = "test-earthquake-records"

// publishedMessage holds a deserialized message read from the sink topic.
type publishedMessage struct {
	Earthquake domain.Earthquake
	Key        string
	Headers    map[string]string
}

func readPublished(ctx context.Context, t *testing.T, consumer *kafkago.Reader) publishedMessage {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from sink topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var e domain.Earthquake
	require.NoError(t, json.Unmarshal(msg.Value, &e), "unmarshal sink message")

	return publishedMessage{Earthquake: e, Key: string(msg.Key), Headers: headers}
}

func newConsumer(t *testing.T, broker string) *kafkago.Reader {
	t.Helper()
	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })
	return consumer
}

// TestWriterPublishBatch round-trips a snapshot through kafka.Writer.
func TestWriterPublishBatch(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSinkTopic)

	cfg := &config.Config{KafkaBrokers: []string{broker}, KafkaSinkTopic: testSinkTopic}
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	snap := domain.NewSnapshot([]domain.Earthquake{{
		Location:   "5km NNE of Tokyo, Japan",
		Magnitude:  6.7,
		OccurredAt: 1454124312220,
		DetailURL:  "https://earthquake.usgs.gov/earthquakes/eventpage/us20004z8u",
	}})
	require.NoError(t, writer.PublishBatch(ctx, snap))

	pm := readPublished(ctx, t, newConsumer(t, broker))
	assert.Equal(t, snap.Earthquakes[0], pm.Earthquake)
	assert.Equal(t, "https://earthquake.usgs.gov/earthquakes/eventpage/us20004z8u", pm.Key)
	assert.Equal(t, "6", pm.Headers["magnitude_bucket"])
	_, err := time.Parse(time.RFC3339, pm.Headers["loaded_at"])
	assert.NoError(t, err, "loaded_at should be valid RFC3339")
}

// TestPipelineEndToEnd wires the full pipeline (USGS client → parser → Writer)
// against a fixture feed and real Kafka.
func TestPipelineEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSinkTopic)

	feedSrv := startFeedServer(t, loadMockFeed(t))

	cfg := &config.Config{KafkaBrokers: []string{broker}, KafkaSinkTopic: testSinkTopic}
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	client := usgs.NewClient(5*time.Second, 5*time.Second, 1<<20, "quake-feed-integration", discardLogger())
	metrics := observability.NewMetricsForTesting()
	p := pipeline.New(client, writer, feedSrv.URL, discardLogger(), metrics)

	require.NoError(t, p.Run(ctx))

	snap := p.Snapshot()
	require.Equal(t, 6, snap.Len())
	assert.InDelta(t, 6, testutil.ToFloat64(metrics.RecordsPublished), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(metrics.PublishErrors), 0)

	consumer := newConsumer(t, broker)
	received := make(map[string]publishedMessage, snap.Len())
	for len(received) < snap.Len() {
		pm := readPublished(ctx, t, consumer)
		received[pm.Key] = pm
	}

	for _, e := range snap.Earthquakes {
		pm, ok := received[e.DetailURL]
		require.True(t, ok, "missing message for %s", e.DetailURL)
		assert.Equal(t, e, pm.Earthquake)
		assert.Equal(t, fmt.Sprint(domain.MagnitudeBucket(e.Magnitude)), pm.Headers["magnitude_bucket"])
		assert.Equal(t, snap.LoadedAt.Format(time.RFC3339), pm.Headers["loaded_at"])
	}
}

// TestPipelineFailedLoadPublishesNothing verifies that a failed fetch leaves
// the sink topic untouched.
func TestPipelineFailedLoadPublishesNothing(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSinkTopic)

	feedSrv := startFeedServer(t, []byte("not-json{{{"))

	cfg := &config.Config{KafkaBrokers: []string{broker}, KafkaSinkTopic: testSinkTopic}
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	client := usgs.NewClient(5*time.Second, 5*time.Second, 1<<20, "quake-feed-integration", discardLogger())
	p := pipeline.New(client, writer, feedSrv.URL, discardLogger(), observability.NewMetricsForTesting())

	snap, err := p.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, snap.Len())

	readCtx, readCancel := context.WithTimeout(ctx, 5*time.Second)
	_, err = newConsumer(t, broker).ReadMessage(readCtx)
	readCancel()
	assert.Error(t, err, "expected no message on sink topic")
}
