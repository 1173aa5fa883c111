//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/couchcryptid/evapower-etl/internal/adapter/kafka"
	"github.com/couchcryptid/evapower-etl/internal/adapter/sqlite"
	"github.com/couchcryptid/evapower-etl/internal/config"
	"github.com/couchcryptid/evapower-etl/internal/domain"
	"github.com/couchcryptid/evapower-etl/internal/observability"
	"github.com/couchcryptid/evapower-etl/internal/pipeline"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSourceTopic = "test-site-requests"
	testSinkTopic   = "test-site-assessments"
)

// assessedMessage holds a deserialized message read from the sink topic.
type assessedMessage struct {
	Assessment domain.SiteAssessment
	Key        string
	Headers    map[string]string
}

// readAssessed reads a single message from the sink consumer and deserializes it.
func readAssessed(ctx context.Context, t *testing.T, consumer *kafkago.Reader) assessedMessage {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from sink topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var a domain.SiteAssessment
	require.NoError(t, json.Unmarshal(msg.Value, &a), "unmarshal sink message")

	return assessedMessage{
		Assessment: a,
		Key:        string(msg.Key),
		Headers:    headers,
	}
}

func testConfig(broker, group string) *config.Config {
	return &config.Config{
		KafkaBrokers:       []string{broker},
		KafkaSourceTopic:   testSourceTopic,
		KafkaSinkTopic:     testSinkTopic,
		KafkaGroupID:       fmt.Sprintf("%s-%d", group, time.Now().UnixNano()),
		BatchFlushInterval: 5 * time.Second,
	}
}

func newTransformer() *pipeline.SiteTransformer {
	assessor := domain.NewAssessor(domain.NewClimateEstimator(nil), nil,
		domain.AssessOptions{TargetPowerKW: 1000}, discardLogger())
	return pipeline.NewTransformer(assessor, discardLogger())
}

func sinkConsumer(t *testing.T, broker string) *kafkago.Reader {
	t.Helper()
	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-sink-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })
	return consumer
}

func requestMessage(t *testing.T, req domain.SiteRequest) kafkago.Message {
	t.Helper()
	payload, err := json.Marshal(req)
	require.NoError(t, err)
	return kafkago.Message{Key: []byte(req.Site.Name), Value: payload}
}

// TestKafkaReaderWriter verifies the adapter layer: kafka.Reader (extractor) and
// kafka.Writer (loader) round-trip a site request and its assessment through Kafka.
func TestKafkaReaderWriter(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)
	cfg := testConfig(broker, "test-reader")

	msg := requestMessage(t, domain.SiteRequest{Site: domain.Site{Name: "Sahara Station", Lat: 23, Lon: 25}})
	producer := &kafkago.Writer{Addr: kafkago.TCP(broker), Topic: testSourceTopic}
	t.Cleanup(func() { _ = producer.Close() })
	require.NoError(t, producer.WriteMessages(ctx, msg))

	// Retry because the consumer group may need time to rebalance before
	// partitions are assigned and messages become available.
	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })

	var batch []domain.RawEvent
	for {
		var err error
		batch, err = reader.ExtractBatch(ctx, 1)
		require.NoError(t, err)
		if len(batch) > 0 {
			break
		}
		if ctx.Err() != nil {
			t.Fatal("timed out waiting for message from source topic")
		}
	}
	require.Len(t, batch, 1)
	raw := batch[0]
	assert.Equal(t, msg.Key, raw.Key)
	assert.Equal(t, msg.Value, raw.Value)
	assert.Equal(t, testSourceTopic, raw.Topic)
	require.NotNil(t, raw.Commit, "commit callback should be set")
	require.NoError(t, raw.Commit(ctx))

	assessment, err := newTransformer().Transform(ctx, raw)
	require.NoError(t, err)

	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })
	require.NoError(t, writer.LoadBatch(ctx, []domain.SiteAssessment{assessment}))

	am := readAssessed(ctx, t, sinkConsumer(t, broker))
	assert.Equal(t, assessment.ID, am.Key)
	assert.Equal(t, "excellent", am.Headers["power_level"])
	_, err = time.Parse(time.RFC3339, am.Headers["assessed_at"])
	assert.NoError(t, err, "assessed_at should be valid RFC3339")
	assert.Equal(t, "Sahara Station", am.Assessment.Site.Name)
	assert.InDelta(t, 1807.89, am.Assessment.Power, 0.01)
}

// TestPipelineEndToEnd wires Reader → SiteTransformer → {Writer, sqlite Store}
// with real Kafka and checks both sinks.
func TestPipelineEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)
	cfg := testConfig(broker, "test-pipeline")

	requests := []domain.SiteRequest{
		{Site: domain.Site{Name: "Sahara Station", Country: "Egypt", Lat: 23, Lon: 25}},
		{Site: domain.Site{Name: "London", Country: "United Kingdom", Lat: 51.5, Lon: -0.1}},
		{
			Site:     domain.Site{Name: "Beirut", Country: "Lebanon", Lat: 33.89, Lon: 35.5},
			Measured: &domain.MeasuredPower{Mean: 110.3, Min: 7.1, Max: 210.4, StdDev: 53.4},
		},
	}
	producer := &kafkago.Writer{Addr: kafkago.TCP(broker), Topic: testSourceTopic}
	t.Cleanup(func() { _ = producer.Close() })
	msgs := make([]kafkago.Message, len(requests))
	for i, req := range requests {
		msgs[i] = requestMessage(t, req)
	}
	require.NoError(t, producer.WriteMessages(ctx, msgs...))

	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })
	store, err := sqlite.Open(":memory:", discardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	metrics := observability.NewMetricsForTesting()
	p := pipeline.New(reader, newTransformer(), pipeline.MultiLoader{writer, store}, discardLogger(), metrics, pipeline.Config{BatchSize: 50, Workers: 4})

	pipelineCtx, pipelineCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(pipelineCtx) }()

	consumer := sinkConsumer(t, broker)
	byName := make(map[string]assessedMessage, len(requests))
	for len(byName) < len(requests) {
		am := readAssessed(ctx, t, consumer)
		byName[am.Assessment.Site.Name] = am

		assert.NotEmpty(t, am.Headers["power_level"], "missing power_level header")
		_, err := time.Parse(time.RFC3339, am.Headers["assessed_at"])
		assert.NoError(t, err, "invalid assessed_at format")
	}

	pipelineCancel()
	require.NoError(t, <-errCh)
	require.NoError(t, p.CheckReadiness(ctx))

	assert.Equal(t, "excellent", byName["Sahara Station"].Headers["power_level"])
	assert.Equal(t, domain.SourceMeasured, byName["Beirut"].Assessment.Source)
	assert.Equal(t, "moderate", byName["London"].Headers["power_level"])

	top, err := store.Top(ctx, 10)
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.Equal(t, "Sahara Station", top[0].Site.Name)
	assert.Equal(t, "Beirut", top[1].Site.Name)
	assert.Equal(t, "London", top[2].Site.Name)
}

// TestPipelineTransformError verifies that invalid requests (poison pills) are
// skipped and the pipeline continues with valid ones.
func TestPipelineTransformError(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)
	cfg := testConfig(broker, "test-poison")

	producer := &kafkago.Writer{Addr: kafkago.TCP(broker), Topic: testSourceTopic}
	t.Cleanup(func() { _ = producer.Close() })
	require.NoError(t, producer.WriteMessages(ctx,
		kafkago.Message{Key: []byte("bad"), Value: []byte("not-json{{{")},
		requestMessage(t, domain.SiteRequest{Site: domain.Site{Name: "Off the map", Lat: 120, Lon: 0}}),
		requestMessage(t, domain.SiteRequest{Site: domain.Site{Name: "Sahara Station", Lat: 23, Lon: 25}}),
	))

	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	metrics := observability.NewMetricsForTesting()
	p := pipeline.New(reader, newTransformer(), writer, discardLogger(), metrics, pipeline.Config{BatchSize: 50, Workers: 4})

	pipelineCtx, pipelineCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(pipelineCtx) }()

	consumer := sinkConsumer(t, broker)
	am := readAssessed(ctx, t, consumer)
	assert.Equal(t, "Sahara Station", am.Assessment.Site.Name)

	// Verify no second message arrives (the poison pills were skipped).
	readCtx, readCancel := context.WithTimeout(ctx, 5*time.Second)
	_, err := consumer.ReadMessage(readCtx)
	readCancel()
	assert.Error(t, err, "expected no second message on sink topic")

	pipelineCancel()
	require.NoError(t, <-errCh)
}
