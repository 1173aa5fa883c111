package kafka

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/evapower-etl/internal/config"
	"github.com/couchcryptid/evapower-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer produces site assessments to a Kafka topic.
// It implements pipeline.BatchLoader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// LoadBatch serializes and publishes assessments to the sink topic in a single
// WriteMessages call. Messages are keyed by assessment ID so reassessments of a
// site land on the same partition.
func (w *Writer) LoadBatch(ctx context.Context, assessments []domain.SiteAssessment) error {
	if len(assessments) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(assessments))
	for i := range assessments {
		msg, err := serializeToMessage(assessments[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return err
	}
	w.logger.Debug("assessments published", "count", len(msgs), "topic", w.writer.Topic)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// headerOrder fixes the header sequence on the wire.
var headerOrder = []string{"power_level", "assessed_at"}

// serializeToMessage encodes an assessment into a Kafka message.
func serializeToMessage(a domain.SiteAssessment) (kafkago.Message, error) {
	out, err := domain.SerializeAssessment(a)
	if err != nil {
		return kafkago.Message{}, err
	}
	headers := make([]kafkago.Header, 0, len(out.Headers))
	for _, k := range headerOrder {
		if v, ok := out.Headers[k]; ok {
			headers = append(headers, kafkago.Header{Key: k, Value: []byte(v)})
		}
	}
	return kafkago.Message{
		Key:     out.Key,
		Value:   out.Value,
		Headers: headers,
	}, nil
}
