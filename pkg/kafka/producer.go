package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/segmentio/kafka-go"
)

const tracerName = "github.com/TomWia9/HoppyHub-sub002/pkg/kafka"

// Publisher publishes envelopes to a topic. Services depend on it rather
// than on Producer so tests can capture what they emit.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *Event) error
}

type ProducerConfig struct {
	Brokers      []string
	BatchSize    int
	BatchTimeout time.Duration
	Async        bool
}

// DefaultProducerConfig publishes synchronously with small batches, so
// Publish returning nil means the brokers acknowledged the event.
func DefaultProducerConfig(brokers []string) ProducerConfig {
	return ProducerConfig{
		Brokers:      brokers,
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
	}
}

// Producer publishes events with kafka-go.
type Producer struct {
	writer  *kafka.Writer
	brokers []string
	logger  *slog.Logger
}

var _ Publisher = (*Producer)(nil)

// NewProducer creates a producer. A nil logger means slog.Default.
func NewProducer(cfg ProducerConfig, logger *slog.Logger) *Producer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Producer{
		writer:  newWriter(cfg.Brokers, cfg.BatchSize, cfg.BatchTimeout, cfg.Async),
		brokers: cfg.Brokers,
		logger:  logger,
	}
}

// Publish writes event to topic keyed by its aggregate, so events for one
// beer, user or opinion stay ordered on a single partition.
func (p *Producer) Publish(ctx context.Context, topic string, event *Event) (err error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "kafka.publish "+topic,
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination.name", topic),
			attribute.String("messaging.message.id", event.EventID),
		),
	)
	start := time.Now()
	defer func() {
		busPublishSeconds.WithLabelValues(topic).Observe(time.Since(start).Seconds())
		recordPublished(topic, err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "publish failed")
		}
		span.End()
	}()

	msg, err := event.message(topic)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	injectTraceContext(ctx, &msg.Headers)

	log := p.logger.With(
		slog.String("topic", topic),
		slog.String("event_type", event.EventType),
		slog.String("event_id", event.EventID),
	)
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		log.ErrorContext(ctx, "failed to publish event", slog.String("error", err.Error()))
		return fmt.Errorf("publish event to %s: %w", topic, err)
	}
	log.DebugContext(ctx, "event published", slog.String("aggregate_id", event.AggregateID))
	return nil
}

// Ping checks that at least one configured broker answers.
func (p *Producer) Ping(ctx context.Context) error {
	return PingBrokers(ctx, p.brokers)
}

// Close flushes pending messages and closes the writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}
