package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/TomWia9/HoppyHub-sub002/pkg/logger"
)

const (
	defaultMaxRetries   = 3
	defaultRetryBackoff = 100 * time.Millisecond

	// fetchErrorPause keeps a broken connection from spinning the fetch loop.
	fetchErrorPause = time.Second
)

// Handler applies one event. Returning an error marked with Permanent skips
// the remaining attempts.
type Handler func(ctx context.Context, event *Event) error

// ConsumerConfig configures a Consumer.
type ConsumerConfig struct {
	Brokers  []string
	GroupID  string
	Topic    string
	MinBytes int
	MaxBytes int

	// EnableDLQ sends messages that could not be applied to DLQTopic(Topic).
	// Without it they are logged and committed.
	EnableDLQ bool

	// MaxRetries is the number of handler attempts per message. The wait
	// before attempt n+1 is n*RetryBackoff.
	MaxRetries   int
	RetryBackoff time.Duration
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type deadLetterPublisher interface {
	Publish(ctx context.Context, msg kafka.Message, lastErr error, consumerGroup string) error
	Close() error
}

// Consumer reads one topic as a member of a consumer group. Messages are
// applied one at a time, so the events of a partition are seen in order,
// and every message is committed once it is applied or given up on.
type Consumer struct {
	reader     messageReader
	dlq        deadLetterPublisher
	topic      string
	group      string
	logger     *slog.Logger
	handler    Handler
	maxRetries int
	backoff    time.Duration
	closeOnce  sync.Once
	closeErr   error
}

// NewConsumer connects a reader for cfg.Topic in cfg.GroupID.
func NewConsumer(cfg ConsumerConfig, handler Handler, logger *slog.Logger) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		GroupID:  cfg.GroupID,
		Topic:    cfg.Topic,
		MinBytes: cfg.MinBytes,
		MaxBytes: cfg.MaxBytes,
	})
	c := newConsumer(r, cfg, handler, logger)
	if cfg.EnableDLQ {
		c.dlq = NewDLQProducer(cfg.Brokers, logger)
	}
	return c
}

func newConsumer(r messageReader, cfg ConsumerConfig, handler Handler, log *slog.Logger) *Consumer {
	if log == nil {
		log = slog.Default()
	}
	return &Consumer{
		reader:     r,
		topic:      cfg.Topic,
		group:      cfg.GroupID,
		logger:     log.With(slog.String("topic", cfg.Topic), slog.String("consumer_group", cfg.GroupID)),
		handler:    handler,
		maxRetries: positiveOr(cfg.MaxRetries, defaultMaxRetries),
		backoff:    positiveOr(cfg.RetryBackoff, defaultRetryBackoff),
	}
}

func positiveOr[T int | time.Duration](v, def T) T {
	if v <= 0 {
		return def
	}
	return v
}

// Start fetches and applies messages until ctx is cancelled, then closes
// the consumer.
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("consumer started")
	defer c.logger.Info("consumer stopped")

	for ctx.Err() == nil {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() == nil {
				c.logger.Error("fetch message", slog.String("error", err.Error()))
				sleep(ctx, fetchErrorPause)
			}
			continue
		}

		busReceived.WithLabelValues(c.topic, c.group).Inc()
		if !c.process(ctx, msg) {
			break
		}
	}
	return c.Close()
}

// process applies and commits msg. It reports false when ctx ended between
// attempts; the message then stays uncommitted and is redelivered to
// whichever member owns the partition next.
func (c *Consumer) process(ctx context.Context, msg kafka.Message) bool {
	event, err := UnmarshalEvent(msg.Value)
	if err != nil {
		c.logger.Error("undecodable message",
			slog.String("error", err.Error()),
			slog.Int("partition", msg.Partition),
			slog.Int64("offset", msg.Offset),
		)
		c.giveUp(ctx, msg, Permanent(err))
		c.commit(ctx, msg)
		return true
	}

	d := &delivery{topic: c.topic, group: c.group}
	hctx, span := c.startSpan(withDelivery(extractTraceContext(ctx, msg.Headers), d), msg, event)
	defer span.End()

	if event.CorrelationID != "" {
		hctx = logger.WithCorrelationID(hctx, event.CorrelationID)
	}
	log := logger.WithEvent(logger.WithContext(hctx, c.logger), event.EventType, event.EventID, event.AggregateID)
	hctx = logger.NewContext(hctx, log)

	began := time.Now()
	interrupted, err := c.attempt(hctx, log, event)
	busHandleSeconds.WithLabelValues(c.topic, c.group).Observe(time.Since(began).Seconds())
	if interrupted {
		return false
	}

	switch {
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, "handler failed")
		log.Error("giving up on message",
			slog.String("error", err.Error()),
			slog.Bool("permanent", IsPermanent(err)),
			slog.Int("partition", msg.Partition),
			slog.Int64("offset", msg.Offset),
		)
		c.giveUp(ctx, msg, err)
	case d.duplicate:
		recordHandled(c.topic, c.group, outcomeDuplicate)
	default:
		recordHandled(c.topic, c.group, outcomeApplied)
	}
	c.commit(ctx, msg)
	return true
}

func (c *Consumer) startSpan(ctx context.Context, msg kafka.Message, event *Event) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "kafka.consume "+msg.Topic,
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination.name", msg.Topic),
			attribute.String("messaging.message.id", event.EventID),
			attribute.String("messaging.consumer.group.name", c.group),
			attribute.Int("messaging.kafka.destination.partition", msg.Partition),
		),
	)
}

// attempt runs the handler up to maxRetries times. interrupted is set when
// ctx ended during a backoff.
func (c *Consumer) attempt(ctx context.Context, log *slog.Logger, event *Event) (interrupted bool, err error) {
	for n := 1; ; n++ {
		err = c.handler(ctx, event)
		if err == nil || IsPermanent(err) || n == c.maxRetries {
			return false, err
		}
		log.Warn("handler failed, retrying",
			slog.String("error", err.Error()),
			slog.Int("attempt", n),
			slog.Int("max_retries", c.maxRetries),
		)
		if !sleep(ctx, time.Duration(n)*c.backoff) {
			return true, err
		}
	}
}

// sleep waits for d and reports whether ctx is still live.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (c *Consumer) giveUp(ctx context.Context, msg kafka.Message, cause error) {
	recordHandled(c.topic, c.group, outcomeFailed)
	if c.dlq == nil {
		return
	}
	if c.dlq.Publish(ctx, msg, cause, c.group) == nil {
		recordHandled(c.topic, c.group, outcomeDeadLettered)
	}
}

func (c *Consumer) commit(ctx context.Context, msg kafka.Message) {
	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		c.logger.Error("commit message",
			slog.String("error", err.Error()),
			slog.Int("partition", msg.Partition),
			slog.Int64("offset", msg.Offset),
		)
	}
}

// Close releases the reader and the dead-letter writer. Later calls return
// the first call's result.
func (c *Consumer) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.reader.Close()
		if c.dlq != nil {
			if err := c.dlq.Close(); c.closeErr == nil {
				c.closeErr = err
			}
		}
	})
	return c.closeErr
}

// TopicPrefix namespaces every HoppyHub topic.
const TopicPrefix = "hoppyhub"

// Topic returns "hoppyhub.<aggregate>.<action>".
func Topic(aggregate, action string) string {
	return fmt.Sprintf("%s.%s.%s", TopicPrefix, aggregate, action)
}
