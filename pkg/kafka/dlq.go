package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
)

// DLQTopicPrefix prefixes every dead-letter topic.
const DLQTopicPrefix = "hoppyhub.dlq"

// Headers added to a dead-lettered copy.
const (
	headerDLQTopic     = "dlq.original_topic"
	headerDLQPartition = "dlq.original_partition"
	headerDLQOffset    = "dlq.original_offset"
	headerDLQGroup     = "dlq.consumer_group"
	headerDLQError     = "dlq.error"
	headerDLQPermanent = "dlq.permanent"
)

// DLQTopic names the dead-letter topic for topic.
func DLQTopic(topic string) string {
	return DLQTopicPrefix + "." + topic
}

// DLQProducer parks messages a consumer gave up on.
type DLQProducer struct {
	writer *kafka.Writer
	logger *slog.Logger
}

// NewDLQProducer writes one message per batch so a dead letter is durable
// before the consumer commits past it.
func NewDLQProducer(brokers []string, logger *slog.Logger) *DLQProducer {
	if logger == nil {
		logger = slog.Default()
	}
	return &DLQProducer{writer: newWriter(brokers, 1, 100*time.Millisecond, false), logger: logger}
}

// Publish copies msg to its DLQ topic with its origin, the consumer group,
// the final error and whether it was permanent as dlq.* headers.
func (d *DLQProducer) Publish(ctx context.Context, msg kafka.Message, lastErr error, group string) error {
	dead := deadLetter(msg, lastErr, group)
	log := d.logger.With(
		slog.String("dlq_topic", dead.Topic),
		slog.String("original_topic", msg.Topic),
		slog.Int("partition", msg.Partition),
		slog.Int64("offset", msg.Offset),
	)

	if err := d.writer.WriteMessages(ctx, dead); err != nil {
		log.ErrorContext(ctx, "failed to publish message to DLQ", slog.String("error", err.Error()))
		return fmt.Errorf("publish to DLQ %s: %w", dead.Topic, err)
	}
	log.WarnContext(ctx, "message sent to DLQ", slog.String("consumer_group", group))
	return nil
}

func deadLetter(msg kafka.Message, lastErr error, group string) kafka.Message {
	headers := append(make([]kafka.Header, 0, len(msg.Headers)+6), msg.Headers...)
	add := func(k, v string) { headers = append(headers, kafka.Header{Key: k, Value: []byte(v)}) }

	add(headerDLQTopic, msg.Topic)
	add(headerDLQPartition, strconv.Itoa(msg.Partition))
	add(headerDLQOffset, strconv.FormatInt(msg.Offset, 10))
	add(headerDLQGroup, group)
	if lastErr != nil {
		add(headerDLQError, lastErr.Error())
		add(headerDLQPermanent, strconv.FormatBool(IsPermanent(lastErr)))
	}

	return kafka.Message{Topic: DLQTopic(msg.Topic), Key: msg.Key, Value: msg.Value, Headers: headers}
}

func (d *DLQProducer) Close() error {
	return d.writer.Close()
}
