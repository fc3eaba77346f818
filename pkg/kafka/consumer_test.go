package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReader struct {
	mu        sync.Mutex
	messages  []kafka.Message
	committed []kafka.Message
	closed    bool
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.messages) > 0 {
		msg := r.messages[0]
		r.messages = r.messages[1:]
		r.mu.Unlock()
		return msg, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.committed = append(r.committed, msgs...)
	return nil
}

func (r *fakeReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

type fakeDLQ struct {
	mu     sync.Mutex
	sent   []kafka.Message
	errors []error
}

func (d *fakeDLQ) Publish(_ context.Context, msg kafka.Message, lastErr error, group string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, deadLetter(msg, lastErr, group))
	d.errors = append(d.errors, lastErr)
	return nil
}

func (d *fakeDLQ) Close() error { return nil }

func eventMessage(t *testing.T, topic, eventType, aggregateID string) kafka.Message {
	t.Helper()
	evt, err := NewEvent(eventType, aggregateID, "beer", "opinions-service", map[string]any{"beer_id": aggregateID})
	require.NoError(t, err)
	data, err := evt.Marshal()
	require.NoError(t, err)
	return kafka.Message{Topic: topic, Key: []byte(aggregateID), Value: data, Offset: 7}
}

func testConsumer(r messageReader, dlq *fakeDLQ, h Handler) *Consumer {
	c := newConsumer(r, ConsumerConfig{
		Topic:        "hoppyhub.beer.opinion_changed",
		GroupID:      "beers-service",
		RetryBackoff: time.Millisecond,
	}, h, testLogger())
	if dlq != nil {
		c.dlq = dlq
	}
	return c
}

func TestConsumer_Process_SuccessCommits(t *testing.T) {
	r := &fakeReader{}
	var handled *Event
	c := testConsumer(r, nil, func(_ context.Context, e *Event) error {
		handled = e
		return nil
	})

	msg := eventMessage(t, "hoppyhub.beer.opinion_changed", "BeerOpinionChanged", "beer-1")
	assert.True(t, c.process(context.Background(), msg))

	require.NotNil(t, handled)
	assert.Equal(t, "beer-1", handled.AggregateID)
	assert.Len(t, r.committed, 1)
}

func TestConsumer_Process_RetriesTransientFailure(t *testing.T) {
	r := &fakeReader{}
	attempts := 0
	c := testConsumer(r, &fakeDLQ{}, func(context.Context, *Event) error {
		attempts++
		if attempts < 3 {
			return errors.New("database is restarting")
		}
		return nil
	})

	assert.True(t, c.process(context.Background(), eventMessage(t, "t", "BeerOpinionChanged", "beer-1")))
	assert.Equal(t, 3, attempts)
	assert.Len(t, r.committed, 1)
}

func TestConsumer_Process_ExhaustedRetriesGoToDLQ(t *testing.T) {
	r := &fakeReader{}
	dlq := &fakeDLQ{}
	attempts := 0
	c := testConsumer(r, dlq, func(context.Context, *Event) error {
		attempts++
		return errors.New("still down")
	})

	msg := eventMessage(t, "hoppyhub.beer.opinion_changed", "BeerOpinionChanged", "beer-1")
	assert.True(t, c.process(context.Background(), msg))

	assert.Equal(t, defaultMaxRetries, attempts)
	require.Len(t, dlq.sent, 1)
	assert.Equal(t, "hoppyhub.dlq.hoppyhub.beer.opinion_changed", dlq.sent[0].Topic)
	assert.Len(t, r.committed, 1, "failed message is committed so the partition keeps moving")
}

func TestConsumer_Process_PermanentErrorSkipsRetries(t *testing.T) {
	r := &fakeReader{}
	dlq := &fakeDLQ{}
	attempts := 0
	c := testConsumer(r, dlq, func(context.Context, *Event) error {
		attempts++
		return Permanent(errors.New("beer not found"))
	})

	assert.True(t, c.process(context.Background(), eventMessage(t, "t", "BeerFavoritesCountChanged", "beer-x")))

	assert.Equal(t, 1, attempts)
	require.Len(t, dlq.errors, 1)
	assert.True(t, IsPermanent(dlq.errors[0]))
	assert.Equal(t, "true", NewKafkaHeaderCarrier(&dlq.sent[0].Headers).Get("dlq.permanent"))
}

func TestConsumer_Process_UndecodableMessageGoesToDLQ(t *testing.T) {
	r := &fakeReader{}
	dlq := &fakeDLQ{}
	called := false
	c := testConsumer(r, dlq, func(context.Context, *Event) error {
		called = true
		return nil
	})

	assert.True(t, c.process(context.Background(), kafka.Message{Topic: "t", Value: []byte("{not json")}))

	assert.False(t, called)
	assert.Len(t, dlq.sent, 1)
	assert.Len(t, r.committed, 1)
}

func TestConsumer_Process_NoDLQStillCommits(t *testing.T) {
	r := &fakeReader{}
	c := testConsumer(r, nil, func(context.Context, *Event) error {
		return Permanent(errors.New("nope"))
	})

	assert.True(t, c.process(context.Background(), eventMessage(t, "t", "UserUpdated", "user-1")))
	assert.Len(t, r.committed, 1)
}

func TestConsumer_Process_CancelledDuringBackoffLeavesUncommitted(t *testing.T) {
	r := &fakeReader{}
	ctx, cancel := context.WithCancel(context.Background())
	c := newConsumer(r, ConsumerConfig{Topic: "t", GroupID: "g", RetryBackoff: time.Hour}, func(context.Context, *Event) error {
		cancel()
		return errors.New("transient")
	}, testLogger())

	assert.False(t, c.process(ctx, eventMessage(t, "t", "BeerCreated", "beer-1")))
	assert.Empty(t, r.committed)
}

func TestConsumer_Process_HandlerSeesCorrelationLogger(t *testing.T) {
	r := &fakeReader{}
	var sawDelivery bool
	c := testConsumer(r, nil, func(ctx context.Context, _ *Event) error {
		d, ok := deliveryFromContext(ctx)
		sawDelivery = ok && d.group == "beers-service"
		return nil
	})

	c.process(context.Background(), eventMessage(t, "hoppyhub.beer.opinion_changed", "BeerOpinionChanged", "beer-1"))
	assert.True(t, sawDelivery)
}

func TestConsumer_Start_ProcessesUntilCancelled(t *testing.T) {
	r := &fakeReader{messages: []kafka.Message{
		eventMessage(t, "t", "BeerCreated", "beer-1"),
		eventMessage(t, "t", "BeerCreated", "beer-2"),
	}}
	ctx, cancel := context.WithCancel(context.Background())
	var mu sync.Mutex
	var seen []string
	c := testConsumer(r, nil, func(_ context.Context, e *Event) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, e.AggregateID)
		if len(seen) == 2 {
			cancel()
		}
		return nil
	})

	require.NoError(t, c.Start(ctx))

	assert.Equal(t, []string{"beer-1", "beer-2"}, seen)
	assert.True(t, r.closed)
}

func TestConsumer_DefaultsApplied(t *testing.T) {
	c := newConsumer(&fakeReader{}, ConsumerConfig{Topic: "t", GroupID: "g"}, nil, nil)
	assert.Equal(t, defaultMaxRetries, c.maxRetries)
	assert.Equal(t, defaultRetryBackoff, c.backoff)
	assert.NoError(t, c.Close())
	assert.NoError(t, c.Close())
}
