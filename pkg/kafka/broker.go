package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/segmentio/kafka-go"
)

// newWriter returns a writer that waits for all in-sync replicas and
// partitions by message key.
func newWriter(brokers []string, batchSize int, batchTimeout time.Duration, async bool) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		BatchSize:              batchSize,
		BatchTimeout:           batchTimeout,
		Async:                  async,
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
}

var errNoBrokers = errors.New("kafka: no brokers configured")

// PingBrokers succeeds as soon as one broker answers a metadata request.
// Consumer-only services use it as their readiness check.
func PingBrokers(ctx context.Context, brokers []string) error {
	if len(brokers) == 0 {
		return errNoBrokers
	}

	var errs []error
	for _, addr := range brokers {
		conn, err := kafka.DialContext(ctx, "tcp", addr)
		if err == nil {
			_, err = conn.Brokers()
			_ = conn.Close()
		}
		if err == nil {
			return nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", addr, err))
	}
	return fmt.Errorf("kafka ping: all brokers unreachable: %w", errors.Join(errs...))
}

// PingWithRetry calls ping up to attempts times, waiting 1s, 2s, 4s and so
// on (±25%) in between. Callers start degraded when it fails instead of
// refusing to boot.
func PingWithRetry(ctx context.Context, ping func(context.Context) error, attempts int, logger *slog.Logger) error {
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = ping(ctx); err == nil {
			return nil
		}
		if attempt == attempts {
			break
		}

		wait := pingBackoff(attempt)
		logger.Warn("kafka ping failed, retrying",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", attempts),
			slog.Duration("backoff", wait),
			slog.String("error", err.Error()),
		)
		select {
		case <-ctx.Done():
			return fmt.Errorf("kafka ping: %w", ctx.Err())
		case <-time.After(wait):
		}
	}
	return fmt.Errorf("kafka ping failed after %d attempts: %w", attempts, err)
}

func pingBackoff(attempt int) time.Duration {
	base := time.Second << (attempt - 1)
	return base + time.Duration(float64(base)*0.25*(2*rand.Float64()-1)) // #nosec G404 -- non-cryptographic jitter
}
