package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisIdempotencyStore keeps processed event ids in Redis so every replica of
// a consumer group shares one view of what has already been applied.
type RedisIdempotencyStore struct {
	client    redis.Cmdable
	namespace string
	ttl       time.Duration
}

var _ IdempotencyStore = (*RedisIdempotencyStore)(nil)

// NewRedisIdempotencyStore scopes keys by namespace (usually the consumer
// group) because several services see the same event ids.
func NewRedisIdempotencyStore(client redis.Cmdable, namespace string, ttl time.Duration) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{client: client, namespace: namespace, ttl: ttl}
}

func (s *RedisIdempotencyStore) key(eventID string) string {
	return fmt.Sprintf("hoppyhub:processed:%s:%s", s.namespace, eventID)
}

// Contains reports whether eventID was recorded and has not expired.
func (s *RedisIdempotencyStore) Contains(ctx context.Context, eventID string) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(eventID)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists: %w", err)
	}
	return n > 0, nil
}

// Add records eventID for the configured TTL.
func (s *RedisIdempotencyStore) Add(ctx context.Context, eventID string) error {
	if err := s.client.Set(ctx, s.key(eventID), time.Now().UTC().Format(time.RFC3339), s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}
