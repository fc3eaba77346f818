package kafka

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// IdempotencyStore remembers which event ids a subscriber has already
// applied. Implementations must be safe for concurrent use.
type IdempotencyStore interface {
	Contains(ctx context.Context, eventID string) (bool, error)
	// Add is called only after the event was applied successfully.
	Add(ctx context.Context, eventID string) error
}

const minPruneThreshold = 1024

// MemoryIdempotencyStore keeps processed ids in process memory. Ids are
// forgotten after ttl; expired entries are swept once the map has doubled
// since the previous sweep.
type MemoryIdempotencyStore struct {
	mu      sync.Mutex
	seen    map[string]time.Time
	ttl     time.Duration
	now     func() time.Time
	pruneAt int
}

var _ IdempotencyStore = (*MemoryIdempotencyStore)(nil)

func NewMemoryIdempotencyStore(ttl time.Duration) *MemoryIdempotencyStore {
	return &MemoryIdempotencyStore{
		seen:    make(map[string]time.Time),
		ttl:     ttl,
		now:     time.Now,
		pruneAt: minPruneThreshold,
	}
}

func (s *MemoryIdempotencyStore) Contains(_ context.Context, eventID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	at, ok := s.seen[eventID]
	if !ok {
		return false, nil
	}
	if s.now().Sub(at) > s.ttl {
		delete(s.seen, eventID)
		return false, nil
	}
	return true, nil
}

func (s *MemoryIdempotencyStore) Add(_ context.Context, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.seen[eventID] = now
	if len(s.seen) >= s.pruneAt {
		s.prune(now)
	}
	return nil
}

func (s *MemoryIdempotencyStore) prune(now time.Time) {
	for id, at := range s.seen {
		if now.Sub(at) > s.ttl {
			delete(s.seen, id)
		}
	}
	s.pruneAt = max(2*len(s.seen), minPruneThreshold)
}

// Len reports how many ids are held, expired ones included until swept.
func (s *MemoryIdempotencyStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}

// IdempotentHandler skips events whose id the store already holds and
// records the id once inner succeeds, so a failed attempt stays retryable.
// Lookup errors fall through to inner: projections are upserts, and applying
// an event twice is cheaper than dropping it.
func IdempotentHandler(store IdempotencyStore, inner Handler, logger *slog.Logger) Handler {
	return func(ctx context.Context, event *Event) error {
		if event.EventID == "" {
			return inner(ctx, event)
		}

		seen, err := store.Contains(ctx, event.EventID)
		if err != nil {
			logger.WarnContext(ctx, "idempotency lookup failed, applying event",
				slog.String("event_id", event.EventID),
				slog.String("error", err.Error()),
			)
			return inner(ctx, event)
		}
		if seen {
			if d, ok := deliveryFromContext(ctx); ok {
				d.duplicate = true
			}
			logger.DebugContext(ctx, "duplicate event skipped",
				slog.String("event_id", event.EventID),
				slog.String("event_type", event.EventType),
				slog.String("aggregate_id", event.AggregateID),
			)
			return nil
		}

		if err := inner(ctx, event); err != nil {
			return err
		}
		if err := store.Add(ctx, event.EventID); err != nil {
			logger.WarnContext(ctx, "could not record applied event",
				slog.String("event_id", event.EventID),
				slog.String("error", err.Error()),
			)
		}
		return nil
	}
}

// delivery describes the subscription a message arrived on. Handlers flag
// duplicates on it so the consumer can label the outcome.
type delivery struct {
	topic     string
	group     string
	duplicate bool
}

type deliveryKey struct{}

func withDelivery(ctx context.Context, d *delivery) context.Context {
	return context.WithValue(ctx, deliveryKey{}, d)
}

func deliveryFromContext(ctx context.Context) (*delivery, bool) {
	d, ok := ctx.Value(deliveryKey{}).(*delivery)
	return d, ok
}
