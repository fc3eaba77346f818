package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/TomWia9/HoppyHub-sub002/pkg/httputil"
)

// Limiter reports whether the client identified by key may make another
// request now.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type bucket struct {
	*rate.Limiter
	lastSeen time.Time
}

// MemoryLimiter keeps a token bucket per client in process memory. It only
// limits the replica it runs in.
type MemoryLimiter struct {
	rps   rate.Limit
	burst int
	ttl   time.Duration

	mu      sync.Mutex
	buckets map[string]*bucket
	nowFunc func() time.Time
}

// NewMemoryLimiter refills rps tokens per second into buckets holding up to
// burst. Buckets idle for ttl are dropped while Run is active.
func NewMemoryLimiter(rps, burst int, ttl time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		rps:     rate.Limit(rps),
		burst:   burst,
		ttl:     ttl,
		buckets: make(map[string]*bucket),
		nowFunc: time.Now,
	}
}

// Allow takes a token from key's bucket.
func (m *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	now := m.nowFunc()
	b, ok := m.buckets[key]
	if !ok {
		b = &bucket{Limiter: rate.NewLimiter(m.rps, m.burst)}
		m.buckets[key] = b
	}
	b.lastSeen = now
	m.mu.Unlock()

	return b.AllowN(now, 1), nil
}

// Run drops idle buckets every ttl until ctx is done.
func (m *MemoryLimiter) Run(ctx context.Context) {
	t := time.NewTicker(m.ttl)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			m.cleanup()
		}
	}
}

func (m *MemoryLimiter) cleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := m.nowFunc().Add(-m.ttl)
	for key, b := range m.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(m.buckets, key)
		}
	}
}

func (m *MemoryLimiter) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.buckets)
}

const redisLimitPrefix = "hoppyhub:gateway:ratelimit:"

// RedisLimiter shares one counter per client and second between all gateway
// replicas. At most limit requests pass per client in each window.
type RedisLimiter struct {
	client  redis.Cmdable
	limit   int64
	nowFunc func() time.Time
}

// NewRedisLimiter creates a limiter on client.
func NewRedisLimiter(client redis.Cmdable, limit int) *RedisLimiter {
	return &RedisLimiter{client: client, limit: int64(limit), nowFunc: time.Now}
}

// Allow counts the request in the current window. The counter outlives its
// window by a second so a late INCR never recreates it without expiry.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	k := fmt.Sprintf("%s%s:%d", redisLimitPrefix, key, l.nowFunc().Unix())

	pipe := l.client.TxPipeline()
	count := pipe.Incr(ctx, k)
	pipe.Expire(ctx, k, 2*time.Second)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("rate limit counter: %w", err)
	}
	return count.Val() <= l.limit, nil
}

// RateLimit answers 429 to clients over their limit. When the limiter
// itself fails the request is let through.
func RateLimit(limiter Limiter, logger *slog.Logger) func(http.Handler) http.Handler {
	tooMany := httputil.Response{
		Error: &httputil.ErrorResponse{Code: "RATE_LIMITED", Message: "too many requests"},
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ip := clientIP(r)

			allowed, err := limiter.Allow(ctx, ip)
			switch {
			case err != nil:
				logger.WarnContext(ctx, "rate limiter unavailable, letting request through",
					slog.String("ip", ip),
					slog.String("error", err.Error()),
				)
			case !allowed:
				logger.WarnContext(ctx, "rate limit exceeded", slog.String("ip", ip), slog.String("path", r.URL.Path))
				w.Header().Set("Retry-After", "1")
				httputil.WriteJSON(w, http.StatusTooManyRequests, tooMany)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP takes the first parseable address of X-Forwarded-For, then
// X-Real-IP, then falls back to the peer address.
func clientIP(r *http.Request) string {
	first, _, _ := strings.Cut(r.Header.Get("X-Forwarded-For"), ",")
	for _, candidate := range []string{first, r.Header.Get("X-Real-IP")} {
		if addr, err := netip.ParseAddr(strings.TrimSpace(candidate)); err == nil {
			return addr.Unmap().String()
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
