// Package bootstrap holds the startup and shutdown sequence shared by the
// HoppyHub services: tracer, PostgreSQL pool with migrations, Kafka producer,
// deduplicating consumers and the HTTP server.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/TomWia9/HoppyHub-sub002/pkg/blobstore"
	"github.com/TomWia9/HoppyHub-sub002/pkg/config"
	"github.com/TomWia9/HoppyHub-sub002/pkg/database"
	"github.com/TomWia9/HoppyHub-sub002/pkg/health"
	"github.com/TomWia9/HoppyHub-sub002/pkg/httpclient"
	pkgkafka "github.com/TomWia9/HoppyHub-sub002/pkg/kafka"
	"github.com/TomWia9/HoppyHub-sub002/pkg/tracing"
)

// Runtime owns the long-lived resources of one service.
type Runtime struct {
	Service  string
	Logger   *slog.Logger
	Pool     *pgxpool.Pool
	Producer *pkgkafka.Producer
	Health   *health.Handler

	base           *config.Base
	redis          *redis.Client
	groups         []*pkgkafka.Group
	server         *http.Server
	tracerShutdown func(context.Context) error
}

// New starts tracing, connects to PostgreSQL, applies migrations and opens the
// Kafka producer. A broker that does not answer the startup ping only
// degrades the service; a database that cannot be reached fails it.
func New(ctx context.Context, service string, base *config.Base, dbName string, migrations fs.FS, logger *slog.Logger) (*Runtime, error) {
	rt, err := startRuntime(ctx, service, base, logger)
	if err != nil {
		return nil, err
	}

	pgCfg := base.Postgres(dbName)
	rt.Pool, err = database.ConnectPostgres(ctx, pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", pgCfg.Host),
		slog.Int("port", pgCfg.Port),
		slog.String("database", dbName),
	)
	if err := database.RegisterPoolMetrics(rt.Pool, service); err != nil {
		logger.Warn("pool metrics not registered", slog.String("error", err.Error()))
	}

	if err := database.RunMigrations(ctx, rt.Pool, migrations, logger); err != nil {
		rt.Pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	if t := base.SlowQueryThreshold(); t > 0 {
		database.SetSlowQueryLogging(t, logger)
	}

	pool := rt.Pool
	rt.Health.RegisterCritical("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})

	rt.openProducer(ctx)
	return rt, nil
}

// NewStateless starts tracing and the Kafka producer for a service that
// keeps no database of its own. Pool stays nil.
func NewStateless(ctx context.Context, service string, base *config.Base, logger *slog.Logger) (*Runtime, error) {
	rt, err := startRuntime(ctx, service, base, logger)
	if err != nil {
		return nil, err
	}
	rt.openProducer(ctx)
	return rt, nil
}

// NewEdge starts tracing only, for a process that neither owns a database
// nor talks to Kafka.
func NewEdge(ctx context.Context, service string, base *config.Base, logger *slog.Logger) (*Runtime, error) {
	return startRuntime(ctx, service, base, logger)
}

func startRuntime(ctx context.Context, service string, base *config.Base, logger *slog.Logger) (*Runtime, error) {
	rt := &Runtime{Service: service, Logger: logger, base: base, Health: health.NewHandler()}

	var err error
	rt.tracerShutdown, err = tracing.InitTracer(ctx, base.Tracing(service))
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}
	return rt, nil
}

func (rt *Runtime) openProducer(ctx context.Context) {
	rt.Producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(rt.base.KafkaBrokers), rt.Logger)
	if err := pkgkafka.PingWithRetry(ctx, rt.Producer.Ping, 3, rt.Logger); err != nil {
		rt.Logger.Warn("kafka producer ping failed after retries, continuing in degraded mode",
			slog.String("error", err.Error()),
		)
	} else {
		rt.Logger.Info("kafka producer initialized", slog.Any("brokers", rt.base.KafkaBrokers))
	}
	rt.Health.RegisterNonCritical("kafka", rt.Producer.Ping)
}

// IdempotencyStore returns the configured store for processed event ids.
// The Redis store is shared by every replica of the service.
func (rt *Runtime) IdempotencyStore(ctx context.Context) (pkgkafka.IdempotencyStore, error) {
	if rt.base.IdempotencyStore != config.IdempotencyRedis {
		return pkgkafka.NewMemoryIdempotencyStore(rt.base.IdempotencyTTL()), nil
	}
	client, err := rt.Redis(ctx)
	if err != nil {
		return nil, err
	}
	return pkgkafka.NewRedisIdempotencyStore(client, rt.Service, rt.base.IdempotencyTTL()), nil
}

// Redis returns the shared Redis client, connecting on first use. It is
// closed by Shutdown.
func (rt *Runtime) Redis(ctx context.Context) (*redis.Client, error) {
	if rt.redis != nil {
		return rt.redis, nil
	}
	client, err := database.NewRedisClient(ctx, rt.base.Redis())
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	rt.redis = client
	rt.Health.RegisterNonCritical("redis", func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	})
	return client, nil
}

// Subscribe creates a consumer for every topic, all feeding router behind
// the idempotency store.
func (rt *Runtime) Subscribe(ctx context.Context, router *pkgkafka.Router, topics []string) error {
	store, err := rt.IdempotencyStore(ctx)
	if err != nil {
		return err
	}
	group := pkgkafka.NewGroup(pkgkafka.GroupConfig{
		Brokers:   rt.base.KafkaBrokers,
		Service:   rt.Service,
		EnableDLQ: rt.base.KafkaEnableDLQ,
	}, topics, pkgkafka.IdempotentHandler(store, router.Handle, rt.Logger), rt.Logger)
	rt.groups = append(rt.groups, group)

	rt.Logger.Info("kafka consumers configured",
		slog.Any("topics", topics),
		slog.Any("event_types", router.EventTypes()),
	)
	return nil
}

// Serve sets the HTTP handler served on port.
func (rt *Runtime) Serve(port int, handler http.Handler) {
	rt.server = NewServer(port, handler)
}

// NewServer creates an http.Server with the HoppyHub timeouts.
func NewServer(port int, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// Run starts the HTTP server and consumers, then blocks until ctx is
// cancelled or one of them fails, and shuts everything down.
func (rt *Runtime) Run(ctx context.Context) error {
	errCh := make(chan error, 1+len(rt.groups))

	if rt.server != nil {
		go func() {
			rt.Logger.Info("starting HTTP server", slog.String("addr", rt.server.Addr))
			if err := rt.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("http server: %w", err)
			}
		}()
	}

	for _, g := range rt.groups {
		go func() {
			if err := g.Start(ctx); err != nil {
				errCh <- err
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		rt.Logger.Info("shutdown signal received")
	case runErr = <-errCh:
		rt.Logger.Error("component failed, shutting down", slog.String("error", runErr.Error()))
	}

	return errors.Join(runErr, rt.Shutdown())
}

// Shutdown stops the components in order: HTTP server (drain in-flight
// requests), tracer, consumers, producer, Redis, PostgreSQL pool.
func (rt *Runtime) Shutdown() error {
	rt.Logger.Info("shutting down application...")
	var errs []error

	if rt.server != nil {
		httpCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rt.server.Shutdown(httpCtx); err != nil {
			rt.Logger.Error("http server shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if rt.tracerShutdown != nil {
		tracerCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := rt.tracerShutdown(tracerCtx); err != nil {
			rt.Logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	for _, g := range rt.groups {
		if err := g.Close(); err != nil {
			rt.Logger.Error("kafka consumer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if rt.Producer != nil {
		if err := rt.Producer.Close(); err != nil {
			rt.Logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if rt.redis != nil {
		if err := rt.redis.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if rt.Pool != nil {
		rt.Pool.Close()
	}

	rt.Logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

// NewBlobStore returns the images service client, or an in-process store
// when memory is set. The client retries transport errors and trips a
// circuit breaker named after the images service.
func NewBlobStore(memory bool, imagesURL string, timeout time.Duration, logger *slog.Logger) blobstore.Store {
	if memory {
		logger.Warn("using in-memory blob store; images are not persisted")
		return blobstore.NewMemoryStore(imagesURL + "/files")
	}
	cfg := httpclient.DefaultConfig()
	cfg.Timeout = timeout
	client := httpclient.NewCircuitBreakerClient(httpclient.New(cfg), httpclient.DefaultCircuitBreakerConfig("images-service"), logger)
	return blobstore.NewHTTPStore(client, imagesURL, logger)
}
