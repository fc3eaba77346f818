package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/TomWia9/HoppyHub-sub002/pkg/auth"
	"github.com/TomWia9/HoppyHub-sub002/pkg/bootstrap"
	"github.com/TomWia9/HoppyHub-sub002/pkg/httpclient"
	"github.com/TomWia9/HoppyHub-sub002/services/gateway/internal/config"
	"github.com/TomWia9/HoppyHub-sub002/services/gateway/internal/handler"
	"github.com/TomWia9/HoppyHub-sub002/services/gateway/internal/middleware"
	"github.com/TomWia9/HoppyHub-sub002/services/gateway/internal/proxy"
)

const visitorTTL = 3 * time.Minute

// App wires together all dependencies and runs the API gateway. The gateway
// owns no database and no Kafka connection.
type App struct {
	*bootstrap.Runtime
	memoryLimiter *middleware.MemoryLimiter
}

// NewApp creates a new application instance, initializing the reverse proxy
// and HTTP router.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	rt, err := bootstrap.NewEdge(ctx, "gateway", &cfg.Base, logger)
	if err != nil {
		return nil, err
	}
	a := &App{Runtime: rt}

	upstreams := cfg.Upstreams()
	sp, err := proxy.NewServiceProxy(upstreams, proxy.Options{
		DialTimeout:     cfg.ProxyDialTimeout(),
		ResponseTimeout: cfg.ProxyResponseTimeout(),
		MaxIdleConns:    cfg.ProxyMaxIdleConns,
	}, logger)
	if err != nil {
		_ = rt.Shutdown()
		return nil, err
	}

	limiter, err := a.newLimiter(ctx, cfg)
	if err != nil {
		_ = rt.Shutdown()
		return nil, err
	}

	handler.RegisterDownstreamChecks(rt.Health, httpclient.New(httpclient.Config{Timeout: 2 * time.Second, MaxConnsPerHost: 2}), upstreams)

	tokens := auth.NewManager(cfg.JWTSecret, 0)
	rt.Serve(cfg.HTTPPort, handler.NewRouter(handler.RouterConfig{
		Limiter:             limiter,
		ValidateToken:       tokens.Validate,
		MetricsAllowedCIDRs: cfg.MetricsAllowedCIDRs,
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
		PprofEnabled:        cfg.PprofEnabled,
	}, sp, rt.Health, logger))

	return a, nil
}

func (a *App) newLimiter(ctx context.Context, cfg *config.Config) (middleware.Limiter, error) {
	if cfg.RateLimitStore == config.RateLimitRedis {
		client, err := a.Redis(ctx)
		if err != nil {
			return nil, fmt.Errorf("rate limit store: %w", err)
		}
		a.Logger.Info("redis rate limiter initialized", slog.Int("limit_per_second", cfg.RateLimitBurst))
		return middleware.NewRedisLimiter(client, cfg.RateLimitBurst), nil
	}

	a.memoryLimiter = middleware.NewMemoryLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, visitorTTL)
	a.Logger.Info("in-memory rate limiter initialized",
		slog.Int("rps", cfg.RateLimitRPS),
		slog.Int("burst", cfg.RateLimitBurst),
	)
	return a.memoryLimiter, nil
}

// Run evicts idle rate-limit buckets in the background and serves until ctx
// is canceled.
func (a *App) Run(ctx context.Context) error {
	if a.memoryLimiter != nil {
		go a.memoryLimiter.Run(ctx)
	}
	return a.Runtime.Run(ctx)
}
