package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/TomWia9/HoppyHub-sub002/pkg/auth"
	"github.com/TomWia9/HoppyHub-sub002/pkg/bootstrap"
	"github.com/TomWia9/HoppyHub-sub002/pkg/events"
	"github.com/TomWia9/HoppyHub-sub002/pkg/httpclient"
	"github.com/TomWia9/HoppyHub-sub002/services/search/internal/catalog"
	"github.com/TomWia9/HoppyHub-sub002/services/search/internal/config"
	"github.com/TomWia9/HoppyHub-sub002/services/search/internal/engine"
	esengine "github.com/TomWia9/HoppyHub-sub002/services/search/internal/engine/elasticsearch"
	"github.com/TomWia9/HoppyHub-sub002/services/search/internal/engine/memory"
	"github.com/TomWia9/HoppyHub-sub002/services/search/internal/event"
	handler "github.com/TomWia9/HoppyHub-sub002/services/search/internal/handler/http"
	"github.com/TomWia9/HoppyHub-sub002/services/search/internal/service"
)

// App wires together all dependencies and runs the search service.
type App struct {
	*bootstrap.Runtime
	Service *service.SearchService
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	rt, err := bootstrap.NewStateless(ctx, events.SourceSearch, &cfg.Base, logger)
	if err != nil {
		return nil, err
	}

	eng, err := newEngine(ctx, cfg, rt, logger)
	if err != nil {
		_ = rt.Shutdown()
		return nil, err
	}

	beers := catalog.NewBeersClient(
		httpclient.NewCircuitBreakerClient(
			httpclient.New(httpclient.Config{Timeout: cfg.BeersTimeout(), MaxRetries: 2, MaxConnsPerHost: 10}),
			httpclient.DefaultCircuitBreakerConfig(catalog.ServiceName),
			logger,
		),
		cfg.BeersServiceURL,
		logger,
	)
	svc := service.NewSearchService(eng, beers, logger)

	if err := rt.Subscribe(ctx, event.NewRouter(svc, logger), events.Topics(event.ConsumedTypes...)); err != nil {
		_ = rt.Shutdown()
		return nil, fmt.Errorf("subscribe: %w", err)
	}

	tokens := auth.NewManager(cfg.JWTSecret, 0)
	h := handler.NewHandler(svc, logger)
	rt.Serve(cfg.HTTPPort, handler.NewRouter(h, rt.Health, tokens.Validate, logger))

	return &App{Runtime: rt, Service: svc}, nil
}

func newEngine(ctx context.Context, cfg *config.Config, rt *bootstrap.Runtime, logger *slog.Logger) (engine.SearchEngine, error) {
	if cfg.SearchEngine == config.EngineMemory {
		logger.Info("in-memory search engine initialized")
		return memory.New(), nil
	}

	es, err := esengine.New(ctx, cfg.ElasticsearchURL, cfg.ElasticsearchIndex, logger)
	if err != nil {
		return nil, fmt.Errorf("init elasticsearch engine: %w", err)
	}
	rt.Health.Register("elasticsearch", es.Ping)
	logger.Info("elasticsearch search engine initialized",
		slog.String("url", cfg.ElasticsearchURL),
		slog.String("index", cfg.ElasticsearchIndex),
	)
	return es, nil
}
