package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/TomWia9/HoppyHub-sub002/pkg/auth"
	"github.com/TomWia9/HoppyHub-sub002/pkg/bootstrap"
	"github.com/TomWia9/HoppyHub-sub002/pkg/command"
	"github.com/TomWia9/HoppyHub-sub002/pkg/events"
	"github.com/TomWia9/HoppyHub-sub002/pkg/uow"
	"github.com/TomWia9/HoppyHub-sub002/services/favorites/internal/config"
	"github.com/TomWia9/HoppyHub-sub002/services/favorites/internal/event"
	handler "github.com/TomWia9/HoppyHub-sub002/services/favorites/internal/handler/http"
	"github.com/TomWia9/HoppyHub-sub002/services/favorites/internal/repository/postgres"
	"github.com/TomWia9/HoppyHub-sub002/services/favorites/internal/service"
	"github.com/TomWia9/HoppyHub-sub002/services/favorites/migrations"
)

// App wires together all dependencies and runs the favorites service.
type App struct {
	*bootstrap.Runtime
	Service *service.Service
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	rt, err := bootstrap.New(ctx, events.SourceFavorites, &cfg.Base, cfg.PostgresDB, migrations.FS, logger)
	if err != nil {
		return nil, err
	}

	executor := uow.New(rt.Pool, rt.Producer, events.SourceFavorites, logger)
	svc := service.New(rt.Pool, postgres.NewSet, executor, logger)

	dispatcher := command.NewDispatcher(command.Standard(logger, cfg.SlowCommandThreshold())...)
	svc.Register(dispatcher)

	if err := rt.Subscribe(ctx, event.NewRouter(svc, logger), events.Topics(event.ConsumedTypes...)); err != nil {
		_ = rt.Shutdown()
		return nil, fmt.Errorf("subscribe: %w", err)
	}

	tokens := auth.NewManager(cfg.JWTSecret, 0)
	h := handler.NewHandler(dispatcher, svc, logger)
	rt.Serve(cfg.HTTPPort, handler.NewRouter(h, rt.Health, tokens.Validate, logger))

	return &App{Runtime: rt, Service: svc}, nil
}
