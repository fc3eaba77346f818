package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/TomWia9/HoppyHub-sub002/pkg/auth"
	"github.com/TomWia9/HoppyHub-sub002/pkg/bootstrap"
	"github.com/TomWia9/HoppyHub-sub002/pkg/command"
	"github.com/TomWia9/HoppyHub-sub002/pkg/events"
	"github.com/TomWia9/HoppyHub-sub002/pkg/uow"
	"github.com/TomWia9/HoppyHub-sub002/services/users/internal/config"
	handler "github.com/TomWia9/HoppyHub-sub002/services/users/internal/handler/http"
	"github.com/TomWia9/HoppyHub-sub002/services/users/internal/repository/postgres"
	"github.com/TomWia9/HoppyHub-sub002/services/users/internal/service"
	"github.com/TomWia9/HoppyHub-sub002/services/users/migrations"
)

// App wires together all dependencies and runs the users service. It
// publishes user lifecycle events and consumes none.
type App struct {
	*bootstrap.Runtime
	Service *service.Service
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	rt, err := bootstrap.New(ctx, events.SourceUsers, &cfg.Base, cfg.PostgresDB, migrations.FS, logger)
	if err != nil {
		return nil, err
	}

	tokens := auth.NewManager(cfg.JWTSecret, cfg.AccessExpiry())
	executor := uow.New(rt.Pool, rt.Producer, events.SourceUsers, logger)
	svc := service.New(rt.Pool, postgres.NewSet, executor, tokens, cfg.BcryptCost, logger)

	dispatcher := command.NewDispatcher(command.Standard(logger, cfg.SlowCommandThreshold())...)
	svc.Register(dispatcher)

	h := handler.NewHandler(dispatcher, svc, logger)
	rt.Serve(cfg.HTTPPort, handler.NewRouter(h, rt.Health, tokens.Validate, logger))

	return &App{Runtime: rt, Service: svc}, nil
}
