package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/TomWia9/HoppyHub-sub002/pkg/bootstrap"
	"github.com/TomWia9/HoppyHub-sub002/pkg/command"
	"github.com/TomWia9/HoppyHub-sub002/pkg/events"
	"github.com/TomWia9/HoppyHub-sub002/pkg/uow"
	"github.com/TomWia9/HoppyHub-sub002/services/images/internal/config"
	handler "github.com/TomWia9/HoppyHub-sub002/services/images/internal/handler/http"
	"github.com/TomWia9/HoppyHub-sub002/services/images/internal/repository/postgres"
	"github.com/TomWia9/HoppyHub-sub002/services/images/internal/service"
	"github.com/TomWia9/HoppyHub-sub002/services/images/internal/storage"
	"github.com/TomWia9/HoppyHub-sub002/services/images/internal/storage/local"
	"github.com/TomWia9/HoppyHub-sub002/services/images/internal/storage/memory"
	"github.com/TomWia9/HoppyHub-sub002/services/images/migrations"
)

// App wires together all dependencies and runs the images service. It
// publishes image events and consumes none.
type App struct {
	*bootstrap.Runtime
	Service *service.Service
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := newStorage(cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("image storage ready",
		slog.String("driver", cfg.StorageDriver),
		slog.String("public_url", cfg.PublicURL),
	)

	rt, err := bootstrap.New(ctx, events.SourceImages, &cfg.Base, cfg.PostgresDB, migrations.FS, logger)
	if err != nil {
		return nil, err
	}

	executor := uow.New(rt.Pool, rt.Producer, events.SourceImages, logger)
	svc := service.New(rt.Pool, postgres.NewSet, executor, store, logger)

	dispatcher := command.NewDispatcher(command.Standard(logger, cfg.SlowCommandThreshold())...)
	svc.Register(dispatcher)

	h := handler.NewHandler(dispatcher, svc, cfg.MaxUploadBytes(), logger)
	rt.Serve(cfg.HTTPPort, handler.NewRouter(h, rt.Health, logger))

	return &App{Runtime: rt, Service: svc}, nil
}

func newStorage(cfg *config.Config) (storage.Storage, error) {
	switch cfg.StorageDriver {
	case config.DriverMemory:
		return memory.New(cfg.PublicURL), nil
	case config.DriverLocal:
		store, err := local.New(cfg.StorageDir, cfg.PublicURL)
		if err != nil {
			return nil, fmt.Errorf("open image storage: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}
