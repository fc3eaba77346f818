// Command seed fills a running HoppyHub deployment with sample breweries,
// styles, beers, users, opinions and favorites through the public gateway.
// Catalog writes use an administrator token minted with the shared JWT
// secret; ratings and favorites are sent as freshly registered users so the
// normal event flow builds every projection.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/TomWia9/HoppyHub-sub002/pkg/auth"
	pkgconfig "github.com/TomWia9/HoppyHub-sub002/pkg/config"
	"github.com/TomWia9/HoppyHub-sub002/pkg/httpclient"
	"github.com/TomWia9/HoppyHub-sub002/pkg/logger"
)

type config struct {
	GatewayURL     string        `env:"GATEWAY_URL" envDefault:"http://localhost:8000"`
	JWTSecret      string        `env:"JWT_SECRET" envDefault:"change-this-to-a-secure-secret"`
	LogLevel       string        `env:"LOG_LEVEL" envDefault:"info"`
	Users          int           `env:"SEED_USERS" envDefault:"5"`
	UserPassword   string        `env:"SEED_USER_PASSWORD" envDefault:"HoppyHub2024"`
	GeneratedBeers int           `env:"SEED_GENERATED_BEERS" envDefault:"0"`
	RandomSeed     int64         `env:"SEED_RANDOM_SEED" envDefault:"42"`
	Timeout        time.Duration `env:"SEED_TIMEOUT" envDefault:"5m"`
}

func main() {
	var cfg config
	if err := pkgconfig.Load(&cfg); err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	log := logger.New("seed", cfg.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	ctx, cancelTimeout := context.WithTimeout(ctx, cfg.Timeout)
	defer cancelTimeout()

	admin, _, err := auth.NewManager(cfg.JWTSecret, time.Hour).
		Issue(seedAdminID.String(), "seed-admin@hoppyhub.local", "seed-admin", auth.RoleAdministrator)
	if err != nil {
		log.Error("failed to mint admin token", slog.String("error", err.Error()))
		os.Exit(1)
	}

	client := newGatewayClient(
		httpclient.New(httpclient.Config{Timeout: 15 * time.Second, MaxRetries: 2, RetryWaitMin: 200 * time.Millisecond, RetryWaitMax: 2 * time.Second, MaxConnsPerHost: 10}),
		cfg.GatewayURL,
	)
	s := newSeeder(client, admin, cfg, log)

	report, err := s.Run(ctx)
	if err != nil {
		log.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	log.Info("seed complete",
		slog.Int("styles", report.Styles),
		slog.Int("breweries", report.Breweries),
		slog.Int("beers", report.Beers),
		slog.Int("users", report.Users),
		slog.Int("opinions", report.Opinions),
		slog.Int("favorites", report.Favorites),
	)
}
