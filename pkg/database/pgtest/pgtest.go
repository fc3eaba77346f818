//go:build integration

// Package pgtest starts a throwaway PostgreSQL server for integration tests.
package pgtest

import (
	"context"
	"io"
	"io/fs"
	"log/slog"
	"math/rand/v2"
	"path/filepath"
	"testing"

	embeddedpostgres "github.com/fergusstrange/embedded-postgres"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/TomWia9/HoppyHub-sub002/pkg/database"
)

// Start runs an embedded server, applies migrations and returns a pool on
// it. Everything is torn down when t finishes.
func Start(t testing.TB, migrations fs.FS) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	dir := t.TempDir()
	port := uint32(40000 + rand.IntN(5000))
	db := embeddedpostgres.NewDatabase(embeddedpostgres.DefaultConfig().
		Username("postgres").
		Password("postgres").
		Database("hoppyhub_test").
		Port(port).
		DataPath(filepath.Join(dir, "data")).
		RuntimePath(filepath.Join(dir, "runtime")).
		CachePath(filepath.Join(dir, "cache")).
		Logger(io.Discard))
	if err := db.Start(); err != nil {
		t.Fatalf("start embedded postgres: %v", err)
	}
	t.Cleanup(func() { _ = db.Stop() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	pool, err := database.ConnectPostgres(ctx, database.PostgresConfig{
		Host:     "localhost",
		Port:     int(port),
		User:     "postgres",
		Password: "postgres",
		DBName:   "hoppyhub_test",
		SSLMode:  "disable",
		MaxConns: 4,
	}, logger)
	if err != nil {
		t.Fatalf("connect embedded postgres: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := database.RunMigrations(ctx, pool, migrations, logger); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	return pool
}
