package database

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"slices"
	"strings"

	"github.com/jackc/pgx/v5"
)

// MigrationDB is what RunMigrations needs: plain queries plus transactions.
// *pgxpool.Pool and pgxmock pools both satisfy it.
type MigrationDB interface {
	DBTX
	TxBeginner
}

// migrationLockKey serializes migrations across replicas of one service
// starting at the same time against the same database.
const migrationLockKey int64 = 0x686f707079

const createMigrationsTable = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version    TEXT PRIMARY KEY,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// RunMigrations applies every *.up.sql file at the root of migrations in
// name order. Each file runs in its own transaction together with its
// schema_migrations row, under a transaction-scoped advisory lock. Lost
// connections are retried; SQL errors are not.
func RunMigrations(ctx context.Context, pool MigrationDB, migrations fs.FS, logger *slog.Logger) error {
	files, err := upMigrations(migrations)
	if err != nil {
		return err
	}
	return startupBackoff.retry(ctx, "run migrations", logger, func(ctx context.Context) error {
		if _, err := pool.Exec(ctx, createMigrationsTable); err != nil {
			return fmt.Errorf("create schema_migrations table: %w", err)
		}
		for _, name := range files {
			applied, err := applyMigration(ctx, pool, migrations, name)
			if err != nil {
				return err
			}
			if applied {
				logger.Info("migration applied", slog.String("version", name))
			} else {
				logger.Debug("migration already applied", slog.String("version", name))
			}
		}
		return nil
	})
}

func upMigrations(migrations fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(migrations, ".")
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".up.sql") {
			files = append(files, path.Base(e.Name()))
		}
	}
	slices.Sort(files)
	return files, nil
}

func applyMigration(ctx context.Context, pool MigrationDB, migrations fs.FS, name string) (applied bool, err error) {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin migration %s: %w", name, err)
	}
	defer func() {
		if err != nil || !applied {
			_ = tx.Rollback(ctx)
		}
	}()

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", migrationLockKey); err != nil {
		return false, fmt.Errorf("lock for migration %s: %w", name, err)
	}

	var exists bool
	err = tx.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)", name).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check migration %s: %w", name, err)
	}
	if exists {
		return false, nil
	}

	content, err := fs.ReadFile(migrations, name)
	if err != nil {
		return false, fmt.Errorf("read migration %s: %w", name, err)
	}
	if _, err := tx.Exec(ctx, string(content)); err != nil {
		return false, fmt.Errorf("execute migration %s: %w", name, err)
	}
	if _, err := tx.Exec(ctx, "INSERT INTO schema_migrations (version) VALUES ($1)", name); err != nil {
		return false, fmt.Errorf("record migration %s: %w", name, err)
	}
	if err := tx.Commit(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return false, fmt.Errorf("commit migration %s: %w", name, err)
	}
	return true, nil
}
