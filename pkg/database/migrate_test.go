package database

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"testing/fstest"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func expectMigrationCheck(mock pgxmock.PgxPoolIface, name string, applied bool) {
	mock.ExpectBegin()
	mock.ExpectExec("SELECT pg_advisory_xact_lock").WithArgs(migrationLockKey).
		WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mock.ExpectQuery("SELECT EXISTS").WithArgs(name).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(applied))
}

func TestRunMigrations_AppliesPendingInOrder(t *testing.T) {
	mock, err := NewMockPool()
	require.NoError(t, err)
	defer mock.Close()

	migrations := fstest.MapFS{
		"002_beers.up.sql":       {Data: []byte("CREATE TABLE beers (id UUID PRIMARY KEY)")},
		"001_breweries.up.sql":   {Data: []byte("CREATE TABLE breweries (id UUID PRIMARY KEY)")},
		"001_breweries.down.sql": {Data: []byte("DROP TABLE breweries")},
		"seed/003_demo.up.sql":   {Data: []byte("INSERT INTO beers VALUES (gen_random_uuid())")},
	}

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").WillReturnResult(pgxmock.NewResult("CREATE", 0))

	expectMigrationCheck(mock, "001_breweries.up.sql", true)
	mock.ExpectRollback()

	expectMigrationCheck(mock, "002_beers.up.sql", false)
	mock.ExpectExec("CREATE TABLE beers").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectExec("INSERT INTO schema_migrations").WithArgs("002_beers.up.sql").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	require.NoError(t, RunMigrations(context.Background(), mock, migrations, quietLogger()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunMigrations_SQLErrorRollsBackAndStops(t *testing.T) {
	mock, err := NewMockPool()
	require.NoError(t, err)
	defer mock.Close()

	migrations := fstest.MapFS{
		"001_broken.up.sql": {Data: []byte("CREATE TABLE")},
		"002_never.up.sql":  {Data: []byte("CREATE TABLE never (id INT)")},
	}

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	expectMigrationCheck(mock, "001_broken.up.sql", false)
	mock.ExpectExec("CREATE TABLE").WillReturnError(errors.New("syntax error at end of input"))
	mock.ExpectRollback()

	err = RunMigrations(context.Background(), mock, migrations, quietLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "001_broken.up.sql")
	assert.NotContains(t, err.Error(), "attempts", "SQL errors are not retried")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunMigrations_EmptyDirOnlyEnsuresTable(t *testing.T) {
	mock, err := NewMockPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, RunMigrations(context.Background(), mock, fstest.MapFS{}, quietLogger()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpMigrations(t *testing.T) {
	files, err := upMigrations(fstest.MapFS{
		"010_z.up.sql":   {},
		"002_a.up.sql":   {},
		"002_a.down.sql": {},
		"README.md":      {},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"002_a.up.sql", "010_z.up.sql"}, files)
}
