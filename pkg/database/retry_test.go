package database

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackoff_WaitStaysWithinJitter(t *testing.T) {
	b := backoff{attempts: 3, base: time.Second, jitter: 0.25}
	for attempt, base := range []time.Duration{time.Second, 2 * time.Second, 4 * time.Second} {
		for range 20 {
			d := b.wait(attempt)
			assert.GreaterOrEqual(t, d, base*3/4)
			assert.LessOrEqual(t, d, base*5/4)
		}
	}
	assert.Equal(t, time.Second, backoff{base: time.Second}.wait(-1))
}

func TestBackoff_Retry(t *testing.T) {
	fast := backoff{attempts: 3, base: time.Millisecond}
	refused := errors.New("dial tcp 127.0.0.1:5432: connect: connection refused")

	tests := []struct {
		name      string
		errs      []error
		wantCalls int
		wantErr   string
	}{
		{"first try", []error{nil}, 1, ""},
		{"recovers", []error{refused, refused, nil}, 3, ""},
		{"gives up", []error{refused, refused, refused}, 3, "connect after 3 attempts"},
		{"sql error is final", []error{errors.New(`relation "beers" does not exist`)}, 1, "does not exist"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			calls := 0
			err := fast.retry(context.Background(), "connect", quietLogger(), func(context.Context) error {
				err := tc.errs[calls]
				calls++
				return err
			})
			assert.Equal(t, tc.wantCalls, calls)
			if tc.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tc.wantErr)
			}
		})
	}
}

func TestBackoff_RetryStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	slow := backoff{attempts: 3, base: time.Hour}
	err := slow.retry(ctx, "connect", nil, func(context.Context) error {
		cancel()
		return io.EOF
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{io.EOF, true},
		{fmt.Errorf("read: %w", io.ErrUnexpectedEOF), true},
		{&net.OpError{Op: "dial", Err: errors.New("refused")}, true},
		{&pgconn.PgError{Code: "57P03"}, true},
		{&pgconn.PgError{Code: "08006"}, true},
		{&pgconn.PgError{Code: "23505"}, false},
		{&pgconn.PgError{Code: "42601"}, false},
		{errors.New("server closed the connection unexpectedly"), true},
		{errors.New("syntax error at or near \"FROM\""), false},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, isTransient(tc.err), "%v", tc.err)
	}
}

func TestConfigs(t *testing.T) {
	pg := PostgresConfig{Host: "db", Port: 5432, User: "hoppy", Password: "p@ss/word", DBName: "beers", SSLMode: "disable"}
	assert.Equal(t, "postgres://hoppy:p%40ss%2Fword@db:5432/beers?sslmode=disable", pg.DSN())

	assert.Equal(t, "[::1]:6379", RedisConfig{Host: "::1", Port: 6379}.Addr())
}

func TestConnectPostgres_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	_, err := ConnectPostgres(ctx, PostgresConfig{Host: "127.0.0.1", Port: 1, User: "u", DBName: "d", SSLMode: "disable"}, nil)
	require.Error(t, err)
}
