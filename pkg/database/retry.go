package database

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// backoff retries startup work: attempt n waits base<<n, give or take jitter.
type backoff struct {
	attempts int
	base     time.Duration
	jitter   float64
}

var startupBackoff = backoff{attempts: 3, base: time.Second, jitter: 0.25}

func (b backoff) wait(attempt int) time.Duration {
	d := b.base << max(attempt, 0)
	return d + time.Duration(float64(d)*b.jitter*(2*rand.Float64()-1)) // #nosec G404 -- retry jitter
}

// retry runs op until it succeeds, fails with an error transient rejects or
// runs out of attempts.
func (b backoff) retry(ctx context.Context, what string, logger *slog.Logger, op func(context.Context) error) error {
	var err error
	for attempt := range b.attempts {
		if err = op(ctx); err == nil || !isTransient(err) {
			return err
		}
		if attempt == b.attempts-1 {
			break
		}
		wait := b.wait(attempt)
		if logger != nil {
			logger.WarnContext(ctx, what+" failed, retrying",
				slog.Int("attempt", attempt+1),
				slog.Int("max_attempts", b.attempts),
				slog.Duration("backoff", wait),
				slog.String("error", err.Error()),
			)
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%s: %w", what, ctx.Err())
		case <-time.After(wait):
		}
	}
	return fmt.Errorf("%s after %d attempts: %w", what, b.attempts, err)
}

// Messages from a refused or dropped connection that reach us as plain
// strings, e.g. through pgxmock.
var transientMessages = []string{
	"connection refused",
	"connection reset",
	"broken pipe",
	"no such host",
	"i/o timeout",
	"server closed the connection unexpectedly",
	"could not connect",
	"the database system is starting up",
}

// isTransient reports whether err is a connectivity problem worth retrying
// rather than a statement the server rejected.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// 57P03: cannot_connect_now, class 08: connection exceptions.
		return pgErr.Code == "57P03" || strings.HasPrefix(pgErr.Code, "08")
	}
	var connErr *pgconn.ConnectError
	var netErr net.Error
	if errors.As(err, &connErr) || errors.As(err, &netErr) ||
		errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	msg := err.Error()
	for _, m := range transientMessages {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}
