package command

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/TomWia9/HoppyHub-sub002/pkg/logger"
	"github.com/TomWia9/HoppyHub-sub002/pkg/validator"
)

// CommandDuration observes handler latency by command and outcome.
var CommandDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "hoppyhub_command_duration_seconds",
		Help:    "Duration of command handling in seconds",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"command", "outcome"},
)

// Logging logs every command at debug level and failures at warn.
func Logging(l *slog.Logger) Middleware {
	return func(next Handler) Handler {
		return HandlerFunc(func(ctx context.Context, cmd Command) (any, error) {
			log := logger.WithContext(ctx, l).With(slog.String("command", cmd.CommandName()))
			log.DebugContext(ctx, "handling command")
			res, err := next.Handle(ctx, cmd)
			if err != nil {
				log.WarnContext(ctx, "command failed", slog.String("error", err.Error()))
				return nil, err
			}
			log.DebugContext(ctx, "command handled")
			return res, nil
		})
	}
}

// Validation rejects commands whose validate tags fail with a 400
// VALIDATION_FAILED error before the handler runs.
func Validation() Middleware {
	return func(next Handler) Handler {
		return HandlerFunc(func(ctx context.Context, cmd Command) (any, error) {
			if err := validator.Validate(cmd); err != nil {
				return nil, validator.AsAppError(err)
			}
			return next.Handle(ctx, cmd)
		})
	}
}

// Performance records CommandDuration and warns about commands slower than
// threshold. A zero threshold disables the warning.
func Performance(threshold time.Duration, l *slog.Logger) Middleware {
	return func(next Handler) Handler {
		return HandlerFunc(func(ctx context.Context, cmd Command) (any, error) {
			start := time.Now()
			res, err := next.Handle(ctx, cmd)
			elapsed := time.Since(start)

			outcome := "ok"
			if err != nil {
				outcome = "error"
			}
			CommandDuration.WithLabelValues(cmd.CommandName(), outcome).Observe(elapsed.Seconds())

			if threshold > 0 && elapsed > threshold {
				logger.WithContext(ctx, l).WarnContext(ctx, "slow command",
					slog.String("command", cmd.CommandName()),
					slog.Duration("elapsed", elapsed),
					slog.Duration("threshold", threshold),
				)
			}
			return res, err
		})
	}
}

// Standard is the decorator chain every service uses: logging outermost, then
// validation, then timing of the handler itself.
func Standard(l *slog.Logger, slowThreshold time.Duration) []Middleware {
	return []Middleware{Logging(l), Validation(), Performance(slowThreshold, l)}
}
