// Package uow runs a service's local unit of work: one database transaction,
// optional side effects on external stores with compensating actions, and
// domain events that are published only once the transaction has committed.
package uow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/TomWia9/HoppyHub-sub002/pkg/database"
	"github.com/TomWia9/HoppyHub-sub002/pkg/events"
	"github.com/TomWia9/HoppyHub-sub002/pkg/kafka"
	"github.com/TomWia9/HoppyHub-sub002/pkg/logger"
)

// Compensation undoes an external side effect after the transaction failed.
type Compensation func(ctx context.Context) error

type outgoing struct {
	topic string
	event *kafka.Event
}

// Scope is handed to the unit-of-work body. It is not safe for concurrent use.
type Scope struct {
	tx            pgx.Tx
	source        string
	compensations []Compensation
	cleanups      []Compensation
	outbox        []outgoing
}

// Tx returns the open transaction for repositories to run against.
func (s *Scope) Tx() pgx.Tx { return s.tx }

// OnRollback registers fn to run if the unit of work does not commit.
// Compensations run in reverse registration order.
func (s *Scope) OnRollback(fn Compensation) {
	s.compensations = append(s.compensations, fn)
}

// OnCommit registers fn to run once the transaction has committed, after the
// queued events are published. It is meant for removing external state the
// committed rows no longer reference; failures are logged, never returned.
func (s *Scope) OnCommit(fn Compensation) {
	s.cleanups = append(s.cleanups, fn)
}

// Publish queues an already built envelope for delivery after commit.
func (s *Scope) Publish(topic string, evt *kafka.Event) {
	s.outbox = append(s.outbox, outgoing{topic: topic, event: evt})
}

// Emit builds an envelope for payload with the executor's source, carrying the
// request correlation id, and queues it for delivery after commit.
func (s *Scope) Emit(ctx context.Context, payload events.Contract) error {
	topic, evt, err := events.New(s.source, payload)
	if err != nil {
		return err
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		evt.WithCorrelationID(id)
	}
	s.Publish(topic, evt)
	return nil
}

// Pending returns the number of queued events.
func (s *Scope) Pending() int { return len(s.outbox) }

// Executor runs units of work against one database and one publisher.
type Executor struct {
	db        database.TxBeginner
	publisher kafka.Publisher
	source    string
	logger    *slog.Logger
}

// New creates an Executor. source is stamped on every event built with Emit.
func New(db database.TxBeginner, publisher kafka.Publisher, source string, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{db: db, publisher: publisher, source: source, logger: logger}
}

// Execute runs fn inside a transaction.
//
// If fn fails, panics, or the context is cancelled before commit, the
// transaction is rolled back, registered compensations run, and fn's error
// (or the context error) is returned. A failed commit also runs
// compensations. After a successful commit the queued events are published in
// order; a publish failure is logged and counted but never turns a committed
// unit of work into an error.
func (e *Executor) Execute(ctx context.Context, name string, fn func(ctx context.Context, s *Scope) error) (err error) {
	start := time.Now()
	log := logger.WithContext(ctx, e.logger).With(slog.String("unit_of_work", name))

	tx, err := e.db.Begin(ctx)
	if err != nil {
		UnitOfWorkTotal.WithLabelValues(name, outcomeRolledBack).Inc()
		return fmt.Errorf("%s: begin transaction: %w", name, err)
	}

	scope := &Scope{tx: tx, source: e.source}
	committed := false

	defer func() {
		if r := recover(); r != nil {
			e.abort(ctx, log, name, scope, fmt.Errorf("panic: %v", r))
			panic(r)
		}
		if !committed {
			return
		}
		UnitOfWorkDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	}()

	if err = fn(ctx, scope); err != nil {
		e.abort(ctx, log, name, scope, err)
		return err
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		e.abort(ctx, log, name, scope, ctxErr)
		return ctxErr
	}

	if err = tx.Commit(ctx); err != nil {
		// The driver has already discarded the transaction; only the
		// external side effects are left to undo.
		UnitOfWorkTotal.WithLabelValues(name, outcomeRolledBack).Inc()
		e.compensate(ctx, log, name, scope)
		log.Error("commit failed", slog.String("error", err.Error()))
		return fmt.Errorf("%s: commit: %w", name, err)
	}
	committed = true
	UnitOfWorkTotal.WithLabelValues(name, outcomeCommitted).Inc()

	e.flush(ctx, log, name, scope)
	e.cleanup(ctx, log, name, scope)
	return nil
}

func (e *Executor) abort(ctx context.Context, log *slog.Logger, name string, scope *Scope, cause error) {
	UnitOfWorkTotal.WithLabelValues(name, outcomeRolledBack).Inc()

	rbCtx := context.WithoutCancel(ctx)
	if rbErr := scope.tx.Rollback(rbCtx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
		log.Error("rollback failed", slog.String("error", rbErr.Error()))
	}
	e.compensate(ctx, log, name, scope)

	log.Warn("unit of work rolled back",
		slog.String("error", cause.Error()),
		slog.Int("discarded_events", len(scope.outbox)),
	)
}

func (e *Executor) compensate(ctx context.Context, log *slog.Logger, name string, scope *Scope) {
	cctx := context.WithoutCancel(ctx)
	for i := len(scope.compensations) - 1; i >= 0; i-- {
		if err := scope.compensations[i](cctx); err != nil {
			CompensationFailures.WithLabelValues(name).Inc()
			log.Error("compensation failed", slog.Int("step", i), slog.String("error", err.Error()))
		}
	}
}

func (e *Executor) cleanup(ctx context.Context, log *slog.Logger, name string, scope *Scope) {
	cctx := context.WithoutCancel(ctx)
	for i, fn := range scope.cleanups {
		if err := fn(cctx); err != nil {
			CleanupFailures.WithLabelValues(name).Inc()
			log.Warn("post-commit cleanup failed", slog.Int("step", i), slog.String("error", err.Error()))
		}
	}
}

func (e *Executor) flush(ctx context.Context, log *slog.Logger, name string, scope *Scope) {
	if len(scope.outbox) == 0 {
		return
	}
	pctx := context.WithoutCancel(ctx)
	for _, out := range scope.outbox {
		if err := e.publisher.Publish(pctx, out.topic, out.event); err != nil {
			PublishFailures.WithLabelValues(name, out.topic).Inc()
			log.Error("event publish failed after commit",
				slog.String("topic", out.topic),
				slog.String("event_type", out.event.EventType),
				slog.String("event_id", out.event.EventID),
				slog.String("aggregate_id", out.event.AggregateID),
				slog.String("error", err.Error()),
			)
		}
	}
}
