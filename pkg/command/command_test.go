package command

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/TomWia9/HoppyHub-sub002/pkg/errors"
)

type createBrewery struct {
	Name string `json:"name" validate:"required,max=200"`
}

func (createBrewery) CommandName() string { return "CreateBrewery" }

type deleteBrewery struct {
	ID string `json:"id" validate:"required"`
}

func (deleteBrewery) CommandName() string { return "DeleteBrewery" }

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestDispatcher_DispatchesToRegisteredHandler(t *testing.T) {
	d := NewDispatcher()
	Register(d, func(_ context.Context, cmd createBrewery) (string, error) {
		return "id-for-" + cmd.Name, nil
	})

	id, err := Send[string](context.Background(), d, createBrewery{Name: "Pinta"})
	require.NoError(t, err)
	assert.Equal(t, "id-for-Pinta", id)
}

func TestDispatcher_UnknownCommand(t *testing.T) {
	d := NewDispatcher()
	_, err := d.Dispatch(context.Background(), deleteBrewery{ID: "x"})
	assert.ErrorIs(t, err, ErrNoHandler)
}

func TestDispatcher_DuplicateRegistration(t *testing.T) {
	d := NewDispatcher()
	h := HandlerFunc(func(context.Context, Command) (any, error) { return nil, nil })
	require.NoError(t, d.Register("CreateBrewery", h))
	assert.ErrorIs(t, d.Register("CreateBrewery", h), ErrDuplicateHandler)
	assert.Panics(t, func() { d.MustRegister("CreateBrewery", h) })
}

func TestDispatcher_MiddlewareOrder(t *testing.T) {
	var trace []string
	mw := func(name string) Middleware {
		return func(next Handler) Handler {
			return HandlerFunc(func(ctx context.Context, cmd Command) (any, error) {
				trace = append(trace, name+">")
				res, err := next.Handle(ctx, cmd)
				trace = append(trace, "<"+name)
				return res, err
			})
		}
	}
	d := NewDispatcher(mw("outer"), mw("inner"))
	Register(d, func(context.Context, deleteBrewery) (Empty, error) {
		trace = append(trace, "handler")
		return Empty{}, nil
	})

	_, err := d.Dispatch(context.Background(), deleteBrewery{ID: "b"})
	require.NoError(t, err)
	assert.Equal(t, []string{"outer>", "inner>", "handler", "<inner", "<outer"}, trace)
}

func TestSend_WrongResultType(t *testing.T) {
	d := NewDispatcher()
	Register(d, func(context.Context, createBrewery) (int, error) { return 1, nil })

	_, err := Send[string](context.Background(), d, createBrewery{Name: "x"})
	assert.ErrorIs(t, err, ErrUnexpectedType)
}

func TestHandle_WrongCommandType(t *testing.T) {
	h := Handle(func(context.Context, createBrewery) (Empty, error) { return Empty{}, nil })
	_, err := h.Handle(context.Background(), deleteBrewery{})
	assert.ErrorIs(t, err, ErrUnexpectedType)
}

func TestValidation_RejectsBeforeHandler(t *testing.T) {
	called := false
	d := NewDispatcher(Validation())
	Register(d, func(context.Context, createBrewery) (Empty, error) {
		called = true
		return Empty{}, nil
	})

	_, err := d.Dispatch(context.Background(), createBrewery{})

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "VALIDATION_FAILED", appErr.Code)
	assert.Equal(t, "is required", appErr.Fields["name"])
	assert.False(t, called)
}

func TestLogging_LogsFailures(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(slog.NewJSONHandler(&buf, nil))
	d := NewDispatcher(Logging(l))
	Register(d, func(context.Context, deleteBrewery) (Empty, error) {
		return Empty{}, apperrors.NotFound("brewery", "b1")
	})

	_, err := d.Dispatch(context.Background(), deleteBrewery{ID: "b1"})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Contains(t, buf.String(), `"command":"DeleteBrewery"`)
	assert.Contains(t, buf.String(), "command failed")
}

func TestPerformance_RecordsDurationAndWarnsWhenSlow(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(slog.NewJSONHandler(&buf, nil))
	d := NewDispatcher(Performance(time.Nanosecond, l))
	Register(d, func(context.Context, deleteBrewery) (Empty, error) {
		time.Sleep(time.Millisecond)
		return Empty{}, errors.New("boom")
	})

	_, _ = d.Dispatch(context.Background(), deleteBrewery{ID: "b"})

	assert.Contains(t, buf.String(), "slow command")
	assert.GreaterOrEqual(t, histogramCount(t, "DeleteBrewery", "error"), uint64(1))
}

func TestStandard_ChainOrder(t *testing.T) {
	chain := Standard(discard(), time.Second)
	assert.Len(t, chain, 3)

	d := NewDispatcher(chain...)
	Register(d, func(_ context.Context, c createBrewery) (string, error) { return c.Name, nil })
	names, err := Send[string](context.Background(), d, createBrewery{Name: "Pinta"})
	require.NoError(t, err)
	assert.Equal(t, "Pinta", names)
	assert.Equal(t, []string{"CreateBrewery"}, d.Names())
}

func histogramCount(t *testing.T, command, outcome string) uint64 {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	for _, fam := range families {
		if fam.GetName() != "hoppyhub_command_duration_seconds" {
			continue
		}
		for _, m := range fam.GetMetric() {
			labels := map[string]string{}
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			if labels["command"] == command && labels["outcome"] == outcome {
				return m.GetHistogram().GetSampleCount()
			}
		}
	}
	return 0
}
