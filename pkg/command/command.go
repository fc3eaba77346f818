// Package command is an explicit in-process command bus. Handlers are
// registered by command name at startup; every dispatch runs through the same
// ordered decorator chain.
package command

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	// ErrNoHandler is returned when a command has no registered handler.
	ErrNoHandler = errors.New("command: no handler registered")
	// ErrDuplicateHandler is returned when a name is registered twice.
	ErrDuplicateHandler = errors.New("command: handler already registered")
	// ErrUnexpectedType is returned by typed adapters fed the wrong command or result type.
	ErrUnexpectedType = errors.New("command: unexpected type")
)

// Command is a request to change state. Name identifies its handler.
type Command interface {
	CommandName() string
}

// Handler executes one kind of command.
type Handler interface {
	Handle(ctx context.Context, cmd Command) (any, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, cmd Command) (any, error)

func (f HandlerFunc) Handle(ctx context.Context, cmd Command) (any, error) { return f(ctx, cmd) }

// Middleware decorates a handler.
type Middleware func(next Handler) Handler

// Dispatcher routes commands to their handlers.
type Dispatcher struct {
	mu         sync.RWMutex
	handlers   map[string]Handler
	middleware []Middleware
}

// NewDispatcher creates a dispatcher. The first middleware is the outermost.
func NewDispatcher(mw ...Middleware) *Dispatcher {
	return &Dispatcher{handlers: make(map[string]Handler), middleware: mw}
}

// Register binds name to h wrapped in the dispatcher's middleware chain.
func (d *Dispatcher) Register(name string, h Handler) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.handlers[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateHandler, name)
	}
	for i := len(d.middleware) - 1; i >= 0; i-- {
		h = d.middleware[i](h)
	}
	d.handlers[name] = h
	return nil
}

// MustRegister is Register for startup wiring; it panics on duplicates.
func (d *Dispatcher) MustRegister(name string, h Handler) {
	if err := d.Register(name, h); err != nil {
		panic(err)
	}
}

// Dispatch runs the handler registered for cmd.
func (d *Dispatcher) Dispatch(ctx context.Context, cmd Command) (any, error) {
	d.mu.RLock()
	h, ok := d.handlers[cmd.CommandName()]
	d.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoHandler, cmd.CommandName())
	}
	return h.Handle(ctx, cmd)
}

// Names lists registered command names in sorted order.
func (d *Dispatcher) Names() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	names := make([]string, 0, len(d.handlers))
	for n := range d.handlers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Handle adapts a typed function into a Handler.
func Handle[C Command, R any](fn func(ctx context.Context, cmd C) (R, error)) Handler {
	return HandlerFunc(func(ctx context.Context, cmd Command) (any, error) {
		typed, ok := cmd.(C)
		if !ok {
			return nil, fmt.Errorf("%w: %T", ErrUnexpectedType, cmd)
		}
		return fn(ctx, typed)
	})
}

// Register binds a typed handler under the command's own name.
func Register[C Command, R any](d *Dispatcher, fn func(ctx context.Context, cmd C) (R, error)) {
	var zero C
	d.MustRegister(zero.CommandName(), Handle(fn))
}

// Send dispatches cmd and asserts the result type.
func Send[R any](ctx context.Context, d *Dispatcher, cmd Command) (R, error) {
	var zero R
	res, err := d.Dispatch(ctx, cmd)
	if err != nil {
		return zero, err
	}
	if res == nil {
		return zero, nil
	}
	typed, ok := res.(R)
	if !ok {
		return zero, fmt.Errorf("%w: result %T", ErrUnexpectedType, res)
	}
	return typed, nil
}

// Empty is the result type of commands that return nothing.
type Empty struct{}
