package kafka

import (
	"context"
	"log/slog"
	"sort"
)

// Router dispatches events to handlers keyed by event type. It is itself a
// Handler, so one router can serve every topic a service subscribes to.
type Router struct {
	handlers map[string]Handler
	logger   *slog.Logger
}

// NewRouter creates an empty router.
func NewRouter(logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{handlers: make(map[string]Handler), logger: logger}
}

// On registers h for eventType, replacing any earlier registration.
func (r *Router) On(eventType string, h Handler) *Router {
	r.handlers[eventType] = h
	return r
}

// Handle runs the handler registered for the event type. Unknown types are
// logged and acknowledged.
func (r *Router) Handle(ctx context.Context, event *Event) error {
	h, ok := r.handlers[event.EventType]
	if !ok {
		r.logger.DebugContext(ctx, "no handler for event type, skipping",
			slog.String("event_type", event.EventType),
			slog.String("event_id", event.EventID),
		)
		return nil
	}
	return h(ctx, event)
}

// EventTypes lists the registered event types in sorted order.
func (r *Router) EventTypes() []string {
	types := make([]string, 0, len(r.handlers))
	for t := range r.handlers {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
