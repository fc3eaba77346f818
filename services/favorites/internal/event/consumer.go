package event

import (
	"context"
	"log/slog"

	apperrors "github.com/TomWia9/HoppyHub-sub002/pkg/errors"
	"github.com/TomWia9/HoppyHub-sub002/pkg/events"
	pkgkafka "github.com/TomWia9/HoppyHub-sub002/pkg/kafka"
)

// Projections is what the favorites service does with events from the beers
// and users services.
type Projections interface {
	ApplyBeerCreated(ctx context.Context, e events.BeerCreated) error
	ApplyBeerUpdated(ctx context.Context, e events.BeerUpdated) error
	ApplyBeerDeleted(ctx context.Context, e events.BeerDeleted) error
	ApplyBreweryUpdated(ctx context.Context, e events.BreweryUpdated) error
	ApplyBreweryDeleted(ctx context.Context, e events.BreweryDeleted) error
	UpsertUser(ctx context.Context, e events.UserCreated) error
	RenameUser(ctx context.Context, e events.UserUpdated) error
	DeleteUser(ctx context.Context, e events.UserDeleted) error
}

// ConsumedTypes lists the event types the favorites service subscribes to.
var ConsumedTypes = []string{
	events.TypeBeerCreated,
	events.TypeBeerUpdated,
	events.TypeBeerDeleted,
	events.TypeBreweryUpdated,
	events.TypeBreweryDeleted,
	events.TypeUserCreated,
	events.TypeUserUpdated,
	events.TypeUserDeleted,
}

// NewRouter routes consumed events to p. A rename of a user that was never
// created is not retried.
func NewRouter(p Projections, logger *slog.Logger) *pkgkafka.Router {
	return pkgkafka.NewRouter(logger).
		On(events.TypeBeerCreated, events.Handle(p.ApplyBeerCreated)).
		On(events.TypeBeerUpdated, events.Handle(p.ApplyBeerUpdated)).
		On(events.TypeBeerDeleted, events.Handle(p.ApplyBeerDeleted)).
		On(events.TypeBreweryUpdated, events.Handle(p.ApplyBreweryUpdated)).
		On(events.TypeBreweryDeleted, events.Handle(p.ApplyBreweryDeleted)).
		On(events.TypeUserCreated, events.Handle(p.UpsertUser)).
		On(events.TypeUserUpdated,
			pkgkafka.PermanentWhen(apperrors.ErrNotFound, events.Handle(p.RenameUser))).
		On(events.TypeUserDeleted, events.Handle(p.DeleteUser))
}
