package event

import (
	"context"
	"log/slog"

	apperrors "github.com/TomWia9/HoppyHub-sub002/pkg/errors"
	"github.com/TomWia9/HoppyHub-sub002/pkg/events"
	pkgkafka "github.com/TomWia9/HoppyHub-sub002/pkg/kafka"
)

// Projections is what the beers service does with events from the opinions,
// favorites and users services.
type Projections interface {
	ApplyOpinionChanged(ctx context.Context, e events.BeerOpinionChanged) error
	ApplyFavoritesCountChanged(ctx context.Context, e events.BeerFavoritesCountChanged) error
	UpsertUser(ctx context.Context, e events.UserCreated) error
	RenameUser(ctx context.Context, e events.UserUpdated) error
	DeleteUser(ctx context.Context, e events.UserDeleted) error
}

// ConsumedTypes lists the event types the beers service subscribes to.
var ConsumedTypes = []string{
	events.TypeBeerOpinionChanged,
	events.TypeBeerFavoritesCountChanged,
	events.TypeUserCreated,
	events.TypeUserUpdated,
	events.TypeUserDeleted,
}

// NewRouter routes consumed events to p. A favorites count for a beer or a
// rename for a user that does not exist here will never apply, so those are
// not retried.
func NewRouter(p Projections, logger *slog.Logger) *pkgkafka.Router {
	return pkgkafka.NewRouter(logger).
		On(events.TypeBeerOpinionChanged, events.Handle(p.ApplyOpinionChanged)).
		On(events.TypeBeerFavoritesCountChanged,
			pkgkafka.PermanentWhen(apperrors.ErrNotFound, events.Handle(p.ApplyFavoritesCountChanged))).
		On(events.TypeUserCreated, events.Handle(p.UpsertUser)).
		On(events.TypeUserUpdated,
			pkgkafka.PermanentWhen(apperrors.ErrNotFound, events.Handle(p.RenameUser))).
		On(events.TypeUserDeleted, events.Handle(p.DeleteUser))
}
