package event

import (
	"context"
	"log/slog"

	"github.com/TomWia9/HoppyHub-sub002/pkg/events"
	pkgkafka "github.com/TomWia9/HoppyHub-sub002/pkg/kafka"
)

// Projections is what the search service does with catalog events.
type Projections interface {
	ApplyBeerCreated(ctx context.Context, e events.BeerCreated) error
	ApplyBeerUpdated(ctx context.Context, e events.BeerUpdated) error
	ApplyBeerDeleted(ctx context.Context, e events.BeerDeleted) error
	ApplyBreweryDeleted(ctx context.Context, e events.BreweryDeleted) error
	ApplyBeerOpinionChanged(ctx context.Context, e events.BeerOpinionChanged) error
	ApplyBeerFavoritesCountChanged(ctx context.Context, e events.BeerFavoritesCountChanged) error
}

// ConsumedTypes lists the event types the search service subscribes to.
// Brewery renames arrive as one BeerUpdated per beer.
var ConsumedTypes = []string{
	events.TypeBeerCreated,
	events.TypeBeerUpdated,
	events.TypeBeerDeleted,
	events.TypeBreweryDeleted,
	events.TypeBeerOpinionChanged,
	events.TypeBeerFavoritesCountChanged,
}

// NewRouter routes consumed events to p.
func NewRouter(p Projections, logger *slog.Logger) *pkgkafka.Router {
	return pkgkafka.NewRouter(logger).
		On(events.TypeBeerCreated, events.Handle(p.ApplyBeerCreated)).
		On(events.TypeBeerUpdated, events.Handle(p.ApplyBeerUpdated)).
		On(events.TypeBeerDeleted, events.Handle(p.ApplyBeerDeleted)).
		On(events.TypeBreweryDeleted, events.Handle(p.ApplyBreweryDeleted)).
		On(events.TypeBeerOpinionChanged, events.Handle(p.ApplyBeerOpinionChanged)).
		On(events.TypeBeerFavoritesCountChanged, events.Handle(p.ApplyBeerFavoritesCountChanged))
}
