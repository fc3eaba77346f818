// Package events defines the contracts HoppyHub services exchange over the
// bus: payload shapes, event type names, topics and schema versions.
//
// Every event type travels on its own topic and is keyed by its aggregate id.
// Events of one type about one aggregate arrive in publish order; there is no
// ordering across types or services.
package events

import (
	"context"
	"errors"
	"fmt"

	"github.com/TomWia9/HoppyHub-sub002/pkg/kafka"
)

// Event sources.
const (
	SourceBeers     = "beers-service"
	SourceOpinions  = "opinions-service"
	SourceFavorites = "favorites-service"
	SourceUsers     = "users-service"
	SourceImages    = "images-service"
	SourceSearch    = "search-service"
)

// Aggregate types.
const (
	AggregateBeer    = "beer"
	AggregateBrewery = "brewery"
	AggregateUser    = "user"
	AggregateImage   = "image"
)

// Event types.
const (
	TypeBeerCreated               = "BeerCreated"
	TypeBeerUpdated               = "BeerUpdated"
	TypeBeerDeleted               = "BeerDeleted"
	TypeBeerOpinionChanged        = "BeerOpinionChanged"
	TypeBeerFavoritesCountChanged = "BeerFavoritesCountChanged"
	TypeBreweryUpdated            = "BreweryUpdated"
	TypeBreweryDeleted            = "BreweryDeleted"
	TypeUserCreated               = "UserCreated"
	TypeUserUpdated               = "UserUpdated"
	TypeUserDeleted               = "UserDeleted"
	TypeImageUploaded             = "ImageUploaded"
	TypeImageDeleted              = "ImageDeleted"
	TypeImagesDeleted             = "ImagesDeleted"
)

// ErrUnsupportedVersion is returned by Decode for a payload newer than this
// build understands.
var ErrUnsupportedVersion = errors.New("unsupported event version")

// ErrTypeMismatch is returned by Decode when the envelope carries a different
// event type than the one requested.
var ErrTypeMismatch = errors.New("event type mismatch")

type descriptor struct {
	topic     string
	aggregate string
	version   int
}

var registry = map[string]descriptor{
	TypeBeerCreated:               {kafka.Topic("beer", "created"), AggregateBeer, 1},
	TypeBeerUpdated:               {kafka.Topic("beer", "updated"), AggregateBeer, 1},
	TypeBeerDeleted:               {kafka.Topic("beer", "deleted"), AggregateBeer, 1},
	TypeBeerOpinionChanged:        {kafka.Topic("beer", "opinion_changed"), AggregateBeer, 1},
	TypeBeerFavoritesCountChanged: {kafka.Topic("beer", "favorites_count_changed"), AggregateBeer, 1},
	TypeBreweryUpdated:            {kafka.Topic("brewery", "updated"), AggregateBrewery, 1},
	TypeBreweryDeleted:            {kafka.Topic("brewery", "deleted"), AggregateBrewery, 1},
	TypeUserCreated:               {kafka.Topic("user", "created"), AggregateUser, 1},
	TypeUserUpdated:               {kafka.Topic("user", "updated"), AggregateUser, 1},
	TypeUserDeleted:               {kafka.Topic("user", "deleted"), AggregateUser, 1},
	TypeImageUploaded:             {kafka.Topic("image", "uploaded"), AggregateImage, 1},
	TypeImageDeleted:              {kafka.Topic("image", "deleted"), AggregateImage, 1},
	TypeImagesDeleted:             {kafka.Topic("image", "paths_deleted"), AggregateImage, 1},
}

// Contract is implemented by every payload type in this package.
type Contract interface {
	EventType() string
	AggregateID() string
}

// TopicFor returns the topic an event type is published on.
func TopicFor(eventType string) (string, bool) {
	d, ok := registry[eventType]
	return d.topic, ok
}

// MustTopic is TopicFor for the package's own constants; it panics on an
// unknown type.
func MustTopic(eventType string) string {
	t, ok := TopicFor(eventType)
	if !ok {
		panic("events: unknown event type " + eventType)
	}
	return t
}

// Topics maps event types to their topics, keeping order.
func Topics(eventTypes ...string) []string {
	out := make([]string, 0, len(eventTypes))
	for _, t := range eventTypes {
		out = append(out, MustTopic(t))
	}
	return out
}

// Handle adapts a typed payload handler to kafka.Handler, decoding the
// envelope with Decode first.
func Handle[T Contract](fn func(ctx context.Context, payload T) error) kafka.Handler {
	return func(ctx context.Context, evt *kafka.Event) error {
		payload, err := Decode[T](evt)
		if err != nil {
			return err
		}
		return fn(ctx, payload)
	}
}

// New wraps payload in an envelope stamped with its type, aggregate, current
// schema version and source, and returns the topic to publish it on.
func New(source string, payload Contract) (string, *kafka.Event, error) {
	d, ok := registry[payload.EventType()]
	if !ok {
		return "", nil, fmt.Errorf("events: unknown event type %q", payload.EventType())
	}
	evt, err := kafka.NewEvent(payload.EventType(), payload.AggregateID(), d.aggregate, source, payload)
	if err != nil {
		return "", nil, fmt.Errorf("build %s event: %w", payload.EventType(), err)
	}
	evt.WithVersion(d.version)
	return d.topic, evt, nil
}

// Decode unmarshals the payload of evt into T. Mismatched types, newer
// versions and malformed payloads can never succeed on retry, so they are
// returned as kafka.Permanent errors.
func Decode[T Contract](evt *kafka.Event) (T, error) {
	var payload T
	want := payload.EventType()
	if evt.EventType != want {
		return payload, kafka.Permanent(fmt.Errorf("%w: got %q, want %q", ErrTypeMismatch, evt.EventType, want))
	}
	if d := registry[want]; evt.Version > d.version {
		return payload, kafka.Permanent(fmt.Errorf("%w: %s v%d (supported v%d)", ErrUnsupportedVersion, want, evt.Version, d.version))
	}
	if err := evt.UnmarshalData(&payload); err != nil {
		return payload, kafka.Permanent(fmt.Errorf("decode %s payload: %w", want, err))
	}
	return payload, nil
}
