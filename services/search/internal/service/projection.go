package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/TomWia9/HoppyHub-sub002/pkg/events"
	"github.com/TomWia9/HoppyHub-sub002/services/search/internal/domain"
)

// The Apply methods turn events into partial document updates. Every update
// carries absolute values, so redelivery is harmless and updates from
// different services never overwrite each other's fields.

// ApplyBeerCreated describes a new beer.
func (s *SearchService) ApplyBeerCreated(ctx context.Context, e events.BeerCreated) error {
	return s.describe(ctx, e.ID, e.Name, e.BreweryID, e.BreweryName)
}

// ApplyBeerUpdated re-describes a beer, also after a brewery rename.
func (s *SearchService) ApplyBeerUpdated(ctx context.Context, e events.BeerUpdated) error {
	return s.describe(ctx, e.ID, e.Name, e.BreweryID, e.BreweryName)
}

func (s *SearchService) describe(ctx context.Context, id, name, breweryID, breweryName string) error {
	err := s.engine.Patch(ctx, id, &domain.Patch{
		Name:        &name,
		BreweryID:   &breweryID,
		BreweryName: &breweryName,
		UpdatedAt:   s.now(),
	})
	if err != nil {
		return fmt.Errorf("describe beer %s: %w", id, err)
	}
	s.logger.InfoContext(ctx, "beer indexed", slog.String("beer_id", id), slog.String("name", name))
	return nil
}

// ApplyBeerDeleted drops the beer's document.
func (s *SearchService) ApplyBeerDeleted(ctx context.Context, e events.BeerDeleted) error {
	if err := s.engine.Delete(ctx, e.ID); err != nil {
		return fmt.Errorf("remove beer %s: %w", e.ID, err)
	}
	s.logger.InfoContext(ctx, "beer removed from index", slog.String("beer_id", e.ID))
	return nil
}

// ApplyBreweryDeleted drops the documents of every beer of the brewery.
func (s *SearchService) ApplyBreweryDeleted(ctx context.Context, e events.BreweryDeleted) error {
	n, err := s.engine.DeleteByBrewery(ctx, e.ID)
	if err != nil {
		return fmt.Errorf("remove beers of brewery %s: %w", e.ID, err)
	}
	s.logger.InfoContext(ctx, "brewery removed from index",
		slog.String("brewery_id", e.ID),
		slog.Int("beers", n),
	)
	return nil
}

// ApplyBeerOpinionChanged overwrites the rating and opinions count.
func (s *SearchService) ApplyBeerOpinionChanged(ctx context.Context, e events.BeerOpinionChanged) error {
	err := s.engine.Patch(ctx, e.BeerID, &domain.Patch{
		Rating:        &e.NewBeerRating,
		OpinionsCount: &e.OpinionsCount,
		UpdatedAt:     s.now(),
	})
	if err != nil {
		return fmt.Errorf("update opinions of beer %s: %w", e.BeerID, err)
	}
	return nil
}

// ApplyBeerFavoritesCountChanged overwrites the favorites count.
func (s *SearchService) ApplyBeerFavoritesCountChanged(ctx context.Context, e events.BeerFavoritesCountChanged) error {
	err := s.engine.Patch(ctx, e.BeerID, &domain.Patch{
		FavoritesCount: &e.FavoritesCount,
		UpdatedAt:      s.now(),
	})
	if err != nil {
		return fmt.Errorf("update favorites of beer %s: %w", e.BeerID, err)
	}
	return nil
}
