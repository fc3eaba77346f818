package service

import (
	"context"
	"log/slog"

	"github.com/TomWia9/HoppyHub-sub002/pkg/events"
	"github.com/TomWia9/HoppyHub-sub002/pkg/shadow"
	"github.com/TomWia9/HoppyHub-sub002/pkg/uow"
	"github.com/TomWia9/HoppyHub-sub002/services/favorites/internal/domain"
	"github.com/TomWia9/HoppyHub-sub002/services/favorites/internal/repository"
)

// AddFavorite stores the favorite and recounts the beer's favorites in the
// same transaction.
func (s *Service) AddFavorite(ctx context.Context, cmd AddFavorite) (*domain.Favorite, error) {
	favorite := &domain.Favorite{
		ID:        domain.NewID(),
		BeerID:    cmd.BeerID,
		UserID:    cmd.Actor.UserID,
		CreatedAt: s.now(),
	}

	var count int
	err := s.uow.Execute(ctx, cmd.CommandName(), func(ctx context.Context, sc *uow.Scope) error {
		repos := s.repos(sc.Tx())
		if _, err := shadow.Live(ctx, repos.Users, cmd.Actor.UserID); err != nil {
			return err
		}
		beer, err := repos.Beers.Lock(ctx, cmd.BeerID)
		if err != nil {
			return err
		}
		favorite.BeerName = beer.Name
		if err := repos.Favorites.Create(ctx, favorite); err != nil {
			return err
		}
		count, err = s.recount(ctx, sc, repos, beer.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "favorite added",
		slog.String("beer_id", favorite.BeerID),
		slog.String("user_id", favorite.UserID),
		slog.Int("favorites_count", count),
	)
	return favorite, nil
}

// RemoveFavorite deletes the actor's favorite of a beer and recounts.
func (s *Service) RemoveFavorite(ctx context.Context, cmd RemoveFavorite) (struct{}, error) {
	var count int
	err := s.uow.Execute(ctx, cmd.CommandName(), func(ctx context.Context, sc *uow.Scope) error {
		repos := s.repos(sc.Tx())
		if _, err := repos.Beers.Lock(ctx, cmd.BeerID); err != nil {
			return err
		}
		if err := repos.Favorites.Delete(ctx, cmd.Actor.UserID, cmd.BeerID); err != nil {
			return err
		}
		var err error
		count, err = s.recount(ctx, sc, repos, cmd.BeerID)
		return err
	})
	if err != nil {
		return struct{}{}, err
	}

	s.logger.InfoContext(ctx, "favorite removed",
		slog.String("beer_id", cmd.BeerID),
		slog.String("user_id", cmd.Actor.UserID),
		slog.Int("favorites_count", count),
	)
	return struct{}{}, nil
}

// recount stores the number of favorites of a beer and queues
// BeerFavoritesCountChanged with it. The caller holds the beer's row lock.
func (s *Service) recount(ctx context.Context, sc *uow.Scope, repos repository.Set, beerID string) (int, error) {
	count, err := repos.Favorites.Count(ctx, beerID)
	if err != nil {
		return 0, err
	}
	if err := repos.Beers.SetFavoritesCount(ctx, beerID, count); err != nil {
		return 0, err
	}
	return count, sc.Emit(ctx, events.BeerFavoritesCountChanged{BeerID: beerID, FavoritesCount: count})
}
