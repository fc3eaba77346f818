package service

import (
	"context"
	"log/slog"

	apperrors "github.com/TomWia9/HoppyHub-sub002/pkg/errors"
	"github.com/TomWia9/HoppyHub-sub002/pkg/events"
	"github.com/TomWia9/HoppyHub-sub002/pkg/shadow"
	"github.com/TomWia9/HoppyHub-sub002/pkg/uow"
)

// The projections below keep local copies of data owned by other services.
// They never publish events. Values are absolute, so a redelivered or
// reordered event converges on the last one applied.

// ApplyOpinionChanged stores the opinion count and rating of a beer. A beer
// deleted in the meantime is skipped.
func (s *Service) ApplyOpinionChanged(ctx context.Context, e events.BeerOpinionChanged) error {
	return s.uow.Execute(ctx, events.TypeBeerOpinionChanged, func(ctx context.Context, sc *uow.Scope) error {
		found, err := s.repos(sc.Tx()).Beers.SetOpinionStats(ctx, e.BeerID, e.NewBeerRating, e.OpinionsCount)
		if err != nil {
			return err
		}
		if !found {
			s.logger.DebugContext(ctx, "opinion stats for unknown beer ignored", slog.String("beer_id", e.BeerID))
		}
		return nil
	})
}

// ApplyFavoritesCountChanged stores the favorites count of a beer.
func (s *Service) ApplyFavoritesCountChanged(ctx context.Context, e events.BeerFavoritesCountChanged) error {
	return s.uow.Execute(ctx, events.TypeBeerFavoritesCountChanged, func(ctx context.Context, sc *uow.Scope) error {
		found, err := s.repos(sc.Tx()).Beers.SetFavoritesCount(ctx, e.BeerID, e.FavoritesCount)
		if err != nil {
			return err
		}
		if !found {
			return apperrors.NotFound("beer", e.BeerID)
		}
		return nil
	})
}

// UpsertUser records a new account.
func (s *Service) UpsertUser(ctx context.Context, e events.UserCreated) error {
	return s.uow.Execute(ctx, events.TypeUserCreated, func(ctx context.Context, sc *uow.Scope) error {
		return s.repos(sc.Tx()).Users.Upsert(ctx, &shadow.User{
			ID:        e.ID,
			Username:  e.Username,
			Role:      e.Role,
			UpdatedAt: s.now(),
		})
	})
}

// RenameUser updates the username of a known account.
func (s *Service) RenameUser(ctx context.Context, e events.UserUpdated) error {
	return s.uow.Execute(ctx, events.TypeUserUpdated, func(ctx context.Context, sc *uow.Scope) error {
		found, err := s.repos(sc.Tx()).Users.Rename(ctx, e.ID, e.Username)
		if err != nil {
			return err
		}
		if !found {
			return apperrors.NotFound("user", e.ID)
		}
		return nil
	})
}

// DeleteUser tombstones an account so that it can no longer act here.
func (s *Service) DeleteUser(ctx context.Context, e events.UserDeleted) error {
	return s.uow.Execute(ctx, events.TypeUserDeleted, func(ctx context.Context, sc *uow.Scope) error {
		return s.repos(sc.Tx()).Users.MarkDeleted(ctx, e.ID)
	})
}
