package service

import (
	"context"
	"log/slog"

	apperrors "github.com/TomWia9/HoppyHub-sub002/pkg/errors"
	"github.com/TomWia9/HoppyHub-sub002/pkg/events"
	"github.com/TomWia9/HoppyHub-sub002/pkg/shadow"
	"github.com/TomWia9/HoppyHub-sub002/pkg/uow"
	"github.com/TomWia9/HoppyHub-sub002/services/opinions/internal/domain"
)

// The projections below mirror beers and users owned by other services. They
// never publish events and they leave the opinion aggregate alone.

// ApplyBeerCreated adds a beer that can now be rated.
func (s *Service) ApplyBeerCreated(ctx context.Context, e events.BeerCreated) error {
	return s.upsertBeer(ctx, events.TypeBeerCreated, e.ID, e.Name, e.BreweryID, e.BreweryName)
}

// ApplyBeerUpdated refreshes a beer, creating it if BeerCreated was missed.
func (s *Service) ApplyBeerUpdated(ctx context.Context, e events.BeerUpdated) error {
	return s.upsertBeer(ctx, events.TypeBeerUpdated, e.ID, e.Name, e.BreweryID, e.BreweryName)
}

func (s *Service) upsertBeer(ctx context.Context, name, id, beerName, breweryID, breweryName string) error {
	return s.uow.Execute(ctx, name, func(ctx context.Context, sc *uow.Scope) error {
		return s.repos(sc.Tx()).Beers.Upsert(ctx, &domain.Beer{
			ID:          id,
			Name:        beerName,
			BreweryID:   breweryID,
			BreweryName: breweryName,
			UpdatedAt:   s.now(),
		})
	})
}

// ApplyBeerDeleted drops a beer with its opinions. The beers service has
// already removed the opinion images under the beer's prefix.
func (s *Service) ApplyBeerDeleted(ctx context.Context, e events.BeerDeleted) error {
	return s.uow.Execute(ctx, events.TypeBeerDeleted, func(ctx context.Context, sc *uow.Scope) error {
		found, err := s.repos(sc.Tx()).Beers.Delete(ctx, e.ID)
		if err != nil {
			return err
		}
		if !found {
			s.logger.DebugContext(ctx, "delete of unknown beer ignored", slog.String("beer_id", e.ID))
		}
		return nil
	})
}

// ApplyBreweryUpdated refreshes the brewery name on the brewery's beers.
func (s *Service) ApplyBreweryUpdated(ctx context.Context, e events.BreweryUpdated) error {
	return s.uow.Execute(ctx, events.TypeBreweryUpdated, func(ctx context.Context, sc *uow.Scope) error {
		n, err := s.repos(sc.Tx()).Beers.RenameBrewery(ctx, e.ID, e.Name)
		if err != nil {
			return err
		}
		s.logger.DebugContext(ctx, "brewery renamed on beers",
			slog.String("brewery_id", e.ID),
			slog.Int64("beers", n),
		)
		return nil
	})
}

// ApplyBreweryDeleted drops every beer of a brewery with their opinions.
func (s *Service) ApplyBreweryDeleted(ctx context.Context, e events.BreweryDeleted) error {
	return s.uow.Execute(ctx, events.TypeBreweryDeleted, func(ctx context.Context, sc *uow.Scope) error {
		n, err := s.repos(sc.Tx()).Beers.DeleteByBrewery(ctx, e.ID)
		if err != nil {
			return err
		}
		s.logger.InfoContext(ctx, "beers of deleted brewery removed",
			slog.String("brewery_id", e.ID),
			slog.Int64("beers", n),
		)
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

// DeleteUser tombstones an account. Its opinions stay and keep counting
// towards the beer ratings.
func (s *Service) DeleteUser(ctx context.Context, e events.UserDeleted) error {
	return s.uow.Execute(ctx, events.TypeUserDeleted, func(ctx context.Context, sc *uow.Scope) error {
		return s.repos(sc.Tx()).Users.MarkDeleted(ctx, e.ID)
	})
}
