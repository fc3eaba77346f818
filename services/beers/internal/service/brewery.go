package service

import (
	"context"
	"log/slog"

	"github.com/TomWia9/HoppyHub-sub002/pkg/events"
	"github.com/TomWia9/HoppyHub-sub002/pkg/pagination"
	"github.com/TomWia9/HoppyHub-sub002/pkg/uow"
	"github.com/TomWia9/HoppyHub-sub002/services/beers/internal/domain"
)

// CreateBrewery registers a brewery. Nothing outside this service reacts to
// an empty brewery, so no event is published.
func (s *Service) CreateBrewery(ctx context.Context, cmd CreateBrewery) (*domain.Brewery, error) {
	now := s.now()
	brewery := &domain.Brewery{
		ID:             domain.NewID(),
		Name:           cmd.Name,
		Description:    cmd.Description,
		FoundationYear: cmd.FoundationYear,
		WebsiteURL:     cmd.WebsiteURL,
		City:           cmd.City,
		Country:        cmd.Country,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err := s.uow.Execute(ctx, cmd.CommandName(), func(ctx context.Context, sc *uow.Scope) error {
		repos := s.repos(sc.Tx())
		if err := s.authorizeAdmin(ctx, repos, cmd.Actor); err != nil {
			return err
		}
		return repos.Breweries.Create(ctx, brewery)
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "brewery created", slog.String("brewery_id", brewery.ID))
	return brewery, nil
}

// UpdateBrewery replaces the brewery details and refreshes brewery_name on
// its beers in the same transaction.
func (s *Service) UpdateBrewery(ctx context.Context, cmd UpdateBrewery) (*domain.Brewery, error) {
	var brewery *domain.Brewery

	err := s.uow.Execute(ctx, cmd.CommandName(), func(ctx context.Context, sc *uow.Scope) error {
		repos := s.repos(sc.Tx())
		if err := s.authorizeAdmin(ctx, repos, cmd.Actor); err != nil {
			return err
		}

		var err error
		brewery, err = repos.Breweries.GetByID(ctx, cmd.ID)
		if err != nil {
			return err
		}
		renamed := brewery.Name != cmd.Name

		brewery.Name = cmd.Name
		brewery.Description = cmd.Description
		brewery.FoundationYear = cmd.FoundationYear
		brewery.WebsiteURL = cmd.WebsiteURL
		brewery.City = cmd.City
		brewery.Country = cmd.Country
		brewery.UpdatedAt = s.now()

		if err := repos.Breweries.Update(ctx, brewery); err != nil {
			return err
		}
		if err := sc.Emit(ctx, events.BreweryUpdated{ID: brewery.ID, Name: brewery.Name}); err != nil {
			return err
		}
		if !renamed {
			return nil
		}

		beers, err := repos.Beers.RenameBrewery(ctx, brewery.ID, brewery.Name)
		if err != nil {
			return err
		}
		for _, b := range beers {
			if err := sc.Emit(ctx, events.BeerUpdated{
				ID:          b.ID,
				Name:        b.Name,
				BreweryID:   brewery.ID,
				BreweryName: brewery.Name,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "brewery updated", slog.String("brewery_id", brewery.ID))
	return brewery, nil
}

// GetBrewery retrieves a brewery by its ID.
func (s *Service) GetBrewery(ctx context.Context, id string) (*domain.Brewery, error) {
	return s.repos(s.db).Breweries.GetByID(ctx, id)
}

// ListBreweries returns a page of breweries.
func (s *Service) ListBreweries(ctx context.Context, p pagination.Params) ([]domain.Brewery, int, error) {
	return s.repos(s.db).Breweries.List(ctx, p)
}
