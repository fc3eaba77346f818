package service

import (
	"context"
	"log/slog"

	"github.com/TomWia9/HoppyHub-sub002/pkg/events"
	"github.com/TomWia9/HoppyHub-sub002/pkg/uow"
	"github.com/TomWia9/HoppyHub-sub002/services/beers/internal/domain"
	"github.com/TomWia9/HoppyHub-sub002/services/beers/internal/repository"
)

// CreateBeer adds a beer with the shared temp image. The brewery and style
// must exist.
func (s *Service) CreateBeer(ctx context.Context, cmd CreateBeer) (*domain.Beer, error) {
	var beer *domain.Beer

	err := s.uow.Execute(ctx, cmd.CommandName(), func(ctx context.Context, sc *uow.Scope) error {
		repos := s.repos(sc.Tx())
		if err := s.authorizeAdmin(ctx, repos, cmd.Actor); err != nil {
			return err
		}

		brewery, err := repos.Breweries.GetByID(ctx, cmd.BreweryID)
		if err != nil {
			return err
		}
		if _, err := repos.Styles.GetByID(ctx, cmd.BeerStyleID); err != nil {
			return err
		}

		now := s.now()
		createdBy := cmd.Actor.UserID
		beer = &domain.Beer{
			ID:              domain.NewID(),
			Name:            cmd.Name,
			BreweryID:       brewery.ID,
			BreweryName:     brewery.Name,
			BeerStyleID:     cmd.BeerStyleID,
			AlcoholByVolume: cmd.AlcoholByVolume,
			Description:     cmd.Description,
			Composition:     cmd.Composition,
			Blg:             cmd.Blg,
			Ibu:             cmd.Ibu,
			ReleaseDate:     cmd.ReleaseDate,
			ImageURI:        s.tempImageURI,
			TempImage:       true,
			CreatedBy:       &createdBy,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := repos.Beers.Create(ctx, beer); err != nil {
			return err
		}
		if err := repos.Images.Upsert(ctx, domain.NewTempImage(beer.ID, s.tempImageURI, now)); err != nil {
			return err
		}

		return sc.Emit(ctx, events.BeerCreated{
			ID:          beer.ID,
			Name:        beer.Name,
			BreweryID:   beer.BreweryID,
			BreweryName: beer.BreweryName,
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "beer created",
		slog.String("beer_id", beer.ID),
		slog.String("brewery_id", beer.BreweryID),
	)
	return beer, nil
}

// UpdateBeer replaces a beer's details. The style must exist.
func (s *Service) UpdateBeer(ctx context.Context, cmd UpdateBeer) (*domain.Beer, error) {
	var beer *domain.Beer

	err := s.uow.Execute(ctx, cmd.CommandName(), func(ctx context.Context, sc *uow.Scope) error {
		repos := s.repos(sc.Tx())
		if err := s.authorizeAdmin(ctx, repos, cmd.Actor); err != nil {
			return err
		}

		var err error
		beer, err = repos.Beers.GetByID(ctx, cmd.ID)
		if err != nil {
			return err
		}
		if beer.BeerStyleID != cmd.BeerStyleID {
			if _, err := repos.Styles.GetByID(ctx, cmd.BeerStyleID); err != nil {
				return err
			}
		}

		beer.Name = cmd.Name
		beer.BeerStyleID = cmd.BeerStyleID
		beer.AlcoholByVolume = cmd.AlcoholByVolume
		beer.Description = cmd.Description
		beer.Composition = cmd.Composition
		beer.Blg = cmd.Blg
		beer.Ibu = cmd.Ibu
		beer.ReleaseDate = cmd.ReleaseDate
		beer.UpdatedAt = s.now()

		if err := repos.Beers.Update(ctx, beer); err != nil {
			return err
		}
		return sc.Emit(ctx, events.BeerUpdated{
			ID:          beer.ID,
			Name:        beer.Name,
			BreweryID:   beer.BreweryID,
			BreweryName: beer.BreweryName,
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "beer updated", slog.String("beer_id", beer.ID))
	return beer, nil
}

// GetBeer retrieves a beer with its image.
func (s *Service) GetBeer(ctx context.Context, id string) (*domain.Beer, error) {
	return s.repos(s.db).Beers.GetByID(ctx, id)
}

// ListBeers returns beers matching the filter.
func (s *Service) ListBeers(ctx context.Context, f repository.BeerFilter) ([]domain.Beer, int, error) {
	return s.repos(s.db).Beers.List(ctx, f)
}
