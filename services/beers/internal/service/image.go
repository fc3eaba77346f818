package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/TomWia9/HoppyHub-sub002/pkg/blobstore"
	apperrors "github.com/TomWia9/HoppyHub-sub002/pkg/errors"
	"github.com/TomWia9/HoppyHub-sub002/pkg/uow"
	"github.com/TomWia9/HoppyHub-sub002/services/beers/internal/domain"
	"github.com/TomWia9/HoppyHub-sub002/services/beers/internal/repository"
)

// imageRecord loads the image row of beerID under lock. A beer without one
// gets the temp image.
func (s *Service) imageRecord(ctx context.Context, repos repository.Set, beerID string) (*domain.BeerImage, error) {
	img, err := repos.Images.Get(ctx, beerID)
	if errors.Is(err, apperrors.ErrNotFound) {
		img = domain.NewTempImage(beerID, s.tempImageURI, s.now())
		if err := repos.Images.Upsert(ctx, img); err != nil {
			return nil, err
		}
		return img, nil
	}
	return img, err
}

// UpsertBeerImage uploads content under Beers/{brewery}/{beer} and points the
// beer at it. The new blob gets its own key: it is removed again if the
// transaction does not commit, and the image it replaces is removed only after
// the commit.
func (s *Service) UpsertBeerImage(ctx context.Context, cmd UpsertBeerImage) (*domain.BeerImage, error) {
	var img *domain.BeerImage

	err := s.uow.Execute(ctx, cmd.CommandName(), func(ctx context.Context, sc *uow.Scope) error {
		repos := s.repos(sc.Tx())
		if err := s.authorizeAdmin(ctx, repos, cmd.Actor); err != nil {
			return err
		}

		beer, err := repos.Beers.GetByID(ctx, cmd.BeerID)
		if err != nil {
			return err
		}
		img, err = s.imageRecord(ctx, repos, beer.ID)
		if err != nil {
			return err
		}
		previous := ""
		if !img.TempImage {
			previous = img.ImageURI
		}

		key := blobstore.Versioned(blobstore.BeerImagePath(beer.BreweryID, beer.ID))
		sc.OnRollback(func(ctx context.Context) error {
			return s.blobs.DeleteFromPath(ctx, key)
		})
		uri, err := s.blobs.Upload(ctx, key, cmd.Content, cmd.ContentType)
		if err != nil {
			return err
		}

		img.SetUploaded(uri, s.now())
		if err := repos.Images.Upsert(ctx, img); err != nil {
			return err
		}
		if previous != "" && previous != uri {
			sc.OnCommit(func(ctx context.Context) error {
				return s.blobs.DeleteByURI(ctx, previous)
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "beer image uploaded",
		slog.String("beer_id", img.BeerID),
		slog.String("uri", img.ImageURI),
	)
	return img, nil
}

// DeleteBeerImage reverts a beer to the temp image and removes the uploaded
// blob. A beer already on the temp image is left alone.
func (s *Service) DeleteBeerImage(ctx context.Context, cmd DeleteBeerImage) (*domain.BeerImage, error) {
	var img *domain.BeerImage

	err := s.uow.Execute(ctx, cmd.CommandName(), func(ctx context.Context, sc *uow.Scope) error {
		repos := s.repos(sc.Tx())
		if err := s.authorizeAdmin(ctx, repos, cmd.Actor); err != nil {
			return err
		}

		beer, err := repos.Beers.GetByID(ctx, cmd.BeerID)
		if err != nil {
			return err
		}
		img, err = s.imageRecord(ctx, repos, beer.ID)
		if err != nil {
			return err
		}
		if img.TempImage {
			return nil
		}

		img.ResetToTemp(s.tempImageURI, s.now())
		if err := repos.Images.Upsert(ctx, img); err != nil {
			return err
		}
		return s.blobs.DeleteFromPath(ctx, blobstore.BeerImagePath(beer.BreweryID, beer.ID))
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "beer image reset", slog.String("beer_id", img.BeerID))
	return img, nil
}
