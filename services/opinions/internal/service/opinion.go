package service

import (
	"context"
	"log/slog"

	"github.com/TomWia9/HoppyHub-sub002/pkg/blobstore"
	"github.com/TomWia9/HoppyHub-sub002/pkg/events"
	"github.com/TomWia9/HoppyHub-sub002/pkg/shadow"
	"github.com/TomWia9/HoppyHub-sub002/pkg/uow"
	"github.com/TomWia9/HoppyHub-sub002/services/opinions/internal/domain"
	"github.com/TomWia9/HoppyHub-sub002/services/opinions/internal/repository"
)

// CreateOpinion stores the actor's opinion of a beer, uploads its photo and
// recalculates the beer's rating in the same transaction.
func (s *Service) CreateOpinion(ctx context.Context, cmd CreateOpinion) (*domain.Opinion, error) {
	now := s.now()
	opinion := &domain.Opinion{
		ID:        domain.NewID(),
		BeerID:    cmd.BeerID,
		UserID:    cmd.Actor.UserID,
		Rating:    cmd.Rating,
		Comment:   cmd.Comment,
		CreatedAt: now,
		UpdatedAt: now,
	}

	var changed events.BeerOpinionChanged
	err := s.uow.Execute(ctx, cmd.CommandName(), func(ctx context.Context, sc *uow.Scope) error {
		repos := s.repos(sc.Tx())
		user, err := shadow.Live(ctx, repos.Users, cmd.Actor.UserID)
		if err != nil {
			return err
		}
		opinion.Username = user.Username

		beer, err := repos.Beers.Lock(ctx, cmd.BeerID)
		if err != nil {
			return err
		}
		if err := repos.Opinions.Create(ctx, opinion); err != nil {
			return err
		}

		if cmd.Image != nil {
			if err := s.attachImage(ctx, sc, beer, opinion, cmd.Image); err != nil {
				return err
			}
			if err := repos.Opinions.Update(ctx, opinion); err != nil {
				return err
			}
		}

		changed, err = s.recalculate(ctx, sc, repos, beer.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "opinion created",
		slog.String("opinion_id", opinion.ID),
		slog.String("beer_id", opinion.BeerID),
		slog.Float64("beer_rating", changed.NewBeerRating),
		slog.Int("opinions_count", changed.OpinionsCount),
	)
	return opinion, nil
}

// UpdateOpinion changes rating, comment and optionally the photo, then
// recalculates the beer's rating.
func (s *Service) UpdateOpinion(ctx context.Context, cmd UpdateOpinion) (*domain.Opinion, error) {
	var opinion *domain.Opinion

	err := s.uow.Execute(ctx, cmd.CommandName(), func(ctx context.Context, sc *uow.Scope) error {
		repos := s.repos(sc.Tx())

		var err error
		opinion, err = repos.Opinions.GetByID(ctx, cmd.ID)
		if err != nil {
			return err
		}
		if err := authorizeAuthor(ctx, repos, cmd.Actor, opinion); err != nil {
			return err
		}
		beer, err := repos.Beers.Lock(ctx, opinion.BeerID)
		if err != nil {
			return err
		}

		if cmd.Image != nil {
			if err := s.attachImage(ctx, sc, beer, opinion, cmd.Image); err != nil {
				return err
			}
		}
		opinion.Rating = cmd.Rating
		opinion.Comment = cmd.Comment
		opinion.UpdatedAt = s.now()
		if err := repos.Opinions.Update(ctx, opinion); err != nil {
			return err
		}

		_, err = s.recalculate(ctx, sc, repos, beer.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "opinion updated", slog.String("opinion_id", opinion.ID))
	return opinion, nil
}

// DeleteOpinion removes an opinion and its photo, then recalculates the
// beer's rating.
func (s *Service) DeleteOpinion(ctx context.Context, cmd DeleteOpinion) (struct{}, error) {
	err := s.uow.Execute(ctx, cmd.CommandName(), func(ctx context.Context, sc *uow.Scope) error {
		repos := s.repos(sc.Tx())

		opinion, err := repos.Opinions.GetByID(ctx, cmd.ID)
		if err != nil {
			return err
		}
		if err := authorizeAuthor(ctx, repos, cmd.Actor, opinion); err != nil {
			return err
		}
		if _, err := repos.Beers.Lock(ctx, opinion.BeerID); err != nil {
			return err
		}

		if err := repos.Opinions.Delete(ctx, opinion.ID); err != nil {
			return err
		}
		if _, err := s.recalculate(ctx, sc, repos, opinion.BeerID); err != nil {
			return err
		}
		if opinion.ImageURI == "" {
			return nil
		}
		return s.blobs.DeleteByURI(ctx, opinion.ImageURI)
	})
	if err != nil {
		return struct{}{}, err
	}

	s.logger.InfoContext(ctx, "opinion deleted", slog.String("opinion_id", cmd.ID))
	return struct{}{}, nil
}

// DeleteOpinionImage clears the photo of an opinion. The rating is
// unaffected, so nothing is recalculated or published.
func (s *Service) DeleteOpinionImage(ctx context.Context, cmd DeleteOpinionImage) (*domain.Opinion, error) {
	var opinion *domain.Opinion

	err := s.uow.Execute(ctx, cmd.CommandName(), func(ctx context.Context, sc *uow.Scope) error {
		repos := s.repos(sc.Tx())

		var err error
		opinion, err = repos.Opinions.GetByID(ctx, cmd.ID)
		if err != nil {
			return err
		}
		if err := authorizeAuthor(ctx, repos, cmd.Actor, opinion); err != nil {
			return err
		}
		if opinion.ImageURI == "" {
			return nil
		}

		uri := opinion.ImageURI
		opinion.ImageURI = ""
		opinion.UpdatedAt = s.now()
		if err := repos.Opinions.Update(ctx, opinion); err != nil {
			return err
		}
		return s.blobs.DeleteByURI(ctx, uri)
	})
	if err != nil {
		return nil, err
	}
	return opinion, nil
}

// attachImage uploads img under Opinions/{brewery}/{beer}/{opinion} with a
// key of its own and records the uri on o. The upload is removed again if the
// transaction does not commit; the photo it replaces is removed after commit.
func (s *Service) attachImage(ctx context.Context, sc *uow.Scope, beer *domain.Beer, o *domain.Opinion, img *Image) error {
	key := blobstore.Versioned(blobstore.OpinionImagePath(beer.BreweryID, beer.ID, o.ID))
	sc.OnRollback(func(ctx context.Context) error {
		return s.blobs.DeleteFromPath(ctx, key)
	})
	uri, err := s.blobs.Upload(ctx, key, img.Content, img.ContentType)
	if err != nil {
		return err
	}

	if previous := o.ImageURI; previous != "" && previous != uri {
		sc.OnCommit(func(ctx context.Context) error {
			return s.blobs.DeleteByURI(ctx, previous)
		})
	}
	o.ImageURI = uri
	return nil
}

// recalculate recomputes the rating and opinion count of a beer from its
// opinions, stores them and queues BeerOpinionChanged with the new values.
// The caller holds the beer's row lock.
func (s *Service) recalculate(ctx context.Context, sc *uow.Scope, repos repository.Set, beerID string) (events.BeerOpinionChanged, error) {
	ratings, err := repos.Opinions.Ratings(ctx, beerID)
	if err != nil {
		return events.BeerOpinionChanged{}, err
	}
	rating, count := domain.Aggregate(ratings)
	if err := repos.Beers.SetStats(ctx, beerID, rating, count); err != nil {
		return events.BeerOpinionChanged{}, err
	}

	changed := events.BeerOpinionChanged{BeerID: beerID, OpinionsCount: count, NewBeerRating: rating}
	return changed, sc.Emit(ctx, changed)
}
