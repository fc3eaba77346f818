// Package service implements the opinions commands, the beer rating
// recalculation and the projections of beers and users.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/TomWia9/HoppyHub-sub002/pkg/auth"
	"github.com/TomWia9/HoppyHub-sub002/pkg/blobstore"
	"github.com/TomWia9/HoppyHub-sub002/pkg/command"
	"github.com/TomWia9/HoppyHub-sub002/pkg/database"
	apperrors "github.com/TomWia9/HoppyHub-sub002/pkg/errors"
	"github.com/TomWia9/HoppyHub-sub002/pkg/pagination"
	"github.com/TomWia9/HoppyHub-sub002/pkg/shadow"
	"github.com/TomWia9/HoppyHub-sub002/pkg/uow"
	"github.com/TomWia9/HoppyHub-sub002/services/opinions/internal/domain"
	"github.com/TomWia9/HoppyHub-sub002/services/opinions/internal/repository"
)

// Service implements the opinions business logic.
type Service struct {
	db     database.DBTX
	repos  repository.Factory
	uow    *uow.Executor
	blobs  blobstore.Store
	logger *slog.Logger
	now    func() time.Time
}

// New creates the opinions service. db serves reads; writes go through executor.
func New(
	db database.DBTX,
	repos repository.Factory,
	executor *uow.Executor,
	blobs blobstore.Store,
	logger *slog.Logger,
) *Service {
	return &Service{
		db:     db,
		repos:  repos,
		uow:    executor,
		blobs:  blobs,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Register binds every opinions command to d.
func (s *Service) Register(d *command.Dispatcher) {
	command.Register(d, s.CreateOpinion)
	command.Register(d, s.UpdateOpinion)
	command.Register(d, s.DeleteOpinion)
	command.Register(d, s.DeleteOpinionImage)
}

// GetOpinion returns one opinion.
func (s *Service) GetOpinion(ctx context.Context, id string) (*domain.Opinion, error) {
	return s.repos(s.db).Opinions.GetByID(ctx, id)
}

// ListOpinions returns a page of opinions.
func (s *Service) ListOpinions(ctx context.Context, f repository.OpinionFilter) ([]domain.Opinion, int, error) {
	return s.repos(s.db).Opinions.List(ctx, f)
}

// GetBeer returns the local view of a beer with its opinion aggregate.
func (s *Service) GetBeer(ctx context.Context, id string) (*domain.Beer, error) {
	return s.repos(s.db).Beers.GetByID(ctx, id)
}

// ListBeerOpinions returns a page of the opinions of one beer.
func (s *Service) ListBeerOpinions(ctx context.Context, beerID string, p pagination.Params) ([]domain.Opinion, int, error) {
	repos := s.repos(s.db)
	if _, err := repos.Beers.GetByID(ctx, beerID); err != nil {
		return nil, 0, err
	}
	return repos.Opinions.List(ctx, repository.OpinionFilter{Params: p, BeerID: &beerID})
}

// authorizeAuthor requires a live account that wrote o or is an administrator.
func authorizeAuthor(ctx context.Context, repos repository.Set, actor auth.Actor, o *domain.Opinion) error {
	if _, err := shadow.Live(ctx, repos.Users, actor.UserID); err != nil {
		return err
	}
	if !actor.Owns(o.UserID) {
		return apperrors.Forbidden("only the author or an administrator may change this opinion")
	}
	return nil
}
