// Package service implements the favorites commands, the favorites counter
// and the projections of beers and users.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/TomWia9/HoppyHub-sub002/pkg/command"
	"github.com/TomWia9/HoppyHub-sub002/pkg/database"
	"github.com/TomWia9/HoppyHub-sub002/pkg/uow"
	"github.com/TomWia9/HoppyHub-sub002/services/favorites/internal/domain"
	"github.com/TomWia9/HoppyHub-sub002/services/favorites/internal/repository"
)

// Service implements the favorites business logic.
type Service struct {
	db     database.DBTX
	repos  repository.Factory
	uow    *uow.Executor
	logger *slog.Logger
	now    func() time.Time
}

// New creates the favorites service. db serves reads; writes go through executor.
func New(db database.DBTX, repos repository.Factory, executor *uow.Executor, logger *slog.Logger) *Service {
	return &Service{
		db:     db,
		repos:  repos,
		uow:    executor,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Register binds every favorites command to d.
func (s *Service) Register(d *command.Dispatcher) {
	command.Register(d, s.AddFavorite)
	command.Register(d, s.RemoveFavorite)
}

// ListFavorites returns a page of favorites.
func (s *Service) ListFavorites(ctx context.Context, f repository.FavoriteFilter) ([]domain.Favorite, int, error) {
	return s.repos(s.db).Favorites.List(ctx, f)
}

// GetBeer returns the local view of a beer with its favorites count.
func (s *Service) GetBeer(ctx context.Context, id string) (*domain.Beer, error) {
	return s.repos(s.db).Beers.GetByID(ctx, id)
}
