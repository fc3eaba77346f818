// Package service implements the beers service commands, the cascading
// delete orchestrator and the projections fed by other services' events.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/TomWia9/HoppyHub-sub002/pkg/auth"
	"github.com/TomWia9/HoppyHub-sub002/pkg/blobstore"
	"github.com/TomWia9/HoppyHub-sub002/pkg/command"
	"github.com/TomWia9/HoppyHub-sub002/pkg/database"
	apperrors "github.com/TomWia9/HoppyHub-sub002/pkg/errors"
	"github.com/TomWia9/HoppyHub-sub002/pkg/shadow"
	"github.com/TomWia9/HoppyHub-sub002/pkg/uow"
	"github.com/TomWia9/HoppyHub-sub002/services/beers/internal/repository"
)

// Service implements the beers business logic.
type Service struct {
	db           database.DBTX
	repos        repository.Factory
	uow          *uow.Executor
	blobs        blobstore.Store
	tempImageURI string
	logger       *slog.Logger
	now          func() time.Time
}

// New creates the beers service. db serves reads; writes go through executor.
func New(
	db database.DBTX,
	repos repository.Factory,
	executor *uow.Executor,
	blobs blobstore.Store,
	tempImageURI string,
	logger *slog.Logger,
) *Service {
	return &Service{
		db:           db,
		repos:        repos,
		uow:          executor,
		blobs:        blobs,
		tempImageURI: tempImageURI,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Register binds every beers command to d.
func (s *Service) Register(d *command.Dispatcher) {
	command.Register(d, s.CreateBrewery)
	command.Register(d, s.UpdateBrewery)
	command.Register(d, s.DeleteBrewery)
	command.Register(d, s.CreateBeerStyle)
	command.Register(d, s.DeleteBeerStyle)
	command.Register(d, s.CreateBeer)
	command.Register(d, s.UpdateBeer)
	command.Register(d, s.DeleteBeer)
	command.Register(d, s.UpsertBeerImage)
	command.Register(d, s.DeleteBeerImage)
}

// authorizeAdmin requires the Administrator role and a live account.
func (s *Service) authorizeAdmin(ctx context.Context, repos repository.Set, actor auth.Actor) error {
	if !actor.IsAdmin() {
		return apperrors.Forbidden("administrator role required")
	}
	_, err := shadow.Live(ctx, repos.Users, actor.UserID)
	if errors.Is(err, apperrors.ErrNotFound) {
		// UserCreated not consumed yet; the token is the only evidence.
		return nil
	}
	return err
}
