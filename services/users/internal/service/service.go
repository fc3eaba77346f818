// Package service implements user accounts and token issuing.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/TomWia9/HoppyHub-sub002/pkg/auth"
	"github.com/TomWia9/HoppyHub-sub002/pkg/command"
	"github.com/TomWia9/HoppyHub-sub002/pkg/database"
	apperrors "github.com/TomWia9/HoppyHub-sub002/pkg/errors"
	"github.com/TomWia9/HoppyHub-sub002/pkg/pagination"
	"github.com/TomWia9/HoppyHub-sub002/pkg/uow"
	"github.com/TomWia9/HoppyHub-sub002/services/users/internal/domain"
	"github.com/TomWia9/HoppyHub-sub002/services/users/internal/repository"
)

// Service implements the users business logic.
type Service struct {
	db         database.DBTX
	repos      repository.Factory
	uow        *uow.Executor
	tokens     *auth.Manager
	bcryptCost int
	logger     *slog.Logger
	now        func() time.Time
}

// New creates the users service. db serves reads; writes go through executor.
func New(db database.DBTX, repos repository.Factory, executor *uow.Executor, tokens *auth.Manager, bcryptCost int, logger *slog.Logger) *Service {
	return &Service{
		db:         db,
		repos:      repos,
		uow:        executor,
		tokens:     tokens,
		bcryptCost: bcryptCost,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Register binds every users command to d.
func (s *Service) Register(d *command.Dispatcher) {
	command.Register(d, s.RegisterUser)
	command.Register(d, s.UpdateUsername)
	command.Register(d, s.ChangePassword)
	command.Register(d, s.DeleteUser)
	command.Register(d, s.Login)
}

// GetUser returns a live account.
func (s *Service) GetUser(ctx context.Context, id string) (*domain.User, error) {
	u, err := s.repos(s.db).Users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.Deleted {
		return nil, apperrors.NotFound("user", id)
	}
	return u, nil
}

// ListUsers returns a page of live accounts.
func (s *Service) ListUsers(ctx context.Context, p pagination.Params) ([]domain.User, int, error) {
	return s.repos(s.db).Users.List(ctx, p)
}
