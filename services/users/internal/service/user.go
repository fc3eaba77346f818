package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/TomWia9/HoppyHub-sub002/pkg/auth"
	apperrors "github.com/TomWia9/HoppyHub-sub002/pkg/errors"
	"github.com/TomWia9/HoppyHub-sub002/pkg/events"
	"github.com/TomWia9/HoppyHub-sub002/pkg/uow"
	"github.com/TomWia9/HoppyHub-sub002/services/users/internal/domain"
	"github.com/TomWia9/HoppyHub-sub002/services/users/internal/repository"
)

// RegisterUser hashes the password, stores the account and announces it.
func (s *Service) RegisterUser(ctx context.Context, cmd RegisterUser) (*domain.User, error) {
	role := cmd.Role
	if role == "" {
		role = auth.RoleUser
	}
	if role != auth.RoleUser && !cmd.Actor.IsAdmin() {
		return nil, apperrors.Forbidden("only administrators can assign the " + role + " role")
	}
	if err := domain.ValidatePassword(cmd.Password); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	user := &domain.User{
		ID:           domain.NewID(),
		Email:        cmd.Email,
		Username:     cmd.Username,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.uow.Execute(ctx, cmd.CommandName(), func(ctx context.Context, sc *uow.Scope) error {
		if err := s.repos(sc.Tx()).Users.Create(ctx, user); err != nil {
			return err
		}
		return sc.Emit(ctx, events.UserCreated{
			ID:       user.ID,
			Email:    user.Email,
			Username: user.Username,
			Role:     user.Role,
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "user registered",
		slog.String("user_id", user.ID),
		slog.String("role", user.Role),
	)
	return user, nil
}

// UpdateUsername renames an account. Renaming to the current name is a no-op
// and publishes nothing.
func (s *Service) UpdateUsername(ctx context.Context, cmd UpdateUsername) (*domain.User, error) {
	if !cmd.Actor.Owns(cmd.UserID) {
		return nil, apperrors.Forbidden("cannot modify another user's account")
	}

	var user *domain.User
	err := s.uow.Execute(ctx, cmd.CommandName(), func(ctx context.Context, sc *uow.Scope) error {
		repos := s.repos(sc.Tx())
		var err error
		user, err = live(ctx, repos, cmd.UserID)
		if err != nil {
			return err
		}
		if user.Username == cmd.Username {
			return nil
		}
		user.Username = cmd.Username
		user.UpdatedAt = s.now()
		if err := repos.Users.Update(ctx, user); err != nil {
			return err
		}
		return sc.Emit(ctx, events.UserUpdated{ID: user.ID, Username: user.Username})
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "username updated",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
	)
	return user, nil
}

// ChangePassword replaces the password of the actor's own account after
// verifying the current one.
func (s *Service) ChangePassword(ctx context.Context, cmd ChangePassword) (struct{}, error) {
	if cmd.Actor.UserID != cmd.UserID {
		return struct{}{}, apperrors.Forbidden("cannot change another user's password")
	}
	if err := domain.ValidatePassword(cmd.NewPassword); err != nil {
		return struct{}{}, err
	}
	if cmd.CurrentPassword == cmd.NewPassword {
		return struct{}{}, apperrors.InvalidInput("new password must be different from current password")
	}

	err := s.uow.Execute(ctx, cmd.CommandName(), func(ctx context.Context, sc *uow.Scope) error {
		repos := s.repos(sc.Tx())
		user, err := live(ctx, repos, cmd.UserID)
		if err != nil {
			return err
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(cmd.CurrentPassword)); err != nil {
			return apperrors.Unauthorized("current password is incorrect")
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(cmd.NewPassword), s.bcryptCost)
		if err != nil {
			return fmt.Errorf("hash new password: %w", err)
		}
		user.PasswordHash = string(hash)
		user.UpdatedAt = s.now()
		return repos.Users.Update(ctx, user)
	})
	if err != nil {
		return struct{}{}, err
	}

	s.logger.InfoContext(ctx, "password changed", slog.String("user_id", cmd.UserID))
	return struct{}{}, nil
}

// DeleteUser soft-deletes an account. The row stays so that email and
// username remain reserved.
func (s *Service) DeleteUser(ctx context.Context, cmd DeleteUser) (struct{}, error) {
	if !cmd.Actor.Owns(cmd.UserID) {
		return struct{}{}, apperrors.Forbidden("cannot delete another user's account")
	}

	err := s.uow.Execute(ctx, cmd.CommandName(), func(ctx context.Context, sc *uow.Scope) error {
		repos := s.repos(sc.Tx())
		if _, err := live(ctx, repos, cmd.UserID); err != nil {
			return err
		}
		if err := repos.Users.MarkDeleted(ctx, cmd.UserID); err != nil {
			return err
		}
		return sc.Emit(ctx, events.UserDeleted{ID: cmd.UserID})
	})
	if err != nil {
		return struct{}{}, err
	}

	s.logger.InfoContext(ctx, "user deleted", slog.String("user_id", cmd.UserID))
	return struct{}{}, nil
}

// Login verifies credentials and issues an access token.
func (s *Service) Login(ctx context.Context, cmd Login) (*domain.Token, error) {
	user, err := s.repos(s.db).Users.GetByEmail(ctx, cmd.Email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Unauthorized("invalid email or password")
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(cmd.Password)); err != nil {
		return nil, apperrors.Unauthorized("invalid email or password")
	}
	if user.Deleted {
		return nil, apperrors.Unauthorized("account is deleted")
	}

	token, expiresAt, err := s.tokens.Issue(user.ID, user.Email, user.Username, user.Role)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	s.logger.InfoContext(ctx, "user logged in", slog.String("user_id", user.ID))
	return &domain.Token{AccessToken: token, TokenType: "Bearer", ExpiresAt: expiresAt}, nil
}

// live loads an account that has not been deleted.
func live(ctx context.Context, repos repository.Set, id string) (*domain.User, error) {
	user, err := repos.Users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.Deleted {
		return nil, apperrors.NotFound("user", id)
	}
	return user, nil
}
