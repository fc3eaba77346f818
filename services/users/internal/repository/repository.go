package repository

import (
	"context"

	"github.com/TomWia9/HoppyHub-sub002/pkg/database"
	"github.com/TomWia9/HoppyHub-sub002/pkg/pagination"
	"github.com/TomWia9/HoppyHub-sub002/services/users/internal/domain"
)

// UserRepository defines the interface for user persistence operations.
type UserRepository interface {
	// Create inserts a new user. A taken email or username is AlreadyExists.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique identifier, deleted or not.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByEmail retrieves a user by their email address.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// List returns a page of users that are not deleted.
	List(ctx context.Context, p pagination.Params) ([]domain.User, int, error)

	// Update writes username, password hash and role.
	Update(ctx context.Context, user *domain.User) error

	// MarkDeleted soft-deletes a user.
	MarkDeleted(ctx context.Context, id string) error
}

// Set groups the repositories bound to one connection or transaction.
type Set struct {
	Users UserRepository
}

// Factory binds a Set to db, which is either the pool or an open transaction.
type Factory func(db database.DBTX) Set
