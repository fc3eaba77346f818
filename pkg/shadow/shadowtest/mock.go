// Package shadowtest provides a testify mock of shadow.Repository.
package shadowtest

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/TomWia9/HoppyHub-sub002/pkg/shadow"
)

// Repository is a mock shadow.Repository.
type Repository struct{ mock.Mock }

var _ shadow.Repository = (*Repository)(nil)

func (m *Repository) GetByID(ctx context.Context, id string) (*shadow.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shadow.User), args.Error(1)
}

func (m *Repository) Upsert(ctx context.Context, u *shadow.User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *Repository) Rename(ctx context.Context, id, username string) (bool, error) {
	args := m.Called(ctx, id, username)
	return args.Bool(0), args.Error(1)
}

func (m *Repository) MarkDeleted(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}
