package repository

import (
	"context"

	"github.com/TomWia9/HoppyHub-sub002/pkg/database"
	"github.com/TomWia9/HoppyHub-sub002/pkg/pagination"
	"github.com/TomWia9/HoppyHub-sub002/pkg/shadow"
	"github.com/TomWia9/HoppyHub-sub002/services/favorites/internal/domain"
)

// FavoriteFilter defines filter criteria for listing favorites.
type FavoriteFilter struct {
	pagination.Params
	UserID *string
	BeerID *string
}

// FavoriteRepository persists favorites.
type FavoriteRepository interface {
	// Create fails with AlreadyExists when the user already favors the beer.
	Create(ctx context.Context, f *domain.Favorite) error
	// Delete removes the user's favorite of a beer, NotFound if there is none.
	Delete(ctx context.Context, userID, beerID string) error
	List(ctx context.Context, f FavoriteFilter) ([]domain.Favorite, int, error)
	// Count returns the number of favorites of a beer.
	Count(ctx context.Context, beerID string) (int, error)
}

// BeerRepository persists the beer projection.
type BeerRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Beer, error)
	// Lock reads the beer and holds its row until the transaction ends,
	// serializing favorite changes of one beer.
	Lock(ctx context.Context, id string) (*domain.Beer, error)
	// Upsert writes the catalog fields and keeps the favorites count.
	Upsert(ctx context.Context, b *domain.Beer) error
	SetFavoritesCount(ctx context.Context, id string, count int) error
	RenameBrewery(ctx context.Context, breweryID, name string) (int64, error)
	// Delete removes the beer and its favorites. It reports whether the beer
	// existed.
	Delete(ctx context.Context, id string) (bool, error)
	DeleteByBrewery(ctx context.Context, breweryID string) (int64, error)
}

// Set groups the repositories bound to one connection or transaction.
type Set struct {
	Favorites FavoriteRepository
	Beers     BeerRepository
	Users     shadow.Repository
}

// Factory binds a Set to db, which is either the pool or an open transaction.
type Factory func(db database.DBTX) Set
