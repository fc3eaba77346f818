package repository

import (
	"context"

	"github.com/TomWia9/HoppyHub-sub002/pkg/database"
	"github.com/TomWia9/HoppyHub-sub002/pkg/pagination"
	"github.com/TomWia9/HoppyHub-sub002/pkg/shadow"
	"github.com/TomWia9/HoppyHub-sub002/services/opinions/internal/domain"
)

// OpinionFilter defines filter criteria for listing opinions.
type OpinionFilter struct {
	pagination.Params
	BeerID    *string
	UserID    *string
	MinRating *int
	MaxRating *int
}

// OpinionRepository persists opinions.
type OpinionRepository interface {
	// Create fails with AlreadyExists when the user already rated the beer.
	Create(ctx context.Context, o *domain.Opinion) error

	GetByID(ctx context.Context, id string) (*domain.Opinion, error)
	List(ctx context.Context, f OpinionFilter) ([]domain.Opinion, int, error)
	Update(ctx context.Context, o *domain.Opinion) error
	Delete(ctx context.Context, id string) error

	// Ratings returns the rating of every opinion of a beer.
	Ratings(ctx context.Context, beerID string) ([]int, error)
}

// BeerRepository persists the beer projection.
type BeerRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Beer, error)

	// Lock reads the beer and holds its row until the transaction ends,
	// serializing opinion mutations of one beer.
	Lock(ctx context.Context, id string) (*domain.Beer, error)

	// Upsert writes the catalog fields and keeps the opinion aggregate.
	Upsert(ctx context.Context, b *domain.Beer) error

	SetStats(ctx context.Context, id string, rating float64, count int) error

	// RenameBrewery returns the number of beers touched.
	RenameBrewery(ctx context.Context, breweryID, name string) (int64, error)

	// Delete removes the beer and its opinions. It reports whether the beer
	// existed.
	Delete(ctx context.Context, id string) (bool, error)

	// DeleteByBrewery removes every beer of a brewery and their opinions.
	DeleteByBrewery(ctx context.Context, breweryID string) (int64, error)
}

// Set groups the repositories bound to one connection or transaction.
type Set struct {
	Opinions OpinionRepository
	Beers    BeerRepository
	Users    shadow.Repository
}

// Factory binds a Set to db, which is either the pool or an open transaction.
type Factory func(db database.DBTX) Set
