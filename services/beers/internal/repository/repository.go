package repository

import (
	"context"

	"github.com/TomWia9/HoppyHub-sub002/pkg/database"
	"github.com/TomWia9/HoppyHub-sub002/pkg/pagination"
	"github.com/TomWia9/HoppyHub-sub002/pkg/shadow"
	"github.com/TomWia9/HoppyHub-sub002/services/beers/internal/domain"
)

// BeerFilter defines filter criteria for listing beers.
type BeerFilter struct {
	pagination.Params
	BreweryID   *string
	BeerStyleID *string
	MinABV      *float64
	MaxABV      *float64
}

// BreweryRepository persists breweries.
type BreweryRepository interface {
	Create(ctx context.Context, b *domain.Brewery) error
	GetByID(ctx context.Context, id string) (*domain.Brewery, error)
	List(ctx context.Context, p pagination.Params) ([]domain.Brewery, int, error)
	Update(ctx context.Context, b *domain.Brewery) error
	Delete(ctx context.Context, id string) error
}

// BeerStyleRepository persists beer styles.
type BeerStyleRepository interface {
	Create(ctx context.Context, s *domain.BeerStyle) error
	GetByID(ctx context.Context, id string) (*domain.BeerStyle, error)
	List(ctx context.Context, p pagination.Params) ([]domain.BeerStyle, int, error)
	Delete(ctx context.Context, id string) error
	// InUse reports whether any beer references the style.
	InUse(ctx context.Context, id string) (bool, error)
}

// BeerRef is the minimal view of a beer touched by a bulk operation.
type BeerRef struct {
	ID   string
	Name string
}

// BeerRepository persists beers and their denormalized projections.
type BeerRepository interface {
	Create(ctx context.Context, b *domain.Beer) error

	// GetByID returns the beer joined with its image.
	GetByID(ctx context.Context, id string) (*domain.Beer, error)

	List(ctx context.Context, f BeerFilter) ([]domain.Beer, int, error)
	Update(ctx context.Context, b *domain.Beer) error
	Delete(ctx context.Context, id string) error

	// ListByBrewery returns every beer of a brewery.
	ListByBrewery(ctx context.Context, breweryID string) ([]BeerRef, error)

	// DeleteByBrewery removes every beer of a brewery and returns the count.
	DeleteByBrewery(ctx context.Context, breweryID string) (int64, error)

	// RenameBrewery rewrites brewery_name on the brewery's beers.
	RenameBrewery(ctx context.Context, breweryID, name string) ([]BeerRef, error)

	// SetOpinionStats overwrites rating and opinions_count. It reports
	// whether the beer exists.
	SetOpinionStats(ctx context.Context, beerID string, rating float64, count int) (bool, error)

	// SetFavoritesCount overwrites favorites_count. It reports whether the
	// beer exists.
	SetFavoritesCount(ctx context.Context, beerID string, count int) (bool, error)
}

// BeerImageRepository persists the 1:1 beer image record.
type BeerImageRepository interface {
	Get(ctx context.Context, beerID string) (*domain.BeerImage, error)
	Upsert(ctx context.Context, img *domain.BeerImage) error
}

// Set groups the repositories bound to one connection or transaction.
type Set struct {
	Breweries BreweryRepository
	Styles    BeerStyleRepository
	Beers     BeerRepository
	Images    BeerImageRepository
	Users     shadow.Repository
}

// Factory binds a Set to db, which is either the pool or an open transaction.
type Factory func(db database.DBTX) Set
