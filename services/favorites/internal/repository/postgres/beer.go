package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/jackc/pgx/v5"

	"github.com/TomWia9/HoppyHub-sub002/pkg/database"
	apperrors "github.com/TomWia9/HoppyHub-sub002/pkg/errors"
	"github.com/TomWia9/HoppyHub-sub002/services/favorites/internal/domain"
)

// BeerRepository implements repository.BeerRepository using PostgreSQL.
type BeerRepository struct {
	db database.DBTX
}

// NewBeerRepository creates a new PostgreSQL-backed beer projection repository.
func NewBeerRepository(db database.DBTX) *BeerRepository {
	return &BeerRepository{db: db}
}

const beerSelect = `
		SELECT id, name, brewery_id, brewery_name, favorites_count, updated_at
		FROM beers
		WHERE id = $1`

func (r *BeerRepository) get(ctx context.Context, query, id string) (*domain.Beer, error) {
	var b domain.Beer
	err := r.db.QueryRow(ctx, query, id).
		Scan(&b.ID, &b.Name, &b.BreweryID, &b.BreweryName, &b.FavoritesCount, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("beer", id)
		}
		return nil, fmt.Errorf("get beer: %w", err)
	}
	return &b, nil
}

// GetByID retrieves a beer projection.
func (r *BeerRepository) GetByID(ctx context.Context, id string) (*domain.Beer, error) {
	return r.get(ctx, beerSelect, id)
}

// Lock retrieves a beer projection with SELECT ... FOR UPDATE.
func (r *BeerRepository) Lock(ctx context.Context, id string) (*domain.Beer, error) {
	return r.get(ctx, beerSelect+` FOR UPDATE`, id)
}

// Upsert inserts a beer or refreshes its catalog fields.
func (r *BeerRepository) Upsert(ctx context.Context, b *domain.Beer) error {
	query := `
		INSERT INTO beers (id, name, brewery_id, brewery_name, favorites_count, updated_at)
		VALUES ($1, $2, $3, $4, 0, $5)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, brewery_id = EXCLUDED.brewery_id,
		    brewery_name = EXCLUDED.brewery_name, updated_at = EXCLUDED.updated_at`

	if _, err := r.db.Exec(ctx, query, b.ID, b.Name, b.BreweryID, b.BreweryName, b.UpdatedAt); err != nil {
		return fmt.Errorf("upsert beer: %w", err)
	}
	return nil
}

// SetFavoritesCount overwrites the favorites count of a beer.
func (r *BeerRepository) SetFavoritesCount(ctx context.Context, id string, count int) error {
	ct, err := r.db.Exec(ctx, `
		UPDATE beers SET favorites_count = $1, updated_at = NOW()
		WHERE id = $2`, count, id)
	if err != nil {
		return fmt.Errorf("set favorites count: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("beer", id)
	}
	return nil
}

// RenameBrewery refreshes the denormalized brewery name.
func (r *BeerRepository) RenameBrewery(ctx context.Context, breweryID, name string) (int64, error) {
	ct, err := r.db.Exec(ctx, `
		UPDATE beers SET brewery_name = $1, updated_at = NOW()
		WHERE brewery_id = $2`, name, breweryID)
	if err != nil {
		return 0, fmt.Errorf("rename brewery on beers: %w", err)
	}
	return ct.RowsAffected(), nil
}

// Delete removes a beer. Its favorites go with it through the foreign key.
func (r *BeerRepository) Delete(ctx context.Context, id string) (bool, error) {
	ct, err := r.db.Exec(ctx, `DELETE FROM beers WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete beer: %w", err)
	}
	return ct.RowsAffected() > 0, nil
}

// DeleteByBrewery removes every beer of a brewery in one statement.
func (r *BeerRepository) DeleteByBrewery(ctx context.Context, breweryID string) (n int64, err error) {
	query, args, err := dialect.Delete("beers").
		Where(goqu.C("brewery_id").Eq(breweryID)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build delete beers query: %w", err)
	}

	ctx, end := database.TraceQuery(ctx, "DeleteBeersByBrewery", query)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete beers of brewery: %w", err)
	}
	return ct.RowsAffected(), nil
}
