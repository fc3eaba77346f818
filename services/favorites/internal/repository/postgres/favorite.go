package postgres

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/TomWia9/HoppyHub-sub002/pkg/database"
	apperrors "github.com/TomWia9/HoppyHub-sub002/pkg/errors"
	"github.com/TomWia9/HoppyHub-sub002/services/favorites/internal/domain"
	"github.com/TomWia9/HoppyHub-sub002/services/favorites/internal/repository"
)

// FavoriteRepository implements repository.FavoriteRepository using PostgreSQL.
type FavoriteRepository struct {
	db database.DBTX
}

// NewFavoriteRepository creates a new PostgreSQL-backed favorite repository.
func NewFavoriteRepository(db database.DBTX) *FavoriteRepository {
	return &FavoriteRepository{db: db}
}

// Create inserts a new favorite.
func (r *FavoriteRepository) Create(ctx context.Context, f *domain.Favorite) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO favorites (id, beer_id, user_id, created_at)
		VALUES ($1, $2, $3, $4)`, f.ID, f.BeerID, f.UserID, f.CreatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return apperrors.AlreadyExists("favorite", "beer_id", f.BeerID)
		}
		if database.IsForeignKeyViolation(err) {
			return apperrors.NotFound("beer", f.BeerID)
		}
		return fmt.Errorf("insert favorite: %w", err)
	}
	return nil
}

// Delete removes the favorite a user holds for a beer.
func (r *FavoriteRepository) Delete(ctx context.Context, userID, beerID string) error {
	ct, err := r.db.Exec(ctx, `DELETE FROM favorites WHERE user_id = $1 AND beer_id = $2`, userID, beerID)
	if err != nil {
		return fmt.Errorf("delete favorite: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("favorite", beerID)
	}
	return nil
}

// List returns favorites matching the filter with the total count.
func (r *FavoriteRepository) List(ctx context.Context, f repository.FavoriteFilter) (favorites []domain.Favorite, total int, err error) {
	query, args, err := listFavoritesSQL(f)
	if err != nil {
		return nil, 0, fmt.Errorf("build list favorites query: %w", err)
	}

	ctx, end := database.TraceQuery(ctx, "ListFavorites", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list favorites: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var fav domain.Favorite
		if err := rows.Scan(&fav.ID, &fav.BeerID, &fav.BeerName, &fav.UserID, &fav.CreatedAt, &total); err != nil {
			return nil, 0, fmt.Errorf("scan favorite row: %w", err)
		}
		favorites = append(favorites, fav)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate favorite rows: %w", err)
	}
	if favorites == nil {
		favorites = []domain.Favorite{}
	}
	return favorites, total, nil
}

func listFavoritesSQL(f repository.FavoriteFilter) (string, []any, error) {
	ds := dialect.From(goqu.T("favorites").As("f")).
		InnerJoin(goqu.T("beers").As("b"), goqu.On(goqu.I("b.id").Eq(goqu.I("f.beer_id")))).
		Select(
			goqu.I("f.id"), goqu.I("f.beer_id"), goqu.I("b.name"), goqu.I("f.user_id"), goqu.I("f.created_at"),
			goqu.L("count(*) OVER()").As("total_count"),
		).
		Prepared(true)

	var where []exp.Expression
	if f.UserID != nil {
		where = append(where, goqu.I("f.user_id").Eq(*f.UserID))
	}
	if f.BeerID != nil {
		where = append(where, goqu.I("f.beer_id").Eq(*f.BeerID))
	}
	if f.Search != "" {
		where = append(where, goqu.I("b.name").ILike("%"+f.Search+"%"))
	}
	if len(where) > 0 {
		ds = ds.Where(where...)
	}

	col := goqu.I("f." + domain.SortByCreatedAt)
	order := col.Asc()
	if f.Descending {
		order = col.Desc()
	}
	ds = ds.Order(order, goqu.I("f.id").Asc())

	if f.PerPage > 0 {
		ds = ds.Limit(uint(f.PerPage)).Offset(uint(f.Offset()))
	}
	return ds.ToSQL()
}

// Count returns the number of favorites of a beer.
func (r *FavoriteRepository) Count(ctx context.Context, beerID string) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM favorites WHERE beer_id = $1`, beerID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count favorites: %w", err)
	}
	return n, nil
}
