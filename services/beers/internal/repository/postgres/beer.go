package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jackc/pgx/v5"

	"github.com/TomWia9/HoppyHub-sub002/pkg/database"
	apperrors "github.com/TomWia9/HoppyHub-sub002/pkg/errors"
	"github.com/TomWia9/HoppyHub-sub002/services/beers/internal/domain"
	"github.com/TomWia9/HoppyHub-sub002/services/beers/internal/repository"
)

// BeerRepository implements repository.BeerRepository using PostgreSQL.
type BeerRepository struct {
	db database.DBTX
}

// NewBeerRepository creates a new PostgreSQL-backed beer repository.
func NewBeerRepository(db database.DBTX) *BeerRepository {
	return &BeerRepository{db: db}
}

const beerSelect = `
		SELECT b.id, b.name, b.brewery_id, b.brewery_name, b.beer_style_id, b.alcohol_by_volume,
		       b.description, b.composition, b.blg, b.ibu, b.release_date,
		       b.rating, b.opinions_count, b.favorites_count,
		       COALESCE(i.image_uri, ''), COALESCE(i.temp_image, TRUE),
		       b.created_by, b.created_at, b.updated_at
		FROM beers b
		LEFT JOIN beer_images i ON i.beer_id = b.id`

// beerListColumns mirrors beerSelect for the goqu list query.
var beerListColumns = []any{
	goqu.I("b.id"), goqu.I("b.name"), goqu.I("b.brewery_id"), goqu.I("b.brewery_name"),
	goqu.I("b.beer_style_id"), goqu.I("b.alcohol_by_volume"),
	goqu.I("b.description"), goqu.I("b.composition"), goqu.I("b.blg"), goqu.I("b.ibu"), goqu.I("b.release_date"),
	goqu.I("b.rating"), goqu.I("b.opinions_count"), goqu.I("b.favorites_count"),
	goqu.L("COALESCE(i.image_uri, '')").As("image_uri"), goqu.L("COALESCE(i.temp_image, TRUE)").As("temp_image"),
	goqu.I("b.created_by"), goqu.I("b.created_at"), goqu.I("b.updated_at"),
	goqu.L("count(*) OVER()").As("total_count"),
}

func beerDest(b *domain.Beer) []any {
	return []any{
		&b.ID, &b.Name, &b.BreweryID, &b.BreweryName, &b.BeerStyleID, &b.AlcoholByVolume,
		&b.Description, &b.Composition, &b.Blg, &b.Ibu, &b.ReleaseDate,
		&b.Rating, &b.OpinionsCount, &b.FavoritesCount,
		&b.ImageURI, &b.TempImage,
		&b.CreatedBy, &b.CreatedAt, &b.UpdatedAt,
	}
}

// Create inserts a new beer. The image record is written separately.
func (r *BeerRepository) Create(ctx context.Context, b *domain.Beer) error {
	query := `
		INSERT INTO beers (id, name, brewery_id, brewery_name, beer_style_id, alcohol_by_volume,
		                   description, composition, blg, ibu, release_date,
		                   rating, opinions_count, favorites_count, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`

	_, err := r.db.Exec(ctx, query,
		b.ID, b.Name, b.BreweryID, b.BreweryName, b.BeerStyleID, b.AlcoholByVolume,
		b.Description, b.Composition, b.Blg, b.Ibu, b.ReleaseDate,
		b.Rating, b.OpinionsCount, b.FavoritesCount, b.CreatedBy, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return apperrors.AlreadyExists("beer", "name", b.Name)
		}
		if database.IsForeignKeyViolation(err) {
			return apperrors.NotFound("brewery", b.BreweryID)
		}
		return fmt.Errorf("insert beer: %w", err)
	}
	return nil
}

// GetByID retrieves a beer with its image.
func (r *BeerRepository) GetByID(ctx context.Context, id string) (*domain.Beer, error) {
	var b domain.Beer
	if err := r.db.QueryRow(ctx, beerSelect+` WHERE b.id = $1`, id).Scan(beerDest(&b)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("beer", id)
		}
		return nil, fmt.Errorf("get beer: %w", err)
	}
	return &b, nil
}

// List returns beers matching the filter with the total count.
func (r *BeerRepository) List(ctx context.Context, f repository.BeerFilter) (beers []domain.Beer, total int, err error) {
	query, args, err := listBeersSQL(f)
	if err != nil {
		return nil, 0, fmt.Errorf("build list beers query: %w", err)
	}

	ctx, end := database.TraceQuery(ctx, "ListBeers", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list beers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var b domain.Beer
		if err := rows.Scan(append(beerDest(&b), &total)...); err != nil {
			return nil, 0, fmt.Errorf("scan beer row: %w", err)
		}
		beers = append(beers, b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate beer rows: %w", err)
	}

	if beers == nil {
		beers = []domain.Beer{}
	}
	return beers, total, nil
}

func listBeersSQL(f repository.BeerFilter) (string, []any, error) {
	ds := dialect.From(goqu.T("beers").As("b")).
		LeftJoin(goqu.T("beer_images").As("i"), goqu.On(goqu.I("i.beer_id").Eq(goqu.I("b.id")))).
		Select(beerListColumns...).
		Prepared(true)

	var where []exp.Expression
	if f.BreweryID != nil {
		where = append(where, goqu.I("b.brewery_id").Eq(*f.BreweryID))
	}
	if f.BeerStyleID != nil {
		where = append(where, goqu.I("b.beer_style_id").Eq(*f.BeerStyleID))
	}
	if f.MinABV != nil {
		where = append(where, goqu.I("b.alcohol_by_volume").Gte(*f.MinABV))
	}
	if f.MaxABV != nil {
		where = append(where, goqu.I("b.alcohol_by_volume").Lte(*f.MaxABV))
	}
	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		where = append(where, goqu.Or(
			goqu.I("b.name").ILike(pattern),
			goqu.I("b.brewery_name").ILike(pattern),
		))
	}
	if len(where) > 0 {
		ds = ds.Where(where...)
	}

	sortBy := f.SortBy
	if sortBy == "" {
		sortBy = domain.SortByName
	}
	col := goqu.I("b." + sortBy)
	order := col.Asc().NullsLast()
	if f.Descending {
		order = col.Desc().NullsLast()
	}

	ds = ds.Order(order, goqu.I("b.id").Asc())
	if f.PerPage > 0 {
		ds = ds.Limit(uint(f.PerPage)).Offset(uint(f.Offset()))
	}
	return ds.ToSQL()
}

// Update modifies the mutable beer fields. Projections are left untouched.
func (r *BeerRepository) Update(ctx context.Context, b *domain.Beer) error {
	query := `
		UPDATE beers
		SET name = $1, brewery_id = $2, brewery_name = $3, beer_style_id = $4, alcohol_by_volume = $5,
		    description = $6, composition = $7, blg = $8, ibu = $9, release_date = $10, updated_at = $11
		WHERE id = $12`

	ct, err := r.db.Exec(ctx, query,
		b.Name, b.BreweryID, b.BreweryName, b.BeerStyleID, b.AlcoholByVolume,
		b.Description, b.Composition, b.Blg, b.Ibu, b.ReleaseDate, b.UpdatedAt, b.ID,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return apperrors.AlreadyExists("beer", "name", b.Name)
		}
		return fmt.Errorf("update beer: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("beer", b.ID)
	}
	return nil
}

// Delete removes a beer; its image row goes with it.
func (r *BeerRepository) Delete(ctx context.Context, id string) error {
	ct, err := r.db.Exec(ctx, `DELETE FROM beers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete beer: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("beer", id)
	}
	return nil
}

// ListByBrewery returns id and name of every beer of a brewery.
func (r *BeerRepository) ListByBrewery(ctx context.Context, breweryID string) ([]repository.BeerRef, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name FROM beers WHERE brewery_id = $1 ORDER BY id`, breweryID)
	if err != nil {
		return nil, fmt.Errorf("list beers of brewery: %w", err)
	}
	return collectRefs(rows)
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

// RenameBrewery refreshes the denormalized brewery name on its beers.
func (r *BeerRepository) RenameBrewery(ctx context.Context, breweryID, name string) ([]repository.BeerRef, error) {
	rows, err := r.db.Query(ctx, `
		UPDATE beers SET brewery_name = $1, updated_at = NOW()
		WHERE brewery_id = $2
		RETURNING id, name`, name, breweryID)
	if err != nil {
		return nil, fmt.Errorf("rename brewery on beers: %w", err)
	}
	return collectRefs(rows)
}

// SetOpinionStats overwrites the opinion projection of a beer.
func (r *BeerRepository) SetOpinionStats(ctx context.Context, beerID string, rating float64, count int) (bool, error) {
	ct, err := r.db.Exec(ctx, `
		UPDATE beers SET rating = $1, opinions_count = $2, updated_at = NOW()
		WHERE id = $3`, rating, count, beerID)
	if err != nil {
		return false, fmt.Errorf("set opinion stats: %w", err)
	}
	return ct.RowsAffected() > 0, nil
}

// SetFavoritesCount overwrites the favorites projection of a beer.
func (r *BeerRepository) SetFavoritesCount(ctx context.Context, beerID string, count int) (bool, error) {
	ct, err := r.db.Exec(ctx, `
		UPDATE beers SET favorites_count = $1, updated_at = NOW()
		WHERE id = $2`, count, beerID)
	if err != nil {
		return false, fmt.Errorf("set favorites count: %w", err)
	}
	return ct.RowsAffected() > 0, nil
}

func collectRefs(rows pgx.Rows) ([]repository.BeerRef, error) {
	defer rows.Close()

	refs := []repository.BeerRef{}
	for rows.Next() {
		var ref repository.BeerRef
		if err := rows.Scan(&ref.ID, &ref.Name); err != nil {
			return nil, fmt.Errorf("scan beer ref: %w", err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate beer refs: %w", err)
	}
	return refs, nil
}
