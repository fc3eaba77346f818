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
	"github.com/TomWia9/HoppyHub-sub002/services/opinions/internal/domain"
	"github.com/TomWia9/HoppyHub-sub002/services/opinions/internal/repository"
)

// OpinionRepository implements repository.OpinionRepository using PostgreSQL.
type OpinionRepository struct {
	db database.DBTX
}

// NewOpinionRepository creates a new PostgreSQL-backed opinion repository.
func NewOpinionRepository(db database.DBTX) *OpinionRepository {
	return &OpinionRepository{db: db}
}

const opinionSelect = `
		SELECT o.id, o.beer_id, o.user_id, COALESCE(u.username, ''), o.rating, o.comment, o.image_uri,
		       o.created_at, o.updated_at
		FROM opinions o
		LEFT JOIN users u ON u.id = o.user_id`

var opinionListColumns = []any{
	goqu.I("o.id"), goqu.I("o.beer_id"), goqu.I("o.user_id"),
	goqu.L("COALESCE(u.username, '')").As("username"),
	goqu.I("o.rating"), goqu.I("o.comment"), goqu.I("o.image_uri"),
	goqu.I("o.created_at"), goqu.I("o.updated_at"),
	goqu.L("count(*) OVER()").As("total_count"),
}

func opinionDest(o *domain.Opinion) []any {
	return []any{
		&o.ID, &o.BeerID, &o.UserID, &o.Username, &o.Rating, &o.Comment, &o.ImageURI,
		&o.CreatedAt, &o.UpdatedAt,
	}
}

// Create inserts a new opinion.
func (r *OpinionRepository) Create(ctx context.Context, o *domain.Opinion) error {
	query := `
		INSERT INTO opinions (id, beer_id, user_id, rating, comment, image_uri, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.Exec(ctx, query,
		o.ID, o.BeerID, o.UserID, o.Rating, o.Comment, o.ImageURI, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return apperrors.AlreadyExists("opinion", "beer_id", o.BeerID)
		}
		if database.IsForeignKeyViolation(err) {
			return apperrors.NotFound("beer", o.BeerID)
		}
		return fmt.Errorf("insert opinion: %w", err)
	}
	return nil
}

// GetByID retrieves an opinion with its author's username.
func (r *OpinionRepository) GetByID(ctx context.Context, id string) (*domain.Opinion, error) {
	var o domain.Opinion
	if err := r.db.QueryRow(ctx, opinionSelect+` WHERE o.id = $1`, id).Scan(opinionDest(&o)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("opinion", id)
		}
		return nil, fmt.Errorf("get opinion: %w", err)
	}
	return &o, nil
}

// List returns opinions matching the filter with the total count.
func (r *OpinionRepository) List(ctx context.Context, f repository.OpinionFilter) (opinions []domain.Opinion, total int, err error) {
	query, args, err := listOpinionsSQL(f)
	if err != nil {
		return nil, 0, fmt.Errorf("build list opinions query: %w", err)
	}

	ctx, end := database.TraceQuery(ctx, "ListOpinions", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list opinions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var o domain.Opinion
		if err := rows.Scan(append(opinionDest(&o), &total)...); err != nil {
			return nil, 0, fmt.Errorf("scan opinion row: %w", err)
		}
		opinions = append(opinions, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate opinion rows: %w", err)
	}

	if opinions == nil {
		opinions = []domain.Opinion{}
	}
	return opinions, total, nil
}

func listOpinionsSQL(f repository.OpinionFilter) (string, []any, error) {
	ds := dialect.From(goqu.T("opinions").As("o")).
		LeftJoin(goqu.T("users").As("u"), goqu.On(goqu.I("u.id").Eq(goqu.I("o.user_id")))).
		Select(opinionListColumns...).
		Prepared(true)

	var where []exp.Expression
	if f.BeerID != nil {
		where = append(where, goqu.I("o.beer_id").Eq(*f.BeerID))
	}
	if f.UserID != nil {
		where = append(where, goqu.I("o.user_id").Eq(*f.UserID))
	}
	if f.MinRating != nil {
		where = append(where, goqu.I("o.rating").Gte(*f.MinRating))
	}
	if f.MaxRating != nil {
		where = append(where, goqu.I("o.rating").Lte(*f.MaxRating))
	}
	if f.Search != "" {
		where = append(where, goqu.I("o.comment").ILike("%"+f.Search+"%"))
	}
	if len(where) > 0 {
		ds = ds.Where(where...)
	}

	sortBy := f.SortBy
	if sortBy == "" {
		sortBy = domain.SortByCreatedAt
	}
	col := goqu.I("o." + sortBy)
	order := col.Asc()
	if f.Descending {
		order = col.Desc()
	}

	ds = ds.Order(order, goqu.I("o.id").Asc())
	if f.PerPage > 0 {
		ds = ds.Limit(uint(f.PerPage)).Offset(uint(f.Offset()))
	}
	return ds.ToSQL()
}

// Update writes rating, comment and image.
func (r *OpinionRepository) Update(ctx context.Context, o *domain.Opinion) error {
	ct, err := r.db.Exec(ctx, `
		UPDATE opinions SET rating = $1, comment = $2, image_uri = $3, updated_at = $4
		WHERE id = $5`, o.Rating, o.Comment, o.ImageURI, o.UpdatedAt, o.ID)
	if err != nil {
		return fmt.Errorf("update opinion: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("opinion", o.ID)
	}
	return nil
}

// Delete removes an opinion.
func (r *OpinionRepository) Delete(ctx context.Context, id string) error {
	ct, err := r.db.Exec(ctx, `DELETE FROM opinions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete opinion: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("opinion", id)
	}
	return nil
}

// Ratings returns every rating given to a beer.
func (r *OpinionRepository) Ratings(ctx context.Context, beerID string) (ratings []int, err error) {
	const query = `SELECT rating FROM opinions WHERE beer_id = $1`

	ctx, end := database.TraceQuery(ctx, "OpinionRatings", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query, beerID)
	if err != nil {
		return nil, fmt.Errorf("read ratings: %w", err)
	}
	ratings, err = pgx.CollectRows(rows, pgx.RowTo[int])
	if err != nil {
		return nil, fmt.Errorf("collect ratings: %w", err)
	}
	return ratings, nil
}
