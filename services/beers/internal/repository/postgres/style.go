package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/TomWia9/HoppyHub-sub002/pkg/database"
	apperrors "github.com/TomWia9/HoppyHub-sub002/pkg/errors"
	"github.com/TomWia9/HoppyHub-sub002/pkg/pagination"
	"github.com/TomWia9/HoppyHub-sub002/services/beers/internal/domain"
)

// BeerStyleRepository implements repository.BeerStyleRepository using PostgreSQL.
type BeerStyleRepository struct {
	db database.DBTX
}

// NewBeerStyleRepository creates a new PostgreSQL-backed beer style repository.
func NewBeerStyleRepository(db database.DBTX) *BeerStyleRepository {
	return &BeerStyleRepository{db: db}
}

// Create inserts a new beer style.
func (r *BeerStyleRepository) Create(ctx context.Context, s *domain.BeerStyle) error {
	query := `
		INSERT INTO beer_styles (id, name, description, country_of_origin, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	if _, err := r.db.Exec(ctx, query, s.ID, s.Name, s.Description, s.CountryOfOrigin, s.CreatedAt); err != nil {
		if database.IsUniqueViolation(err) {
			return apperrors.AlreadyExists("beer style", "name", s.Name)
		}
		return fmt.Errorf("insert beer style: %w", err)
	}
	return nil
}

// GetByID retrieves a beer style by its ID.
func (r *BeerStyleRepository) GetByID(ctx context.Context, id string) (*domain.BeerStyle, error) {
	query := `SELECT id, name, description, country_of_origin, created_at FROM beer_styles WHERE id = $1`

	var s domain.BeerStyle
	if err := r.db.QueryRow(ctx, query, id).Scan(&s.ID, &s.Name, &s.Description, &s.CountryOfOrigin, &s.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("beer style", id)
		}
		return nil, fmt.Errorf("get beer style: %w", err)
	}
	return &s, nil
}

// List returns beer styles ordered by name.
func (r *BeerStyleRepository) List(ctx context.Context, p pagination.Params) ([]domain.BeerStyle, int, error) {
	query := `
		SELECT id, name, description, country_of_origin, created_at, count(*) OVER() AS total_count
		FROM beer_styles
		WHERE ($1 = '' OR name ILIKE '%' || $1 || '%')
		ORDER BY name
		LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(ctx, query, p.Search, p.PerPage, p.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list beer styles: %w", err)
	}
	defer rows.Close()

	var (
		styles []domain.BeerStyle
		total  int
	)
	for rows.Next() {
		var s domain.BeerStyle
		if err := rows.Scan(&s.ID, &s.Name, &s.Description, &s.CountryOfOrigin, &s.CreatedAt, &total); err != nil {
			return nil, 0, fmt.Errorf("scan beer style row: %w", err)
		}
		styles = append(styles, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate beer style rows: %w", err)
	}

	if styles == nil {
		styles = []domain.BeerStyle{}
	}
	return styles, total, nil
}

// Delete removes a beer style by its ID.
func (r *BeerStyleRepository) Delete(ctx context.Context, id string) error {
	ct, err := r.db.Exec(ctx, `DELETE FROM beer_styles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete beer style: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("beer style", id)
	}
	return nil
}

// InUse reports whether any beer references the style.
func (r *BeerStyleRepository) InUse(ctx context.Context, id string) (bool, error) {
	var used bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM beers WHERE beer_style_id = $1)`, id).Scan(&used); err != nil {
		return false, fmt.Errorf("check beer style usage: %w", err)
	}
	return used, nil
}
