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

// BreweryRepository implements repository.BreweryRepository using PostgreSQL.
type BreweryRepository struct {
	db database.DBTX
}

// NewBreweryRepository creates a new PostgreSQL-backed brewery repository.
func NewBreweryRepository(db database.DBTX) *BreweryRepository {
	return &BreweryRepository{db: db}
}

const breweryColumns = `id, name, description, foundation_year, website_url, city, country, created_at, updated_at`

// breweryOrder maps sort keys to columns.
var breweryOrder = map[string]string{
	domain.SortByName:           "name",
	domain.SortByFoundationYear: "foundation_year",
	domain.SortByCreatedAt:      "created_at",
}

// Create inserts a new brewery.
func (r *BreweryRepository) Create(ctx context.Context, b *domain.Brewery) error {
	query := `
		INSERT INTO breweries (` + breweryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.Exec(ctx, query,
		b.ID, b.Name, b.Description, b.FoundationYear, b.WebsiteURL, b.City, b.Country, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return apperrors.AlreadyExists("brewery", "name", b.Name)
		}
		return fmt.Errorf("insert brewery: %w", err)
	}
	return nil
}

// GetByID retrieves a brewery by its ID.
func (r *BreweryRepository) GetByID(ctx context.Context, id string) (*domain.Brewery, error) {
	query := `SELECT ` + breweryColumns + ` FROM breweries WHERE id = $1`

	var b domain.Brewery
	err := r.db.QueryRow(ctx, query, id).Scan(
		&b.ID, &b.Name, &b.Description, &b.FoundationYear, &b.WebsiteURL, &b.City, &b.Country, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("brewery", id)
		}
		return nil, fmt.Errorf("get brewery: %w", err)
	}
	return &b, nil
}

// List returns a page of breweries with the total count.
func (r *BreweryRepository) List(ctx context.Context, p pagination.Params) ([]domain.Brewery, int, error) {
	order, ok := breweryOrder[p.SortBy]
	if !ok {
		order = "name"
	}
	direction := "ASC"
	if p.Descending {
		direction = "DESC"
	}

	query := fmt.Sprintf(`
		SELECT %s, count(*) OVER() AS total_count
		FROM breweries
		WHERE ($1 = '' OR name ILIKE '%%' || $1 || '%%' OR city ILIKE '%%' || $1 || '%%')
		ORDER BY %s %s, id
		LIMIT $2 OFFSET $3`, breweryColumns, order, direction)

	rows, err := r.db.Query(ctx, query, p.Search, p.PerPage, p.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list breweries: %w", err)
	}
	defer rows.Close()

	var (
		breweries []domain.Brewery
		total     int
	)
	for rows.Next() {
		var b domain.Brewery
		if err := rows.Scan(
			&b.ID, &b.Name, &b.Description, &b.FoundationYear, &b.WebsiteURL, &b.City, &b.Country, &b.CreatedAt, &b.UpdatedAt,
			&total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan brewery row: %w", err)
		}
		breweries = append(breweries, b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate brewery rows: %w", err)
	}

	if breweries == nil {
		breweries = []domain.Brewery{}
	}
	return breweries, total, nil
}

// Update modifies an existing brewery.
func (r *BreweryRepository) Update(ctx context.Context, b *domain.Brewery) error {
	query := `
		UPDATE breweries
		SET name = $1, description = $2, foundation_year = $3, website_url = $4,
		    city = $5, country = $6, updated_at = $7
		WHERE id = $8`

	ct, err := r.db.Exec(ctx, query,
		b.Name, b.Description, b.FoundationYear, b.WebsiteURL, b.City, b.Country, b.UpdatedAt, b.ID,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return apperrors.AlreadyExists("brewery", "name", b.Name)
		}
		return fmt.Errorf("update brewery: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("brewery", b.ID)
	}
	return nil
}

// Delete removes a brewery by its ID.
func (r *BreweryRepository) Delete(ctx context.Context, id string) error {
	ct, err := r.db.Exec(ctx, `DELETE FROM breweries WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete brewery: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("brewery", id)
	}
	return nil
}
