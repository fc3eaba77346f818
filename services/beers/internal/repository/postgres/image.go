package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/TomWia9/HoppyHub-sub002/pkg/database"
	apperrors "github.com/TomWia9/HoppyHub-sub002/pkg/errors"
	"github.com/TomWia9/HoppyHub-sub002/services/beers/internal/domain"
)

// BeerImageRepository implements repository.BeerImageRepository using PostgreSQL.
type BeerImageRepository struct {
	db database.DBTX
}

// NewBeerImageRepository creates a new PostgreSQL-backed beer image repository.
func NewBeerImageRepository(db database.DBTX) *BeerImageRepository {
	return &BeerImageRepository{db: db}
}

// Get returns the image record of a beer, locking it for the transaction.
func (r *BeerImageRepository) Get(ctx context.Context, beerID string) (*domain.BeerImage, error) {
	query := `SELECT beer_id, image_uri, temp_image, updated_at FROM beer_images WHERE beer_id = $1 FOR UPDATE`

	var img domain.BeerImage
	if err := r.db.QueryRow(ctx, query, beerID).Scan(&img.BeerID, &img.ImageURI, &img.TempImage, &img.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("beer image", beerID)
		}
		return nil, fmt.Errorf("get beer image: %w", err)
	}
	return &img, nil
}

// Upsert writes the image record, creating it when missing.
func (r *BeerImageRepository) Upsert(ctx context.Context, img *domain.BeerImage) error {
	query := `
		INSERT INTO beer_images (beer_id, image_uri, temp_image, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (beer_id) DO UPDATE
		SET image_uri = EXCLUDED.image_uri, temp_image = EXCLUDED.temp_image, updated_at = EXCLUDED.updated_at`

	if _, err := r.db.Exec(ctx, query, img.BeerID, img.ImageURI, img.TempImage, img.UpdatedAt); err != nil {
		if database.IsForeignKeyViolation(err) {
			return apperrors.NotFound("beer", img.BeerID)
		}
		return fmt.Errorf("upsert beer image: %w", err)
	}
	return nil
}
