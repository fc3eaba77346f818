package repository

import (
	"context"

	"github.com/TomWia9/HoppyHub-sub002/pkg/database"
	"github.com/TomWia9/HoppyHub-sub002/services/images/internal/domain"
)

// ImageRepository defines the interface for image metadata persistence.
type ImageRepository interface {
	// Upsert inserts the image or replaces the one stored at the same path.
	// created_at survives a replacement.
	Upsert(ctx context.Context, img *domain.Image) error

	// GetByPath retrieves an image by its path.
	GetByPath(ctx context.Context, path string) (*domain.Image, error)

	// GetByURI retrieves an image by its public URI.
	GetByURI(ctx context.Context, uri string) (*domain.Image, error)

	// Delete removes the image stored at path.
	Delete(ctx context.Context, path string) error

	// DeleteUnder removes every image at or beneath prefix and returns the
	// removed paths.
	DeleteUnder(ctx context.Context, prefix string) ([]string, error)
}

// Set groups the repositories bound to one connection or transaction.
type Set struct {
	Images ImageRepository
}

// Factory binds a Set to db, which is either the pool or an open transaction.
type Factory func(db database.DBTX) Set
