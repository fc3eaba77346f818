package engine

import (
	"context"
	"errors"

	"github.com/TomWia9/HoppyHub-sub002/services/search/internal/domain"
)

// ErrNotFound is returned by Get for an unknown or not yet described beer.
var ErrNotFound = errors.New("document not found")

// SearchEngine stores beer documents and answers queries over them.
// Implementations may use Elasticsearch or in-memory storage.
type SearchEngine interface {
	// Patch applies p to the document id, creating it when absent.
	Patch(ctx context.Context, id string, p *domain.Patch) error

	// Delete removes the document id. A missing document is not an error.
	Delete(ctx context.Context, id string) error

	// DeleteByBrewery removes every document of the brewery and returns how
	// many were removed.
	DeleteByBrewery(ctx context.Context, breweryID string) (int, error)

	// Get returns one searchable document.
	Get(ctx context.Context, id string) (*domain.BeerDocument, error)

	// Search returns the searchable documents matching q.
	Search(ctx context.Context, q *domain.Query) (*domain.Result, error)

	// Suggest returns up to limit distinct beer names starting with prefix.
	Suggest(ctx context.Context, prefix string, limit int) ([]string, error)

	// BulkIndex replaces whole documents.
	BulkIndex(ctx context.Context, docs []domain.BeerDocument) error
}
