package http

import (
	"context"
	"log/slog"

	"github.com/TomWia9/HoppyHub-sub002/services/search/internal/domain"
)

// Searcher is the search read side plus the reindex trigger.
type Searcher interface {
	Search(ctx context.Context, q *domain.Query) (*domain.Result, error)
	Suggest(ctx context.Context, prefix string, limit int) ([]string, error)
	GetBeer(ctx context.Context, id string) (*domain.BeerDocument, error)
	StartReindex(ctx context.Context) error
}

// Handler serves the search API.
type Handler struct {
	searcher Searcher
	logger   *slog.Logger
}

// NewHandler creates the search HTTP handler.
func NewHandler(searcher Searcher, logger *slog.Logger) *Handler {
	return &Handler{searcher: searcher, logger: logger}
}
