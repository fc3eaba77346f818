// Package service keeps the beer search projection and answers queries over it.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	apperrors "github.com/TomWia9/HoppyHub-sub002/pkg/errors"
	"github.com/TomWia9/HoppyHub-sub002/services/search/internal/domain"
	"github.com/TomWia9/HoppyHub-sub002/services/search/internal/engine"
)

const (
	defaultPerPage  = 20
	maxPerPage      = 100
	maxSuggestions  = 20
	reindexPageSize = 100
)

// Catalog is the source of truth for a full reindex.
type Catalog interface {
	ListBeers(ctx context.Context, page, perPage int) ([]domain.BeerDocument, bool, error)
}

// SearchService implements the search read side.
type SearchService struct {
	engine     engine.SearchEngine
	catalog    Catalog
	logger     *slog.Logger
	now        func() time.Time
	reindexing atomic.Bool
}

// NewSearchService creates a new search service. catalog may be nil, which
// disables reindexing.
func NewSearchService(eng engine.SearchEngine, catalog Catalog, logger *slog.Logger) *SearchService {
	return &SearchService{
		engine:  eng,
		catalog: catalog,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Search executes a query, filling in paging and sort defaults.
func (s *SearchService) Search(ctx context.Context, q *domain.Query) (*domain.Result, error) {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.PerPage <= 0 {
		q.PerPage = defaultPerPage
	}
	if q.PerPage > maxPerPage {
		q.PerPage = maxPerPage
	}
	if q.SortBy == "" {
		q.SortBy = domain.SortRelevance
	}

	result, err := s.engine.Search(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	s.logger.DebugContext(ctx, "search executed",
		slog.String("query", q.Text),
		slog.Int("total", result.Total),
		slog.Int64("took_ms", result.TookMs),
	)
	return result, nil
}

// Suggest returns beer names for an autocomplete box. An empty prefix
// suggests nothing.
func (s *SearchService) Suggest(ctx context.Context, prefix string, limit int) ([]string, error) {
	if prefix == "" {
		return []string{}, nil
	}
	if limit <= 0 || limit > maxSuggestions {
		limit = maxSuggestions
	}
	names, err := s.engine.Suggest(ctx, prefix, limit)
	if err != nil {
		return nil, fmt.Errorf("suggest: %w", err)
	}
	return names, nil
}

// GetBeer returns one indexed beer.
func (s *SearchService) GetBeer(ctx context.Context, id string) (*domain.BeerDocument, error) {
	doc, err := s.engine.Get(ctx, id)
	if errors.Is(err, engine.ErrNotFound) {
		return nil, apperrors.NotFound("beer", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get beer %s: %w", id, err)
	}
	return doc, nil
}

// Reindex replaces every document with the beers service's current view,
// page by page. Only one reindex runs at a time. Documents of beers deleted
// while events were missed are not removed.
func (s *SearchService) Reindex(ctx context.Context) (int, error) {
	if err := s.acquireReindex(); err != nil {
		return 0, err
	}
	defer s.reindexing.Store(false)
	return s.reindex(ctx)
}

// StartReindex runs Reindex in the background. ctx must outlive the caller's
// request.
func (s *SearchService) StartReindex(ctx context.Context) error {
	if err := s.acquireReindex(); err != nil {
		return err
	}
	go func() {
		defer s.reindexing.Store(false)
		if _, err := s.reindex(ctx); err != nil {
			s.logger.ErrorContext(ctx, "reindex failed", slog.String("error", err.Error()))
		}
	}()
	return nil
}

func (s *SearchService) acquireReindex() error {
	if s.catalog == nil {
		return apperrors.InvalidInput("reindexing is not configured")
	}
	if !s.reindexing.CompareAndSwap(false, true) {
		return apperrors.Conflict("a reindex is already running")
	}
	return nil
}

func (s *SearchService) reindex(ctx context.Context) (int, error) {
	start := time.Now()
	indexed := 0
	for page := 1; ; page++ {
		docs, more, err := s.catalog.ListBeers(ctx, page, reindexPageSize)
		if err != nil {
			return indexed, fmt.Errorf("reindex page %d: %w", page, err)
		}
		if err := s.engine.BulkIndex(ctx, docs); err != nil {
			return indexed, fmt.Errorf("reindex page %d: %w", page, err)
		}
		indexed += len(docs)
		if !more || len(docs) == 0 {
			break
		}
	}

	s.logger.InfoContext(ctx, "reindex completed",
		slog.Int("indexed", indexed),
		slog.Duration("took", time.Since(start)),
	)
	return indexed, nil
}

// Reindexing reports whether a reindex is in progress.
func (s *SearchService) Reindexing() bool {
	return s.reindexing.Load()
}
