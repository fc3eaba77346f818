package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/TomWia9/HoppyHub-sub002/services/search/internal/domain"
	"github.com/TomWia9/HoppyHub-sub002/services/search/internal/engine"
)

// Engine is an in-memory implementation of the SearchEngine interface with
// case-insensitive substring matching on beer and brewery names.
// Thread-safe via sync.RWMutex.
type Engine struct {
	mu   sync.RWMutex
	docs map[string]domain.BeerDocument
}

// New creates a new in-memory search engine.
func New() *Engine {
	return &Engine{
		docs: make(map[string]domain.BeerDocument),
	}
}

// Patch applies p to the stored document, creating an empty one first.
func (e *Engine) Patch(_ context.Context, id string, p *domain.Patch) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	doc, ok := e.docs[id]
	if !ok {
		doc = domain.BeerDocument{ID: id}
	}
	p.Apply(&doc)
	e.docs[id] = doc
	return nil
}

// Delete removes a document by its ID.
func (e *Engine) Delete(_ context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	delete(e.docs, id)
	return nil
}

// DeleteByBrewery removes every document of breweryID.
func (e *Engine) DeleteByBrewery(_ context.Context, breweryID string) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	n := 0
	for id, doc := range e.docs {
		if doc.BreweryID == breweryID {
			delete(e.docs, id)
			n++
		}
	}
	return n, nil
}

// Get returns the document id if it is searchable.
func (e *Engine) Get(_ context.Context, id string) (*domain.BeerDocument, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	doc, ok := e.docs[id]
	if !ok || !doc.Searchable() {
		return nil, engine.ErrNotFound
	}
	return &doc, nil
}

type hit struct {
	doc   domain.BeerDocument
	score int
}

// Search executes a query against the in-memory index.
func (e *Engine) Search(_ context.Context, q *domain.Query) (*domain.Result, error) {
	start := time.Now()
	text := strings.ToLower(strings.TrimSpace(q.Text))

	e.mu.RLock()
	hits := make([]hit, 0)
	for _, doc := range e.docs {
		if !doc.Searchable() || !matchesFilters(doc, q) {
			continue
		}
		score := relevance(doc, text)
		if score == 0 {
			continue
		}
		hits = append(hits, hit{doc: doc, score: score})
	}
	e.mu.RUnlock()

	slices.SortFunc(hits, compareHits(q))

	total := len(hits)
	from := min(q.Offset(), total)
	to := min(from+q.PerPage, total)

	beers := make([]domain.BeerDocument, 0, to-from)
	for _, h := range hits[from:to] {
		beers = append(beers, h.doc)
	}

	return &domain.Result{
		Beers:   beers,
		Total:   total,
		Page:    q.Page,
		PerPage: q.PerPage,
		TookMs:  time.Since(start).Milliseconds(),
	}, nil
}

// Suggest returns names whose words start with prefix, most opinions first.
func (e *Engine) Suggest(_ context.Context, prefix string, limit int) ([]string, error) {
	prefix = strings.ToLower(strings.TrimSpace(prefix))

	e.mu.RLock()
	var matched []domain.BeerDocument
	for _, doc := range e.docs {
		if doc.Searchable() && wordPrefix(strings.ToLower(doc.Name), prefix) {
			matched = append(matched, doc)
		}
	}
	e.mu.RUnlock()

	slices.SortFunc(matched, func(a, b domain.BeerDocument) int {
		if c := cmp.Compare(b.OpinionsCount, a.OpinionsCount); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})

	seen := make(map[string]struct{})
	names := make([]string, 0, limit)
	for _, doc := range matched {
		if len(names) == limit {
			break
		}
		if _, ok := seen[doc.Name]; ok {
			continue
		}
		seen[doc.Name] = struct{}{}
		names = append(names, doc.Name)
	}
	return names, nil
}

// BulkIndex replaces whole documents.
func (e *Engine) BulkIndex(_ context.Context, docs []domain.BeerDocument) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range docs {
		e.docs[docs[i].ID] = docs[i]
	}
	return nil
}

// Len returns the number of stored documents, searchable or not.
func (e *Engine) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.docs)
}

func matchesFilters(doc domain.BeerDocument, q *domain.Query) bool {
	if q.BreweryID != nil && doc.BreweryID != *q.BreweryID {
		return false
	}
	if q.MinRating != nil && doc.Rating < *q.MinRating {
		return false
	}
	return true
}

// relevance scores a match: whole name, name prefix, word prefix, name
// substring, brewery substring. Zero means no match.
func relevance(doc domain.BeerDocument, text string) int {
	if text == "" {
		return 1
	}
	name := strings.ToLower(doc.Name)
	switch {
	case name == text:
		return 5
	case strings.HasPrefix(name, text):
		return 4
	case wordPrefix(name, text):
		return 3
	case strings.Contains(name, text):
		return 2
	case strings.Contains(strings.ToLower(doc.BreweryName), text):
		return 1
	}
	return 0
}

func wordPrefix(s, prefix string) bool {
	for _, w := range strings.Fields(s) {
		if strings.HasPrefix(w, prefix) {
			return true
		}
	}
	return false
}

func compareHits(q *domain.Query) func(a, b hit) int {
	byName := func(a, b hit) int {
		if c := cmp.Compare(strings.ToLower(a.doc.Name), strings.ToLower(b.doc.Name)); c != 0 {
			return c
		}
		return cmp.Compare(a.doc.ID, b.doc.ID)
	}
	directed := func(c int) int {
		if q.Descending {
			return -c
		}
		return c
	}

	return func(a, b hit) int {
		var c int
		switch q.SortBy {
		case domain.SortName:
			return directed(byName(a, b))
		case domain.SortRating:
			c = directed(cmp.Compare(a.doc.Rating, b.doc.Rating))
		case domain.SortOpinions:
			c = directed(cmp.Compare(a.doc.OpinionsCount, b.doc.OpinionsCount))
		case domain.SortFavorites:
			c = directed(cmp.Compare(a.doc.FavoritesCount, b.doc.FavoritesCount))
		default:
			c = cmp.Compare(b.score, a.score)
		}
		if c != 0 {
			return c
		}
		return byName(a, b)
	}
}
