package domain

import "time"

// BeerDocument is one beer in the search index. The descriptive fields come
// from the beers service, the counters from the opinions and favorites
// services, each set by its own partial update.
type BeerDocument struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	BreweryID      string    `json:"brewery_id"`
	BreweryName    string    `json:"brewery_name"`
	Rating         float64   `json:"rating"`
	OpinionsCount  int       `json:"opinions_count"`
	FavoritesCount int       `json:"favorites_count"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Searchable reports whether the document has been described by the beers
// service. Counter updates may arrive before the beer itself.
func (d *BeerDocument) Searchable() bool {
	return d.Name != ""
}

// Patch is a partial update. Nil fields are left untouched, so patches from
// different producers commute and applying one twice changes nothing.
type Patch struct {
	Name           *string   `json:"name,omitempty"`
	BreweryID      *string   `json:"brewery_id,omitempty"`
	BreweryName    *string   `json:"brewery_name,omitempty"`
	Rating         *float64  `json:"rating,omitempty"`
	OpinionsCount  *int      `json:"opinions_count,omitempty"`
	FavoritesCount *int      `json:"favorites_count,omitempty"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Apply writes the set fields of p onto d.
func (p *Patch) Apply(d *BeerDocument) {
	if p.Name != nil {
		d.Name = *p.Name
	}
	if p.BreweryID != nil {
		d.BreweryID = *p.BreweryID
	}
	if p.BreweryName != nil {
		d.BreweryName = *p.BreweryName
	}
	if p.Rating != nil {
		d.Rating = *p.Rating
	}
	if p.OpinionsCount != nil {
		d.OpinionsCount = *p.OpinionsCount
	}
	if p.FavoritesCount != nil {
		d.FavoritesCount = *p.FavoritesCount
	}
	d.UpdatedAt = p.UpdatedAt
}

// Sort options for search results.
const (
	SortRelevance = "relevance"
	SortName      = "name"
	SortRating    = "rating"
	SortOpinions  = "opinions_count"
	SortFavorites = "favorites_count"
)

// SortOptions lists the accepted sort keys, default first.
func SortOptions() []string {
	return []string{SortRelevance, SortName, SortRating, SortOpinions, SortFavorites}
}

// Query holds all parameters for a search request.
type Query struct {
	Text       string   `json:"q"`
	BreweryID  *string  `json:"brewery_id,omitempty"`
	MinRating  *float64 `json:"min_rating,omitempty"`
	SortBy     string   `json:"sort_by"`
	Descending bool     `json:"descending"`
	Page       int      `json:"page"`
	PerPage    int      `json:"per_page"`
}

// Offset is the number of hits skipped before the current page.
func (q *Query) Offset() int {
	return (q.Page - 1) * q.PerPage
}

// Result holds one page of hits.
type Result struct {
	Beers   []BeerDocument `json:"beers"`
	Total   int            `json:"total"`
	Page    int            `json:"page"`
	PerPage int            `json:"per_page"`
	TookMs  int64          `json:"took_ms"`
}
