package domain

import (
	"time"

	"github.com/google/uuid"
)

// Favorite marks a beer as a favorite of one user. A user holds at most one
// favorite per beer. BeerName is joined from the beer projection on read.
type Favorite struct {
	ID        string    `json:"id"`
	BeerID    string    `json:"beer_id"`
	BeerName  string    `json:"beer_name,omitempty"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Beer is the local projection of a beer owned by the beers service.
// FavoritesCount is owned here and recounted on every favorite change.
type Beer struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	BreweryID      string    `json:"brewery_id"`
	BreweryName    string    `json:"brewery_name"`
	FavoritesCount int       `json:"favorites_count"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Sortable favorite list columns.
const (
	SortByCreatedAt = "created_at"
)

// FavoriteSortColumns lists the accepted favorite sort keys, default first.
func FavoriteSortColumns() []string {
	return []string{SortByCreatedAt}
}

// NewID returns a fresh entity id.
func NewID() string { return uuid.NewString() }
