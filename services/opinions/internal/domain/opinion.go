package domain

import (
	"time"

	"github.com/google/uuid"
)

// Rating bounds of an opinion.
const (
	MinRating = 1
	MaxRating = 10
)

// Opinion is one user's rating of one beer. A user holds at most one opinion
// per beer. Username is joined from the shadow users on read.
type Opinion struct {
	ID        string    `json:"id"`
	BeerID    string    `json:"beer_id"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username,omitempty"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	ImageURI  string    `json:"image_uri,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Beer is the local projection of a beer owned by the beers service. Rating
// and OpinionsCount are owned here and recalculated on every opinion change.
type Beer struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	BreweryID     string    `json:"brewery_id"`
	BreweryName   string    `json:"brewery_name"`
	Rating        float64   `json:"rating"`
	OpinionsCount int       `json:"opinions_count"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Aggregate returns the mean of ratings and their count. The mean of no
// ratings is 0.
func Aggregate(ratings []int) (float64, int) {
	if len(ratings) == 0 {
		return 0, 0
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	return float64(sum) / float64(len(ratings)), len(ratings)
}

// Sortable opinion list columns.
const (
	SortByCreatedAt = "created_at"
	SortByRating    = "rating"
)

// OpinionSortColumns lists the accepted opinion sort keys, default first.
func OpinionSortColumns() []string {
	return []string{SortByCreatedAt, SortByRating}
}

// NewID returns a fresh entity id.
func NewID() string { return uuid.NewString() }
