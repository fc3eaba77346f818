package domain

import (
	"time"

	"github.com/google/uuid"
)

// Beer is the catalog entry. BreweryName, Rating, OpinionsCount and
// FavoritesCount are denormalized copies maintained by event consumers.
type Beer struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	BreweryID       string     `json:"brewery_id"`
	BreweryName     string     `json:"brewery_name"`
	BeerStyleID     string     `json:"beer_style_id"`
	AlcoholByVolume float64    `json:"alcohol_by_volume"`
	Description     string     `json:"description"`
	Composition     string     `json:"composition"`
	Blg             *float64   `json:"blg,omitempty"`
	Ibu             *int       `json:"ibu,omitempty"`
	ReleaseDate     *time.Time `json:"release_date,omitempty"`
	Rating          float64    `json:"rating"`
	OpinionsCount   int        `json:"opinions_count"`
	FavoritesCount  int        `json:"favorites_count"`
	ImageURI        string     `json:"image_uri"`
	TempImage       bool       `json:"temp_image"`
	CreatedBy       *string    `json:"created_by,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// BeerImage is owned 1:1 by a beer. A beer without an uploaded image points
// at the shared temp image.
type BeerImage struct {
	BeerID    string    `json:"beer_id"`
	ImageURI  string    `json:"image_uri"`
	TempImage bool      `json:"temp_image"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewTempImage returns the placeholder image record for beerID.
func NewTempImage(beerID, tempURI string, now time.Time) *BeerImage {
	return &BeerImage{BeerID: beerID, ImageURI: tempURI, TempImage: true, UpdatedAt: now}
}

// ResetToTemp points the image back at the shared placeholder.
func (i *BeerImage) ResetToTemp(tempURI string, now time.Time) {
	i.ImageURI = tempURI
	i.TempImage = true
	i.UpdatedAt = now
}

// SetUploaded records a real uploaded image.
func (i *BeerImage) SetUploaded(uri string, now time.Time) {
	i.ImageURI = uri
	i.TempImage = false
	i.UpdatedAt = now
}

// Sortable beer list columns.
const (
	SortByName           = "name"
	SortByRating         = "rating"
	SortByOpinionsCount  = "opinions_count"
	SortByFavoritesCount = "favorites_count"
	SortByReleaseDate    = "release_date"
	SortByCreatedAt      = "created_at"
)

// BeerSortColumns lists the values accepted by the sort query parameter.
func BeerSortColumns() []string {
	return []string{SortByName, SortByRating, SortByOpinionsCount, SortByFavoritesCount, SortByReleaseDate, SortByCreatedAt}
}

// NewID returns a fresh entity id.
func NewID() string { return uuid.NewString() }
