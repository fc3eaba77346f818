package service

import (
	"io"
	"time"

	"github.com/TomWia9/HoppyHub-sub002/pkg/auth"
)

// CreateBrewery registers a brewery.
type CreateBrewery struct {
	Actor          auth.Actor `json:"-"`
	Name           string     `json:"name" validate:"required,min=2,max=200"`
	Description    string     `json:"description" validate:"max=3000"`
	FoundationYear *int       `json:"foundation_year" validate:"omitempty,min=1000,max=2100"`
	WebsiteURL     string     `json:"website_url" validate:"omitempty,url,max=500"`
	City           string     `json:"city" validate:"max=100"`
	Country        string     `json:"country" validate:"max=100"`
}

func (CreateBrewery) CommandName() string { return "CreateBrewery" }

// UpdateBrewery replaces a brewery's details. A rename is propagated to the
// denormalized brewery name of its beers.
type UpdateBrewery struct {
	Actor          auth.Actor `json:"-"`
	ID             string     `json:"-" validate:"required,uuid"`
	Name           string     `json:"name" validate:"required,min=2,max=200"`
	Description    string     `json:"description" validate:"max=3000"`
	FoundationYear *int       `json:"foundation_year" validate:"omitempty,min=1000,max=2100"`
	WebsiteURL     string     `json:"website_url" validate:"omitempty,url,max=500"`
	City           string     `json:"city" validate:"max=100"`
	Country        string     `json:"country" validate:"max=100"`
}

func (UpdateBrewery) CommandName() string { return "UpdateBrewery" }

// DeleteBrewery removes a brewery, its beers and every image under it.
type DeleteBrewery struct {
	Actor auth.Actor `json:"-"`
	ID    string     `json:"-" validate:"required,uuid"`
}

func (DeleteBrewery) CommandName() string { return "DeleteBrewery" }

type CreateBeerStyle struct {
	Actor           auth.Actor `json:"-"`
	Name            string     `json:"name" validate:"required,min=2,max=100"`
	Description     string     `json:"description" validate:"max=1000"`
	CountryOfOrigin string     `json:"country_of_origin" validate:"max=100"`
}

func (CreateBeerStyle) CommandName() string { return "CreateBeerStyle" }

type DeleteBeerStyle struct {
	Actor auth.Actor `json:"-"`
	ID    string     `json:"-" validate:"required,uuid"`
}

func (DeleteBeerStyle) CommandName() string { return "DeleteBeerStyle" }

// CreateBeer adds a beer to a brewery with the temp image.
type CreateBeer struct {
	Actor           auth.Actor `json:"-"`
	Name            string     `json:"name" validate:"required,min=2,max=200"`
	BreweryID       string     `json:"brewery_id" validate:"required,uuid"`
	BeerStyleID     string     `json:"beer_style_id" validate:"required,uuid"`
	AlcoholByVolume float64    `json:"alcohol_by_volume" validate:"gte=0,lte=100"`
	Description     string     `json:"description" validate:"max=3000"`
	Composition     string     `json:"composition" validate:"max=300"`
	Blg             *float64   `json:"blg" validate:"omitempty,gte=0,lte=100"`
	Ibu             *int       `json:"ibu" validate:"omitempty,gte=0,lte=200"`
	ReleaseDate     *time.Time `json:"release_date"`
}

func (CreateBeer) CommandName() string { return "CreateBeer" }

// UpdateBeer replaces a beer's details. The owning brewery is fixed at
// creation because blob paths are keyed by it.
type UpdateBeer struct {
	Actor           auth.Actor `json:"-"`
	ID              string     `json:"-" validate:"required,uuid"`
	Name            string     `json:"name" validate:"required,min=2,max=200"`
	BeerStyleID     string     `json:"beer_style_id" validate:"required,uuid"`
	AlcoholByVolume float64    `json:"alcohol_by_volume" validate:"gte=0,lte=100"`
	Description     string     `json:"description" validate:"max=3000"`
	Composition     string     `json:"composition" validate:"max=300"`
	Blg             *float64   `json:"blg" validate:"omitempty,gte=0,lte=100"`
	Ibu             *int       `json:"ibu" validate:"omitempty,gte=0,lte=200"`
	ReleaseDate     *time.Time `json:"release_date"`
}

func (UpdateBeer) CommandName() string { return "UpdateBeer" }

type DeleteBeer struct {
	Actor auth.Actor `json:"-"`
	ID    string     `json:"-" validate:"required,uuid"`
}

func (DeleteBeer) CommandName() string { return "DeleteBeer" }

// UpsertBeerImage uploads a beer's image, replacing the previous one.
type UpsertBeerImage struct {
	Actor       auth.Actor `json:"-"`
	BeerID      string     `json:"-" validate:"required,uuid"`
	Content     io.Reader  `json:"-" validate:"required"`
	ContentType string     `json:"content_type" validate:"required,oneof=image/jpeg image/png"`
}

func (UpsertBeerImage) CommandName() string { return "UpsertBeerImage" }

// DeleteBeerImage removes a beer's image and reverts it to the temp image.
type DeleteBeerImage struct {
	Actor  auth.Actor `json:"-"`
	BeerID string     `json:"-" validate:"required,uuid"`
}

func (DeleteBeerImage) CommandName() string { return "DeleteBeerImage" }
