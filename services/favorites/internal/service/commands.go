package service

import "github.com/TomWia9/HoppyHub-sub002/pkg/auth"

// AddFavorite marks a beer as a favorite of the actor.
type AddFavorite struct {
	Actor  auth.Actor `json:"-"`
	BeerID string     `json:"beer_id" validate:"required,uuid"`
}

func (AddFavorite) CommandName() string { return "AddFavorite" }

// RemoveFavorite unmarks a beer.
type RemoveFavorite struct {
	Actor  auth.Actor `json:"-"`
	BeerID string     `json:"-" validate:"required,uuid"`
}

func (RemoveFavorite) CommandName() string { return "RemoveFavorite" }
