package service

import (
	"io"

	"github.com/TomWia9/HoppyHub-sub002/pkg/auth"
)

// Image is an uploaded opinion photo.
type Image struct {
	Content     io.Reader `validate:"required"`
	ContentType string    `validate:"required,oneof=image/jpeg image/png"`
}

// CreateOpinion rates a beer. A user rates each beer at most once.
type CreateOpinion struct {
	Actor   auth.Actor `json:"-"`
	BeerID  string     `json:"beer_id" validate:"required,uuid"`
	Rating  int        `json:"rating" validate:"required,min=1,max=10"`
	Comment string     `json:"comment" validate:"max=1000"`
	Image   *Image     `json:"-" validate:"omitempty"`
}

func (CreateOpinion) CommandName() string { return "CreateOpinion" }

// UpdateOpinion changes rating and comment. A non-nil Image replaces the
// current photo.
type UpdateOpinion struct {
	Actor   auth.Actor `json:"-"`
	ID      string     `json:"-" validate:"required,uuid"`
	Rating  int        `json:"rating" validate:"required,min=1,max=10"`
	Comment string     `json:"comment" validate:"max=1000"`
	Image   *Image     `json:"-" validate:"omitempty"`
}

func (UpdateOpinion) CommandName() string { return "UpdateOpinion" }

type DeleteOpinion struct {
	Actor auth.Actor `json:"-"`
	ID    string     `json:"-" validate:"required,uuid"`
}

func (DeleteOpinion) CommandName() string { return "DeleteOpinion" }

// DeleteOpinionImage removes the photo of an opinion and keeps the opinion.
type DeleteOpinionImage struct {
	Actor auth.Actor `json:"-"`
	ID    string     `json:"-" validate:"required,uuid"`
}

func (DeleteOpinionImage) CommandName() string { return "DeleteOpinionImage" }
