package service

import "io"

// UploadImage stores a blob at Path, replacing whatever was there.
type UploadImage struct {
	Path        string    `json:"path" validate:"required,max=512"`
	ContentType string    `json:"content_type" validate:"required"`
	Content     io.Reader `json:"-"`
}

func (UploadImage) CommandName() string { return "UploadImage" }

// DeleteImage removes the blob served at URI.
type DeleteImage struct {
	URI string `json:"uri" validate:"required,url"`
}

func (DeleteImage) CommandName() string { return "DeleteImage" }

// DeletePaths removes every blob at or beneath each of Paths.
type DeletePaths struct {
	Paths []string `json:"paths" validate:"required,min=1,max=100,dive,required"`
}

func (DeletePaths) CommandName() string { return "DeletePaths" }
