// Package blobstore is the client side of the HoppyHub image store: an opaque
// upload / delete-by-uri / delete-by-prefix service addressed by slash
// separated paths.
package blobstore

import (
	"context"
	"io"
	"strings"

	"github.com/google/uuid"
)

// Store is the blob-store collaborator used by the command side. Deletes are
// idempotent: removing something that is already gone succeeds.
type Store interface {
	// Upload stores content under path and returns its public URI.
	Upload(ctx context.Context, path string, content io.Reader, contentType string) (string, error)

	// DeleteFromPath removes every blob at or beneath prefix.
	DeleteFromPath(ctx context.Context, prefix string) error

	// DeleteByURI removes the single blob behind uri.
	DeleteByURI(ctx context.Context, uri string) error
}

const (
	beersRoot    = "Beers"
	opinionsRoot = "Opinions"
)

// BeerImagePath is where the image of one beer lives.
func BeerImagePath(breweryID, beerID string) string {
	return join(beersRoot, breweryID, beerID)
}

// OpinionImagePath is where the image attached to one opinion lives.
func OpinionImagePath(breweryID, beerID, opinionID string) string {
	return join(opinionsRoot, breweryID, beerID, opinionID)
}

// BreweryBeersPrefix covers the images of every beer of a brewery.
func BreweryBeersPrefix(breweryID string) string {
	return join(beersRoot, breweryID)
}

// BreweryOpinionsPrefix covers every opinion image for beers of a brewery.
func BreweryOpinionsPrefix(breweryID string) string {
	return join(opinionsRoot, breweryID)
}

// BeerOpinionsPrefix covers every opinion image of one beer.
func BeerOpinionsPrefix(breweryID, beerID string) string {
	return join(opinionsRoot, breweryID, beerID)
}

// Versioned returns a fresh object key beneath path. Each upload gets its own
// key, so a replacement never overwrites the blob a committed row points at,
// and deleting path still removes every version.
func Versioned(path string) string {
	return join(path, uuid.NewString())
}

// UnderPrefix reports whether path equals prefix or lies beneath it.
// "Beers/1" covers "Beers/1/2" but not "Beers/10".
func UnderPrefix(path, prefix string) bool {
	prefix = strings.TrimSuffix(prefix, "/")
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

func join(parts ...string) string {
	return strings.Join(parts, "/")
}
