// Package storage holds the blob drivers behind the images service.
package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"
)

// ErrNotFound is returned by Open for a key that holds no blob.
var ErrNotFound = errors.New("blob not found")

// Storage defines the interface for blob storage operations. Keys are slash
// separated paths; deletes of missing keys succeed.
type Storage interface {
	// Upload stores data under key, replacing any previous blob, and returns
	// the number of bytes written.
	Upload(ctx context.Context, key string, data io.Reader, contentType string) (int64, error)

	// Open returns the blob stored under key.
	Open(ctx context.Context, key string) (*Object, error)

	// Delete removes the blob stored under key.
	Delete(ctx context.Context, key string) error

	// DeletePrefix removes every blob at or beneath prefix.
	DeletePrefix(ctx context.Context, prefix string) error

	// URL returns the public URL for the given key.
	URL(key string) string
}

// Object is an open blob. ContentType may be empty when the driver does not
// record it.
type Object struct {
	io.ReadSeeker
	io.Closer
	ContentType string
	ModTime     time.Time
}

// PublicURL joins baseURL and key.
func PublicURL(baseURL, key string) string {
	return strings.TrimSuffix(baseURL, "/") + "/" + key
}

// UnderPrefix reports whether key equals prefix or lies beneath it.
func UnderPrefix(key, prefix string) bool {
	prefix = strings.TrimSuffix(prefix, "/")
	return key == prefix || strings.HasPrefix(key, prefix+"/")
}
