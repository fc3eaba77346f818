package blobstore

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
)

type blob struct {
	uri         string
	contentType string
	size        int64
}

// MemoryStore implements Store in process. Content is read and counted but
// not retained.
type MemoryStore struct {
	mu      sync.RWMutex
	blobs   map[string]blob
	baseURL string
}

// NewMemoryStore creates an empty store that mints URIs under baseURL.
func NewMemoryStore(baseURL string) *MemoryStore {
	return &MemoryStore{
		blobs:   make(map[string]blob),
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

// Upload records the blob at path, replacing any previous one.
func (s *MemoryStore) Upload(_ context.Context, path string, content io.Reader, contentType string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("upload: empty path")
	}
	n, err := io.Copy(io.Discard, content)
	if err != nil {
		return "", fmt.Errorf("upload %s: read content: %w", path, err)
	}

	uri := s.baseURL + "/" + path

	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[path] = blob{uri: uri, contentType: contentType, size: n}
	return uri, nil
}

// DeleteFromPath removes every blob at or beneath prefix.
func (s *MemoryStore) DeleteFromPath(_ context.Context, prefix string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for path := range s.blobs {
		if UnderPrefix(path, prefix) {
			delete(s.blobs, path)
		}
	}
	return nil
}

// DeleteByURI removes the blob with the given uri, if any.
func (s *MemoryStore) DeleteByURI(_ context.Context, uri string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for path, b := range s.blobs {
		if b.uri == uri {
			delete(s.blobs, path)
		}
	}
	return nil
}

// Paths lists stored paths in lexical order.
func (s *MemoryStore) Paths() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	paths := make([]string, 0, len(s.blobs))
	for p := range s.blobs {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// PathsUnder lists stored paths at or beneath prefix.
func (s *MemoryStore) PathsUnder(prefix string) []string {
	var out []string
	for _, p := range s.Paths() {
		if UnderPrefix(p, prefix) {
			out = append(out, p)
		}
	}
	return out
}

// URI returns the uri stored at path.
func (s *MemoryStore) URI(path string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.blobs[path]
	return b.uri, ok
}
