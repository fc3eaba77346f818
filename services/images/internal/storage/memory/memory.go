package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/TomWia9/HoppyHub-sub002/services/images/internal/storage"
)

// blob stores one uploaded file in memory.
type blob struct {
	data        []byte
	contentType string
	modTime     time.Time
}

// Storage implements storage.Storage using an in-memory map. Blobs are lost
// on restart.
type Storage struct {
	mu      sync.RWMutex
	blobs   map[string]blob
	baseURL string
	now     func() time.Time
}

// New creates a new in-memory storage instance.
func New(baseURL string) *Storage {
	return &Storage{
		blobs:   make(map[string]blob),
		baseURL: baseURL,
		now:     time.Now,
	}
}

// Upload reads data fully and stores it under key.
func (s *Storage) Upload(_ context.Context, key string, data io.Reader, contentType string) (int64, error) {
	b, err := io.ReadAll(data)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[key] = blob{data: b, contentType: contentType, modTime: s.now()}
	return int64(len(b)), nil
}

// Open returns a reader over a copy-free view of the stored bytes.
func (s *Storage) Open(_ context.Context, key string) (*storage.Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.blobs[key]
	if !ok {
		return nil, fmt.Errorf("open %s: %w", key, storage.ErrNotFound)
	}
	return &storage.Object{
		ReadSeeker:  bytes.NewReader(b.data),
		Closer:      io.NopCloser(nil),
		ContentType: b.contentType,
		ModTime:     b.modTime,
	}, nil
}

// Delete removes the blob under key, if any.
func (s *Storage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, key)
	return nil
}

// DeletePrefix removes every blob at or beneath prefix.
func (s *Storage) DeletePrefix(_ context.Context, prefix string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.blobs {
		if storage.UnderPrefix(key, prefix) {
			delete(s.blobs, key)
		}
	}
	return nil
}

// URL returns the public URL for the given key.
func (s *Storage) URL(key string) string {
	return storage.PublicURL(s.baseURL, key)
}

// Keys lists stored keys in lexical order.
func (s *Storage) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.blobs))
	for k := range s.blobs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
