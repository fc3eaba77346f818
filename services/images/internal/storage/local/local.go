// Package local stores blobs as files beneath a root directory.
package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/TomWia9/HoppyHub-sub002/services/images/internal/storage"
)

// Storage implements storage.Storage on the local filesystem. Keys map to
// files under root; content types are not recorded.
type Storage struct {
	root    string
	baseURL string
}

// New creates the root directory if needed and returns a storage rooted there.
func New(root, baseURL string) (*Storage, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve storage root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &Storage{root: abs, baseURL: baseURL}, nil
}

// resolve maps key to a file path and refuses anything that escapes root.
func (s *Storage) resolve(key string) (string, error) {
	p := filepath.Join(s.root, filepath.FromSlash(key))
	if p == s.root || !strings.HasPrefix(p, s.root+string(filepath.Separator)) {
		return "", fmt.Errorf("key %q escapes storage root", key)
	}
	return p, nil
}

// Upload writes data to a temporary file next to the target and renames it
// into place, so readers never observe a partial blob.
func (s *Storage) Upload(_ context.Context, key string, data io.Reader, _ string) (int64, error) {
	p, err := s.resolve(key)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return 0, fmt.Errorf("create directory for %s: %w", key, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(p), ".upload-*")
	if err != nil {
		return 0, fmt.Errorf("create temp file for %s: %w", key, err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	n, err := io.Copy(tmp, data)
	if err != nil {
		_ = tmp.Close()
		return 0, fmt.Errorf("write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("close %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return 0, fmt.Errorf("move %s into place: %w", key, err)
	}
	return n, nil
}

// Open opens the file behind key.
func (s *Storage) Open(_ context.Context, key string) (*storage.Object, error) {
	p, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("open %s: %w", key, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("open %s: %w", key, err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat %s: %w", key, err)
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, fmt.Errorf("open %s: %w", key, storage.ErrNotFound)
	}
	return &storage.Object{ReadSeeker: f, Closer: f, ModTime: info.ModTime()}, nil
}

// Delete removes the file behind key.
func (s *Storage) Delete(_ context.Context, key string) error {
	p, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// DeletePrefix removes the file or directory tree at prefix.
func (s *Storage) DeletePrefix(_ context.Context, prefix string) error {
	p, err := s.resolve(strings.TrimSuffix(prefix, "/"))
	if err != nil {
		return err
	}
	if err := os.RemoveAll(p); err != nil {
		return fmt.Errorf("delete prefix %s: %w", prefix, err)
	}
	return nil
}

// URL returns the public URL for the given key.
func (s *Storage) URL(key string) string {
	return storage.PublicURL(s.baseURL, key)
}
