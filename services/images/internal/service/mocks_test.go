package service

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/TomWia9/HoppyHub-sub002/pkg/database"
	apperrors "github.com/TomWia9/HoppyHub-sub002/pkg/errors"
	"github.com/TomWia9/HoppyHub-sub002/pkg/events"
	"github.com/TomWia9/HoppyHub-sub002/pkg/kafka"
	"github.com/TomWia9/HoppyHub-sub002/pkg/uow"
	"github.com/TomWia9/HoppyHub-sub002/services/images/internal/domain"
	"github.com/TomWia9/HoppyHub-sub002/services/images/internal/repository"
	"github.com/TomWia9/HoppyHub-sub002/services/images/internal/storage"
	"github.com/TomWia9/HoppyHub-sub002/services/images/internal/storage/memory"
)

type memoryImages struct {
	mu    sync.Mutex
	items map[string]domain.Image
	fail  error
}

func newMemoryImages() *memoryImages {
	return &memoryImages{items: map[string]domain.Image{}}
}

func (m *memoryImages) Upsert(_ context.Context, img *domain.Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	if old, ok := m.items[img.Path]; ok {
		img.CreatedAt = old.CreatedAt
	}
	m.items[img.Path] = *img
	return nil
}

func (m *memoryImages) GetByPath(_ context.Context, path string) (*domain.Image, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	img, ok := m.items[path]
	if !ok {
		return nil, apperrors.NotFound("image", path)
	}
	return &img, nil
}

func (m *memoryImages) GetByURI(_ context.Context, uri string) (*domain.Image, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, img := range m.items {
		if img.URI == uri {
			return &img, nil
		}
	}
	return nil, apperrors.NotFound("image", uri)
}

func (m *memoryImages) Delete(_ context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[path]; !ok {
		return apperrors.NotFound("image", path)
	}
	delete(m.items, path)
	return nil
}

func (m *memoryImages) DeleteUnder(_ context.Context, prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var removed []string
	for path := range m.items {
		if storage.UnderPrefix(path, prefix) {
			removed = append(removed, path)
			delete(m.items, path)
		}
	}
	sort.Strings(removed)
	return removed, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []*kafka.Event
}

func (p *recordingPublisher) Publish(_ context.Context, _ string, evt *kafka.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, evt := range p.events {
		out = append(out, evt.EventType)
	}
	return out
}

const baseURL = "http://localhost:8005/files"

var fixed = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type harness struct {
	svc    *Service
	pool   pgxmock.PgxPoolIface
	pub    *recordingPublisher
	images *memoryImages
	store  *memory.Storage
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	pool, err := database.NewMockPool()
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	h := &harness{
		pool:   pool,
		pub:    &recordingPublisher{},
		images: newMemoryImages(),
		store:  memory.New(baseURL),
	}
	factory := func(database.DBTX) repository.Set {
		return repository.Set{Images: h.images}
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	executor := uow.New(pool, h.pub, events.SourceImages, logger)
	h.svc = New(pool, factory, executor, h.store, logger)
	h.svc.now = func() time.Time { return fixed }
	return h
}

func (h *harness) commits(n int) {
	for range n {
		h.pool.ExpectBegin()
		h.pool.ExpectCommit()
	}
}

func (h *harness) rollback() {
	h.pool.ExpectBegin()
	h.pool.ExpectRollback()
}
