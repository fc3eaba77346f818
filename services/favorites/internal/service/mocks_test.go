package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/TomWia9/HoppyHub-sub002/pkg/auth"
	"github.com/TomWia9/HoppyHub-sub002/pkg/database"
	apperrors "github.com/TomWia9/HoppyHub-sub002/pkg/errors"
	"github.com/TomWia9/HoppyHub-sub002/pkg/events"
	"github.com/TomWia9/HoppyHub-sub002/pkg/kafka"
	"github.com/TomWia9/HoppyHub-sub002/pkg/shadow"
	"github.com/TomWia9/HoppyHub-sub002/pkg/shadow/shadowtest"
	"github.com/TomWia9/HoppyHub-sub002/pkg/uow"
	"github.com/TomWia9/HoppyHub-sub002/services/favorites/internal/domain"
	"github.com/TomWia9/HoppyHub-sub002/services/favorites/internal/repository"
)

// --- Mock repositories ---

type mockBeerRepository struct{ mock.Mock }

func (m *mockBeerRepository) GetByID(ctx context.Context, id string) (*domain.Beer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Beer), args.Error(1)
}

func (m *mockBeerRepository) Lock(ctx context.Context, id string) (*domain.Beer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Beer), args.Error(1)
}

func (m *mockBeerRepository) Upsert(ctx context.Context, b *domain.Beer) error {
	return m.Called(ctx, b).Error(0)
}

func (m *mockBeerRepository) SetFavoritesCount(ctx context.Context, id string, count int) error {
	return m.Called(ctx, id, count).Error(0)
}

func (m *mockBeerRepository) RenameBrewery(ctx context.Context, breweryID, name string) (int64, error) {
	args := m.Called(ctx, breweryID, name)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockBeerRepository) Delete(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockBeerRepository) DeleteByBrewery(ctx context.Context, breweryID string) (int64, error) {
	args := m.Called(ctx, breweryID)
	return args.Get(0).(int64), args.Error(1)
}

// --- In-memory favorites ---

type memoryFavorites struct {
	mu    sync.Mutex
	items map[string]domain.Favorite
}

func newMemoryFavorites() *memoryFavorites {
	return &memoryFavorites{items: map[string]domain.Favorite{}}
}

func (m *memoryFavorites) Create(_ context.Context, f *domain.Favorite) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.items {
		if existing.UserID == f.UserID && existing.BeerID == f.BeerID {
			return apperrors.AlreadyExists("favorite", "beer_id", f.BeerID)
		}
	}
	m.items[f.ID] = *f
	return nil
}

func (m *memoryFavorites) Delete(_ context.Context, userID, beerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, f := range m.items {
		if f.UserID == userID && f.BeerID == beerID {
			delete(m.items, id)
			return nil
		}
	}
	return apperrors.NotFound("favorite", beerID)
}

func (m *memoryFavorites) List(context.Context, repository.FavoriteFilter) ([]domain.Favorite, int, error) {
	return nil, 0, nil
}

func (m *memoryFavorites) Count(_ context.Context, beerID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, f := range m.items {
		if f.BeerID == beerID {
			n++
		}
	}
	return n, nil
}

// --- Collaborators ---

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

// counts decodes every published BeerFavoritesCountChanged in order.
func (p *recordingPublisher) counts(t *testing.T) []int {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]int, 0, len(p.events))
	for _, evt := range p.events {
		e, err := events.Decode[events.BeerFavoritesCountChanged](evt)
		require.NoError(t, err)
		out = append(out, e.FavoritesCount)
	}
	return out
}

// --- Test harness ---

const (
	userID    = "3d0c1f6e-2b7a-4a55-9a0e-5a1c9d2e7f11"
	otherID   = "5e8f2a10-6c3b-4d77-8b1f-9c2d4e6f8a22"
	breweryID = "0d5f2d1e-7e0a-4a8f-8c55-1f5f3f8a9e01"
	beerID    = "6a1c1a53-0b48-4c4e-9a3b-7d59a3fca0a2"
)

var (
	user  = auth.Actor{UserID: userID, Role: auth.RoleUser}
	other = auth.Actor{UserID: otherID, Role: auth.RoleUser}
	fixed = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
)

type harness struct {
	svc       *Service
	pool      pgxmock.PgxPoolIface
	pub       *recordingPublisher
	favorites *memoryFavorites
	beers     *mockBeerRepository
	users     *shadowtest.Repository
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	pool, err := database.NewMockPool()
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	h := &harness{
		pool:      pool,
		pub:       &recordingPublisher{},
		favorites: newMemoryFavorites(),
		beers:     new(mockBeerRepository),
		users:     new(shadowtest.Repository),
	}
	factory := func(database.DBTX) repository.Set {
		return repository.Set{Favorites: h.favorites, Beers: h.beers, Users: h.users}
	}

	logger := newTestLogger()
	executor := uow.New(pool, h.pub, events.SourceFavorites, logger)
	h.svc = New(pool, factory, executor, logger)
	h.svc.now = func() time.Time { return fixed }
	return h
}

// known makes the shadow users of the given actors resolvable and live.
func (h *harness) known(actors ...auth.Actor) {
	for _, a := range actors {
		h.users.On("GetByID", mock.Anything, a.UserID).
			Return(&shadow.User{ID: a.UserID, Username: "user-" + a.UserID[:4], Role: a.Role}, nil)
	}
}

// beer makes the sample beer lockable and accepts any favorites count.
func (h *harness) beer() {
	h.beers.On("Lock", mock.Anything, beerID).
		Return(&domain.Beer{ID: beerID, Name: "Atak Chmielu", BreweryID: breweryID, BreweryName: "Pinta"}, nil)
	h.beers.On("SetFavoritesCount", mock.Anything, beerID, mock.AnythingOfType("int")).Return(nil)
}

func (h *harness) assertExpectations(t *testing.T) {
	t.Helper()
	h.beers.AssertExpectations(t)
	h.users.AssertExpectations(t)
	require.NoError(t, h.pool.ExpectationsWereMet())
}
