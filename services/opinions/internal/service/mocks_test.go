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
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/TomWia9/HoppyHub-sub002/pkg/auth"
	"github.com/TomWia9/HoppyHub-sub002/pkg/blobstore"
	"github.com/TomWia9/HoppyHub-sub002/pkg/database"
	apperrors "github.com/TomWia9/HoppyHub-sub002/pkg/errors"
	"github.com/TomWia9/HoppyHub-sub002/pkg/events"
	"github.com/TomWia9/HoppyHub-sub002/pkg/kafka"
	"github.com/TomWia9/HoppyHub-sub002/pkg/shadow"
	"github.com/TomWia9/HoppyHub-sub002/pkg/shadow/shadowtest"
	"github.com/TomWia9/HoppyHub-sub002/pkg/uow"
	"github.com/TomWia9/HoppyHub-sub002/services/opinions/internal/domain"
	"github.com/TomWia9/HoppyHub-sub002/services/opinions/internal/repository"
)

// --- Mock repositories ---

type mockOpinionRepository struct{ mock.Mock }

func (m *mockOpinionRepository) Create(ctx context.Context, o *domain.Opinion) error {
	return m.Called(ctx, o).Error(0)
}

func (m *mockOpinionRepository) GetByID(ctx context.Context, id string) (*domain.Opinion, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Opinion), args.Error(1)
}

func (m *mockOpinionRepository) List(ctx context.Context, f repository.OpinionFilter) ([]domain.Opinion, int, error) {
	args := m.Called(ctx, f)
	return args.Get(0).([]domain.Opinion), args.Int(1), args.Error(2)
}

func (m *mockOpinionRepository) Update(ctx context.Context, o *domain.Opinion) error {
	return m.Called(ctx, o).Error(0)
}

func (m *mockOpinionRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockOpinionRepository) Ratings(ctx context.Context, beerID string) ([]int, error) {
	args := m.Called(ctx, beerID)
	return args.Get(0).([]int), args.Error(1)
}

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

func (m *mockBeerRepository) SetStats(ctx context.Context, id string, rating float64, count int) error {
	return m.Called(ctx, id, rating, count).Error(0)
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

// --- In-memory repositories for multi-step scenarios ---

type memoryStore struct {
	mu       sync.Mutex
	opinions map[string]domain.Opinion
	beers    map[string]domain.Beer
}

type memoryOpinions struct{ *memoryStore }

func (m memoryOpinions) Create(_ context.Context, o *domain.Opinion) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.opinions {
		if existing.UserID == o.UserID && existing.BeerID == o.BeerID {
			return apperrors.AlreadyExists("opinion", "beer_id", o.BeerID)
		}
	}
	m.opinions[o.ID] = *o
	return nil
}

func (m memoryOpinions) GetByID(_ context.Context, id string) (*domain.Opinion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.opinions[id]
	if !ok {
		return nil, apperrors.NotFound("opinion", id)
	}
	return &o, nil
}

func (m memoryOpinions) List(context.Context, repository.OpinionFilter) ([]domain.Opinion, int, error) {
	return nil, 0, nil
}

func (m memoryOpinions) Update(_ context.Context, o *domain.Opinion) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.opinions[o.ID] = *o
	return nil
}

func (m memoryOpinions) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.opinions, id)
	return nil
}

func (m memoryOpinions) Ratings(_ context.Context, beerID string) ([]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []int
	for _, o := range m.opinions {
		if o.BeerID == beerID {
			out = append(out, o.Rating)
		}
	}
	sort.Ints(out)
	return out, nil
}

type memoryBeers struct{ *memoryStore }

func (m memoryBeers) GetByID(_ context.Context, id string) (*domain.Beer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.beers[id]
	if !ok {
		return nil, apperrors.NotFound("beer", id)
	}
	return &b, nil
}

func (m memoryBeers) Lock(ctx context.Context, id string) (*domain.Beer, error) {
	return m.GetByID(ctx, id)
}

func (m memoryBeers) Upsert(_ context.Context, b *domain.Beer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.beers[b.ID] = *b
	return nil
}

func (m memoryBeers) SetStats(_ context.Context, id string, rating float64, count int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := m.beers[id]
	b.Rating, b.OpinionsCount = rating, count
	m.beers[id] = b
	return nil
}

func (m memoryBeers) RenameBrewery(context.Context, string, string) (int64, error) { return 0, nil }
func (m memoryBeers) Delete(context.Context, string) (bool, error)                 { return false, nil }
func (m memoryBeers) DeleteByBrewery(context.Context, string) (int64, error)       { return 0, nil }

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

// last decodes the most recent BeerOpinionChanged.
func (p *recordingPublisher) last(t *testing.T) events.BeerOpinionChanged {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	require.NotEmpty(t, p.events)
	e, err := events.Decode[events.BeerOpinionChanged](p.events[len(p.events)-1])
	require.NoError(t, err)
	return e
}

// failingBlobs accepts uploads but cannot delete.
type failingBlobs struct {
	*blobstore.MemoryStore
}

func (failingBlobs) DeleteByURI(context.Context, string) error {
	return apperrors.RemoteServiceConnection("images-service", nil)
}

// --- Test harness ---

const (
	authorID  = "3d0c1f6e-2b7a-4a55-9a0e-5a1c9d2e7f11"
	otherID   = "5e8f2a10-6c3b-4d77-8b1f-9c2d4e6f8a22"
	adminID   = "9b2f64a8-51f5-4c2d-9a57-2a3f3f7bbf10"
	breweryID = "0d5f2d1e-7e0a-4a8f-8c55-1f5f3f8a9e01"
	beerID    = "6a1c1a53-0b48-4c4e-9a3b-7d59a3fca0a2"
	opinionID = "b7e4c2d1-8f9a-4b3c-a1d2-e3f4a5b6c7d8"
)

var (
	author = auth.Actor{UserID: authorID, Role: auth.RoleUser}
	other  = auth.Actor{UserID: otherID, Role: auth.RoleUser}
	admin  = auth.Actor{UserID: adminID, Role: auth.RoleAdministrator}
	fixed  = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
)

type harness struct {
	svc      *Service
	pool     pgxmock.PgxPoolIface
	pub      *recordingPublisher
	blobs    *blobstore.MemoryStore
	opinions *mockOpinionRepository
	beers    *mockBeerRepository
	users    *shadowtest.Repository
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newHarnessWith(t *testing.T, set func(h *harness) repository.Set) *harness {
	t.Helper()
	pool, err := database.NewMockPool()
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	h := &harness{
		pool:     pool,
		pub:      &recordingPublisher{},
		blobs:    blobstore.NewMemoryStore("http://images.test/files"),
		opinions: new(mockOpinionRepository),
		beers:    new(mockBeerRepository),
		users:    new(shadowtest.Repository),
	}
	repos := set(h)
	factory := func(database.DBTX) repository.Set { return repos }

	logger := newTestLogger()
	executor := uow.New(pool, h.pub, events.SourceOpinions, logger)
	h.svc = New(pool, factory, executor, h.blobs, logger)
	h.svc.now = func() time.Time { return fixed }
	return h
}

func newHarness(t *testing.T) *harness {
	return newHarnessWith(t, func(h *harness) repository.Set {
		return repository.Set{Opinions: h.opinions, Beers: h.beers, Users: h.users}
	})
}

// newMemoryHarness runs the service against in-memory opinions and beers
// holding the sample beer.
func newMemoryHarness(t *testing.T) *harness {
	store := &memoryStore{
		opinions: map[string]domain.Opinion{},
		beers:    map[string]domain.Beer{beerID: *sampleBeer()},
	}
	return newHarnessWith(t, func(h *harness) repository.Set {
		return repository.Set{Opinions: memoryOpinions{store}, Beers: memoryBeers{store}, Users: h.users}
	})
}

// known makes the shadow users of the given actors resolvable and live.
func (h *harness) known(actors ...auth.Actor) {
	for _, a := range actors {
		h.users.On("GetByID", mock.Anything, a.UserID).
			Return(&shadow.User{ID: a.UserID, Username: "user-" + a.UserID[:4], Role: a.Role}, nil)
	}
}

func (h *harness) assertExpectations(t *testing.T) {
	t.Helper()
	h.opinions.AssertExpectations(t)
	h.beers.AssertExpectations(t)
	h.users.AssertExpectations(t)
	require.NoError(t, h.pool.ExpectationsWereMet())
}

func sampleBeer() *domain.Beer {
	return &domain.Beer{ID: beerID, Name: "Atak Chmielu", BreweryID: breweryID, BreweryName: "Pinta"}
}

func sampleOpinion() *domain.Opinion {
	return &domain.Opinion{ID: opinionID, BeerID: beerID, UserID: authorID, Rating: 8, Comment: "Piney"}
}
