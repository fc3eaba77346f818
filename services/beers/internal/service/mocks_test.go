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
	"github.com/TomWia9/HoppyHub-sub002/pkg/blobstore"
	"github.com/TomWia9/HoppyHub-sub002/pkg/database"
	apperrors "github.com/TomWia9/HoppyHub-sub002/pkg/errors"
	"github.com/TomWia9/HoppyHub-sub002/pkg/events"
	"github.com/TomWia9/HoppyHub-sub002/pkg/kafka"
	"github.com/TomWia9/HoppyHub-sub002/pkg/pagination"
	"github.com/TomWia9/HoppyHub-sub002/pkg/shadow"
	"github.com/TomWia9/HoppyHub-sub002/pkg/shadow/shadowtest"
	"github.com/TomWia9/HoppyHub-sub002/pkg/uow"
	"github.com/TomWia9/HoppyHub-sub002/services/beers/internal/domain"
	"github.com/TomWia9/HoppyHub-sub002/services/beers/internal/repository"
)

// --- Mock repositories ---

type mockBreweryRepository struct{ mock.Mock }

func (m *mockBreweryRepository) Create(ctx context.Context, b *domain.Brewery) error {
	return m.Called(ctx, b).Error(0)
}

func (m *mockBreweryRepository) GetByID(ctx context.Context, id string) (*domain.Brewery, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Brewery), args.Error(1)
}

func (m *mockBreweryRepository) List(ctx context.Context, p pagination.Params) ([]domain.Brewery, int, error) {
	args := m.Called(ctx, p)
	return args.Get(0).([]domain.Brewery), args.Int(1), args.Error(2)
}

func (m *mockBreweryRepository) Update(ctx context.Context, b *domain.Brewery) error {
	return m.Called(ctx, b).Error(0)
}

func (m *mockBreweryRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type mockStyleRepository struct{ mock.Mock }

func (m *mockStyleRepository) Create(ctx context.Context, s *domain.BeerStyle) error {
	return m.Called(ctx, s).Error(0)
}

func (m *mockStyleRepository) GetByID(ctx context.Context, id string) (*domain.BeerStyle, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BeerStyle), args.Error(1)
}

func (m *mockStyleRepository) List(ctx context.Context, p pagination.Params) ([]domain.BeerStyle, int, error) {
	args := m.Called(ctx, p)
	return args.Get(0).([]domain.BeerStyle), args.Int(1), args.Error(2)
}

func (m *mockStyleRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockStyleRepository) InUse(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

type mockBeerRepository struct{ mock.Mock }

func (m *mockBeerRepository) Create(ctx context.Context, b *domain.Beer) error {
	return m.Called(ctx, b).Error(0)
}

func (m *mockBeerRepository) GetByID(ctx context.Context, id string) (*domain.Beer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Beer), args.Error(1)
}

func (m *mockBeerRepository) List(ctx context.Context, f repository.BeerFilter) ([]domain.Beer, int, error) {
	args := m.Called(ctx, f)
	return args.Get(0).([]domain.Beer), args.Int(1), args.Error(2)
}

func (m *mockBeerRepository) Update(ctx context.Context, b *domain.Beer) error {
	return m.Called(ctx, b).Error(0)
}

func (m *mockBeerRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockBeerRepository) ListByBrewery(ctx context.Context, breweryID string) ([]repository.BeerRef, error) {
	args := m.Called(ctx, breweryID)
	return args.Get(0).([]repository.BeerRef), args.Error(1)
}

func (m *mockBeerRepository) DeleteByBrewery(ctx context.Context, breweryID string) (int64, error) {
	args := m.Called(ctx, breweryID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockBeerRepository) RenameBrewery(ctx context.Context, breweryID, name string) ([]repository.BeerRef, error) {
	args := m.Called(ctx, breweryID, name)
	return args.Get(0).([]repository.BeerRef), args.Error(1)
}

func (m *mockBeerRepository) SetOpinionStats(ctx context.Context, beerID string, rating float64, count int) (bool, error) {
	args := m.Called(ctx, beerID, rating, count)
	return args.Bool(0), args.Error(1)
}

func (m *mockBeerRepository) SetFavoritesCount(ctx context.Context, beerID string, count int) (bool, error) {
	args := m.Called(ctx, beerID, count)
	return args.Bool(0), args.Error(1)
}

type mockImageRepository struct{ mock.Mock }

func (m *mockImageRepository) Get(ctx context.Context, beerID string) (*domain.BeerImage, error) {
	args := m.Called(ctx, beerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BeerImage), args.Error(1)
}

func (m *mockImageRepository) Upsert(ctx context.Context, img *domain.BeerImage) error {
	return m.Called(ctx, img).Error(0)
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

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType)
	}
	return out
}

// failingBlobs accepts uploads but cannot delete.
type failingBlobs struct {
	*blobstore.MemoryStore
}

func (failingBlobs) DeleteFromPath(context.Context, string) error {
	return apperrors.RemoteServiceConnection("images-service", nil)
}

// --- Test harness ---

const (
	tempURI   = "http://images.test/files/Beers/temp.jpg"
	adminID   = "9b2f64a8-51f5-4c2d-9a57-2a3f3f7bbf10"
	breweryID = "0d5f2d1e-7e0a-4a8f-8c55-1f5f3f8a9e01"
	beerID    = "6a1c1a53-0b48-4c4e-9a3b-7d59a3fca0a2"
	styleID   = "c4f7b9e0-4f6d-4f43-b1b0-6b1f26d2c3e3"
)

var (
	admin = auth.Actor{UserID: adminID, Role: auth.RoleAdministrator}
	fixed = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
)

type harness struct {
	svc       *Service
	pool      pgxmock.PgxPoolIface
	pub       *recordingPublisher
	blobs     *blobstore.MemoryStore
	breweries *mockBreweryRepository
	styles    *mockStyleRepository
	beers     *mockBeerRepository
	images    *mockImageRepository
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
		blobs:     blobstore.NewMemoryStore("http://images.test/files"),
		breweries: new(mockBreweryRepository),
		styles:    new(mockStyleRepository),
		beers:     new(mockBeerRepository),
		images:    new(mockImageRepository),
		users:     new(shadowtest.Repository),
	}
	set := repository.Set{
		Breweries: h.breweries,
		Styles:    h.styles,
		Beers:     h.beers,
		Images:    h.images,
		Users:     h.users,
	}
	factory := func(database.DBTX) repository.Set { return set }

	logger := newTestLogger()
	executor := uow.New(pool, h.pub, events.SourceBeers, logger)
	h.svc = New(pool, factory, executor, h.blobs, tempURI, logger)
	h.svc.now = func() time.Time { return fixed }
	return h
}

// withBlobs swaps the blob store used by the service.
func (h *harness) withBlobs(s blobstore.Store) {
	h.svc.blobs = s
}

// adminKnown makes the admin's shadow user resolvable and live.
func (h *harness) adminKnown() {
	h.users.On("GetByID", mock.Anything, adminID).
		Return(&shadow.User{ID: adminID, Username: "admin", Role: auth.RoleAdministrator}, nil)
}

func (h *harness) assertExpectations(t *testing.T) {
	t.Helper()
	h.breweries.AssertExpectations(t)
	h.styles.AssertExpectations(t)
	h.beers.AssertExpectations(t)
	h.images.AssertExpectations(t)
	h.users.AssertExpectations(t)
	require.NoError(t, h.pool.ExpectationsWereMet())
}

func sampleBrewery() *domain.Brewery {
	return &domain.Brewery{ID: breweryID, Name: "Pinta", City: "Wrocław", Country: "Poland"}
}

func sampleBeer() *domain.Beer {
	return &domain.Beer{
		ID:              beerID,
		Name:            "Atak Chmielu",
		BreweryID:       breweryID,
		BreweryName:     "Pinta",
		BeerStyleID:     styleID,
		AlcoholByVolume: 6.1,
		ImageURI:        tempURI,
		TempImage:       true,
	}
}
