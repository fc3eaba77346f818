package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/TomWia9/HoppyHub-sub002/pkg/auth"
	"github.com/TomWia9/HoppyHub-sub002/pkg/database"
	apperrors "github.com/TomWia9/HoppyHub-sub002/pkg/errors"
	"github.com/TomWia9/HoppyHub-sub002/pkg/events"
	"github.com/TomWia9/HoppyHub-sub002/pkg/kafka"
	"github.com/TomWia9/HoppyHub-sub002/pkg/pagination"
	"github.com/TomWia9/HoppyHub-sub002/pkg/uow"
	"github.com/TomWia9/HoppyHub-sub002/services/users/internal/domain"
	"github.com/TomWia9/HoppyHub-sub002/services/users/internal/repository"
)

// memoryUsers enforces the same uniqueness as the users table.
type memoryUsers struct {
	mu    sync.Mutex
	items map[string]domain.User
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{items: map[string]domain.User{}}
}

func (m *memoryUsers) unique(u *domain.User) error {
	for id, existing := range m.items {
		if id == u.ID {
			continue
		}
		if existing.Email == u.Email {
			return apperrors.AlreadyExists("user", "email", u.Email)
		}
		if existing.Username == u.Username {
			return apperrors.AlreadyExists("user", "username", u.Username)
		}
	}
	return nil
}

func (m *memoryUsers) Create(_ context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.unique(u); err != nil {
		return err
	}
	m.items[u.ID] = *u
	return nil
}

func (m *memoryUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.items[id]
	if !ok {
		return nil, apperrors.NotFound("user", id)
	}
	return &u, nil
}

func (m *memoryUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.items {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, apperrors.NotFound("user", email)
}

func (m *memoryUsers) List(context.Context, pagination.Params) ([]domain.User, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.User
	for _, u := range m.items {
		if !u.Deleted {
			out = append(out, u)
		}
	}
	return out, len(out), nil
}

func (m *memoryUsers) Update(_ context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[u.ID]; !ok {
		return apperrors.NotFound("user", u.ID)
	}
	if err := m.unique(u); err != nil {
		return err
	}
	m.items[u.ID] = *u
	return nil
}

func (m *memoryUsers) MarkDeleted(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.items[id]
	if !ok {
		return apperrors.NotFound("user", id)
	}
	u.Deleted = true
	m.items[id] = u
	return nil
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

const (
	testSecret = "test-secret-that-is-long-enough-1234"
	password   = "Hoppy123"
)

var (
	fixed = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	admin = auth.Actor{UserID: "9f0e1d2c-3b4a-4596-8877-665544332211", Role: auth.RoleAdministrator}
)

type harness struct {
	svc    *Service
	pool   pgxmock.PgxPoolIface
	pub    *recordingPublisher
	users  *memoryUsers
	tokens *auth.Manager
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
		pool:   pool,
		pub:    &recordingPublisher{},
		users:  newMemoryUsers(),
		tokens: auth.NewManager(testSecret, time.Hour),
	}
	factory := func(database.DBTX) repository.Set {
		return repository.Set{Users: h.users}
	}

	logger := newTestLogger()
	executor := uow.New(pool, h.pub, events.SourceUsers, logger)
	h.svc = New(pool, factory, executor, h.tokens, bcrypt.MinCost, logger)
	h.svc.now = func() time.Time { return fixed }
	return h
}

// commits expects n successful units of work.
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

// registered creates an account and returns it with an actor for it.
func (h *harness) registered(t *testing.T, email, username string) (*domain.User, auth.Actor) {
	t.Helper()
	h.commits(1)
	u, err := h.svc.RegisterUser(context.Background(), RegisterUser{Email: email, Username: username, Password: password})
	require.NoError(t, err)
	return u, auth.Actor{UserID: u.ID, Role: u.Role}
}
