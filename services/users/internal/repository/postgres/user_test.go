package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TomWia9/HoppyHub-sub002/pkg/database"
	apperrors "github.com/TomWia9/HoppyHub-sub002/pkg/errors"
	"github.com/TomWia9/HoppyHub-sub002/pkg/pagination"
	"github.com/TomWia9/HoppyHub-sub002/services/users/internal/domain"
)

func newUserTestFixture(t *testing.T) (*UserRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	return NewUserRepository(mock), mock
}

func sampleUser() *domain.User {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	return &domain.User{
		ID:           "u-1234",
		Email:        "alice@hoppy.test",
		Username:     "alice",
		PasswordHash: "hash-abc",
		Role:         "User",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func userRow(u *domain.User) *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "email", "username", "password_hash", "role", "deleted", "created_at", "updated_at",
	}).AddRow(u.ID, u.Email, u.Username, u.PasswordHash, u.Role, u.Deleted, u.CreatedAt, u.UpdatedAt)
}

func TestUserRepository_Create(t *testing.T) {
	tests := []struct {
		name      string
		dbErr     error
		wantErr   error
		wantField string
	}{
		{name: "success"},
		{
			name:      "email taken",
			dbErr:     errors.New(`ERROR: duplicate key value violates unique constraint "uq_users_email" (SQLSTATE 23505)`),
			wantErr:   apperrors.ErrAlreadyExists,
			wantField: "email",
		},
		{
			name:      "username taken",
			dbErr:     errors.New(`ERROR: duplicate key value violates unique constraint "uq_users_username" (SQLSTATE 23505)`),
			wantErr:   apperrors.ErrAlreadyExists,
			wantField: "username",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newUserTestFixture(t)
			defer mock.Close()

			u := sampleUser()
			exp := mock.ExpectExec("INSERT INTO users").
				WithArgs(u.ID, u.Email, u.Username, u.PasswordHash, u.Role, u.CreatedAt, u.UpdatedAt)
			if tt.dbErr != nil {
				exp.WillReturnError(tt.dbErr)
			} else {
				exp.WillReturnResult(pgxmock.NewResult("INSERT", 1))
			}

			err := repo.Create(context.Background(), u)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Contains(t, err.Error(), tt.wantField)
				return
			}
			require.NoError(t, err)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_GetByID(t *testing.T) {
	repo, mock := newUserTestFixture(t)
	defer mock.Close()

	u := sampleUser()
	u.Deleted = true
	mock.ExpectQuery("FROM users WHERE id = \\$1").WithArgs(u.ID).WillReturnRows(userRow(u))
	mock.ExpectQuery("FROM users WHERE id = \\$1").WithArgs("missing-id").WillReturnError(pgx.ErrNoRows)

	got, err := repo.GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
	assert.True(t, got.Deleted, "deleted users are still readable by id")

	got, err = repo.GetByID(context.Background(), "missing-id")
	assert.Nil(t, got)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByEmail(t *testing.T) {
	repo, mock := newUserTestFixture(t)
	defer mock.Close()

	u := sampleUser()
	mock.ExpectQuery("FROM users WHERE email = \\$1").WithArgs(u.Email).WillReturnRows(userRow(u))
	mock.ExpectQuery("FROM users WHERE email = \\$1").WithArgs("nobody@hoppy.test").WillReturnError(pgx.ErrNoRows)

	got, err := repo.GetByEmail(context.Background(), u.Email)
	require.NoError(t, err)
	assert.Equal(t, "hash-abc", got.PasswordHash)

	_, err = repo.GetByEmail(context.Background(), "nobody@hoppy.test")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestListUsersSQL(t *testing.T) {
	query, args, err := listUsersSQL(pagination.Params{Page: 3, PerPage: 5, SortBy: domain.SortByCreatedAt, Descending: true, Search: "ali"})
	require.NoError(t, err)

	assert.Contains(t, query, `FROM "users"`)
	assert.Contains(t, query, `"deleted" IS FALSE`)
	assert.Contains(t, query, `"username" ILIKE $1`)
	assert.Contains(t, query, `"email" ILIKE $2`)
	assert.Contains(t, query, `ORDER BY "created_at" DESC, "id" ASC`)
	assert.Equal(t, "%ali%", args[0])
}

func TestListUsersSQL_DefaultsToUsername(t *testing.T) {
	query, _, err := listUsersSQL(pagination.DefaultParams())
	require.NoError(t, err)
	assert.Contains(t, query, `ORDER BY "username" ASC`)
	assert.NotContains(t, query, "ILIKE")
}

func TestUserRepository_List(t *testing.T) {
	repo, mock := newUserTestFixture(t)
	defer mock.Close()

	u := sampleUser()
	mock.ExpectQuery(`FROM "users"`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "email", "username", "role", "created_at", "updated_at", "total_count"}).
			AddRow(u.ID, u.Email, u.Username, u.Role, u.CreatedAt, u.UpdatedAt, 7))

	got, total, err := repo.List(context.Background(), pagination.DefaultParams())
	require.NoError(t, err)
	assert.Equal(t, 7, total)
	require.Len(t, got, 1)
	assert.Empty(t, got[0].PasswordHash)
}

func TestUserRepository_ListEmpty(t *testing.T) {
	repo, mock := newUserTestFixture(t)
	defer mock.Close()

	mock.ExpectQuery(`FROM "users"`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "email", "username", "role", "created_at", "updated_at", "total_count"}))

	got, total, err := repo.List(context.Background(), pagination.DefaultParams())
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.NotNil(t, got)
}

func TestUserRepository_Update(t *testing.T) {
	repo, mock := newUserTestFixture(t)
	defer mock.Close()

	u := sampleUser()
	mock.ExpectExec("UPDATE users\\s+SET username = \\$1").
		WithArgs(u.Username, u.PasswordHash, u.Role, u.UpdatedAt, u.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("UPDATE users").
		WithArgs(u.Username, u.PasswordHash, u.Role, u.UpdatedAt, u.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectExec("UPDATE users").
		WithArgs(u.Username, u.PasswordHash, u.Role, u.UpdatedAt, u.ID).
		WillReturnError(errors.New(`violates unique constraint "uq_users_username" (SQLSTATE 23505)`))

	require.NoError(t, repo.Update(context.Background(), u))
	assert.ErrorIs(t, repo.Update(context.Background(), u), apperrors.ErrNotFound)
	assert.ErrorIs(t, repo.Update(context.Background(), u), apperrors.ErrAlreadyExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_MarkDeleted(t *testing.T) {
	repo, mock := newUserTestFixture(t)
	defer mock.Close()

	mock.ExpectExec("UPDATE users SET deleted = TRUE").
		WithArgs("u-1234").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("UPDATE users SET deleted = TRUE").
		WithArgs("missing-id").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	require.NoError(t, repo.MarkDeleted(context.Background(), "u-1234"))
	assert.ErrorIs(t, repo.MarkDeleted(context.Background(), "missing-id"), apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
