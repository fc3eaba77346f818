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
	"github.com/TomWia9/HoppyHub-sub002/services/favorites/internal/domain"
	"github.com/TomWia9/HoppyHub-sub002/services/favorites/internal/repository"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	return mock
}

func strPtr(s string) *string { return &s }

var now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func TestFavoriteRepository_Create(t *testing.T) {
	tests := []struct {
		name    string
		dbErr   error
		wantErr error
	}{
		{name: "success"},
		{
			name:    "beer already favored",
			dbErr:   errors.New("ERROR: duplicate key value violates unique constraint (SQLSTATE 23505)"),
			wantErr: apperrors.ErrAlreadyExists,
		},
		{
			name:    "beer not projected",
			dbErr:   errors.New("violates foreign key constraint (SQLSTATE 23503)"),
			wantErr: apperrors.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMock(t)
			defer mock.Close()
			repo := NewFavoriteRepository(mock)

			f := &domain.Favorite{ID: "fav-1", BeerID: "beer-1", UserID: "user-1", CreatedAt: now}
			exp := mock.ExpectExec("INSERT INTO favorites").WithArgs(f.ID, f.BeerID, f.UserID, f.CreatedAt)
			if tt.dbErr != nil {
				exp.WillReturnError(tt.dbErr)
			} else {
				exp.WillReturnResult(pgxmock.NewResult("INSERT", 1))
			}

			err := repo.Create(context.Background(), f)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestFavoriteRepository_Delete(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewFavoriteRepository(mock)

	mock.ExpectExec("DELETE FROM favorites WHERE user_id = \\$1 AND beer_id = \\$2").
		WithArgs("user-1", "beer-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec("DELETE FROM favorites").
		WithArgs("user-1", "beer-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	require.NoError(t, repo.Delete(context.Background(), "user-1", "beer-1"))
	assert.ErrorIs(t, repo.Delete(context.Background(), "user-1", "beer-1"), apperrors.ErrNotFound)
}

func TestFavoriteRepository_Count(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewFavoriteRepository(mock)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM favorites WHERE beer_id = \\$1").
		WithArgs("beer-1").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(5))

	n, err := repo.Count(context.Background(), "beer-1")
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}

func TestListFavoritesSQL_Filters(t *testing.T) {
	query, args, err := listFavoritesSQL(repository.FavoriteFilter{
		Params: pagination.Params{Page: 2, PerPage: 10, Descending: true, Search: "atak"},
		UserID: strPtr("user-1"),
	})
	require.NoError(t, err)

	assert.Contains(t, query, `FROM "favorites" AS "f"`)
	assert.Contains(t, query, `INNER JOIN "beers" AS "b"`)
	assert.Contains(t, query, `"f"."user_id" = $1`)
	assert.Contains(t, query, `"b"."name" ILIKE $2`)
	assert.Contains(t, query, `ORDER BY "f"."created_at" DESC, "f"."id" ASC`)
	assert.Equal(t, "user-1", args[0])
	assert.Equal(t, "%atak%", args[1])
}

func TestFavoriteRepository_List(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewFavoriteRepository(mock)

	mock.ExpectQuery(`FROM "favorites" AS "f"`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "beer_id", "name", "user_id", "created_at", "total_count"}).
			AddRow("fav-1", "beer-1", "Atak Chmielu", "user-1", now, 1))

	got, total, err := repo.List(context.Background(), repository.FavoriteFilter{
		Params: pagination.DefaultParams(),
		UserID: strPtr("user-1"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, got, 1)
	assert.Equal(t, "Atak Chmielu", got[0].BeerName)
}

func TestBeerRepository_Lock(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewBeerRepository(mock)

	mock.ExpectQuery("FROM beers\\s+WHERE id = \\$1 FOR UPDATE").
		WithArgs("beer-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "brewery_id", "brewery_name", "favorites_count", "updated_at"}).
			AddRow("beer-1", "Atak Chmielu", "brewery-1", "Pinta", 4, now))
	mock.ExpectQuery("FOR UPDATE").WithArgs("missing").WillReturnError(pgx.ErrNoRows)

	b, err := repo.Lock(context.Background(), "beer-1")
	require.NoError(t, err)
	assert.Equal(t, 4, b.FavoritesCount)

	_, err = repo.Lock(context.Background(), "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestBeerRepository_UpsertKeepsCount(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewBeerRepository(mock)

	mock.ExpectExec("VALUES \\(\\$1, \\$2, \\$3, \\$4, 0, \\$5\\)\\s+ON CONFLICT \\(id\\) DO UPDATE\\s+SET name = EXCLUDED.name").
		WithArgs("beer-1", "Atak Chmielu", "brewery-1", "Pinta", now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.Upsert(context.Background(), &domain.Beer{
		ID: "beer-1", Name: "Atak Chmielu", BreweryID: "brewery-1", BreweryName: "Pinta", UpdatedAt: now,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBeerRepository_SetFavoritesCount(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewBeerRepository(mock)

	mock.ExpectExec("UPDATE beers SET favorites_count = \\$1").
		WithArgs(5, "beer-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("UPDATE beers SET favorites_count").
		WithArgs(0, "gone").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	require.NoError(t, repo.SetFavoritesCount(context.Background(), "beer-1", 5))
	assert.ErrorIs(t, repo.SetFavoritesCount(context.Background(), "gone", 0), apperrors.ErrNotFound)
}

func TestBeerRepository_DeleteByBrewery(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewBeerRepository(mock)

	mock.ExpectExec(`DELETE FROM "beers" WHERE \("brewery_id" = \$1\)`).
		WithArgs("brewery-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	n, err := repo.DeleteByBrewery(context.Background(), "brewery-1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestNewSet_BindsAllRepositories(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()

	set := NewSet(mock)
	assert.NotNil(t, set.Favorites)
	assert.NotNil(t, set.Beers)
	assert.NotNil(t, set.Users)
}
