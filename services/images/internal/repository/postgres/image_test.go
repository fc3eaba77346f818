package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TomWia9/HoppyHub-sub002/pkg/database"
	apperrors "github.com/TomWia9/HoppyHub-sub002/pkg/errors"
	"github.com/TomWia9/HoppyHub-sub002/services/images/internal/domain"
)

var (
	created = time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	now     = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
)

func newImageTestFixture(t *testing.T) (*ImageRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewImageRepository(mock), mock
}

func sampleImage() *domain.Image {
	return &domain.Image{
		Path:        "Beers/b1/beer1",
		URI:         "http://localhost:8005/files/Beers/b1/beer1",
		ContentType: "image/jpeg",
		Size:        2048,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestImageRepository_UpsertKeepsCreatedAt(t *testing.T) {
	repo, mock := newImageTestFixture(t)
	img := sampleImage()

	mock.ExpectQuery("INSERT INTO images[\\s\\S]+ON CONFLICT \\(path\\) DO UPDATE").
		WithArgs(img.Path, img.URI, img.ContentType, img.Size, img.CreatedAt, img.UpdatedAt).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(created))

	require.NoError(t, repo.Upsert(context.Background(), img))
	assert.Equal(t, created, img.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestImageRepository_GetByURI(t *testing.T) {
	repo, mock := newImageTestFixture(t)
	img := sampleImage()

	mock.ExpectQuery("FROM images WHERE uri = \\$1").
		WithArgs(img.URI).
		WillReturnRows(pgxmock.NewRows([]string{"path", "uri", "content_type", "size", "created_at", "updated_at"}).
			AddRow(img.Path, img.URI, img.ContentType, img.Size, img.CreatedAt, img.UpdatedAt))
	mock.ExpectQuery("FROM images WHERE uri = \\$1").
		WithArgs("http://nowhere").
		WillReturnError(pgx.ErrNoRows)

	got, err := repo.GetByURI(context.Background(), img.URI)
	require.NoError(t, err)
	assert.Equal(t, img.Path, got.Path)

	_, err = repo.GetByURI(context.Background(), "http://nowhere")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestImageRepository_Delete(t *testing.T) {
	repo, mock := newImageTestFixture(t)

	mock.ExpectExec("DELETE FROM images WHERE path = \\$1").
		WithArgs("Beers/b1/beer1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec("DELETE FROM images").
		WithArgs("Beers/b1/beer1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	require.NoError(t, repo.Delete(context.Background(), "Beers/b1/beer1"))
	assert.ErrorIs(t, repo.Delete(context.Background(), "Beers/b1/beer1"), apperrors.ErrNotFound)
}

func TestDeleteUnderSQL(t *testing.T) {
	query, args, err := deleteUnderSQL("Opinions/b_1/")
	require.NoError(t, err)

	assert.Contains(t, query, `DELETE FROM "images"`)
	assert.Contains(t, query, `("path" = $1)`)
	assert.Contains(t, query, `("path" LIKE $2)`)
	assert.Contains(t, query, `RETURNING "path"`)
	assert.Equal(t, []any{"Opinions/b_1", `Opinions/b\_1/%`}, args)
}

func TestImageRepository_DeleteUnder(t *testing.T) {
	repo, mock := newImageTestFixture(t)

	mock.ExpectQuery(`DELETE FROM "images"`).
		WithArgs("Opinions/b1", "Opinions/b1/%").
		WillReturnRows(pgxmock.NewRows([]string{"path"}).
			AddRow("Opinions/b1/beer1/op1").
			AddRow("Opinions/b1/beer2/op2"))

	paths, err := repo.DeleteUnder(context.Background(), "Opinions/b1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Opinions/b1/beer1/op1", "Opinions/b1/beer2/op2"}, paths)
	assert.NoError(t, mock.ExpectationsWereMet())
}
