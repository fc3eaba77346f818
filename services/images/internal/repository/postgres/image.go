package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/jackc/pgx/v5"

	"github.com/TomWia9/HoppyHub-sub002/pkg/database"
	apperrors "github.com/TomWia9/HoppyHub-sub002/pkg/errors"
	"github.com/TomWia9/HoppyHub-sub002/services/images/internal/domain"
	"github.com/TomWia9/HoppyHub-sub002/services/images/internal/repository"
)

var dialect = goqu.Dialect("postgres")

// likeEscaper escapes the LIKE wildcards in a literal prefix.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// NewSet binds the images repositories to db.
func NewSet(db database.DBTX) repository.Set {
	return repository.Set{Images: NewImageRepository(db)}
}

// ImageRepository implements repository.ImageRepository using PostgreSQL.
type ImageRepository struct {
	db database.DBTX
}

// NewImageRepository creates a new PostgreSQL-backed image repository.
func NewImageRepository(db database.DBTX) *ImageRepository {
	return &ImageRepository{db: db}
}

// Upsert inserts or replaces an image record.
func (r *ImageRepository) Upsert(ctx context.Context, img *domain.Image) error {
	query := `
		INSERT INTO images (path, uri, content_type, size, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (path) DO UPDATE
		SET uri = EXCLUDED.uri, content_type = EXCLUDED.content_type,
		    size = EXCLUDED.size, updated_at = EXCLUDED.updated_at
		RETURNING created_at`

	err := r.db.QueryRow(ctx, query,
		img.Path,
		img.URI,
		img.ContentType,
		img.Size,
		img.CreatedAt,
		img.UpdatedAt,
	).Scan(&img.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert image: %w", err)
	}
	return nil
}

// GetByPath retrieves an image by its path.
func (r *ImageRepository) GetByPath(ctx context.Context, path string) (*domain.Image, error) {
	return r.scanImage(ctx, path, imageSelect+` WHERE path = $1`, path)
}

// GetByURI retrieves an image by its public URI.
func (r *ImageRepository) GetByURI(ctx context.Context, uri string) (*domain.Image, error) {
	return r.scanImage(ctx, uri, imageSelect+` WHERE uri = $1`, uri)
}

// Delete removes an image record by path.
func (r *ImageRepository) Delete(ctx context.Context, path string) error {
	ct, err := r.db.Exec(ctx, `DELETE FROM images WHERE path = $1`, path)
	if err != nil {
		return fmt.Errorf("delete image: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("image", path)
	}
	return nil
}

// DeleteUnder removes every record at or beneath prefix.
func (r *ImageRepository) DeleteUnder(ctx context.Context, prefix string) (paths []string, err error) {
	query, args, err := deleteUnderSQL(prefix)
	if err != nil {
		return nil, fmt.Errorf("build delete images query: %w", err)
	}

	ctx, end := database.TraceQuery(ctx, "DeleteImagesUnder", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("delete images under %s: %w", prefix, err)
	}
	defer rows.Close()

	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scan deleted path: %w", err)
		}
		paths = append(paths, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate deleted paths: %w", err)
	}
	return paths, nil
}

func deleteUnderSQL(prefix string) (string, []any, error) {
	prefix = strings.TrimSuffix(prefix, "/")
	return dialect.Delete("images").
		Where(goqu.Or(
			goqu.C("path").Eq(prefix),
			goqu.C("path").Like(likeEscaper.Replace(prefix)+"/%"),
		)).
		Returning("path").
		Prepared(true).
		ToSQL()
}

const imageSelect = `
		SELECT path, uri, content_type, size, created_at, updated_at
		FROM images`

func (r *ImageRepository) scanImage(ctx context.Context, key, query string, args ...any) (*domain.Image, error) {
	var img domain.Image
	err := r.db.QueryRow(ctx, query, args...).Scan(
		&img.Path,
		&img.URI,
		&img.ContentType,
		&img.Size,
		&img.CreatedAt,
		&img.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("image", key)
		}
		return nil, fmt.Errorf("scan image: %w", err)
	}
	return &img, nil
}
