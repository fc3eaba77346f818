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
	"github.com/TomWia9/HoppyHub-sub002/pkg/pagination"
	"github.com/TomWia9/HoppyHub-sub002/services/users/internal/domain"
	"github.com/TomWia9/HoppyHub-sub002/services/users/internal/repository"
)

var dialect = goqu.Dialect("postgres")

// NewSet binds the users repositories to db.
func NewSet(db database.DBTX) repository.Set {
	return repository.Set{Users: NewUserRepository(db)}
}

// UserRepository stores accounts in the users table.
type UserRepository struct {
	db database.DBTX
}

func NewUserRepository(db database.DBTX) *UserRepository {
	return &UserRepository{db: db}
}

const userSelect = `
		SELECT id, email, username, password_hash, role, deleted, created_at, updated_at
		FROM users`

// Create inserts u. A taken email or username is AlreadyExists.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	query := `
		INSERT INTO users (id, email, username, password_hash, role, deleted, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, FALSE, $6, $7)`

	_, err := r.db.Exec(ctx, query,
		u.ID,
		u.Email,
		u.Username,
		u.PasswordHash,
		u.Role,
		u.CreatedAt,
		u.UpdatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return duplicate(err, u)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// duplicate names the unique column a violation hit.
func duplicate(err error, u *domain.User) error {
	if strings.Contains(err.Error(), "uq_users_username") {
		return apperrors.AlreadyExists("user", "username", u.Username)
	}
	return apperrors.AlreadyExists("user", "email", u.Email)
}

// GetByID returns the account, deleted or not.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.scanUser(ctx, "user", id, userSelect+` WHERE id = $1`, id)
}

// GetByEmail looks an account up for login.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.scanUser(ctx, "user", email, userSelect+` WHERE email = $1`, email)
}

// List returns a page of live users with the total count.
func (r *UserRepository) List(ctx context.Context, p pagination.Params) (users []domain.User, total int, err error) {
	query, args, err := listUsersSQL(p)
	if err != nil {
		return nil, 0, fmt.Errorf("build list users query: %w", err)
	}

	ctx, end := database.TraceQuery(ctx, "ListUsers", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Email, &u.Username, &u.Role, &u.CreatedAt, &u.UpdatedAt, &total); err != nil {
			return nil, 0, fmt.Errorf("scan user row: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate user rows: %w", err)
	}
	if users == nil {
		users = []domain.User{}
	}
	return users, total, nil
}

func listUsersSQL(p pagination.Params) (string, []any, error) {
	ds := dialect.From("users").
		Select("id", "email", "username", "role", "created_at", "updated_at",
			goqu.L("count(*) OVER()").As("total_count")).
		Where(goqu.C("deleted").IsFalse()).
		Prepared(true)

	if p.Search != "" {
		pattern := "%" + p.Search + "%"
		ds = ds.Where(goqu.Or(goqu.C("username").ILike(pattern), goqu.C("email").ILike(pattern)))
	}

	sortBy := p.SortBy
	if sortBy == "" {
		sortBy = domain.SortByUsername
	}
	col := goqu.C(sortBy)
	order := col.Asc()
	if p.Descending {
		order = col.Desc()
	}
	ds = ds.Order(order, goqu.C("id").Asc())

	if p.PerPage > 0 {
		ds = ds.Limit(uint(p.PerPage)).Offset(uint(p.Offset()))
	}
	return ds.ToSQL()
}

// Update writes the mutable columns of u.
func (r *UserRepository) Update(ctx context.Context, u *domain.User) error {
	query := `
		UPDATE users
		SET username = $1, password_hash = $2, role = $3, updated_at = $4
		WHERE id = $5`

	ct, err := r.db.Exec(ctx, query, u.Username, u.PasswordHash, u.Role, u.UpdatedAt, u.ID)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return duplicate(err, u)
		}
		return fmt.Errorf("update user: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("user", u.ID)
	}
	return nil
}

// MarkDeleted keeps the row so ids stay unique.
func (r *UserRepository) MarkDeleted(ctx context.Context, id string) error {
	ct, err := r.db.Exec(ctx, `UPDATE users SET deleted = TRUE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("user", id)
	}
	return nil
}

// scanUser runs a single-row query; no row is NotFound(resource, key).
func (r *UserRepository) scanUser(ctx context.Context, resource, key, query string, args ...any) (*domain.User, error) {
	var u domain.User
	err := r.db.QueryRow(ctx, query, args...).Scan(
		&u.ID,
		&u.Email,
		&u.Username,
		&u.PasswordHash,
		&u.Role,
		&u.Deleted,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound(resource, key)
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}
