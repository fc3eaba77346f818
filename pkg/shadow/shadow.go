// Package shadow keeps the local copy of user accounts that services
// consuming the users service's lifecycle events maintain.
package shadow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/TomWia9/HoppyHub-sub002/pkg/database"
	apperrors "github.com/TomWia9/HoppyHub-sub002/pkg/errors"
)

// User is the local shadow of an account owned by the users service.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Deleted   bool      `json:"deleted"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Repository persists the shadow user projection.
type Repository interface {
	GetByID(ctx context.Context, id string) (*User, error)

	// Upsert inserts or refreshes a user without clearing a tombstone.
	Upsert(ctx context.Context, u *User) error

	// Rename reports whether the user exists.
	Rename(ctx context.Context, id, username string) (bool, error)

	// MarkDeleted tombstones the user, creating the row if needed.
	MarkDeleted(ctx context.Context, id string) error
}

// Live returns the user when it exists and has not been deleted.
func Live(ctx context.Context, repo Repository, id string) (*User, error) {
	u, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.Deleted {
		return nil, apperrors.Forbidden("user account has been deleted")
	}
	return u, nil
}

// PostgresRepository implements Repository over a users table with the
// columns id, username, role, deleted and updated_at.
type PostgresRepository struct {
	db database.DBTX
}

// NewPostgresRepository creates a PostgreSQL-backed shadow user repository.
func NewPostgresRepository(db database.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByID retrieves a shadow user.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*User, error) {
	var u User
	err := r.db.QueryRow(ctx, `SELECT id, username, role, deleted, updated_at FROM users WHERE id = $1`, id).
		Scan(&u.ID, &u.Username, &u.Role, &u.Deleted, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("user", id)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// Upsert inserts or refreshes a user. A tombstoned user stays deleted.
func (r *PostgresRepository) Upsert(ctx context.Context, u *User) error {
	query := `
		INSERT INTO users (id, username, role, deleted, updated_at)
		VALUES ($1, $2, $3, FALSE, NOW())
		ON CONFLICT (id) DO UPDATE
		SET username = EXCLUDED.username, role = EXCLUDED.role, updated_at = NOW()`

	if _, err := r.db.Exec(ctx, query, u.ID, u.Username, u.Role); err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

// Rename sets the username. It reports whether the user exists.
func (r *PostgresRepository) Rename(ctx context.Context, id, username string) (bool, error) {
	ct, err := r.db.Exec(ctx, `UPDATE users SET username = $1, updated_at = NOW() WHERE id = $2`, username, id)
	if err != nil {
		return false, fmt.Errorf("rename user: %w", err)
	}
	return ct.RowsAffected() > 0, nil
}

// MarkDeleted tombstones a user, inserting a placeholder row if the
// creation event has not arrived yet.
func (r *PostgresRepository) MarkDeleted(ctx context.Context, id string) error {
	query := `
		INSERT INTO users (id, username, role, deleted, updated_at)
		VALUES ($1, '', '', TRUE, NOW())
		ON CONFLICT (id) DO UPDATE SET deleted = TRUE, updated_at = NOW()`

	if _, err := r.db.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("mark user deleted: %w", err)
	}
	return nil
}
