package database

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the query surface shared by *pgxpool.Pool, pgx.Tx and pgxmock.
// Repositories hold a DBTX so the same code runs against the pool or inside
// a unit-of-work transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TxBeginner starts local transactions.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// IsUniqueViolation reports whether err is a postgres unique_violation (23505).
func IsUniqueViolation(err error) bool {
	return hasSQLState(err, "23505")
}

// IsForeignKeyViolation reports whether err is a postgres foreign_key_violation (23503).
func IsForeignKeyViolation(err error) bool {
	return hasSQLState(err, "23503")
}

// hasSQLState matches typed pgconn errors and, for errors that crossed a
// string boundary (pgxmock, wrapped driver messages), the "SQLSTATE xxxxx" suffix.
func hasSQLState(err error, code string) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == code
	}
	return strings.Contains(err.Error(), "SQLSTATE "+code)
}
