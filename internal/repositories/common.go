package repositories

import (
	"context"
	"errors"
	"fmt"

	"fuelsync-backend/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// querier is satisfied by *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func newID() string {
	return uuid.NewString()
}

// notFound maps pgx.ErrNoRows to models.ErrNotFound.
func notFound(err error, what string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s %w", what, models.ErrNotFound)
	}
	return err
}

// conflict maps unique violations to models.ErrConflict.
func conflict(err error, msg string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: %s", models.ErrConflict, msg)
	}
	return err
}

// nullable returns nil for an empty id so optional uuid columns get NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func affected(tag pgconn.CommandTag, what string) error {
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s %w", what, models.ErrNotFound)
	}
	return nil
}
