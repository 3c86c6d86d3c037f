package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/acme/taskmanager/pkg/apperrors"
)

// PgxQuerier is satisfied by *pgxpool.Pool, *pgxpool.Conn and pgx.Tx.
type PgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type postgresBackend struct {
	q PgxQuerier
}

// NewPostgresBackend returns a Backend running on a pgx connection or pool.
func NewPostgresBackend(q PgxQuerier) Backend {
	return &postgresBackend{q: q}
}

var _ Backend = (*postgresBackend)(nil)

func (b *postgresBackend) Name() string { return "postgres" }

func (b *postgresBackend) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	tag, err := b.q.Exec(ctx, query, args...)
	if err != nil {
		return 0, translatePgError(err)
	}
	return tag.RowsAffected(), nil
}

func (b *postgresBackend) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	rows, err := b.q.Query(ctx, query, args...)
	if err != nil {
		return nil, translatePgError(err)
	}
	return pgRows{Rows: rows}, nil
}

func (b *postgresBackend) Placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}

func (b *postgresBackend) QuoteIdent(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

// pgRows defers statement errors to Err, which is where pgx reports them.
type pgRows struct {
	pgx.Rows
}

func (r pgRows) Scan(dest ...any) error {
	return translatePgError(r.Rows.Scan(dest...))
}

func (r pgRows) Err() error {
	return translatePgError(r.Rows.Err())
}

// translatePgError maps SQLSTATE classes onto the apperrors taxonomy while
// keeping the driver error in the chain.
func translatePgError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case strings.HasPrefix(pgErr.Code, "23"): // integrity_constraint_violation
			return fmt.Errorf("%w: %w", apperrors.ErrConstraintViolation, err)
		case strings.HasPrefix(pgErr.Code, "08"), // connection_exception
			strings.HasPrefix(pgErr.Code, "53"), // insufficient_resources
			strings.HasPrefix(pgErr.Code, "57P"): // operator_intervention
			return fmt.Errorf("%w: %w", apperrors.ErrStoreUnavailable, err)
		}
		return err
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) || pgconn.Timeout(err) {
		return fmt.Errorf("%w: %w", apperrors.ErrStoreUnavailable, err)
	}

	return err
}
