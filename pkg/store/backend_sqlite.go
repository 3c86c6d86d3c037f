package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/acme/taskmanager/pkg/apperrors"
)

type sqliteBackend struct {
	db *sql.DB
}

// NewSQLiteBackend returns a Backend running on a database/sql handle opened
// with the modernc.org/sqlite driver.
func NewSQLiteBackend(db *sql.DB) Backend {
	return &sqliteBackend{db: db}
}

var _ Backend = (*sqliteBackend)(nil)

func (b *sqliteBackend) Name() string { return "sqlite" }

func (b *sqliteBackend) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	args, err := normalizeSQLiteArgs(args)
	if err != nil {
		return 0, err
	}
	res, err := b.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, translateSQLiteError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, translateSQLiteError(err)
	}
	return n, nil
}

func (b *sqliteBackend) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	args, err := normalizeSQLiteArgs(args)
	if err != nil {
		return nil, err
	}
	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translateSQLiteError(err)
	}
	return sqlRows{rows: rows}, nil
}

func (b *sqliteBackend) Placeholder(int) string {
	return "?"
}

func (b *sqliteBackend) QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

type sqlRows struct {
	rows *sql.Rows
}

func (r sqlRows) Next() bool { return r.rows.Next() }

func (r sqlRows) Scan(dest ...any) error {
	return translateSQLiteError(r.rows.Scan(dest...))
}

func (r sqlRows) Err() error {
	return translateSQLiteError(r.rows.Err())
}

func (r sqlRows) Close() {
	_ = r.rows.Close()
}

// normalizeSQLiteArgs reduces arguments to driver values and stores every
// timestamp in UTC. SQLite compares timestamps as text, so a single offset
// keeps ordering comparisons correct.
func normalizeSQLiteArgs(args []any) ([]any, error) {
	out := make([]any, len(args))
	for i, a := range args {
		v, err := driver.DefaultParameterConverter.ConvertValue(a)
		if err != nil {
			return nil, fmt.Errorf("%w: argument %d: %v", apperrors.ErrInvalidArgument, i+1, err)
		}
		if t, ok := v.(time.Time); ok {
			v = t.UTC()
		}
		out[i] = v
	}
	return out, nil
}

func translateSQLiteError(err error) error {
	if err == nil {
		return nil
	}

	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() & 0xff {
		case sqlite3.SQLITE_CONSTRAINT:
			return fmt.Errorf("%w: %w", apperrors.ErrConstraintViolation, err)
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED, sqlite3.SQLITE_CANTOPEN, sqlite3.SQLITE_IOERR:
			return fmt.Errorf("%w: %w", apperrors.ErrStoreUnavailable, err)
		}
		return err
	}

	if errors.Is(err, sql.ErrConnDone) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", apperrors.ErrStoreUnavailable, err)
	}

	return err
}
