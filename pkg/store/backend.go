package store

import "context"

// Backend executes statements against a durable store. Implementations
// translate driver errors into the apperrors taxonomy.
type Backend interface {
	// Name identifies the dialect, e.g. "postgres" or "sqlite".
	Name() string
	// Exec runs a statement and returns the number of affected rows.
	Exec(ctx context.Context, query string, args ...any) (int64, error)
	// Query runs a statement that returns rows.
	Query(ctx context.Context, query string, args ...any) (Rows, error)
	// Placeholder returns the bind marker for the n-th argument (1-based).
	Placeholder(n int) string
	// QuoteIdent quotes a table or column name.
	QuoteIdent(name string) string
}

// Rows is a forward-only cursor over a result set.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
}
