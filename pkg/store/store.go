package store

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"strconv"
	"strings"

	"github.com/acme/taskmanager/pkg/apperrors"
)

// Store is a generic repository over one entity kind. It holds no state
// beyond its schema; every call goes to the backend.
type Store[T any, ID comparable] struct {
	backend    Backend
	schema     Schema[T, ID]
	known      map[string]struct{}
	selectList string
}

// NewStore validates schema and resolves the identifier column once. A
// schema without a usable identifier is a configuration error.
func NewStore[T any, ID comparable](backend Backend, schema Schema[T, ID]) (*Store[T, ID], error) {
	if err := schema.validate(); err != nil {
		return nil, err
	}

	known := make(map[string]struct{}, len(schema.Columns))
	quoted := make([]string, len(schema.Columns))
	for i, c := range schema.Columns {
		known[c] = struct{}{}
		quoted[i] = backend.QuoteIdent(c)
	}

	return &Store[T, ID]{
		backend:    backend,
		schema:     schema,
		known:      known,
		selectList: strings.Join(quoted, ", "),
	}, nil
}

// IDColumn returns the identifier column of the entity kind.
func (s *Store[T, ID]) IDColumn() string {
	return s.schema.ID
}

// Kind returns the entity kind name.
func (s *Store[T, ID]) Kind() string {
	return s.schema.Kind
}

// ByID returns criteria matching the identifier.
func (s *Store[T, ID]) ByID(id ID) Criteria {
	return Where(s.schema.ID).Is(id)
}

func (s *Store[T, ID]) table() string {
	return s.backend.QuoteIdent(s.schema.Table)
}

// Insert persists value and returns the stored row, including a
// store-assigned identifier.
func (s *Store[T, ID]) Insert(ctx context.Context, value T) (T, error) {
	var zero T
	w := &sqlWriter{backend: s.backend}

	var cols, marks []string
	for _, attr := range s.schema.Values(value) {
		if !attr.Present {
			continue
		}
		if _, ok := s.known[attr.Name]; !ok {
			return zero, fmt.Errorf("%w: unknown attribute %q for %s", apperrors.ErrInvalidArgument, attr.Name, s.schema.Kind)
		}
		cols = append(cols, s.backend.QuoteIdent(attr.Name))
		marks = append(marks, w.bind(attr.Value))
	}

	w.write("INSERT INTO " + s.table())
	if len(cols) == 0 {
		w.write(" DEFAULT VALUES")
	} else {
		w.write(" (" + strings.Join(cols, ", ") + ") VALUES (" + strings.Join(marks, ", ") + ")")
	}
	w.write(" RETURNING " + s.selectList)

	rows, err := s.backend.Query(ctx, w.String(), w.args...)
	if err != nil {
		return zero, fmt.Errorf("failed to insert %s: %w", s.schema.Kind, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return zero, fmt.Errorf("failed to insert %s: %w", s.schema.Kind, err)
		}
		return zero, fmt.Errorf("failed to insert %s: no row returned", s.schema.Kind)
	}

	var out T
	if err := rows.Scan(s.schema.Dest(&out)...); err != nil {
		return zero, fmt.Errorf("failed to scan inserted %s: %w", s.schema.Kind, err)
	}
	if err := rows.Err(); err != nil {
		return zero, fmt.Errorf("failed to insert %s: %w", s.schema.Kind, err)
	}
	return out, nil
}

// ExistsByID reports whether a row with id exists.
func (s *Store[T, ID]) ExistsByID(ctx context.Context, id ID) (bool, error) {
	return s.ExistsWhere(ctx, s.ByID(id))
}

// ExistsWhere reports whether any row matches c.
func (s *Store[T, ID]) ExistsWhere(ctx context.Context, c Criteria) (bool, error) {
	w := &sqlWriter{backend: s.backend}
	w.write("SELECT 1 FROM " + s.table())
	if err := w.writeWhere(c, s.known); err != nil {
		return false, err
	}
	w.write(" LIMIT 1")

	rows, err := s.backend.Query(ctx, w.String(), w.args...)
	if err != nil {
		return false, fmt.Errorf("failed to check %s existence: %w", s.schema.Kind, err)
	}
	defer rows.Close()

	found := rows.Next()
	if err := rows.Err(); err != nil {
		return false, fmt.Errorf("failed to check %s existence: %w", s.schema.Kind, err)
	}
	return found, nil
}

// FindByID returns the row with id, or nil when there is none.
func (s *Store[T, ID]) FindByID(ctx context.Context, id ID) (*T, error) {
	return s.FindOne(ctx, s.ByID(id))
}

// FindOne returns the first row matching c, or nil when there is none.
func (s *Store[T, ID]) FindOne(ctx context.Context, c Criteria) (*T, error) {
	for v, err := range s.Each(ctx, c, Limit(1)) {
		if err != nil {
			return nil, err
		}
		return &v, nil
	}
	return nil, nil
}

// FindAll returns every row. The result is a snapshot, not a live view.
func (s *Store[T, ID]) FindAll(ctx context.Context) ([]T, error) {
	return s.FindWhere(ctx, Criteria{})
}

// FindWhere returns the rows matching c.
func (s *Store[T, ID]) FindWhere(ctx context.Context, c Criteria, opts ...QueryOption) ([]T, error) {
	var out []T
	for v, err := range s.Each(ctx, c, opts...) {
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Each lazily scans the rows matching c. The query runs when iteration
// starts, and again on every new iteration.
func (s *Store[T, ID]) Each(ctx context.Context, c Criteria, opts ...QueryOption) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T

		query, args, err := s.selectQuery(c, opts)
		if err != nil {
			yield(zero, err)
			return
		}

		rows, err := s.backend.Query(ctx, query, args...)
		if err != nil {
			yield(zero, fmt.Errorf("failed to query %s: %w", s.schema.Kind, err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			var v T
			if err := rows.Scan(s.schema.Dest(&v)...); err != nil {
				yield(zero, fmt.Errorf("failed to scan %s: %w", s.schema.Kind, err))
				return
			}
			if !yield(v, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(zero, fmt.Errorf("error iterating %s: %w", s.schema.Kind, err))
		}
	}
}

func (s *Store[T, ID]) selectQuery(c Criteria, opts []QueryOption) (string, []any, error) {
	var o queryOptions
	for _, opt := range opts {
		opt(&o)
	}

	w := &sqlWriter{backend: s.backend}
	w.write("SELECT " + s.selectList + " FROM " + s.table())
	if err := w.writeWhere(c, s.known); err != nil {
		return "", nil, err
	}

	if len(o.order) > 0 {
		terms := make([]string, len(o.order))
		for i, t := range o.order {
			if _, ok := s.known[t.column]; !ok {
				return "", nil, fmt.Errorf("%w: unknown order attribute %q", apperrors.ErrInvalidArgument, t.column)
			}
			terms[i] = s.backend.QuoteIdent(t.column)
			if t.desc {
				terms[i] += " DESC"
			}
		}
		w.write(" ORDER BY " + strings.Join(terms, ", "))
	}

	if o.limitSet {
		if o.limit <= 0 {
			return "", nil, fmt.Errorf("%w: limit must be positive, got %d", apperrors.ErrInvalidArgument, o.limit)
		}
		w.write(" LIMIT " + strconv.Itoa(o.limit))
	}

	return w.String(), w.args, nil
}

// UpdateSet applies assignments to every row matching c in one statement and
// returns the number of rows affected.
func (s *Store[T, ID]) UpdateSet(ctx context.Context, c Criteria, assignments Assignments) (int64, error) {
	if len(assignments) == 0 {
		return 0, fmt.Errorf("%w: nothing to update", apperrors.ErrInvalidArgument)
	}
	if c.IsEmpty() {
		return 0, fmt.Errorf("%w: update of %s requires criteria", apperrors.ErrInvalidArgument, s.schema.Kind)
	}

	names := make([]string, 0, len(assignments))
	for name := range assignments {
		if _, ok := s.known[name]; !ok {
			return 0, fmt.Errorf("%w: unknown attribute %q for %s", apperrors.ErrInvalidArgument, name, s.schema.Kind)
		}
		if name == s.schema.ID {
			return 0, fmt.Errorf("%w: identifier %q cannot be reassigned", apperrors.ErrInvalidArgument, name)
		}
		names = append(names, name)
	}
	slices.Sort(names)

	w := &sqlWriter{backend: s.backend}
	w.write("UPDATE " + s.table() + " SET ")
	for i, name := range names {
		if i > 0 {
			w.write(", ")
		}
		w.write(s.backend.QuoteIdent(name) + " = " + w.bind(assignments[name]))
	}
	if err := w.writeWhere(c, s.known); err != nil {
		return 0, err
	}

	n, err := s.backend.Exec(ctx, w.String(), w.args...)
	if err != nil {
		return 0, fmt.Errorf("failed to update %s: %w", s.schema.Kind, err)
	}
	return n, nil
}

// DeleteByID removes the row with id. Deleting a missing row is an error.
func (s *Store[T, ID]) DeleteByID(ctx context.Context, id ID) error {
	w := &sqlWriter{backend: s.backend}
	w.write("DELETE FROM " + s.table())
	if err := w.writeWhere(s.ByID(id), s.known); err != nil {
		return err
	}

	n, err := s.backend.Exec(ctx, w.String(), w.args...)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", s.schema.Kind, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %v: %w", s.schema.Kind, id, apperrors.ErrNotFound)
	}
	return nil
}

// QueryOption adjusts a read.
type QueryOption func(*queryOptions)

type orderTerm struct {
	column string
	desc   bool
}

type queryOptions struct {
	limit    int
	limitSet bool
	order    []orderTerm
}

// Limit bounds the number of rows returned.
func Limit(n int) QueryOption {
	return func(o *queryOptions) {
		o.limit = n
		o.limitSet = true
	}
}

// OrderBy sorts ascending by column. Repeated options add tie-breakers.
func OrderBy(column string) QueryOption {
	return func(o *queryOptions) {
		o.order = append(o.order, orderTerm{column: column})
	}
}

// OrderByDesc sorts descending by column.
func OrderByDesc(column string) QueryOption {
	return func(o *queryOptions) {
		o.order = append(o.order, orderTerm{column: column, desc: true})
	}
}
