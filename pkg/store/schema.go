package store

import (
	"fmt"

	"github.com/jinzhu/inflection"

	"github.com/acme/taskmanager/pkg/apperrors"
)

// Schema declares how an entity kind maps onto a table. Every entity kind
// hand-writes one; nothing is discovered at runtime.
type Schema[T any, ID comparable] struct {
	// Kind is the singular entity name used in errors and logs.
	Kind string
	// Table defaults to the plural of Kind.
	Table string
	// ID is the identifier column.
	ID string
	// Columns lists every column, identifier included, in scan order.
	Columns []string
	// Dest returns scan destinations for Columns, in the same order.
	Dest func(*T) []any
	// Values returns the present/absent view used by Insert. A store-assigned
	// identifier is reported absent.
	Values func(T) []Attribute
}

func (s *Schema[T, ID]) validate() error {
	if s.Kind == "" {
		return fmt.Errorf("%w: schema kind must be defined", apperrors.ErrInvalidArgument)
	}
	if s.Table == "" {
		s.Table = inflection.Plural(s.Kind)
	}
	if s.ID == "" {
		return fmt.Errorf("%w: identifier must be defined for %s", apperrors.ErrInvalidArgument, s.Kind)
	}
	if s.Dest == nil || s.Values == nil {
		return fmt.Errorf("%w: schema for %s needs Dest and Values", apperrors.ErrInvalidArgument, s.Kind)
	}

	seen := make(map[string]struct{}, len(s.Columns))
	for _, c := range s.Columns {
		if _, dup := seen[c]; dup {
			return fmt.Errorf("%w: duplicate column %q in %s", apperrors.ErrInvalidArgument, c, s.Kind)
		}
		seen[c] = struct{}{}
	}
	if _, ok := seen[s.ID]; !ok {
		return fmt.Errorf("%w: identifier %q is not a column of %s", apperrors.ErrInvalidArgument, s.ID, s.Kind)
	}

	var zero T
	if n := len(s.Dest(&zero)); n != len(s.Columns) {
		return fmt.Errorf("%w: %s declares %d columns but %d scan destinations",
			apperrors.ErrInvalidArgument, s.Kind, len(s.Columns), n)
	}
	return nil
}
