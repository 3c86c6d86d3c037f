package store

import (
	"fmt"
	"slices"
	"strings"

	"github.com/acme/taskmanager/pkg/apperrors"
)

// Operator is a comparison applied by a predicate.
type Operator string

const (
	OpEq  Operator = "="
	OpNe  Operator = "<>"
	OpLt  Operator = "<"
	OpLte Operator = "<="
	OpGt  Operator = ">"
	OpGte Operator = ">="
	OpIn  Operator = "IN"
)

// Predicate is a single condition on one column.
type Predicate struct {
	Column string
	Op     Operator
	Value  any   // unused for OpIn
	Values []any // only for OpIn
}

// Criteria is an immutable conjunction of predicates. The zero value matches
// every row.
type Criteria struct {
	preds []Predicate
}

// Clause is a pending predicate on a column; completing it yields Criteria.
type Clause struct {
	base   Criteria
	column string
}

// Where starts a new Criteria with a predicate on column.
func Where(column string) Clause {
	return Clause{column: column}
}

// And starts an additional predicate on column, conjoined with c.
func (c Criteria) And(column string) Clause {
	return Clause{base: c, column: column}
}

// Predicates returns a copy of the predicates in c.
func (c Criteria) Predicates() []Predicate {
	return slices.Clone(c.preds)
}

// IsEmpty reports whether c has no predicates.
func (c Criteria) IsEmpty() bool {
	return len(c.preds) == 0
}

func (c Criteria) String() string {
	if len(c.preds) == 0 {
		return "<all>"
	}
	parts := make([]string, len(c.preds))
	for i, p := range c.preds {
		if p.Op == OpIn {
			parts[i] = fmt.Sprintf("%s IN %v", p.Column, p.Values)
			continue
		}
		parts[i] = fmt.Sprintf("%s %s %v", p.Column, p.Op, p.Value)
	}
	return strings.Join(parts, " AND ")
}

func (cl Clause) with(p Predicate) Criteria {
	// Clip forces append to copy, so criteria sharing a prefix never alias.
	return Criteria{preds: append(slices.Clip(cl.base.preds), p)}
}

// Is matches rows whose column equals v.
func (cl Clause) Is(v any) Criteria {
	return cl.with(Predicate{Column: cl.column, Op: OpEq, Value: v})
}

// Not matches rows whose column differs from v.
func (cl Clause) Not(v any) Criteria {
	return cl.with(Predicate{Column: cl.column, Op: OpNe, Value: v})
}

// In matches rows whose column is one of vs. An empty set matches nothing.
func (cl Clause) In(vs ...any) Criteria {
	return cl.with(Predicate{Column: cl.column, Op: OpIn, Values: slices.Clone(vs)})
}

// LessThan matches rows whose column is below v.
func (cl Clause) LessThan(v any) Criteria {
	return cl.with(Predicate{Column: cl.column, Op: OpLt, Value: v})
}

// LessThanOrEquals matches rows whose column is at most v.
func (cl Clause) LessThanOrEquals(v any) Criteria {
	return cl.with(Predicate{Column: cl.column, Op: OpLte, Value: v})
}

// GreaterThan matches rows whose column is above v.
func (cl Clause) GreaterThan(v any) Criteria {
	return cl.with(Predicate{Column: cl.column, Op: OpGt, Value: v})
}

// GreaterThanOrEquals matches rows whose column is at least v.
func (cl Clause) GreaterThanOrEquals(v any) Criteria {
	return cl.with(Predicate{Column: cl.column, Op: OpGte, Value: v})
}

// Values converts a typed slice for use with Clause.In.
func Values[V any](vs []V) []any {
	out := make([]any, len(vs))
	for i, v := range vs {
		out[i] = v
	}
	return out
}

// sqlWriter accumulates a statement and its bound arguments.
type sqlWriter struct {
	backend Backend
	sb      strings.Builder
	args    []any
}

func (w *sqlWriter) write(s string) {
	w.sb.WriteString(s)
}

func (w *sqlWriter) bind(v any) string {
	w.args = append(w.args, v)
	return w.backend.Placeholder(len(w.args))
}

func (w *sqlWriter) String() string {
	return w.sb.String()
}

// writeWhere renders c as a WHERE clause. known holds the columns of the
// entity kind; predicates on any other name are rejected.
func (w *sqlWriter) writeWhere(c Criteria, known map[string]struct{}) error {
	if len(c.preds) == 0 {
		return nil
	}
	w.write(" WHERE ")
	for i, p := range c.preds {
		if _, ok := known[p.Column]; !ok {
			return fmt.Errorf("%w: unknown attribute %q in criteria", apperrors.ErrInvalidArgument, p.Column)
		}
		if i > 0 {
			w.write(" AND ")
		}
		col := w.backend.QuoteIdent(p.Column)
		switch p.Op {
		case OpIn:
			if len(p.Values) == 0 {
				w.write("1 = 0")
				continue
			}
			w.write(col + " IN (")
			for j, v := range p.Values {
				if j > 0 {
					w.write(", ")
				}
				w.write(w.bind(v))
			}
			w.write(")")
		case OpEq, OpNe, OpLt, OpLte, OpGt, OpGte:
			w.write(col + " " + string(p.Op) + " " + w.bind(p.Value))
		default:
			return fmt.Errorf("%w: unsupported operator %q", apperrors.ErrInvalidArgument, p.Op)
		}
	}
	return nil
}
