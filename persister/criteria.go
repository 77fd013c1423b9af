package persister

import (
	"github.com/syssam/linktable"
	"github.com/syssam/linktable/mapping"
)

// Criteria restricts, orders and pages the elements of a collection.
type Criteria struct {
	// Where filters the elements. Nil matches every element.
	Where Expression
	// OrderBy orders the elements by target fields. Directions are used as given.
	OrderBy []mapping.Ordering
	// FirstResult and MaxResults page the elements. Nil means unbounded.
	FirstResult, MaxResults *int
}

// Expression is a criteria expression over target fields.
type Expression interface {
	expression()
}

// Operator is a comparison operator.
type Operator string

// Comparison operators.
const (
	OpEq  Operator = "="
	OpNeq Operator = "<>"
	OpLt  Operator = "<"
	OpLte Operator = "<="
	OpGt  Operator = ">"
	OpGte Operator = ">="
	OpIn  Operator = "IN"
)

// Comparison compares a target field with a value.
type Comparison struct {
	Field string
	Op    Operator
	Value any
}

// CompositeType is the boolean connective of a Composite.
type CompositeType string

// Connectives.
const (
	TypeAnd CompositeType = "AND"
	TypeOr  CompositeType = "OR"
)

// Composite combines expressions with a boolean connective.
type Composite struct {
	Type        CompositeType
	Expressions []Expression
}

func (Comparison) expression() {}
func (Composite) expression()  {}

// Eq returns field = v.
func Eq(field string, v any) Comparison { return Comparison{Field: field, Op: OpEq, Value: v} }

// Neq returns field <> v.
func Neq(field string, v any) Comparison { return Comparison{Field: field, Op: OpNeq, Value: v} }

// Gt returns field > v.
func Gt(field string, v any) Comparison { return Comparison{Field: field, Op: OpGt, Value: v} }

// Lt returns field < v.
func Lt(field string, v any) Comparison { return Comparison{Field: field, Op: OpLt, Value: v} }

// In returns field IN (vs).
func In(field string, vs ...any) Comparison { return Comparison{Field: field, Op: OpIn, Value: vs} }

// And returns the conjunction of exprs.
func And(exprs ...Expression) Composite { return Composite{Type: TypeAnd, Expressions: exprs} }

// Or returns the disjunction of exprs.
func Or(exprs ...Expression) Composite { return Composite{Type: TypeOr, Expressions: exprs} }

// Limit returns a pointer to n, for Criteria bounds.
func Limit(n int) *int { return &n }

// equalities walks expr and returns its field comparisons in visiting order.
// Only equality comparisons joined by AND can be rendered against the join;
// anything else is rejected instead of producing a weaker query.
func equalities(expr Expression) ([]Comparison, error) {
	var out []Comparison
	var walk func(Expression) error
	walk = func(e Expression) error {
		switch e := e.(type) {
		case nil:
			return nil
		case Comparison:
			if e.Op != OpEq {
				return linktable.NewUnsupportedOperationError("matching", "operator %s on field %q", e.Op, e.Field)
			}
			out = append(out, e)
		case *Comparison:
			return walk(*e)
		case Composite:
			if e.Type != TypeAnd {
				return linktable.NewUnsupportedOperationError("matching", "%s composite expressions", e.Type)
			}
			for _, sub := range e.Expressions {
				if err := walk(sub); err != nil {
					return err
				}
			}
		case *Composite:
			return walk(*e)
		default:
			return linktable.NewUnsupportedOperationError("matching", "expression %T", e)
		}
		return nil
	}
	if err := walk(expr); err != nil {
		return nil, err
	}
	return out, nil
}
