// Package sqlgraph classifies database errors raised while writing link rows.
package sqlgraph

import (
	"errors"
	"fmt"
	"strings"
)

// ConstraintKind identifies the kind of a violated constraint.
type ConstraintKind uint8

// Constraint kinds.
const (
	NoConstraint ConstraintKind = iota
	UniqueConstraint
	ForeignKeyConstraint
	CheckConstraint
)

// String returns the name of the constraint kind.
func (k ConstraintKind) String() string {
	switch k {
	case UniqueConstraint:
		return "unique"
	case ForeignKeyConstraint:
		return "foreign-key"
	case CheckConstraint:
		return "check"
	default:
		return "none"
	}
}

// ConstraintError records a constraint violation on a link table. The
// persister returns driver errors unchanged; callers that want to attach the
// table and kind wrap them in a ConstraintError, which Classify recognizes.
type ConstraintError struct {
	Kind  ConstraintKind
	Table string
	Err   error
}

// Error returns the error string.
func (e *ConstraintError) Error() string {
	return fmt.Sprintf("sqlgraph: %s constraint violated on %s: %v", e.Kind, e.Table, e.Err)
}

// Unwrap returns the underlying error.
func (e *ConstraintError) Unwrap() error { return e.Err }

// IsConstraintError returns true if the error resulted from a database constraint violation.
func IsConstraintError(err error) bool {
	return Classify(err) != NoConstraint
}

// Classify reports which kind of constraint, if any, err violates.
func Classify(err error) ConstraintKind {
	if err == nil {
		return NoConstraint
	}
	var e *ConstraintError
	if errors.As(err, &e) {
		return e.Kind
	}
	switch {
	case IsUniqueConstraintError(err):
		return UniqueConstraint
	case IsForeignKeyConstraintError(err):
		return ForeignKeyConstraint
	case IsCheckConstraintError(err):
		return CheckConstraint
	}
	return NoConstraint
}

// errorCoder is an interface for database errors that provide error codes.
type errorCoder interface {
	Code() string
}

// errorNumberer is an interface for database errors that provide numeric error codes.
type errorNumberer interface {
	Number() uint16
}

// sqlStateError is an interface for errors that provide SQLSTATE codes.
// Implemented by: pq.Error, pgx, and some MySQL drivers.
type sqlStateError interface {
	SQLState() string
}

// PostgreSQL SQLSTATE codes for constraint violations (Class 23).
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// MySQL error numbers for constraint violations.
const (
	mysqlDuplicateEntry         = 1062
	mysqlForeignKeyParent       = 1451 // Cannot delete or update a parent row
	mysqlForeignKeyChild        = 1452 // Cannot add or update a child row
	mysqlCheckConstraintViolate = 3819
)

// violation describes how each driver family reports one constraint kind.
type violation struct {
	state   string
	numbers []uint16
	texts   []string
}

var (
	uniqueViolation = violation{
		state:   pgUniqueViolation,
		numbers: []uint16{mysqlDuplicateEntry},
		texts:   []string{"Error 1062", "violates unique constraint", "UNIQUE constraint failed"},
	}
	foreignKeyViolation = violation{
		state:   pgForeignKeyViolation,
		numbers: []uint16{mysqlForeignKeyParent, mysqlForeignKeyChild},
		texts:   []string{"Error 1451", "Error 1452", "violates foreign key constraint", "FOREIGN KEY constraint failed"},
	}
	checkViolation = violation{
		state:   pgCheckViolation,
		numbers: []uint16{mysqlCheckConstraintViolate},
		texts:   []string{"Error 3819", "violates check constraint", "CHECK constraint failed"},
	}
)

func (v violation) matches(err error) bool {
	if err == nil {
		return false
	}
	if e, ok := asError[sqlStateError](err); ok && e.SQLState() == v.state {
		return true
	}
	if e, ok := asError[errorCoder](err); ok && e.Code() == v.state {
		return true
	}
	if e, ok := asError[errorNumberer](err); ok {
		for _, n := range v.numbers {
			if e.Number() == n {
				return true
			}
		}
	}
	// Fallback to string matching for drivers that don't implement interfaces.
	return containsAny(err.Error(), v.texts...)
}

// IsUniqueConstraintError reports if the error resulted from a DB uniqueness constraint violation.
// e.g. the same link row inserted twice.
func IsUniqueConstraintError(err error) bool {
	return uniqueViolation.matches(err)
}

// IsForeignKeyConstraintError reports if the error resulted from a database foreign-key constraint violation.
// e.g. a link row pointing to a missing entity.
func IsForeignKeyConstraintError(err error) bool {
	return foreignKeyViolation.matches(err)
}

// IsCheckConstraintError reports if the error resulted from a database check constraint violation.
func IsCheckConstraintError(err error) bool {
	return checkViolation.matches(err)
}

// asError attempts to extract an error implementing interface T from the error chain.
func asError[T any](err error) (T, bool) {
	var target T
	for err != nil {
		if e, ok := err.(T); ok {
			return e, true
		}
		err = errors.Unwrap(err)
	}
	return target, false
}

// containsAny returns true if s contains any of the substrings.
func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
