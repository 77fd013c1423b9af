package sqlgraph

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

type stateErr string

func (e stateErr) Error() string    { return "driver error" }
func (e stateErr) SQLState() string { return string(e) }

type numberErr uint16

func (e numberErr) Error() string  { return "driver error" }
func (e numberErr) Number() uint16 { return uint16(e) }

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want ConstraintKind
	}{
		{"nil", nil, NoConstraint},
		{"plain", errors.New("connection reset"), NoConstraint},
		{"pq/unique", &pq.Error{Code: "23505", Message: `duplicate key value violates unique constraint "student_course_pkey"`}, UniqueConstraint},
		{"pq/fk", &pq.Error{Code: "23503", Message: `insert or update on table "student_course" violates foreign key constraint "fk_course"`}, ForeignKeyConstraint},
		{"mysql/unique", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry '5-9' for key 'PRIMARY'"}, UniqueConstraint},
		{"mysql/fk", &mysql.MySQLError{Number: 1452, Message: "Cannot add or update a child row"}, ForeignKeyConstraint},
		{"mysql/check", &mysql.MySQLError{Number: 3819, Message: "Check constraint 'c' is violated."}, CheckConstraint},
		{"sqlite/unique", errors.New("constraint failed: UNIQUE constraint failed: student_course.student_id, student_course.course_id (1555)"), UniqueConstraint},
		{"sqlite/fk", errors.New("constraint failed: FOREIGN KEY constraint failed (787)"), ForeignKeyConstraint},
		{"sqlstate/check", stateErr("23514"), CheckConstraint},
		{"number/unique", numberErr(1062), UniqueConstraint},
		{"wrapped", fmt.Errorf("dialect/sql: exec: %w", stateErr("23505")), UniqueConstraint},
		{"typed", &ConstraintError{Kind: ForeignKeyConstraint, Table: "student_course", Err: errors.New("x")}, ForeignKeyConstraint},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
			assert.Equal(t, tt.want != NoConstraint, IsConstraintError(tt.err))
		})
	}
}

func TestConstraintError(t *testing.T) {
	t.Parallel()

	cause := errors.New("duplicate")
	err := &ConstraintError{Kind: UniqueConstraint, Table: "student_course", Err: cause}
	assert.Equal(t, "sqlgraph: unique constraint violated on student_course: duplicate", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "none", NoConstraint.String())
	assert.Equal(t, "check", CheckConstraint.String())
}
