package mapping

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-openapi/inflect"
)

// validIdentifierRe validates SQL identifiers (alphanumeric, underscores, dots for schema.name).
var validIdentifierRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_.]*$`)

// Unquote strips the backticks marking an identifier that must be quoted by
// the dialect. It reports whether the name was marked.
func Unquote(name string) (string, bool) {
	if len(name) >= 2 && name[0] == '`' && name[len(name)-1] == '`' {
		return name[1 : len(name)-1], true
	}
	return name, false
}

func checkIdent(name string) error {
	raw, quoted := Unquote(name)
	switch {
	case raw == "":
		return errors.New("empty identifier")
	case len(raw) > 128:
		return fmt.Errorf("identifier %q is too long", raw)
	case quoted && strings.ContainsRune(raw, '`'):
		return fmt.Errorf("identifier %q contains a backtick", raw)
	case !quoted && !validIdentifierRe.MatchString(raw):
		return fmt.Errorf("invalid identifier %q", raw)
	}
	return nil
}

// Naming derives the table and column names a mapping leaves out.
type Naming interface {
	// TableName returns the table of an entity.
	TableName(entity string) string
	// ColumnName returns the column of a field.
	ColumnName(field string) string
	// JoinTableName returns the join table of an owning association.
	JoinTableName(source, target, assoc string) string
	// JoinKeyColumnName returns the join table column referencing the
	// given column of entity.
	JoinKeyColumnName(entity, referenced string) string
}

// DefaultNaming is the snake_case naming strategy: entity "StudentGroup"
// maps to table "student_group", and the join table of Student.courses
// is "student_course" with columns "student_id" and "course_id".
type DefaultNaming struct{}

// TableName implements Naming.
func (DefaultNaming) TableName(entity string) string {
	return inflect.Underscore(entity)
}

// ColumnName implements Naming.
func (DefaultNaming) ColumnName(field string) string {
	return inflect.Underscore(field)
}

// JoinTableName implements Naming.
func (DefaultNaming) JoinTableName(source, target, _ string) string {
	return inflect.Underscore(source) + "_" + inflect.Underscore(target)
}

// JoinKeyColumnName implements Naming.
func (DefaultNaming) JoinKeyColumnName(entity, referenced string) string {
	ref, _ := Unquote(referenced)
	return inflect.Underscore(entity) + "_" + ref
}

// applyNaming fills in the names an entity mapping omitted.
func applyNaming(n Naming, entities map[string]*Entity) {
	for _, e := range entities {
		if e.Table == "" {
			e.Table = n.TableName(e.Name)
		}
		for _, f := range e.Fields {
			if f.Column == "" {
				f.Column = n.ColumnName(f.Name)
			}
		}
	}
	for _, e := range entities {
		for _, a := range e.Associations {
			if !a.IsOwningSide() {
				continue
			}
			target, ok := entities[a.Target]
			if !ok {
				continue // reported by validation.
			}
			if a.JoinTable == nil {
				a.JoinTable = &JoinTable{}
			}
			jt := a.JoinTable
			if jt.Name == "" {
				jt.Name = n.JoinTableName(e.Name, target.Name, a.Name)
			}
			if len(jt.JoinColumns) == 0 {
				jt.JoinColumns = defaultJoinColumns(n, e)
			}
			if len(jt.InverseJoinColumns) == 0 {
				jt.InverseJoinColumns = defaultJoinColumns(n, target)
			}
		}
	}
}

func defaultJoinColumns(n Naming, e *Entity) []JoinColumnDef {
	cols := make([]JoinColumnDef, 0, len(e.Identifier))
	for _, id := range e.Identifier {
		for _, f := range e.Fields {
			if f.Name == id {
				cols = append(cols, JoinColumnDef{
					Name:       n.JoinKeyColumnName(e.Name, f.Column),
					Referenced: f.Column,
				})
			}
		}
	}
	return cols
}
