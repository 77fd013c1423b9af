package mapping

import (
	"fmt"
	"strings"

	"github.com/syssam/linktable"
	"github.com/syssam/linktable/schema/field"
)

// Field maps an entity property to a table column.
type Field struct {
	Name   string
	Column string // Column name; wrap in backticks to force dialect quoting.
	Type   field.Type
}

// Entity holds the class metadata of a mapped entity type.
type Entity struct {
	Name string
	// Table is the (optionally schema-qualified) table name.
	Table string
	// Root is the name of the inheritance root entity. Empty means the
	// entity is its own root.
	Root string
	// Identifier lists the identifier field names in declaration order.
	Identifier   []string
	Fields       []*Field
	Associations []*Association

	fields  map[string]*Field
	columns map[string]*Field
	assocs  map[string]*Association
	root    *Entity
}

// index builds the lookup tables of the entity. It rejects duplicate and
// unknown names so lookups never fail for a well-formed mapping.
func (e *Entity) index() error {
	e.fields = make(map[string]*Field, len(e.Fields))
	e.columns = make(map[string]*Field, len(e.Fields))
	e.assocs = make(map[string]*Association, len(e.Associations))
	for _, f := range e.Fields {
		if f.Name == "" {
			return linktable.NewConfigurationError(e.Name, "", "field without name")
		}
		if !f.Type.Valid() {
			return linktable.NewConfigurationError(e.Name, f.Name, "invalid field type")
		}
		if err := checkIdent(f.Column); err != nil {
			return linktable.NewConfigurationError(e.Name, f.Name, "%v", err)
		}
		col, _ := Unquote(f.Column)
		if _, ok := e.fields[f.Name]; ok {
			return linktable.NewConfigurationError(e.Name, f.Name, "duplicate field")
		}
		if _, ok := e.columns[col]; ok {
			return linktable.NewConfigurationError(e.Name, f.Name, "column %q mapped twice", col)
		}
		e.fields[f.Name] = f
		e.columns[col] = f
	}
	if len(e.Identifier) == 0 {
		return linktable.NewConfigurationError(e.Name, "", "no identifier fields")
	}
	for _, id := range e.Identifier {
		if _, ok := e.fields[id]; !ok {
			return linktable.NewConfigurationError(e.Name, id, "identifier field is not mapped")
		}
	}
	for _, a := range e.Associations {
		if _, ok := e.assocs[a.Name]; ok {
			return linktable.NewConfigurationError(e.Name, a.Name, "duplicate association")
		}
		if _, ok := e.fields[a.Name]; ok {
			return linktable.NewConfigurationError(e.Name, a.Name, "association shadows a field")
		}
		a.source = e.Name
		e.assocs[a.Name] = a
	}
	return nil
}

// RootEntity returns the inheritance root of the entity.
func (e *Entity) RootEntity() *Entity {
	if e.root != nil {
		return e.root
	}
	return e
}

// Field returns the field with the given name.
func (e *Entity) Field(name string) (*Field, error) {
	if f, ok := e.fields[name]; ok {
		return f, nil
	}
	return nil, linktable.NewConfigurationError(e.Name, name, "unknown field")
}

// FieldForColumn returns the name of the field mapped to column.
func (e *Entity) FieldForColumn(column string) (string, error) {
	col, _ := Unquote(column)
	if f, ok := e.columns[col]; ok {
		return f.Name, nil
	}
	return "", linktable.NewConfigurationError(e.Name, column, "unknown column")
}

// TypeOfColumn returns the SQL type of column.
func (e *Entity) TypeOfColumn(column string) (field.Type, error) {
	col, _ := Unquote(column)
	if f, ok := e.columns[col]; ok {
		return f.Type, nil
	}
	return field.TypeInvalid, linktable.NewConfigurationError(e.Name, column, "unknown column")
}

// IsIdentifier reports whether name is one of the identifier fields.
func (e *Entity) IsIdentifier(name string) bool {
	for _, id := range e.Identifier {
		if id == name {
			return true
		}
	}
	return false
}

// Association returns the association with the given name.
func (e *Entity) Association(name string) (*Association, error) {
	if a, ok := e.assocs[name]; ok {
		return a, nil
	}
	return nil, linktable.NewConfigurationError(e.Name, name, "unknown association")
}

// IDValue is one field of an identifier.
type IDValue struct {
	Field string
	Value any
}

// Identifier is the ordered primary key of an entity instance. Composite
// keys have one entry per identifier field.
type Identifier []IDValue

// ID builds an identifier from alternating field names and values:
//
//	mapping.ID("id", 5)
//	mapping.ID("tenant", "acme", "id", 9)
func ID(kv ...any) Identifier {
	if len(kv)%2 != 0 {
		panic("mapping: ID expects field/value pairs")
	}
	id := make(Identifier, 0, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		name, ok := kv[i].(string)
		if !ok {
			panic(fmt.Sprintf("mapping: ID field name must be a string, got %T", kv[i]))
		}
		id = append(id, IDValue{Field: name, Value: kv[i+1]})
	}
	return id
}

// Get returns the value of the given identifier field.
func (id Identifier) Get(name string) (any, bool) {
	for _, v := range id {
		if v.Field == name {
			return v.Value, true
		}
	}
	return nil, false
}

// String returns a stable textual form of the identifier.
func (id Identifier) String() string {
	parts := make([]string, len(id))
	for i, v := range id {
		parts[i] = fmt.Sprintf("%s=%v", v.Field, v.Value)
	}
	return strings.Join(parts, ",")
}
