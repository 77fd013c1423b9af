package mapping

import (
	"github.com/syssam/linktable"
	"github.com/syssam/linktable/schema/field"
)

// Side selects the logical column set of a relationship.
type Side uint8

const (
	// OwnerSide columns reference the entity owning the collection.
	OwnerSide Side = iota
	// ElementSide columns reference the collection elements.
	ElementSide
)

// String returns the side name.
func (s Side) String() string {
	if s == OwnerSide {
		return "owner"
	}
	return "element"
}

// JoinColumn is a resolved join table column.
type JoinColumn struct {
	// Name is the join table column, backtick-wrapped when it must be quoted.
	Name string
	// Referenced is the referenced column of the entity table.
	Referenced string
	// Field is the identifier field Referenced maps to.
	Field string
	// Type is the SQL type of the referenced column.
	Type field.Type
	// Side is the side of the relationship the column refers to.
	Side Side
}

// Relationship is the resolved view of one side of a many-to-many
// association. It is immutable once built and shared by every persister call.
type Relationship struct {
	// Name is "<Source>.<association>".
	Name string
	// Source owns the collection; Target is the element type.
	Source, Target *Entity
	// Association is the declared side; Owning is the side holding the join table.
	Association, Owning *Association
	// Table is the join table name.
	Table string
	// JoinColumns and InverseJoinColumns follow the owning mapping order.
	JoinColumns, InverseJoinColumns []JoinColumn
	// IndexBy is the target field the collection is keyed by, if any.
	IndexBy string
	// InverseField is the association on Target pointing back, if any.
	InverseField string
}

// IsOwningSide reports whether the declared side owns the join table.
func (r *Relationship) IsOwningSide() bool { return r.Association.IsOwningSide() }

// Columns returns the join table columns referencing the given side. All
// direction-dependent statements go through this method.
func (r *Relationship) Columns(side Side) []JoinColumn {
	ownerCols, elementCols := r.JoinColumns, r.InverseJoinColumns
	if !r.IsOwningSide() {
		ownerCols, elementCols = elementCols, ownerCols
	}
	if side == OwnerSide {
		return ownerCols
	}
	return elementCols
}

// PhysicalColumns returns the join columns followed by the inverse join
// columns, in the order of the owning mapping.
func (r *Relationship) PhysicalColumns() []JoinColumn {
	cols := make([]JoinColumn, 0, len(r.JoinColumns)+len(r.InverseJoinColumns))
	cols = append(cols, r.JoinColumns...)
	return append(cols, r.InverseJoinColumns...)
}

// Entity returns the entity referenced by the given side.
func (r *Relationship) Entity(side Side) *Entity {
	if side == OwnerSide {
		return r.Source
	}
	return r.Target
}

// Indexed reports whether the collection is keyed by a target field.
func (r *Relationship) Indexed() bool { return r.IndexBy != "" }

// IndexedByIdentifier reports whether the index field is an identifier of
// the target, in which case the join table itself holds the key.
func (r *Relationship) IndexedByIdentifier() bool {
	return r.Indexed() && r.Target.IsIdentifier(r.IndexBy)
}

// Values binds identifier values to cols. The identifier must be the one of
// the entity the columns reference.
func Values(e *Entity, cols []JoinColumn, id Identifier) ([]any, error) {
	args := make([]any, 0, len(cols))
	for _, c := range cols {
		v, ok := id.Get(c.Field)
		if !ok {
			return nil, linktable.NewConfigurationError(e.Name, c.Field, "identifier has no value for column %q", c.Name)
		}
		args = append(args, v)
	}
	return args, nil
}

// resolve builds the relationship of association a declared on source.
func resolve(entities map[string]*Entity, source *Entity, a *Association) (*Relationship, error) {
	target, ok := entities[a.Target]
	if !ok {
		return nil, linktable.NewConfigurationError(source.Name, a.Name, "unknown target entity %q", a.Target)
	}
	rel := &Relationship{
		Name:        source.Name + "." + a.Name,
		Source:      source,
		Target:      target,
		Association: a,
		Owning:      a,
		IndexBy:     a.IndexBy,
	}
	// owner is the entity declaring the owning association.
	owner, inverse := source, target
	if a.IsOwningSide() {
		if a.InversedBy != "" {
			inv, ok := target.assocs[a.InversedBy]
			if !ok || inv.MappedBy != a.Name || inv.Target != source.Name {
				return nil, linktable.NewConfigurationError(source.Name, a.Name, "inversedBy %s.%s does not map back to this association", target.Name, a.InversedBy)
			}
		}
		rel.InverseField = a.InversedBy
	} else {
		owning, ok := target.assocs[a.MappedBy]
		switch {
		case !ok:
			return nil, linktable.NewConfigurationError(source.Name, a.Name, "mappedBy %q is not an association of %s", a.MappedBy, target.Name)
		case !owning.IsOwningSide():
			return nil, linktable.NewConfigurationError(source.Name, a.Name, "mappedBy %s.%s is not an owning side", target.Name, a.MappedBy)
		case owning.Target != source.Name:
			return nil, linktable.NewConfigurationError(source.Name, a.Name, "mappedBy %s.%s targets %s", target.Name, a.MappedBy, owning.Target)
		}
		rel.Owning = owning
		rel.InverseField = a.MappedBy
		owner, inverse = target, source
	}
	jt := rel.Owning.JoinTable
	if jt == nil || len(jt.JoinColumns) == 0 || len(jt.InverseJoinColumns) == 0 {
		return nil, linktable.NewConfigurationError(owner.Name, rel.Owning.Name, "owning side has no join table columns")
	}
	if err := checkIdent(jt.Name); err != nil {
		return nil, linktable.NewConfigurationError(owner.Name, rel.Owning.Name, "join table: %v", err)
	}
	rel.Table = jt.Name

	ownerSide, inverseSide := OwnerSide, ElementSide
	if !a.IsOwningSide() {
		ownerSide, inverseSide = ElementSide, OwnerSide
	}
	var err error
	if rel.JoinColumns, err = bindColumns(owner, rel.Owning, jt.JoinColumns, ownerSide); err != nil {
		return nil, err
	}
	if rel.InverseJoinColumns, err = bindColumns(inverse, rel.Owning, jt.InverseJoinColumns, inverseSide); err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(rel.JoinColumns))
	for _, c := range rel.JoinColumns {
		name, _ := Unquote(c.Name)
		seen[name] = true
	}
	for _, c := range rel.InverseJoinColumns {
		if name, _ := Unquote(c.Name); seen[name] {
			return nil, linktable.NewConfigurationError(owner.Name, rel.Owning.Name, "column %q is both a join and an inverse join column", name)
		}
	}
	if a.IndexBy != "" {
		if _, err := target.Field(a.IndexBy); err != nil {
			return nil, linktable.NewConfigurationError(source.Name, a.Name, "indexBy %q is not a field of %s", a.IndexBy, target.Name)
		}
	}
	for _, o := range a.OrderBy {
		if _, err := target.Field(o.Field); err != nil {
			return nil, linktable.NewConfigurationError(source.Name, a.Name, "orderBy %q is not a field of %s", o.Field, target.Name)
		}
	}
	return rel, nil
}

// bindColumns resolves join column definitions referencing e. Every
// identifier field of e must be referenced exactly once.
func bindColumns(e *Entity, owning *Association, defs []JoinColumnDef, side Side) ([]JoinColumn, error) {
	if len(defs) != len(e.Identifier) {
		return nil, linktable.NewConfigurationError(owning.source, owning.Name, "%d join columns for the %d identifier fields of %s", len(defs), len(e.Identifier), e.Name)
	}
	cols := make([]JoinColumn, 0, len(defs))
	used := make(map[string]bool, len(defs))
	for _, d := range defs {
		if err := checkIdent(d.Name); err != nil {
			return nil, linktable.NewConfigurationError(owning.source, owning.Name, "join column: %v", err)
		}
		name, err := e.FieldForColumn(d.Referenced)
		if err != nil {
			return nil, linktable.NewConfigurationError(owning.source, owning.Name, "join column %q references unknown column %s.%s", d.Name, e.Name, d.Referenced)
		}
		if !e.IsIdentifier(name) {
			return nil, linktable.NewConfigurationError(owning.source, owning.Name, "join column %q references non-identifier field %s.%s", d.Name, e.Name, name)
		}
		if used[name] {
			return nil, linktable.NewConfigurationError(owning.source, owning.Name, "identifier field %s.%s referenced twice", e.Name, name)
		}
		used[name] = true
		typ, err := e.TypeOfColumn(d.Referenced)
		if err != nil {
			return nil, err
		}
		cols = append(cols, JoinColumn{Name: d.Name, Referenced: d.Referenced, Field: name, Type: typ, Side: side})
	}
	return cols, nil
}
