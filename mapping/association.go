package mapping

// Association is a many-to-many association declared on an entity.
//
// The owning side carries the JoinTable; the inverse side names the owning
// association on the target entity through MappedBy.
type Association struct {
	Name   string
	Target string
	// JoinTable is the link table mapping. Owning side only.
	JoinTable *JoinTable
	// MappedBy names the owning association on Target. Inverse side only.
	MappedBy string
	// InversedBy names the inverse association on Target, if any. Owning side only.
	InversedBy string
	// IndexBy names the target field the collection is keyed by.
	IndexBy string
	// OrderBy is the default ordering of the collection elements.
	OrderBy []Ordering

	source string
}

// IsOwningSide reports whether the association owns the join table.
func (a *Association) IsOwningSide() bool { return a.MappedBy == "" }

// Source returns the name of the entity declaring the association.
func (a *Association) Source() string { return a.source }

// JoinTable describes the link table of an owning association.
type JoinTable struct {
	Name string
	// JoinColumns reference the identifier of the owning entity.
	JoinColumns []JoinColumnDef
	// InverseJoinColumns reference the identifier of the target entity.
	InverseJoinColumns []JoinColumnDef
}

// JoinColumnDef is a join table column as declared in a mapping.
type JoinColumnDef struct {
	Name       string
	Referenced string
}

// Ordering orders collection elements by a target field.
type Ordering struct {
	Field     string
	Direction string
}
