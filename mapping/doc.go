// Package mapping holds the entity metadata consumed by the link-table
// persister: entities, many-to-many associations, their join tables and the
// resolved Relationship of every association.
//
// A Relationship is the view of a many-to-many association from the side it
// was declared on. Relationship.Columns is the single place deciding which
// join table columns reference the collection owner and which reference the
// elements:
//
//	reg, err := mapping.LoadFile("mapping.yaml")
//	if err != nil {
//		return err
//	}
//	rel, err := reg.Relationship("Course", "students")
//	if err != nil {
//		return err
//	}
//	owner := rel.Columns(mapping.OwnerSide) // course_id, for the inverse side.
package mapping
