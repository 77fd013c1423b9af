// Package linktable persists many-to-many relationships through their join
// table.
//
// The module is split in a few packages:
//
//   - mapping declares entities and their many-to-many associations, and
//     resolves an association into a Relationship with its join columns
//     ordered from the owning side's point of view.
//   - persister builds and runs the join table statements of a collection:
//     row inserts and deletes, counts, membership checks, criteria loads and
//     filtered reads.
//   - dialect and dialect/sql render the dialect specific parts of a
//     statement and execute it over database/sql.
//
// The errors of this package are shared by all of them; use the Is helpers
// or errors.Is with the sentinel errors to tell them apart.
package linktable
