package persister

import (
	"context"
	"fmt"
	"strings"

	"github.com/syssam/linktable"
	"github.com/syssam/linktable/dialect"
	"github.com/syssam/linktable/mapping"
	"github.com/syssam/linktable/schema/field"
)

// RowKind selects the row statement built by BuildRowStatement.
type RowKind uint8

// Row statement kinds.
const (
	RowInsert RowKind = iota
	RowDelete
)

// BuildDeleteAll returns the statement deleting every join table row of a
// collection owner. It returns an empty statement for the inverse side, whose
// rows are managed by the owning side.
func (p *Persister) BuildDeleteAll(rel *mapping.Relationship) (string, []field.Type) {
	if !rel.IsOwningSide() {
		return "", nil
	}
	cols := rel.Columns(mapping.OwnerSide)
	conds := make([]string, len(cols))
	types := make([]field.Type, len(cols))
	for i, c := range cols {
		conds[i] = p.quote(c.Name) + " = ?"
		types[i] = c.Type
	}
	return "DELETE FROM " + p.quote(rel.Table) + " WHERE " + strings.Join(conds, " AND "), types
}

// DeleteAllParams returns the arguments of the BuildDeleteAll statement.
func (p *Persister) DeleteAllParams(rel *mapping.Relationship, owner mapping.Identifier) ([]any, error) {
	cols := rel.Columns(mapping.OwnerSide)
	if len(cols) == 1 && len(owner) == 1 && owner[0].Field == cols[0].Field {
		return []any{owner[0].Value}, nil
	}
	return mapping.Values(rel.Entity(mapping.OwnerSide), cols, owner)
}

// BuildRowStatement returns the statement inserting or deleting one join
// table row. Columns follow the physical order of the join table: the join
// columns, then the inverse join columns.
func (p *Persister) BuildRowStatement(kind RowKind, rel *mapping.Relationship) (string, []field.Type) {
	cols := rel.PhysicalColumns()
	names := make([]string, len(cols))
	types := make([]field.Type, len(cols))
	for i, c := range cols {
		names[i] = p.quote(c.Name)
		types[i] = c.Type
	}
	table := p.quote(rel.Table)
	if kind == RowInsert {
		return "INSERT INTO " + table + " (" + strings.Join(names, ", ") + ") VALUES (" +
			strings.TrimSuffix(strings.Repeat("?, ", len(names)), ", ") + ")", types
	}
	return "DELETE FROM " + table + " WHERE " + strings.Join(names, " = ? AND ") + " = ?", types
}

// RowParams returns the arguments of a BuildRowStatement statement, in the
// same column order.
func (p *Persister) RowParams(rel *mapping.Relationship, owner, element mapping.Identifier) ([]any, error) {
	var r restrictions
	if err := p.sides(&r, "", rel, owner, element); err != nil {
		return nil, err
	}
	return r.args, nil
}

// Delete deletes every join table row of the collection owner. It does
// nothing on the inverse side.
func (p *Persister) Delete(ctx context.Context, ex dialect.ExecQuerier, coll *Collection) error {
	rel := coll.Relation
	if !rel.IsOwningSide() {
		return nil
	}
	owner, err := p.identities.IdentifierOf(coll.Owner)
	if err != nil {
		return err
	}
	query, types := p.BuildDeleteAll(rel)
	args, err := p.DeleteAllParams(rel, owner)
	if err != nil {
		return err
	}
	_, err = p.exec(ctx, ex, rel, Statement{SQL: query, Args: args, Types: types})
	return err
}

// Update applies diff to the join table: one row delete per removed element,
// then one row insert per added element. It does nothing on the inverse side.
// The caller is expected to run it inside the flush transaction.
func (p *Persister) Update(ctx context.Context, ex dialect.ExecQuerier, coll *Collection, diff ChangeDiff) error {
	rel := coll.Relation
	if !rel.IsOwningSide() {
		return nil
	}
	owner, err := p.identities.IdentifierOf(coll.Owner)
	if err != nil {
		return err
	}
	deletions, err := p.identifiers(diff.Deletions)
	if err != nil {
		return err
	}
	insertions, err := p.identifiers(diff.Insertions)
	if err != nil {
		return err
	}
	removed := make(map[string]struct{}, len(deletions))
	for _, id := range deletions {
		key, err := elementKey(rel, id)
		if err != nil {
			return err
		}
		removed[key] = struct{}{}
	}
	for _, id := range insertions {
		key, err := elementKey(rel, id)
		if err != nil {
			return err
		}
		if _, ok := removed[key]; ok {
			return fmt.Errorf("%w: %s %s", linktable.ErrOverlappingDiff, rel.Name, id)
		}
	}
	if len(deletions) > 0 {
		query, types := p.BuildRowStatement(RowDelete, rel)
		if err := p.rows(ctx, ex, rel, query, types, owner, deletions); err != nil {
			return err
		}
	}
	if len(insertions) > 0 {
		query, types := p.BuildRowStatement(RowInsert, rel)
		if err := p.rows(ctx, ex, rel, query, types, owner, insertions); err != nil {
			return err
		}
	}
	return nil
}

// rows executes one row statement per element.
func (p *Persister) rows(ctx context.Context, ex dialect.ExecQuerier, rel *mapping.Relationship, query string, types []field.Type, owner mapping.Identifier, elements []mapping.Identifier) error {
	for _, element := range elements {
		args, err := p.RowParams(rel, owner, element)
		if err != nil {
			return err
		}
		if _, err := p.exec(ctx, ex, rel, Statement{SQL: query, Args: args, Types: types}); err != nil {
			return err
		}
	}
	return nil
}

// elementKey identifies an element by its values in join column order, so
// identifiers listing the same fields in another order compare equal.
func elementKey(rel *mapping.Relationship, id mapping.Identifier) (string, error) {
	values, err := mapping.Values(rel.Entity(mapping.ElementSide), rel.Columns(mapping.ElementSide), id)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%#v", values), nil
}

func (p *Persister) identifiers(entities []any) ([]mapping.Identifier, error) {
	ids := make([]mapping.Identifier, 0, len(entities))
	for _, e := range entities {
		id, err := p.identities.IdentifierOf(e)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
