package persister

import (
	"context"
	"strings"

	"github.com/syssam/linktable"
	"github.com/syssam/linktable/dialect"
	"github.com/syssam/linktable/mapping"
)

// BuildCount returns the statement counting the elements of an owner:
//
//	SELECT COUNT(*) FROM student_course t WHERE t.student_id = ?
//
// The target table is joined only when a filter applies to it.
func (p *Persister) BuildCount(rel *mapping.Relationship, owner mapping.Identifier, filters *FilterContext) (Statement, error) {
	var r restrictions
	if err := p.columns(&r, "t", rel.Entity(mapping.OwnerSide), rel.Columns(mapping.OwnerSide), owner); err != nil {
		return Statement{}, err
	}
	join, where := p.filterSQL(rel, filters)
	r.where(where)
	return r.statement("SELECT COUNT(*) FROM " + p.quote(rel.Table) + " t" + join + " WHERE " + r.String()), nil
}

// BuildContains returns the statement selecting the join table row linking
// owner and element.
func (p *Persister) BuildContains(rel *mapping.Relationship, owner, element mapping.Identifier, filters *FilterContext) (Statement, error) {
	var r restrictions
	if err := p.sides(&r, "t", rel, owner, element); err != nil {
		return Statement{}, err
	}
	join, where := p.filterSQL(rel, filters)
	r.where(where)
	return r.statement("SELECT 1 FROM " + p.quote(rel.Table) + " t" + join + " WHERE " + r.String()), nil
}

// BuildContainsKey returns the statement selecting the element of owner
// whose index field equals key. Keys that are target identifiers are matched
// against the join table; other keys need a join to the target table.
func (p *Persister) BuildContainsKey(rel *mapping.Relationship, owner mapping.Identifier, key any, filters *FilterContext) (Statement, error) {
	if !rel.Indexed() {
		return Statement{}, linktable.NewUnsupportedOperationError("containsKey", "collection %s is not indexed", rel.Name)
	}
	var (
		r     restrictions
		table = p.quote(rel.Table) + " t"
		byID  = rel.IndexedByIdentifier()
	)
	if !byID {
		cols := rel.Columns(mapping.ElementSide)
		conds := make([]string, len(cols))
		for i, c := range cols {
			conds[i] = "t." + p.quote(c.Name) + " = tr." + p.quote(c.Referenced)
		}
		table += " JOIN " + p.quote(rel.Target.Table) + " tr ON " + strings.Join(conds, " AND ")
		f, err := rel.Target.Field(rel.IndexBy)
		if err != nil {
			return Statement{}, err
		}
		r.add("tr."+p.quote(f.Column)+" = ?", key, f.Type)
	}
	for _, c := range rel.PhysicalColumns() {
		switch {
		case c.Side == mapping.OwnerSide:
			if err := p.columns(&r, "t", rel.Entity(c.Side), []mapping.JoinColumn{c}, owner); err != nil {
				return Statement{}, err
			}
		case byID && c.Field == rel.IndexBy:
			r.add("t."+p.quote(c.Name)+" = ?", key, c.Type)
		}
	}
	join, where := p.filterSQL(rel, filters)
	r.where(where)
	return r.statement("SELECT 1 FROM " + table + join + " WHERE " + r.String()), nil
}

// BuildRemoveElement returns the statement deleting the join table row
// linking owner and element. Filters never apply to it.
func (p *Persister) BuildRemoveElement(rel *mapping.Relationship, owner, element mapping.Identifier) (Statement, error) {
	var r restrictions
	if err := p.sides(&r, "", rel, owner, element); err != nil {
		return Statement{}, err
	}
	return r.statement("DELETE FROM " + p.quote(rel.Table) + " WHERE " + r.String()), nil
}

// BuildCriteriaLoad returns the statement loading the elements of owner that
// match criteria, and the mapping of its result columns.
func (p *Persister) BuildCriteriaLoad(rel *mapping.Relationship, owner mapping.Identifier, criteria *Criteria, filters *FilterContext) (Statement, *ResultMapping, error) {
	if criteria == nil {
		criteria = &Criteria{}
	}
	target := rel.Target
	rm := &ResultMapping{Entity: target, Alias: "te", Fields: target.Fields}
	selects := make([]string, len(target.Fields))
	for i, f := range target.Fields {
		selects[i] = "te." + p.quote(f.Column)
	}
	from, r, err := p.matching(rel, owner, criteria, filters)
	if err != nil {
		return Statement{}, nil, err
	}
	query := "SELECT " + strings.Join(selects, ", ") + from
	if len(criteria.OrderBy) > 0 {
		orders := make([]string, len(criteria.OrderBy))
		for i, o := range criteria.OrderBy {
			f, err := target.Field(o.Field)
			if err != nil {
				return Statement{}, nil, err
			}
			orders[i] = p.quote(f.Column)
			if o.Direction != "" {
				orders[i] += " " + o.Direction
			}
		}
		query += " ORDER BY " + strings.Join(orders, ", ")
	}
	query = p.dialect.LimitClause(query, criteria.MaxResults, criteria.FirstResult)
	return r.statement(query), rm, nil
}

// BuildCountMatching returns the statement counting the elements of owner
// that match criteria. Ordering and paging of criteria are ignored.
func (p *Persister) BuildCountMatching(rel *mapping.Relationship, owner mapping.Identifier, criteria *Criteria, filters *FilterContext) (Statement, error) {
	if criteria == nil {
		criteria = &Criteria{}
	}
	from, r, err := p.matching(rel, owner, criteria, filters)
	if err != nil {
		return Statement{}, err
	}
	return r.statement("SELECT COUNT(*)" + from), nil
}

// matching renders the FROM and WHERE clauses shared by criteria loads and
// counts: the target table joined to the join table, restricted to owner,
// the criteria equalities and the filters.
func (p *Persister) matching(rel *mapping.Relationship, owner mapping.Identifier, criteria *Criteria, filters *FilterContext) (string, *restrictions, error) {
	r := &restrictions{}
	if err := p.columns(r, "t", rel.Entity(mapping.OwnerSide), rel.Columns(mapping.OwnerSide), owner); err != nil {
		return "", nil, err
	}
	eqs, err := equalities(criteria.Where)
	if err != nil {
		return "", nil, err
	}
	for _, eq := range eqs {
		f, err := rel.Target.Field(eq.Field)
		if err != nil {
			return "", nil, err
		}
		r.add("te."+p.quote(f.Column)+" = ?", eq.Value, f.Type)
	}
	r.where(filters.Fragment(rel.Target.RootEntity(), "te"))
	from := " FROM " + p.quote(rel.Target.Table) + " te JOIN " + p.quote(rel.Table) + " t ON " +
		p.onCondition(rel, "te") + " WHERE " + r.String()
	return from, r, nil
}

// Count returns the number of elements in the collection.
func (p *Persister) Count(ctx context.Context, ex dialect.ExecQuerier, coll *Collection) (int64, error) {
	owner, err := p.identities.IdentifierOf(coll.Owner)
	if err != nil {
		return 0, err
	}
	stmt, err := p.BuildCount(coll.Relation, owner, coll.Filters)
	if err != nil {
		return 0, err
	}
	var n int64
	if _, err := p.scalar(ctx, ex, stmt, &n); err != nil {
		return 0, err
	}
	return n, nil
}

// Contains reports whether element is in the collection. Elements without
// a persistent identity are never contained.
func (p *Persister) Contains(ctx context.Context, ex dialect.ExecQuerier, coll *Collection, element any) (bool, error) {
	elem, err := p.identities.IdentifierOf(element)
	if notManaged(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	owner, err := p.identities.IdentifierOf(coll.Owner)
	if err != nil {
		return false, err
	}
	stmt, err := p.BuildContains(coll.Relation, owner, elem, coll.Filters)
	if err != nil {
		return false, err
	}
	var one int64
	return p.scalar(ctx, ex, stmt, &one)
}

// ContainsKey reports whether the collection holds an element under key.
func (p *Persister) ContainsKey(ctx context.Context, ex dialect.ExecQuerier, coll *Collection, key any) (bool, error) {
	owner, err := p.identities.IdentifierOf(coll.Owner)
	if err != nil {
		return false, err
	}
	stmt, err := p.BuildContainsKey(coll.Relation, owner, key, coll.Filters)
	if err != nil {
		return false, err
	}
	var one int64
	return p.scalar(ctx, ex, stmt, &one)
}

// RemoveElement deletes the join table row of element and reports whether
// a row was deleted.
func (p *Persister) RemoveElement(ctx context.Context, ex dialect.ExecQuerier, coll *Collection, element any) (bool, error) {
	elem, err := p.identities.IdentifierOf(element)
	if notManaged(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	owner, err := p.identities.IdentifierOf(coll.Owner)
	if err != nil {
		return false, err
	}
	stmt, err := p.BuildRemoveElement(coll.Relation, owner, elem)
	if err != nil {
		return false, err
	}
	res, err := p.exec(ctx, ex, coll.Relation, stmt)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Matching loads the elements of the collection matching criteria.
func (p *Persister) Matching(ctx context.Context, ex dialect.ExecQuerier, coll *Collection, criteria *Criteria) ([]any, error) {
	owner, err := p.identities.IdentifierOf(coll.Owner)
	if err != nil {
		return nil, err
	}
	stmt, rm, err := p.BuildCriteriaLoad(coll.Relation, owner, criteria, coll.Filters)
	if err != nil {
		return nil, err
	}
	rows, err := p.query(ctx, ex, stmt)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return p.hydrator.Hydrate(rows, rm)
}

// CountMatching returns the number of elements matching criteria.
func (p *Persister) CountMatching(ctx context.Context, ex dialect.ExecQuerier, coll *Collection, criteria *Criteria) (int64, error) {
	owner, err := p.identities.IdentifierOf(coll.Owner)
	if err != nil {
		return 0, err
	}
	stmt, err := p.BuildCountMatching(coll.Relation, owner, criteria, coll.Filters)
	if err != nil {
		return 0, err
	}
	var n int64
	if _, err := p.scalar(ctx, ex, stmt, &n); err != nil {
		return 0, err
	}
	return n, nil
}

// Load loads every element of the collection in its declared order.
func (p *Persister) Load(ctx context.Context, ex dialect.ExecQuerier, coll *Collection) ([]any, error) {
	return p.Matching(ctx, ex, coll, &Criteria{OrderBy: coll.Relation.Association.OrderBy})
}

// Slice loads length elements of the collection starting at offset, in its
// declared order. A negative length loads every element after offset.
func (p *Persister) Slice(ctx context.Context, ex dialect.ExecQuerier, coll *Collection, offset, length int) ([]any, error) {
	c := &Criteria{OrderBy: coll.Relation.Association.OrderBy}
	if offset > 0 {
		c.FirstResult = Limit(offset)
	}
	if length >= 0 {
		c.MaxResults = Limit(length)
	}
	return p.Matching(ctx, ex, coll, c)
}

// Get returns the element stored under key in an indexed collection, or nil
// if there is none.
func (p *Persister) Get(ctx context.Context, ex dialect.ExecQuerier, coll *Collection, key any) (any, error) {
	rel := coll.Relation
	if !rel.Indexed() {
		return nil, linktable.NewUnsupportedOperationError("get", "collection %s is not indexed", rel.Name)
	}
	elements, err := p.Matching(ctx, ex, coll, &Criteria{
		Where:      Eq(rel.IndexBy, key),
		MaxResults: Limit(1),
	})
	if err != nil || len(elements) == 0 {
		return nil, err
	}
	return elements[0], nil
}
