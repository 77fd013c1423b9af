package persister

import (
	"strings"

	"github.com/syssam/linktable/mapping"
)

// Filter is a query filter, e.g. soft-delete or tenant isolation, that
// restricts the rows of an entity table.
type Filter interface {
	// Constraint returns the SQL condition restricting entity rows under
	// the given table alias, or "" if the filter does not apply.
	Constraint(entity *mapping.Entity, alias string) string
}

// FilterFunc adapts a function to Filter.
type FilterFunc func(*mapping.Entity, string) string

// Constraint implements Filter.
func (f FilterFunc) Constraint(e *mapping.Entity, alias string) string { return f(e, alias) }

// FilterContext holds the filters enabled for a read operation. The zero
// value and nil have no filters enabled.
type FilterContext struct {
	names   []string
	filters map[string]Filter
}

// NewFilterContext returns an empty filter context.
func NewFilterContext() *FilterContext {
	return &FilterContext{filters: make(map[string]Filter)}
}

// Enable enables the named filter. Enabling a name again replaces the filter
// and keeps its position.
func (c *FilterContext) Enable(name string, f Filter) *FilterContext {
	if c.filters == nil {
		c.filters = make(map[string]Filter)
	}
	if _, ok := c.filters[name]; !ok {
		c.names = append(c.names, name)
	}
	c.filters[name] = f
	return c
}

// Disable disables the named filter.
func (c *FilterContext) Disable(name string) *FilterContext {
	if _, ok := c.filters[name]; !ok {
		return c
	}
	delete(c.filters, name)
	for i, n := range c.names {
		if n == name {
			c.names = append(c.names[:i], c.names[i+1:]...)
			break
		}
	}
	return c
}

// Enabled returns the names of the enabled filters in enabling order.
func (c *FilterContext) Enabled() []string {
	if c == nil {
		return nil
	}
	return append([]string(nil), c.names...)
}

// Fragment combines the constraints of every enabled filter on target as
// "((a) AND (b))". It returns "" if no filter applies.
func (c *FilterContext) Fragment(target *mapping.Entity, alias string) string {
	if c == nil {
		return ""
	}
	var parts []string
	for _, name := range c.names {
		if expr := c.filters[name].Constraint(target, alias); expr != "" {
			parts = append(parts, "("+expr+")")
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return "(" + strings.Join(parts, " AND ") + ")"
}

// filterSQL returns the join of the target table and the filter condition
// for the read statements of rel that select from the join table only. Both
// are empty if no filter applies to the target.
func (p *Persister) filterSQL(rel *mapping.Relationship, filters *FilterContext) (join, where string) {
	root := rel.Target.RootEntity()
	if where = filters.Fragment(root, "te"); where == "" {
		return "", ""
	}
	return " JOIN " + p.quote(root.Table) + " te ON " + p.onCondition(rel, "te"), where
}

// onCondition joins the element-side columns of the join table "t" to the
// referenced columns of the target table alias.
func (p *Persister) onCondition(rel *mapping.Relationship, alias string) string {
	cols := rel.Columns(mapping.ElementSide)
	conds := make([]string, len(cols))
	for i, c := range cols {
		conds[i] = "t." + p.quote(c.Name) + " = " + alias + "." + p.quote(c.Referenced)
	}
	return strings.Join(conds, " AND ")
}
