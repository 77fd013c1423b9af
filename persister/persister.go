package persister

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/syssam/linktable"
	"github.com/syssam/linktable/dialect"
	"github.com/syssam/linktable/dialect/sql"
	"github.com/syssam/linktable/dialect/sql/sqlgraph"
	"github.com/syssam/linktable/mapping"
	"github.com/syssam/linktable/schema/field"
)

// Persister reads and writes the join table of many-to-many collections.
// It keeps no state between calls and is safe for concurrent use.
type Persister struct {
	dialect    dialect.Dialect
	identities IdentityResolver
	hydrator   Hydrator
	log        *slog.Logger
}

// Option configures a Persister.
type Option func(*Persister)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(p *Persister) {
		p.log = l
	}
}

// WithIdentities sets the resolver mapping entities to their identifiers.
// Defaults to Identifiers.
func WithIdentities(r IdentityResolver) Option {
	return func(p *Persister) {
		p.identities = r
	}
}

// WithHydrator sets the hydrator of loaded elements. Defaults to MapHydrator.
func WithHydrator(h Hydrator) Option {
	return func(p *Persister) {
		p.hydrator = h
	}
}

// New returns a persister rendering statements for the given dialect.
func New(d dialect.Dialect, opts ...Option) *Persister {
	p := &Persister{
		dialect:    d,
		identities: Identifiers,
		hydrator:   MapHydrator{},
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Statement is a rendered SQL statement with its arguments and their SQL
// types. Args[i] and Types[i] belong to the i-th placeholder.
type Statement struct {
	SQL   string
	Args  []any
	Types []field.Type
}

// String returns the SQL text of the statement.
func (s Statement) String() string { return s.SQL }

// bind converts the arguments into driver values according to their types.
func (s Statement) bind() ([]any, error) {
	args := make([]any, len(s.Args))
	for i, v := range s.Args {
		dv, err := s.Types[i].Value(v)
		if err != nil {
			return nil, err
		}
		args[i] = dv
	}
	return args, nil
}

// Collection is a many-to-many collection of an owner entity.
type Collection struct {
	Relation *mapping.Relationship
	// Owner is the entity instance holding the collection.
	Owner any
	// Filters are the query filters enabled for the read path. May be nil.
	Filters *FilterContext
}

// ChangeDiff holds the elements added to and removed from a collection
// since it was last flushed.
type ChangeDiff struct {
	Insertions []any
	Deletions  []any
}

// IdentityResolver maps an entity instance to its identifier.
type IdentityResolver interface {
	// IdentifierOf returns the identifier of entity, or an error wrapping
	// linktable.ErrNotManaged if the entity has no persistent identity.
	IdentifierOf(entity any) (mapping.Identifier, error)
}

// IdentityFunc adapts a function to IdentityResolver.
type IdentityFunc func(any) (mapping.Identifier, error)

// IdentifierOf implements IdentityResolver.
func (f IdentityFunc) IdentifierOf(entity any) (mapping.Identifier, error) { return f(entity) }

// Identifiers resolves mapping.Identifier values to themselves. Any other
// value is reported as not managed.
var Identifiers IdentityResolver = IdentityFunc(func(v any) (mapping.Identifier, error) {
	if id, ok := v.(mapping.Identifier); ok && len(id) > 0 {
		return id, nil
	}
	return nil, fmt.Errorf("%w: %T", linktable.ErrNotManaged, v)
})

// quote returns the SQL form of a mapped identifier. Backtick-wrapped names
// are quoted by the dialect, others are used verbatim.
func (p *Persister) quote(name string) string {
	if raw, ok := mapping.Unquote(name); ok {
		return p.dialect.QuoteIdent(raw)
	}
	return name
}

func (p *Persister) exec(ctx context.Context, ex dialect.ExecQuerier, rel *mapping.Relationship, stmt Statement) (sql.Result, error) {
	args, err := stmt.bind()
	if err != nil {
		return nil, err
	}
	var res sql.Result
	if err := ex.Exec(ctx, stmt.SQL, args, &res); err != nil {
		if sqlgraph.IsUniqueConstraintError(err) {
			p.log.WarnContext(ctx, "link row violates unique constraint",
				"relationship", rel.Name, "table", rel.Table, "error", err)
		}
		return nil, err
	}
	p.log.DebugContext(ctx, "link table exec", "relationship", rel.Name, "sql", stmt.SQL)
	return res, nil
}

func (p *Persister) query(ctx context.Context, ex dialect.ExecQuerier, stmt Statement) (*sql.Rows, error) {
	args, err := stmt.bind()
	if err != nil {
		return nil, err
	}
	rows := &sql.Rows{}
	if err := ex.Query(ctx, stmt.SQL, args, rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// scalar runs stmt and scans the first column of its first row into dest.
func (p *Persister) scalar(ctx context.Context, ex dialect.ExecQuerier, stmt Statement, dest any) (bool, error) {
	rows, err := p.query(ctx, ex, stmt)
	if err != nil {
		return false, err
	}
	return sql.ScanValue(rows, dest)
}

// restrictions is a list of "column = ?" clauses with their arguments and
// types, appended in lock-step.
type restrictions struct {
	clauses []string
	args    []any
	types   []field.Type
}

func (r *restrictions) add(clause string, arg any, typ field.Type) {
	r.clauses = append(r.clauses, clause)
	r.args = append(r.args, arg)
	r.types = append(r.types, typ)
}

// where appends a clause without arguments.
func (r *restrictions) where(clause string) {
	if clause != "" {
		r.clauses = append(r.clauses, clause)
	}
}

func (r *restrictions) String() string { return strings.Join(r.clauses, " AND ") }

func (r *restrictions) statement(query string) Statement {
	return Statement{SQL: query, Args: r.args, Types: r.types}
}

// columns appends "<alias>.<column> = ?" restrictions binding id to cols.
// An empty alias leaves the column unqualified.
func (p *Persister) columns(r *restrictions, alias string, e *mapping.Entity, cols []mapping.JoinColumn, id mapping.Identifier) error {
	args, err := mapping.Values(e, cols, id)
	if err != nil {
		return err
	}
	for i, c := range cols {
		r.add(qualify(alias, p.quote(c.Name))+" = ?", args[i], c.Type)
	}
	return nil
}

// sides binds the owner and element identifiers to the physical columns of
// rel, in the join table's column order.
func (p *Persister) sides(r *restrictions, alias string, rel *mapping.Relationship, owner, element mapping.Identifier) error {
	for _, c := range rel.PhysicalColumns() {
		id := owner
		if c.Side == mapping.ElementSide {
			id = element
		}
		if err := p.columns(r, alias, rel.Entity(c.Side), []mapping.JoinColumn{c}, id); err != nil {
			return err
		}
	}
	return nil
}

func qualify(alias, column string) string {
	if alias == "" {
		return column
	}
	return alias + "." + column
}

func notManaged(err error) bool {
	return errors.Is(err, linktable.ErrNotManaged)
}
