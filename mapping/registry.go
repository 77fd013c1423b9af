package mapping

import (
	"sort"
	"sync"

	"github.com/syssam/linktable"
	"github.com/syssam/linktable/schema/field"

	"golang.org/x/sync/singleflight"
)

// Registry is the metadata provider of a set of mapped entities. It is safe
// for concurrent use once built.
type Registry struct {
	entities map[string]*Entity
	rels     sync.Map // "<entity>.<assoc>" => *Relationship
	group    singleflight.Group
}

// Option configures a Registry.
type Option func(*registryConfig)

type registryConfig struct {
	naming Naming
}

// WithNaming sets the naming strategy used for table and column names the
// mapping leaves out. Defaults to DefaultNaming.
func WithNaming(n Naming) Option {
	return func(c *registryConfig) {
		c.naming = n
	}
}

// NewRegistry indexes the given entities and fills in their default names.
// Entities are owned by the registry afterwards and must not be modified.
func NewRegistry(entities []*Entity, opts ...Option) (*Registry, error) {
	cfg := &registryConfig{naming: DefaultNaming{}}
	for _, opt := range opts {
		opt(cfg)
	}
	r := &Registry{entities: make(map[string]*Entity, len(entities))}
	for _, e := range entities {
		if e == nil || e.Name == "" {
			return nil, linktable.NewConfigurationError("", "", "entity without name")
		}
		if _, ok := r.entities[e.Name]; ok {
			return nil, linktable.NewConfigurationError(e.Name, "", "entity declared twice")
		}
		r.entities[e.Name] = e
	}
	applyNaming(cfg.naming, r.entities)
	for _, e := range r.entities {
		if err := checkIdent(e.Table); err != nil {
			return nil, linktable.NewConfigurationError(e.Name, "", "table: %v", err)
		}
		if err := e.index(); err != nil {
			return nil, err
		}
	}
	for _, e := range r.entities {
		if e.Root != "" {
			root, ok := r.entities[e.Root]
			if !ok {
				return nil, linktable.NewConfigurationError(e.Name, "", "unknown root entity %q", e.Root)
			}
			e.root = root
		}
		for _, a := range e.Associations {
			if _, ok := r.entities[a.Target]; !ok {
				return nil, linktable.NewConfigurationError(e.Name, a.Name, "unknown target entity %q", a.Target)
			}
		}
	}
	return r, nil
}

// Validate resolves every association of the registry and returns the first
// mapping error, in entity and association name order.
func (r *Registry) Validate() error {
	names := make([]string, 0, len(r.entities))
	for name := range r.entities {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		for _, a := range r.entities[name].Associations {
			if _, err := r.Relationship(name, a.Name); err != nil {
				return err
			}
		}
	}
	return nil
}

// Entity returns the metadata of the named entity.
func (r *Registry) Entity(name string) (*Entity, error) {
	if e, ok := r.entities[name]; ok {
		return e, nil
	}
	return nil, linktable.NewConfigurationError(name, "", "unknown entity")
}

// Entities returns all entities sorted by name.
func (r *Registry) Entities() []*Entity {
	all := make([]*Entity, 0, len(r.entities))
	for _, e := range r.entities {
		all = append(all, e)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return all
}

// Root returns the inheritance root of the named entity.
func (r *Registry) Root(name string) (*Entity, error) {
	e, err := r.Entity(name)
	if err != nil {
		return nil, err
	}
	return e.RootEntity(), nil
}

// TypeOfColumn returns the SQL type of a column of the named entity.
func (r *Registry) TypeOfColumn(column, entity string) (field.Type, error) {
	e, err := r.Entity(entity)
	if err != nil {
		return field.TypeInvalid, err
	}
	return e.TypeOfColumn(column)
}

// Relationship returns the resolved relationship of an association. The
// result is built on first use and shared afterwards; concurrent first calls
// for the same association share one build.
func (r *Registry) Relationship(entity, assoc string) (*Relationship, error) {
	key := entity + "." + assoc
	if v, ok := r.rels.Load(key); ok {
		return v.(*Relationship), nil
	}
	v, err, _ := r.group.Do(key, func() (any, error) {
		if v, ok := r.rels.Load(key); ok {
			return v, nil
		}
		e, err := r.Entity(entity)
		if err != nil {
			return nil, err
		}
		a, err := e.Association(assoc)
		if err != nil {
			return nil, err
		}
		rel, err := resolve(r.entities, e, a)
		if err != nil {
			return nil, err
		}
		r.rels.Store(key, rel)
		return rel, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Relationship), nil
}
