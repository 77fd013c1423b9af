package persister

import (
	"fmt"

	"github.com/syssam/linktable/dialect/sql"
	"github.com/syssam/linktable/mapping"
	"github.com/syssam/linktable/schema/field"
)

// ResultMapping describes the columns of a loaded element row. Column i of
// the row holds Fields[i] of Entity.
type ResultMapping struct {
	Entity *mapping.Entity
	Alias  string
	Fields []*mapping.Field
}

// Hydrator materializes element rows into entities.
type Hydrator interface {
	Hydrate(rows sql.ColumnScanner, rm *ResultMapping) ([]any, error)
}

// HydrateFunc adapts a function to Hydrator.
type HydrateFunc func(sql.ColumnScanner, *ResultMapping) ([]any, error)

// Hydrate implements Hydrator.
func (f HydrateFunc) Hydrate(rows sql.ColumnScanner, rm *ResultMapping) ([]any, error) {
	return f(rows, rm)
}

// MapHydrator hydrates every row into a map[string]any keyed by field name.
type MapHydrator struct{}

// Hydrate implements Hydrator.
func (MapHydrator) Hydrate(rows sql.ColumnScanner, rm *ResultMapping) ([]any, error) {
	var out []any
	for rows.Next() {
		values := make([]any, len(rm.Fields))
		dest := make([]any, len(rm.Fields))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("persister: scan %s: %w", rm.Entity.Name, err)
		}
		m := make(map[string]any, len(rm.Fields))
		for i, f := range rm.Fields {
			if b, ok := values[i].([]byte); ok && f.Type != field.TypeBytes {
				values[i] = string(b)
			}
			m[f.Name] = values[i]
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
