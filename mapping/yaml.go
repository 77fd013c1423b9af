package mapping

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/syssam/linktable/schema/field"

	"gopkg.in/yaml.v3"
)

type (
	fileDoc struct {
		Entities []entityDoc `yaml:"entities"`
	}
	entityDoc struct {
		Name         string     `yaml:"name"`
		Table        string     `yaml:"table,omitempty"`
		Root         string     `yaml:"root,omitempty"`
		Identifier   []string   `yaml:"identifier"`
		Fields       []fieldDoc `yaml:"fields"`
		Associations []assocDoc `yaml:"manyToMany,omitempty"`
	}
	fieldDoc struct {
		Name   string `yaml:"name"`
		Column string `yaml:"column,omitempty"`
		Type   string `yaml:"type"`
	}
	assocDoc struct {
		Name       string        `yaml:"name"`
		Target     string        `yaml:"target"`
		MappedBy   string        `yaml:"mappedBy,omitempty"`
		InversedBy string        `yaml:"inversedBy,omitempty"`
		IndexBy    string        `yaml:"indexBy,omitempty"`
		OrderBy    []orderDoc    `yaml:"orderBy,omitempty"`
		JoinTable  *joinTableDoc `yaml:"joinTable,omitempty"`
	}
	orderDoc struct {
		Field     string `yaml:"field"`
		Direction string `yaml:"direction,omitempty"`
	}
	joinTableDoc struct {
		Name               string          `yaml:"name,omitempty"`
		JoinColumns        []joinColumnDoc `yaml:"joinColumns,omitempty"`
		InverseJoinColumns []joinColumnDoc `yaml:"inverseJoinColumns,omitempty"`
	}
	joinColumnDoc struct {
		Name       string `yaml:"name"`
		Referenced string `yaml:"referencedColumnName"`
	}
)

// LoadFile reads a YAML mapping file. See Load.
func LoadFile(path string, opts ...Option) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("mapping: %w", err)
	}
	defer f.Close()
	r, err := Load(f, opts...)
	if err != nil {
		return nil, fmt.Errorf("mapping: %s: %w", path, err)
	}
	return r, nil
}

// Load decodes a YAML mapping document and returns its validated registry:
//
//	entities:
//	  - name: Student
//	    identifier: [id]
//	    fields:
//	      - {name: id, type: integer}
//	    manyToMany:
//	      - name: courses
//	        target: Course
//	        joinTable:
//	          name: student_course
//	          joinColumns: [{name: student_id, referencedColumnName: id}]
//	          inverseJoinColumns: [{name: course_id, referencedColumnName: id}]
//
// Unknown keys are rejected. Every relationship is resolved before Load
// returns, so a broken mapping fails here rather than at first use.
func Load(r io.Reader, opts ...Option) (*Registry, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var doc fileDoc
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode mapping: %w", err)
	}
	entities := make([]*Entity, 0, len(doc.Entities))
	for _, ed := range doc.Entities {
		e, err := ed.entity()
		if err != nil {
			return nil, err
		}
		entities = append(entities, e)
	}
	reg, err := NewRegistry(entities, opts...)
	if err != nil {
		return nil, err
	}
	if err := reg.Validate(); err != nil {
		return nil, err
	}
	return reg, nil
}

func (ed entityDoc) entity() (*Entity, error) {
	e := &Entity{
		Name:       ed.Name,
		Table:      ed.Table,
		Root:       ed.Root,
		Identifier: ed.Identifier,
	}
	for _, fd := range ed.Fields {
		t, err := field.ParseType(fd.Type)
		if err != nil {
			return nil, fmt.Errorf("entity %s field %s: %w", ed.Name, fd.Name, err)
		}
		e.Fields = append(e.Fields, &Field{Name: fd.Name, Column: fd.Column, Type: t})
	}
	for _, ad := range ed.Associations {
		a := &Association{
			Name:       ad.Name,
			Target:     ad.Target,
			MappedBy:   ad.MappedBy,
			InversedBy: ad.InversedBy,
			IndexBy:    ad.IndexBy,
		}
		for _, o := range ad.OrderBy {
			dir := o.Direction
			if dir == "" {
				dir = "ASC"
			}
			a.OrderBy = append(a.OrderBy, Ordering{Field: o.Field, Direction: dir})
		}
		if jt := ad.JoinTable; jt != nil {
			a.JoinTable = &JoinTable{
				Name:               jt.Name,
				JoinColumns:        joinColumns(jt.JoinColumns),
				InverseJoinColumns: joinColumns(jt.InverseJoinColumns),
			}
		}
		e.Associations = append(e.Associations, a)
	}
	return e, nil
}

func joinColumns(docs []joinColumnDoc) []JoinColumnDef {
	if len(docs) == 0 {
		return nil
	}
	defs := make([]JoinColumnDef, len(docs))
	for i, d := range docs {
		defs[i] = JoinColumnDef{Name: d.Name, Referenced: d.Referenced}
	}
	return defs
}
