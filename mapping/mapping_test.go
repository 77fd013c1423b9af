package mapping

import (
	"strings"
	"sync"
	"testing"

	"github.com/syssam/linktable"
	"github.com/syssam/linktable/schema/field"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func school() []*Entity {
	return []*Entity{
		{
			Name:       "Student",
			Table:      "student",
			Identifier: []string{"id"},
			Fields: []*Field{
				{Name: "id", Column: "id", Type: field.TypeInt},
				{Name: "name", Column: "name", Type: field.TypeString},
			},
			Associations: []*Association{
				{
					Name:       "courses",
					Target:     "Course",
					InversedBy: "students",
					JoinTable: &JoinTable{
						Name:               "student_course",
						JoinColumns:        []JoinColumnDef{{Name: "student_id", Referenced: "id"}},
						InverseJoinColumns: []JoinColumnDef{{Name: "course_id", Referenced: "id"}},
					},
				},
			},
		},
		{
			Name:       "Course",
			Table:      "course",
			Identifier: []string{"id"},
			Fields: []*Field{
				{Name: "id", Column: "id", Type: field.TypeInt64},
				{Name: "title", Column: "title", Type: field.TypeString},
			},
			Associations: []*Association{
				{Name: "students", Target: "Student", MappedBy: "courses"},
			},
		},
	}
}

func TestRelationship_Owning(t *testing.T) {
	t.Parallel()

	reg, err := NewRegistry(school())
	require.NoError(t, err)
	rel, err := reg.Relationship("Student", "courses")
	require.NoError(t, err)

	assert.True(t, rel.IsOwningSide())
	assert.Equal(t, "Student.courses", rel.Name)
	assert.Equal(t, "student_course", rel.Table)
	assert.Equal(t, "students", rel.InverseField)
	owner := rel.Columns(OwnerSide)
	require.Len(t, owner, 1)
	assert.Equal(t, JoinColumn{Name: "student_id", Referenced: "id", Field: "id", Type: field.TypeInt, Side: OwnerSide}, owner[0])
	elem := rel.Columns(ElementSide)
	require.Len(t, elem, 1)
	assert.Equal(t, "course_id", elem[0].Name)
	assert.Equal(t, field.TypeInt64, elem[0].Type)
	assert.Equal(t, ElementSide, elem[0].Side)
	assert.Equal(t, []JoinColumn{owner[0], elem[0]}, rel.PhysicalColumns())
	assert.Equal(t, "Student", rel.Entity(OwnerSide).Name)
	assert.Equal(t, "Course", rel.Entity(ElementSide).Name)
}

func TestRelationship_InverseSwapsColumns(t *testing.T) {
	t.Parallel()

	reg, err := NewRegistry(school())
	require.NoError(t, err)
	rel, err := reg.Relationship("Course", "students")
	require.NoError(t, err)

	assert.False(t, rel.IsOwningSide())
	assert.Equal(t, "courses", rel.Owning.Name)
	assert.Equal(t, "student_course", rel.Table)
	assert.Equal(t, "courses", rel.InverseField)
	owner := rel.Columns(OwnerSide)
	require.Len(t, owner, 1)
	assert.Equal(t, "course_id", owner[0].Name)
	assert.Equal(t, OwnerSide, owner[0].Side)
	assert.Equal(t, field.TypeInt64, owner[0].Type)
	elem := rel.Columns(ElementSide)
	require.Len(t, elem, 1)
	assert.Equal(t, "student_id", elem[0].Name)
	assert.Equal(t, ElementSide, elem[0].Side)
	// Physical order always follows the owning mapping.
	phys := rel.PhysicalColumns()
	assert.Equal(t, "student_id", phys[0].Name)
	assert.Equal(t, "course_id", phys[1].Name)
}

func TestRelationship_Memoized(t *testing.T) {
	t.Parallel()

	reg, err := NewRegistry(school())
	require.NoError(t, err)
	var (
		wg   sync.WaitGroup
		rels = make([]*Relationship, 16)
	)
	for i := range rels {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rel, err := reg.Relationship("Student", "courses")
			assert.NoError(t, err)
			rels[i] = rel
		}(i)
	}
	wg.Wait()
	for _, rel := range rels {
		assert.Same(t, rels[0], rel)
	}
}

func TestRelationship_CompositeKey(t *testing.T) {
	t.Parallel()

	entities := []*Entity{
		{
			Name:       "Account",
			Identifier: []string{"tenant", "id"},
			Fields: []*Field{
				{Name: "tenant", Type: field.TypeString},
				{Name: "id", Type: field.TypeUUID},
			},
			Associations: []*Association{{Name: "roles", Target: "Role"}},
		},
		{
			Name:       "Role",
			Identifier: []string{"code"},
			Fields:     []*Field{{Name: "code", Type: field.TypeString}},
		},
	}
	reg, err := NewRegistry(entities)
	require.NoError(t, err)
	rel, err := reg.Relationship("Account", "roles")
	require.NoError(t, err)
	assert.Equal(t, "account_role", rel.Table)
	owner := rel.Columns(OwnerSide)
	require.Len(t, owner, 2)
	assert.Equal(t, "account_tenant", owner[0].Name)
	assert.Equal(t, "tenant", owner[0].Field)
	assert.Equal(t, "account_id", owner[1].Name)
	assert.Equal(t, field.TypeUUID, owner[1].Type)
	assert.Equal(t, "role_code", rel.Columns(ElementSide)[0].Name)

	args, err := Values(rel.Source, owner, ID("id", "0b2c", "tenant", "acme"))
	require.NoError(t, err)
	assert.Equal(t, []any{"acme", "0b2c"}, args)
	_, err = Values(rel.Source, owner, ID("id", "0b2c"))
	assert.True(t, linktable.IsConfigurationError(err))
}

func TestRelationship_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func([]*Entity)
		entity string
		assoc  string
		want   string
	}{
		{
			name:   "missing back-reference",
			mutate: func(es []*Entity) { es[1].Associations[0].MappedBy = "lectures" },
			entity: "Course", assoc: "students",
			want: `mappedBy "lectures" is not an association of Student`,
		},
		{
			name: "back-reference is inverse",
			mutate: func(es []*Entity) {
				es[0].Associations[0].MappedBy = "students"
				es[0].Associations[0].InversedBy = ""
			},
			entity: "Course", assoc: "students",
			want: "is not an owning side",
		},
		{
			name:   "inversedBy mismatch",
			mutate: func(es []*Entity) { es[0].Associations[0].InversedBy = "pupils" },
			entity: "Student", assoc: "courses",
			want: "does not map back",
		},
		{
			name: "overlapping columns",
			mutate: func(es []*Entity) {
				es[0].Associations[0].JoinTable.InverseJoinColumns[0].Name = "student_id"
			},
			entity: "Student", assoc: "courses",
			want: `column "student_id" is both a join and an inverse join column`,
		},
		{
			name: "non identifier reference",
			mutate: func(es []*Entity) {
				es[0].Associations[0].JoinTable.JoinColumns[0].Referenced = "name"
			},
			entity: "Student", assoc: "courses",
			want: "references non-identifier field Student.name",
		},
		{
			name: "unknown referenced column",
			mutate: func(es []*Entity) {
				es[0].Associations[0].JoinTable.InverseJoinColumns[0].Referenced = "code"
			},
			entity: "Student", assoc: "courses",
			want: "references unknown column Course.code",
		},
		{
			name:   "unknown indexBy",
			mutate: func(es []*Entity) { es[0].Associations[0].IndexBy = "slug" },
			entity: "Student", assoc: "courses",
			want: `indexBy "slug" is not a field of Course`,
		},
		{
			name:   "unknown orderBy",
			mutate: func(es []*Entity) { es[1].Associations[0].OrderBy = []Ordering{{Field: "age"}} },
			entity: "Course", assoc: "students",
			want: `orderBy "age" is not a field of Student`,
		},
		{
			name:   "unknown association",
			mutate: func([]*Entity) {},
			entity: "Student", assoc: "clubs",
			want: "unknown association",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entities := school()
			tt.mutate(entities)
			reg, err := NewRegistry(entities)
			require.NoError(t, err)
			_, err = reg.Relationship(tt.entity, tt.assoc)
			require.Error(t, err)
			assert.True(t, linktable.IsConfigurationError(err))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestNewRegistry_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func([]*Entity) []*Entity
		want   string
	}{
		{
			name:   "duplicate entity",
			mutate: func(es []*Entity) []*Entity { return append(es, &Entity{Name: "Course"}) },
			want:   "entity declared twice",
		},
		{
			name: "unknown target",
			mutate: func(es []*Entity) []*Entity {
				es[0].Associations[0].Target = "Lecture"
				return es
			},
			want: `unknown target entity "Lecture"`,
		},
		{
			name: "missing identifier",
			mutate: func(es []*Entity) []*Entity {
				es[1].Identifier = nil
				return es
			},
			want: "no identifier fields",
		},
		{
			name: "bad column",
			mutate: func(es []*Entity) []*Entity {
				es[1].Fields[1].Column = "title; DROP TABLE course"
				return es
			},
			want: "invalid identifier",
		},
		{
			name: "unknown root",
			mutate: func(es []*Entity) []*Entity {
				es[1].Root = "Thing"
				return es
			},
			want: `unknown root entity "Thing"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry(tt.mutate(school()))
			require.Error(t, err)
			assert.True(t, linktable.IsConfigurationError(err))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRegistry_Lookups(t *testing.T) {
	t.Parallel()

	entities := school()
	entities = append(entities, &Entity{
		Name:       "OnlineCourse",
		Root:       "Course",
		Identifier: []string{"id"},
		Fields:     []*Field{{Name: "id", Type: field.TypeInt64}},
	})
	reg, err := NewRegistry(entities)
	require.NoError(t, err)
	require.NoError(t, reg.Validate())

	root, err := reg.Root("OnlineCourse")
	require.NoError(t, err)
	assert.Equal(t, "Course", root.Name)
	root, err = reg.Root("Student")
	require.NoError(t, err)
	assert.Equal(t, "Student", root.Name)

	typ, err := reg.TypeOfColumn("title", "Course")
	require.NoError(t, err)
	assert.Equal(t, field.TypeString, typ)
	_, err = reg.TypeOfColumn("title", "Student")
	assert.True(t, linktable.IsConfigurationError(err))
	_, err = reg.Entity("Lecture")
	assert.True(t, linktable.IsConfigurationError(err))

	names := make([]string, 0, 3)
	for _, e := range reg.Entities() {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"Course", "OnlineCourse", "Student"}, names)
	assert.Equal(t, "online_course", entities[2].Table)
}

func TestNaming(t *testing.T) {
	t.Parallel()

	n := DefaultNaming{}
	assert.Equal(t, "student_group", n.TableName("StudentGroup"))
	assert.Equal(t, "created_at", n.ColumnName("createdAt"))
	assert.Equal(t, "student_course", n.JoinTableName("Student", "Course", "courses"))
	assert.Equal(t, "student_id", n.JoinKeyColumnName("Student", "`id`"))

	name, quoted := Unquote("`order`")
	assert.Equal(t, "order", name)
	assert.True(t, quoted)
	name, quoted = Unquote("title")
	assert.Equal(t, "title", name)
	assert.False(t, quoted)

	assert.NoError(t, checkIdent("public.student"))
	assert.NoError(t, checkIdent("`group by`"))
	assert.Error(t, checkIdent(""))
	assert.Error(t, checkIdent("1abc"))
	assert.Error(t, checkIdent(strings.Repeat("a", 129)))
}

func TestIdentifier(t *testing.T) {
	t.Parallel()

	id := ID("tenant", "acme", "id", 9)
	v, ok := id.Get("id")
	assert.True(t, ok)
	assert.Equal(t, 9, v)
	_, ok = id.Get("code")
	assert.False(t, ok)
	assert.Equal(t, "tenant=acme,id=9", id.String())
	assert.Panics(t, func() { ID("id") })
	assert.Panics(t, func() { ID(1, 2) })
}
