package relation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orm-mirror/internal/diagnostic"
	"orm-mirror/internal/field"
	"orm-mirror/internal/schema"
)

var owner = &schema.Model{App: "test_app", Name: "ModelARel"}

func TestTargetName(t *testing.T) {
	assert.Equal(t, "ModelAAsync", TargetName(owner, "test_app.ModelA"))
	assert.Equal(t, "ModelAAsync", TargetName(owner, "ModelA"))
	assert.Equal(t, "ModelARelAsync", TargetName(owner, "self"))
}

func TestOnDelete(t *testing.T) {
	tests := []struct {
		in   schema.OnDelete
		want field.OnDelete
	}{
		{schema.Cascade, field.Cascade},
		{schema.SetNull, field.SetNull},
		{schema.SetDefault, field.SetDefault},
	}

	for _, tt := range tests {
		got, err := OnDelete(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	for _, od := range []schema.OnDelete{schema.Protect, schema.Restrict, schema.DoNothing, ""} {
		_, err := OnDelete(od)
		require.ErrorIs(t, err, diagnostic.ErrNotSupported, string(od))
	}
}

func TestResolve_SetNullForcesNullable(t *testing.T) {
	col := &schema.Column{
		Name: "parent",
		Kind: schema.KindForeignKey,
		Null: false,
		Relation: &schema.Relation{
			To:          "test_app.ModelA",
			RelatedName: "children",
			OnDelete:    schema.SetNull,
		},
	}

	f, err := Resolve(owner, col, field.Options{Name: col.Name, Column: col.Attname(), Null: col.Null})
	require.NoError(t, err)

	fk, ok := f.(*field.ForeignKey)
	require.True(t, ok)
	assert.True(t, fk.Options().Null)
	assert.Equal(t, "ModelAAsync", fk.Target())
	assert.Equal(t, "children", fk.RelatedName())
	assert.Equal(t, field.SetNull, fk.OnDelete())
	assert.Equal(t, "parent_id", fk.Options().Column)
	assert.Equal(t, "ForeignKeyField", fk.Type())
}

func TestResolve_OneToOne(t *testing.T) {
	col := &schema.Column{
		Name:     "a",
		Kind:     schema.KindOneToOne,
		Relation: &schema.Relation{To: "ModelA", OnDelete: schema.Cascade},
	}

	f, err := Resolve(owner, col, field.Options{Name: "a"})
	require.NoError(t, err)

	fk := f.(*field.ForeignKey)
	assert.True(t, fk.OneToOne())
	assert.True(t, fk.Options().Unique)
	assert.False(t, fk.Options().Null)
	assert.Equal(t, "OneToOneField", fk.Type())
}

func TestResolve_UnsupportedOnDelete(t *testing.T) {
	col := &schema.Column{
		Name:     "a",
		Kind:     schema.KindForeignKey,
		Relation: &schema.Relation{To: "ModelA", OnDelete: schema.Protect},
	}

	_, err := Resolve(owner, col, field.Options{Name: "a"})
	require.ErrorIs(t, err, diagnostic.ErrNotSupported)
}

func TestResolve_ManyToMany(t *testing.T) {
	col := &schema.Column{
		Name:     "tags",
		Kind:     schema.KindManyToMany,
		Relation: &schema.Relation{To: "catalog.Tag", RelatedName: "rels"},
	}

	f, err := Resolve(owner, col, field.Options{Name: "tags", Column: "tags"})
	require.NoError(t, err)

	m2m := f.(*field.ManyToMany)
	assert.Equal(t, "TagAsync", m2m.Target())
	assert.Equal(t, "test_app_modelarel_tags", m2m.Through())
	assert.Equal(t, "modelarel_id", m2m.BackwardKey())
	assert.Equal(t, "tag_id", m2m.ForwardKey())
	assert.Empty(t, m2m.Options().Column)
}

func TestResolve_ManyToManyExplicitThrough(t *testing.T) {
	col := &schema.Column{
		Name: "members",
		Kind: schema.KindManyToMany,
		Relation: &schema.Relation{
			To:            "Person",
			Through:       "memberships",
			ThroughFields: [2]string{"group_ref", "person_ref"},
		},
	}

	f, err := Resolve(owner, col, field.Options{Name: "members"})
	require.NoError(t, err)

	m2m := f.(*field.ManyToMany)
	assert.Equal(t, "memberships", m2m.Through())
	assert.Equal(t, "group_ref", m2m.BackwardKey())
	assert.Equal(t, "person_ref", m2m.ForwardKey())
}

func TestResolve_MissingTarget(t *testing.T) {
	_, err := Resolve(owner, &schema.Column{Name: "x", Kind: schema.KindForeignKey}, field.Options{})
	require.Error(t, err)
}
