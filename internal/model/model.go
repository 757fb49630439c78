// Package model holds synthesized model types: an immutable metadata block
// plus an ordered field mapping, built once by the synthesis pass.
package model

import (
	"slices"

	"orm-mirror/internal/diagnostic"
	"orm-mirror/internal/field"
)

// Meta is the metadata block of a synthesized model.
type Meta struct {
	App      string   `json:"app,omitempty" yaml:"app,omitempty"`
	Table    string   `json:"table" yaml:"table"`
	Schema   string   `json:"schema,omitempty" yaml:"schema,omitempty"`
	Abstract bool     `json:"abstract,omitempty" yaml:"abstract,omitempty"`
	Ordering []string `json:"ordering,omitempty" yaml:"ordering,omitempty"`
}

// Model is a synthesized model type.
type Model struct {
	name   string
	meta   Meta
	fields []field.Field
	byName map[string]field.Field
	pk     field.Field
}

// New builds a model from its metadata block and fields. Field names must
// be unique and at most one field may be the primary key; concrete models
// need one.
func New(name string, meta Meta, fields []field.Field) (*Model, error) {
	if name == "" {
		return nil, diagnostic.Configuration("model name is empty")
	}

	m := &Model{
		name:   name,
		meta:   meta,
		fields: slices.Clone(fields),
		byName: make(map[string]field.Field, len(fields)),
	}
	m.meta.Ordering = slices.Clone(meta.Ordering)

	for _, f := range fields {
		opts := f.Options()
		if _, dup := m.byName[opts.Name]; dup {
			return nil, diagnostic.Configuration("%s: duplicate field %q", name, opts.Name)
		}

		m.byName[opts.Name] = f

		if opts.PK {
			if m.pk != nil {
				return nil, diagnostic.Configuration("%s: more than one primary key (%s, %s)",
					name, m.pk.Options().Name, opts.Name)
			}

			m.pk = f
		}
	}

	if m.pk == nil && !meta.Abstract {
		return nil, diagnostic.Configuration("%s: no primary key", name)
	}

	for _, o := range m.meta.Ordering {
		if _, ok := m.byName[trimOrdering(o)]; !ok {
			return nil, diagnostic.Configuration("%s: ordering refers to unknown field %q", name, o)
		}
	}

	return m, nil
}

func trimOrdering(o string) string {
	if len(o) > 0 && (o[0] == '-' || o[0] == '+') {
		return o[1:]
	}

	return o
}

// Name returns the model name.
func (m *Model) Name() string { return m.name }

// Meta returns a copy of the metadata block.
func (m *Model) Meta() Meta {
	meta := m.meta
	meta.Ordering = slices.Clone(m.meta.Ordering)

	return meta
}

// Fields returns all fields in declaration order.
func (m *Model) Fields() []field.Field { return slices.Clone(m.fields) }

// Field returns the field named name.
func (m *Model) Field(name string) (field.Field, bool) {
	f, ok := m.byName[name]
	return f, ok
}

// PK returns the primary key field, nil for abstract models without one.
func (m *Model) PK() field.Field { return m.pk }

// Columns returns the fields stored in the model's own table.
func (m *Model) Columns() []field.Field {
	out := make([]field.Field, 0, len(m.fields))

	for _, f := range m.fields {
		if _, m2m := f.(*field.ManyToMany); !m2m {
			out = append(out, f)
		}
	}

	return out
}

// Relations returns the relational fields.
func (m *Model) Relations() []field.Relational {
	var out []field.Relational

	for _, f := range m.fields {
		if r, ok := f.(field.Relational); ok {
			out = append(out, r)
		}
	}

	return out
}

// OrderBy returns the default ordering as (column, descending) pairs.
func (m *Model) OrderBy() []Order {
	out := make([]Order, 0, len(m.meta.Ordering))

	for _, o := range m.meta.Ordering {
		f := m.byName[trimOrdering(o)]
		out = append(out, Order{Column: f.Options().ColumnName(), Desc: o[0] == '-'})
	}

	return out
}

// Order is one term of a default ordering.
type Order struct {
	Column string
	Desc   bool
}
