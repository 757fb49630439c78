package field

import (
	"orm-mirror/internal/dialect"
	"orm-mirror/internal/diagnostic"
)

// OnDelete is the referential action of a relational field.
type OnDelete string

const (
	Cascade    OnDelete = "CASCADE"
	SetNull    OnDelete = "SET NULL"
	SetDefault OnDelete = "SET DEFAULT"
)

// Relational is implemented by fields that reference another model.
type Relational interface {
	Field
	// Target is the registry name of the referenced synthesized model.
	Target() string
	RelatedName() string
}

// ForeignKey references one row of Target. OneToOne is a ForeignKey
// with a unique column.
type ForeignKey struct {
	base
	target      string
	relatedName string
	onDelete    OnDelete
	oneToOne    bool
	// pk is the primary key field of the target, set during resolution.
	pk Field
}

// NewForeignKey returns a many-to-one relation to target.
func NewForeignKey(target, relatedName string, onDelete OnDelete, opts Options) *ForeignKey {
	return &ForeignKey{base: base{opts: opts}, target: target, relatedName: relatedName, onDelete: onDelete}
}

// NewOneToOne returns a one-to-one relation to target.
func NewOneToOne(target, relatedName string, onDelete OnDelete, opts Options) *ForeignKey {
	opts.Unique = true

	f := NewForeignKey(target, relatedName, onDelete, opts)
	f.oneToOne = true

	return f
}

// Type returns "OneToOneField" or "ForeignKeyField".
func (f *ForeignKey) Type() string {
	if f.oneToOne {
		return "OneToOneField"
	}

	return "ForeignKeyField"
}

// Target returns the referenced model name.
func (f *ForeignKey) Target() string { return f.target }
func (f *ForeignKey) RelatedName() string { return f.relatedName }
func (f *ForeignKey) OnDelete() OnDelete { return f.onDelete }
func (f *ForeignKey) OneToOne() bool { return f.oneToOne }

// Bind records the primary key field of the resolved target.
func (f *ForeignKey) Bind(pk Field) { f.pk = pk }

// TargetPK returns the bound primary key field, nil before resolution.
func (f *ForeignKey) TargetPK() Field { return f.pk }

// SQLType is the column type of the target's primary key. Auto keys map to
// their plain integer width.
func (f *ForeignKey) SQLType(b dialect.Backend) (string, error) {
	if f.pk == nil {
		return "", diagnostic.Configuration("%s: relation to %s is not resolved", f.opts.Name, f.target)
	}

	return f.pk.SQLType(b)
}

// Decode decodes the key with the target's primary key field.
func (f *ForeignKey) Decode(env Env, v any) (any, error) {
	if v == nil {
		return nil, nil
	}

	if f.pk == nil {
		return v, nil
	}

	return f.pk.Decode(env, v)
}

// Encode stores the primary key of a related record or the raw key.
func (f *ForeignKey) Encode(env Env, _ Instance, v any) (any, error) {
	val, err := f.Decode(env, v)
	if err != nil {
		return nil, err
	}

	if err := f.check(val); err != nil {
		return nil, err
	}

	if val == nil || f.pk == nil {
		return val, nil
	}

	return f.pk.Encode(env, nil, val)
}

// ManyToMany links two models through a junction table. It has no column.
type ManyToMany struct {
	base
	target      string
	relatedName string
	through     string
	forwardKey  string
	backwardKey string
}

// NewManyToMany returns a many-to-many relation. backwardKey references
// the owning model and forwardKey the target.
func NewManyToMany(target, relatedName, through, forwardKey, backwardKey string, opts Options) *ManyToMany {
	return &ManyToMany{
		base:        base{opts: opts},
		target:      target,
		relatedName: relatedName,
		through:     through,
		forwardKey:  forwardKey,
		backwardKey: backwardKey,
	}
}

// Type returns "ManyToManyField".
func (f *ManyToMany) Type() string { return "ManyToManyField" }
// Target returns the referenced model name.
func (f *ManyToMany) Target() string { return f.target }
func (f *ManyToMany) RelatedName() string { return f.relatedName }
func (f *ManyToMany) Through() string { return f.through }
func (f *ManyToMany) ForwardKey() string { return f.forwardKey }
func (f *ManyToMany) BackwardKey() string { return f.backwardKey }

// SQLType fails: the relation lives in the through table.
func (f *ManyToMany) SQLType(dialect.Backend) (string, error) {
	return "", diagnostic.NotSupported("column for many-to-many field", f.opts.Name)
}

// Decode passes values through: related rows are loaded by the manager.
func (f *ManyToMany) Decode(_ Env, v any) (any, error) { return v, nil }

// Encode returns v unchanged.
func (f *ManyToMany) Encode(_ Env, _ Instance, v any) (any, error) { return v, nil }
