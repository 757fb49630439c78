// Package relation resolves foreign key, one-to-one and many-to-many
// columns into relational fields bound to a target model name.
//
// Targets are names, not model values: the target may be synthesized
// later in the same pass, or be the owning model itself.
package relation

import (
	"strings"

	"orm-mirror/internal/common"
	"orm-mirror/internal/diagnostic"
	"orm-mirror/internal/field"
	"orm-mirror/internal/schema"
)

// Suffix is appended to a source model name to name its synthesized model.
const Suffix = "Async"

// idSuffix ends the default junction key names.
const idSuffix = "_id"

var onDeleteTable = map[schema.OnDelete]field.OnDelete{
	schema.Cascade:    field.Cascade,
	schema.SetNull:    field.SetNull,
	schema.SetDefault: field.SetDefault,
}

// OnDelete translates a source on-delete policy. Policies without an
// equivalent fail with ErrNotSupported.
func OnDelete(od schema.OnDelete) (field.OnDelete, error) {
	if v, ok := onDeleteTable[od]; ok {
		return v, nil
	}

	return "", diagnostic.NotSupported("on_delete", string(od))
}

// targetModel returns the bare model name a relation points to.
func targetModel(owner *schema.Model, to string) string {
	if to == schema.SelfRef {
		return owner.Name
	}

	return common.LastSegment(to)
}

// TargetName returns the registry name of the synthesized target model:
// the last segment of a dotted reference, or the name itself, plus Suffix.
func TargetName(owner *schema.Model, to string) string {
	return targetModel(owner, to) + Suffix
}

// ThroughTable returns the junction table of a many-to-many column.
func ThroughTable(owner *schema.Model, col *schema.Column) string {
	if col.Relation != nil && col.Relation.Through != "" {
		return col.Relation.Through
	}

	return owner.TableName() + "_" + col.Name
}

// ThroughKeys returns the junction columns referencing the owner
// (backward) and the target (forward).
func ThroughKeys(owner *schema.Model, col *schema.Column) (backward, forward string) {
	rel := col.Relation
	if rel.ThroughFields[0] != "" && rel.ThroughFields[1] != "" {
		return rel.ThroughFields[0], rel.ThroughFields[1]
	}

	return strings.ToLower(owner.Name) + idSuffix, strings.ToLower(targetModel(owner, rel.To)) + idSuffix
}

// Resolve builds the relational field for col. opts carries the base
// options already translated from col.
func Resolve(owner *schema.Model, col *schema.Column, opts field.Options) (field.Field, error) {
	if col.Relation == nil || col.Relation.To == "" {
		return nil, diagnostic.Configuration("%s.%s: relation has no target", owner.Name, col.Name)
	}

	rel := col.Relation
	target := TargetName(owner, rel.To)

	switch col.Kind {
	case schema.KindForeignKey, schema.KindOneToOne:
		od, err := OnDelete(rel.OnDelete)
		if err != nil {
			return nil, err
		}

		// SET NULL cannot be expressed on a NOT NULL column.
		if od == field.SetNull {
			opts.Null = true
		}

		if col.Kind == schema.KindOneToOne {
			return field.NewOneToOne(target, rel.RelatedName, od, opts), nil
		}

		return field.NewForeignKey(target, rel.RelatedName, od, opts), nil
	case schema.KindManyToMany:
		backward, forward := ThroughKeys(owner, col)
		opts.Column = ""

		return field.NewManyToMany(target, rel.RelatedName, ThroughTable(owner, col), forward, backward, opts), nil
	default:
		return nil, diagnostic.NotSupported("relation kind", col.Kind.String())
	}
}
