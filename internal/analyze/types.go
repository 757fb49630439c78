package analyze

import (
	"reflect"
	"strings"
)

// TypeID uniquely identifies a type by its package path and name.
type TypeID struct {
	PkgPath string // e.g., "orm-mirror/store"
	Name    string // e.g., "Order"
}

// String returns a human-readable representation of the TypeID.
func (t TypeID) String() string {
	if t.PkgPath == "" {
		return t.Name
	}

	return t.PkgPath + "." + t.Name
}

// Package returns the last element of the package path.
func (t TypeID) Package() string {
	return t.PkgPath[strings.LastIndex(t.PkgPath, "/")+1:]
}

// FieldInfo describes one persisted struct field.
type FieldInfo struct {
	Name string            // Go field name
	Tag  reflect.StructTag // Raw struct tag
	// Type is the qualified type string, e.g. "*time.Time" or
	// "github.com/shopspring/decimal.Decimal".
	Type string
	// Basic is the underlying basic kind ("string", "int64") of the type
	// or of its pointer element, empty for composite types.
	Basic string
}

// StructInfo is a struct that declares at least one db tag.
type StructInfo struct {
	ID     TypeID
	Meta   reflect.StructTag // tag of the blank meta field
	Fields []FieldInfo
}

const (
	tagKey  = "db"
	metaKey = "meta"
)

// isModel reports whether the struct carries model tags.
func (s *StructInfo) isModel() bool {
	if s.Meta.Get(metaKey) != "" {
		return true
	}

	for _, f := range s.Fields {
		if _, ok := f.Tag.Lookup(tagKey); ok {
			return true
		}
	}

	return false
}
