package analyze

import (
	"reflect"

	"orm-mirror/internal/diagnostic"
)

// Reflect collects the tagged structs of values, which may be struct
// values or pointers to them.
func Reflect(values ...any) ([]StructInfo, error) {
	out := make([]StructInfo, 0, len(values))

	for _, v := range values {
		t := reflect.TypeOf(v)
		for t != nil && t.Kind() == reflect.Pointer {
			t = t.Elem()
		}

		if t == nil || t.Kind() != reflect.Struct || t.Name() == "" {
			return nil, diagnostic.Configuration("analyze: %T is not a named struct", v)
		}

		info := StructInfo{ID: TypeID{PkgPath: t.PkgPath(), Name: t.Name()}}
		reflectFields(t, &info, true)

		if !info.isModel() {
			return nil, diagnostic.Configuration("analyze: %s declares no db tags", info.ID)
		}

		out = append(out, info)
	}

	return out, nil
}

func reflectFields(t reflect.Type, info *StructInfo, top bool) {
	for i := range t.NumField() {
		f := t.Field(i)

		if f.Name == "_" {
			if top && f.Tag.Get(metaKey) != "" {
				info.Meta = f.Tag
			}

			continue
		}

		if f.Anonymous && f.Type.Kind() == reflect.Struct && f.Tag.Get(tagKey) == "" {
			reflectFields(f.Type, info, false)
			continue
		}

		if !f.IsExported() {
			continue
		}

		info.Fields = append(info.Fields, FieldInfo{
			Name:  f.Name,
			Tag:   f.Tag,
			Type:  typeString(f.Type),
			Basic: reflectBasic(f.Type),
		})
	}
}

// typeString spells t the way go/types.TypeString does with a nil qualifier.
func typeString(t reflect.Type) string {
	if t.Name() != "" {
		if t.PkgPath() == "" {
			return t.Name()
		}

		return t.PkgPath() + "." + t.Name()
	}

	switch t.Kind() {
	case reflect.Pointer:
		return "*" + typeString(t.Elem())
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 && t.Elem().PkgPath() == "" {
			return "[]byte"
		}

		return "[]" + typeString(t.Elem())
	case reflect.Map:
		return "map[" + typeString(t.Key()) + "]" + typeString(t.Elem())
	default:
		return t.String()
	}
}

func reflectBasic(t reflect.Type) string {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	switch t.Kind() {
	case reflect.Bool, reflect.String, reflect.Float32, reflect.Float64,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return t.Kind().String()
	default:
		return ""
	}
}
