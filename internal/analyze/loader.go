package analyze

import (
	"go/types"
	"reflect"
	"sort"

	"github.com/cockroachdb/errors"
	"golang.org/x/tools/go/packages"
)

// LoadMode specifies what information to load from packages.
const LoadMode = packages.NeedName |
	packages.NeedTypes |
	packages.NeedImports

// Analyzer loads Go packages and collects their tagged structs.
type Analyzer struct {
	// Dir is the directory packages are resolved from; the current one when empty.
	Dir string
}

// NewAnalyzer creates a new Analyzer.
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// LoadPackages loads the packages matched by patterns (e.g. "./store",
// "orm-mirror/warehouse") and returns their tagged structs, ordered by
// package then declaration name.
func (a *Analyzer) LoadPackages(patterns ...string) ([]StructInfo, error) {
	cfg := &packages.Config{Mode: LoadMode, Dir: a.Dir}

	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, errors.Wrap(err, "load packages")
	}

	var errs []error
	for _, pkg := range pkgs {
		for _, e := range pkg.Errors {
			errs = append(errs, e)
		}
	}

	if len(errs) > 0 {
		return nil, errors.Newf("package errors: %v", errs)
	}

	sort.Slice(pkgs, func(i, j int) bool { return pkgs[i].PkgPath < pkgs[j].PkgPath })

	var out []StructInfo

	for _, pkg := range pkgs {
		scope := pkg.Types.Scope()

		for _, name := range scope.Names() {
			tn, ok := scope.Lookup(name).(*types.TypeName)
			if !ok || !tn.Exported() || tn.IsAlias() {
				continue
			}

			st, ok := tn.Type().Underlying().(*types.Struct)
			if !ok {
				continue
			}

			info := StructInfo{ID: TypeID{PkgPath: pkg.PkgPath, Name: name}}
			collectFields(st, &info, true)

			if info.isModel() {
				out = append(out, info)
			}
		}
	}

	return out, nil
}

// collectFields flattens embedded structs and keeps exported fields. The
// meta tag is only read at the top level.
func collectFields(st *types.Struct, info *StructInfo, top bool) {
	for i := range st.NumFields() {
		f := st.Field(i)
		tag := reflect.StructTag(st.Tag(i))

		if f.Name() == "_" {
			if top && tag.Get(metaKey) != "" {
				info.Meta = tag
			}

			continue
		}

		if f.Embedded() {
			if inner, ok := f.Type().Underlying().(*types.Struct); ok && tag.Get(tagKey) == "" {
				collectFields(inner, info, false)
				continue
			}
		}

		if !f.Exported() {
			continue
		}

		info.Fields = append(info.Fields, FieldInfo{
			Name:  f.Name(),
			Tag:   tag,
			Type:  types.TypeString(f.Type(), nil),
			Basic: basicOf(f.Type()),
		})
	}
}

func basicOf(t types.Type) string {
	if p, ok := t.(*types.Pointer); ok {
		t = p.Elem()
	}

	if b, ok := t.Underlying().(*types.Basic); ok {
		return b.Name()
	}

	return ""
}
