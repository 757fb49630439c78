package mapping

import (
	"fmt"

	"orm-mirror/internal/common"
	"orm-mirror/internal/diagnostic"
	"orm-mirror/internal/match"
	"orm-mirror/internal/schema"
)

// Diagnostic codes of schema file validation.
const (
	CodeDuplicateApp   = "duplicate-app"
	CodeDuplicateField = "duplicate-field"
	CodeUnknownKind    = "unknown-kind"
	CodeMissingName    = "missing-name"
	CodeBadRelation    = "bad-relation"
	CodeBadConstraint  = "bad-constraint"
	CodeMultiplePKs    = "multiple-primary-keys"
	CodeUnknownTarget  = "unknown-target"
	CodeVersion        = "unsupported-version"
)

const maxSuggestions = 3

var kindNames = func() []string {
	var out []string
	for k := schema.KindAuto; k <= schema.KindManyToManyRel; k++ {
		out = append(out, k.String(), k.ShortName())
	}

	return out
}()

func parseKind(s string) (schema.Kind, bool) { return schema.ParseKind(s) }

// Validate checks the file structurally: names, kinds, constraint
// parameters and that every relation target names a model of the file.
func Validate(f *File) diagnostic.Diagnostics {
	var res diagnostic.Diagnostics

	if f == nil {
		res.AddError(diagnostic.CodeInvalidSchema, "schema file is nil", "", "")
		return res
	}

	if f.Version != "1" {
		res.AddError(CodeVersion, fmt.Sprintf("unsupported version %q", f.Version), "", "")
	}

	apps := make(map[string]bool)
	models := make(map[string]bool)

	var modelNames []string

	for _, a := range f.Apps {
		if a.Label == "" {
			res.AddError(CodeMissingName, "app without a label", "", "")
		} else if apps[a.Label] {
			res.AddError(CodeDuplicateApp, fmt.Sprintf("app %q listed twice", a.Label), "", "")
		}

		apps[a.Label] = true

		for _, m := range a.Models {
			if m.Name == "" {
				res.AddError(CodeMissingName, "model without a name in app "+a.Label, "", "")
				continue
			}

			if models[m.Name] {
				res.AddError(diagnostic.CodeDuplicateModel, fmt.Sprintf("model %q declared twice", m.Name), m.Name, "")
				continue
			}

			models[m.Name] = true
			modelNames = append(modelNames, m.Name)
		}
	}

	for _, a := range f.Apps {
		for i := range a.Models {
			validateModel(&res, &a.Models[i], models, modelNames)
		}
	}

	return res
}

func validateModel(res *diagnostic.Diagnostics, m *Model, models map[string]bool, modelNames []string) {
	seen := make(map[string]bool)
	pks := 0

	for _, f := range m.Fields {
		if f.Name == "" {
			res.AddError(CodeMissingName, "field without a name", m.Name, "")
			continue
		}

		if seen[f.Name] {
			res.AddError(CodeDuplicateField, fmt.Sprintf("field %q declared twice", f.Name), m.Name, f.Name)
		}

		seen[f.Name] = true

		k, ok := parseKind(f.Kind)
		if !ok {
			res.AddError(CodeUnknownKind, fmt.Sprintf("unknown kind %q", f.Kind), m.Name, f.Name,
				match.Suggest(f.Kind, kindNames, maxSuggestions)...)

			continue
		}

		if f.PrimaryKey || k.IsAuto() {
			pks++
		}

		validateConstraints(res, m.Name, &f, k)
		validateRelation(res, m.Name, &f, k, models, modelNames)
	}

	if pks > 1 {
		res.AddError(CodeMultiplePKs, fmt.Sprintf("%d primary keys", pks), m.Name, "")
	}
}

func validateConstraints(res *diagnostic.Diagnostics, model string, f *Field, k schema.Kind) {
	bad := func(msg string) { res.AddError(CodeBadConstraint, msg, model, f.Name) }

	switch k {
	case schema.KindChar:
		if f.MaxLength <= 0 {
			bad("char fields need a positive max_length")
		}
	case schema.KindDecimal:
		if f.MaxDigits <= 0 || f.DecimalPlaces < 0 || f.DecimalPlaces > f.MaxDigits {
			bad(fmt.Sprintf("invalid precision %d,%d", f.MaxDigits, f.DecimalPlaces))
		}
	case schema.KindBinary:
		if f.Index || f.Unique {
			bad("binary fields cannot be indexed")
		}
	case schema.KindGenericIPAddress:
		switch f.Protocol {
		case "", "both", "IPv4", "IPv6", "ipv4", "ipv6":
		default:
			bad(fmt.Sprintf("unknown protocol %q", f.Protocol))
		}
	}

	if (f.AutoNow || f.AutoNowAdd) && k != schema.KindDate && k != schema.KindTime && k != schema.KindDateTime {
		bad("auto_now applies to date, time and datetime fields")
	}
}

func validateRelation(res *diagnostic.Diagnostics, model string, f *Field, k schema.Kind, models map[string]bool, modelNames []string) {
	bad := func(msg string) { res.AddError(CodeBadRelation, msg, model, f.Name) }

	if !k.IsRelation() {
		if f.To != "" || f.OnDelete != "" || f.Through != "" {
			bad(fmt.Sprintf("relation keys on a %s field", k))
		}

		return
	}

	if f.To == "" {
		bad("relation needs a target in to")
		return
	}

	if f.To != schema.SelfRef && !models[common.LastSegment(f.To)] {
		res.AddError(CodeUnknownTarget, fmt.Sprintf("target %q is not declared", f.To), model, f.Name,
			match.Suggest(f.To, modelNames, maxSuggestions)...)
	}

	if k == schema.KindManyToMany {
		if len(f.ThroughFields) != 0 && len(f.ThroughFields) != 2 {
			bad("through_fields needs two columns")
		}

		return
	}

	if f.OnDelete == "" {
		bad("on_delete is required")
	}
}
