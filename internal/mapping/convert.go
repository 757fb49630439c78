package mapping

import (
	"orm-mirror/internal/schema"
)

// Registry validates the file and converts it into a source registry.
func (f *File) Registry() (*schema.Registry, error) {
	diags := Validate(f)
	if err := diags.Error(); err != nil {
		return nil, err
	}

	reg := schema.NewRegistry()

	for _, a := range f.Apps {
		models := make([]*schema.Model, 0, len(a.Models))
		for i := range a.Models {
			models = append(models, convertModel(&a.Models[i]))
		}

		reg.Register(a.Label, models...)
	}

	return reg, nil
}

func convertModel(m *Model) *schema.Model {
	out := &schema.Model{
		Name: m.Name,
		Meta: schema.Meta{
			Table:    m.Table,
			Schema:   m.Schema,
			Abstract: m.Abstract,
			Ordering: m.Ordering,
		},
		Columns: make([]schema.Column, 0, len(m.Fields)),
	}

	for _, f := range m.Fields {
		k, _ := parseKind(f.Kind)

		col := schema.Column{
			Name:          f.Name,
			DBColumn:      f.Column,
			Kind:          k,
			Null:          f.Null,
			PrimaryKey:    f.PrimaryKey,
			Index:         f.Index,
			Unique:        f.Unique,
			Default:       schema.NotProvided,
			MaxLength:     f.MaxLength,
			MaxDigits:     f.MaxDigits,
			DecimalPlaces: f.DecimalPlaces,
			AutoNow:       f.AutoNow,
			AutoNowAdd:    f.AutoNowAdd,
			Protocol:      f.Protocol,
			UnpackIPv4:    f.UnpackIPv4,
			AllowUnicode:  f.AllowUnicode,
			Validators:    f.Validators,
			Encoder:       f.Encoder,
			Decoder:       f.Decoder,
		}

		if f.Default != nil {
			col.Default = f.Default.V
		}

		if k.IsRelation() {
			col.Relation = &schema.Relation{
				To:          f.To,
				RelatedName: f.RelatedName,
				OnDelete:    schema.ParseOnDelete(f.OnDelete),
				Through:     f.Through,
			}

			if len(f.ThroughFields) == 2 {
				col.Relation.ThroughFields = [2]string{f.ThroughFields[0], f.ThroughFields[1]}
			}
		}

		out.Columns = append(out.Columns, col)
	}

	return out
}

// FromRegistry renders a source registry as a schema file.
func FromRegistry(reg *schema.Registry) *File {
	f := &File{Version: "1"}

	for _, a := range reg.Apps() {
		app := App{Label: a.Label}

		for _, m := range a.Models {
			app.Models = append(app.Models, fromModel(m))
		}

		f.Apps = append(f.Apps, app)
	}

	return f
}

func fromModel(m *schema.Model) Model {
	out := Model{
		Name:     m.Name,
		Table:    m.Meta.Table,
		Schema:   m.Meta.Schema,
		Abstract: m.Meta.Abstract,
		Ordering: m.Meta.Ordering,
	}

	for i := range m.Columns {
		c := &m.Columns[i]

		f := Field{
			Name:          c.Name,
			Kind:          c.Kind.ShortName(),
			Column:        c.DBColumn,
			Null:          c.Null,
			PrimaryKey:    c.PrimaryKey,
			Index:         c.Index,
			Unique:        c.Unique,
			MaxLength:     c.MaxLength,
			MaxDigits:     c.MaxDigits,
			DecimalPlaces: c.DecimalPlaces,
			AutoNow:       c.AutoNow,
			AutoNowAdd:    c.AutoNowAdd,
			Protocol:      c.Protocol,
			UnpackIPv4:    c.UnpackIPv4,
			AllowUnicode:  c.AllowUnicode,
			Validators:    c.Validators,
			Encoder:       c.Encoder,
			Decoder:       c.Decoder,
		}

		if c.HasDefault() {
			f.Default = &Value{V: c.Default}
		}

		if r := c.Relation; r != nil {
			f.To = r.To
			f.RelatedName = r.RelatedName
			f.OnDelete = string(r.OnDelete)
			f.Through = r.Through

			if r.ThroughFields[0] != "" {
				f.ThroughFields = r.ThroughFields[:]
			}
		}

		out.Fields = append(out.Fields, f)
	}

	return out
}
