package analyze

import (
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"orm-mirror/internal/common"
	"orm-mirror/internal/diagnostic"
	"orm-mirror/internal/schema"
)

// Build converts structs into source models. A model without a primary
// key gets an auto "id" column first.
func Build(structs []StructInfo) ([]*schema.Model, error) {
	out := make([]*schema.Model, 0, len(structs))

	for i := range structs {
		m, err := buildModel(&structs[i])
		if err != nil {
			return nil, errors.Wrapf(err, "analyze %s", structs[i].ID)
		}

		out = append(out, m)
	}

	return out, nil
}

// Register builds structs and registers each model under its package
// name, or under app when it is not empty.
func Register(reg *schema.Registry, app string, structs []StructInfo) error {
	models, err := Build(structs)
	if err != nil {
		return err
	}

	for i, m := range models {
		label := app
		if label == "" {
			label = structs[i].ID.Package()
		}

		reg.Register(label, m)
	}

	return nil
}

func buildModel(s *StructInfo) (*schema.Model, error) {
	m := &schema.Model{Name: s.ID.Name}

	// the meta tag has no leading name
	meta := parseTag("," + s.Meta.Get(metaKey))

	if k := meta.unknown(metaOptions); k != "" {
		return nil, diagnostic.Configuration("unknown meta option %q", k)
	}

	m.Meta = schema.Meta{
		Table:    meta.values["table"],
		Schema:   meta.values["schema"],
		Abstract: meta.flags["abstract"],
		Ordering: meta.list("ordering"),
	}

	for _, f := range s.Fields {
		tag, ok := f.Tag.Lookup(tagKey)
		if !ok {
			continue
		}

		opts := parseTag(tag)
		if opts.name == "-" {
			continue
		}

		col, err := buildColumn(f, opts)
		if err != nil {
			return nil, errors.Wrapf(err, "field %s", f.Name)
		}

		if _, dup := m.Column(col.Name); dup {
			return nil, diagnostic.Configuration("%s: duplicate field %q", f.Name, col.Name)
		}

		m.Columns = append(m.Columns, col)
	}

	if _, ok := m.PrimaryKey(); !ok {
		id := schema.Column{Name: "id", Kind: schema.KindAuto, PrimaryKey: true}
		m.Columns = append([]schema.Column{id}, m.Columns...)
	}

	return m, nil
}

func buildColumn(f FieldInfo, opts tagOptions) (schema.Column, error) {
	if k := opts.unknown(fieldOptions); k != "" {
		return schema.Column{}, diagnostic.Configuration("unknown option %q", k)
	}

	col := schema.Column{
		Name:         opts.name,
		DBColumn:     opts.values["column"],
		Null:         opts.flags["null"],
		PrimaryKey:   opts.flags["pk"],
		Index:        opts.flags["index"],
		Unique:       opts.flags["unique"],
		AutoNow:      opts.flags["auto_now"],
		AutoNowAdd:   opts.flags["auto_now_add"],
		UnpackIPv4:   opts.flags["unpack_ipv4"],
		AllowUnicode: opts.flags["allow_unicode"],
		Protocol:     opts.values["protocol"],
		Validators:   opts.list("validators"),
		Encoder:      opts.values["encoder"],
		Decoder:      opts.values["decoder"],
		Default:      schema.NotProvided,
	}

	if col.Name == "" {
		col.Name = common.SnakeCase(f.Name)
	}

	var err error

	if col.MaxLength, err = opts.int("max_length"); err != nil {
		return col, err
	}

	if col.MaxDigits, err = opts.int("max_digits"); err != nil {
		return col, err
	}

	if col.DecimalPlaces, err = opts.int("decimal_places"); err != nil {
		return col, err
	}

	typ, pointer := strings.CutPrefix(f.Type, "*")
	if pointer {
		col.Null = true
	}

	if err := resolveKind(&col, opts, typ, f.Basic); err != nil {
		return col, err
	}

	if v, ok := opts.values["default"]; ok {
		col.Default = parseDefault(v, f.Basic)
	}

	return col, nil
}

// resolveKind sets the kind from the relation options, the kind option or
// the Go type, in that order.
func resolveKind(col *schema.Column, opts tagOptions, typ, basic string) error {
	for key, kind := range map[string]schema.Kind{
		"fk":  schema.KindForeignKey,
		"o2o": schema.KindOneToOne,
		"m2m": schema.KindManyToMany,
	} {
		to, ok := opts.values[key]
		if !ok {
			continue
		}

		if col.Kind != 0 {
			return diagnostic.Configuration("fk, o2o and m2m are exclusive")
		}

		col.Kind = kind
		col.Relation = &schema.Relation{
			To:          to,
			RelatedName: opts.values["related_name"],
			OnDelete:    schema.ParseOnDelete(opts.values["on_delete"]),
			Through:     opts.values["through"],
		}

		if tf := opts.list("through_fields"); len(tf) > 0 {
			if len(tf) != 2 {
				return diagnostic.Configuration("through_fields needs two columns, got %d", len(tf))
			}

			col.Relation.ThroughFields = [2]string{tf[0], tf[1]}
		}
	}

	if col.Kind != 0 {
		if col.Kind != schema.KindManyToMany && col.Relation.OnDelete == "" {
			return diagnostic.Configuration("%s relation needs on_delete", col.Kind)
		}

		return nil
	}

	if name, ok := opts.values["kind"]; ok {
		k, ok := schema.ParseKind(name)
		if !ok {
			return diagnostic.Configuration("unknown kind %q", name)
		}

		col.Kind = k

		return nil
	}

	k, ok := inferKind(typ, basic, col)
	if !ok {
		return diagnostic.NotSupported("Go type", typ)
	}

	col.Kind = k

	return nil
}

// inferKind maps a Go type to the column kind that holds it.
func inferKind(typ, basic string, col *schema.Column) (schema.Kind, bool) {
	switch typ {
	case "time.Time":
		return schema.KindDateTime, true
	case "time.Duration":
		return schema.KindDuration, true
	case "github.com/golang-sql/civil.Date":
		return schema.KindDate, true
	case "github.com/golang-sql/civil.Time":
		return schema.KindTime, true
	case "github.com/golang-sql/civil.DateTime":
		return schema.KindDateTime, true
	case "github.com/shopspring/decimal.Decimal":
		return schema.KindDecimal, true
	case "github.com/google/uuid.UUID":
		return schema.KindUUID, true
	case "net/netip.Addr":
		return schema.KindGenericIPAddress, true
	case "[]byte":
		return schema.KindBinary, true
	case "encoding/json.RawMessage":
		return schema.KindJSON, true
	}

	if strings.HasPrefix(typ, "map[string]") {
		return schema.KindJSON, true
	}

	switch basic {
	case "string":
		if col.MaxLength > 0 {
			return schema.KindChar, true
		}

		return schema.KindText, true
	case "bool":
		return schema.KindBoolean, true
	case "float32", "float64":
		return schema.KindFloat, true
	case "int8", "int16":
		return autoOr(col, schema.KindSmallAuto, schema.KindSmallInteger), true
	case "int", "int32":
		return autoOr(col, schema.KindAuto, schema.KindInteger), true
	case "int64":
		return autoOr(col, schema.KindBigAuto, schema.KindBigInteger), true
	case "uint8", "byte", "uint16":
		return schema.KindPositiveSmallInteger, true
	case "uint32":
		return schema.KindPositiveInteger, true
	case "uint", "uint64":
		return schema.KindPositiveBigInteger, true
	}

	return 0, false
}

// autoOr returns the auto kind for a primary key.
func autoOr(col *schema.Column, auto, plain schema.Kind) schema.Kind {
	if col.PrimaryKey {
		return auto
	}

	return plain
}

// parseDefault types a default for the Go kind it will be assigned to.
func parseDefault(v, basic string) any {
	switch basic {
	case "bool":
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	case "int", "int8", "int16", "int32", "int64":
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	case "uint", "uint8", "byte", "uint16", "uint32", "uint64":
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			return int64(n)
		}
	case "float32", "float64":
		if x, err := strconv.ParseFloat(v, 64); err == nil {
			return x
		}
	}

	return v
}
