// Package translate turns source column descriptors into fields.
//
// Dispatch is a closed table keyed by schema.Kind. Kinds with no
// equivalent (file, file path and image columns) have explicit entries
// that fail with diagnostic.ErrNotSupported, as does any kind missing
// from the table. Nothing is approximated.
package translate

import (
	"github.com/cockroachdb/errors"

	"orm-mirror/internal/diagnostic"
	"orm-mirror/internal/field"
	"orm-mirror/internal/relation"
	"orm-mirror/internal/schema"
	"orm-mirror/internal/validate"
)

// Translator translates columns. The zero value is ready to use.
type Translator struct {
	codecs map[string]field.JSONCodec
}

// Option configures a Translator.
type Option func(*Translator)

// WithJSONCodec registers a JSON codec under name, so JSON columns can
// reference it as their encoder or decoder.
func WithJSONCodec(name string, codec field.JSONCodec) Option {
	return func(t *Translator) {
		if t.codecs == nil {
			t.codecs = make(map[string]field.JSONCodec)
		}

		t.codecs[name] = codec
	}
}

// New creates a Translator.
func New(opts ...Option) *Translator {
	t := &Translator{}
	for _, o := range opts {
		o(t)
	}

	return t
}

type translateFunc func(t *Translator, owner *schema.Model, col *schema.Column, opts field.Options) (field.Field, error)

var table = map[schema.Kind]translateFunc{
	schema.KindAuto:                 auto(field.NewInt),
	schema.KindBigAuto:              auto(field.NewBigInt),
	schema.KindSmallAuto:            auto(field.NewSmallInt),
	schema.KindBigInteger:           simple(field.NewBigInt),
	schema.KindBinary:               binary,
	schema.KindBoolean:              simple(field.NewBool),
	schema.KindChar:                 sized(field.NewChar),
	schema.KindDate:                 temporal(field.NewDate),
	schema.KindDateTime:             temporal(field.NewDateTime),
	schema.KindDecimal:              decimalField,
	schema.KindDuration:             simple(field.NewDuration),
	schema.KindEmail:                sized(field.NewEmail),
	schema.KindFile:                 unsupported,
	schema.KindFilePath:             unsupported,
	schema.KindFloat:                simple(field.NewFloat),
	schema.KindGenericIPAddress:     genericIP,
	schema.KindImage:                unsupported,
	schema.KindInteger:              simple(field.NewInt),
	schema.KindJSON:                 jsonField,
	schema.KindPositiveBigInteger:   simple(field.NewPositiveBigInt),
	schema.KindPositiveInteger:      simple(field.NewPositiveInt),
	schema.KindPositiveSmallInteger: simple(field.NewPositiveSmallInt),
	schema.KindSlug:                 slug,
	schema.KindSmallInteger:         simple(field.NewSmallInt),
	schema.KindText:                 simple(field.NewText),
	schema.KindTime:                 temporal(field.NewTime),
	schema.KindURL:                  sized(field.NewURL),
	schema.KindUUID:                 simple(field.NewUUID),
	schema.KindForeignKey:           related,
	schema.KindOneToOne:             related,
	schema.KindManyToMany:           related,
}

var unsupportedKinds = map[schema.Kind]bool{
	schema.KindFile:     true,
	schema.KindFilePath: true,
	schema.KindImage:    true,
}

// Supported reports whether kind has a working translation.
func Supported(kind schema.Kind) bool {
	_, ok := table[kind]

	return ok && !unsupportedKinds[kind]
}

// Translate returns the field for col of owner.
func (t *Translator) Translate(owner *schema.Model, col *schema.Column) (field.Field, error) {
	fn, ok := table[col.Kind]
	if !ok {
		return nil, diagnostic.NotSupported("field kind", col.Kind.String())
	}

	opts, err := baseOptions(col)
	if err != nil {
		return nil, errors.Wrapf(err, "%s.%s", owner.Name, col.Name)
	}

	f, err := fn(t, owner, col, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "%s.%s", owner.Name, col.Name)
	}

	return f, nil
}

// baseOptions carries nullability, column name, default, key, index,
// uniqueness and validators over from col.
func baseOptions(col *schema.Column) (field.Options, error) {
	validators, err := validate.ParseAll(col.Validators)
	if err != nil {
		return field.Options{}, err
	}

	opts := field.Options{
		Name:       col.Name,
		Column:     col.Attname(),
		Null:       col.Null,
		PK:         col.PrimaryKey,
		Index:      col.Index,
		Unique:     col.Unique,
		Validators: validators,
	}

	if col.HasDefault() {
		opts.Default = col.Default
	}

	return opts, nil
}

func simple[F field.Field](ctor func(field.Options) F) translateFunc {
	return func(_ *Translator, _ *schema.Model, _ *schema.Column, opts field.Options) (field.Field, error) {
		return ctor(opts), nil
	}
}

func auto(ctor func(field.Options) *field.Int) translateFunc {
	return func(_ *Translator, _ *schema.Model, _ *schema.Column, opts field.Options) (field.Field, error) {
		opts.PK = true
		opts.Generated = true

		return ctor(opts), nil
	}
}

func sized(ctor func(field.Options) *field.Char) translateFunc {
	return func(_ *Translator, _ *schema.Model, col *schema.Column, opts field.Options) (field.Field, error) {
		opts.MaxLength = col.MaxLength

		return ctor(opts), nil
	}
}

func temporal[F field.Field](ctor func(field.Options) F) translateFunc {
	return func(_ *Translator, _ *schema.Model, col *schema.Column, opts field.Options) (field.Field, error) {
		opts.AutoNow = col.AutoNow
		opts.AutoNowAdd = col.AutoNowAdd

		return ctor(opts), nil
	}
}

func slug(_ *Translator, _ *schema.Model, col *schema.Column, opts field.Options) (field.Field, error) {
	opts.MaxLength = col.MaxLength
	opts.AllowUnicode = col.AllowUnicode

	return field.NewSlug(opts), nil
}

func genericIP(_ *Translator, _ *schema.Model, col *schema.Column, opts field.Options) (field.Field, error) {
	opts.Protocol = col.Protocol
	opts.UnpackIPv4 = col.UnpackIPv4

	return field.NewGenericIP(opts), nil
}

func decimalField(_ *Translator, _ *schema.Model, col *schema.Column, opts field.Options) (field.Field, error) {
	opts.MaxDigits = col.MaxDigits
	opts.DecimalPlaces = col.DecimalPlaces

	return field.NewDecimal(opts)
}

func binary(_ *Translator, _ *schema.Model, _ *schema.Column, opts field.Options) (field.Field, error) {
	return field.NewBinary(opts)
}

func jsonField(t *Translator, _ *schema.Model, col *schema.Column, opts field.Options) (field.Field, error) {
	var codec field.JSONCodec

	if col.Encoder != "" {
		c, ok := t.codecs[col.Encoder]
		if !ok {
			return nil, diagnostic.NotSupported("json encoder", col.Encoder)
		}

		codec.Marshal = c.Marshal
	}

	if col.Decoder != "" {
		c, ok := t.codecs[col.Decoder]
		if !ok {
			return nil, diagnostic.NotSupported("json decoder", col.Decoder)
		}

		codec.Unmarshal = c.Unmarshal
	}

	return field.NewJSON(opts, codec), nil
}

func related(_ *Translator, owner *schema.Model, col *schema.Column, opts field.Options) (field.Field, error) {
	return relation.Resolve(owner, col, opts)
}

func unsupported(_ *Translator, _ *schema.Model, col *schema.Column, _ field.Options) (field.Field, error) {
	return nil, diagnostic.NotSupported("field kind", col.Kind.String())
}
