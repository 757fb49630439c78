package field

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"orm-mirror/internal/dialect"
	"orm-mirror/internal/diagnostic"
	"orm-mirror/internal/validate"
)

// Default maximum lengths of the validated string fields.
const (
	DefaultSlugLength  = 50
	DefaultURLLength   = 200
	DefaultEmailLength = 254
)

// Char is a bounded string field. Slug, URL and Email fields are Char
// fields with a format validator and a default length.
type Char struct {
	base
	typ string
}

// NewChar returns a string field limited to MaxLength characters.
// A zero MaxLength means unbounded.
func NewChar(opts Options) *Char {
	if opts.MaxLength > 0 {
		opts.Validators = append(slices.Clip(opts.Validators), validate.MaxLength(opts.MaxLength))
	}

	return &Char{base: base{opts: opts}, typ: "CharField"}
}

func newValidatedChar(typ string, defaultLength int, v validate.Validator, opts Options) *Char {
	if opts.MaxLength == 0 {
		opts.MaxLength = defaultLength
	}

	opts.Validators = append(slices.Clip(opts.Validators), v)

	f := NewChar(opts)
	f.typ = typ

	return f
}

// NewSlug returns a slug field, 50 characters unless overridden.
func NewSlug(opts Options) *Char {
	v := validate.Slug
	if opts.AllowUnicode {
		v = validate.UnicodeSlug
	}

	return newValidatedChar("SlugField", DefaultSlugLength, v, opts)
}

// NewURL returns a URL field, 200 characters unless overridden.
func NewURL(opts Options) *Char {
	return newValidatedChar("URLField", DefaultURLLength, validate.URL, opts)
}

// NewEmail returns an email field, 254 characters unless overridden.
func NewEmail(opts Options) *Char {
	return newValidatedChar("EmailField", DefaultEmailLength, validate.Email, opts)
}

// Type returns the field class, CharField or one of its variants.
func (f *Char) Type() string { return f.typ }

// SQLType returns a varchar sized by max_length, or text when unbounded.
func (f *Char) SQLType(b dialect.Backend) (string, error) {
	if f.opts.MaxLength <= 0 {
		return textSQL.lookup(b)
	}

	n := strconv.Itoa(f.opts.MaxLength)

	switch b {
	case dialect.Postgres, dialect.MySQL, dialect.SQLite:
		return "VARCHAR(" + n + ")", nil
	case dialect.MSSQL:
		return "NVARCHAR(" + n + ")", nil
	default:
		return "", diagnostic.NotSupported("backend", b.String())
	}
}

// Decode accepts strings, byte slices and fmt.Stringer values.
func (f *Char) Decode(_ Env, v any) (any, error) {
	return decodeString(&f.base, v)
}

// Encode checks max_length and the validators.
func (f *Char) Encode(env Env, _ Instance, v any) (any, error) {
	return encodeWith(f, f.check, env, v, nil)
}

func decodeString(b *base, v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case string:
		return x, nil
	case []byte:
		return string(x), nil
	case fmt.Stringer:
		return x.String(), nil
	default:
		return nil, b.badValue(v, "expected a string")
	}
}

// Text is an unbounded string field.
type Text struct{ base }

// NewText returns an unbounded text field.
func NewText(opts Options) *Text { return &Text{base{opts: opts}} }

// Type returns "TextField".
func (f *Text) Type() string { return "TextField" }

var textSQL = sqlTypes{
	dialect.Postgres: "TEXT",
	dialect.MySQL:    "LONGTEXT",
	dialect.SQLite:   "TEXT",
	dialect.MSSQL:    "NVARCHAR(MAX)",
}

// SQLType returns the unbounded text column type on b.
func (f *Text) SQLType(b dialect.Backend) (string, error) { return textSQL.lookup(b) }

// Decode accepts strings, byte slices and fmt.Stringer values.
func (f *Text) Decode(_ Env, v any) (any, error) { return decodeString(&f.base, v) }

// Encode decodes v and runs the validators.
func (f *Text) Encode(env Env, _ Instance, v any) (any, error) {
	return encodeWith(f, f.check, env, v, nil)
}

// UUID stores a uuid.UUID.
type UUID struct{ base }

// NewUUID returns a UUID field.
func NewUUID(opts Options) *UUID { return &UUID{base{opts: opts}} }

// Type returns "UUIDField".
func (f *UUID) Type() string { return "UUIDField" }

var uuidSQL = sqlTypes{
	dialect.Postgres: "UUID",
	dialect.MySQL:    "CHAR(36)",
	dialect.SQLite:   "CHAR(36)",
	dialect.MSSQL:    "UNIQUEIDENTIFIER",
}

// SQLType returns the native uuid type where the backend has one.
func (f *UUID) SQLType(b dialect.Backend) (string, error) { return uuidSQL.lookup(b) }

// Decode accepts uuid.UUID, 16 raw bytes and the string forms.
func (f *UUID) Decode(_ Env, v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case uuid.UUID:
		return x, nil
	case [16]byte:
		return uuid.UUID(x), nil
	case string:
		u, err := uuid.Parse(x)
		if err != nil {
			return nil, f.badValue(v, err.Error())
		}

		return u, nil
	case []byte:
		if len(x) == 16 {
			return uuid.FromBytes(x)
		}

		return f.Decode(Env{}, string(x))
	default:
		return nil, f.badValue(v, "expected a UUID")
	}
}

// Encode stores the hyphenated string form.
func (f *UUID) Encode(env Env, _ Instance, v any) (any, error) {
	return encodeWith(f, f.check, env, v, func(val any) any {
		return val.(uuid.UUID).String()
	})
}

// JSONCodec customizes JSON encoding of a field.
type JSONCodec struct {
	Marshal   func(v any) ([]byte, error)
	Unmarshal func(data []byte, v any) error
}

// DefaultJSONCodec uses goccy/go-json.
var DefaultJSONCodec = JSONCodec{Marshal: json.Marshal, Unmarshal: json.Unmarshal}

// JSON stores any JSON-serializable value.
type JSON struct {
	base
	codec JSONCodec
}

// NewJSON returns a JSON field. A zero codec selects DefaultJSONCodec.
func NewJSON(opts Options, codec JSONCodec) *JSON {
	if codec.Marshal == nil {
		codec.Marshal = DefaultJSONCodec.Marshal
	}

	if codec.Unmarshal == nil {
		codec.Unmarshal = DefaultJSONCodec.Unmarshal
	}

	return &JSON{base: base{opts: opts}, codec: codec}
}

// Type returns "JSONField".
func (f *JSON) Type() string { return "JSONField" }

var jsonSQL = sqlTypes{
	dialect.Postgres: "JSONB",
	dialect.MySQL:    "JSON",
	dialect.SQLite:   "JSON",
	dialect.MSSQL:    "NVARCHAR(MAX)",
}

// SQLType returns the JSON column type on b.
func (f *JSON) SQLType(b dialect.Backend) (string, error) { return jsonSQL.lookup(b) }

// Decode parses raw documents (json.RawMessage or []byte). Any other value,
// strings included, is already the decoded value and is returned as is.
func (f *JSON) Decode(_ Env, v any) (any, error) {
	switch x := v.(type) {
	case json.RawMessage:
		return f.parse(x)
	case []byte:
		return f.parse(x)
	default:
		return v, nil
	}
}

// Load parses the stored document text.
func (f *JSON) Load(env Env, v any) (any, error) {
	if s, ok := v.(string); ok {
		return f.parse([]byte(s))
	}

	return f.Decode(env, v)
}

func (f *JSON) parse(data []byte) (any, error) {
	if data == nil {
		return nil, nil
	}

	var out any
	if err := f.codec.Unmarshal(data, &out); err != nil {
		return nil, f.badValue(string(data), err.Error())
	}

	return out, nil
}

// Encode returns the JSON text. Strings are treated as values, not as
// already-encoded documents.
func (f *JSON) Encode(_ Env, _ Instance, v any) (any, error) {
	if err := f.check(v); err != nil {
		return nil, err
	}

	if v == nil {
		return nil, nil
	}

	data, err := f.codec.Marshal(v)
	if err != nil {
		return nil, f.badValue(v, err.Error())
	}

	return string(data), nil
}

// Binary stores raw bytes.
type Binary struct{ base }

// NewBinary returns a binary field. Binary columns cannot be indexed.
func NewBinary(opts Options) (*Binary, error) {
	if opts.Index || opts.Unique || opts.PK {
		return nil, diagnostic.NotSupported("index on binary field", opts.Name)
	}

	return &Binary{base{opts: opts}}, nil
}

// Type returns "BinaryField".
func (f *Binary) Type() string { return "BinaryField" }

var binarySQL = sqlTypes{
	dialect.Postgres: "BYTEA",
	dialect.MySQL:    "LONGBLOB",
	dialect.SQLite:   "BLOB",
	dialect.MSSQL:    "VARBINARY(MAX)",
}

// SQLType returns the blob column type on b.
func (f *Binary) SQLType(b dialect.Backend) (string, error) { return binarySQL.lookup(b) }

// Decode accepts byte slices and strings.
func (f *Binary) Decode(_ Env, v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case []byte:
		return x, nil
	case string:
		return []byte(x), nil
	default:
		return nil, f.badValue(v, "expected bytes")
	}
}

// Encode decodes v and runs the validators.
func (f *Binary) Encode(env Env, _ Instance, v any) (any, error) {
	return encodeWith(f, f.check, env, v, nil)
}
