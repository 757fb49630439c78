package field

import (
	"time"

	"orm-mirror/internal/dialect"
	"orm-mirror/internal/diagnostic"
	"orm-mirror/internal/validate"
)

// Env carries the process settings fields depend on.
type Env struct {
	Backend dialect.Backend
	// UseTZ makes datetimes zone-aware.
	UseTZ bool
	// Location is the default time zone. UTC when nil.
	Location *time.Location
	// Warn receives recoverable warnings. Warnings are dropped when nil.
	Warn diagnostic.WarnFunc
	// Now overrides the clock used by auto-now fields.
	Now func() time.Time
}

func (e Env) loc() *time.Location {
	if e.Location == nil {
		return time.UTC
	}

	return e.Location
}

func (e Env) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}

	return time.Now()
}

func (e Env) warn(w diagnostic.Warning) {
	if e.Warn != nil {
		e.Warn(w)
	}
}

// Instance is the record being saved. Auto-now fields write the generated
// value back through Set so the caller observes it.
type Instance interface {
	IsNew() bool
	Set(name string, v any)
}

// Options is the constraint set shared by all fields.
type Options struct {
	Name string
	// Column is the storage column name.
	Column     string
	Null       bool
	PK         bool
	Index      bool
	Unique     bool
	Generated  bool
	Default    any
	Validators []validate.Validator

	MaxLength     int
	MaxDigits     int
	DecimalPlaces int
	AutoNow       bool
	AutoNowAdd    bool
	Protocol      string
	UnpackIPv4    bool
	AllowUnicode  bool
}

// ColumnName returns Column, or Name when no column is set.
func (o *Options) ColumnName() string {
	if o.Column != "" {
		return o.Column
	}

	return o.Name
}

// DefaultValue returns the default, calling it when it is a func() any.
func (o *Options) DefaultValue() any {
	if fn, ok := o.Default.(func() any); ok {
		return fn()
	}

	return o.Default
}

// Field is one column of a synthesized model.
type Field interface {
	// Type is the field class name, such as "CharField".
	Type() string
	Options() *Options
	// SQLType returns the column type on backend b.
	SQLType(b dialect.Backend) (string, error)
	// Decode turns a stored or user-supplied value into the canonical value.
	Decode(env Env, v any) (any, error)
	// Encode validates v and turns it into the storage value for env.Backend.
	Encode(env Env, inst Instance, v any) (any, error)
}

// Loader is implemented by fields whose stored form differs from the
// values users pass in, so that reading a row must not go through Decode.
type Loader interface {
	Load(env Env, v any) (any, error)
}

// Load decodes a value read from storage.
func Load(env Env, f Field, v any) (any, error) {
	if l, ok := f.(Loader); ok {
		return l.Load(env, v)
	}

	return f.Decode(env, v)
}

type base struct {
	opts Options
}

// Options returns the declared options.
func (b *base) Options() *Options { return &b.opts }

// check enforces nullability and runs the attached validators.
func (b *base) check(v any) error {
	if v == nil {
		if b.opts.Null || b.opts.Generated {
			return nil
		}

		return diagnostic.WithField(
			diagnostic.Validation("null", "this field cannot be null"), b.opts.Name)
	}

	return diagnostic.WithField(validate.All(v, b.opts.Validators), b.opts.Name)
}

func (b *base) badValue(v any, reason string) error {
	return diagnostic.BadValue(b.opts.Name, v, reason)
}

// sqlTypes maps a backend to its column type.
type sqlTypes map[dialect.Backend]string

func (s sqlTypes) lookup(b dialect.Backend) (string, error) {
	if t, ok := s[b]; ok {
		return t, nil
	}

	return "", diagnostic.NotSupported("backend", b.String())
}

// allBackends returns a table with the same type everywhere.
func allBackends(t string) sqlTypes {
	return sqlTypes{dialect.Postgres: t, dialect.MySQL: t, dialect.SQLite: t, dialect.MSSQL: t}
}

// encodeWith decodes v, validates the result and converts it with store.
func encodeWith(f Field, check func(any) error, env Env, v any, store func(any) any) (any, error) {
	val, err := f.Decode(env, v)
	if err != nil {
		return nil, err
	}

	if err := check(val); err != nil {
		return nil, err
	}

	if val == nil {
		return nil, nil
	}

	if store == nil {
		return val, nil
	}

	return store(val), nil
}

func noCheck(any) error { return nil }

// Lookup converts v to its storage form for use in a query condition.
// Unlike Encode it never substitutes "now" and runs no validators.
func Lookup(env Env, f Field, v any) (any, error) {
	if v == nil {
		return nil, nil
	}

	if l, ok := f.(interface {
		lookup(env Env, v any) (any, error)
	}); ok {
		return l.lookup(env, v)
	}

	return f.Encode(env, nil, v)
}
