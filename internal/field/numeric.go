package field

import (
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"orm-mirror/internal/dialect"
	"orm-mirror/internal/diagnostic"
	"orm-mirror/internal/validate"
)

// Upper bounds of the positive integer tiers.
const (
	MaxPositiveSmallInt = 32767
	MaxPositiveInt      = 2147483647
	MaxPositiveBigInt   = 9223372036854775807
)

// Int is an integer field. The width and bounds depend on the constructor.
type Int struct {
	base
	typ string
	sql sqlTypes
}

func newInt(typ string, sql sqlTypes, opts Options, lo, hi int64) *Int {
	opts.Validators = append(slices.Clip(opts.Validators), validate.MinValue(lo), validate.MaxValue(hi))

	return &Int{base: base{opts: opts}, typ: typ, sql: sql}
}

// NewInt returns a 32-bit integer field.
func NewInt(opts Options) *Int {
	return newInt("IntField", allBackends("INT"), opts, math.MinInt32, math.MaxInt32)
}

// NewSmallInt returns a 16-bit integer field.
func NewSmallInt(opts Options) *Int {
	return newInt("SmallIntField", allBackends("SMALLINT"), opts, math.MinInt16, math.MaxInt16)
}

// NewBigInt returns a 64-bit integer field.
func NewBigInt(opts Options) *Int {
	return newInt("BigIntField", allBackends("BIGINT"), opts, math.MinInt64, math.MaxInt64)
}

// NewPositiveSmallInt returns an integer field bounded to 0..32767.
func NewPositiveSmallInt(opts Options) *Int {
	return newInt("PositiveSmallIntegerField", sqlTypes{
		dialect.Postgres: "SMALLINT",
		dialect.MySQL:    "SMALLINT UNSIGNED",
		dialect.SQLite:   "SMALLINT UNSIGNED",
		dialect.MSSQL:    "SMALLINT",
	}, opts, 0, MaxPositiveSmallInt)
}

// NewPositiveInt returns an integer field bounded to 0..2147483647.
func NewPositiveInt(opts Options) *Int {
	return newInt("PositiveIntegerField", sqlTypes{
		dialect.Postgres: "INTEGER",
		dialect.MySQL:    "INTEGER UNSIGNED",
		dialect.SQLite:   "INTEGER UNSIGNED",
		dialect.MSSQL:    "INT",
	}, opts, 0, MaxPositiveInt)
}

// NewPositiveBigInt returns an integer field bounded to 0..9223372036854775807.
func NewPositiveBigInt(opts Options) *Int {
	return newInt("PositiveBigIntegerField", sqlTypes{
		dialect.Postgres: "BIGINT",
		dialect.MySQL:    "BIGINT UNSIGNED",
		dialect.SQLite:   "BIGINT UNSIGNED",
		dialect.MSSQL:    "BIGINT",
	}, opts, 0, MaxPositiveBigInt)
}

// Type returns the field class, one of the integer variants.
func (f *Int) Type() string { return f.typ }

// SQLType returns the integer column type on b.
func (f *Int) SQLType(b dialect.Backend) (string, error) { return f.sql.lookup(b) }

// Decode returns an int64. Unsigned values above MaxInt64 are kept as
// uint64 so that the bound validators reject them.
func (f *Int) Decode(_ Env, v any) (any, error) {
	if v == nil {
		return nil, nil
	}

	if u, ok := v.(uint64); ok && u > math.MaxInt64 {
		return u, nil
	}

	n, ok := toInt64(v)
	if !ok {
		return nil, f.badValue(v, "expected an integer")
	}

	return n, nil
}

// Encode checks v against the column range and the validators.
func (f *Int) Encode(env Env, _ Instance, v any) (any, error) {
	return encodeWith(f, f.check, env, v, nil)
}

func toInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case uint:
		return int64(x), x <= math.MaxInt64
	case uint8:
		return int64(x), true
	case uint16:
		return int64(x), true
	case uint32:
		return int64(x), true
	case uint64:
		return int64(x), x <= math.MaxInt64
	case float64:
		if x != math.Trunc(x) || x < math.MinInt64 || x >= math.MaxInt64 {
			return 0, false
		}

		return int64(x), true
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		return n, err == nil
	case []byte:
		n, err := strconv.ParseInt(string(x), 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}

// Float is a double precision field.
type Float struct{ base }

// NewFloat returns a float field.
func NewFloat(opts Options) *Float { return &Float{base{opts: opts}} }

// Type returns "FloatField".
func (f *Float) Type() string { return "FloatField" }

var floatSQL = sqlTypes{
	dialect.Postgres: "DOUBLE PRECISION",
	dialect.MySQL:    "DOUBLE",
	dialect.SQLite:   "REAL",
	dialect.MSSQL:    "FLOAT",
}

// SQLType returns the double precision column type on b.
func (f *Float) SQLType(b dialect.Backend) (string, error) { return floatSQL.lookup(b) }

// Decode accepts any number or a numeric string.
func (f *Float) Decode(_ Env, v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return nil, f.badValue(v, "expected a number")
		}

		return n, nil
	case []byte:
		return f.Decode(Env{}, string(x))
	}

	if n, ok := toInt64(v); ok {
		return float64(n), nil
	}

	return nil, f.badValue(v, "expected a number")
}

// Encode decodes v and runs the validators.
func (f *Float) Encode(env Env, _ Instance, v any) (any, error) {
	return encodeWith(f, f.check, env, v, nil)
}

// Bool is a boolean field.
type Bool struct{ base }

// NewBool returns a boolean field.
func NewBool(opts Options) *Bool { return &Bool{base{opts: opts}} }

// Type returns "BooleanField".
func (f *Bool) Type() string { return "BooleanField" }

var boolSQL = sqlTypes{
	dialect.Postgres: "BOOL",
	dialect.MySQL:    "BOOL",
	dialect.SQLite:   "INT",
	dialect.MSSQL:    "BIT",
}

// SQLType returns the boolean column type on b.
func (f *Bool) SQLType(b dialect.Backend) (string, error) { return boolSQL.lookup(b) }

// Decode accepts bools, 0 and 1, and the usual true/false spellings.
func (f *Bool) Decode(_ Env, v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case bool:
		return x, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "1", "t", "true", "y", "yes", "on":
			return true, nil
		case "0", "f", "false", "n", "no", "off":
			return false, nil
		}
	case []byte:
		return f.Decode(Env{}, string(x))
	default:
		if n, ok := toInt64(v); ok && (n == 0 || n == 1) {
			return n == 1, nil
		}
	}

	return nil, f.badValue(v, "expected a boolean")
}

// Encode decodes v and runs the validators.
func (f *Bool) Encode(env Env, _ Instance, v any) (any, error) {
	return encodeWith(f, f.check, env, v, nil)
}

// Decimal is a fixed-point field. Values are rounded to DecimalPlaces.
type Decimal struct{ base }

// NewDecimal returns a decimal field. MaxDigits must cover DecimalPlaces.
func NewDecimal(opts Options) (*Decimal, error) {
	if opts.MaxDigits <= 0 || opts.DecimalPlaces < 0 || opts.DecimalPlaces > opts.MaxDigits {
		return nil, diagnostic.Validation("invalid",
			"%s: invalid precision max_digits=%d decimal_places=%d",
			opts.Name, opts.MaxDigits, opts.DecimalPlaces)
	}

	return &Decimal{base{opts: opts}}, nil
}

// Type returns "DecimalField".
func (f *Decimal) Type() string { return "DecimalField" }

// SQLType returns the numeric column type sized by digits and places.
func (f *Decimal) SQLType(b dialect.Backend) (string, error) {
	p, s := f.opts.MaxDigits, f.opts.DecimalPlaces

	switch b {
	case dialect.Postgres, dialect.MySQL, dialect.MSSQL:
		return "DECIMAL(" + strconv.Itoa(p) + "," + strconv.Itoa(s) + ")", nil
	case dialect.SQLite:
		return "VARCHAR(40)", nil
	default:
		return "", diagnostic.NotSupported("backend", b.String())
	}
}

// Decode returns a decimal.Decimal rounded to DecimalPlaces.
func (f *Decimal) Decode(_ Env, v any) (any, error) {
	var (
		d   decimal.Decimal
		err error
	)

	switch x := v.(type) {
	case nil:
		return nil, nil
	case decimal.Decimal:
		d = x
	case string:
		d, err = decimal.NewFromString(strings.TrimSpace(x))
	case []byte:
		d, err = decimal.NewFromString(string(x))
	case float64:
		d = decimal.NewFromFloat(x)
	case float32:
		d = decimal.NewFromFloat32(x)
	default:
		n, ok := toInt64(v)
		if !ok {
			return nil, f.badValue(v, "expected a decimal number")
		}

		d = decimal.NewFromInt(n)
	}

	if err != nil {
		return nil, f.badValue(v, "expected a decimal number")
	}

	return d.Round(int32(f.opts.DecimalPlaces)), nil
}

// Encode quantizes v to the decimal places and checks the digit count.
func (f *Decimal) Encode(env Env, _ Instance, v any) (any, error) {
	return encodeWith(f, f.check, env, v, func(val any) any {
		return val.(decimal.Decimal).StringFixed(int32(f.opts.DecimalPlaces))
	})
}

// check adds the digit limits to the base checks.
func (f *Decimal) check(v any) error {
	if err := f.base.check(v); err != nil || v == nil {
		return err
	}

	d := v.(decimal.Decimal)

	whole := d.Abs().Truncate(0).String()
	if whole == "0" {
		whole = ""
	}

	if maxWhole := f.opts.MaxDigits - f.opts.DecimalPlaces; len(whole) > maxWhole {
		return diagnostic.WithField(diagnostic.Validation("max_whole_digits",
			"ensure that there are no more than %d digits before the decimal point", maxWhole), f.opts.Name)
	}

	return nil
}
