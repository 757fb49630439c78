package field

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-sql/civil"

	"orm-mirror/internal/dialect"
	"orm-mirror/internal/diagnostic"
)

var (
	awareLayouts = []string{
		time.RFC3339Nano,
		"2006-01-02 15:04:05.999999999Z07:00",
		"2006-01-02 15:04:05.999999999Z07",
		"2006-01-02T15:04:05.999999999Z07",
	}
	naiveLayouts = []string{
		"2006-01-02T15:04:05.999999999",
		"2006-01-02 15:04:05.999999999",
		"2006-01-02T15:04",
		"2006-01-02 15:04",
		"2006-01-02",
	}
	timeLayouts = []string{"15:04:05.999999999", "15:04"}
)

const sqliteDateTimeLayout = "2006-01-02 15:04:05.999999-07:00"

// parseDateTime parses s as an aware time or, when it has no offset, as a
// naive civil.DateTime.
func parseDateTime(s string) (aware time.Time, naive civil.DateTime, isAware bool, ok bool) {
	s = strings.TrimSpace(s)

	for _, l := range awareLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, civil.DateTime{}, true, true
		}
	}

	for _, l := range naiveLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return time.Time{}, civil.DateTimeOf(t), false, true
		}
	}

	return time.Time{}, civil.DateTime{}, false, false
}

func truncTime(t civil.Time) civil.Time {
	t.Nanosecond = t.Nanosecond / 1000 * 1000
	return t
}

func formatTime(t civil.Time) string {
	return fmt.Sprintf("%02d:%02d:%02d.%06d", t.Hour, t.Minute, t.Second, t.Nanosecond/1000)
}

func formatNaive(dt civil.DateTime) string {
	return dt.Date.String() + " " + formatTime(dt.Time)
}

// autoNow reports whether encoding should replace the value with "now".
func autoNow(o *Options, inst Instance) bool {
	return o.AutoNow || (o.AutoNowAdd && inst != nil && inst.IsNew())
}

func writeBack(o *Options, inst Instance, v any) {
	if inst != nil {
		inst.Set(o.Name, v)
	}
}

// Date stores a civil.Date.
type Date struct{ base }

// NewDate returns a date field.
func NewDate(opts Options) *Date { return &Date{base{opts: opts}} }

// Type returns "DateField".
func (f *Date) Type() string { return "DateField" }

// SQLType returns DATE on every backend.
func (f *Date) SQLType(b dialect.Backend) (string, error) { return allBackends("DATE").lookup(b) }

// Decode accepts dates, datetimes and strings. Aware datetimes are
// converted to the default zone before the time of day is dropped.
func (f *Date) Decode(env Env, v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case civil.Date:
		return x, nil
	case civil.DateTime:
		return x.Date, nil
	case time.Time:
		if env.UseTZ {
			x = x.In(env.loc())
		}

		return civil.DateOf(x), nil
	case []byte:
		return f.Decode(env, string(x))
	case string:
		if d, err := civil.ParseDate(strings.TrimSpace(x)); err == nil {
			return d, nil
		}

		aware, naive, isAware, ok := parseDateTime(x)
		if !ok {
			return nil, f.badValue(v, "invalid date")
		}

		if isAware {
			return f.Decode(env, aware)
		}

		return naive.Date, nil
	default:
		return nil, f.badValue(v, "expected a date")
	}
}

// Encode applies auto_now and auto_now_add before decoding v.
func (f *Date) Encode(env Env, inst Instance, v any) (any, error) {
	if autoNow(&f.opts, inst) {
		v = civil.DateOf(env.now().In(env.loc()))
		writeBack(&f.opts, inst, v)
	}

	return f.encode(env, v, f.check)
}

func (f *Date) lookup(env Env, v any) (any, error) { return f.encode(env, v, noCheck) }

func (f *Date) encode(env Env, v any, check func(any) error) (any, error) {
	return encodeWith(f, check, env, v, func(val any) any {
		return val.(civil.Date).String()
	})
}

// Time stores a civil.Time with microsecond resolution.
type Time struct{ base }

// NewTime returns a time of day field.
func NewTime(opts Options) *Time { return &Time{base{opts: opts}} }

// Type returns "TimeField".
func (f *Time) Type() string { return "TimeField" }

var timeSQL = sqlTypes{
	dialect.Postgres: "TIME",
	dialect.MySQL:    "TIME(6)",
	dialect.SQLite:   "TIME",
	dialect.MSSQL:    "TIME",
}

// SQLType returns the time column type on b.
func (f *Time) SQLType(b dialect.Backend) (string, error) { return timeSQL.lookup(b) }

// Decode accepts civil times, time.Time values and ISO 8601 strings.
func (f *Time) Decode(env Env, v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case civil.Time:
		return truncTime(x), nil
	case civil.DateTime:
		return truncTime(x.Time), nil
	case time.Time:
		if env.UseTZ {
			x = x.In(env.loc())
		}

		return truncTime(civil.TimeOf(x)), nil
	case []byte:
		return f.Decode(env, string(x))
	case string:
		s := strings.TrimSpace(x)
		for _, l := range timeLayouts {
			if t, err := time.Parse(l, s); err == nil {
				return truncTime(civil.TimeOf(t)), nil
			}
		}

		return nil, f.badValue(v, "invalid time")
	default:
		return nil, f.badValue(v, "expected a time")
	}
}

// Encode applies auto_now and auto_now_add before decoding v.
func (f *Time) Encode(env Env, inst Instance, v any) (any, error) {
	if autoNow(&f.opts, inst) {
		v = truncTime(civil.TimeOf(env.now().In(env.loc())))
		writeBack(&f.opts, inst, v)
	}

	return f.encode(env, v, f.check)
}

func (f *Time) lookup(env Env, v any) (any, error) { return f.encode(env, v, noCheck) }

func (f *Time) encode(env Env, v any, check func(any) error) (any, error) {
	return encodeWith(f, check, env, v, func(val any) any {
		return formatTime(val.(civil.Time))
	})
}

// DateTime stores a time.Time when time zone support is active and a
// naive civil.DateTime otherwise.
type DateTime struct{ base }

// NewDateTime returns a datetime field.
func NewDateTime(opts Options) *DateTime { return &DateTime{base{opts: opts}} }

// Type returns "DatetimeField".
func (f *DateTime) Type() string { return "DatetimeField" }

var dateTimeSQL = sqlTypes{
	dialect.Postgres: "TIMESTAMPTZ",
	dialect.MySQL:    "DATETIME(6)",
	dialect.SQLite:   "TIMESTAMP",
	dialect.MSSQL:    "DATETIMEOFFSET",
}

// SQLType returns the timestamp column type on b.
func (f *DateTime) SQLType(b dialect.Backend) (string, error) { return dateTimeSQL.lookup(b) }

// Decode returns the canonical value for env. Naive input is localized to
// the default zone without a warning. Without time zone support aware
// input is converted to the default zone before its offset is dropped.
func (f *DateTime) Decode(env Env, v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case time.Time:
		x = x.Truncate(time.Microsecond)
		if env.UseTZ {
			return x, nil
		}

		return civil.DateTimeOf(x.In(env.loc())), nil
	case civil.DateTime:
		x.Time = truncTime(x.Time)
		if env.UseTZ {
			return x.In(env.loc()), nil
		}

		return x, nil
	case civil.Date:
		return f.Decode(env, civil.DateTime{Date: x})
	case []byte:
		return f.Decode(env, string(x))
	case string:
		aware, naive, isAware, ok := parseDateTime(x)
		if !ok {
			return nil, f.badValue(v, "invalid datetime")
		}

		if isAware {
			return f.Decode(env, aware)
		}

		return f.Decode(env, naive)
	default:
		return nil, f.badValue(v, "expected a datetime")
	}
}

// Load decodes a stored value. Without time zone support the drivers
// report the stored wall clock as a time.Time, which is kept as is.
func (f *DateTime) Load(env Env, v any) (any, error) {
	if x, ok := v.(time.Time); ok && !env.UseTZ {
		return civil.DateTimeOf(x.Truncate(time.Microsecond)), nil
	}

	return f.Decode(env, v)
}

// Encode stores v for env.Backend. A naive value under time zone support
// is localized to the default zone and reported as a warning.
func (f *DateTime) Encode(env Env, inst Instance, v any) (any, error) {
	if autoNow(&f.opts, inst) {
		now := env.now().In(env.loc()).Truncate(time.Microsecond)
		if env.UseTZ {
			v = now
		} else {
			v = civil.DateTimeOf(now)
		}

		writeBack(&f.opts, inst, v)
	}

	return f.encode(env, v, f.check)
}

func (f *DateTime) lookup(env Env, v any) (any, error) { return f.encode(env, v, noCheck) }

func (f *DateTime) encode(env Env, v any, check func(any) error) (any, error) {
	if env.UseTZ {
		if naive, ok := f.naive(v); ok {
			env.warn(diagnostic.Warning{
				Code:  diagnostic.CodeNaiveDateTime,
				Field: f.opts.Name,
				Message: fmt.Sprintf("received a naive datetime (%s) while time zone support is active",
					formatNaive(naive)),
			})

			v = naive.In(env.loc())
		}
	}

	return encodeWith(f, check, env, v, func(val any) any {
		if !env.UseTZ {
			return formatNaive(val.(civil.DateTime))
		}

		t := val.(time.Time)

		switch env.Backend {
		case dialect.SQLite:
			return t.UTC().Format(sqliteDateTimeLayout)
		case dialect.MySQL:
			return t.UTC()
		default:
			return t
		}
	})
}

func (f *DateTime) naive(v any) (civil.DateTime, bool) {
	switch x := v.(type) {
	case civil.DateTime:
		return x, true
	case civil.Date:
		return civil.DateTime{Date: x}, true
	case []byte:
		return f.naive(string(x))
	case string:
		_, naive, isAware, ok := parseDateTime(x)
		return naive, ok && !isAware
	default:
		return civil.DateTime{}, false
	}
}
