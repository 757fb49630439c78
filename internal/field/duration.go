package field

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"orm-mirror/internal/dialect"
)

var (
	// "[-]D [days, ][-][[HH:]MM:]ss[.uuuuuu]"
	standardDurationRe = regexp.MustCompile(
		`^(?:(-?\d+) (?:days?, )?)?(-?)(?:(\d+):(\d+):|(\d+):)?(\d+)(?:[.,](\d{1,6})\d{0,6})?$`)
	// ISO 8601: "P4DT1H15M20S"
	isoDurationRe = regexp.MustCompile(
		`^([-+]?)P(?:(\d+(?:[.,]\d+)?)D)?(?:T(?:(\d+(?:[.,]\d+)?)H)?(?:(\d+(?:[.,]\d+)?)M)?(?:(\d+(?:[.,]\d+)?)S)?)?$`)
	// postgres interval text: "3 days 04:05:06.000007"
	postgresIntervalRe = regexp.MustCompile(
		`^(?:(-?\d+) (?:days? ?))?(?:([-+])?(\d+):(\d\d):(\d\d)(?:\.(\d{1,6}))?)?$`)
)

// Duration parse failures. ErrDurationRange means the text is well formed
// but the span does not fit in a time.Duration.
var (
	ErrInvalidDuration = errors.New("invalid duration")
	ErrDurationRange   = errors.New("duration out of range")
)

// ParseDuration parses the standard "D HH:MM:SS.uuuuuu" form, ISO 8601
// durations and postgres interval text. The first format that matches wins.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidDuration
	}

	if m := standardDurationRe.FindStringSubmatch(s); m != nil {
		return standardDuration(m)
	}

	if m := isoDurationRe.FindStringSubmatch(s); m != nil && s != "P" && !strings.HasSuffix(s, "T") {
		return isoDuration(m)
	}

	if m := postgresIntervalRe.FindStringSubmatch(s); m != nil {
		return postgresDuration(m)
	}

	return 0, ErrInvalidDuration
}

const (
	usPerSecond = int64(time.Second / time.Microsecond)
	usPerMinute = 60 * usPerSecond
	usPerHour   = 60 * usPerMinute
	usPerDay    = 24 * usPerHour
)

// span sums microseconds and remembers any int64 overflow.
type span struct {
	us       int64
	overflow bool
}

func (s *span) add(n, unit int64) {
	if s.overflow || n == 0 {
		return
	}

	if n > math.MaxInt64/unit || n < math.MinInt64/unit {
		s.overflow = true
		return
	}

	p := n * unit
	if (p > 0 && s.us > math.MaxInt64-p) || (p < 0 && s.us < math.MinInt64-p) {
		s.overflow = true
		return
	}

	s.us += p
}

// addText adds the decimal integer text times unit. Empty text adds nothing.
func (s *span) addText(text string, unit int64) {
	if text == "" {
		return
	}

	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		s.overflow = true
		return
	}

	s.add(n, unit)
}

func (s *span) merge(o span) {
	s.overflow = s.overflow || o.overflow
	s.add(o.us, 1)
}

func (s span) duration() (time.Duration, error) {
	if s.overflow || s.us > math.MaxInt64/1000 || s.us < math.MinInt64/1000 {
		return 0, ErrDurationRange
	}

	return time.Duration(s.us) * time.Microsecond, nil
}

// micros pads a fraction of a second to six digits.
func micros(s string) string {
	if s == "" {
		return ""
	}

	return (s + "000000")[:6]
}

func standardDuration(m []string) (time.Duration, error) {
	minutes := m[4]
	if m[5] != "" {
		minutes = m[5]
	}

	var rest span
	rest.addText(m[3], usPerHour)
	rest.addText(minutes, usPerMinute)
	rest.addText(m[6], usPerSecond)
	rest.addText(micros(m[7]), 1)

	if m[2] == "-" {
		rest.us = -rest.us
	}

	var total span
	total.addText(m[1], usPerDay)
	total.merge(rest)

	return total.duration()
}

func isoDuration(m []string) (time.Duration, error) {
	var total float64

	units := []time.Duration{24 * time.Hour, time.Hour, time.Minute, time.Second}
	for i, u := range units {
		if m[i+2] == "" {
			continue
		}

		f, err := strconv.ParseFloat(strings.Replace(m[i+2], ",", ".", 1), 64)
		if err != nil {
			return 0, ErrInvalidDuration
		}

		total += f * float64(u)
	}

	total = math.Round(total/1e3) * 1e3
	if total >= math.MaxInt64 {
		return 0, ErrDurationRange
	}

	d := time.Duration(total)
	if m[1] == "-" {
		d = -d
	}

	return d, nil
}

func postgresDuration(m []string) (time.Duration, error) {
	var rest span
	rest.addText(m[3], usPerHour)
	rest.addText(m[4], usPerMinute)
	rest.addText(m[5], usPerSecond)
	rest.addText(micros(m[6]), 1)

	if m[2] == "-" {
		rest.us = -rest.us
	}

	var total span
	total.addText(m[1], usPerDay)
	total.merge(rest)

	return total.duration()
}

// FormatDuration renders d as "[D ]HH:MM:SS[.uuuuuu]" with a non-negative
// time of day, which ParseDuration reads back.
func FormatDuration(d time.Duration) string {
	d = d.Truncate(time.Microsecond)

	day := 24 * time.Hour

	days := d / day
	rest := d % day
	if rest < 0 {
		days--
		rest += day
	}

	us := int64(rest / time.Microsecond)
	h := us / 3_600_000_000
	mi := us / 60_000_000 % 60
	s := us / 1_000_000 % 60
	frac := us % 1_000_000

	out := fmt.Sprintf("%02d:%02d:%02d", h, mi, s)
	if frac != 0 {
		out += fmt.Sprintf(".%06d", frac)
	}

	if days == 0 {
		return out
	}

	return fmt.Sprintf("%d %s", days, out)
}

// Duration stores a signed time span with microsecond resolution.
type Duration struct{ base }

// NewDuration returns a duration field.
func NewDuration(opts Options) *Duration { return &Duration{base{opts: opts}} }

// Type returns "DurationField".
func (f *Duration) Type() string { return "DurationField" }

var durationSQL = sqlTypes{
	dialect.Postgres: "INTERVAL",
	dialect.MySQL:    "BIGINT",
	dialect.SQLite:   "BIGINT",
	dialect.MSSQL:    "BIGINT",
}

// SQLType returns INTERVAL on postgres and BIGINT microseconds elsewhere.
func (f *Duration) SQLType(b dialect.Backend) (string, error) { return durationSQL.lookup(b) }

// Decode accepts a time.Duration, an integer number of microseconds or a
// duration string. Unparseable strings fail with ErrBadValue.
func (f *Duration) Decode(env Env, v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case time.Duration:
		return x.Truncate(time.Microsecond), nil
	case []byte:
		return f.Decode(env, string(x))
	case string:
		d, err := ParseDuration(x)
		if err != nil {
			return nil, f.badValue(v, err.Error())
		}

		return d, nil
	}

	n, ok := toInt64(v)
	if !ok {
		return nil, f.badValue(v, "expected a duration")
	}

	if n > math.MaxInt64/1000 || n < math.MinInt64/1000 {
		return nil, f.badValue(v, "duration out of range")
	}

	return time.Duration(n) * time.Microsecond, nil
}

// Encode returns the duration itself on postgres, which stores INTERVAL,
// and the microsecond count elsewhere.
func (f *Duration) Encode(env Env, _ Instance, v any) (any, error) {
	return encodeWith(f, f.check, env, v, func(val any) any {
		d := val.(time.Duration)
		if env.Backend == dialect.Postgres {
			return d
		}

		return d.Microseconds()
	})
}
