// Package validate provides the value validators attached to fields:
// numeric bounds, length limits and the slug, URL, email and IP grammars.
package validate

import (
	"math"
	"net/netip"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"orm-mirror/internal/diagnostic"
)

// Validator checks one canonical value. Nil values are never passed in.
type Validator interface {
	Validate(v any) error
}

// Func adapts a function to Validator.
type Func func(v any) error

// Validate calls f(v).
func (f Func) Validate(v any) error { return f(v) }

// All runs validators in order and returns the first failure.
func All(v any, validators []Validator) error {
	for _, vv := range validators {
		if err := vv.Validate(v); err != nil {
			return err
		}
	}

	return nil
}

// MinValue rejects numbers below limit.
func MinValue(limit int64) Validator {
	return Func(func(v any) error {
		n, ok := toNumber(v)
		if !ok {
			return diagnostic.Validation("invalid", "%v is not a number", v)
		}

		if n.less(limit) {
			return diagnostic.Validation("min_value", "ensure this value is greater than or equal to %d", limit)
		}

		return nil
	})
}

// MaxValue rejects numbers above limit.
func MaxValue(limit int64) Validator {
	return Func(func(v any) error {
		n, ok := toNumber(v)
		if !ok {
			return diagnostic.Validation("invalid", "%v is not a number", v)
		}

		if n.greater(limit) {
			return diagnostic.Validation("max_value", "ensure this value is less than or equal to %d", limit)
		}

		return nil
	})
}

// MaxLength rejects strings longer than n characters.
func MaxLength(n int) Validator {
	return Func(func(v any) error {
		s, ok := v.(string)
		if !ok {
			return nil
		}

		if l := utf8.RuneCountInString(s); l > n {
			return diagnostic.Validation("max_length",
				"ensure this value has at most %d characters (it has %d)", n, l)
		}

		return nil
	})
}

// MinLength rejects strings shorter than n characters.
func MinLength(n int) Validator {
	return Func(func(v any) error {
		s, ok := v.(string)
		if !ok {
			return nil
		}

		if l := utf8.RuneCountInString(s); l < n {
			return diagnostic.Validation("min_length",
				"ensure this value has at least %d characters (it has %d)", n, l)
		}

		return nil
	})
}

// Regex rejects strings that do not match re.
func Regex(re *regexp.Regexp, message string) Validator {
	return Func(func(v any) error {
		s, ok := v.(string)
		if !ok || !re.MatchString(s) {
			return diagnostic.Validation("invalid", "%s", message)
		}

		return nil
	})
}

var (
	slugRe        = regexp.MustCompile(`^[-a-zA-Z0-9_]+\z`)
	// \w is ASCII only in RE2.
	unicodeSlugRe = regexp.MustCompile(`^[-\p{L}\p{N}_]+\z`)

	emailUserRe   = regexp.MustCompile(`(?i)^[-!#$%&'*+/=?^_` + "`" + `{}|~0-9A-Z]+(\.[-!#$%&'*+/=?^_` + "`" + `{}|~0-9A-Z]+)*\z`)
	emailDomainRe = regexp.MustCompile(`(?i)^(?:[A-Z0-9](?:[A-Z0-9-]{0,61}[A-Z0-9])?\.)+[A-Z0-9-]{2,63}\z`)
	hostnameRe    = regexp.MustCompile(`(?i)^(?:[\p{L}\p{N}](?:[\p{L}\p{N}-]{0,61}[\p{L}\p{N}])?\.)*[\p{L}\p{N}](?:[\p{L}\p{N}-]{0,61}[\p{L}\p{N}])?\.?\z`)
)

// Slug accepts letters, numbers, underscores and hyphens.
var Slug = Regex(slugRe,
	"enter a valid slug consisting of letters, numbers, underscores or hyphens")

// UnicodeSlug accepts Unicode letters, numbers, underscores and hyphens.
var UnicodeSlug = Regex(unicodeSlugRe,
	"enter a valid slug consisting of Unicode letters, numbers, underscores, or hyphens")

var urlSchemes = map[string]bool{"http": true, "https": true, "ftp": true, "ftps": true}

// URL accepts absolute http, https, ftp and ftps URLs with a valid host.
var URL Validator = Func(func(v any) error {
	s, ok := v.(string)
	if !ok || s == "" || len(s) > 2048 || strings.ContainsAny(s, " \t\r\n") {
		return diagnostic.Validation("invalid", "enter a valid URL")
	}

	u, err := url.Parse(s)
	if err != nil || !urlSchemes[strings.ToLower(u.Scheme)] || u.Host == "" {
		return diagnostic.Validation("invalid", "enter a valid URL")
	}

	host := u.Hostname()
	if host == "localhost" || hostnameRe.MatchString(host) {
		return nil
	}

	if _, err := netip.ParseAddr(host); err == nil {
		return nil
	}

	return diagnostic.Validation("invalid", "enter a valid URL")
})

// Email accepts addresses of the form user@domain.
var Email Validator = Func(func(v any) error {
	s, ok := v.(string)
	if !ok || s == "" || len(s) > 320 {
		return diagnostic.Validation("invalid", "enter a valid email address")
	}

	at := strings.LastIndexByte(s, '@')
	if at <= 0 || at == len(s)-1 {
		return diagnostic.Validation("invalid", "enter a valid email address")
	}

	user, domain := s[:at], s[at+1:]
	if !emailUserRe.MatchString(user) {
		return diagnostic.Validation("invalid", "enter a valid email address")
	}

	if domain == "localhost" || emailDomainRe.MatchString(domain) {
		return nil
	}

	if strings.HasPrefix(domain, "[") && strings.HasSuffix(domain, "]") {
		if _, err := netip.ParseAddr(strings.TrimPrefix(domain[1:len(domain)-1], "IPv6:")); err == nil {
			return nil
		}
	}

	return diagnostic.Validation("invalid", "enter a valid email address")
})

// IPv4 accepts dotted-quad IPv4 addresses.
var IPv4 Validator = Func(func(v any) error {
	a, ok := parseAddr(v)
	if !ok || !a.Is4() {
		return diagnostic.Validation("invalid", "enter a valid IPv4 address")
	}

	return nil
})

// IPv6 accepts IPv6 addresses, including IPv4-mapped ones.
var IPv6 Validator = Func(func(v any) error {
	a, ok := parseAddr(v)
	if !ok || !a.Is6() {
		return diagnostic.Validation("invalid", "enter a valid IPv6 address")
	}

	return nil
})

// IPv46 accepts IPv4 or IPv6 addresses.
var IPv46 Validator = Func(func(v any) error {
	if _, ok := parseAddr(v); !ok {
		return diagnostic.Validation("invalid", "enter a valid IPv4 or IPv6 address")
	}

	return nil
})

func parseAddr(v any) (netip.Addr, bool) {
	var s string

	switch x := v.(type) {
	case string:
		s = x
	case netip.Addr:
		return x, x.IsValid()
	default:
		return netip.Addr{}, false
	}

	a, err := netip.ParseAddr(s)
	if err != nil || a.Zone() != "" {
		return netip.Addr{}, false
	}

	return a, true
}

// number holds either an exact integer or a float.
type number struct {
	i       int64
	f       float64
	isFloat bool
	// overflow is set for unsigned values above math.MaxInt64.
	overflow bool
}

func (n number) less(limit int64) bool {
	switch {
	case n.overflow:
		return false
	case n.isFloat:
		return n.f < float64(limit)
	default:
		return n.i < limit
	}
}

func (n number) greater(limit int64) bool {
	switch {
	case n.overflow:
		return true
	case n.isFloat:
		return n.f > float64(limit)
	default:
		return n.i > limit
	}
}

func toNumber(v any) (number, bool) {
	switch x := v.(type) {
	case int:
		return number{i: int64(x)}, true
	case int8:
		return number{i: int64(x)}, true
	case int16:
		return number{i: int64(x)}, true
	case int32:
		return number{i: int64(x)}, true
	case int64:
		return number{i: x}, true
	case uint:
		return fromUint(uint64(x)), true
	case uint8:
		return number{i: int64(x)}, true
	case uint16:
		return number{i: int64(x)}, true
	case uint32:
		return number{i: int64(x)}, true
	case uint64:
		return fromUint(x), true
	case float32:
		return number{f: float64(x), isFloat: true}, true
	case float64:
		return number{f: x, isFloat: true}, true
	case interface{ Float64() (float64, bool) }:
		f, _ := x.Float64()
		return number{f: f, isFloat: true}, true
	default:
		return number{}, false
	}
}

func fromUint(u uint64) number {
	if u > math.MaxInt64 {
		return number{overflow: true}
	}

	return number{i: int64(u)}
}

// Parse builds a validator from a spec such as "min_value=1",
// "max_length=20", "regex=^[a-z]+$", "slug" or "ipv4". Unknown specs fail
// with ErrNotSupported.
func Parse(spec string) (Validator, error) {
	name, arg, hasArg := strings.Cut(spec, "=")
	name = strings.ToLower(strings.TrimSpace(name))

	switch name {
	case "min_value", "max_value", "min_length", "max_length":
		if !hasArg {
			return nil, diagnostic.BadValue("validator", spec, "missing limit")
		}

		n, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
		if err != nil {
			return nil, diagnostic.BadValue("validator", spec, err.Error())
		}

		switch name {
		case "min_value":
			return MinValue(n), nil
		case "max_value":
			return MaxValue(n), nil
		case "min_length":
			return MinLength(int(n)), nil
		default:
			return MaxLength(int(n)), nil
		}
	case "regex":
		re, err := regexp.Compile(arg)
		if err != nil {
			return nil, diagnostic.BadValue("validator", spec, err.Error())
		}

		return Regex(re, "enter a valid value"), nil
	case "slug":
		return Slug, nil
	case "unicode_slug":
		return UnicodeSlug, nil
	case "url":
		return URL, nil
	case "email":
		return Email, nil
	case "ipv4":
		return IPv4, nil
	case "ipv6":
		return IPv6, nil
	case "ipv46":
		return IPv46, nil
	default:
		return nil, diagnostic.NotSupported("validator", spec)
	}
}

// ParseAll parses every spec.
func ParseAll(specs []string) ([]Validator, error) {
	out := make([]Validator, 0, len(specs))

	for _, s := range specs {
		v, err := Parse(s)
		if err != nil {
			return nil, err
		}

		out = append(out, v)
	}

	return out, nil
}
