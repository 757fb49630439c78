package analyze

import (
	"strconv"
	"strings"

	"orm-mirror/internal/diagnostic"
)

// tagOptions is a parsed db or meta tag.
type tagOptions struct {
	name   string
	values map[string]string
	flags  map[string]bool
}

func parseTag(tag string) tagOptions {
	parts := strings.Split(tag, ",")
	o := tagOptions{
		name:   strings.TrimSpace(parts[0]),
		values: make(map[string]string),
		flags:  make(map[string]bool),
	}

	for _, p := range parts[1:] {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}

		if k, v, ok := strings.Cut(p, "="); ok {
			o.values[k] = v
		} else {
			o.flags[p] = true
		}
	}

	return o
}

func (o tagOptions) list(key string) []string {
	v := o.values[key]
	if v == "" {
		return nil
	}

	return strings.Split(v, ";")
}

func (o tagOptions) int(key string) (int, error) {
	v, ok := o.values[key]
	if !ok {
		return 0, nil
	}

	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, diagnostic.Configuration("%s=%q is not a non-negative integer", key, v)
	}

	return n, nil
}

// unknown returns the first key not in known.
func (o tagOptions) unknown(known map[string]bool) string {
	for k := range o.values {
		if !known[k] {
			return k
		}
	}

	for k := range o.flags {
		if !known[k] {
			return k
		}
	}

	return ""
}

var fieldOptions = map[string]bool{
	"pk": true, "null": true, "index": true, "unique": true,
	"auto_now": true, "auto_now_add": true, "unpack_ipv4": true, "allow_unicode": true,
	"kind": true, "column": true, "default": true,
	"max_length": true, "max_digits": true, "decimal_places": true,
	"protocol": true, "validators": true,
	"fk": true, "o2o": true, "m2m": true, "on_delete": true, "related_name": true,
	"through": true, "through_fields": true, "encoder": true, "decoder": true,
}

var metaOptions = map[string]bool{
	"table": true, "schema": true, "ordering": true, "abstract": true,
}
