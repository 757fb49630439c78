package common

import (
	"strings"
	"unicode"
)

const (
	// UnknownStr is the string form of enum values that have no name.
	UnknownStr = "unknown"
	// DefaultAlias names the datasource that must always be configured.
	DefaultAlias = "default"
)

// LastSegment returns the part of a dotted reference after the last dot.
// "store.Customer" yields "Customer"; a name without dots is returned as is.
func LastSegment(ref string) string {
	if i := strings.LastIndexByte(ref, '.'); i >= 0 {
		return ref[i+1:]
	}

	return ref
}

// SplitRef splits "app.Model" into its app label and model name.
// The app label is empty for bare names.
func SplitRef(ref string) (app, name string) {
	i := strings.LastIndexByte(ref, '.')
	if i < 0 {
		return "", ref
	}

	return ref[:i], ref[i+1:]
}

// SnakeCase converts a CamelCase identifier to snake_case, keeping
// acronyms together: "GenericIPAddress" becomes "generic_ip_address".
func SnakeCase(s string) string {
	runes := []rune(s)

	var b strings.Builder

	b.Grow(len(s) + 4)

	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prevLower := !unicode.IsUpper(runes[i-1]) && runes[i-1] != '_'
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])

			if prevLower || (unicode.IsUpper(runes[i-1]) && nextLower) {
				b.WriteByte('_')
			}
		}

		b.WriteRune(unicode.ToLower(r))
	}

	return b.String()
}
