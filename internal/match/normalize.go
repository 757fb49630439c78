package match

import (
	"strings"
	"unicode"
)

// Normalize folds an identifier for comparison: CamelCase and separators
// are flattened, the result is lower case, and dotted references keep only
// their last segment. "shop.OrderItem", "order_item" and "OrderItem" all
// normalize to "orderitem".
func Normalize(s string) string {
	if i := strings.LastIndexByte(s, '.'); i >= 0 {
		s = s[i+1:]
	}

	return strings.Join(Tokens(s), "")
}

// Tokens splits an identifier into lower case words.
//
//	"OrderID"         -> ["order", "id"]
//	"XMLParser"       -> ["xml", "parser"]
//	"line_item-count" -> ["line", "item", "count"]
func Tokens(s string) []string {
	var (
		out []string
		cur strings.Builder
	)

	flush := func() {
		if cur.Len() > 0 {
			out = append(out, strings.ToLower(cur.String()))
			cur.Reset()
		}
	}

	runes := []rune(s)
	for i, r := range runes {
		if isSeparator(r) {
			flush()
			continue
		}

		if i > 0 && wordStart(runes, i) {
			flush()
		}

		cur.WriteRune(r)
	}

	flush()

	return out
}

func isSeparator(r rune) bool {
	return r == '_' || r == '-' || r == ' '
}

// wordStart reports whether runes[i] begins a new word: a lower-to-upper
// transition, or the last capital of an acronym followed by lower case.
func wordStart(runes []rune, i int) bool {
	r, prev := runes[i], runes[i-1]
	if !unicode.IsUpper(r) {
		return false
	}

	if !unicode.IsUpper(prev) {
		return !isSeparator(prev)
	}

	return i+1 < len(runes) && unicode.IsLower(runes[i+1])
}
