package field

import (
	"fmt"
	"net/netip"
	"slices"
	"strings"

	"orm-mirror/internal/dialect"
	"orm-mirror/internal/validate"
)

// Accepted values of Options.Protocol.
const (
	ProtocolBoth = "both"
	ProtocolIPv4 = "ipv4"
	ProtocolIPv6 = "ipv6"
)

// GenericIP stores an IPv4 or IPv6 address as its normalized string.
type GenericIP struct{ base }

// NewGenericIP returns an IP address field. Protocol restricts the
// accepted family; UnpackIPv4 turns "::ffff:a.b.c.d" into "a.b.c.d".
func NewGenericIP(opts Options) *GenericIP {
	opts.Protocol = strings.ToLower(opts.Protocol)

	switch opts.Protocol {
	case ProtocolIPv4:
		opts.Validators = append(slices.Clip(opts.Validators), validate.IPv4)
	case ProtocolIPv6:
		opts.Validators = append(slices.Clip(opts.Validators), validate.IPv6)
	default:
		opts.Protocol = ProtocolBoth
		opts.Validators = append(slices.Clip(opts.Validators), validate.IPv46)
	}

	return &GenericIP{base{opts: opts}}
}

// Type returns "GenericIPAddressField".
func (f *GenericIP) Type() string { return "GenericIPAddressField" }

var ipSQL = sqlTypes{
	dialect.Postgres: "INET",
	dialect.MySQL:    "CHAR(39)",
	dialect.SQLite:   "CHAR(39)",
	dialect.MSSQL:    "VARCHAR(39)",
}

// SQLType returns INET on postgres and a 39 character column elsewhere.
func (f *GenericIP) SQLType(b dialect.Backend) (string, error) { return ipSQL.lookup(b) }

// cleanIPv6 returns the compressed form of an IPv6 address, or the plain
// IPv4 form of an IPv4-mapped address when unpack is set.
func cleanIPv6(s string, unpack bool) (string, error) {
	a, err := netip.ParseAddr(s)
	if err != nil || a.Zone() != "" || !a.Is6() {
		return "", fmt.Errorf("%q is not a valid IPv6 address", s)
	}

	if a.Is4In6() && unpack {
		return a.Unmap().String(), nil
	}

	return a.String(), nil
}

// Decode normalizes v to a string. Addresses containing a colon are
// treated as IPv6, all others as IPv4; both must parse. The protocol
// restriction is checked by the validators on Encode.
func (f *GenericIP) Decode(_ Env, v any) (any, error) {
	var s string

	switch x := v.(type) {
	case nil:
		return nil, nil
	case string:
		s = x
	case []byte:
		s = string(x)
	case netip.Prefix:
		s = x.Addr().String()
	case fmt.Stringer:
		s = x.String()
	default:
		s = fmt.Sprint(v)
	}

	s = strings.TrimSpace(s)
	if strings.Contains(s, ":") {
		clean, err := cleanIPv6(s, f.opts.UnpackIPv4)
		if err != nil {
			return nil, f.badValue(v, err.Error())
		}

		return clean, nil
	}

	if s == "" {
		return s, nil
	}

	if a, err := netip.ParseAddr(s); err != nil || !a.Is4() {
		return nil, f.badValue(v, fmt.Sprintf("%q is not a valid IPv4 address", s))
	}

	return s, nil
}

// Encode runs the protocol validators on the decoded address.
func (f *GenericIP) Encode(env Env, _ Instance, v any) (any, error) {
	return encodeWith(f, f.check, env, v, nil)
}
