package field

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orm-mirror/internal/dialect"
	"orm-mirror/internal/diagnostic"
)

func TestGenericIP_Decode(t *testing.T) {
	plain := NewGenericIP(Options{Name: "ip"})
	unpack := NewGenericIP(Options{Name: "ip", UnpackIPv4: true})

	tests := []struct {
		f    *GenericIP
		in   any
		want string
	}{
		{plain, " 192.168.0.1 ", "192.168.0.1"},
		{plain, "2001:0DB8:0000:0000:0000:0000:0000:0001", "2001:db8::1"},
		{plain, "::ffff:10.0.0.1", "::ffff:10.0.0.1"},
		{unpack, "::ffff:10.0.0.1", "10.0.0.1"},
		{plain, netip.MustParseAddr("10.1.1.1"), "10.1.1.1"},
		{plain, netip.MustParsePrefix("2001:db8::1/128"), "2001:db8::1"},
	}

	for _, tt := range tests {
		got, err := tt.f.Decode(Env{}, tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	for _, bad := range []string{"2001:db8::zz", "999.1.1.1", "10.0.0", "1.2.3.4.5", "host"} {
		got, err := plain.Decode(Env{}, bad)
		require.ErrorIs(t, err, diagnostic.ErrBadValue, bad)
		assert.Nil(t, got)
	}
}

func TestGenericIP_Encode(t *testing.T) {
	f := NewGenericIP(Options{Name: "ip"})

	got, err := f.Encode(Env{}, nil, "2001:db8:0::1")
	require.NoError(t, err)
	assert.Equal(t, "2001:db8::1", got)

	_, err = f.Encode(Env{}, nil, "300.1.1.1")
	require.ErrorIs(t, err, diagnostic.ErrBadValue)

	v4 := NewGenericIP(Options{Name: "ip", Protocol: "IPv4"})
	_, err = v4.Encode(Env{}, nil, "::1")
	require.ErrorIs(t, err, diagnostic.ErrValidation)
	assert.Equal(t, ProtocolIPv4, v4.Options().Protocol)

	sql, err := f.SQLType(dialect.Postgres)
	require.NoError(t, err)
	assert.Equal(t, "INET", sql)

	sql, err = f.SQLType(dialect.SQLite)
	require.NoError(t, err)
	assert.Equal(t, "CHAR(39)", sql)
}
