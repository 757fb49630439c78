package field

import (
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/golang-sql/civil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustField[F Field](f F, err error) Field {
	if err != nil {
		panic(err)
	}

	return f
}

func assertSameValue(t *testing.T, want, got any, msgAndArgs ...any) {
	t.Helper()

	switch w := want.(type) {
	case decimal.Decimal:
		require.IsType(t, w, got, msgAndArgs...)
		assert.True(t, w.Equal(got.(decimal.Decimal)), append([]any{spew.Sdump(got)}, msgAndArgs...)...)
	case time.Time:
		require.IsType(t, w, got, msgAndArgs...)
		assert.True(t, w.Equal(got.(time.Time)), append([]any{spew.Sdump(got)}, msgAndArgs...)...)
	default:
		assert.Equal(t, want, got, msgAndArgs...)
	}
}

// TestRoundTrip checks load(encode(v)) == v for every backend, and that
// decoding a canonical value returns it unchanged.
func TestRoundTrip(t *testing.T) {
	cases := []struct {
		name  string
		f     Field
		value any
	}{
		{"int", NewInt(Options{}), int64(-42)},
		{"small_int", NewSmallInt(Options{}), int64(-32768)},
		{"big_int", NewBigInt(Options{}), int64(1) << 62},
		{"positive_small", NewPositiveSmallInt(Options{}), int64(32767)},
		{"positive", NewPositiveInt(Options{}), int64(2147483647)},
		{"positive_big", NewPositiveBigInt(Options{}), int64(9223372036854775807)},
		{"float", NewFloat(Options{}), 3.25},
		{"bool", NewBool(Options{}), true},
		{"decimal", mustField(NewDecimal(Options{MaxDigits: 10, DecimalPlaces: 3})), decimal.RequireFromString("-1234.500")},
		{"char", NewChar(Options{MaxLength: 10}), "héllo"},
		{"text", NewText(Options{}), "long text"},
		{"slug", NewSlug(Options{}), "a-slug"},
		{"url", NewURL(Options{}), "https://example.com/"},
		{"email", NewEmail(Options{}), "a@example.com"},
		{"uuid", NewUUID(Options{}), uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")},
		{"json", NewJSON(Options{}, JSONCodec{}), map[string]any{"k": []any{"v", true, nil}}},
		{"json_string", NewJSON(Options{}, JSONCodec{}), "abc"},
		{"json_numeric_string", NewJSON(Options{}, JSONCodec{}), "123"},
		{"json_number", NewJSON(Options{}, JSONCodec{}), float64(123)},
		{"json_list", NewJSON(Options{}, JSONCodec{}), []any{"x", false}},
		{"binary", mustField(NewBinary(Options{})), []byte{0, 1, 2, 255}},
		{"date", NewDate(Options{}), civil.Date{Year: 1999, Month: time.December, Day: 31}},
		{"time", NewTime(Options{}), civil.Time{Hour: 23, Minute: 59, Second: 59, Nanosecond: 999999000}},
		{"datetime", NewDateTime(Options{}), time.Date(2023, 3, 26, 3, 30, 0, 1000, kyiv)},
		{"duration", NewDuration(Options{}), -(36*time.Hour + 5*time.Microsecond)},
		{"duration_max_days", NewDuration(Options{}), 106751 * 24 * time.Hour},
		{"duration_min_days", NewDuration(Options{}), -106751 * 24 * time.Hour},
		{"ipv4", NewGenericIP(Options{}), "10.0.0.1"},
		{"ipv6", NewGenericIP(Options{}), "2001:db8::1"},
	}

	for _, b := range backends {
		env := envFor(b)

		for _, tc := range cases {
			t.Run(b.String()+"/"+tc.name, func(t *testing.T) {
				stored, err := tc.f.Encode(env, nil, tc.value)
				require.NoError(t, err)

				back, err := Load(env, tc.f, stored)
				require.NoError(t, err)
				assertSameValue(t, tc.value, back, spew.Sdump(stored))

				again, err := tc.f.Decode(env, back)
				require.NoError(t, err)
				assertSameValue(t, back, again, "decode of a canonical value")

				direct, err := tc.f.Decode(env, tc.value)
				require.NoError(t, err)
				assertSameValue(t, tc.value, direct, "decode of the input value")
			})
		}
	}
}
