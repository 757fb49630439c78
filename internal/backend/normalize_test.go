package backend

import (
	"math"
	"net/netip"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/golang-sql/civil"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	mssql "github.com/microsoft/go-mssqldb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orm-mirror/internal/diagnostic"
)

func TestNormalizeMySQL(t *testing.T) {
	assert.Equal(t, int64(-5), normalizeMySQL("INT", []byte("-5")))
	assert.Equal(t, uint64(18446744073709551615), normalizeMySQL("UNSIGNED BIGINT", []byte("18446744073709551615")))
	assert.InDelta(t, 1.5, normalizeMySQL("DOUBLE", []byte("1.5")), 1e-9)
	assert.Equal(t, "12.50", normalizeMySQL("DECIMAL", []byte("12.50")))
	assert.Equal(t, "10:30:00.000000", normalizeMySQL("TIME", []byte("10:30:00.000000")))
	assert.Equal(t, []byte{0, 1}, normalizeMySQL("LONGBLOB", []byte{0, 1}))
	assert.Equal(t, int64(7), normalizeMySQL("INT", int64(7)))

	day := time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, civil.Date{Year: 2024, Month: time.February, Day: 29}, normalizeMySQL("DATE", day))
	assert.Equal(t, day, normalizeMySQL("DATETIME", day))
}

func TestNormalizeMSSQL(t *testing.T) {
	u := mssql.UniqueIdentifier(uuid.MustParse("6f9619ff-8b86-d011-b42d-00c04fc964ff"))
	wire, err := u.Value()
	require.NoError(t, err)
	assert.Equal(t, u.String(), normalizeMSSQL("UNIQUEIDENTIFIER", wire))

	assert.Equal(t, "1.25", normalizeMSSQL("DECIMAL", []byte("1.25")))

	at := time.Date(1, 1, 1, 10, 30, 0, 0, time.UTC)
	assert.Equal(t, civil.Time{Hour: 10, Minute: 30}, normalizeMSSQL("TIME", at))
	assert.Equal(t, civil.Date{Year: 1, Month: time.January, Day: 1}, normalizeMSSQL("DATE", at))
}

func TestNormalizePostgres(t *testing.T) {
	pg := func(oid uint32, v any) any {
		t.Helper()

		got, err := normalizePostgres(oid, v)
		require.NoError(t, err)

		return got
	}

	assert.Equal(t, int64(3), pg(pgtype.Int4OID, int32(3)))

	id := uuid.New()
	assert.Equal(t, id, pg(pgtype.UUIDOID, [16]byte(id)))

	iv := pgtype.Interval{Microseconds: 1_500_000, Days: 1, Valid: true}
	assert.Equal(t, 24*time.Hour+1500*time.Millisecond, pg(pgtype.IntervalOID, iv))
	assert.Equal(t, 30*24*time.Hour-time.Second, pg(pgtype.IntervalOID, pgtype.Interval{Months: 1, Microseconds: -1_000_000, Valid: true}))
	assert.Nil(t, pg(pgtype.IntervalOID, pgtype.Interval{}))

	tm := pgtype.Time{Microseconds: int64(10*time.Hour/time.Microsecond) + 5, Valid: true}
	assert.Equal(t, civil.Time{Hour: 10, Nanosecond: 5000}, pg(pgtype.TimeOID, tm))

	assert.Equal(t, "10.0.0.1", pg(pgtype.InetOID, netip.MustParsePrefix("10.0.0.1/32")))
	assert.Equal(t, "10.0.0.0/8", pg(pgtype.InetOID, netip.MustParsePrefix("10.0.0.0/8")))

	kyiv := time.FixedZone("EET", 7200)
	at := time.Date(2024, 1, 1, 1, 0, 0, 0, kyiv)
	assert.Equal(t, civil.Date{Year: 2024, Month: time.January, Day: 1}, pg(pgtype.DateOID, at))
	assert.Equal(t, time.UTC, pg(pgtype.TimestamptzOID, at).(time.Time).Location())

	var num pgtype.Numeric
	require.NoError(t, num.Scan("12.50"))
	assert.Equal(t, "12.50", pg(pgtype.NumericOID, num))
}

func TestNormalizePostgres_JSONStaysText(t *testing.T) {
	for _, tc := range []struct {
		in   any
		want string
	}{
		{"abc", `"abc"`},
		{"123", `"123"`},
		{float64(123), `123`},
		{map[string]any{"k": []any{true}}, `{"k":[true]}`},
	} {
		got, err := normalizePostgres(pgtype.JSONBOID, tc.in)
		require.NoError(t, err)
		require.IsType(t, json.RawMessage{}, got)
		assert.JSONEq(t, tc.want, string(got.(json.RawMessage)))
	}

	got, err := normalizePostgres(pgtype.JSONOID, nil)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestNormalizePostgres_IntervalOutOfRange(t *testing.T) {
	limit := pgtype.Interval{Days: 106751, Valid: true}
	got, err := normalizePostgres(pgtype.IntervalOID, limit)
	require.NoError(t, err)
	assert.Equal(t, 106751*24*time.Hour, got)

	for _, iv := range []pgtype.Interval{
		{Days: 106752, Valid: true},
		{Days: -106752, Valid: true},
		{Months: 3559, Valid: true},
		{Months: math.MaxInt32, Days: math.MaxInt32, Valid: true},
		{Microseconds: math.MaxInt64, Days: 1, Valid: true},
		{Microseconds: math.MinInt64, Valid: true},
		{Days: 106751, Microseconds: int64(24 * time.Hour / time.Microsecond), Valid: true},
	} {
		got, err := normalizePostgres(pgtype.IntervalOID, iv)
		require.ErrorIs(t, err, diagnostic.ErrBadValue, "%+v", iv)
		assert.Nil(t, got)
	}
}

func TestPGArgs(t *testing.T) {
	args := []any{"a", 90 * time.Second}
	out := pgArgs(args)

	assert.Equal(t, pgtype.Interval{Microseconds: 90_000_000, Valid: true}, out[1])
	assert.Equal(t, 90*time.Second, args[1], "input is not modified")

	plain := []any{1, "x"}
	assert.Equal(t, plain, pgArgs(plain))
}

func TestNormalizeSQLite(t *testing.T) {
	day := time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, civil.Date{Year: 2024, Month: time.February, Day: 29}, normalizeSQLite("DATE", day))
	assert.Equal(t, day, normalizeSQLite("TIMESTAMP", day))
	assert.Equal(t, "x", normalizeSQLite("TEXT", "x"))
}
