package model

import (
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/golang-sql/civil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orm-mirror/internal/dialect"
	"orm-mirror/internal/field"
)

func idField() field.Field {
	return field.NewInt(field.Options{Name: "id", PK: true, Generated: true})
}

func mustDecimal(t *testing.T, opts field.Options) *field.Decimal {
	t.Helper()

	f, err := field.NewDecimal(opts)
	require.NoError(t, err)

	return f
}

func mustBinary(t *testing.T, opts field.Options) *field.Binary {
	t.Helper()

	f, err := field.NewBinary(opts)
	require.NoError(t, err)

	return f
}

func TestNew_Validation(t *testing.T) {
	_, err := New("", Meta{Table: "t"}, []field.Field{idField()})
	require.Error(t, err)

	_, err = New("AAsync", Meta{Table: "t"}, []field.Field{idField(), idField()})
	assert.ErrorContains(t, err, "duplicate field")

	_, err = New("AAsync", Meta{Table: "t"}, []field.Field{
		idField(),
		field.NewBigInt(field.Options{Name: "other", PK: true}),
	})
	assert.ErrorContains(t, err, "more than one primary key")

	_, err = New("AAsync", Meta{Table: "t"}, []field.Field{field.NewText(field.Options{Name: "x"})})
	assert.ErrorContains(t, err, "no primary key")

	_, err = New("Base", Meta{Abstract: true}, []field.Field{field.NewText(field.Options{Name: "x"})})
	assert.NoError(t, err)

	_, err = New("AAsync", Meta{Table: "t", Ordering: []string{"-missing"}}, []field.Field{idField()})
	assert.ErrorContains(t, err, "unknown field")
}

func TestModel_Accessors(t *testing.T) {
	fk := field.NewForeignKey("BAsync", "as", field.Cascade, field.Options{Name: "b", Column: "b_id"})
	m2m := field.NewManyToMany("CAsync", "", "app_a_cs", "c_id", "a_id", field.Options{Name: "cs"})
	name := field.NewChar(field.Options{Name: "name", MaxLength: 10})

	m, err := New("AAsync", Meta{Table: "app_a", Ordering: []string{"-name", "id"}},
		[]field.Field{idField(), name, fk, m2m})
	require.NoError(t, err)

	assert.Equal(t, "AAsync", m.Name())
	assert.Equal(t, "id", m.PK().Options().Name)
	assert.Len(t, m.Fields(), 4)
	assert.Len(t, m.Columns(), 3, "many-to-many fields have no column")
	assert.Len(t, m.Relations(), 2)
	assert.Equal(t, []Order{{Column: "name", Desc: true}, {Column: "id"}}, m.OrderBy())

	got, ok := m.Field("b")
	require.True(t, ok)
	assert.Same(t, fk, got)

	meta := m.Meta()
	meta.Ordering[0] = "changed"
	assert.Equal(t, "-name", m.Meta().Ordering[0], "Meta must return a copy")
}

func TestRecord_Defaults(t *testing.T) {
	calls := 0
	m, err := New("AAsync", Meta{Table: "t"}, []field.Field{
		idField(),
		field.NewInt(field.Options{Name: "n", Default: int64(7)}),
		field.NewText(field.Options{Name: "s", Default: func() any { calls++; return "gen" }}),
		field.NewManyToMany("BAsync", "", "t_bs", "b_id", "a_id", field.Options{Name: "bs"}),
	})
	require.NoError(t, err)

	r := m.NewRecord(map[string]any{"n": int64(1)})
	assert.True(t, r.IsNew())
	assert.Equal(t, int64(1), r.Get("n"))
	assert.Equal(t, "gen", r.Get("s"))
	assert.Equal(t, 1, calls)
	assert.Nil(t, r.PK())
	assert.NotContains(t, r.Values(), "bs")

	r.Set("id", int64(3))
	r.MarkSaved()
	assert.False(t, r.IsNew())
	assert.Equal(t, int64(3), r.PK())

	loaded := m.Load(map[string]any{"id": int64(4)})
	assert.False(t, loaded.IsNew())
	assert.Same(t, m, loaded.Model())
}

func TestSerialize(t *testing.T) {
	env := field.Env{Backend: dialect.SQLite, UseTZ: true, Location: time.UTC}

	m, err := New("AAsync", Meta{Table: "t"}, []field.Field{
		idField(),
		mustDecimal(t, field.Options{Name: "price", MaxDigits: 6, DecimalPlaces: 2}),
		field.NewDate(field.Options{Name: "day"}),
		field.NewDuration(field.Options{Name: "took"}),
		field.NewDateTime(field.Options{Name: "at"}),
		mustBinary(t, field.Options{Name: "blob", Null: true}),
	})
	require.NoError(t, err)

	stored := map[string]any{
		"id":    int64(1),
		"price": "12.5",
		"day":   "2024-02-29",
		"took":  int64(90 * time.Second / time.Microsecond),
		"at":    "2024-01-01 10:00:00+00:00",
		"blob":  []byte("hi"),
	}

	got, err := m.Serialize(env, stored)
	require.NoError(t, err)

	want := map[string]any{
		"id":    int64(1),
		"price": "12.50",
		"day":   "2024-02-29",
		"took":  "00:01:30",
		"at":    "2024-01-01T10:00:00Z",
		"blob":  "aGk=",
	}
	assert.Equal(t, want, got, spew.Sdump(got))

	inMemory := map[string]any{
		"id":    int64(1),
		"price": decimal.RequireFromString("12.50"),
		"day":   civil.Date{Year: 2024, Month: time.February, Day: 29},
		"took":  90 * time.Second,
		"at":    time.Date(2024, 1, 1, 12, 0, 0, 0, time.FixedZone("EET", 7200)),
		"blob":  []byte("hi"),
	}

	again, err := m.Serialize(env, inMemory)
	require.NoError(t, err)
	assert.Equal(t, got, again)
}

func TestFingerprint(t *testing.T) {
	build := func(maxLength int) *Model {
		m, err := New("AAsync", Meta{Table: "t"}, []field.Field{
			idField(),
			field.NewChar(field.Options{Name: "name", MaxLength: maxLength}),
		})
		require.NoError(t, err)

		return m
	}

	assert.Equal(t, build(10).Fingerprint(), build(10).Fingerprint())
	assert.NotEqual(t, build(10).Fingerprint(), build(11).Fingerprint())

	d := build(10).Describe()
	require.Len(t, d.Fields, 2)
	assert.Equal(t, "CharField", d.Fields[1].Type)
	assert.Equal(t, 10, d.Fields[1].MaxLength)
	assert.Equal(t, 1, d.Fields[1].Validators)
}

func TestDescribeField_Relations(t *testing.T) {
	fk := field.NewOneToOne("BAsync", "a", field.SetNull, field.Options{Name: "b", Null: true})
	d := DescribeField(fk)
	assert.Equal(t, "OneToOneField", d.Type)
	assert.Equal(t, "BAsync", d.Target)
	assert.Equal(t, "SET NULL", d.OnDelete)
	assert.True(t, d.Unique)

	m2m := DescribeField(field.NewManyToMany("CAsync", "as", "t_cs", "c_id", "a_id", field.Options{Name: "cs"}))
	assert.Equal(t, "t_cs", m2m.Through)
	assert.Equal(t, "c_id", m2m.ForwardKey)
	assert.Equal(t, "a_id", m2m.BackwardKey)
}
