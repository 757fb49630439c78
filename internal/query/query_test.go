package query

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/golang-sql/civil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orm-mirror/internal/backend"
	"orm-mirror/internal/ddl"
	"orm-mirror/internal/dialect"
	"orm-mirror/internal/diagnostic"
	"orm-mirror/internal/field"
	"orm-mirror/internal/model"
	"orm-mirror/internal/schema"
	"orm-mirror/internal/synth"
)

var now = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

func autoID() schema.Column {
	return schema.Column{Name: "id", Kind: schema.KindAuto, PrimaryKey: true}
}

func library() *schema.Registry {
	reg := schema.NewRegistry()
	reg.Register("library",
		&schema.Model{
			Name: "Author",
			Meta: schema.Meta{Ordering: []string{"name"}},
			Columns: []schema.Column{
				autoID(),
				{Name: "name", Kind: schema.KindChar, MaxLength: 50},
				{Name: "born", Kind: schema.KindDate, Null: true},
			},
		},
		&schema.Model{
			Name: "Tag",
			Columns: []schema.Column{
				autoID(),
				{Name: "label", Kind: schema.KindSlug, MaxLength: 20, Unique: true},
			},
		},
		&schema.Model{
			Name: "Book",
			Columns: []schema.Column{
				autoID(),
				{Name: "title", Kind: schema.KindChar, MaxLength: 100},
				{Name: "price", Kind: schema.KindDecimal, MaxDigits: 6, DecimalPlaces: 2},
				{Name: "added", Kind: schema.KindDateTime, AutoNowAdd: true},
				{Name: "author", Kind: schema.KindForeignKey, Relation: &schema.Relation{
					To: "library.Author", RelatedName: "books", OnDelete: schema.Cascade,
				}},
				{Name: "tags", Kind: schema.KindManyToMany, Relation: &schema.Relation{To: "Tag"}},
			},
		},
		&schema.Model{
			Name: "Profile",
			Columns: []schema.Column{
				autoID(),
				{Name: "code", Kind: schema.KindChar, MaxLength: 10},
				{Name: "active", Kind: schema.KindBoolean},
				{Name: "ref", Kind: schema.KindUUID},
				{Name: "took", Kind: schema.KindDuration},
				{Name: "author", Kind: schema.KindOneToOne, Relation: &schema.Relation{
					To: "Author", OnDelete: schema.SetNull,
				}},
			},
		},
		&schema.Model{
			Name: "Setting",
			Columns: []schema.Column{
				autoID(),
				{Name: "data", Kind: schema.KindJSON, Null: true},
			},
		},
	)

	return reg
}

// setup synthesizes the library models and creates their tables in an
// in-memory sqlite database.
func setup(t *testing.T) *DB {
	t.Helper()

	ctx := context.Background()

	reg, _, err := synth.New().Run(library())
	require.NoError(t, err)

	e, err := backend.Open(ctx, backend.Config{Backend: dialect.SQLite, Name: backend.MemoryPath})
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close(context.Background()) })

	stmts, err := ddl.Generate(reg.Models(), dialect.SQLite, ddl.Options{})
	require.NoError(t, err)

	for _, s := range stmts {
		_, err := e.Exec(ctx, s)
		require.NoError(t, err, s)
	}

	return NewDB(reg, e, field.Env{UseTZ: true, Now: func() time.Time { return now }})
}

func objects(t *testing.T, db *DB, name string) *Manager {
	t.Helper()

	m, err := db.Model(name)
	require.NoError(t, err)

	return m
}

func TestCreateAndGet(t *testing.T) {
	ctx := context.Background()
	db := setup(t)
	authors := objects(t, db, "Author")
	books := objects(t, db, "library.Book")

	ann, err := authors.Create(ctx, map[string]any{"name": "Ann", "born": civil.Date{Year: 1970, Month: 5, Day: 2}})
	require.NoError(t, err)
	assert.False(t, ann.IsNew())
	assert.Equal(t, int64(1), ann.PK())

	book, err := books.Create(ctx, map[string]any{"title": "Go", "price": "9.5", "author": ann})
	require.NoError(t, err)
	assert.Equal(t, now, book.Get("added"), "auto-now-add written back")

	got, err := books.GetByPK(ctx, book.PK())
	require.NoError(t, err)
	assert.Equal(t, "Go", got.Get("title"))
	assert.True(t, decimal.RequireFromString("9.50").Equal(got.Get("price").(decimal.Decimal)))
	assert.Equal(t, ann.PK(), got.Get("author"))
	assert.True(t, now.Equal(got.Get("added").(time.Time)))

	// by column name
	got, err = books.Get(ctx, Eq("author_id", ann.PK()))
	require.NoError(t, err)
	assert.Equal(t, book.PK(), got.PK())

	a, err := authors.Get(ctx, Eq("name", "Ann"))
	require.NoError(t, err)
	assert.Equal(t, civil.Date{Year: 1970, Month: 5, Day: 2}, a.Get("born"))
}

func TestGet_NotFoundAndMultiple(t *testing.T) {
	ctx := context.Background()
	db := setup(t)
	authors := objects(t, db, "Author")

	_, err := authors.Get(ctx, Eq("name", "nobody"))
	assert.True(t, errors.Is(err, ErrNotFound))

	for _, n := range []string{"a", "b"} {
		_, err := authors.Create(ctx, map[string]any{"name": n})
		require.NoError(t, err)
	}

	_, err = authors.Get(ctx)
	assert.True(t, errors.Is(err, ErrMultiple))
}

func TestFilterOrderCountUpdateDelete(t *testing.T) {
	ctx := context.Background()
	db := setup(t)
	authors := objects(t, db, "Author")

	for _, n := range []string{"carol", "ann", "bob"} {
		_, err := authors.Create(ctx, map[string]any{"name": n})
		require.NoError(t, err)
	}

	all, err := authors.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, []any{"ann", "bob", "carol"}, names(all))

	page, err := authors.Filter(ctx, Query{OrderBy: []string{"-name"}, Limit: 2, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, []any{"bob", "ann"}, names(page))

	in, err := authors.Filter(ctx, Query{Where: []Cond{In("name", "ann", "carol")}})
	require.NoError(t, err)
	assert.Len(t, in, 2)

	none, err := authors.Filter(ctx, Query{Where: []Cond{In("name")}})
	require.NoError(t, err)
	assert.Empty(t, none)

	n, err := authors.Count(ctx, Gt("name", "ann"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = authors.Count(ctx, IsNull("born", true))
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	n, err = authors.Update(ctx, map[string]any{"born": "2000-01-01"}, Eq("name", "bob"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = authors.Count(ctx, Ne("born", nil))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = authors.Delete(ctx, Lte("name", "bob"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = authors.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func names(recs []*model.Record) []any {
	out := make([]any, len(recs))
	for i, r := range recs {
		out[i] = r.Get("name")
	}

	return out
}

func TestSave_Update(t *testing.T) {
	ctx := context.Background()
	db := setup(t)
	authors := objects(t, db, "Author")

	a, err := authors.Create(ctx, map[string]any{"name": "ann"})
	require.NoError(t, err)

	a.Set("name", "anne")
	require.NoError(t, authors.Save(ctx, a))

	got, err := authors.GetByPK(ctx, a.PK())
	require.NoError(t, err)
	assert.Equal(t, "anne", got.Get("name"))

	_, err = authors.Delete(ctx, Eq("id", a.PK()))
	require.NoError(t, err)
	assert.True(t, errors.Is(authors.Save(ctx, a), ErrNotFound))
}

func TestSave_RejectsInvalidValue(t *testing.T) {
	ctx := context.Background()
	db := setup(t)

	_, err := objects(t, db, "Author").Create(ctx, map[string]any{"name": string(make([]byte, 51))})
	require.Error(t, err)
	assert.True(t, errors.Is(err, diagnostic.ErrValidation))

	_, err = objects(t, db, "Author").Create(ctx, map[string]any{"nope": 1})
	assert.True(t, errors.Is(err, diagnostic.ErrConfiguration))
}

func TestRelations(t *testing.T) {
	ctx := context.Background()
	db := setup(t)
	authors := objects(t, db, "Author")
	books := objects(t, db, "Book")
	tags := objects(t, db, "Tag")

	ann, err := authors.Create(ctx, map[string]any{"name": "ann"})
	require.NoError(t, err)
	bob, err := authors.Create(ctx, map[string]any{"name": "bob"})
	require.NoError(t, err)

	b1, err := books.Create(ctx, map[string]any{"title": "one", "price": "1", "author": ann})
	require.NoError(t, err)
	b2, err := books.Create(ctx, map[string]any{"title": "two", "price": "2", "author": ann.PK()})
	require.NoError(t, err)
	b3, err := books.Create(ctx, map[string]any{"title": "three", "price": "3", "author": bob})
	require.NoError(t, err)

	go1, err := tags.Create(ctx, map[string]any{"label": "go"})
	require.NoError(t, err)
	db1, err := tags.Create(ctx, map[string]any{"label": "db"})
	require.NoError(t, err)

	a, err := books.Related(ctx, b2, "author")
	require.NoError(t, err)
	assert.Equal(t, "ann", a.Get("name"))

	rev, err := authors.Reverse(ctx, ann, "books")
	require.NoError(t, err)
	assert.Len(t, rev, 2)

	require.NoError(t, books.Add(ctx, b1, "tags", go1, db1))
	require.NoError(t, books.Add(ctx, b3, "tags", go1))

	members, err := books.Members(ctx, b1, "tags")
	require.NoError(t, err)
	assert.Len(t, members, 2)

	byBook, err := books.Prefetch(ctx, []*model.Record{b1, b2, b3}, "tags")
	require.NoError(t, err)
	assert.Len(t, byBook[b1.PK()], 2)
	assert.Empty(t, byBook[b2.PK()])
	assert.Len(t, byBook[b3.PK()], 1)

	byAuthor, err := books.Prefetch(ctx, []*model.Record{b1, b2, b3}, "author")
	require.NoError(t, err)
	assert.Equal(t, "ann", byAuthor[b2.PK()][0].Get("name"))
	assert.Equal(t, "bob", byAuthor[b3.PK()][0].Get("name"))

	n, err := books.Remove(ctx, b1, "tags", db1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	members, err = books.Members(ctx, b1, "tags")
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "go", members[0].Get("label"))

	// cascade
	_, err = authors.Delete(ctx, Eq("id", ann.PK()))
	require.NoError(t, err)

	left, err := books.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), left)

	_, err = books.Related(ctx, b1, "title")
	assert.True(t, errors.Is(err, diagnostic.ErrConfiguration))
}

func TestRelated_NullKey(t *testing.T) {
	ctx := context.Background()
	db := setup(t)
	profiles := objects(t, db, "Profile")

	p, err := profiles.Create(ctx, map[string]any{
		"code": "abc", "active": true, "ref": uuid.New(), "took": time.Minute,
	})
	require.NoError(t, err)

	a, err := profiles.Related(ctx, p, "author")
	require.NoError(t, err)
	assert.Nil(t, a)
}

func TestOneToOne_SetNullOnDelete(t *testing.T) {
	ctx := context.Background()
	db := setup(t)
	authors := objects(t, db, "Author")
	profiles := objects(t, db, "Profile")

	ann, err := authors.Create(ctx, map[string]any{"name": "ann"})
	require.NoError(t, err)

	p, err := profiles.Create(ctx, map[string]any{
		"code": "abc", "active": true, "ref": uuid.New(), "took": time.Minute, "author": ann,
	})
	require.NoError(t, err)

	_, err = authors.Delete(ctx)
	require.NoError(t, err)

	got, err := profiles.GetByPK(ctx, p.PK())
	require.NoError(t, err)
	assert.Nil(t, got.Get("author"))
}

// A row written by plain SQL in the stored representation reads back
// through the manager into the same serialized form as a record created
// through the manager.
func TestSerialize_MatchesPlainSQLRow(t *testing.T) {
	ctx := context.Background()
	db := setup(t)
	profiles := objects(t, db, "Profile")
	ref := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

	_, err := db.Engine().Exec(ctx,
		`INSERT INTO "library_profile" ("code", "active", "ref", "took") VALUES (?, ?, ?, ?)`,
		"abc", true, ref.String(), int64(90*time.Second/time.Microsecond))
	require.NoError(t, err)

	created, err := profiles.Create(ctx, map[string]any{
		"code": "abc", "active": true, "ref": ref, "took": 90 * time.Second,
	})
	require.NoError(t, err)

	plain, err := profiles.GetByPK(ctx, int64(1))
	require.NoError(t, err)

	loaded, err := profiles.GetByPK(ctx, created.PK())
	require.NoError(t, err)

	want := map[string]any{
		"id":     int64(1),
		"code":   "abc",
		"active": true,
		"ref":    ref.String(),
		"took":   "00:01:30",
		"author": nil,
	}

	got, err := db.Serialize(plain)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	again, err := db.Serialize(loaded)
	require.NoError(t, err)
	want["id"] = int64(2)
	assert.Equal(t, want, again)

	fresh, err := db.Serialize(created)
	require.NoError(t, err)
	assert.Equal(t, again, fresh)
}

func TestJSON_ScalarDocumentsKeepTheirType(t *testing.T) {
	ctx := context.Background()
	db := setup(t)
	settings := objects(t, db, "Setting")

	for _, value := range []any{"abc", "123", "null", float64(123), true, nil, []any{"x", float64(1)}, map[string]any{"k": "v"}} {
		created, err := settings.Create(ctx, map[string]any{"data": value})
		require.NoError(t, err)

		loaded, err := settings.GetByPK(ctx, created.PK())
		require.NoError(t, err)
		assert.Equal(t, value, loaded.Get("data"))

		fresh, err := db.Serialize(created)
		require.NoError(t, err)

		again, err := db.Serialize(loaded)
		require.NoError(t, err)
		assert.Equal(t, fresh, again)
		assert.Equal(t, value, again["data"])
	}

	_, err := db.Engine().Exec(ctx, `INSERT INTO "library_setting" ("data") VALUES (?)`, `"plain"`)
	require.NoError(t, err)

	rows, err := settings.Filter(ctx, Query{OrderBy: []string{"id"}})
	require.NoError(t, err)
	assert.Equal(t, "plain", rows[len(rows)-1].Get("data"))
}

func TestModel_Unknown(t *testing.T) {
	db := setup(t)

	_, err := db.Model("Nope")
	assert.True(t, errors.Is(err, diagnostic.ErrConfiguration))
}

func TestBuilder_Limit(t *testing.T) {
	cases := []struct {
		b             dialect.Backend
		limit, offset int
		want          string
	}{
		{dialect.Postgres, 10, 0, " LIMIT 10"},
		{dialect.Postgres, 0, 5, " OFFSET 5"},
		{dialect.SQLite, 0, 5, " LIMIT -1 OFFSET 5"},
		{dialect.MySQL, 0, 5, " LIMIT 18446744073709551615 OFFSET 5"},
		{dialect.MSSQL, 10, 5, " OFFSET 5 ROWS FETCH NEXT 10 ROWS ONLY"},
		{dialect.MSSQL, 0, 0, ""},
	}

	for _, c := range cases {
		q := &builder{b: c.b}
		q.limit(c.limit, c.offset)
		assert.Equal(t, c.want, q.String(), "%s %d/%d", c.b, c.limit, c.offset)
	}
}
