package mapping

import (
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orm-mirror/internal/diagnostic"
	"orm-mirror/internal/schema"
	"orm-mirror/internal/synth"
)

func codes(d diagnostic.Diagnostics) []string {
	out := make([]string, 0, len(d.Errors))
	for _, e := range d.Errors {
		out = append(out, e.Code)
	}

	return out
}

func TestLoadFile_Library(t *testing.T) {
	f, err := LoadFile(filepath.Join("testdata", "library.yaml"))
	require.NoError(t, err)
	assert.Empty(t, Validate(f).Errors)

	reg, err := f.Registry()
	require.NoError(t, err)

	author, ok := reg.Lookup("library.Author")
	require.True(t, ok)
	assert.Equal(t, []string{"name"}, author.Meta.Ordering)
	assert.Equal(t, "id", author.Columns[0].Name, "auto id is added")
	assert.Equal(t, schema.KindAuto, author.Columns[0].Kind)

	book, ok := reg.Lookup("Book")
	require.True(t, ok)
	assert.Equal(t, "books", book.TableName())
	assert.Equal(t, []string{"-published", "title"}, book.Meta.Ordering)

	pk, _ := book.PrimaryKey()
	assert.Equal(t, "isbn", pk.Name)

	price, _ := book.Column("price")
	assert.Equal(t, "9.99", price.Default)

	pages, _ := book.Column("pages")
	assert.Equal(t, int64(100), pages.Default)

	published, _ := book.Column("published")
	assert.False(t, published.HasDefault())

	genres, _ := book.Column("genres")
	assert.Equal(t, [2]string{"book_isbn", "genre_id"}, genres.Relation.ThroughFields)

	fk, _ := book.Column("author")
	assert.Equal(t, schema.Cascade, fk.Relation.OnDelete, spew.Sdump(fk))

	out, diags, err := synth.New().Run(reg)
	require.NoError(t, err, spew.Sdump(diags))
	assert.Equal(t, 3, out.Len())
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	f, err := Parse([]byte(`
version: "2"
apps:
  - app: a
    models:
      - name: Item
        fields:
          - {name: q, kind: char, max_length: 3, primary_key: true}
          - {name: x, kind: chr, max_length: 5}
          - {name: y, kind: char}
          - {name: y, kind: text}
          - {name: z, kind: decimal, max_digits: 2, decimal_places: 3}
          - {name: b, kind: binary, index: true}
          - {name: r, kind: foreign_key, to: Items}
          - {name: t, kind: text, to: Item}
          - {name: d, kind: integer, auto_now: true}
          - {name: p, kind: big_auto}
  - app: a
    models:
      - name: Item
        fields: []
`))
	require.NoError(t, err)

	d := Validate(f)
	assert.ElementsMatch(t, []string{
		CodeVersion,
		CodeDuplicateApp,
		diagnostic.CodeDuplicateModel,
		CodeUnknownKind,
		CodeBadConstraint, // y max_length
		CodeDuplicateField,
		CodeBadConstraint, // z precision
		CodeBadConstraint, // b index
		CodeUnknownTarget,
		CodeBadRelation, // r on_delete
		CodeBadRelation, // t relation keys
		CodeBadConstraint, // d auto_now
		CodeMultiplePKs,
	}, codes(d), spew.Sdump(d.Errors))

	for _, e := range d.Errors {
		switch e.Code {
		case CodeUnknownKind:
			assert.Contains(t, e.Suggestions, "char")
		case CodeUnknownTarget:
			assert.Equal(t, []string{"Item"}, e.Suggestions)
		}
	}

	_, err = f.Registry()
	assert.True(t, errors.Is(err, diagnostic.ErrConfiguration))
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse([]byte("apps: {"))
	assert.True(t, errors.Is(err, diagnostic.ErrConfiguration))

	_, err = Parse([]byte("apps: [{app: a, models: [{name: M, fields: [{name: x, kind: json, default: [1]}]}]}]"))
	assert.Error(t, err, "list defaults are rejected")

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, errors.Is(err, diagnostic.ErrConfiguration))
}

func TestFromRegistry_RoundTrip(t *testing.T) {
	f, err := LoadFile(filepath.Join("testdata", "library.yaml"))
	require.NoError(t, err)

	reg, err := f.Registry()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out.yaml")
	require.NoError(t, WriteFile(FromRegistry(reg), path))

	again, err := LoadFile(path)
	require.NoError(t, err)

	reg2, err := again.Registry()
	require.NoError(t, err)
	assert.Equal(t, reg.Models(), reg2.Models())
}
