// Package ddl renders the CREATE TABLE statements of synthesized models
// for one backend. Referenced tables are created before the tables that
// reference them; junction tables of many-to-many fields come last.
package ddl

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/errors"

	"orm-mirror/internal/dialect"
	"orm-mirror/internal/diagnostic"
	"orm-mirror/internal/field"
	"orm-mirror/internal/model"
)

// maxIdentLen is the shortest identifier limit among the backends (postgres).
const maxIdentLen = 63

// Options tunes the generated statements.
type Options struct {
	// IfNotExists makes every statement a no-op when its object exists.
	IfNotExists bool
}

type generator struct {
	b      dialect.Backend
	opts   Options
	tables map[string]*model.Model

	// deferred holds foreign keys emitted after every table exists.
	deferred []string
	deferFKs bool
}

// Generate returns the statements creating the tables of models on b.
// Abstract models have no table. Models referencing each other in a cycle
// get their foreign keys as ALTER TABLE statements at the end, except on
// sqlite, which accepts references to tables created later.
func Generate(models []*model.Model, b dialect.Backend, opts Options) ([]string, error) {
	g := &generator{b: b, opts: opts, tables: make(map[string]*model.Model)}

	var concrete []*model.Model

	for _, m := range models {
		if m.Meta().Abstract {
			continue
		}

		concrete = append(concrete, m)
		g.tables[m.Name()] = m
	}

	index := make(map[string]int, len(concrete))
	for i, m := range concrete {
		index[m.Name()] = i
	}

	var missing error

	order, err := topoSort(len(concrete), func(i int) []int {
		var deps []int

		for _, fk := range foreignKeys(concrete[i]) {
			j, ok := index[fk.Target()]
			if !ok {
				missing = diagnostic.Configuration("%s.%s: target %s is not among the generated models",
					concrete[i].Name(), fk.Options().Name, fk.Target())

				continue
			}

			deps = append(deps, j)
		}

		return deps
	})

	if missing != nil {
		return nil, missing
	}

	if errors.Is(err, errCycle) {
		g.deferFKs = b != dialect.SQLite

		order = make([]int, len(concrete))
		for i := range order {
			order[i] = i
		}
	} else if err != nil {
		return nil, err
	}

	var stmts []string

	for _, i := range order {
		s, err := g.createTable(concrete[i])
		if err != nil {
			return nil, errors.Wrapf(err, "table for %s", concrete[i].Name())
		}

		stmts = append(stmts, s...)
	}

	for _, m := range concrete {
		for _, rel := range m.Relations() {
			m2m, ok := rel.(*field.ManyToMany)
			if !ok || g.isModelTable(m2m.Through()) {
				continue
			}

			s, err := g.junction(m, m2m)
			if err != nil {
				return nil, errors.Wrapf(err, "junction table for %s.%s", m.Name(), m2m.Options().Name)
			}

			stmts = append(stmts, s...)
		}
	}

	return append(stmts, g.deferred...), nil
}

func foreignKeys(m *model.Model) []*field.ForeignKey {
	var out []*field.ForeignKey

	for _, rel := range m.Relations() {
		if fk, ok := rel.(*field.ForeignKey); ok {
			out = append(out, fk)
		}
	}

	return out
}

// isModelTable reports whether a model already owns table, as with an
// explicit through model.
func (g *generator) isModelTable(table string) bool {
	for _, m := range g.tables {
		if m.Meta().Table == table {
			return true
		}
	}

	return false
}

func (g *generator) table(m *model.Model) string {
	meta := m.Meta()

	return g.b.QuoteTable(meta.Schema, meta.Table)
}

// createTable returns CREATE TABLE for m followed by its separate indexes.
func (g *generator) createTable(m *model.Model) ([]string, error) {
	meta := m.Meta()

	var (
		body    []string
		indexes []string
	)

	for _, f := range m.Columns() {
		def, err := g.columnDef(f)
		if err != nil {
			return nil, err
		}

		body = append(body, def)

		o := f.Options()

		fk, isFK := f.(*field.ForeignKey)
		if isFK {
			c, err := g.foreignKey(meta.Table, o.ColumnName(), fk)
			if err != nil {
				return nil, err
			}

			if g.deferFKs {
				g.deferred = append(g.deferred, fmt.Sprintf("ALTER TABLE %s ADD %s", g.table(m), c))
			} else {
				body = append(body, c)
			}
		}

		if (o.Index || isFK) && !o.PK && !o.Unique {
			idx, inline := g.index(m, o.ColumnName())
			if inline {
				body = append(body, idx)
			} else {
				indexes = append(indexes, idx)
			}
		}
	}

	return append([]string{g.create(meta.Schema, meta.Table, body)}, indexes...), nil
}

// create renders CREATE TABLE name (body...).
func (g *generator) create(schema, table string, body []string) string {
	name := g.b.QuoteTable(schema, table)

	stmt := "CREATE TABLE " + name + " (\n    " + strings.Join(body, ",\n    ") + "\n)"
	if !g.opts.IfNotExists {
		return stmt
	}

	if g.b == dialect.MSSQL {
		qualified := table
		if schema != "" {
			qualified = schema + "." + table
		}

		return fmt.Sprintf("IF OBJECT_ID(N'%s', N'U') IS NULL %s", strings.ReplaceAll(qualified, "'", "''"), stmt)
	}

	return strings.Replace(stmt, "CREATE TABLE ", "CREATE TABLE IF NOT EXISTS ", 1)
}

func (g *generator) columnDef(f field.Field) (string, error) {
	o := f.Options()
	name := g.b.Quote(o.ColumnName())

	if o.PK && o.Generated {
		auto, err := g.autoColumn(f)
		if err != nil {
			return "", err
		}

		return name + " " + auto, nil
	}

	typ, err := f.SQLType(g.b)
	if err != nil {
		return "", errors.Wrapf(err, "column %s", o.Name)
	}

	parts := []string{name, typ}

	switch {
	case o.PK:
		parts = append(parts, "NOT NULL PRIMARY KEY")
	case o.Null:
		parts = append(parts, "NULL")
	default:
		parts = append(parts, "NOT NULL")
	}

	if o.Unique && !o.PK {
		parts = append(parts, "UNIQUE")
	}

	return strings.Join(parts, " "), nil
}

var serialTypes = map[string]string{
	"SmallIntField": "SMALLSERIAL",
	"IntField":      "SERIAL",
	"BigIntField":   "BIGSERIAL",
}

// autoColumn renders the type and constraints of a generated primary key.
func (g *generator) autoColumn(f field.Field) (string, error) {
	if _, ok := f.(*field.Int); !ok {
		return "", diagnostic.NotSupported("generated key type", f.Type())
	}

	typ, err := f.SQLType(g.b)
	if err != nil {
		return "", err
	}

	switch g.b {
	case dialect.Postgres:
		serial, ok := serialTypes[f.Type()]
		if !ok {
			return "", diagnostic.NotSupported("generated key type", f.Type())
		}

		return serial + " NOT NULL PRIMARY KEY", nil
	case dialect.MySQL:
		return typ + " NOT NULL AUTO_INCREMENT PRIMARY KEY", nil
	case dialect.SQLite:
		// only INTEGER PRIMARY KEY aliases the rowid
		return "INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT", nil
	case dialect.MSSQL:
		return typ + " IDENTITY(1,1) NOT NULL PRIMARY KEY", nil
	default:
		return "", diagnostic.NotSupported("backend", g.b.String())
	}
}

func (g *generator) foreignKey(table, column string, fk *field.ForeignKey) (string, error) {
	target, ok := g.tables[fk.Target()]
	if !ok {
		return "", diagnostic.Configuration("%s: target %s is not among the generated models",
			fk.Options().Name, fk.Target())
	}

	return g.reference(table, column, target, string(fk.OnDelete())), nil
}

// reference renders a named FOREIGN KEY table constraint.
func (g *generator) reference(table, column string, target *model.Model, onDelete string) string {
	return fmt.Sprintf("CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s) ON DELETE %s",
		g.b.Quote(ident("fk", table, column)),
		g.b.Quote(column),
		g.table(target),
		g.b.Quote(target.PK().Options().ColumnName()),
		onDelete)
}

// index renders an index on one column. mysql and mssql declare it inside
// CREATE TABLE so IF NOT EXISTS covers it; inline reports that case.
func (g *generator) index(m *model.Model, column string) (stmt string, inline bool) {
	meta := m.Meta()
	name := g.b.Quote(ident("idx", meta.Table, column))

	switch g.b {
	case dialect.MySQL:
		return fmt.Sprintf("INDEX %s (%s)", name, g.b.Quote(column)), true
	case dialect.MSSQL:
		return fmt.Sprintf("INDEX %s NONCLUSTERED (%s)", name, g.b.Quote(column)), true
	}

	create := "CREATE INDEX "
	if g.opts.IfNotExists {
		create += "IF NOT EXISTS "
	}

	return fmt.Sprintf("%s%s ON %s (%s)", create, name, g.table(m), g.b.Quote(column)), false
}

// junction returns the statements of the table linking m to the target
// of m2m: a generated key, one cascading key per side and a unique pair.
func (g *generator) junction(m *model.Model, m2m *field.ManyToMany) ([]string, error) {
	target, ok := g.tables[m2m.Target()]
	if !ok {
		return nil, diagnostic.Configuration("%s: target %s is not among the generated models",
			m2m.Options().Name, m2m.Target())
	}

	table := m2m.Through()
	schema := m.Meta().Schema

	id, err := g.autoColumn(field.NewInt(field.Options{Name: "id", PK: true, Generated: true}))
	if err != nil {
		return nil, err
	}

	backward, err := m.PK().SQLType(g.b)
	if err != nil {
		return nil, err
	}

	forward, err := target.PK().SQLType(g.b)
	if err != nil {
		return nil, err
	}

	bk, fk := m2m.BackwardKey(), m2m.ForwardKey()

	body := []string{
		g.b.Quote("id") + " " + id,
		g.b.Quote(bk) + " " + backward + " NOT NULL",
		g.b.Quote(fk) + " " + forward + " NOT NULL",
		g.reference(table, bk, m, string(field.Cascade)),
		g.reference(table, fk, target, string(field.Cascade)),
		fmt.Sprintf("CONSTRAINT %s UNIQUE (%s, %s)",
			g.b.Quote(ident("uniq", table, bk, fk)), g.b.Quote(bk), g.b.Quote(fk)),
	}

	return []string{g.create(schema, table, body)}, nil
}

// ident joins parts into a constraint or index name, shortened with a hash
// suffix when it exceeds the identifier limit.
func ident(parts ...string) string {
	name := strings.Join(parts, "_")
	if len(name) <= maxIdentLen {
		return name
	}

	suffix := fmt.Sprintf("_%08x", uint32(xxhash.Sum64String(name)))

	return name[:maxIdentLen-len(suffix)] + suffix
}
