package query

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"

	"orm-mirror/internal/backend"
	"orm-mirror/internal/dialect"
	"orm-mirror/internal/diagnostic"
	"orm-mirror/internal/field"
	"orm-mirror/internal/model"
)

// Manager runs queries against the table of one model.
type Manager struct {
	db    *DB
	model *model.Model
}

// Model returns the managed model.
func (m *Manager) Model() *model.Model { return m.model }

func (m *Manager) newBuilder() *builder { return &builder{b: m.db.env.Backend} }

func (m *Manager) table() string {
	meta := m.model.Meta()

	return m.db.env.Backend.QuoteTable(meta.Schema, meta.Table)
}

// resolve finds a field by name or by column name.
func (m *Manager) resolve(name string) (field.Field, error) {
	if f, ok := m.model.Field(name); ok {
		return f, nil
	}

	for _, f := range m.model.Columns() {
		if f.Options().ColumnName() == name {
			return f, nil
		}
	}

	return nil, diagnostic.Configuration("%s has no field %q", m.model.Name(), name)
}

// column resolves name to a stored field and its quoted column.
func (m *Manager) column(name string) (field.Field, string, error) {
	f, err := m.resolve(name)
	if err != nil {
		return nil, "", err
	}

	if _, m2m := f.(*field.ManyToMany); m2m {
		return nil, "", diagnostic.NotSupported("condition on many-to-many field", name)
	}

	return f, m.db.env.Backend.Quote(f.Options().ColumnName()), nil
}

func (m *Manager) selectList(alias string) string {
	b := m.db.env.Backend
	cols := m.model.Columns()
	out := make([]string, len(cols))

	for i, f := range cols {
		out[i] = b.Quote(f.Options().ColumnName())
		if alias != "" {
			out[i] = b.Quote(alias) + "." + out[i]
		}
	}

	return strings.Join(out, ", ")
}

// load decodes a row into a saved record.
func (m *Manager) load(row backend.Row) (*model.Record, error) {
	values := make(map[string]any, len(row))

	for _, f := range m.model.Columns() {
		o := f.Options()

		v, err := field.Load(m.db.env, f, row[o.ColumnName()])
		if err != nil {
			m.db.metrics.ValueErrors.WithLabelValues(m.model.Name()).Inc()
			return nil, errors.Wrapf(err, "decode %s", m.model.Name())
		}

		values[o.Name] = v
	}

	return m.model.Load(values), nil
}

func (m *Manager) loadAll(rows []backend.Row) ([]*model.Record, error) {
	out := make([]*model.Record, 0, len(rows))

	for _, row := range rows {
		rec, err := m.load(row)
		if err != nil {
			return nil, err
		}

		out = append(out, rec)
	}

	return out, nil
}

// encode converts v for storage in f. Records stand for their primary key.
func (m *Manager) encode(f field.Field, inst field.Instance, v any) (any, error) {
	if r, ok := v.(*model.Record); ok {
		v = r.PK()
	}

	out, err := f.Encode(m.db.env, inst, v)
	if err != nil {
		m.db.metrics.ValueErrors.WithLabelValues(m.model.Name()).Inc()
		return nil, errors.Wrapf(err, "encode %s", m.model.Name())
	}

	return out, nil
}

func (m *Manager) lookup(f field.Field, v any) (any, error) {
	if r, ok := v.(*model.Record); ok {
		v = r.PK()
	}

	return field.Lookup(m.db.env, f, v)
}

// normalize rekeys values given by column name to field names.
func (m *Manager) normalize(values map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(values))

	for k, v := range values {
		f, err := m.resolve(k)
		if err != nil {
			return nil, err
		}

		out[f.Options().Name] = v
	}

	return out, nil
}

// Create inserts a record built from values and returns it with its
// generated key and auto-now values set.
func (m *Manager) Create(ctx context.Context, values map[string]any) (*model.Record, error) {
	values, err := m.normalize(values)
	if err != nil {
		return nil, err
	}

	rec := m.model.NewRecord(values)
	if err := m.Save(ctx, rec); err != nil {
		return nil, err
	}

	return rec, nil
}

// Save inserts a new record or updates every column of a saved one.
func (m *Manager) Save(ctx context.Context, rec *model.Record) error {
	if rec.Model() != m.model {
		return diagnostic.Configuration("record of %s saved through %s", rec.Model().Name(), m.model.Name())
	}

	if rec.IsNew() {
		return m.insert(ctx, rec)
	}

	return m.update(ctx, rec)
}

func (m *Manager) insert(ctx context.Context, rec *model.Record) error {
	b := m.db.env.Backend
	pk := m.model.PK()

	var (
		cols []string
		vals []any
	)

	for _, f := range m.model.Columns() {
		o := f.Options()
		v := rec.Get(o.Name)

		if o.Generated && v == nil {
			continue
		}

		enc, err := m.encode(f, rec, v)
		if err != nil {
			return err
		}

		cols = append(cols, b.Quote(o.ColumnName()))
		vals = append(vals, enc)
	}

	generated := pk != nil && pk.Options().Generated && rec.PK() == nil

	var pkCol string
	if generated {
		pkCol = b.Quote(pk.Options().ColumnName())
	}

	q := m.newBuilder()
	q.write("INSERT INTO ", m.table())

	if len(cols) > 0 {
		q.write(" (", strings.Join(cols, ", "), ")")
	} else if b == dialect.MySQL {
		q.write(" ()")
	}

	if generated && b == dialect.MSSQL {
		q.write(" OUTPUT INSERTED.", pkCol)
	}

	switch {
	case len(cols) > 0:
		q.write(" VALUES (")

		for i, v := range vals {
			if i > 0 {
				q.write(", ")
			}

			q.arg(v)
		}

		q.write(")")
	case b == dialect.MySQL:
		q.write(" VALUES ()")
	default:
		q.write(" DEFAULT VALUES")
	}

	if !generated {
		if _, err := m.db.exec(ctx, q); err != nil {
			return errors.Wrapf(err, "insert %s", m.model.Name())
		}

		rec.MarkSaved()

		return nil
	}

	var key any

	if b == dialect.MySQL {
		res, err := m.db.exec(ctx, q)
		if err != nil {
			return errors.Wrapf(err, "insert %s", m.model.Name())
		}

		key = res.LastInsertID
	} else {
		if b.SupportsReturning() {
			q.write(" RETURNING ", pkCol)
		}

		rows, err := m.db.query(ctx, q)
		if err != nil {
			return errors.Wrapf(err, "insert %s", m.model.Name())
		}

		if len(rows) != 1 {
			return errors.Newf("insert %s: expected one generated key, got %d rows", m.model.Name(), len(rows))
		}

		key = rows[0][pk.Options().ColumnName()]
	}

	id, err := pk.Decode(m.db.env, key)
	if err != nil {
		return errors.Wrapf(err, "insert %s: generated key", m.model.Name())
	}

	rec.Set(pk.Options().Name, id)
	rec.MarkSaved()

	return nil
}

func (m *Manager) update(ctx context.Context, rec *model.Record) error {
	pk := m.model.PK()
	if pk == nil {
		return diagnostic.Configuration("%s has no primary key", m.model.Name())
	}

	q := m.newBuilder()
	q.write("UPDATE ", m.table(), " SET ")

	n := 0

	for _, f := range m.model.Columns() {
		o := f.Options()
		if o.PK {
			continue
		}

		enc, err := m.encode(f, rec, rec.Get(o.Name))
		if err != nil {
			return err
		}

		if n > 0 {
			q.write(", ")
		}

		q.write(q.quote(o.ColumnName()), " = ").arg(enc)
		n++
	}

	if n == 0 {
		return nil
	}

	key, err := m.lookup(pk, rec.PK())
	if err != nil {
		return err
	}

	q.write(" WHERE ", q.quote(pk.Options().ColumnName()), " = ").arg(key)

	res, err := m.db.exec(ctx, q)
	if err != nil {
		return errors.Wrapf(err, "update %s", m.model.Name())
	}

	if res.RowsAffected == 0 && m.db.env.Backend != dialect.MySQL {
		return errors.Wrapf(ErrNotFound, "update %s %v", m.model.Name(), rec.PK())
	}

	return nil
}

// where writes the conditions joined with AND.
func (m *Manager) where(q *builder, conds []Cond) error {
	for i, c := range conds {
		if i == 0 {
			q.write(" WHERE ")
		} else {
			q.write(" AND ")
		}

		f, col, err := m.column(c.Field)
		if err != nil {
			return err
		}

		switch c.Op {
		case OpIsNull:
			if null, _ := c.Value.(bool); null {
				q.write(col, " IS NULL")
			} else {
				q.write(col, " IS NOT NULL")
			}
		case OpIn:
			values, _ := c.Value.([]any)
			if len(values) == 0 {
				q.write("1 = 0")
				continue
			}

			q.write(col, " IN (")

			for j, v := range values {
				enc, err := m.lookup(f, v)
				if err != nil {
					return err
				}

				if j > 0 {
					q.write(", ")
				}

				q.arg(enc)
			}

			q.write(")")
		default:
			op, ok := opSQL[c.Op]
			if !ok {
				return diagnostic.NotSupported("operator", c.Field)
			}

			if c.Value == nil {
				switch c.Op {
				case OpEq:
					q.write(col, " IS NULL")
				case OpNe:
					q.write(col, " IS NOT NULL")
				default:
					return diagnostic.Configuration("%s: cannot compare with null", c.Field)
				}

				continue
			}

			enc, err := m.lookup(f, c.Value)
			if err != nil {
				return err
			}

			q.write(col, " ", op, " ").arg(enc)
		}
	}

	return nil
}

// orderBy writes ORDER BY from terms, the default ordering, or the
// primary key when the backend needs an order for its row window.
func (m *Manager) orderBy(q *builder, terms []string, windowed bool) error {
	var parts []string

	if len(terms) > 0 {
		for _, t := range terms {
			name, desc := strings.CutPrefix(t, "-")

			_, col, err := m.column(name)
			if err != nil {
				return err
			}

			if desc {
				col += " DESC"
			}

			parts = append(parts, col)
		}
	} else {
		for _, o := range m.model.OrderBy() {
			col := q.quote(o.Column)
			if o.Desc {
				col += " DESC"
			}

			parts = append(parts, col)
		}
	}

	if len(parts) == 0 && windowed && q.b == dialect.MSSQL && m.model.PK() != nil {
		parts = append(parts, q.quote(m.model.PK().Options().ColumnName()))
	}

	if len(parts) > 0 {
		q.write(" ORDER BY ", strings.Join(parts, ", "))
	}

	return nil
}

// Filter returns the records matching q.
func (m *Manager) Filter(ctx context.Context, q Query) ([]*model.Record, error) {
	sq := m.newBuilder()
	sq.write("SELECT ", m.selectList(""), " FROM ", m.table())

	if err := m.where(sq, q.Where); err != nil {
		return nil, err
	}

	if err := m.orderBy(sq, q.OrderBy, q.Limit > 0 || q.Offset > 0); err != nil {
		return nil, err
	}

	sq.limit(q.Limit, q.Offset)

	rows, err := m.db.query(ctx, sq)
	if err != nil {
		return nil, errors.Wrapf(err, "select %s", m.model.Name())
	}

	return m.loadAll(rows)
}

// All returns every record in default order.
func (m *Manager) All(ctx context.Context) ([]*model.Record, error) {
	return m.Filter(ctx, Query{})
}

// Get returns the single record matching conds. It fails with ErrNotFound
// or ErrMultiple otherwise.
func (m *Manager) Get(ctx context.Context, conds ...Cond) (*model.Record, error) {
	recs, err := m.Filter(ctx, Query{Where: conds, Limit: 2})
	if err != nil {
		return nil, err
	}

	switch len(recs) {
	case 0:
		return nil, errors.Wrapf(ErrNotFound, "%s", m.model.Name())
	case 1:
		return recs[0], nil
	default:
		return nil, errors.Wrapf(ErrMultiple, "%s", m.model.Name())
	}
}

// GetByPK returns the record with primary key pk.
func (m *Manager) GetByPK(ctx context.Context, pk any) (*model.Record, error) {
	if m.model.PK() == nil {
		return nil, diagnostic.Configuration("%s has no primary key", m.model.Name())
	}

	return m.Get(ctx, Eq(m.model.PK().Options().Name, pk))
}

// Count returns the number of records matching conds.
func (m *Manager) Count(ctx context.Context, conds ...Cond) (int64, error) {
	q := m.newBuilder()
	q.write("SELECT COUNT(*) AS ", q.quote("n"), " FROM ", m.table())

	if err := m.where(q, conds); err != nil {
		return 0, err
	}

	rows, err := m.db.query(ctx, q)
	if err != nil {
		return 0, errors.Wrapf(err, "count %s", m.model.Name())
	}

	if len(rows) != 1 {
		return 0, errors.Newf("count %s: got %d rows", m.model.Name(), len(rows))
	}

	n, err := counter.Decode(m.db.env, rows[0]["n"])
	if err != nil {
		return 0, err
	}

	return n.(int64), nil
}

var counter = field.NewBigInt(field.Options{Name: "n"})

// Update sets values on every record matching conds and returns the
// number of rows changed. Auto-now fields are only refreshed when listed.
func (m *Manager) Update(ctx context.Context, values map[string]any, conds ...Cond) (int64, error) {
	if len(values) == 0 {
		return 0, nil
	}

	values, err := m.normalize(values)
	if err != nil {
		return 0, err
	}

	q := m.newBuilder()
	q.write("UPDATE ", m.table(), " SET ")

	n := 0

	for _, f := range m.model.Columns() {
		o := f.Options()

		v, ok := values[o.Name]
		if !ok {
			continue
		}

		enc, err := m.encode(f, nil, v)
		if err != nil {
			return 0, err
		}

		if n > 0 {
			q.write(", ")
		}

		q.write(q.quote(o.ColumnName()), " = ").arg(enc)
		n++
	}

	if n != len(values) {
		return 0, diagnostic.NotSupported("update of many-to-many field", m.model.Name())
	}

	if err := m.where(q, conds); err != nil {
		return 0, err
	}

	res, err := m.db.exec(ctx, q)
	if err != nil {
		return 0, errors.Wrapf(err, "update %s", m.model.Name())
	}

	return res.RowsAffected, nil
}

// Delete removes every record matching conds and returns the number of
// rows removed. Referencing rows follow their on-delete action.
func (m *Manager) Delete(ctx context.Context, conds ...Cond) (int64, error) {
	q := m.newBuilder()
	q.write("DELETE FROM ", m.table())

	if err := m.where(q, conds); err != nil {
		return 0, err
	}

	res, err := m.db.exec(ctx, q)
	if err != nil {
		return 0, errors.Wrapf(err, "delete %s", m.model.Name())
	}

	return res.RowsAffected, nil
}
