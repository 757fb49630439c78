package query

import (
	"context"

	"github.com/cockroachdb/errors"

	"orm-mirror/internal/diagnostic"
	"orm-mirror/internal/field"
	"orm-mirror/internal/model"
)

// ownerKey is the column alias carrying the owner key in prefetch rows.
const ownerKey = "_owner_pk"

func (m *Manager) relation(name string) (field.Relational, *Manager, error) {
	f, ok := m.model.Field(name)
	if !ok {
		return nil, nil, diagnostic.Configuration("%s has no field %q", m.model.Name(), name)
	}

	rel, ok := f.(field.Relational)
	if !ok {
		return nil, nil, diagnostic.Configuration("%s.%s is not a relation", m.model.Name(), name)
	}

	target, ok := m.db.reg.Target(rel.Target())
	if !ok {
		return nil, nil, diagnostic.Configuration("%s.%s: target %s is not registered", m.model.Name(), name, rel.Target())
	}

	return rel, m.db.Objects(target), nil
}

func (m *Manager) m2m(name string) (*field.ManyToMany, *Manager, error) {
	rel, target, err := m.relation(name)
	if err != nil {
		return nil, nil, err
	}

	mm, ok := rel.(*field.ManyToMany)
	if !ok {
		return nil, nil, diagnostic.Configuration("%s.%s is not a many-to-many field", m.model.Name(), name)
	}

	return mm, target, nil
}

// Related follows the foreign key name of rec. A null key yields nil.
func (m *Manager) Related(ctx context.Context, rec *model.Record, name string) (*model.Record, error) {
	rel, target, err := m.relation(name)
	if err != nil {
		return nil, err
	}

	if _, ok := rel.(*field.ForeignKey); !ok {
		return nil, diagnostic.Configuration("%s.%s is not a foreign key", m.model.Name(), name)
	}

	key := rec.Get(name)
	if key == nil {
		return nil, nil
	}

	return target.GetByPK(ctx, key)
}

// Reverse returns the records of other models whose foreign key with the
// given related name points at rec.
func (m *Manager) Reverse(ctx context.Context, rec *model.Record, relatedName string) ([]*model.Record, error) {
	for _, other := range m.db.reg.Models() {
		for _, rel := range other.Relations() {
			fk, ok := rel.(*field.ForeignKey)
			if !ok || fk.Target() != m.model.Name() || fk.RelatedName() != relatedName {
				continue
			}

			return m.db.Objects(other).Filter(ctx, Query{
				Where: []Cond{Eq(fk.Options().Name, rec.PK())},
			})
		}
	}

	return nil, diagnostic.Configuration("no relation %q points at %s", relatedName, m.model.Name())
}

// junction writes the select of target rows joined to the junction table
// of mm, with the owner key aliased to ownerKey.
func (m *Manager) junction(q *builder, mm *field.ManyToMany, target *Manager) {
	b := q.b
	tpk := target.model.PK().Options().ColumnName()

	q.write("SELECT ", target.selectList("t"), ", ",
		b.Quote("j"), ".", b.Quote(mm.BackwardKey()), " AS ", b.Quote(ownerKey),
		" FROM ", target.table(), " ", b.Quote("t"),
		" JOIN ", b.Quote(mm.Through()), " ", b.Quote("j"),
		" ON ", b.Quote("j"), ".", b.Quote(mm.ForwardKey()), " = ", b.Quote("t"), ".", b.Quote(tpk))
}

// Members returns the records linked to rec through the many-to-many
// field name.
func (m *Manager) Members(ctx context.Context, rec *model.Record, name string) ([]*model.Record, error) {
	mm, target, err := m.m2m(name)
	if err != nil {
		return nil, err
	}

	key, err := m.lookup(m.model.PK(), rec.PK())
	if err != nil {
		return nil, err
	}

	q := m.newBuilder()
	m.junction(q, mm, target)
	q.write(" WHERE ", q.quote("j"), ".", q.quote(mm.BackwardKey()), " = ").arg(key)

	rows, err := m.db.query(ctx, q)
	if err != nil {
		return nil, errors.Wrapf(err, "members %s.%s", m.model.Name(), name)
	}

	return target.loadAll(rows)
}

// Add links rec to targets through the many-to-many field name.
func (m *Manager) Add(ctx context.Context, rec *model.Record, name string, targets ...*model.Record) error {
	mm, target, err := m.m2m(name)
	if err != nil {
		return err
	}

	owner, err := m.encode(m.model.PK(), nil, rec.PK())
	if err != nil {
		return err
	}

	for _, t := range targets {
		key, err := target.encode(target.model.PK(), nil, t.PK())
		if err != nil {
			return err
		}

		q := m.newBuilder()
		q.write("INSERT INTO ", q.quote(mm.Through()),
			" (", q.quote(mm.BackwardKey()), ", ", q.quote(mm.ForwardKey()), ") VALUES (")
		q.arg(owner).write(", ").arg(key).write(")")

		if _, err := m.db.exec(ctx, q); err != nil {
			return errors.Wrapf(err, "add %s.%s", m.model.Name(), name)
		}
	}

	return nil
}

// Remove unlinks targets from rec and returns the number of links removed.
func (m *Manager) Remove(ctx context.Context, rec *model.Record, name string, targets ...*model.Record) (int64, error) {
	mm, target, err := m.m2m(name)
	if err != nil {
		return 0, err
	}

	if len(targets) == 0 {
		return 0, nil
	}

	owner, err := m.lookup(m.model.PK(), rec.PK())
	if err != nil {
		return 0, err
	}

	q := m.newBuilder()
	q.write("DELETE FROM ", q.quote(mm.Through()), " WHERE ", q.quote(mm.BackwardKey()), " = ").arg(owner)
	q.write(" AND ", q.quote(mm.ForwardKey()), " IN (")

	for i, t := range targets {
		key, err := target.lookup(target.model.PK(), t.PK())
		if err != nil {
			return 0, err
		}

		if i > 0 {
			q.write(", ")
		}

		q.arg(key)
	}

	q.write(")")

	res, err := m.db.exec(ctx, q)
	if err != nil {
		return 0, errors.Wrapf(err, "remove %s.%s", m.model.Name(), name)
	}

	return res.RowsAffected, nil
}

// Prefetch loads relation name for every record of recs in one query and
// returns the related records keyed by the owner's primary key. Owners
// with nothing related are absent.
func (m *Manager) Prefetch(ctx context.Context, recs []*model.Record, name string) (map[any][]*model.Record, error) {
	rel, target, err := m.relation(name)
	if err != nil {
		return nil, err
	}

	out := make(map[any][]*model.Record)
	if len(recs) == 0 {
		return out, nil
	}

	switch rel := rel.(type) {
	case *field.ForeignKey:
		var keys []any

		owners := make(map[any]any, len(recs))
		seen := make(map[any]bool)

		for _, r := range recs {
			k, err := rel.Decode(m.db.env, r.Get(name))
			if err != nil || k == nil {
				continue
			}

			owners[r.PK()] = k

			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}

		related, err := target.Filter(ctx, Query{
			Where: []Cond{In(target.model.PK().Options().Name, keys...)},
		})
		if err != nil {
			return nil, err
		}

		byPK := make(map[any]*model.Record, len(related))
		for _, t := range related {
			byPK[t.PK()] = t
		}

		for owner, k := range owners {
			if t, ok := byPK[k]; ok {
				out[owner] = []*model.Record{t}
			}
		}
	case *field.ManyToMany:
		pk := m.model.PK()

		q := m.newBuilder()
		m.junction(q, rel, target)
		q.write(" WHERE ", q.quote("j"), ".", q.quote(rel.BackwardKey()), " IN (")

		for i, r := range recs {
			key, err := m.lookup(pk, r.PK())
			if err != nil {
				return nil, err
			}

			if i > 0 {
				q.write(", ")
			}

			q.arg(key)
		}

		q.write(")")

		rows, err := m.db.query(ctx, q)
		if err != nil {
			return nil, errors.Wrapf(err, "prefetch %s.%s", m.model.Name(), name)
		}

		for _, row := range rows {
			t, err := target.load(row)
			if err != nil {
				return nil, err
			}

			owner, err := pk.Decode(m.db.env, row[ownerKey])
			if err != nil {
				return nil, err
			}

			out[owner] = append(out[owner], t)
		}
	}

	return out, nil
}
