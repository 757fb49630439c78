// Package query reads and writes records of synthesized models over an
// engine. It covers the operations application code needs from a model
// type: create, get, filter, update, delete, and following relations one
// at a time or prefetched for a batch.
package query

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"

	"orm-mirror/internal/backend"
	"orm-mirror/internal/diagnostic"
	"orm-mirror/internal/field"
	"orm-mirror/internal/metrics"
	"orm-mirror/internal/model"
	"orm-mirror/internal/synth"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrMultiple = errors.New("more than one record found")
)

// DB runs queries for the models of one synthesized registry.
type DB struct {
	reg     *synth.Registry
	engine  backend.Engine
	env     field.Env
	log     zerolog.Logger
	metrics *metrics.Metrics
}

// Option configures a DB.
type Option func(*DB)

// WithLogger sets the logger for statement tracing.
func WithLogger(l zerolog.Logger) Option {
	return func(db *DB) { db.log = l }
}

// WithMetrics sets where statement counts and latencies are reported.
func WithMetrics(m *metrics.Metrics) Option {
	return func(db *DB) { db.metrics = m }
}

// NewDB binds reg to engine. The backend of env is taken from engine.
func NewDB(reg *synth.Registry, engine backend.Engine, env field.Env, opts ...Option) *DB {
	env.Backend = engine.Backend()

	db := &DB{
		reg:     reg,
		engine:  engine,
		env:     env,
		log:     zerolog.Nop(),
		metrics: metrics.Discard(),
	}

	for _, o := range opts {
		o(db)
	}

	return db
}

// Env returns the field environment the DB encodes and decodes with.
func (db *DB) Env() field.Env { return db.env }

// Engine returns the engine statements run on.
func (db *DB) Engine() backend.Engine { return db.engine }

// Objects returns the manager of m.
func (db *DB) Objects(m *model.Model) *Manager {
	return &Manager{db: db, model: m}
}

// Model returns the manager of the synthesized model of a source model
// name, or of a synthesized name.
func (db *DB) Model(name string) (*Manager, error) {
	m, ok := db.reg.Async(name)
	if !ok {
		return nil, diagnostic.Configuration("no synthesized model for %q", name)
	}

	return db.Objects(m), nil
}

// Serialize renders rec as JSON-compatible data.
func (db *DB) Serialize(rec *model.Record) (map[string]any, error) {
	return rec.Model().Serialize(db.env, rec.Values())
}

func (db *DB) query(ctx context.Context, q *builder) ([]backend.Row, error) {
	db.log.Debug().Str("sql", q.String()).Int("args", len(q.args)).Msg("query")

	return db.engine.Query(ctx, q.String(), q.args...)
}

func (db *DB) exec(ctx context.Context, q *builder) (backend.Result, error) {
	db.log.Debug().Str("sql", q.String()).Int("args", len(q.args)).Msg("exec")

	return db.engine.Exec(ctx, q.String(), q.args...)
}
