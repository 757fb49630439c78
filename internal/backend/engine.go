// Package backend opens pooled database engines for the supported
// backends and runs statements on them. Values read back are normalized to
// the types the field decoders accept, so every backend feeds the same
// decode path.
package backend

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/cockroachdb/errors"

	"orm-mirror/internal/dialect"
	"orm-mirror/internal/diagnostic"
)

// ErrClosed is returned by operations on a closed engine, including
// operations that were in flight when Close was called.
var ErrClosed = errors.New("engine is closed")

// Row is one result row keyed by column name.
type Row map[string]any

// Result describes an executed statement.
type Result struct {
	RowsAffected int64
	// LastInsertID is set by backends that report generated keys this way.
	LastInsertID int64
}

// Engine is an open connection pool.
type Engine interface {
	Backend() dialect.Backend
	Exec(ctx context.Context, query string, args ...any) (Result, error)
	Query(ctx context.Context, query string, args ...any) ([]Row, error)
	Ping(ctx context.Context) error
	// Close releases the pool. It is idempotent and returns early with the
	// context error when ctx ends first; the release then completes in the
	// background.
	Close(ctx context.Context) error
}

// Opener opens an engine for a datasource.
type Opener func(ctx context.Context, cfg Config) (Engine, error)

var openers = map[dialect.Backend]Opener{
	dialect.Postgres: openPostgres,
	dialect.MySQL:    openMySQL,
	dialect.SQLite:   openSQLite,
	dialect.MSSQL:    openMSSQL,
}

// Open validates cfg and opens an engine for its backend. The engine is
// pinged before it is returned.
func Open(ctx context.Context, cfg Config) (Engine, error) {
	open, ok := openers[cfg.Backend]
	if !ok {
		return nil, diagnostic.NotSupported("backend", cfg.Backend.String())
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e, err := open(ctx, cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", cfg)
	}

	return e, nil
}

// closer makes Close idempotent and bounded, and turns failures after
// Close into ErrClosed.
type closer struct {
	once   sync.Once
	closed atomic.Bool
	done   chan struct{}
	err    error
}

func (c *closer) close(ctx context.Context, release func() error) error {
	c.once.Do(func() {
		c.closed.Store(true)
		c.done = make(chan struct{})

		go func() {
			c.err = release()
			close(c.done)
		}()
	})

	select {
	case <-c.done:
		return c.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// check fails fast once the engine is closed.
func (c *closer) check() error {
	if c.closed.Load() {
		return ErrClosed
	}

	return nil
}

// wrap reports err as ErrClosed when the engine was closed meanwhile.
func (c *closer) wrap(err error) error {
	if err != nil && c.closed.Load() && !errors.Is(err, ErrClosed) {
		return errors.WithSecondaryError(ErrClosed, err)
	}

	return err
}
