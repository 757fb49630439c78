package backend

import (
	"context"
	"database/sql"

	"github.com/cockroachdb/errors"

	"orm-mirror/internal/dialect"
)

// normalizer converts a scanned value given the column's database type
// name as reported by the driver.
type normalizer func(dbType string, v any) any

// sqlEngine runs on database/sql for the drivers that plug into it.
type sqlEngine struct {
	closer

	db        *sql.DB
	backend   dialect.Backend
	normalize normalizer
}

func openSQL(ctx context.Context, b dialect.Backend, driver, dsn string, maxConns int, n normalizer) (*sqlEngine, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "unable to create connection")
	}

	if maxConns > 0 {
		db.SetMaxOpenConns(maxConns)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to ping database")
	}

	return &sqlEngine{db: db, backend: b, normalize: n}, nil
}

func (e *sqlEngine) Backend() dialect.Backend { return e.backend }

func (e *sqlEngine) Exec(ctx context.Context, query string, args ...any) (Result, error) {
	if err := e.check(); err != nil {
		return Result{}, err
	}

	res, err := e.db.ExecContext(ctx, query, args...)
	if err != nil {
		return Result{}, e.wrap(err)
	}

	var out Result

	// not every driver reports both; a missing value stays zero
	out.RowsAffected, _ = res.RowsAffected()
	out.LastInsertID, _ = res.LastInsertId()

	return out, nil
}

func (e *sqlEngine) Query(ctx context.Context, query string, args ...any) ([]Row, error) {
	if err := e.check(); err != nil {
		return nil, err
	}

	rows, err := e.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, e.wrap(err)
	}
	defer rows.Close()

	cols, err := rows.ColumnTypes()
	if err != nil {
		return nil, e.wrap(err)
	}

	var out []Row

	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))

		for i := range vals {
			ptrs[i] = &vals[i]
		}

		if err := rows.Scan(ptrs...); err != nil {
			return nil, e.wrap(err)
		}

		row := make(Row, len(cols))
		for i, c := range cols {
			row[c.Name()] = e.normalize(c.DatabaseTypeName(), vals[i])
		}

		out = append(out, row)
	}

	if err := rows.Err(); err != nil {
		return nil, e.wrap(err)
	}

	return out, nil
}

func (e *sqlEngine) Ping(ctx context.Context) error {
	if err := e.check(); err != nil {
		return err
	}

	return e.wrap(e.db.PingContext(ctx))
}

func (e *sqlEngine) Close(ctx context.Context) error {
	return e.close(ctx, e.db.Close)
}
