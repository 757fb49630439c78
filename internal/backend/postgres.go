package backend

import (
	"context"
	"math"
	"net/netip"
	"slices"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/goccy/go-json"
	"github.com/golang-sql/civil"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"orm-mirror/internal/diagnostic"
	"orm-mirror/internal/dialect"
)

// pgEngine runs on a pgx pool.
type pgEngine struct {
	closer

	pool *pgxpool.Pool
}

func openPostgres(ctx context.Context, cfg Config) (Engine, error) {
	dsn, err := cfg.DSN()
	if err != nil {
		return nil, err
	}

	pc, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse connection string")
	}

	if cfg.MaxConns > 0 {
		pc.MaxConns = int32(cfg.MaxConns)
	}

	// timestamps without a zone are read and written as UTC
	pc.ConnConfig.RuntimeParams["timezone"] = "UTC"

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create connection pool")
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "failed to ping database")
	}

	return &pgEngine{pool: pool}, nil
}

func (e *pgEngine) Backend() dialect.Backend { return dialect.Postgres }

func (e *pgEngine) Exec(ctx context.Context, query string, args ...any) (Result, error) {
	if err := e.check(); err != nil {
		return Result{}, err
	}

	tag, err := e.pool.Exec(ctx, query, pgArgs(args)...)
	if err != nil {
		return Result{}, e.wrap(err)
	}

	return Result{RowsAffected: tag.RowsAffected()}, nil
}

func (e *pgEngine) Query(ctx context.Context, query string, args ...any) ([]Row, error) {
	if err := e.check(); err != nil {
		return nil, err
	}

	rows, err := e.pool.Query(ctx, query, pgArgs(args)...)
	if err != nil {
		return nil, e.wrap(err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()

	var out []Row

	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, e.wrap(err)
		}

		row := make(Row, len(fields))
		for i, fd := range fields {
			v, err := normalizePostgres(fd.DataTypeOID, vals[i])
			if err != nil {
				return nil, errors.Wrapf(err, "column %s", fd.Name)
			}

			row[fd.Name] = v
		}

		out = append(out, row)
	}

	if err := rows.Err(); err != nil {
		return nil, e.wrap(err)
	}

	return out, nil
}

func (e *pgEngine) Ping(ctx context.Context) error {
	if err := e.check(); err != nil {
		return err
	}

	return e.wrap(e.pool.Ping(ctx))
}

func (e *pgEngine) Close(ctx context.Context) error {
	return e.close(ctx, func() error {
		e.pool.Close()
		return nil
	})
}

// pgArgs encodes durations as intervals.
func pgArgs(args []any) []any {
	var out []any

	for i, a := range args {
		d, ok := a.(time.Duration)
		if !ok {
			continue
		}

		if out == nil {
			out = slices.Clone(args)
		}

		out[i] = pgtype.Interval{Microseconds: d.Microseconds(), Valid: true}
	}

	if out == nil {
		return args
	}

	return out
}

const microsPerDay = int64(24 * time.Hour / time.Microsecond)

// maxIntervalMicros is the largest span a time.Duration holds.
const maxIntervalMicros = math.MaxInt64 / 1000

// intervalDuration flattens an interval with 30-day months. Spans that do
// not fit in a time.Duration fail instead of wrapping.
func intervalDuration(iv pgtype.Interval) (time.Duration, error) {
	days := int64(iv.Days) + int64(iv.Months)*30

	// with both parts bounded the sum below cannot overflow
	if days > maxIntervalMicros/microsPerDay || days < -maxIntervalMicros/microsPerDay ||
		iv.Microseconds > 2*maxIntervalMicros || iv.Microseconds < -2*maxIntervalMicros {
		return 0, diagnostic.BadValue("", iv, "interval out of range")
	}

	us := days*microsPerDay + iv.Microseconds
	if us > maxIntervalMicros || us < -maxIntervalMicros {
		return 0, diagnostic.BadValue("", iv, "interval out of range")
	}

	return time.Duration(us) * time.Microsecond, nil
}

// normalizePostgres converts pgx's decoded values to the plain types the
// field decoders accept.
func normalizePostgres(oid uint32, v any) (any, error) {
	if v != nil && (oid == pgtype.JSONOID || oid == pgtype.JSONBOID) {
		// pgx decodes documents; hand them back as text like the other backends
		data, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}

		return json.RawMessage(data), nil
	}

	switch x := v.(type) {
	case int16:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case float32:
		return float64(x), nil
	case pgtype.Numeric:
		dv, err := x.Value()
		if err != nil {
			return nil, errors.Wrap(err, "numeric")
		}

		return dv, nil
	case [16]byte:
		return uuid.UUID(x), nil
	case pgtype.Time:
		if !x.Valid {
			return nil, nil
		}

		return civil.TimeOf(time.UnixMicro(x.Microseconds).UTC()), nil
	case pgtype.Interval:
		if !x.Valid {
			return nil, nil
		}

		d, err := intervalDuration(x)
		if err != nil {
			return nil, err
		}

		return d, nil
	case netip.Prefix:
		if x.IsSingleIP() {
			return x.Addr().String(), nil
		}

		return x.String(), nil
	case time.Time:
		switch oid {
		case pgtype.DateOID:
			return civil.DateOf(x), nil
		case pgtype.TimestamptzOID:
			return x.UTC(), nil
		default:
			return x, nil
		}
	default:
		return v, nil
	}
}
