package query

import (
	"strconv"
	"strings"

	"orm-mirror/internal/dialect"
)

// builder accumulates SQL text and its bind arguments.
type builder struct {
	b    dialect.Backend
	sql  strings.Builder
	args []any
}

func (q *builder) write(parts ...string) *builder {
	for _, p := range parts {
		q.sql.WriteString(p)
	}

	return q
}

// arg binds v and writes its placeholder.
func (q *builder) arg(v any) *builder {
	q.args = append(q.args, v)
	q.sql.WriteString(q.b.Placeholder(len(q.args)))

	return q
}

func (q *builder) quote(ident string) string { return q.b.Quote(ident) }

func (q *builder) String() string { return q.sql.String() }

// limit writes the row window. mssql needs an ORDER BY before it, which
// callers guarantee.
func (q *builder) limit(limit, offset int) {
	if limit <= 0 && offset <= 0 {
		return
	}

	if q.b == dialect.MSSQL {
		q.write(" OFFSET ", strconv.Itoa(offset), " ROWS")
		if limit > 0 {
			q.write(" FETCH NEXT ", strconv.Itoa(limit), " ROWS ONLY")
		}

		return
	}

	switch {
	case limit > 0:
		q.write(" LIMIT ", strconv.Itoa(limit))
	case q.b == dialect.MySQL:
		// OFFSET needs a LIMIT on mysql and sqlite
		q.write(" LIMIT 18446744073709551615")
	case q.b == dialect.SQLite:
		q.write(" LIMIT -1")
	}

	if offset > 0 {
		q.write(" OFFSET ", strconv.Itoa(offset))
	}
}
