// Package dialect identifies the active database backend and the SQL
// spelling differences that depend on it.
package dialect

import (
	"strconv"
	"strings"

	"orm-mirror/internal/common"
	"orm-mirror/internal/diagnostic"
)

// Backend is the resolved database engine discriminator.
type Backend int

const (
	_ Backend = iota

	Postgres
	MySQL
	SQLite
	MSSQL
)

// String returns the backend name as written in settings.
func (b Backend) String() string {
	switch b {
	case Postgres:
		return "postgres"
	case MySQL:
		return "mysql"
	case SQLite:
		return "sqlite"
	case MSSQL:
		return "mssql"
	default:
		return common.UnknownStr
	}
}

// Embedded reports whether the backend stores data in a local file
// rather than behind a network server.
func (b Backend) Embedded() bool {
	return b == SQLite
}

var engines = map[string]Backend{
	"postgres":            Postgres,
	"postgresql":          Postgres,
	"pgx":                 Postgres,
	"postgresql_psycopg2": Postgres,
	"postgis":             Postgres,
	"mysql":               MySQL,
	"mariadb":             MySQL,
	"sqlite":              SQLite,
	"sqlite3":             SQLite,
	"mssql":               MSSQL,
	"sqlserver":           MSSQL,
}

// ParseEngine resolves an engine identifier such as "postgresql",
// "sqlite3" or "django.db.backends.mysql". Unknown engines fail with an
// error matching both ErrConfiguration and ErrNotSupported.
func ParseEngine(engine string) (Backend, error) {
	if engine == "" {
		return 0, diagnostic.Configuration("engine is not set")
	}

	name := strings.ToLower(common.LastSegment(engine))
	if b, ok := engines[name]; ok {
		return b, nil
	}

	return 0, diagnostic.UnknownEngine(engine)
}

// Placeholder returns the bind parameter marker for the n-th argument, counting from 1.
func (b Backend) Placeholder(n int) string {
	switch b {
	case Postgres:
		return "$" + strconv.Itoa(n)
	case MSSQL:
		return "@p" + strconv.Itoa(n)
	default:
		return "?"
	}
}

// Quote quotes an identifier.
func (b Backend) Quote(ident string) string {
	switch b {
	case MySQL:
		return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
	case MSSQL:
		return "[" + strings.ReplaceAll(ident, "]", "]]") + "]"
	default:
		return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
	}
}

// QuoteTable quotes a table name, qualified by schema when one is given.
func (b Backend) QuoteTable(schema, table string) string {
	if schema == "" || b == SQLite {
		return b.Quote(table)
	}

	return b.Quote(schema) + "." + b.Quote(table)
}

// SupportsReturning reports whether INSERT ... RETURNING is available.
func (b Backend) SupportsReturning() bool {
	return b == Postgres || b == SQLite
}
