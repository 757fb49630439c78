package backend

import (
	"context"
	"strings"
	"time"

	"github.com/golang-sql/civil"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"orm-mirror/internal/dialect"
)

func openSQLite(ctx context.Context, cfg Config) (Engine, error) {
	dsn, err := cfg.DSN()
	if err != nil {
		return nil, err
	}

	maxConns := cfg.MaxConns
	// every connection to :memory: is a different database
	if strings.HasPrefix(cfg.Name, MemoryPath) {
		maxConns = 1
	}

	return openSQL(ctx, dialect.SQLite, "sqlite", dsn, maxConns, normalizeSQLite)
}

// normalizeSQLite turns the time.Time the driver parses out of DATE
// columns back into a calendar date.
func normalizeSQLite(dbType string, v any) any {
	if t, ok := v.(time.Time); ok && strings.EqualFold(dbType, "DATE") {
		return civil.DateOf(t)
	}

	return v
}
