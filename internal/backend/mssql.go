package backend

import (
	"context"
	"strings"
	"time"

	"github.com/golang-sql/civil"
	mssql "github.com/microsoft/go-mssqldb"

	"orm-mirror/internal/dialect"
)

func openMSSQL(ctx context.Context, cfg Config) (Engine, error) {
	dsn, err := cfg.DSN()
	if err != nil {
		return nil, err
	}

	return openSQL(ctx, dialect.MSSQL, "sqlserver", dsn, cfg.MaxConns, normalizeMSSQL)
}

// normalizeMSSQL converts the wire forms of unique identifiers, exact
// numerics and the date-only and time-only types.
func normalizeMSSQL(dbType string, v any) any {
	switch x := v.(type) {
	case []byte:
		switch strings.ToUpper(dbType) {
		case "UNIQUEIDENTIFIER":
			var u mssql.UniqueIdentifier
			if err := u.Scan(x); err != nil {
				return x
			}

			return u.String()
		case "DECIMAL", "NUMERIC", "MONEY", "SMALLMONEY":
			return string(x)
		default:
			return x
		}
	case time.Time:
		switch strings.ToUpper(dbType) {
		case "DATE":
			return civil.DateOf(x)
		case "TIME":
			return civil.TimeOf(x)
		default:
			return x
		}
	default:
		return v
	}
}
