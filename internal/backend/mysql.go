package backend

import (
	"context"
	"strconv"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql" // registers the "mysql" driver
	"github.com/golang-sql/civil"

	"orm-mirror/internal/dialect"
)

func openMySQL(ctx context.Context, cfg Config) (Engine, error) {
	dsn, err := cfg.DSN()
	if err != nil {
		return nil, err
	}

	return openSQL(ctx, dialect.MySQL, "mysql", dsn, cfg.MaxConns, normalizeMySQL)
}

// normalizeMySQL decodes the text protocol, which returns most columns as
// bytes, using the column type.
func normalizeMySQL(dbType string, v any) any {
	base := strings.TrimPrefix(strings.ToUpper(dbType), "UNSIGNED ")

	switch x := v.(type) {
	case []byte:
		switch base {
		case "TINYINT", "SMALLINT", "MEDIUMINT", "INT", "BIGINT", "YEAR":
			s := string(x)
			if n, err := strconv.ParseInt(s, 10, 64); err == nil {
				return n
			}

			if n, err := strconv.ParseUint(s, 10, 64); err == nil {
				return n
			}

			return s
		case "FLOAT", "DOUBLE":
			if f, err := strconv.ParseFloat(string(x), 64); err == nil {
				return f
			}

			return string(x)
		case "BLOB", "TINYBLOB", "MEDIUMBLOB", "LONGBLOB", "BINARY", "VARBINARY", "BIT", "GEOMETRY":
			return x
		default:
			return string(x)
		}
	case time.Time:
		if base == "DATE" {
			return civil.DateOf(x)
		}

		return x
	default:
		return v
	}
}
