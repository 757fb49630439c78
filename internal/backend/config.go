package backend

import (
	"fmt"
	"maps"
	"net"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"orm-mirror/internal/common"
	"orm-mirror/internal/dialect"
	"orm-mirror/internal/diagnostic"
)

// Default ports of the network backends.
const (
	DefaultPostgresPort = 5432
	DefaultMySQLPort    = 3306
	DefaultMSSQLPort    = 1433
)

// MemoryPath opens a private in-memory sqlite database.
const MemoryPath = ":memory:"

// Config is one datasource translated for the async engines.
type Config struct {
	Alias    string
	Backend  dialect.Backend
	Host     string
	Port     int
	User     string
	Password string
	// Name is the database name, or the file path for sqlite.
	Name string
	// Options are passed to the driver as connection parameters.
	Options  map[string]string
	MaxConns int
}

// Validate checks that the fields the backend needs are present.
func (c Config) Validate() error {
	alias := c.Alias
	if alias == "" {
		alias = common.DefaultAlias
	}

	if c.Name == "" {
		return diagnostic.Configuration("databases.%s: missing NAME", alias)
	}

	if c.Port < 0 || c.Port > 65535 {
		return diagnostic.Configuration("databases.%s: invalid PORT %d", alias, c.Port)
	}

	return nil
}

func (c Config) hostPort(defaultPort int) string {
	host := c.Host
	if host == "" {
		host = "localhost"
	}

	port := c.Port
	if port == 0 {
		port = defaultPort
	}

	return net.JoinHostPort(host, strconv.Itoa(port))
}

func (c Config) query() url.Values {
	q := url.Values{}
	for _, k := range slices.Sorted(maps.Keys(c.Options)) {
		q.Set(k, c.Options[k])
	}

	return q
}

// DSN returns the driver connection string.
func (c Config) DSN() (string, error) {
	switch c.Backend {
	case dialect.Postgres:
		u := url.URL{
			Scheme:   "postgres",
			Host:     c.hostPort(DefaultPostgresPort),
			Path:     "/" + c.Name,
			RawQuery: c.query().Encode(),
		}
		if c.User != "" {
			u.User = url.UserPassword(c.User, c.Password)
		}

		return u.String(), nil
	case dialect.MySQL:
		mc := mysql.NewConfig()
		mc.User = c.User
		mc.Passwd = c.Password
		mc.Net = "tcp"
		mc.Addr = c.hostPort(DefaultMySQLPort)
		mc.DBName = c.Name
		mc.ParseTime = true
		mc.Loc = time.UTC

		if len(c.Options) > 0 {
			mc.Params = maps.Clone(c.Options)
		}

		return mc.FormatDSN(), nil
	case dialect.SQLite:
		q := c.query()
		q.Add("_pragma", "foreign_keys(1)")

		return c.Name + "?" + q.Encode(), nil
	case dialect.MSSQL:
		q := c.query()
		q.Set("database", c.Name)

		u := url.URL{
			Scheme:   "sqlserver",
			Host:     c.hostPort(DefaultMSSQLPort),
			RawQuery: q.Encode(),
		}
		if c.User != "" {
			u.User = url.UserPassword(c.User, c.Password)
		}

		return u.String(), nil
	default:
		return "", diagnostic.NotSupported("backend", c.Backend.String())
	}
}

// String describes the datasource without its password.
func (c Config) String() string {
	alias := c.Alias
	if alias == "" {
		alias = common.DefaultAlias
	}

	if c.Backend.Embedded() {
		return fmt.Sprintf("%s (%s %s)", alias, c.Backend, c.Name)
	}

	var b strings.Builder

	fmt.Fprintf(&b, "%s (%s ", alias, c.Backend)

	if c.User != "" {
		b.WriteString(c.User + "@")
	}

	fmt.Fprintf(&b, "%s/%s)", c.hostPort(defaultPort(c.Backend)), c.Name)

	return b.String()
}

func defaultPort(b dialect.Backend) int {
	switch b {
	case dialect.Postgres:
		return DefaultPostgresPort
	case dialect.MySQL:
		return DefaultMySQLPort
	case dialect.MSSQL:
		return DefaultMSSQLPort
	default:
		return 0
	}
}
