package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orm-mirror/internal/dialect"
	"orm-mirror/internal/diagnostic"
)

const sample = `
use_tz: true
time_zone: Europe/Berlin
strict: true
log_level: debug
databases:
  default:
    engine: django.db.backends.postgresql
    name: shop
    user: app
    password: secret
    host: db.local
    port: "5433"
    options:
      sslmode: disable
  cache:
    engine: django.db.backends.sqlite3
    name: /tmp/cache.db
    host: ignored
`

func TestParse(t *testing.T) {
	s, err := Parse(strings.NewReader(sample), "yaml")
	require.NoError(t, err)

	assert.True(t, s.UseTZ)
	assert.True(t, s.Strict)
	assert.Equal(t, zerolog.DebugLevel, s.Level())
	assert.Equal(t, []string{"default", "cache"}, s.Aliases())

	cfgs, err := s.Backends()
	require.NoError(t, err)
	require.Len(t, cfgs, 2)

	pg := cfgs[0]
	assert.Equal(t, dialect.Postgres, pg.Backend)
	assert.Equal(t, "db.local", pg.Host)
	assert.Equal(t, 5433, pg.Port)
	assert.Equal(t, map[string]string{"sslmode": "disable"}, pg.Options)

	lite := cfgs[1]
	assert.Equal(t, dialect.SQLite, lite.Backend)
	assert.Equal(t, "/tmp/cache.db", lite.Name)
	assert.Empty(t, lite.Host)

	env, err := s.Env(dialect.Postgres)
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", env.Location.String())
	assert.True(t, env.UseTZ)
}

func TestParse_Defaults(t *testing.T) {
	s, err := Parse(strings.NewReader("databases: {default: {engine: sqlite3, name: ':memory:'}}"), "yaml")
	require.NoError(t, err)

	assert.True(t, s.UseTZ)
	assert.False(t, s.Strict)
	assert.Equal(t, zerolog.InfoLevel, s.Level())

	loc, err := s.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestParse_Invalid(t *testing.T) {
	cases := map[string]string{
		"no default":   "databases: {other: {engine: sqlite3, name: x}}",
		"no name":      "databases: {default: {engine: mysql}}",
		"bad zone":     "time_zone: Mars/Olympus\ndatabases: {default: {engine: sqlite3, name: x}}",
		"bad level":    "log_level: loud\ndatabases: {default: {engine: sqlite3, name: x}}",
		"unknown":      "databases: {default: {engine: oracle, name: x}}",
		"no engine":    "databases: {default: {name: x}}",
		"broken input": "databases: [",
	}

	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(in), "yaml")
			require.Error(t, err)
			assert.True(t, errors.Is(err, diagnostic.ErrConfiguration), "%+v", err)
		})
	}

	_, err := Parse(strings.NewReader("databases: {default: {engine: oracle, name: x}}"), "yaml")
	assert.True(t, errors.Is(err, diagnostic.ErrNotSupported))
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	t.Setenv("ORM_MIRROR_STRICT", "false")
	t.Setenv("ORM_MIRROR_TIME_ZONE", "UTC")

	s, err := Load(path)
	require.NoError(t, err)
	assert.False(t, s.Strict)
	assert.Equal(t, "UTC", s.TimeZone)
	assert.Equal(t, "shop", s.Databases["default"].Name)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, errors.Is(err, diagnostic.ErrConfiguration))
}
