// Package config loads the process settings: the datasources, time zone
// handling and the synthesis policy. Settings come from a YAML, TOML or
// JSON file and ORM_MIRROR_* environment variables, environment first.
package config

import (
	"io"
	"slices"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"orm-mirror/internal/backend"
	"orm-mirror/internal/common"
	"orm-mirror/internal/dialect"
	"orm-mirror/internal/diagnostic"
	"orm-mirror/internal/field"
)

// EnvPrefix prefixes the environment variables that override settings,
// e.g. ORM_MIRROR_USE_TZ.
const EnvPrefix = "ORM_MIRROR"

// Database is one datasource entry, keyed like the source framework's
// DATABASES setting.
type Database struct {
	Engine   string            `mapstructure:"engine"`
	Name     string            `mapstructure:"name"`
	User     string            `mapstructure:"user"`
	Password string            `mapstructure:"password"`
	Host     string            `mapstructure:"host"`
	Port     int               `mapstructure:"port"`
	Options  map[string]string `mapstructure:"options"`
	// MaxConns bounds the engine pool; the driver default applies at 0.
	MaxConns int `mapstructure:"max_conns"`
}

// Settings is the loaded configuration.
type Settings struct {
	Databases map[string]Database `mapstructure:"databases"`
	UseTZ     bool                `mapstructure:"use_tz"`
	TimeZone  string              `mapstructure:"time_zone"`
	// Strict makes every unsupported field fatal to synthesis.
	Strict   bool   `mapstructure:"strict"`
	LogLevel string `mapstructure:"log_level"`
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("use_tz", true)
	v.SetDefault("time_zone", "UTC")
	v.SetDefault("strict", false)
	v.SetDefault("log_level", "info")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// Load reads settings from path, or from the environment alone when
// path is empty, and validates them.
func Load(path string) (*Settings, error) {
	v := newViper()

	if path != "" {
		v.SetConfigFile(path)

		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Mark(errors.Wrapf(err, "read settings %s", path), diagnostic.ErrConfiguration)
		}
	}

	return decode(v)
}

// Parse reads settings of the given format ("yaml", "toml", "json") from r.
func Parse(r io.Reader, format string) (*Settings, error) {
	v := newViper()
	v.SetConfigType(format)

	if err := v.ReadConfig(r); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "read settings"), diagnostic.ErrConfiguration)
	}

	return decode(v)
}

func decode(v *viper.Viper) (*Settings, error) {
	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "decode settings"), diagnostic.ErrConfiguration)
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}

	return &s, nil
}

// Validate checks that a default datasource exists, that every engine is
// known and that the time zone loads.
func (s *Settings) Validate() error {
	if _, ok := s.Databases[common.DefaultAlias]; !ok {
		return diagnostic.Configuration("databases: the %q datasource is required", common.DefaultAlias)
	}

	for _, alias := range s.Aliases() {
		if _, err := s.Backend(alias); err != nil {
			return err
		}
	}

	if _, err := s.Location(); err != nil {
		return err
	}

	if _, err := zerolog.ParseLevel(s.LogLevel); err != nil {
		return diagnostic.Configuration("log_level: %v", err)
	}

	return nil
}

// Aliases returns the datasource aliases, default first.
func (s *Settings) Aliases() []string {
	aliases := common.SortedKeys(s.Databases)
	if i := slices.Index(aliases, common.DefaultAlias); i > 0 {
		aliases = slices.Delete(aliases, i, i+1)
		aliases = slices.Insert(aliases, 0, common.DefaultAlias)
	}

	return aliases
}

// Backend translates the datasource alias into an engine config.
func (s *Settings) Backend(alias string) (backend.Config, error) {
	db, ok := s.Databases[alias]
	if !ok {
		return backend.Config{}, diagnostic.Configuration("databases: no datasource %q", alias)
	}

	b, err := dialect.ParseEngine(db.Engine)
	if err != nil {
		return backend.Config{}, errors.Wrapf(err, "databases.%s", alias)
	}

	cfg := backend.Config{
		Alias:    alias,
		Backend:  b,
		Name:     db.Name,
		Options:  db.Options,
		MaxConns: db.MaxConns,
	}

	// sqlite names a file; connection fields do not apply
	if !b.Embedded() {
		cfg.Host = db.Host
		cfg.Port = db.Port
		cfg.User = db.User
		cfg.Password = db.Password
	}

	if err := cfg.Validate(); err != nil {
		return backend.Config{}, err
	}

	return cfg, nil
}

// Backends translates every datasource, default first.
func (s *Settings) Backends() ([]backend.Config, error) {
	out := make([]backend.Config, 0, len(s.Databases))

	for _, alias := range s.Aliases() {
		cfg, err := s.Backend(alias)
		if err != nil {
			return nil, err
		}

		out = append(out, cfg)
	}

	return out, nil
}

// Location loads TimeZone. An empty zone is UTC.
func (s *Settings) Location() (*time.Location, error) {
	if s.TimeZone == "" {
		return time.UTC, nil
	}

	loc, err := time.LoadLocation(s.TimeZone)
	if err != nil {
		return nil, diagnostic.Configuration("time_zone: unknown zone %q", s.TimeZone)
	}

	return loc, nil
}

// Env returns the field environment for backend b.
func (s *Settings) Env(b dialect.Backend) (field.Env, error) {
	loc, err := s.Location()
	if err != nil {
		return field.Env{}, err
	}

	return field.Env{Backend: b, UseTZ: s.UseTZ, Location: loc}, nil
}

// Level returns the configured log level, info when unset or invalid.
func (s *Settings) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(s.LogLevel)
	if err != nil || s.LogLevel == "" {
		return zerolog.InfoLevel
	}

	return lvl
}
