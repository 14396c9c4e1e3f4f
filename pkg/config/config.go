// Package config loads systemgraph settings from a TOML file and the
// environment.
//
// The default file is $XDG_CONFIG_HOME/systemgraph/config.toml. A missing
// file is not an error: [Default] values apply. Environment variables
// override the file, and command-line flags override both (applied by the
// CLI).
//
//	[catalog]
//	source = "backstage"
//	backstage_url = "https://backstage.example.com"
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
//	ttl = "10m"
//
//	[render]
//	direction = "LR"
//	formats = ["svg", "png"]
//
//	[server]
//	addr = ":8080"
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/systemgraph/pkg/errors"
	"github.com/matzehuels/systemgraph/pkg/render"
)

const appName = "systemgraph"

// Catalog sources.
const (
	SourceFile      = "file"
	SourceMongo     = "mongo"
	SourceBackstage = "backstage"
)

// Cache backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendNone  = "none"
)

// Environment variables that override the file.
const (
	EnvCatalogDir     = "SYSTEMGRAPH_CATALOG_DIR"
	EnvRedisAddr      = "SYSTEMGRAPH_REDIS_ADDR"
	EnvRedisDB        = "SYSTEMGRAPH_REDIS_DB"
	EnvMongoURI       = "SYSTEMGRAPH_MONGO_URI"
	EnvBackstageURL   = "SYSTEMGRAPH_BACKSTAGE_URL"
	EnvBackstageToken = "SYSTEMGRAPH_BACKSTAGE_TOKEN"
)

// Config is the full configuration.
type Config struct {
	Catalog Catalog `toml:"catalog"`
	Cache   Cache   `toml:"cache"`
	Render  Render  `toml:"render"`
	Server  Server  `toml:"server"`
}

// Catalog selects and configures the entity source.
type Catalog struct {
	Source          string `toml:"source"`
	Dir             string `toml:"dir"`
	MongoURI        string `toml:"mongo_uri"`
	MongoDatabase   string `toml:"mongo_database"`
	MongoCollection string `toml:"mongo_collection"`
	BackstageURL    string `toml:"backstage_url"`
	Token           string `toml:"token"`
}

// Cache selects and configures the cache backend.
type Cache struct {
	Backend   string   `toml:"backend"`
	Dir       string   `toml:"dir"`
	RedisAddr string   `toml:"redis_addr"`
	RedisDB   int      `toml:"redis_db"`
	TTL       Duration `toml:"ttl"`
}

// Render holds diagram defaults.
type Render struct {
	Direction string   `toml:"direction"`
	Formats   []string `toml:"formats"`
	Detailed  bool     `toml:"detailed"`
}

// Server configures `systemgraph serve`.
type Server struct {
	Addr string `toml:"addr"`
}

// Duration is a time.Duration written as a string ("10m") in TOML.
type Duration struct{ time.Duration }

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText formats the duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Catalog: Catalog{Source: SourceFile, Dir: "."},
		Cache:   Cache{Backend: BackendFile, TTL: Duration{10 * time.Minute}},
		Render:  Render{Direction: string(render.DefaultDirection), Formats: []string{string(render.FormatSVG)}},
		Server:  Server{Addr: ":8080"},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/systemgraph/config.toml.
func DefaultPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, appName, "config.toml"), nil
}

// Load reads path (DefaultPath when empty), applies environment overrides
// and validates the result. An explicit path must exist.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err == nil {
			path = p
		}
	}

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			switch {
			case os.IsNotExist(err) && !explicit:
			case os.IsNotExist(err):
				return Config{}, errors.New(errors.ErrCodeFileNotFound, "config file %s not found", path)
			default:
				return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
			}
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	set := func(dst *string, key string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	set(&c.Catalog.Dir, EnvCatalogDir)
	set(&c.Catalog.MongoURI, EnvMongoURI)
	set(&c.Catalog.BackstageURL, EnvBackstageURL)
	set(&c.Catalog.Token, EnvBackstageToken)
	set(&c.Cache.RedisAddr, EnvRedisAddr)

	if v, ok := lookup(EnvRedisDB); ok && v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, EnvRedisDB)
		}
		c.Cache.RedisDB = db
	}
	return nil
}

// Validate checks enum values and the settings each choice requires.
func (c Config) Validate() error {
	switch c.Catalog.Source {
	case SourceFile:
		if c.Catalog.Dir == "" {
			return invalid("catalog.dir is required for the file source")
		}
	case SourceMongo:
		if c.Catalog.MongoURI == "" {
			return invalid("catalog.mongo_uri is required for the mongo source")
		}
	case SourceBackstage:
		if err := errors.ValidateURL(c.Catalog.BackstageURL); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "catalog.backstage_url")
		}
	default:
		return invalid("unknown catalog.source %q (use file, mongo or backstage)", c.Catalog.Source)
	}

	switch c.Cache.Backend {
	case BackendFile, BackendNone:
	case BackendRedis:
		if c.Cache.RedisAddr == "" {
			return invalid("cache.redis_addr is required for the redis backend")
		}
	default:
		return invalid("unknown cache.backend %q (use file, redis or none)", c.Cache.Backend)
	}
	if c.Cache.TTL.Duration < 0 {
		return invalid("cache.ttl must not be negative")
	}

	if _, err := render.ParseDirection(c.Render.Direction); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "render.direction")
	}
	for _, f := range c.Render.Formats {
		if _, err := render.ParseFormat(f); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "render.formats")
		}
	}
	return nil
}

// ParsedFormats returns the configured render formats, deduplicated.
func (c Render) ParsedFormats() []render.Format {
	var out []render.Format
	for _, s := range c.Formats {
		f, err := render.ParseFormat(s)
		if err != nil || slices.Contains(out, f) {
			continue
		}
		out = append(out, f)
	}
	return out
}

// Write encodes the configuration as TOML to path, creating parent
// directories.
func (c Config) Write(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(c); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return errors.New(errors.ErrCodeInvalidConfig, format, args...)
}
