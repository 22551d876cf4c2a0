// Package config assembles reftree settings from defaults, TOML files,
// .env files, REFTREE_* environment variables and command-line flags, in
// that order of precedence (later sources win).
//
// TOML settings live in the same reftree.toml that can declare a workspace
// manifest, under dedicated tables:
//
//	[cache]
//	backend = "redis"
//	ttl = "30m"
//	redis_addr = "localhost:6379"
//
//	[build]
//	max_nodes = 20000
//	workers = 8
//
//	[tools]
//	dot = "/opt/graphviz/bin/dot"
//
// A user-wide file is read from $XDG_CONFIG_HOME/reftree/config.toml before
// the workspace file.
package config

import (
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/adrg/xdg"
	"github.com/joho/godotenv"

	"github.com/reftree/reftree/pkg/errors"
)

const appName = "reftree"

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "REFTREE_"

// Cache backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendMongo = "mongo"
	BackendNone  = "none"
)

// Backends lists the accepted cache backends.
var Backends = []string{BackendFile, BackendRedis, BackendMongo, BackendNone}

// Duration is a time.Duration written as a Go duration string in TOML.
type Duration struct{ time.Duration }

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// Config holds every setting the CLI and server read.
type Config struct {
	Workspace string       `toml:"workspace"`
	Cache     CacheConfig  `toml:"cache"`
	Build     BuildConfig  `toml:"build"`
	Tools     ToolsConfig  `toml:"tools"`
	Server    ServerConfig `toml:"server"`

	// Files lists the TOML files that were applied, in order.
	Files []string `toml:"-"`
}

type CacheConfig struct {
	Backend       string   `toml:"backend"`
	Dir           string   `toml:"dir"`
	TTL           Duration `toml:"ttl"`
	RedisAddr     string   `toml:"redis_addr"`
	RedisPassword string   `toml:"redis_password"`
	RedisDB       int      `toml:"redis_db"`
	MongoURI      string   `toml:"mongo_uri"`
	MongoDatabase string   `toml:"mongo_database"`
	Prefix        string   `toml:"prefix"`
}

type BuildConfig struct {
	MaxDepth       int  `toml:"max_depth"`
	MaxNodes       int  `toml:"max_nodes"`
	Workers        int  `toml:"workers"`
	SkipUnresolved bool `toml:"skip_unresolved"`
}

type ToolsConfig struct {
	Dot string `toml:"dot"`
}

type ServerConfig struct {
	Addr string `toml:"addr"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Workspace: ".",
		Cache: CacheConfig{
			Backend:       BackendFile,
			Dir:           filepath.Join(xdg.CacheHome, appName),
			TTL:           Duration{time.Hour},
			RedisAddr:     "localhost:6379",
			MongoDatabase: appName,
			Prefix:        appName + ":",
		},
		Build: BuildConfig{
			MaxNodes: 10000,
		},
		Tools:  ToolsConfig{Dot: "dot"},
		Server: ServerConfig{Addr: ":8080"},
	}
}

// LoadOptions selects the inputs of Load.
type LoadOptions struct {
	// File is an explicit config file (--config). It must exist.
	File string
	// Workspace is searched for reftree.toml when File is empty.
	Workspace string
	// EnvFile is loaded into the process environment when present.
	// Defaults to ".env".
	EnvFile string
	// SkipUserConfig ignores $XDG_CONFIG_HOME/reftree/config.toml.
	SkipUserConfig bool
	// LookupEnv overrides os.LookupEnv.
	LookupEnv func(string) (string, bool)
}

// Load resolves the configuration. Flags are applied by the caller on the
// returned value.
func Load(opts LoadOptions) (*Config, error) {
	cfg := Default()

	if !opts.SkipUserConfig {
		if path, err := xdg.SearchConfigFile(filepath.Join(appName, "config.toml")); err == nil {
			if err := cfg.decodeFile(path); err != nil {
				return nil, err
			}
		}
	}

	switch {
	case opts.File != "":
		if err := cfg.decodeFile(opts.File); err != nil {
			return nil, err
		}
	case opts.Workspace != "":
		if path := workspaceFile(opts.Workspace); path != "" {
			if err := cfg.decodeFile(path); err != nil {
				return nil, err
			}
		}
	}

	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "load %s", envFile)
		}
	}

	lookup := opts.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if err := cfg.applyEnv(lookup); err != nil {
		return nil, err
	}
	if opts.Workspace != "" && opts.Workspace != "." {
		cfg.Workspace = opts.Workspace
	}
	return cfg, cfg.Validate()
}

// workspaceFile returns the reftree.toml next to or inside path, if any.
func workspaceFile(path string) string {
	dir := path
	if info, err := os.Stat(path); err != nil {
		return ""
	} else if !info.IsDir() {
		dir = filepath.Dir(path)
	}
	candidate := filepath.Join(dir, "reftree.toml")
	if _, err := os.Stat(candidate); err != nil {
		return ""
	}
	return candidate
}

func (c *Config) decodeFile(path string) error {
	if _, err := toml.DecodeFile(path, c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "parse config %s", path)
	}
	c.Files = append(c.Files, path)
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok && v != "" {
			*dst = v
		}
	}
	var err error
	num := func(name string, dst *int) {
		v, ok := lookup(EnvPrefix + name)
		if !ok || v == "" || err != nil {
			return
		}
		n, perr := strconv.Atoi(v)
		if perr != nil {
			err = errors.Wrap(errors.ErrCodeInvalidInput, perr, "%s%s", EnvPrefix, name)
			return
		}
		*dst = n
	}

	str("WORKSPACE", &c.Workspace)
	str("CACHE", &c.Cache.Backend)
	str("CACHE_DIR", &c.Cache.Dir)
	str("REDIS_ADDR", &c.Cache.RedisAddr)
	str("REDIS_PASSWORD", &c.Cache.RedisPassword)
	num("REDIS_DB", &c.Cache.RedisDB)
	str("MONGO_URI", &c.Cache.MongoURI)
	str("MONGO_DATABASE", &c.Cache.MongoDatabase)
	str("DOT", &c.Tools.Dot)
	num("MAX_DEPTH", &c.Build.MaxDepth)
	num("MAX_NODES", &c.Build.MaxNodes)
	num("WORKERS", &c.Build.Workers)
	str("ADDR", &c.Server.Addr)

	if v, ok := lookup(EnvPrefix + "CACHE_TTL"); ok && v != "" && err == nil {
		if perr := c.Cache.TTL.UnmarshalText([]byte(v)); perr != nil {
			err = errors.Wrap(errors.ErrCodeInvalidInput, perr, "%sCACHE_TTL", EnvPrefix)
		}
	}
	if v, ok := lookup(EnvPrefix + "SKIP_UNRESOLVED"); ok && v != "" && err == nil {
		b, perr := strconv.ParseBool(v)
		if perr != nil {
			err = errors.Wrap(errors.ErrCodeInvalidInput, perr, "%sSKIP_UNRESOLVED", EnvPrefix)
		}
		c.Build.SkipUnresolved = b
	}
	return err
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	c.Cache.Backend = strings.ToLower(strings.TrimSpace(c.Cache.Backend))
	if !slices.Contains(Backends, c.Cache.Backend) {
		return errors.New(errors.ErrCodeInvalidInput, "unknown cache backend %q (valid: %s)", c.Cache.Backend, strings.Join(Backends, ", "))
	}
	if c.Cache.Backend == BackendMongo && c.Cache.MongoURI == "" {
		return errors.New(errors.ErrCodeInvalidInput, "mongo cache backend requires mongo_uri")
	}
	if c.Build.MaxDepth < 0 || c.Build.MaxNodes < 0 || c.Build.Workers < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "build limits must not be negative")
	}
	if c.Cache.TTL.Duration < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "cache ttl must not be negative")
	}
	return nil
}
