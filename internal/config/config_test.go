package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/reftree/reftree/pkg/errors"
)

func env(vars map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := vars[k]
		return v, ok
	}
}

func write(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func load(t *testing.T, opts LoadOptions) *Config {
	t.Helper()
	opts.SkipUserConfig = true
	if opts.EnvFile == "" {
		opts.EnvFile = filepath.Join(t.TempDir(), "missing.env")
	}
	if opts.LookupEnv == nil {
		opts.LookupEnv = env(nil)
	}
	cfg, err := Load(opts)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return cfg
}

func TestDefaults(t *testing.T) {
	cfg := load(t, LoadOptions{})
	if cfg.Cache.Backend != BackendFile || cfg.Cache.TTL.Duration != time.Hour {
		t.Errorf("cache = %+v", cfg.Cache)
	}
	if cfg.Build.MaxNodes != 10000 || cfg.Tools.Dot != "dot" || cfg.Server.Addr != ":8080" {
		t.Errorf("cfg = %+v", cfg)
	}
	if len(cfg.Files) != 0 {
		t.Errorf("Files = %v, want none", cfg.Files)
	}
}

func TestWorkspaceFile(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "reftree.toml"), `
name = "acme"

[cache]
backend = "redis"
ttl = "30m"

[build]
max_depth = 4
workers = 8

[[project]]
name = "App"
`)

	cfg := load(t, LoadOptions{Workspace: dir})
	if cfg.Cache.Backend != BackendRedis || cfg.Cache.TTL.Duration != 30*time.Minute {
		t.Errorf("cache = %+v", cfg.Cache)
	}
	if cfg.Build.MaxDepth != 4 || cfg.Build.Workers != 8 || cfg.Build.MaxNodes != 10000 {
		t.Errorf("build = %+v", cfg.Build)
	}
	if cfg.Workspace != dir || len(cfg.Files) != 1 {
		t.Errorf("workspace = %s files = %v", cfg.Workspace, cfg.Files)
	}
}

func TestPrecedence(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "custom.toml")
	write(t, file, "[tools]\ndot = \"/from/file\"\n[server]\naddr = \":9000\"\n")
	envFile := filepath.Join(dir, ".env")
	write(t, envFile, "REFTREE_TEST_FROM_DOTENV=1\n")
	t.Cleanup(func() { os.Unsetenv("REFTREE_TEST_FROM_DOTENV") })

	cfg := load(t, LoadOptions{
		File:    file,
		EnvFile: envFile,
		LookupEnv: env(map[string]string{
			"REFTREE_DOT":       "/from/env",
			"REFTREE_MAX_NODES": "50",
			"REFTREE_CACHE_TTL": "5s",
		}),
	})
	if cfg.Tools.Dot != "/from/env" {
		t.Errorf("dot = %s, env should win over file", cfg.Tools.Dot)
	}
	if cfg.Server.Addr != ":9000" {
		t.Errorf("addr = %s, file should win over default", cfg.Server.Addr)
	}
	if cfg.Build.MaxNodes != 50 || cfg.Cache.TTL.Duration != 5*time.Second {
		t.Errorf("env numbers not applied: %+v", cfg)
	}
	if os.Getenv("REFTREE_TEST_FROM_DOTENV") != "1" {
		t.Error(".env file not loaded")
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.toml")
	write(t, bad, "[cache\n")

	tests := []struct {
		name string
		opts LoadOptions
	}{
		{"missing explicit file", LoadOptions{File: filepath.Join(dir, "nope.toml")}},
		{"syntax", LoadOptions{File: bad}},
		{"backend", LoadOptions{LookupEnv: env(map[string]string{"REFTREE_CACHE": "memcached"})}},
		{"mongo without uri", LoadOptions{LookupEnv: env(map[string]string{"REFTREE_CACHE": "mongo"})}},
		{"number", LoadOptions{LookupEnv: env(map[string]string{"REFTREE_WORKERS": "many"})}},
		{"negative", LoadOptions{LookupEnv: env(map[string]string{"REFTREE_MAX_DEPTH": "-1"})}},
		{"ttl", LoadOptions{LookupEnv: env(map[string]string{"REFTREE_CACHE_TTL": "soon"})}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.opts.SkipUserConfig = true
			tt.opts.EnvFile = filepath.Join(dir, "missing.env")
			if tt.opts.LookupEnv == nil {
				tt.opts.LookupEnv = env(nil)
			}
			_, err := Load(tt.opts)
			if !errors.Is(err, errors.ErrCodeInvalidInput) {
				t.Errorf("err = %v, want INVALID_INPUT", err)
			}
		})
	}
}
