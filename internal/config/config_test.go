package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	t.Parallel()
	cfg := Default()
	if cfg.Storage.Backend != BackendSQLite {
		t.Fatalf("backend: got %q", cfg.Storage.Backend)
	}
	if cfg.Storage.Namespace != DefaultNamespace {
		t.Fatalf("namespace: got %q", cfg.Storage.Namespace)
	}
	if cfg.Keys.Commit != "enter" {
		t.Fatalf("commit key: got %q", cfg.Keys.Commit)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoad_NoFileUsesDefaultsAndConfigDir(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TALLY_CONFIG_DIR", dir)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Storage.Backend != BackendSQLite {
		t.Fatalf("backend: got %q", cfg.Storage.Backend)
	}
	if cfg.Storage.Dir != dir {
		t.Fatalf("storage dir: got %q want %q", cfg.Storage.Dir, dir)
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TALLY_CONFIG_DIR", dir)
	path := filepath.Join(dir, "config.yaml")
	body := strings.Join([]string{
		"storage:",
		"  backend: memory",
		"  namespace: from-file",
		"log:",
		"  level: debug",
		"  max_backups: 7",
		"keys:",
		"  commit: ctrl+s",
		"",
	}, "\n")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("TALLY_STORAGE_NAMESPACE", "from-env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Storage.Backend != BackendMemory {
		t.Fatalf("backend: got %q want memory", cfg.Storage.Backend)
	}
	if cfg.Storage.Namespace != "from-env" {
		t.Fatalf("namespace: env should win; got %q", cfg.Storage.Namespace)
	}
	if cfg.Log.Level != "debug" || cfg.Log.MaxBackups != 7 {
		t.Fatalf("log: got %+v", cfg.Log)
	}
	if cfg.Keys.Commit != "ctrl+s" {
		t.Fatalf("commit key: got %q", cfg.Keys.Commit)
	}
}

func TestLoad_ExplicitMissingFileFails(t *testing.T) {
	t.Setenv("TALLY_CONFIG_DIR", t.TempDir())
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for a missing explicit config file")
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"default", func(*Config) {}, false},
		{"memory", func(c *Config) { c.Storage.Backend = "Memory" }, false},
		{"redis without url", func(c *Config) { c.Storage.Backend = BackendRedis }, true},
		{"redis with url", func(c *Config) {
			c.Storage.Backend = BackendRedis
			c.Storage.RedisURL = "redis://localhost:6379/0"
		}, false},
		{"unknown backend", func(c *Config) { c.Storage.Backend = "etcd" }, true},
		{"empty namespace", func(c *Config) { c.Storage.Namespace = " " }, true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Fatalf("Validate: err=%v wantErr=%v", err, tt.wantErr)
			}
		})
	}
}

func TestWriteDefault_RoundTrips(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TALLY_CONFIG_DIR", dir)
	path := filepath.Join(dir, "nested", "config.yaml")

	if err := WriteDefault(path); err != nil {
		t.Fatalf("WriteDefault: %v", err)
	}
	if err := WriteDefault(path); err == nil {
		t.Fatalf("expected WriteDefault to refuse overwriting")
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	def := Default()
	if cfg.Storage.Backend != def.Storage.Backend || cfg.Storage.Namespace != def.Storage.Namespace {
		t.Fatalf("storage: got %+v", cfg.Storage)
	}
	if cfg.Log.MaxSizeMB != def.Log.MaxSizeMB || cfg.TUI.Glyphs != def.TUI.Glyphs {
		t.Fatalf("written defaults differ: %+v", cfg)
	}
}
