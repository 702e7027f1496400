package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"

	DefaultNamespace = "tally-todos"
)

// Config is the merged configuration: defaults, then config.yaml, then
// TALLY_* environment variables. CLI flags are applied on top by the caller.
type Config struct {
	Storage StorageConfig `yaml:"storage" mapstructure:"storage" json:"storage"`
	Log     LogConfig     `yaml:"log" mapstructure:"log" json:"log"`
	Keys    KeysConfig    `yaml:"keys" mapstructure:"keys" json:"keys"`
	TUI     TUIConfig     `yaml:"tui" mapstructure:"tui" json:"tui"`
}

type StorageConfig struct {
	// Backend is one of sqlite, redis, memory.
	Backend string `yaml:"backend" mapstructure:"backend" json:"backend"`
	// Namespace keys every record, so one store can hold several lists.
	Namespace string `yaml:"namespace" mapstructure:"namespace" json:"namespace"`
	// Dir holds the sqlite file. Empty means the config dir.
	Dir      string `yaml:"dir" mapstructure:"dir" json:"dir"`
	RedisURL string `yaml:"redis_url" mapstructure:"redis_url" json:"redis_url"`
}

type LogConfig struct {
	Level      string `yaml:"level" mapstructure:"level" json:"level"`
	Format     string `yaml:"format" mapstructure:"format" json:"format"`
	File       string `yaml:"file" mapstructure:"file" json:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb" mapstructure:"max_size_mb" json:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups" json:"max_backups"`
}

type KeysConfig struct {
	// Commit creates a new task and finishes an edit.
	Commit string `yaml:"commit" mapstructure:"commit" json:"commit"`
}

type TUIConfig struct {
	Glyphs string `yaml:"glyphs" mapstructure:"glyphs" json:"glyphs"`
}

func Default() *Config {
	return &Config{
		Storage: StorageConfig{
			Backend:   BackendSQLite,
			Namespace: DefaultNamespace,
		},
		Log: LogConfig{
			Level:      "warn",
			Format:     "text",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
		Keys: KeysConfig{Commit: "enter"},
		TUI:  TUIConfig{Glyphs: "unicode"},
	}
}

// Dir is the config directory: $TALLY_CONFIG_DIR, else ~/.tally.
func Dir() (string, error) {
	// Test/advanced override (keeps unit tests from touching ~/.tally).
	if v := strings.TrimSpace(os.Getenv("TALLY_CONFIG_DIR")); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".tally"), nil
}

func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads path (or the default path when empty). A missing file is not an
// error; defaults and environment still apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		p, err := Path()
		if err != nil {
			return nil, err
		}
		path = p
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("TALLY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, cfg)

	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if explicit || !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if strings.TrimSpace(cfg.Storage.Dir) == "" {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		cfg.Storage.Dir = dir
	}
	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	switch c.Storage.Backend {
	case BackendSQLite, BackendMemory:
	case BackendRedis:
		if strings.TrimSpace(c.Storage.RedisURL) == "" {
			return errors.New("storage.redis_url is required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown storage.backend: %q (want sqlite|redis|memory)", c.Storage.Backend)
	}
	if strings.TrimSpace(c.Storage.Namespace) == "" {
		return errors.New("storage.namespace must not be empty")
	}
	if strings.TrimSpace(c.Keys.Commit) == "" {
		c.Keys.Commit = "enter"
	}
	return nil
}

func setDefaults(v *viper.Viper, c *Config) {
	v.SetDefault("storage.backend", c.Storage.Backend)
	v.SetDefault("storage.namespace", c.Storage.Namespace)
	v.SetDefault("storage.dir", c.Storage.Dir)
	v.SetDefault("storage.redis_url", c.Storage.RedisURL)
	v.SetDefault("log.level", c.Log.Level)
	v.SetDefault("log.format", c.Log.Format)
	v.SetDefault("log.file", c.Log.File)
	v.SetDefault("log.max_size_mb", c.Log.MaxSizeMB)
	v.SetDefault("log.max_backups", c.Log.MaxBackups)
	v.SetDefault("keys.commit", c.Keys.Commit)
	v.SetDefault("tui.glyphs", c.TUI.Glyphs)
}

// WriteDefault writes a commented default config file. It refuses to
// overwrite an existing file.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config already exists: %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	content := `# tally configuration
storage:
  # sqlite (default), redis, or memory
  backend: sqlite
  # Records are keyed by namespace; use one namespace per list.
  namespace: ` + DefaultNamespace + `
  # Directory for tally.sqlite (default: this config dir)
  # dir: ~/.tally
  # redis_url: redis://localhost:6379/0

log:
  level: warn
  format: text
  # The TUI owns the terminal, so set a file to see logs while it runs.
  # file: ~/.tally/tally.log
  max_size_mb: 10
  max_backups: 3

keys:
  commit: enter

tui:
  # unicode or ascii
  glyphs: unicode
`
	return os.WriteFile(path, []byte(content), 0o644)
}
