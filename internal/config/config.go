// Package config loads lptrack settings from defaults, an optional YAML file
// and LPTRACK_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
	_ "time/tzdata"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/sadopc/lptrack/internal/apperr"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "LPTRACK_"

type Config struct {
	// DBPath is the SQLite file. Empty means the default under the user config dir.
	DBPath string `yaml:"db_path" mapstructure:"db_path" env:"DB_PATH"`
	// Timezone is given to new seasons.
	Timezone string `yaml:"timezone" mapstructure:"timezone" env:"TIMEZONE"`
	// DefaultDecay is the daily decay of new seasons.
	DefaultDecay float64 `yaml:"default_decay" mapstructure:"default_decay" env:"DEFAULT_DECAY"`
	// BackupFile is used by backup export/import when no file is given.
	BackupFile string `yaml:"backup_file" mapstructure:"backup_file" env:"BACKUP_FILE"`
	LogLevel   string `yaml:"log_level" mapstructure:"log_level" env:"LOG_LEVEL"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Timezone:     "America/New_York",
		DefaultDecay: 56,
		BackupFile:   "backup.json",
		LogLevel:     "warn",
	}
}

// DefaultPath returns ~/.config/lptrack/config.yaml
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "lptrack", "config.yaml"), nil
}

// Load builds the configuration. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		if err := loadFile(path, cfg); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, apperr.Wrap(apperr.Validation, err, "parse env")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	if _, err := os.Stat(path); err != nil {
		return err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return err
	}

	return v.Unmarshal(cfg)
}

func (c *Config) Validate() error {
	if c.DefaultDecay < 0 {
		return apperr.Validationf("default_decay must not be negative, got %v", c.DefaultDecay)
	}
	if c.Timezone == "" {
		return apperr.Validationf("timezone must not be empty")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return apperr.Validationf("unknown timezone %q", c.Timezone)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return apperr.Validationf("unknown log_level %q", c.LogLevel)
	}
	return nil
}

// Level returns the parsed log level.
func (c *Config) Level() log.Level {
	lvl, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.WarnLevel
	}
	return lvl
}

// Marshal renders c as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// WriteDefault writes the default configuration to path. An existing file is
// only replaced when overwrite is set.
func WriteDefault(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return apperr.Validationf("%s already exists", path)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := DefaultConfig().Marshal()
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	header := []byte("# lptrack configuration. LPTRACK_* environment variables override these values.\n")
	return os.WriteFile(path, append(header, data...), 0o644)
}
