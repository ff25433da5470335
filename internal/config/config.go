// Package config loads taskdeck settings from an optional config file and
// TASKDECK_* environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dori/taskdeck/internal/db"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	DataDir string `mapstructure:"data_dir"`

	DB struct {
		Driver string `mapstructure:"driver"`
		DSN    string `mapstructure:"dsn"`
	} `mapstructure:"db"`

	Server struct {
		Addr         string        `mapstructure:"addr"`
		ReadTimeout  time.Duration `mapstructure:"read_timeout"`
		WriteTimeout time.Duration `mapstructure:"write_timeout"`
	} `mapstructure:"server"`

	View struct {
		PageSize int `mapstructure:"page_size"`
	} `mapstructure:"view"`

	History struct {
		Limit int `mapstructure:"limit"`
	} `mapstructure:"history"`

	UI struct {
		Theme string `mapstructure:"theme"`
	} `mapstructure:"ui"`

	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`
}

// DBPath returns the sqlite file used when no DSN is configured
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "taskdeck.db")
}

// LogLevel parses Log.Level, falling back to info
func (c *Config) LogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// Validate rejects settings the app cannot start with
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return errors.New("data_dir must not be empty")
	}
	if c.DB.Driver != db.DriverSQLite && c.DB.Driver != db.DriverPostgres {
		return fmt.Errorf("db.driver must be %q or %q, got %q", db.DriverSQLite, db.DriverPostgres, c.DB.Driver)
	}
	if c.DB.Driver == db.DriverPostgres && c.DB.DSN == "" {
		return errors.New("db.dsn is required for postgres")
	}
	if c.View.PageSize < 1 {
		return fmt.Errorf("view.page_size must be at least 1, got %d", c.View.PageSize)
	}
	if c.History.Limit < 0 {
		return fmt.Errorf("history.limit must not be negative, got %d", c.History.Limit)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

// SetDefaults registers the default value of every key on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", db.DefaultDataDir())
	v.SetDefault("db.driver", db.DriverSQLite)
	v.SetDefault("db.dsn", "")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("view.page_size", 10)
	v.SetDefault("history.limit", 100)
	v.SetDefault("ui.theme", "default")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// New returns a viper instance with defaults, env binding and search paths set up.
// An explicit file, when given, replaces the search paths.
func New(file string) *viper.Viper {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix("TASKDECK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		return v
	}
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		v.AddConfigPath(filepath.Join(xdg, "taskdeck"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "taskdeck"))
	}
	return v
}

// Load reads the config file if there is one and decodes the result.
// A missing file is not an error; defaults and env still apply.
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Default returns the configuration with nothing but defaults applied
func Default() *Config {
	v := viper.New()
	SetDefaults(v)
	cfg := &Config{}
	_ = v.Unmarshal(cfg)
	return cfg
}
