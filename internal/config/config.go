// Package config loads the command line configuration: a YAML file
// overlaid with FILAMENT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "FILAMENT_"

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverSQLite3  = "sqlite3"
	DriverPostgres = "postgres"
	DriverPQ       = "pq"
	DriverPgxPool  = "pgxpool"
)

// Config is the command configuration.
type Config struct {
	Driver      string `yaml:"driver"`
	DSN         string `yaml:"dsn"`
	Definitions string `yaml:"definitions"`
	OpenAPI     string `yaml:"openapi"`
	Form        string `yaml:"form"`
	Record      string `yaml:"record"`
	Listen      string `yaml:"listen"`
	BasePath    string `yaml:"basePath"`
	LogLevel    string `yaml:"logLevel"`
	Output      string `yaml:"output"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Driver:   DriverSQLite,
		Listen:   ":8080",
		LogLevel: "info",
		Output:   "json",
	}
}

// Load reads path over the defaults, then applies the environment. An
// empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	return cfg.ApplyEnv(os.LookupEnv), nil
}

// ApplyEnv overrides every field with its FILAMENT_<NAME> variable, where
// NAME is the upper snake form of the YAML key.
func (c Config) ApplyEnv(lookup func(string) (string, bool)) Config {
	if lookup == nil {
		return c
	}
	for _, entry := range c.fields() {
		if value, ok := lookup(EnvPrefix + entry.env); ok {
			*entry.target = value
		}
	}
	return c
}

type field struct {
	env    string
	target *string
}

func (c *Config) fields() []field {
	return []field{
		{"DRIVER", &c.Driver},
		{"DSN", &c.DSN},
		{"DEFINITIONS", &c.Definitions},
		{"OPENAPI", &c.OpenAPI},
		{"FORM", &c.Form},
		{"RECORD", &c.Record},
		{"LISTEN", &c.Listen},
		{"BASE_PATH", &c.BasePath},
		{"LOG_LEVEL", &c.LogLevel},
		{"OUTPUT", &c.Output},
	}
}

// Validate reports every configuration problem at once.
func (c Config) Validate() error {
	var errs []error
	switch c.Driver {
	case DriverSQLite, DriverSQLite3, DriverPostgres, DriverPQ, DriverPgxPool:
	default:
		errs = append(errs, fmt.Errorf("config: unsupported driver %q", c.Driver))
	}
	if strings.TrimSpace(c.DSN) == "" {
		errs = append(errs, errors.New("config: dsn is required"))
	}
	if c.Definitions == "" && c.OpenAPI == "" {
		errs = append(errs, errors.New("config: definitions or openapi is required"))
	}
	if strings.TrimSpace(c.Form) == "" {
		errs = append(errs, errors.New("config: form is required"))
	}
	switch c.Output {
	case "", "json", "pretty":
	default:
		errs = append(errs, fmt.Errorf("config: unsupported output %q", c.Output))
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("config: log level: %w", err)
	}
	return level, nil
}
