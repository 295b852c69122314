// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

// Package config handles the configuration of the yukino command.
package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/dark-flames/yukino-dev-sub000/expr"
)

// Config represents the configuration of the yukino command.
type Config struct {
	// Driver is the database/sql driver name, "sqlite" by default.
	Driver string `toml:"driver" yaml:"driver"`

	// DSN is the data source name passed to the driver.
	DSN string `toml:"dsn" yaml:"dsn"`

	// Dialect is the SQL dialect statements are rendered in: mysql, sqlite
	// or postgres.
	Dialect string `toml:"dialect" yaml:"dialect"`

	// LogLevel is the minimum level of logged messages: debug, info, warn
	// or error.
	LogLevel string `toml:"log_level" yaml:"log_level"`
}

// Default returns the configuration used when no file is given: an
// in-memory SQLite database served by the pure Go driver.
func Default() *Config {
	return &Config{
		Driver:   "sqlite",
		DSN:      ":memory:",
		Dialect:  "sqlite",
		LogLevel: "info",
	}
}

// LoadFrom loads the configuration from path. The format is chosen by the
// file extension: .toml, .yaml or .yml. Settings missing from the file keep
// their default value.
func LoadFrom(path string) (*Config, error) {
	config := Default()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if _, err := toml.DecodeFile(path, config); err != nil {
			return nil, errors.Wrapf(err, "cannot parse config %s", path)
		}
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "cannot read config %s", path)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, errors.Wrapf(err, "cannot parse config %s", path)
		}
	default:
		return nil, errors.Errorf("cannot parse config %s: unknown format %q", path, ext)
	}
	if err := config.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid config %s", path)
	}
	return config, nil
}

// Load returns the configuration at path, or the default configuration if
// path is empty.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	return LoadFrom(path)
}

// Validate checks every setting can be used.
func (c *Config) Validate() error {
	if c.Driver == "" {
		return errors.New("driver is empty")
	}
	if _, err := c.SQLDialect(); err != nil {
		return err
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// SQLDialect returns the dialect named by c.Dialect.
func (c *Config) SQLDialect() (expr.Dialect, error) {
	return expr.DialectByName(c.Dialect)
}

// Level returns the log level named by c.LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, errors.Errorf("unknown log level %q", c.LogLevel)
	}
	return level, nil
}
