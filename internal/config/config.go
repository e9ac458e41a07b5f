// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

// Package config loads and validates the Gatehouse service configuration.
// Values are merged from defaults, an optional YAML file, GATEHOUSE_*
// environment variables, and command-line flags, in that order.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/gatehouse/gatehouse/internal/token"
)

// envPrefix is stripped from environment variables before merging.
// A double underscore separates nesting levels, so GATEHOUSE_TOKEN__SECRET
// maps to token.secret.
const envPrefix = "GATEHOUSE_"

// Config is the root service configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server" json:"server"`
	Database DatabaseConfig `koanf:"database" json:"database"`
	Token    TokenConfig    `koanf:"token" json:"token"`
	Log      LogConfig      `koanf:"log" json:"log"`
}

// ServerConfig holds the listen addresses.
type ServerConfig struct {
	// Addr is the public API listen address.
	Addr string `koanf:"addr" json:"addr"`
	// MetricsAddr is the observability listen address. Empty disables
	// the metrics server.
	MetricsAddr string `koanf:"metrics_addr" json:"metrics_addr"`
}

// DatabaseConfig holds the PostgreSQL connection settings.
type DatabaseConfig struct {
	URL string `koanf:"url" json:"url"`
}

// TokenConfig holds the access token signing settings.
type TokenConfig struct {
	Secret string        `koanf:"secret" json:"secret"`
	Issuer string        `koanf:"issuer" json:"issuer"`
	TTL    time.Duration `koanf:"ttl" json:"ttl" jsonschema:"type=string"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `koanf:"level" json:"level" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`
	Format string `koanf:"format" json:"format" jsonschema:"enum=text,enum=json"`
}


func defaults() map[string]any {
	return map[string]any{
		"server.addr":         ":8080",
		"server.metrics_addr": ":9090",
		"database.url":        "",
		"token.secret":        "",
		"token.issuer":        "gatehouse",
		"token.ttl":           "1h",
		"log.level":           "info",
		"log.format":          "text",
	}
}

// Load merges configuration from all sources. path may be empty, in which
// case no file is read; a non-empty path that does not exist is an error.
// flags may be nil.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, oops.Code("CONFIG_DEFAULTS_FAILED").Wrap(err)
	}

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, oops.Code("CONFIG_FILE_UNREADABLE").With("path", path).Wrap(err)
		}
		if err := ValidateSchema(raw); err != nil {
			return nil, oops.Code("CONFIG_SCHEMA_INVALID").
				With("path", path).
				With("detail", FormatSchemaError(err)).
				Wrap(err)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_FILE_INVALID").With("path", path).Wrap(err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envToKey), nil); err != nil {
		return nil, oops.Code("CONFIG_ENV_FAILED").Wrap(err)
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return nil, oops.Code("CONFIG_FLAGS_FAILED").Wrap(err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_UNMARSHAL_FAILED").Wrap(err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envToKey maps GATEHOUSE_TOKEN__SECRET to token.secret.
func envToKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// Validate checks the loaded configuration for values the service
// cannot run without.
func (c *Config) Validate() error {
	errb := oops.Code("CONFIG_INVALID")

	if c.Server.Addr == "" {
		return errb.Errorf("server.addr is required")
	}
	if c.Database.URL == "" {
		return errb.Errorf("database.url is required")
	}
	if len(c.Token.Secret) < token.MinSecretLen {
		return errb.Errorf("token.secret must be at least %d characters", token.MinSecretLen)
	}
	if c.Token.Issuer == "" {
		return errb.Errorf("token.issuer is required")
	}
	if c.Token.TTL <= 0 {
		return errb.Errorf("token.ttl must be positive")
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return errb.With("level", c.Log.Level).Errorf("log.level must be one of debug, info, warn, error")
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return errb.With("format", c.Log.Format).Errorf("log.format must be text or json")
	}

	return nil
}
