// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gatehouse.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("GATEHOUSE_DATABASE__URL", "postgres://localhost:5432/gatehouse")
	t.Setenv("GATEHOUSE_TOKEN__SECRET", testSecret)

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, ":9090", cfg.Server.MetricsAddr)
	assert.Equal(t, "gatehouse", cfg.Token.Issuer)
	assert.Equal(t, time.Hour, cfg.Token.TTL)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfigFile(t, `
server:
  addr: ":9000"
database:
  url: postgres://db:5432/gatehouse
token:
  secret: `+testSecret+`
  ttl: 30m
log:
  format: json
`)

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, "postgres://db:5432/gatehouse", cfg.Database.URL)
	assert.Equal(t, 30*time.Minute, cfg.Token.TTL)
	assert.Equal(t, "json", cfg.Log.Format)
	// Untouched values keep their defaults.
	assert.Equal(t, ":9090", cfg.Server.MetricsAddr)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfigFile(t, `
database:
  url: postgres://file:5432/gatehouse
token:
  secret: `+testSecret+`
`)
	t.Setenv("GATEHOUSE_DATABASE__URL", "postgres://env:5432/gatehouse")

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "postgres://env:5432/gatehouse", cfg.Database.URL)
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("GATEHOUSE_DATABASE__URL", "postgres://env:5432/gatehouse")
	t.Setenv("GATEHOUSE_TOKEN__SECRET", testSecret)
	t.Setenv("GATEHOUSE_SERVER__ADDR", ":7000")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("server.addr", "", "listen address")
	require.NoError(t, flags.Parse([]string{"--server.addr=:7777"}))

	cfg, err := Load("", flags)
	require.NoError(t, err)

	assert.Equal(t, ":7777", cfg.Server.Addr)
}

func TestLoad_MissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), nil)
	require.Error(t, err)
}

func TestLoad_UnknownKeyRejected(t *testing.T) {
	path := writeConfigFile(t, `
databse:
  url: postgres://db:5432/gatehouse
`)

	_, err := Load(path, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema")

	// The formatted validation message rides along as error context so the
	// operator sees which key was rejected, not just that the file failed.
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok)
	assert.Equal(t, "CONFIG_SCHEMA_INVALID", oopsErr.Code())
	detail, _ := oopsErr.Context()["detail"].(string)
	assert.NotEmpty(t, detail)
	assert.NotContains(t, detail, "schema validation failed:")
}

func TestLoad_MalformedYAMLFails(t *testing.T) {
	path := writeConfigFile(t, "server: [unclosed")

	_, err := Load(path, nil)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Server:   ServerConfig{Addr: ":8080", MetricsAddr: ":9090"},
			Database: DatabaseConfig{URL: "postgres://localhost/gatehouse"},
			Token:    TokenConfig{Secret: testSecret, Issuer: "gatehouse", TTL: time.Hour},
			Log:      LogConfig{Level: "info", Format: "text"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"missing addr", func(c *Config) { c.Server.Addr = "" }, true},
		{"missing database url", func(c *Config) { c.Database.URL = "" }, true},
		{"short secret", func(c *Config) { c.Token.Secret = "short" }, true},
		{"missing issuer", func(c *Config) { c.Token.Issuer = "" }, true},
		{"zero ttl", func(c *Config) { c.Token.TTL = 0 }, true},
		{"negative ttl", func(c *Config) { c.Token.TTL = -time.Minute }, true},
		{"bad log level", func(c *Config) { c.Log.Level = "verbose" }, true},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, true},
		{"empty metrics addr ok", func(c *Config) { c.Server.MetricsAddr = "" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestEnvToKey(t *testing.T) {
	assert.Equal(t, "token.secret", envToKey("GATEHOUSE_TOKEN__SECRET"))
	assert.Equal(t, "server.metrics_addr", envToKey("GATEHOUSE_SERVER__METRICS_ADDR"))
}
