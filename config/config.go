// Package config aggregates this module's logging, telemetry, and
// connection defaults into one YAML/env-loadable document, the way the
// teacher's pkg/config aggregates its own server-side sections.
package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/arterrin/lvrpc/conn"
	"github.com/arterrin/lvrpc/internal/logger"
	"github.com/arterrin/lvrpc/internal/telemetry"
)

// Config is the top-level document lvshell (or any embedder) loads once at
// startup.
//
// Configuration sources, in precedence order: CLI flags (applied by the
// caller after Load returns), LVRPC_-prefixed environment variables,
// the YAML file at the given path, then these defaults.
type Config struct {
	Logging   logger.Config    `mapstructure:"logging"`
	Telemetry telemetry.Config `mapstructure:"telemetry"`
	Conn      conn.Config      `mapstructure:"conn"`
}

// DefaultConfig returns the configuration used when no file or env override
// is present.
func DefaultConfig() Config {
	return Config{
		Logging:   logger.Config{Level: "INFO", Format: "text", Output: "stdout"},
		Telemetry: telemetry.DefaultConfig(),
		Conn:      conn.DefaultConfig(),
	}
}

// Load reads path (if non-empty) plus LVRPC_-prefixed environment variables
// over DefaultConfig, and validates the connection section (the only one
// with required fields).
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("LVRPC")
	v.AutomaticEnv()

	def := DefaultConfig()
	v.SetDefault("logging.level", def.Logging.Level)
	v.SetDefault("logging.format", def.Logging.Format)
	v.SetDefault("logging.output", def.Logging.Output)
	v.SetDefault("telemetry.enabled", def.Telemetry.Enabled)
	v.SetDefault("telemetry.servicename", def.Telemetry.ServiceName)
	v.SetDefault("telemetry.endpoint", def.Telemetry.Endpoint)
	v.SetDefault("conn.default_uri", def.Conn.DefaultURI)
	v.SetDefault("conn.dial_timeout", def.Conn.DialTimeout)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var cfg Config
	hook := mapstructure.ComposeDecodeHookFunc(mapstructure.StringToTimeDurationHookFunc())
	if err := v.Unmarshal(&cfg, viper.DecodeHook(hook)); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}

	if err := validator.New().Struct(cfg.Conn); err != nil {
		return Config{}, fmt.Errorf("config: invalid conn section: %w", err)
	}
	return cfg, nil
}
