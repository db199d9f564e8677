package conn

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Config is the connection-level configuration loaded from YAML plus
// LVRPC_-prefixed environment overrides, using viper+mapstructure+validator
// for loading and validation.
type Config struct {
	DefaultURI  string        `mapstructure:"default_uri" validate:"required"`
	DialTimeout time.Duration `mapstructure:"dial_timeout" validate:"required"`
	ReadOnly    bool          `mapstructure:"readonly"`

	TLS struct {
		CAFile     string `mapstructure:"ca_file"`
		CertFile   string `mapstructure:"cert_file"`
		KeyFile    string `mapstructure:"key_file"`
		ServerName string `mapstructure:"server_name"`
		Insecure   bool   `mapstructure:"insecure"`
	} `mapstructure:"tls"`
}

// DefaultConfig returns the config used when no file/env override is present.
func DefaultConfig() Config {
	return Config{
		DefaultURI:  "qemu+unix:///system",
		DialTimeout: 10 * time.Second,
	}
}

// LoadConfig reads configuration from path (if non-empty) plus
// LVRPC_-prefixed environment variables, falling back to DefaultConfig
// for anything unset, then validates the result.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("LVRPC")
	v.AutomaticEnv()

	def := DefaultConfig()
	v.SetDefault("default_uri", def.DefaultURI)
	v.SetDefault("dial_timeout", def.DialTimeout)
	v.SetDefault("readonly", def.ReadOnly)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("conn: read config %s: %w", path, err)
		}
	}

	var cfg Config
	decodeHook := mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
	)
	if err := v.Unmarshal(&cfg, viper.DecodeHook(decodeHook)); err != nil {
		return Config{}, fmt.Errorf("conn: decode config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("conn: invalid config: %w", err)
	}
	return cfg, nil
}

// ToOptions converts cfg into the Options Open needs.
func (cfg Config) ToOptions() Options {
	return Options{
		DialTimeout: cfg.DialTimeout,
		TLS: TLSOptions{
			CAFile:     cfg.TLS.CAFile,
			CertFile:   cfg.TLS.CertFile,
			KeyFile:    cfg.TLS.KeyFile,
			ServerName: cfg.TLS.ServerName,
			Insecure:   cfg.TLS.Insecure,
		},
	}
}
