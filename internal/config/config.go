// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package config loads espbus settings from a YAML file, ESPBUS_ environment
// variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/Thermoquad/espbus/pkg/esp"
)

// EnvPrefix is the prefix of every environment override, e.g. ESPBUS_LINK_PORT
const EnvPrefix = "ESPBUS"

// DefaultFile is the config file read when --config is not given
const DefaultFile = "espbus.yaml"

// Framing modes
const (
	FramingSPP = "spp"
	FramingRaw = "raw"
)

// LinkConfig selects the transport
type LinkConfig struct {
	Port        string `mapstructure:"port"`
	Baud        int    `mapstructure:"baud"`
	URL         string `mapstructure:"url"`
	Username    string `mapstructure:"username"`
	NoSSLVerify bool   `mapstructure:"no_ssl_verify"`
	Framing     string `mapstructure:"framing"`
}

// DemoConfig enables the simulated bus
type DemoConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Script    string `mapstructure:"script"`
	Recording string `mapstructure:"recording"`
}

// LumberjackConfig configures log file rotation
type LumberjackConfig struct {
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// LoggingConfig configures the zap logger
type LoggingConfig struct {
	Level  string           `mapstructure:"level"`
	Format string           `mapstructure:"format"`
	File   LumberjackConfig `mapstructure:"file"`
}

// MetricsConfig configures the Prometheus endpoint. An empty address
// disables it.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
	Path string `mapstructure:"path"`
}

// AppConfig describes the application's own place on the bus
type AppConfig struct {
	Device string `mapstructure:"device"`
}

// Config is the top-level configuration
type Config struct {
	App     AppConfig     `mapstructure:"app"`
	Link    LinkConfig    `mapstructure:"link"`
	Demo    DemoConfig    `mapstructure:"demo"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// New creates a viper instance with defaults and environment overrides.
// Flags may be bound to it before calling Load.
func New() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the config file (path, or DefaultFile in the working
// directory) and unmarshals the merged settings. A missing default file is
// not an error; a missing explicit file is.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName(strings.TrimSuffix(DefaultFile, ".yaml"))
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that cannot be expressed as defaults
func (c *Config) Validate() error {
	switch strings.ToLower(c.Link.Framing) {
	case FramingSPP, FramingRaw:
	default:
		return fmt.Errorf("invalid link.framing %q (use %s or %s)", c.Link.Framing, FramingSPP, FramingRaw)
	}
	if _, err := c.AppDevice(); err != nil {
		return err
	}
	return nil
}

// AppDevice resolves app.device
func (c *Config) AppDevice() (esp.Device, error) {
	d, ok := esp.ParseDevice(c.App.Device)
	if !ok {
		return 0, fmt.Errorf("invalid app.device %q", c.App.Device)
	}
	return d, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.device", esp.DeviceV1Connect.String())

	v.SetDefault("link.port", "")
	v.SetDefault("link.baud", 19200)
	v.SetDefault("link.url", "")
	v.SetDefault("link.username", "")
	v.SetDefault("link.no_ssl_verify", false)
	v.SetDefault("link.framing", FramingRaw)

	v.SetDefault("demo.enabled", false)
	v.SetDefault("demo.script", "")
	v.SetDefault("demo.recording", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.file.filename", "")
	v.SetDefault("logging.file.max_size", 10)
	v.SetDefault("logging.file.max_backups", 3)
	v.SetDefault("logging.file.max_age", 14)
	v.SetDefault("logging.file.compress", false)

	v.SetDefault("metrics.addr", "")
	v.SetDefault("metrics.path", "/metrics")
}
