// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/Thermoquad/espbus/internal/config"
	"github.com/Thermoquad/espbus/internal/logging"
)

var (
	cfgFile string
	v       = config.New()

	// Set by the root command before any subcommand runs
	cfg    *config.Config
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "espbus",
	Short: "Escort Serial Protocol bus tool",
	Long: `espbus - A CLI tool for talking to radar detectors and accessories over
the Escort Serial Protocol (ESP).

Provides commands for monitoring bus traffic, querying devices, recording
sessions and replaying them through a simulated bus.

Connection modes:
  Serial:    --port /dev/ttyUSB0 [--baud 19200]
  WebSocket: --url ws://host/path [--username user]
  Demo:      --demo [--script session.yaml | --recording session.cbor]

Use --framing spp for Bluetooth SPP bridges that delimit packets with 0x7F.

For WebSocket authentication, the password is read from the ESPBUS_PASSWORD
environment variable, or prompted interactively if not set. The --password
flag is intentionally not provided to avoid leaking credentials in shell history.

Every flag can also be set in espbus.yaml or as an ESPBUS_ environment
variable (e.g. ESPBUS_LINK_PORT).`,
	Version:           "0.3.0",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "Config file (default ./espbus.yaml)")

	// Serial connection flags
	flags.StringP("port", "p", "", "Serial port device")
	flags.IntP("baud", "b", 19200, "Baud rate (serial only)")
	flags.String("framing", config.FramingRaw, "Link framing: raw or spp")

	// WebSocket connection flags
	flags.StringP("url", "u", "", "WebSocket URL (ws:// or wss://)")
	flags.String("username", "", "Username for HTTP Basic auth")
	flags.Bool("no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")

	// Demo flags
	flags.Bool("demo", false, "Use the simulated bus instead of a connection")
	flags.String("script", "", "Demo script (YAML)")
	flags.String("recording", "", "Demo recording (CBOR)")

	flags.String("device", "V1Connect", "Device this tool speaks as")
	flags.String("log-level", "info", "Log level: debug, info, warn, error")
	flags.String("log-format", "console", "Log format: console or json")
	flags.String("log-file", "", "Also log to this file (rotated)")
	flags.String("metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9100)")

	bind := map[string]string{
		"link.port":             "port",
		"link.baud":             "baud",
		"link.framing":          "framing",
		"link.url":              "url",
		"link.username":         "username",
		"link.no_ssl_verify":    "no-ssl-verify",
		"demo.enabled":          "demo",
		"demo.script":           "script",
		"demo.recording":        "recording",
		"app.device":            "device",
		"logging.level":         "log-level",
		"logging.format":        "log-format",
		"logging.file.filename": "log-file",
		"metrics.addr":          "metrics-addr",
	}
	for key, name := range bind {
		mustBind(v, key, rootCmd, name)
	}
}

func mustBind(v *viper.Viper, key string, cmd *cobra.Command, name string) {
	if err := v.BindPFlag(key, cmd.PersistentFlags().Lookup(name)); err != nil {
		panic(fmt.Sprintf("bind %s: %v", name, err))
	}
}

func setup(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(v, cfgFile)
	if err != nil {
		return err
	}

	logger, err = logging.InitLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger.Debug("configuration loaded",
		zap.String("config", v.ConfigFileUsed()),
		zap.String("device", cfg.App.Device),
		zap.Bool("demo", cfg.Demo.Enabled))
	return nil
}

// Execute runs the root command
func Execute() error {
	defer func() { _ = logger.Sync() }()
	return rootCmd.Execute()
}
