// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Thermoquad/espbus/internal/session"
	"github.com/Thermoquad/espbus/pkg/esp"
)

var demoDump string

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run every query against the simulated bus",
	Long: `Start the simulated bus and run each query against it, printing the answers.

The simulator answers from the built-in session unless --script or
--recording is given. A script is a YAML list of responses:

  device: V1Connect
  defaults: true
  responses:
    - id: respVersion
      origin: V1 with checksum
      text: V4.1028
    - id: respBatteryVoltage
      origin: V1 with checksum
      payload: 0D 32

Use --dump to write the simulator's state as a script after the run.`,
	RunE: runDemo,
}

func init() {
	rootCmd.AddCommand(demoCmd)
	demoCmd.Flags().StringVar(&demoDump, "dump", "", "Write the simulated session as a YAML script")
}

func runDemo(cmd *cobra.Command, args []string) error {
	cfg.Demo.Enabled = true

	ctx := cmd.Context()
	b, err := startBus(ctx, busOptions{})
	if err != nil {
		return err
	}
	defer b.queue.Close()

	fmt.Printf("espbus - Demo\n")
	fmt.Printf("Connection: %s\n\n", b.info)

	failed := 0
	for _, name := range queryNames() {
		q := b.route(queries[name])
		packets, err := b.ask(ctx, q, time.Second)
		if err != nil {
			fmt.Printf("%-9s \033[1;33m%v\033[0m\n\n", name, err)
			failed++
			continue
		}
		fmt.Printf("%-9s %d packet(s)\n", name, len(packets))
		for _, p := range packets {
			fmt.Print(esp.FormatPacket(p))
		}
		fmt.Println()
	}

	if demoDump != "" {
		script := session.NewScript(b.app, b.sim.Snapshot().Packets())
		data, err := script.Marshal()
		if err != nil {
			return err
		}
		if err := os.WriteFile(demoDump, data, 0o644); err != nil {
			return fmt.Errorf("failed to write script: %w", err)
		}
		logger.Info("script written", zap.String("path", demoDump), zap.Int("responses", len(script.Responses)))
	}

	if failed > 0 {
		fmt.Printf("%d of %d queries unanswered\n", failed, len(queries))
	}
	return nil
}
