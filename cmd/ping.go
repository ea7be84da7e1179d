// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/espbus/pkg/esp"
)

var (
	pingTimeout int
	pingCount   int
	pingDest    string
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Measure round trips to a device",
	Long: `Send reqBatteryVoltage to the detector repeatedly and time each answer.

This command tests bidirectional communication through the link, including
Bluetooth SPP and WebSocket bridges.

Exit codes:
  0 - All pings successful
  1 - One or more pings failed/timed out
  2 - Connection error`,
	RunE: runPing,
}

func init() {
	rootCmd.AddCommand(pingCmd)
	pingCmd.Flags().IntVar(&pingTimeout, "timeout", 2, "Timeout in seconds for each ping")
	pingCmd.Flags().IntVar(&pingCount, "count", 3, "Number of pings to send")
	pingCmd.Flags().StringVar(&pingDest, "dest", "V1 with checksum", "Destination device")
}

func runPing(cmd *cobra.Command, args []string) error {
	dest, ok := esp.ParseDevice(pingDest)
	if !ok {
		return fmt.Errorf("unknown device %q", pingDest)
	}

	ctx := cmd.Context()
	b, err := startBus(ctx, busOptions{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer b.queue.Close()

	fmt.Printf("espbus - Ping\n")
	fmt.Printf("Connection: %s\n", b.info)
	fmt.Printf("Timeout: %d seconds per ping\n", pingTimeout)
	fmt.Printf("Count: %d pings\n\n", pingCount)

	successCount := 0
	failCount := 0
	var total time.Duration

	for i := 1; i <= pingCount; i++ {
		fmt.Printf("Ping %d/%d: ", i, pingCount)

		start := time.Now()
		packets, err := b.ask(ctx, query{request: esp.PacketReqBatteryVoltage, dest: dest}, time.Duration(pingTimeout)*time.Second)
		if err != nil {
			fmt.Printf("FAILED: %v\n", err)
			failCount++
		} else {
			rtt := time.Since(start)
			total += rtt
			volts := packets[0].(*esp.BatteryVoltageResponse).Voltage()
			fmt.Printf("reply from %s, battery=%.2fV, rtt=%v\n", packets[0].Origin(), volts, rtt.Round(time.Millisecond))
			successCount++
		}

		if i < pingCount {
			time.Sleep(100 * time.Millisecond)
		}
	}

	fmt.Printf("\n--- Ping statistics ---\n")
	fmt.Printf("%d pings sent, %d responses received, %.0f%% packet loss\n",
		pingCount, successCount, float64(failCount)/float64(pingCount)*100)
	if successCount > 0 {
		fmt.Printf("average rtt %v\n", (total / time.Duration(successCount)).Round(time.Millisecond))
	}

	if failCount > 0 {
		os.Exit(1)
	}
	return nil
}
