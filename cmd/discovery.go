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

var discoveryTimeout int

var discoveryCmd = &cobra.Command{
	Use:   "discovery",
	Short: "Discover devices on the bus",
	Long: `Ask every device address for its version and report who answers.

ESP has no discovery request: each address (concealed display, remote audio,
SAVVY, third-party devices and both detector addresses) is sent reqVersion
and reqSerialNumber in turn. Addresses that stay silent for --timeout are
reported as absent.

Exit codes:
  0 - Discovery successful (at least one device found)
  1 - Discovery failed (no devices answered)
  2 - Connection error`,
	RunE: runDiscovery,
}

func init() {
	rootCmd.AddCommand(discoveryCmd)
	discoveryCmd.Flags().IntVar(&discoveryTimeout, "timeout", 1, "Timeout in seconds per device")
}

// discoveryTargets are the addresses worth asking
func discoveryTargets(app esp.Device) []esp.Device {
	var targets []esp.Device
	for _, d := range esp.Devices() {
		switch d {
		case app, esp.DeviceGeneralBroadcast, esp.DeviceReserved:
			continue
		}
		targets = append(targets, d)
	}
	return targets
}

func runDiscovery(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	b, err := startBus(ctx, busOptions{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer b.queue.Close()

	fmt.Printf("espbus - Device Discovery\n")
	fmt.Printf("Connection: %s\n", b.info)
	fmt.Printf("Timeout: %d seconds per device\n\n", discoveryTimeout)

	timeout := time.Duration(discoveryTimeout) * time.Second
	found := 0
	for _, d := range discoveryTargets(b.app) {
		fmt.Printf("%-20s ", d.String()+":")

		packets, err := b.ask(ctx, query{request: esp.PacketReqVersion, dest: d}, timeout)
		if err != nil {
			fmt.Printf("-\n")
			continue
		}
		found++
		version := packets[0].(*esp.VersionResponse).Version()

		serial := "-"
		if packets, err := b.ask(ctx, query{request: esp.PacketReqSerialNumber, dest: d}, timeout); err == nil {
			serial = packets[0].(*esp.SerialNumberResponse).SerialNumber()
		}
		fmt.Printf("version %s, serial %s\n", version, serial)
	}

	if found == 0 {
		fmt.Printf("\nTIMEOUT: No devices responded\n")
		os.Exit(1)
	}
	fmt.Printf("\n%d device(s) found\n", found)
	return nil
}
