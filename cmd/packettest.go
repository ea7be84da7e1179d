// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
)

var (
	packetTestTimeout int
)

var packetTestCmd = &cobra.Command{
	Use:   "packet_test",
	Short: "Test connection by waiting for a valid ESP packet",
	Long: `Wait for a valid ESP packet on the connection until timeout.

This command connects to a serial port or WebSocket and waits for any valid
ESP packet. It ignores invalid bytes and waits for a complete, valid packet
(passing the checksum when the addressed devices use one).

Exit codes:
  0 - Packet received before timeout
  1 - Timeout reached without receiving a valid packet
  2 - Connection error

Useful for testing connectivity to a detector or Bluetooth bridge.`,
	RunE: runPacketTest,
}

func init() {
	rootCmd.AddCommand(packetTestCmd)
	packetTestCmd.Flags().IntVar(&packetTestTimeout, "timeout", 10, "Timeout in seconds to wait for a packet")
}

func runPacketTest(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), time.Duration(packetTestTimeout)*time.Second)
	defer cancel()

	var rejected atomic.Int64
	b, err := startBus(ctx, busOptions{
		onError:   func(error) { rejected.Add(1) },
		broadcast: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}

	fmt.Printf("espbus - Packet Test\n")
	fmt.Printf("Connection: %s\n", b.info)
	fmt.Printf("Timeout: %d seconds\n", packetTestTimeout)
	fmt.Printf("Waiting for valid ESP packet...\n\n")

	p, err := b.queue.PopInbound(ctx)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			fmt.Fprintf(os.Stderr, "TIMEOUT: No valid packet received within %d seconds\n", packetTestTimeout)
			os.Exit(1)
		}
		if werr := b.Wait(); werr != nil {
			err = werr
		}
		fmt.Fprintf(os.Stderr, "Read error: %v\n", err)
		os.Exit(2)
	}

	if n := rejected.Load(); n > 0 {
		fmt.Printf("(rejected %d frames before sync)\n", n)
	}
	fmt.Printf("SUCCESS: Received valid packet\n")
	fmt.Printf("  Type: %s (0x%02X)\n", p.ID(), p.RawID())
	fmt.Printf("  Route: %s -> %s\n", p.Origin(), p.Destination())
	fmt.Printf("  Length: %d bytes\n", p.PayloadLength())
	if p.HasChecksum() {
		fmt.Printf("  Checksum: 0x%02X\n", p.Checksum())
	}
	os.Exit(0)
	return nil
}
