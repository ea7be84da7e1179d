// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/espbus/internal/queue"
	"github.com/Thermoquad/espbus/pkg/esp"
)

var (
	showAll       bool
	statsInterval int
)

var monitorCmd = &cobra.Command{
	Use:     "monitor",
	Aliases: []string{"raw_log"},
	Short:   "Display decoded bus traffic in human-readable format",
	Long: `Continuously decode and display ESP packets as they arrive.

Each packet is shown with timestamp, packet id, addresses and decoded payload.
Packets are validated as they arrive and anomalies are highlighted:
  - Checksum errors and framing failures
  - Payload length mismatches for fixed-width packets
  - Inverted sweep edges and out-of-range alert indexes

Use --show-all=false to display only errors. Statistics are printed at the
configured interval.

Supports serial, WebSocket and demo connections.`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
	monitorCmd.Flags().BoolVar(&showAll, "show-all", true, "Show all packets (not just errors)")
	monitorCmd.Flags().IntVar(&statsInterval, "stats-interval", 0, "Statistics interval in seconds (0 disables)")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	b, err := startBus(ctx, busOptions{
		onError:   printDecodeError,
		broadcast: true,
	})
	if err != nil {
		return err
	}

	fmt.Printf("espbus - Bus Monitor\n")
	fmt.Printf("Connection: %s\n", b.info)
	fmt.Printf("Press Ctrl+C to exit\n\n")

	if statsInterval > 0 {
		go printStatsEvery(ctx, b, time.Duration(statsInterval)*time.Second)
	}

	for {
		p, err := b.queue.PopInbound(ctx)
		if err != nil {
			if errors.Is(err, queue.ErrClosed) || ctx.Err() != nil {
				break
			}
			return err
		}

		anomalies := esp.ValidatePacket(p)
		if len(anomalies) > 0 {
			printValidationErrors(p, anomalies)
		} else if showAll {
			fmt.Print(esp.FormatPacket(p))
		}
	}

	if stats, ok := b.Stats(); ok {
		fmt.Println()
		fmt.Print(stats.String())
	}
	return b.Wait()
}

func printStatsEvery(ctx context.Context, b *bus, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if stats, ok := b.Stats(); ok {
				fmt.Println()
				fmt.Print(stats.String())
				fmt.Println()
			}
		}
	}
}

// printDecodeError prints a rejected frame in highlighted format
func printDecodeError(err error) {
	timestamp := time.Now().Format("15:04:05.000")
	fmt.Printf("[%s] \033[1;31mDECODE ERROR:\033[0m %v\n", timestamp, err)

	var frameErr *esp.FrameError
	if errors.As(err, &frameErr) && len(frameErr.Raw) > 0 {
		fmt.Printf("  Frame: %s\n", esp.HexDump(frameErr.Raw, 9))
	}
	fmt.Printf("  >>> FRAME REJECTED <<<\n\n")
}

// printValidationErrors prints the anomalies found in a decoded packet
func printValidationErrors(p esp.Packet, anomalies []esp.ValidationError) {
	timestamp := p.Timestamp().Format("15:04:05.000")

	fmt.Printf("[%s] \033[1;33mVALIDATION ERROR:\033[0m %s (0x%02X) %s -> %s\n",
		timestamp, p.ID(), p.RawID(), p.Origin(), p.Destination())
	if p.HasChecksum() {
		fmt.Printf("  Checksum: \033[1;32mOK\033[0m\n")
	}

	for i, a := range anomalies {
		switch a.Type {
		case esp.AnomalyLengthMismatch:
			fmt.Printf("  Issue %d: \033[1;31m%s\033[0m\n", i+1, a.Message)
			if received, ok := a.Details["length"].(int); ok {
				if expected, ok := a.Details["expected"].(int); ok {
					fmt.Printf("    Length: received=%d, expected=%d\n", received, expected)
				}
			}
		case esp.AnomalyInvalidCount, esp.AnomalyChecksumError, esp.AnomalyDecodeError:
			fmt.Printf("  Issue %d: \033[1;31m%s\033[0m\n", i+1, a.Message)
		default:
			fmt.Printf("  Issue %d: \033[1;33m%s\033[0m\n", i+1, a.Message)
		}
	}

	fmt.Print(esp.FormatPayload(p))
	fmt.Printf("  >>> PACKET FLAGGED <<<\n\n")
}
