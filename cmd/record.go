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
	"go.uber.org/zap"

	"github.com/Thermoquad/espbus/internal/session"
)

var (
	recordOut      string
	recordDuration time.Duration
	recordTimeout  int
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Capture device responses into a replayable recording",
	Long: `Query every device on the bus and save the answers as a CBOR recording.

After the queries, bus traffic (display data, alerts) is captured for
--duration. The recording can be replayed with:

  espbus demo --recording session.cbor`,
	RunE: runRecord,
}

func init() {
	rootCmd.AddCommand(recordCmd)
	recordCmd.Flags().StringVarP(&recordOut, "out", "o", "session.cbor", "Output file")
	recordCmd.Flags().DurationVar(&recordDuration, "duration", 0, "Keep capturing bus traffic for this long after the queries")
	recordCmd.Flags().IntVar(&recordTimeout, "timeout", 2, "Per-query timeout in seconds")
}

func runRecord(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	b, err := startBus(ctx, busOptions{broadcast: true})
	if err != nil {
		return err
	}
	defer b.queue.Close()

	fmt.Printf("espbus - Record\n")
	fmt.Printf("Connection: %s\n", b.info)

	rec := session.NewRecording(b.app)
	for _, name := range queryNames() {
		packets, err := b.ask(ctx, queries[name], time.Duration(recordTimeout)*time.Second)
		if err != nil {
			logger.Warn("query unanswered", zap.String("query", name), zap.Error(err))
			continue
		}
		for _, p := range packets {
			rec.Add(p)
		}
		fmt.Printf("  %-9s %d packet(s)\n", name, len(packets))
	}

	if recordDuration > 0 {
		fmt.Printf("Capturing bus traffic for %s...\n", recordDuration)
		captureCtx, cancel := context.WithTimeout(ctx, recordDuration)
		defer cancel()
		for {
			p, err := b.queue.PopInbound(captureCtx)
			if err != nil {
				if captureCtx.Err() != nil {
					break
				}
				return err
			}
			if !p.ID().IsRequest() {
				rec.Add(p)
			}
		}
	}

	if len(rec.Frames) == 0 {
		return errors.New("nothing recorded")
	}
	if err := rec.WriteFile(recordOut); err != nil {
		return err
	}
	fmt.Printf("Recorded %d packets over %s to %s (session %s)\n",
		len(rec.Frames), rec.Duration().Round(time.Millisecond), recordOut, rec.ID)
	return nil
}
