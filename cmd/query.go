// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/espbus/pkg/esp"
)

var (
	queryDest    string
	queryTimeout int
)

// quietPeriod ends a multi-packet answer once no further packet arrives
const quietPeriod = 500 * time.Millisecond

// query is a request that produces data
type query struct {
	request esp.PacketID
	dest    esp.Device
	many    bool // answered by a burst of packets
}

var queries = map[string]query{
	"version":  {request: esp.PacketReqVersion, dest: esp.DeviceV1WithChecksum},
	"serial":   {request: esp.PacketReqSerialNumber, dest: esp.DeviceV1WithChecksum},
	"settings": {request: esp.PacketReqUserBytes, dest: esp.DeviceV1WithChecksum},
	"sweeps":   {request: esp.PacketReqAllSweepDefinitions, dest: esp.DeviceV1WithChecksum, many: true},
	"defaults": {request: esp.PacketReqDefaultSweepDefinitions, dest: esp.DeviceV1WithChecksum, many: true},
	"sections": {request: esp.PacketReqSweepSections, dest: esp.DeviceV1WithChecksum, many: true},
	"maxsweep": {request: esp.PacketReqMaxSweepIndex, dest: esp.DeviceV1WithChecksum},
	"battery":  {request: esp.PacketReqBatteryVoltage, dest: esp.DeviceV1WithChecksum},
	"volume":   {request: esp.PacketReqCurrentVolume, dest: esp.DeviceV1WithChecksum},
	"savvy":    {request: esp.PacketReqSavvyStatus, dest: esp.DeviceSavvy},
	"speed":    {request: esp.PacketReqVehicleSpeed, dest: esp.DeviceSavvy},
}

func queryNames() []string {
	names := make([]string, 0, len(queries))
	for name := range queries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var queryCmd = &cobra.Command{
	Use:   "query <" + strings.Join(queryNames(), "|") + ">",
	Short: "Request data from a device and print the answer",
	Long: `Send one request on the bus and wait for the matching response.

Requests are addressed to the detector, except savvy and speed which go to
the SAVVY. Use --dest to address another device (e.g. "V1 without checksum"
for detectors that do not use checksums).

Multi-packet answers (sweeps, defaults, sections) are collected until the
bus has been quiet for half a second.

Exit codes:
  0 - Response received
  1 - Timeout, rejection or connection error`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: queryNames(),
	RunE:      runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringVar(&queryDest, "dest", "", "Destination device (default depends on the query)")
	queryCmd.Flags().IntVar(&queryTimeout, "timeout", 5, "Timeout in seconds to wait for the response")
}

func runQuery(cmd *cobra.Command, args []string) error {
	q, ok := queries[args[0]]
	if !ok {
		return fmt.Errorf("unknown query %q (use one of: %s)", args[0], strings.Join(queryNames(), ", "))
	}
	if queryDest != "" {
		dest, ok := esp.ParseDevice(queryDest)
		if !ok {
			return fmt.Errorf("unknown device %q", queryDest)
		}
		q.dest = dest
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	b, err := startBus(ctx, busOptions{})
	if err != nil {
		return err
	}
	if queryDest == "" {
		q = b.route(q)
	}

	packets, err := b.ask(ctx, q, time.Duration(queryTimeout)*time.Second)
	if err != nil {
		return err
	}
	for _, p := range packets {
		fmt.Print(esp.FormatPacket(p))
	}
	return nil
}

// ask sends q and waits up to timeout for its answer
func (b *bus) ask(ctx context.Context, q query, timeout time.Duration) ([]esp.Packet, error) {
	want, ok := esp.ResponseFor(q.request)
	if !ok {
		return nil, fmt.Errorf("%s has no response", q.request)
	}
	request, err := esp.NewRequest(q.request, b.app, q.dest)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if q.many {
		return b.queue.Collect(ctx, request, want, quietPeriod)
	}
	p, err := b.queue.Exchange(ctx, request, want)
	if err != nil {
		return nil, err
	}
	return []esp.Packet{p}, nil
}
