// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/espbus/internal/queue"
	"github.com/Thermoquad/espbus/pkg/esp"
)

var (
	controlDest   string
	controlSettle time.Duration
)

var controlCmd = &cobra.Command{
	Use:   "control <action> [args...]",
	Short: "Send a command to the detector or SAVVY",
	Long: `Send one command on the bus.

Actions:
  mute-on | mute-off           Mute or unmute the current alert
  display-on | display-off     Turn the main display on or off
  alerts-on | alerts-off       Start or stop alert data
  mode <1|2|3>                 All Bogeys, Logic or Advanced Logic
  volume <main> <muted>        Set main and muted volume (0-9)
  band <x|k|ka|ku|laser> <on|off>
                               Enable or disable a band (rewrites user bytes)
  factory-default              Restore factory settings
  default-sweeps               Restore the factory sweep definitions
  thumbwheel <kph|auto>        Override the SAVVY thumbwheel
  savvy-unmute <on|off>        Enable or disable SAVVY unmute

A command succeeds unless the addressed device rejects it within --settle.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runControl,
}

func init() {
	rootCmd.AddCommand(controlCmd)
	controlCmd.Flags().StringVar(&controlDest, "dest", "", "Destination device (default depends on the action)")
	controlCmd.Flags().DurationVar(&controlSettle, "settle", 500*time.Millisecond, "How long to watch for a rejection")
}

func runControl(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	b, err := startBus(ctx, busOptions{})
	if err != nil {
		return err
	}

	dest := esp.DeviceV1WithChecksum
	if args[0] == "thumbwheel" || args[0] == "savvy-unmute" {
		dest = esp.DeviceSavvy
	}
	if controlDest != "" {
		d, ok := esp.ParseDevice(controlDest)
		if !ok {
			return fmt.Errorf("unknown device %q", controlDest)
		}
		dest = d
	}

	if args[0] == "band" {
		return b.setBand(ctx, dest, args[1:])
	}

	request, err := controlRequest(b.app, dest, args)
	if err != nil {
		return err
	}
	if err := b.send(ctx, request); err != nil {
		return err
	}
	fmt.Printf("%s sent to %s\n", request.ID(), dest)
	return nil
}

// controlRequest builds the packet for a control action
func controlRequest(app, dest esp.Device, args []string) (esp.Packet, error) {
	action, params := args[0], args[1:]
	want := func(n int) error {
		if len(params) != n {
			return fmt.Errorf("%s takes %d argument(s)", action, n)
		}
		return nil
	}

	simple := map[string]esp.PacketID{
		"mute-on":         esp.PacketReqMuteOn,
		"mute-off":        esp.PacketReqMuteOff,
		"display-on":      esp.PacketReqTurnOnMainDisplay,
		"display-off":     esp.PacketReqTurnOffMainDisplay,
		"alerts-on":       esp.PacketReqStartAlertData,
		"alerts-off":      esp.PacketReqStopAlertData,
		"factory-default": esp.PacketReqFactoryDefault,
		"default-sweeps":  esp.PacketReqDefaultSweeps,
	}
	if id, ok := simple[action]; ok {
		if err := want(0); err != nil {
			return nil, err
		}
		return esp.NewRequest(id, app, dest)
	}

	switch action {
	case "mode":
		if err := want(1); err != nil {
			return nil, err
		}
		n, err := strconv.Atoi(params[0])
		if err != nil || n < int(esp.ModeAllBogeys) || n > int(esp.ModeAdvancedLogic) {
			return nil, fmt.Errorf("invalid mode %q (use 1, 2 or 3)", params[0])
		}
		return esp.NewChangeModeRequest(app, dest, esp.Mode(n)), nil

	case "volume":
		if err := want(2); err != nil {
			return nil, err
		}
		main, err1 := strconv.Atoi(params[0])
		muted, err2 := strconv.Atoi(params[1])
		if err1 != nil || err2 != nil || main < 0 || main > 9 || muted < 0 || muted > 9 {
			return nil, fmt.Errorf("invalid volume %s %s (use 0-9)", params[0], params[1])
		}
		return esp.NewWriteVolumeRequest(app, dest, esp.Volume{Main: byte(main), Muted: byte(muted)}), nil

	case "thumbwheel":
		if err := want(1); err != nil {
			return nil, err
		}
		if params[0] == "auto" {
			return esp.NewOverrideThumbwheelRequest(app, dest, esp.ThumbwheelAuto), nil
		}
		kph, err := strconv.Atoi(params[0])
		if err != nil || kph < 0 || kph >= esp.ThumbwheelAuto {
			return nil, fmt.Errorf("invalid speed %q (use 0-254 or auto)", params[0])
		}
		return esp.NewOverrideThumbwheelRequest(app, dest, kph), nil

	case "savvy-unmute":
		if err := want(1); err != nil {
			return nil, err
		}
		on, err := parseOnOff(params[0])
		if err != nil {
			return nil, err
		}
		return esp.NewSetSavvyUnmuteRequest(app, dest, on), nil
	}

	return nil, fmt.Errorf("unknown action %q", action)
}

// setBand rewrites the user bytes with one band toggled
func (b *bus) setBand(ctx context.Context, dest esp.Device, params []string) error {
	if len(params) != 2 {
		return errors.New("band takes 2 arguments")
	}
	on, err := parseOnOff(params[1])
	if err != nil {
		return err
	}

	q := queries["settings"]
	q.dest = dest
	packets, err := b.ask(ctx, q, 2*time.Second)
	if err != nil {
		return fmt.Errorf("read user bytes: %w", err)
	}
	settings := packets[0].(*esp.UserBytesResponse).Settings()

	switch strings.ToLower(params[0]) {
	case "x":
		settings.SetXBand(on)
	case "k":
		settings.SetKBand(on)
	case "ka":
		settings.SetKaBand(on)
	case "ku":
		settings.SetKuBand(on)
	case "laser":
		settings.SetLaser(on)
	default:
		return fmt.Errorf("unknown band %q", params[0])
	}

	if err := b.send(ctx, esp.NewWriteUserBytesRequest(b.app, dest, settings)); err != nil {
		return err
	}

	packets, err = b.ask(ctx, q, 2*time.Second)
	if err != nil {
		return fmt.Errorf("verify user bytes: %w", err)
	}
	fmt.Print(esp.FormatPacket(packets[0]))
	return nil
}

// send pushes a request and fails if the destination rejects it before the
// settle time passes.
func (b *bus) send(ctx context.Context, request esp.Packet) error {
	ctx, cancel := context.WithTimeout(ctx, controlSettle)
	defer cancel()

	_, err := b.queue.Exchange(ctx, request, esp.PacketRespDataReceived)
	switch {
	case err == nil, errors.Is(err, context.DeadlineExceeded):
		return nil
	case errors.Is(err, queue.ErrRejected):
		return err
	default:
		return fmt.Errorf("send %s: %w", request.ID(), err)
	}
}

func parseOnOff(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "true", "1", "yes":
		return true, nil
	case "off", "false", "0", "no":
		return false, nil
	}
	return false, fmt.Errorf("expected on or off, got %q", s)
}
