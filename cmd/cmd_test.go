// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thermoquad/espbus/internal/config"
	"github.com/Thermoquad/espbus/internal/session"
	"github.com/Thermoquad/espbus/pkg/esp"
)

// demoConfig points the package configuration at the simulated bus
func demoConfig(t *testing.T) {
	t.Helper()
	chdirTemp(t)
	loaded, err := config.Load(config.New(), "")
	require.NoError(t, err)
	loaded.Demo.Enabled = true
	cfg = loaded
	t.Cleanup(func() { cfg = nil })
}

func TestQueries_HaveResponses(t *testing.T) {
	for _, name := range queryNames() {
		q := queries[name]
		_, ok := esp.ResponseFor(q.request)
		assert.True(t, ok, name)
	}
	assert.Equal(t, "battery", queryNames()[0])
}

func TestBus_AskDemo(t *testing.T) {
	demoConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b, err := startBus(ctx, busOptions{})
	require.NoError(t, err)
	assert.Contains(t, b.info, "built-in session")

	packets, err := b.ask(ctx, queries["version"], time.Second)
	require.NoError(t, err)
	require.Len(t, packets, 1)
	assert.Equal(t, "V4.1036", packets[0].(*esp.VersionResponse).Version())
	assert.Equal(t, esp.DeviceV1Connect, packets[0].Destination())

	packets, err = b.ask(ctx, queries["sweeps"], time.Second)
	require.NoError(t, err)
	assert.Len(t, packets, 6)

	packets, err = b.ask(ctx, queries["speed"], time.Second)
	require.NoError(t, err)
	assert.Equal(t, esp.DeviceSavvy, packets[0].Origin())

	cancel()
	assert.NoError(t, b.Wait())
}

func TestBus_DemoScript(t *testing.T) {
	demoConfig(t)
	script := &session.Script{
		Responses: []session.ScriptResponse{
			{ID: "respBatteryVoltage", Origin: "V1 with checksum", Payload: "0C 05"},
		},
	}
	data, err := script.Marshal()
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "session.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	cfg.Demo.Script = path

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	b, err := startBus(ctx, busOptions{})
	require.NoError(t, err)

	packets, err := b.ask(ctx, queries["battery"], time.Second)
	require.NoError(t, err)
	assert.InDelta(t, 12.05, packets[0].(*esp.BatteryVoltageResponse).Voltage(), 0.001)

	_, err = b.ask(ctx, queries["version"], 100*time.Millisecond)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestBus_RouteToCapturedDetector(t *testing.T) {
	demoConfig(t)
	script := &session.Script{
		Responses: []session.ScriptResponse{
			{ID: "respVersion", Origin: "V1 without checksum", Text: "V3.8920"},
		},
	}
	data, err := script.Marshal()
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "session.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	cfg.Demo.Script = path

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	b, err := startBus(ctx, busOptions{})
	require.NoError(t, err)

	_, err = b.ask(ctx, queries["version"], 100*time.Millisecond)
	assert.True(t, errors.Is(err, context.DeadlineExceeded), "the simulator only answers the captured address")

	q := b.route(queries["version"])
	assert.Equal(t, esp.DeviceV1WithoutChecksum, q.dest)
	packets, err := b.ask(ctx, q, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "V3.8920", packets[0].(*esp.VersionResponse).Version())

	assert.Equal(t, esp.DeviceSavvy, b.route(queries["speed"]).dest)
}

func TestBus_SetBand(t *testing.T) {
	demoConfig(t)
	settle := controlSettle
	controlSettle = 50 * time.Millisecond
	t.Cleanup(func() { controlSettle = settle })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	b, err := startBus(ctx, busOptions{})
	require.NoError(t, err)

	require.NoError(t, b.setBand(ctx, esp.DeviceV1WithChecksum, []string{"x", "off"}))

	packets, err := b.ask(ctx, queries["settings"], time.Second)
	require.NoError(t, err)
	settings := packets[0].(*esp.UserBytesResponse).Settings()
	assert.False(t, settings.XBand())
	assert.True(t, settings.KBand())

	assert.Error(t, b.setBand(ctx, esp.DeviceV1WithChecksum, []string{"q", "on"}))
}

func TestControlRequest(t *testing.T) {
	app, dest := esp.DeviceV1Connect, esp.DeviceV1WithChecksum

	tests := []struct {
		args []string
		want esp.PacketID
	}{
		{[]string{"mute-on"}, esp.PacketReqMuteOn},
		{[]string{"display-off"}, esp.PacketReqTurnOffMainDisplay},
		{[]string{"alerts-on"}, esp.PacketReqStartAlertData},
		{[]string{"default-sweeps"}, esp.PacketReqDefaultSweeps},
		{[]string{"mode", "3"}, esp.PacketReqChangeMode},
		{[]string{"volume", "7", "2"}, esp.PacketReqWriteVolume},
		{[]string{"thumbwheel", "auto"}, esp.PacketReqOverrideThumbwheel},
		{[]string{"savvy-unmute", "on"}, esp.PacketReqSetSavvyUnmuteEnable},
	}
	for _, tt := range tests {
		p, err := controlRequest(app, dest, tt.args)
		require.NoError(t, err, tt.args)
		assert.Equal(t, tt.want, p.ID(), tt.args)
		assert.Equal(t, dest, p.Destination())
	}

	p, err := controlRequest(app, dest, []string{"mode", "2"})
	require.NoError(t, err)
	assert.Equal(t, esp.ModeLogic, p.(*esp.ChangeModeRequest).Mode())

	p, err = controlRequest(app, dest, []string{"volume", "9", "0"})
	require.NoError(t, err)
	assert.Equal(t, esp.Volume{Main: 9, Muted: 0}, p.(*esp.WriteVolumeRequest).Volume())

	for _, args := range [][]string{
		{"mode", "4"},
		{"mode"},
		{"volume", "10", "1"},
		{"thumbwheel", "fast"},
		{"savvy-unmute", "maybe"},
		{"mute-on", "now"},
		{"selfdestruct"},
	} {
		_, err := controlRequest(app, dest, args)
		assert.Error(t, err, args)
	}
}

func TestDiscoveryTargets(t *testing.T) {
	targets := discoveryTargets(esp.DeviceV1Connect)
	assert.Contains(t, targets, esp.DeviceSavvy)
	assert.Contains(t, targets, esp.DeviceV1WithChecksum)
	assert.NotContains(t, targets, esp.DeviceV1Connect)
	assert.NotContains(t, targets, esp.DeviceGeneralBroadcast)
}

func TestParseOnOff(t *testing.T) {
	on, err := parseOnOff("ON")
	require.NoError(t, err)
	assert.True(t, on)

	on, err = parseOnOff("no")
	require.NoError(t, err)
	assert.False(t, on)

	_, err = parseOnOff("sometimes")
	assert.Error(t, err)
}

func TestFormatAgo(t *testing.T) {
	assert.Equal(t, "now", formatAgo(200*time.Millisecond))
	assert.Equal(t, "42s ago", formatAgo(42*time.Second))
	assert.Equal(t, "3m ago", formatAgo(3*time.Minute+10*time.Second))
	assert.Equal(t, "2h ago", formatAgo(2*time.Hour))
}

func TestModel_Update(t *testing.T) {
	m := initialModel("Demo: test", false)

	// Errors before the first packet are line noise
	next, _ := m.Update(decodeErrMsg{err: esp.ErrChecksum})
	m = next.(model)
	assert.Equal(t, uint64(0), m.stats.TotalPackets)

	version, err := esp.NewVersionResponse(esp.DeviceV1WithChecksum, esp.DeviceV1Connect, "V4.1036")
	require.NoError(t, err)
	next, _ = m.Update(busPacketMsg{packet: version})
	m = next.(model)
	assert.True(t, m.synchronized)
	assert.Equal(t, "V4.1036", m.devices[esp.DeviceV1WithChecksum].version)

	display := esp.NewDisplayData(esp.DeviceV1WithChecksum, esp.DeviceGeneralBroadcast, esp.DisplayData{SignalBar: 0x07})
	next, _ = m.Update(busPacketMsg{packet: display})
	m = next.(model)
	require.NotNil(t, m.lastDisplay)
	assert.Equal(t, 3, m.lastDisplay.SignalStrength())

	next, _ = m.Update(decodeErrMsg{err: esp.ErrChecksum})
	m = next.(model)
	assert.Equal(t, uint64(3), m.stats.TotalPackets)
	assert.Equal(t, uint64(1), m.stats.ChecksumErrors)

	rows := m.deviceRows()
	require.Len(t, rows, 1)
	assert.Equal(t, "V1 with checksum", rows[0][0])
	assert.Equal(t, "V4.1036", rows[0][1])
	assert.Equal(t, "2", rows[0][3])

	assert.Contains(t, m.View(), "ESPBUS - BUS MONITOR")
}

func TestModel_LogIsBounded(t *testing.T) {
	m := initialModel("", true)
	for i := 0; i < m.maxLogEntries+10; i++ {
		m.addLogEntry("event", false)
	}
	assert.Len(t, m.eventLog, m.maxLogEntries)
}

// chdirTemp changes the working directory to a fresh temporary directory
// for the duration of the test, restoring it on cleanup (like t.Chdir).
func chdirTemp(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
