// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package demo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thermoquad/espbus/internal/queue"
	"github.com/Thermoquad/espbus/pkg/esp"
)

const (
	v1  = esp.DeviceV1WithChecksum
	app = esp.DeviceV1Connect
)

func request(t *testing.T, id esp.PacketID, origin, destination esp.Device) esp.Packet {
	t.Helper()
	p, err := esp.NewRequest(id, origin, destination)
	require.NoError(t, err)
	return p
}

func drain(q *queue.Queue) []esp.Packet {
	var packets []esp.Packet
	for {
		p, ok := q.TryPopInbound()
		if !ok {
			return packets
		}
		packets = append(packets, p)
	}
}

func TestSimulator_ReplayToSameDeviceReturnsCapturedPacket(t *testing.T) {
	q := queue.New()
	sim := New(q)

	captured, err := esp.NewVersionResponse(v1, app, "V4.1028")
	require.NoError(t, err)
	sim.HandlePacket(captured)
	assert.Empty(t, drain(q), "capturing must not push anything")

	sim.HandlePacket(request(t, esp.PacketReqVersion, app, v1))
	replies := drain(q)
	require.Len(t, replies, 1)
	assert.Same(t, captured, replies[0])
}

func TestSimulator_ReplayRedirectsToRequester(t *testing.T) {
	q := queue.New()
	sim := New(q)
	sim.HandlePacket(esp.NewSerialNumberResponse(v1, app, "4100231057"))

	sim.HandlePacket(request(t, esp.PacketReqSerialNumber, esp.DeviceThirdParty1, v1))
	replies := drain(q)
	require.Len(t, replies, 1)
	assert.Equal(t, esp.DeviceThirdParty1, replies[0].Destination())
	assert.Equal(t, v1, replies[0].Origin())
	assert.Equal(t, "4100231057", replies[0].ResponseData())
}

func TestSimulator_VersionKeyedByDevice(t *testing.T) {
	q := queue.New()
	sim := New(q)
	v1Version, _ := esp.NewVersionResponse(v1, app, "V4.1028")
	savvyVersion, _ := esp.NewVersionResponse(esp.DeviceSavvy, app, "S3.0012")
	sim.HandlePacket(v1Version)
	sim.HandlePacket(savvyVersion)

	sim.HandlePacket(request(t, esp.PacketReqVersion, app, esp.DeviceSavvy))
	replies := drain(q)
	require.Len(t, replies, 1)
	assert.Equal(t, "S3.0012", replies[0].ResponseData())

	sim.HandlePacket(request(t, esp.PacketReqVersion, app, esp.DeviceRemoteAudio))
	assert.Empty(t, drain(q), "no version was captured for the remote audio")
}

func TestSimulator_OtherDetectorAddressPushesNothing(t *testing.T) {
	q := queue.New()
	sim := New(q)
	version, _ := esp.NewVersionResponse(v1, app, "V4.1028")
	sim.HandlePacket(version)
	sim.HandlePacket(esp.NewSerialNumberResponse(v1, app, "4100231057"))

	for _, d := range []esp.Device{esp.DeviceV1WithoutChecksum, esp.DeviceV1Legacy} {
		sim.HandlePacket(request(t, esp.PacketReqVersion, app, d))
		sim.HandlePacket(request(t, esp.PacketReqSerialNumber, app, d))
	}
	assert.Empty(t, drain(q), "nothing was captured for the other detector addresses")

	sim.HandlePacket(request(t, esp.PacketReqVersion, app, v1))
	replies := drain(q)
	require.Len(t, replies, 1)
	assert.Equal(t, "V4.1028", replies[0].ResponseData())
}

func TestSimulator_MissPushesNothing(t *testing.T) {
	q := queue.New()
	sim := New(q)
	for _, id := range []esp.PacketID{
		esp.PacketReqUserBytes, esp.PacketReqBatteryVoltage, esp.PacketReqAllSweepDefinitions,
		esp.PacketReqSweepSections, esp.PacketReqSavvyStatus,
	} {
		sim.HandlePacket(request(t, id, app, v1))
	}
	assert.Empty(t, drain(q))
}

func TestSimulator_SweepsReplayInOrder(t *testing.T) {
	q := queue.New()
	sim := New(q)
	for i := 0; i < 3; i++ {
		sim.HandlePacket(esp.NewSweepDefinitionResponse(v1, app, esp.SweepDefinition{Index: i, UpperEdge: uint16(34000 + i*100), LowerEdge: 33900}))
	}

	sim.HandlePacket(request(t, esp.PacketReqAllSweepDefinitions, app, v1))
	replies := drain(q)
	require.Len(t, replies, 3)
	for i, p := range replies {
		def := p.(*esp.SweepDefinitionResponse).Definition()
		assert.Equal(t, i, def.Index)
	}
}

func TestSimulator_PassThrough(t *testing.T) {
	q := queue.New()
	sim := New(q)
	alert := esp.NewAlertDataResponse(v1, app, esp.AlertData{Index: 1, Count: 1, Frequency: 34700, Bands: esp.BandKa})
	display := esp.NewDisplayData(v1, esp.DeviceGeneralBroadcast, esp.DisplayData{Aux0: 0x08})

	sim.HandlePacket(alert)
	sim.HandlePacket(display)

	replies := drain(q)
	require.Len(t, replies, 2)
	assert.Same(t, alert, replies[0])
	assert.Same(t, display, replies[1])
}

func TestSimulator_UserSettingsCallback(t *testing.T) {
	q := queue.New()
	var got []esp.UserSettings
	sim := New(q, WithUserSettingsHandler(func(s esp.UserSettings) {
		got = append(got, s)
	}))

	settings := esp.DefaultUserSettings()
	settings.SetKuBand(true)
	sim.HandlePacket(esp.NewUserBytesResponse(v1, app, settings))
	require.Len(t, got, 1)
	assert.True(t, got[0].KuBand())

	sim.HandlePacket(request(t, esp.PacketReqUserBytes, app, v1))
	replies := drain(q)
	require.Len(t, replies, 1)
	assert.Equal(t, settings, replies[0].(*esp.UserBytesResponse).Settings())
}

func TestSimulator_WriteUserBytes(t *testing.T) {
	q := queue.New()
	var got []esp.UserSettings
	sim := New(q, WithUserSettingsHandler(func(s esp.UserSettings) {
		got = append(got, s)
	}))

	settings := esp.DefaultUserSettings()
	settings.SetLaser(false)
	sim.HandlePacket(esp.NewWriteUserBytesRequest(app, v1, settings))
	require.Len(t, got, 1)
	assert.False(t, got[0].Laser())

	sim.HandlePacket(request(t, esp.PacketReqUserBytes, app, v1))
	replies := drain(q)
	require.Len(t, replies, 1)
	assert.Equal(t, v1, replies[0].Origin())
	assert.False(t, replies[0].(*esp.UserBytesResponse).Settings().Laser())
}

func TestSimulator_WriteSweepDefinitions(t *testing.T) {
	q := queue.New()
	sim := New(q)

	sim.HandlePacket(esp.NewWriteSweepDefinitionRequest(app, v1, esp.SweepDefinition{Index: 0, UpperEdge: 34800, LowerEdge: 34600}))
	assert.Empty(t, drain(q), "only the committing write is answered")
	sim.HandlePacket(esp.NewWriteSweepDefinitionRequest(app, v1, esp.SweepDefinition{Index: 1, Commit: true, UpperEdge: 35600, LowerEdge: 35400}))

	replies := drain(q)
	require.Len(t, replies, 1)
	result, ok := replies[0].(*esp.SweepWriteResultResponse)
	require.True(t, ok)
	assert.True(t, result.Result().Success)

	sim.HandlePacket(request(t, esp.PacketReqAllSweepDefinitions, app, v1))
	sweeps := drain(q)
	require.Len(t, sweeps, 2)
	assert.Equal(t, uint16(35600), sweeps[1].(*esp.SweepDefinitionResponse).Definition().UpperEdge)
	assert.False(t, sweeps[1].(*esp.SweepDefinitionResponse).Definition().Commit)
}

func TestSimulator_RestoreDefaultSweeps(t *testing.T) {
	q := queue.New()
	sim := New(q)
	sim.Load(DefaultSession(app))

	sim.HandlePacket(esp.NewWriteSweepDefinitionRequest(app, v1, esp.SweepDefinition{Index: 0, Commit: true, UpperEdge: 34800, LowerEdge: 34600}))
	drain(q)
	require.Len(t, sim.Snapshot().SweepDefinitions, 1)

	sim.HandlePacket(request(t, esp.PacketReqDefaultSweeps, app, v1))
	assert.Empty(t, drain(q))
	assert.Len(t, sim.Snapshot().SweepDefinitions, len(defaultSweeps))
}

func TestSimulator_InertRequests(t *testing.T) {
	q := queue.New()
	sim := New(q)
	sim.Load(DefaultSession(app))
	for _, id := range []esp.PacketID{
		esp.PacketReqMuteOn, esp.PacketReqMuteOff, esp.PacketReqTurnOffMainDisplay,
		esp.PacketReqTurnOnMainDisplay, esp.PacketReqFactoryDefault, esp.PacketReqStartAlertData,
	} {
		sim.HandlePacket(request(t, id, app, v1))
	}
	sim.HandlePacket(esp.NewChangeModeRequest(app, v1, esp.ModeLogic))
	assert.Empty(t, drain(q))
}

func TestSimulator_SnapshotRoundTrip(t *testing.T) {
	sim := New(queue.New())
	session := DefaultSession(app)
	sim.Load(session)

	snapshot := sim.Snapshot()
	assert.Len(t, snapshot.Versions, 2)
	assert.Len(t, snapshot.SweepDefinitions, len(defaultSweeps))
	assert.NotNil(t, snapshot.SavvyStatus)
	assert.Len(t, snapshot.Packets(), len(session))

	other := New(queue.New())
	other.Load(snapshot.Packets())
	assert.Equal(t, snapshot.Packets(), other.Snapshot().Packets())
}

func TestSimulator_Serve(t *testing.T) {
	q := queue.New()
	sim := New(q)
	sim.Load(DefaultSession(app))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sim.Serve(ctx) }()

	ctx2, cancel2 := context.WithTimeout(context.Background(), time.Second)
	defer cancel2()
	p, err := q.Exchange(ctx2, esp.NewVersionRequest(app, v1), esp.PacketRespVersion)
	require.NoError(t, err)
	assert.Equal(t, "V4.1036", p.ResponseData())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Serve did not stop")
	}
}

func TestSimulator_Broadcast(t *testing.T) {
	q := queue.New()
	sim := New(q)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	sim.Broadcast(ctx, 5*time.Millisecond)

	packets := drain(q)
	require.NotEmpty(t, packets)
	for _, p := range packets {
		assert.Equal(t, esp.PacketInfDisplayData, p.ID())
	}
}
