// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package demo simulates the detector side of the bus.
//
// The Simulator captures response packets (from a script, a recording or a
// live bus) and replays them when the matching request is sent, so the
// application can run without hardware.
package demo

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/Thermoquad/espbus/internal/queue"
	"github.com/Thermoquad/espbus/pkg/esp"
)

// Data is the captured simulator state
type Data struct {
	Versions                map[esp.Device]esp.Packet
	SerialNumbers           map[esp.Device]esp.Packet
	UserBytes               esp.Packet
	SweepDefinitions        []esp.Packet
	DefaultSweepDefinitions []esp.Packet
	SweepSections           []esp.Packet
	MaxSweepIndex           esp.Packet
	SweepWriteResult        esp.Packet
	BatteryVoltage          esp.Packet
	SavvyStatus             esp.Packet
	VehicleSpeed            esp.Packet
	CurrentVolume           esp.Packet
}

// Packets flattens the captured state into a packet list accepted by Load
func (d Data) Packets() []esp.Packet {
	var packets []esp.Packet
	for _, m := range []map[esp.Device]esp.Packet{d.Versions, d.SerialNumbers} {
		for _, device := range esp.Devices() {
			if p, ok := m[device]; ok {
				packets = append(packets, p)
			}
		}
		for _, device := range []esp.Device{esp.DeviceV1Legacy, esp.DeviceUnknown} {
			if p, ok := m[device]; ok {
				packets = append(packets, p)
			}
		}
	}
	packets = append(packets, d.SweepDefinitions...)
	packets = append(packets, d.DefaultSweepDefinitions...)
	packets = append(packets, d.SweepSections...)
	for _, p := range []esp.Packet{
		d.UserBytes, d.MaxSweepIndex, d.SweepWriteResult, d.BatteryVoltage,
		d.SavvyStatus, d.VehicleSpeed, d.CurrentVolume,
	} {
		if p != nil {
			packets = append(packets, p)
		}
	}
	return packets
}

// Option configures a Simulator
type Option func(*Simulator)

// WithLogger sets the simulator's logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Simulator) {
		s.logger = logger
	}
}

// WithUserSettingsHandler registers a callback invoked whenever new user
// settings are captured or written.
func WithUserSettingsHandler(fn func(esp.UserSettings)) Option {
	return func(s *Simulator) {
		s.onUserSettings = fn
	}
}

// Simulator answers requests from captured responses
type Simulator struct {
	queue          *queue.Queue
	logger         *zap.Logger
	onUserSettings func(esp.UserSettings)

	mu           sync.Mutex
	data         Data
	pendingSweep []esp.SweepDefinition
}

// New creates a simulator that pushes its replies onto q
func New(q *queue.Queue, opts ...Option) *Simulator {
	s := &Simulator{
		queue:  q,
		logger: zap.NewNop(),
		data: Data{
			Versions:      make(map[esp.Device]esp.Packet),
			SerialNumbers: make(map[esp.Device]esp.Packet),
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// HandlePacket applies one packet to the simulator: responses are captured,
// requests are answered from captured state, alert and display data pass
// straight through to the inbound queue.
func (s *Simulator) HandlePacket(p esp.Packet) {
	if p == nil {
		return
	}

	var replies []esp.Packet
	var settings *esp.UserSettings

	s.mu.Lock()
	switch v := p.(type) {
	// Capture
	case *esp.VersionResponse:
		s.data.Versions[p.Origin()] = p
	case *esp.SerialNumberResponse:
		s.data.SerialNumbers[p.Origin()] = p
	case *esp.UserBytesResponse:
		s.data.UserBytes = p
		us := v.Settings()
		settings = &us
	case *esp.SweepDefinitionResponse:
		s.data.SweepDefinitions = append(s.data.SweepDefinitions, p)
	case *esp.DefaultSweepDefinitionResponse:
		s.data.DefaultSweepDefinitions = append(s.data.DefaultSweepDefinitions, p)
	case *esp.SweepSectionsResponse:
		s.data.SweepSections = append(s.data.SweepSections, p)
	case *esp.MaxSweepIndexResponse:
		s.data.MaxSweepIndex = p
	case *esp.SweepWriteResultResponse:
		s.data.SweepWriteResult = p
	case *esp.BatteryVoltageResponse:
		s.data.BatteryVoltage = p
	case *esp.SavvyStatusResponse:
		s.data.SavvyStatus = p
	case *esp.VehicleSpeedResponse:
		s.data.VehicleSpeed = p
	case *esp.CurrentVolumeResponse:
		s.data.CurrentVolume = p

	// Pass-through
	case *esp.AlertDataResponse, *esp.DisplayDataInfo:
		replies = append(replies, p)

	// Write-through
	case *esp.WriteUserBytesRequest:
		us := v.Settings()
		s.data.UserBytes = esp.NewUserBytesResponse(p.Destination(), p.Origin(), us)
		settings = &us
	case *esp.WriteSweepDefinitionRequest:
		replies = append(replies, s.writeSweep(p, v.Definition())...)

	case *esp.Request:
		replies = append(replies, s.replay(p)...)

	default:
		s.logger.Debug("ignoring packet", zap.Stringer("id", p.ID()))
	}
	s.mu.Unlock()

	for _, r := range replies {
		s.queue.PushInbound(r)
	}
	if settings != nil && s.onUserSettings != nil {
		s.onUserSettings(*settings)
	}
}

// replay answers a payload-less request. Must be called with mu held.
func (s *Simulator) replay(req esp.Packet) []esp.Packet {
	var stored []esp.Packet
	switch req.ID() {
	case esp.PacketReqVersion:
		stored = lookup(s.data.Versions, req.Destination())
	case esp.PacketReqSerialNumber:
		stored = lookup(s.data.SerialNumbers, req.Destination())
	case esp.PacketReqUserBytes:
		stored = single(s.data.UserBytes)
	case esp.PacketReqMaxSweepIndex:
		stored = single(s.data.MaxSweepIndex)
	case esp.PacketReqBatteryVoltage:
		stored = single(s.data.BatteryVoltage)
	case esp.PacketReqSavvyStatus:
		stored = single(s.data.SavvyStatus)
	case esp.PacketReqVehicleSpeed:
		stored = single(s.data.VehicleSpeed)
	case esp.PacketReqCurrentVolume:
		stored = single(s.data.CurrentVolume)
	case esp.PacketReqAllSweepDefinitions:
		stored = s.data.SweepDefinitions
	case esp.PacketReqDefaultSweepDefinitions:
		stored = s.data.DefaultSweepDefinitions
	case esp.PacketReqSweepSections:
		stored = s.data.SweepSections
	case esp.PacketReqDefaultSweeps:
		s.restoreDefaultSweeps()
		return nil
	default:
		s.logger.Debug("request has no simulated response", zap.Stringer("id", req.ID()))
		return nil
	}

	if len(stored) == 0 {
		s.logger.Debug("no captured response", zap.Stringer("request", req.ID()))
		return nil
	}
	replies := make([]esp.Packet, 0, len(stored))
	for _, p := range stored {
		replies = append(replies, redirect(p, req.Origin()))
	}
	return replies
}

// writeSweep buffers sweep definitions until the committing write, then
// replaces the custom sweeps and reports success. Must be called with mu held.
func (s *Simulator) writeSweep(req esp.Packet, def esp.SweepDefinition) []esp.Packet {
	s.pendingSweep = append(s.pendingSweep, def)
	if !def.Commit {
		return nil
	}

	sweeps := make([]esp.Packet, 0, len(s.pendingSweep))
	for _, d := range s.pendingSweep {
		d.Commit = false
		sweeps = append(sweeps, esp.NewSweepDefinitionResponse(req.Destination(), req.Origin(), d))
	}
	s.data.SweepDefinitions = sweeps
	s.pendingSweep = nil

	result := esp.NewSweepWriteResultResponse(req.Destination(), req.Origin(), esp.SweepWriteResult{Success: true})
	s.data.SweepWriteResult = result
	s.logger.Debug("custom sweeps written", zap.Int("count", len(sweeps)))
	return []esp.Packet{result}
}

// restoreDefaultSweeps replaces the custom sweeps with the captured
// defaults. Must be called with mu held.
func (s *Simulator) restoreDefaultSweeps() {
	if len(s.data.DefaultSweepDefinitions) == 0 {
		return
	}
	sweeps := make([]esp.Packet, 0, len(s.data.DefaultSweepDefinitions))
	for _, p := range s.data.DefaultSweepDefinitions {
		sweeps = append(sweeps, esp.NewSweepDefinitionResponse(p.Origin(), p.Destination(), esp.DecodeSweepDefinition(p.Payload())))
	}
	s.data.SweepDefinitions = sweeps
}

// lookup finds the packet captured for a device
func lookup(m map[esp.Device]esp.Packet, d esp.Device) []esp.Packet {
	if p, ok := m[d]; ok {
		return []esp.Packet{p}
	}
	return nil
}

func single(p esp.Packet) []esp.Packet {
	if p == nil {
		return nil
	}
	return []esp.Packet{p}
}

// redirect addresses a stored response to the requester
func redirect(p esp.Packet, requester esp.Device) esp.Packet {
	if p.Destination() == requester {
		return p
	}
	return esp.Reframe(p, p.Origin(), requester)
}

// Snapshot returns a copy of the captured state
func (s *Simulator) Snapshot() Data {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := s.data
	d.Versions = make(map[esp.Device]esp.Packet, len(s.data.Versions))
	for k, v := range s.data.Versions {
		d.Versions[k] = v
	}
	d.SerialNumbers = make(map[esp.Device]esp.Packet, len(s.data.SerialNumbers))
	for k, v := range s.data.SerialNumbers {
		d.SerialNumbers[k] = v
	}
	d.SweepDefinitions = append([]esp.Packet(nil), s.data.SweepDefinitions...)
	d.DefaultSweepDefinitions = append([]esp.Packet(nil), s.data.DefaultSweepDefinitions...)
	d.SweepSections = append([]esp.Packet(nil), s.data.SweepSections...)
	return d
}

// Load captures a batch of packets, e.g. from a script or recording
func (s *Simulator) Load(packets []esp.Packet) {
	for _, p := range packets {
		if p.ID().IsRequest() {
			continue
		}
		s.HandlePacket(p)
	}
}

// Serve answers outbound packets from the queue until ctx is done or the
// queue is closed.
func (s *Simulator) Serve(ctx context.Context) error {
	for {
		p, err := s.queue.PopOutbound(ctx)
		if err != nil {
			if errors.Is(err, queue.ErrClosed) || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		s.logger.Debug("simulated bus received packet",
			zap.Stringer("id", p.ID()),
			zap.Stringer("origin", p.Origin()),
			zap.Stringer("destination", p.Destination()))
		s.HandlePacket(p)
	}
}
