// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package session

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Thermoquad/espbus/internal/demo"
	"github.com/Thermoquad/espbus/pkg/esp"
)

// Script is a hand-written demo session.
//
//	device: V1Connect
//	defaults: true
//	responses:
//	  - id: respVersion
//	    origin: V1 with checksum
//	    text: V4.1028
//	  - id: respBatteryVoltage
//	    origin: V1 with checksum
//	    payload: 0D 32
type Script struct {
	Device    string           `yaml:"device"`
	Defaults  bool             `yaml:"defaults"`
	Responses []ScriptResponse `yaml:"responses"`
}

// ScriptResponse is one scripted packet. The payload is given either as hex
// bytes or as ASCII text.
type ScriptResponse struct {
	ID          string `yaml:"id"`
	Origin      string `yaml:"origin"`
	Destination string `yaml:"destination,omitempty"`
	Payload     string `yaml:"payload,omitempty"`
	Text        string `yaml:"text,omitempty"`
}

// ParseScript decodes a YAML script
func ParseScript(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse script: %w", err)
	}
	return &s, nil
}

// LoadScript reads a YAML script from path
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	return ParseScript(data)
}

// Marshal encodes the script as YAML
func (s *Script) Marshal() ([]byte, error) {
	return yaml.Marshal(s)
}

// AppDevice returns the script's application device, or fallback when unset
func (s *Script) AppDevice(fallback esp.Device) (esp.Device, error) {
	if s.Device == "" {
		return fallback, nil
	}
	d, ok := esp.ParseDevice(s.Device)
	if !ok {
		return 0, fmt.Errorf("unknown device %q", s.Device)
	}
	return d, nil
}

// Packets builds the scripted packets, preceded by the default session when
// Defaults is set.
func (s *Script) Packets(fallback esp.Device) ([]esp.Packet, error) {
	app, err := s.AppDevice(fallback)
	if err != nil {
		return nil, err
	}

	var packets []esp.Packet
	if s.Defaults {
		packets = append(packets, demo.DefaultSession(app)...)
	}
	for i, r := range s.Responses {
		p, err := r.packet(app)
		if err != nil {
			return nil, fmt.Errorf("response %d: %w", i, err)
		}
		packets = append(packets, p)
	}
	return packets, nil
}

func (r ScriptResponse) packet(app esp.Device) (esp.Packet, error) {
	id, ok := esp.ParsePacketID(r.ID)
	if !ok {
		return nil, fmt.Errorf("unknown packet id %q", r.ID)
	}
	origin, ok := esp.ParseDevice(r.Origin)
	if !ok {
		return nil, fmt.Errorf("unknown origin %q", r.Origin)
	}
	destination := app
	if r.Destination != "" {
		if destination, ok = esp.ParseDevice(r.Destination); !ok {
			return nil, fmt.Errorf("unknown destination %q", r.Destination)
		}
	}

	var payload []byte
	switch {
	case r.Payload != "" && r.Text != "":
		return nil, fmt.Errorf("%s: payload and text are mutually exclusive", r.ID)
	case r.Payload != "":
		var err error
		payload, err = hex.DecodeString(strings.NewReplacer(" ", "", ":", "").Replace(r.Payload))
		if err != nil {
			return nil, fmt.Errorf("%s: invalid payload: %w", r.ID, err)
		}
	case r.Text != "":
		payload = []byte(r.Text)
	}

	return esp.NewPacketWithPayload(id, origin, destination, payload)
}

// NewScript describes packets as a script, e.g. to dump a simulator snapshot.
// Requests are skipped. Destinations equal to app are left implicit.
func NewScript(app esp.Device, packets []esp.Packet) *Script {
	s := &Script{Device: app.String()}
	for _, p := range packets {
		if p.ID().IsRequest() {
			continue
		}
		r := ScriptResponse{
			ID:     p.ID().String(),
			Origin: p.Origin().String(),
		}
		if p.Destination() != app {
			r.Destination = p.Destination().String()
		}
		if payload := p.Payload(); len(payload) > 0 {
			r.Payload = formatHex(payload)
		}
		s.Responses = append(s.Responses, r)
	}
	return s
}

func formatHex(data []byte) string {
	parts := make([]string, len(data))
	for i, b := range data {
		parts[i] = strings.ToUpper(hex.EncodeToString([]byte{b}))
	}
	return strings.Join(parts, " ")
}
