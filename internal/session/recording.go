// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package session reads and writes the files that feed the demo simulator:
// CBOR recordings of live bus traffic and hand-written YAML scripts.
package session

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"

	"github.com/Thermoquad/espbus/pkg/esp"
)

// RecordingVersion is the current recording file format version
const RecordingVersion = 1

// Frame is one recorded ESP packet
type Frame struct {
	Offset int64  `cbor:"t"` // milliseconds since the recording started
	Bytes  []byte `cbor:"b"` // SOF through EOF
}

// Recording is a capture of bus traffic
type Recording struct {
	Version int     `cbor:"v"`
	ID      string  `cbor:"id"`
	Started int64   `cbor:"started"` // unix milliseconds
	Device  string  `cbor:"device"`  // the application device during capture
	Frames  []Frame `cbor:"frames"`
}

// NewRecording starts an empty recording for the given application device
func NewRecording(device esp.Device) *Recording {
	return &Recording{
		Version: RecordingVersion,
		ID:      uuid.NewString(),
		Started: time.Now().UnixMilli(),
		Device:  device.String(),
	}
}

// Add appends a packet, stamped with its offset from the recording start
func (r *Recording) Add(p esp.Packet) {
	r.Frames = append(r.Frames, Frame{
		Offset: p.Timestamp().UnixMilli() - r.Started,
		Bytes:  esp.EncodePacket(p),
	})
}

// Duration returns the offset of the last frame
func (r *Recording) Duration() time.Duration {
	if len(r.Frames) == 0 {
		return 0
	}
	return time.Duration(r.Frames[len(r.Frames)-1].Offset) * time.Millisecond
}

// Packets decodes every frame. Frames that fail to decode are reported
// together in the returned error; the remaining packets are still returned.
func (r *Recording) Packets() ([]esp.Packet, error) {
	packets := make([]esp.Packet, 0, len(r.Frames))
	var failed []error
	for i, f := range r.Frames {
		p, err := esp.ParseFrame(f.Bytes)
		if err != nil {
			failed = append(failed, fmt.Errorf("frame %d: %w", i, err))
			continue
		}
		packets = append(packets, p)
	}
	if len(failed) > 0 {
		return packets, fmt.Errorf("%d of %d frames failed to decode, first: %w", len(failed), len(r.Frames), failed[0])
	}
	return packets, nil
}

// Save writes the recording as CBOR
func (r *Recording) Save(w io.Writer) error {
	if err := cbor.NewEncoder(w).Encode(r); err != nil {
		return fmt.Errorf("failed to encode recording: %w", err)
	}
	return nil
}

// LoadRecording reads a CBOR recording
func LoadRecording(rd io.Reader) (*Recording, error) {
	var r Recording
	if err := cbor.NewDecoder(rd).Decode(&r); err != nil {
		return nil, fmt.Errorf("failed to decode recording: %w", err)
	}
	if r.Version != RecordingVersion {
		return nil, fmt.Errorf("unsupported recording version %d", r.Version)
	}
	return &r, nil
}

// WriteFile saves the recording to path
func (r *Recording) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create recording: %w", err)
	}
	if err := r.Save(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadRecordingFile loads a recording from path
func ReadRecordingFile(path string) (*Recording, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open recording: %w", err)
	}
	defer f.Close()
	return LoadRecording(f)
}
