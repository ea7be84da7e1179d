// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package link

import (
	"fmt"
	"strings"

	"github.com/Thermoquad/espbus/internal/config"
)

// SPP bridge framing bytes
const (
	SPPDelimiter = 0x7F
	SPPEscape    = 0x7D
	SPPEscapeXor = 0x20
)

// Framing wraps encoded ESP packets for a transport and recovers the ESP
// byte stream from what the transport delivers.
type Framing interface {
	Name() string
	Wrap(packet []byte) []byte
	// Unwrap consumes a chunk of transport bytes and returns the ESP bytes
	// it carried. State is kept across chunks.
	Unwrap(chunk []byte) []byte
}

// NewFraming returns the framing named by link.framing
func NewFraming(name string) (Framing, error) {
	switch strings.ToLower(name) {
	case config.FramingSPP:
		return &SPPFraming{}, nil
	case config.FramingRaw, "":
		return RawFraming{}, nil
	default:
		return nil, fmt.Errorf("unknown framing %q", name)
	}
}

// RawFraming passes ESP bytes through unchanged
type RawFraming struct{}

// Name returns "raw"
func (RawFraming) Name() string { return config.FramingRaw }

// Wrap returns a copy of the packet
func (RawFraming) Wrap(packet []byte) []byte {
	return append([]byte(nil), packet...)
}

// Unwrap returns a copy of the chunk
func (RawFraming) Unwrap(chunk []byte) []byte {
	return append([]byte(nil), chunk...)
}

// SPPFraming is the Bluetooth bridge framing: 0x7F <stuffed packet> 0x7F.
type SPPFraming struct {
	escaped bool
}

// Name returns "spp"
func (f *SPPFraming) Name() string { return config.FramingSPP }

// Wrap delimits and stuffs one packet
func (f *SPPFraming) Wrap(packet []byte) []byte {
	stuffed := stuffBytes(packet)
	frame := make([]byte, 0, len(stuffed)+2)
	frame = append(frame, SPPDelimiter)
	frame = append(frame, stuffed...)
	return append(frame, SPPDelimiter)
}

// Unwrap strips delimiters and unstuffs escaped bytes. A delimiter cancels a
// dangling escape.
func (f *SPPFraming) Unwrap(chunk []byte) []byte {
	out := make([]byte, 0, len(chunk))
	for _, b := range chunk {
		switch {
		case b == SPPDelimiter:
			f.escaped = false
		case f.escaped:
			out = append(out, b^SPPEscapeXor)
			f.escaped = false
		case b == SPPEscape:
			f.escaped = true
		default:
			out = append(out, b)
		}
	}
	return out
}

// stuffBytes escapes the delimiter and escape bytes as ESC, b XOR 0x20
func stuffBytes(data []byte) []byte {
	result := make([]byte, 0, len(data)*2)
	for _, b := range data {
		if b == SPPDelimiter || b == SPPEscape {
			result = append(result, SPPEscape, b^SPPEscapeXor)
		} else {
			result = append(result, b)
		}
	}
	return result
}

// UnstuffBytes reverses stuffBytes on a single frame body
func UnstuffBytes(data []byte) []byte {
	var f SPPFraming
	return f.Unwrap(data)
}
