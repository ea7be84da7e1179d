// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package esp implements the Escort Serial Protocol (ESP).
//
// ESP is the addressed, checksummed bus protocol shared by a radar detector
// and its accessories. This package provides the device and packet catalogs,
// packet encoding/decoding, checksum handling, the packet factory and the
// payload codecs for every packet kind on the bus.
package esp

// Packet framing bytes
const (
	SOF = 0xAA
	EOF = 0xAB
)

// Address nibbles. The low nibble of each address byte carries the device id.
const (
	DestinationBase = 0xD0
	OriginBase      = 0xE0
)

// Packet size limits
const (
	HeaderSize       = 5 // SOF, destination, origin, packet id, payload length
	MaxPayloadLength = 64
	MaxPayloadSize   = MaxPayloadLength - 1 // one byte is reserved for the checksum
	MaxPacketSize    = HeaderSize + MaxPayloadLength + 1
)

// Decoder states (internal)
const (
	stateIdle = iota
	stateDestination
	stateOrigin
	statePacketID
	stateLength
	statePayload
	stateEOF
)

// Mode is the detector's alert logic mode, as carried by reqChangeMode.
type Mode uint8

// Mode values
const (
	ModeAllBogeys     Mode = 0x01
	ModeLogic         Mode = 0x02
	ModeAdvancedLogic Mode = 0x03
)

func (m Mode) String() string {
	switch m {
	case ModeAllBogeys:
		return "All Bogeys"
	case ModeLogic:
		return "Logic"
	case ModeAdvancedLogic:
		return "Advanced Logic"
	default:
		return "Unknown"
	}
}
