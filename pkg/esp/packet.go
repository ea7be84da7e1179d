// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package esp

import "time"

// Packet is implemented by every concrete ESP packet variant.
//
// All variants share the Header layout and checksum mechanics; each variant
// owns the meaning of its payload and exposes it through ResponseData and
// typed accessors.
type Packet interface {
	Origin() Device
	Destination() Device
	ID() PacketID
	RawID() byte
	Payload() []byte
	PayloadLength() uint8
	Checksum() byte
	HasChecksum() bool
	Timestamp() time.Time
	Bytes() []byte

	// ResponseData decodes the payload into the variant's domain value, or
	// returns nil for variants without payload semantics.
	ResponseData() any

	header() *Header
}

// Header holds the fields shared by every packet variant.
type Header struct {
	origin        Device
	destination   Device
	id            PacketID
	rawID         byte
	payloadLength uint8
	payload       []byte // payload data, checksum excluded
	checksum      byte
	hasChecksum   bool
	frame         []byte // SOF through EOF
	timestamp     time.Time
}

// Origin returns the sending device
func (h *Header) Origin() Device {
	return h.origin
}

// Destination returns the addressed device
func (h *Header) Destination() Device {
	return h.destination
}

// ID returns the packet identity
func (h *Header) ID() PacketID {
	return h.id
}

// RawID returns the packet id byte as it appears on the wire
func (h *Header) RawID() byte {
	return h.rawID
}

// Payload returns the payload data bytes (checksum excluded)
func (h *Header) Payload() []byte {
	return h.payload
}

// PayloadLength returns the payload length field. It counts the checksum
// byte when the packet carries one.
func (h *Header) PayloadLength() uint8 {
	return h.payloadLength
}

// Checksum returns the packet checksum, 0 for checksum-less packets
func (h *Header) Checksum() byte {
	return h.checksum
}

// HasChecksum reports whether the packet carries a checksum byte
func (h *Header) HasChecksum() bool {
	return h.hasChecksum
}

// Timestamp returns the packet's creation or decode time
func (h *Header) Timestamp() time.Time {
	return h.timestamp
}

// Bytes returns the wire form of the packet, SOF through EOF
func (h *Header) Bytes() []byte {
	return h.frame
}

// IsBroadcast returns true if the packet is addressed to every device
func (h *Header) IsBroadcast() bool {
	return h.destination == DeviceGeneralBroadcast
}

func (h *Header) header() *Header {
	return h
}
