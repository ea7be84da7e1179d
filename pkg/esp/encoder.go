// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package esp

import (
	"fmt"
	"time"
)

// encode serializes the header and payload into wire form. The packet id
// must already be set on the header.
func (h *Header) encode(origin, destination Device, payload []byte) {
	h.origin = origin
	h.destination = destination
	if h.id != PacketUnknown {
		h.rawID = h.id.Byte()
	}
	h.payload = append([]byte(nil), payload...)
	h.hasChecksum = usesChecksum(destination)
	h.timestamp = time.Now()
	h.setPacketInfo()
}

// setPacketInfo finalizes the length and checksum fields and builds the frame
// in one pass, so that the checksum always matches the bytes it covers.
func (h *Header) setPacketInfo() {
	length := len(h.payload)
	if h.hasChecksum {
		length++
	}
	h.payloadLength = uint8(length)

	frame := make([]byte, 0, HeaderSize+length+1)
	frame = append(frame,
		SOF,
		DestinationBase|h.destination.address(),
		OriginBase|h.origin.address(),
		h.rawID,
		h.payloadLength,
	)
	frame = append(frame, h.payload...)

	h.checksum = 0
	if h.hasChecksum {
		h.checksum = CalculateChecksum(frame)
		frame = append(frame, h.checksum)
	}
	h.frame = append(frame, EOF)
}

// NewPacketWithPayload creates a packet of the given kind from raw payload
// bytes. The frame, length and checksum are computed automatically.
func NewPacketWithPayload(id PacketID, origin, destination Device, payload []byte) (Packet, error) {
	if len(payload) > MaxPayloadSize {
		return nil, fmt.Errorf("payload too large: %d bytes (max %d)", len(payload), MaxPayloadSize)
	}
	p := newVariant(id)
	h := p.header()
	h.id = id
	if _, unknown := p.(*UnknownPacket); unknown {
		h.id = PacketUnknown
		h.rawID = byte(id)
	}
	h.encode(origin, destination, payload)
	return p, nil
}

// Reframe returns a copy of p addressed from origin to destination. The
// payload is kept and the checksum mode follows the new addresses.
func Reframe(p Packet, origin, destination Device) Packet {
	q := newVariant(p.ID())
	h := q.header()
	h.id = p.ID()
	h.rawID = p.RawID()
	h.encode(origin, destination, p.Payload())
	return q
}

// EncodePacket returns a copy of the packet's wire form.
func EncodePacket(p Packet) []byte {
	return append([]byte(nil), p.Bytes()...)
}
