// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package esp

import (
	"errors"
	"fmt"
	"time"
)

// Decode failures. Every error returned by the decoder wraps one of these.
var (
	ErrChecksum     = errors.New("checksum mismatch")
	ErrShortPayload = errors.New("payload shorter than declared")
	ErrLength       = errors.New("invalid payload length")
	ErrFraming      = errors.New("framing error")
)

// FrameError describes a rejected frame
type FrameError struct {
	Err    error
	Detail string
	Raw    []byte
}

// Error implements the error interface
func (e *FrameError) Error() string {
	if e.Detail == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%v: %s", e.Err, e.Detail)
}

// Unwrap returns the underlying sentinel error
func (e *FrameError) Unwrap() error {
	return e.Err
}

func frameError(err error, raw []byte, format string, args ...any) *FrameError {
	return &FrameError{
		Err:    err,
		Detail: fmt.Sprintf(format, args...),
		Raw:    append([]byte(nil), raw...),
	}
}

// Decoder implements the ESP packet decoder state machine for a continuous
// byte stream. Bytes outside a frame are skipped until the next SOF.
type Decoder struct {
	state       int
	buffer      []byte
	length      int
	destination Device
	origin      Device
	skipped     int
	rescan      []byte
}

// NewDecoder creates a new protocol decoder
func NewDecoder() *Decoder {
	return &Decoder{
		state:  stateIdle,
		buffer: make([]byte, 0, MaxPacketSize),
	}
}

// Reset resets the decoder state to idle
func (d *Decoder) Reset() {
	d.state = stateIdle
	d.buffer = d.buffer[:0]
	d.length = 0
}

// Skipped returns the number of bytes discarded while waiting for SOF
func (d *Decoder) Skipped() int {
	return d.skipped
}

// Rescan returns and clears the bytes held back by the last framing error.
// They follow the rejected frame's SOF and may hold the start of the next
// frame, so they must be fed through DecodeByte again. Decode does this.
func (d *Decoder) Rescan() []byte {
	rescan := d.rescan
	d.rescan = nil
	return rescan
}

// GetRawBytes returns the bytes accumulated for the frame in progress
func (d *Decoder) GetRawBytes() []byte {
	return d.buffer
}

// DecodeByte processes a single byte through the decoder state machine.
// Returns a completed packet, or nil if the packet is incomplete.
// Returns an error if the frame is rejected; the decoder is then ready for
// the next frame.
func (d *Decoder) DecodeByte(b byte) (Packet, error) {
	switch d.state {
	case stateIdle:
		if b != SOF {
			d.skipped++
			return nil, nil
		}
		d.buffer = append(d.buffer[:0], b)
		d.state = stateDestination
		return nil, nil

	case stateDestination:
		d.buffer = append(d.buffer, b)
		d.destination = DeviceFromByte(b)
		d.state = stateOrigin
		return nil, nil

	case stateOrigin:
		d.buffer = append(d.buffer, b)
		d.origin = DeviceFromByte(b)
		d.state = statePacketID
		return nil, nil

	case statePacketID:
		d.buffer = append(d.buffer, b)
		d.state = stateLength
		return nil, nil

	case stateLength:
		d.buffer = append(d.buffer, b)
		if b > MaxPayloadLength {
			err := frameError(ErrLength, d.buffer, "length %d (max %d)", b, MaxPayloadLength)
			d.Reset()
			return nil, err
		}
		if b == 0 && usesChecksum(d.destination) {
			err := frameError(ErrShortPayload, d.buffer, "length 0 leaves no room for the checksum")
			d.Reset()
			return nil, err
		}
		d.length = int(b)
		if d.length == 0 {
			d.state = stateEOF
		} else {
			d.state = statePayload
		}
		return nil, nil

	case statePayload:
		d.buffer = append(d.buffer, b)
		if len(d.buffer) >= HeaderSize+d.length {
			d.state = stateEOF
		}
		return nil, nil

	case stateEOF:
		if b != EOF {
			err := frameError(ErrFraming, d.buffer, "expected EOF, got 0x%02X", b)
			d.rescan = append(append(d.rescan, d.buffer[1:]...), b)
			d.Reset()
			return nil, err
		}
		d.buffer = append(d.buffer, b)
		packet, err := ParseFrame(d.buffer)
		d.Reset()
		return packet, err

	default:
		d.Reset()
		return nil, fmt.Errorf("invalid state: %d", d.state)
	}
}

// Decode feeds a buffer through the decoder and returns every completed
// packet together with the errors for rejected frames. Bytes held back by a
// framing error are rescanned before the rest of the buffer.
func (d *Decoder) Decode(data []byte) ([]Packet, []error) {
	var packets []Packet
	var errs []error
	pending := data
	for len(pending) > 0 {
		b := pending[0]
		pending = pending[1:]

		packet, err := d.DecodeByte(b)
		if err != nil {
			errs = append(errs, err)
			if rescan := d.Rescan(); len(rescan) > 0 {
				pending = append(rescan, pending...)
			}
			continue
		}
		if packet != nil {
			packets = append(packets, packet)
		}
	}
	return packets, errs
}

// ParseFrame decodes one complete frame, SOF through EOF. Bytes after the
// frame's EOF are ignored.
func ParseFrame(data []byte) (Packet, error) {
	if len(data) < HeaderSize+1 {
		return nil, frameError(ErrShortPayload, data, "frame of %d bytes", len(data))
	}
	if data[0] != SOF {
		return nil, frameError(ErrFraming, data, "expected SOF, got 0x%02X", data[0])
	}

	destination := DeviceFromByte(data[1])
	origin := DeviceFromByte(data[2])
	rawID := data[3]
	length := int(data[4])

	if length > MaxPayloadLength {
		return nil, frameError(ErrLength, data, "length %d (max %d)", length, MaxPayloadLength)
	}
	end := HeaderSize + length
	if len(data) < end+1 {
		return nil, frameError(ErrShortPayload, data, "declared %d payload bytes, have %d", length, len(data)-HeaderSize-1)
	}
	if data[end] != EOF {
		return nil, frameError(ErrFraming, data, "expected EOF, got 0x%02X", data[end])
	}

	hasChecksum := usesChecksum(destination)
	body := data[HeaderSize:end]
	var checksum byte
	if hasChecksum {
		if length == 0 {
			return nil, frameError(ErrShortPayload, data, "length 0 leaves no room for the checksum")
		}
		checksum = body[len(body)-1]
		calculated := CalculateChecksum(data[:end-1])
		if checksum != calculated {
			return nil, frameError(ErrChecksum, data, "expected 0x%02X, got 0x%02X", calculated, checksum)
		}
		body = body[:len(body)-1]
	}

	id := PacketIDFromByte(rawID)
	packet := newVariant(id)
	h := packet.header()
	h.origin = origin
	h.destination = destination
	h.id = id
	h.rawID = rawID
	h.payloadLength = uint8(length)
	h.payload = append([]byte(nil), body...)
	h.checksum = checksum
	h.hasChecksum = hasChecksum
	h.frame = append([]byte(nil), data[:end+1]...)
	h.timestamp = time.Now()
	return packet, nil
}
