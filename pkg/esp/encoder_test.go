// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package esp

import (
	"bytes"
	"errors"
	"testing"
)

// ============================================================
// Encoder Tests
// ============================================================

func TestEncode_ReqVersion(t *testing.T) {
	p := NewVersionRequest(DeviceV1Connect, DeviceV1WithChecksum)
	expected := []byte{0xAA, 0xDA, 0xE6, 0x01, 0x01, 0x6C, 0xAB}

	if !bytes.Equal(p.Bytes(), expected) {
		t.Errorf("Encoded % X, expected % X", p.Bytes(), expected)
	}
	if !p.HasChecksum() || p.Checksum() != 0x6C {
		t.Errorf("Expected checksum 0x6C, got 0x%02X (has=%v)", p.Checksum(), p.HasChecksum())
	}
	if p.PayloadLength() != 1 {
		t.Errorf("Length should count the checksum byte, got %d", p.PayloadLength())
	}
}

func TestEncode_ChecksumlessDestination(t *testing.T) {
	p := NewVersionRequest(DeviceV1Connect, DeviceV1WithoutChecksum)
	expected := []byte{0xAA, 0xD9, 0xE6, 0x01, 0x00, 0xAB}

	if !bytes.Equal(p.Bytes(), expected) {
		t.Errorf("Encoded % X, expected % X", p.Bytes(), expected)
	}
	if p.HasChecksum() || p.Checksum() != 0 {
		t.Errorf("Checksum-less packet should report checksum 0, got 0x%02X", p.Checksum())
	}
}

func TestEncode_LegacyDestinationUsesChecksumlessAddress(t *testing.T) {
	p := NewVersionRequest(DeviceV1Connect, DeviceV1Legacy)
	if p.Bytes()[1] != 0xD9 {
		t.Errorf("Legacy detector should be addressed as 0xD9, got 0x%02X", p.Bytes()[1])
	}
	if p.HasChecksum() {
		t.Error("Legacy detector packets carry no checksum")
	}
}

func TestEncode_ChecksumlessOriginKeepsChecksum(t *testing.T) {
	p, err := NewVersionResponse(DeviceV1WithoutChecksum, DeviceV1Connect, "V4.1028")
	if err != nil {
		t.Fatalf("NewVersionResponse: %v", err)
	}
	expected := []byte{0xAA, 0xD6, 0xE9, 0x02, 0x08, 'V', '4', '.', '1', '0', '2', '8', 0xF6, 0xAB}

	if !bytes.Equal(p.Bytes(), expected) {
		t.Errorf("Encoded % X, expected % X", p.Bytes(), expected)
	}
	if !p.HasChecksum() || p.Checksum() != 0xF6 {
		t.Errorf("Expected checksum 0xF6, got 0x%02X (has=%v)", p.Checksum(), p.HasChecksum())
	}
}

func TestEncode_ChecksumCoversFrame(t *testing.T) {
	p, err := NewVersionResponse(DeviceV1WithChecksum, DeviceV1Connect, "V4.1028")
	if err != nil {
		t.Fatalf("NewVersionResponse: %v", err)
	}
	frame := p.Bytes()
	if len(frame) != HeaderSize+7+2 {
		t.Fatalf("Unexpected frame length %d", len(frame))
	}
	if got := CalculateChecksum(frame[:len(frame)-2]); got != p.Checksum() {
		t.Errorf("Recomputed checksum 0x%02X != stored 0x%02X", got, p.Checksum())
	}
	if frame[len(frame)-1] != EOF {
		t.Errorf("Frame should end with EOF, got 0x%02X", frame[len(frame)-1])
	}
}

func TestNewPacketWithPayload_TooLarge(t *testing.T) {
	_, err := NewPacketWithPayload(PacketRespVersion, DeviceV1WithChecksum, DeviceV1Connect, make([]byte, MaxPayloadSize+1))
	if err == nil {
		t.Error("Expected error for oversized payload")
	}
}

func TestNewPacketWithPayload_UnmappedID(t *testing.T) {
	p, err := NewPacketWithPayload(PacketID(0x0F), DeviceV1Connect, DeviceV1WithChecksum, []byte{1})
	if err != nil {
		t.Fatalf("NewPacketWithPayload: %v", err)
	}
	if _, ok := p.(*UnknownPacket); !ok {
		t.Fatalf("Expected *UnknownPacket, got %T", p)
	}
	if p.ID() != PacketUnknown || p.RawID() != 0x0F {
		t.Errorf("Expected unknown id with raw 0x0F, got %s raw 0x%02X", p.ID(), p.RawID())
	}
}

func TestReframe(t *testing.T) {
	p, _ := NewVersionResponse(DeviceV1WithChecksum, DeviceV1Connect, "V4.1028")
	q := Reframe(p, DeviceV1WithChecksum, DeviceThirdParty1)

	if q.Destination() != DeviceThirdParty1 || q.Origin() != DeviceV1WithChecksum {
		t.Errorf("Unexpected addressing %s -> %s", q.Origin(), q.Destination())
	}
	if !bytes.Equal(q.Payload(), p.Payload()) {
		t.Error("Reframe should keep the payload")
	}
	if _, ok := q.(*VersionResponse); !ok {
		t.Errorf("Reframe should keep the variant, got %T", q)
	}
	frame := q.Bytes()
	if CalculateChecksum(frame[:len(frame)-2]) != q.Checksum() {
		t.Error("Reframed checksum should match the new frame")
	}
	if p.Destination() != DeviceV1Connect {
		t.Error("Reframe must not modify the original packet")
	}
}

// ============================================================
// Decoder Tests
// ============================================================

func decodeAll(t *testing.T, data []byte) ([]Packet, []error) {
	t.Helper()
	return NewDecoder().Decode(data)
}

func TestDecoder_RoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		packet Packet
	}{
		{"request", NewVersionRequest(DeviceV1Connect, DeviceV1WithChecksum)},
		{"checksum-less request", NewSerialNumberRequest(DeviceV1Connect, DeviceV1WithoutChecksum)},
		{"user bytes", NewUserBytesResponse(DeviceV1WithChecksum, DeviceV1Connect, DefaultUserSettings())},
		{"alert", NewAlertDataResponse(DeviceV1WithChecksum, DeviceGeneralBroadcast, AlertData{Index: 1, Count: 1, Frequency: 24150, Bands: BandK | ArrowFront})},
		{"savvy", NewSavvyStatusResponse(DeviceSavvy, DeviceV1Connect, SavvyStatus{ThresholdKph: 30, UnmuteEnabled: true})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			packets, errs := decodeAll(t, tt.packet.Bytes())
			if len(errs) != 0 {
				t.Fatalf("Unexpected errors: %v", errs)
			}
			if len(packets) != 1 {
				t.Fatalf("Expected 1 packet, got %d", len(packets))
			}
			got := packets[0]
			if got.ID() != tt.packet.ID() {
				t.Errorf("ID mismatch: %s != %s", got.ID(), tt.packet.ID())
			}
			if got.Origin() != tt.packet.Origin() || got.Destination() != tt.packet.Destination() {
				t.Errorf("Addressing mismatch: %s -> %s", got.Origin(), got.Destination())
			}
			if !bytes.Equal(got.Payload(), tt.packet.Payload()) {
				t.Errorf("Payload mismatch: % X != % X", got.Payload(), tt.packet.Payload())
			}
			if got.Checksum() != tt.packet.Checksum() {
				t.Errorf("Checksum mismatch: 0x%02X != 0x%02X", got.Checksum(), tt.packet.Checksum())
			}
			if !bytes.Equal(got.Bytes(), tt.packet.Bytes()) {
				t.Errorf("Frame mismatch")
			}
		})
	}
}

func TestDecoder_TypedVariant(t *testing.T) {
	frame := []byte{0xAA, 0xD6, 0xE9, 0x02, 0x08, 'V', '4', '.', '1', '0', '2', '8', 0xF6, 0xAB}
	packets, errs := decodeAll(t, frame)
	if len(errs) != 0 || len(packets) != 1 {
		t.Fatalf("Expected 1 packet, got %d packets, errors %v", len(packets), errs)
	}
	resp, ok := packets[0].(*VersionResponse)
	if !ok {
		t.Fatalf("Expected *VersionResponse, got %T", packets[0])
	}
	if resp.Version() != "V4.1028" {
		t.Errorf("Version = %q", resp.Version())
	}
	if resp.ResponseData() != "V4.1028" {
		t.Errorf("ResponseData = %v", resp.ResponseData())
	}
	if resp.Origin() != DeviceV1WithoutChecksum {
		t.Errorf("Origin = %s", resp.Origin())
	}
	if !resp.HasChecksum() || resp.Checksum() != 0xF6 {
		t.Errorf("Packet to V1Connect should carry checksum 0xF6, got 0x%02X (has=%v)", resp.Checksum(), resp.HasChecksum())
	}
}

func TestDecoder_ChecksumlessDestinationFrame(t *testing.T) {
	// From the app to the checksum-less detector: no checksum byte
	frame := []byte{0xAA, 0xD9, 0xE6, 0x01, 0x00, 0xAB}
	packets, errs := decodeAll(t, frame)
	if len(errs) != 0 || len(packets) != 1 {
		t.Fatalf("Expected 1 packet, got %d packets, errors %v", len(packets), errs)
	}
	if packets[0].HasChecksum() {
		t.Error("Packet to the checksum-less detector should have no checksum")
	}
}

func TestDecoder_ResyncAfterGarbage(t *testing.T) {
	frame := NewVersionRequest(DeviceV1Connect, DeviceV1WithChecksum).Bytes()
	data := append([]byte{0x00, 0x13, 0xAB}, frame...)

	d := NewDecoder()
	packets, errs := d.Decode(data)
	if len(errs) != 0 {
		t.Fatalf("Unexpected errors: %v", errs)
	}
	if len(packets) != 1 || packets[0].ID() != PacketReqVersion {
		t.Fatalf("Expected one reqVersion, got %v", packets)
	}
	if d.Skipped() != 3 {
		t.Errorf("Expected 3 skipped bytes, got %d", d.Skipped())
	}
}

func TestDecoder_RescanAfterTruncatedFrame(t *testing.T) {
	voltage := NewBatteryVoltageResponse(DeviceV1WithChecksum, DeviceV1Connect, 12.50).Bytes()

	tests := []struct {
		name      string
		truncated []byte
		frames    int
	}{
		// The declared length runs into the next frame's payload
		{"next frame starts inside the payload", []byte{0xAA, 0xD6, 0xEA, 0x02, 0x08, 0x56, 0x34}, 2},
		// The declared length swallows three whole frames
		{"whole frames inside the payload", []byte{0xAA, 0xD6, 0xEA, 0x02, 0x20}, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := append([]byte(nil), tt.truncated...)
			for i := 0; i < tt.frames; i++ {
				data = append(data, voltage...)
			}

			packets, errs := decodeAll(t, data)
			if len(errs) != 1 || !errors.Is(errs[0], ErrFraming) {
				t.Fatalf("Expected one framing error, got %v", errs)
			}
			if len(packets) != tt.frames {
				t.Fatalf("Expected %d packets, got %d", tt.frames, len(packets))
			}
			for _, p := range packets {
				if p.ID() != PacketRespBatteryVoltage {
					t.Errorf("Expected respBatteryVoltage, got %s", p.ID())
				}
			}
		})
	}
}

func TestDecoder_Rescan(t *testing.T) {
	d := NewDecoder()
	var err error
	for _, b := range []byte{0xAA, 0xD9, 0xE6, 0x01, 0x00, 0xAA} {
		_, err = d.DecodeByte(b)
	}
	if !errors.Is(err, ErrFraming) {
		t.Fatalf("Expected framing error, got %v", err)
	}
	expected := []byte{0xD9, 0xE6, 0x01, 0x00, 0xAA}
	if got := d.Rescan(); !bytes.Equal(got, expected) {
		t.Errorf("Rescan = % X, expected % X", got, expected)
	}
	if d.Rescan() != nil {
		t.Error("Rescan should clear the held bytes")
	}
}

func TestDecoder_Errors(t *testing.T) {
	good := NewVersionRequest(DeviceV1Connect, DeviceV1WithChecksum).Bytes()
	badChecksum := append([]byte(nil), good...)
	badChecksum[5] ^= 0xFF

	tests := []struct {
		name     string
		data     []byte
		expected error
	}{
		{"checksum mismatch", badChecksum, ErrChecksum},
		{"length too large", []byte{0xAA, 0xDA, 0xE6, 0x01, 0x41}, ErrLength},
		{"zero length with checksum", []byte{0xAA, 0xDA, 0xE6, 0x01, 0x00}, ErrShortPayload},
		{"missing EOF", []byte{0xAA, 0xD9, 0xE6, 0x01, 0x00, 0x00}, ErrFraming},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			packets, errs := decodeAll(t, tt.data)
			if len(packets) != 0 {
				t.Errorf("Expected no packets, got %d", len(packets))
			}
			if len(errs) != 1 {
				t.Fatalf("Expected 1 error, got %v", errs)
			}
			if !errors.Is(errs[0], tt.expected) {
				t.Errorf("Expected %v, got %v", tt.expected, errs[0])
			}
			var frameErr *FrameError
			if !errors.As(errs[0], &frameErr) || len(frameErr.Raw) == 0 {
				t.Errorf("Expected *FrameError with raw bytes, got %#v", errs[0])
			}
		})
	}
}

func TestDecoder_RecoversAfterError(t *testing.T) {
	good := NewVersionRequest(DeviceV1Connect, DeviceV1WithChecksum).Bytes()
	data := append([]byte{0xAA, 0xDA, 0xE6, 0x01, 0x41}, good...)

	packets, errs := decodeAll(t, data)
	if len(errs) != 1 || !errors.Is(errs[0], ErrLength) {
		t.Errorf("Expected one length error, got %v", errs)
	}
	if len(packets) != 1 {
		t.Errorf("Decoder should recover and decode the next frame, got %d packets", len(packets))
	}
}

func TestDecoder_MissingEOFRestartsOnSOF(t *testing.T) {
	good := NewVersionRequest(DeviceV1Connect, DeviceV1WithChecksum).Bytes()
	truncated := good[:len(good)-1]

	packets, errs := decodeAll(t, append(truncated, good...))
	if len(errs) != 1 || !errors.Is(errs[0], ErrFraming) {
		t.Errorf("Expected one framing error, got %v", errs)
	}
	if len(packets) != 1 {
		t.Errorf("Expected the second frame to decode, got %d packets", len(packets))
	}
}

func TestDecoder_UnknownID(t *testing.T) {
	packets, errs := decodeAll(t, []byte{0xAA, 0xD9, 0xE6, 0x0F, 0x00, 0xAB})
	if len(errs) != 0 || len(packets) != 1 {
		t.Fatalf("Expected 1 packet, got %d packets, errors %v", len(packets), errs)
	}
	p := packets[0]
	if _, ok := p.(*UnknownPacket); !ok {
		t.Errorf("Expected *UnknownPacket, got %T", p)
	}
	if p.ID() != PacketUnknown || p.RawID() != 0x0F {
		t.Errorf("Expected unknown id with raw 0x0F, got %s raw 0x%02X", p.ID(), p.RawID())
	}
}

func TestParseFrame_Short(t *testing.T) {
	_, err := ParseFrame([]byte{0xAA, 0xDA, 0xE6, 0x02, 0x08, 'V', 0xAB})
	if !errors.Is(err, ErrShortPayload) {
		t.Errorf("Expected ErrShortPayload, got %v", err)
	}
}

func TestParseFrame_BadSOF(t *testing.T) {
	_, err := ParseFrame([]byte{0x00, 0xD9, 0xE6, 0x01, 0x00, 0xAB})
	if !errors.Is(err, ErrFraming) {
		t.Errorf("Expected ErrFraming, got %v", err)
	}
}
