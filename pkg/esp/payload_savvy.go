// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package esp

// Payload widths
const (
	SavvyStatusSize = 2
	VolumeSize      = 2
)

// SAVVY status flag bits
const (
	savvyUnmuteEnabled      = 0x01
	savvyThumbwheelOverride = 0x02
)

// ThumbwheelAuto disables the thumbwheel override
const ThumbwheelAuto = 0xFF

// SavvyStatus is the SAVVY speed-muting state
type SavvyStatus struct {
	ThresholdKph       int
	UnmuteEnabled      bool
	ThumbwheelOverride bool
}

// DecodeSavvyStatus decodes a 2-byte respSavvyStatus payload
func DecodeSavvyStatus(payload []byte) SavvyStatus {
	var buf [SavvyStatusSize]byte
	copy(buf[:], payload)
	return SavvyStatus{
		ThresholdKph:       int(buf[0]),
		UnmuteEnabled:      buf[1]&savvyUnmuteEnabled != 0,
		ThumbwheelOverride: buf[1]&savvyThumbwheelOverride != 0,
	}
}

// Bytes encodes the SAVVY status
func (s SavvyStatus) Bytes() []byte {
	var flags byte
	if s.UnmuteEnabled {
		flags |= savvyUnmuteEnabled
	}
	if s.ThumbwheelOverride {
		flags |= savvyThumbwheelOverride
	}
	return []byte{byte(s.ThresholdKph), flags}
}

// Volume holds the detector's main and muted volume levels
type Volume struct {
	Main  byte
	Muted byte
}

// DecodeVolume decodes a respCurrentVolume payload
func DecodeVolume(payload []byte) Volume {
	var buf [VolumeSize]byte
	copy(buf[:], payload)
	return Volume{Main: buf[0], Muted: buf[1]}
}

// Bytes encodes the volume levels
func (v Volume) Bytes() []byte {
	return []byte{v.Main, v.Muted}
}
