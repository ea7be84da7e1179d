// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package esp

import "strings"

// Device identifies a bus participant by its one-byte address.
type Device uint8

// Device values. Codes 0x00-0x0A are dense; DeviceV1Legacy and DeviceUnknown
// are out-of-band sentinels.
const (
	DeviceConcealedDisplay  Device = 0x00
	DeviceRemoteAudio       Device = 0x01
	DeviceSavvy             Device = 0x02
	DeviceThirdParty1       Device = 0x03
	DeviceThirdParty2       Device = 0x04
	DeviceThirdParty3       Device = 0x05
	DeviceV1Connect         Device = 0x06
	DeviceReserved          Device = 0x07
	DeviceGeneralBroadcast  Device = 0x08
	DeviceV1WithoutChecksum Device = 0x09
	DeviceV1WithChecksum    Device = 0x0A
	DeviceV1Legacy          Device = 0x98
	DeviceUnknown           Device = 0x99
)

type deviceInfo struct {
	device Device
	label  string
}

// deviceTable is indexed directly by wire code.
var deviceTable = [...]deviceInfo{
	{DeviceConcealedDisplay, "Concealed Display"},
	{DeviceRemoteAudio, "Remote Audio"},
	{DeviceSavvy, "SAVVY"},
	{DeviceThirdParty1, "Third Party 1"},
	{DeviceThirdParty2, "Third Party 2"},
	{DeviceThirdParty3, "Third Party 3"},
	{DeviceV1Connect, "V1Connect"},
	{DeviceReserved, "Reserved"},
	{DeviceGeneralBroadcast, "General Broadcast"},
	{DeviceV1WithoutChecksum, "V1 without checksum"},
	{DeviceV1WithChecksum, "V1 with checksum"},
}

var devicesByName = func() map[string]Device {
	m := make(map[string]Device, len(deviceTable)+2)
	for _, info := range deviceTable {
		m[normalizeName(info.label)] = info.device
	}
	m[normalizeName("V1 Legacy")] = DeviceV1Legacy
	m[normalizeName("Unknown")] = DeviceUnknown
	return m
}()

// DeviceFromByte resolves a wire byte to a Device.
//
// The legacy and unknown sentinels are matched first. Any other byte above
// 0x0F is masked to its low nibble, so full address bytes (0xD6, 0xEA, ...)
// resolve to their device. Unmapped codes resolve to DeviceUnknown.
func DeviceFromByte(b byte) Device {
	switch Device(b) {
	case DeviceV1Legacy:
		return DeviceV1Legacy
	case DeviceUnknown:
		return DeviceUnknown
	}
	if b > 0x0F {
		b &= 0x0F
	}
	if int(b) < len(deviceTable) {
		return deviceTable[b].device
	}
	return DeviceUnknown
}

// ParseDevice resolves a device label ("V1 with checksum", "v1connect", ...).
// Case and spacing are ignored.
func ParseDevice(name string) (Device, bool) {
	d, ok := devicesByName[normalizeName(name)]
	return d, ok
}

// Devices returns the dense device catalog in wire order.
func Devices() []Device {
	devices := make([]Device, len(deviceTable))
	for i, info := range deviceTable {
		devices[i] = info.device
	}
	return devices
}

// Byte returns the device's wire code
func (d Device) Byte() byte {
	return byte(d)
}

// String returns the device's display label
func (d Device) String() string {
	switch d {
	case DeviceV1Legacy:
		return "V1 Legacy"
	case DeviceUnknown:
		return "Unknown"
	}
	if int(d) < len(deviceTable) {
		return deviceTable[d].label
	}
	return "Unknown"
}

// IsDetector reports whether d is one of the detector addresses.
func (d Device) IsDetector() bool {
	return d == DeviceV1WithChecksum || d == DeviceV1WithoutChecksum || d == DeviceV1Legacy
}

// address returns the nibble written into an address byte. The sentinels are
// never transmitted as-is: the legacy detector shares the checksum-less
// detector address and unknown is sent as a general broadcast.
func (d Device) address() byte {
	switch d {
	case DeviceV1Legacy:
		return byte(DeviceV1WithoutChecksum)
	case DeviceUnknown:
		return byte(DeviceGeneralBroadcast)
	}
	return byte(d) & 0x0F
}

func normalizeName(name string) string {
	name = strings.ToLower(name)
	return strings.NewReplacer(" ", "", "_", "", "-", "").Replace(name)
}
