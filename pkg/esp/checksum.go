// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package esp

// CalculateChecksum computes the ESP checksum: the 8-bit sum of every byte
// from SOF through the last payload byte.
func CalculateChecksum(data []byte) byte {
	var sum byte
	for _, b := range data {
		sum += b
	}
	return sum
}

// usesChecksum reports whether a packet addressed to destination carries a
// checksum byte. Packets to a checksum-less or legacy detector never do.
func usesChecksum(destination Device) bool {
	return destination != DeviceV1WithoutChecksum && destination != DeviceV1Legacy
}
