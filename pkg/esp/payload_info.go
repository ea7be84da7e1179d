// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package esp

import (
	"fmt"
	"math"
	"strconv"
)

// SerialNumberSize is the nominal respSerialNumber payload width
const SerialNumberSize = 10

// VersionSize is the respVersion payload width
const VersionSize = 7

// DecodeVersion interprets every payload byte as one ASCII character.
// The detector reports e.g. "V4.1028": version letter, major, '.', minor,
// two revision digits and the engineering control digit.
func DecodeVersion(payload []byte) string {
	return string(payload)
}

// EncodeVersion returns the payload for a version string
func EncodeVersion(version string) []byte {
	return []byte(version)
}

// DecodeSerialNumber reads up to SerialNumberSize ASCII bytes, stopping at
// the first zero byte.
func DecodeSerialNumber(payload []byte) string {
	n := len(payload)
	if n > SerialNumberSize {
		n = SerialNumberSize
	}
	for i := 0; i < n; i++ {
		if payload[i] == 0 {
			return string(payload[:i])
		}
	}
	return string(payload[:n])
}

// EncodeSerialNumber returns a zero-padded SerialNumberSize payload
func EncodeSerialNumber(serial string) []byte {
	payload := make([]byte, SerialNumberSize)
	copy(payload, serial)
	return payload
}

// DecodeBatteryVoltage decodes the integer and decimal voltage bytes.
// The value is rendered as "<int>.<decimal>" with the decimal part padded to
// two digits, so (12, 5) is 12.05 and (12, 50) is 12.50.
func DecodeBatteryVoltage(payload []byte) float64 {
	if len(payload) < 2 {
		return 0
	}
	var text string
	if payload[1] < 10 {
		text = fmt.Sprintf("%d.0%d", payload[0], payload[1])
	} else {
		text = fmt.Sprintf("%d.%d", payload[0], payload[1])
	}
	volts, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0
	}
	return volts
}

// EncodeBatteryVoltage splits a voltage into its integer and hundredths bytes
func EncodeBatteryVoltage(volts float64) []byte {
	if volts < 0 {
		volts = 0
	}
	whole := math.Floor(volts)
	hundredths := math.Round((volts - whole) * 100)
	if hundredths >= 100 {
		whole++
		hundredths = 0
	}
	return []byte{byte(whole), byte(hundredths)}
}
