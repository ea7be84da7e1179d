// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package esp

import "fmt"

// AnomalyType represents different types of packet anomalies
type AnomalyType int

const (
	AnomalyLengthMismatch AnomalyType = iota
	AnomalyInvalidCount
	AnomalyInvalidValue
	AnomalyInvertedSweep
	AnomalyUnknownPacket
	AnomalyChecksumError
	AnomalyDecodeError
)

func (a AnomalyType) String() string {
	switch a {
	case AnomalyLengthMismatch:
		return "length mismatch"
	case AnomalyInvalidCount:
		return "invalid count"
	case AnomalyInvalidValue:
		return "invalid value"
	case AnomalyInvertedSweep:
		return "inverted sweep"
	case AnomalyUnknownPacket:
		return "unknown packet"
	case AnomalyChecksumError:
		return "checksum error"
	case AnomalyDecodeError:
		return "decode error"
	default:
		return fmt.Sprintf("anomaly(%d)", int(a))
	}
}

// ValidationError represents a packet validation failure
type ValidationError struct {
	Type    AnomalyType
	Message string
	Details map[string]any
}

// Error implements the error interface
func (v *ValidationError) Error() string {
	return v.Message
}

// ValidatePacket validates packet structure and detects anomalies.
// Returns a slice of validation errors (empty if packet is valid)
func ValidatePacket(p Packet) []ValidationError {
	errors := []ValidationError{}

	if p.ID() == PacketUnknown {
		return append(errors, ValidationError{
			Type:    AnomalyUnknownPacket,
			Message: fmt.Sprintf("Unknown packet id 0x%02X", p.RawID()),
			Details: map[string]any{"id": p.RawID()},
		})
	}

	errors = append(errors, validateLength(p)...)
	if len(errors) > 0 {
		return errors
	}

	switch v := p.(type) {
	case *SweepDefinitionResponse:
		errors = append(errors, validateSweepDefinition(v.Definition())...)
	case *DefaultSweepDefinitionResponse:
		errors = append(errors, validateSweepDefinition(v.Definition())...)
	case *WriteSweepDefinitionRequest:
		errors = append(errors, validateSweepDefinition(v.Definition())...)
	case *SweepSectionsResponse:
		errors = append(errors, validateSweepSections(v.Payload())...)
	case *AlertDataResponse:
		errors = append(errors, validateAlertData(v.Alert())...)
	case *ChangeModeRequest:
		if m := v.Mode(); m < ModeAllBogeys || m > ModeAdvancedLogic {
			errors = append(errors, ValidationError{
				Type:    AnomalyInvalidValue,
				Message: fmt.Sprintf("Invalid mode=%d", m),
				Details: map[string]any{"mode": m},
			})
		}
	}

	return errors
}

// validateLength checks the payload against the kind's fixed width
func validateLength(p Packet) []ValidationError {
	width, fixed := payloadWidths[p.ID()]
	n := len(p.Payload())

	switch p.ID() {
	case PacketRespSweepSections:
		if n == 0 || n%SweepSectionSize != 0 {
			return []ValidationError{{
				Type:    AnomalyLengthMismatch,
				Message: fmt.Sprintf("%s payload of %d bytes is not a multiple of %d", p.ID(), n, SweepSectionSize),
				Details: map[string]any{"length": n, "record": SweepSectionSize},
			}}
		}
		return nil
	case PacketInfV1Busy, PacketRespVersion, PacketRespSerialNumber, PacketRespRequestNotProcessed:
		// Variable width
		if n == 0 {
			return []ValidationError{{
				Type:    AnomalyLengthMismatch,
				Message: fmt.Sprintf("%s payload is empty", p.ID()),
				Details: map[string]any{"length": n},
			}}
		}
		return nil
	}

	if !fixed {
		width = 0
	}
	if n != width {
		return []ValidationError{{
			Type:    AnomalyLengthMismatch,
			Message: fmt.Sprintf("%s payload is %d bytes (expected %d)", p.ID(), n, width),
			Details: map[string]any{"length": n, "expected": width},
		}}
	}
	return nil
}

func validateSweepDefinition(def SweepDefinition) []ValidationError {
	if def.IsEmpty() || def.LowerEdge <= def.UpperEdge {
		return nil
	}
	return []ValidationError{{
		Type:    AnomalyInvertedSweep,
		Message: fmt.Sprintf("Sweep %d lower edge %d above upper edge %d", def.Index, def.LowerEdge, def.UpperEdge),
		Details: map[string]any{"index": def.Index, "lower": def.LowerEdge, "upper": def.UpperEdge},
	}}
}

func validateSweepSections(payload []byte) []ValidationError {
	errors := []ValidationError{}
	declared := int(payload[0] & 0x0F)
	records := len(payload) / SweepSectionSize
	if declared > records {
		errors = append(errors, ValidationError{
			Type:    AnomalyInvalidCount,
			Message: fmt.Sprintf("Sweep sections declare %d records, payload holds %d", declared, records),
			Details: map[string]any{"declared": declared, "records": records},
		})
	}
	for _, s := range DecodeSweepSections(payload) {
		if s.LowerEdge > s.UpperEdge {
			errors = append(errors, ValidationError{
				Type:    AnomalyInvertedSweep,
				Message: fmt.Sprintf("Sweep section %d lower edge %d above upper edge %d", s.Index(), s.LowerEdge, s.UpperEdge),
				Details: map[string]any{"index": s.Index(), "lower": s.LowerEdge, "upper": s.UpperEdge},
			})
		}
	}
	return errors
}

func validateAlertData(a AlertData) []ValidationError {
	if a.Count == 0 || a.Index <= a.Count {
		return nil
	}
	return []ValidationError{{
		Type:    AnomalyInvalidCount,
		Message: fmt.Sprintf("Alert index %d above count %d", a.Index, a.Count),
		Details: map[string]any{"index": a.Index, "count": a.Count},
	}}
}
