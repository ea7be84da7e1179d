// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package esp

import "fmt"

// Sweep payload widths
const (
	SweepDefinitionSize = 5
	SweepSectionSize    = 5
)

// Sweep definition aux byte layout
const (
	sweepIndexMask = 0x3F
	sweepCommitBit = 0x40
)

// SweepDefinition is one custom sweep region, in MHz.
type SweepDefinition struct {
	Index     int
	Commit    bool // set on the last definition of a write sequence
	UpperEdge uint16
	LowerEdge uint16
}

// DecodeSweepDefinition decodes a 5-byte sweep definition record
func DecodeSweepDefinition(payload []byte) SweepDefinition {
	var buf [SweepDefinitionSize]byte
	copy(buf[:], payload)
	return SweepDefinition{
		Index:     int(buf[0] & sweepIndexMask),
		Commit:    buf[0]&sweepCommitBit != 0,
		UpperEdge: uint16(buf[1])<<8 | uint16(buf[2]),
		LowerEdge: uint16(buf[3])<<8 | uint16(buf[4]),
	}
}

// Bytes encodes the sweep definition record
func (s SweepDefinition) Bytes() []byte {
	aux := byte(s.Index) & sweepIndexMask
	if s.Commit {
		aux |= sweepCommitBit
	}
	return []byte{
		aux,
		byte(s.UpperEdge >> 8), byte(s.UpperEdge),
		byte(s.LowerEdge >> 8), byte(s.LowerEdge),
	}
}

// IsEmpty reports whether both edges are zero
func (s SweepDefinition) IsEmpty() bool {
	return s.UpperEdge == 0 && s.LowerEdge == 0
}

func (s SweepDefinition) String() string {
	return fmt.Sprintf("sweep %d: %d-%d MHz", s.Index, s.LowerEdge, s.UpperEdge)
}

// SweepSection is one detector-reported frequency sub-band. The 1-based
// index is packed into the high nibble of IndexCount and the total number of
// sections into the low nibble.
type SweepSection struct {
	IndexCount byte
	UpperEdge  uint16
	LowerEdge  uint16
}

// NewSweepSection packs index and count into a SweepSection
func NewSweepSection(index, count int, upper, lower uint16) SweepSection {
	return SweepSection{
		IndexCount: byte(index&0x0F)<<4 | byte(count&0x0F),
		UpperEdge:  upper,
		LowerEdge:  lower,
	}
}

// Index returns the 1-based section index
func (s SweepSection) Index() int {
	return int(s.IndexCount >> 4)
}

// Count returns the total number of sections
func (s SweepSection) Count() int {
	return int(s.IndexCount & 0x0F)
}

// Bytes encodes the 5-byte section record
func (s SweepSection) Bytes() []byte {
	return []byte{
		s.IndexCount,
		byte(s.UpperEdge >> 8), byte(s.UpperEdge),
		byte(s.LowerEdge >> 8), byte(s.LowerEdge),
	}
}

func (s SweepSection) String() string {
	return fmt.Sprintf("section %d/%d: %d-%d MHz", s.Index(), s.Count(), s.LowerEdge, s.UpperEdge)
}

// DecodeSweepSections decodes a respSweepSections payload.
//
// The first record's low nibble declares how many sections follow. Records
// with a zero edge are dropped and the remaining ones are renumbered 1..N,
// each carrying the final count N.
func DecodeSweepSections(payload []byte) []SweepSection {
	if len(payload) < SweepSectionSize {
		return nil
	}
	declared := int(payload[0] & 0x0F)

	sections := make([]SweepSection, 0, declared)
	for i := 0; i < declared; i++ {
		offset := i * SweepSectionSize
		if offset+SweepSectionSize > len(payload) {
			break
		}
		record := payload[offset : offset+SweepSectionSize]
		upper := uint16(record[1])<<8 | uint16(record[2])
		lower := uint16(record[3])<<8 | uint16(record[4])
		if upper == 0 || lower == 0 {
			continue
		}
		sections = append(sections, SweepSection{UpperEdge: upper, LowerEdge: lower})
	}

	for i := range sections {
		sections[i].IndexCount = byte((i+1)&0x0F)<<4 | byte(len(sections)&0x0F)
	}
	return sections
}

// EncodeSweepSections concatenates section records
func EncodeSweepSections(sections []SweepSection) []byte {
	payload := make([]byte, 0, len(sections)*SweepSectionSize)
	for _, s := range sections {
		payload = append(payload, s.Bytes()...)
	}
	return payload
}

// SweepWriteResult is the outcome of a committed sweep write
type SweepWriteResult struct {
	Success bool
	// FailedIndex is the 1-based index of the first rejected definition
	FailedIndex int
}

// DecodeSweepWriteResult decodes a respSweepWriteResult payload
func DecodeSweepWriteResult(payload []byte) SweepWriteResult {
	if len(payload) == 0 || payload[0] == 0 {
		return SweepWriteResult{Success: len(payload) > 0}
	}
	return SweepWriteResult{FailedIndex: int(payload[0])}
}

// Bytes encodes the sweep write result
func (r SweepWriteResult) Bytes() []byte {
	if r.Success {
		return []byte{0}
	}
	return []byte{byte(r.FailedIndex)}
}
