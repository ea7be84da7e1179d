// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package esp

import (
	"fmt"
	"strings"
)

// Payload widths
const (
	AlertDataSize   = 7
	DisplayDataSize = 8
)

// BandArrow is the band and direction bit image shared by alert and display data
type BandArrow byte

// BandArrow bits
const (
	BandLaser  BandArrow = 0x01
	BandKa     BandArrow = 0x02
	BandK      BandArrow = 0x04
	BandX      BandArrow = 0x08
	BandKu     BandArrow = 0x10
	ArrowFront BandArrow = 0x20
	ArrowSide  BandArrow = 0x40
	ArrowRear  BandArrow = 0x80
)

// Has reports whether every bit in mask is set
func (b BandArrow) Has(mask BandArrow) bool {
	return b&mask == mask
}

func (b BandArrow) String() string {
	names := []struct {
		bit  BandArrow
		name string
	}{
		{BandLaser, "Laser"}, {BandKa, "Ka"}, {BandK, "K"}, {BandX, "X"}, {BandKu, "Ku"},
		{ArrowFront, "Front"}, {ArrowSide, "Side"}, {ArrowRear, "Rear"},
	}
	parts := []string{}
	for _, n := range names {
		if b.Has(n.bit) {
			parts = append(parts, n.name)
		}
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, "|")
}

// Alert aux byte bits
const (
	alertJunk     = 0x40
	alertPriority = 0x80
)

// AlertData is one entry of the detector's alert table
type AlertData struct {
	Index         int // 1-based
	Count         int
	Frequency     uint16 // MHz, 0 for laser
	FrontStrength byte
	RearStrength  byte
	Bands         BandArrow
	Priority      bool
	Junk          bool
}

// DecodeAlertData decodes a 7-byte respAlertData payload
func DecodeAlertData(payload []byte) AlertData {
	var buf [AlertDataSize]byte
	copy(buf[:], payload)
	return AlertData{
		Index:         int(buf[0] >> 4),
		Count:         int(buf[0] & 0x0F),
		Frequency:     uint16(buf[1])<<8 | uint16(buf[2]),
		FrontStrength: buf[3],
		RearStrength:  buf[4],
		Bands:         BandArrow(buf[5]),
		Priority:      buf[6]&alertPriority != 0,
		Junk:          buf[6]&alertJunk != 0,
	}
}

// Bytes encodes the alert record
func (a AlertData) Bytes() []byte {
	var aux byte
	if a.Priority {
		aux |= alertPriority
	}
	if a.Junk {
		aux |= alertJunk
	}
	return []byte{
		byte(a.Index&0x0F)<<4 | byte(a.Count&0x0F),
		byte(a.Frequency >> 8), byte(a.Frequency),
		a.FrontStrength,
		a.RearStrength,
		byte(a.Bands),
		aux,
	}
}

func (a AlertData) String() string {
	return fmt.Sprintf("alert %d/%d %s %d MHz front=%d rear=%d", a.Index, a.Count, a.Bands, a.Frequency, a.FrontStrength, a.RearStrength)
}

// Display aux0 bits
const (
	displaySoftMute     = 0x01
	displayTSHoldoff    = 0x02
	displaySystemStatus = 0x04
	displayOn           = 0x08
	displayEuroMode     = 0x10
	displayCustomSweep  = 0x20
	displayLegacy       = 0x40
)

// DisplayData mirrors the detector's front panel
type DisplayData struct {
	BogeyCounter1 byte // seven-segment image, blink phase 1
	BogeyCounter2 byte // seven-segment image, blink phase 2
	SignalBar     byte
	BandArrow1    BandArrow
	BandArrow2    BandArrow
	Aux0          byte
	Aux1          byte
	Aux2          byte
}

// DecodeDisplayData decodes an 8-byte infDisplayData payload
func DecodeDisplayData(payload []byte) DisplayData {
	var buf [DisplayDataSize]byte
	copy(buf[:], payload)
	return DisplayData{
		BogeyCounter1: buf[0],
		BogeyCounter2: buf[1],
		SignalBar:     buf[2],
		BandArrow1:    BandArrow(buf[3]),
		BandArrow2:    BandArrow(buf[4]),
		Aux0:          buf[5],
		Aux1:          buf[6],
		Aux2:          buf[7],
	}
}

// Bytes encodes the display record
func (d DisplayData) Bytes() []byte {
	return []byte{
		d.BogeyCounter1, d.BogeyCounter2, d.SignalBar,
		byte(d.BandArrow1), byte(d.BandArrow2),
		d.Aux0, d.Aux1, d.Aux2,
	}
}

// SoftMute reports whether alerts are muted
func (d DisplayData) SoftMute() bool { return d.Aux0&displaySoftMute != 0 }

// TSHoldoff reports whether the time slice holdoff is active
func (d DisplayData) TSHoldoff() bool { return d.Aux0&displayTSHoldoff != 0 }

// SystemStatus reports whether the detector is operating normally
func (d DisplayData) SystemStatus() bool { return d.Aux0&displaySystemStatus != 0 }

// DisplayOn reports whether the main display is on
func (d DisplayData) DisplayOn() bool { return d.Aux0&displayOn != 0 }

// EuroMode reports whether the detector runs in euro mode
func (d DisplayData) EuroMode() bool { return d.Aux0&displayEuroMode != 0 }

// CustomSweep reports whether custom sweeps are in use
func (d DisplayData) CustomSweep() bool { return d.Aux0&displayCustomSweep != 0 }

// Legacy reports whether the detector is in legacy mode
func (d DisplayData) Legacy() bool { return d.Aux0&displayLegacy != 0 }

// SignalStrength returns the number of lit LEDs in the signal bar
func (d DisplayData) SignalStrength() int {
	n := 0
	for bar := d.SignalBar; bar != 0; bar >>= 1 {
		n += int(bar & 1)
	}
	return n
}
