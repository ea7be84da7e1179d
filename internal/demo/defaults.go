// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package demo

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/Thermoquad/espbus/pkg/esp"
)

// Factory sweep layout reported by the simulated detector, in MHz
var defaultSweeps = []esp.SweepDefinition{
	{Index: 0, UpperEdge: 33900, LowerEdge: 33400},
	{Index: 1, UpperEdge: 34400, LowerEdge: 33900},
	{Index: 2, UpperEdge: 34900, LowerEdge: 34400},
	{Index: 3, UpperEdge: 35500, LowerEdge: 34900},
	{Index: 4, UpperEdge: 36070, LowerEdge: 35500},
	{Index: 5, UpperEdge: 0, LowerEdge: 0},
}

var defaultSections = []esp.SweepSection{
	esp.NewSweepSection(1, 2, 36072, 33384),
	esp.NewSweepSection(2, 2, 24250, 23905),
}

// DefaultSession returns the responses of a typical detector with a SAVVY
// attached, addressed to the given application device.
func DefaultSession(app esp.Device) []esp.Packet {
	v1 := esp.DeviceV1WithChecksum

	version, _ := esp.NewVersionResponse(v1, app, "V4.1036")
	savvyVersion, _ := esp.NewVersionResponse(esp.DeviceSavvy, app, "S3.0012")
	sections, _ := esp.NewSweepSectionsResponse(v1, app, defaultSections)

	packets := []esp.Packet{
		version,
		savvyVersion,
		esp.NewSerialNumberResponse(v1, app, "4100231057"),
		esp.NewSerialNumberResponse(esp.DeviceSavvy, app, "SV00017734"),
		esp.NewUserBytesResponse(v1, app, esp.DefaultUserSettings()),
		sections,
		esp.NewMaxSweepIndexResponse(v1, app, len(defaultSweeps)-1),
		esp.NewBatteryVoltageResponse(v1, app, 13.82),
		esp.NewSavvyStatusResponse(esp.DeviceSavvy, app, esp.SavvyStatus{ThresholdKph: 48, UnmuteEnabled: true}),
		esp.NewVehicleSpeedResponse(esp.DeviceSavvy, app, 0),
		esp.NewCurrentVolumeResponse(v1, app, esp.Volume{Main: 7, Muted: 3}),
	}
	for _, def := range defaultSweeps {
		packets = append(packets, esp.NewSweepDefinitionResponse(v1, app, def))
	}
	for _, def := range defaultSweeps {
		packets = append(packets, esp.NewDefaultSweepDefinitionResponse(v1, app, def))
	}
	return packets
}

// Broadcast pushes simulated infDisplayData packets from the detector every
// interval until ctx is done. A Ka band bogey drifts in and out of range.
func (s *Simulator) Broadcast(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var t float64
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		t += interval.Seconds()
		s.HandlePacket(esp.NewDisplayData(esp.DeviceV1WithChecksum, esp.DeviceGeneralBroadcast, simulatedDisplay(t)))
	}
}

// simulatedDisplay renders the front panel at virtual time t
func simulatedDisplay(t float64) esp.DisplayData {
	strength := math.Sin(t*0.2) * 8
	d := esp.DisplayData{
		BogeyCounter1: 0x3F, // "0"
		BogeyCounter2: 0x3F,
		Aux0:          0x0C, // display on, system ok
	}
	if strength <= 1 {
		return d
	}

	leds := int(strength) + rand.Intn(2)
	if leds > 8 {
		leds = 8
	}
	d.BogeyCounter1 = 0x06 // "1"
	d.BogeyCounter2 = 0x06
	d.SignalBar = byte(1<<leds - 1)
	d.BandArrow1 = esp.BandKa | esp.ArrowFront
	d.BandArrow2 = d.BandArrow1
	return d
}
