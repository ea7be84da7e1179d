// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package esp

import (
	"fmt"
	"strings"
)

// FormatPacket formats a packet into a human-readable string
func FormatPacket(p Packet) string {
	timestamp := p.Timestamp().Format("15:04:05.000")

	result := fmt.Sprintf("[%s] %s (0x%02X) %s -> %s len=%d",
		timestamp, p.ID(), p.RawID(), p.Origin(), p.Destination(), p.PayloadLength())
	if p.HasChecksum() {
		result += fmt.Sprintf(" cs=0x%02X", p.Checksum())
	}
	result += "\n"

	if len(p.Payload()) > 0 {
		result += FormatPayload(p)
	}

	return result
}

// FormatPayload renders the decoded payload of a packet
func FormatPayload(p Packet) string {
	switch v := p.(type) {
	case *VersionResponse:
		return fmt.Sprintf("  Version: %s\n", v.Version())

	case *SerialNumberResponse:
		return fmt.Sprintf("  Serial Number: %s\n", v.SerialNumber())

	case *UserBytesResponse:
		return formatUserSettings(v.Settings())

	case *WriteUserBytesRequest:
		return formatUserSettings(v.Settings())

	case *SweepDefinitionResponse:
		return fmt.Sprintf("  %s\n", v.Definition())

	case *DefaultSweepDefinitionResponse:
		return fmt.Sprintf("  Default %s\n", v.Definition())

	case *WriteSweepDefinitionRequest:
		return fmt.Sprintf("  %s\n", v.Definition())

	case *MaxSweepIndexResponse:
		return fmt.Sprintf("  Max Sweep Index: %d\n", v.MaxIndex())

	case *SweepWriteResultResponse:
		result := v.Result()
		if result.Success {
			return "  Sweep Write: success\n"
		}
		return fmt.Sprintf("  Sweep Write: failed at index %d\n", result.FailedIndex)

	case *SweepSectionsResponse:
		out := ""
		for _, s := range v.Sections() {
			out += fmt.Sprintf("  %s\n", s)
		}
		if out == "" {
			return "  (no sections)\n"
		}
		return out

	case *DisplayDataInfo:
		d := v.Display()
		return fmt.Sprintf("  Bands: %s / %s, Signal: %d, Display: %s, Muted: %s, Mode: %s\n",
			d.BandArrow1, d.BandArrow2, d.SignalStrength(),
			onOff(d.DisplayOn()), yesNo(d.SoftMute()), displayMode(d))

	case *AlertDataResponse:
		a := v.Alert()
		result := fmt.Sprintf("  %s", a)
		if a.Priority {
			result += " [priority]"
		}
		if a.Junk {
			result += " [junk]"
		}
		return result + "\n"

	case *CurrentVolumeResponse:
		vol := v.Volume()
		return fmt.Sprintf("  Volume: main=%d muted=%d\n", vol.Main, vol.Muted)

	case *WriteVolumeRequest:
		vol := v.Volume()
		return fmt.Sprintf("  Volume: main=%d muted=%d\n", vol.Main, vol.Muted)

	case *ChangeModeRequest:
		return fmt.Sprintf("  Mode: %s\n", v.Mode())

	case *BatteryVoltageResponse:
		return fmt.Sprintf("  Battery: %.2f V\n", v.Voltage())

	case *UnsupportedPacketResponse:
		return fmt.Sprintf("  Unsupported: %s\n", v.Rejected())

	case *RequestNotProcessedResponse:
		np := v.NotProcessed()
		return fmt.Sprintf("  Not Processed: %s, Code: %d\n", np.Request, np.Code)

	case *DataErrorResponse:
		return fmt.Sprintf("  Data Error: %s\n", v.Rejected())

	case *V1BusyInfo:
		names := []string{}
		for _, id := range v.Pending() {
			names = append(names, id.String())
		}
		return fmt.Sprintf("  Busy With: %s\n", strings.Join(names, ", "))

	case *SavvyStatusResponse:
		s := v.Status()
		return fmt.Sprintf("  Threshold: %d kph, Unmute: %s, Thumbwheel Override: %s\n",
			s.ThresholdKph, onOff(s.UnmuteEnabled), yesNo(s.ThumbwheelOverride))

	case *VehicleSpeedResponse:
		return fmt.Sprintf("  Speed: %d kph\n", v.SpeedKph())

	case *OverrideThumbwheelRequest:
		if v.SpeedKph() == ThumbwheelAuto {
			return "  Thumbwheel: auto\n"
		}
		return fmt.Sprintf("  Thumbwheel: %d kph\n", v.SpeedKph())

	case *SetSavvyUnmuteRequest:
		return fmt.Sprintf("  Unmute: %s\n", onOff(v.Enabled()))
	}

	// Default: hex dump
	return "  Payload: " + HexDump(p.Payload(), 11) + "\n"
}

// HexDump renders bytes as space-separated hex, 16 per line. Continuation
// lines are indented by indent spaces.
func HexDump(data []byte, indent int) string {
	var sb strings.Builder
	for i, b := range data {
		if i > 0 && i%16 == 0 {
			sb.WriteString("\n")
			sb.WriteString(strings.Repeat(" ", indent))
		}
		fmt.Fprintf(&sb, "%02X ", b)
	}
	return strings.TrimRight(sb.String(), " ")
}

func formatUserSettings(s UserSettings) string {
	return fmt.Sprintf("  X=%s K=%s Ka=%s Ku=%s Laser=%s Euro=%s Filter=%s CustomSweeps=%s\n",
		onOff(s.XBand()), onOff(s.KBand()), onOff(s.KaBand()), onOff(s.KuBand()),
		onOff(s.Laser()), onOff(s.EuroMode()), onOff(s.Filter()), onOff(s.CustomSweeps()))
}

func displayMode(d DisplayData) string {
	switch {
	case d.Legacy():
		return "legacy"
	case d.EuroMode():
		return "euro"
	case d.CustomSweep():
		return "custom"
	default:
		return "usa"
	}
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
