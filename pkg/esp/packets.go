// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package esp

// Request is a request or command without a payload, e.g. reqVersion or
// reqMuteOn. The packet id distinguishes them.
type Request struct{ Header }

// ResponseData returns nil; requests carry no response data
func (p *Request) ResponseData() any { return nil }

// WriteUserBytesRequest asks the detector to store new user settings
type WriteUserBytesRequest struct{ Header }

// Settings returns the user settings to be written
func (p *WriteUserBytesRequest) Settings() UserSettings { return DecodeUserSettings(p.payload) }

// ResponseData returns the UserSettings to be written
func (p *WriteUserBytesRequest) ResponseData() any { return p.Settings() }

// WriteSweepDefinitionRequest writes one custom sweep definition
type WriteSweepDefinitionRequest struct{ Header }

// Definition returns the sweep definition to be written
func (p *WriteSweepDefinitionRequest) Definition() SweepDefinition {
	return DecodeSweepDefinition(p.payload)
}

// ResponseData returns the SweepDefinition to be written
func (p *WriteSweepDefinitionRequest) ResponseData() any { return p.Definition() }

// ChangeModeRequest selects the detector's logic mode
type ChangeModeRequest struct{ Header }

// Mode returns the requested mode
func (p *ChangeModeRequest) Mode() Mode {
	if len(p.payload) == 0 {
		return 0
	}
	return Mode(p.payload[0])
}

// ResponseData returns the requested Mode
func (p *ChangeModeRequest) ResponseData() any { return p.Mode() }

// WriteVolumeRequest sets the main and muted volume
type WriteVolumeRequest struct{ Header }

// Volume returns the requested levels
func (p *WriteVolumeRequest) Volume() Volume { return DecodeVolume(p.payload) }

// ResponseData returns the requested Volume
func (p *WriteVolumeRequest) ResponseData() any { return p.Volume() }

// OverrideThumbwheelRequest overrides the SAVVY thumbwheel speed
type OverrideThumbwheelRequest struct{ Header }

// SpeedKph returns the override speed. ThumbwheelAuto restores the thumbwheel.
func (p *OverrideThumbwheelRequest) SpeedKph() int {
	if len(p.payload) == 0 {
		return 0
	}
	return int(p.payload[0])
}

// ResponseData returns the override speed
func (p *OverrideThumbwheelRequest) ResponseData() any { return p.SpeedKph() }

// SetSavvyUnmuteRequest enables or disables SAVVY automatic unmuting
type SetSavvyUnmuteRequest struct{ Header }

// Enabled reports whether unmuting is being enabled
func (p *SetSavvyUnmuteRequest) Enabled() bool {
	return len(p.payload) > 0 && p.payload[0] != 0
}

// ResponseData returns the requested state
func (p *SetSavvyUnmuteRequest) ResponseData() any { return p.Enabled() }

// VersionResponse carries a device's firmware version
type VersionResponse struct{ Header }

// Version returns the version string
func (p *VersionResponse) Version() string { return DecodeVersion(p.payload) }

// ResponseData returns the version string
func (p *VersionResponse) ResponseData() any { return p.Version() }

// SerialNumberResponse carries a device's serial number
type SerialNumberResponse struct{ Header }

// SerialNumber returns the serial number
func (p *SerialNumberResponse) SerialNumber() string { return DecodeSerialNumber(p.payload) }

// ResponseData returns the serial number
func (p *SerialNumberResponse) ResponseData() any { return p.SerialNumber() }

// UserBytesResponse carries the detector's user settings
type UserBytesResponse struct{ Header }

// Settings returns the decoded user settings
func (p *UserBytesResponse) Settings() UserSettings { return DecodeUserSettings(p.payload) }

// ResponseData returns the UserSettings
func (p *UserBytesResponse) ResponseData() any { return p.Settings() }

// SweepDefinitionResponse carries one custom sweep definition
type SweepDefinitionResponse struct{ Header }

// Definition returns the decoded sweep definition
func (p *SweepDefinitionResponse) Definition() SweepDefinition {
	return DecodeSweepDefinition(p.payload)
}

// ResponseData returns the SweepDefinition
func (p *SweepDefinitionResponse) ResponseData() any { return p.Definition() }

// DefaultSweepDefinitionResponse carries one factory default sweep definition
type DefaultSweepDefinitionResponse struct{ SweepDefinitionResponse }

// MaxSweepIndexResponse carries the highest writable sweep index
type MaxSweepIndexResponse struct{ Header }

// MaxIndex returns the highest sweep index
func (p *MaxSweepIndexResponse) MaxIndex() int {
	if len(p.payload) == 0 {
		return 0
	}
	return int(p.payload[0])
}

// ResponseData returns the highest sweep index
func (p *MaxSweepIndexResponse) ResponseData() any { return p.MaxIndex() }

// SweepWriteResultResponse reports the outcome of a committed sweep write
type SweepWriteResultResponse struct{ Header }

// Result returns the decoded write result
func (p *SweepWriteResultResponse) Result() SweepWriteResult {
	return DecodeSweepWriteResult(p.payload)
}

// ResponseData returns the SweepWriteResult
func (p *SweepWriteResultResponse) ResponseData() any { return p.Result() }

// SweepSectionsResponse carries the detector's sweep sections
type SweepSectionsResponse struct{ Header }

// Sections returns the decoded sweep sections
func (p *SweepSectionsResponse) Sections() []SweepSection {
	return DecodeSweepSections(p.payload)
}

// ResponseData returns the []SweepSection
func (p *SweepSectionsResponse) ResponseData() any { return p.Sections() }

// DisplayDataInfo is the periodic front panel broadcast
type DisplayDataInfo struct{ Header }

// Display returns the decoded display data
func (p *DisplayDataInfo) Display() DisplayData { return DecodeDisplayData(p.payload) }

// ResponseData returns the DisplayData
func (p *DisplayDataInfo) ResponseData() any { return p.Display() }

// CurrentVolumeResponse carries the current volume levels
type CurrentVolumeResponse struct{ Header }

// Volume returns the decoded volume levels
func (p *CurrentVolumeResponse) Volume() Volume { return DecodeVolume(p.payload) }

// ResponseData returns the Volume
func (p *CurrentVolumeResponse) ResponseData() any { return p.Volume() }

// AlertDataResponse carries one alert table entry
type AlertDataResponse struct{ Header }

// Alert returns the decoded alert
func (p *AlertDataResponse) Alert() AlertData { return DecodeAlertData(p.payload) }

// ResponseData returns the AlertData
func (p *AlertDataResponse) ResponseData() any { return p.Alert() }

// DataReceivedResponse acknowledges a request
type DataReceivedResponse struct{ Header }

// ResponseData returns nil
func (p *DataReceivedResponse) ResponseData() any { return nil }

// BatteryVoltageResponse carries the supply voltage
type BatteryVoltageResponse struct{ Header }

// Voltage returns the decoded battery voltage
func (p *BatteryVoltageResponse) Voltage() float64 { return DecodeBatteryVoltage(p.payload) }

// ResponseData returns the voltage as float64
func (p *BatteryVoltageResponse) ResponseData() any { return p.Voltage() }

// UnsupportedPacketResponse rejects a packet the device does not implement
type UnsupportedPacketResponse struct{ Header }

// Rejected returns the id of the unsupported packet
func (p *UnsupportedPacketResponse) Rejected() PacketID {
	if len(p.payload) == 0 {
		return PacketUnknown
	}
	return PacketIDFromByte(p.payload[0])
}

// ResponseData returns the rejected PacketID
func (p *UnsupportedPacketResponse) ResponseData() any { return p.Rejected() }

// NotProcessed describes a request the device could not process
type NotProcessed struct {
	Request PacketID
	Code    byte
}

// RequestNotProcessedResponse reports a request the device could not process
type RequestNotProcessedResponse struct{ Header }

// NotProcessed returns the decoded request id and error code
func (p *RequestNotProcessedResponse) NotProcessed() NotProcessed {
	result := NotProcessed{Request: PacketUnknown}
	if len(p.payload) > 0 {
		result.Request = PacketIDFromByte(p.payload[0])
	}
	if len(p.payload) > 1 {
		result.Code = p.payload[1]
	}
	return result
}

// ResponseData returns the NotProcessed value
func (p *RequestNotProcessedResponse) ResponseData() any { return p.NotProcessed() }

// V1BusyInfo lists the requests the detector is still working on
type V1BusyInfo struct{ Header }

// Pending returns the ids of the pending requests
func (p *V1BusyInfo) Pending() []PacketID {
	ids := make([]PacketID, 0, len(p.payload))
	for _, b := range p.payload {
		ids = append(ids, PacketIDFromByte(b))
	}
	return ids
}

// ResponseData returns the pending []PacketID
func (p *V1BusyInfo) ResponseData() any { return p.Pending() }

// DataErrorResponse reports a request whose payload was invalid
type DataErrorResponse struct{ Header }

// Rejected returns the id of the rejected request
func (p *DataErrorResponse) Rejected() PacketID {
	if len(p.payload) == 0 {
		return PacketUnknown
	}
	return PacketIDFromByte(p.payload[0])
}

// ResponseData returns the rejected PacketID
func (p *DataErrorResponse) ResponseData() any { return p.Rejected() }

// SavvyStatusResponse carries the SAVVY status
type SavvyStatusResponse struct{ Header }

// Status returns the decoded SAVVY status
func (p *SavvyStatusResponse) Status() SavvyStatus { return DecodeSavvyStatus(p.payload) }

// ResponseData returns the SavvyStatus
func (p *SavvyStatusResponse) ResponseData() any { return p.Status() }

// VehicleSpeedResponse carries the vehicle speed seen by the SAVVY
type VehicleSpeedResponse struct{ Header }

// SpeedKph returns the vehicle speed
func (p *VehicleSpeedResponse) SpeedKph() int {
	if len(p.payload) == 0 {
		return 0
	}
	return int(p.payload[0])
}

// ResponseData returns the speed in kph
func (p *VehicleSpeedResponse) ResponseData() any { return p.SpeedKph() }

// UnknownPacket holds a packet whose id byte is not in the catalog.
// RawID returns the id byte as received.
type UnknownPacket struct{ Header }

// ResponseData returns nil
func (p *UnknownPacket) ResponseData() any { return nil }
