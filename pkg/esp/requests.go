// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package esp

import "fmt"

// Packet builder functions create packets ready for transmission.
// These are convenience wrappers that encode the payload for each packet
// kind; the frame, length and checksum are computed on construction.

func build[T Packet](id PacketID, origin, destination Device, payload []byte) T {
	p := newVariant(id)
	h := p.header()
	h.id = id
	h.encode(origin, destination, payload)
	return p.(T)
}

// NewRequest creates a payload-less request such as reqVersion, reqMuteOn or
// reqStartAlertData.
func NewRequest(id PacketID, origin, destination Device) (*Request, error) {
	if _, ok := newVariant(id).(*Request); !ok {
		return nil, fmt.Errorf("%s is not a payload-less request", id)
	}
	return build[*Request](id, origin, destination, nil), nil
}

// NewVersionRequest creates a reqVersion packet (0x01)
func NewVersionRequest(origin, destination Device) *Request {
	return build[*Request](PacketReqVersion, origin, destination, nil)
}

// NewSerialNumberRequest creates a reqSerialNumber packet (0x03)
func NewSerialNumberRequest(origin, destination Device) *Request {
	return build[*Request](PacketReqSerialNumber, origin, destination, nil)
}

// NewUserBytesRequest creates a reqUserBytes packet (0x11)
func NewUserBytesRequest(origin, destination Device) *Request {
	return build[*Request](PacketReqUserBytes, origin, destination, nil)
}

// NewWriteUserBytesRequest creates a reqWriteUserBytes packet (0x13)
func NewWriteUserBytesRequest(origin, destination Device, settings UserSettings) *WriteUserBytesRequest {
	return build[*WriteUserBytesRequest](PacketReqWriteUserBytes, origin, destination, settings.Payload())
}

// NewWriteSweepDefinitionRequest creates a reqWriteSweepDefinition packet
// (0x15). Set Commit on the last definition of a batch.
func NewWriteSweepDefinitionRequest(origin, destination Device, def SweepDefinition) *WriteSweepDefinitionRequest {
	return build[*WriteSweepDefinitionRequest](PacketReqWriteSweepDefinition, origin, destination, def.Bytes())
}

// NewChangeModeRequest creates a reqChangeMode packet (0x36)
func NewChangeModeRequest(origin, destination Device, mode Mode) *ChangeModeRequest {
	return build[*ChangeModeRequest](PacketReqChangeMode, origin, destination, []byte{byte(mode)})
}

// NewWriteVolumeRequest creates a reqWriteVolume packet (0x39)
func NewWriteVolumeRequest(origin, destination Device, volume Volume) *WriteVolumeRequest {
	return build[*WriteVolumeRequest](PacketReqWriteVolume, origin, destination, volume.Bytes())
}

// NewOverrideThumbwheelRequest creates a reqOverrideThumbwheel packet (0x75).
// Pass ThumbwheelAuto to return control to the thumbwheel.
func NewOverrideThumbwheelRequest(origin, destination Device, speedKph int) *OverrideThumbwheelRequest {
	return build[*OverrideThumbwheelRequest](PacketReqOverrideThumbwheel, origin, destination, []byte{byte(speedKph)})
}

// NewSetSavvyUnmuteRequest creates a reqSetSavvyUnmuteEnable packet (0x76)
func NewSetSavvyUnmuteRequest(origin, destination Device, enabled bool) *SetSavvyUnmuteRequest {
	var b byte
	if enabled {
		b = 1
	}
	return build[*SetSavvyUnmuteRequest](PacketReqSetSavvyUnmuteEnable, origin, destination, []byte{b})
}

// NewVersionResponse creates a respVersion packet (0x02)
func NewVersionResponse(origin, destination Device, version string) (*VersionResponse, error) {
	if len(version) > MaxPayloadSize {
		return nil, fmt.Errorf("version too long: %d bytes", len(version))
	}
	return build[*VersionResponse](PacketRespVersion, origin, destination, EncodeVersion(version)), nil
}

// NewSerialNumberResponse creates a respSerialNumber packet (0x04).
// Serial numbers longer than SerialNumberSize are truncated.
func NewSerialNumberResponse(origin, destination Device, serial string) *SerialNumberResponse {
	return build[*SerialNumberResponse](PacketRespSerialNumber, origin, destination, EncodeSerialNumber(serial))
}

// NewUserBytesResponse creates a respUserBytes packet (0x12)
func NewUserBytesResponse(origin, destination Device, settings UserSettings) *UserBytesResponse {
	return build[*UserBytesResponse](PacketRespUserBytes, origin, destination, settings.Payload())
}

// NewSweepDefinitionResponse creates a respSweepDefinition packet (0x17)
func NewSweepDefinitionResponse(origin, destination Device, def SweepDefinition) *SweepDefinitionResponse {
	return build[*SweepDefinitionResponse](PacketRespSweepDefinition, origin, destination, def.Bytes())
}

// NewDefaultSweepDefinitionResponse creates a respDefaultSweepDefinition
// packet (0x25)
func NewDefaultSweepDefinitionResponse(origin, destination Device, def SweepDefinition) *DefaultSweepDefinitionResponse {
	return build[*DefaultSweepDefinitionResponse](PacketRespDefaultSweepDefinition, origin, destination, def.Bytes())
}

// NewMaxSweepIndexResponse creates a respMaxSweepIndex packet (0x20)
func NewMaxSweepIndexResponse(origin, destination Device, maxIndex int) *MaxSweepIndexResponse {
	return build[*MaxSweepIndexResponse](PacketRespMaxSweepIndex, origin, destination, []byte{byte(maxIndex)})
}

// NewSweepWriteResultResponse creates a respSweepWriteResult packet (0x21)
func NewSweepWriteResultResponse(origin, destination Device, result SweepWriteResult) *SweepWriteResultResponse {
	return build[*SweepWriteResultResponse](PacketRespSweepWriteResult, origin, destination, result.Bytes())
}

// NewSweepSectionsResponse creates a respSweepSections packet (0x23)
func NewSweepSectionsResponse(origin, destination Device, sections []SweepSection) (*SweepSectionsResponse, error) {
	payload := EncodeSweepSections(sections)
	if len(payload) > MaxPayloadSize {
		return nil, fmt.Errorf("too many sweep sections: %d", len(sections))
	}
	return build[*SweepSectionsResponse](PacketRespSweepSections, origin, destination, payload), nil
}

// NewDisplayData creates an infDisplayData packet (0x31)
func NewDisplayData(origin, destination Device, display DisplayData) *DisplayDataInfo {
	return build[*DisplayDataInfo](PacketInfDisplayData, origin, destination, display.Bytes())
}

// NewCurrentVolumeResponse creates a respCurrentVolume packet (0x38)
func NewCurrentVolumeResponse(origin, destination Device, volume Volume) *CurrentVolumeResponse {
	return build[*CurrentVolumeResponse](PacketRespCurrentVolume, origin, destination, volume.Bytes())
}

// NewAlertDataResponse creates a respAlertData packet (0x43)
func NewAlertDataResponse(origin, destination Device, alert AlertData) *AlertDataResponse {
	return build[*AlertDataResponse](PacketRespAlertData, origin, destination, alert.Bytes())
}

// NewDataReceivedResponse creates a respDataReceived packet (0x61)
func NewDataReceivedResponse(origin, destination Device) *DataReceivedResponse {
	return build[*DataReceivedResponse](PacketRespDataReceived, origin, destination, nil)
}

// NewBatteryVoltageResponse creates a respBatteryVoltage packet (0x63)
func NewBatteryVoltageResponse(origin, destination Device, volts float64) *BatteryVoltageResponse {
	return build[*BatteryVoltageResponse](PacketRespBatteryVoltage, origin, destination, EncodeBatteryVoltage(volts))
}

// NewUnsupportedPacketResponse creates a respUnsupportedPacket packet (0x64)
func NewUnsupportedPacketResponse(origin, destination Device, rejected PacketID) *UnsupportedPacketResponse {
	return build[*UnsupportedPacketResponse](PacketRespUnsupportedPacket, origin, destination, []byte{rejected.Byte()})
}

// NewRequestNotProcessedResponse creates a respRequestNotProcessed packet (0x65)
func NewRequestNotProcessedResponse(origin, destination Device, request PacketID, code byte) *RequestNotProcessedResponse {
	return build[*RequestNotProcessedResponse](PacketRespRequestNotProcessed, origin, destination, []byte{request.Byte(), code})
}

// NewV1BusyInfo creates an infV1Busy packet (0x66)
func NewV1BusyInfo(origin, destination Device, pending []PacketID) (*V1BusyInfo, error) {
	if len(pending) > MaxPayloadSize {
		return nil, fmt.Errorf("too many pending requests: %d", len(pending))
	}
	payload := make([]byte, len(pending))
	for i, id := range pending {
		payload[i] = id.Byte()
	}
	return build[*V1BusyInfo](PacketInfV1Busy, origin, destination, payload), nil
}

// NewDataErrorResponse creates a respDataError packet (0x67)
func NewDataErrorResponse(origin, destination Device, rejected PacketID) *DataErrorResponse {
	return build[*DataErrorResponse](PacketRespDataError, origin, destination, []byte{rejected.Byte()})
}

// NewSavvyStatusResponse creates a respSavvyStatus packet (0x72)
func NewSavvyStatusResponse(origin, destination Device, status SavvyStatus) *SavvyStatusResponse {
	return build[*SavvyStatusResponse](PacketRespSavvyStatus, origin, destination, status.Bytes())
}

// NewVehicleSpeedResponse creates a respVehicleSpeed packet (0x74)
func NewVehicleSpeedResponse(origin, destination Device, speedKph int) *VehicleSpeedResponse {
	return build[*VehicleSpeedResponse](PacketRespVehicleSpeed, origin, destination, []byte{byte(speedKph)})
}

// ResponseFor returns the packet kind that answers a request, and false for
// requests the detector only acknowledges.
func ResponseFor(request PacketID) (PacketID, bool) {
	switch request {
	case PacketReqVersion:
		return PacketRespVersion, true
	case PacketReqSerialNumber:
		return PacketRespSerialNumber, true
	case PacketReqUserBytes:
		return PacketRespUserBytes, true
	case PacketReqAllSweepDefinitions:
		return PacketRespSweepDefinition, true
	case PacketReqDefaultSweepDefinitions:
		return PacketRespDefaultSweepDefinition, true
	case PacketReqMaxSweepIndex:
		return PacketRespMaxSweepIndex, true
	case PacketReqSweepSections:
		return PacketRespSweepSections, true
	case PacketReqWriteSweepDefinition:
		return PacketRespSweepWriteResult, true
	case PacketReqCurrentVolume:
		return PacketRespCurrentVolume, true
	case PacketReqStartAlertData:
		return PacketRespAlertData, true
	case PacketReqBatteryVoltage:
		return PacketRespBatteryVoltage, true
	case PacketReqSavvyStatus:
		return PacketRespSavvyStatus, true
	case PacketReqVehicleSpeed:
		return PacketRespVehicleSpeed, true
	default:
		return PacketUnknown, false
	}
}
