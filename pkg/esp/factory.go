// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package esp

// payloadWidths holds the fixed payload width of every packet kind that has
// one. Kinds not listed carry no payload.
var payloadWidths = map[PacketID]int{
	PacketRespVersion:                VersionSize,
	PacketRespSerialNumber:           SerialNumberSize,
	PacketRespUserBytes:              UserSettingsSize,
	PacketReqWriteUserBytes:          UserSettingsSize,
	PacketReqWriteSweepDefinition:    SweepDefinitionSize,
	PacketRespSweepDefinition:        SweepDefinitionSize,
	PacketRespDefaultSweepDefinition: SweepDefinitionSize,
	PacketRespMaxSweepIndex:          1,
	PacketRespSweepWriteResult:       1,
	PacketRespSweepSections:          SweepSectionSize,
	PacketInfDisplayData:             DisplayDataSize,
	PacketReqChangeMode:              1,
	PacketRespCurrentVolume:          VolumeSize,
	PacketReqWriteVolume:             VolumeSize,
	PacketRespAlertData:              AlertDataSize,
	PacketRespBatteryVoltage:         2,
	PacketRespUnsupportedPacket:      1,
	PacketRespRequestNotProcessed:    2,
	PacketRespDataError:              1,
	PacketRespSavvyStatus:            SavvyStatusSize,
	PacketRespVehicleSpeed:           1,
	PacketReqOverrideThumbwheel:      1,
	PacketReqSetSavvyUnmuteEnable:    1,
}

// PayloadWidth returns the fixed payload width for a packet kind and whether
// the kind has one. Variable-length kinds (respSweepSections, infV1Busy)
// report their minimum width.
func PayloadWidth(id PacketID) (int, bool) {
	n, ok := payloadWidths[id]
	return n, ok
}

// NewPacket creates a default-valued packet of the given kind, addressed
// from and to DeviceUnknown. Its payload is zero-filled to the kind's width.
// Ids outside the catalog produce an *UnknownPacket.
func NewPacket(id PacketID) Packet {
	payload := make([]byte, payloadWidths[id])
	p, err := NewPacketWithPayload(id, DeviceUnknown, DeviceUnknown, payload)
	if err != nil {
		// Unreachable: every width is below MaxPayloadSize.
		return &UnknownPacket{}
	}
	return p
}

// newVariant returns the empty concrete variant for a packet id.
func newVariant(id PacketID) Packet {
	switch id {
	case PacketReqVersion, PacketReqSerialNumber, PacketReqUserBytes,
		PacketReqFactoryDefault, PacketReqAllSweepDefinitions, PacketReqDefaultSweeps,
		PacketReqMaxSweepIndex, PacketReqSweepSections, PacketReqDefaultSweepDefinitions,
		PacketReqTurnOffMainDisplay, PacketReqTurnOnMainDisplay,
		PacketReqMuteOn, PacketReqMuteOff, PacketReqCurrentVolume,
		PacketReqStartAlertData, PacketReqStopAlertData,
		PacketReqBatteryVoltage, PacketReqSavvyStatus, PacketReqVehicleSpeed:
		return &Request{}
	case PacketReqWriteUserBytes:
		return &WriteUserBytesRequest{}
	case PacketReqWriteSweepDefinition:
		return &WriteSweepDefinitionRequest{}
	case PacketReqChangeMode:
		return &ChangeModeRequest{}
	case PacketReqWriteVolume:
		return &WriteVolumeRequest{}
	case PacketReqOverrideThumbwheel:
		return &OverrideThumbwheelRequest{}
	case PacketReqSetSavvyUnmuteEnable:
		return &SetSavvyUnmuteRequest{}
	case PacketRespVersion:
		return &VersionResponse{}
	case PacketRespSerialNumber:
		return &SerialNumberResponse{}
	case PacketRespUserBytes:
		return &UserBytesResponse{}
	case PacketRespSweepDefinition:
		return &SweepDefinitionResponse{}
	case PacketRespDefaultSweepDefinition:
		return &DefaultSweepDefinitionResponse{}
	case PacketRespMaxSweepIndex:
		return &MaxSweepIndexResponse{}
	case PacketRespSweepWriteResult:
		return &SweepWriteResultResponse{}
	case PacketRespSweepSections:
		return &SweepSectionsResponse{}
	case PacketInfDisplayData:
		return &DisplayDataInfo{}
	case PacketRespCurrentVolume:
		return &CurrentVolumeResponse{}
	case PacketRespAlertData:
		return &AlertDataResponse{}
	case PacketRespDataReceived:
		return &DataReceivedResponse{}
	case PacketRespBatteryVoltage:
		return &BatteryVoltageResponse{}
	case PacketRespUnsupportedPacket:
		return &UnsupportedPacketResponse{}
	case PacketRespRequestNotProcessed:
		return &RequestNotProcessedResponse{}
	case PacketInfV1Busy:
		return &V1BusyInfo{}
	case PacketRespDataError:
		return &DataErrorResponse{}
	case PacketRespSavvyStatus:
		return &SavvyStatusResponse{}
	case PacketRespVehicleSpeed:
		return &VehicleSpeedResponse{}
	default:
		return &UnknownPacket{}
	}
}
