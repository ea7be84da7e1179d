// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package esp

import "fmt"

// PacketID is the symbolic identity of a packet's purpose.
type PacketID uint16

// Packet identifiers - version and serial number
const (
	PacketReqVersion       PacketID = 0x01
	PacketRespVersion      PacketID = 0x02
	PacketReqSerialNumber  PacketID = 0x03
	PacketRespSerialNumber PacketID = 0x04
)

// Packet identifiers - user settings and sweeps
const (
	PacketReqUserBytes               PacketID = 0x11
	PacketRespUserBytes              PacketID = 0x12
	PacketReqWriteUserBytes          PacketID = 0x13
	PacketReqFactoryDefault          PacketID = 0x14
	PacketReqWriteSweepDefinition    PacketID = 0x15
	PacketReqAllSweepDefinitions     PacketID = 0x16
	PacketRespSweepDefinition        PacketID = 0x17
	PacketReqDefaultSweeps           PacketID = 0x18
	PacketReqMaxSweepIndex           PacketID = 0x19
	PacketRespMaxSweepIndex          PacketID = 0x20
	PacketRespSweepWriteResult       PacketID = 0x21
	PacketReqSweepSections           PacketID = 0x22
	PacketRespSweepSections          PacketID = 0x23
	PacketReqDefaultSweepDefinitions PacketID = 0x24
	PacketRespDefaultSweepDefinition PacketID = 0x25
)

// Packet identifiers - display, audio and alerts
const (
	PacketInfDisplayData        PacketID = 0x31
	PacketReqTurnOffMainDisplay PacketID = 0x32
	PacketReqTurnOnMainDisplay  PacketID = 0x33
	PacketReqMuteOn             PacketID = 0x34
	PacketReqMuteOff            PacketID = 0x35
	PacketReqChangeMode         PacketID = 0x36
	PacketReqCurrentVolume      PacketID = 0x37
	PacketRespCurrentVolume     PacketID = 0x38
	PacketReqWriteVolume        PacketID = 0x39
	PacketReqStartAlertData     PacketID = 0x41
	PacketReqStopAlertData      PacketID = 0x42
	PacketRespAlertData         PacketID = 0x43
)

// Packet identifiers - status and errors
const (
	PacketRespDataReceived        PacketID = 0x61
	PacketReqBatteryVoltage       PacketID = 0x62
	PacketRespBatteryVoltage      PacketID = 0x63
	PacketRespUnsupportedPacket   PacketID = 0x64
	PacketRespRequestNotProcessed PacketID = 0x65
	PacketInfV1Busy               PacketID = 0x66
	PacketRespDataError           PacketID = 0x67
)

// Packet identifiers - SAVVY
const (
	PacketReqSavvyStatus          PacketID = 0x71
	PacketRespSavvyStatus         PacketID = 0x72
	PacketReqVehicleSpeed         PacketID = 0x73
	PacketRespVehicleSpeed        PacketID = 0x74
	PacketReqOverrideThumbwheel   PacketID = 0x75
	PacketReqSetSavvyUnmuteEnable PacketID = 0x76
)

// PacketUnknown is the fallback for unmapped id bytes. It lies outside the
// one-byte range and is never transmitted.
const PacketUnknown PacketID = 0x100

type packetIDInfo struct {
	id    PacketID
	label string
}

var packetCatalog = []packetIDInfo{
	{PacketReqVersion, "reqVersion"},
	{PacketRespVersion, "respVersion"},
	{PacketReqSerialNumber, "reqSerialNumber"},
	{PacketRespSerialNumber, "respSerialNumber"},
	{PacketReqUserBytes, "reqUserBytes"},
	{PacketRespUserBytes, "respUserBytes"},
	{PacketReqWriteUserBytes, "reqWriteUserBytes"},
	{PacketReqFactoryDefault, "reqFactoryDefault"},
	{PacketReqWriteSweepDefinition, "reqWriteSweepDefinition"},
	{PacketReqAllSweepDefinitions, "reqAllSweepDefinitions"},
	{PacketRespSweepDefinition, "respSweepDefinition"},
	{PacketReqDefaultSweeps, "reqDefaultSweeps"},
	{PacketReqMaxSweepIndex, "reqMaxSweepIndex"},
	{PacketRespMaxSweepIndex, "respMaxSweepIndex"},
	{PacketRespSweepWriteResult, "respSweepWriteResult"},
	{PacketReqSweepSections, "reqSweepSections"},
	{PacketRespSweepSections, "respSweepSections"},
	{PacketReqDefaultSweepDefinitions, "reqDefaultSweepDefinitions"},
	{PacketRespDefaultSweepDefinition, "respDefaultSweepDefinition"},
	{PacketInfDisplayData, "infDisplayData"},
	{PacketReqTurnOffMainDisplay, "reqTurnOffMainDisplay"},
	{PacketReqTurnOnMainDisplay, "reqTurnOnMainDisplay"},
	{PacketReqMuteOn, "reqMuteOn"},
	{PacketReqMuteOff, "reqMuteOff"},
	{PacketReqChangeMode, "reqChangeMode"},
	{PacketReqCurrentVolume, "reqCurrentVolume"},
	{PacketRespCurrentVolume, "respCurrentVolume"},
	{PacketReqWriteVolume, "reqWriteVolume"},
	{PacketReqStartAlertData, "reqStartAlertData"},
	{PacketReqStopAlertData, "reqStopAlertData"},
	{PacketRespAlertData, "respAlertData"},
	{PacketRespDataReceived, "respDataReceived"},
	{PacketReqBatteryVoltage, "reqBatteryVoltage"},
	{PacketRespBatteryVoltage, "respBatteryVoltage"},
	{PacketRespUnsupportedPacket, "respUnsupportedPacket"},
	{PacketRespRequestNotProcessed, "respRequestNotProcessed"},
	{PacketInfV1Busy, "infV1Busy"},
	{PacketRespDataError, "respDataError"},
	{PacketReqSavvyStatus, "reqSavvyStatus"},
	{PacketRespSavvyStatus, "respSavvyStatus"},
	{PacketReqVehicleSpeed, "reqVehicleSpeed"},
	{PacketRespVehicleSpeed, "respVehicleSpeed"},
	{PacketReqOverrideThumbwheel, "reqOverrideThumbwheel"},
	{PacketReqSetSavvyUnmuteEnable, "reqSetSavvyUnmuteEnable"},
}

// Lookup tables, built once at init and read-only afterwards.
var (
	packetIDsByByte [256]PacketID
	packetIDLabels  = make(map[PacketID]string, len(packetCatalog))
	packetIDsByName = make(map[string]PacketID, len(packetCatalog))
)

func init() {
	for i := range packetIDsByByte {
		packetIDsByByte[i] = PacketUnknown
	}
	for _, info := range packetCatalog {
		packetIDsByByte[byte(info.id)] = info.id
		packetIDLabels[info.id] = info.label
		packetIDsByName[normalizeName(info.label)] = info.id
	}
}

// PacketIDFromByte resolves a wire byte to a PacketID. Unmapped bytes resolve
// to PacketUnknown.
func PacketIDFromByte(b byte) PacketID {
	return packetIDsByByte[b]
}

// ParsePacketID resolves a packet label such as "respVersion" (case-insensitive).
func ParsePacketID(name string) (PacketID, bool) {
	id, ok := packetIDsByName[normalizeName(name)]
	return id, ok
}

// PacketIDs returns every transmittable packet id in catalog order.
func PacketIDs() []PacketID {
	ids := make([]PacketID, len(packetCatalog))
	for i, info := range packetCatalog {
		ids[i] = info.id
	}
	return ids
}

// Byte returns the packet id's wire code. PacketUnknown has none and returns 0.
func (id PacketID) Byte() byte {
	if id > 0xFF {
		return 0
	}
	return byte(id)
}

// String returns the packet id's label
func (id PacketID) String() string {
	if label, ok := packetIDLabels[id]; ok {
		return label
	}
	if id == PacketUnknown {
		return "unknownPacketType"
	}
	return fmt.Sprintf("unknownPacketType(0x%02X)", uint16(id))
}

// IsRequest reports whether the id is a request sent to a device.
func (id PacketID) IsRequest() bool {
	label, ok := packetIDLabels[id]
	return ok && len(label) > 3 && label[:3] == "req"
}
