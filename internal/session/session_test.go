// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package session

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thermoquad/espbus/internal/demo"
	"github.com/Thermoquad/espbus/pkg/esp"
)

func TestRecording_RoundTrip(t *testing.T) {
	rec := NewRecording(esp.DeviceV1Connect)
	_, err := uuid.Parse(rec.ID)
	require.NoError(t, err)

	version, err := esp.NewVersionResponse(esp.DeviceV1WithChecksum, esp.DeviceV1Connect, "V4.1028")
	require.NoError(t, err)
	rec.Add(version)
	rec.Add(esp.NewBatteryVoltageResponse(esp.DeviceV1WithChecksum, esp.DeviceV1Connect, 13.5))

	var buf bytes.Buffer
	require.NoError(t, rec.Save(&buf))

	loaded, err := LoadRecording(&buf)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, loaded.ID)
	assert.Equal(t, "V1Connect", loaded.Device)
	require.Len(t, loaded.Frames, 2)

	packets, err := loaded.Packets()
	require.NoError(t, err)
	require.Len(t, packets, 2)
	assert.Equal(t, "V4.1028", packets[0].ResponseData())
	assert.Equal(t, 13.5, packets[1].ResponseData())
	assert.Equal(t, version.Bytes(), packets[0].Bytes())
}

func TestRecording_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.cbor")
	rec := NewRecording(esp.DeviceThirdParty1)
	rec.Add(esp.NewSerialNumberResponse(esp.DeviceV1WithChecksum, esp.DeviceThirdParty1, "ABC"))
	require.NoError(t, rec.WriteFile(path))

	loaded, err := ReadRecordingFile(path)
	require.NoError(t, err)
	packets, err := loaded.Packets()
	require.NoError(t, err)
	require.Len(t, packets, 1)
	assert.Equal(t, "ABC", packets[0].ResponseData())
}

func TestRecording_BadFrame(t *testing.T) {
	rec := NewRecording(esp.DeviceV1Connect)
	rec.Add(esp.NewVersionRequest(esp.DeviceV1Connect, esp.DeviceV1WithChecksum))
	rec.Frames = append(rec.Frames, Frame{Bytes: []byte{0xAA, 0x00}})

	packets, err := rec.Packets()
	assert.Error(t, err)
	assert.Len(t, packets, 1)
}

func TestLoadRecording_WrongVersion(t *testing.T) {
	rec := NewRecording(esp.DeviceV1Connect)
	rec.Version = 99
	var buf bytes.Buffer
	require.NoError(t, rec.Save(&buf))

	_, err := LoadRecording(&buf)
	assert.Error(t, err)
}

const testScript = `
device: Third Party 2
responses:
  - id: respVersion
    origin: V1 with checksum
    text: V4.1028
  - id: respBatteryVoltage
    origin: V1 with checksum
    payload: "0D 32"
  - id: respVehicleSpeed
    origin: SAVVY
    destination: V1Connect
    payload: "58"
`

func TestParseScript(t *testing.T) {
	script, err := ParseScript([]byte(testScript))
	require.NoError(t, err)

	packets, err := script.Packets(esp.DeviceV1Connect)
	require.NoError(t, err)
	require.Len(t, packets, 3)

	assert.Equal(t, esp.PacketRespVersion, packets[0].ID())
	assert.Equal(t, esp.DeviceThirdParty2, packets[0].Destination())
	assert.Equal(t, "V4.1028", packets[0].ResponseData())

	assert.Equal(t, 13.50, packets[1].ResponseData())

	assert.Equal(t, esp.DeviceSavvy, packets[2].Origin())
	assert.Equal(t, esp.DeviceV1Connect, packets[2].Destination())
	assert.Equal(t, 88, packets[2].ResponseData())
}

func TestParseScript_Defaults(t *testing.T) {
	script, err := ParseScript([]byte("defaults: true\n"))
	require.NoError(t, err)

	packets, err := script.Packets(esp.DeviceV1Connect)
	require.NoError(t, err)
	assert.NotEmpty(t, packets)
	for _, p := range packets {
		assert.Equal(t, esp.DeviceV1Connect, p.Destination())
	}
}

func TestParseScript_Errors(t *testing.T) {
	tests := []struct {
		name   string
		script string
	}{
		{"unknown id", "responses:\n  - id: respNothing\n    origin: SAVVY\n"},
		{"unknown origin", "responses:\n  - id: respVersion\n    origin: toaster\n"},
		{"bad hex", "responses:\n  - id: respVersion\n    origin: SAVVY\n    payload: ZZ\n"},
		{"payload and text", "responses:\n  - id: respVersion\n    origin: SAVVY\n    payload: \"00\"\n    text: x\n"},
		{"unknown device", "device: toaster\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			script, err := ParseScript([]byte(tt.script))
			require.NoError(t, err)
			_, err = script.Packets(esp.DeviceV1Connect)
			assert.Error(t, err)
		})
	}
}

func TestScript_Marshal(t *testing.T) {
	script := &Script{Device: "V1Connect", Responses: []ScriptResponse{{ID: "respVersion", Origin: "SAVVY", Text: "S3.0012"}}}
	data, err := script.Marshal()
	require.NoError(t, err)

	parsed, err := ParseScript(data)
	require.NoError(t, err)
	assert.Equal(t, script, parsed)
}

func TestNewScript_RoundTrip(t *testing.T) {
	app := esp.DeviceThirdParty2
	packets := demo.DefaultSession(app)
	packets = append(packets, esp.NewVersionRequest(app, esp.DeviceV1WithChecksum))

	script := NewScript(app, packets)
	assert.Equal(t, "Third Party 2", script.Device)
	require.Len(t, script.Responses, len(packets)-1)

	data, err := script.Marshal()
	require.NoError(t, err)
	parsed, err := ParseScript(data)
	require.NoError(t, err)

	rebuilt, err := parsed.Packets(esp.DeviceV1Connect)
	require.NoError(t, err)
	require.Len(t, rebuilt, len(packets)-1)
	for i := range rebuilt {
		assert.Equal(t, packets[i].Bytes(), rebuilt[i].Bytes(), "packet %d", i)
	}
}

func TestFormatHex(t *testing.T) {
	assert.Equal(t, "0D 52 FF", formatHex([]byte{0x0D, 0x52, 0xFF}))
	assert.Equal(t, "", formatHex(nil))
}
