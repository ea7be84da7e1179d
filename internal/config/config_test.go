// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thermoquad/espbus/pkg/esp"
)

func TestLoad_Defaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load(New(), "")
	require.NoError(t, err)
	assert.Equal(t, 19200, cfg.Link.Baud)
	assert.Equal(t, FramingRaw, cfg.Link.Framing)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.False(t, cfg.Demo.Enabled)

	device, err := cfg.AppDevice()
	require.NoError(t, err)
	assert.Equal(t, esp.DeviceV1Connect, device)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	data := []byte(`
app:
  device: Third Party 1
link:
  port: /dev/ttyUSB0
  framing: spp
demo:
  enabled: true
  script: demo.yaml
logging:
  level: debug
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := Load(New(), path)
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB0", cfg.Link.Port)
	assert.Equal(t, FramingSPP, cfg.Link.Framing)
	assert.Equal(t, 19200, cfg.Link.Baud)
	assert.True(t, cfg.Demo.Enabled)
	assert.Equal(t, "demo.yaml", cfg.Demo.Script)
	assert.Equal(t, "debug", cfg.Logging.Level)

	device, err := cfg.AppDevice()
	require.NoError(t, err)
	assert.Equal(t, esp.DeviceThirdParty1, device)
}

func TestLoad_EnvOverride(t *testing.T) {
	chdirTemp(t)
	t.Setenv("ESPBUS_LINK_BAUD", "9600")
	t.Setenv("ESPBUS_METRICS_ADDR", ":9100")

	cfg, err := Load(New(), "")
	require.NoError(t, err)
	assert.Equal(t, 9600, cfg.Link.Baud)
	assert.Equal(t, ":9100", cfg.Metrics.Addr)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(New(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	chdirTemp(t)

	t.Setenv("ESPBUS_LINK_FRAMING", "hdlc")
	_, err := Load(New(), "")
	assert.Error(t, err)

	t.Setenv("ESPBUS_LINK_FRAMING", "spp")
	t.Setenv("ESPBUS_APP_DEVICE", "toaster")
	_, err = Load(New(), "")
	assert.Error(t, err)
}

// chdirTemp changes the working directory to a fresh temporary directory
// for the duration of the test, restoring it on cleanup (like t.Chdir).
func chdirTemp(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
